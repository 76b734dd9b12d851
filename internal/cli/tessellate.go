package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/edalab/copperview/pkg/pipeline"
)

// tessellateOpts holds the command-line flags for the tessellate command.
type tessellateOpts struct {
	output      string  // output file path (defaults to the input with .cvgeo)
	zoom        float64 // zoom factor for via level selection
	pixelsPerMM float64 // assumed screen density
	workers     int     // parallel layer fan-out, 0 = one per CPU
	noCache     bool    // disable the geometry cache
	refresh     bool    // recompute even on a cache hit
}

// tessellateCommand creates the tessellate command. It loads a board JSON
// document, assembles the per-layer shader buffers, and writes them in the
// binary geometry format.
func (c *CLI) tessellateCommand() *cobra.Command {
	var opts tessellateOpts

	cmd := &cobra.Command{
		Use:   "tessellate [board.json]",
		Short: "Tessellate a board into GPU-ready geometry buffers",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runTessellate(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default input name with .cvgeo)")
	cmd.Flags().Float64Var(&opts.zoom, "zoom", 0, "zoom factor for via detail selection")
	cmd.Flags().Float64Var(&opts.pixelsPerMM, "pixels-per-mm", 0, "assumed screen density")
	cmd.Flags().IntVar(&opts.workers, "workers", 0, "parallel layer workers (0 = one per CPU)")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the geometry cache")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "recompute even when cached")

	return cmd
}

func (c *CLI) runTessellate(cmd *cobra.Command, input string, opts tessellateOpts) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	runner, err := c.newRunner(cfg, opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	spin := newSpinnerWithContext(cmd.Context(), fmt.Sprintf("Tessellating %s...", input))
	spin.Start()
	prog := newProgress(loggerFromContext(cmd.Context()))

	result, err := runner.Execute(cmd.Context(), pipeline.Options{
		Path:        input,
		Workers:     pick(opts.workers, cfg.Tess.Workers),
		Zoom:        pickF(opts.zoom, cfg.ViaLOD.Zoom),
		PixelsPerMM: pickF(opts.pixelsPerMM, cfg.ViaLOD.PixelsPerMM),
		Encode:      true,
		Refresh:     opts.refresh,
		Logger:      loggerFromContext(cmd.Context()),
	})
	if err != nil {
		spin.StopWithError(fmt.Sprintf("Tessellation failed: %v", err))
		return err
	}
	spin.Stop()
	prog.done("tessellation pipeline finished")

	output := opts.output
	if output == "" {
		output = strings.TrimSuffix(input, filepath.Ext(input)) + ".cvgeo"
	}
	if err := os.WriteFile(output, result.Buffer, 0644); err != nil {
		return fmt.Errorf("write %s: %w", output, err)
	}

	printSuccess("Tessellated %s", input)
	printGeometryStats(result)
	printFile(output)
	printNewline()
	printNextStep("Check clearance", fmt.Sprintf("copperview drc %s", input))
	return nil
}

// pick returns the flag value when set, otherwise the config value.
func pick(flag, cfg int) int {
	if flag != 0 {
		return flag
	}
	return cfg
}

func pickF(flag, cfg float64) float64 {
	if flag != 0 {
		return flag
	}
	return cfg
}
