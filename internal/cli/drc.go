package cli

import (
	"encoding/json"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/edalab/copperview/pkg/pipeline"
	"github.com/edalab/copperview/pkg/report"
)

// drcOpts holds the command-line flags for the drc command.
type drcOpts struct {
	clearance   float64 // minimum conductor distance in millimeters
	regions     bool    // collect fused violation regions
	graph       string  // write a net conflict SVG to this path
	jsonOut     string  // write the raw violation list as JSON
	interactive bool    // browse violations in the terminal
	noCache     bool    // disable the result cache
	refresh     bool    // recompute even on a cache hit
}

// drcCommand creates the drc command. It loads a board, runs the clearance
// check over every copper layer, and reports the violations found.
func (c *CLI) drcCommand() *cobra.Command {
	var opts drcOpts

	cmd := &cobra.Command{
		Use:   "drc [board.json]",
		Short: "Run the clearance check on a board",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runDrc(cmd, args[0], opts)
		},
	}

	cmd.Flags().Float64Var(&opts.clearance, "clearance", 0, "minimum clearance in mm (default from config)")
	cmd.Flags().BoolVar(&opts.regions, "regions", false, "collect fused violation regions")
	cmd.Flags().StringVar(&opts.graph, "graph", "", "write a net conflict diagram SVG to this path")
	cmd.Flags().StringVar(&opts.jsonOut, "json", "", "write the violation list as JSON to this path")
	cmd.Flags().BoolVarP(&opts.interactive, "interactive", "i", false, "browse violations interactively")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the result cache")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "recompute even when cached")

	return cmd
}

func (c *CLI) runDrc(cmd *cobra.Command, input string, opts drcOpts) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	runner, err := c.newRunner(cfg, opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	clearance := opts.clearance
	if clearance == 0 {
		clearance = cfg.Rules.ClearanceMM
	}

	spin := newSpinnerWithContext(cmd.Context(), fmt.Sprintf("Checking %s...", input))
	spin.Start()

	result, err := runner.Execute(cmd.Context(), pipeline.Options{
		Path:        input,
		Workers:     cfg.Tess.Workers,
		ClearanceMM: clearance,
		Regions:     opts.regions,
		Check:       true,
		Refresh:     opts.refresh,
		Logger:      loggerFromContext(cmd.Context()),
	})
	if err != nil {
		spin.StopWithError(fmt.Sprintf("Check failed: %v", err))
		return err
	}
	spin.Stop()

	sum := report.Summarize(result.Violations)
	printCheckSummary(input, sum, result)

	if opts.jsonOut != "" {
		data, err := json.MarshalIndent(result.Violations, "", "  ")
		if err != nil {
			return fmt.Errorf("serialize violations: %w", err)
		}
		if err := os.WriteFile(opts.jsonOut, data, 0644); err != nil {
			return fmt.Errorf("write %s: %w", opts.jsonOut, err)
		}
		printFile(opts.jsonOut)
	}

	if opts.graph != "" {
		dot := report.ToDOT(result.Violations, result.Layers, report.Options{Detailed: true})
		svg, err := report.RenderSVG(dot)
		if err != nil {
			return fmt.Errorf("render conflict diagram: %w", err)
		}
		if err := os.WriteFile(opts.graph, svg, 0644); err != nil {
			return fmt.Errorf("write %s: %w", opts.graph, err)
		}
		printFile(opts.graph)
	}

	if opts.interactive && len(result.Violations) > 0 {
		model := NewViolationListModel(result.Violations, result.Layers)
		if _, err := tea.NewProgram(model).Run(); err != nil {
			return fmt.Errorf("violation browser: %w", err)
		}
	}

	if sum.Total > 0 {
		// Nonzero exit so scripted runs can gate on the check.
		cmd.SilenceErrors = true
		return fmt.Errorf("%d clearance violations", sum.Total)
	}
	return nil
}
