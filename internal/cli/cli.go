package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/edalab/copperview/pkg/buildinfo"
	"github.com/edalab/copperview/pkg/cache"
	"github.com/edalab/copperview/pkg/config"
	"github.com/edalab/copperview/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "copperview"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// ConfigPath overrides the default config file location when set via
	// the --config flag.
	ConfigPath string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "copperview",
		Short:        "Copperview turns board descriptions into render-ready geometry",
		Long:         `Copperview is a tool for tessellating printed circuit board descriptions into GPU-ready triangle buffers and checking conductor clearance.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.ConfigPath, "config", "", "config file (default ~/.config/copperview/config.toml)")

	// Register all subcommands
	root.AddCommand(c.tessellateCommand())
	root.AddCommand(c.drcCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Config & Runner Factories
// =============================================================================

// loadConfig reads the config file, honoring the --config override.
func (c *CLI) loadConfig() (config.Config, error) {
	path := c.ConfigPath
	if path == "" {
		path = config.DefaultPath()
	}
	return config.Load(path)
}

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(cfg config.Config, noCache bool) (*pipeline.Runner, error) {
	store, err := newCache(cfg, noCache)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(store, nil, c.Logger), nil
}

func newCache(cfg config.Config, noCache bool) (cache.Cache, error) {
	if noCache || cfg.Cache.Backend == "none" {
		return cache.NewNullCache(), nil
	}
	if cfg.Cache.Backend == "redis" {
		return cache.NewRedisCache(context.Background(), cfg.Cache.RedisURL)
	}
	dir := cfg.Cache.Dir
	if dir == "" {
		var err error
		if dir, err = cacheDir(); err != nil {
			return cache.NewNullCache(), nil
		}
	}
	return cache.NewFileCache(dir)
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/copperview/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}
