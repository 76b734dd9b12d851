// Package config loads application configuration from a TOML file.
//
// Configuration covers the tunable constants of the pipeline (clearance
// rules, via LOD pixel thresholds, worker counts) and the server/cache
// wiring. Everything has a working default; a missing config file is
// not an error.
//
// Default location: ~/.config/copperview/config.toml, overridable with
// the --config flag.
package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/edalab/copperview/pkg/drc"
	"github.com/edalab/copperview/pkg/errors"
	"github.com/edalab/copperview/pkg/tess"
)

// Config is the full application configuration.
type Config struct {
	Rules  Rules  `toml:"rules"`
	ViaLOD ViaLOD `toml:"via_lod"`
	Tess   Tess   `toml:"tessellation"`
	Server Server `toml:"server"`
	Cache  CacheC `toml:"cache"`
}

// Rules configures the clearance check.
type Rules struct {
	ClearanceMM float64 `toml:"clearance_mm"`
}

// ViaLOD configures the pixel-size thresholds for via detail selection.
// These are tuning constants, not derived physical quantities.
type ViaLOD struct {
	PixelsPerMM float64 `toml:"pixels_per_mm"`
	Zoom        float64 `toml:"zoom"`
	HoleLOD0    float64 `toml:"hole_lod0_px"`
	HoleLOD1    float64 `toml:"hole_lod1_px"`
	SolidLOD1   float64 `toml:"solid_lod1_px"`
	SolidLOD2   float64 `toml:"solid_lod2_px"`
}

// Tess configures the tessellation pipeline.
type Tess struct {
	Workers   int    `toml:"workers"`
	DumpLayer string `toml:"dump_layer"`
}

// Server configures the HTTP server and its backing stores.
type Server struct {
	Addr       string `toml:"addr"`
	MongoURI   string `toml:"mongo_uri"`
	MongoDB    string `toml:"mongo_db"`
	SessionDir string `toml:"session_dir"` // file-backed sessions when no mongo URI is set
	WebhookURL string `toml:"webhook_url"`
}

// CacheC configures the pipeline cache backend.
type CacheC struct {
	Backend  string `toml:"backend"` // "file", "redis", or "none"
	Dir      string `toml:"dir"`
	RedisURL string `toml:"redis_url"`
	TTLHours int    `toml:"ttl_hours"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	via := tess.DefaultViaLOD()
	return Config{
		Rules: Rules{ClearanceMM: drc.DefaultClearanceMM},
		ViaLOD: ViaLOD{
			PixelsPerMM: float64(via.PixelsPerMM),
			Zoom:        float64(via.Zoom),
			HoleLOD0:    float64(via.HoleLOD0),
			HoleLOD1:    float64(via.HoleLOD1),
			SolidLOD1:   float64(via.SolidLOD1),
			SolidLOD2:   float64(via.SolidLOD2),
		},
		Tess: Tess{Workers: 0},
		Server: Server{
			Addr:    ":8080",
			MongoDB: "copperview",
		},
		Cache: CacheC{
			Backend:  "file",
			TTLHours: 24,
		},
	}
}

// DefaultPath returns the default config file location, or "" when the
// home directory cannot be resolved.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "copperview", "config.toml")
}

// Load reads a config file at path, applying file values over defaults.
// An empty path means the default location; a missing file at the
// default location yields the defaults without error. A missing file at
// an explicitly given path is an error.
func Load(path string) (Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}

	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		if explicit {
			return cfg, errors.New(errors.ErrCodeFileNotFound, "config file %s not found", path)
		}
		return cfg, nil
	}
	if err != nil {
		return cfg, errors.Wrap(errors.ErrCodeInvalidInput, err, "read config %s", path)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrap(errors.ErrCodeInvalidFormat, err, "parse config %s", path)
	}
	return cfg, cfg.validate()
}

func (c Config) validate() error {
	if c.Rules.ClearanceMM < 0 {
		return errors.New(errors.ErrCodeInvalidRules, "clearance_mm must be >= 0")
	}
	switch c.Cache.Backend {
	case "", "file", "redis", "none":
	default:
		return errors.New(errors.ErrCodeInvalidInput, "unknown cache backend %q", c.Cache.Backend)
	}
	return nil
}

// ViaOptions converts the configured thresholds into pipeline options.
func (c Config) ViaOptions() tess.ViaLODOptions {
	return tess.ViaLODOptions{
		PixelsPerMM: float32(c.ViaLOD.PixelsPerMM),
		Zoom:        float32(c.ViaLOD.Zoom),
		HoleLOD0:    float32(c.ViaLOD.HoleLOD0),
		HoleLOD1:    float32(c.ViaLOD.HoleLOD1),
		SolidLOD1:   float32(c.ViaLOD.SolidLOD1),
		SolidLOD2:   float32(c.ViaLOD.SolidLOD2),
	}
}

// DrcRules converts the configured rules into checker rules.
func (c Config) DrcRules() drc.Rules {
	return drc.Rules{ClearanceMM: float32(c.Rules.ClearanceMM)}
}
