// Package pipeline provides the core geometry pipeline for Copperview.
//
// This package implements the complete load → tessellate → check pipeline
// that can be used by CLI, API, and worker components. By centralizing
// this logic, we ensure consistent behavior across all entry points and
// avoid code duplication.
//
// # Architecture
//
// The pipeline consists of four stages:
//
//  1. Load: Decode and validate a board description
//  2. Tessellate: Assemble per-layer shader geometry with LODs
//  3. Index: Build the spatial index over object bounds
//  4. Check: Run the clearance check (optional)
//
// Tessellated buffers and check results are cached by content hash; the
// load and index stages are cheap enough to always recompute.
//
// # Usage
//
// Create a Runner and execute the pipeline:
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	opts := pipeline.Options{
//	    Path:   "board.json",
//	    Check:  true,
//	    Encode: true,
//	}
//	result, err := runner.Execute(ctx, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	buf := result.Buffer
//
// Run individual stages:
//
//	// Load only
//	b, hash, err := runner.Load(ctx, opts)
//
//	// Check with existing geometry
//	violations, regions, err := runner.Check(ctx, hash, layers, index, opts)
package pipeline

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/edalab/copperview/pkg/board"
	"github.com/edalab/copperview/pkg/cache"
	"github.com/edalab/copperview/pkg/drc"
	"github.com/edalab/copperview/pkg/spatial"
	"github.com/edalab/copperview/pkg/tess"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI, API, and Worker
// =============================================================================

const (
	// DefaultZoom is the zoom factor used for via level selection when no
	// viewport information is available.
	DefaultZoom = 1.0

	// DefaultPixelsPerMM is the assumed screen density for via pixel-size
	// estimates. Matches tess.DefaultViaLOD.
	DefaultPixelsPerMM = 100.0

	// DefaultClearanceMM is the clearance applied when no rules are given.
	// Matches drc.DefaultClearanceMM.
	DefaultClearanceMM = float64(drc.DefaultClearanceMM)
)

// DefaultColor is the copper fill color written into encoded buffers when
// the caller provides none.
var DefaultColor = board.Color{R: 0.72, G: 0.45, B: 0.20, A: 1}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for the geometry pipeline.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Load options
	Source  []byte `json:"source,omitempty"`
	Path    string `json:"path,omitempty"` // Local file path or http(s) URL; ignored when Source is set
	Name    string `json:"name,omitempty"` // Display name for logs and hooks
	Refresh bool   `json:"refresh,omitempty"`

	// Tessellate options
	Workers     int     `json:"workers,omitempty"`
	Zoom        float64 `json:"zoom,omitempty"`
	PixelsPerMM float64 `json:"pixels_per_mm,omitempty"`

	// Check options
	Check       bool    `json:"check,omitempty"`
	ClearanceMM float64 `json:"clearance_mm,omitempty"`
	Regions     bool    `json:"regions,omitempty"` // Collect violation regions for incremental reruns

	// Encode options
	Encode bool        `json:"encode,omitempty"`
	Color  board.Color `json:"color,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger        `json:"-"`
	ViaLOD tess.ViaLODOptions `json:"-"` // Full threshold override; zero derives from Zoom and PixelsPerMM

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool `json:"-"`
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Board is the decoded shape model.
	Board *board.Board

	// BoardHash is the content hash of the board source.
	BoardHash string

	// Layers holds the assembled geometry, one entry per board layer.
	Layers []*tess.LayerGeometry

	// Objects is the flat object list across layers.
	Objects []*tess.ObjectRange

	// Index is the spatial index over object bounds.
	Index *spatial.Index

	// Buffer is the encoded geometry stream (set when Options.Encode).
	Buffer []byte

	// Violations and Regions hold the check outputs (set when Options.Check).
	Violations []drc.Violation
	Regions    []drc.Region

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	LayerCount    int
	ObjectCount   int
	TriangleCount int
	LoadTime      time.Duration
	TessTime      time.Duration
	IndexTime     time.Duration
	EncodeTime    time.Duration
	CheckTime     time.Duration
}

// CacheInfo tracks cache hits for the cached pipeline stages.
type CacheInfo struct {
	BufferHit bool // Whether the encoded buffer came from cache
	CheckHit  bool // Whether the check result came from cache
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks required fields and applies defaults for the
// full pipeline. This method is idempotent - calling it multiple times has
// the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForLoad(); err != nil {
		return err
	}
	o.SetTessellateDefaults()
	o.SetCheckDefaults()
	o.validated = true
	return nil
}

// ValidateForLoad checks required fields for loading a board.
func (o *Options) ValidateForLoad() error {
	if len(o.Source) == 0 && o.Path == "" {
		return fmt.Errorf("source or path is required")
	}
	if o.Name == "" {
		if o.Path != "" {
			o.Name = o.Path
		} else {
			o.Name = "inline"
		}
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return nil
}

// SetTessellateDefaults sets default values for tessellation.
func (o *Options) SetTessellateDefaults() {
	if o.Zoom == 0 {
		o.Zoom = DefaultZoom
	}
	if o.PixelsPerMM == 0 {
		o.PixelsPerMM = DefaultPixelsPerMM
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// SetCheckDefaults sets default values for the clearance check.
func (o *Options) SetCheckDefaults() {
	if o.ClearanceMM == 0 {
		o.ClearanceMM = DefaultClearanceMM
	}
	if o.Color == (board.Color{}) {
		o.Color = DefaultColor
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ViaLODOptions resolves the effective via LOD thresholds: the explicit
// override when set, otherwise the defaults scaled by Zoom and PixelsPerMM.
func (o *Options) ViaLODOptions() tess.ViaLODOptions {
	if o.ViaLOD != (tess.ViaLODOptions{}) {
		return o.ViaLOD
	}
	lod := tess.DefaultViaLOD()
	if o.Zoom != 0 {
		lod.Zoom = float32(o.Zoom)
	}
	if o.PixelsPerMM != 0 {
		lod.PixelsPerMM = float32(o.PixelsPerMM)
	}
	return lod
}

// Rules returns the effective clearance rules.
func (o *Options) Rules() drc.Rules {
	return drc.Rules{ClearanceMM: float32(o.ClearanceMM)}
}

// GeometryKeyOpts returns cache key options for tessellated geometry.
func (o *Options) GeometryKeyOpts() cache.GeometryKeyOpts {
	lod := o.ViaLODOptions()
	return cache.GeometryKeyOpts{
		Zoom:        float64(lod.Zoom),
		PixelsPerMM: float64(lod.PixelsPerMM),
	}
}

// ClearanceKeyOpts returns cache key options for the clearance check.
func (o *Options) ClearanceKeyOpts() cache.ClearanceKeyOpts {
	return cache.ClearanceKeyOpts{
		ClearanceMM: o.ClearanceMM,
		Regions:     o.Regions,
	}
}

// =============================================================================
// Stats Helpers
// =============================================================================

// CountTriangles sums level-0 triangle counts across all shader classes.
// Instanced classes multiply the mesh triangles by the instance count.
func CountTriangles(layers []*tess.LayerGeometry) int {
	total := 0
	for _, lg := range layers {
		if len(lg.Shader.Batch) > 0 {
			total += len(lg.Shader.Batch[0].Indices) / 3
		}
		if len(lg.Shader.BatchColored) > 0 {
			total += len(lg.Shader.BatchColored[0].Indices) / 3
		}
		if len(lg.Shader.InstancedRot) > 0 {
			lod := lg.Shader.InstancedRot[0]
			total += len(lod.Indices) / 3 * lod.InstanceCount()
		}
		if len(lg.Shader.Instanced) > 0 {
			lod := lg.Shader.Instanced[0]
			total += len(lod.Indices) / 3 * lod.InstanceCount()
		}
	}
	return total
}
