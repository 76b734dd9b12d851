// Package cache provides caching for expensive pipeline stages.
//
// Tessellating a dense board and running a full clearance check are the
// two dominant costs in the pipeline, and both are pure functions of
// their inputs. The cache stores their serialized outputs keyed by a
// content hash of the board plus the options that shaped the result.
//
// Two backend implementations are provided:
//   - FileCache: per-user cache directory for CLI usage
//   - RedisCache: shared cache for the HTTP server
//
// NullCache disables caching without changing call sites.
package cache

import (
	"context"
	"time"
)

// Cache is the interface all cache backends implement.
// Get returns (data, found, error); a miss is not an error.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Cache TTLs per key type. Imported boards and their geometry are pure
// functions of the source, so they keep long TTLs; check results follow
// the geometry.
const (
	TTLBoard    = 7 * 24 * time.Hour
	TTLGeometry = 24 * time.Hour
	TTLCheck    = 24 * time.Hour
)

// GeometryKeyOpts captures the tessellation options that affect the
// produced buffers. Two runs with equal board hashes and equal opts
// yield byte-identical geometry.
type GeometryKeyOpts struct {
	Zoom        float64 // Zoom used for via level selection
	PixelsPerMM float64
}

// ClearanceKeyOpts captures the rule set that affects a clearance check.
type ClearanceKeyOpts struct {
	ClearanceMM float64
	Regions     bool // Whether region geometry was collected
}

// Keyer generates cache keys for the pipeline stages.
// Implementations must produce stable keys: equal inputs map to equal
// keys across processes and versions of the same build.
type Keyer interface {
	// BoardKey generates a key for an imported, validated board.
	BoardKey(source string) string

	// GeometryKey generates a key for tessellated shader geometry.
	GeometryKey(boardHash string, opts GeometryKeyOpts) string

	// ClearanceKey generates a key for clearance check results.
	ClearanceKey(geometryHash string, opts ClearanceKeyOpts) string
}

// DefaultKeyer is the standard key generator.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard key generator.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

// BoardKey generates a key for an imported board.
func (k *DefaultKeyer) BoardKey(source string) string {
	return hashKey("board", source)
}

// GeometryKey generates a key for tessellated geometry.
func (k *DefaultKeyer) GeometryKey(boardHash string, opts GeometryKeyOpts) string {
	return hashKey("geom", boardHash, opts.Zoom, opts.PixelsPerMM)
}

// ClearanceKey generates a key for clearance check results.
func (k *DefaultKeyer) ClearanceKey(geometryHash string, opts ClearanceKeyOpts) string {
	return hashKey("drc", geometryHash, opts.ClearanceMM, opts.Regions)
}

// Ensure DefaultKeyer implements Keyer.
var _ Keyer = (*DefaultKeyer)(nil)
