package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/edalab/copperview/pkg/board"
	"github.com/edalab/copperview/pkg/cache"
	"github.com/edalab/copperview/pkg/drc"
	"github.com/edalab/copperview/pkg/errors"
	"github.com/edalab/copperview/pkg/httputil"
	"github.com/edalab/copperview/pkg/observability"
	"github.com/edalab/copperview/pkg/spatial"
	"github.com/edalab/copperview/pkg/tess"
	"github.com/edalab/copperview/pkg/wire"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API can use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache, logger, and lazily built
// HTTP fetcher - it doesn't store pipeline results. Multiple goroutines can
// safely use the same Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger

	fetchOnce sync.Once
	fetch     *httputil.Fetcher
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs the complete load → tessellate → index → check pipeline
// with caching.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	r.applyLogger(&opts)

	result := &Result{}

	// Stage 1: Load
	loadStart := time.Now()
	b, hash, err := r.Load(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	result.Board = b
	result.BoardHash = hash
	result.Stats.LoadTime = time.Since(loadStart)
	result.Stats.LayerCount = len(b.Layers)

	r.Logger.Info("loaded board",
		"name", opts.Name,
		"layers", len(b.Layers),
		"duration", result.Stats.LoadTime)

	// Stage 2: Tessellate
	tessStart := time.Now()
	layers, objects, err := r.Tessellate(ctx, b, opts)
	if err != nil {
		return nil, fmt.Errorf("tessellate: %w", err)
	}
	result.Layers = layers
	result.Objects = objects
	result.Stats.TessTime = time.Since(tessStart)
	result.Stats.ObjectCount = len(objects)
	result.Stats.TriangleCount = CountTriangles(layers)

	r.Logger.Info("tessellated board",
		"objects", len(objects),
		"triangles", result.Stats.TriangleCount,
		"duration", result.Stats.TessTime)

	// Stage 3: Index
	indexStart := time.Now()
	result.Index = spatial.Build(objects)
	result.Stats.IndexTime = time.Since(indexStart)

	// Stage 4a: Encode (optional)
	if opts.Encode {
		encodeStart := time.Now()
		buf, bufferHit, err := r.EncodeWithCacheInfo(ctx, hash, layers, opts)
		if err != nil {
			return nil, fmt.Errorf("encode: %w", err)
		}
		result.Buffer = buf
		result.Stats.EncodeTime = time.Since(encodeStart)
		result.CacheInfo.BufferHit = bufferHit

		r.Logger.Info("encoded geometry",
			"bytes", len(buf),
			"cached", bufferHit,
			"duration", result.Stats.EncodeTime)
	}

	// Stage 4b: Check (optional)
	if opts.Check {
		checkStart := time.Now()
		violations, regions, checkHit, err := r.CheckWithCacheInfo(ctx, hash, layers, result.Index, opts)
		if err != nil {
			return nil, fmt.Errorf("check: %w", err)
		}
		result.Violations = violations
		result.Regions = regions
		result.Stats.CheckTime = time.Since(checkStart)
		result.CacheInfo.CheckHit = checkHit

		r.Logger.Info("checked clearance",
			"violations", len(violations),
			"cached", checkHit,
			"duration", result.Stats.CheckTime)
	}

	return result, nil
}

// Load decodes and validates a board from Options.Source or Options.Path
// (a local file or an http(s) URL) and returns it with its content hash. Decoding is cheap relative to the
// later stages, so load results are never cached; the hash seeds the cache
// keys downstream.
func (r *Runner) Load(ctx context.Context, opts Options) (*board.Board, string, error) {
	if err := opts.ValidateForLoad(); err != nil {
		return nil, "", err
	}
	r.applyLogger(&opts)

	start := time.Now()
	observability.Pipeline().OnImportStart(ctx, opts.Name)

	var (
		b   *board.Board
		err error
	)
	source := opts.Source
	if len(source) > 0 {
		b, err = wire.ReadBoard(bytes.NewReader(source))
	} else {
		source, err = r.readSource(ctx, opts.Path)
		if err == nil {
			b, err = wire.ReadBoard(bytes.NewReader(source))
		}
	}
	if err != nil {
		observability.Pipeline().OnImportComplete(ctx, opts.Name, 0, time.Since(start), err)
		return nil, "", err
	}

	observability.Pipeline().OnImportComplete(ctx, opts.Name, len(b.Layers), time.Since(start), nil)
	return b, cache.Hash(source), nil
}

// Tessellate assembles the shader geometry for every layer.
func (r *Runner) Tessellate(ctx context.Context, b *board.Board, opts Options) ([]*tess.LayerGeometry, []*tess.ObjectRange, error) {
	opts.SetTessellateDefaults()
	r.applyLogger(&opts)

	start := time.Now()
	observability.Pipeline().OnTessellateStart(ctx, opts.Name, len(b.Layers))

	layers, objects, err := tess.AssembleBoard(b, tess.AssembleOptions{
		Workers: opts.Workers,
		ViaLOD:  opts.ViaLODOptions(),
		Logger:  opts.Logger,
	})
	if err != nil {
		observability.Pipeline().OnTessellateComplete(ctx, opts.Name, 0, time.Since(start), err)
		return nil, nil, err
	}

	observability.Pipeline().OnTessellateComplete(ctx, opts.Name, CountTriangles(layers), time.Since(start), nil)
	return layers, objects, nil
}

// EncodeWithCacheInfo serializes the layer geometry to the binary buffer
// format with caching and returns cache hit info.
func (r *Runner) EncodeWithCacheInfo(ctx context.Context, boardHash string, layers []*tess.LayerGeometry, opts Options) ([]byte, bool, error) {
	opts.SetTessellateDefaults()
	opts.SetCheckDefaults()

	cacheKey := r.Keyer.GeometryKey(boardHash, opts.GeometryKeyOpts())

	// Try cache first (unless refresh requested)
	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			observability.Cache().OnCacheHit(ctx, cacheKey)
			return data, true, nil // Cache hit
		}
		observability.Cache().OnCacheMiss(ctx, cacheKey)
	}

	var buf bytes.Buffer
	if err := wire.EncodeGeometry(&buf, layers, opts.Color); err != nil {
		return nil, false, err
	}
	data := buf.Bytes()

	_ = r.Cache.Set(ctx, cacheKey, data, cache.TTLGeometry)
	observability.Cache().OnCacheSet(ctx, cacheKey, len(data))

	return data, false, nil // Cache miss
}

// Encode is a convenience wrapper that calls EncodeWithCacheInfo and
// discards the cache hit info.
func (r *Runner) Encode(ctx context.Context, boardHash string, layers []*tess.LayerGeometry, opts Options) ([]byte, error) {
	data, _, err := r.EncodeWithCacheInfo(ctx, boardHash, layers, opts)
	return data, err
}

// checkPayload is the cached serialization of a check result.
type checkPayload struct {
	Violations []drc.Violation `json:"violations"`
	Regions    []drc.Region    `json:"regions,omitempty"`
}

// CheckWithCacheInfo runs the clearance check with caching and returns
// cache hit info. Regions are collected only when Options.Regions is set.
func (r *Runner) CheckWithCacheInfo(ctx context.Context, boardHash string, layers []*tess.LayerGeometry, index *spatial.Index, opts Options) ([]drc.Violation, []drc.Region, bool, error) {
	opts.SetTessellateDefaults()
	opts.SetCheckDefaults()
	r.applyLogger(&opts)

	// The geometry key pins the check result to the exact buffers checked.
	geomKey := r.Keyer.GeometryKey(boardHash, opts.GeometryKeyOpts())
	cacheKey := r.Keyer.ClearanceKey(geomKey, opts.ClearanceKeyOpts())

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			var payload checkPayload
			if err := json.Unmarshal(data, &payload); err == nil {
				observability.Cache().OnCacheHit(ctx, cacheKey)
				return payload.Violations, payload.Regions, true, nil // Cache hit
			}
			// If deserialization fails, fall through to recompute
		}
		observability.Cache().OnCacheMiss(ctx, cacheKey)
	}

	start := time.Now()
	objectCount := 0
	for _, lg := range layers {
		objectCount += len(lg.Objects)
	}
	observability.Pipeline().OnClearanceStart(ctx, opts.Name, objectCount)

	checker := drc.NewChecker(layers, index, opts.Rules(), opts.Workers, opts.Logger)
	violations := checker.RunFull()
	var regions []drc.Region
	if opts.Regions {
		regions = checker.RunFullWithRegions(nil)
	}

	observability.Pipeline().OnClearanceComplete(ctx, opts.Name, len(violations), time.Since(start), nil)

	if data, err := json.Marshal(checkPayload{Violations: violations, Regions: regions}); err == nil {
		_ = r.Cache.Set(ctx, cacheKey, data, cache.TTLCheck)
		observability.Cache().OnCacheSet(ctx, cacheKey, len(data))
	}

	return violations, regions, false, nil // Cache miss
}

// Check is a convenience wrapper that calls CheckWithCacheInfo and discards
// the cache hit info.
func (r *Runner) Check(ctx context.Context, boardHash string, layers []*tess.LayerGeometry, index *spatial.Index, opts Options) ([]drc.Violation, []drc.Region, error) {
	violations, regions, _, err := r.CheckWithCacheInfo(ctx, boardHash, layers, index, opts)
	return violations, regions, err
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

// readSource resolves Options.Path, which is either a local file path or
// an http(s) URL pointing at a hosted board document.
func (r *Runner) readSource(ctx context.Context, path string) ([]byte, error) {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return r.fetcher().Fetch(ctx, path)
	}
	return readFile(path)
}

// fetcher lazily builds the HTTP fetcher. The fetch cache lives outside the
// runner's geometry cache because board documents expire on their own TTL.
func (r *Runner) fetcher() *httputil.Fetcher {
	r.fetchOnce.Do(func() {
		fc, err := httputil.NewCache("", cache.TTLBoard)
		if err != nil {
			r.Logger.Warn("fetch cache unavailable", "error", err)
			fc = nil
		}
		r.fetch = httputil.NewFetcher(fc)
	})
	return r.fetch
}

func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "read %s", path)
	}
	return data, nil
}
