package drc

import (
	"runtime"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/edalab/copperview/pkg/geom"
	"github.com/edalab/copperview/pkg/spatial"
	"github.com/edalab/copperview/pkg/tess"
)

// Rules holds the clearance configuration for a check run.
type Rules struct {
	// ClearanceMM is the minimum allowed distance between conductors on
	// the same layer that do not share a net.
	ClearanceMM float32
}

// DefaultClearanceMM is the documented fallback when no rules are
// configured.
const DefaultClearanceMM = 0.15

func (r *Rules) setDefaults() {
	if r.ClearanceMM <= 0 {
		r.ClearanceMM = DefaultClearanceMM
	}
}

// Violation is a single clearance failure between two objects.
type Violation struct {
	ObjectA     tess.ObjectID
	ObjectB     tess.ObjectID
	LayerID     string
	DistanceMM  float32
	ClearanceMM float32
	Point       geom.Vec2
}

// Touches reports whether the violation involves the given object.
func (v Violation) Touches(id tess.ObjectID) bool {
	return v.ObjectA == id || v.ObjectB == id
}

// trianglePair is one violating triangle pair feeding the region fuser.
type trianglePair struct {
	Violation
	TriA, TriB geom.Triangle
}

// Checker runs clearance checks over assembled layer geometry. A Checker
// is read-only over its inputs and safe for use from one run at a time;
// the pairwise scan inside a run fans out across workers.
type Checker struct {
	layers  []*tess.LayerGeometry
	index   *spatial.Index
	rules   Rules
	workers int
	logger  *log.Logger

	byID map[tess.ObjectID]*tess.ObjectRange
}

// NewChecker builds a checker over the given layers and spatial index.
// workers <= 0 means one per CPU; a nil logger uses the default.
func NewChecker(layers []*tess.LayerGeometry, index *spatial.Index, rules Rules, workers int, logger *log.Logger) *Checker {
	rules.setDefaults()
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if logger == nil {
		logger = log.Default()
	}
	byID := make(map[tess.ObjectID]*tess.ObjectRange)
	for _, lg := range layers {
		for _, obj := range lg.Objects {
			byID[obj.ID] = obj
		}
	}
	return &Checker{
		layers:  layers,
		index:   index,
		rules:   rules,
		workers: workers,
		logger:  logger,
		byID:    byID,
	}
}

// Rules returns the effective rules of the checker.
func (c *Checker) Rules() Rules {
	return c.rules
}

// RunFull checks every object pair on every copper layer and returns the
// violations found. Each unordered pair is checked once via an id
// tie-break.
func (c *Checker) RunFull() []Violation {
	var all []Violation
	for _, lg := range c.layers {
		if !lg.IsCopper() {
			continue
		}
		all = append(all, c.checkLayer(lg, nil, nil)...)
	}
	c.logger.Debug("full drc complete", "violations", len(all))
	return all
}

// RunTargeted re-checks only the given objects against their spatial
// neighbors. Previously reported violations touching any of the ids are
// removed from existing in place; the freshly found violations are
// appended and also returned.
func (c *Checker) RunTargeted(ids []tess.ObjectID, existing *[]Violation) []Violation {
	targets := make(map[tess.ObjectID]bool, len(ids))
	for _, id := range ids {
		targets[id] = true
	}

	if existing != nil {
		kept := (*existing)[:0]
		for _, v := range *existing {
			if !targets[v.ObjectA] && !targets[v.ObjectB] {
				kept = append(kept, v)
			}
		}
		*existing = kept
	}

	seen := make(map[[2]tess.ObjectID]bool)
	var fresh []Violation
	for _, id := range ids {
		obj, ok := c.byID[id]
		if !ok {
			continue
		}
		lg := c.layerOf(obj)
		if lg == nil || !lg.IsCopper() {
			continue
		}
		bounds := newBoundaryCache(lg, c.rules.ClearanceMM)
		for _, nb := range c.neighbors(obj) {
			if !c.pairEligible(obj, nb) && !c.pairEligible(nb, obj) {
				continue
			}
			a, b := orderPair(obj, nb)
			key := [2]tess.ObjectID{a.ID, b.ID}
			if seen[key] {
				continue
			}
			seen[key] = true
			if v, ok := c.checkPair(lg, bounds, a, b); ok {
				fresh = append(fresh, v)
			}
		}
	}

	if existing != nil {
		*existing = append(*existing, fresh...)
	}
	return fresh
}

// checkLayer scans all objects of one copper layer against their spatial
// neighbors, in parallel per object. When collect is non-nil every
// violating triangle pair is captured for region fusion instead of just
// the closest one; skip excludes objects (deleted ids) from the scan.
func (c *Checker) checkLayer(lg *tess.LayerGeometry, skip map[tess.ObjectID]bool, collect *[]trianglePair) []Violation {
	objs := lg.Objects
	bounds := newBoundaryCache(lg, c.rules.ClearanceMM)

	violations := make([][]Violation, len(objs))
	pairs := make([][]trianglePair, len(objs))
	fanOut(len(objs), c.workers, func(i int) {
		a := objs[i]
		if skip[a.ID] {
			return
		}
		for _, b := range c.neighbors(a) {
			if b.ID <= a.ID || skip[b.ID] || !c.pairEligible(a, b) {
				continue
			}
			if collect != nil {
				vios := c.collectPair(lg, bounds, a, b)
				pairs[i] = append(pairs[i], vios...)
				if len(vios) > 0 {
					violations[i] = append(violations[i], vios[0].Violation)
				}
			} else if v, ok := c.checkPair(lg, bounds, a, b); ok {
				violations[i] = append(violations[i], v)
			}
		}
	})

	var out []Violation
	for i := range objs {
		out = append(out, violations[i]...)
		if collect != nil {
			*collect = append(*collect, pairs[i]...)
		}
	}
	return out
}

// neighbors returns the spatial candidates within clearance reach of an
// object's bounding box, restricted to the object's own layer.
func (c *Checker) neighbors(a *tess.ObjectRange) []*tess.ObjectRange {
	probe := a.Bounds.Inflate(c.rules.ClearanceMM)
	hits := c.index.Intersecting(probe)
	out := hits[:0]
	for _, h := range hits {
		if h.ID != a.ID && h.ID.LayerIndex() == a.ID.LayerIndex() {
			out = append(out, h)
		}
	}
	return out
}

// pairEligible applies the net-exemption rule: objects sharing a non-empty
// net name are never checked against each other. Untagged objects are
// never exempted.
func (c *Checker) pairEligible(a, b *tess.ObjectRange) bool {
	return a.Net == "" || b.Net == "" || a.Net != b.Net
}

// checkPair finds the closest boundary triangle pair of two objects and
// reports a violation when it is under the clearance.
func (c *Checker) checkPair(lg *tess.LayerGeometry, bounds *boundaryCache, a, b *tess.ObjectRange) (Violation, bool) {
	ta := bounds.get(a)
	tb := bounds.get(b)

	found := false
	var best float32
	var at geom.Vec2
	for _, t1 := range ta {
		for _, t2 := range tb {
			d, p, ok := geom.TriangleDistanceWithin(t1, t2, c.rules.ClearanceMM)
			if !ok || d >= c.rules.ClearanceMM {
				continue
			}
			if !found || d < best {
				found, best, at = true, d, p
			}
		}
	}
	if !found {
		return Violation{}, false
	}
	return Violation{
		ObjectA:     a.ID,
		ObjectB:     b.ID,
		LayerID:     lg.ID,
		DistanceMM:  best,
		ClearanceMM: c.rules.ClearanceMM,
		Point:       at,
	}, true
}

// collectPair gathers every violating triangle pair of two objects, for
// region fusion.
func (c *Checker) collectPair(lg *tess.LayerGeometry, bounds *boundaryCache, a, b *tess.ObjectRange) []trianglePair {
	ta := bounds.get(a)
	tb := bounds.get(b)

	var out []trianglePair
	for _, t1 := range ta {
		for _, t2 := range tb {
			d, p, ok := geom.TriangleDistanceWithin(t1, t2, c.rules.ClearanceMM)
			if !ok || d >= c.rules.ClearanceMM {
				continue
			}
			out = append(out, trianglePair{
				Violation: Violation{
					ObjectA:     a.ID,
					ObjectB:     b.ID,
					LayerID:     lg.ID,
					DistanceMM:  d,
					ClearanceMM: c.rules.ClearanceMM,
					Point:       p,
				},
				TriA: t1,
				TriB: t2,
			})
		}
	}
	return out
}

func (c *Checker) layerOf(obj *tess.ObjectRange) *tess.LayerGeometry {
	li := obj.ID.LayerIndex()
	for _, lg := range c.layers {
		if lg.Index == li {
			return lg
		}
	}
	return nil
}

func orderPair(a, b *tess.ObjectRange) (*tess.ObjectRange, *tess.ObjectRange) {
	if a.ID < b.ID {
		return a, b
	}
	return b, a
}

// boundaryCache memoizes per-object boundary triangles during one layer
// scan. Reads happen from multiple workers; the map is guarded.
type boundaryCache struct {
	mu    sync.Mutex
	lg    *tess.LayerGeometry
	tris  map[tess.ObjectID][]geom.Triangle
	limit float32
}

func newBoundaryCache(lg *tess.LayerGeometry, clearance float32) *boundaryCache {
	return &boundaryCache{
		lg:    lg,
		tris:  make(map[tess.ObjectID][]geom.Triangle),
		limit: clearance,
	}
}

func (bc *boundaryCache) get(obj *tess.ObjectRange) []geom.Triangle {
	bc.mu.Lock()
	tris, ok := bc.tris[obj.ID]
	bc.mu.Unlock()
	if ok {
		return tris
	}
	tris = BoundaryTriangles(bc.lg, obj, 0)
	bc.mu.Lock()
	bc.tris[obj.ID] = tris
	bc.mu.Unlock()
	return tris
}

// fanOut runs fn(i) for i in [0,n) across at most workers goroutines.
func fanOut(n, workers int, fn func(i int)) {
	if n == 0 {
		return
	}
	if workers > n {
		workers = n
	}
	if workers <= 1 {
		for i := range n {
			fn(i)
		}
		return
	}
	var wg sync.WaitGroup
	work := make(chan int)
	wg.Add(workers)
	for range workers {
		go func() {
			defer wg.Done()
			for i := range work {
				fn(i)
			}
		}()
	}
	for i := range n {
		work <- i
	}
	close(work)
	wg.Wait()
}
