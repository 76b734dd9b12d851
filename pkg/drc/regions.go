package drc

import (
	"math"
	"sort"

	"github.com/edalab/copperview/pkg/geom"
	"github.com/edalab/copperview/pkg/tess"
)

// quantScale maps millimeters onto the 0.1 micron integer grid used to
// deduplicate triangles within a region.
const quantScale = 10000

// Region is a fused group of violating triangles covering one object
// pair: deduplicated triangles, overall bounds, and the minimum distance
// found. Region ids are sequential from 0 and renumbered on every full
// recompute and every incremental merge.
type Region struct {
	ID            int
	ObjectA       tess.ObjectID
	ObjectB       tess.ObjectID
	LayerID       string
	Bounds        geom.BBox
	Center        geom.Vec2
	MinDistanceMM float32
	ClearanceMM   float32
	TriangleCount int
	Triangles     []geom.Triangle
}

// ModifiedRegion describes an area invalidated by an edit, driving the
// incremental re-check.
type ModifiedRegion struct {
	Bounds   geom.BBox
	LayerID  string
	ObjectID tess.ObjectID
}

// triKey quantizes a triangle's vertices for deduplication. Two triangles
// landing on the same grid cells are the same violation triangle.
type triKey [6]int32

func quantize(v float32) int32 {
	return int32(math.Round(float64(v) * quantScale))
}

func newTriKey(t geom.Triangle) triKey {
	return triKey{
		quantize(t.A.X), quantize(t.A.Y),
		quantize(t.B.X), quantize(t.B.Y),
		quantize(t.C.X), quantize(t.C.Y),
	}
}

// fuseRegions groups raw triangle violations into one region per unordered
// object pair, deduplicating triangles on the quantized grid. Region ids
// are assigned sequentially from 0 in deterministic pair order. The fuser
// does not split a pair's region by spatial disconnection.
func fuseRegions(pairs []trianglePair) []Region {
	type pairKey struct{ a, b tess.ObjectID }
	grouped := make(map[pairKey]*Region)
	seen := make(map[pairKey]map[triKey]bool)
	var order []pairKey

	for _, tp := range pairs {
		a, b := tp.ObjectA, tp.ObjectB
		if b < a {
			a, b = b, a
		}
		key := pairKey{a, b}
		r, ok := grouped[key]
		if !ok {
			r = &Region{
				ObjectA:       a,
				ObjectB:       b,
				LayerID:       tp.LayerID,
				Bounds:        geom.EmptyBBox(),
				MinDistanceMM: tp.DistanceMM,
				ClearanceMM:   tp.ClearanceMM,
			}
			grouped[key] = r
			seen[key] = make(map[triKey]bool)
			order = append(order, key)
		}
		if tp.DistanceMM < r.MinDistanceMM {
			r.MinDistanceMM = tp.DistanceMM
		}
		for _, tri := range []geom.Triangle{tp.TriA, tp.TriB} {
			tk := newTriKey(tri)
			if seen[key][tk] {
				continue
			}
			seen[key][tk] = true
			r.Triangles = append(r.Triangles, tri)
			r.Bounds.Union(tri.Bounds)
		}
	}

	sort.Slice(order, func(i, j int) bool {
		if order[i].a != order[j].a {
			return order[i].a < order[j].a
		}
		return order[i].b < order[j].b
	})

	regions := make([]Region, 0, len(order))
	for i, key := range order {
		r := grouped[key]
		r.ID = i
		r.TriangleCount = len(r.Triangles)
		r.Center = r.Bounds.Center()
		regions = append(regions, *r)
	}
	return regions
}

// RunFullWithRegions runs a full check on every copper layer, collecting
// every violating triangle pair, and fuses them into regions. Objects in
// deleted are excluded from the scan.
func (c *Checker) RunFullWithRegions(deleted map[tess.ObjectID]bool) []Region {
	var pairs []trianglePair
	for _, lg := range c.layers {
		if !lg.IsCopper() {
			continue
		}
		c.checkLayer(lg, deleted, &pairs)
	}
	regions := fuseRegions(pairs)
	c.logger.Debug("region drc complete", "regions", len(regions), "trianglePairs", len(pairs))
	return regions
}

// RunIncrementalWithRegions re-checks only the areas invalidated by the
// given modified regions. Each modified region's bounds are expanded by
// twice the clearance and unioned per layer; previously reported regions
// intersecting the union are stale and dropped; copper objects whose
// bounds intersect the union are re-checked pairwise, fused, and appended.
// All surviving region ids are renumbered sequentially. With no modified
// regions the previous result is returned unchanged.
func (c *Checker) RunIncrementalWithRegions(modified []ModifiedRegion, existing []Region, deleted map[tess.ObjectID]bool) []Region {
	if len(modified) == 0 {
		return existing
	}

	affected := make(map[string]geom.BBox)
	for _, m := range modified {
		expanded := m.Bounds.Inflate(2 * c.rules.ClearanceMM)
		if cur, ok := affected[m.LayerID]; ok {
			cur.Union(expanded)
			affected[m.LayerID] = cur
		} else {
			affected[m.LayerID] = expanded
		}
	}

	var kept []Region
	for _, r := range existing {
		if union, ok := affected[r.LayerID]; ok && r.Bounds.Intersects(union) {
			continue // stale
		}
		kept = append(kept, r)
	}

	var pairs []trianglePair
	for _, lg := range c.layers {
		union, ok := affected[lg.ID]
		if !ok || !lg.IsCopper() {
			continue
		}
		c.checkLayerWithin(lg, union, deleted, &pairs)
	}

	fresh := fuseRegions(pairs)
	merged := append(kept, fresh...)
	for i := range merged {
		merged[i].ID = i
	}
	c.logger.Debug("incremental drc complete",
		"kept", len(kept), "fresh", len(fresh), "layers", len(affected))
	return merged
}

// checkLayerWithin runs the pair scan restricted to objects intersecting
// the given envelope.
func (c *Checker) checkLayerWithin(lg *tess.LayerGeometry, within geom.BBox, skip map[tess.ObjectID]bool, collect *[]trianglePair) {
	candidates := make(map[tess.ObjectID]bool)
	for _, obj := range lg.Objects {
		if obj.Bounds.Intersects(within) && !skip[obj.ID] {
			candidates[obj.ID] = true
		}
	}

	bounds := newBoundaryCache(lg, c.rules.ClearanceMM)
	objs := lg.Objects
	pairs := make([][]trianglePair, len(objs))
	fanOut(len(objs), c.workers, func(i int) {
		a := objs[i]
		if !candidates[a.ID] {
			return
		}
		for _, b := range c.neighbors(a) {
			if b.ID <= a.ID || !candidates[b.ID] || !c.pairEligible(a, b) {
				continue
			}
			pairs[i] = append(pairs[i], c.collectPair(lg, bounds, a, b)...)
		}
	})
	for i := range objs {
		*collect = append(*collect, pairs[i]...)
	}
}
