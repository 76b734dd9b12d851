// Package spatial provides the bounding-box index over all tessellated
// board objects. The index is bulk-loaded from the object-range list and
// treated as immutable: queries are read-only, and any change to object
// positions requires a full rebuild (a synchronous barrier, never an
// in-place mutation).
package spatial

import (
	"github.com/dhconnelly/rtreego"

	"github.com/edalab/copperview/pkg/geom"
	"github.com/edalab/copperview/pkg/tess"
)

// minExtent pads degenerate boxes; rtreego requires positive rectangle
// lengths in every dimension.
const minExtent = 1e-6

// SelectableObject wraps one object range with the rectangle the tree
// stores. The index owns these wrappers; the authoritative range list
// stays with the session that built it.
type SelectableObject struct {
	Object *tess.ObjectRange
	rect   rtreego.Rect
}

// Bounds implements rtreego.Spatial.
func (s *SelectableObject) Bounds() rtreego.Rect {
	return s.rect
}

// Index is a bulk-loaded R-tree over object bounding boxes supporting
// point, radius, and envelope queries.
type Index struct {
	tree *rtreego.Rtree
	all  []*SelectableObject
}

// Build bulk-loads an index over the given object ranges. Objects with
// empty bounds are skipped.
func Build(objects []*tess.ObjectRange) *Index {
	items := make([]*SelectableObject, 0, len(objects))
	spatials := make([]rtreego.Spatial, 0, len(objects))
	for _, obj := range objects {
		if obj.Bounds.IsEmpty() {
			continue
		}
		rect, err := toRect(obj.Bounds)
		if err != nil {
			continue
		}
		item := &SelectableObject{Object: obj, rect: rect}
		items = append(items, item)
		spatials = append(spatials, item)
	}
	return &Index{
		tree: rtreego.NewTree(2, 25, 50, spatials...),
		all:  items,
	}
}

// Len returns the number of indexed objects.
func (ix *Index) Len() int {
	return len(ix.all)
}

// At returns every object whose bounding box contains the point.
func (ix *Index) At(p geom.Vec2) []*tess.ObjectRange {
	hits := ix.searchRect(geom.BBox{MinX: p.X, MinY: p.Y, MaxX: p.X, MaxY: p.Y})
	out := make([]*tess.ObjectRange, 0, len(hits))
	for _, h := range hits {
		if h.Bounds.Contains(p) {
			out = append(out, h)
		}
	}
	return out
}

// Within returns every object whose bounding box comes within radius of
// the point.
func (ix *Index) Within(p geom.Vec2, radius float32) []*tess.ObjectRange {
	probe := geom.BBox{MinX: p.X, MinY: p.Y, MaxX: p.X, MaxY: p.Y}.Inflate(radius)
	hits := ix.searchRect(probe)
	out := make([]*tess.ObjectRange, 0, len(hits))
	for _, h := range hits {
		point := geom.BBox{MinX: p.X, MinY: p.Y, MaxX: p.X, MaxY: p.Y}
		if h.Bounds.Distance(point) <= radius {
			out = append(out, h)
		}
	}
	return out
}

// Intersecting returns every object whose bounding box intersects the
// envelope.
func (ix *Index) Intersecting(b geom.BBox) []*tess.ObjectRange {
	hits := ix.searchRect(b)
	out := make([]*tess.ObjectRange, 0, len(hits))
	for _, h := range hits {
		if h.Bounds.Intersects(b) {
			out = append(out, h)
		}
	}
	return out
}

// searchRect runs the tree query and unwraps the stored objects. The
// envelope test is repeated exactly afterwards by each caller; the tree
// works on the padded rectangles.
func (ix *Index) searchRect(b geom.BBox) []*tess.ObjectRange {
	rect, err := toRect(b)
	if err != nil {
		return nil
	}
	found := ix.tree.SearchIntersect(rect)
	out := make([]*tess.ObjectRange, 0, len(found))
	for _, sp := range found {
		out = append(out, sp.(*SelectableObject).Object)
	}
	return out
}

func toRect(b geom.BBox) (rtreego.Rect, error) {
	w := max(float64(b.Width()), minExtent)
	h := max(float64(b.Height()), minExtent)
	return rtreego.NewRect(rtreego.Point{float64(b.MinX), float64(b.MinY)}, []float64{w, h})
}
