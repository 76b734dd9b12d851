package tess

import (
	"github.com/edalab/copperview/pkg/board"
	"github.com/edalab/copperview/pkg/geom"
)

// LODLevels is the number of detail levels produced for every shape.
// Level 0 is always the untouched input.
const LODLevels = 5

// MinVisibleWidth is the per-level minimum stroke width in millimeters.
// Polylines thinner than a level's threshold are culled from that level.
// The values derive from a half-screen-pixel rule at the reference zoom of
// each level; they are tuning constants, not physical quantities.
var MinVisibleWidth = [LODLevels]float32{0, 0.05, 0.10, 0.25, 1.00}

const (
	// baseToleranceScale is the Douglas-Peucker tolerance at level 1 as a
	// fraction of the shape's bounding-box diagonal. Each further level
	// multiplies by toleranceGrowth.
	baseToleranceScale = 0.0005
	toleranceGrowth    = 4

	// toleranceCap bounds the tolerance for ordinary shapes;
	// toleranceCapSmall applies to shapes whose diagonal is under
	// dotDiagonalFactor times their width, where aggressive flattening
	// would visibly square off small round features.
	toleranceCap      = 0.02
	toleranceCapSmall = 0.005

	// dotDiagonalFactor classifies a polyline as a dot or short stub when
	// its bounding-box diagonal is below this multiple of its width.
	dotDiagonalFactor = 3
)

// Simplify reduces a point sequence with the Douglas-Peucker algorithm.
// A tolerance of zero returns the input unchanged. Endpoints are always
// preserved.
func Simplify(points []geom.Vec2, tolerance float32) []geom.Vec2 {
	if tolerance <= 0 || len(points) <= 2 {
		return points
	}
	keep := make([]bool, len(points))
	keep[0] = true
	keep[len(points)-1] = true
	douglasPeucker(points, 0, len(points)-1, tolerance, keep)

	out := make([]geom.Vec2, 0, len(points))
	for i, k := range keep {
		if k {
			out = append(out, points[i])
		}
	}
	return out
}

// douglasPeucker marks the points to keep between first and last: the
// farthest point from the chord is kept and both halves recurse whenever
// it deviates by more than the tolerance.
func douglasPeucker(points []geom.Vec2, first, last int, tolerance float32, keep []bool) {
	if last <= first+1 {
		return
	}
	var maxDist float32
	maxIdx := -1
	for i := first + 1; i < last; i++ {
		d, _ := geom.PointSegmentDistance(points[i], points[first], points[last])
		if d > maxDist {
			maxDist = d
			maxIdx = i
		}
	}
	if maxIdx < 0 || maxDist <= tolerance {
		return
	}
	keep[maxIdx] = true
	douglasPeucker(points, first, maxIdx, tolerance, keep)
	douglasPeucker(points, maxIdx, last, tolerance, keep)
}

// LevelTolerance returns the Douglas-Peucker tolerance for one LOD level of
// a shape with the given bounding-box diagonal. small selects the tighter
// cap used for dots and short segments. Level 0 is exact.
func LevelTolerance(level int, diagonal float32, small bool) float32 {
	if level <= 0 {
		return 0
	}
	tol := diagonal * baseToleranceScale
	for i := 1; i < level; i++ {
		tol *= toleranceGrowth
	}
	limit := diagonal * toleranceCap
	if small {
		limit = diagonal * toleranceCapSmall
	}
	return min(tol, limit)
}

// PolylineLevels produces the LODLevels point sequences for one polyline.
// Level 0 is the input. A polyline with more than four points confined to
// a region smaller than dotDiagonalFactor times its width is treated as a
// circle or dot: all levels stay identical to preserve roundness.
func PolylineLevels(p board.Polyline) [LODLevels][]geom.Vec2 {
	var levels [LODLevels][]geom.Vec2
	levels[0] = p.Points

	diag := geom.NewBBox(p.Points...).Diagonal()
	small := diag < dotDiagonalFactor*p.Width
	if small && len(p.Points) > 4 {
		for i := 1; i < LODLevels; i++ {
			levels[i] = p.Points
		}
		return levels
	}

	for i := 1; i < LODLevels; i++ {
		levels[i] = Simplify(p.Points, LevelTolerance(i, diag, small))
	}
	return levels
}

// WidthVisible reports whether a stroke of the given width survives at the
// given LOD level. Invisible strokes are culled from the level's
// tessellation and counted for diagnostics.
func WidthVisible(level int, width float32) bool {
	return width >= MinVisibleWidth[level]
}
