package tess

import (
	"math"

	"github.com/edalab/copperview/pkg/board"
	"github.com/edalab/copperview/pkg/geom"
)

const (
	// joinStepAngle is the target angular step of outer-join arc fans.
	joinStepAngle = 10 * math.Pi / 180

	// minJoinSegments is the minimum fan resolution at a turn, so sharp
	// corners never degrade to a single bevel.
	minJoinSegments = 4

	// capSegments is the resolution of a round end cap's semicircle.
	capSegments = 16
)

// StrokePolyline expands an ordered point sequence into a triangulated
// ribbon of the given width. Interior turns receive a circular-arc fan on
// the outer side while the inner rail is bridged linearly, avoiding the
// self-intersecting miters a naive offset would produce on sharp turns.
//
// A polyline whose endpoints coincide within board.ClosedTolerance is
// stroked closed: no caps, and the join wraps across the seam. Open
// polylines receive the requested cap style. Degenerate input (width <= 0
// or fewer than two distinct points) yields an empty mesh.
func StrokePolyline(points []geom.Vec2, width float32, capStyle board.CapStyle) Mesh {
	if width <= 0 || len(points) < 2 {
		return Mesh{}
	}

	closed := false
	if len(points) >= 3 && points[0].DistanceTo(points[len(points)-1]) < board.ClosedTolerance {
		closed = true
		points = points[:len(points)-1]
	}
	points = dropCoincident(points)
	if len(points) < 2 {
		return Mesh{}
	}
	if closed && len(points) < 3 {
		closed = false
	}

	half := width / 2
	b := newMeshBuilder()

	segs := len(points) - 1
	if closed {
		segs = len(points)
	}

	// dir[i] is the unit direction of segment i (points[i] -> points[i+1],
	// wrapping when closed); normal[i] is its left-hand normal.
	dirs := make([]geom.Vec2, segs)
	normals := make([]geom.Vec2, segs)
	for i := range segs {
		next := points[(i+1)%len(points)]
		dirs[i] = next.Sub(points[i]).Normalize()
		normals[i] = dirs[i].Perp()
	}

	// Segment ribbons.
	for i := range segs {
		p0 := points[i]
		p1 := points[(i+1)%len(points)]
		n := normals[i].Scale(half)
		b.quad(p0.Add(n), p1.Add(n), p1.Sub(n), p0.Sub(n))
	}

	// Interior joins. For open polylines the ends have caps instead.
	for j := range segs {
		var prev int
		if closed {
			prev = (j - 1 + segs) % segs
		} else {
			if j == 0 {
				continue
			}
			prev = j - 1
		}
		strokeJoin(b, points[j], dirs[prev], dirs[j], half)
	}

	if !closed {
		strokeCaps(b, points, dirs, normals, half, capStyle)
	}

	return b.mesh
}

// strokeJoin fills the wedge at an interior vertex with an arc fan on the
// outer side of the turn. The turn direction comes from the cross product
// of the adjacent segment directions; collinear segments need no join.
func strokeJoin(b *meshBuilder, at, dirIn, dirOut geom.Vec2, half float32) {
	cross := dirIn.Cross(dirOut)
	dot := dirIn.Dot(dirOut)
	turn := float32(math.Atan2(float64(cross), float64(dot)))
	if turn == 0 {
		return
	}

	// The outer side of a right turn (negative cross) is the left rail,
	// and vice versa. The arc sweeps from the incoming rail offset to the
	// outgoing one by the turn angle.
	start := dirIn.Perp().Scale(half)
	if cross > 0 {
		start = start.Scale(-1)
	}

	steps := int(math.Ceil(math.Abs(float64(turn)) / joinStepAngle))
	steps = max(steps, minJoinSegments)

	center := b.vertex(at)
	prev := b.vertex(at.Add(start))
	for k := 1; k <= steps; k++ {
		angle := turn * float32(k) / float32(steps)
		cur := b.vertex(at.Add(start.Rotate(angle)))
		b.triangle(center, prev, cur)
		prev = cur
	}
}

// strokeCaps closes both ends of an open polyline with the requested cap.
func strokeCaps(b *meshBuilder, points, dirs, normals []geom.Vec2, half float32, capStyle board.CapStyle) {
	first, last := points[0], points[len(points)-1]
	dirFirst, dirLast := dirs[0], dirs[len(dirs)-1]
	nFirst, nLast := normals[0], normals[len(normals)-1]

	switch capStyle {
	case board.CapRound:
		// Semicircle sweeping through the back of the segment.
		roundCap(b, first, nFirst.Scale(half))
		roundCap(b, last, nLast.Scale(-half))
	case board.CapSquare:
		ext := dirFirst.Scale(half)
		b.quad(
			first.Add(nFirst.Scale(half)).Sub(ext),
			first.Add(nFirst.Scale(half)),
			first.Sub(nFirst.Scale(half)),
			first.Sub(nFirst.Scale(half)).Sub(ext),
		)
		ext = dirLast.Scale(half)
		b.quad(
			last.Add(nLast.Scale(half)),
			last.Add(nLast.Scale(half)).Add(ext),
			last.Sub(nLast.Scale(half)).Add(ext),
			last.Sub(nLast.Scale(half)),
		)
	case board.CapButt:
		// Rails end flush with the endpoint.
	}
}

// roundCap fans a semicircle around center from the given rail offset,
// rotating counter-clockwise through half a turn.
func roundCap(b *meshBuilder, center, start geom.Vec2) {
	c := b.vertex(center)
	prev := b.vertex(center.Add(start))
	for k := 1; k <= capSegments; k++ {
		angle := float32(math.Pi) * float32(k) / capSegments
		cur := b.vertex(center.Add(start.Rotate(angle)))
		b.triangle(c, prev, cur)
		prev = cur
	}
}

// dropCoincident removes consecutive duplicate points that would produce
// zero-length segments and undefined normals.
func dropCoincident(points []geom.Vec2) []geom.Vec2 {
	out := make([]geom.Vec2, 1, len(points))
	out[0] = points[0]
	for _, p := range points[1:] {
		if p.DistanceTo(out[len(out)-1]) >= board.ClosedTolerance {
			out = append(out, p)
		}
	}
	return out
}
