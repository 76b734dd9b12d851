package tess

import (
	"github.com/edalab/copperview/pkg/geom"
)

// TriangulatePolygon triangulates an outer ring with optional hole rings
// into a single mesh. When tolerance is positive, every ring is first
// reduced with Douglas-Peucker at that tolerance; holes left with fewer
// than three points are dropped.
//
// The output vertex buffer is the flattened outer ring followed by the
// surviving holes in order; indices are 0-based into that combined buffer.
func TriangulatePolygon(outer []geom.Vec2, holes [][]geom.Vec2, tolerance float32) Mesh {
	if tolerance > 0 {
		outer = Simplify(outer, tolerance)
	}
	if len(outer) < 3 {
		return Mesh{}
	}

	combined := append([]geom.Vec2(nil), outer...)
	rings := [][]int{ringIndices(0, len(outer))}
	for _, hole := range holes {
		if tolerance > 0 {
			hole = Simplify(hole, tolerance)
		}
		if len(hole) < 3 {
			continue
		}
		start := len(combined)
		combined = append(combined, hole...)
		rings = append(rings, ringIndices(start, len(hole)))
	}

	// Orientation: outer counter-clockwise, holes clockwise. The rings are
	// index lists, so reversing reorders traversal without disturbing the
	// combined buffer the indices point into.
	if signedArea(combined, rings[0]) < 0 {
		reverseInts(rings[0])
	}
	for _, hole := range rings[1:] {
		if signedArea(combined, hole) > 0 {
			reverseInts(hole)
		}
	}

	ring := rings[0]
	for _, hole := range rings[1:] {
		ring = spliceHole(combined, ring, hole)
	}

	mesh := Mesh{Vertices: make([]float32, 0, 2*len(combined))}
	for _, p := range combined {
		mesh.Vertices = append(mesh.Vertices, p.X, p.Y)
	}
	mesh.Indices = earClip(combined, ring)
	return mesh
}

func ringIndices(start, n int) []int {
	r := make([]int, n)
	for i := range r {
		r[i] = start + i
	}
	return r
}

func reverseInts(s []int) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}

// signedArea returns twice the signed area of the ring; positive for
// counter-clockwise winding.
func signedArea(pts []geom.Vec2, ring []int) float32 {
	var area float32
	for i := range ring {
		a := pts[ring[i]]
		b := pts[ring[(i+1)%len(ring)]]
		area += a.Cross(b)
	}
	return area
}

// spliceHole joins a hole ring into the outer ring through a bridge between
// mutually visible vertices, turning the pair into one simple ring with the
// bridge traversed twice. The bridge is the shortest hole-to-outer vertex
// pair whose connecting segment crosses neither ring.
func spliceHole(pts []geom.Vec2, outer, hole []int) []int {
	bestOuter, bestHole := -1, -1
	var bestDist float32
	for hi, h := range hole {
		for oi, o := range outer {
			if !bridgeClear(pts, outer, hole, pts[o], pts[h]) {
				continue
			}
			d := pts[o].DistanceTo(pts[h])
			if bestOuter < 0 || d < bestDist {
				bestDist = d
				bestOuter, bestHole = oi, hi
			}
		}
	}
	if bestOuter < 0 {
		// No clear bridge (self-intersecting input); drop the hole rather
		// than emit crossing geometry.
		return outer
	}

	merged := make([]int, 0, len(outer)+len(hole)+2)
	merged = append(merged, outer[:bestOuter+1]...)
	for k := 0; k <= len(hole); k++ {
		merged = append(merged, hole[(bestHole+k)%len(hole)])
	}
	merged = append(merged, outer[bestOuter:]...)
	return merged
}

// bridgeClear reports whether segment a-b crosses any edge of either ring,
// ignoring edges that share an endpoint with the bridge.
func bridgeClear(pts []geom.Vec2, outer, hole []int, a, b geom.Vec2) bool {
	return ringClear(pts, outer, a, b) && ringClear(pts, hole, a, b)
}

func ringClear(pts []geom.Vec2, ring []int, a, b geom.Vec2) bool {
	for i := range ring {
		p := pts[ring[i]]
		q := pts[ring[(i+1)%len(ring)]]
		if p == a || p == b || q == a || q == b {
			continue
		}
		if segmentsCross(a, b, p, q) {
			return false
		}
	}
	return true
}

// segmentsCross reports a proper crossing (shared endpoints already
// excluded by the caller).
func segmentsCross(a, b, c, d geom.Vec2) bool {
	d1 := b.Sub(a).Cross(c.Sub(a))
	d2 := b.Sub(a).Cross(d.Sub(a))
	d3 := d.Sub(c).Cross(a.Sub(c))
	d4 := d.Sub(c).Cross(b.Sub(c))
	return ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0))
}

// earClip triangulates a simple counter-clockwise ring by repeatedly
// removing ears: convex vertices whose triangle contains no other ring
// vertex. If no ear is found (degenerate input), the most convex vertex is
// clipped anyway so the loop always terminates.
func earClip(pts []geom.Vec2, ring []int) []uint32 {
	ring = append([]int(nil), ring...)
	indices := make([]uint32, 0, 3*(len(ring)-2))

	for len(ring) > 3 {
		earIdx := -1
		var fallback int
		var fallbackCross float32
		for i := range ring {
			prev := pts[ring[(i-1+len(ring))%len(ring)]]
			cur := pts[ring[i]]
			next := pts[ring[(i+1)%len(ring)]]
			cross := cur.Sub(prev).Cross(next.Sub(cur))
			if cross > fallbackCross {
				fallbackCross = cross
				fallback = i
			}
			if cross <= 0 {
				continue // reflex or collinear
			}
			if earContainsVertex(pts, ring, i, prev, cur, next) {
				continue
			}
			earIdx = i
			break
		}
		if earIdx < 0 {
			earIdx = fallback
		}

		prev := ring[(earIdx-1+len(ring))%len(ring)]
		next := ring[(earIdx+1)%len(ring)]
		if prev != ring[earIdx] && next != ring[earIdx] && prev != next {
			indices = append(indices, uint32(prev), uint32(ring[earIdx]), uint32(next))
		}
		ring = append(ring[:earIdx], ring[earIdx+1:]...)
	}
	if len(ring) == 3 && ring[0] != ring[1] && ring[1] != ring[2] && ring[0] != ring[2] {
		indices = append(indices, uint32(ring[0]), uint32(ring[1]), uint32(ring[2]))
	}
	return indices
}

// earContainsVertex reports whether any ring vertex other than the ear's
// corners lies inside the candidate ear triangle.
func earContainsVertex(pts []geom.Vec2, ring []int, ear int, a, b, c geom.Vec2) bool {
	prev := (ear - 1 + len(ring)) % len(ring)
	next := (ear + 1) % len(ring)
	for i := range ring {
		if i == prev || i == ear || i == next {
			continue
		}
		p := pts[ring[i]]
		if p == a || p == b || p == c {
			continue // duplicated bridge vertices
		}
		if pointInTriangleStrict(p, a, b, c) {
			return true
		}
	}
	return false
}

// pointInTriangleStrict reports containment excluding the triangle edges,
// so bridge vertices sitting exactly on an ear edge do not block clipping.
func pointInTriangleStrict(p, a, b, c geom.Vec2) bool {
	d1 := p.Sub(a).Cross(b.Sub(a))
	d2 := p.Sub(b).Cross(c.Sub(b))
	d3 := p.Sub(c).Cross(a.Sub(c))
	return (d1 < 0 && d2 < 0 && d3 < 0) || (d1 > 0 && d2 > 0 && d3 > 0)
}
