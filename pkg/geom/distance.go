package geom

// PointSegmentDistance returns the minimum distance from p to the segment
// ab, and the closest point on the segment. The projection parameter is
// clamped to [0,1] so endpoints are honored.
func PointSegmentDistance(p, a, b Vec2) (float32, Vec2) {
	ab := b.Sub(a)
	lenSq := ab.LengthSq()
	if lenSq == 0 {
		return p.DistanceTo(a), a
	}
	t := p.Sub(a).Dot(ab) / lenSq
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	closest := a.Add(ab.Scale(t))
	return p.DistanceTo(closest), closest
}

// SegmentDistance returns the minimum distance between segments ab and cd,
// along with the closest point pair (first on ab, second on cd). The result
// is the minimum of the four endpoint-to-segment projections, which is exact
// for non-crossing segments; crossing segments are handled by an explicit
// intersection test.
func SegmentDistance(a, b, c, d Vec2) (float32, Vec2, Vec2) {
	if segmentsIntersect(a, b, c, d) {
		p := Mid(Mid(a, b), Mid(c, d))
		return 0, p, p
	}

	best, onCD := PointSegmentDistance(a, c, d)
	pa, pb := a, onCD

	if dist, q := PointSegmentDistance(b, c, d); dist < best {
		best, pa, pb = dist, b, q
	}
	if dist, q := PointSegmentDistance(c, a, b); dist < best {
		best, pa, pb = dist, q, c
	}
	if dist, q := PointSegmentDistance(d, a, b); dist < best {
		best, pa, pb = dist, q, d
	}
	return best, pa, pb
}

// segmentsIntersect reports whether segments ab and cd cross or touch.
func segmentsIntersect(a, b, c, d Vec2) bool {
	d1 := b.Sub(a).Cross(c.Sub(a))
	d2 := b.Sub(a).Cross(d.Sub(a))
	d3 := d.Sub(c).Cross(a.Sub(c))
	d4 := d.Sub(c).Cross(b.Sub(c))

	if ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0)) {
		return true
	}
	// Collinear touching cases.
	if d1 == 0 && onSegment(a, b, c) {
		return true
	}
	if d2 == 0 && onSegment(a, b, d) {
		return true
	}
	if d3 == 0 && onSegment(c, d, a) {
		return true
	}
	if d4 == 0 && onSegment(c, d, b) {
		return true
	}
	return false
}

// onSegment reports whether p, known collinear with ab, lies between a and b.
func onSegment(a, b, p Vec2) bool {
	return min(a.X, b.X) <= p.X && p.X <= max(a.X, b.X) &&
		min(a.Y, b.Y) <= p.Y && p.Y <= max(a.Y, b.Y)
}

// pointInTriangle reports whether p lies inside or on triangle t.
func pointInTriangle(p Vec2, t Triangle) bool {
	d1 := p.Sub(t.A).Cross(t.B.Sub(t.A))
	d2 := p.Sub(t.B).Cross(t.C.Sub(t.B))
	d3 := p.Sub(t.C).Cross(t.A.Sub(t.C))
	hasNeg := d1 < 0 || d2 < 0 || d3 < 0
	hasPos := d1 > 0 || d2 > 0 || d3 > 0
	return !(hasNeg && hasPos)
}

// TriangleDistance returns the minimum distance between two triangles and an
// approximate closest point (the midpoint of the winning closest-point
// pair). Overlapping or contained triangles yield distance 0.
func TriangleDistance(t1, t2 Triangle) (float32, Vec2) {
	// Containment: no edges cross but one triangle sits inside the other.
	if pointInTriangle(t1.A, t2) {
		return 0, t1.A
	}
	if pointInTriangle(t2.A, t1) {
		return 0, t2.A
	}

	e1 := t1.Edges()
	e2 := t2.Edges()
	best := float32(-1)
	var at Vec2
	for _, ea := range e1 {
		for _, eb := range e2 {
			dist, p, q := SegmentDistance(ea[0], ea[1], eb[0], eb[1])
			if best < 0 || dist < best {
				best = dist
				at = Mid(p, q)
				if best == 0 {
					return 0, at
				}
			}
		}
	}
	return best, at
}

// TriangleDistanceWithin returns the triangle distance only when the two
// bounding boxes could be closer than limit; otherwise it reports ok=false
// without doing the exact computation.
func TriangleDistanceWithin(t1, t2 Triangle, limit float32) (float32, Vec2, bool) {
	if t1.Bounds.Distance(t2.Bounds) >= limit {
		return 0, Vec2{}, false
	}
	d, p := TriangleDistance(t1, t2)
	return d, p, true
}
