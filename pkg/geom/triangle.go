package geom

// Triangle is a single mesh triangle with its bounding box precomputed,
// used by the design-rule checker for pairwise distance tests.
type Triangle struct {
	A, B, C Vec2
	Bounds  BBox
}

// NewTriangle builds a triangle and computes its bounding box.
func NewTriangle(a, b, c Vec2) Triangle {
	return Triangle{A: a, B: b, C: c, Bounds: NewBBox(a, b, c)}
}

// Vertices returns the three corners in order.
func (t Triangle) Vertices() [3]Vec2 {
	return [3]Vec2{t.A, t.B, t.C}
}

// Edges returns the three edges as endpoint pairs.
func (t Triangle) Edges() [3][2]Vec2 {
	return [3][2]Vec2{{t.A, t.B}, {t.B, t.C}, {t.C, t.A}}
}

// Translate returns the triangle shifted by d.
func (t Triangle) Translate(d Vec2) Triangle {
	return NewTriangle(t.A.Add(d), t.B.Add(d), t.C.Add(d))
}

// Transform returns the triangle rotated by angle radians around the origin
// and then translated by d. Used to place instanced geometry (pads, vias)
// whose base mesh is tessellated at the origin.
func (t Triangle) Transform(angle float32, d Vec2) Triangle {
	if angle == 0 {
		return t.Translate(d)
	}
	return NewTriangle(
		t.A.Rotate(angle).Add(d),
		t.B.Rotate(angle).Add(d),
		t.C.Rotate(angle).Add(d),
	)
}
