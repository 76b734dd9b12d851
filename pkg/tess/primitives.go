package tess

import (
	"math"

	"github.com/edalab/copperview/pkg/board"
	"github.com/edalab/copperview/pkg/geom"
)

const (
	// circleSegments is the resolution of circle and oval fans.
	circleSegments = 32

	// cornerSegments is the arc resolution of each rounded-rectangle corner.
	cornerSegments = 8
)

// TessellatePrimitive produces the solid mesh for a standard primitive,
// centered on the origin. Instances translate and rotate it at draw time.
func TessellatePrimitive(p board.StandardPrimitive) Mesh {
	switch p.Kind {
	case board.PrimCircle:
		return fanMesh(ellipsePoints(p.Diameter/2, p.Diameter/2))
	case board.PrimRectangle:
		return rectMesh(p.Width, p.Height)
	case board.PrimOval:
		return fanMesh(ellipsePoints(p.Width/2, p.Height/2))
	case board.PrimRoundRect:
		return fanMesh(roundRectPoints(p.Width, p.Height, p.CornerRadius))
	case board.PrimCustomPolygon:
		return TriangulatePolygon(p.Points, nil, 0)
	}
	return Mesh{}
}

// TessellatePrimitiveWithHole produces the plated-via variant: the
// primitive outline with a circular hole of the given diameter removed.
// A circle becomes an annular ring built as an interleaved triangle strip;
// other outlines fall back to ear clipping with the hole ring.
func TessellatePrimitiveWithHole(p board.StandardPrimitive, holeDiameter float32) Mesh {
	if holeDiameter <= 0 {
		return TessellatePrimitive(p)
	}
	if p.Kind == board.PrimCircle {
		return annularRing(p.Diameter/2, holeDiameter/2)
	}
	outline := PrimitiveOutline(p)
	hole := ellipsePoints(holeDiameter/2, holeDiameter/2)
	return TriangulatePolygon(outline, [][]geom.Vec2{hole}, 0)
}

// PrimitiveOutline returns the closed outline ring of a primitive,
// counter-clockwise, centered on the origin.
func PrimitiveOutline(p board.StandardPrimitive) []geom.Vec2 {
	switch p.Kind {
	case board.PrimCircle:
		return ellipsePoints(p.Diameter/2, p.Diameter/2)
	case board.PrimRectangle:
		w, h := p.Width/2, p.Height/2
		return []geom.Vec2{{X: -w, Y: -h}, {X: w, Y: -h}, {X: w, Y: h}, {X: -w, Y: h}}
	case board.PrimOval:
		return ellipsePoints(p.Width/2, p.Height/2)
	case board.PrimRoundRect:
		return roundRectPoints(p.Width, p.Height, p.CornerRadius)
	case board.PrimCustomPolygon:
		return p.Points
	}
	return nil
}

// ellipsePoints returns a circleSegments-gon approximating an ellipse.
func ellipsePoints(rx, ry float32) []geom.Vec2 {
	pts := make([]geom.Vec2, circleSegments)
	for i := range pts {
		a := 2 * math.Pi * float64(i) / circleSegments
		pts[i] = geom.Vec2{
			X: rx * float32(math.Cos(a)),
			Y: ry * float32(math.Sin(a)),
		}
	}
	return pts
}

// roundRectPoints returns the outline of a rounded rectangle: four
// cornerSegments-step arcs joined by straight edges. The corner radius is
// clamped to half the shorter side.
func roundRectPoints(width, height, radius float32) []geom.Vec2 {
	w, h := width/2, height/2
	r := min(radius, min(w, h))
	if r <= 0 {
		return []geom.Vec2{{X: -w, Y: -h}, {X: w, Y: -h}, {X: w, Y: h}, {X: -w, Y: h}}
	}

	// Arc centers in counter-clockwise order starting at the bottom-right
	// corner, each sweeping a quarter turn.
	centers := [4]geom.Vec2{
		{X: w - r, Y: -h + r},
		{X: w - r, Y: h - r},
		{X: -w + r, Y: h - r},
		{X: -w + r, Y: -h + r},
	}
	startAngles := [4]float64{-math.Pi / 2, 0, math.Pi / 2, math.Pi}

	pts := make([]geom.Vec2, 0, 4*(cornerSegments+1))
	for c := range 4 {
		for s := 0; s <= cornerSegments; s++ {
			a := startAngles[c] + math.Pi/2*float64(s)/cornerSegments
			pts = append(pts, geom.Vec2{
				X: centers[c].X + r*float32(math.Cos(a)),
				Y: centers[c].Y + r*float32(math.Sin(a)),
			})
		}
	}
	return pts
}

// fanMesh triangulates a convex (or star-shaped) outline as a fan around
// the outline centroid.
func fanMesh(outline []geom.Vec2) Mesh {
	if len(outline) < 3 {
		return Mesh{}
	}
	var center geom.Vec2
	for _, p := range outline {
		center = center.Add(p)
	}
	center = center.Scale(1 / float32(len(outline)))

	b := newMeshBuilder()
	c := b.vertex(center)
	first := b.vertex(outline[0])
	prev := first
	for _, p := range outline[1:] {
		cur := b.vertex(p)
		b.triangle(c, prev, cur)
		prev = cur
	}
	b.triangle(c, prev, first)
	return b.mesh
}

// rectMesh is the two-triangle tessellation of an axis-aligned rectangle.
func rectMesh(width, height float32) Mesh {
	b := newMeshBuilder()
	w, h := width/2, height/2
	b.quad(
		geom.Vec2{X: -w, Y: -h},
		geom.Vec2{X: w, Y: -h},
		geom.Vec2{X: w, Y: h},
		geom.Vec2{X: -w, Y: h},
	)
	return b.mesh
}

// annularRing builds a plated-hole ring as interleaved outer/inner circle
// vertices connected into a triangle strip.
func annularRing(outerR, innerR float32) Mesh {
	if innerR >= outerR {
		innerR = outerR * 0.5
	}
	b := newMeshBuilder()
	outer := make([]uint32, circleSegments)
	inner := make([]uint32, circleSegments)
	for i := range circleSegments {
		a := 2 * math.Pi * float64(i) / circleSegments
		cos, sin := float32(math.Cos(a)), float32(math.Sin(a))
		outer[i] = b.vertex(geom.Vec2{X: outerR * cos, Y: outerR * sin})
		inner[i] = b.vertex(geom.Vec2{X: innerR * cos, Y: innerR * sin})
	}
	for i := range circleSegments {
		j := (i + 1) % circleSegments
		b.triangle(outer[i], inner[i], outer[j])
		b.triangle(inner[i], inner[j], outer[j])
	}
	return b.mesh
}
