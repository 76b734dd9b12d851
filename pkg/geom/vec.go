// Package geom provides the planar geometry primitives shared by the
// tessellation pipeline and the design-rule checker: 2D vectors, axis-aligned
// bounding boxes, triangles, and exact minimum-distance computations.
//
// All coordinates are millimeters stored as float32, matching the precision
// of the GPU vertex buffers the pipeline emits. Intermediate math that needs
// the headroom (square roots, projections) widens to float64 and narrows on
// the way out.
package geom

import "math"

// Vec2 is a 2D point or direction in millimeters.
type Vec2 struct {
	X, Y float32
}

// Add returns v + w.
func (v Vec2) Add(w Vec2) Vec2 {
	return Vec2{v.X + w.X, v.Y + w.Y}
}

// Sub returns v - w.
func (v Vec2) Sub(w Vec2) Vec2 {
	return Vec2{v.X - w.X, v.Y - w.Y}
}

// Scale returns v scaled by s.
func (v Vec2) Scale(s float32) Vec2 {
	return Vec2{v.X * s, v.Y * s}
}

// Dot returns the dot product of v and w.
func (v Vec2) Dot(w Vec2) float32 {
	return v.X*w.X + v.Y*w.Y
}

// Cross returns the z-component of the 3D cross product of v and w.
// Positive when w is counter-clockwise from v.
func (v Vec2) Cross(w Vec2) float32 {
	return v.X*w.Y - v.Y*w.X
}

// Length returns the Euclidean length of v.
func (v Vec2) Length() float32 {
	return float32(math.Hypot(float64(v.X), float64(v.Y)))
}

// LengthSq returns the squared length of v.
func (v Vec2) LengthSq() float32 {
	return v.X*v.X + v.Y*v.Y
}

// Normalize returns v scaled to unit length. The zero vector is returned
// unchanged.
func (v Vec2) Normalize() Vec2 {
	l := v.Length()
	if l == 0 {
		return Vec2{}
	}
	return Vec2{v.X / l, v.Y / l}
}

// Perp returns v rotated 90 degrees counter-clockwise (the left-hand
// normal of a direction vector).
func (v Vec2) Perp() Vec2 {
	return Vec2{-v.Y, v.X}
}

// Lerp returns the linear interpolation between v and w at parameter t.
func (v Vec2) Lerp(w Vec2, t float32) Vec2 {
	return Vec2{v.X + (w.X-v.X)*t, v.Y + (w.Y-v.Y)*t}
}

// Rotate returns v rotated by angle radians around the origin.
func (v Vec2) Rotate(angle float32) Vec2 {
	sin, cos := math.Sincos(float64(angle))
	s, c := float32(sin), float32(cos)
	return Vec2{v.X*c - v.Y*s, v.X*s + v.Y*c}
}

// DistanceTo returns the distance between v and w.
func (v Vec2) DistanceTo(w Vec2) float32 {
	return v.Sub(w).Length()
}

// Mid returns the midpoint of v and w.
func Mid(v, w Vec2) Vec2 {
	return Vec2{(v.X + w.X) / 2, (v.Y + w.Y) / 2}
}
