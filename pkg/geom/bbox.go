package geom

import "math"

// BBox is an axis-aligned bounding box. The zero value is not a valid box;
// use NewBBox or start from EmptyBBox and Expand.
type BBox struct {
	MinX, MinY, MaxX, MaxY float32
}

// EmptyBBox returns an inverted box that any Expand call will overwrite.
func EmptyBBox() BBox {
	return BBox{
		MinX: float32(math.Inf(1)),
		MinY: float32(math.Inf(1)),
		MaxX: float32(math.Inf(-1)),
		MaxY: float32(math.Inf(-1)),
	}
}

// NewBBox returns the bounding box of the given points.
func NewBBox(pts ...Vec2) BBox {
	b := EmptyBBox()
	for _, p := range pts {
		b.Expand(p)
	}
	return b
}

// IsEmpty reports whether the box contains no points.
func (b BBox) IsEmpty() bool {
	return b.MinX > b.MaxX || b.MinY > b.MaxY
}

// Expand grows the box to include p.
func (b *BBox) Expand(p Vec2) {
	if p.X < b.MinX {
		b.MinX = p.X
	}
	if p.Y < b.MinY {
		b.MinY = p.Y
	}
	if p.X > b.MaxX {
		b.MaxX = p.X
	}
	if p.Y > b.MaxY {
		b.MaxY = p.Y
	}
}

// Union grows the box to include every point of other.
func (b *BBox) Union(other BBox) {
	if other.IsEmpty() {
		return
	}
	b.Expand(Vec2{other.MinX, other.MinY})
	b.Expand(Vec2{other.MaxX, other.MaxY})
}

// Inflate returns the box grown by d on every side.
func (b BBox) Inflate(d float32) BBox {
	return BBox{b.MinX - d, b.MinY - d, b.MaxX + d, b.MaxY + d}
}

// Translate returns the box shifted by d.
func (b BBox) Translate(d Vec2) BBox {
	return BBox{b.MinX + d.X, b.MinY + d.Y, b.MaxX + d.X, b.MaxY + d.Y}
}

// Intersects reports whether b and other overlap or touch.
func (b BBox) Intersects(other BBox) bool {
	return b.MinX <= other.MaxX && b.MaxX >= other.MinX &&
		b.MinY <= other.MaxY && b.MaxY >= other.MinY
}

// Contains reports whether p lies inside or on the edge of the box.
func (b BBox) Contains(p Vec2) bool {
	return p.X >= b.MinX && p.X <= b.MaxX && p.Y >= b.MinY && p.Y <= b.MaxY
}

// Center returns the center point of the box.
func (b BBox) Center() Vec2 {
	return Vec2{(b.MinX + b.MaxX) / 2, (b.MinY + b.MaxY) / 2}
}

// Width returns the horizontal extent of the box.
func (b BBox) Width() float32 {
	return b.MaxX - b.MinX
}

// Height returns the vertical extent of the box.
func (b BBox) Height() float32 {
	return b.MaxY - b.MinY
}

// Diagonal returns the length of the box diagonal.
func (b BBox) Diagonal() float32 {
	return Vec2{b.Width(), b.Height()}.Length()
}

// Distance returns the minimum distance between the two boxes, or 0 when
// they overlap. This is a lower bound on the distance between any geometry
// the boxes enclose.
func (b BBox) Distance(other BBox) float32 {
	var dx, dy float32
	if other.MinX > b.MaxX {
		dx = other.MinX - b.MaxX
	} else if b.MinX > other.MaxX {
		dx = b.MinX - other.MaxX
	}
	if other.MinY > b.MaxY {
		dy = other.MinY - b.MaxY
	} else if b.MinY > other.MaxY {
		dy = b.MinY - other.MaxY
	}
	if dx == 0 {
		return dy
	}
	if dy == 0 {
		return dx
	}
	return Vec2{dx, dy}.Length()
}
