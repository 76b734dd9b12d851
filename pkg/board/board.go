// Package board defines the abstract shape model handed to the tessellation
// pipeline: per-layer lists of polylines, filled polygons, pad and via
// placements, plus the table of standard primitive definitions they
// reference.
//
// The package is a passive data model. Shape extraction (parsing a board
// description format into these lists) happens upstream; the pipeline
// assumes the lists arrive net- and component-tagged. Validation here is
// limited to the checks the tessellators need to skip malformed shapes.
package board

import (
	"errors"
	"strings"

	"github.com/edalab/copperview/pkg/geom"
)

var (
	// ErrNoLayers is returned by Board.Validate when a board has no layer
	// container at all. Per-shape problems never surface as errors; they
	// are skipped during tessellation.
	ErrNoLayers = errors.New("board has no layers")

	// ErrUnknownPrimitive is returned when a pad or via references a
	// primitive ID missing from the board's primitive table.
	ErrUnknownPrimitive = errors.New("unknown primitive ID")
)

// CapStyle selects the end-cap geometry for open polylines.
type CapStyle int

const (
	CapRound CapStyle = iota
	CapSquare
	CapButt
)

// ClosedTolerance is the endpoint coincidence distance below which a
// polyline is treated as closed: caps are suppressed and the join wraps
// across the seam.
const ClosedTolerance = 1e-4

// Polyline is an ordered point sequence stroked at a fixed width.
type Polyline struct {
	Points    []geom.Vec2
	Width     float32
	Cap       CapStyle
	Net       string
	Component string
}

// IsClosed reports whether the first and last points coincide within
// ClosedTolerance.
func (p Polyline) IsClosed() bool {
	if len(p.Points) < 3 {
		return false
	}
	return p.Points[0].DistanceTo(p.Points[len(p.Points)-1]) < ClosedTolerance
}

// CanTessellate reports whether the polyline has enough substance to
// produce geometry: a positive width and at least two points.
func (p Polyline) CanTessellate() bool {
	return p.Width > 0 && len(p.Points) >= 2
}

// Bounds returns the bounding box of the polyline inflated by half the
// stroke width.
func (p Polyline) Bounds() geom.BBox {
	return geom.NewBBox(p.Points...).Inflate(p.Width / 2)
}

// Color is an RGBA fill color with components in [0,1].
type Color struct {
	R, G, B, A float32
}

// Polygon is a filled region: one outer ring plus zero or more holes.
// Holes with fewer than three points are dropped during tessellation.
type Polygon struct {
	Outer     []geom.Vec2
	Holes     [][]geom.Vec2
	Fill      Color
	Net       string
	Component string
}

// CanTessellate reports whether the outer ring can be triangulated.
func (p Polygon) CanTessellate() bool {
	return len(p.Outer) >= 3
}

// Bounds returns the bounding box of the outer ring.
func (p Polygon) Bounds() geom.BBox {
	return geom.NewBBox(p.Outer...)
}

// PrimitiveKind tags a standard primitive shape.
type PrimitiveKind int

const (
	PrimCircle PrimitiveKind = iota
	PrimRectangle
	PrimOval
	PrimRoundRect
	PrimCustomPolygon
)

// StandardPrimitive is a closed tagged shape definition referenced by pad
// and via placements. Primitives are immutable once parsed; the dimension
// fields used depend on Kind.
type StandardPrimitive struct {
	Kind         PrimitiveKind
	Diameter     float32     // PrimCircle
	Width        float32     // PrimRectangle, PrimOval, PrimRoundRect
	Height       float32     // PrimRectangle, PrimOval, PrimRoundRect
	CornerRadius float32     // PrimRoundRect
	Points       []geom.Vec2 // PrimCustomPolygon
}

// MaxDimension returns the largest extent of the primitive, used for
// on-screen pixel-size estimates.
func (p StandardPrimitive) MaxDimension() float32 {
	switch p.Kind {
	case PrimCircle:
		return p.Diameter
	case PrimRectangle, PrimOval, PrimRoundRect:
		return max(p.Width, p.Height)
	case PrimCustomPolygon:
		b := geom.NewBBox(p.Points...)
		return max(b.Width(), b.Height())
	}
	return 0
}

// PadInstance places a primitive as a component pad.
type PadInstance struct {
	PrimitiveID string
	Position    geom.Vec2
	Rotation    float32 // radians
	Net         string
	Component   string
	Pin         string
}

// ViaInstance places a primitive as a plated via. HoleDiameter of zero
// means an unplated or filled via rendered solid.
type ViaInstance struct {
	PrimitiveID  string
	Position     geom.Vec2
	HoleDiameter float32
	Net          string
}

// Layer is one board layer with its shape lists and declared function.
type Layer struct {
	ID        string
	Name      string
	Function  string
	Polylines []Polyline
	Polygons  []Polygon
	Pads      []PadInstance
	Vias      []ViaInstance
}

// Board is the full shape model for one loaded board.
type Board struct {
	Layers     []Layer
	Primitives map[string]StandardPrimitive
}

// Validate checks the whole-board structural assumptions. Per-shape
// problems are not errors; the tessellators skip them.
func (b *Board) Validate() error {
	if len(b.Layers) == 0 {
		return ErrNoLayers
	}
	return nil
}

// copperFunctions is the layer-function allow-list that marks a layer as
// carrying copper for clearance checking.
var copperFunctions = map[string]bool{
	"SIGNAL":              true,
	"PLANE":               true,
	"MIXED":               true,
	"CONDUCTOR":           true,
	"CONDFILM":            true,
	"CONDFOIL":            true,
	"CONDUCTIVE_ADHESIVE": true,
}

// IsCopper reports whether the layer's declared function marks it as a
// conductive layer. The comparison is case-insensitive; an empty function
// (the documented default when the lookup is missing) is not copper.
func (l Layer) IsCopper() bool {
	return copperFunctions[strings.ToUpper(l.Function)]
}
