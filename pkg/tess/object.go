package tess

import (
	"fmt"

	"github.com/edalab/copperview/pkg/geom"
)

// ObjectKind tags the four geometry kinds handled by the pipeline. The
// numeric values are part of the object-id encoding and must not change.
type ObjectKind uint8

const (
	KindPolyline ObjectKind = 0
	KindPolygon  ObjectKind = 1
	KindVia      ObjectKind = 2
	KindPad      ObjectKind = 3
)

func (k ObjectKind) String() string {
	switch k {
	case KindPolyline:
		return "polyline"
	case KindPolygon:
		return "polygon"
	case KindVia:
		return "via"
	case KindPad:
		return "pad"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// IsInstanced reports whether objects of this kind live in instance buffers
// (pads, vias) rather than shared batch buffers (polylines, polygons).
func (k ObjectKind) IsInstanced() bool {
	return k == KindVia || k == KindPad
}

// ObjectID is the stable 64-bit identity of one selectable object within a
// loaded board: layer index in the upper bits, kind tag, then the object's
// ordinal within its layer and kind. IDs are unique and stable for the
// lifetime of one load; the ordinal is the source-list index, so skipped
// shapes leave gaps rather than shifting later ids.
type ObjectID uint64

const (
	idLayerShift = 48
	idKindShift  = 40
	idKindMask   = 0xFF
	idOrdinal    = (1 << idKindShift) - 1
)

// NewObjectID packs a layer index, kind, and ordinal into one id.
func NewObjectID(layer int, kind ObjectKind, ordinal int) ObjectID {
	return ObjectID(uint64(layer)<<idLayerShift |
		uint64(kind)<<idKindShift |
		uint64(ordinal)&idOrdinal)
}

// LayerIndex returns the board layer index encoded in the id.
func (id ObjectID) LayerIndex() int {
	return int(uint64(id) >> idLayerShift)
}

// Kind returns the geometry kind encoded in the id.
func (id ObjectID) Kind() ObjectKind {
	return ObjectKind(uint64(id) >> idKindShift & idKindMask)
}

// Ordinal returns the per-layer, per-kind source index encoded in the id.
func (id ObjectID) Ordinal() int {
	return int(uint64(id) & idOrdinal)
}

func (id ObjectID) String() string {
	return fmt.Sprintf("%s L%d #%d", id.Kind(), id.LayerIndex(), id.Ordinal())
}

// LODRange is one object's slice of a shared batch vertex buffer at one
// detail level. Offsets and counts are in vertices, not floats. A zero
// range means the object was culled from that level.
type LODRange struct {
	VertexOffset uint32
	VertexCount  uint32
}

// IsEmpty reports whether the object has no geometry at this level.
func (r LODRange) IsEmpty() bool {
	return r.VertexCount == 0
}

// Contains reports whether vertex index v falls inside the range.
func (r LODRange) Contains(v uint32) bool {
	return v >= r.VertexOffset && v < r.VertexOffset+r.VertexCount
}

// ObjectRange is the authoritative record for one selectable, checkable
// board object: identity, bounding box, electrical tags, and the reverse
// mapping into the tessellated buffers. Batched kinds carry a per-LOD
// vertex range into the shared batch mesh; instanced kinds carry their
// shape-group index and position within the group's instance buffer.
//
// Bounds is mutated in place by move and transform operations; everything
// else is immutable after assembly.
type ObjectRange struct {
	ID        ObjectID
	Kind      ObjectKind
	Bounds    geom.BBox
	Net       string
	Component string
	Pin       string

	// Batched kinds (polyline, polygon).
	LODs [LODLevels]LODRange

	// Instanced kinds (pad, via).
	Group    int
	Instance int
}
