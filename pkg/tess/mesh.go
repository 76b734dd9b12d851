// Package tess converts abstract board shapes into triangulated vertex and
// index buffers at multiple levels of detail: polyline stroking with joins
// and caps, Douglas-Peucker simplification, ear-clipping triangulation of
// filled regions, direct tessellators for the standard pad/via primitives,
// and instance grouping with pixel-density LOD selection.
//
// Everything in this package is pure CPU work over value types. The
// assembler at the top of the package fans work out across a bounded worker
// set; each unit writes only its own output slot.
package tess

import "github.com/edalab/copperview/pkg/geom"

// Mesh is a flat triangle list: interleaved x,y vertex pairs and triangle
// indices into them. Indices count vertices, not floats.
type Mesh struct {
	Vertices []float32
	Indices  []uint32
}

// VertexCount returns the number of 2D vertices in the mesh.
func (m Mesh) VertexCount() int {
	return len(m.Vertices) / 2
}

// TriangleCount returns the number of triangles in the mesh.
func (m Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// Vertex returns vertex i as a point.
func (m Mesh) Vertex(i uint32) geom.Vec2 {
	return geom.Vec2{X: m.Vertices[2*i], Y: m.Vertices[2*i+1]}
}

// Bounds returns the bounding box of all vertices.
func (m Mesh) Bounds() geom.BBox {
	b := geom.EmptyBBox()
	for i := 0; i+1 < len(m.Vertices); i += 2 {
		b.Expand(geom.Vec2{X: m.Vertices[i], Y: m.Vertices[i+1]})
	}
	return b
}

// meshBuilder accumulates triangles while sharing coincident vertices, so
// that adjacent triangles reference the same indices. Shared indices are
// what makes edge-adjacency counting (boundary extraction) work downstream.
type meshBuilder struct {
	mesh   Mesh
	lookup map[geom.Vec2]uint32
}

func newMeshBuilder() *meshBuilder {
	return &meshBuilder{lookup: make(map[geom.Vec2]uint32)}
}

// vertex returns the index for p, appending it if unseen. Exact float32
// equality is intentional: rail and arc points that should be shared are
// computed from identical inputs.
func (b *meshBuilder) vertex(p geom.Vec2) uint32 {
	if i, ok := b.lookup[p]; ok {
		return i
	}
	i := uint32(b.mesh.VertexCount())
	b.mesh.Vertices = append(b.mesh.Vertices, p.X, p.Y)
	b.lookup[p] = i
	return i
}

// triangle appends one triangle, dropping degenerates that collapsed to a
// line or point during vertex sharing.
func (b *meshBuilder) triangle(i, j, k uint32) {
	if i == j || j == k || i == k {
		return
	}
	b.mesh.Indices = append(b.mesh.Indices, i, j, k)
}

func (b *meshBuilder) quad(p0, p1, p2, p3 geom.Vec2) {
	i0, i1, i2, i3 := b.vertex(p0), b.vertex(p1), b.vertex(p2), b.vertex(p3)
	b.triangle(i0, i1, i2)
	b.triangle(i0, i2, i3)
}
