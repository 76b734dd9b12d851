package tess

// ViaLODCount is the number of detail levels emitted for the instanced via
// class: full hole detail, reduced, and a distant solid-only level.
const ViaLODCount = 3

// GeometryLOD is one detail level of a tessellated result, ready to be
// mapped onto GPU buffer views. Indices reference this level's own vertex
// buffer. Alphas, when present, carry one float per vertex. Instances is a
// flat per-placement buffer: x,y pairs, or x,y,packed-rotation triplets
// when InstanceStride is 3.
type GeometryLOD struct {
	Vertices       []float32
	Indices        []uint32
	Alphas         []float32
	Instances      []float32
	InstanceStride int
}

// InstanceCount returns the number of placements in the instance buffer.
func (g GeometryLOD) InstanceCount() int {
	if g.InstanceStride == 0 {
		return 0
	}
	return len(g.Instances) / g.InstanceStride
}

// VertexCount returns the number of 2D vertices.
func (g GeometryLOD) VertexCount() int {
	return len(g.Vertices) / 2
}

// IsEmpty reports whether the level carries no geometry at all. Empty
// levels are still emitted so level indices stay aligned across layers and
// shape groups.
func (g GeometryLOD) IsEmpty() bool {
	return len(g.Vertices) == 0 && g.InstanceCount() == 0
}

// appendMesh concatenates a mesh into the level's shared buffers, shifting
// indices past the existing vertices, and returns the vertex range the
// mesh landed in.
func (g *GeometryLOD) appendMesh(m Mesh) LODRange {
	offset := uint32(g.VertexCount())
	g.Vertices = append(g.Vertices, m.Vertices...)
	for _, idx := range m.Indices {
		g.Indices = append(g.Indices, idx+offset)
	}
	return LODRange{VertexOffset: offset, VertexCount: uint32(m.VertexCount())}
}

// ShaderGeometry groups a layer's detail levels into the four disjoint
// render classes. A layer has at most one of each class; classes a layer
// does not use hold empty levels.
type ShaderGeometry struct {
	// Batch holds opaque stroked polylines, LODLevels entries.
	Batch []GeometryLOD

	// BatchColored holds filled polygons with per-vertex alpha,
	// LODLevels entries.
	BatchColored []GeometryLOD

	// InstancedRot holds pad shapes with rotating instances,
	// LODLevels entries.
	InstancedRot []GeometryLOD

	// Instanced holds via shapes with translate-only instances,
	// ViaLODCount entries.
	Instanced []GeometryLOD
}

// newShaderGeometry allocates the four classes at their fixed level counts.
func newShaderGeometry() ShaderGeometry {
	return ShaderGeometry{
		Batch:        make([]GeometryLOD, LODLevels),
		BatchColored: make([]GeometryLOD, LODLevels),
		InstancedRot: make([]GeometryLOD, LODLevels),
		Instanced:    make([]GeometryLOD, ViaLODCount),
	}
}
