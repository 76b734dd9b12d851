// Package drc implements the clearance design-rule check: silhouette
// extraction over the tessellated meshes, exact triangle distance tests
// against a spatial index, and fusion of raw triangle violations into
// stable reportable regions with incremental re-check support.
package drc

import (
	"github.com/edalab/copperview/pkg/geom"
	"github.com/edalab/copperview/pkg/tess"
)

// edgeKey is an unordered vertex-index pair forming a triangle edge.
type edgeKey struct {
	a, b uint32
}

func newEdgeKey(a, b uint32) edgeKey {
	if a > b {
		a, b = b, a
	}
	return edgeKey{a, b}
}

// BoundaryTriangles recovers the silhouette of one object's mesh at the
// given detail level: every unordered index pair is counted across the
// object's triangles, edges referenced by exactly one triangle are
// boundary edges, and any triangle touching a boundary edge is returned.
//
// Batched objects (polylines, polygons) share one mesh per layer class, so
// only triangles whose three indices fall inside the object's own vertex
// range participate; adjacency is therefore computed per object. Instanced
// objects (pads, vias) use their group's base mesh with the instance's
// rotation and translation applied to the returned vertices.
func BoundaryTriangles(lg *tess.LayerGeometry, obj *tess.ObjectRange, level int) []geom.Triangle {
	switch obj.Kind {
	case tess.KindPolyline:
		return batchBoundary(lg.Shader.Batch[level], obj.LODs[level])
	case tess.KindPolygon:
		return batchBoundary(lg.Shader.BatchColored[level], obj.LODs[level])
	case tess.KindPad:
		if obj.Group >= len(lg.PadGroups) {
			return nil
		}
		g := lg.PadGroups[obj.Group]
		x, y, packed := padInstanceEntry(lg, obj.Group, obj.Instance)
		angle, _, _ := tess.UnpackRotation(packed)
		return meshBoundary(g.Mesh, angle, geom.Vec2{X: x, Y: y})
	case tess.KindVia:
		if obj.Group >= len(lg.ViaGroups) {
			return nil
		}
		g := lg.ViaGroups[obj.Group]
		if obj.Instance >= len(g.Instances) {
			return nil
		}
		// The solid variant is the conductor outline; the plated hole does
		// not change where copper can short to a neighbor.
		return meshBoundary(g.SolidMesh, 0, g.Instances[obj.Instance].Position)
	}
	return nil
}

// padInstanceEntry reads one pad's x, y, packed-rotation triplet out of
// the layer's level-0 instance buffer. Groups are concatenated in order,
// so the entry offset is the instance counts of the preceding groups plus
// the object's own position.
func padInstanceEntry(lg *tess.LayerGeometry, group, instance int) (x, y, packed float32) {
	offset := 0
	for gi := 0; gi < group; gi++ {
		offset += len(lg.PadGroups[gi].Instances)
	}
	buf := lg.Shader.InstancedRot[0].Instances
	at := (offset + instance) * 3
	if at+2 >= len(buf) {
		return 0, 0, 0
	}
	return buf[at], buf[at+1], buf[at+2]
}

// batchBoundary extracts boundary triangles for one vertex range of a
// shared batch mesh.
func batchBoundary(lod tess.GeometryLOD, r tess.LODRange) []geom.Triangle {
	if r.IsEmpty() {
		return nil
	}

	var tris [][3]uint32
	for i := 0; i+2 < len(lod.Indices); i += 3 {
		a, b, c := lod.Indices[i], lod.Indices[i+1], lod.Indices[i+2]
		if r.Contains(a) && r.Contains(b) && r.Contains(c) {
			tris = append(tris, [3]uint32{a, b, c})
		}
	}

	vertex := func(i uint32) geom.Vec2 {
		return geom.Vec2{X: lod.Vertices[2*i], Y: lod.Vertices[2*i+1]}
	}
	return boundaryOf(tris, vertex, 0, geom.Vec2{})
}

// meshBoundary extracts boundary triangles of a standalone mesh with a
// placement transform applied to the result.
func meshBoundary(m tess.Mesh, angle float32, translate geom.Vec2) []geom.Triangle {
	var tris [][3]uint32
	for i := 0; i+2 < len(m.Indices); i += 3 {
		tris = append(tris, [3]uint32{m.Indices[i], m.Indices[i+1], m.Indices[i+2]})
	}
	return boundaryOf(tris, m.Vertex, angle, translate)
}

// boundaryOf runs the edge-reference count and materializes the boundary
// triangles, applying the optional placement transform.
func boundaryOf(tris [][3]uint32, vertex func(uint32) geom.Vec2, angle float32, translate geom.Vec2) []geom.Triangle {
	counts := make(map[edgeKey]int, len(tris)*3)
	for _, t := range tris {
		counts[newEdgeKey(t[0], t[1])]++
		counts[newEdgeKey(t[1], t[2])]++
		counts[newEdgeKey(t[2], t[0])]++
	}

	var out []geom.Triangle
	for _, t := range tris {
		if counts[newEdgeKey(t[0], t[1])] == 1 ||
			counts[newEdgeKey(t[1], t[2])] == 1 ||
			counts[newEdgeKey(t[2], t[0])] == 1 {
			tri := geom.NewTriangle(vertex(t[0]), vertex(t[1]), vertex(t[2]))
			if angle != 0 || translate != (geom.Vec2{}) {
				tri = tri.Transform(angle, translate)
			}
			out = append(out, tri)
		}
	}
	return out
}
