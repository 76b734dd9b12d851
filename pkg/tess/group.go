package tess

import (
	"fmt"

	"github.com/edalab/copperview/pkg/board"
)

// PadGroup is all pad placements of one shape identity. The base mesh is
// tessellated once; instances carry position and packed rotation. Pads are
// emitted unchanged at every LOD level and never shrink-culled.
type PadGroup struct {
	PrimitiveID string
	Primitive   board.StandardPrimitive
	Mesh        Mesh
	Instances   []board.PadInstance

	// Ordinals holds each instance's source-list index, which is also its
	// object-id ordinal.
	Ordinals []int
}

// ViaGroup is all via placements sharing a (shape kind, dimensions, hole
// diameter) tuple. Each group carries two tessellations: the plated ring
// with the hole, and the solid far-zoom variant.
type ViaGroup struct {
	Key          string
	Primitive    board.StandardPrimitive
	HoleDiameter float32
	HoleMesh     Mesh
	SolidMesh    Mesh
	Instances    []board.ViaInstance
	Ordinals     []int
}

// ViaLODOptions are the pixel-estimate tuning constants steering which via
// tessellation each detail level receives. The estimated on-screen size of
// a via is MaxDimension × PixelsPerMM × Zoom; levels whose content falls
// below its threshold are emitted empty (not omitted), keeping level
// alignment across shape groups.
//
// The thresholds are tuning constants with no physical derivation; they do
// not assume a particular screen DPI.
type ViaLODOptions struct {
	PixelsPerMM float32
	Zoom        float32
	HoleLOD0    float32
	HoleLOD1    float32
	SolidLOD1   float32
	SolidLOD2   float32
}

// DefaultViaLOD returns the default via LOD thresholds.
func DefaultViaLOD() ViaLODOptions {
	return ViaLODOptions{
		PixelsPerMM: 100,
		Zoom:        1,
		HoleLOD0:    150,
		HoleLOD1:    400,
		SolidLOD1:   50,
		SolidLOD2:   30,
	}
}

// PixelSize estimates the on-screen size of a shape with the given maximum
// dimension in millimeters.
func (o ViaLODOptions) PixelSize(maxDim float32) float32 {
	return maxDim * o.PixelsPerMM * o.Zoom
}

// LevelMesh selects the group's tessellation for one via LOD level given
// the estimated pixel size. The empty mesh means the level is emitted with
// zero vertices and instances.
func (g ViaGroup) LevelMesh(level int, px float32, opts ViaLODOptions) Mesh {
	switch level {
	case 0:
		if px >= opts.HoleLOD0 {
			return g.HoleMesh
		}
	case 1:
		if px >= opts.HoleLOD1 {
			return g.HoleMesh
		}
		if px >= opts.SolidLOD1 {
			return g.SolidMesh
		}
	case 2:
		if px >= opts.SolidLOD2 {
			return g.SolidMesh
		}
	}
	return Mesh{}
}

// GroupPads buckets pad placements by shape identity and tessellates each
// group once. Pads referencing an unknown primitive are dropped and
// counted; the caller reports them as data-loss diagnostics.
func GroupPads(pads []board.PadInstance, prims map[string]board.StandardPrimitive) (groups []PadGroup, dropped int) {
	byID := make(map[string]int)
	for i, pad := range pads {
		prim, ok := prims[pad.PrimitiveID]
		if !ok {
			dropped++
			continue
		}
		gi, ok := byID[pad.PrimitiveID]
		if !ok {
			gi = len(groups)
			byID[pad.PrimitiveID] = gi
			groups = append(groups, PadGroup{
				PrimitiveID: pad.PrimitiveID,
				Primitive:   prim,
				Mesh:        TessellatePrimitive(prim),
			})
		}
		groups[gi].Instances = append(groups[gi].Instances, pad)
		groups[gi].Ordinals = append(groups[gi].Ordinals, i)
	}
	return groups, dropped
}

// GroupVias buckets via placements by (shape kind, dimensions, hole
// diameter) and tessellates both the plated and solid variant of each
// group.
func GroupVias(vias []board.ViaInstance, prims map[string]board.StandardPrimitive) (groups []ViaGroup, dropped int) {
	byKey := make(map[string]int)
	for i, via := range vias {
		prim, ok := prims[via.PrimitiveID]
		if !ok {
			dropped++
			continue
		}
		key := viaGroupKey(via.PrimitiveID, prim, via.HoleDiameter)
		gi, ok := byKey[key]
		if !ok {
			gi = len(groups)
			byKey[key] = gi
			groups = append(groups, ViaGroup{
				Key:          key,
				Primitive:    prim,
				HoleDiameter: via.HoleDiameter,
				HoleMesh:     TessellatePrimitiveWithHole(prim, via.HoleDiameter),
				SolidMesh:    TessellatePrimitive(prim),
			})
		}
		groups[gi].Instances = append(groups[gi].Instances, via)
		groups[gi].Ordinals = append(groups[gi].Ordinals, i)
	}
	return groups, dropped
}

// viaGroupKey folds the shape tuple into a map key. Dimensioned primitives
// group by their geometry so two primitive ids with identical dimensions
// share a tessellation; custom polygons group by id since their point
// lists are not comparable.
func viaGroupKey(id string, p board.StandardPrimitive, hole float32) string {
	if p.Kind == board.PrimCustomPolygon {
		return fmt.Sprintf("custom/%s/%g", id, hole)
	}
	return fmt.Sprintf("%d/%g/%g/%g/%g/%g", p.Kind, p.Diameter, p.Width, p.Height, p.CornerRadius, hole)
}
