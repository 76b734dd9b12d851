package tess

import (
	"github.com/charmbracelet/log"

	"github.com/edalab/copperview/pkg/board"
	"github.com/edalab/copperview/pkg/geom"
)

// DebugOptions enables optional tessellation diagnostics. Passing the
// options explicitly (rather than reading process state inside the
// pipeline) keeps runs reproducible and testable.
type DebugOptions struct {
	// DumpLayer names a layer ID whose assembly should be logged verbosely.
	DumpLayer string
}

// AssembleOptions configures layer assembly.
type AssembleOptions struct {
	// Workers bounds the parallel fan-out; <= 0 means one per CPU.
	Workers int

	// ViaLOD holds the pixel-estimate thresholds for via detail levels.
	// The zero value is replaced by DefaultViaLOD.
	ViaLOD ViaLODOptions

	Debug  DebugOptions
	Logger *log.Logger
}

func (o *AssembleOptions) setDefaults() {
	if o.ViaLOD == (ViaLODOptions{}) {
		o.ViaLOD = DefaultViaLOD()
	}
	if o.Logger == nil {
		o.Logger = log.Default()
	}
}

// LayerGeometry is the renderable result for one board layer: the four
// shader classes, the per-object ranges, and the structured shape groups
// the checker reads back for boundary extraction.
type LayerGeometry struct {
	Index    int
	ID       string
	Name     string
	Function string

	Shader    ShaderGeometry
	Objects   []*ObjectRange
	PadGroups []PadGroup
	ViaGroups []ViaGroup

	// Culled counts polylines omitted per level by the minimum-width rule.
	Culled [LODLevels]int

	// Dropped counts shapes skipped as malformed or referencing unknown
	// primitives.
	Dropped int
}

// IsCopper reports whether the layer's function marks it conductive.
func (lg *LayerGeometry) IsCopper() bool {
	return board.Layer{Function: lg.Function}.IsCopper()
}

// AssembleBoard tessellates every layer of a board in parallel and returns
// the per-layer geometry plus the flat object-range list across all
// layers, index-aligned with the layer order.
func AssembleBoard(b *board.Board, opts AssembleOptions) ([]*LayerGeometry, []*ObjectRange, error) {
	if err := b.Validate(); err != nil {
		return nil, nil, err
	}
	opts.setDefaults()

	layers := make([]*LayerGeometry, len(b.Layers))
	fanOut(len(b.Layers), opts.Workers, func(i int) {
		layers[i] = AssembleLayer(i, b.Layers[i], b.Primitives, opts)
	})

	var objects []*ObjectRange
	for _, lg := range layers {
		objects = append(objects, lg.Objects...)
	}
	return layers, objects, nil
}

// AssembleLayer tessellates one layer. Malformed shapes are skipped with a
// diagnostic and never abort the layer.
func AssembleLayer(index int, layer board.Layer, prims map[string]board.StandardPrimitive, opts AssembleOptions) *LayerGeometry {
	opts.setDefaults()
	logger := opts.Logger
	verbose := opts.Debug.DumpLayer != "" && opts.Debug.DumpLayer == layer.ID

	lg := &LayerGeometry{
		Index:    index,
		ID:       layer.ID,
		Name:     layer.Name,
		Function: layer.Function,
		Shader:   newShaderGeometry(),
	}

	assemblePolylines(lg, layer, &opts)
	assemblePolygons(lg, layer, logger)
	assemblePads(lg, layer, prims, logger)
	assembleVias(lg, layer, prims, opts.ViaLOD, logger)

	if verbose {
		for level := range LODLevels {
			logger.Debug("layer batch level",
				"layer", layer.ID, "level", level,
				"vertices", lg.Shader.Batch[level].VertexCount(),
				"indices", len(lg.Shader.Batch[level].Indices),
				"culled", lg.Culled[level])
		}
		logger.Debug("layer assembled",
			"layer", layer.ID,
			"objects", len(lg.Objects),
			"padGroups", len(lg.PadGroups),
			"viaGroups", len(lg.ViaGroups),
			"dropped", lg.Dropped)
	}
	return lg
}

// assemblePolylines strokes every polyline at all detail levels into the
// batch class. LOD point generation fans out in parallel; the mesh append
// is sequential so offsets stay deterministic.
func assemblePolylines(lg *LayerGeometry, layer board.Layer, opts *AssembleOptions) {
	levels := make([][LODLevels][]geom.Vec2, len(layer.Polylines))
	fanOut(len(layer.Polylines), opts.Workers, func(i int) {
		if layer.Polylines[i].CanTessellate() {
			levels[i] = PolylineLevels(layer.Polylines[i])
		}
	})

	for i, p := range layer.Polylines {
		if !p.CanTessellate() {
			lg.Dropped++
			opts.Logger.Debug("skipping malformed polyline",
				"layer", layer.ID, "index", i, "points", len(p.Points), "width", p.Width)
			continue
		}
		obj := &ObjectRange{
			ID:        NewObjectID(lg.Index, KindPolyline, i),
			Kind:      KindPolyline,
			Bounds:    p.Bounds(),
			Net:       p.Net,
			Component: p.Component,
		}
		for level := range LODLevels {
			if !WidthVisible(level, p.Width) {
				lg.Culled[level]++
				continue
			}
			mesh := StrokePolyline(levels[i][level], p.Width, p.Cap)
			obj.LODs[level] = lg.Shader.Batch[level].appendMesh(mesh)
		}
		lg.Objects = append(lg.Objects, obj)
	}
}

// assemblePolygons triangulates filled regions into the colored batch
// class, with per-vertex alpha from the fill color and per-level ring
// simplification.
func assemblePolygons(lg *LayerGeometry, layer board.Layer, logger *log.Logger) {
	for i, poly := range layer.Polygons {
		if !poly.CanTessellate() {
			lg.Dropped++
			logger.Debug("skipping degenerate polygon",
				"layer", layer.ID, "index", i, "outerPoints", len(poly.Outer))
			continue
		}
		obj := &ObjectRange{
			ID:        NewObjectID(lg.Index, KindPolygon, i),
			Kind:      KindPolygon,
			Bounds:    poly.Bounds(),
			Net:       poly.Net,
			Component: poly.Component,
		}
		diag := obj.Bounds.Diagonal()
		for level := range LODLevels {
			mesh := TriangulatePolygon(poly.Outer, poly.Holes, LevelTolerance(level, diag, false))
			target := &lg.Shader.BatchColored[level]
			obj.LODs[level] = target.appendMesh(mesh)
			for range mesh.VertexCount() {
				target.Alphas = append(target.Alphas, poly.Fill.A)
			}
		}
		lg.Objects = append(lg.Objects, obj)
	}
}

// assemblePads groups pad placements by shape, tessellates each group
// once, and emits it unchanged at every level with rotating instances.
func assemblePads(lg *LayerGeometry, layer board.Layer, prims map[string]board.StandardPrimitive, logger *log.Logger) {
	groups, dropped := GroupPads(layer.Pads, prims)
	if dropped > 0 {
		lg.Dropped += dropped
		logger.Warn("pads reference unknown primitives",
			"layer", layer.ID, "dropped", dropped)
	}
	lg.PadGroups = groups

	for gi, g := range groups {
		for level := range LODLevels {
			target := &lg.Shader.InstancedRot[level]
			target.InstanceStride = 3
			target.appendMesh(g.Mesh)
			for _, pad := range g.Instances {
				target.Instances = append(target.Instances,
					pad.Position.X, pad.Position.Y,
					PackRotation(pad.Rotation, true, false))
			}
		}
		for ii, pad := range g.Instances {
			lg.Objects = append(lg.Objects, &ObjectRange{
				ID:        NewObjectID(lg.Index, KindPad, g.Ordinals[ii]),
				Kind:      KindPad,
				Bounds:    instanceBounds(g.Mesh, pad.Rotation, pad.Position),
				Net:       pad.Net,
				Component: pad.Component,
				Pin:       pad.Pin,
				Group:     gi,
				Instance:  ii,
			})
		}
	}
}

// assembleVias groups via placements, chooses the hole or solid mesh per
// level from the pixel estimate, and emits empty-but-present levels below
// the thresholds.
func assembleVias(lg *LayerGeometry, layer board.Layer, prims map[string]board.StandardPrimitive, viaLOD ViaLODOptions, logger *log.Logger) {
	groups, dropped := GroupVias(layer.Vias, prims)
	if dropped > 0 {
		lg.Dropped += dropped
		logger.Warn("vias reference unknown primitives",
			"layer", layer.ID, "dropped", dropped)
	}
	lg.ViaGroups = groups

	for gi, g := range groups {
		px := viaLOD.PixelSize(g.Primitive.MaxDimension())
		for level := range ViaLODCount {
			target := &lg.Shader.Instanced[level]
			target.InstanceStride = 2
			mesh := g.LevelMesh(level, px, viaLOD)
			if mesh.VertexCount() == 0 {
				continue
			}
			target.appendMesh(mesh)
			for _, via := range g.Instances {
				target.Instances = append(target.Instances,
					via.Position.X, via.Position.Y)
			}
		}
		for ii, via := range g.Instances {
			lg.Objects = append(lg.Objects, &ObjectRange{
				ID:       NewObjectID(lg.Index, KindVia, g.Ordinals[ii]),
				Kind:     KindVia,
				Bounds:   instanceBounds(g.SolidMesh, 0, via.Position),
				Net:      via.Net,
				Group:    gi,
				Instance: ii,
			})
		}
	}
}

// instanceBounds returns the bounding box of a base mesh rotated and
// translated to an instance's placement.
func instanceBounds(m Mesh, rotation float32, pos geom.Vec2) geom.BBox {
	b := geom.EmptyBBox()
	for i := 0; i < m.VertexCount(); i++ {
		v := m.Vertex(uint32(i))
		if rotation != 0 {
			v = v.Rotate(rotation)
		}
		b.Expand(v.Add(pos))
	}
	return b
}
