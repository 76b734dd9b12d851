// Package wire provides board JSON import and binary geometry export.
//
// # Overview
//
// This package owns the two serialization boundaries of the pipeline:
//
//   - Import: the shape-extraction hand-off format, a JSON document with
//     per-layer shape lists and a primitive table, decoded into a
//     [board.Board].
//   - Export: the geometry buffer format consumed by the renderer, a
//     binary framing that viewers map directly onto typed array views.
//
// # JSON Format
//
// The board document has a layer array and a primitive table:
//
//	{
//	  "name": "main-board",
//	  "layers": [
//	    {
//	      "id": "F.Cu",
//	      "name": "Front Copper",
//	      "function": "SIGNAL",
//	      "polylines": [
//	        {"points": [[0,0],[10,0]], "width": 0.2, "cap": "round", "net": "GND"}
//	      ],
//	      "polygons": [],
//	      "pads": [{"primitive": "rect-1x2", "position": [5,5], "rotation": 1.5708}],
//	      "vias": [{"primitive": "circle-0.6", "position": [2,2], "hole_diameter": 0.3}]
//	    }
//	  ],
//	  "primitives": {
//	    "rect-1x2": {"kind": "rectangle", "width": 1, "height": 2},
//	    "circle-0.6": {"kind": "circle", "diameter": 0.6}
//	  }
//	}
//
// Rotations are radians. Coordinates and dimensions are millimeters.
// Per-shape problems (too few points, non-positive widths) are not import
// errors; the tessellators skip those shapes and count them.
//
// # Binary Format
//
// The geometry buffer is a hard layout contract. Per layer:
//
//	[8-byte magic "CVGEO\x00\x00\x01"]
//	[layer id: u32 length + bytes, padded to 4-byte alignment]
//	[layer name: u32 length + bytes, padded to 4-byte alignment]
//	[default color: 4 little-endian float32]
//	4 sections (batch, batch_colored, instanced_rot, instanced), each:
//	  [lod count: u32]
//	  per LOD: [vertex count: u32] [index count: u32]
//	           [flags byte + 3 padding bytes]
//	           [float32 vertex data] [uint32 index data]
//	           [float32 alpha data when flagged]
//	           [u32 instance count + float32 instance data when flagged]
//
// All integers and floats are little-endian. Vertex count is the number
// of float32 values (two per vertex); alpha data carries one float per
// vertex. [DecodeLayer] reverses [EncodeLayer] bit-exactly.
package wire
