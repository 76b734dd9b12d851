// Package report renders clearance check results as summaries and diagrams.
//
// # Overview
//
// This package turns a violation list into two artifacts: an aggregate
// [Summary] for CLI and API responses, and a net conflict diagram rendered
// via Graphviz, where nets appear as boxes connected by one edge per
// violating net pair.
//
// # Usage
//
// Summarize a check result:
//
//	sum := report.Summarize(violations)
//
// Convert violations to DOT format, then render to SVG:
//
//	dot := report.ToDOT(violations, layers, report.Options{Detailed: true})
//	svg, err := report.RenderSVG(dot)
//
// # DOT Format
//
// The [ToDOT] function produces Graphviz DOT source that can be:
//
//   - Rendered directly via [RenderSVG]
//   - Saved and processed with external Graphviz tools
//   - Customized before rendering
//
// The generated graph is undirected: a clearance conflict has no
// direction. Edges aggregate all violations between the same net pair and
// carry the count and the minimum distance found.
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering.
package report
