package report

import (
	"bytes"
	"context"
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/edalab/copperview/pkg/drc"
	"github.com/edalab/copperview/pkg/tess"
)

// Options configures conflict diagram rendering.
type Options struct {
	// Detailed includes violation counts and minimum distances on edge
	// labels. When false, edges are drawn bare.
	Detailed bool
}

// unconnected is the node label for objects without a net.
const unconnected = "(unconnected)"

// netEdge aggregates the violations between one unordered net pair.
type netEdge struct {
	count int
	minMM float32
}

// ToDOT converts a violation list to Graphviz DOT format for net conflict
// visualization. Nets become nodes; all violations between the same two
// nets collapse into one edge. The layers provide the object-to-net
// lookup. The resulting DOT string can be rendered using [RenderSVG].
func ToDOT(violations []drc.Violation, layers []*tess.LayerGeometry, opts Options) string {
	nets := netLookup(layers)

	nodes := map[string]bool{}
	edges := map[[2]string]*netEdge{}
	for _, v := range violations {
		a, b := netName(nets, v.ObjectA), netName(nets, v.ObjectB)
		if b < a {
			a, b = b, a
		}
		nodes[a] = true
		nodes[b] = true

		key := [2]string{a, b}
		e := edges[key]
		if e == nil {
			e = &netEdge{minMM: v.DistanceMM}
			edges[key] = e
		}
		e.count++
		if v.DistanceMM < e.minMM {
			e.minMM = v.DistanceMM
		}
	}

	var buf bytes.Buffer
	buf.WriteString("graph G {\n")
	buf.WriteString("  layout=neato;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  overlap=false;\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=24, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  edge [color=firebrick, penwidth=2];\n")
	buf.WriteString("\n")

	for _, n := range slices.Sorted(maps.Keys(nodes)) {
		fmt.Fprintf(&buf, "  %q%s;\n", n, fmtNodeAttrs(n))
	}

	buf.WriteString("\n")
	for _, key := range slices.SortedFunc(maps.Keys(edges), comparePairs) {
		e := edges[key]
		if opts.Detailed {
			label := fmt.Sprintf("%d×\nmin %.3fmm", e.count, e.minMM)
			fmt.Fprintf(&buf, "  %q -- %q [label=%q, fontsize=18];\n", key[0], key[1], label)
		} else {
			fmt.Fprintf(&buf, "  %q -- %q;\n", key[0], key[1])
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func comparePairs(a, b [2]string) int {
	if c := strings.Compare(a[0], b[0]); c != 0 {
		return c
	}
	return strings.Compare(a[1], b[1])
}

func fmtNodeAttrs(net string) string {
	if net == unconnected {
		return " [style=\"rounded,filled,dashed\", fillcolor=lightgrey]"
	}
	return ""
}

func netLookup(layers []*tess.LayerGeometry) map[tess.ObjectID]string {
	nets := make(map[tess.ObjectID]string)
	for _, lg := range layers {
		for _, obj := range lg.Objects {
			nets[obj.ID] = obj.Net
		}
	}
	return nets
}

func netName(nets map[tess.ObjectID]string, id tess.ObjectID) string {
	if net := nets[id]; net != "" {
		return net
	}
	return unconnected
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
// Returns the SVG bytes ready for display or embedding.
func RenderSVG(dot string) ([]byte, error) {
	ctx := context.Background()
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}
