package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/gradlayer/pkg/errors"
	"github.com/matzehuels/gradlayer/pkg/graph"
	"github.com/matzehuels/gradlayer/pkg/render"
)

// Options configures node-link diagram rendering.
type Options struct {
	// Detailed appends each member's natural size to its label.
	// When false, only the display lines are shown.
	Detailed bool
}

// ToDOT converts a layout to Graphviz DOT format for a node-link preview.
// The resulting DOT string can be rendered using [RenderSVG] or [RenderPNG].
//
// Acyclic layouts are drawn left to right with one rank=same cluster per
// rank group. Tree layouts are drawn top to bottom with one rank=same row per
// layer; tensor members are boxes and node members are circles.
func ToDOT(l graph.Layout, opts Options) (string, error) {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=circle, style=filled, fillcolor=white, fontsize=14, margin=\"0.1,0.05\"];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")

	switch {
	case l.IsAcyclic():
		buf.WriteString("  rankdir=LR;\n\n")
		writeGroups(&buf, l, opts)
	case l.IsTree():
		buf.WriteString("  rankdir=TB;\n\n")
		if err := writeLayers(&buf, l, opts); err != nil {
			return "", err
		}
	default:
		return "", errors.New(errors.ErrCodeUnsupported, "cannot draw layout variant %q", l.Variant)
	}

	buf.WriteString("}\n")
	return buf.String(), nil
}

func writeGroups(buf *bytes.Buffer, l graph.Layout, opts Options) {
	for _, g := range l.Groups {
		fmt.Fprintf(buf, "  { rank=same; // rank %d\n", g.Rank)
		for _, m := range g.Members {
			fmt.Fprintf(buf, "    %q [%s];\n", m.ID, strings.Join(fmtAttrs(m, graph.KindNode, opts.Detailed), ", "))
		}
		buf.WriteString("  }\n")
	}

	buf.WriteString("\n")
	for _, e := range l.Edges {
		fmt.Fprintf(buf, "  %q -> %q;\n", e.From, e.To)
	}
}

func writeLayers(buf *bytes.Buffer, l graph.Layout, opts Options) error {
	for li, layer := range l.Layers {
		fmt.Fprintf(buf, "  { rank=same; // %s\n", layer.Label)
		for mi, m := range layer.Members {
			fmt.Fprintf(buf, "    %q [%s];\n", memberID(li, mi), strings.Join(fmtAttrs(m, layer.Kind, opts.Detailed), ", "))
		}
		buf.WriteString("  }\n")
	}

	buf.WriteString("\n")
	for _, e := range l.CrossEdges {
		if !inRange(l, e.SourceLayer, e.SourceIndex) || !inRange(l, e.DestLayer, e.DestIndex) {
			return errors.NotFound("cross edge %d:%d -> %d:%d", e.SourceLayer, e.SourceIndex, e.DestLayer, e.DestIndex)
		}
		fmt.Fprintf(buf, "  %q -> %q;\n", memberID(e.SourceLayer, e.SourceIndex), memberID(e.DestLayer, e.DestIndex))
	}
	return nil
}

// memberID names a tree member by position; the same unit id can appear in
// more than one layer.
func memberID(layer, index int) string {
	return fmt.Sprintf("L%d_%d", layer, index)
}

func inRange(l graph.Layout, layer, index int) bool {
	return layer >= 0 && layer < len(l.Layers) && index >= 0 && index < len(l.Layers[layer].Members)
}

func fmtLabel(m graph.Member, detailed bool) string {
	lines := m.Lines
	if len(lines) == 0 {
		lines = []string{m.Label}
	}
	label := strings.Join(lines, "\n")
	if !detailed {
		return label
	}
	return label + "\n" + fmt.Sprintf("%.2f x %.2f", m.Width, m.Height)
}

func fmtAttrs(m graph.Member, kind string, detailed bool) []string {
	attrs := []string{fmt.Sprintf("label=%q", fmtLabel(m, detailed))}
	if kind == graph.KindTensor {
		attrs = append(attrs, "shape=box", "fillcolor=lightgrey")
	}
	return attrs
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
// Returns the SVG bytes ready for display or further conversion with [render.ToPNG].
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "init graphviz")
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse DOT")
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "render")
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

// RenderPNG renders a DOT graph as PNG via SVG conversion.
// This is a convenience wrapper around [RenderSVG] and [render.ToPNG].
//
// A scale of 2.0 produces a 2x resolution image suitable for high-DPI displays.
//
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func RenderPNG(ctx context.Context, dot string, scale float64) ([]byte, error) {
	svg, err := RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	return render.ToPNG(ctx, svg, scale)
}
