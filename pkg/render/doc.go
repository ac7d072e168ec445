// Package render provides preview rendering for computed layouts.
//
// # Overview
//
// gradlayer's primary output is the layout document of [graph.Layout]; the
// animation renderer that consumes it lives outside this module. This
// package produces quick static previews of the same document:
//
//   - Node-link diagrams via Graphviz (in [nodelink] subpackage)
//   - Generic format conversion (SVG to PNG)
//
// # Format Conversion
//
// The [ToPNG] function converts any SVG to PNG using the external
// rsvg-convert tool (from librsvg); [Available] reports whether it is
// installed.
//
//	dot, err := nodelink.ToDOT(layout, nodelink.Options{})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//	png, err := render.ToPNG(ctx, svg, 2.0) // 2x scale
//
// [graph.Layout]: github.com/matzehuels/gradlayer/pkg/graph#Layout
// [nodelink]: github.com/matzehuels/gradlayer/pkg/render/nodelink
package render
