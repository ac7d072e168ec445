// Package nodelink renders layout documents as node-link preview diagrams.
//
// # Overview
//
// This package produces directed graph previews using Graphviz, where
// computation nodes appear as circles and tensors as boxes connected by
// arrows. It is a quick check of a layout's structure, not a replacement
// for the animated renderer the layout document is meant for.
//
// # Usage
//
// Convert a layout to DOT format, then render to SVG:
//
//	dot, err := nodelink.ToDOT(layout, nodelink.Options{})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// For PNG output:
//
//	png, err := nodelink.RenderPNG(ctx, dot, 2.0)  // 2x scale
//
// # DOT Format
//
// Acyclic layouts keep their rank groups as rank=same clusters laid out
// left to right (rankdir=LR), so the preview reads like the fitted columns.
// Tree layouts keep their layers as rank=same rows laid out top to bottom
// (rankdir=TB). Tree member ids are positional ("L2_0") because one unit
// can appear in several layers.
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering. PNG conversion requires librsvg (rsvg-convert).
package nodelink
