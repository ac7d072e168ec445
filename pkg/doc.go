// Package pkg provides the core libraries for gradlayer autograd graph layout.
//
// # Overview
//
// gradlayer takes a recorded autograd backward graph and computes a layered,
// fitted layout for it: which tensors and operations share a row, in what
// order, and how much each row must shrink to fit a frame. The pkg directory
// is organized into four areas:
//
//  1. Model - [tensor], [autograd] and [dag] hold the graph itself
//  2. Layout - [dag/transform], [layer] and [fit] rank, band and scale it
//  3. [pipeline] - Orchestration (load → reverse → rank → layout → render)
//  4. Infrastructure - [cache], [store], [server], [config] and [observability]
//
// # Architecture
//
// The typical data flow:
//
//	Tree document or exported graph directory
//	         ↓
//	    [io] package (decode records into a tree or flat graph)
//	         ↓
//	    [autograd] package (optional reversal into the forward dual)
//	         ↓
//	    [dag/transform] package (rank assignment, cycle breaking)
//	         ↓
//	    [layer] + [fit] packages (layer stack and per-row scale factors)
//	         ↓
//	    [graph].Layout (JSON document, DOT/SVG/PNG previews via [render/nodelink])
//
// # Quick Start
//
// Lay out an exported acyclic graph:
//
//	import (
//	    "context"
//	    "github.com/matzehuels/gradlayer/pkg/pipeline"
//	)
//
//	ctx := context.Background()
//	opts := pipeline.Options{Direction: "forward"}
//	in, _ := pipeline.Load(ctx, "runs/step-42", opts)
//	result, _ := pipeline.NewRunner(nil, nil, nil).Execute(ctx, in, opts)
//	fmt.Println(result.Layout.Order)
//
// # Package Organization
//
// [tensor] - Immutable tensor descriptors: shape, offset and raw values,
// with shape-derived abbreviations ("Vec", "Mat") used in labels.
//
// [autograd] - The nested backward tree, its forward dual produced by
// [autograd.Reverse], and [autograd.Flatten] into a flat graph.
//
// [dag] - The flat graph: nodes in natural id order, a tensor map, edges and
// their reversal, and crossing counts between adjacent ranks.
//
// [dag/transform] - Rank assignment (topological or single ordered pass) and
// cycle breaking.
//
// [layer] - Builds alternating tensor and node layers from a tree, or rank
// groups from a ranked graph, with natural member sizes from text metrics.
//
// [fit] - Computes the shared horizontal factor and per-row vertical factors
// that fit a layer stack into a canvas.
//
// [graph] - Serialization types. [graph.Layout] is the renderer hand-off
// document, content addressed by a UUID derived from its fingerprint.
//
// [io] - Reads and writes tree documents and the exported directory form.
//
// [pipeline] - Runs load, layout and render with caching and hooks.
//
// [render] and [render/nodelink] - Graphviz previews of a layout.
//
// [cache] - File, Redis and null caches keyed by content hash.
//
// [store] - Layout document stores for the HTTP server: memory and MongoDB.
//
// [server] - The chi based HTTP API.
//
// [config] - TOML and YAML configuration files.
//
// [observability] - Stage, cache and HTTP hooks; [observability/prom]
// implements them with Prometheus metrics.
//
// [errors] - Coded errors shared by every package.
//
// [tensor]: https://pkg.go.dev/github.com/matzehuels/gradlayer/pkg/tensor
// [autograd]: https://pkg.go.dev/github.com/matzehuels/gradlayer/pkg/autograd
// [autograd.Reverse]: https://pkg.go.dev/github.com/matzehuels/gradlayer/pkg/autograd#Reverse
// [autograd.Flatten]: https://pkg.go.dev/github.com/matzehuels/gradlayer/pkg/autograd#Flatten
// [dag]: https://pkg.go.dev/github.com/matzehuels/gradlayer/pkg/dag
// [dag/transform]: https://pkg.go.dev/github.com/matzehuels/gradlayer/pkg/dag/transform
// [layer]: https://pkg.go.dev/github.com/matzehuels/gradlayer/pkg/layer
// [fit]: https://pkg.go.dev/github.com/matzehuels/gradlayer/pkg/fit
// [graph]: https://pkg.go.dev/github.com/matzehuels/gradlayer/pkg/graph
// [graph.Layout]: https://pkg.go.dev/github.com/matzehuels/gradlayer/pkg/graph#Layout
// [io]: https://pkg.go.dev/github.com/matzehuels/gradlayer/pkg/io
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/gradlayer/pkg/pipeline
// [render]: https://pkg.go.dev/github.com/matzehuels/gradlayer/pkg/render
// [render/nodelink]: https://pkg.go.dev/github.com/matzehuels/gradlayer/pkg/render/nodelink
// [cache]: https://pkg.go.dev/github.com/matzehuels/gradlayer/pkg/cache
// [store]: https://pkg.go.dev/github.com/matzehuels/gradlayer/pkg/store
// [server]: https://pkg.go.dev/github.com/matzehuels/gradlayer/pkg/server
// [config]: https://pkg.go.dev/github.com/matzehuels/gradlayer/pkg/config
// [observability]: https://pkg.go.dev/github.com/matzehuels/gradlayer/pkg/observability
// [observability/prom]: https://pkg.go.dev/github.com/matzehuels/gradlayer/pkg/observability/prom
// [errors]: https://pkg.go.dev/github.com/matzehuels/gradlayer/pkg/errors
package pkg
