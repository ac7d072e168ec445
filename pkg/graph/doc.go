// Package graph provides serialization types for computation graphs and
// fitted layouts.
//
// This package defines the wire format gradlayer hands to renderers, stores
// in the layout store and returns from the HTTP API.
//
// # Core Types
//
//   - [Graph]: list-based form of a flat graph or forward dual
//   - [Layout]: fitted drawing description, tree or acyclic
//   - [Group], [Layer], [Member]: the columns, bands and units of a layout
//
// # Graph Serialization
//
//	{
//	  "tensors": [{"id": "t-0", "kind": "scalar", "shape": [], "data": [6]}],
//	  "nodes":   [{"id": "n-0", "name": "MulBackward0", "origin": "t-0", "gradient": "g-1"}],
//	  "edges":   [{"from": "n-0", "to": "n-1"}]
//	}
//
// Common operations:
//
//	data, _ := graph.MarshalGraph(g)            // dag.Graph → []byte
//	parsed, _ := graph.UnmarshalGraph(data)     // []byte → Graph
//	g, _ := graph.ReadGraphFile("graph.json")   // File → dag.Graph
//
// # Layout Serialization
//
// Layouts are discriminated by Variant:
//
//	layout, _ := graph.UnmarshalLayout(data)
//	if layout.IsTree() {
//	    // layout.Layers and layout.CrossEdges
//	} else {
//	    // layout.Groups, layout.Ranks, layout.Edges
//	}
//
// A layout's ID is a version 5 UUID derived from its content, so two runs
// over the same input with the same options produce the same ID.
package graph
