// Package dag provides the flat, general-purpose graph model used for
// autodiff graphs that are not a single tree.
//
// # Overview
//
// An exported autodiff graph can arrive in two shapes. The nested tree form
// is handled by the autograd package. The flat form is three independent
// collections: tensors keyed by id, nodes keyed by id (each referring to an
// origin and a gradient tensor by id), and an explicit list of edges between
// node ids. [Graph] holds the flat form.
//
// Build a graph in one step with [New], which validates every reference:
//
//	g, err := dag.New(tensors, nodes, edges)
//
// or incrementally with [Graph.AddTensor], [Graph.AddNode] and
// [Graph.AddEdge]. Tensors must be added before the nodes that refer to them,
// and nodes before the edges that connect them.
//
// # Reversed Edges
//
// Every graph maintains a reversed edge list next to its edge list. The
// reversed list is always the element-wise swap of [Graph.Edges]; it is
// recomputed on every mutation ([Graph.AddEdge], [Graph.SetEdges],
// [Graph.RemoveEdge], [Graph.SortEdges]) and is never stale.
//
// # Lookups
//
// [Graph.QueryNode] and [Graph.QueryTensor] return a NOT_FOUND error for
// unknown ids. They never return a zero value in place of a missing entry.
//
// # Ordering
//
// Node ids are kept in insertion order. [New] inserts ids in natural order
// ("n-2" before "n-10") so that graphs loaded from a directory listing rank
// and render the same way on every run. Edge order is insertion order and
// matters: the ordered rank pass in the transform package consumes edges in
// exactly this sequence.
//
// # Crossings
//
// [CountCrossings] and [CountLayerCrossings] count edge crossings between
// consecutive rank rows, using a Fenwick tree. Layouts report this number
// so renderers can tell how tangled a ranked graph is.
//
// # Concurrency
//
// Graph instances are not safe for concurrent use. Callers must synchronize
// access if multiple goroutines read or modify the same graph.
//
// # Related Packages
//
// The [transform] subpackage assigns ranks and breaks cycles.
//
// [transform]: github.com/matzehuels/gradlayer/pkg/dag/transform
package dag
