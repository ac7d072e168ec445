// Package autograd models a recorded backward computation tree and its
// forward-direction dual.
//
// # Overview
//
// An autodiff engine records a backward graph: the loss node at the root,
// each node pointing at the nodes that produced its inputs, down to the
// "GradAccum" nodes that accumulate gradients into leaf tensors. Presenting
// the computation in data-flow order requires the opposite direction, with
// leaf tensors as sources and the loss as the sink.
//
// [FromRecord] builds a [Tree] from the nested record written by the
// exporter. [Reverse] turns the tree into a [Dual] whose roots are the
// leaf-creation nodes and whose single sink wraps the backward root.
//
// # Arena
//
// A Tree owns its nodes in a slice and addresses them by [NodeID]. Children
// are stored as id lists, so several parents may share a subtree without
// aliasing a mutable child array. [Tree.Clone] allocates a new slot that
// copies the name and tensor pointers and starts with no children.
//
// The forward dual uses the same arrangement with [ForwardID]. A forward
// node is created once per backward node, so a subtree shared by several
// parents is visited exactly once and its dual gains one child per parent.
//
// # Cycles
//
// A tree built by [FromRecord] cannot contain a cycle, but one assembled by
// hand with [Tree.AppendChild] can. [Reverse] checks for cycles before
// traversing and returns CYCLE_DETECTED instead of looping forever.
//
// # Names
//
// [FormatName] derives a forward name from a backward one:
//
//	FormatName("GradAccum")     // "LeafCreation"
//	FormatName("ReluBackward")  // "ReluForward"
//	FormatName("AddBackward0")  // "AddForward"
//
// # Flattening
//
// [Flatten] converts a tree into the flat representation of the dag
// package, numbering nodes and tensors the way the exporter does for its
// directory format.
package autograd
