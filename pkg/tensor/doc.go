// Package tensor describes the tensors recorded alongside an autodiff graph.
//
// # Overview
//
// Each node of a recorded backward graph carries two tensors: the origin
// value produced by the operation and the gradient flowing back through it.
// The layout core never computes with these values. It only needs their
// shape (to classify and size the unit a renderer draws) and their raw
// buffer (to hand through to the renderer unchanged).
//
// A [Descriptor] is built with [New], which reshapes the flat buffer eagerly:
//
//	d, err := tensor.New([]float64{1, 2, 3, 4, 5, 6}, []int{2, -1}, 0)
//	// d.Shape() == [2 3], d.Kind() == tensor.KindMatrix
//
// # Shapes
//
// The element count must equal the product of the shape. One dimension may
// be -1, in which case it is inferred from the buffer length. The empty
// shape () describes a scalar and accepts either one element or none at all;
// an empty scalar is how exporters record "no value captured" for a node.
//
// Anything else fails with a SHAPE_MISMATCH error from [errors]. A failed
// reshape never produces a partially built Descriptor.
//
// # Immutability
//
// Descriptors are read-only after construction. Accessors return copies, so
// callers may modify the returned slices freely. The same *Descriptor pointer
// may be shared by several graph nodes (for example when a tensor map is
// referenced by id from a flat graph).
//
// [errors]: github.com/matzehuels/gradlayer/pkg/errors
package tensor
