package tensor

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/matzehuels/gradlayer/pkg/errors"
)

// Kind classifies a tensor by its rank.
type Kind string

const (
	KindScalar Kind = "scalar" // rank 0
	KindVector Kind = "vector" // rank 1
	KindMatrix Kind = "matrix" // rank 2 and above
)

// Abbrev returns the three-letter caption renderers print under a tensor
// unit ("Sca", "Vec", "Mat").
func (k Kind) Abbrev() string {
	switch k {
	case KindScalar:
		return "Sca"
	case KindVector:
		return "Vec"
	case KindMatrix:
		return "Mat"
	default:
		return string(k)
	}
}

// Descriptor is an immutable record of one tensor's shape, storage offset
// and flattened values. The zero value is an empty scalar.
type Descriptor struct {
	id     string
	shape  []int
	offset int
	data   []float64
}

// New reshapes data into shape and returns the resulting Descriptor.
//
// At most one dimension may be -1; it is inferred from len(data). All other
// dimensions must be non-negative. The scalar shape () accepts zero or one
// elements. Any other mismatch between len(data) and the product of shape
// returns an error with code SHAPE_MISMATCH.
func New(data []float64, shape []int, offset int) (*Descriptor, error) {
	resolved, err := resolveShape(len(data), shape)
	if err != nil {
		return nil, err
	}
	return &Descriptor{
		shape:  resolved,
		offset: offset,
		data:   slices.Clone(data),
	}, nil
}

// MustNew is like New but panics on error. It is intended for tests and
// fixtures with literal shapes.
func MustNew(data []float64, shape []int, offset int) *Descriptor {
	d, err := New(data, shape, offset)
	if err != nil {
		panic(err)
	}
	return d
}

func resolveShape(n int, shape []int) ([]int, error) {
	if len(shape) == 0 {
		if n > 1 {
			return nil, errors.ShapeMismatch("cannot reshape %d elements into shape ()", n)
		}
		return []int{}, nil
	}

	resolved := slices.Clone(shape)
	inferAt := -1
	known := 1
	for i, dim := range resolved {
		switch {
		case dim == -1:
			if inferAt >= 0 {
				return nil, errors.ShapeMismatch("shape %s has more than one inferred dimension", formatShape(shape))
			}
			inferAt = i
		case dim < 0:
			return nil, errors.ShapeMismatch("shape %s has negative dimension %d", formatShape(shape), dim)
		default:
			if dim != 0 && known > math.MaxInt/dim {
				return nil, errors.ShapeMismatch("shape %s overflows the element count", formatShape(shape))
			}
			known *= dim
		}
	}

	if inferAt >= 0 {
		if known == 0 || n%known != 0 {
			return nil, errors.ShapeMismatch("cannot reshape %d elements into shape %s", n, formatShape(shape))
		}
		resolved[inferAt] = n / known
		return resolved, nil
	}

	if known != n {
		return nil, errors.ShapeMismatch("cannot reshape %d elements into shape %s", n, formatShape(shape))
	}
	return resolved, nil
}

// WithID returns a copy of d that carries the given id. Ids are assigned to
// tensors held in a shared tensor map so nodes can reference them.
func (d *Descriptor) WithID(id string) *Descriptor {
	c := *d
	c.id = id
	return &c
}

// ID returns the tensor's map id, or "" for tensors owned by a single node.
func (d *Descriptor) ID() string { return d.id }

// Shape returns a copy of the tensor's dimensions.
func (d *Descriptor) Shape() []int { return slices.Clone(d.shape) }

// Offset returns the storage offset recorded by the autodiff engine.
func (d *Descriptor) Offset() int { return d.offset }

// Data returns a copy of the flattened values in row-major order.
func (d *Descriptor) Data() []float64 { return slices.Clone(d.data) }

// Rank returns the number of dimensions.
func (d *Descriptor) Rank() int { return len(d.shape) }

// Numel returns the number of stored elements.
func (d *Descriptor) Numel() int { return len(d.data) }

// Empty reports whether the descriptor holds no values.
func (d *Descriptor) Empty() bool { return len(d.data) == 0 }

// Kind returns the rank classification used by renderers.
func (d *Descriptor) Kind() Kind {
	switch len(d.shape) {
	case 0:
		return KindScalar
	case 1:
		return KindVector
	default:
		return KindMatrix
	}
}

// ShapeString formats the shape the way Python prints tuples: "()", "(4,)",
// "(2, 3)".
func (d *Descriptor) ShapeString() string { return formatShape(d.shape) }

// At returns the element at the given multi-dimensional index.
// A scalar is addressed with no indices.
func (d *Descriptor) At(index ...int) (float64, error) {
	if len(index) != len(d.shape) {
		return 0, errors.New(errors.ErrCodeInvalidInput, "index has %d dimensions, tensor has %d", len(index), len(d.shape))
	}
	if len(d.data) == 0 {
		return 0, errors.New(errors.ErrCodeInvalidInput, "tensor holds no values")
	}
	flat := 0
	for i, idx := range index {
		if idx < 0 || idx >= d.shape[i] {
			return 0, errors.New(errors.ErrCodeInvalidInput, "index %d out of range for dimension %d of size %d", idx, i, d.shape[i])
		}
		flat = flat*d.shape[i] + idx
	}
	return d.data[flat], nil
}

// String implements fmt.Stringer.
func (d *Descriptor) String() string {
	return fmt.Sprintf("Tensor(shape=%s, offset=%d, numel=%d)", d.ShapeString(), d.offset, len(d.data))
}

func formatShape(shape []int) string {
	switch len(shape) {
	case 0:
		return "()"
	case 1:
		return "(" + strconv.Itoa(shape[0]) + ",)"
	}
	parts := make([]string, len(shape))
	for i, s := range shape {
		parts[i] = strconv.Itoa(s)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
