package layer

import (
	"slices"

	"github.com/matzehuels/gradlayer/pkg/errors"
	"github.com/matzehuels/gradlayer/pkg/fit"
)

// Kind tells node layers from tensor layers.
type Kind string

const (
	KindNode   Kind = "node"
	KindTensor Kind = "tensor"
)

// Direction selects whether units describe backward operations or their
// forward duals.
type Direction string

const (
	Forward  Direction = "forward"
	Backward Direction = "backward"
)

// TensorKind selects which tensor of a node a tensor layer shows.
type TensorKind string

const (
	Origin   TensorKind = "origin"
	Gradient TensorKind = "gradient"
)

// Config is the explicit set of options a layer hands to its converter.
type Config struct {
	Label      string     `json:"label"`
	Kind       Kind       `json:"kind"`
	Direction  Direction  `json:"direction"`
	TensorKind TensorKind `json:"tensor_kind,omitempty"`
}

// Item is anything that can be placed in a layer. Key must be stable for
// the lifetime of the layer; it is the deduplication identity.
type Item interface {
	Key() string
}

// Unit is a renderable member of a layer.
type Unit interface {
	Key() string
	Size() fit.Size
}

// Converter maps an item to a renderable unit under a layer's config.
type Converter[T Unit] func(item Item, cfg Config) (T, error)

// CrossEdge points from member SourceIndex of layer SourceLayer to member
// DestIndex of layer DestLayer. Layer numbers are positions in a [Stack].
type CrossEdge struct {
	SourceLayer int `json:"source_layer"`
	SourceIndex int `json:"source_index"`
	DestLayer   int `json:"dest_layer"`
	DestIndex   int `json:"dest_index"`
}

// Layer is an ordered, key-deduplicated list of units plus the cross edges
// recorded on it.
type Layer[T Unit] struct {
	cfg     Config
	convert Converter[T]
	members []T
	keys    []string
	index   map[string]int
	edges   []CrossEdge
}

// New creates an empty layer.
func New[T Unit](cfg Config, convert Converter[T]) *Layer[T] {
	return &Layer[T]{
		cfg:     cfg,
		convert: convert,
		index:   make(map[string]int),
	}
}

// SafeAppend adds item unless a member with the same key exists, and
// returns the member's index and unit either way. The converter runs only
// for new keys; a converter error leaves the layer unchanged and keeps its
// code, or becomes INVALID_INPUT when it has none.
func (l *Layer[T]) SafeAppend(item Item) (int, T, error) {
	key := item.Key()
	if i, ok := l.index[key]; ok {
		return i, l.members[i], nil
	}

	unit, err := l.convert(item, l.cfg)
	if err != nil {
		var zero T
		code := errors.GetCode(err)
		if code == "" {
			code = errors.ErrCodeInvalidInput
		}
		return -1, zero, errors.Wrap(code, err, "convert %q for layer %q", key, l.cfg.Label)
	}
	l.members = append(l.members, unit)
	l.keys = append(l.keys, key)
	l.index[key] = len(l.members) - 1
	return len(l.members) - 1, unit, nil
}

// AppendEdge records a cross edge. Duplicates are kept.
func (l *Layer[T]) AppendEdge(e CrossEdge) {
	l.edges = append(l.edges, e)
}

// Index returns the member index of key.
func (l *Layer[T]) Index(key string) (int, bool) {
	i, ok := l.index[key]
	return i, ok
}

// Member returns the unit at index i, or NOT_FOUND.
func (l *Layer[T]) Member(i int) (T, error) {
	if i < 0 || i >= len(l.members) {
		var zero T
		return zero, errors.NotFound("member %d of layer %q", i, l.cfg.Label)
	}
	return l.members[i], nil
}

// Lookup returns the unit with the given key, or NOT_FOUND.
func (l *Layer[T]) Lookup(key string) (T, error) {
	i, ok := l.index[key]
	if !ok {
		var zero T
		return zero, errors.NotFound("%q in layer %q", key, l.cfg.Label)
	}
	return l.members[i], nil
}

// Members returns the units in insertion order.
func (l *Layer[T]) Members() []T { return slices.Clone(l.members) }

// Keys returns member keys in insertion order.
func (l *Layer[T]) Keys() []string { return slices.Clone(l.keys) }

// Len returns the number of members.
func (l *Layer[T]) Len() int { return len(l.members) }

// Edges returns the cross edges recorded on this layer.
func (l *Layer[T]) Edges() []CrossEdge { return slices.Clone(l.edges) }

// Config returns the layer's config.
func (l *Layer[T]) Config() Config { return l.cfg }

// Units returns the members as [Unit] values.
func (l *Layer[T]) Units() []Unit {
	out := make([]Unit, len(l.members))
	for i, m := range l.members {
		out[i] = m
	}
	return out
}

// Sizes returns each member's natural size.
func (l *Layer[T]) Sizes() []fit.Size {
	out := make([]fit.Size, len(l.members))
	for i, m := range l.members {
		out[i] = m.Size()
	}
	return out
}
