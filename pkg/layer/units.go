package layer

import (
	"math"
	"regexp"
	"strings"

	"github.com/matzehuels/gradlayer/pkg/autograd"
	"github.com/matzehuels/gradlayer/pkg/errors"
	"github.com/matzehuels/gradlayer/pkg/fit"
	"github.com/matzehuels/gradlayer/pkg/tensor"
)

// NodeItem is the raw form of a computation node handed to converters.
// Name is always the recorded (backward) operation name; forward labels are
// derived from it by the converter.
type NodeItem struct {
	ID       string
	Name     string
	Origin   *tensor.Descriptor
	Gradient *tensor.Descriptor
}

// Key implements [Item].
func (n NodeItem) Key() string { return n.ID }

// Tensor returns the origin or gradient tensor.
func (n NodeItem) Tensor(kind TensorKind) *tensor.Descriptor {
	if kind == Gradient {
		return n.Gradient
	}
	return n.Origin
}

// Metrics sizes text-bearing units with a monospace approximation.
type Metrics struct {
	CharWidth  float64 `json:"char_width" toml:"char_width" yaml:"char_width" validate:"gt=0"`
	LineHeight float64 `json:"line_height" toml:"line_height" yaml:"line_height" validate:"gt=0"`
	Padding    float64 `json:"padding" toml:"padding" yaml:"padding" validate:"gte=0"`
}

// DefaultMetrics returns metrics matching an 0.8-scaled sans font on a
// canvas about 14 units wide.
func DefaultMetrics() Metrics {
	return Metrics{CharWidth: 0.3, LineHeight: 0.5, Padding: 0.3}
}

func (m Metrics) text(lines []string) (w, h float64) {
	longest := 0
	for _, l := range lines {
		longest = max(longest, len(l))
	}
	return float64(longest) * m.CharWidth, float64(len(lines)) * m.LineHeight
}

// NodeUnit is a computation node drawn as a circle around its label.
type NodeUnit struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Label  string   `json:"label"`
	Lines  []string `json:"lines"`
	Width  float64  `json:"width"`
	Height float64  `json:"height"`
}

// Key implements [Unit].
func (u NodeUnit) Key() string { return u.ID }

// Size implements [Unit].
func (u NodeUnit) Size() fit.Size { return fit.Size{Width: u.Width, Height: u.Height} }

// TensorUnit is a tensor drawn as a one-cell matrix holding its kind and
// shape.
type TensorUnit struct {
	ID         string      `json:"id"`
	Owner      string      `json:"owner"`
	TensorKind TensorKind  `json:"tensor_kind"`
	Kind       tensor.Kind `json:"kind"`
	Shape      []int       `json:"shape"`
	Caption    []string    `json:"caption"`
	Width      float64     `json:"width"`
	Height     float64     `json:"height"`
}

// Key implements [Unit].
func (u TensorUnit) Key() string { return u.ID }

// Size implements [Unit].
func (u TensorUnit) Size() fit.Size { return fit.Size{Width: u.Width, Height: u.Height} }

var wordPattern = regexp.MustCompile(`[A-Z][a-z]*`)

// NodeLines returns the label lines of a node in the given direction.
//
// Forward nodes show their derived forward name on one line. Backward
// "GradAccum" nodes show "Accum"; other backward nodes show the first two
// capitalized words of their name ("MulBackward0" gives "Mul", "Backward").
func NodeLines(name string, dir Direction) []string {
	if dir == Forward {
		return []string{autograd.FormatName(name)}
	}
	if name == "GradAccum" {
		return []string{"Accum"}
	}
	words := wordPattern.FindAllString(name, 2)
	if len(words) == 0 {
		return []string{name}
	}
	return words
}

// NodeConverter returns the default converter for node layers.
func NodeConverter(m Metrics) Converter[NodeUnit] {
	return func(item Item, cfg Config) (NodeUnit, error) {
		n, ok := item.(NodeItem)
		if !ok {
			return NodeUnit{}, errors.New(errors.ErrCodeInvalidInput, "node layer cannot hold %T", item)
		}
		lines := NodeLines(n.Name, cfg.Direction)
		w, h := m.text(lines)
		d := math.Max(w, h) + 2*m.Padding
		return NodeUnit{
			ID:     n.ID,
			Name:   n.Name,
			Label:  strings.Join(lines, " "),
			Lines:  lines,
			Width:  d,
			Height: d,
		}, nil
	}
}

// TensorConverter returns the default converter for tensor layers. The
// tensor shown is chosen by the layer's TensorKind (origin by default).
func TensorConverter(m Metrics) Converter[TensorUnit] {
	return func(item Item, cfg Config) (TensorUnit, error) {
		n, ok := item.(NodeItem)
		if !ok {
			return TensorUnit{}, errors.New(errors.ErrCodeInvalidInput, "tensor layer cannot hold %T", item)
		}
		kind := cfg.TensorKind
		if kind == "" {
			kind = Origin
		}
		t := n.Tensor(kind)
		if t == nil {
			return TensorUnit{}, errors.Malformed("node %q has no %s tensor", n.ID, kind)
		}
		caption := []string{t.Kind().Abbrev(), t.ShapeString()}
		w, h := m.text(caption)
		return TensorUnit{
			ID:         n.ID + ":" + string(kind),
			Owner:      n.ID,
			TensorKind: kind,
			Kind:       t.Kind(),
			Shape:      t.Shape(),
			Caption:    caption,
			Width:      w + 2*m.Padding,
			Height:     h + 2*m.Padding,
		}, nil
	}
}
