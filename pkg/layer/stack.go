package layer

import (
	"github.com/matzehuels/gradlayer/pkg/errors"
	"github.com/matzehuels/gradlayer/pkg/fit"
)

// Slot is the type-erased view of a layer that a [Stack] holds.
type Slot interface {
	Config() Config
	Len() int
	Keys() []string
	Units() []Unit
	Sizes() []fit.Size
	Edges() []CrossEdge
}

// Stack is an ordered list of layers of possibly different unit types.
type Stack struct {
	slots []Slot
}

// Add appends a layer and returns its position.
func (s *Stack) Add(slot Slot) int {
	s.slots = append(s.slots, slot)
	return len(s.slots) - 1
}

// Layers returns the layers in order.
func (s *Stack) Layers() []Slot {
	out := make([]Slot, len(s.slots))
	copy(out, s.slots)
	return out
}

// Len returns the number of layers.
func (s *Stack) Len() int { return len(s.slots) }

// Edges returns the cross edges of every layer, in layer order.
func (s *Stack) Edges() []CrossEdge {
	var out []CrossEdge
	for _, slot := range s.slots {
		out = append(out, slot.Edges()...)
	}
	return out
}

// Sizes returns the natural member sizes of every layer.
func (s *Stack) Sizes() [][]fit.Size {
	out := make([][]fit.Size, len(s.slots))
	for i, slot := range s.slots {
		out[i] = slot.Sizes()
	}
	return out
}

// Validate checks that every cross edge points at existing members.
func (s *Stack) Validate() error {
	for li, slot := range s.slots {
		for _, e := range slot.Edges() {
			if err := s.checkEnd(e.SourceLayer, e.SourceIndex); err != nil {
				return errors.Wrap(errors.ErrCodeInternal, err, "edge on layer %d", li)
			}
			if err := s.checkEnd(e.DestLayer, e.DestIndex); err != nil {
				return errors.Wrap(errors.ErrCodeInternal, err, "edge on layer %d", li)
			}
		}
	}
	return nil
}

func (s *Stack) checkEnd(layer, index int) error {
	if layer < 0 || layer >= len(s.slots) {
		return errors.NotFound("layer %d", layer)
	}
	if index < 0 || index >= s.slots[layer].Len() {
		return errors.NotFound("member %d of layer %d", index, layer)
	}
	return nil
}
