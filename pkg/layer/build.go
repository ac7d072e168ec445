package layer

import (
	"fmt"

	"github.com/matzehuels/gradlayer/pkg/autograd"
	"github.com/matzehuels/gradlayer/pkg/errors"
)

// Builder lays out trees and forward duals as alternating tensor and node
// layers.
type Builder struct {
	Nodes      Converter[NodeUnit]
	Tensors    Converter[TensorUnit]
	TensorKind TensorKind
}

// NewBuilder returns a builder with the default converters, showing origin
// tensors.
func NewBuilder(m Metrics) Builder {
	return Builder{
		Nodes:      NodeConverter(m),
		Tensors:    TensorConverter(m),
		TensorKind: Origin,
	}
}

// BuildBackward lays out a backward tree with the default converters.
func BuildBackward(t *autograd.Tree, m Metrics) (*Stack, error) {
	return NewBuilder(m).Backward(t)
}

// BuildForward lays out a forward dual with the default converters.
func BuildForward(d *autograd.Dual, m Metrics) (*Stack, error) {
	return NewBuilder(m).Forward(d)
}

// Backward lays out a backward tree starting from its root.
func (b Builder) Backward(t *autograd.Tree) (*Stack, error) {
	if t.Root() == autograd.None {
		return nil, errors.Malformed("cannot lay out an empty tree")
	}
	g := graphView{
		item: func(id int) (NodeItem, error) {
			n, err := t.Node(autograd.NodeID(id))
			if err != nil {
				return NodeItem{}, err
			}
			return NodeItem{ID: n.Key(), Name: n.Name, Origin: n.Origin, Gradient: n.Gradient}, nil
		},
		children: func(id int) []int {
			cs := t.Children(autograd.NodeID(id))
			out := make([]int, len(cs))
			for i, c := range cs {
				out[i] = int(c)
			}
			return out
		},
	}
	return b.build([]int{int(t.Root())}, g, Backward)
}

// Forward lays out a forward dual starting from its leaf creations.
func (b Builder) Forward(d *autograd.Dual) (*Stack, error) {
	g := graphView{
		item: func(id int) (NodeItem, error) {
			f, err := d.Node(autograd.ForwardID(id))
			if err != nil {
				return NodeItem{}, err
			}
			n, err := d.Backward(f.ID)
			if err != nil {
				return NodeItem{}, err
			}
			return NodeItem{ID: f.Key(), Name: n.Name, Origin: n.Origin, Gradient: n.Gradient}, nil
		},
		children: func(id int) []int {
			f, err := d.Node(autograd.ForwardID(id))
			if err != nil {
				return nil
			}
			out := make([]int, len(f.Children))
			for i, c := range f.Children {
				out[i] = int(c)
			}
			return out
		},
	}
	roots := d.Roots()
	start := make([]int, len(roots))
	for i, r := range roots {
		start[i] = int(r)
	}
	return b.build(start, g, Forward)
}

type graphView struct {
	item     func(id int) (NodeItem, error)
	children func(id int) []int
}

// build walks breadth-first from start. Depth d adds tensor layer T_d at
// stack position 2d and node layer N_d at 2d+1. Every node gets an edge
// T_d[i] -> N_d[j] recorded on N_d, and one edge T_d[i] -> N_{d+1}[c]
// recorded on T_d per child occurrence. A node reached several times at the
// same depth is processed once.
func (b Builder) build(start []int, g graphView, dir Direction) (*Stack, error) {
	stack := &Stack{}
	nodes := New(Config{Label: "N0", Kind: KindNode, Direction: dir}, b.Nodes)
	level := start

	for depth := 0; len(level) > 0; depth++ {
		tensors := New(Config{
			Label:      fmt.Sprintf("T%d", depth),
			Kind:       KindTensor,
			Direction:  dir,
			TensorKind: b.TensorKind,
		}, b.Tensors)
		ti := stack.Add(tensors)
		ni := stack.Add(nodes)

		next := New(Config{Label: fmt.Sprintf("N%d", depth+1), Kind: KindNode, Direction: dir}, b.Nodes)
		var nextLevel []int
		seen := make(map[int]bool, len(level))

		for _, id := range level {
			if seen[id] {
				continue
			}
			seen[id] = true

			item, err := g.item(id)
			if err != nil {
				return nil, err
			}
			nIdx, _, err := nodes.SafeAppend(item)
			if err != nil {
				return nil, err
			}
			tIdx, _, err := tensors.SafeAppend(item)
			if err != nil {
				return nil, err
			}
			nodes.AppendEdge(CrossEdge{SourceLayer: ti, SourceIndex: tIdx, DestLayer: ni, DestIndex: nIdx})

			for _, c := range g.children(id) {
				child, err := g.item(c)
				if err != nil {
					return nil, err
				}
				cIdx, _, err := next.SafeAppend(child)
				if err != nil {
					return nil, err
				}
				// N_{d+1} lands two positions after N_d, behind T_{d+1}.
				tensors.AppendEdge(CrossEdge{SourceLayer: ti, SourceIndex: tIdx, DestLayer: ni + 2, DestIndex: cIdx})
				nextLevel = append(nextLevel, c)
			}
		}

		nodes = next
		level = nextLevel
	}
	return stack, nil
}
