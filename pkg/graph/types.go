package graph

import (
	"fmt"

	"github.com/matzehuels/gradlayer/pkg/autograd"
	"github.com/matzehuels/gradlayer/pkg/dag"
	"github.com/matzehuels/gradlayer/pkg/errors"
	"github.com/matzehuels/gradlayer/pkg/tensor"
)

// =============================================================================
// Constants - Single Source of Truth
// =============================================================================

// Layout variants.
const (
	VariantTree    = "tree"
	VariantAcyclic = "acyclic"
)

// Drawing directions.
const (
	DirectionForward  = "forward"
	DirectionBackward = "backward"
)

// Member kinds.
const (
	KindNode   = "node"
	KindTensor = "tensor"
)

// =============================================================================
// Graph - Computation Graph Serialization
// =============================================================================

// Graph is the list-based serialization of a flat computation graph. It is
// used for API responses, caching and the reverse command's output.
//
// Unlike the exporter's directory layout, tensors and nodes are arrays in
// graph order, so documents compare byte for byte.
type Graph struct {
	Tensors []Tensor `json:"tensors,omitempty" bson:"tensors,omitempty"`
	Nodes   []Node   `json:"nodes" bson:"nodes"`
	Edges   []Edge   `json:"edges" bson:"edges"`
}

// Tensor is a serialized tensor.
type Tensor struct {
	ID     string    `json:"id" bson:"id"`
	Kind   string    `json:"kind" bson:"kind"`
	Shape  []int     `json:"shape" bson:"shape"`
	Offset int       `json:"offset,omitempty" bson:"offset,omitempty"`
	Data   []float64 `json:"data" bson:"data"`
}

// Node is a serialized computation node.
type Node struct {
	ID       string         `json:"id" bson:"id"`
	Name     string         `json:"name" bson:"name"`
	Label    string         `json:"label,omitempty" bson:"label,omitempty"`       // Forward name for dual nodes
	Origin   string         `json:"origin,omitempty" bson:"origin,omitempty"`     // Tensor id
	Gradient string         `json:"gradient,omitempty" bson:"gradient,omitempty"` // Tensor id
	Backward string         `json:"backward,omitempty" bson:"backward,omitempty"` // Backward node key for dual nodes
	Meta     map[string]any `json:"meta,omitempty" bson:"meta,omitempty"`
}

// DisplayLabel returns the label if set, otherwise the name.
func (n *Node) DisplayLabel() string {
	if n.Label != "" {
		return n.Label
	}
	return n.Name
}

// Edge is a directed edge between node ids.
type Edge struct {
	From string `json:"from" bson:"from"`
	To   string `json:"to" bson:"to"`
}

// =============================================================================
// Conversion
// =============================================================================

// FromDAG converts a flat graph to its serialization format. Tensors and
// nodes keep graph order.
func FromDAG(g *dag.Graph) Graph {
	out := Graph{
		Tensors: make([]Tensor, 0, g.TensorCount()),
		Nodes:   make([]Node, 0, g.NodeCount()),
		Edges:   make([]Edge, 0, g.EdgeCount()),
	}
	for _, id := range g.TensorIDs() {
		t, _ := g.QueryTensor(id)
		out.Tensors = append(out.Tensors, tensorFrom(id, t))
	}
	for _, n := range g.Nodes() {
		out.Nodes = append(out.Nodes, Node{
			ID:       n.ID,
			Name:     n.Name,
			Origin:   n.OriginID,
			Gradient: n.GradientID,
			Meta:     copyMeta(n.Meta),
		})
	}
	for _, e := range g.Edges() {
		out.Edges = append(out.Edges, Edge{From: e.From, To: e.To})
	}
	return out
}

// FromDual converts a forward dual to its serialization format. Nodes carry
// their forward label, the key of the backward node they wrap and the ids of
// that node's tensors, so the document reads back through [ToDAG].
//
// Tensors are numbered the way [autograd.Flatten] numbers them: by registry
// size when first seen, origins as "t-<k>" and gradients as "g-<k>". A
// descriptor shared by several nodes is written once.
func FromDual(d *autograd.Dual) Graph {
	out := Graph{
		Nodes: make([]Node, 0, d.Len()),
	}
	registry := make(map[*tensor.Descriptor]string)
	register := func(t *tensor.Descriptor, prefix string) string {
		if t == nil {
			return ""
		}
		if id, ok := registry[t]; ok {
			return id
		}
		id := fmt.Sprintf("%s-%d", prefix, len(registry))
		registry[t] = id
		out.Tensors = append(out.Tensors, tensorFrom(id, t))
		return id
	}

	for _, key := range d.NodeIDs() {
		f, err := d.Lookup(key)
		if err != nil {
			continue
		}
		n, err := d.Backward(f.ID)
		if err != nil {
			continue
		}
		out.Nodes = append(out.Nodes, Node{
			ID:       key,
			Name:     n.Name,
			Label:    f.Name,
			Origin:   register(n.Origin, "t"),
			Gradient: register(n.Gradient, "g"),
			Backward: n.Key(),
		})
	}
	for _, e := range d.Edges() {
		out.Edges = append(out.Edges, Edge{From: e.From, To: e.To})
	}
	return out
}

// ToDAG converts a Graph back into a flat graph. Every node must refer to
// tensors present in the document; see [dag.Graph.AddNode] for error codes.
func ToDAG(gj Graph) (*dag.Graph, error) {
	g := dag.Empty()
	for _, tj := range gj.Tensors {
		t, err := tensor.New(tj.Data, tj.Shape, tj.Offset)
		if err != nil {
			return nil, errors.Wrap(errors.GetCode(err), err, "tensor %q", tj.ID)
		}
		if err := g.AddTensor(tj.ID, t); err != nil {
			return nil, err
		}
	}
	for _, nj := range gj.Nodes {
		n := dag.Node{
			ID:         nj.ID,
			Name:       nj.Name,
			OriginID:   nj.Origin,
			GradientID: nj.Gradient,
			Meta:       copyMeta(nj.Meta),
		}
		if err := g.AddNode(n); err != nil {
			return nil, err
		}
	}
	for _, ej := range gj.Edges {
		if err := g.AddEdge(dag.Edge{From: ej.From, To: ej.To}); err != nil {
			return nil, errors.Wrap(errors.GetCode(err), err, "edge %s->%s", ej.From, ej.To)
		}
	}
	return g, nil
}

func tensorFrom(id string, t *tensor.Descriptor) Tensor {
	data := t.Data()
	if data == nil {
		data = []float64{}
	}
	return Tensor{
		ID:     id,
		Kind:   string(t.Kind()),
		Shape:  t.Shape(),
		Offset: t.Offset(),
		Data:   data,
	}
}

// copyMeta creates a shallow copy of metadata. Empty maps become nil so
// they are omitted from output.
func copyMeta(m map[string]any) map[string]any {
	if len(m) == 0 {
		return nil
	}
	result := make(map[string]any, len(m))
	for k, v := range m {
		result[k] = v
	}
	return result
}
