package autograd

import (
	"fmt"

	"github.com/matzehuels/gradlayer/pkg/dag"
	"github.com/matzehuels/gradlayer/pkg/errors"
	"github.com/matzehuels/gradlayer/pkg/tensor"
)

// Flatten converts a tree into a flat graph.
//
// Nodes are numbered "n-0", "n-1", ... in depth-first pre-order; a node
// shared by several parents is numbered once. Tensors are numbered by the
// size of the tensor registry at the time they are first seen: origins as
// "t-<k>", gradients as "g-<k>". A tensor pointer shared by several nodes is
// registered once. Edges point from a node to each of its children in
// traversal order.
func Flatten(t *Tree) (*dag.Graph, error) {
	if t.Root() == None {
		return nil, errors.Malformed("cannot flatten an empty tree")
	}
	if err := t.checkAcyclic(); err != nil {
		return nil, err
	}

	g := dag.Empty()
	registry := make(map[*tensor.Descriptor]string)
	nodeIDs := make(map[NodeID]string)

	register := func(d *tensor.Descriptor, prefix string) (string, error) {
		if id, ok := registry[d]; ok {
			return id, nil
		}
		id := fmt.Sprintf("%s-%d", prefix, len(registry))
		registry[d] = id
		return id, g.AddTensor(id, d)
	}

	var visit func(id NodeID) (string, error)
	visit = func(id NodeID) (string, error) {
		if key, ok := nodeIDs[id]; ok {
			return key, nil
		}
		n := &t.nodes[id]
		key := fmt.Sprintf("n-%d", len(nodeIDs))
		nodeIDs[id] = key

		origin, err := register(n.Origin, "t")
		if err != nil {
			return "", err
		}
		gradient, err := register(n.Gradient, "g")
		if err != nil {
			return "", err
		}
		if err := g.AddNode(dag.Node{ID: key, Name: n.Name, OriginID: origin, GradientID: gradient}); err != nil {
			return "", err
		}

		for _, c := range n.Children {
			ckey, err := visit(c)
			if err != nil {
				return "", err
			}
			if err := g.AddEdge(dag.Edge{From: key, To: ckey}); err != nil {
				return "", err
			}
		}
		return key, nil
	}

	if _, err := visit(t.Root()); err != nil {
		return nil, err
	}
	return g, nil
}
