package autograd

import (
	"fmt"
	"slices"

	"github.com/matzehuels/gradlayer/pkg/dag"
	"github.com/matzehuels/gradlayer/pkg/errors"
)

// ForwardID addresses a node in a [Dual].
type ForwardID int

// Key returns the stable string id of a forward node ("f-3"). Keys are what
// rank assignment and layer grouping operate on.
func (id ForwardID) Key() string { return fmt.Sprintf("f-%d", int(id)) }

// ForwardNode is the forward dual of one backward node. Its children are the
// forward nodes that consume its output.
type ForwardNode struct {
	ID       ForwardID
	Name     string
	Backward NodeID
	Children []ForwardID
}

// Key returns the stable string id of the node.
func (n *ForwardNode) Key() string { return n.ID.Key() }

// Dual is the forward-direction graph derived from a [Tree] by [Reverse].
type Dual struct {
	tree       *Tree
	nodes      []ForwardNode
	byBackward map[NodeID]ForwardID
	roots      []ForwardID
	sink       ForwardID
	edges      []dag.Edge
}

type pair struct {
	backward NodeID
	forward  ForwardID
}

const noForward ForwardID = -1

// Reverse converts a backward tree into its forward dual.
//
// The traversal is breadth-first from the root. Each popped backward node
// gets a forward node (created on first sight, reused afterwards); for every
// backward child, the child's forward node gains the current forward node as
// a child and the child is queued. Childless backward nodes are the forward
// roots, reported in the order they are reached.
//
// Every reachable backward node is visited exactly once. A cycle in the tree
// returns CYCLE_DETECTED before any traversal happens.
func Reverse(t *Tree) (*Dual, error) {
	if t.Root() == None {
		return nil, errors.Malformed("cannot reverse an empty tree")
	}
	if err := t.checkAcyclic(); err != nil {
		return nil, err
	}

	d := &Dual{
		tree:       t,
		byBackward: make(map[NodeID]ForwardID),
	}

	queue := []pair{{backward: t.Root(), forward: noForward}}
	for len(queue) > 0 {
		curr := queue[0]
		queue = queue[1:]

		forward := curr.forward
		if forward == noForward {
			forward, _ = d.forwardFor(curr.backward)
		}

		children := t.nodes[curr.backward].Children
		if len(children) == 0 {
			d.roots = append(d.roots, forward)
			continue
		}
		for _, child := range children {
			cf, created := d.forwardFor(child)
			d.nodes[cf].Children = append(d.nodes[cf].Children, forward)
			d.edges = append(d.edges, dag.Edge{From: cf.Key(), To: forward.Key()})
			if created {
				queue = append(queue, pair{backward: child, forward: cf})
			}
		}
	}

	d.sink = d.byBackward[t.Root()]
	return d, nil
}

// forwardFor returns the forward node of a backward node, creating it on
// first use.
func (d *Dual) forwardFor(b NodeID) (ForwardID, bool) {
	if f, ok := d.byBackward[b]; ok {
		return f, false
	}
	f := ForwardID(len(d.nodes))
	d.nodes = append(d.nodes, ForwardNode{
		ID:       f,
		Name:     FormatName(d.tree.nodes[b].Name),
		Backward: b,
	})
	d.byBackward[b] = f
	return f, true
}

// Tree returns the backward tree the dual was derived from.
func (d *Dual) Tree() *Tree { return d.tree }

// Roots returns the forward roots (leaf creations) in discovery order.
func (d *Dual) Roots() []ForwardID { return slices.Clone(d.roots) }

// Sink returns the forward dual of the backward root.
func (d *Dual) Sink() ForwardID { return d.sink }

// Len returns the number of forward nodes.
func (d *Dual) Len() int { return len(d.nodes) }

// Node returns the forward node with the given id, or NOT_FOUND.
func (d *Dual) Node(id ForwardID) (*ForwardNode, error) {
	if id < 0 || int(id) >= len(d.nodes) {
		return nil, errors.NotFound("forward node %d", id)
	}
	return &d.nodes[id], nil
}

// Lookup returns the forward node with the given key ("f-3"), or NOT_FOUND.
func (d *Dual) Lookup(key string) (*ForwardNode, error) {
	var id int
	if _, err := fmt.Sscanf(key, "f-%d", &id); err != nil || ForwardID(id).Key() != key {
		return nil, errors.NotFound("forward node %q", key)
	}
	return d.Node(ForwardID(id))
}

// ForwardOf returns the forward node wrapping a backward node, or NOT_FOUND.
func (d *Dual) ForwardOf(b NodeID) (*ForwardNode, error) {
	f, ok := d.byBackward[b]
	if !ok {
		return nil, errors.NotFound("no forward node for backward node %d", b)
	}
	return &d.nodes[f], nil
}

// Backward returns the backward node a forward node wraps.
func (d *Dual) Backward(id ForwardID) (*BackwardNode, error) {
	n, err := d.Node(id)
	if err != nil {
		return nil, err
	}
	return d.tree.Node(n.Backward)
}

// NodeIDs returns forward node keys in id order.
func (d *Dual) NodeIDs() []string {
	ids := make([]string, len(d.nodes))
	for i := range d.nodes {
		ids[i] = ForwardID(i).Key()
	}
	return ids
}

// Edges returns the forward edges (producer -> consumer) in discovery order.
//
// Discovery order runs from the sink outward, which is not a topological
// order once the tree is deeper than one level. Rank them with
// transform.AssignRanks rather than the ordered pass.
func (d *Dual) Edges() []dag.Edge { return slices.Clone(d.edges) }

// Chain follows first children from id until it reaches a node without
// children, returning every node visited including both ends.
func (d *Dual) Chain(id ForwardID) ([]ForwardID, error) {
	if _, err := d.Node(id); err != nil {
		return nil, err
	}
	chain := []ForwardID{id}
	for len(d.nodes[id].Children) > 0 {
		id = d.nodes[id].Children[0]
		chain = append(chain, id)
	}
	return chain, nil
}
