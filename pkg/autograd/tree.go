package autograd

import (
	"fmt"
	"slices"

	"github.com/matzehuels/gradlayer/pkg/errors"
	"github.com/matzehuels/gradlayer/pkg/tensor"
)

// NodeID addresses a node in a [Tree] arena.
type NodeID int

// None marks the absence of a node.
const None NodeID = -1

// Key returns the stable string id of a backward node ("b-3").
func (id NodeID) Key() string { return fmt.Sprintf("b-%d", int(id)) }

// BackwardNode is one recorded backward operation.
type BackwardNode struct {
	ID       NodeID
	Name     string
	Origin   *tensor.Descriptor
	Gradient *tensor.Descriptor
	Children []NodeID
}

// Key returns the stable string id of the node.
func (n *BackwardNode) Key() string { return n.ID.Key() }

// Record is the nested serialized form of a backward node.
type Record struct {
	Name     string         `json:"name"`
	Origin   *tensor.Record `json:"origin"`
	Gradient *tensor.Record `json:"gradient"`
	Children []Record       `json:"children"`
}

// GraphRecord is the file envelope written by the exporter: {"root": ...}.
type GraphRecord struct {
	Root *Record `json:"root"`
}

// Tree is an arena of backward nodes with a designated root.
//
// The zero value is not usable - use [NewTree] or [FromRecord].
type Tree struct {
	nodes []BackwardNode
	root  NodeID
}

// NewTree creates an empty arena. The first node added becomes the root
// unless [Tree.SetRoot] is called.
func NewTree() *Tree {
	return &Tree{root: None}
}

// FromRecord recursively builds a tree from its nested record. Node ids are
// assigned in pre-order, so the root is always 0.
//
// A record without a name, origin or gradient returns MALFORMED_RECORD. The
// message carries the record's path ("root.children[1].children[0]"). Tensor
// errors are wrapped with the same path and keep their SHAPE_MISMATCH code.
// No partial tree is returned.
func FromRecord(rec Record) (*Tree, error) {
	t := NewTree()
	if _, err := t.build(rec, "root"); err != nil {
		return nil, err
	}
	return t, nil
}

// FromGraphRecord builds a tree from the {"root": ...} envelope.
func FromGraphRecord(g GraphRecord) (*Tree, error) {
	if g.Root == nil {
		return nil, errors.Malformed("graph record has no root")
	}
	return FromRecord(*g.Root)
}

func (t *Tree) build(rec Record, path string) (NodeID, error) {
	if rec.Name == "" {
		return None, errors.Malformed("%s: missing name", path)
	}
	if rec.Origin == nil {
		return None, errors.Malformed("%s: missing origin", path)
	}
	if rec.Gradient == nil {
		return None, errors.Malformed("%s: missing gradient", path)
	}
	origin, err := tensor.FromRecord(*rec.Origin)
	if err != nil {
		return None, errors.Wrap(errors.GetCode(err), err, "%s.origin", path)
	}
	gradient, err := tensor.FromRecord(*rec.Gradient)
	if err != nil {
		return None, errors.Wrap(errors.GetCode(err), err, "%s.gradient", path)
	}

	id := t.Add(rec.Name, origin, gradient)
	for i, child := range rec.Children {
		cid, err := t.build(child, fmt.Sprintf("%s.children[%d]", path, i))
		if err != nil {
			return None, err
		}
		t.nodes[id].Children = append(t.nodes[id].Children, cid)
	}
	return id, nil
}

// Add allocates a node with no children and returns its id.
func (t *Tree) Add(name string, origin, gradient *tensor.Descriptor) NodeID {
	id := NodeID(len(t.nodes))
	t.nodes = append(t.nodes, BackwardNode{
		ID:       id,
		Name:     name,
		Origin:   origin,
		Gradient: gradient,
	})
	if t.root == None {
		t.root = id
	}
	return id
}

// SetRoot designates the root node.
func (t *Tree) SetRoot(id NodeID) error {
	if !t.valid(id) {
		return errors.NotFound("backward node %d", id)
	}
	t.root = id
	return nil
}

// Root returns the root id, or [None] for an empty tree.
func (t *Tree) Root() NodeID { return t.root }

// Len returns the number of arena slots, including clones and nodes not
// reachable from the root.
func (t *Tree) Len() int { return len(t.nodes) }

// Node returns the node with the given id, or NOT_FOUND.
func (t *Tree) Node(id NodeID) (*BackwardNode, error) {
	if !t.valid(id) {
		return nil, errors.NotFound("backward node %d", id)
	}
	return &t.nodes[id], nil
}

// Children returns a copy of the node's child ids. Unknown ids return nil.
func (t *Tree) Children(id NodeID) []NodeID {
	if !t.valid(id) {
		return nil
	}
	return slices.Clone(t.nodes[id].Children)
}

// Clone allocates a new slot with the node's name and tensors and an empty
// child list. The tensors are shared, not copied; they are immutable.
func (t *Tree) Clone(id NodeID) (NodeID, error) {
	n, err := t.Node(id)
	if err != nil {
		return None, err
	}
	name, origin, gradient := n.Name, n.Origin, n.Gradient
	cid := NodeID(len(t.nodes))
	t.nodes = append(t.nodes, BackwardNode{ID: cid, Name: name, Origin: origin, Gradient: gradient})
	return cid, nil
}

// AppendChild appends child to parent's child list. Repeated calls append
// repeated entries.
func (t *Tree) AppendChild(parent, child NodeID) error {
	if !t.valid(parent) {
		return errors.NotFound("backward node %d", parent)
	}
	if !t.valid(child) {
		return errors.NotFound("backward node %d", child)
	}
	t.nodes[parent].Children = append(t.nodes[parent].Children, child)
	return nil
}

// ClearChildren empties the node's child list.
func (t *Tree) ClearChildren(id NodeID) error {
	if !t.valid(id) {
		return errors.NotFound("backward node %d", id)
	}
	t.nodes[id].Children = nil
	return nil
}

// Walk visits every node reachable from the root once, in pre-order, along
// with its depth at first discovery. Returning false from fn stops the walk.
func (t *Tree) Walk(fn func(n *BackwardNode, depth int) bool) {
	if t.root == None {
		return
	}
	seen := make([]bool, len(t.nodes))
	var visit func(id NodeID, depth int) bool
	visit = func(id NodeID, depth int) bool {
		if seen[id] {
			return true
		}
		seen[id] = true
		if !fn(&t.nodes[id], depth) {
			return false
		}
		for _, c := range t.nodes[id].Children {
			if !visit(c, depth+1) {
				return false
			}
		}
		return true
	}
	visit(t.root, 0)
}

// Reachable returns the number of distinct nodes reachable from the root.
func (t *Tree) Reachable() int {
	n := 0
	t.Walk(func(*BackwardNode, int) bool { n++; return true })
	return n
}

// Depth returns the number of breadth-first levels below and including the
// root. Each node counts on the level where it is first discovered.
func (t *Tree) Depth() int {
	if t.root == None {
		return 0
	}
	seen := make([]bool, len(t.nodes))
	seen[t.root] = true
	level := []NodeID{t.root}
	depth := 0
	for len(level) > 0 {
		depth++
		var next []NodeID
		for _, id := range level {
			for _, c := range t.nodes[id].Children {
				if !seen[c] {
					seen[c] = true
					next = append(next, c)
				}
			}
		}
		level = next
	}
	return depth
}

// Record converts the subtree at the root back to its nested form.
// Shared subtrees are written once per occurrence.
func (t *Tree) Record() (Record, error) {
	if t.root == None {
		return Record{}, errors.Malformed("tree has no root")
	}
	if err := t.checkAcyclic(); err != nil {
		return Record{}, err
	}
	var rec func(id NodeID) Record
	rec = func(id NodeID) Record {
		n := &t.nodes[id]
		origin, gradient := n.Origin.Record(), n.Gradient.Record()
		r := Record{Name: n.Name, Origin: &origin, Gradient: &gradient, Children: []Record{}}
		for _, c := range n.Children {
			r.Children = append(r.Children, rec(c))
		}
		return r
	}
	return rec(t.root), nil
}

func (t *Tree) valid(id NodeID) bool {
	return id >= 0 && int(id) < len(t.nodes)
}

// checkAcyclic runs a white/gray/black DFS from the root.
func (t *Tree) checkAcyclic() error {
	const (
		white = iota
		gray
		black
	)
	if t.root == None {
		return nil
	}

	color := make([]int, len(t.nodes))
	var cycleAt [2]NodeID
	var dfs func(id NodeID) bool
	dfs = func(id NodeID) bool {
		color[id] = gray
		for _, c := range t.nodes[id].Children {
			switch color[c] {
			case white:
				if !dfs(c) {
					return false
				}
			case gray:
				cycleAt = [2]NodeID{id, c}
				return false
			}
		}
		color[id] = black
		return true
	}

	if !dfs(t.root) {
		from, to := t.nodes[cycleAt[0]], t.nodes[cycleAt[1]]
		return errors.Cycle("%s (%s) -> %s (%s) closes a cycle", from.Key(), from.Name, to.Key(), to.Name)
	}
	return nil
}
