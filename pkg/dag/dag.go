package dag

import (
	"maps"
	"slices"

	"github.com/matzehuels/gradlayer/pkg/errors"
	"github.com/matzehuels/gradlayer/pkg/tensor"
)

// Metadata stores arbitrary key-value pairs attached to nodes, edges or the
// graph. Metadata maps are never nil after insertion.
type Metadata map[string]any

// Node is a computation node of a flat graph. It refers to its origin and
// gradient tensors by id; both must exist in the graph's tensor map.
type Node struct {
	ID         string   // Unique identifier ("n-0", "n-1", ...)
	Name       string   // Operation name as recorded ("MulBackward0", "GradAccum")
	OriginID   string   // Tensor id of the operation's output value
	GradientID string   // Tensor id of the gradient flowing through it
	Meta       Metadata // Arbitrary metadata (never nil after AddNode)
}

// Edge is a directed connection from one node id to another.
type Edge struct {
	From string   // Origin node ID
	To   string   // Destination node ID
	Meta Metadata // Arbitrary metadata (never nil after AddEdge)
}

// Reverse returns the edge with its endpoints swapped. Metadata is shared.
func (e Edge) Reverse() Edge {
	return Edge{From: e.To, To: e.From, Meta: e.Meta}
}

// Graph is a flat directed graph of computation nodes with a shared tensor
// map and an always-current reversed edge list.
//
// The zero value is not usable - use [New] or [Empty].
type Graph struct {
	tensors     map[string]*tensor.Descriptor
	tensorOrder []string
	nodes       map[string]*Node
	order       []string
	edges       []Edge
	reversed    []Edge
	outgoing    map[string][]string // nodeID -> children IDs
	incoming    map[string][]string // nodeID -> parent IDs
	meta        Metadata
}

// Empty creates a graph with no tensors, nodes or edges.
func Empty() *Graph {
	return &Graph{
		tensors:  make(map[string]*tensor.Descriptor),
		nodes:    make(map[string]*Node),
		outgoing: make(map[string][]string),
		incoming: make(map[string][]string),
		meta:     Metadata{},
	}
}

// New builds a graph from three independently sourced collections.
//
// Tensors and nodes are inserted in natural id order. Edges are inserted in
// the order given. Construction stops at the first invalid entry: a node
// whose tensor ids are missing from tensors, or an edge whose endpoints are
// missing from nodes, returns NOT_FOUND; an empty id or tensor reference
// returns MALFORMED_RECORD. No partial graph is returned.
func New(tensors map[string]*tensor.Descriptor, nodes map[string]Node, edges []Edge) (*Graph, error) {
	g := Empty()

	for _, id := range NaturalSort(slices.Collect(maps.Keys(tensors))) {
		if err := g.AddTensor(id, tensors[id]); err != nil {
			return nil, err
		}
	}

	for _, id := range NaturalSort(slices.Collect(maps.Keys(nodes))) {
		n := nodes[id]
		if n.ID == "" {
			n.ID = id
		}
		if n.ID != id {
			return nil, errors.Malformed("node keyed %q declares id %q", id, n.ID)
		}
		if err := g.AddNode(n); err != nil {
			return nil, err
		}
	}

	for _, e := range edges {
		if err := g.AddEdge(e); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// Clone returns a deep copy of the graph structure. Tensor descriptors are
// shared; node, edge and graph metadata maps are copied one level deep.
func (g *Graph) Clone() *Graph {
	c := Empty()
	c.tensorOrder = slices.Clone(g.tensorOrder)
	c.order = slices.Clone(g.order)
	maps.Copy(c.tensors, g.tensors)
	for id, n := range g.nodes {
		cp := *n
		cp.Meta = maps.Clone(n.Meta)
		c.nodes[id] = &cp
	}
	for _, e := range g.edges {
		e.Meta = maps.Clone(e.Meta)
		c.appendEdge(e)
	}
	c.reversed = ReverseEdges(c.edges)
	maps.Copy(c.meta, g.meta)
	return c
}

// Meta returns the graph-level metadata map.
// The returned map is never nil and can be safely modified.
func (g *Graph) Meta() Metadata { return g.meta }

// =============================================================================
// Mutation
// =============================================================================

// AddTensor registers a tensor under id. The stored descriptor carries id
// as its [tensor.Descriptor.ID].
func (g *Graph) AddTensor(id string, t *tensor.Descriptor) error {
	if err := errors.ValidateNodeID(id); err != nil {
		return errors.Wrap(errors.ErrCodeMalformedRecord, err, "tensor id")
	}
	if t == nil {
		return errors.Malformed("tensor %q has no descriptor", id)
	}
	if _, exists := g.tensors[id]; exists {
		return errors.New(errors.ErrCodeInvalidInput, "duplicate tensor id %q", id)
	}
	g.tensors[id] = t.WithID(id)
	g.tensorOrder = append(g.tensorOrder, id)
	return nil
}

// AddNode adds a node. Its origin and gradient tensors must already be
// registered. The node's Meta field is initialized to an empty map if nil.
func (g *Graph) AddNode(n Node) error {
	if err := errors.ValidateNodeID(n.ID); err != nil {
		return errors.Wrap(errors.ErrCodeMalformedRecord, err, "node id")
	}
	if _, exists := g.nodes[n.ID]; exists {
		return errors.New(errors.ErrCodeInvalidInput, "duplicate node id %q", n.ID)
	}
	if n.Name == "" {
		return errors.Malformed("node %q has no name", n.ID)
	}
	if n.OriginID == "" {
		return errors.Malformed("node %q has no origin tensor", n.ID)
	}
	if n.GradientID == "" {
		return errors.Malformed("node %q has no gradient tensor", n.ID)
	}
	if _, ok := g.tensors[n.OriginID]; !ok {
		return errors.NotFound("origin tensor %q of node %q", n.OriginID, n.ID)
	}
	if _, ok := g.tensors[n.GradientID]; !ok {
		return errors.NotFound("gradient tensor %q of node %q", n.GradientID, n.ID)
	}
	if n.Meta == nil {
		n.Meta = Metadata{}
	}
	node := &n
	g.nodes[node.ID] = node
	g.order = append(g.order, node.ID)
	return nil
}

// AddEdge appends a directed edge between two existing nodes.
// Unknown endpoints return NOT_FOUND. Parallel edges are kept.
func (g *Graph) AddEdge(e Edge) error {
	if err := g.checkEdge(e); err != nil {
		return err
	}
	g.appendEdge(e)
	g.reversed = ReverseEdges(g.edges)
	return nil
}

// SetEdges replaces the edge list. Every edge is checked before anything is
// replaced, so a failed call leaves the graph unchanged.
func (g *Graph) SetEdges(edges []Edge) error {
	for _, e := range edges {
		if err := g.checkEdge(e); err != nil {
			return err
		}
	}
	g.resetEdges()
	for _, e := range edges {
		g.appendEdge(e)
	}
	g.reversed = ReverseEdges(g.edges)
	return nil
}

// RemoveEdge removes the first edge from→to if it exists.
// No error is returned if the edge does not exist.
func (g *Graph) RemoveEdge(from, to string) {
	i := slices.IndexFunc(g.edges, func(e Edge) bool { return e.From == from && e.To == to })
	if i < 0 {
		return
	}
	g.edges = slices.Delete(g.edges, i, i+1)
	if j := slices.Index(g.outgoing[from], to); j >= 0 {
		g.outgoing[from] = slices.Delete(g.outgoing[from], j, j+1)
	}
	if j := slices.Index(g.incoming[to], from); j >= 0 {
		g.incoming[to] = slices.Delete(g.incoming[to], j, j+1)
	}
	g.reversed = ReverseEdges(g.edges)
}

// SortEdges stably reorders edges by the rank of their origin node, so that
// edges leaving lower ranks come first. Nodes missing from ranks sort as
// rank 0.
func (g *Graph) SortEdges(ranks map[string]int) {
	slices.SortStableFunc(g.edges, func(a, b Edge) int {
		return ranks[a.From] - ranks[b.From]
	})
	edges := g.edges
	g.resetEdges()
	for _, e := range edges {
		g.appendEdge(e)
	}
	g.reversed = ReverseEdges(g.edges)
}

func (g *Graph) checkEdge(e Edge) error {
	if _, ok := g.nodes[e.From]; !ok {
		return errors.NotFound("edge origin %q", e.From)
	}
	if _, ok := g.nodes[e.To]; !ok {
		return errors.NotFound("edge destination %q", e.To)
	}
	return nil
}

func (g *Graph) appendEdge(e Edge) {
	if e.Meta == nil {
		e.Meta = Metadata{}
	}
	g.edges = append(g.edges, e)
	g.outgoing[e.From] = append(g.outgoing[e.From], e.To)
	g.incoming[e.To] = append(g.incoming[e.To], e.From)
}

func (g *Graph) resetEdges() {
	g.edges = nil
	g.outgoing = make(map[string][]string)
	g.incoming = make(map[string][]string)
}

// ReverseEdges returns a new slice with every edge's endpoints swapped.
func ReverseEdges(edges []Edge) []Edge {
	out := make([]Edge, len(edges))
	for i, e := range edges {
		out[i] = e.Reverse()
	}
	return out
}

// =============================================================================
// Queries
// =============================================================================

// QueryNode returns the node with the given id, or NOT_FOUND.
func (g *Graph) QueryNode(id string) (*Node, error) {
	n, ok := g.nodes[id]
	if !ok {
		return nil, errors.NotFound("node %q", id)
	}
	return n, nil
}

// QueryTensor returns the tensor with the given id, or NOT_FOUND.
func (g *Graph) QueryTensor(id string) (*tensor.Descriptor, error) {
	t, ok := g.tensors[id]
	if !ok {
		return nil, errors.NotFound("tensor %q", id)
	}
	return t, nil
}

// Node returns the node with the given ID and true, or nil and false if not
// found.
func (g *Graph) Node(id string) (*Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// NodeIDs returns node ids in insertion order.
func (g *Graph) NodeIDs() []string { return slices.Clone(g.order) }

// TensorIDs returns tensor ids in insertion order.
func (g *Graph) TensorIDs() []string { return slices.Clone(g.tensorOrder) }

// Nodes returns all nodes in insertion order.
func (g *Graph) Nodes() []*Node {
	nodes := make([]*Node, len(g.order))
	for i, id := range g.order {
		nodes[i] = g.nodes[id]
	}
	return nodes
}

// Edges returns a copy of all edges in insertion order.
func (g *Graph) Edges() []Edge { return slices.Clone(g.edges) }

// ReversedEdges returns a copy of the reversed edge list. Its i-th element is
// always Edges()[i] with endpoints swapped.
func (g *Graph) ReversedEdges() []Edge { return slices.Clone(g.reversed) }

// NodeCount returns the number of nodes in the graph.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// TensorCount returns the number of tensors in the graph.
func (g *Graph) TensorCount() int { return len(g.tensors) }

// EdgeCount returns the number of edges in the graph.
func (g *Graph) EdgeCount() int { return len(g.edges) }

// Children returns the ids of nodes this node has edges to.
// The returned slice should not be modified.
func (g *Graph) Children(id string) []string { return g.outgoing[id] }

// Parents returns the ids of nodes that have edges to this node.
// The returned slice should not be modified.
func (g *Graph) Parents(id string) []string { return g.incoming[id] }

// OutDegree returns the number of outgoing edges from the node.
func (g *Graph) OutDegree(id string) int { return len(g.outgoing[id]) }

// InDegree returns the number of incoming edges to the node.
func (g *Graph) InDegree(id string) int { return len(g.incoming[id]) }

// Sources returns nodes with no incoming edges, in insertion order.
func (g *Graph) Sources() []*Node {
	var sources []*Node
	for _, id := range g.order {
		if len(g.incoming[id]) == 0 {
			sources = append(sources, g.nodes[id])
		}
	}
	return sources
}

// Sinks returns nodes with no outgoing edges, in insertion order.
func (g *Graph) Sinks() []*Node {
	var sinks []*Node
	for _, id := range g.order {
		if len(g.outgoing[id]) == 0 {
			sinks = append(sinks, g.nodes[id])
		}
	}
	return sinks
}

// =============================================================================
// Validation
// =============================================================================

// Validate checks graph integrity and returns nil if valid.
//
// It verifies that every node's tensors exist, every edge connects existing
// nodes, the reversed list matches the edge list, and that the graph is
// acyclic. A cycle returns CYCLE_DETECTED. Cycle detection runs in O(N+E)
// using depth-first search with white/gray/black coloring.
func (g *Graph) Validate() error {
	for _, id := range g.order {
		n := g.nodes[id]
		if _, ok := g.tensors[n.OriginID]; !ok {
			return errors.NotFound("origin tensor %q of node %q", n.OriginID, id)
		}
		if _, ok := g.tensors[n.GradientID]; !ok {
			return errors.NotFound("gradient tensor %q of node %q", n.GradientID, id)
		}
	}
	for i, e := range g.edges {
		if err := g.checkEdge(e); err != nil {
			return err
		}
		if r := g.reversed[i]; r.From != e.To || r.To != e.From {
			return errors.New(errors.ErrCodeInternal, "reversed edge %d is stale", i)
		}
	}
	return g.detectCycles()
}

func (g *Graph) detectCycles() error {
	const (
		white = iota
		gray
		black
	)

	color := make(map[string]int, len(g.nodes))
	var cycleAt [2]string
	var hasCycle bool

	var dfs func(id string)
	dfs = func(id string) {
		color[id] = gray
		for _, child := range g.outgoing[id] {
			switch color[child] {
			case white:
				dfs(child)
				if hasCycle {
					return
				}
			case gray:
				hasCycle = true
				cycleAt = [2]string{id, child}
				return
			}
		}
		color[id] = black
	}

	for _, id := range g.order {
		if color[id] == white {
			dfs(id)
			if hasCycle {
				return errors.Cycle("edge %s -> %s closes a cycle", cycleAt[0], cycleAt[1])
			}
		}
	}
	return nil
}

// PosMap creates a position lookup map from a slice of node IDs.
func PosMap(ids []string) map[string]int {
	m := make(map[string]int, len(ids))
	for i, id := range ids {
		m[id] = i
	}
	return m
}
