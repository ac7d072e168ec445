package dag

import (
	"slices"
	"testing"

	"github.com/matzehuels/gradlayer/pkg/errors"
	"github.com/matzehuels/gradlayer/pkg/tensor"
)

func scalar() *tensor.Descriptor { return tensor.MustNew([]float64{1}, nil, 0) }

// build creates a graph whose nodes share one tensor pair and whose edges
// are given as id pairs.
func build(t *testing.T, ids []string, edges ...[2]string) *Graph {
	t.Helper()
	g := Empty()
	if err := g.AddTensor("t-0", scalar()); err != nil {
		t.Fatal(err)
	}
	if err := g.AddTensor("g-1", scalar()); err != nil {
		t.Fatal(err)
	}
	for _, id := range ids {
		if err := g.AddNode(Node{ID: id, Name: "MulBackward0", OriginID: "t-0", GradientID: "g-1"}); err != nil {
			t.Fatal(err)
		}
	}
	for _, e := range edges {
		if err := g.AddEdge(Edge{From: e[0], To: e[1]}); err != nil {
			t.Fatal(err)
		}
	}
	return g
}

func TestNew(t *testing.T) {
	tensors := map[string]*tensor.Descriptor{"t-0": scalar(), "g-1": scalar()}
	nodes := map[string]Node{
		"n-10": {Name: "AddBackward0", OriginID: "t-0", GradientID: "g-1"},
		"n-2":  {Name: "GradAccum", OriginID: "t-0", GradientID: "g-1"},
		"n-1":  {Name: "GradAccum", OriginID: "t-0", GradientID: "g-1"},
	}
	edges := []Edge{{From: "n-10", To: "n-1"}, {From: "n-10", To: "n-2"}}

	g, err := New(tensors, nodes, edges)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if want := []string{"n-1", "n-2", "n-10"}; !slices.Equal(g.NodeIDs(), want) {
		t.Errorf("NodeIDs() = %v, want %v", g.NodeIDs(), want)
	}
	if g.EdgeCount() != 2 {
		t.Errorf("EdgeCount() = %d, want 2", g.EdgeCount())
	}
	n, err := g.QueryNode("n-1")
	if err != nil {
		t.Fatalf("QueryNode() error = %v", err)
	}
	if n.ID != "n-1" || n.Meta == nil {
		t.Errorf("QueryNode() = %+v, want id filled and Meta initialized", n)
	}
	tt, err := g.QueryTensor("t-0")
	if err != nil {
		t.Fatalf("QueryTensor() error = %v", err)
	}
	if tt.ID() != "t-0" {
		t.Errorf("tensor ID() = %q, want %q", tt.ID(), "t-0")
	}
}

func TestNew_Errors(t *testing.T) {
	tensors := map[string]*tensor.Descriptor{"t-0": scalar()}

	tests := []struct {
		name  string
		nodes map[string]Node
		edges []Edge
		code  errors.Code
	}{
		{
			name:  "missing origin tensor",
			nodes: map[string]Node{"n-0": {Name: "X", OriginID: "t-9", GradientID: "t-0"}},
			code:  errors.ErrCodeNotFound,
		},
		{
			name:  "missing gradient tensor",
			nodes: map[string]Node{"n-0": {Name: "X", OriginID: "t-0", GradientID: "g-9"}},
			code:  errors.ErrCodeNotFound,
		},
		{
			name:  "empty gradient reference",
			nodes: map[string]Node{"n-0": {Name: "X", OriginID: "t-0"}},
			code:  errors.ErrCodeMalformedRecord,
		},
		{
			name:  "missing name",
			nodes: map[string]Node{"n-0": {OriginID: "t-0", GradientID: "t-0"}},
			code:  errors.ErrCodeMalformedRecord,
		},
		{
			name:  "mismatched key",
			nodes: map[string]Node{"n-0": {ID: "n-1", Name: "X", OriginID: "t-0", GradientID: "t-0"}},
			code:  errors.ErrCodeMalformedRecord,
		},
		{
			name:  "unknown edge destination",
			nodes: map[string]Node{"n-0": {Name: "X", OriginID: "t-0", GradientID: "t-0"}},
			edges: []Edge{{From: "n-0", To: "n-5"}},
			code:  errors.ErrCodeNotFound,
		},
		{
			name:  "unknown edge origin",
			nodes: map[string]Node{"n-0": {Name: "X", OriginID: "t-0", GradientID: "t-0"}},
			edges: []Edge{{From: "n-5", To: "n-0"}},
			code:  errors.ErrCodeNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := New(tensors, tt.nodes, tt.edges)
			if err == nil {
				t.Fatalf("New() = %v, want error", g)
			}
			if g != nil {
				t.Error("New() returned a partial graph")
			}
			if !errors.Is(err, tt.code) {
				t.Errorf("code = %v, want %v (%v)", errors.GetCode(err), tt.code, err)
			}
		})
	}
}

func TestQuery_NotFound(t *testing.T) {
	g := build(t, []string{"a"})

	if _, err := g.QueryNode("missing"); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("QueryNode(missing) error = %v, want NOT_FOUND", err)
	}
	if _, err := g.QueryTensor("missing"); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("QueryTensor(missing) error = %v, want NOT_FOUND", err)
	}
}

func TestReversedEdges_AlwaysCurrent(t *testing.T) {
	g := build(t, []string{"a", "b", "c"}, [2]string{"a", "b"})

	check := func(stage string) {
		t.Helper()
		edges, rev := g.Edges(), g.ReversedEdges()
		if len(edges) != len(rev) {
			t.Fatalf("%s: len(reversed) = %d, want %d", stage, len(rev), len(edges))
		}
		for i := range edges {
			if rev[i].From != edges[i].To || rev[i].To != edges[i].From {
				t.Errorf("%s: reversed[%d] = %v, want swap of %v", stage, i, rev[i], edges[i])
			}
		}
	}

	check("after AddEdge")

	if err := g.AddEdge(Edge{From: "b", To: "c"}); err != nil {
		t.Fatal(err)
	}
	check("after second AddEdge")

	g.SortEdges(map[string]int{"a": 1, "b": 0})
	check("after SortEdges")
	if g.Edges()[0].From != "b" {
		t.Errorf("SortEdges() first edge = %v, want from b", g.Edges()[0])
	}

	g.RemoveEdge("b", "c")
	check("after RemoveEdge")

	if err := g.SetEdges([]Edge{{From: "c", To: "a"}, {From: "c", To: "b"}}); err != nil {
		t.Fatal(err)
	}
	check("after SetEdges")
	if g.EdgeCount() != 2 || !slices.Equal(g.Parents("a"), []string{"c"}) {
		t.Errorf("SetEdges() did not rebuild adjacency: parents(a) = %v", g.Parents("a"))
	}
}

func TestSetEdges_Atomic(t *testing.T) {
	g := build(t, []string{"a", "b"}, [2]string{"a", "b"})

	err := g.SetEdges([]Edge{{From: "b", To: "a"}, {From: "b", To: "zzz"}})
	if !errors.Is(err, errors.ErrCodeNotFound) {
		t.Fatalf("SetEdges() error = %v, want NOT_FOUND", err)
	}
	if edges := g.Edges(); len(edges) != 1 || edges[0].From != "a" {
		t.Errorf("Edges() after failed SetEdges = %v, want unchanged", edges)
	}
}

func TestClone_Independent(t *testing.T) {
	g := build(t, []string{"a", "b", "c"}, [2]string{"a", "b"}, [2]string{"b", "c"})

	c := g.Clone()
	c.RemoveEdge("a", "b")
	c.Nodes()[0].Meta["seen"] = true

	if g.EdgeCount() != 2 {
		t.Errorf("original EdgeCount() = %d after clone mutation, want 2", g.EdgeCount())
	}
	if _, ok := g.Nodes()[0].Meta["seen"]; ok {
		t.Error("original node metadata changed through clone")
	}
	if !slices.Equal(c.NodeIDs(), g.NodeIDs()) {
		t.Errorf("clone NodeIDs() = %v, want %v", c.NodeIDs(), g.NodeIDs())
	}
	if got := c.ReversedEdges(); len(got) != 1 || got[0].From != "c" {
		t.Errorf("clone ReversedEdges() = %v, want [c->b]", got)
	}
}

func TestReverseEdges(t *testing.T) {
	in := []Edge{{From: "a", To: "b"}, {From: "b", To: "c"}}
	out := ReverseEdges(in)

	want := []Edge{{From: "b", To: "a"}, {From: "c", To: "b"}}
	for i := range want {
		if out[i].From != want[i].From || out[i].To != want[i].To {
			t.Errorf("ReverseEdges()[%d] = %v, want %v", i, out[i], want[i])
		}
	}
	if in[0].From != "a" {
		t.Error("ReverseEdges() modified its input")
	}
}

func TestSourcesSinks(t *testing.T) {
	g := build(t, []string{"a", "b", "c", "d"},
		[2]string{"a", "c"}, [2]string{"b", "c"}, [2]string{"c", "d"})

	var sources, sinks []string
	for _, n := range g.Sources() {
		sources = append(sources, n.ID)
	}
	for _, n := range g.Sinks() {
		sinks = append(sinks, n.ID)
	}
	if !slices.Equal(sources, []string{"a", "b"}) {
		t.Errorf("Sources() = %v, want [a b]", sources)
	}
	if !slices.Equal(sinks, []string{"d"}) {
		t.Errorf("Sinks() = %v, want [d]", sinks)
	}
	if g.InDegree("c") != 2 || g.OutDegree("c") != 1 {
		t.Errorf("degrees of c = %d/%d, want 2/1", g.InDegree("c"), g.OutDegree("c"))
	}
}

func TestValidate(t *testing.T) {
	g := build(t, []string{"a", "b", "c"}, [2]string{"a", "b"}, [2]string{"b", "c"})
	if err := g.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}

	if err := g.AddEdge(Edge{From: "c", To: "a"}); err != nil {
		t.Fatal(err)
	}
	if err := g.Validate(); !errors.Is(err, errors.ErrCodeCycleDetected) {
		t.Errorf("Validate() on cycle error = %v, want CYCLE_DETECTED", err)
	}
}

func TestAddDuplicates(t *testing.T) {
	g := build(t, []string{"a"})

	if err := g.AddNode(Node{ID: "a", Name: "X", OriginID: "t-0", GradientID: "g-1"}); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("duplicate AddNode() error = %v, want INVALID_INPUT", err)
	}
	if err := g.AddTensor("t-0", scalar()); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("duplicate AddTensor() error = %v, want INVALID_INPUT", err)
	}
	if err := g.AddTensor("", scalar()); !errors.Is(err, errors.ErrCodeMalformedRecord) {
		t.Errorf("empty AddTensor() error = %v, want MALFORMED_RECORD", err)
	}
}
