package autograd

import (
	"testing"

	"github.com/matzehuels/gradlayer/pkg/errors"
	"github.com/matzehuels/gradlayer/pkg/tensor"
)

func TestReverse_RootWithTwoLeaves(t *testing.T) {
	tree, err := FromRecord(sample())
	if err != nil {
		t.Fatal(err)
	}

	d, err := Reverse(tree)
	if err != nil {
		t.Fatalf("Reverse() error = %v", err)
	}

	roots := d.Roots()
	if len(roots) != 2 {
		t.Fatalf("len(Roots()) = %d, want 2", len(roots))
	}

	sink, _ := d.Node(d.Sink())
	if sink.Name != "AddForward" || sink.Backward != tree.Root() {
		t.Errorf("Sink() = %+v, want AddForward wrapping the root", sink)
	}
	if len(sink.Children) != 0 {
		t.Errorf("sink children = %v, want none", sink.Children)
	}

	for _, r := range roots {
		n, _ := d.Node(r)
		if n.Name != "LeafCreation" {
			t.Errorf("root %d name = %q, want LeafCreation", r, n.Name)
		}
		if len(n.Children) != 1 || n.Children[0] != d.Sink() {
			t.Errorf("root %d children = %v, want [%d]", r, n.Children, d.Sink())
		}
	}

	edges := d.Edges()
	if len(edges) != 2 {
		t.Fatalf("len(Edges()) = %d, want 2", len(edges))
	}
	for i, e := range edges {
		if e.From != roots[i].Key() || e.To != d.Sink().Key() {
			t.Errorf("edge %d = %s -> %s, want %s -> %s", i, e.From, e.To, roots[i].Key(), d.Sink().Key())
		}
	}
}

func TestReverse_ChainsEndAtRoot(t *testing.T) {
	// Root
	// ├── A
	// │   └── A1
	// │       └── A2
	// └── B
	rec := leafRecord("SumBackward0")
	a := leafRecord("MulBackward0")
	a1 := leafRecord("TanhBackward0")
	a1.Children = []Record{leafRecord("GradAccum")}
	a.Children = []Record{a1}
	rec.Children = []Record{a, leafRecord("GradAccum")}

	tree, err := FromRecord(rec)
	if err != nil {
		t.Fatal(err)
	}
	d, err := Reverse(tree)
	if err != nil {
		t.Fatal(err)
	}

	if d.Len() != tree.Len() {
		t.Errorf("Len() = %d, want %d (one forward node per backward node)", d.Len(), tree.Len())
	}

	lengths := []int{}
	for _, r := range d.Roots() {
		chain, err := d.Chain(r)
		if err != nil {
			t.Fatal(err)
		}
		if last := chain[len(chain)-1]; last != d.Sink() {
			t.Errorf("chain from %d ends at %d, want sink %d", r, last, d.Sink())
		}
		lengths = append(lengths, len(chain))
	}

	// B is reached first (level 1), the A2 leaf last (level 3).
	if len(lengths) != 2 || lengths[0] != 2 || lengths[1] != 4 {
		t.Errorf("chain lengths = %v, want [2 4]", lengths)
	}
}

func TestReverse_LinearTreeVisitsEveryNode(t *testing.T) {
	rec := leafRecord("GradAccum")
	for _, name := range []string{"TanhBackward0", "MulBackward0", "SumBackward0"} {
		parent := leafRecord(name)
		parent.Children = []Record{rec}
		rec = parent
	}
	tree, err := FromRecord(rec)
	if err != nil {
		t.Fatal(err)
	}
	d, err := Reverse(tree)
	if err != nil {
		t.Fatal(err)
	}

	roots := d.Roots()
	if len(roots) != 1 {
		t.Fatalf("len(Roots()) = %d, want 1", len(roots))
	}
	chain, _ := d.Chain(roots[0])
	if len(chain) != tree.Len() {
		t.Errorf("len(chain) = %d, want %d", len(chain), tree.Len())
	}

	var names []string
	for _, id := range chain {
		n, _ := d.Node(id)
		names = append(names, n.Name)
	}
	want := []string{"LeafCreation", "TanhForward", "MulForward", "SumForward"}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("chain names = %v, want %v", names, want)
			break
		}
	}
}

func TestReverse_SharedSubtree(t *testing.T) {
	// Root -> {A, B}, A -> L, B -> L: L is shared.
	s := tensor.MustNew([]float64{1}, nil, 0)
	tree := NewTree()
	root := tree.Add("AddBackward0", s, s)
	a := tree.Add("MulBackward0", s, s)
	b := tree.Add("ExpBackward0", s, s)
	l := tree.Add("GradAccum", s, s)
	for _, e := range [][2]NodeID{{root, a}, {root, b}, {a, l}, {b, l}} {
		if err := tree.AppendChild(e[0], e[1]); err != nil {
			t.Fatal(err)
		}
	}

	d, err := Reverse(tree)
	if err != nil {
		t.Fatalf("Reverse() error = %v", err)
	}
	if d.Len() != 4 {
		t.Errorf("Len() = %d, want 4", d.Len())
	}
	roots := d.Roots()
	if len(roots) != 1 {
		t.Fatalf("Roots() = %v, want exactly one leaf creation", roots)
	}
	leaf, _ := d.Node(roots[0])
	if len(leaf.Children) != 2 {
		t.Errorf("shared leaf children = %v, want two consumers", leaf.Children)
	}
	if len(d.Edges()) != 4 {
		t.Errorf("len(Edges()) = %d, want 4", len(d.Edges()))
	}
	fl, err := d.ForwardOf(l)
	if err != nil || fl.ID != roots[0] {
		t.Errorf("ForwardOf(leaf) = %v, %v, want %d", fl, err, roots[0])
	}
}

func TestReverse_Cycle(t *testing.T) {
	s := tensor.MustNew([]float64{1}, nil, 0)
	tree := NewTree()
	root := tree.Add("AddBackward0", s, s)
	mid := tree.Add("MulBackward0", s, s)
	_ = tree.AppendChild(root, mid)
	_ = tree.AppendChild(mid, root)

	d, err := Reverse(tree)
	if err == nil {
		t.Fatalf("Reverse() = %v, want error", d)
	}
	if !errors.Is(err, errors.ErrCodeCycleDetected) {
		t.Errorf("code = %v, want %v", errors.GetCode(err), errors.ErrCodeCycleDetected)
	}

	self := NewTree()
	n := self.Add("X", s, s)
	_ = self.AppendChild(n, n)
	if _, err := Reverse(self); !errors.Is(err, errors.ErrCodeCycleDetected) {
		t.Errorf("self loop error = %v, want CYCLE_DETECTED", err)
	}
}

func TestReverse_SingleNode(t *testing.T) {
	tree, err := FromRecord(leafRecord("GradAccum"))
	if err != nil {
		t.Fatal(err)
	}
	d, err := Reverse(tree)
	if err != nil {
		t.Fatal(err)
	}
	if roots := d.Roots(); len(roots) != 1 || roots[0] != d.Sink() {
		t.Errorf("Roots() = %v, want [sink]", roots)
	}
	if len(d.Edges()) != 0 {
		t.Errorf("Edges() = %v, want none", d.Edges())
	}

	if _, err := Reverse(NewTree()); !errors.Is(err, errors.ErrCodeMalformedRecord) {
		t.Errorf("Reverse(empty) error = %v, want MALFORMED_RECORD", err)
	}
}

func TestDual_Lookup(t *testing.T) {
	tree, _ := FromRecord(sample())
	d, _ := Reverse(tree)

	n, err := d.Lookup("f-1")
	if err != nil || n.ID != 1 {
		t.Errorf("Lookup(f-1) = %v, %v", n, err)
	}
	for _, key := range []string{"f-9", "x-1", "f-01", ""} {
		if _, err := d.Lookup(key); !errors.Is(err, errors.ErrCodeNotFound) {
			t.Errorf("Lookup(%q) error = %v, want NOT_FOUND", key, err)
		}
	}

	b, err := d.Backward(d.Sink())
	if err != nil || b.ID != tree.Root() {
		t.Errorf("Backward(sink) = %v, %v, want root", b, err)
	}
	if ids := d.NodeIDs(); len(ids) != 3 || ids[0] != "f-0" {
		t.Errorf("NodeIDs() = %v", ids)
	}
}
