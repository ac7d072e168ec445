package layer

import (
	"slices"
	"testing"

	"github.com/matzehuels/gradlayer/pkg/autograd"
	"github.com/matzehuels/gradlayer/pkg/errors"
	"github.com/matzehuels/gradlayer/pkg/tensor"
)

// addTree builds AddBackward0 with two GradAccum leaves.
func addTree(t *testing.T) *autograd.Tree {
	t.Helper()
	v := tensor.MustNew([]float64{1, 2}, []int{2}, 0)
	tree := autograd.NewTree()
	root := tree.Add("AddBackward0", v, v)
	for range 2 {
		if err := tree.AppendChild(root, tree.Add("GradAccum", v, v)); err != nil {
			t.Fatal(err)
		}
	}
	return tree
}

func TestBuildBackward(t *testing.T) {
	s, err := BuildBackward(addTree(t), unitMetrics)
	if err != nil {
		t.Fatalf("BuildBackward() error = %v", err)
	}
	if err := s.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	layers := s.Layers()
	wantLabels := []string{"T0", "N0", "T1", "N1"}
	if len(layers) != len(wantLabels) {
		t.Fatalf("len(Layers()) = %d, want %d", len(layers), len(wantLabels))
	}
	for i, l := range layers {
		if l.Config().Label != wantLabels[i] {
			t.Errorf("layer %d label = %q, want %q", i, l.Config().Label, wantLabels[i])
		}
	}
	if got := layers[3].Keys(); !slices.Equal(got, []string{"b-1", "b-2"}) {
		t.Errorf("N1 keys = %v", got)
	}
	if got := layers[0].Keys(); !slices.Equal(got, []string{"b-0"}) {
		t.Errorf("T0 keys = %v", got)
	}

	wantT0 := []CrossEdge{{0, 0, 3, 0}, {0, 0, 3, 1}}
	if got := layers[0].Edges(); !slices.Equal(got, wantT0) {
		t.Errorf("T0 edges = %v, want %v", got, wantT0)
	}
	wantN0 := []CrossEdge{{0, 0, 1, 0}}
	if got := layers[1].Edges(); !slices.Equal(got, wantN0) {
		t.Errorf("N0 edges = %v, want %v", got, wantN0)
	}
	wantN1 := []CrossEdge{{2, 0, 3, 0}, {2, 1, 3, 1}}
	if got := layers[3].Edges(); !slices.Equal(got, wantN1) {
		t.Errorf("N1 edges = %v, want %v", got, wantN1)
	}
	if len(layers[2].Edges()) != 0 {
		t.Errorf("T1 edges = %v, want none", layers[2].Edges())
	}
}

func TestBuildBackward_SharedChild(t *testing.T) {
	v := tensor.MustNew([]float64{1}, []int{1}, 0)
	tree := autograd.NewTree()
	root := tree.Add("MulBackward0", v, v)
	leaf := tree.Add("GradAccum", v, v)
	tree.AppendChild(root, leaf)
	tree.AppendChild(root, leaf)

	s, err := BuildBackward(tree, unitMetrics)
	if err != nil {
		t.Fatal(err)
	}
	layers := s.Layers()
	if layers[3].Len() != 1 {
		t.Errorf("shared child occupies %d slots, want 1", layers[3].Len())
	}
	// Both dependency occurrences keep their edge.
	if got := len(layers[0].Edges()); got != 2 {
		t.Errorf("T0 edge count = %d, want 2", got)
	}
	// The child is processed once at depth 1.
	if got := len(layers[3].Edges()); got != 1 {
		t.Errorf("N1 edge count = %d, want 1", got)
	}
}

func TestBuildBackward_Empty(t *testing.T) {
	_, err := BuildBackward(autograd.NewTree(), unitMetrics)
	if !errors.Is(err, errors.ErrCodeMalformedRecord) {
		t.Errorf("error = %v, want MALFORMED_RECORD", err)
	}
}

func TestBuildForward(t *testing.T) {
	d, err := autograd.Reverse(addTree(t))
	if err != nil {
		t.Fatal(err)
	}
	s, err := BuildForward(d, unitMetrics)
	if err != nil {
		t.Fatalf("BuildForward() error = %v", err)
	}
	if err := s.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	layers := s.Layers()
	if len(layers) != 4 {
		t.Fatalf("len(Layers()) = %d, want 4", len(layers))
	}
	if layers[1].Len() != 2 || layers[3].Len() != 1 {
		t.Errorf("N0, N1 sizes = %d, %d, want 2, 1", layers[1].Len(), layers[3].Len())
	}
	for _, u := range layers[1].Units() {
		if n := u.(NodeUnit); n.Label != "LeafCreation" {
			t.Errorf("leaf label = %q, want LeafCreation", n.Label)
		}
	}
	sink := layers[3].Units()[0].(NodeUnit)
	if sink.Label != "AddForward" || sink.ID != d.Sink().Key() {
		t.Errorf("sink unit = %+v", sink)
	}
	if cfg := layers[1].Config(); cfg.Direction != Forward {
		t.Errorf("direction = %q, want forward", cfg.Direction)
	}
	// Both leaves point at the single sink.
	want := []CrossEdge{{0, 0, 3, 0}, {0, 1, 3, 0}}
	if got := layers[0].Edges(); !slices.Equal(got, want) {
		t.Errorf("T0 edges = %v, want %v", got, want)
	}
}

func TestBuilder_GradientTensors(t *testing.T) {
	v := tensor.MustNew([]float64{1, 2}, []int{2}, 0)
	g := tensor.MustNew([]float64{1, 2, 3, 4}, []int{2, 2}, 0)
	tree := autograd.NewTree()
	tree.Add("SumBackward0", v, g)

	b := NewBuilder(unitMetrics)
	b.TensorKind = Gradient
	s, err := b.Backward(tree)
	if err != nil {
		t.Fatal(err)
	}
	u := s.Layers()[0].Units()[0].(TensorUnit)
	if u.Kind != tensor.KindMatrix || u.TensorKind != Gradient {
		t.Errorf("tensor unit = %+v, want gradient matrix", u)
	}
}
