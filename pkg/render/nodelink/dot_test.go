package nodelink

import (
	"strings"
	"testing"

	"github.com/matzehuels/gradlayer/pkg/errors"
	"github.com/matzehuels/gradlayer/pkg/graph"
)

func acyclicLayout() graph.Layout {
	return graph.Layout{
		Variant: graph.VariantAcyclic,
		Groups: []graph.Group{
			{Rank: 0, Members: []graph.Member{{ID: "n-0", Label: "AddBackward0", Lines: []string{"Add", "Backward"}}}},
			{Rank: 1, Members: []graph.Member{{ID: "n-1", Label: "Accum", Lines: []string{"Accum"}}, {ID: "n-2", Label: "Accum"}}},
		},
		Edges: []graph.Edge{{From: "n-0", To: "n-1"}, {From: "n-0", To: "n-2"}},
	}
}

func treeLayout() graph.Layout {
	return graph.Layout{
		Variant: graph.VariantTree,
		Layers: []graph.Layer{
			{Label: "T0", Kind: graph.KindTensor, Members: []graph.Member{{ID: "b-0:origin", Label: "Sca ()", Lines: []string{"Sca", "()"}}}},
			{Label: "N0", Kind: graph.KindNode, Members: []graph.Member{{ID: "b-0", Label: "Accum", Width: 1.5, Height: 1.5}}},
		},
		CrossEdges: []graph.CrossEdge{{SourceLayer: 0, SourceIndex: 0, DestLayer: 1, DestIndex: 0}},
	}
}

func TestToDOT_Acyclic(t *testing.T) {
	dot, err := ToDOT(acyclicLayout(), Options{})
	if err != nil {
		t.Fatalf("ToDOT() error = %v", err)
	}

	for _, want := range []string{
		"digraph G",
		"rankdir=LR",
		"rank=same; // rank 1",
		`"n-0" [label="Add\nBackward"]`,
		`"n-2" [label="Accum"]`,
		`"n-0" -> "n-1"`,
		`"n-0" -> "n-2"`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("ToDOT() output missing %q\n%s", want, dot)
		}
	}
}

func TestToDOT_Tree(t *testing.T) {
	dot, err := ToDOT(treeLayout(), Options{})
	if err != nil {
		t.Fatalf("ToDOT() error = %v", err)
	}

	for _, want := range []string{
		"rankdir=TB",
		"rank=same; // T0",
		`"L0_0" [label="Sca\n()", shape=box, fillcolor=lightgrey]`,
		`"L1_0" [label="Accum"]`,
		`"L0_0" -> "L1_0"`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("ToDOT() output missing %q\n%s", want, dot)
		}
	}
}

func TestToDOT_Detailed(t *testing.T) {
	dot, err := ToDOT(treeLayout(), Options{Detailed: true})
	if err != nil {
		t.Fatalf("ToDOT() error = %v", err)
	}
	if !strings.Contains(dot, `Accum\n1.50 x 1.50`) {
		t.Errorf("ToDOT() detailed output missing size\n%s", dot)
	}
}

func TestToDOT_Errors(t *testing.T) {
	bad := treeLayout()
	bad.CrossEdges = append(bad.CrossEdges, graph.CrossEdge{SourceLayer: 1, SourceIndex: 0, DestLayer: 3, DestIndex: 0})
	if _, err := ToDOT(bad, Options{}); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("ToDOT() dangling edge error = %v, want NOT_FOUND", err)
	}

	if _, err := ToDOT(graph.Layout{Variant: "tower"}, Options{}); !errors.Is(err, errors.ErrCodeUnsupported) {
		t.Errorf("ToDOT() unknown variant error = %v, want UNSUPPORTED", err)
	}
}

func TestFmtLabel(t *testing.T) {
	tests := []struct {
		name     string
		member   graph.Member
		detailed bool
		want     string
	}{
		{"lines", graph.Member{Label: "AddBackward0", Lines: []string{"Add", "Backward"}}, false, "Add\nBackward"},
		{"label fallback", graph.Member{Label: "Accum"}, false, "Accum"},
		{"detailed", graph.Member{Label: "Accum", Width: 2, Height: 1}, true, "Accum\n2.00 x 1.00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := fmtLabel(tt.member, tt.detailed); got != tt.want {
				t.Errorf("fmtLabel() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<svg width="10pt" height="20pt" viewBox="0.00 0.00 10.00 20.00" xmlns="http://www.w3.org/2000/svg"><g/></svg>`)
	got := string(normalizeViewBox(in))
	want := `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 10.00 20.00" width="10" height="20"><g/></svg>`
	if got != want {
		t.Errorf("normalizeViewBox() = %q, want %q", got, want)
	}

	plain := []byte("<svg><g/></svg>")
	if got := normalizeViewBox(plain); string(got) != string(plain) {
		t.Errorf("normalizeViewBox() without viewBox = %q, want unchanged", got)
	}
}
