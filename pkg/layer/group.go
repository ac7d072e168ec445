package layer

import (
	"github.com/matzehuels/gradlayer/pkg/autograd"
	"github.com/matzehuels/gradlayer/pkg/dag"
	"github.com/matzehuels/gradlayer/pkg/dag/transform"
	"github.com/matzehuels/gradlayer/pkg/fit"
)

// Member is one (id, unit) pair of a rank group.
type Member[T Unit] struct {
	ID   string
	Unit T
}

// Group is the set of units sharing one rank.
type Group[T Unit] struct {
	Rank    int
	Members []Member[T]
}

// Sizes returns each member's natural size.
func (g Group[T]) Sizes() []fit.Size {
	out := make([]fit.Size, len(g.Members))
	for i, m := range g.Members {
		out[i] = m.Unit.Size()
	}
	return out
}

// IDs returns member ids in order.
func (g Group[T]) IDs() []string {
	out := make([]string, len(g.Members))
	for i, m := range g.Members {
		out[i] = m.ID
	}
	return out
}

// GroupByRank partitions the ranking into groups ordered by ascending rank.
// Within a group, members keep the order of [transform.Ranking.IDs]. Ranks
// without members produce no group. The first lookup error aborts.
func GroupByRank[T Unit](r *transform.Ranking, lookup func(id string) (T, error)) ([]Group[T], error) {
	var groups []Group[T]
	for _, id := range r.IDs() {
		rank, _ := r.Rank(id)
		unit, err := lookup(id)
		if err != nil {
			return nil, err
		}
		if len(groups) == 0 || groups[len(groups)-1].Rank != rank {
			groups = append(groups, Group[T]{Rank: rank})
		}
		last := &groups[len(groups)-1]
		last.Members = append(last.Members, Member[T]{ID: id, Unit: unit})
	}
	return groups, nil
}

// GraphLookup returns a lookup that converts flat graph nodes to units.
// Unknown ids and missing tensors return NOT_FOUND.
func GraphLookup(g *dag.Graph, convert Converter[NodeUnit], cfg Config) func(string) (NodeUnit, error) {
	return func(id string) (NodeUnit, error) {
		n, err := g.QueryNode(id)
		if err != nil {
			return NodeUnit{}, err
		}
		origin, err := g.QueryTensor(n.OriginID)
		if err != nil {
			return NodeUnit{}, err
		}
		gradient, err := g.QueryTensor(n.GradientID)
		if err != nil {
			return NodeUnit{}, err
		}
		return convert(NodeItem{ID: n.ID, Name: n.Name, Origin: origin, Gradient: gradient}, cfg)
	}
}

// DualLookup returns a lookup that converts forward dual keys ("f-3") to
// units.
func DualLookup(d *autograd.Dual, convert Converter[NodeUnit], cfg Config) func(string) (NodeUnit, error) {
	return func(key string) (NodeUnit, error) {
		f, err := d.Lookup(key)
		if err != nil {
			return NodeUnit{}, err
		}
		n, err := d.Backward(f.ID)
		if err != nil {
			return NodeUnit{}, err
		}
		return convert(NodeItem{ID: key, Name: n.Name, Origin: n.Origin, Gradient: n.Gradient}, cfg)
	}
}
