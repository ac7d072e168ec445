package transform

import (
	"maps"
	"slices"

	"github.com/matzehuels/gradlayer/pkg/dag"
	"github.com/matzehuels/gradlayer/pkg/errors"
)

// Source is anything that can be ranked: an ordered set of node ids and an
// ordered list of edges between them. Both [dag.Graph] and the forward dual
// of the autograd package implement it.
type Source interface {
	NodeIDs() []string
	Edges() []dag.Edge
}

// Ranking maps node ids to their longest-path rank.
type Ranking struct {
	// Max is the largest rank(origin)+1 observed over all edges, or 0 for an
	// edgeless graph.
	Max int

	ranks map[string]int
	order []string // node ids sorted by rank, stable on source order
}

// Rank returns the rank of id and whether id is known.
func (r *Ranking) Rank(id string) (int, bool) {
	rank, ok := r.ranks[id]
	return rank, ok
}

// IDs returns node ids sorted ascending by rank. Ids with equal rank keep
// the order of the source's NodeIDs.
func (r *Ranking) IDs() []string { return slices.Clone(r.order) }

// Map returns a copy of the id -> rank mapping.
func (r *Ranking) Map() map[string]int { return maps.Clone(r.ranks) }

// Count returns the number of ranked ids.
func (r *Ranking) Count() int { return len(r.order) }

// Rows partitions ids by rank. Each row keeps the order of [Ranking.IDs].
func (r *Ranking) Rows() map[int][]string {
	rows := make(map[int][]string)
	for _, id := range r.order {
		rank := r.ranks[id]
		rows[rank] = append(rows[rank], id)
	}
	return rows
}

// AssignRanksOrdered assigns ranks in a single pass over the source's edges
// in the order they are given.
//
// Every node starts at rank 0. For each edge (u, v), rank(v) becomes
// max(rank(v), rank(u)+1) and Max becomes max(Max, rank(u)+1).
//
// # Precondition
//
// The pass is only correct when edges arrive in an order consistent with a
// topological sort of their origins. If an edge into u is processed after an
// edge leaving u, the later increase of rank(u) is never propagated and v is
// under-ranked. Use [AssignRanks] when the order is not known to be safe.
//
// An edge endpoint missing from NodeIDs returns NOT_FOUND.
func AssignRanksOrdered(src Source) (*Ranking, error) {
	ids := src.NodeIDs()
	return rankPass(ids, src.Edges())
}

// AssignRanks assigns longest-path ranks regardless of edge order.
//
// Edges are first stably reordered by the position of their origin in a
// topological order of the graph (Kahn's algorithm, seeded in NodeIDs
// order), then ranked with the same single pass as [AssignRanksOrdered].
// The result satisfies rank(v) >= rank(u)+1 for every edge. Edges already in
// a safe order produce exactly the ranks of the ordered pass.
//
// A cycle returns CYCLE_DETECTED. An unknown endpoint returns NOT_FOUND.
//
// Time complexity is O(V + E log E).
func AssignRanks(src Source) (*Ranking, error) {
	ids := src.NodeIDs()
	edges := src.Edges()

	position, err := topoPositions(ids, edges)
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(edges, func(a, b dag.Edge) int {
		return position[a.From] - position[b.From]
	})
	return rankPass(ids, edges)
}

func rankPass(ids []string, edges []dag.Edge) (*Ranking, error) {
	ranks := make(map[string]int, len(ids))
	for _, id := range ids {
		ranks[id] = 0
	}

	maxRank := 0
	for _, e := range edges {
		from, ok := ranks[e.From]
		if !ok {
			return nil, errors.NotFound("edge origin %q", e.From)
		}
		to, ok := ranks[e.To]
		if !ok {
			return nil, errors.NotFound("edge destination %q", e.To)
		}
		ranks[e.To] = max(to, from+1)
		maxRank = max(maxRank, from+1)
	}

	order := slices.Clone(ids)
	slices.SortStableFunc(order, func(a, b string) int { return ranks[a] - ranks[b] })

	return &Ranking{Max: maxRank, ranks: ranks, order: order}, nil
}

// topoPositions returns each id's index in a Kahn topological order.
func topoPositions(ids []string, edges []dag.Edge) (map[string]int, error) {
	inDegree := make(map[string]int, len(ids))
	for _, id := range ids {
		inDegree[id] = 0
	}
	children := make(map[string][]string, len(ids))
	for _, e := range edges {
		if _, ok := inDegree[e.From]; !ok {
			return nil, errors.NotFound("edge origin %q", e.From)
		}
		if _, ok := inDegree[e.To]; !ok {
			return nil, errors.NotFound("edge destination %q", e.To)
		}
		inDegree[e.To]++
		children[e.From] = append(children[e.From], e.To)
	}

	queue := make([]string, 0, len(ids))
	for _, id := range ids {
		if inDegree[id] == 0 {
			queue = append(queue, id)
		}
	}

	position := make(map[string]int, len(ids))
	for len(queue) > 0 {
		curr := queue[0]
		queue = queue[1:]
		position[curr] = len(position)

		for _, child := range children[curr] {
			inDegree[child]--
			if inDegree[child] == 0 {
				queue = append(queue, child)
			}
		}
	}

	if len(position) != len(inDegree) {
		for _, id := range ids {
			if _, ok := position[id]; !ok {
				return nil, errors.Cycle("node %q is part of or downstream of a cycle", id)
			}
		}
	}
	return position, nil
}
