package dag

import (
	"maps"
	"slices"
)

// CountCrossings returns the total number of edge crossings for the given
// rank rows. It sums the crossings between each pair of consecutive ranks.
// The rows map should contain node IDs in left-to-right (or top-to-bottom)
// order for each rank. Ranks without entries are treated as empty.
//
// Edges that skip a rank are not counted: they do not connect consecutive
// rows and their crossings depend on how a renderer routes them.
func CountCrossings(g *Graph, rows map[int][]string) int {
	ranks := slices.Sorted(maps.Keys(rows))
	crossings := 0
	for i := 0; i < len(ranks)-1; i++ {
		r := ranks[i]
		crossings += CountLayerCrossings(g, rows[r], rows[r+1])
	}
	return crossings
}

// CountLayerCrossings counts edge crossings between two adjacent rows using a
// Fenwick tree (binary indexed tree) for O(E log V) performance where E is the
// number of edges between the rows and V is the number of nodes in the lower row.
//
// Two edges (u1,v1) and (u2,v2) cross if and only if:
//
//	pos(u1) < pos(u2) AND pos(v1) > pos(v2)
//
// Returns 0 if either row is empty or nil.
func CountLayerCrossings(g *Graph, upper, lower []string) int {
	if len(upper) == 0 || len(lower) == 0 {
		return 0
	}

	lowerPos := PosMap(lower)

	type edge struct{ upper, lower int }
	edges := make([]edge, 0, len(upper)*2)
	for i, nodeID := range upper {
		for _, child := range g.Children(nodeID) {
			if pos, ok := lowerPos[child]; ok {
				edges = append(edges, edge{i, pos})
			}
		}
	}
	if len(edges) < 2 {
		return 0
	}

	slices.SortFunc(edges, func(a, b edge) int {
		if a.upper != b.upper {
			return a.upper - b.upper
		}
		return a.lower - b.lower
	})

	fenwick := make([]int, len(lower)+1)
	crossings, total := 0, 0
	for _, e := range edges {
		// edges seen so far with target <= e.lower
		lessOrEqual := 0
		for q := e.lower + 1; q > 0; q -= q & (-q) {
			lessOrEqual += fenwick[q]
		}
		crossings += total - lessOrEqual

		total++
		for idx := e.lower + 1; idx < len(fenwick); idx += idx & (-idx) {
			fenwick[idx]++
		}
	}
	return crossings
}
