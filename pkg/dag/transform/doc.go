// Package transform assigns ranks to graph nodes and prepares graphs for
// ranking.
//
// # Rank Assignment
//
// A node's rank is its longest-path distance from any source. Ranks decide
// which horizontal slot a node is drawn in: every edge must point from a
// lower rank to a strictly higher one.
//
// Two entry points compute ranks over any [Source]:
//
//   - [AssignRanksOrdered] makes one pass over the edges in the order given.
//     It is exact only when that order is topological.
//   - [AssignRanks] reorders edges topologically first and is exact for any
//     acyclic input. Cyclic input returns CYCLE_DETECTED.
//
// Both return a [Ranking] whose ids iterate in ascending rank order:
//
//	r, err := transform.AssignRanks(g)
//	for _, id := range r.IDs() {
//	    rank, _ := r.Rank(id)
//	    fmt.Println(id, rank)
//	}
//
// # Cycle Breaking
//
// [BreakCycles] removes DFS back edges from a flat graph so that it can be
// ranked. It is optional and never applied implicitly.
package transform
