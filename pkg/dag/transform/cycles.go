package transform

import "github.com/matzehuels/gradlayer/pkg/dag"

// BreakCycles removes the back edges found by a depth-first search and
// returns how many were removed. The search starts from source nodes in
// insertion order, then from any node not yet reached, so the result is
// deterministic for a given graph.
//
// Exported autodiff graphs are acyclic by construction; this exists for
// hand-edited or merged inputs that must still be ranked.
func BreakCycles(g *dag.Graph) int {
	const (
		white = iota
		gray
		black
	)

	color := make(map[string]int, g.NodeCount())
	var backEdges []dag.Edge

	var dfs func(id string)
	dfs = func(id string) {
		color[id] = gray
		for _, child := range g.Children(id) {
			switch color[child] {
			case white:
				dfs(child)
			case gray:
				backEdges = append(backEdges, dag.Edge{From: id, To: child})
			}
		}
		color[id] = black
	}

	for _, n := range g.Sources() {
		if color[n.ID] == white {
			dfs(n.ID)
		}
	}
	for _, id := range g.NodeIDs() {
		if color[id] == white {
			dfs(id)
		}
	}

	for _, e := range backEdges {
		g.RemoveEdge(e.From, e.To)
	}
	return len(backEdges)
}
