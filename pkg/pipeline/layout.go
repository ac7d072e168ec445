package pipeline

import (
	"context"
	"strings"
	"time"

	"github.com/matzehuels/gradlayer/pkg/autograd"
	"github.com/matzehuels/gradlayer/pkg/dag"
	"github.com/matzehuels/gradlayer/pkg/dag/transform"
	"github.com/matzehuels/gradlayer/pkg/errors"
	"github.com/matzehuels/gradlayer/pkg/fit"
	"github.com/matzehuels/gradlayer/pkg/graph"
	"github.com/matzehuels/gradlayer/pkg/layer"
	"github.com/matzehuels/gradlayer/pkg/observability"
)

// =============================================================================
// Tree
// =============================================================================

// GenerateTreeLayout lays out a backward tree as a stack of alternating
// tensor and node layers and fits the stack to the canvas.
//
// In the forward direction the tree is reversed first and the stack starts
// at the dual's roots; otherwise it starts at the tree's root.
func GenerateTreeLayout(ctx context.Context, t *autograd.Tree, opts Options) (graph.Layout, error) {
	if err := opts.ValidateFor(graph.VariantTree); err != nil {
		return graph.Layout{}, err
	}
	hooks := observability.Pipeline()

	b := layer.NewBuilder(opts.Metrics)
	b.TensorKind = layer.TensorKind(opts.TensorKind)

	var (
		stack *layer.Stack
		err   error
	)
	if opts.IsForward() {
		start := time.Now()
		dual, rerr := autograd.Reverse(t)
		hooks.OnReverseComplete(ctx, dualLen(dual), time.Since(start), rerr)
		if rerr != nil {
			return graph.Layout{}, rerr
		}
		opts.Logger.Debug("reversed tree", "forward_nodes", dual.Len(), "roots", len(dual.Roots()), "duration", time.Since(start))
		stack, err = b.Forward(dual)
	} else {
		stack, err = b.Backward(t)
	}
	if err != nil {
		return graph.Layout{}, err
	}
	if err := stack.Validate(); err != nil {
		return graph.Layout{}, err
	}

	canvas := opts.Canvas()
	plan := fit.PlanBands(canvas, stack.Sizes())

	l := baseLayout(opts, canvas, plan)
	for i, slot := range stack.Layers() {
		cfg := slot.Config()
		out := graph.Layer{
			Label:      cfg.Label,
			Kind:       string(cfg.Kind),
			TensorKind: string(cfg.TensorKind),
			Scale:      plan.Slots[i].Scale,
			Members:    make([]graph.Member, 0, slot.Len()),
		}
		for _, u := range slot.Units() {
			out.Members = append(out.Members, member(u))
		}
		l.Layers = append(l.Layers, out)
	}
	for _, e := range stack.Edges() {
		l.CrossEdges = append(l.CrossEdges, graph.CrossEdge{
			SourceLayer: e.SourceLayer,
			SourceIndex: e.SourceIndex,
			DestLayer:   e.DestLayer,
			DestIndex:   e.DestIndex,
		})
	}

	if err := l.AssignID(); err != nil {
		return graph.Layout{}, err
	}
	return l, nil
}

func dualLen(d *autograd.Dual) int {
	if d == nil {
		return 0
	}
	return d.Len()
}

// =============================================================================
// Acyclic
// =============================================================================

// GenerateAcyclicLayout ranks a flat graph, groups its nodes by rank and
// fits the groups to the canvas.
//
// The input graph is never modified. In the forward direction ranking runs
// over the reversed edges, so sources of the backward graph become sinks.
// With BreakCycles set, back edges are dropped before ranking; otherwise a
// cycle returns CYCLE_DETECTED.
func GenerateAcyclicLayout(ctx context.Context, g *dag.Graph, opts Options) (graph.Layout, error) {
	if err := opts.ValidateFor(graph.VariantAcyclic); err != nil {
		return graph.Layout{}, err
	}
	if g.NodeCount() == 0 {
		return graph.Layout{}, errors.Malformed("cannot lay out an empty graph")
	}
	hooks := observability.Pipeline()

	work, err := prepareGraph(g, opts)
	if err != nil {
		return graph.Layout{}, err
	}

	start := time.Now()
	ranking, err := rank(work, opts)
	maxRank := 0
	if ranking != nil {
		maxRank = ranking.Max
	}
	hooks.OnRankComplete(ctx, maxRank, time.Since(start), err)
	if err != nil {
		return graph.Layout{}, err
	}
	opts.Logger.Debug("assigned ranks", "nodes", ranking.Count(), "max_rank", ranking.Max, "duration", time.Since(start))

	cfg := layer.Config{Kind: layer.KindNode, Direction: layer.Direction(opts.Direction)}
	groups, err := layer.GroupByRank(ranking, layer.GraphLookup(work, layer.NodeConverter(opts.Metrics), cfg))
	if err != nil {
		return graph.Layout{}, err
	}

	columns := make([][]fit.Size, len(groups))
	for i, grp := range groups {
		columns[i] = grp.Sizes()
	}
	canvas := opts.Canvas()
	plan := fit.PlanRanks(canvas, columns)

	l := baseLayout(opts, canvas, plan)
	l.MaxRank = ranking.Max
	l.Ranks = ranking.Map()
	l.Order = ranking.IDs()
	l.Crossings = dag.CountCrossings(work, ranking.Rows())
	for i, grp := range groups {
		out := graph.Group{
			Rank:    grp.Rank,
			Scale:   plan.Slots[i].Scale,
			X:       plan.Slots[i].X,
			Members: make([]graph.Member, 0, len(grp.Members)),
		}
		for _, m := range grp.Members {
			out.Members = append(out.Members, member(m.Unit))
		}
		l.Groups = append(l.Groups, out)
	}
	for _, e := range work.Edges() {
		l.Edges = append(l.Edges, graph.Edge{From: e.From, To: e.To})
	}

	if err := l.AssignID(); err != nil {
		return graph.Layout{}, err
	}
	return l, nil
}

// prepareGraph returns the graph the acyclic stages run on: the input
// itself, or a clone when the direction or cycle breaking changes edges.
func prepareGraph(g *dag.Graph, opts Options) (*dag.Graph, error) {
	if !opts.IsForward() && !opts.BreakCycles {
		return g, nil
	}
	work := g.Clone()
	if opts.IsForward() {
		if err := work.SetEdges(work.ReversedEdges()); err != nil {
			return nil, err
		}
	}
	if opts.BreakCycles {
		if n := transform.BreakCycles(work); n > 0 {
			opts.Logger.Warn("removed back edges", "count", n)
		}
	}
	return work, nil
}

func rank(g *dag.Graph, opts Options) (*transform.Ranking, error) {
	if opts.StrictOrder {
		return transform.AssignRanksOrdered(g)
	}
	return transform.AssignRanks(g)
}

// =============================================================================
// Helpers
// =============================================================================

func baseLayout(opts Options, canvas fit.Canvas, plan fit.Plan) graph.Layout {
	return graph.Layout{
		Variant:         opts.Variant,
		Direction:       opts.Direction,
		Width:           opts.Width,
		Height:          opts.Height,
		TotalWidth:      canvas.TotalWidth,
		MaxHeight:       canvas.MaxHeight,
		HorizontalScale: plan.Horizontal,
		SlotWidth:       plan.SlotWidth,
		Spacing:         plan.Spacing,
	}
}

// member converts a unit to its serialized form.
func member(u layer.Unit) graph.Member {
	size := u.Size()
	m := graph.Member{ID: u.Key(), Width: size.Width, Height: size.Height}
	switch v := u.(type) {
	case layer.NodeUnit:
		m.Label = v.Label
		m.Lines = v.Lines
	case layer.TensorUnit:
		m.Label = strings.Join(v.Caption, " ")
		m.Lines = v.Caption
	default:
		m.Label = u.Key()
	}
	return m
}

// nodeCount returns the node count an input reports to hooks and stats.
func nodeCount(in Input) (int, error) {
	if in.Tree == nil && in.Graph == nil {
		return 0, errors.New(errors.ErrCodeInvalidInput, "pipeline input is empty")
	}
	return in.NodeCount(), nil
}
