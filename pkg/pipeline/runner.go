package pipeline

import (
	"bytes"
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/gradlayer/pkg/autograd"
	"github.com/matzehuels/gradlayer/pkg/cache"
	"github.com/matzehuels/gradlayer/pkg/dag"
	"github.com/matzehuels/gradlayer/pkg/errors"
	"github.com/matzehuels/gradlayer/pkg/graph"
	pkgio "github.com/matzehuels/gradlayer/pkg/io"
	"github.com/matzehuels/gradlayer/pkg/observability"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and server use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs the layout and render stages over a loaded input.
func (r *Runner) Execute(ctx context.Context, in Input, opts Options) (*Result, error) {
	n, err := nodeCount(in)
	if err != nil {
		return nil, err
	}
	r.applyLogger(&opts)
	if err := opts.ValidateFor(in.Variant()); err != nil {
		return nil, err
	}

	result := &Result{Artifacts: make(map[string][]byte)}
	result.Stats.NodeCount = n

	// Stage 1: Layout
	layoutStart := time.Now()
	var (
		layout graph.Layout
		hit    bool
	)
	if in.Tree != nil {
		layout, result.InputHash, hit, err = r.layoutTree(ctx, in.Tree, opts)
	} else {
		layout, result.InputHash, hit, err = r.layoutAcyclic(ctx, in.Graph, opts)
	}
	if err != nil {
		return nil, err
	}
	result.Layout = layout
	result.Stats.LayoutTime = time.Since(layoutStart)
	result.Stats.LayerCount = len(layout.Layers) + len(layout.Groups)
	result.Stats.MaxRank = layout.MaxRank
	result.Stats.Crossings = layout.Crossings
	result.CacheInfo.LayoutHit = hit

	r.Logger.Info("computed layout",
		"variant", layout.Variant,
		"direction", layout.Direction,
		"layers", result.Stats.LayerCount,
		"cached", hit,
		"duration", result.Stats.LayoutTime)

	// Stage 2: Render
	renderStart := time.Now()
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, layout, opts)
	if err != nil {
		return nil, err
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"cached", renderHit,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// LayoutTree lays out a backward tree with caching.
func (r *Runner) LayoutTree(ctx context.Context, t *autograd.Tree, opts Options) (graph.Layout, error) {
	l, _, _, err := r.layoutTree(ctx, t, opts)
	return l, err
}

// LayoutAcyclic lays out a flat graph with caching.
func (r *Runner) LayoutAcyclic(ctx context.Context, g *dag.Graph, opts Options) (graph.Layout, error) {
	l, _, _, err := r.layoutAcyclic(ctx, g, opts)
	return l, err
}

func (r *Runner) layoutTree(ctx context.Context, t *autograd.Tree, opts Options) (graph.Layout, string, bool, error) {
	if t == nil {
		return graph.Layout{}, "", false, errors.New(errors.ErrCodeInvalidInput, "tree is nil")
	}
	r.applyLogger(&opts)
	if err := opts.ValidateFor(graph.VariantTree); err != nil {
		return graph.Layout{}, "", false, err
	}

	var buf bytes.Buffer
	if err := pkgio.WriteTree(t, &buf); err != nil {
		return graph.Layout{}, "", false, err
	}
	return r.cachedLayout(ctx, buf.Bytes(), t.Reachable(), opts, func() (graph.Layout, error) {
		return GenerateTreeLayout(ctx, t, opts)
	})
}

func (r *Runner) layoutAcyclic(ctx context.Context, g *dag.Graph, opts Options) (graph.Layout, string, bool, error) {
	if g == nil {
		return graph.Layout{}, "", false, errors.New(errors.ErrCodeInvalidInput, "graph is nil")
	}
	r.applyLogger(&opts)
	if err := opts.ValidateFor(graph.VariantAcyclic); err != nil {
		return graph.Layout{}, "", false, err
	}

	var buf bytes.Buffer
	if err := pkgio.WriteAcyclic(g, &buf); err != nil {
		return graph.Layout{}, "", false, err
	}
	return r.cachedLayout(ctx, buf.Bytes(), g.NodeCount(), opts, func() (graph.Layout, error) {
		return GenerateAcyclicLayout(ctx, g, opts)
	})
}

// cachedLayout looks up the layout of an encoded input, computing and
// storing it on a miss. It returns the input hash and whether the cache hit.
func (r *Runner) cachedLayout(ctx context.Context, input []byte, nodes int, opts Options, compute func() (graph.Layout, error)) (graph.Layout, string, bool, error) {
	inputHash := cache.Hash(input)
	cacheKey := r.Keyer.LayoutKey(inputHash, opts.LayoutKeyOpts())

	// Try cache first (unless refresh requested)
	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			cached, err := graph.UnmarshalLayout(data)
			if err == nil {
				observability.Cache().OnCacheHit(ctx, "layout")
				return cached, inputHash, true, nil // Cache hit
			}
			// If deserialization fails, fall through to recompute
			opts.Logger.Warn("discarding unreadable cached layout", "key", cacheKey, "error", err)
		} else if err != nil {
			opts.Logger.Warn("cache read failed", "key", cacheKey, "error", err)
		}
		observability.Cache().OnCacheMiss(ctx, "layout")
	}

	hooks := observability.Pipeline()
	hooks.OnLayoutStart(ctx, opts.Variant, nodes)
	start := time.Now()
	layout, err := compute()
	hooks.OnLayoutComplete(ctx, opts.Variant, time.Since(start), err)
	if err != nil {
		return graph.Layout{}, inputHash, false, err
	}

	// Cache the result
	if data, err := graph.MarshalLayout(layout); err == nil {
		if err := r.Cache.Set(ctx, cacheKey, data, cache.LayoutTTL); err != nil {
			opts.Logger.Warn("cache write failed", "key", cacheKey, "error", err)
		} else {
			observability.Cache().OnCacheSet(ctx, "layout", len(data))
		}
	}

	return layout, inputHash, false, nil // Cache miss
}

// RenderWithCacheInfo generates artifacts with caching and returns cache hit info.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, layout graph.Layout, opts Options) (map[string][]byte, bool, error) {
	r.applyLogger(&opts)
	opts.Variant = layout.Variant
	if err := opts.Validate(); err != nil {
		return nil, false, err
	}

	// Compute cache key from layout content
	layoutHash, err := layout.Fingerprint()
	if err != nil {
		return nil, false, err
	}

	// Try to get all formats from cache
	allCached := true
	artifacts := make(map[string][]byte)

	for _, format := range opts.Formats {
		cacheKey := r.Keyer.ArtifactKey(layoutHash, opts.ArtifactKeyOpts(format))
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			artifacts[format] = data
		} else {
			allCached = false
			break
		}
	}

	if allCached && len(artifacts) == len(opts.Formats) {
		observability.Cache().OnCacheHit(ctx, "artifact")
		return artifacts, true, nil // All artifacts from cache
	}
	observability.Cache().OnCacheMiss(ctx, "artifact")

	// Render all formats
	rendered, err := Render(ctx, layout, opts)
	if err != nil {
		return nil, false, err
	}

	// Cache each format
	for format, data := range rendered {
		cacheKey := r.Keyer.ArtifactKey(layoutHash, opts.ArtifactKeyOpts(format))
		if err := r.Cache.Set(ctx, cacheKey, data, cache.LayoutTTL); err == nil {
			observability.Cache().OnCacheSet(ctx, "artifact", len(data))
		}
	}

	return rendered, false, nil // Cache miss
}

// Render is a convenience wrapper that calls RenderWithCacheInfo and discards the cache hit info.
func (r *Runner) Render(ctx context.Context, layout graph.Layout, opts Options) (map[string][]byte, error) {
	artifacts, _, err := r.RenderWithCacheInfo(ctx, layout, opts)
	return artifacts, err
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
