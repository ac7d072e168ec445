package cli

import (
	"context"
	"strings"

	"github.com/matzehuels/gradlayer/pkg/graph"
	"github.com/matzehuels/gradlayer/pkg/pipeline"
)

// layoutSuffix marks files that already hold a layout document.
const layoutSuffix = ".layout.json"

// isLayoutFile reports whether path names a layout written by 'layout'.
func isLayoutFile(path string) bool {
	return strings.HasSuffix(path, layoutSuffix)
}

// resolveLayout reads path as a layout document when it is one, and
// otherwise loads it as an input and lays it out through the cache.
func (c *CLI) resolveLayout(ctx context.Context, path string, opts pipeline.Options, noCache bool) (graph.Layout, error) {
	if isLayoutFile(path) {
		return graph.ReadLayoutFile(path)
	}

	in, err := pipeline.Load(ctx, path, opts)
	if err != nil {
		return graph.Layout{}, err
	}
	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return graph.Layout{}, err
	}
	defer runner.Close()

	if in.Tree != nil {
		return runner.LayoutTree(ctx, in.Tree, opts)
	}
	return runner.LayoutAcyclic(ctx, in.Graph, opts)
}
