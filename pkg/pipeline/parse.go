package pipeline

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/matzehuels/gradlayer/pkg/errors"
	"github.com/matzehuels/gradlayer/pkg/graph"
	pkgio "github.com/matzehuels/gradlayer/pkg/io"
	"github.com/matzehuels/gradlayer/pkg/observability"
)

// Load reads a pipeline input from path.
//
// A directory is read as an exported acyclic graph (tensors/, nodes/ and
// graph_acyclic.json). A file is read as a tree document, unless
// opts.Variant is "acyclic", in which case it is read as the single-document
// acyclic form. An explicit tree variant with a directory path is rejected
// with INVALID_INPUT.
func Load(ctx context.Context, path string, opts Options) (Input, error) {
	if err := errors.ValidatePath(path); err != nil {
		return Input{}, err
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Input{}, errors.Wrap(errors.ErrCodeNotFound, err, "input %s", path)
		}
		return Input{}, errors.Wrap(errors.ErrCodeInternal, err, "stat %s", path)
	}

	variant := opts.Variant
	if variant == "" {
		variant = graph.VariantTree
		if info.IsDir() {
			variant = graph.VariantAcyclic
		}
	}
	if err := ValidateVariant(variant); err != nil {
		return Input{}, err
	}
	if info.IsDir() && variant == graph.VariantTree {
		return Input{}, errors.New(errors.ErrCodeInvalidInput, "%s is a directory; tree inputs are single files", path)
	}

	return loadWith(ctx, variant, opts, func() (Input, error) {
		switch {
		case variant == graph.VariantTree:
			t, err := pkgio.ImportTree(path)
			return Input{Tree: t}, err
		case info.IsDir():
			g, err := pkgio.ImportAcyclicDir(path)
			return Input{Graph: g}, err
		default:
			f, err := os.Open(path)
			if err != nil {
				return Input{}, errors.Wrap(errors.ErrCodeInternal, err, "open %s", path)
			}
			defer f.Close()
			g, err := pkgio.ReadAcyclic(f)
			if err != nil {
				return Input{}, errors.Wrap(errors.GetCode(err), err, "%s", path)
			}
			return Input{Graph: g}, nil
		}
	})
}

// Decode reads a pipeline input of the given variant from r. The server
// uses it for request bodies.
func Decode(ctx context.Context, variant string, r io.Reader, opts Options) (Input, error) {
	if err := ValidateVariant(variant); err != nil {
		return Input{}, err
	}
	return loadWith(ctx, variant, opts, func() (Input, error) {
		if variant == graph.VariantTree {
			t, err := pkgio.ReadTree(r)
			return Input{Tree: t}, err
		}
		g, err := pkgio.ReadAcyclic(r)
		return Input{Graph: g}, err
	})
}

// loadWith runs a loader between the load hooks and logs its outcome.
func loadWith(ctx context.Context, variant string, opts Options, load func() (Input, error)) (Input, error) {
	hooks := observability.Pipeline()
	hooks.OnLoadStart(ctx, variant)
	start := time.Now()

	in, err := load()
	n := 0
	if err == nil {
		n = in.NodeCount()
	}
	hooks.OnLoadComplete(ctx, variant, n, time.Since(start), err)
	if err != nil {
		return Input{}, err
	}
	if opts.Logger != nil {
		opts.Logger.Debug("loaded input", "variant", variant, "nodes", n, "duration", time.Since(start))
	}
	return in, nil
}
