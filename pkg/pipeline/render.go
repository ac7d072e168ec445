package pipeline

import (
	"context"
	"time"

	"github.com/matzehuels/gradlayer/pkg/errors"
	"github.com/matzehuels/gradlayer/pkg/graph"
	"github.com/matzehuels/gradlayer/pkg/observability"
	"github.com/matzehuels/gradlayer/pkg/render/nodelink"
)

// PNGScale is the resolution multiplier for PNG previews.
const PNGScale = 2.0

// Render generates output artifacts in the requested formats.
//
// JSON is the layout document itself. DOT, SVG and PNG are node-link
// previews of it; the DOT source is generated once and shared.
func Render(ctx context.Context, l graph.Layout, opts Options) (map[string][]byte, error) {
	if err := ValidateFormats(opts.Formats); err != nil {
		return nil, err
	}
	hooks := observability.Pipeline()

	var dot string
	dotFor := func() (string, error) {
		if dot != "" {
			return dot, nil
		}
		var err error
		dot, err = nodelink.ToDOT(l, nodelink.Options{})
		return dot, err
	}

	artifacts := make(map[string][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		hooks.OnRenderStart(ctx, format)
		start := time.Now()

		data, err := renderFormat(ctx, l, format, dotFor)
		hooks.OnRenderComplete(ctx, format, time.Since(start), err)
		if err != nil {
			return nil, errors.Wrap(errors.GetCode(err), err, "render %s", format)
		}
		artifacts[format] = data
	}

	return artifacts, nil
}

func renderFormat(ctx context.Context, l graph.Layout, format string, dotFor func() (string, error)) ([]byte, error) {
	if format == FormatJSON {
		return graph.MarshalLayout(l)
	}

	dot, err := dotFor()
	if err != nil {
		return nil, err
	}
	switch format {
	case FormatDOT:
		return []byte(dot), nil
	case FormatSVG:
		return nodelink.RenderSVG(ctx, dot)
	case FormatPNG:
		return nodelink.RenderPNG(ctx, dot, PNGScale)
	default:
		return nil, errors.New(errors.ErrCodeUnsupported, "unsupported format: %s", format)
	}
}
