package cli

import (
	"context"
	"fmt"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/matzehuels/gradlayer/pkg/errors"
	"github.com/matzehuels/gradlayer/pkg/pipeline"
)

// layoutCommand creates the layout command for computing layouts.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		flags      layoutFlags
		output     string
		formatsStr string
		noCache    bool
		refresh    bool
	)

	cmd := &cobra.Command{
		Use:   "layout [input]",
		Short: "Compute a layered layout from an autograd graph",
		Long: `Compute a layered layout from an autograd graph.

The input is either a tree document ({"root": ...}) or a directory exported
by an acyclic graph dump (tensors/, nodes/, graph_acyclic.json). A file is
read as a tree unless --variant acyclic is given, in which case it is read
as a single-document acyclic graph.

The JSON layout is written to <input>.layout.json; other formats are written
next to it. Results are cached locally for faster subsequent runs.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := c.options(cmd, &flags)
			opts.Formats = parseFormats(formatsStr)
			opts.Refresh = refresh
			if err := pipeline.ValidateFormats(opts.Formats); err != nil {
				return err
			}
			return c.runLayout(cmd.Context(), args[0], opts, output, noCache)
		},
	}

	flags.register(cmd.Flags())
	cmd.Flags().StringVarP(&output, "output", "o", "", "output base path (default: input path without extension)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): json (default), dot, svg, png (comma-separated)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "recompute even when a cached layout exists")

	return cmd
}

// runLayout loads the input, computes the layout, and writes every artifact.
func (c *CLI) runLayout(ctx context.Context, input string, opts pipeline.Options, output string, noCache bool) error {
	spinner := newSpinner(ctx, os.Stderr, fmt.Sprintf("Reading %s...", input))
	defer spinner.Attach()()
	spinner.Start()
	defer spinner.Stop()

	in, err := pipeline.Load(ctx, input, opts)
	if err != nil {
		spinner.StopWithError("Load failed")
		return err
	}

	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		spinner.Stop()
		return errors.Wrap(errors.GetCode(err), err, "initialize runner")
	}
	defer runner.Close()

	result, err := runner.Execute(ctx, in, opts)
	if err != nil {
		spinner.StopWithError("Layout failed")
		return err
	}
	spinner.Stop()

	if spinner.Cancelled() || ctx.Err() != nil {
		return ctx.Err()
	}

	base := output
	if base == "" {
		base = outputBase(input)
	}
	paths, err := writeArtifacts(base, result.Artifacts)
	if err != nil {
		return err
	}

	printSuccess("Layout complete")
	for _, p := range paths {
		printFile(p)
	}
	printStats(result.Stats, result.CacheInfo.LayoutHit)
	if p, ok := jsonPath(base, result.Artifacts); ok {
		printNewline()
		printNextStep("Inspect", appName+" inspect "+p)
	}
	return nil
}

// artifactPath names the file for one format: the layout document gets a
// ".layout.json" suffix, previews their format extension.
func artifactPath(base, format string) string {
	if format == pipeline.FormatJSON {
		return base + ".layout.json"
	}
	return base + "." + format
}

func jsonPath(base string, artifacts map[string][]byte) (string, bool) {
	if _, ok := artifacts[pipeline.FormatJSON]; !ok {
		return "", false
	}
	return artifactPath(base, pipeline.FormatJSON), true
}

// writeArtifacts writes each artifact and returns the paths in format order.
func writeArtifacts(base string, artifacts map[string][]byte) ([]string, error) {
	formats := make([]string, 0, len(artifacts))
	for f := range artifacts {
		formats = append(formats, f)
	}
	slices.Sort(formats)

	paths := make([]string, 0, len(formats))
	for _, f := range formats {
		p := artifactPath(base, f)
		if err := os.WriteFile(p, artifacts[f], 0o644); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "write %s", p)
		}
		paths = append(paths, p)
	}
	return paths, nil
}
