package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/gradlayer/pkg/errors"
	"github.com/matzehuels/gradlayer/pkg/pipeline"
	"github.com/matzehuels/gradlayer/pkg/render/nodelink"
)

// dotCommand creates the dot command for node-link previews.
func (c *CLI) dotCommand() *cobra.Command {
	var (
		flags    layoutFlags
		output   string
		detailed bool
		noCache  bool
	)

	cmd := &cobra.Command{
		Use:   "dot [input]",
		Short: "Print or render a node-link preview of a layout",
		Long: `Print or render a node-link preview of a layout.

The input is a layout file written by 'layout' or any input 'layout' accepts.
Without --output the Graphviz DOT source is printed. With --output the
format follows the extension: .dot, .svg or .png (PNG needs rsvg-convert).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runDOT(cmd.Context(), args[0], c.options(cmd, &flags), output, detailed, noCache)
		},
	}

	flags.register(cmd.Flags())
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (.dot, .svg, .png)")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "append natural member sizes to labels")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}

func (c *CLI) runDOT(ctx context.Context, input string, opts pipeline.Options, output string, detailed, noCache bool) error {
	l, err := c.resolveLayout(ctx, input, opts, noCache)
	if err != nil {
		return err
	}
	dot, err := nodelink.ToDOT(l, nodelink.Options{Detailed: detailed})
	if err != nil {
		return err
	}
	if output == "" {
		fmt.Print(dot)
		return nil
	}

	var data []byte
	switch format := strings.TrimPrefix(filepath.Ext(output), "."); format {
	case pipeline.FormatDOT:
		data = []byte(dot)
	case pipeline.FormatSVG:
		data, err = nodelink.RenderSVG(ctx, dot)
	case pipeline.FormatPNG:
		data, err = nodelink.RenderPNG(ctx, dot, pipeline.PNGScale)
	default:
		return errors.New(errors.ErrCodeInvalidInput, "unsupported output extension %q (use .dot, .svg or .png)", filepath.Ext(output))
	}
	if err != nil {
		return err
	}
	if err := os.WriteFile(output, data, 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "write %s", output)
	}

	printSuccess("Preview written")
	printFile(output)
	return nil
}
