package cli

import (
	"bytes"
	"context"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/matzehuels/gradlayer/pkg/autograd"
	"github.com/matzehuels/gradlayer/pkg/errors"
	"github.com/matzehuels/gradlayer/pkg/graph"
	pkgio "github.com/matzehuels/gradlayer/pkg/io"
)

// reverseCommand creates the reverse command, which converts a backward tree
// into the forward graph it was recorded from.
func (c *CLI) reverseCommand() *cobra.Command {
	var (
		output  string
		flatten string
	)

	cmd := &cobra.Command{
		Use:   "reverse [tree.json]",
		Short: "Convert a backward tree into its forward graph",
		Long: `Convert a backward tree into its forward graph.

Each backward operation becomes the forward operation that produced it,
leaves become creation nodes and a single sink collects the outputs. The
forward graph is written as JSON to --output, or stdout when --output is "-".

With --flatten DIR the backward tree itself is also written to DIR in the
exported acyclic layout (tensors/, nodes/, graph_acyclic.json), ready for
'layout DIR'.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runReverse(cmd.Context(), args[0], output, flatten)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.forward.json, - for stdout)")
	cmd.Flags().StringVar(&flatten, "flatten", "", "also export the backward tree as an acyclic graph directory")

	return cmd
}

func (c *CLI) runReverse(ctx context.Context, input, output, flatten string) error {
	t, err := pkgio.ImportTree(input)
	if err != nil {
		return err
	}

	prog := newProgress(c.Logger)
	dual, err := autograd.Reverse(t)
	if err != nil {
		return err
	}
	prog.done("reversed", "backward_nodes", t.Reachable(), "roots", len(dual.Roots()))

	var buf bytes.Buffer
	if err := graph.WriteGraph(graph.FromDual(dual), &buf); err != nil {
		return err
	}

	if output == "-" {
		_, err := os.Stdout.Write(buf.Bytes())
		return err
	}
	if output == "" {
		output = outputBase(input) + ".forward.json"
	}
	if err := os.WriteFile(output, buf.Bytes(), 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "write %s", output)
	}

	printSuccess("Forward graph written")
	printFile(output)
	printKeyValue("Nodes", strconv.Itoa(dual.Len()))
	printKeyValue("Edges", strconv.Itoa(len(dual.Edges())))

	if flatten != "" {
		g, err := autograd.Flatten(t)
		if err != nil {
			return err
		}
		if err := pkgio.ExportAcyclicDir(g, flatten); err != nil {
			return err
		}
		printSuccess("Backward graph exported")
		printFile(flatten)
		printNewline()
		printNextStep("Lay out", appName+" layout "+flatten)
	}
	return nil
}
