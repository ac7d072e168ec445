package cli

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/gradlayer/pkg/errors"
	"github.com/matzehuels/gradlayer/pkg/pipeline"
)

// inspectCommand creates the inspect command, an interactive layout browser.
func (c *CLI) inspectCommand() *cobra.Command {
	var (
		flags   layoutFlags
		noCache bool
		plain   bool
	)

	cmd := &cobra.Command{
		Use:   "inspect [input]",
		Short: "Browse a layout interactively",
		Long: `Browse a layout interactively.

The input is a layout file written by 'layout' or any input 'layout' accepts.
Each row is a tree layer or an acyclic rank group; the selected row's members
are listed with their natural and fitted sizes. --plain prints the first
screen and exits, for terminals without interactive support.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runInspect(cmd.Context(), args[0], c.options(cmd, &flags), noCache, plain)
		},
	}

	flags.register(cmd.Flags())
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&plain, "plain", false, "print without starting the interactive view")

	return cmd
}

func (c *CLI) runInspect(ctx context.Context, input string, opts pipeline.Options, noCache, plain bool) error {
	l, err := c.resolveLayout(ctx, input, opts, noCache)
	if err != nil {
		return err
	}

	model := NewLayoutModel(l)
	if plain {
		fmt.Println(model.View())
		return nil
	}

	p := tea.NewProgram(model, tea.WithContext(ctx), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "run inspector")
	}
	return nil
}
