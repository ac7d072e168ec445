package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/gradlayer/pkg/config"
	"github.com/matzehuels/gradlayer/pkg/graph"
	"github.com/matzehuels/gradlayer/pkg/pipeline"
)

// completionCommand creates the completion command for generating shell completions.
func (c *CLI) completionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for gradlayer.

Bash:
  $ source <(gradlayer completion bash)

Zsh:
  $ gradlayer completion zsh > "${fpath[1]}/_gradlayer"

Fish:
  $ gradlayer completion fish > ~/.config/fish/completions/gradlayer.fish

PowerShell:
  PS> gradlayer completion powershell | Out-String | Invoke-Expression

Flag values such as --variant, --direction and --format complete too.
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletionV2(out, true)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			}
			return nil
		},
	}
}

// flagValues lists the fixed values offered for each enumerated flag.
var flagValues = map[string][]string{
	"variant":   {graph.VariantTree, graph.VariantAcyclic},
	"direction": {graph.DirectionBackward, graph.DirectionForward},
	"tensor":    {"origin", "gradient"},
	"format":    {pipeline.FormatJSON, pipeline.FormatDOT, pipeline.FormatSVG, pipeline.FormatPNG},
	"store":     {config.StoreMemory, config.StoreMongo},
}

// registerFlagCompletions attaches value completion to every enumerated
// flag defined on cmd. Flags cmd does not define are skipped.
func registerFlagCompletions(cmd *cobra.Command) {
	for name, values := range flagValues {
		if cmd.Flags().Lookup(name) == nil {
			continue
		}
		_ = cmd.RegisterFlagCompletionFunc(name, cobra.FixedCompletions(values, cobra.ShellCompDirectiveNoFileComp))
	}
}
