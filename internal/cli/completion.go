package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/logtower/pkg/pipeline"
)

// completionCommand creates the completion command for generating shell completions.
func (c *CLI) completionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for logtower.

To load completions:

Bash:
  $ source <(logtower completion bash)

  # To load completions for each session, execute once:
  # Linux:
  $ logtower completion bash > /etc/bash_completion.d/logtower
  # macOS:
  $ logtower completion bash > $(brew --prefix)/etc/bash_completion.d/logtower

Zsh:
  # If shell completion is not already enabled in your environment,
  # you will need to enable it. You can execute the following once:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  # To load completions for each session, execute once:
  $ logtower completion zsh > "${fpath[1]}/_logtower"

  # You will need to start a new shell for this setup to take effect.

Fish:
  $ logtower completion fish | source

  # To load completions for each session, execute once:
  $ logtower completion fish > ~/.config/fish/completions/logtower.fish

PowerShell:
  PS> logtower completion powershell | Out-String | Invoke-Expression

  # To load completions for every new session, run:
  PS> logtower completion powershell > logtower.ps1
  # and source this file from your PowerShell profile.
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(c.out)
			case "zsh":
				return cmd.Root().GenZshCompletion(c.out)
			case "fish":
				return cmd.Root().GenFishCompletion(c.out, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(c.out)
			}
			return nil
		},
	}

	return cmd
}

// completeRefs completes the <branch>/<commit> argument with the ref names
// of the working directory's repository.
func (c *CLI) completeRefs(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveDefault
	}
	l, err := pipeline.Load(cmd.Context(), baseOptions("."))
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	var names []string
	for _, r := range l.Refs {
		if strings.HasPrefix(r.Name, toComplete) {
			names = append(names, r.Name)
		}
	}
	return names, cobra.ShellCompDirectiveNoFileComp
}
