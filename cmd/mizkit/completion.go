// SPDX-License-Identifier: MPL-2.0

package main

import (
	"github.com/spf13/cobra"
)

// newCompletionCommand creates the `mizkit completion` command.
func newCompletionCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for mizkit.

` + SubtitleStyle.Render("Bash:") + `
  eval "$(mizkit completion bash)"

` + SubtitleStyle.Render("Zsh:") + `
  mizkit completion zsh > "${fpath[1]}/_mizkit"

` + SubtitleStyle.Render("Fish:") + `
  mizkit completion fish > ~/.config/fish/completions/mizkit.fish

` + SubtitleStyle.Render("PowerShell:") + `
  mizkit completion powershell | Out-String | Invoke-Expression
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(app.stdout)
			case "zsh":
				return cmd.Root().GenZshCompletion(app.stdout)
			case "fish":
				return cmd.Root().GenFishCompletion(app.stdout, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(app.stdout)
			}
			return nil
		},
	}
}
