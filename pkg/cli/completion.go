package cli

import (
	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
)

var completionCmd = &cobra.Command{
	Use:   "completion <shell>",
	Short: "Generate shell completion scripts",
	Long: `Generate shell completion scripts.

Supported shells: bash, zsh, fish, powershell`,
	Example: `  # Bash (add to ~/.bashrc or /etc/bash_completion.d/)
  pesh completion bash > /etc/bash_completion.d/pesh

  # Zsh (add to fpath)
  pesh completion zsh > "${fpath[1]}/_pesh"

  # Fish
  pesh completion fish > ~/.config/fish/completions/pesh.fish`,
	Args:                  cobra.ExactArgs(1),
	ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
	DisableFlagsInUseLine: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		w := cmd.OutOrStdout()
		root := cmd.Root()
		switch args[0] {
		case "bash":
			return root.GenBashCompletionV2(w, true)
		case "zsh":
			return root.GenZshCompletion(w)
		case "fish":
			return root.GenFishCompletion(w, true)
		case "powershell":
			return root.GenPowerShellCompletionWithDesc(w)
		default:
			return errors.Newf("unknown shell: %s\n\nSupported shells: bash, zsh, fish, powershell", args[0])
		}
	},
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.AddCommand(completionCmd)
}
