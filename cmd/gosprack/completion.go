package main

import (
	"os"

	"github.com/spf13/cobra"
)

var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish]",
	Short: "Generate shell completion script",
	Long: `Generate shell completion script for gosprack.

To load completions:

Bash:

  $ source <(gosprack completion bash)

  To load completions for each session, execute once:
  Linux:
    $ gosprack completion bash > /etc/bash_completion.d/gosprack
  macOS:
    $ gosprack completion bash > /usr/local/etc/bash_completion.d/gosprack

Zsh:

  If shell completion is not already enabled in your environment,
  you will need to enable it. You can execute the following once:

  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  To load completions for each session, execute once:
  $ gosprack completion zsh > "${fpath[1]}/_gosprack"

  You will need to start a new shell for this setup to take effect.

Fish:

  $ gosprack completion fish | source

  To load completions for each session, execute once:
  $ gosprack completion fish > ~/.config/fish/completions/gosprack.fish
`,
	DisableFlagsInUseLine: true,
	ValidArgs:             []string{"bash", "zsh", "fish"},
	Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	PersistentPreRunE:     func(*cobra.Command, []string) error { return nil },
	RunE: func(cmd *cobra.Command, args []string) error {
		switch args[0] {
		case "bash":
			return rootCmd.GenBashCompletion(os.Stdout)
		case "zsh":
			return rootCmd.GenZshCompletion(os.Stdout)
		case "fish":
			return rootCmd.GenFishCompletion(os.Stdout, true)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(completionCmd)
}
