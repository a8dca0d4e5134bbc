// Package completion provides shell completion generation commands.
package completion

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

type shell struct {
	install string
	gen     func(root *cobra.Command, w io.Writer) error
}

var shells = map[string]shell{
	"bash": {
		install: "sheetmerge completion bash > /etc/bash_completion.d/sheetmerge",
		gen:     func(root *cobra.Command, w io.Writer) error { return root.GenBashCompletionV2(w, true) },
	},
	"zsh": {
		install: "sheetmerge completion zsh > ~/.zsh/completions/_sheetmerge",
		gen:     func(root *cobra.Command, w io.Writer) error { return root.GenZshCompletion(w) },
	},
	"fish": {
		install: "sheetmerge completion fish > ~/.config/fish/completions/sheetmerge.fish",
		gen:     func(root *cobra.Command, w io.Writer) error { return root.GenFishCompletion(w, true) },
	},
	"powershell": {
		install: "sheetmerge completion powershell >> $PROFILE",
		gen:     func(root *cobra.Command, w io.Writer) error { return root.GenPowerShellCompletionWithDesc(w) },
	},
}

// NewCommand returns the completion command.
func NewCommand(rootCmd *cobra.Command) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completions",
		Long: `Generate shell completion scripts for sheetmerge.

Install instructions:
  Bash:       sheetmerge completion bash > /etc/bash_completion.d/sheetmerge
              echo 'source <(sheetmerge completion bash)' >> ~/.bashrc
  Zsh:        sheetmerge completion zsh > ~/.zsh/completions/_sheetmerge
  Fish:       sheetmerge completion fish > ~/.config/fish/completions/sheetmerge.fish
  PowerShell: sheetmerge completion powershell >> $PROFILE`,
		ValidArgs: []string{"bash", "zsh", "fish", "powershell"},
		Args:      cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return Write(rootCmd, cmd.OutOrStdout(), args[0])
		},
	}
	return cmd
}

// Write writes the completion script for the named shell, preceded by a
// comment with install instructions.
func Write(root *cobra.Command, w io.Writer, name string) error {
	sh, ok := shells[name]
	if !ok {
		return fmt.Errorf("unsupported shell: %s (supported: bash, zsh, fish, powershell)", name)
	}
	fmt.Fprintf(w, "# sheetmerge %s completion\n# Install: %s\n\n", name, sh.install)
	return sh.gen(root, w)
}
