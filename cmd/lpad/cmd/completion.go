package cmd

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate shell completion script",
	Long: `Print a completion script for bash, zsh, fish or powershell.

Item and group arguments complete from the local store, so
"lpad launch <TAB>" lists your items.

  source <(lpad completion bash)
  lpad completion zsh > "${fpath[1]}/_lpad"
  lpad completion fish > ~/.config/fish/completions/lpad.fish
  lpad completion powershell | Out-String | Invoke-Expression`,
	DisableFlagsInUseLine: true,
	ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
	Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		switch args[0] {
		case "bash":
			return rootCmd.GenBashCompletion(os.Stdout)
		case "zsh":
			return rootCmd.GenZshCompletion(os.Stdout)
		case "fish":
			return rootCmd.GenFishCompletion(os.Stdout, true)
		case "powershell":
			return rootCmd.GenPowerShellCompletionWithDesc(os.Stdout)
		default:
			return fmt.Errorf("unsupported shell: %s", args[0])
		}
	},
}

func init() {
	rootCmd.AddCommand(completionCmd)

	for _, c := range []*cobra.Command{launchCmd, resolveCmd, itemShowCmd, itemMoveCmd, itemPasswordCmd, itemRemoveCmd} {
		c.ValidArgsFunction = completeItemNames
	}
	for _, c := range []*cobra.Command{launchGroupCmd, groupRenameCmd, groupRemoveCmd} {
		c.ValidArgsFunction = completeGroupNames
	}
}

func completeProfiles(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return []string{"local", "tailscale", "vpn", "custom"}, cobra.ShellCompDirectiveNoFileComp
}

// completeItemNames completes the first argument with item names.
func completeItemNames(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	a, err := openApp()
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	defer a.Close()

	items, err := a.store.ListItems(uuid.Nil)
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	names := make([]string, 0, len(items))
	for _, it := range items {
		names = append(names, it.Name+"\t"+string(it.Kind))
	}
	return names, cobra.ShellCompDirectiveNoFileComp
}

// completeGroupNames completes the first argument with group names.
func completeGroupNames(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	a, err := openApp()
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	defer a.Close()

	groups, err := a.store.ListGroups()
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	names := make([]string, 0, len(groups))
	for _, g := range groups {
		names = append(names, g.Name)
	}
	return names, cobra.ShellCompDirectiveNoFileComp
}
