package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/aardel/launchpad/internal/launcher"
	"github.com/aardel/launchpad/internal/platform"
	"github.com/aardel/launchpad/internal/vault"
)

// scriptFlushTimeout bounds how long the CLI waits at exit for a terminal to
// consume its SSH password script.
const scriptFlushTimeout = 15 * time.Second

var launchOpts launchFlags

var launchCmd = &cobra.Command{
	Use:   "launch ITEM",
	Short: "Open an item",
	Long: `Open a bookmark in the browser, an SSH host in a terminal, an app, or copy
a stored password to the clipboard.

Stored passwords need the master password. It is read from
LAUNCHPAD_PASSWORD or prompted for; without either the item opens without it.

Examples:
  lpad launch grafana
  lpad launch nas --profile tailscale
  lpad launch grafana --auto-route --browser firefox`,
	Args: cobra.ExactArgs(1),
	RunE: runLaunch,
}

var launchGroupCmd = &cobra.Command{
	Use:   "launch-group GROUP",
	Short: "Open every item in a group, in order",
	Args:  cobra.ExactArgs(1),
	RunE:  runLaunchGroup,
}

func init() {
	for _, c := range []*cobra.Command{launchCmd, launchGroupCmd} {
		c.Flags().StringVarP(&launchOpts.profile, "profile", "p", "", "network profile: local, tailscale, vpn or custom")
		c.Flags().StringVarP(&launchOpts.browser, "browser", "b", "", "browser for bookmarks")
		c.Flags().StringVar(&launchOpts.terminal, "terminal", "", "terminal for SSH")
		c.Flags().BoolVar(&launchOpts.autoRoute, "auto-route", false, "switch bookmarks to the first reachable profile")
		c.Flags().BoolVar(&launchOpts.noRoute, "no-auto-route", false, "never switch profiles")
		c.MarkFlagsMutuallyExclusive("auto-route", "no-auto-route")
		_ = c.RegisterFlagCompletionFunc("profile", completeProfiles)
	}

	rootCmd.AddCommand(launchCmd, launchGroupCmd)
}

func runLaunch(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()
	defer flushScripts(cmd.Context())

	opts, err := a.options(launchOpts)
	if err != nil {
		return err
	}
	item, err := findItem(a.store, args[0])
	if err != nil {
		return err
	}
	if err := a.unlockIfNeeded(item); err != nil {
		return err
	}

	res, err := a.dispatcher(a.logger()).Launch(cmd.Context(), item, opts)
	if err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(res)
	}
	printResult(res)
	return nil
}

func runLaunchGroup(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()
	defer flushScripts(cmd.Context())

	opts, err := a.options(launchOpts)
	if err != nil {
		return err
	}
	g, err := findGroup(a.store, args[0])
	if err != nil {
		return err
	}
	items, err := a.store.ListItems(g.ID)
	if err != nil {
		return fmt.Errorf("failed to list items: %w", err)
	}
	if len(items) == 0 {
		Info("Group %s is empty", g.Name)
		return nil
	}
	if err := a.unlockIfNeeded(items...); err != nil {
		return err
	}

	results := a.dispatcher(a.logger()).LaunchGroup(cmd.Context(), items, opts)

	if jsonOutput {
		type entry struct {
			Item   string           `json:"item"`
			Result *launcher.Result `json:"result,omitempty"`
			Error  string           `json:"error,omitempty"`
		}
		out := make([]entry, 0, len(results))
		for _, r := range results {
			e := entry{Item: r.Item.Name, Result: r.Result}
			if r.Err != nil {
				e.Error = launcher.Describe(r.Err)
			}
			out = append(out, e)
		}
		return printJSON(out)
	}

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			Error("%s: %s", r.Item.Name, launcher.Describe(r.Err))
			continue
		}
		printResult(r.Result)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d items failed to launch", failed, len(results))
	}
	return nil
}

// printResult reports a launch on the terminal.
func printResult(res *launcher.Result) {
	msg := fmt.Sprintf("Opened %s", Bold("%s", res.Name))
	if res.Target != "" {
		msg += " " + Dim("%s", res.Target)
	}
	Success("%s", msg)

	if res.WasRerouted {
		Info("Switched to %s, the first reachable network", res.ProfileUsed)
	}
	if res.AddressFrom != "" && res.AddressFrom != res.ProfileUsed {
		Info("No %s address; used %s", res.ProfileUsed, res.AddressFrom)
	}
	if res.Degraded {
		Warning("Browser %s not found; opened the default browser", res.Browser)
	}
	if res.Copied {
		Info("Password copied to the clipboard")
	}
	if res.VaultLocked {
		Warning("%s", launcher.Describe(vault.ErrLocked))
	}
	if res.CredentialSkipped {
		Warning("%s Falling back to interactive login.", launcher.Describe(vault.ErrDecryptionFailed))
	}
}

// flushScripts removes SSH password scripts before the process exits. An
// interrupted ctx removes them at once.
func flushScripts(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, scriptFlushTimeout)
	defer cancel()
	platform.FlushScripts(ctx)
}
