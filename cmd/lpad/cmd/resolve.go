package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/aardel/launchpad/internal/health"
	"github.com/aardel/launchpad/internal/network"
	"github.com/aardel/launchpad/internal/target"
)

var (
	resolveProfile string
	resolveProbe   bool
)

var resolveCmd = &cobra.Command{
	Use:   "resolve ITEM",
	Short: "Show the address and target an item resolves to",
	Long: `Show which address an item uses on a network profile, the URL or SSH
command it would open, and optionally which addresses answer right now.

Examples:
  lpad resolve grafana --profile tailscale
  lpad resolve nas --probe`,
	Args: cobra.ExactArgs(1),
	RunE: runResolve,
}

func init() {
	resolveCmd.Flags().StringVarP(&resolveProfile, "profile", "p", "", "network profile (default from config)")
	resolveCmd.Flags().BoolVar(&resolveProbe, "probe", false, "test each address for reachability")
	_ = resolveCmd.RegisterFlagCompletionFunc("profile", completeProfiles)

	rootCmd.AddCommand(resolveCmd)
}

type resolveOutput struct {
	Item        string          `json:"item"`
	Requested   network.Profile `json:"requested"`
	Address     string          `json:"address"`
	AddressFrom network.Profile `json:"address_from"`
	Target      string          `json:"target"`
	Probes      []health.Status `json:"probes,omitempty"`
}

func runResolve(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	profile := a.cfg.Network.DefaultProfile
	if resolveProfile != "" {
		if profile, err = network.ParseProfile(resolveProfile); err != nil {
			return err
		}
	}

	item, err := findItem(a.store, args[0])
	if err != nil {
		return err
	}

	out := resolveOutput{Item: item.Name, Requested: profile}
	switch {
	case item.Bookmark != nil:
		bt, err := target.Bookmark(item.Bookmark, profile, a.cfg.Launch.Browser)
		if err != nil {
			return err
		}
		out.Address, out.AddressFrom, out.Target = bt.Address, bt.ProfileUsed, bt.URL
	case item.SSH != nil:
		st, err := target.SSH(item.SSH, profile, "")
		if err != nil {
			return err
		}
		out.Address, out.AddressFrom, out.Target = st.Host, st.ProfileUsed, st.String()
	default:
		return fmt.Errorf("%s items have no address", item.Kind)
	}

	if resolveProbe {
		statuses, err := a.prober().Check(cmd.Context(), item)
		if err != nil && !errors.Is(err, health.ErrNoProbePort) {
			return err
		}
		out.Probes = statuses
	}

	if jsonOutput {
		return printJSON(out)
	}

	PrintKeyValue("Item", out.Item)
	PrintKeyValue("Profile", string(out.Requested))
	from := string(out.AddressFrom)
	if out.AddressFrom != out.Requested {
		from += Dim(" (fallback)")
	}
	PrintKeyValue("Address", out.Address+" via "+from)
	PrintKeyValue("Target", out.Target)

	if resolveProbe {
		fmt.Println()
		if len(out.Probes) == 0 {
			Info("Nothing to probe for this %s", item.Kind)
		}
		for _, st := range out.Probes {
			if st.Reachable {
				fmt.Printf("%s %s\t%s\t%s\n", successColor.Sprint("✓"), st.Profile, st.Address, Dim("%s", st.Latency.Round(time.Millisecond)))
			} else {
				fmt.Printf("%s %s\t%s\t%s\n", errorColor.Sprint("✗"), st.Profile, st.Address, Dim("%s", st.Error))
			}
		}
	}
	return nil
}
