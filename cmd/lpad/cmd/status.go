package cmd

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show LaunchPad status",
	Long:  "Show the data directory, vault state, catalog size and whether a server is running.",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	groups, err := a.store.ListGroups()
	if err != nil {
		return fmt.Errorf("failed to list groups: %w", err)
	}
	items, err := a.store.ListItems(uuid.Nil)
	if err != nil {
		return fmt.Errorf("failed to list items: %w", err)
	}
	server := serverStatus(cmd.Context(), a.cfg.Serve.Addr)

	if jsonOutput {
		out := map[string]any{
			"data_dir":        a.cfg.DataDir,
			"config":          configPath(),
			"vault_setup":     a.vault.IsSetup(),
			"groups":          len(groups),
			"items":           len(items),
			"default_profile": a.cfg.Network.DefaultProfile,
			"server_running":  server != nil,
		}
		if server != nil {
			out["server_vault"] = server.State
		}
		return printJSON(out)
	}

	PrintKeyValue("Data", a.cfg.DataDir)
	PrintKeyValue("Config", configPath())
	if a.vault.IsSetup() {
		PrintKeyValue("Vault", "set up")
	} else {
		PrintKeyValue("Vault", "not set up (run 'lpad init')")
	}
	PrintKeyValue("Groups", fmt.Sprintf("%d", len(groups)))
	PrintKeyValue("Items", fmt.Sprintf("%d", len(items)))
	PrintKeyValue("Profile", string(a.cfg.Network.DefaultProfile))
	if server != nil {
		PrintKeyValue("Server", fmt.Sprintf("%s (vault %s)", a.cfg.Serve.Addr, server.State))
	} else {
		PrintKeyValue("Server", Dim("not running"))
	}
	return nil
}
