package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	lpmcp "github.com/aardel/launchpad/internal/mcp"
)

var mcpServerCmd = &cobra.Command{
	Use:   "mcp-server",
	Short: "Start LaunchPad as an MCP server (stdio)",
	Long: `Start LaunchPad as a Model Context Protocol server for AI agent integration.
Communicates over stdin/stdout using JSON-RPC. Stored passwords are never
returned; SSH items with a stored password open with it only when
LAUNCHPAD_PASSWORD is set.

Access is controlled by ~/.launchpad/mcp-policy.yaml (or mcp.policy_file):
  access_mode: launch          # or read-only
  groups_deny: [work]
  allow_password_items: false
  max_launches_per_session: 20

Configure in .claude/settings.local.json:
  {
    "mcpServers": {
      "launchpad": {
        "command": "lpad",
        "args": ["mcp-server"]
      }
    }
  }`,
	Hidden: true,
	RunE:   runMCPServer,
}

func init() {
	rootCmd.AddCommand(mcpServerCmd)
}

func runMCPServer(cmd *cobra.Command, _ []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()
	defer flushScripts(cmd.Context())

	// stdout carries the protocol.
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: a.cfg.SlogLevel()}))
	slog.SetDefault(logger)

	if os.Getenv(passwordEnv) != "" && a.vault.IsSetup() {
		if err := a.unlock(); err != nil {
			return err
		}
	}

	policyPath := a.cfg.MCP.PolicyFile
	if policyPath == "" {
		policyPath = filepath.Join(a.cfg.DataDir, "mcp-policy.yaml")
	}
	policy, err := lpmcp.LoadPolicy(policyPath)
	if err != nil {
		return fmt.Errorf("load MCP policy %s: %w", policyPath, err)
	}
	if policy == nil {
		policy = lpmcp.DefaultPolicy()
	}

	opts, err := a.options(launchFlags{})
	if err != nil {
		return err
	}

	srv := lpmcp.NewLaunchPadMCPServer(lpmcp.Deps{
		Catalog:  a.store,
		Vault:    a.vault,
		Launcher: a.dispatcher(logger),
		Prober:   a.prober(),
		Defaults: opts,
	}, policy)
	return srv.Run(cmd.Context())
}
