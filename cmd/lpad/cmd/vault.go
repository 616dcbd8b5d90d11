package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aardel/launchpad/internal/vault"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the master password",
	Long: `Create the master password that protects stored credentials.

Passwords saved on items are encrypted with a key that only this password
unlocks. There is no way to recover it; 'lpad reset' deletes every stored
password if you forget it.

Examples:
  lpad init
  LAUNCHPAD_PASSWORD=... lpad init`,
	RunE: runInit,
}

var unlockCmd = &cobra.Command{
	Use:   "unlock",
	Short: "Unlock the vault of a running server",
	Long: `Check the master password and unlock the vault held by 'lpad serve'.

Each lpad command starts locked and asks for the password when it needs
one. The server keeps its vault unlocked until 'lpad lock' or shutdown.`,
	RunE: runUnlock,
}

var lockCmd = &cobra.Command{
	Use:   "lock",
	Short: "Lock the vault of a running server",
	RunE:  runLock,
}

var passwdCmd = &cobra.Command{
	Use:   "passwd",
	Short: "Change the master password",
	Long: `Change the master password. Stored credentials stay encrypted with the
same data key, so nothing is re-encrypted and a failure leaves the old
password in effect.`,
	RunE: runPasswd,
}

var resetForce bool

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete the master password and every stored password",
	Long: `Delete the master password and every password stored on items. Items,
usernames and notes are kept. This cannot be undone.`,
	RunE: runReset,
}

func init() {
	resetCmd.Flags().BoolVarP(&resetForce, "force", "f", false, "skip confirmation")

	rootCmd.AddCommand(initCmd, unlockCmd, lockCmd, passwdCmd, resetCmd)
}

func runInit(_ *cobra.Command, _ []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if a.vault.IsSetup() {
		return vault.ErrAlreadySetup
	}

	password := os.Getenv(passwordEnv)
	if password == "" {
		if password, err = promptPasswordConfirm("New master password: "); err != nil {
			return err
		}
	}

	if err := a.vault.Setup(password); err != nil {
		return err
	}

	Success("Vault created at %s", a.cfg.DataDir)
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, "Next steps:")
	fmt.Fprintln(os.Stderr, "  lpad group add NAME              Create a group")
	fmt.Fprintln(os.Stderr, "  lpad item add-bookmark NAME ...  Add a bookmark")
	fmt.Fprintln(os.Stderr, "  lpad launch NAME                 Open it")
	return nil
}

func runUnlock(cmd *cobra.Command, _ []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	password := os.Getenv(passwordEnv)
	if password == "" {
		if password, err = promptPassword("Master password: "); err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
	}
	if err := a.vault.Unlock(password); err != nil {
		return err
	}

	client := NewClient(a.cfg.Serve.Addr)
	if err := client.Unlock(cmd.Context(), password); err != nil {
		if isAPIError(err) {
			return fmt.Errorf("server at %s refused to unlock: %w", a.cfg.Serve.Addr, err)
		}
		Warning("Password is correct, but no server answered at %s", a.cfg.Serve.Addr)
		return nil
	}
	Success("Server vault unlocked")
	return nil
}

func runLock(cmd *cobra.Command, _ []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if err := NewClient(a.cfg.Serve.Addr).Lock(cmd.Context()); err != nil {
		return fmt.Errorf("no server answered at %s: %w", a.cfg.Serve.Addr, err)
	}
	Success("Server vault locked")
	return nil
}

func runPasswd(_ *cobra.Command, _ []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if !a.vault.IsSetup() {
		return vault.ErrNotSetup
	}

	oldPassword, err := promptPassword("Current master password: ")
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}
	newPassword, err := promptPasswordConfirm("New master password: ")
	if err != nil {
		return err
	}

	if err := a.vault.ChangePassword(oldPassword, newPassword); err != nil {
		return err
	}
	Success("Master password changed")
	return nil
}

func runReset(_ *cobra.Command, _ []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if !a.vault.IsSetup() {
		return vault.ErrNotSetup
	}
	if !resetForce && !PromptConfirm("Delete the master password and ALL stored passwords?") {
		Info("Aborted")
		return nil
	}

	cleared, err := a.vault.ResetVault()
	if err != nil {
		return err
	}
	Success("Vault reset; removed %d stored passwords", cleared)
	Info("Run 'lpad init' to create a new master password")
	return nil
}

// serverStatus returns the vault state of a running server, or nil.
func serverStatus(ctx context.Context, addr string) *VaultStatus {
	st, err := NewClient(addr).VaultStatus(ctx)
	if err != nil {
		return nil
	}
	return st
}
