package launcher

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/aardel/launchpad/internal/platform"
	"github.com/aardel/launchpad/internal/store"
	"github.com/aardel/launchpad/internal/target"
	"github.com/aardel/launchpad/internal/vault"
)

// ErrClipboardUnavailable is returned when the password cannot be copied.
var ErrClipboardUnavailable = errors.New("clipboard unavailable")

// LaunchError wraps the failure of one launch step.
type LaunchError struct {
	ItemID uuid.UUID
	Item   string
	Kind   store.ItemKind
	Op     string
	Err    error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("launch %s %q: %s: %v", e.Kind, e.Item, e.Op, e.Err)
}

func (e *LaunchError) Unwrap() error { return e.Err }

type failure struct {
	err     error
	class   string
	message string
}

// failures is checked in order; the first match wins.
var failures = []failure{
	{vault.ErrLocked, "vault_locked", "The vault is locked. Unlock it with your master password and try again."},
	{vault.ErrInvalidOldPassword, "invalid_password", "The current master password is incorrect."},
	{vault.ErrInvalidPassword, "invalid_password", "Incorrect master password."},
	{vault.ErrNotSetup, "not_setup", "No master password is set. Run 'lpad init' first."},
	{vault.ErrAlreadySetup, "already_setup", "A master password already exists. Use 'lpad passwd' to change it."},
	{vault.ErrDecryptionFailed, "decryption_failed", "A stored credential could not be decrypted. Re-enter it."},
	{target.ErrNoAddressForProfile, "no_address", "No address is configured for this network profile. Add one or pick another profile."},
	{target.ErrUnknownProtocol, "unknown_protocol", "The bookmark uses an unsupported protocol."},
	{platform.ErrBrowserNotFound, "browser_not_found", "The selected browser is not installed."},
	{platform.ErrTerminalUnavailable, "terminal_unavailable", "No supported terminal emulator was found. Install one or set launch.terminal."},
	{platform.ErrAppNotFound, "app_not_found", "The application was not found at its configured path."},
	{platform.ErrProcessSpawnFailed, "spawn_failed", "The operating system refused to start the process."},
	{store.ErrUnknownItemType, "unknown_item_type", "The item has an unknown type. Its record may be corrupted."},
	{store.ErrItemNotFound, "item_not_found", "Item not found."},
	{store.ErrGroupNotFound, "group_not_found", "Group not found."},
	{ErrClipboardUnavailable, "clipboard_unavailable", "The system clipboard is not available."},
}

// Describe returns a user-facing message for err. Each known failure gets
// its own remediation text.
func Describe(err error) string {
	if err == nil {
		return ""
	}
	for _, f := range failures {
		if errors.Is(err, f.err) {
			return f.message
		}
	}
	return err.Error()
}

// Class returns a short stable identifier for err, used in metrics and API
// error codes.
func Class(err error) string {
	if err == nil {
		return "ok"
	}
	for _, f := range failures {
		if errors.Is(err, f.err) {
			return f.class
		}
	}
	return "error"
}
