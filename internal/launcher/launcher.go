// Package launcher dispatches item launches: auto-route, build the target,
// hand off to the host and record the access.
package launcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/aardel/launchpad/internal/logging"
	"github.com/aardel/launchpad/internal/metrics"
	"github.com/aardel/launchpad/internal/network"
	"github.com/aardel/launchpad/internal/platform"
	"github.com/aardel/launchpad/internal/store"
	"github.com/aardel/launchpad/internal/target"
	"github.com/aardel/launchpad/internal/vault"
)

// CredentialVault reveals stored passwords.
type CredentialVault interface {
	IsUnlocked() bool
	RevealPassword(creds *store.Credentials) (string, error)
}

// AccessRecorder persists launch bookkeeping.
type AccessRecorder interface {
	RecordAccess(id uuid.UUID, entry *store.AccessEntry) error
}

// Deps are the dispatcher's collaborators. Vault, Health, Access and
// Clipboard may be nil.
type Deps struct {
	Vault     CredentialVault
	Health    HealthChecker
	Access    AccessRecorder
	Platform  platform.ProcessLauncher
	Clipboard Clipboard
	Logger    *slog.Logger
}

// Options are the per-launch choices.
type Options struct {
	Profile   network.Profile
	Browser   target.Browser
	Terminal  string
	AutoRoute bool
}

// Result describes a successful launch.
type Result struct {
	ItemID uuid.UUID      `json:"item_id"`
	Name   string         `json:"name"`
	Kind   store.ItemKind `json:"kind"`
	// ProfileUsed is the effective profile after auto-route.
	ProfileUsed network.Profile `json:"profile_used"`
	WasRerouted bool            `json:"was_rerouted"`
	// AddressFrom is the profile whose address was used after fallback.
	AddressFrom network.Profile `json:"address_from,omitempty"`
	Target      string          `json:"target,omitempty"`
	Browser     target.Browser  `json:"browser,omitempty"`
	// Degraded is set when a browser was missing and the OS default opened.
	Degraded bool `json:"degraded,omitempty"`
	Copied   bool `json:"copied,omitempty"`
	// VaultLocked is set when a stored password was skipped.
	VaultLocked bool `json:"vault_locked,omitempty"`
	// CredentialSkipped is set when a stored password failed to decrypt and
	// the SSH session fell back to interactive login.
	CredentialSkipped bool `json:"credential_skipped,omitempty"`
}

// Dispatcher launches items.
type Dispatcher struct {
	deps   Deps
	policy *Policy
	log    *slog.Logger
}

// New returns a Dispatcher. Platform is required.
func New(deps Deps) *Dispatcher {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Clipboard == nil {
		deps.Clipboard = SystemClipboard{}
	}
	return &Dispatcher{
		deps:   deps,
		policy: NewPolicy(deps.Health, deps.Logger),
		log:    deps.Logger,
	}
}

// Launch runs one item. Steps run strictly in order: auto-route, dispatch,
// access record. Spawned processes are not waited for.
func (d *Dispatcher) Launch(ctx context.Context, item *store.Item, opts Options) (*Result, error) {
	ctx = logging.WithLaunchID(ctx)
	log := logging.With(ctx, d.log).With("item", item.Name, "kind", string(item.Kind))
	start := time.Now()

	requested := opts.Profile
	if requested == "" {
		requested = network.ProfileLocal
	}
	res := &Result{ItemID: item.ID, Name: item.Name, Kind: item.Kind, ProfileUsed: requested}

	variant, err := item.Variant()
	if err != nil {
		return nil, d.fail(item, "decode item", err, start)
	}

	if profile, rerouted := d.policy.Decide(ctx, item, requested, opts.AutoRoute); rerouted {
		res.ProfileUsed = profile
		res.WasRerouted = true
		metrics.ReroutesTotal.WithLabelValues(string(requested), string(profile)).Inc()
	}

	var op string
	switch v := variant.(type) {
	case *store.Bookmark:
		op, err = d.launchBookmark(ctx, log, v, opts, res)
	case *store.SSH:
		op, err = d.launchSSH(ctx, log, item.Name, v, opts, res)
	case *store.App:
		op, err = d.launchApp(ctx, v, res)
	case *store.Password:
		op, err = d.launchPassword(ctx, log, v, res)
	default:
		op, err = "dispatch", store.ErrUnknownItemType
	}
	if err != nil {
		return nil, d.fail(item, op, err, start)
	}

	d.recordAccess(log, item, res)

	metrics.LaunchesTotal.WithLabelValues(string(item.Kind), "ok").Inc()
	metrics.LaunchDuration.WithLabelValues(string(item.Kind)).Observe(time.Since(start).Seconds())
	log.Info("item launched",
		"profile", res.ProfileUsed,
		"rerouted", res.WasRerouted,
		"address_from", res.AddressFrom,
		"duration", time.Since(start))
	return res, nil
}

func (d *Dispatcher) launchBookmark(ctx context.Context, log *slog.Logger, b *store.Bookmark, opts Options, res *Result) (string, error) {
	t, err := target.Bookmark(b, res.ProfileUsed, opts.Browser)
	if err != nil {
		return "build url", err
	}
	res.Target = t.URL
	res.Browser = t.Browser
	res.AddressFrom = t.ProfileUsed

	if t.Browser == target.BrowserDefault {
		return "open url", d.deps.Platform.OpenURL(ctx, t.URL)
	}

	err = d.deps.Platform.OpenInBrowser(ctx, t.Browser, t.URL)
	if errors.Is(err, platform.ErrBrowserNotFound) {
		log.Warn("browser not found, using system default", "browser", t.Browser)
		res.Degraded = true
		return "open url", d.deps.Platform.OpenURL(ctx, t.URL)
	}
	return "open browser", err
}

func (d *Dispatcher) launchSSH(ctx context.Context, log *slog.Logger, name string, s *store.SSH, opts Options, res *Result) (string, error) {
	t, err := target.SSH(s, res.ProfileUsed, "")
	if err != nil {
		return "build ssh target", err
	}
	res.Target = t.String()
	res.AddressFrom = t.ProfileUsed

	password, err := d.reveal(log, s.Credentials, res)
	if err != nil {
		log.Warn("stored password could not be decrypted, using interactive login", "error", err)
		res.CredentialSkipped = true
	}
	t.SetPassword(password)

	err = d.deps.Platform.OpenTerminal(ctx, platform.TerminalRequest{
		Title:    name,
		SSH:      t,
		Terminal: opts.Terminal,
	})
	return "open terminal", err
}

func (d *Dispatcher) launchApp(ctx context.Context, a *store.App, res *Result) (string, error) {
	res.Target = a.Path
	return "open app", d.deps.Platform.OpenApp(ctx, a.Path, a.Args)
}

func (d *Dispatcher) launchPassword(ctx context.Context, log *slog.Logger, p *store.Password, res *Result) (string, error) {
	password, err := d.reveal(log, p.Credentials, res)
	if err != nil {
		return "reveal password", err
	}
	if password != "" {
		if err := d.deps.Clipboard.WriteAll(password); err != nil {
			return "copy password", fmt.Errorf("%w: %v", ErrClipboardUnavailable, err)
		}
		res.Copied = true
	}

	if p.URL == "" {
		return "", nil
	}
	res.Target = p.URL
	return "open url", d.deps.Platform.OpenURL(ctx, p.URL)
}

// reveal decrypts creds when possible. A locked vault yields "" with no
// error so the launch continues without the password. Any other failure
// is returned wrapped in vault.ErrDecryptionFailed.
func (d *Dispatcher) reveal(log *slog.Logger, creds *store.Credentials, res *Result) (string, error) {
	if !creds.HasPassword() {
		return "", nil
	}
	if d.deps.Vault == nil || !d.deps.Vault.IsUnlocked() {
		res.VaultLocked = true
		log.Info("vault locked, continuing without stored password")
		return "", nil
	}

	password, err := d.deps.Vault.RevealPassword(creds)
	switch {
	case errors.Is(err, vault.ErrLocked):
		res.VaultLocked = true
		return "", nil
	case errors.Is(err, vault.ErrDecryptionFailed):
		return "", err
	case err != nil:
		return "", fmt.Errorf("%w: %v", vault.ErrDecryptionFailed, err)
	}
	return password, nil
}

// recordAccess updates usage counters. Failures are logged, never returned.
func (d *Dispatcher) recordAccess(log *slog.Logger, item *store.Item, res *Result) {
	if d.deps.Access == nil {
		return
	}
	entry := &store.AccessEntry{
		ItemID:    item.ID,
		ItemName:  item.Name,
		Kind:      item.Kind,
		Profile:   res.ProfileUsed,
		Rerouted:  res.WasRerouted,
		Timestamp: time.Now().UTC(),
	}
	if err := d.deps.Access.RecordAccess(item.ID, entry); err != nil {
		log.Warn("failed to record access", "error", err)
	}
}

func (d *Dispatcher) fail(item *store.Item, op string, err error, start time.Time) error {
	metrics.LaunchesTotal.WithLabelValues(string(item.Kind), Class(err)).Inc()
	metrics.LaunchDuration.WithLabelValues(string(item.Kind)).Observe(time.Since(start).Seconds())
	return &LaunchError{ItemID: item.ID, Item: item.Name, Kind: item.Kind, Op: op, Err: err}
}

// GroupResult is the outcome of one item in a group launch.
type GroupResult struct {
	Item   *store.Item
	Result *Result
	Err    error
}

// LaunchGroup launches items one after another. Each launch completes before
// the next starts. Cancelling ctx stops before the next item; items not
// started are reported with ctx's error.
func (d *Dispatcher) LaunchGroup(ctx context.Context, items []*store.Item, opts Options) []GroupResult {
	results := make([]GroupResult, 0, len(items))
	for _, item := range items {
		if err := ctx.Err(); err != nil {
			results = append(results, GroupResult{Item: item, Err: err})
			continue
		}
		res, err := d.Launch(ctx, item, opts)
		results = append(results, GroupResult{Item: item, Result: res, Err: err})
	}
	return results
}
