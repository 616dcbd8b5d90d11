package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/aardel/launchpad/internal/config"
	"github.com/aardel/launchpad/internal/health"
	"github.com/aardel/launchpad/internal/launcher"
	"github.com/aardel/launchpad/internal/network"
	"github.com/aardel/launchpad/internal/platform"
	"github.com/aardel/launchpad/internal/store"
	"github.com/aardel/launchpad/internal/target"
	"github.com/aardel/launchpad/internal/vault"
)

// passwordEnv lets scripts supply the master password without a prompt.
const passwordEnv = "LAUNCHPAD_PASSWORD"

// app bundles what most commands need. Every lpad process starts with the
// vault locked.
type app struct {
	cfg   *config.Config
	store *store.BoltStore
	vault *vault.Vault
}

// openApp loads configuration and opens the store.
func openApp() (*app, error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := os.MkdirAll(cfg.DataDir, 0o700); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	s, err := store.NewBoltStore(cfg.DBPath())
	if err != nil {
		return nil, fmt.Errorf("open store at %s: %w", cfg.DBPath(), err)
	}

	return &app{cfg: cfg, store: s, vault: vault.New(s)}, nil
}

// Close locks the vault and closes the store.
func (a *app) Close() {
	a.vault.Lock()
	a.store.Close()
}

// unlock unlocks the vault using LAUNCHPAD_PASSWORD, or a prompt.
func (a *app) unlock() error {
	if !a.vault.IsSetup() {
		return vault.ErrNotSetup
	}
	password := os.Getenv(passwordEnv)
	if password == "" {
		var err error
		password, err = promptPassword("Master password: ")
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
	}
	return a.vault.Unlock(password)
}

// unlockIfNeeded unlocks the vault when item has a stored password and a
// password can be had without surprising the user. Launches still proceed
// locked; the dispatcher skips the credential.
func (a *app) unlockIfNeeded(items ...*store.Item) error {
	need := false
	for _, it := range items {
		if it.Credentials().HasPassword() {
			need = true
			break
		}
	}
	if !need || !a.vault.IsSetup() {
		return nil
	}
	if os.Getenv(passwordEnv) == "" && !term.IsTerminal(int(os.Stdin.Fd())) {
		return nil
	}
	return a.unlock()
}

// logger returns the CLI logger. Launch diagnostics go to stderr and only
// show with --verbose.
func (a *app) logger() *slog.Logger {
	level := slog.LevelWarn
	if isVerbose() {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func (a *app) prober() *health.Prober {
	return health.NewProber(
		health.WithTimeout(a.cfg.Health.Timeout),
		health.WithPorts(a.cfg.Health.Ports),
	)
}

// dispatcher wires the launcher to this machine.
func (a *app) dispatcher(log *slog.Logger) *launcher.Dispatcher {
	return launcher.New(launcher.Deps{
		Vault:  a.vault,
		Health: a.prober(),
		Access: a.store,
		Platform: platform.Current(platform.Options{
			Terminal:  a.cfg.Launch.Terminal,
			Terminals: a.cfg.Launch.Terminals,
		}),
		Logger: log,
	})
}

// launchFlags are shared by launch and launch-group.
type launchFlags struct {
	profile   string
	browser   string
	terminal  string
	autoRoute bool
	noRoute   bool
}

// options merges flags over the configured defaults.
func (a *app) options(f launchFlags) (launcher.Options, error) {
	opts := launcher.Options{
		Profile:   a.cfg.Network.DefaultProfile,
		Browser:   a.cfg.Launch.Browser,
		Terminal:  a.cfg.Launch.Terminal,
		AutoRoute: a.cfg.Launch.AutoRoute,
	}
	if f.profile != "" {
		p, err := network.ParseProfile(f.profile)
		if err != nil {
			return opts, err
		}
		opts.Profile = p
	}
	if f.browser != "" {
		b, err := target.ParseBrowser(f.browser)
		if err != nil {
			return opts, err
		}
		opts.Browser = b
	}
	if f.terminal != "" {
		opts.Terminal = f.terminal
	}
	if f.autoRoute {
		opts.AutoRoute = true
	}
	if f.noRoute {
		opts.AutoRoute = false
	}
	return opts, nil
}

// findItem looks up an item by ID or by name. Names are matched
// case-insensitively and must be unique.
func findItem(s store.Store, ref string) (*store.Item, error) {
	if id, err := uuid.Parse(ref); err == nil {
		return s.GetItem(id)
	}

	items, err := s.ListItems(uuid.Nil)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	var found *store.Item
	for _, it := range items {
		if !strings.EqualFold(it.Name, ref) {
			continue
		}
		if found != nil {
			return nil, fmt.Errorf("more than one item is named %q; use its ID", ref)
		}
		found = it
	}
	if found == nil {
		return nil, fmt.Errorf("%w: %s", store.ErrItemNotFound, ref)
	}
	return found, nil
}

// findGroup looks up a group by ID or exact name.
func findGroup(s store.Store, ref string) (*store.Group, error) {
	if id, err := uuid.Parse(ref); err == nil {
		return s.GetGroup(id)
	}
	g, err := s.GetGroupByName(ref)
	if errors.Is(err, store.ErrGroupNotFound) {
		return nil, fmt.Errorf("%w: %s", store.ErrGroupNotFound, ref)
	}
	return g, err
}

// promptPassword reads a password from the terminal with echo disabled.
func promptPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	bytes, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// promptPasswordConfirm prompts for a password twice and ensures they match.
func promptPasswordConfirm(prompt string) (string, error) {
	pass, err := promptPassword(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(pass) == "" {
		return "", fmt.Errorf("password cannot be empty")
	}
	confirm, err := promptPassword("Confirm password: ")
	if err != nil {
		return "", err
	}
	if pass != confirm {
		return "", fmt.Errorf("passwords do not match")
	}
	return pass, nil
}
