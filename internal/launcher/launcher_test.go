package launcher

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/aardel/launchpad/internal/health"
	"github.com/aardel/launchpad/internal/network"
	"github.com/aardel/launchpad/internal/platform"
	"github.com/aardel/launchpad/internal/store"
	"github.com/aardel/launchpad/internal/target"
	"github.com/aardel/launchpad/internal/vault"
)

func sshItem(creds *store.Credentials) *store.Item {
	return &store.Item{
		ID:   uuid.New(),
		Name: "nas",
		Kind: store.KindSSH,
		SSH: &store.SSH{
			Username:    "admin",
			Port:        22,
			Addresses:   network.Addresses{Local: "192.168.1.50"},
			Credentials: creds,
		},
	}
}

func bookmarkItem(proto string, addrs network.Addresses) *store.Item {
	return &store.Item{
		ID:       uuid.New(),
		Name:     "grafana",
		Kind:     store.KindBookmark,
		Bookmark: &store.Bookmark{Protocol: proto, Port: 3000, Addresses: addrs},
	}
}

func TestLaunch_SSHFallsBackToLocal(t *testing.T) {
	f := newFixture()
	item := sshItem(nil)

	res, err := f.d.Launch(context.Background(), item, Options{Profile: network.ProfileVPN})
	if err != nil {
		t.Fatalf("Launch: %v", err)
	}
	if res.ProfileUsed != network.ProfileVPN || res.WasRerouted {
		t.Errorf("result = %+v", res)
	}
	if res.AddressFrom != network.ProfileLocal {
		t.Errorf("AddressFrom = %s, want local", res.AddressFrom)
	}

	if len(f.platform.calls) != 1 || f.platform.calls[0].op != "terminal" {
		t.Fatalf("calls = %+v", f.platform.calls)
	}
	req := f.platform.calls[0].terminal
	if req.SSH.Username != "admin" || req.SSH.Host != "192.168.1.50" || req.SSH.Port != 22 {
		t.Errorf("target = %+v", req.SSH)
	}
	if req.Title != "nas" {
		t.Errorf("title = %q", req.Title)
	}

	if len(f.access.entries) != 1 || f.access.entries[0].ItemID != item.ID {
		t.Fatalf("access entries = %+v", f.access.entries)
	}
	if e := f.access.entries[0]; e.Profile != network.ProfileVPN || e.Timestamp.IsZero() {
		t.Errorf("entry = %+v", e)
	}
}

func TestLaunch_AutoRouteNeverConsultedForNonBookmarks(t *testing.T) {
	f := newFixture()
	f.health.result = &health.Reachable{Profile: network.ProfileTailscale, Address: "100.64.0.1"}

	items := []*store.Item{
		sshItem(nil),
		{ID: uuid.New(), Name: "code", Kind: store.KindApp, App: &store.App{Path: "/usr/bin/code"}},
		{ID: uuid.New(), Name: "mail", Kind: store.KindPassword, Password: &store.Password{Service: "mail"}},
	}
	for _, item := range items {
		res, err := f.d.Launch(context.Background(), item, Options{Profile: network.ProfileLocal, AutoRoute: true})
		if err != nil {
			t.Fatalf("Launch(%s): %v", item.Kind, err)
		}
		if res.WasRerouted {
			t.Errorf("%s was rerouted", item.Kind)
		}
	}
	if f.health.calls != 0 {
		t.Errorf("health checker consulted %d times", f.health.calls)
	}
}

func TestLaunch_AutoRouteReroutesBookmark(t *testing.T) {
	f := newFixture()
	f.health.result = &health.Reachable{Profile: network.ProfileTailscale, Address: "100.64.0.1"}
	item := bookmarkItem("http", network.Addresses{Local: "192.168.1.5", Tailscale: "100.64.0.1"})

	res, err := f.d.Launch(context.Background(), item, Options{Profile: network.ProfileLocal, AutoRoute: true})
	if err != nil {
		t.Fatalf("Launch: %v", err)
	}
	if !res.WasRerouted || res.ProfileUsed != network.ProfileTailscale {
		t.Errorf("result = %+v", res)
	}
	if res.Target != "http://100.64.0.1:3000" {
		t.Errorf("target = %q", res.Target)
	}
	if f.platform.calls[0].url != res.Target {
		t.Errorf("opened %q", f.platform.calls[0].url)
	}
	if !f.access.entries[0].Rerouted {
		t.Error("access entry should record the reroute")
	}
}

func TestLaunch_AutoRouteKeepsRequested(t *testing.T) {
	tests := []struct {
		name      string
		result    *health.Reachable
		err       error
		autoRoute bool
		calls     int
	}{
		{"same profile", &health.Reachable{Profile: network.ProfileLocal}, nil, true, 1},
		{"nothing reachable", nil, nil, true, 1},
		{"probe failure", nil, errors.New("network down"), true, 1},
		{"disabled", &health.Reachable{Profile: network.ProfileVPN}, nil, false, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			f.health.result = tt.result
			f.health.err = tt.err
			item := bookmarkItem("http", network.Addresses{Local: "192.168.1.5", VPN: "10.8.0.5"})

			res, err := f.d.Launch(context.Background(), item, Options{AutoRoute: tt.autoRoute})
			if err != nil {
				t.Fatalf("Launch: %v", err)
			}
			if res.WasRerouted || res.ProfileUsed != network.ProfileLocal {
				t.Errorf("result = %+v", res)
			}
			if res.Target != "http://192.168.1.5:3000" {
				t.Errorf("target = %q", res.Target)
			}
			if f.health.calls != tt.calls {
				t.Errorf("health calls = %d, want %d", f.health.calls, tt.calls)
			}
		})
	}
}

func TestLaunch_ForcedBrowserIgnoresOverride(t *testing.T) {
	for _, proto := range []target.Protocol{target.ProtocolChrome, target.ProtocolEdge, target.ProtocolBrave, target.ProtocolOpera, target.ProtocolChatGPT} {
		f := newFixture()
		item := bookmarkItem(string(proto), network.Addresses{Local: "app.lan"})

		res, err := f.d.Launch(context.Background(), item, Options{Browser: target.BrowserFirefox})
		if err != nil {
			t.Fatalf("Launch(%s): %v", proto, err)
		}
		want, _ := target.ForcedBrowser(proto)
		if c := f.platform.calls[0]; c.op != "browser" || c.browser != want {
			t.Errorf("%s: opened %+v, want browser %s", proto, c, want)
		}
		if res.Browser != want {
			t.Errorf("%s: result browser = %s", proto, res.Browser)
		}
	}
}

func TestLaunch_BrowserOverride(t *testing.T) {
	f := newFixture()
	item := bookmarkItem("https", network.Addresses{Local: "app.lan"})

	if _, err := f.d.Launch(context.Background(), item, Options{Browser: target.BrowserFirefox}); err != nil {
		t.Fatalf("Launch: %v", err)
	}
	if c := f.platform.calls[0]; c.op != "browser" || c.browser != target.BrowserFirefox {
		t.Errorf("opened %+v", c)
	}

	f = newFixture()
	if _, err := f.d.Launch(context.Background(), item, Options{}); err != nil {
		t.Fatalf("Launch: %v", err)
	}
	if c := f.platform.calls[0]; c.op != "url" || c.url != "https://app.lan:3000" {
		t.Errorf("default browser opened %+v", c)
	}
}

func TestLaunch_MissingBrowserDegrades(t *testing.T) {
	f := newFixture()
	f.platform.browserErr = platform.ErrBrowserNotFound
	item := bookmarkItem("chrome", network.Addresses{Local: "app.lan"})

	res, err := f.d.Launch(context.Background(), item, Options{})
	if err != nil {
		t.Fatalf("Launch: %v", err)
	}
	if !res.Degraded {
		t.Error("expected Degraded")
	}
	if len(f.platform.calls) != 2 || f.platform.calls[1].op != "url" || f.platform.calls[1].url != "https://app.lan:3000" {
		t.Errorf("calls = %+v", f.platform.calls)
	}
}

func TestLaunch_NoAddressAbortsBeforeSpawn(t *testing.T) {
	f := newFixture()
	item := bookmarkItem("https", network.Addresses{})

	_, err := f.d.Launch(context.Background(), item, Options{Profile: network.ProfileTailscale})
	if !errors.Is(err, target.ErrNoAddressForProfile) {
		t.Fatalf("expected ErrNoAddressForProfile, got %v", err)
	}
	var le *LaunchError
	if !errors.As(err, &le) || le.ItemID != item.ID || le.Kind != store.KindBookmark {
		t.Errorf("LaunchError = %+v", le)
	}
	if len(f.platform.calls) != 0 {
		t.Errorf("platform called: %+v", f.platform.calls)
	}
	if len(f.access.entries) != 0 {
		t.Error("failed launch recorded access")
	}

	_, err = f.d.Launch(context.Background(), sshItem(nil), Options{Profile: network.ProfileCustom})
	if err != nil {
		t.Errorf("custom profile should fall back to local: %v", err)
	}
}

func TestLaunch_SSHPassword(t *testing.T) {
	f := newFixture()
	item := sshItem(&store.Credentials{Username: "admin", Password: "enc:hunter2"})

	res, err := f.d.Launch(context.Background(), item, Options{Terminal: "kitty"})
	if err != nil {
		t.Fatalf("Launch: %v", err)
	}
	req := f.platform.calls[0].terminal
	if req.SSH.Password != "hunter2" || req.SSH.Auth != target.AuthPassword {
		t.Errorf("target = %+v", req.SSH)
	}
	if req.Terminal != "kitty" {
		t.Errorf("terminal = %q", req.Terminal)
	}
	if strings.Contains(res.Target, "hunter2") {
		t.Errorf("result leaks password: %q", res.Target)
	}
}

func TestLaunch_SSHPasswordVaultLocked(t *testing.T) {
	f := newFixture()
	f.vault.unlocked = false
	item := sshItem(&store.Credentials{Password: "enc:hunter2"})

	res, err := f.d.Launch(context.Background(), item, Options{})
	if err != nil {
		t.Fatalf("Launch: %v", err)
	}
	if !res.VaultLocked {
		t.Error("expected VaultLocked")
	}
	req := f.platform.calls[0].terminal
	if req.SSH.Password != "" || req.SSH.Auth != target.AuthInteractive {
		t.Errorf("target = %+v", req.SSH)
	}
}

func TestLaunch_SSHBadCiphertextContinues(t *testing.T) {
	f := newFixture()
	item := sshItem(&store.Credentials{Password: "garbage"})

	res, err := f.d.Launch(context.Background(), item, Options{})
	if err != nil {
		t.Fatalf("Launch: %v", err)
	}
	if req := f.platform.calls[0].terminal; req.SSH.Auth != target.AuthInteractive {
		t.Errorf("auth = %s", req.SSH.Auth)
	}
	if !res.CredentialSkipped {
		t.Error("expected CredentialSkipped")
	}
	if res.VaultLocked {
		t.Error("VaultLocked set for a decryption failure")
	}
}

func TestLaunch_SSHResolvesBeforeReveal(t *testing.T) {
	f := newFixture()
	item := sshItem(&store.Credentials{Password: "enc:hunter2"})
	item.SSH.Addresses = network.Addresses{}

	_, err := f.d.Launch(context.Background(), item, Options{Profile: network.ProfileVPN})
	if !errors.Is(err, target.ErrNoAddressForProfile) {
		t.Fatalf("expected ErrNoAddressForProfile, got %v", err)
	}
	if f.vault.reveals != 0 {
		t.Errorf("password decrypted %d times for an unresolvable host", f.vault.reveals)
	}

	item.SSH.Addresses = network.Addresses{Local: "192.168.1.50"}
	if _, err := f.d.Launch(context.Background(), item, Options{}); err != nil {
		t.Fatalf("Launch: %v", err)
	}
	if f.vault.reveals != 1 {
		t.Errorf("reveals = %d, want 1", f.vault.reveals)
	}
}

func TestLaunch_TerminalUnavailable(t *testing.T) {
	f := newFixture()
	f.platform.terminalErr = platform.ErrTerminalUnavailable

	_, err := f.d.Launch(context.Background(), sshItem(nil), Options{})
	if !errors.Is(err, platform.ErrTerminalUnavailable) {
		t.Fatalf("expected ErrTerminalUnavailable, got %v", err)
	}
	var le *LaunchError
	if errors.As(err, &le); le == nil || le.Op != "open terminal" {
		t.Errorf("LaunchError = %+v", le)
	}
}

func TestLaunch_App(t *testing.T) {
	f := newFixture()
	item := &store.Item{ID: uuid.New(), Name: "code", Kind: store.KindApp, App: &store.App{Path: "/usr/bin/code", Args: []string{"--new-window"}}}

	res, err := f.d.Launch(context.Background(), item, Options{})
	if err != nil {
		t.Fatalf("Launch: %v", err)
	}
	c := f.platform.calls[0]
	if c.op != "app" || c.path != "/usr/bin/code" || len(c.args) != 1 {
		t.Errorf("opened %+v", c)
	}
	if res.Target != "/usr/bin/code" {
		t.Errorf("target = %q", res.Target)
	}

	f.platform.appErr = platform.ErrAppNotFound
	if _, err := f.d.Launch(context.Background(), item, Options{}); !errors.Is(err, platform.ErrAppNotFound) {
		t.Errorf("expected ErrAppNotFound, got %v", err)
	}
}

func TestLaunch_Password(t *testing.T) {
	item := &store.Item{ID: uuid.New(), Name: "mail", Kind: store.KindPassword, Password: &store.Password{
		Service:     "mail",
		URL:         "https://mail.example.com",
		Credentials: &store.Credentials{Username: "me", Password: "enc:hunter2"},
	}}

	t.Run("unlocked", func(t *testing.T) {
		f := newFixture()
		res, err := f.d.Launch(context.Background(), item, Options{})
		if err != nil {
			t.Fatalf("Launch: %v", err)
		}
		if !res.Copied || f.clipboard.text != "hunter2" {
			t.Errorf("copied = %v, clipboard = %q", res.Copied, f.clipboard.text)
		}
		if c := f.platform.calls[0]; c.op != "url" || c.url != "https://mail.example.com" {
			t.Errorf("opened %+v", c)
		}
	})

	t.Run("locked", func(t *testing.T) {
		f := newFixture()
		f.vault.unlocked = false
		res, err := f.d.Launch(context.Background(), item, Options{})
		if err != nil {
			t.Fatalf("Launch: %v", err)
		}
		if res.Copied || f.clipboard.text != "" {
			t.Error("clipboard written while locked")
		}
		if !res.VaultLocked {
			t.Error("expected VaultLocked")
		}
		if len(f.platform.calls) != 1 || f.platform.calls[0].url != "https://mail.example.com" {
			t.Errorf("calls = %+v", f.platform.calls)
		}
	})

	t.Run("clipboard failure", func(t *testing.T) {
		f := newFixture()
		f.clipboard.err = errors.New("no display")
		_, err := f.d.Launch(context.Background(), item, Options{})
		if !errors.Is(err, ErrClipboardUnavailable) {
			t.Fatalf("expected ErrClipboardUnavailable, got %v", err)
		}
		if strings.Contains(err.Error(), "hunter2") {
			t.Error("error leaks password")
		}
		if len(f.platform.calls) != 0 {
			t.Error("URL opened after failed copy")
		}
	})

	t.Run("decryption failure", func(t *testing.T) {
		f := newFixture()
		bad := *item
		bad.Password = &store.Password{
			Service:     "mail",
			URL:         "https://mail.example.com",
			Credentials: &store.Credentials{Username: "me", Password: "corrupt"},
		}
		res, err := f.d.Launch(context.Background(), &bad, Options{})
		if !errors.Is(err, vault.ErrDecryptionFailed) {
			t.Fatalf("expected ErrDecryptionFailed, got %v", err)
		}
		if res != nil {
			t.Errorf("res = %+v, want nil", res)
		}
		var le *LaunchError
		if !errors.As(err, &le) || le.ItemID != bad.ID || le.Op != "reveal password" {
			t.Errorf("LaunchError = %+v", le)
		}
		if got := Class(err); got != "decryption_failed" {
			t.Errorf("Class = %q, want decryption_failed", got)
		}
		if len(f.access.entries) != 0 {
			t.Error("failed launch recorded access")
		}
		if len(f.platform.calls) != 0 || f.clipboard.text != "" {
			t.Errorf("calls = %+v, clipboard = %q", f.platform.calls, f.clipboard.text)
		}
	})

	t.Run("vault error", func(t *testing.T) {
		f := newFixture()
		f.vault.err = errors.New("session expired")
		_, err := f.d.Launch(context.Background(), item, Options{})
		if !errors.Is(err, vault.ErrDecryptionFailed) {
			t.Fatalf("expected ErrDecryptionFailed, got %v", err)
		}
	})

	t.Run("no url", func(t *testing.T) {
		f := newFixture()
		noURL := *item
		noURL.Password = &store.Password{Service: "mail", Credentials: item.Password.Credentials}
		res, err := f.d.Launch(context.Background(), &noURL, Options{})
		if err != nil {
			t.Fatalf("Launch: %v", err)
		}
		if !res.Copied || len(f.platform.calls) != 0 {
			t.Errorf("res = %+v, calls = %+v", res, f.platform.calls)
		}
	})
}

func TestLaunch_UnknownItemType(t *testing.T) {
	f := newFixture()
	item := &store.Item{ID: uuid.New(), Name: "x", Kind: "widget"}

	_, err := f.d.Launch(context.Background(), item, Options{AutoRoute: true})
	if !errors.Is(err, store.ErrUnknownItemType) {
		t.Fatalf("expected ErrUnknownItemType, got %v", err)
	}
	if len(f.platform.calls) != 0 || f.health.calls != 0 {
		t.Error("unknown item reached collaborators")
	}

	// Kind and payload disagree.
	mismatched := &store.Item{ID: uuid.New(), Name: "y", Kind: store.KindSSH, App: &store.App{Path: "/bin/true"}}
	if _, err := f.d.Launch(context.Background(), mismatched, Options{}); !errors.Is(err, store.ErrUnknownItemType) {
		t.Errorf("expected ErrUnknownItemType, got %v", err)
	}
}

func TestLaunch_AccessFailureIsNotFatal(t *testing.T) {
	f := newFixture()
	f.access.err = store.ErrItemNotFound

	if _, err := f.d.Launch(context.Background(), sshItem(nil), Options{}); err != nil {
		t.Fatalf("Launch: %v", err)
	}
}

func TestLaunch_NilOptionalDeps(t *testing.T) {
	p := &fakePlatform{}
	d := New(Deps{Platform: p})

	item := sshItem(&store.Credentials{Password: "enc:pw"})
	res, err := d.Launch(context.Background(), item, Options{AutoRoute: true})
	if err != nil {
		t.Fatalf("Launch: %v", err)
	}
	if !res.VaultLocked {
		t.Error("missing vault should behave as locked")
	}
}

func TestLaunchGroup_Sequential(t *testing.T) {
	f := newFixture()
	items := []*store.Item{
		bookmarkItem("https", network.Addresses{Local: "a.lan"}),
		bookmarkItem("https", network.Addresses{}),
		sshItem(nil),
	}

	results := f.d.LaunchGroup(context.Background(), items, Options{})
	if len(results) != 3 {
		t.Fatalf("got %d results", len(results))
	}
	if results[0].Err != nil || results[2].Err != nil {
		t.Errorf("unexpected errors: %v, %v", results[0].Err, results[2].Err)
	}
	if !errors.Is(results[1].Err, target.ErrNoAddressForProfile) {
		t.Errorf("results[1].Err = %v", results[1].Err)
	}
	if len(f.platform.calls) != 2 || f.platform.calls[0].op != "url" || f.platform.calls[1].op != "terminal" {
		t.Errorf("calls = %+v", f.platform.calls)
	}
	for i, r := range results {
		if r.Item != items[i] {
			t.Errorf("results[%d] out of order", i)
		}
	}
}

func TestLaunchGroup_CancelBetweenItems(t *testing.T) {
	f := newFixture()
	ctx, cancel := context.WithCancel(context.Background())
	f.platform.onOpen = cancel

	items := []*store.Item{sshItem(nil), sshItem(nil), sshItem(nil)}
	results := f.d.LaunchGroup(ctx, items, Options{})

	if results[0].Err != nil {
		t.Fatalf("first launch should complete: %v", results[0].Err)
	}
	for _, r := range results[1:] {
		if !errors.Is(r.Err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", r.Err)
		}
	}
	if len(f.platform.calls) != 1 {
		t.Errorf("calls = %d, want 1", len(f.platform.calls))
	}
}
