package launcher

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/aardel/launchpad/internal/health"
	"github.com/aardel/launchpad/internal/platform"
	"github.com/aardel/launchpad/internal/store"
	"github.com/aardel/launchpad/internal/target"
	"github.com/aardel/launchpad/internal/vault"
)

var (
	_ CredentialVault          = (*vault.Vault)(nil)
	_ HealthChecker            = (*health.Prober)(nil)
	_ AccessRecorder           = (store.Store)(nil)
	_ Clipboard                = SystemClipboard{}
	_ platform.ProcessLauncher = (*fakePlatform)(nil)
)

type opened struct {
	op       string
	url      string
	browser  target.Browser
	terminal platform.TerminalRequest
	path     string
	args     []string
}

type fakePlatform struct {
	mu          sync.Mutex
	calls       []opened
	urlErr      error
	browserErr  error
	terminalErr error
	appErr      error
	onOpen      func()
}

func (p *fakePlatform) record(o opened) {
	p.mu.Lock()
	p.calls = append(p.calls, o)
	hook := p.onOpen
	p.mu.Unlock()
	if hook != nil {
		hook()
	}
}

func (p *fakePlatform) Name() string { return "fake" }

func (p *fakePlatform) OpenURL(_ context.Context, url string) error {
	p.record(opened{op: "url", url: url})
	return p.urlErr
}

func (p *fakePlatform) OpenInBrowser(_ context.Context, b target.Browser, url string) error {
	p.record(opened{op: "browser", url: url, browser: b})
	return p.browserErr
}

func (p *fakePlatform) OpenTerminal(_ context.Context, req platform.TerminalRequest) error {
	p.record(opened{op: "terminal", terminal: req})
	return p.terminalErr
}

func (p *fakePlatform) OpenApp(_ context.Context, path string, args []string) error {
	p.record(opened{op: "app", path: path, args: args})
	return p.appErr
}

type fakeHealth struct {
	result *health.Reachable
	err    error
	calls  int
}

func (h *fakeHealth) FindFirstReachable(context.Context, *store.Item) (*health.Reachable, error) {
	h.calls++
	return h.result, h.err
}

// fakeVault treats ciphertext "enc:<pw>" as the encryption of pw.
type fakeVault struct {
	unlocked bool
	err      error
	reveals  int
}

func (v *fakeVault) IsUnlocked() bool { return v.unlocked }

func (v *fakeVault) RevealPassword(c *store.Credentials) (string, error) {
	v.reveals++
	if v.err != nil {
		return "", v.err
	}
	if !v.unlocked {
		return "", vault.ErrLocked
	}
	if len(c.Password) > 4 && c.Password[:4] == "enc:" {
		return c.Password[4:], nil
	}
	return "", vault.ErrDecryptionFailed
}

type fakeAccess struct {
	entries []*store.AccessEntry
	err     error
}

func (a *fakeAccess) RecordAccess(_ uuid.UUID, e *store.AccessEntry) error {
	if a.err != nil {
		return a.err
	}
	a.entries = append(a.entries, e)
	return nil
}

type fakeClipboard struct {
	text string
	err  error
}

func (c *fakeClipboard) WriteAll(text string) error {
	if c.err != nil {
		return c.err
	}
	c.text = text
	return nil
}

type fixture struct {
	platform  *fakePlatform
	health    *fakeHealth
	vault     *fakeVault
	access    *fakeAccess
	clipboard *fakeClipboard
	d         *Dispatcher
}

func newFixture() *fixture {
	f := &fixture{
		platform:  &fakePlatform{},
		health:    &fakeHealth{},
		vault:     &fakeVault{unlocked: true},
		access:    &fakeAccess{},
		clipboard: &fakeClipboard{},
	}
	f.d = New(Deps{
		Vault:     f.vault,
		Health:    f.health,
		Access:    f.access,
		Platform:  f.platform,
		Clipboard: f.clipboard,
	})
	return f
}
