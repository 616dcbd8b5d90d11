// Package platform spawns browsers, terminals and applications on the host
// operating system.
package platform

import (
	"context"
	"errors"
	"os"
	"runtime"

	"github.com/aardel/launchpad/internal/target"
)

var (
	// ErrBrowserNotFound is returned when a specific browser is not installed.
	ErrBrowserNotFound = errors.New("browser not found")
	// ErrTerminalUnavailable is returned after every terminal candidate failed.
	ErrTerminalUnavailable = errors.New("no supported terminal emulator found")
	// ErrProcessSpawnFailed is returned when the OS refuses to start a process.
	ErrProcessSpawnFailed = errors.New("failed to start process")
	// ErrAppNotFound is returned when an application path does not exist.
	ErrAppNotFound = errors.New("application not found")
)

// TerminalRequest asks for a new terminal window running an SSH session.
type TerminalRequest struct {
	Title string
	SSH   *target.SSHTarget
	// Terminal overrides the configured preferred terminal when set.
	Terminal string
}

// ProcessLauncher opens things on the host. Spawned processes are detached;
// a nil error only means the process started.
type ProcessLauncher interface {
	Name() string
	OpenURL(ctx context.Context, url string) error
	OpenInBrowser(ctx context.Context, browser target.Browser, url string) error
	OpenTerminal(ctx context.Context, req TerminalRequest) error
	OpenApp(ctx context.Context, path string, args []string) error
}

// Options tunes platform behaviour from settings.
type Options struct {
	// Terminal is the preferred terminal emulator.
	Terminal string
	// Terminals replaces the ordered Linux candidate list.
	Terminals []string
	// Getenv defaults to os.Getenv.
	Getenv func(string) string
}

func (o Options) getenv(key string) string {
	if o.Getenv != nil {
		return o.Getenv(key)
	}
	return os.Getenv(key)
}

// New returns the launcher for goos.
func New(goos string, r Runner, opts Options) ProcessLauncher {
	switch goos {
	case "darwin":
		return &Darwin{runner: r, opts: opts}
	case "windows":
		return &Windows{runner: r, opts: opts}
	default:
		return &Linux{runner: r, opts: opts}
	}
}

// Current returns the launcher for the running OS.
func Current(opts Options) ProcessLauncher {
	return New(runtime.GOOS, ExecRunner{}, opts)
}
