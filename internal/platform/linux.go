package platform

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/kballard/go-shellquote"

	"github.com/aardel/launchpad/internal/target"
)

// DefaultLinuxTerminals is the order terminal emulators are tried in.
var DefaultLinuxTerminals = []string{
	"gnome-terminal",
	"konsole",
	"xfce4-terminal",
	"tilix",
	"kitty",
	"alacritty",
	"terminator",
	"xterm",
}

var linuxBrowsers = map[target.Browser][]string{
	target.BrowserChrome:  {"google-chrome", "google-chrome-stable", "chromium", "chromium-browser"},
	target.BrowserEdge:    {"microsoft-edge", "microsoft-edge-stable"},
	target.BrowserBrave:   {"brave-browser", "brave"},
	target.BrowserOpera:   {"opera"},
	target.BrowserChatGPT: {"chatgpt"},
	target.BrowserFirefox: {"firefox"},
}

// Linux launches through xdg-open and the first working terminal emulator.
type Linux struct {
	runner Runner
	opts   Options
}

func (l *Linux) Name() string { return "linux" }

// OpenURL honours $BROWSER before falling back to xdg-open. $BROWSER is a
// colon-separated list of commands tried in order.
func (l *Linux) OpenURL(_ context.Context, url string) error {
	for _, entry := range strings.Split(l.opts.getenv("BROWSER"), ":") {
		argv, err := browserCommand(entry, url)
		if err != nil {
			slog.Debug("ignoring malformed $BROWSER entry", "error", err)
			continue
		}
		if len(argv) == 0 {
			continue
		}
		path, err := l.runner.LookPath(argv[0])
		if err != nil {
			continue
		}
		if err := l.runner.Start(path, argv[1:]...); err == nil {
			return nil
		}
	}
	return l.runner.Start("xdg-open", url)
}

// browserCommand splits one $BROWSER entry with shell quoting. Every %s is
// replaced by url; without one, url is appended.
func browserCommand(entry, url string) ([]string, error) {
	words, err := shellquote.Split(entry)
	if err != nil || len(words) == 0 {
		return nil, err
	}
	substituted := false
	for i, w := range words {
		if strings.Contains(w, "%s") {
			words[i] = strings.ReplaceAll(w, "%s", url)
			substituted = true
		}
	}
	if !substituted {
		words = append(words, url)
	}
	return words, nil
}

func (l *Linux) OpenInBrowser(ctx context.Context, browser target.Browser, url string) error {
	if browser == target.BrowserDefault {
		return l.OpenURL(ctx, url)
	}
	for _, bin := range linuxBrowsers[browser] {
		path, err := l.runner.LookPath(bin)
		if err != nil {
			continue
		}
		return l.runner.Start(path, url)
	}
	return fmt.Errorf("%w: %s", ErrBrowserNotFound, browser)
}

func (l *Linux) OpenTerminal(_ context.Context, req TerminalRequest) error {
	cmd, err := composeSSH(l.runner, req.SSH, shellPOSIX)
	if err != nil {
		return err
	}

	candidates := l.opts.Terminals
	if len(candidates) == 0 {
		candidates = DefaultLinuxTerminals
	}
	preferred := req.Terminal
	if preferred == "" {
		preferred = l.opts.Terminal
	}

	var tried []string
	for _, term := range ordered(preferred, candidates) {
		path, err := l.runner.LookPath(term)
		if err != nil {
			continue
		}
		tried = append(tried, term)
		if err := l.runner.Start(path, linuxTerminalArgs(term, req.Title, cmd.line)...); err != nil {
			slog.Debug("terminal failed to start", "terminal", term, "error", err)
			continue
		}
		slog.Debug("terminal started", "terminal", term, "ssh_strategy", string(cmd.strategy))
		cmd.release(l.runner)
		return nil
	}

	cmd.discard(l.runner)
	if len(tried) == 0 {
		return ErrTerminalUnavailable
	}
	return fmt.Errorf("%w (tried %s)", ErrTerminalUnavailable, strings.Join(tried, ", "))
}

func (l *Linux) OpenApp(_ context.Context, path string, args []string) error {
	if !l.runner.Exists(path) {
		return fmt.Errorf("%w: %s", ErrAppNotFound, path)
	}
	return l.runner.Start(path, args...)
}

// linuxTerminalArgs returns the arguments that make term run line in sh.
func linuxTerminalArgs(term, title, line string) []string {
	sh := []string{"sh", "-c", line}
	var args []string
	switch term {
	case "gnome-terminal":
		if title != "" {
			args = append(args, "--title="+title)
		}
		return append(append(args, "--"), sh...)
	case "kitty":
		if title != "" {
			args = append(args, "--title", title)
		}
		return append(args, sh...)
	case "tilix":
		// tilix takes the whole command as one argument.
		return []string{"-e", shellquote.Join(sh...)}
	case "xfce4-terminal", "terminator":
		if title != "" {
			args = append(args, "--title="+title)
		}
		return append(append(args, "-x"), sh...)
	case "alacritty":
		if title != "" {
			args = append(args, "--title", title)
		}
		return append(append(args, "-e"), sh...)
	case "xterm":
		if title != "" {
			args = append(args, "-T", title)
		}
		return append(append(args, "-e"), sh...)
	default:
		return append([]string{"-e"}, sh...)
	}
}
