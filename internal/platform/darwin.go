package platform

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/aardel/launchpad/internal/target"
)

var darwinBrowserApps = map[target.Browser]string{
	target.BrowserChrome:  "Google Chrome",
	target.BrowserEdge:    "Microsoft Edge",
	target.BrowserBrave:   "Brave Browser",
	target.BrowserOpera:   "Opera",
	target.BrowserChatGPT: "ChatGPT",
	target.BrowserFirefox: "Firefox",
	target.BrowserSafari:  "Safari",
}

// Darwin launches through open(1) and drives terminals with osascript.
type Darwin struct {
	runner Runner
	opts   Options
}

func (d *Darwin) Name() string { return "darwin" }

func (d *Darwin) OpenURL(_ context.Context, url string) error {
	return d.runner.Start("open", url)
}

func (d *Darwin) OpenInBrowser(ctx context.Context, browser target.Browser, url string) error {
	if browser == target.BrowserDefault {
		return d.OpenURL(ctx, url)
	}
	app, ok := darwinBrowserApps[browser]
	if !ok || !d.appInstalled(app) {
		return fmt.Errorf("%w: %s", ErrBrowserNotFound, browser)
	}
	return d.runner.Start("open", "-a", app, url)
}

// OpenTerminal tries the preferred terminal, then Terminal.app.
func (d *Darwin) OpenTerminal(ctx context.Context, req TerminalRequest) error {
	cmd, err := composeSSH(d.runner, req.SSH, shellPOSIX)
	if err != nil {
		return err
	}

	preferred := req.Terminal
	if preferred == "" {
		preferred = d.opts.Terminal
	}

	for _, term := range ordered(darwinTerminal(preferred), []string{"Terminal"}) {
		var script string
		switch term {
		case "iTerm":
			if !d.appInstalled("iTerm") {
				continue
			}
			script = iTermScript(cmd.line)
		case "Terminal":
			script = terminalScript(cmd.line)
		default:
			continue
		}

		if _, err := d.runner.Run(ctx, "osascript", "-e", script); err != nil {
			slog.Debug("terminal automation failed", "terminal", term, "error", err)
			continue
		}
		slog.Debug("terminal started", "terminal", term, "ssh_strategy", string(cmd.strategy))
		cmd.release(d.runner)
		return nil
	}

	cmd.discard(d.runner)
	return ErrTerminalUnavailable
}

// OpenApp opens .app bundles with open -a and executes anything else.
func (d *Darwin) OpenApp(_ context.Context, path string, args []string) error {
	if !d.runner.Exists(path) {
		return fmt.Errorf("%w: %s", ErrAppNotFound, path)
	}
	if strings.HasSuffix(strings.TrimSuffix(path, "/"), ".app") {
		openArgs := []string{"-a", path}
		if len(args) > 0 {
			openArgs = append(append(openArgs, "--args"), args...)
		}
		return d.runner.Start("open", openArgs...)
	}
	return d.runner.Start(path, args...)
}

func (d *Darwin) appInstalled(name string) bool {
	dirs := []string{"/Applications", "/System/Applications"}
	if home := d.opts.getenv("HOME"); home != "" {
		dirs = append(dirs, filepath.Join(home, "Applications"))
	}
	for _, dir := range dirs {
		if d.runner.Exists(filepath.Join(dir, name+".app")) {
			return true
		}
	}
	return false
}

func darwinTerminal(name string) string {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "iterm", "iterm2":
		return "iTerm"
	case "terminal", "terminal.app", "":
		return "Terminal"
	}
	return name
}

func terminalScript(line string) string {
	return fmt.Sprintf("tell application \"Terminal\"\n\tactivate\n\tdo script %s\nend tell", appleQuote(line))
}

func iTermScript(line string) string {
	return fmt.Sprintf("tell application \"iTerm\"\n\tactivate\n\tset w to (create window with default profile)\n\ttell current session of w to write text %s\nend tell", appleQuote(line))
}

func appleQuote(s string) string {
	return `"` + strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s) + `"`
}
