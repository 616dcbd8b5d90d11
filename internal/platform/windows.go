package platform

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aardel/launchpad/internal/target"
)

type installPath struct {
	env string
	rel string
}

var windowsBrowsers = map[target.Browser][]installPath{
	target.BrowserChrome: {
		{"ProgramFiles", `Google\Chrome\Application\chrome.exe`},
		{"ProgramFiles(x86)", `Google\Chrome\Application\chrome.exe`},
		{"LOCALAPPDATA", `Google\Chrome\Application\chrome.exe`},
	},
	target.BrowserEdge: {
		{"ProgramFiles(x86)", `Microsoft\Edge\Application\msedge.exe`},
		{"ProgramFiles", `Microsoft\Edge\Application\msedge.exe`},
	},
	target.BrowserBrave: {
		{"ProgramFiles", `BraveSoftware\Brave-Browser\Application\brave.exe`},
		{"LOCALAPPDATA", `BraveSoftware\Brave-Browser\Application\brave.exe`},
	},
	target.BrowserOpera: {
		{"LOCALAPPDATA", `Programs\Opera\opera.exe`},
		{"ProgramFiles", `Opera\opera.exe`},
	},
	target.BrowserChatGPT: {
		{"LOCALAPPDATA", `Programs\ChatGPT\ChatGPT.exe`},
	},
	target.BrowserFirefox: {
		{"ProgramFiles", `Mozilla Firefox\firefox.exe`},
		{"ProgramFiles(x86)", `Mozilla Firefox\firefox.exe`},
	},
}

var windowsTerminals = []string{"wt", "cmd", "powershell"}

// Windows launches through rundll32, cmd start and Windows Terminal.
type Windows struct {
	runner Runner
	opts   Options
}

func (w *Windows) Name() string { return "windows" }

// OpenURL uses the URL protocol handler; cmd start would split URLs on '&'.
func (w *Windows) OpenURL(_ context.Context, url string) error {
	return w.runner.Start("rundll32", "url.dll,FileProtocolHandler", url)
}

func (w *Windows) OpenInBrowser(ctx context.Context, browser target.Browser, url string) error {
	if browser == target.BrowserDefault {
		return w.OpenURL(ctx, url)
	}
	for _, p := range windowsBrowsers[browser] {
		base := w.opts.getenv(p.env)
		if base == "" {
			continue
		}
		exe := winJoin(base, p.rel)
		if w.runner.Exists(exe) {
			return w.runner.Start(exe, url)
		}
	}
	return fmt.Errorf("%w: %s", ErrBrowserNotFound, browser)
}

func (w *Windows) OpenTerminal(_ context.Context, req TerminalRequest) error {
	cmd, err := composeSSH(w.runner, req.SSH, shellCmd)
	if err != nil {
		return err
	}

	preferred := req.Terminal
	if preferred == "" {
		preferred = w.opts.Terminal
	}
	title := req.Title
	if title == "" {
		title = "ssh"
	}

	for _, term := range ordered(windowsTerminal(preferred), windowsTerminals) {
		path, err := w.runner.LookPath(term)
		if err != nil {
			continue
		}

		var args []string
		switch term {
		case "wt":
			args = []string{"new-tab", "--title", title, "cmd", "/k", cmd.line}
		case "cmd":
			args = []string{"/c", "start", "", "cmd", "/k", cmd.line}
		case "powershell":
			args = []string{"-NoProfile", "-Command",
				fmt.Sprintf("Start-Process -FilePath cmd -ArgumentList '/k %s'", strings.ReplaceAll(cmd.line, "'", "''"))}
		default:
			continue
		}

		if err := w.runner.Start(path, args...); err != nil {
			slog.Debug("terminal failed to start", "terminal", term, "error", err)
			continue
		}
		cmd.release(w.runner)
		return nil
	}

	cmd.discard(w.runner)
	return ErrTerminalUnavailable
}

func (w *Windows) OpenApp(_ context.Context, path string, args []string) error {
	if !w.runner.Exists(path) {
		return fmt.Errorf("%w: %s", ErrAppNotFound, path)
	}
	return w.runner.Start("cmd", append([]string{"/c", "start", "", path}, args...)...)
}

func windowsTerminal(name string) string {
	switch strings.ToLower(strings.TrimSuffix(strings.TrimSpace(name), ".exe")) {
	case "wt", "windows terminal":
		return "wt"
	case "cmd":
		return "cmd"
	case "powershell", "pwsh":
		return "powershell"
	}
	return ""
}

func winJoin(base, rel string) string {
	return strings.TrimRight(base, `\/`) + `\` + rel
}
