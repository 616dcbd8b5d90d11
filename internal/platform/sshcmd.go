package platform

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/kballard/go-shellquote"

	"github.com/aardel/launchpad/internal/target"
)

// scriptTTL is how long a password script may stay on disk after its
// terminal started, in case the terminal never ran it.
var scriptTTL = 2 * time.Minute

type sshStrategy string

const (
	strategySSHPass sshStrategy = "sshpass"
	strategyExpect  sshStrategy = "expect"
	strategyPlain   sshStrategy = "plain"
)

type shellKind int

const (
	shellPOSIX shellKind = iota
	shellCmd
)

// sshCommand is a shell command line for a terminal to run. script is a
// temporary file the command owns, or "".
type sshCommand struct {
	line     string
	strategy sshStrategy
	script   string
}

// composeSSH builds the command for t. Password injection tries sshpass, then
// an expect script, then falls back to plain ssh where the user types the
// password. Injection needs a POSIX shell; cmd.exe always gets plain ssh.
func composeSSH(r Runner, t *target.SSHTarget, shell shellKind) (*sshCommand, error) {
	argv := append([]string{"ssh"}, t.Args()...)
	join := shellquote.Join
	if shell == shellCmd {
		join = cmdJoin
	}
	plain := &sshCommand{line: join(argv...), strategy: strategyPlain}

	if t.Auth != target.AuthPassword || shell != shellPOSIX {
		return plain, nil
	}

	if _, err := r.LookPath("sshpass"); err == nil {
		path, err := r.TempFile("lpad-pass-*", []byte(t.Password))
		if err != nil {
			return nil, fmt.Errorf("write password file: %w", err)
		}
		q := shellquote.Join(path)
		line := fmt.Sprintf(`SSHPASS="$(cat %s; rm -f %s)" %s`, q, q,
			shellquote.Join(append([]string{"sshpass", "-e"}, argv...)...))
		return &sshCommand{line: line, strategy: strategySSHPass, script: path}, nil
	}

	if _, err := r.LookPath("expect"); err == nil {
		path, err := r.TempFile("lpad-ssh-*.exp", expectScript(argv, t.Password))
		if err != nil {
			return nil, fmt.Errorf("write expect script: %w", err)
		}
		return &sshCommand{
			line:     shellquote.Join("expect", "-f", path),
			strategy: strategyExpect,
			script:   path,
		}, nil
	}

	return plain, nil
}

// discard removes the script immediately. Every failure path calls it.
func (c *sshCommand) discard(r Runner) {
	if c.script != "" {
		_ = r.Remove(c.script)
	}
}

// release schedules removal of the script. The script normally deletes itself
// when it runs first. Until then it is tracked so FlushScripts can reach it.
func (c *sshCommand) release(r Runner) {
	if c.script == "" {
		return
	}
	path := c.script
	pending.mu.Lock()
	defer pending.mu.Unlock()
	pending.scripts[path] = &pendingScript{
		runner: r,
		timer:  time.AfterFunc(scriptTTL, func() { pending.remove(path) }),
	}
}

// flushPoll is how often FlushScripts checks whether scripts are gone.
var flushPoll = 100 * time.Millisecond

type pendingScript struct {
	runner Runner
	timer  *time.Timer
}

type scriptRegistry struct {
	mu      sync.Mutex
	scripts map[string]*pendingScript
}

var pending = &scriptRegistry{scripts: map[string]*pendingScript{}}

// take drops path from the registry and stops its backstop timer.
func (p *scriptRegistry) take(path string) *pendingScript {
	p.mu.Lock()
	defer p.mu.Unlock()
	s, ok := p.scripts[path]
	if !ok {
		return nil
	}
	delete(p.scripts, path)
	s.timer.Stop()
	return s
}

func (p *scriptRegistry) remove(path string) {
	if s := p.take(path); s != nil {
		_ = s.runner.Remove(path)
	}
}

func (p *scriptRegistry) snapshot() map[string]Runner {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make(map[string]Runner, len(p.scripts))
	for path, s := range p.scripts {
		out[path] = s.runner
	}
	return out
}

// FlushScripts waits for released password scripts to delete themselves and
// removes any still on disk when ctx ends. A process that exits right after
// a launch calls it first, since the backstop timers die with the process.
func FlushScripts(ctx context.Context) {
	ticker := time.NewTicker(flushPoll)
	defer ticker.Stop()
	for {
		left := pending.snapshot()
		for path, r := range left {
			if !r.Exists(path) {
				pending.take(path)
				delete(left, path)
			}
		}
		if len(left) == 0 {
			return
		}

		select {
		case <-ctx.Done():
			for path := range left {
				pending.remove(path)
			}
			return
		case <-ticker.C:
		}
	}
}

// expectScript answers the host-key and password prompts, then hands the
// session to the user. The script deletes itself before doing anything else.
func expectScript(argv []string, password string) []byte {
	words := make([]string, len(argv))
	for i, a := range argv {
		words[i] = tclQuote(a)
	}

	var b strings.Builder
	b.WriteString("file delete -- [info script]\n")
	b.WriteString("set timeout 30\n")
	fmt.Fprintf(&b, "spawn -- %s\n", strings.Join(words, " "))
	b.WriteString("expect {\n")
	b.WriteString("\t-nocase \"yes/no\" { send -- \"yes\\r\"; exp_continue }\n")
	fmt.Fprintf(&b, "\t-nocase \"password:\" { send -- %s }\n", tclQuote(password+"\r"))
	b.WriteString("\teof { exit 1 }\n")
	b.WriteString("}\n")
	b.WriteString("interact\n")
	return []byte(b.String())
}

var tclEscaper = strings.NewReplacer(
	`\`, `\\`,
	`"`, `\"`,
	`$`, `\$`,
	`[`, `\[`,
	`]`, `\]`,
	"\r", `\r`,
	"\n", `\n`,
)

func tclQuote(s string) string {
	return `"` + tclEscaper.Replace(s) + `"`
}

// cmdJoin quotes arguments for cmd.exe.
func cmdJoin(args ...string) string {
	quoted := make([]string, len(args))
	for i, a := range args {
		if a == "" || strings.ContainsAny(a, " \t&|<>^\"") {
			a = `"` + strings.ReplaceAll(a, `"`, `""`) + `"`
		}
		quoted[i] = a
	}
	return strings.Join(quoted, " ")
}

// ordered returns preferred followed by candidates, without duplicates.
func ordered(preferred string, candidates []string) []string {
	out := make([]string, 0, len(candidates)+1)
	seen := make(map[string]bool, len(candidates)+1)
	for _, c := range append([]string{preferred}, candidates...) {
		c = strings.TrimSpace(c)
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}
