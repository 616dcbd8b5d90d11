package platform

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/aardel/launchpad/internal/target"
)

func passwordTarget(pw string) *target.SSHTarget {
	return &target.SSHTarget{Username: "admin", Host: "192.168.1.50", Port: 22, Password: pw, Auth: target.AuthPassword}
}

func TestComposeSSH_Plain(t *testing.T) {
	r := newFakeRunner("sshpass", "expect")
	tgt := &target.SSHTarget{Username: "admin", Host: "192.168.1.50", Port: 22, Auth: target.AuthInteractive}

	cmd, err := composeSSH(r, tgt, shellPOSIX)
	if err != nil {
		t.Fatalf("composeSSH: %v", err)
	}
	if cmd.strategy != strategyPlain {
		t.Errorf("strategy = %s, want plain", cmd.strategy)
	}
	if cmd.line != "ssh -p 22 admin@192.168.1.50" {
		t.Errorf("line = %q", cmd.line)
	}
	if cmd.script != "" || r.tempCount() != 0 {
		t.Error("plain ssh must not write temp files")
	}
}

func TestComposeSSH_SSHPass(t *testing.T) {
	r := newFakeRunner("sshpass", "expect")

	cmd, err := composeSSH(r, passwordTarget("s3cr3t"), shellPOSIX)
	if err != nil {
		t.Fatalf("composeSSH: %v", err)
	}
	if cmd.strategy != strategySSHPass {
		t.Fatalf("strategy = %s, want sshpass", cmd.strategy)
	}
	if strings.Contains(cmd.line, "s3cr3t") {
		t.Fatalf("command line leaks password: %q", cmd.line)
	}
	if !strings.Contains(cmd.line, "sshpass -e ssh") || !strings.Contains(cmd.line, "rm -f "+cmd.script) {
		t.Errorf("line = %q", cmd.line)
	}
	if got := string(r.temps[cmd.script]); got != "s3cr3t" {
		t.Errorf("password file = %q", got)
	}
}

func TestComposeSSH_Expect(t *testing.T) {
	r := newFakeRunner("expect")

	cmd, err := composeSSH(r, passwordTarget(`a"b$c[d]`), shellPOSIX)
	if err != nil {
		t.Fatalf("composeSSH: %v", err)
	}
	if cmd.strategy != strategyExpect {
		t.Fatalf("strategy = %s, want expect", cmd.strategy)
	}
	if cmd.line != "expect -f "+cmd.script {
		t.Errorf("line = %q", cmd.line)
	}

	script := string(r.temps[cmd.script])
	if !strings.HasPrefix(script, "file delete -- [info script]\n") {
		t.Error("script must delete itself first")
	}
	if !strings.Contains(script, `send -- "a\"b\$c\[d\]\r"`) {
		t.Errorf("password not escaped:\n%s", script)
	}
	if !strings.Contains(script, `spawn -- "ssh" "-p" "22"`) {
		t.Errorf("spawn line wrong:\n%s", script)
	}
}

func TestComposeSSH_FallsBackToPlain(t *testing.T) {
	r := newFakeRunner()

	cmd, err := composeSSH(r, passwordTarget("s3cr3t"), shellPOSIX)
	if err != nil {
		t.Fatalf("composeSSH: %v", err)
	}
	if cmd.strategy != strategyPlain {
		t.Errorf("strategy = %s, want plain", cmd.strategy)
	}
	if strings.Contains(cmd.line, "s3cr3t") {
		t.Error("plain line must not contain password")
	}
}

func TestComposeSSH_CmdShellIsPlain(t *testing.T) {
	r := newFakeRunner("sshpass", "expect")
	tgt := passwordTarget("s3cr3t")
	tgt.KeyPath = `C:\Users\Jo Doe\.ssh\id_ed25519`

	cmd, err := composeSSH(r, tgt, shellCmd)
	if err != nil {
		t.Fatalf("composeSSH: %v", err)
	}
	if cmd.strategy != strategyPlain || r.tempCount() != 0 {
		t.Fatalf("cmd shell should use plain ssh, got %s", cmd.strategy)
	}
	if !strings.Contains(cmd.line, `"C:\Users\Jo Doe\.ssh\id_ed25519"`) {
		t.Errorf("line = %q", cmd.line)
	}
}

func TestRelease_BackstopRemovesScript(t *testing.T) {
	old := scriptTTL
	scriptTTL = 10 * time.Millisecond
	t.Cleanup(func() { scriptTTL = old })

	r := newFakeRunner("sshpass")
	cmd, err := composeSSH(r, passwordTarget("pw"), shellPOSIX)
	if err != nil {
		t.Fatalf("composeSSH: %v", err)
	}
	cmd.release(r)

	deadline := time.Now().Add(2 * time.Second)
	for r.tempCount() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("script was not removed by backstop cleanup")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

// clearPending drops scripts released by earlier tests.
func clearPending() {
	for path := range pending.snapshot() {
		pending.remove(path)
	}
}

func TestFlushScripts_RemovesUnconsumedScript(t *testing.T) {
	clearPending()
	r := newFakeRunner("expect")
	cmd, err := composeSSH(r, passwordTarget("pw"), shellPOSIX)
	if err != nil {
		t.Fatalf("composeSSH: %v", err)
	}
	cmd.release(r)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	FlushScripts(ctx)

	if r.tempCount() != 0 {
		t.Fatal("script left on disk after flush")
	}
	if left := pending.snapshot(); len(left) != 0 {
		t.Errorf("still tracked: %v", left)
	}
}

func TestFlushScripts_ReturnsOnceScriptDeletesItself(t *testing.T) {
	clearPending()
	r := newFakeRunner("sshpass")
	cmd, err := composeSSH(r, passwordTarget("pw"), shellPOSIX)
	if err != nil {
		t.Fatalf("composeSSH: %v", err)
	}
	cmd.release(r)
	path := cmd.script
	go func() {
		time.Sleep(10 * time.Millisecond)
		_ = r.Remove(path)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	FlushScripts(ctx)

	if ctx.Err() != nil {
		t.Error("flush waited for the deadline after the script was gone")
	}
	if left := pending.snapshot(); len(left) != 0 {
		t.Errorf("still tracked: %v", left)
	}
}

func TestCmdJoin(t *testing.T) {
	got := cmdJoin("ssh", "-p", "22", "a b", `x"y`, "")
	want := `ssh -p 22 "a b" "x""y" ""`
	if got != want {
		t.Errorf("cmdJoin = %q, want %q", got, want)
	}
}

func TestOrdered(t *testing.T) {
	got := ordered("xterm", []string{"konsole", "xterm", " ", "kitty"})
	want := []string{"xterm", "konsole", "kitty"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("ordered = %v, want %v", got, want)
	}
}
