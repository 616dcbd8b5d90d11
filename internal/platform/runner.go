package platform

import (
	"context"
	"fmt"
	"os"
	"os/exec"
)

// Runner is the process boundary. ExecRunner is the real implementation.
type Runner interface {
	LookPath(file string) (string, error)
	Exists(path string) bool
	// Start spawns a detached process and does not wait for it.
	Start(name string, args ...string) error
	// Run waits for the process and returns its combined output.
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
	// TempFile writes data to a new file only the current user can read.
	TempFile(pattern string, data []byte) (string, error)
	Remove(path string) error
}

// ExecRunner runs real processes with os/exec.
type ExecRunner struct{}

func (ExecRunner) LookPath(file string) (string, error) { return exec.LookPath(file) }

func (ExecRunner) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (ExecRunner) Start(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	detach(cmd)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrProcessSpawnFailed, name, err)
	}
	// Reap the child so it does not linger as a zombie.
	go func() { _ = cmd.Wait() }()
	return nil
}

func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	if err != nil {
		return out, fmt.Errorf("%w: %s: %v", ErrProcessSpawnFailed, name, err)
	}
	return out, nil
}

func (ExecRunner) TempFile(pattern string, data []byte) (string, error) {
	f, err := os.CreateTemp("", pattern)
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	path := f.Name()

	if err := f.Chmod(0o600); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("chmod temp file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("write temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("close temp file: %w", err)
	}
	return path, nil
}

func (ExecRunner) Remove(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
