package platform

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
)

var errNotFound = errors.New("executable file not found")

type call struct {
	name string
	args []string
}

// fakeRunner records process calls instead of spawning anything.
type fakeRunner struct {
	mu        sync.Mutex
	paths     map[string]string
	files     map[string]bool
	failStart map[string]bool
	failRun   map[string]bool
	starts    []call
	runs      []call
	temps     map[string][]byte
	removed   []string
	n         int
}

func newFakeRunner(bins ...string) *fakeRunner {
	r := &fakeRunner{
		paths:     map[string]string{},
		files:     map[string]bool{},
		failStart: map[string]bool{},
		failRun:   map[string]bool{},
		temps:     map[string][]byte{},
	}
	for _, b := range bins {
		r.paths[b] = "/usr/bin/" + b
	}
	return r
}

func (r *fakeRunner) LookPath(file string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.paths[file]; ok {
		return p, nil
	}
	return "", errNotFound
}

func (r *fakeRunner) Exists(path string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, temp := r.temps[path]
	return r.files[path] || temp
}

func (r *fakeRunner) Start(name string, args ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.starts = append(r.starts, call{name, args})
	if r.failStart[name] {
		return fmt.Errorf("%w: %s", ErrProcessSpawnFailed, name)
	}
	return nil
}

func (r *fakeRunner) Run(_ context.Context, name string, args ...string) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs = append(r.runs, call{name, args})
	if r.failRun[name] {
		return nil, fmt.Errorf("%w: %s", ErrProcessSpawnFailed, name)
	}
	return nil, nil
}

func (r *fakeRunner) TempFile(pattern string, data []byte) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.n++
	path := "/tmp/" + strings.Replace(pattern, "*", strconv.Itoa(r.n), 1)
	r.temps[path] = data
	return path, nil
}

func (r *fakeRunner) Remove(path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removed = append(r.removed, path)
	delete(r.temps, path)
	return nil
}

func (r *fakeRunner) lastStart() call {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.starts) == 0 {
		return call{}
	}
	return r.starts[len(r.starts)-1]
}

func (r *fakeRunner) tempCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.temps)
}

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}
