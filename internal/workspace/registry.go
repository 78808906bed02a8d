package workspace

import (
	"context"
	"path/filepath"
	"sync"
)

// Registry guarantees one Workspace per project identity process-wide,
// so two callers naming the same project never spawn two analyzer
// sessions over the same files. The check-then-create sequence runs
// under the lock; re-acquiring an existing project is idempotent.
type Registry struct {
	mu         sync.Mutex
	workspaces map[string]*Workspace
}

// NewRegistry creates an empty registry. Construct one at process start
// and tear it down with Shutdown.
func NewRegistry() *Registry {
	return &Registry{workspaces: make(map[string]*Workspace)}
}

func registryKey(rootDir, name string) string {
	abs, err := filepath.Abs(rootDir)
	if err != nil {
		abs = rootDir
	}
	return abs + "\x00" + name
}

// Acquire returns the workspace for the given project, creating and
// starting it on first use.
func (r *Registry) Acquire(ctx context.Context, rootDir, name string, opts ...Option) (*Workspace, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := registryKey(rootDir, name)
	if w, ok := r.workspaces[key]; ok {
		return w, nil
	}

	w, err := New(ctx, rootDir, name, opts...)
	if err != nil {
		return nil, err
	}
	r.workspaces[key] = w
	return w, nil
}

// Release shuts down and removes one workspace.
func (r *Registry) Release(ctx context.Context, rootDir, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := registryKey(rootDir, name)
	w, ok := r.workspaces[key]
	if !ok {
		return nil
	}
	delete(r.workspaces, key)
	return w.Shutdown(ctx)
}

// Shutdown tears down every registered workspace.
func (r *Registry) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var first error
	for key, w := range r.workspaces {
		if err := w.Shutdown(ctx); err != nil && first == nil {
			first = err
		}
		delete(r.workspaces, key)
	}
	return first
}

// Len reports how many workspaces are registered.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.workspaces)
}
