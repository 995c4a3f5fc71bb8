// Package workspace manages per-batch scratch directories.
//
// Each batch run owns exactly one uniquely named directory under a stable
// base root. The directory is acquired before the first item is processed
// and removed unconditionally when the run ends, so no artifacts survive a
// batch on disk.
package workspace

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"otodake/internal/errs"
)

const dirPattern = "batch-*"

// Manager creates and destroys batch workspaces under a base scratch root.
type Manager struct {
	log  *slog.Logger
	root string
}

// Workspace is a handle to one batch's scratch directory.
type Workspace struct {
	log  *slog.Logger
	path string
}

// New ensures the base scratch root exists and returns a Manager. A root
// that cannot be created is fatal and is not retried.
func New(log *slog.Logger, root string) (*Manager, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", errs.ErrScratchRoot, root, err)
	}

	return &Manager{
		log:  log.With(slog.String("package", "workspace")),
		root: root,
	}, nil
}

// Root returns the base scratch root.
func (m *Manager) Root() string {
	return m.root
}

// Acquire creates a fresh, uniquely named directory for one batch run.
func (m *Manager) Acquire() (*Workspace, error) {
	path, err := os.MkdirTemp(m.root, dirPattern)
	if err != nil {
		return nil, fmt.Errorf("acquire workspace: %w", err)
	}

	m.log.Debug("workspace acquired", slog.String("path", path))

	return &Workspace{log: m.log, path: path}, nil
}

// Path returns the workspace directory.
func (w *Workspace) Path() string {
	return w.path
}

// Release recursively removes the workspace and everything in it. Removal
// failure is downgraded to a warning: cleanup trouble must not mask results
// that were already collected.
func (w *Workspace) Release(ctx context.Context) {
	if err := os.RemoveAll(w.path); err != nil {
		w.log.WarnContext(ctx, "workspace release failed, manual cleanup may be required",
			slog.String("path", w.path),
			slog.Any("error", err))

		return
	}

	w.log.DebugContext(ctx, "workspace released", slog.String("path", w.path))
}
