// SPDX-License-Identifier: AGPL-3.0-or-later

// Package workarea implements the scoped, reference-counted working
// directory a layout uses to accumulate patched overlays, plugin
// artifacts and a merged resource tree.
package workarea

import (
	"os"
	"path/filepath"
	"sync"

	"packline/pkg/perr"
)

const (
	patchedSubdir   = "patched"
	pluginsSubdir   = "plugins"
	resourcesSubdir = "resources"
	tmpSubdir       = "tmp"
	stagedSubdir    = "staged"
)

// core is the shared, refcounted state behind every Area handle that was
// produced by Acquire from the same original creation. Only the handle
// that hits refcount zero on Close actually deletes root.
type core struct {
	mu   sync.Mutex
	root string
	refs int
}

// Area is a handle onto a work-area directory. Transformed layout views
// share one core via Acquire; each handle closes independently and the
// directory is removed only when the last handle closes.
type Area struct {
	c        *core
	closeOne sync.Once
}

// New creates a fresh work-area directory under baseDir (or the default
// temp directory if baseDir is empty) and returns the owning handle with
// a refcount of 1.
func New(baseDir string) (*Area, error) {
	root, err := os.MkdirTemp(baseDir, "packline-workarea-")
	if err != nil {
		return nil, perr.Wrap(perr.MkdirFailed, err, "creating work area root")
	}
	return &Area{c: &core{root: root, refs: 1}}, nil
}

// Acquire returns a new handle onto the same underlying directory,
// incrementing the shared refcount. Used when a layout is transformed
// into a view parameterised by a different F type.
func (a *Area) Acquire() *Area {
	a.c.mu.Lock()
	a.c.refs++
	a.c.mu.Unlock()
	return &Area{c: a.c}
}

// Close decrements the refcount exactly once per handle. The final Close
// across all handles sharing this core removes the directory, best
// effort: I/O failures during that removal are swallowed, so Close
// always returns nil. Double-close on the same handle is a no-op.
func (a *Area) Close() error {
	a.closeOne.Do(func() {
		a.c.mu.Lock()
		a.c.refs--
		remaining := a.c.refs
		root := a.c.root
		a.c.mu.Unlock()

		if remaining <= 0 {
			_ = os.RemoveAll(root)
		}
	})
	return nil
}

// Root returns the work area's root directory.
func (a *Area) Root() string { return a.c.root }

func (a *Area) subdir(name string) string { return filepath.Join(a.c.root, name) }

// PatchedDir returns patched/, creating it if necessary.
func (a *Area) PatchedDir() (string, error) { return a.ensureSubdir(patchedSubdir) }

// PluginsDir returns plugins/, creating it if necessary.
func (a *Area) PluginsDir() (string, error) { return a.ensureSubdir(pluginsSubdir) }

// ResourcesDir returns resources/, creating it if necessary.
func (a *Area) ResourcesDir() (string, error) { return a.ensureSubdir(resourcesSubdir) }

// TmpDir returns tmp/, creating it if necessary.
func (a *Area) TmpDir() (string, error) { return a.ensureSubdir(tmpSubdir) }

// TmpPath joins parts under tmp/, creating tmp/ if necessary.
func (a *Area) TmpPath(parts ...string) (string, error) {
	dir, err := a.TmpDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(append([]string{dir}, parts...)...), nil
}

// ResourcePath joins parts under resources/.
func (a *Area) ResourcePath(parts ...string) string {
	return filepath.Join(append([]string{a.subdir(resourcesSubdir)}, parts...)...)
}

func (a *Area) ensureSubdir(name string) (string, error) {
	dir := a.subdir(name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", perr.Wrap(perr.MkdirFailed, err, "creating %s", dir)
	}
	return dir, nil
}

// NewStagedDir empties staged/ (if it exists) and returns its path ready
// for the caller to write output into.
func (a *Area) NewStagedDir() (string, error) {
	staged := a.subdir(stagedSubdir)
	if err := os.RemoveAll(staged); err != nil {
		return "", perr.Wrap(perr.MkdirFailed, err, "clearing staged dir %s", staged)
	}
	if err := os.MkdirAll(staged, 0o755); err != nil {
		return "", perr.Wrap(perr.MkdirFailed, err, "creating staged dir %s", staged)
	}
	return staged, nil
}

// Reset clears every subdirectory's contents but keeps the root itself
// (and the root keeps existing for callers holding its path). Failures
// during deletion are attempted best-effort and then surfaced; the
// caller decides whether to treat a Reset failure as fatal.
func (a *Area) Reset() error {
	var firstErr error
	for _, name := range []string{patchedSubdir, pluginsSubdir, resourcesSubdir, tmpSubdir, stagedSubdir} {
		dir := a.subdir(name)
		if err := os.RemoveAll(dir); err != nil && firstErr == nil {
			firstErr = perr.Wrap(perr.MkdirFailed, err, "resetting %s", dir)
		}
	}
	return firstErr
}

// HasResources reports whether resources/ has any content.
func (a *Area) HasResources() bool { return dirHasEntries(a.subdir(resourcesSubdir)) }

// HasPlugins reports whether plugins/ has any content.
func (a *Area) HasPlugins() bool { return dirHasEntries(a.subdir(pluginsSubdir)) }

// HasPatches reports whether patched/ has any content.
func (a *Area) HasPatches() bool { return dirHasEntries(a.subdir(patchedSubdir)) }

func dirHasEntries(dir string) bool {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false
	}
	return len(entries) > 0
}

// PatchedCopyDir returns the directory a patched copy of the feature pack
// identified by key (typically its FPID rendered to a path-safe form)
// should live in, creating its parent.
func (a *Area) PatchedCopyDir(key string) (string, error) {
	patched, err := a.PatchedDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(patched, key)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", perr.Wrap(perr.MkdirFailed, err, "creating patched dir %s", dir)
	}
	return dir, nil
}
