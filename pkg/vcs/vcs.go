// Package vcs detects version-control systems in a working directory and
// provides snapshot/restore primitives for guarded code edits.
//
// Detection inspects well-known marker paths (.git, .hg, .svn) and resolves
// the first recognized one. Only git has a working backend today; other
// systems are reported by name so callers can fail with a useful message
// before attempting any edit.
package vcs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

var (
	// ErrNoVCS indicates no recognized version-control marker was found
	ErrNoVCS = errors.New("no version control system detected")

	// ErrUnsupported indicates a recognized but unsupported VCS
	ErrUnsupported = errors.New("unsupported version control system")

	// ErrRestoreFailed indicates a snapshot could not be restored. The
	// working tree may be in an inconsistent state when this is returned.
	ErrRestoreFailed = errors.New("snapshot restore failed")
)

// System captures and restores the tracked-file state of a working
// directory, so a failed edit can be discarded.
type System interface {
	// Name returns the backend identifier (e.g. "git").
	Name() string

	// Snapshot records the current tracked-file state and returns an
	// opaque token for Restore. An empty token means there is nothing
	// to restore, such as a repository with no commits yet.
	Snapshot(ctx context.Context) (string, error)

	// Restore returns tracked files to the state captured by token.
	// Restoring an empty token is a no-op.
	Restore(ctx context.Context, token string) error
}

// Detect returns a System for the first recognized VCS marker in dir.
//
// A .git entry wins over other markers. Returns ErrUnsupported for
// recognized systems without a backend and ErrNoVCS when no marker is
// present.
func Detect(dir string) (System, error) {
	if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
		return &gitSystem{dir: dir}, nil
	}

	others := []struct {
		marker string
		name   string
	}{
		{".hg", "mercurial"},
		{".svn", "subversion"},
	}
	for _, vcs := range others {
		if _, err := os.Stat(filepath.Join(dir, vcs.marker)); err == nil {
			return nil, fmt.Errorf("%w: %s", ErrUnsupported, vcs.name)
		}
	}

	return nil, fmt.Errorf("%w: %s", ErrNoVCS, dir)
}
