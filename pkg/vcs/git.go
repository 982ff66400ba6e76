package vcs

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	git "github.com/go-git/go-git/v5"
)

// gitSystem snapshots and restores a git working tree.
//
// Snapshot uses `git stash create`, which records the tracked-file state
// as an unreferenced commit without touching the working tree. Restore
// checks that commit back out over the current tree.
type gitSystem struct {
	dir string
}

func (g *gitSystem) Name() string { return "git" }

// Snapshot captures the current tracked-file state.
//
// A clean tree produces no stash commit, so the HEAD hash serves as the
// token instead. A repository with no commits yet has nothing to restore
// and yields an empty token.
func (g *gitSystem) Snapshot(ctx context.Context) (string, error) {
	if !g.hasCommits() {
		return "", nil
	}

	out, err := g.run(ctx, "stash", "create")
	if err != nil {
		return "", fmt.Errorf("creating snapshot: %w", err)
	}
	if token := strings.TrimSpace(out); token != "" {
		return token, nil
	}

	head, err := g.run(ctx, "rev-parse", "HEAD")
	if err != nil {
		return "", fmt.Errorf("resolving HEAD: %w", err)
	}
	return strings.TrimSpace(head), nil
}

// Restore checks the snapshot commit out over the working tree. Tracked
// files return to their snapshot state; files created since are left in
// place.
func (g *gitSystem) Restore(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if _, err := g.run(ctx, "checkout", token, "--", "."); err != nil {
		return fmt.Errorf("%w: %v", ErrRestoreFailed, err)
	}
	return nil
}

// hasCommits reports whether HEAD resolves to a commit. Freshly
// initialized repositories have an unborn HEAD until the first commit.
func (g *gitSystem) hasCommits() bool {
	repo, err := git.PlainOpen(g.dir)
	if err != nil {
		return false
	}
	_, err = repo.Head()
	return err == nil
}

func (g *gitSystem) run(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = g.dir
	output, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("git %s failed: %w\noutput: %s", strings.Join(args, " "), err, output)
	}
	return string(output), nil
}
