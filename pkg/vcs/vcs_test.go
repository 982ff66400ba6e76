package vcs

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		name     string
		setupDir func(t *testing.T) string
		wantName string
		wantErr  error
	}{
		{
			name: "git repository",
			setupDir: func(t *testing.T) string {
				dir := t.TempDir()
				require.NoError(t, os.Mkdir(filepath.Join(dir, ".git"), 0o755))
				return dir
			},
			wantName: "git",
		},
		{
			name: "git wins over other markers",
			setupDir: func(t *testing.T) string {
				dir := t.TempDir()
				require.NoError(t, os.Mkdir(filepath.Join(dir, ".git"), 0o755))
				require.NoError(t, os.Mkdir(filepath.Join(dir, ".hg"), 0o755))
				return dir
			},
			wantName: "git",
		},
		{
			name: "mercurial repository",
			setupDir: func(t *testing.T) string {
				dir := t.TempDir()
				require.NoError(t, os.Mkdir(filepath.Join(dir, ".hg"), 0o755))
				return dir
			},
			wantErr: ErrUnsupported,
		},
		{
			name: "subversion repository",
			setupDir: func(t *testing.T) string {
				dir := t.TempDir()
				require.NoError(t, os.Mkdir(filepath.Join(dir, ".svn"), 0o755))
				return dir
			},
			wantErr: ErrUnsupported,
		},
		{
			name: "no version control",
			setupDir: func(t *testing.T) string {
				return t.TempDir()
			},
			wantErr: ErrNoVCS,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := tt.setupDir(t)
			system, err := Detect(dir)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, system.Name())
		})
	}
}

// initGitRepo creates a real git repository for snapshot/restore tests.
// Tests that need the git binary skip when it is unavailable.
func initGitRepo(t *testing.T) string {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git binary not available")
	}

	dir := t.TempDir()
	execGit(t, dir, "init")
	execGit(t, dir, "config", "user.email", "test@example.com")
	execGit(t, dir, "config", "user.name", "Test User")
	return dir
}

func execGit(t *testing.T, dir string, args ...string) {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, "git %v: %s", args, out)
}

func commitFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	execGit(t, dir, "add", name)
	execGit(t, dir, "commit", "-m", "add "+name)
}

func TestGitSnapshotRestore(t *testing.T) {
	dir := initGitRepo(t)
	commitFile(t, dir, "main.go", "package main\n")

	system, err := Detect(dir)
	require.NoError(t, err)

	// Uncommitted edit that the snapshot should preserve.
	path := filepath.Join(dir, "main.go")
	require.NoError(t, os.WriteFile(path, []byte("package main\n\nfunc main() {}\n"), 0o644))

	ctx := context.Background()
	token, err := system.Snapshot(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	// A bad edit lands after the snapshot.
	require.NoError(t, os.WriteFile(path, []byte("package main\n\nbroken\n"), 0o644))

	require.NoError(t, system.Restore(ctx, token))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "package main\n\nfunc main() {}\n", string(content))
}

func TestGitSnapshotCleanTree(t *testing.T) {
	dir := initGitRepo(t)
	commitFile(t, dir, "main.go", "package main\n")

	system, err := Detect(dir)
	require.NoError(t, err)

	ctx := context.Background()
	token, err := system.Snapshot(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, token, "clean tree should snapshot as HEAD")

	// Restore discards edits made after the snapshot.
	path := filepath.Join(dir, "main.go")
	require.NoError(t, os.WriteFile(path, []byte("package main // edited\n"), 0o644))
	require.NoError(t, system.Restore(ctx, token))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "package main\n", string(content))
}

func TestGitSnapshotNoCommits(t *testing.T) {
	dir := initGitRepo(t)

	system, err := Detect(dir)
	require.NoError(t, err)

	ctx := context.Background()
	token, err := system.Snapshot(ctx)
	require.NoError(t, err)
	assert.Empty(t, token, "unborn HEAD has nothing to restore")

	require.NoError(t, system.Restore(ctx, token))
}

func TestGitRestoreBadToken(t *testing.T) {
	dir := initGitRepo(t)
	commitFile(t, dir, "main.go", "package main\n")

	system, err := Detect(dir)
	require.NoError(t, err)

	err = system.Restore(context.Background(), "0000000000000000000000000000000000000000")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRestoreFailed)
}
