package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/mentat/internal/learning"
	"github.com/fyrsmithlabs/mentat/internal/state"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestService(t *testing.T) *learning.Service {
	t.Helper()

	store := state.NewStore(filepath.Join(t.TempDir(), ".mentat"), "prompt.md")
	svc, err := learning.NewService(store, learning.Config{}, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, svc.Init())
	return svc
}

// startWatcher builds a short-debounce watcher and arranges cleanup.
func startWatcher(t *testing.T, svc *learning.Service) *Watcher {
	t.Helper()

	w, err := New(svc, Config{Debounce: 50 * time.Millisecond}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(w.Stop)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	require.NoError(t, w.Start(ctx))
	return w
}

func waitForEvent(t *testing.T, w *Watcher) Event {
	t.Helper()

	select {
	case event := <-w.Events():
		return event
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for archive event")
		return Event{}
	}
}

func assertNoEvent(t *testing.T, w *Watcher, wait time.Duration) {
	t.Helper()

	select {
	case event := <-w.Events():
		t.Fatalf("unexpected archive event for %s", event.Path)
	case <-time.After(wait):
	}
}

func TestNew(t *testing.T) {
	t.Run("requires learning service", func(t *testing.T) {
		_, err := New(nil, Config{}, zap.NewNop())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "learning service")
	})

	t.Run("applies default debounce", func(t *testing.T) {
		w, err := New(newTestService(t), Config{}, zap.NewNop())
		require.NoError(t, err)
		defer w.Stop()

		assert.Equal(t, DefaultDebounce, w.debounce)
	})

	t.Run("keeps configured debounce", func(t *testing.T) {
		w, err := New(newTestService(t), Config{Debounce: 2 * time.Second}, nil)
		require.NoError(t, err)
		defer w.Stop()

		assert.Equal(t, 2*time.Second, w.debounce)
	})
}

func TestWatcherArchivesExternalEdit(t *testing.T) {
	svc := newTestService(t)
	w := startWatcher(t, svc)

	promptPath := svc.Store().PromptPath()
	edited := "# Operating Prompt\n\nHand-tuned by a human.\n"
	require.NoError(t, os.WriteFile(promptPath, []byte(edited), 0o644))

	event := waitForEvent(t, w)
	assert.Equal(t, promptPath, event.Path)
	assert.False(t, event.Timestamp.IsZero())

	versions, err := svc.Versions()
	require.NoError(t, err)
	require.Len(t, versions, 2)
	assert.Equal(t, 2, versions[1].Sequence)

	content, err := svc.Store().ReadPrompt()
	require.NoError(t, err)
	assert.Equal(t, edited, content)
}

func TestWatcherArchivesAtomicReplace(t *testing.T) {
	svc := newTestService(t)
	w := startWatcher(t, svc)

	promptPath := svc.Store().PromptPath()
	tmp := promptPath + ".new"
	require.NoError(t, os.WriteFile(tmp, []byte("replaced wholesale\n"), 0o644))
	require.NoError(t, os.Rename(tmp, promptPath))

	waitForEvent(t, w)

	versions, err := svc.Versions()
	require.NoError(t, err)
	assert.Len(t, versions, 2)
}

func TestWatcherSkipsUnchangedContent(t *testing.T) {
	svc := newTestService(t)
	w := startWatcher(t, svc)

	content, err := svc.Store().ReadPrompt()
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(svc.Store().PromptPath(), []byte(content), 0o644))

	assertNoEvent(t, w, 500*time.Millisecond)

	versions, err := svc.Versions()
	require.NoError(t, err)
	assert.Len(t, versions, 1)
}

func TestWatcherIgnoresSiblingFiles(t *testing.T) {
	svc := newTestService(t)
	w := startWatcher(t, svc)

	scratch := filepath.Join(svc.Store().Root(), "scratch.txt")
	require.NoError(t, os.WriteFile(scratch, []byte("not the prompt"), 0o644))

	assertNoEvent(t, w, 500*time.Millisecond)
}

func TestWatcherCoalescesWriteBursts(t *testing.T) {
	svc := newTestService(t)

	w, err := New(svc, Config{Debounce: 150 * time.Millisecond}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(w.Stop)
	require.NoError(t, w.Start(context.Background()))

	promptPath := svc.Store().PromptPath()
	for _, content := range []string{"draft one\n", "draft two\n", "draft three\n"} {
		require.NoError(t, os.WriteFile(promptPath, []byte(content), 0o644))
		time.Sleep(10 * time.Millisecond)
	}

	waitForEvent(t, w)
	assertNoEvent(t, w, 400*time.Millisecond)

	versions, err := svc.Versions()
	require.NoError(t, err)
	require.Len(t, versions, 2)

	content, err := svc.Store().ReadPrompt()
	require.NoError(t, err)
	assert.Equal(t, "draft three\n", content)
}

func TestStopIsIdempotent(t *testing.T) {
	w, err := New(newTestService(t), Config{}, zap.NewNop())
	require.NoError(t, err)

	w.Stop()
	w.Stop()
}

func TestMatches(t *testing.T) {
	w := &Watcher{name: "prompt.md"}

	tests := []struct {
		name  string
		event fsnotify.Event
		want  bool
	}{
		{
			name:  "write to prompt",
			event: fsnotify.Event{Name: "/state/prompt.md", Op: fsnotify.Write},
			want:  true,
		},
		{
			name:  "create of prompt",
			event: fsnotify.Event{Name: "/state/prompt.md", Op: fsnotify.Create},
			want:  true,
		},
		{
			name:  "chmod of prompt",
			event: fsnotify.Event{Name: "/state/prompt.md", Op: fsnotify.Chmod},
			want:  false,
		},
		{
			name:  "write to sibling",
			event: fsnotify.Event{Name: "/state/history.json", Op: fsnotify.Write},
			want:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, w.matches(tt.event))
		})
	}
}
