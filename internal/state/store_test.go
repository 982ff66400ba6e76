package state

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(filepath.Join(t.TempDir(), ".mentat"), "prompt.md")
}

func TestInitCreatesLayout(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Init("# Operating Prompt\n"))

	assert.True(t, store.Initialized())
	assert.FileExists(t, store.HistoryPath())
	assert.FileExists(t, store.TrackingPath())
	assert.FileExists(t, store.PromptPath())

	prompt, err := store.ReadPrompt()
	require.NoError(t, err)
	assert.Equal(t, "# Operating Prompt\n", prompt)
}

func TestInitPreservesExistingState(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Init("baseline"))

	require.NoError(t, store.WritePrompt("edited prompt"))
	h, err := store.LoadHistory()
	require.NoError(t, err)
	h.Patterns = append(h.Patterns, "Always run the linter before committing.")
	require.NoError(t, store.SaveHistory(h))

	require.NoError(t, store.Init("baseline"))

	prompt, err := store.ReadPrompt()
	require.NoError(t, err)
	assert.Equal(t, "edited prompt", prompt)

	h2, err := store.LoadHistory()
	require.NoError(t, err)
	assert.Len(t, h2.Patterns, 1)
}

func TestLoadBeforeInit(t *testing.T) {
	store := newTestStore(t)

	_, err := store.LoadHistory()
	assert.ErrorIs(t, err, ErrNotInitialized)

	_, err = store.LoadTracking()
	assert.ErrorIs(t, err, ErrNotInitialized)

	_, err = store.ReadPrompt()
	assert.ErrorIs(t, err, ErrNotInitialized)

	assert.False(t, store.Initialized())
}

func TestCorruptDocumentSurfaces(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Init("baseline"))

	require.NoError(t, os.WriteFile(store.HistoryPath(), []byte("{not json"), 0600))

	_, err := store.LoadHistory()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCorruptState))
}

func TestEmptyCollectionsMarshalAsEmpty(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Init("baseline"))

	raw, err := os.ReadFile(store.HistoryPath())
	require.NoError(t, err)

	var doc map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.JSONEq(t, `[]`, string(doc["patterns"]))
	assert.JSONEq(t, `[]`, string(doc["failures"]))
	assert.JSONEq(t, `[]`, string(doc["successes"]))

	raw, err = os.ReadFile(store.TrackingPath())
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.JSONEq(t, `[]`, string(doc["executions"]))
	assert.JSONEq(t, `{}`, string(doc["prompt_versions"]))
}

func TestTrackingRoundTrip(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Init("baseline"))

	tr, err := store.LoadTracking()
	require.NoError(t, err)

	now := time.Now().UTC()
	tr.Executions = append(tr.Executions, Execution{
		ID:          "exec-1",
		Task:        "Add retry to the fetch helper",
		CreatedAt:   now,
		PromptHash:  PromptHash("baseline"),
		Attribution: map[string]float64{"pattern1": 1.0},
	})
	tr.PromptVersions[PromptHash("baseline")] = PromptVersion{
		Content:       "baseline",
		Created:       now,
		PatternsCount: 0,
		Sequence:      1,
	}
	require.NoError(t, store.SaveTracking(tr))

	loaded, err := store.LoadTracking()
	require.NoError(t, err)
	require.Len(t, loaded.Executions, 1)
	assert.Equal(t, "exec-1", loaded.Executions[0].ID)
	assert.Equal(t, 1.0, loaded.Executions[0].Attribution["pattern1"])
	require.Len(t, loaded.PromptVersions, 1)
}

func TestFindAndLatestExecution(t *testing.T) {
	tr := &Tracking{}
	assert.Nil(t, tr.FindExecution("missing"))
	assert.Nil(t, tr.LatestExecution())

	tr.Executions = []Execution{
		{ID: "a"}, {ID: "b"}, {ID: "c"},
	}
	assert.Equal(t, "b", tr.FindExecution("b").ID)
	assert.Nil(t, tr.FindExecution("z"))
	assert.Equal(t, "c", tr.LatestExecution().ID)
}

func TestVersionOrdering(t *testing.T) {
	tr := &Tracking{PromptVersions: map[string]PromptVersion{
		"cccccccccccc": {Sequence: 3, PatternsCount: 2},
		"aaaaaaaaaaaa": {Sequence: 1, PatternsCount: 0},
		"bbbbbbbbbbbb": {Sequence: 2, PatternsCount: 1},
	}}

	versions := tr.VersionsInOrder()
	require.Len(t, versions, 3)
	assert.Equal(t, []int{1, 2, 3}, []int{versions[0].Sequence, versions[1].Sequence, versions[2].Sequence})

	latest := tr.LatestVersion()
	require.NotNil(t, latest)
	assert.Equal(t, 3, latest.Sequence)

	assert.Nil(t, (&Tracking{}).LatestVersion())
}

func TestPromptHash(t *testing.T) {
	h1 := PromptHash("some prompt content")
	h2 := PromptHash("some prompt content")
	h3 := PromptHash("some prompt content changed")

	assert.Len(t, h1, 12)
	assert.Equal(t, h1, h2)
	assert.NotEqual(t, h1, h3)
	assert.Regexp(t, "^[0-9a-f]{12}$", h1)
}
