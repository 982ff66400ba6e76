package state

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const (
	learningsDir  = "learnings"
	executionsDir = "executions"
	historyFile   = "history.json"
	trackingFile  = "tracking.json"

	dirPerm  = 0750
	filePerm = 0600
)

// Store reads and writes the persisted documents of one state directory.
// It performs no locking: callers serialize access externally, one process
// at a time.
type Store struct {
	root       string
	promptFile string
}

// NewStore creates a store rooted at dir. promptFile is the bare name of
// the live prompt file inside the state directory.
func NewStore(dir, promptFile string) *Store {
	return &Store{root: dir, promptFile: promptFile}
}

// Root returns the state directory path.
func (s *Store) Root() string { return s.root }

// HistoryPath returns the path of the learnings document.
func (s *Store) HistoryPath() string {
	return filepath.Join(s.root, learningsDir, historyFile)
}

// TrackingPath returns the path of the executions document.
func (s *Store) TrackingPath() string {
	return filepath.Join(s.root, executionsDir, trackingFile)
}

// PromptPath returns the path of the live prompt file.
func (s *Store) PromptPath() string {
	return filepath.Join(s.root, s.promptFile)
}

// Initialized reports whether both documents exist.
func (s *Store) Initialized() bool {
	if _, err := os.Stat(s.HistoryPath()); err != nil {
		return false
	}
	_, err := os.Stat(s.TrackingPath())
	return err == nil
}

// Init bootstraps the state directory: subdirectories, empty documents, and
// the live prompt seeded with basePrompt. Existing files are left untouched,
// so re-running init is safe.
func (s *Store) Init(basePrompt string) error {
	for _, dir := range []string{s.root, filepath.Join(s.root, learningsDir), filepath.Join(s.root, executionsDir)} {
		if err := os.MkdirAll(dir, dirPerm); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}

	if _, err := os.Stat(s.PromptPath()); os.IsNotExist(err) {
		if err := s.WritePrompt(basePrompt); err != nil {
			return err
		}
	}

	if _, err := os.Stat(s.HistoryPath()); os.IsNotExist(err) {
		if err := s.SaveHistory(&History{}); err != nil {
			return err
		}
	}

	if _, err := os.Stat(s.TrackingPath()); os.IsNotExist(err) {
		if err := s.SaveTracking(&Tracking{}); err != nil {
			return err
		}
	}

	return nil
}

// LoadHistory reads learnings/history.json.
func (s *Store) LoadHistory() (*History, error) {
	var h History
	if err := s.loadJSON(s.HistoryPath(), &h); err != nil {
		return nil, err
	}
	normalizeHistory(&h)
	return &h, nil
}

// SaveHistory writes learnings/history.json whole.
func (s *Store) SaveHistory(h *History) error {
	normalizeHistory(h)
	return s.saveJSON(s.HistoryPath(), h)
}

// LoadTracking reads executions/tracking.json.
func (s *Store) LoadTracking() (*Tracking, error) {
	var t Tracking
	if err := s.loadJSON(s.TrackingPath(), &t); err != nil {
		return nil, err
	}
	normalizeTracking(&t)
	return &t, nil
}

// SaveTracking writes executions/tracking.json whole.
func (s *Store) SaveTracking(t *Tracking) error {
	normalizeTracking(t)
	return s.saveJSON(s.TrackingPath(), t)
}

// ReadPrompt returns the live prompt content.
func (s *Store) ReadPrompt() (string, error) {
	data, err := os.ReadFile(s.PromptPath())
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", ErrNotInitialized, s.PromptPath())
		}
		return "", fmt.Errorf("failed to read prompt: %w", err)
	}
	return string(data), nil
}

// WritePrompt replaces the live prompt content atomically.
func (s *Store) WritePrompt(content string) error {
	return s.writeAtomic(s.PromptPath(), []byte(content))
}

// PromptHash returns the 12-character hex digest identifying prompt content.
// Identical content always yields the identical hash.
func PromptHash(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])[:12]
}

func (s *Store) loadJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrNotInitialized, path)
		}
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrCorruptState, path, err)
	}
	return nil
}

func (s *Store) saveJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", path, err)
	}
	return s.writeAtomic(path, append(data, '\n'))
}

// writeAtomic writes to a temp file in the same directory and renames it
// over the target, so readers never observe a half-written document.
func (s *Store) writeAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, filePerm); err != nil {
		return fmt.Errorf("failed to write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}

// normalize keeps empty collections as [] / {} in the JSON documents rather
// than null, matching the persisted layout contract.
func normalizeHistory(h *History) {
	if h.Patterns == nil {
		h.Patterns = []string{}
	}
	if h.Failures == nil {
		h.Failures = []Reflection{}
	}
	if h.Successes == nil {
		h.Successes = []Reflection{}
	}
}

func normalizeTracking(t *Tracking) {
	if t.Executions == nil {
		t.Executions = []Execution{}
	}
	if t.PromptVersions == nil {
		t.PromptVersions = map[string]PromptVersion{}
	}
	for i := range t.Executions {
		if t.Executions[i].Attribution == nil {
			t.Executions[i].Attribution = map[string]float64{}
		}
	}
}
