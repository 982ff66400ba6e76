// Package state persists mentat's learning documents.
//
// One state directory per project holds the live prompt file plus two JSON
// documents: learnings/history.json (patterns and reflections) and
// executions/tracking.json (executions with attribution, prompt versions).
// Documents are always read and written whole; partial in-place patching is
// never performed.
package state

import (
	"errors"
	"sort"
	"time"
)

// Outcome values recorded for a reflection.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

var (
	// ErrNotInitialized indicates the state directory has not been bootstrapped.
	ErrNotInitialized = errors.New("state directory not initialized")

	// ErrCorruptState indicates a persisted document failed to parse.
	ErrCorruptState = errors.New("persisted state is corrupt")
)

// Execution is one recorded attempt at a task. Attribution maps pattern
// identifiers to signed weights: +1.0 credit when the execution succeeded
// while the pattern was active, -1.0 debit when it failed.
type Execution struct {
	ID          string             `json:"id"`
	Task        string             `json:"task"`
	CreatedAt   time.Time          `json:"created_at"`
	PromptHash  string             `json:"prompt_hash"`
	Attribution map[string]float64 `json:"attribution"`
}

// Reflection is the recorded outcome of an execution. ExecutionID may be
// empty for an ad-hoc reflection recorded outside any tracked attempt.
type Reflection struct {
	ExecutionID      string    `json:"execution_id"`
	Outcome          string    `json:"outcome"`
	Context          string    `json:"context"`
	Error            string    `json:"error,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	PromptHashBefore string    `json:"prompt_hash_before"`
}

// Failed reports whether the reflection recorded a failure.
func (r *Reflection) Failed() bool {
	return r.Outcome == OutcomeFailure
}

// PromptVersion is one immutable snapshot of the operating prompt, keyed in
// the tracking document by its content hash. Sequence pins creation order
// since JSON objects carry none.
type PromptVersion struct {
	Content       string    `json:"content"`
	Created       time.Time `json:"created"`
	PatternsCount int       `json:"patterns_count"`
	Sequence      int       `json:"sequence"`
}

// History is the learnings/history.json document.
type History struct {
	Patterns  []string     `json:"patterns"`
	Failures  []Reflection `json:"failures"`
	Successes []Reflection `json:"successes"`
}

// Tracking is the executions/tracking.json document.
type Tracking struct {
	Executions     []Execution              `json:"executions"`
	PromptVersions map[string]PromptVersion `json:"prompt_versions"`
}

// FindExecution returns the execution with the given id, or nil.
func (t *Tracking) FindExecution(id string) *Execution {
	for i := range t.Executions {
		if t.Executions[i].ID == id {
			return &t.Executions[i]
		}
	}
	return nil
}

// LatestExecution returns the most recently appended execution, or nil when
// none have been recorded.
func (t *Tracking) LatestExecution() *Execution {
	if len(t.Executions) == 0 {
		return nil
	}
	return &t.Executions[len(t.Executions)-1]
}

// VersionsInOrder returns the archived prompt versions sorted by creation
// sequence, oldest first.
func (t *Tracking) VersionsInOrder() []PromptVersion {
	versions := make([]PromptVersion, 0, len(t.PromptVersions))
	for _, v := range t.PromptVersions {
		versions = append(versions, v)
	}
	sort.Slice(versions, func(i, j int) bool {
		return versions[i].Sequence < versions[j].Sequence
	})
	return versions
}

// LatestVersion returns the most recently archived version, or nil when the
// history is empty.
func (t *Tracking) LatestVersion() *PromptVersion {
	var latest *PromptVersion
	for hash := range t.PromptVersions {
		v := t.PromptVersions[hash]
		if latest == nil || v.Sequence > latest.Sequence {
			latest = &v
		}
	}
	return latest
}
