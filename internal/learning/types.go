package learning

import (
	"errors"
	"time"
)

var (
	// ErrExecutionNotFound indicates a reflection referenced an execution
	// id that is not in the ledger.
	ErrExecutionNotFound = errors.New("execution not found")

	// ErrOrphanReflection indicates a persisted failure references a
	// missing execution. Mining refuses to run over such data.
	ErrOrphanReflection = errors.New("reflection references missing execution")

	// ErrPatternNotFound indicates an attribution named a pattern id with
	// no corresponding ledger entry.
	ErrPatternNotFound = errors.New("pattern not found")
)

// Generalization is a mining proposal: a category that accumulated enough
// corroborating failures, with the behavioral rule to adopt. Proposals are
// recomputed on every mining pass and only persisted when applied.
type Generalization struct {
	Pattern    string  `json:"pattern"`
	Confidence float64 `json:"confidence"`
	Rule       string  `json:"rule"`
	BasedOn    string  `json:"based_on"`
}

// ReflectRequest records the outcome of an attempt.
//
// ExecutionID may name a ledger entry explicitly; when empty, the most
// recent execution is linked, or none for an ad-hoc reflection recorded
// before any execution exists.
type ReflectRequest struct {
	Failure     bool
	Context     string
	Error       string
	ExecutionID string
}

// PatternStats is the measured effectiveness of one pattern id across all
// executions whose attribution mentions it.
type PatternStats struct {
	SuccessRate float64 `json:"success_rate"`
	Appearances int     `json:"appearances"`
	Successes   int     `json:"successes"`
}

// VersionInfo describes one archived prompt version for reporting, with
// the line delta against the immediately preceding version.
type VersionInfo struct {
	Sequence      int       `json:"sequence"`
	Hash          string    `json:"hash"`
	Created       time.Time `json:"created"`
	PatternsCount int       `json:"patterns_count"`
	PatternsDelta int       `json:"patterns_delta"`
	LinesAdded    int       `json:"lines_added"`
	LinesRemoved  int       `json:"lines_removed"`
}
