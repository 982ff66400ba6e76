// Package learning implements the reflection loop: execution and outcome
// ledgers, failure mining, prompt versioning, and pattern-effectiveness
// attribution over one state directory.
package learning

import (
	"fmt"
	"time"

	"github.com/fyrsmithlabs/mentat/internal/metrics"
	"github.com/fyrsmithlabs/mentat/internal/redact"
	"github.com/fyrsmithlabs/mentat/internal/state"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultMinEvidence is the minimum corroborating failures a category
// needs before a generalization is proposed.
const DefaultMinEvidence = 2

// Config tunes the learning service.
type Config struct {
	// MinEvidence overrides DefaultMinEvidence when positive.
	MinEvidence int

	// Scrubber redacts secrets from error text before it is persisted.
	// Defaults to the built-in rules.
	Scrubber *redact.Scrubber

	// Metrics receives learning counters. Defaults to the shared registry.
	Metrics *metrics.Metrics
}

// Service runs the learning loop. All operations are synchronous local
// file IO against the store; callers serialize access externally.
type Service struct {
	store       *state.Store
	rules       []categoryRule
	scrubber    *redact.Scrubber
	metrics     *metrics.Metrics
	logger      *zap.Logger
	minEvidence int
	now         func() time.Time
}

// NewService creates a learning service over store.
func NewService(store *state.Store, cfg Config, logger *zap.Logger) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("store cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MinEvidence <= 0 {
		cfg.MinEvidence = DefaultMinEvidence
	}
	if cfg.Scrubber == nil {
		cfg.Scrubber = redact.New()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.NewMetrics()
	}

	return &Service{
		store:       store,
		rules:       buildCategoryRules(),
		scrubber:    cfg.Scrubber,
		metrics:     cfg.Metrics,
		logger:      logger,
		minEvidence: cfg.MinEvidence,
		now:         time.Now,
	}, nil
}

// Store exposes the underlying state store.
func (s *Service) Store() *state.Store { return s.store }

// Init bootstraps the state directory and archives the baseline prompt as
// version 1. Running it against an initialized directory changes nothing.
func (s *Service) Init() error {
	if err := s.store.Init(BasePrompt); err != nil {
		return err
	}

	tracking, err := s.store.LoadTracking()
	if err != nil {
		return err
	}
	if len(tracking.PromptVersions) > 0 {
		return nil
	}

	content, err := s.store.ReadPrompt()
	if err != nil {
		return err
	}
	history, err := s.store.LoadHistory()
	if err != nil {
		return err
	}
	s.archiveVersion(tracking, content, len(history.Patterns))
	return s.store.SaveTracking(tracking)
}

// Execute appends a task attempt to the ledger under a minted id and
// returns the recorded execution.
func (s *Service) Execute(task string) (*state.Execution, error) {
	return s.ExecuteWithID(uuid.NewString(), task)
}

// ExecuteWithID appends a task attempt under a caller-chosen id.
func (s *Service) ExecuteWithID(id, task string) (*state.Execution, error) {
	if id == "" {
		return nil, fmt.Errorf("execution id cannot be empty")
	}
	if task == "" {
		return nil, fmt.Errorf("task cannot be empty")
	}

	tracking, err := s.store.LoadTracking()
	if err != nil {
		return nil, err
	}
	if tracking.FindExecution(id) != nil {
		return nil, fmt.Errorf("execution %q already recorded", id)
	}

	content, err := s.store.ReadPrompt()
	if err != nil {
		return nil, err
	}

	execution := state.Execution{
		ID:          id,
		Task:        task,
		CreatedAt:   s.now().UTC(),
		PromptHash:  state.PromptHash(content),
		Attribution: map[string]float64{},
	}
	tracking.Executions = append(tracking.Executions, execution)
	if err := s.store.SaveTracking(tracking); err != nil {
		return nil, err
	}

	s.metrics.ExecutionsTotal.Inc()
	s.logger.Debug("execution recorded",
		zap.String("execution_id", id),
		zap.String("prompt_hash", execution.PromptHash))
	return &execution, nil
}

// Reflect appends the outcome of an attempt and grows the live prompt
// with a short note, which archives a new prompt version.
//
// An explicit ExecutionID must name a ledger entry. When omitted, the
// most recent execution is linked; before any execution exists the
// reflection is recorded ad hoc with no link.
func (s *Service) Reflect(req ReflectRequest) error {
	tracking, err := s.store.LoadTracking()
	if err != nil {
		return err
	}

	executionID := req.ExecutionID
	if executionID != "" {
		if tracking.FindExecution(executionID) == nil {
			return fmt.Errorf("%w: %s", ErrExecutionNotFound, executionID)
		}
	} else if latest := tracking.LatestExecution(); latest != nil {
		executionID = latest.ID
	}

	content, err := s.store.ReadPrompt()
	if err != nil {
		return err
	}
	history, err := s.store.LoadHistory()
	if err != nil {
		return err
	}

	scrubbed, findings := s.scrubber.Scrub(req.Error)
	if findings > 0 {
		s.logger.Warn("redacted secrets from reflection error",
			zap.Int("findings", findings))
	}

	reflection := state.Reflection{
		ExecutionID:      executionID,
		Outcome:          state.OutcomeSuccess,
		Context:          req.Context,
		Error:            scrubbed,
		CreatedAt:        s.now().UTC(),
		PromptHashBefore: state.PromptHash(content),
	}
	if req.Failure {
		reflection.Outcome = state.OutcomeFailure
		history.Failures = append(history.Failures, reflection)
	} else {
		history.Successes = append(history.Successes, reflection)
	}
	if err := s.store.SaveHistory(history); err != nil {
		return err
	}

	content += noteLine(&reflection)
	if err := s.store.WritePrompt(content); err != nil {
		return err
	}
	s.archiveVersion(tracking, content, len(history.Patterns))
	if err := s.store.SaveTracking(tracking); err != nil {
		return err
	}

	s.metrics.RecordReflection(reflection.Outcome)
	s.logger.Debug("reflection recorded",
		zap.String("execution_id", executionID),
		zap.String("outcome", reflection.Outcome))
	return nil
}

// Analyze mines the accumulated failures and returns one proposal per
// category that reached the evidence minimum, plus how many proposed
// rules were newly adopted. With apply set, new rules are adopted into
// the pattern ledger, appended to the live prompt, and a new prompt
// version is archived. Re-applying with no new failures adopts nothing
// and reports zero.
func (s *Service) Analyze(apply bool) ([]Generalization, int, error) {
	history, err := s.store.LoadHistory()
	if err != nil {
		return nil, 0, err
	}
	tracking, err := s.store.LoadTracking()
	if err != nil {
		return nil, 0, err
	}

	for i := range history.Failures {
		id := history.Failures[i].ExecutionID
		if id != "" && tracking.FindExecution(id) == nil {
			return nil, 0, fmt.Errorf("%w: %s", ErrOrphanReflection, id)
		}
	}

	proposals := mine(s.rules, history.Failures, s.minEvidence)
	if !apply || len(proposals) == 0 {
		return proposals, 0, nil
	}

	content, err := s.store.ReadPrompt()
	if err != nil {
		return nil, 0, err
	}

	adopted := 0
	for _, proposal := range proposals {
		if addPattern(history, proposal.Rule) {
			content += ruleLine(proposal.Rule)
			adopted++
		}
	}
	if adopted == 0 {
		return proposals, 0, nil
	}

	if err := s.store.SaveHistory(history); err != nil {
		return nil, 0, err
	}
	if err := s.store.WritePrompt(content); err != nil {
		return nil, 0, err
	}
	s.archiveVersion(tracking, content, len(history.Patterns))
	if err := s.store.SaveTracking(tracking); err != nil {
		return nil, 0, err
	}

	s.metrics.PatternsAdoptedTotal.Add(float64(adopted))
	s.logger.Info("patterns adopted",
		zap.Int("adopted", adopted),
		zap.Int("total", len(history.Patterns)))
	return proposals, adopted, nil
}

// AddPatternIfNew inserts a pattern text into the ledger unless an exact
// duplicate is already present. Returns true when newly inserted.
func (s *Service) AddPatternIfNew(text string) (bool, error) {
	if text == "" {
		return false, fmt.Errorf("pattern text cannot be empty")
	}

	history, err := s.store.LoadHistory()
	if err != nil {
		return false, err
	}
	if !addPattern(history, text) {
		return false, nil
	}
	if err := s.store.SaveHistory(history); err != nil {
		return false, err
	}
	return true, nil
}

// Attribute assigns a signed weight to one pattern id on one execution:
// +1.0 credit for a success while the pattern was active, -1.0 debit for
// a failure.
func (s *Service) Attribute(executionID, patternID string, weight float64) error {
	if patternID == "" {
		return fmt.Errorf("pattern id cannot be empty")
	}

	tracking, err := s.store.LoadTracking()
	if err != nil {
		return err
	}
	execution := tracking.FindExecution(executionID)
	if execution == nil {
		return fmt.Errorf("%w: %s", ErrExecutionNotFound, executionID)
	}
	execution.Attribution[patternID] = weight
	return s.store.SaveTracking(tracking)
}

// AttributeAdopted assigns weight to every adopted pattern on the given
// execution. Pattern ids are positional: "pattern1" is the first ledger
// entry.
func (s *Service) AttributeAdopted(executionID string, weight float64) error {
	history, err := s.store.LoadHistory()
	if err != nil {
		return err
	}
	if len(history.Patterns) == 0 {
		return nil
	}

	tracking, err := s.store.LoadTracking()
	if err != nil {
		return err
	}
	execution := tracking.FindExecution(executionID)
	if execution == nil {
		return fmt.Errorf("%w: %s", ErrExecutionNotFound, executionID)
	}
	for i := range history.Patterns {
		execution.Attribution[PatternID(i)] = weight
	}
	return s.store.SaveTracking(tracking)
}

// ArchiveExternalEdit archives the prompt file as it currently exists on
// disk. It is meant for edits made outside the service, by a human or
// another tool, so the version history stays complete. Returns false when
// the on-disk content is already archived, including a revert to an
// earlier version's content.
func (s *Service) ArchiveExternalEdit() (bool, error) {
	content, err := s.store.ReadPrompt()
	if err != nil {
		return false, err
	}
	history, err := s.store.LoadHistory()
	if err != nil {
		return false, err
	}
	tracking, err := s.store.LoadTracking()
	if err != nil {
		return false, err
	}

	if !s.archiveVersion(tracking, content, len(history.Patterns)) {
		return false, nil
	}
	if err := s.store.SaveTracking(tracking); err != nil {
		return false, err
	}

	s.logger.Info("external prompt edit archived",
		zap.String("hash", state.PromptHash(content)))
	return true, nil
}

// addPattern inserts text into the ledger slice if absent, preserving
// insertion order.
func addPattern(h *state.History, text string) bool {
	for _, existing := range h.Patterns {
		if existing == text {
			return false
		}
	}
	h.Patterns = append(h.Patterns, text)
	return true
}
