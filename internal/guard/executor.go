// Package guard couples code edits to the learning loop. A guarded run
// snapshots the working tree, lets the edit land, runs a verification
// command, keeps the edit on pass, reverts it on fail, and records the
// outcome through the learning service either way.
package guard

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fyrsmithlabs/mentat/internal/learning"
	"github.com/fyrsmithlabs/mentat/internal/metrics"
	"github.com/fyrsmithlabs/mentat/pkg/vcs"
	"go.uber.org/zap"
)

// Result messages. Callers and tests match on these prefixes.
const (
	MessagePassed = "Tests passed"
	MessageFailed = "Tests failed"
)

// DefaultShell interprets verification commands when none is configured.
const DefaultShell = "/bin/sh"

// Config tunes a guarded executor.
type Config struct {
	// WorkDir is the project directory holding the working tree.
	WorkDir string

	// Shell interprets the verification command. Defaults to DefaultShell.
	Shell string

	// TestTimeout bounds the verification command. Zero means no limit.
	// Hitting the limit counts as a verification failure.
	TestTimeout time.Duration

	// Edit produces the code change between snapshot and verification.
	// Nil means the change is already present or arrives as a side
	// effect the executor treats as opaque.
	Edit func(ctx context.Context) error

	// Metrics receives guarded-run counters. Defaults to the shared
	// registry.
	Metrics *metrics.Metrics
}

// Result is the outcome of one guarded run.
type Result struct {
	Success     bool
	Message     string
	ExecutionID string
	Reverted    bool
}

// Executor runs the snapshot, verify, commit-or-revert protocol.
type Executor struct {
	learning *learning.Service
	runner   CommandRunner
	detect   func(dir string) (vcs.System, error)
	edit     func(ctx context.Context) error
	metrics  *metrics.Metrics
	logger   *zap.Logger
	workDir  string
	timeout  time.Duration
}

// NewExecutor creates a guarded executor over the learning service.
func NewExecutor(svc *learning.Service, cfg Config, logger *zap.Logger) (*Executor, error) {
	if svc == nil {
		return nil, fmt.Errorf("learning service cannot be nil")
	}
	if cfg.WorkDir == "" {
		return nil, fmt.Errorf("work dir cannot be empty")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Shell == "" {
		cfg.Shell = DefaultShell
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.NewMetrics()
	}

	return &Executor{
		learning: svc,
		runner:   newShellRunner(cfg.Shell, cfg.WorkDir),
		detect:   vcs.Detect,
		edit:     cfg.Edit,
		metrics:  cfg.Metrics,
		logger:   logger,
		workDir:  cfg.WorkDir,
		timeout:  cfg.TestTimeout,
	}, nil
}

// Run executes one guarded attempt at task.
//
// Ordinary verification failures come back as a Result with Success false
// and the captured output; the working tree is restored to the snapshot
// unless noRevert is set. Environment problems return an error instead:
// no recognized VCS, storage failures, or a revert that could not restore
// the snapshot (the working tree may be inconsistent in that last case).
func (e *Executor) Run(ctx context.Context, task, testCmd string, noRevert bool) (*Result, error) {
	if task == "" {
		return nil, fmt.Errorf("task cannot be empty")
	}
	if testCmd == "" {
		return nil, fmt.Errorf("test command cannot be empty")
	}

	system, err := e.detect(e.workDir)
	if err != nil {
		return nil, fmt.Errorf("guarded run needs version control: %w", err)
	}

	execution, err := e.learning.Execute(task)
	if err != nil {
		return nil, err
	}

	token, err := system.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("capturing reversion point: %w", err)
	}

	if e.edit != nil {
		if editErr := e.edit(ctx); editErr != nil {
			if err := system.Restore(ctx, token); err != nil {
				e.logger.Error("restore after failed edit", zap.Error(err))
				return nil, fmt.Errorf("edit step failed (%v); %w", editErr, err)
			}
			return nil, fmt.Errorf("edit step failed: %w", editErr)
		}
	}

	runCtx := ctx
	if e.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	start := time.Now()
	exitCode, output, runErr := e.runner.Run(runCtx, testCmd)
	elapsed := time.Since(start)
	if runErr != nil {
		// A command that never started still counts as a verification
		// failure, so the learning loop records it.
		output = strings.TrimSpace(output + "\ncommand could not run: " + runErr.Error())
		exitCode = -1
	}
	if runCtx.Err() == context.DeadlineExceeded {
		output = strings.TrimSpace(output + fmt.Sprintf("\nverification timed out after %s", e.timeout))
		exitCode = -1
	}

	passed := exitCode == 0
	e.metrics.RecordGuardedRun(passed, elapsed.Seconds())

	if passed {
		if err := e.learning.Reflect(learning.ReflectRequest{
			Failure:     false,
			Context:     task,
			ExecutionID: execution.ID,
		}); err != nil {
			return nil, err
		}
		if err := e.learning.AttributeAdopted(execution.ID, 1.0); err != nil {
			return nil, err
		}

		e.logger.Info("guarded run passed",
			zap.String("execution_id", execution.ID),
			zap.Duration("duration", elapsed))
		return &Result{Success: true, Message: MessagePassed, ExecutionID: execution.ID}, nil
	}

	message := MessageFailed
	if output != "" {
		message = MessageFailed + "\n" + output
	}

	if err := e.learning.Reflect(learning.ReflectRequest{
		Failure:     true,
		Context:     task,
		Error:       output,
		ExecutionID: execution.ID,
	}); err != nil {
		return nil, err
	}
	if err := e.learning.AttributeAdopted(execution.ID, -1.0); err != nil {
		return nil, err
	}

	reverted := false
	if !noRevert {
		if err := system.Restore(ctx, token); err != nil {
			e.metrics.RevertsTotal.WithLabelValues("failed").Inc()
			e.logger.Error("revert failed, working tree may be inconsistent",
				zap.String("execution_id", execution.ID),
				zap.Error(err))
			return nil, err
		}
		e.metrics.RevertsTotal.WithLabelValues("ok").Inc()
		reverted = true
	}

	e.logger.Info("guarded run failed",
		zap.String("execution_id", execution.ID),
		zap.Int("exit_code", exitCode),
		zap.Bool("reverted", reverted),
		zap.Duration("duration", elapsed))
	return &Result{Success: false, Message: message, ExecutionID: execution.ID, Reverted: reverted}, nil
}
