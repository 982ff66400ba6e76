package mcp

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/mentat/internal/learning"
	"github.com/fyrsmithlabs/mentat/internal/state"
)

func newTestService(t *testing.T) *learning.Service {
	t.Helper()

	store := state.NewStore(filepath.Join(t.TempDir(), ".mentat"), "prompt.md")
	svc, err := learning.NewService(store, learning.Config{}, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, svc.Init())
	return svc
}

func newTestServer(t *testing.T) (*Server, *learning.Service) {
	t.Helper()

	svc := newTestService(t)
	server, err := NewServer(&Config{Name: "mentat-test", Version: "0.0.1", Logger: zap.NewNop()}, svc)
	require.NoError(t, err)
	return server, svc
}

// recordFailure records one execution plus a linked failure reflection.
func recordFailure(t *testing.T, svc *learning.Service, id, task, failCtx, errText string) {
	t.Helper()

	_, err := svc.ExecuteWithID(id, task)
	require.NoError(t, err)
	require.NoError(t, svc.Reflect(learning.ReflectRequest{
		Failure:     true,
		Context:     failCtx,
		Error:       errText,
		ExecutionID: id,
	}))
}

func TestNewServer(t *testing.T) {
	t.Run("successful creation", func(t *testing.T) {
		server, _ := newTestServer(t)
		require.NotNil(t, server)
		require.NotNil(t, server.mcp)
	})

	t.Run("nil config uses defaults", func(t *testing.T) {
		server, err := NewServer(nil, newTestService(t))
		require.NoError(t, err)
		require.NotNil(t, server)
	})

	t.Run("missing learning service", func(t *testing.T) {
		_, err := NewServer(DefaultConfig(), nil)
		require.Error(t, err)
		require.Contains(t, err.Error(), "learning service is required")
	})
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "mentat", cfg.Name)
	assert.Equal(t, "1.0.0", cfg.Version)
	assert.NotNil(t, cfg.Logger)
}

func TestExecuteTool(t *testing.T) {
	server, _ := newTestServer(t)
	ctx := context.Background()

	t.Run("records execution", func(t *testing.T) {
		result, output, err := server.handleExecute(ctx, nil, executeInput{Task: "Add retry logic"})
		require.NoError(t, err)
		assert.NotEmpty(t, output.ExecutionID)
		assert.Len(t, output.PromptHash, 12)
		assert.False(t, output.CreatedAt.IsZero())
		require.Len(t, result.Content, 1)
	})

	t.Run("honors explicit id", func(t *testing.T) {
		_, output, err := server.handleExecute(ctx, nil, executeInput{Task: "Fix parser", ExecutionID: "exec_42"})
		require.NoError(t, err)
		assert.Equal(t, "exec_42", output.ExecutionID)
	})

	t.Run("rejects duplicate id", func(t *testing.T) {
		_, _, err := server.handleExecute(ctx, nil, executeInput{Task: "Fix parser again", ExecutionID: "exec_42"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "already recorded")
	})

	t.Run("rejects empty task", func(t *testing.T) {
		_, _, err := server.handleExecute(ctx, nil, executeInput{})
		require.Error(t, err)
	})
}

func TestReflectTool(t *testing.T) {
	server, svc := newTestServer(t)
	ctx := context.Background()

	_, execOut, err := server.handleExecute(ctx, nil, executeInput{Task: "Wire up cache"})
	require.NoError(t, err)

	t.Run("records failure and rolls prompt version", func(t *testing.T) {
		_, output, err := server.handleReflect(ctx, nil, reflectInput{
			Failure: true,
			Context: "Cache never invalidated",
			Error:   "stale reads after delete",
		})
		require.NoError(t, err)
		assert.Equal(t, state.OutcomeFailure, output.Outcome)
		assert.Len(t, output.PromptHash, 12)
		assert.NotEqual(t, execOut.PromptHash, output.PromptHash)

		history, err := svc.Store().LoadHistory()
		require.NoError(t, err)
		require.Len(t, history.Failures, 1)
		assert.Equal(t, execOut.ExecutionID, history.Failures[0].ExecutionID)
	})

	t.Run("records success", func(t *testing.T) {
		_, output, err := server.handleReflect(ctx, nil, reflectInput{
			Context: "Cache invalidation fixed",
		})
		require.NoError(t, err)
		assert.Equal(t, state.OutcomeSuccess, output.Outcome)
	})

	t.Run("rejects unknown execution id", func(t *testing.T) {
		_, _, err := server.handleReflect(ctx, nil, reflectInput{
			Failure:     true,
			Context:     "whatever",
			ExecutionID: "no_such_exec",
		})
		require.Error(t, err)
		assert.ErrorIs(t, err, learning.ErrExecutionNotFound)
	})
}

func TestAnalyzeTool(t *testing.T) {
	server, svc := newTestServer(t)
	ctx := context.Background()

	recordFailure(t, svc, "exec_a1", "Add async handler",
		"Called async function without await",
		"TypeError: promise not awaited")
	recordFailure(t, svc, "exec_a2", "Fix async flow",
		"Missing await in handler",
		"Unhandled promise rejection")

	t.Run("proposes without persisting", func(t *testing.T) {
		_, output, err := server.handleAnalyze(ctx, nil, analyzeInput{})
		require.NoError(t, err)
		require.Len(t, output.Proposals, 1)
		assert.False(t, output.Applied)
		assert.InDelta(t, 0.8, output.Proposals[0].Confidence, 0.001)
		assert.Equal(t, "2 async-related failures", output.Proposals[0].BasedOn)
	})

	t.Run("applies proposals", func(t *testing.T) {
		_, output, err := server.handleAnalyze(ctx, nil, analyzeInput{Apply: true})
		require.NoError(t, err)
		assert.True(t, output.Applied)
		assert.Equal(t, 1, output.Adopted)

		content, err := svc.Store().ReadPrompt()
		require.NoError(t, err)
		assert.Contains(t, content, output.Proposals[0].Rule)
	})

	t.Run("re-apply reports the no-op", func(t *testing.T) {
		_, output, err := server.handleAnalyze(ctx, nil, analyzeInput{Apply: true})
		require.NoError(t, err)
		require.Len(t, output.Proposals, 1)
		assert.False(t, output.Applied)
		assert.Zero(t, output.Adopted)
	})
}

func TestEffectivenessTool(t *testing.T) {
	server, svc := newTestServer(t)
	ctx := context.Background()

	recordFailure(t, svc, "exec_e1", "Add async save",
		"async call without await", "promise rejected")
	recordFailure(t, svc, "exec_e2", "Async cleanup",
		"await missing again", "promise rejected")
	_, _, err := svc.Analyze(true)
	require.NoError(t, err)

	_, err = svc.ExecuteWithID("exec_e3", "Apply the learned rule")
	require.NoError(t, err)
	require.NoError(t, svc.Attribute("exec_e3", "pattern1", 1.0))

	_, output, err := server.handleEffectiveness(ctx, nil, effectivenessInput{})
	require.NoError(t, err)
	require.Contains(t, output.Patterns, "pattern1")
	assert.InDelta(t, 1.0, output.Patterns["pattern1"].SuccessRate, 0.001)
	assert.Equal(t, 1, output.Patterns["pattern1"].Appearances)
}
