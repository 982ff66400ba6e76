package mcp

import (
	"context"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/fyrsmithlabs/mentat/internal/learning"
	"github.com/fyrsmithlabs/mentat/internal/state"
)

type executeInput struct {
	Task        string `json:"task" jsonschema:"required,Task description to record"`
	ExecutionID string `json:"execution_id,omitempty" jsonschema:"Explicit execution id (default: generated)"`
}

type executeOutput struct {
	ExecutionID string    `json:"execution_id" jsonschema:"Recorded execution id"`
	PromptHash  string    `json:"prompt_hash" jsonschema:"Hash of the prompt version in effect"`
	CreatedAt   time.Time `json:"created_at" jsonschema:"When the execution was recorded"`
}

type reflectInput struct {
	Failure     bool   `json:"failure" jsonschema:"Whether the attempt failed"`
	Context     string `json:"context" jsonschema:"required,What was being attempted"`
	Error       string `json:"error,omitempty" jsonschema:"Error text for failures"`
	ExecutionID string `json:"execution_id,omitempty" jsonschema:"Execution to link (default: the most recent)"`
}

type reflectOutput struct {
	Outcome    string `json:"outcome" jsonschema:"Recorded outcome: success or failure"`
	PromptHash string `json:"prompt_hash" jsonschema:"Prompt hash after the reflection note"`
}

type analyzeInput struct {
	Apply bool `json:"apply,omitempty" jsonschema:"Adopt proposed rules into the operating prompt"`
}

type analyzeOutput struct {
	Proposals []learning.Generalization `json:"proposals" jsonschema:"Mined generalizations"`
	Applied   bool                      `json:"applied" jsonschema:"Whether any proposal was newly adopted"`
	Adopted   int                       `json:"adopted" jsonschema:"Number of rules newly adopted into the ledger"`
}

type effectivenessInput struct{}

type effectivenessOutput struct {
	Patterns map[string]learning.PatternStats `json:"patterns" jsonschema:"Per-pattern success statistics"`
}

// registerTools wires the learning operations onto the MCP server.
func (s *Server) registerTools() error {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "mentat_execute",
		Description: "Record a task attempt against the current operating prompt. Returns the execution id used to link later reflections and attribution.",
	}, s.handleExecute)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "mentat_reflect",
		Description: "Record the outcome of an attempt. Every reflection appends a note to the operating prompt and archives a new prompt version.",
	}, s.handleReflect)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "mentat_analyze",
		Description: "Mine recorded failures for recurring categories and propose generalized rules. With apply set, new rules are adopted into the operating prompt.",
	}, s.handleAnalyze)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "mentat_effectiveness",
		Description: "Report per-pattern success rates computed from execution attribution weights.",
	}, s.handleEffectiveness)

	return nil
}

func (s *Server) handleExecute(ctx context.Context, req *mcp.CallToolRequest, args executeInput) (*mcp.CallToolResult, executeOutput, error) {
	var (
		execution *state.Execution
		err       error
	)
	if args.ExecutionID != "" {
		execution, err = s.learning.ExecuteWithID(args.ExecutionID, args.Task)
	} else {
		execution, err = s.learning.Execute(args.Task)
	}
	if err != nil {
		return nil, executeOutput{}, fmt.Errorf("execute failed: %w", err)
	}

	output := executeOutput{
		ExecutionID: execution.ID,
		PromptHash:  execution.PromptHash,
		CreatedAt:   execution.CreatedAt,
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: fmt.Sprintf("Recorded execution %s", execution.ID)},
		},
	}, output, nil
}

func (s *Server) handleReflect(ctx context.Context, req *mcp.CallToolRequest, args reflectInput) (*mcp.CallToolResult, reflectOutput, error) {
	err := s.learning.Reflect(learning.ReflectRequest{
		Failure:     args.Failure,
		Context:     args.Context,
		Error:       args.Error,
		ExecutionID: args.ExecutionID,
	})
	if err != nil {
		return nil, reflectOutput{}, fmt.Errorf("reflect failed: %w", err)
	}

	content, err := s.learning.Store().ReadPrompt()
	if err != nil {
		return nil, reflectOutput{}, fmt.Errorf("reading prompt: %w", err)
	}

	output := reflectOutput{
		Outcome:    state.OutcomeSuccess,
		PromptHash: state.PromptHash(content),
	}
	if args.Failure {
		output.Outcome = state.OutcomeFailure
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: fmt.Sprintf("Recorded %s reflection, prompt version %s", output.Outcome, output.PromptHash)},
		},
	}, output, nil
}

func (s *Server) handleAnalyze(ctx context.Context, req *mcp.CallToolRequest, args analyzeInput) (*mcp.CallToolResult, analyzeOutput, error) {
	proposals, adopted, err := s.learning.Analyze(args.Apply)
	if err != nil {
		return nil, analyzeOutput{}, fmt.Errorf("analyze failed: %w", err)
	}

	output := analyzeOutput{
		Proposals: proposals,
		Applied:   adopted > 0,
		Adopted:   adopted,
	}

	text := fmt.Sprintf("Proposed %d generalizations", len(proposals))
	if output.Applied {
		text = fmt.Sprintf("Adopted %d generalizations into the operating prompt", adopted)
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}, output, nil
}

func (s *Server) handleEffectiveness(ctx context.Context, req *mcp.CallToolRequest, args effectivenessInput) (*mcp.CallToolResult, effectivenessOutput, error) {
	stats, err := s.learning.Effectiveness()
	if err != nil {
		return nil, effectivenessOutput{}, fmt.Errorf("effectiveness failed: %w", err)
	}

	output := effectivenessOutput{Patterns: stats}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: fmt.Sprintf("Computed success rates for %d patterns", len(stats))},
		},
	}, output, nil
}
