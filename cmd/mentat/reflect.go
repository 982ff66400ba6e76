package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/mentat/internal/learning"
	"github.com/fyrsmithlabs/mentat/internal/state"
)

var (
	reflectFailure     bool
	reflectSuccess     bool
	reflectContext     string
	reflectError       string
	reflectExecutionID string
)

func init() {
	rootCmd.AddCommand(reflectCmd)
	reflectCmd.Flags().BoolVar(&reflectFailure, "failure", false, "record the attempt as a failure")
	reflectCmd.Flags().BoolVar(&reflectSuccess, "success", false, "record the attempt as a success")
	reflectCmd.Flags().StringVar(&reflectContext, "context", "", "what was being attempted (required)")
	reflectCmd.Flags().StringVar(&reflectError, "error", "", "error text for failures")
	reflectCmd.Flags().StringVar(&reflectExecutionID, "execution-id", "", "execution to link (default: the most recent)")
	_ = reflectCmd.MarkFlagRequired("context")
}

// reflectCmd records the outcome of an attempt
var reflectCmd = &cobra.Command{
	Use:   "reflect",
	Short: "Record the outcome of an attempt",
	Long: `Record whether an attempt succeeded or failed. The reflection is
linked to an execution (explicitly via --execution-id, otherwise to the
most recent one), a note is appended to the operating prompt, and the
changed prompt is archived as a new version.

Error text is scrubbed for secret material before it is persisted.

Examples:
  # Record a failure against the latest execution
  mentat reflect --failure --context "Forgot to await the fetch" \
      --error "Unhandled promise rejection"

  # Record a success against a specific execution
  mentat reflect --success --context "Refactor landed cleanly" \
      --execution-id build_1421`,
	Args: cobra.NoArgs,
	RunE: runReflect,
}

func runReflect(cmd *cobra.Command, args []string) error {
	if reflectFailure == reflectSuccess {
		return fmt.Errorf("exactly one of --failure or --success is required")
	}

	_, _, svc, err := setup()
	if err != nil {
		return err
	}

	err = svc.Reflect(learning.ReflectRequest{
		Failure:     reflectFailure,
		Context:     reflectContext,
		Error:       reflectError,
		ExecutionID: reflectExecutionID,
	})
	if err != nil {
		return err
	}

	content, err := svc.Store().ReadPrompt()
	if err != nil {
		return err
	}

	outcome := state.OutcomeSuccess
	if reflectFailure {
		outcome = state.OutcomeFailure
	}
	cmd.Printf("Recorded %s reflection (prompt version %s)\n", outcome, state.PromptHash(content))
	return nil
}
