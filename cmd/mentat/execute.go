package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/mentat/internal/state"
)

var executionID string

func init() {
	rootCmd.AddCommand(executeCmd)
	executeCmd.Flags().StringVar(&executionID, "id", "", "explicit execution id (default: generated)")
}

// executeCmd records a task attempt
var executeCmd = &cobra.Command{
	Use:   "execute <task>",
	Short: "Record a task attempt",
	Long: `Record the start of a task attempt against the current operating
prompt. The returned execution id links later reflections and attribution
back to this attempt and to the prompt version that was in effect.

Examples:
  # Record an attempt
  mentat execute "Add retry logic to the uploader"

  # Record with a caller-chosen id
  mentat execute --id build_1421 "Fix flaky integration test"`,
	Args: cobra.ExactArgs(1),
	RunE: runExecute,
}

func runExecute(cmd *cobra.Command, args []string) error {
	_, _, svc, err := setup()
	if err != nil {
		return err
	}

	var execution *state.Execution
	if executionID != "" {
		execution, err = svc.ExecuteWithID(executionID, args[0])
	} else {
		execution, err = svc.Execute(args[0])
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Recorded execution %s (prompt version %s)\n", execution.ID, execution.PromptHash)
	return nil
}
