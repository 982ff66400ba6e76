package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/mentat/internal/guard"
)

var (
	codeTask     string
	codeTestCmd  string
	codeNoRevert bool
	codeDir      string
)

func init() {
	rootCmd.AddCommand(codeCmd)
	codeCmd.Flags().StringVar(&codeTask, "task", "", "task being attempted (required)")
	codeCmd.Flags().StringVar(&codeTestCmd, "test-cmd", "", "verification command, pass = exit 0 (required)")
	codeCmd.Flags().BoolVar(&codeNoRevert, "no-revert", false, "keep the edit even when verification fails")
	codeCmd.Flags().StringVar(&codeDir, "dir", ".", "project directory holding the working tree")
	_ = codeCmd.MarkFlagRequired("task")
	_ = codeCmd.MarkFlagRequired("test-cmd")
}

// codeCmd runs a guarded execution
var codeCmd = &cobra.Command{
	Use:   "code",
	Short: "Run a guarded execution",
	Long: `Run the guarded execution protocol: snapshot the working tree,
run the verification command, and keep the current edit only when it
passes. On failure the edit is reverted (unless --no-revert) and a
failure reflection is recorded; on success a success reflection is
recorded and every adopted pattern is credited.

The project directory must be under version control; a guarded run
refuses to start otherwise. A verification timeout counts as a failure.

Exits non-zero when verification fails.

Examples:
  # Guard an edit behind the test suite
  mentat code --task "Fix the pager" --test-cmd "go test ./..."

  # Keep the edit for inspection even if tests fail
  mentat code --task "Spike" --test-cmd "make check" --no-revert`,
	Args: cobra.NoArgs,
	RunE: runCode,
}

func runCode(cmd *cobra.Command, args []string) error {
	cfg, logger, svc, err := setup()
	if err != nil {
		return err
	}

	executor, err := guard.NewExecutor(svc, guard.Config{
		WorkDir:     codeDir,
		Shell:       cfg.Guard.Shell,
		TestTimeout: cfg.Guard.TestTimeout.Duration(),
	}, logger)
	if err != nil {
		return err
	}

	result, err := executor.Run(cmd.Context(), codeTask, codeTestCmd, codeNoRevert)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, result.Message)
	if result.Reverted {
		fmt.Fprintln(out, "Changes reverted")
	}
	if !result.Success {
		return fmt.Errorf("verification failed for execution %s", result.ExecutionID)
	}

	fmt.Fprintf(out, "Execution %s recorded\n", result.ExecutionID)
	return nil
}
