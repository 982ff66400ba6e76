package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var analyzeApply bool

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().BoolVar(&analyzeApply, "apply", false, "adopt proposed rules into the operating prompt")
}

// analyzeCmd mines failures for recurring categories
var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Mine recorded failures for generalizable patterns",
	Long: `Partition the recorded failures across the failure taxonomy and
propose one generalized rule per category that has enough corroborating
evidence. Without --apply the proposals are printed and nothing is
persisted; with --apply new rules are adopted into the pattern ledger,
appended to the operating prompt, and the prompt is archived.

Examples:
  # Preview proposals
  mentat analyze

  # Adopt them
  mentat analyze --apply`,
	Args: cobra.NoArgs,
	RunE: runAnalyze,
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	_, _, svc, err := setup()
	if err != nil {
		return err
	}

	proposals, adopted, err := svc.Analyze(analyzeApply)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(proposals) == 0 {
		fmt.Fprintln(out, "No patterns found")
		return nil
	}

	for _, p := range proposals {
		fmt.Fprintf(out, "[%s] %s\n", p.Pattern, p.Rule)
		fmt.Fprintf(out, "    confidence %.2f, based on %s\n", p.Confidence, p.BasedOn)
	}
	if analyzeApply {
		if adopted == 0 {
			fmt.Fprintln(out, "No new patterns to adopt")
		} else {
			fmt.Fprintf(out, "Adopted %d patterns into the operating prompt\n", adopted)
		}
	}
	return nil
}
