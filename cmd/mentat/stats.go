package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/mentat/internal/learning"
)

func init() {
	rootCmd.AddCommand(statsCmd)
}

// statsCmd prints pattern effectiveness
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show pattern effectiveness",
	Long: `Print the success rate of every pattern that has appeared in at
least one execution's attribution, with the adopted rule text where the
pattern id resolves to a ledger entry.

Examples:
  mentat stats`,
	Args: cobra.NoArgs,
	RunE: runStats,
}

func runStats(cmd *cobra.Command, args []string) error {
	_, _, svc, err := setup()
	if err != nil {
		return err
	}

	stats, err := svc.Effectiveness()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(stats) == 0 {
		fmt.Fprintln(out, "No attribution data yet")
		return nil
	}

	history, err := svc.Store().LoadHistory()
	if err != nil {
		return err
	}

	fmt.Fprintln(out, "Pattern effectiveness:")
	for i, text := range history.Patterns {
		id := learning.PatternID(i)
		s, ok := stats[id]
		if !ok {
			continue
		}
		fmt.Fprintf(out, "%s: %.0f%% success rate (%d executions)\n", id, s.SuccessRate*100, s.Appearances)
		fmt.Fprintf(out, "    %s\n", text)
		delete(stats, id)
	}

	// Attribution can reference ids outside the ledger; report them too.
	extra := make([]string, 0, len(stats))
	for id := range stats {
		extra = append(extra, id)
	}
	sort.Strings(extra)
	for _, id := range extra {
		s := stats[id]
		fmt.Fprintf(out, "%s: %.0f%% success rate (%d executions)\n", id, s.SuccessRate*100, s.Appearances)
	}
	return nil
}
