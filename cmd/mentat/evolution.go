package main

import (
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(evolutionCmd)
}

// evolutionCmd prints the prompt version history
var evolutionCmd = &cobra.Command{
	Use:   "evolution",
	Short: "Show the prompt version history",
	Long: `Print every archived prompt version in creation order with its
content hash, creation time, pattern count, and the line and pattern
deltas against the previous version.

Examples:
  mentat evolution`,
	Args: cobra.NoArgs,
	RunE: runEvolution,
}

func runEvolution(cmd *cobra.Command, args []string) error {
	_, _, svc, err := setup()
	if err != nil {
		return err
	}

	return svc.RenderEvolution(cmd.OutOrStdout())
}
