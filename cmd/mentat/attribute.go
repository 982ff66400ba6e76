package main

import (
	"github.com/spf13/cobra"
)

var (
	attributePattern string
	attributeWeight  float64
)

func init() {
	rootCmd.AddCommand(attributeCmd)
	attributeCmd.Flags().StringVar(&attributePattern, "pattern", "", "pattern id, e.g. pattern1 (required)")
	attributeCmd.Flags().Float64Var(&attributeWeight, "weight", 1.0, "signed weight: positive credits, negative or zero debits")
	_ = attributeCmd.MarkFlagRequired("pattern")
}

// attributeCmd assigns a pattern weight to an execution
var attributeCmd = &cobra.Command{
	Use:   "attribute <execution-id>",
	Short: "Attribute a pattern to an execution",
	Long: `Assign a signed weight to one pattern on one execution. Positive
weights credit the pattern with contributing to a success; zero or
negative weights count against it. Stats are computed from these weights.

Examples:
  # Credit pattern1 for a successful run
  mentat attribute build_1421 --pattern pattern1

  # Debit pattern2 after a failure
  mentat attribute build_1422 --pattern pattern2 --weight -1.0`,
	Args: cobra.ExactArgs(1),
	RunE: runAttribute,
}

func runAttribute(cmd *cobra.Command, args []string) error {
	_, _, svc, err := setup()
	if err != nil {
		return err
	}

	if err := svc.Attribute(args[0], attributePattern, attributeWeight); err != nil {
		return err
	}

	cmd.Printf("Attributed %s to execution %s with weight %+.1f\n", attributePattern, args[0], attributeWeight)
	return nil
}
