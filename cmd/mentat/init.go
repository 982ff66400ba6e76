package main

import (
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(initCmd)
}

// initCmd bootstraps the state directory
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Bootstrap the state directory",
	Long: `Create the state directory with empty learning documents and the
base operating prompt, and archive the prompt as version 1.

Running init on an already initialized directory is a no-op.

Examples:
  # Initialize in the default location (.mentat)
  mentat init

  # Initialize somewhere else
  mentat init --state-dir /tmp/agent-state`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	cfg, _, svc, err := setup()
	if err != nil {
		return err
	}

	if err := svc.Init(); err != nil {
		return err
	}

	cmd.Printf("Initialized state in %s\n", cfg.State.Dir)
	return nil
}
