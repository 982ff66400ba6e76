package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/mentat/internal/mcp"
)

func init() {
	rootCmd.AddCommand(mcpCmd)
}

// mcpCmd runs the MCP stdio server
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the learning loop over MCP on stdio",
	Long: `Run an MCP server on stdin/stdout exposing mentat_execute,
mentat_reflect, mentat_analyze, and mentat_effectiveness, so a coding
agent can drive the learning loop without shelling out.

Logs go to stderr; stdout carries the protocol.

Examples:
  mentat mcp`,
	Args: cobra.NoArgs,
	RunE: runMCP,
}

func runMCP(cmd *cobra.Command, args []string) error {
	_, logger, svc, err := setup()
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()

	server, err := mcp.NewServer(&mcp.Config{
		Name:    "mentat",
		Version: version,
		Logger:  logger,
	}, svc)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return server.Run(ctx)
}
