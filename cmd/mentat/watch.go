package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/mentat/internal/watch"
)

func init() {
	rootCmd.AddCommand(watchCmd)
}

// watchCmd archives out-of-band prompt edits
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the prompt file and archive external edits",
	Long: `Watch the live prompt file and archive any out-of-band edit as a
new prompt version once writes settle. Edits whose content is already
archived are skipped, so the watcher can run alongside the CLI.

Runs until SIGINT or SIGTERM.

Examples:
  mentat watch`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, logger, svc, err := setup()
	if err != nil {
		return err
	}

	w, err := watch.New(svc, watch.Config{Debounce: cfg.Watch.Debounce.Duration()}, logger)
	if err != nil {
		return err
	}
	defer w.Stop()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := w.Start(ctx); err != nil {
		return err
	}

	cmd.Printf("Watching %s\n", svc.Store().PromptPath())
	for {
		select {
		case <-ctx.Done():
			return nil
		case event := <-w.Events():
			cmd.Printf("Archived external edit at %s\n", event.Timestamp.Format("15:04:05"))
		}
	}
}
