package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ppiankov/chandigest/internal/dispatch"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Deliver digests on the configured cron schedule",
	RunE:  serveAction,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func serveAction(cmd *cobra.Command, _ []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	job := func(ctx context.Context) error {
		_, err := a.service.Run(ctx)
		return err
	}
	sched, err := dispatch.NewScheduler(a.cfg.Schedule.Cron, a.cfg.Location(), job, a.logger.Named("scheduler"))
	if err != nil {
		return fmt.Errorf("schedule: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmdContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("Serving %d sources on %q (%s)\n", len(a.cfg.Sources), a.cfg.Schedule.Cron, a.cfg.Digest.Timezone)
	for _, t := range sched.Next(time.Now(), 3) {
		fmt.Printf("  next: %s\n", t.Format("2006-01-02 15:04 MST"))
	}

	return sched.Run(ctx, a.cfg.Schedule.RunOnStart)
}
