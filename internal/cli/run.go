package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/ppiankov/chandigest/internal/dispatch"
	"github.com/spf13/cobra"
)

var runStatus bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Collect posts then deliver one digest",
	RunE:  runAction,
}

func init() {
	runCmd.Flags().BoolVar(&runStatus, "status", false, "collect and print per-source status instead of a digest")
	rootCmd.AddCommand(runCmd)
}

func cmdContext(cmd *cobra.Command) context.Context {
	if cmd != nil && cmd.Context() != nil {
		return cmd.Context()
	}
	return context.Background()
}

func runAction(cmd *cobra.Command, _ []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmdContext(cmd)

	if runStatus {
		a.collector.Collect(ctx)
		fmt.Print(dispatch.StatusOf(a.store, statusHours(a.cfg.Digest.WidenSteps)))
		return nil
	}

	res, err := a.service.Run(ctx)
	if err != nil {
		return fmt.Errorf("run: %w", err)
	}

	if !a.cfg.Delivery.Stdout {
		switch {
		case res.Empty:
			fmt.Println("Nothing to summarize yet.")
		default:
			fmt.Printf("Delivered digest to %s.\n", strings.Join(res.Delivered, ", "))
		}
	}
	return nil
}

// statusHours is the first widening step, the window a digest tries first.
func statusHours(steps []int) int {
	if len(steps) == 0 {
		return 24
	}
	return steps[0]
}
