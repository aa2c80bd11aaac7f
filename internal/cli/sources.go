package cli

import (
	"fmt"
	"io"

	"github.com/ppiankov/chandigest/internal/config"
	"github.com/ppiankov/chandigest/internal/dispatch"
	"github.com/spf13/cobra"
)

var sourcesCollect bool

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List configured sources and their monitoring state",
	RunE:  sourcesAction,
}

func init() {
	sourcesCmd.Flags().BoolVar(&sourcesCollect, "collect", false, "collect first and show fresh post counts")
	rootCmd.AddCommand(sourcesCmd)
}

func sourcesAction(cmd *cobra.Command, _ []string) error {
	w := cmd.OutOrStdout()

	if !sourcesCollect {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		printSources(w, cfg.Sources)
		return nil
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	report := a.collector.Collect(cmdContext(cmd))
	if len(report.Failed) > 0 {
		fmt.Fprintf(w, "Failed to fetch %d of %d sources.\n\n", len(report.Failed), report.Sources)
	}
	fmt.Fprint(w, dispatch.StatusOf(a.store, statusHours(a.cfg.Digest.WidenSteps)))
	return nil
}

func printSources(w io.Writer, sources []config.SourceConfig) {
	idWidth := 2
	for _, src := range sources {
		idWidth = max(idWidth, len(src.ID))
	}

	monitored := 0
	fmt.Fprintf(w, "  %-*s  %-7s  %-3s  %s\n", idWidth, "ID", "Kind", "On", "Target")
	for _, src := range sources {
		mark := "-"
		if src.Monitored() {
			mark = "+"
			monitored++
		}
		target := src.Target()
		if src.Kind != config.KindFeed {
			target = "@" + target
		}
		fmt.Fprintf(w, "  %-*s  %-7s  %-3s  %s", idWidth, src.ID, src.Kind, mark, target)
		if src.Title != "" && src.Title != src.ID && src.Title != target {
			fmt.Fprintf(w, "  (%s)", src.Title)
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintf(w, "\n%d sources, %d monitored.\n", len(sources), monitored)
}
