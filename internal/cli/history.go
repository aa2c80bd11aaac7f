package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/ppiankov/chandigest/internal/archive"
	"github.com/spf13/cobra"
)

var (
	historyLimit  int
	historyFormat string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List archived digests",
	RunE:  historyAction,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print an archived digest (id or unique prefix)",
	Args:  cobra.ExactArgs(1),
	RunE:  historyShowAction,
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "number of digests to list")
	historyCmd.Flags().StringVar(&historyFormat, "format", "terminal", "output format: terminal, json")
	historyCmd.AddCommand(historyShowCmd)
	rootCmd.AddCommand(historyCmd)
}

func openArchive() (*archive.Archive, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	arc, err := archive.Open(cfg.Archive.Path)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	return arc, nil
}

func historyAction(cmd *cobra.Command, _ []string) error {
	arc, err := openArchive()
	if err != nil {
		return err
	}
	defer func() { _ = arc.Close() }()

	entries, err := arc.List(cmdContext(cmd), historyLimit)
	if err != nil {
		return fmt.Errorf("list digests: %w", err)
	}

	w := cmd.OutOrStdout()
	switch historyFormat {
	case "json":
		return printHistoryJSON(w, entries)
	case "terminal", "":
		printHistory(w, entries)
		return nil
	default:
		return fmt.Errorf("unknown format %q (want terminal or json)", historyFormat)
	}
}

func historyShowAction(cmd *cobra.Command, args []string) error {
	arc, err := openArchive()
	if err != nil {
		return err
	}
	defer func() { _ = arc.Close() }()

	e, err := arc.Get(cmdContext(cmd), args[0])
	switch {
	case errors.Is(err, archive.ErrNotFound):
		return fmt.Errorf("no digest with id %q", args[0])
	case errors.Is(err, archive.ErrAmbiguous):
		return fmt.Errorf("id prefix %q matches more than one digest", args[0])
	case err != nil:
		return fmt.Errorf("get digest: %w", err)
	}

	w := cmd.OutOrStdout()
	fmt.Fprint(w, e.Body)
	if !strings.HasSuffix(e.Body, "\n") {
		fmt.Fprintln(w)
	}
	return nil
}

func printHistory(w io.Writer, entries []archive.Entry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No digests archived yet. Run 'chandigest run' first.")
		return
	}

	fmt.Fprintf(w, "  %-8s  %-16s  %6s  %5s  %7s  %5s  %-14s  %s\n",
		"ID", "Created", "Window", "Items", "Sources", "Score", "Label", "Delivered")
	for _, e := range entries {
		fmt.Fprintf(w, "  %-8s  %-16s  %6s  %5d  %7d  %5.2f  %-14s  %s\n",
			shortID(e.ID),
			e.CreatedAt.Local().Format("2006-01-02 15:04"),
			formatHours(e.WindowHours),
			e.Items, e.Sources, e.Score, e.Label,
			strings.Join(e.Delivered, ","))
	}
}

type jsonHistoryEntry struct {
	ID          string    `json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	Title       string    `json:"title"`
	WindowHours int       `json:"window_hours"`
	Format      string    `json:"format"`
	Score       float64   `json:"score"`
	Label       string    `json:"label"`
	Items       int       `json:"items"`
	Sources     int       `json:"sources"`
	Delivered   []string  `json:"delivered"`
}

func printHistoryJSON(w io.Writer, entries []archive.Entry) error {
	out := make([]jsonHistoryEntry, 0, len(entries))
	for _, e := range entries {
		delivered := e.Delivered
		if delivered == nil {
			delivered = []string{}
		}
		out = append(out, jsonHistoryEntry{
			ID:          e.ID,
			CreatedAt:   e.CreatedAt,
			Title:       e.Title,
			WindowHours: e.WindowHours,
			Format:      e.Format,
			Score:       e.Score,
			Label:       e.Label,
			Items:       e.Items,
			Sources:     e.Sources,
			Delivered:   delivered,
		})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func formatHours(h int) string {
	switch {
	case h <= 0:
		return "all"
	case h >= 24 && h%24 == 0:
		return fmt.Sprintf("%dd", h/24)
	default:
		return fmt.Sprintf("%dh", h)
	}
}
