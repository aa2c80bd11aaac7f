package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/ppiankov/chandigest/internal/config"
	"github.com/ppiankov/chandigest/internal/digest"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var explainCmd = &cobra.Command{
	Use:   "explain <text|->",
	Short: "Show how a post would be filtered, shortened and classified",
	Long:  `Runs one post through the digest stages using the configured lexicon. Pass "-" to read the post from stdin.`,
	Args:  cobra.ExactArgs(1),
	RunE:  explainAction,
}

func init() {
	rootCmd.AddCommand(explainCmd)
}

func explainAction(cmd *cobra.Command, args []string) error {
	text := args[0]
	if text == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
		text = string(data)
	}
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("nothing to explain")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	lex, err := config.LoadLexicon(cfg.LexiconPath(configDir))
	if err != nil {
		return fmt.Errorf("load lexicon: %w", err)
	}
	composer, err := newComposer(cfg, lex, zap.NewNop())
	if err != nil {
		return err
	}

	printExplanation(cmd.OutOrStdout(), composer.Explain(text))
	return nil
}

func printExplanation(w io.Writer, e digest.Explanation) {
	switch {
	case e.NoiseMarker != "":
		fmt.Fprintf(w, "Dropped: noise marker %q\n", e.NoiseMarker)
	case e.TooShort:
		fmt.Fprintln(w, "Dropped: too short")
	case e.Cleaned == "" || e.Shortened == "":
		fmt.Fprintln(w, "Dropped: nothing left after cleaning")
	default:
		fmt.Fprintln(w, "Kept")
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Cleaned:   %s\n", e.Cleaned)
	fmt.Fprintf(w, "Shortened: %s\n", e.Shortened)
	fmt.Fprintf(w, "Dedup key: %s\n", e.DedupKey)
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Category: %s  (development %d, tension %d, administrative %d)\n",
		e.Category, e.Scores.Development, e.Scores.Tension, e.Scores.Administrative)
	if len(e.Scores.Hits) > 0 {
		fmt.Fprintln(w, "Hits:")
		for _, h := range e.Scores.Hits {
			fmt.Fprintf(w, "  %s\n", h)
		}
	}
}
