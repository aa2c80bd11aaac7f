package cli

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ppiankov/chandigest/internal/config"
	"github.com/spf13/cobra"
)

var (
	importDryRun  bool
	importMonitor bool
)

var importCmd = &cobra.Command{
	Use:   "import <file.opml>",
	Short: "Import RSS feeds from an OPML file as feed sources",
	Args:  cobra.ExactArgs(1),
	RunE:  importAction,
}

func init() {
	importCmd.Flags().BoolVar(&importDryRun, "dry-run", false, "show what would be added without modifying config")
	importCmd.Flags().BoolVar(&importMonitor, "monitor", false, "monitor imported feeds right away")
	rootCmd.AddCommand(importCmd)
}

type opml struct {
	Body opmlBody `xml:"body"`
}

type opmlBody struct {
	Outlines []opmlOutline `xml:"outline"`
}

type opmlOutline struct {
	XMLURL   string        `xml:"xmlUrl,attr"`
	Text     string        `xml:"text,attr"`
	Title    string        `xml:"title,attr"`
	Outlines []opmlOutline `xml:"outline"`
}

// opmlFeed is one feed outline flattened out of folders.
type opmlFeed struct {
	URL   string
	Title string
}

func importAction(_ *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read OPML: %w", err)
	}

	var doc opml
	if err := xml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parse OPML: %w", err)
	}

	feeds := extractFeeds(doc.Body.Outlines)
	if len(feeds) == 0 {
		fmt.Println("No feed URLs found in OPML file.")
		return nil
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	newSources, skipped := feedSources(cfg.Sources, feeds, importMonitor)
	if len(newSources) == 0 {
		fmt.Printf("All %d feeds already present, nothing to add.\n", skipped)
		return nil
	}

	if importDryRun {
		fmt.Printf("Would add %d feeds (skipping %d duplicates):\n", len(newSources), skipped)
		for _, src := range newSources {
			fmt.Printf("  + %s  %s\n", src.ID, src.URL)
		}
		return nil
	}

	configPath := filepath.Join(configDir, config.DefaultConfigFile)
	if err := appendSources(configPath, newSources); err != nil {
		return fmt.Errorf("merge feeds: %w", err)
	}

	fmt.Printf("Added %d feeds, skipped %d duplicates.\n", len(newSources), skipped)
	return nil
}

func extractFeeds(outlines []opmlOutline) []opmlFeed {
	var feeds []opmlFeed
	for _, o := range outlines {
		u := strings.TrimSpace(o.XMLURL)
		if strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://") {
			title := strings.TrimSpace(o.Text)
			if title == "" {
				title = strings.TrimSpace(o.Title)
			}
			feeds = append(feeds, opmlFeed{URL: u, Title: title})
		}
		feeds = append(feeds, extractFeeds(o.Outlines)...)
	}
	return feeds
}

// feedSources turns feeds into source entries, skipping URLs already
// configured or repeated within feeds.
func feedSources(existing []config.SourceConfig, feeds []opmlFeed, monitor bool) ([]config.SourceConfig, int) {
	taken := make(map[string]bool, len(existing))
	seenURL := make(map[string]bool, len(existing))
	for _, src := range existing {
		taken[src.ID] = true
		if src.Kind == config.KindFeed {
			seenURL[src.URL] = true
		}
	}

	var out []config.SourceConfig
	skipped := 0
	for _, f := range feeds {
		if seenURL[f.URL] {
			skipped++
			continue
		}
		seenURL[f.URL] = true

		title := f.Title
		if title == "" {
			title = strings.TrimPrefix(feedHost(f.URL), "www.")
		}
		base := slug(title)
		if base == "" {
			base = slug(feedHost(f.URL))
		}
		src := config.SourceConfig{
			ID:    uniqueID(base, taken),
			Title: title,
			URL:   f.URL,
			Kind:  config.KindFeed,
		}
		if !monitor {
			off := false
			src.Monitor = &off
		}
		out = append(out, src)
	}
	return out, skipped
}
