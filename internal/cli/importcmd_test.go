package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ppiankov/chandigest/internal/config"
)

func TestExtractFeeds(t *testing.T) {
	outlines := []opmlOutline{
		{XMLURL: "https://meduza.io/rss/all", Text: "Meduza"},
		{XMLURL: "https://www.interfax.ru/rss.asp", Title: "Interfax"},
		{XMLURL: "", Text: "Empty"},
		{XMLURL: "ftp://invalid.com/feed", Text: "Invalid scheme"},
	}

	feeds := extractFeeds(outlines)
	if len(feeds) != 2 {
		t.Fatalf("expected 2 feeds, got %d: %v", len(feeds), feeds)
	}
	if feeds[0].URL != "https://meduza.io/rss/all" || feeds[0].Title != "Meduza" {
		t.Errorf("feeds[0] = %+v", feeds[0])
	}
	if feeds[1].Title != "Interfax" {
		t.Errorf("title attr fallback = %q", feeds[1].Title)
	}
}

func TestExtractFeeds_Nested(t *testing.T) {
	outlines := []opmlOutline{
		{
			Text: "News",
			Outlines: []opmlOutline{
				{XMLURL: "https://tass.ru/rss/v2.xml"},
				{XMLURL: "https://ria.ru/export/rss2/archive/index.xml"},
			},
		},
		{
			Text: "Business",
			Outlines: []opmlOutline{
				{XMLURL: "https://rssexport.rbc.ru/rbcnews/news/30/full.rss"},
			},
		},
	}

	if feeds := extractFeeds(outlines); len(feeds) != 3 {
		t.Fatalf("expected 3 feeds from nested outlines, got %d", len(feeds))
	}
}

func TestExtractFeeds_Empty(t *testing.T) {
	if feeds := extractFeeds(nil); len(feeds) != 0 {
		t.Errorf("expected 0 feeds, got %d", len(feeds))
	}
}

func TestFeedSources(t *testing.T) {
	existing := []config.SourceConfig{
		{ID: "meduza", Handle: "meduzaproject", Kind: config.KindChannel},
		{ID: "tass", URL: "https://tass.ru/rss/v2.xml", Kind: config.KindFeed},
	}
	feeds := []opmlFeed{
		{URL: "https://tass.ru/rss/v2.xml", Title: "TASS"},
		{URL: "https://meduza.io/rss/all", Title: "Meduza"},
		{URL: "https://meduza.io/rss/all", Title: "Meduza again"},
		{URL: "https://www.example.com/feed"},
	}

	got, skipped := feedSources(existing, feeds, false)
	if skipped != 2 {
		t.Errorf("skipped = %d, want 2", skipped)
	}
	if len(got) != 2 {
		t.Fatalf("sources = %d, want 2", len(got))
	}
	if got[0].ID != "meduza_2" {
		t.Errorf("id = %q, want meduza_2 (meduza taken)", got[0].ID)
	}
	if got[0].Monitored() {
		t.Error("imported feed should not be monitored without --monitor")
	}
	if got[1].Title != "example.com" || got[1].ID != "example_com" {
		t.Errorf("host fallback = %+v", got[1])
	}
}

func TestAppendSources(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, config.DefaultConfigFile)
	content := `# news channels
sources:
  - id: rbc
    handle: rbc_news
digest:
  title: "Morning"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	off := false
	add := []config.SourceConfig{{ID: "tass", Title: "TASS", URL: "https://tass.ru/rss/v2.xml", Kind: config.KindFeed, Monitor: &off}}
	if err := appendSources(path, add); err != nil {
		t.Fatalf("appendSources: %v", err)
	}

	cfg, err := config.Load(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(cfg.Sources) != 2 {
		t.Fatalf("sources = %d, want 2", len(cfg.Sources))
	}
	if cfg.Sources[1].ID != "tass" || cfg.Sources[1].Monitored() {
		t.Errorf("appended = %+v", cfg.Sources[1])
	}
	if cfg.Digest.Title != "Morning" {
		t.Errorf("title = %q, other keys must survive", cfg.Digest.Title)
	}
}

func TestAppendSources_NoSourcesKey(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, config.DefaultConfigFile)
	if err := os.WriteFile(path, []byte("digest:\n  title: x\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	add := []config.SourceConfig{{ID: "rbc", Title: "@rbc_news", Handle: "rbc_news", Kind: config.KindChannel}}
	if err := appendSources(path, add); err != nil {
		t.Fatalf("appendSources: %v", err)
	}

	cfg, err := config.Load(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(cfg.Sources) != 1 || cfg.Sources[0].Handle != "rbc_news" {
		t.Errorf("sources = %+v", cfg.Sources)
	}
}

func TestAppendSources_NotAList(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, config.DefaultConfigFile)
	if err := os.WriteFile(path, []byte("sources: meduza\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := appendSources(path, []config.SourceConfig{{ID: "x"}}); err == nil {
		t.Error("expected error for scalar sources")
	}
}

func TestParseTarget(t *testing.T) {
	tests := []struct {
		in     string
		group  bool
		id     string
		kind   string
		target string
		err    bool
	}{
		{in: "@rbc_news", id: "rbc_news", kind: config.KindChannel, target: "rbc_news"},
		{in: "meduzaproject", id: "meduzaproject", kind: config.KindChannel, target: "meduzaproject"},
		{in: "https://t.me/s/tass_agency", id: "tass_agency", kind: config.KindChannel, target: "tass_agency"},
		{in: "t.me/bbbreaking/1234", id: "bbbreaking", kind: config.KindChannel, target: "bbbreaking"},
		{in: "@moscow_chat", group: true, id: "moscow_chat", kind: config.KindGroup, target: "moscow_chat"},
		{in: "https://meduza.io/rss/all", id: "meduza_io", kind: config.KindFeed, target: "https://meduza.io/rss/all"},
		{in: "@a!", err: true},
		{in: "meduza.io/rss", err: true},
		{in: "https://meduza.io/rss", group: true, err: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			src, err := parseTarget(tt.in, tt.group)
			if tt.err {
				if err == nil {
					t.Fatalf("expected error, got %+v", src)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if src.ID != tt.id || src.Kind != tt.kind || src.Target() != tt.target {
				t.Errorf("got id=%q kind=%q target=%q", src.ID, src.Kind, src.Target())
			}
		})
	}
}

func TestUniqueID(t *testing.T) {
	taken := map[string]bool{"rbc": true, "rbc_2": true}
	if got := uniqueID("rbc", taken); got != "rbc_3" {
		t.Errorf("uniqueID = %q, want rbc_3", got)
	}
	if got := uniqueID("", taken); got != "source" {
		t.Errorf("empty base = %q, want source", got)
	}
	if !taken["rbc_3"] {
		t.Error("returned id must be marked taken")
	}
}
