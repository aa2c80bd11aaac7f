package digest

import (
	"fmt"
	"slices"
	"testing"

	"github.com/ppiankov/chandigest/internal/store"
	"github.com/ppiankov/chandigest/internal/tone"
)

func testLexicon() *tone.Lexicon {
	return &tone.Lexicon{
		Version:        1,
		Development:    []string{"agreement", "growth"},
		Tension:        []string{"attack", "crisis"},
		Administrative: []string{"meeting", "decree"},
		Noise:          []string{"subscribe to", "read more", "source:"},
	}
}

func batch(id, title string, texts ...string) store.Batch {
	b := store.Batch{Source: store.Source{ID: id, Title: title}}
	for _, t := range texts {
		b.Records = append(b.Records, store.Record{SourceID: id, Text: t})
	}
	return b
}

// items builds Items from "s:text" pairs, s being a one-letter source id.
func items(pairs ...string) []Item {
	var out []Item
	for _, s := range pairs {
		src, text := s[:1], s[2:]
		out = append(out, Item{Raw: text, Text: text, SourceID: src, SourceTitle: src})
	}
	return out
}

func sources(items []Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.SourceID
	}
	return out
}

func TestFlatten(t *testing.T) {
	w := store.Window{Hours: 24, Batches: []store.Batch{
		batch("b", "Bee", "b one", "b two"),
		batch("a", "", "a one"),
	}}

	got := Flatten(w)
	if len(got) != 3 {
		t.Fatalf("items = %d, want 3", len(got))
	}
	if got[0].Raw != "b one" || got[1].Raw != "b two" || got[2].Raw != "a one" {
		t.Errorf("order = %q %q %q", got[0].Raw, got[1].Raw, got[2].Raw)
	}
	if got[0].SourceTitle != "Bee" {
		t.Errorf("title = %q, want Bee", got[0].SourceTitle)
	}
	if got[2].SourceTitle != "a" {
		t.Errorf("empty title should fall back to id, got %q", got[2].SourceTitle)
	}
}

func TestFilter_SourceTASSScenario(t *testing.T) {
	in := []Item{
		{Raw: "Parliament passed the budget law today. Source: TASS", SourceID: "a"},
		{Raw: "Parliament passed the budget law today.", SourceID: "b"},
	}

	got, dropped := Filter(in, testLexicon(), 10)
	if len(got) != 1 || got[0].SourceID != "b" {
		t.Fatalf("kept = %+v, want only the clean item", got)
	}
	if dropped != 1 {
		t.Errorf("dropped = %d, want 1", dropped)
	}
}

func TestFilter(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		keep bool
	}{
		{"plain", "A perfectly normal news item", true},
		{"promo", "Subscribe to our channel for more", false},
		{"short promo", "read more", false},
		{"too short", "Too short.", false},       // exactly 10 runes
		{"eleven runes", "Eleven char", true},    // 11 runes
		{"padded short", "   tiny    ", false},   // trimmed before counting
		{"cyrillic length", "Коротко тут", true}, // 11 runes, 21 bytes
		{"only link", "https://example.com/some/long/path", false},
		{"only markup", "<p></p><br/><div></div>", false},
		{"emoji only", "🔥🔥🔥🔥🔥🔥🔥🔥🔥🔥🔥🔥", false},
		{"dash rule", "—————————————", false},
		{"emoji with words", "🔥 Big agreement signed", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _ := Filter([]Item{{Raw: tt.raw, SourceID: "a"}}, testLexicon(), 10)
			if (len(got) == 1) != tt.keep {
				t.Errorf("Filter(%q) kept = %v, want %v", tt.raw, len(got) == 1, tt.keep)
			}
		})
	}
}

func TestFilter_SetsCleanText(t *testing.T) {
	got, _ := Filter([]Item{{Raw: "<b>Big</b> news &amp; more https://x.io"}}, testLexicon(), 5)
	if len(got) != 1 || got[0].Text != "Big news & more" {
		t.Fatalf("got %+v", got)
	}
	if got[0].Raw == got[0].Text {
		t.Error("raw text must be preserved")
	}
}

func TestDedup(t *testing.T) {
	long := "Long lead paragraph that repeats across channels and keeps going for a while "
	in := []Item{
		{Raw: "Hello World", SourceID: "a"},
		{Raw: "  hello world  ", SourceID: "b"},
		{Raw: long + "with ending one", SourceID: "a"},
		{Raw: long + "with ending two", SourceID: "c"},
		{Raw: "Different", SourceID: "c"},
	}

	got := Dedup(in, 60)
	if want := []string{"a", "a", "c"}; !slices.Equal(sources(got), want) {
		t.Fatalf("sources = %v, want %v", sources(got), want)
	}
	if got[0].Raw != "Hello World" {
		t.Errorf("first occurrence must win, got %q", got[0].Raw)
	}
}

func TestDedup_Idempotent(t *testing.T) {
	in := items("a:one", "b:One", "a:two", "c:TWO", "b:three", "a:one")
	once := Dedup(in, 100)
	twice := Dedup(once, 100)
	if !slices.Equal(once, twice) {
		t.Errorf("dedup not idempotent: %v vs %v", once, twice)
	}
}

func TestDedupKey_RuneSafe(t *testing.T) {
	got := DedupKey("ПРИВЕТ мир", 6)
	if got != "привет" {
		t.Errorf("key = %q, want привет", got)
	}
}

func TestBalance_ABCScenario(t *testing.T) {
	in := items("a:1", "a:2", "a:3", "a:4", "a:5", "b:1", "c:1")

	got := Balance(in, 3, 1)
	if want := []string{"a", "b", "c"}; !slices.Equal(sources(got), want) {
		t.Errorf("target 3: sources = %v, want %v", sources(got), want)
	}

	// B and C cannot fill a fourth slot, so the fill pass takes a second A.
	got = Balance(in, 4, 1)
	if want := []string{"a", "a", "b", "c"}; !slices.Equal(sources(got), want) {
		t.Errorf("target 4: sources = %v, want %v", sources(got), want)
	}
	if got[1].Raw != "2" {
		t.Errorf("fill pass must take skipped items in order, got %q", got[1].Raw)
	}
}

func TestBalance_LoneSourceIgnoresCap(t *testing.T) {
	in := items("b:1", "a:1", "a:2", "a:3", "a:4")

	got := Balance(in, 4, 1)
	if want := []string{"b", "a", "a", "a"}; !slices.Equal(sources(got), want) {
		t.Errorf("sources = %v, want %v", sources(got), want)
	}
}

func TestBalance_CapProperty(t *testing.T) {
	var in []Item
	for i := range 10 {
		for _, src := range []string{"a", "b", "c"} {
			in = append(in, Item{Raw: fmt.Sprintf("%s%d", src, i), SourceID: src})
		}
	}

	// multiples of the source count fill in the capped pass alone
	for _, target := range []int{3, 6, 9, 12} {
		limit := PerSourceCap(in, target, 1)
		got := Balance(in, target, 1)
		if len(got) != target {
			t.Errorf("target %d: got %d items", target, len(got))
		}
		counts := make(map[string]int)
		for _, it := range got {
			counts[it.SourceID]++
		}
		for src, n := range counts {
			if n > limit {
				t.Errorf("target %d: source %s admitted %d > cap %d", target, src, n, limit)
			}
		}
	}
}

func TestBalance_OverrideNeedsOtherSourcesExhausted(t *testing.T) {
	// b2 is over the cap with nothing from a after it, but a2 was skipped.
	in := items("a:1", "a:2", "b:1", "b:2")
	got := Balance(in, 3, 1)
	if want := []string{"a", "a", "b"}; !slices.Equal(sources(got), want) {
		t.Errorf("sources = %v, want %v", sources(got), want)
	}
}

func TestBalance_KeepsInputOrder(t *testing.T) {
	in := items("a:1", "a:2", "a:3", "b:1", "b:2", "c:1")
	got := Balance(in, 6, 1)
	for i := range got {
		if got[i] != in[i] {
			t.Fatalf("item %d = %+v, want %+v", i, got[i], in[i])
		}
	}
}

func TestBalance_Edges(t *testing.T) {
	if got := Balance(nil, 8, 1); got != nil {
		t.Errorf("nil input = %v", got)
	}
	if got := Balance(items("a:1"), 0, 1); got != nil {
		t.Errorf("zero target = %v", got)
	}
	if got := Balance(items("a:1", "b:1"), 8, 1); len(got) != 2 {
		t.Errorf("fewer items than target = %d", len(got))
	}
}

func TestPerSourceCap(t *testing.T) {
	in := items("a:1", "b:1", "c:1")
	if got := PerSourceCap(in, 8, 1); got != 2 {
		t.Errorf("cap = %d, want 2", got)
	}
	if got := PerSourceCap(in, 2, 1); got != 1 {
		t.Errorf("cap = %d, want floor 1", got)
	}
	if got := PerSourceCap(in, 2, 3); got != 3 {
		t.Errorf("cap = %d, want floor 3", got)
	}
}
