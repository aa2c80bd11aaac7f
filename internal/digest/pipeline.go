package digest

import (
	"strings"
	"unicode/utf8"

	"github.com/ppiankov/chandigest/internal/store"
	"github.com/ppiankov/chandigest/internal/summarize"
	"github.com/ppiankov/chandigest/internal/tone"
)

// Flatten turns a window into items, keeping batch order and the record order
// within each batch.
func Flatten(w store.Window) []Item {
	items := make([]Item, 0, w.Len())
	for _, b := range w.Batches {
		title := b.Source.Title
		if title == "" {
			title = b.Source.ID
		}
		for _, rec := range b.Records {
			items = append(items, Item{
				Raw:         rec.Text,
				SourceID:    b.Source.ID,
				SourceTitle: title,
			})
		}
	}
	return items
}

// Filter drops items carrying a noise marker, items whose trimmed raw text is
// not longer than minLength runes, and items that clean or shorten to nothing,
// such as emoji-only captions. Survivors get their cleaned Text set. The
// marker check runs first.
func Filter(items []Item, lex *tone.Lexicon, minLength int, steps ...summarize.Step) (kept []Item, dropped int) {
	for _, it := range items {
		if _, noisy := lex.NoiseMarker(it.Raw); noisy {
			dropped++
			continue
		}
		if utf8.RuneCountInString(strings.TrimSpace(it.Raw)) <= minLength {
			dropped++
			continue
		}
		it.Text = summarize.Clean(it.Raw, steps...)
		if it.Text == "" || summarize.Shorten(it.Text) == "" {
			dropped++
			continue
		}
		kept = append(kept, it)
	}
	return kept, dropped
}

// DedupKey is the lowercase of the first prefix runes of the trimmed raw text.
func DedupKey(raw string, prefix int) string {
	s := strings.TrimSpace(raw)
	if prefix > 0 && utf8.RuneCountInString(s) > prefix {
		s = string([]rune(s)[:prefix])
	}
	return strings.ToLower(s)
}

// Dedup keeps the first item for every key. Running it on its own output is a
// no-op.
func Dedup(items []Item, prefix int) []Item {
	seen := make(map[string]bool, len(items))
	out := make([]Item, 0, len(items))
	for _, it := range items {
		key := DedupKey(it.Raw, prefix)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, it)
	}
	return out
}

// PerSourceCap is max(floor, target / distinct sources).
func PerSourceCap(items []Item, target, floor int) int {
	distinct := countSources(items)
	if distinct == 0 {
		return floor
	}
	return max(floor, target/distinct)
}

// Balance selects up to target items so no source dominates.
//
// The capped pass walks items in order and admits an item while its source is
// under the cap. An item over the cap is still admitted when every other
// source is exhausted: no later item and no skipped item belongs to another
// source.
// If the capped pass comes up short, a fill pass admits skipped items in
// order. The result keeps the input order.
func Balance(items []Item, target, floor int) []Item {
	if target <= 0 || len(items) == 0 {
		return nil
	}

	limit := PerSourceCap(items, target, floor)
	otherLater := laterOtherSource(items)

	admitted := make([]bool, len(items))
	counts := make(map[string]int)
	skippedBy := make(map[string]int)
	var skipped []int
	n := 0

	for i, it := range items {
		if n >= target {
			break
		}
		exhausted := !otherLater[i] && len(skipped) == skippedBy[it.SourceID]
		if counts[it.SourceID] < limit || exhausted {
			admitted[i] = true
			counts[it.SourceID]++
			n++
			continue
		}
		skipped = append(skipped, i)
		skippedBy[it.SourceID]++
	}

	for _, i := range skipped {
		if n >= target {
			break
		}
		admitted[i] = true
		n++
	}

	out := make([]Item, 0, n)
	for i, it := range items {
		if admitted[i] {
			out = append(out, it)
		}
	}
	return out
}

// laterOtherSource reports, per index, whether any later item comes from a
// different source.
func laterOtherSource(items []Item) []bool {
	out := make([]bool, len(items))
	suffix := make(map[string]int)
	for i := len(items) - 1; i >= 0; i-- {
		src := items[i].SourceID
		out[i] = len(suffix) > 1 || (len(suffix) == 1 && suffix[src] == 0)
		suffix[src]++
	}
	return out
}

func countSources(items []Item) int {
	seen := make(map[string]bool)
	for _, it := range items {
		seen[it.SourceID] = true
	}
	return len(seen)
}
