// Package digest turns a store window into a short, balanced, scored digest.
package digest

import (
	"fmt"
	"io"
	"time"

	"github.com/ppiankov/chandigest/internal/tone"
)

// NothingToSummarize is returned by Compose when the window yields no usable
// items. It is a user-facing message, not an error.
const NothingToSummarize = "Nothing to summarize yet. Try collecting messages first."

// Item is one flattened record tagged with its source. Raw is the text as
// stored; Text is the cleaned form once the item has passed filtering.
type Item struct {
	Raw         string
	Text        string
	SourceID    string
	SourceTitle string
}

// Entry is one line of the finished digest.
type Entry struct {
	Text        string
	SourceID    string
	SourceTitle string
}

// Digest is the structured result handed to renderers.
type Digest struct {
	Title       string
	GeneratedAt time.Time
	WindowHours int // 0 means unbounded

	Tally tone.Tally
	Score float64
	Label string

	Entries []Entry

	Sources    int // distinct sources among flattened items
	Items      int // flattened items before filtering
	Noise      int // dropped by noise markers or length
	Duplicates int
}

// Renderer writes a digest to w.
type Renderer interface {
	Render(w io.Writer, d Digest) error
}

// NewRenderer returns the renderer registered under format.
func NewRenderer(format string) (Renderer, error) {
	switch format {
	case "", "text":
		return NewText(), nil
	case "markdown":
		return NewMarkdown(), nil
	case "json":
		return NewJSON(), nil
	}
	return nil, fmt.Errorf("unknown digest format %q", format)
}

func formatWindow(hours int) string {
	switch {
	case hours <= 0:
		return "all time"
	case hours >= 24 && hours%24 == 0:
		return fmt.Sprintf("last %dd", hours/24)
	default:
		return fmt.Sprintf("last %dh", hours)
	}
}
