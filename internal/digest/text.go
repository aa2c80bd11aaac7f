package digest

import (
	"fmt"
	"io"
)

// TimeLayout formats the digest timestamp.
const TimeLayout = "02.01.2006 15:04"

// TextRenderer writes a plain-text digest. The same text goes to chat
// messages and terminals, so it carries no ANSI escapes.
type TextRenderer struct{}

// NewText creates a text renderer.
func NewText() *TextRenderer {
	return &TextRenderer{}
}

// Render writes the digest to w.
func (*TextRenderer) Render(w io.Writer, d Digest) error {
	ew := &errWriter{w: w}

	ew.println(d.Title)
	ew.printf("%s · %s\n", d.GeneratedAt.Format(TimeLayout), formatWindow(d.WindowHours))
	ew.printf("Tone: %.1f/10 · %s\n", d.Score, d.Label)
	ew.printf("development %d, tension %d, administrative %d\n",
		d.Tally.Development, d.Tally.Tension, d.Tally.Administrative)
	ew.println("")

	for i, e := range d.Entries {
		ew.printf("%d. %s\n", i+1, e.Text)
		ew.printf("   %s\n\n", e.SourceTitle)
	}

	ew.printf("Sources: %d · Items: %d\n", d.Sources, d.Items)
	return ew.err
}

// errWriter keeps the first write error and skips later writes.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) printf(format string, args ...any) {
	if e.err != nil {
		return
	}
	_, e.err = fmt.Fprintf(e.w, format, args...)
}

func (e *errWriter) println(s string) {
	if e.err != nil {
		return
	}
	_, e.err = fmt.Fprintln(e.w, s)
}
