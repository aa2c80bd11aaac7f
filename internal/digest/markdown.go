package digest

import (
	"io"
	"strings"
)

// MarkdownRenderer writes a digest as Markdown.
type MarkdownRenderer struct{}

// NewMarkdown creates a Markdown renderer.
func NewMarkdown() *MarkdownRenderer {
	return &MarkdownRenderer{}
}

// Render writes the digest as Markdown to w.
func (f *MarkdownRenderer) Render(w io.Writer, d Digest) error {
	ew := &errWriter{w: w}

	ew.printf("# %s\n\n", d.Title)
	ew.printf("_%s, %s_\n\n", d.GeneratedAt.Format(TimeLayout), formatWindow(d.WindowHours))
	ew.printf("**Tone:** %.1f/10 (%s)\n\n", d.Score, d.Label)
	ew.println("| Development | Tension | Administrative |")
	ew.println("|---|---|---|")
	ew.printf("| %d | %d | %d |\n\n", d.Tally.Development, d.Tally.Tension, d.Tally.Administrative)

	for i, e := range d.Entries {
		ew.printf("%d. %s *(%s)*\n", i+1, escapeMarkdown(e.Text), escapeMarkdown(e.SourceTitle))
	}
	ew.println("")

	ew.printf("---\nSources: %d · Items: %d\n", d.Sources, d.Items)
	return ew.err
}

var markdownEscaper = strings.NewReplacer(
	`\`, `\\`,
	"*", `\*`,
	"_", `\_`,
	"`", "\\`",
	"[", `\[`,
	"]", `\]`,
)

func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}
