package digest

import (
	"encoding/json"
	"io"
	"time"

	"github.com/ppiankov/chandigest/internal/tone"
)

type jsonDigest struct {
	Meta    jsonMeta    `json:"meta"`
	Tone    jsonTone    `json:"tone"`
	Entries []jsonEntry `json:"entries"`
}

type jsonMeta struct {
	Title       string `json:"title"`
	GeneratedAt string `json:"generated_at"`
	Window      string `json:"window"`
	WindowHours int    `json:"window_hours"`
	Sources     int    `json:"sources"`
	Items       int    `json:"items"`
	Noise       int    `json:"noise"`
	Duplicates  int    `json:"duplicates"`
}

type jsonTone struct {
	Score float64    `json:"score"`
	Label string     `json:"label"`
	Tally tone.Tally `json:"tally"`
}

type jsonEntry struct {
	Source      string `json:"source"`
	SourceTitle string `json:"source_title"`
	Text        string `json:"text"`
}

// JSONRenderer writes a digest as JSON.
type JSONRenderer struct{}

// NewJSON creates a JSON renderer.
func NewJSON() *JSONRenderer {
	return &JSONRenderer{}
}

// Render writes the digest as JSON to w.
func (f *JSONRenderer) Render(w io.Writer, d Digest) error {
	out := jsonDigest{
		Meta: jsonMeta{
			Title:       d.Title,
			GeneratedAt: d.GeneratedAt.Format(time.RFC3339),
			Window:      formatWindow(d.WindowHours),
			WindowHours: d.WindowHours,
			Sources:     d.Sources,
			Items:       d.Items,
			Noise:       d.Noise,
			Duplicates:  d.Duplicates,
		},
		Tone: jsonTone{
			Score: d.Score,
			Label: d.Label,
			Tally: d.Tally,
		},
		Entries: make([]jsonEntry, 0, len(d.Entries)),
	}
	for _, e := range d.Entries {
		out.Entries = append(out.Entries, jsonEntry{
			Source:      e.SourceID,
			SourceTitle: e.SourceTitle,
			Text:        e.Text,
		})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
