package digest

import (
	"bytes"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ppiankov/chandigest/internal/store"
	"github.com/ppiankov/chandigest/internal/summarize"
	"github.com/ppiankov/chandigest/internal/tone"
	"go.uber.org/zap"
)

// Composer defaults.
const (
	DefaultTitle          = "What's happening"
	DefaultTargetCount    = 8
	DefaultPerSourceFloor = 1
	DefaultDedupPrefix    = 100
	DefaultMinLength      = 10
)

// Options tunes the composer. Zero values take the defaults.
type Options struct {
	Title          string
	TargetCount    int
	PerSourceFloor int
	DedupPrefix    int // runes
	MinLength      int // raw text must be longer, in runes; negative disables
	Format         string
	Location       *time.Location
	Now            func() time.Time
	Steps          []summarize.Step
	Logger         *zap.Logger
}

func (o *Options) applyDefaults() {
	if o.Title == "" {
		o.Title = DefaultTitle
	}
	if o.TargetCount <= 0 {
		o.TargetCount = DefaultTargetCount
	}
	if o.PerSourceFloor <= 0 {
		o.PerSourceFloor = DefaultPerSourceFloor
	}
	if o.DedupPrefix <= 0 {
		o.DedupPrefix = DefaultDedupPrefix
	}
	if o.MinLength == 0 {
		o.MinLength = DefaultMinLength
	}
	if o.Location == nil {
		o.Location = time.Local
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
}

// Composer runs the digest pipeline. It holds no mutable state and is safe
// for concurrent use.
type Composer struct {
	opts       Options
	lex        *tone.Lexicon
	summarizer summarize.Summarizer
	renderer   Renderer
}

// NewComposer validates opts and builds a composer. A nil lexicon selects
// tone.DefaultLexicon.
func NewComposer(opts Options, lex *tone.Lexicon) (*Composer, error) {
	opts.applyDefaults()
	if lex == nil {
		lex = tone.DefaultLexicon()
	}
	r, err := NewRenderer(opts.Format)
	if err != nil {
		return nil, err
	}
	return &Composer{
		opts:       opts,
		lex:        lex,
		summarizer: &summarize.Shortener{Steps: opts.Steps},
		renderer:   r,
	}, nil
}

// Compose renders the digest for w with the configured renderer. It always
// returns a non-empty string; NothingToSummarize when there is nothing to say.
func (c *Composer) Compose(w store.Window) string {
	d, ok := c.Build(w)
	if !ok {
		return NothingToSummarize
	}
	return c.Text(d)
}

// Text renders a built digest with the configured renderer, falling back to
// plain text when that renderer fails.
func (c *Composer) Text(d Digest) string {
	out, err := c.Render(d, c.renderer)
	if err != nil {
		c.opts.Logger.Warn("render digest, falling back to text", zap.Error(err))
		out, _ = c.Render(d, NewText())
	}
	return out
}

// Render writes d with r into a string.
func (c *Composer) Render(d Digest, r Renderer) (string, error) {
	var buf bytes.Buffer
	if err := r.Render(&buf, d); err != nil {
		return "", err
	}
	if buf.Len() == 0 {
		return "", errors.New("renderer produced no output")
	}
	return buf.String(), nil
}

// Build runs the six pipeline stages. ok is false when no item survives.
func (c *Composer) Build(w store.Window) (d Digest, ok bool) {
	items := Flatten(w)

	kept, dropped := Filter(items, c.lex, c.opts.MinLength, c.opts.Steps...)
	unique := Dedup(kept, c.opts.DedupPrefix)

	texts := make([]string, len(unique))
	for i, it := range unique {
		texts[i] = it.Text
	}
	tally := tone.TallyTexts(texts, c.lex)

	selected := Balance(unique, c.opts.TargetCount, c.opts.PerSourceFloor)

	entries := make([]Entry, 0, len(selected))
	for _, it := range selected {
		text := c.summarizer.Summarize(it.Text)
		if text == "" {
			continue
		}
		entries = append(entries, Entry{Text: text, SourceID: it.SourceID, SourceTitle: it.SourceTitle})
	}

	c.opts.Logger.Debug("digest pipeline",
		zap.Int("flattened", len(items)),
		zap.Int("filtered", dropped),
		zap.Int("unique", len(unique)),
		zap.Int("selected", len(selected)),
		zap.Int("entries", len(entries)),
	)

	if len(entries) == 0 {
		return Digest{}, false
	}

	return Digest{
		Title:       c.opts.Title,
		GeneratedAt: c.opts.Now().In(c.opts.Location),
		WindowHours: w.Hours,
		Tally:       tally,
		Score:       tally.Score(),
		Label:       tally.Label(),
		Entries:     entries,
		Sources:     countSources(items),
		Items:       len(items),
		Noise:       dropped,
		Duplicates:  len(kept) - len(unique),
	}, true
}

// Explanation traces one text through the per-item stages.
type Explanation struct {
	NoiseMarker string
	TooShort    bool
	Cleaned     string
	Shortened   string
	Scores      tone.Scores
	Category    tone.Category
	DedupKey    string
}

// Dropped reports whether the text would be filtered out.
func (e Explanation) Dropped() bool {
	return e.NoiseMarker != "" || e.TooShort || e.Cleaned == "" || e.Shortened == ""
}

// Explain shows how the composer treats a single text.
func (c *Composer) Explain(text string) Explanation {
	var e Explanation
	e.NoiseMarker, _ = c.lex.NoiseMarker(text)
	e.TooShort = utf8.RuneCountInString(strings.TrimSpace(text)) <= c.opts.MinLength
	e.Cleaned = summarize.Clean(text, c.opts.Steps...)
	e.Shortened = c.summarizer.Summarize(e.Cleaned)
	e.Scores = tone.Score(e.Cleaned, c.lex)
	e.Category = e.Scores.Category()
	e.DedupKey = DedupKey(text, c.opts.DedupPrefix)
	return e
}
