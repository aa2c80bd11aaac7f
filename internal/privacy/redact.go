// Package privacy masks personal data in fetched posts before they reach the
// store.
package privacy

import (
	"fmt"
	"regexp"

	"github.com/ppiankov/chandigest/internal/store"
)

const redactedPlaceholder = "[REDACTED]"

// DefaultPatterns mask e-mail addresses and international phone numbers.
var DefaultPatterns = []string{
	`[\w.+-]+@[\w-]+\.[\w.-]+`,
	`\+\d[\d\s()-]{8,}\d`,
}

// Compile compiles a list of regex pattern strings into compiled regexps.
// Returns an error if any pattern is invalid.
func Compile(patterns []string) ([]*regexp.Regexp, error) {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("compile redact pattern %q: %w", p, err)
		}
		compiled = append(compiled, re)
	}
	return compiled, nil
}

// Apply replaces all matches of the compiled patterns in text with [REDACTED].
func Apply(text string, patterns []*regexp.Regexp) string {
	for _, re := range patterns {
		text = re.ReplaceAllString(text, redactedPlaceholder)
	}
	return text
}

// Redactor masks record text and author names. A nil Redactor is a no-op.
type Redactor struct {
	patterns []*regexp.Regexp
}

// NewRedactor compiles patterns; an empty list selects DefaultPatterns.
func NewRedactor(patterns []string) (*Redactor, error) {
	if len(patterns) == 0 {
		patterns = DefaultPatterns
	}
	compiled, err := Compile(patterns)
	if err != nil {
		return nil, err
	}
	return &Redactor{patterns: compiled}, nil
}

// Records returns a copy of recs with text and author redacted.
func (r *Redactor) Records(recs []store.Record) []store.Record {
	if r == nil || len(recs) == 0 {
		return recs
	}
	out := make([]store.Record, len(recs))
	for i, rec := range recs {
		rec.Text = Apply(rec.Text, r.patterns)
		rec.Author = Apply(rec.Author, r.patterns)
		out[i] = rec
	}
	return out
}
