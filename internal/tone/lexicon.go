// Package tone classifies post text against keyword lexicons and derives the
// digest tone score.
package tone

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// LexiconVersion is the version of DefaultLexicon.
const LexiconVersion = 1

// Category is one of the three classification buckets.
type Category string

const (
	Development    Category = "development"
	Tension        Category = "tension"
	Administrative Category = "administrative"
)

// Categories lists the buckets in reporting order.
var Categories = []Category{Development, Tension, Administrative}

// Lexicon maps each category to the terms counted for it, plus the noise
// markers that drop an item from the digest entirely. Terms are matched as
// lowercase substrings, so stems cover inflected forms.
type Lexicon struct {
	Version        int      `yaml:"version" json:"version"`
	Development    []string `yaml:"development" json:"development"`
	Tension        []string `yaml:"tension" json:"tension"`
	Administrative []string `yaml:"administrative" json:"administrative"`
	Noise          []string `yaml:"noise" json:"noise"`
}

// Terms returns the term list for c.
func (l *Lexicon) Terms(c Category) []string {
	switch c {
	case Development:
		return l.Development
	case Tension:
		return l.Tension
	case Administrative:
		return l.Administrative
	}
	return nil
}

// Normalize lowercases and trims every term and drops blanks and repeats.
func (l *Lexicon) Normalize() {
	l.Development = normalizeTerms(l.Development)
	l.Tension = normalizeTerms(l.Tension)
	l.Administrative = normalizeTerms(l.Administrative)
	l.Noise = normalizeTerms(l.Noise)
}

// Validate reports whether the lexicon can classify anything.
func (l *Lexicon) Validate() error {
	if l.Version < 1 {
		return fmt.Errorf("version must be >= 1, got %d", l.Version)
	}
	for _, c := range Categories {
		if len(l.Terms(c)) == 0 {
			return fmt.Errorf("category %q has no terms", c)
		}
	}
	if slices.Contains(l.Noise, "") {
		return errors.New("noise markers must not be empty")
	}
	return nil
}

// NoiseMarker returns the first noise marker contained in text.
func (l *Lexicon) NoiseMarker(text string) (string, bool) {
	lower := strings.ToLower(text)
	for _, m := range l.Noise {
		if m != "" && strings.Contains(lower, m) {
			return m, true
		}
	}
	return "", false
}

func normalizeTerms(terms []string) []string {
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || slices.Contains(out, t) {
			continue
		}
		out = append(out, t)
	}
	return out
}

// DefaultLexicon returns a fresh copy of the built-in lexicon. It targets
// Russian-language news channels and carries English equivalents.
func DefaultLexicon() *Lexicon {
	return &Lexicon{
		Version: LexiconVersion,
		Development: []string{
			"сотрудничеств", "соглашени", "договорил", "партнерств", "партнёрств",
			"инвестиц", "развити", "открыти", "запуск", "модернизац",
			"подписали", "строительств", "поддержк", "переговор",
			"cooperation", "agreement", "partnership", "investment",
			"development", "launch", "growth", "signed",
		},
		Tension: []string{
			"конфликт", "обстрел", "удар", "атак", "санкци", "угроз",
			"протест", "кризис", "напряж", "эскалац", "взрыв", "погиб",
			"задержан", "арест",
			"conflict", "attack", "strike", "sanction", "threat", "protest",
			"crisis", "tension", "escalat", "explosion", "killed", "arrest",
		},
		Administrative: []string{
			"заседани", "совещани", "постановлени", "указом", "законопроект",
			"назначен", "министр", "правительств", "ведомств", "комисси",
			"регламент", "отчет", "отчёт",
			"meeting", "decree", "appointed", "minister", "ministry",
			"government", "commission", "regulation", "report",
		},
		Noise: []string{
			"подпишитесь", "подписывайтесь", "подписаться", "читайте также",
			"читать далее", "подробнее на", "источник:", "реклама", "erid",
			"передает корреспондент", "сообщает риа новости", "/тасс/",
			"subscribe to", "read more", "source:", "sponsored", "advertisement",
			"reporting by",
		},
	}
}
