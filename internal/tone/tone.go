package tone

import (
	"fmt"
	"math"
	"strings"
)

// Label values.
const (
	LabelDeveloping     = "Developing"
	LabelTense          = "Tense"
	LabelAdministrative = "Administrative"
	LabelBalanced       = "Balanced"
)

// Hit records one lexicon term found in a text and how often it occurred.
type Hit struct {
	Category Category
	Term     string
	Count    int
}

func (h Hit) String() string {
	return fmt.Sprintf("%s: %s x%d", h.Category, h.Term, h.Count)
}

// Scores holds per-category occurrence counts for one text.
type Scores struct {
	Development    int
	Tension        int
	Administrative int
	Hits           []Hit
}

// Score counts occurrences of every lexicon term in text.
func Score(text string, lex *Lexicon) Scores {
	lower := strings.ToLower(text)

	var s Scores
	for _, c := range Categories {
		for _, term := range lex.Terms(c) {
			if term == "" {
				continue
			}
			n := strings.Count(lower, term)
			if n == 0 {
				continue
			}
			s.Hits = append(s.Hits, Hit{Category: c, Term: term, Count: n})
			switch c {
			case Development:
				s.Development += n
			case Tension:
				s.Tension += n
			case Administrative:
				s.Administrative += n
			}
		}
	}
	return s
}

// Category returns the winning category. Ties and zero scores go to
// Administrative.
func (s Scores) Category() Category {
	switch {
	case s.Development > s.Tension && s.Development > s.Administrative:
		return Development
	case s.Tension > s.Development && s.Tension > s.Administrative:
		return Tension
	default:
		return Administrative
	}
}

// Classify returns the category of text under lex.
func Classify(text string, lex *Lexicon) Category {
	return Score(text, lex).Category()
}

// Tally counts classified items per category.
type Tally struct {
	Development    int `json:"development"`
	Tension        int `json:"tension"`
	Administrative int `json:"administrative"`
}

// Add counts one item of category c.
func (t *Tally) Add(c Category) {
	switch c {
	case Development:
		t.Development++
	case Tension:
		t.Tension++
	default:
		t.Administrative++
	}
}

// Total returns the number of classified items.
func (t Tally) Total() int {
	return t.Development + t.Tension + t.Administrative
}

// Score is (development*2 + administrative) / total * 5 rounded to one
// decimal, in [0, 10]. An empty tally scores 0.
func (t Tally) Score() float64 {
	total := t.Total()
	if total == 0 {
		return 0
	}
	raw := float64(t.Development*2+t.Administrative) / float64(total) * 5
	return math.Round(raw*10) / 10
}

// Label picks the category with the strictly highest count, or Balanced
// when the top count is shared.
func (t Tally) Label() string {
	switch {
	case t.Development > t.Tension && t.Development > t.Administrative:
		return LabelDeveloping
	case t.Tension > t.Development && t.Tension > t.Administrative:
		return LabelTense
	case t.Administrative > t.Development && t.Administrative > t.Tension:
		return LabelAdministrative
	default:
		return LabelBalanced
	}
}

// TallyTexts classifies every text and returns the resulting tally.
func TallyTexts(texts []string, lex *Lexicon) Tally {
	var t Tally
	for _, text := range texts {
		t.Add(Classify(text, lex))
	}
	return t
}
