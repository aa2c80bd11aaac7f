package summarize

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// ShortWords is the word count at or below which text is kept whole.
	ShortWords = 15
	// SentenceWords caps the first sentence when it is used as the result.
	SentenceWords = 20
	// MinClauseTokens is the earliest token count at which a clause may end.
	MinClauseTokens = 8
	// FallbackTokens is the hard cut when no better boundary exists.
	FallbackTokens = 12
)

// clauseSuffixes mark tokens that plausibly end a clause: finite verb and
// verbal-noun endings in Russian, and their common English counterparts.
var clauseSuffixes = []string{
	"ться", "тся", "лся", "лась", "лись",
	"ал", "ял", "ил", "ел", "ла", "ли", "ло",
	"ет", "ит", "ут", "ют", "ат", "ят",
	"ние", "ния", "ция", "ции", "ство", "ости", "ость",
	"ed", "ing", "tion", "sion", "ment", "ness",
}

// Shortener is the extractive Summarizer used by the digest composer.
type Shortener struct {
	Steps []Step // cleaning steps; nil means DefaultSteps
}

// Summarize cleans text and shortens it. See Shorten.
func (s *Shortener) Summarize(text string) string {
	return Shorten(Clean(text, s.Steps...))
}

// Shorten reduces text to a single sentence or clause:
//
//	up to ShortWords words: the whole text
//	a first sentence of up to SentenceWords words: that sentence
//	a clause-ending token after MinClauseTokens: text up to it
//	otherwise: the first FallbackTokens tokens
//
// The result ends in terminal punctuation or is empty. Shorten never panics.
func Shorten(text string) string {
	text = StripURLs(text)
	tokens := strings.Fields(text)
	if len(tokens) == 0 {
		return ""
	}

	if len(tokens) <= ShortWords {
		return terminate(tokens)
	}

	if first := strings.Fields(firstSentence(text)); len(first) > 0 && len(first) <= SentenceWords {
		return terminate(first)
	}

	for i := MinClauseTokens - 1; i < len(tokens) && i < SentenceWords-1; i++ {
		if isClauseBoundary(tokens[i]) {
			return terminate(tokens[:i+1])
		}
	}

	return terminate(tokens[:min(FallbackTokens, len(tokens))])
}

// firstSentence returns text up to and including the first sentence-ending
// punctuation run that is followed by whitespace or the end of text.
func firstSentence(text string) string {
	for i, r := range text {
		if !isTerminal(r) {
			continue
		}
		end := i + utf8.RuneLen(r)
		for end < len(text) {
			next, size := utf8.DecodeRuneInString(text[end:])
			if !isTerminal(next) {
				break
			}
			end += size
		}
		if end == len(text) {
			return text
		}
		if next, _ := utf8.DecodeRuneInString(text[end:]); unicode.IsSpace(next) {
			return text[:end]
		}
	}
	return text
}

func isClauseBoundary(token string) bool {
	word := strings.ToLower(strings.TrimFunc(token, unicode.IsPunct))
	if word == "" {
		return false
	}
	if strings.IndexFunc(word, func(r rune) bool { return !unicode.IsDigit(r) }) < 0 {
		return true
	}
	n := utf8.RuneCountInString(word)
	for _, suffix := range clauseSuffixes {
		if strings.HasSuffix(word, suffix) && n > utf8.RuneCountInString(suffix)+1 {
			return true
		}
	}
	return false
}

func isTerminal(r rune) bool {
	return r == '.' || r == '!' || r == '?' || r == '…'
}

// terminate joins tokens and makes sure the result ends a sentence. Dangling
// separators are dropped first; text with nothing else left becomes empty.
func terminate(tokens []string) string {
	out := strings.Join(tokens, " ")
	out = strings.TrimRightFunc(out, func(r rune) bool {
		return unicode.IsSpace(r) || strings.ContainsRune(",;:-–—(«\"'", r)
	})
	if out == "" {
		return ""
	}
	last, _ := utf8.DecodeLastRuneInString(out)
	if isTerminal(last) {
		return out
	}
	if strings.IndexFunc(out, func(r rune) bool { return unicode.IsLetter(r) || unicode.IsDigit(r) }) < 0 {
		return ""
	}
	return out + "."
}
