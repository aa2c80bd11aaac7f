// Package summarize cleans raw post text and shortens it to one extractive
// sentence or clause.
package summarize

import (
	"html"
	"regexp"
	"strings"
)

var (
	htmlTagRe    = regexp.MustCompile(`<[^>]*>`)
	urlRe        = regexp.MustCompile(`https?://\S+`)
	wwwRe        = regexp.MustCompile(`(?i)\bwww\.\S+`)
	tmeRe        = regexp.MustCompile(`(?i)\bt\.me/\S+`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// Step is one pure text transform. Steps never fail; bad input degrades to
// an empty or shorter string.
type Step func(string) string

// DefaultSteps is the cleaning order applied before shortening.
var DefaultSteps = []Step{
	StripTags,
	UnescapeEntities,
	StripURLs,
	CollapseSpace,
}

// Clean applies steps in order. With no steps it uses DefaultSteps.
func Clean(text string, steps ...Step) string {
	if len(steps) == 0 {
		steps = DefaultSteps
	}
	for _, step := range steps {
		text = step(text)
	}
	return text
}

// StripTags replaces markup tags with spaces.
func StripTags(s string) string {
	return htmlTagRe.ReplaceAllString(s, " ")
}

// UnescapeEntities decodes HTML entities such as &amp; and &nbsp;.
func UnescapeEntities(s string) string {
	s = html.UnescapeString(s)
	return strings.ReplaceAll(s, "\u00a0", " ")
}

// StripURLs removes bare links, www-prefixed hosts and t.me links.
func StripURLs(s string) string {
	s = urlRe.ReplaceAllString(s, "")
	s = wwwRe.ReplaceAllString(s, "")
	return tmeRe.ReplaceAllString(s, "")
}

// CollapseSpace folds whitespace runs into single spaces and trims.
func CollapseSpace(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}
