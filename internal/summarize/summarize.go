package summarize

// Summarizer reduces post text to a single retained sentence or clause.
// An empty result means the text has nothing worth keeping.
type Summarizer interface {
	Summarize(text string) string
}
