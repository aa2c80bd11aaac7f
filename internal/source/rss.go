package source

import (
	"context"
	"errors"
	"fmt"
	"html"
	"net"
	"net/http"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/ppiankov/chandigest/internal/store"
	"go.uber.org/zap"
)

const (
	rssKind       = "feed"
	rssUserAgent  = "Mozilla/5.0 (compatible; chandigest/1.0; +https://github.com/ppiankov/chandigest)"
	rssMaxRetries = 3
)

var (
	htmlTagRe    = regexp.MustCompile(`<[^>]*>`)
	whitespaceRe = regexp.MustCompile(`\s{3,}`)
)

// RSS fetches posts from RSS/Atom feeds.
type RSS struct {
	client      *http.Client
	maxMessages int
	logger      *zap.Logger
}

// NewRSS creates a feed fetcher. The client's transport is wrapped to send a
// User-Agent header.
func NewRSS(client *http.Client, userAgent string, maxMessages int, logger *zap.Logger) *RSS {
	if client == nil {
		client = &http.Client{}
	}
	if userAgent == "" {
		userAgent = rssUserAgent
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	base := client.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	wrapped := *client
	wrapped.Transport = &rssTransport{base: base, userAgent: userAgent}
	return &RSS{client: &wrapped, maxMessages: maxMessages, logger: logger}
}

// Fetch parses the feed at feedURL, retrying transient failures.
func (r *RSS) Fetch(ctx context.Context, feedURL string) []store.Record {
	recs, err := r.fetchWithRetry(ctx, feedURL)
	return absorb(r.logger, rssKind, feedURL, recs, err)
}

// rssTransport injects a User-Agent header into every request.
type rssTransport struct {
	base      http.RoundTripper
	userAgent string
}

func (t *rssTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("User-Agent", t.userAgent)
	return t.base.RoundTrip(req)
}

// rssSleepFunc is the function used for retry backoff delays.
// It defaults to time.Sleep but can be overridden in tests.
var rssSleepFunc = time.Sleep

func (r *RSS) fetchWithRetry(ctx context.Context, feedURL string) ([]store.Record, error) {
	var lastErr error
	for attempt := range rssMaxRetries {
		recs, err := r.fetchFeed(ctx, feedURL)
		if err == nil {
			return recs, nil
		}
		if !isRetryableError(err) || ctx.Err() != nil {
			return nil, err
		}
		lastErr = err
		if attempt < rssMaxRetries-1 {
			backoff := time.Duration(1<<uint(attempt)) * time.Second // 1s, 2s, 4s
			rssSleepFunc(backoff)
		}
	}
	return nil, lastErr
}

func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	var httpErr gofeed.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode >= 500 || httpErr.StatusCode == http.StatusTooManyRequests
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	s := err.Error()
	if strings.Contains(s, "timeout") || strings.Contains(s, "Timeout") {
		return true
	}
	return strings.Contains(s, "connection refused") || strings.Contains(s, "no such host")
}

func (r *RSS) fetchFeed(ctx context.Context, feedURL string) ([]store.Record, error) {
	fp := gofeed.NewParser()
	fp.Client = r.client
	feed, err := fp.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", feedURL, err)
	}
	return newest(recordsFromFeed(feed), r.maxMessages), nil
}

// recordsFromFeed converts feed items, newest first. Items without a date keep
// an empty timestamp and sort last.
func recordsFromFeed(feed *gofeed.Feed) []store.Record {
	type dated struct {
		rec store.Record
		at  time.Time
	}

	var items []dated
	for _, item := range feed.Items {
		text := itemText(item)
		if text == "" {
			continue
		}
		at := itemPublishedTime(item)
		rec := store.Record{
			Text:      text,
			Author:    itemAuthor(item),
			MessageID: itemID(item),
		}
		if !at.IsZero() {
			rec.Timestamp = at.Format(time.RFC3339)
		}
		items = append(items, dated{rec: rec, at: at})
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].at.After(items[j].at)
	})

	recs := make([]store.Record, len(items))
	for i, it := range items {
		recs[i] = it.rec
	}
	return recs
}

func itemPublishedTime(item *gofeed.Item) time.Time {
	if item.PublishedParsed != nil {
		return *item.PublishedParsed
	}
	if item.UpdatedParsed != nil {
		return *item.UpdatedParsed
	}
	return time.Time{}
}

func itemAuthor(item *gofeed.Item) string {
	if item.Author != nil && item.Author.Name != "" {
		return item.Author.Name
	}
	return ""
}

func itemID(item *gofeed.Item) string {
	if item.GUID != "" {
		return item.GUID
	}
	return item.Link
}

func itemText(item *gofeed.Item) string {
	raw := item.Content
	if raw == "" {
		raw = item.Description
	}

	text := stripHTML(raw)

	title := strings.TrimSpace(item.Title)
	if title == "" || strings.Contains(text, title) {
		return text
	}
	if text == "" {
		return title
	}
	// the title becomes the lead sentence
	if !strings.ContainsAny(title[len(title)-1:], ".!?") {
		title += "."
	}
	return title + " " + text
}

func stripHTML(s string) string {
	s = htmlTagRe.ReplaceAllString(s, " ")
	s = html.UnescapeString(s)
	s = whitespaceRe.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
