package source

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/ppiankov/chandigest/internal/store"
	"go.uber.org/zap"
)

const (
	telegramWebKind      = "channel"
	telegramWebUserAgent = "Mozilla/5.0 (compatible; chandigest/1.0; +https://github.com/ppiankov/chandigest)"
)

// TelegramWeb reads a public channel through its web preview at
// <base>/s/<handle>.
type TelegramWeb struct {
	client      *http.Client
	baseURL     string
	userAgent   string
	maxMessages int
	logger      *zap.Logger
}

// NewTelegramWeb creates a channel fetcher. baseURL is usually https://t.me.
func NewTelegramWeb(client *http.Client, baseURL, userAgent string, maxMessages int, logger *zap.Logger) *TelegramWeb {
	if client == nil {
		client = http.DefaultClient
	}
	if userAgent == "" {
		userAgent = telegramWebUserAgent
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TelegramWeb{
		client:      client,
		baseURL:     strings.TrimRight(baseURL, "/"),
		userAgent:   userAgent,
		maxMessages: maxMessages,
		logger:      logger,
	}
}

// Fetch scrapes the channel preview page for handle.
func (tw *TelegramWeb) Fetch(ctx context.Context, handle string) []store.Record {
	recs, err := tw.fetch(ctx, handle)
	return absorb(tw.logger, telegramWebKind, handle, recs, err)
}

func (tw *TelegramWeb) fetch(ctx context.Context, handle string) ([]store.Record, error) {
	handle = strings.TrimPrefix(strings.TrimSpace(handle), "@")
	if handle == "" {
		return nil, errors.New("empty channel handle")
	}

	pageURL := tw.baseURL + "/s/" + url.PathEscape(handle)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", tw.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	req.Header.Set("Accept-Language", "ru-RU,ru;q=0.8,en-US;q=0.5,en;q=0.3")

	resp, err := tw.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s returned %s", pageURL, resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}

	return newest(extractMessages(doc), tw.maxMessages), nil
}

// extractMessages reads every text message on a preview page. The page lists
// posts oldest first; the result is newest first. Posts without text (media
// only, service messages) are skipped.
func extractMessages(doc *goquery.Document) []store.Record {
	var recs []store.Record
	doc.Find("div.tgme_widget_message[data-post]").Each(func(_ int, msg *goquery.Selection) {
		body := msg.Find(".tgme_widget_message_text").First()
		if body.Length() == 0 {
			return
		}
		body.Find("br").ReplaceWithHtml("\n")
		text := strings.TrimSpace(body.Text())
		if text == "" {
			return
		}

		post, _ := msg.Attr("data-post")
		recs = append(recs, store.Record{
			Text:      text,
			Author:    strings.TrimSpace(msg.Find(".tgme_widget_message_from_author").First().Text()),
			Timestamp: msg.Find(".tgme_widget_message_date time").AttrOr("datetime", ""),
			MessageID: messageID(post),
		})
	})
	slices.Reverse(recs)
	return recs
}

// messageID extracts the numeric id from a data-post value like "rbc_news/123".
func messageID(post string) string {
	if i := strings.LastIndexByte(post, '/'); i >= 0 {
		return post[i+1:]
	}
	return post
}
