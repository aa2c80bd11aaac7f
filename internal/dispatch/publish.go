package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
	"unicode/utf8"
)

// MaxMessageRunes is the Bot API limit for one message.
const MaxMessageRunes = 4096

// Publisher delivers a rendered digest somewhere.
type Publisher interface {
	Name() string
	Publish(ctx context.Context, text string) error
}

// Stdout writes digests to a writer, os.Stdout by default.
type Stdout struct {
	w io.Writer
}

// NewStdout creates a writer publisher. A nil writer means os.Stdout.
func NewStdout(w io.Writer) *Stdout {
	if w == nil {
		w = os.Stdout
	}
	return &Stdout{w: w}
}

func (p *Stdout) Name() string { return "stdout" }

func (p *Stdout) Publish(_ context.Context, text string) error {
	if !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	_, err := io.WriteString(p.w, text)
	return err
}

// Telegram sends digests to a chat through the Bot API sendMessage method.
type Telegram struct {
	apiURL   string
	botToken string
	chatID   string
	client   *http.Client
}

// NewTelegram registers the bot token and chat identifier.
func NewTelegram(apiURL, botToken, chatID string, client *http.Client) (*Telegram, error) {
	if botToken == "" || chatID == "" {
		return nil, errors.New("telegram delivery: bot token and chat id are required")
	}
	if apiURL == "" {
		apiURL = "https://api.telegram.org"
	}
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Telegram{
		apiURL:   strings.TrimRight(apiURL, "/"),
		botToken: botToken,
		chatID:   chatID,
		client:   client,
	}, nil
}

func (t *Telegram) Name() string { return "telegram" }

// Publish posts text, split into as many messages as the size limit needs.
func (t *Telegram) Publish(ctx context.Context, text string) error {
	for i, part := range SplitMessage(text, MaxMessageRunes) {
		if err := t.send(ctx, part); err != nil {
			return fmt.Errorf("send part %d: %w", i+1, err)
		}
	}
	return nil
}

type botResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

func (t *Telegram) send(ctx context.Context, text string) error {
	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", t.apiURL, t.botToken)
	form := url.Values{}
	form.Set("chat_id", t.chatID)
	form.Set("text", text)
	form.Set("disable_web_page_preview", "true")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := t.client.Do(req)
	if err != nil {
		// the request URL carries the token
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	var body botResponse
	_ = json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&body)

	if resp.StatusCode != http.StatusOK || !body.OK {
		if body.Description != "" {
			return fmt.Errorf("telegram error: %s: %s", resp.Status, body.Description)
		}
		return fmt.Errorf("telegram error: %s", resp.Status)
	}
	return nil
}

// SplitMessage cuts text into parts of at most limit runes, breaking on line
// boundaries when possible. Lines longer than limit are hard-cut.
func SplitMessage(text string, limit int) []string {
	text = strings.TrimRight(text, "\n")
	if limit <= 0 || utf8.RuneCountInString(text) <= limit {
		return []string{text}
	}

	var (
		parts []string
		cur   strings.Builder
		n     int
	)
	flush := func() {
		if part := strings.TrimRight(cur.String(), "\n"); part != "" {
			parts = append(parts, part)
		}
		cur.Reset()
		n = 0
	}

	for _, line := range strings.SplitAfter(text, "\n") {
		ln := utf8.RuneCountInString(line)
		if n+ln > limit {
			flush()
		}
		for ln > limit {
			head, tail := splitRunes(line, limit)
			parts = append(parts, head)
			line, ln = tail, ln-limit
		}
		cur.WriteString(line)
		n += ln
	}
	flush()
	return parts
}

func splitRunes(s string, n int) (string, string) {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos], s[pos:]
		}
		i++
	}
	return s, ""
}
