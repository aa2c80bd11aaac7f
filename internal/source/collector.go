package source

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/ppiankov/chandigest/internal/store"
	"go.uber.org/zap"
)

const (
	collectorKind    = "group"
	collectorTimeout = 2 * time.Minute
	maxLineLength    = 1 << 20 // 1 MiB per JSONL line
)

// CollectorConfig describes the external collector script.
type CollectorConfig struct {
	Script     string
	PythonPath string
	APIID      string
	APIHash    string
	SessionDir string
}

// Collector reads group chats through an external script that prints one
// JSON object per message.
type Collector struct {
	cfg         CollectorConfig
	maxMessages int
	logger      *zap.Logger
}

// NewCollector creates a group fetcher. The script path is required.
func NewCollector(cfg CollectorConfig, maxMessages int, logger *zap.Logger) (*Collector, error) {
	if strings.TrimSpace(cfg.Script) == "" {
		return nil, errors.New("collector: script path is required")
	}
	if cfg.PythonPath == "" {
		cfg.PythonPath = "python3"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Collector{cfg: cfg, maxMessages: maxMessages, logger: logger}, nil
}

// Fetch runs the collector for one chat handle.
func (c *Collector) Fetch(ctx context.Context, handle string) []store.Record {
	recs, err := c.fetch(ctx, handle)
	return absorb(c.logger, collectorKind, handle, recs, err)
}

func (c *Collector) fetch(ctx context.Context, handle string) ([]store.Record, error) {
	ctx, cancel := context.WithTimeout(ctx, collectorTimeout)
	defer cancel()

	args := []string{
		c.cfg.Script,
		"--api-id", c.cfg.APIID,
		"--api-hash", c.cfg.APIHash,
		"--session-dir", c.cfg.SessionDir,
		"--chat", strings.TrimPrefix(handle, "@"),
		"--limit", strconv.Itoa(c.maxMessages),
	}

	cmd := exec.CommandContext(ctx, c.cfg.PythonPath, args...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("collector: stdout pipe: %w", err)
	}

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return nil, fmt.Errorf("collector: %s not found: install Python 3 to read group sources", c.cfg.PythonPath)
		}
		return nil, fmt.Errorf("collector: start: %w", err)
	}

	recs, parseErr := parseJSONL(stdout)

	if err := cmd.Wait(); err != nil {
		errMsg := strings.TrimSpace(stderr.String())
		if errMsg != "" {
			return nil, fmt.Errorf("collector failed: %s", errMsg)
		}
		return nil, fmt.Errorf("collector failed: %w", err)
	}

	if parseErr != nil {
		return nil, fmt.Errorf("collector: parse output: %w", parseErr)
	}

	return newest(recs, c.maxMessages), nil
}

// collectorMessage is the JSONL schema emitted by the collector script.
type collectorMessage struct {
	MsgID  json.Number `json:"msg_id"`
	Date   string      `json:"date"`
	Text   string      `json:"text"`
	Author string      `json:"from_user"`
}

// parseJSONL reads JSONL from r, newest message first as the script emits
// them. Dates are passed through untouched; the store decides what it can
// parse.
func parseJSONL(r io.Reader) ([]store.Record, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, maxLineLength), maxLineLength)

	var recs []store.Record
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var msg collectorMessage
		if err := json.Unmarshal([]byte(line), &msg); err != nil {
			return nil, fmt.Errorf("line %d: invalid json: %w", lineNum, err)
		}
		if strings.TrimSpace(msg.Text) == "" {
			continue
		}

		recs = append(recs, store.Record{
			Text:      msg.Text,
			Author:    msg.Author,
			Timestamp: msg.Date,
			MessageID: msg.MsgID.String(),
		})
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read jsonl: %w", err)
	}

	return recs, nil
}
