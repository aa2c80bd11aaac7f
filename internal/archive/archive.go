// Package archive keeps a sqlite history of composed digests.
package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned by Get when no digest matches.
var ErrNotFound = errors.New("digest not found")

// ErrAmbiguous is returned by Get when an id prefix matches several digests.
var ErrAmbiguous = errors.New("digest id prefix is ambiguous")

const (
	defaultListLimit = 20
	// fixed-width so stored timestamps sort lexically
	timeLayout = "2006-01-02T15:04:05.000000000Z"
)

var digestColumns = []string{
	"id", "created_at", "title", "window_hours", "format",
	"score", "label", "items", "sources", "delivered", "body",
}

// Entry is one archived digest.
type Entry struct {
	ID          string
	CreatedAt   time.Time
	Title       string
	WindowHours int
	Format      string
	Score       float64
	Label       string
	Items       int
	Sources     int
	Delivered   []string // publisher names that accepted the digest
	Body        string
}

// Archive is a sqlite-backed digest history.
type Archive struct {
	db  *sql.DB
	now func() time.Time
}

// Option configures an Archive.
type Option func(*Archive)

// WithClock overrides the time source used for new entries and pruning.
func WithClock(now func() time.Time) Option {
	return func(a *Archive) {
		if now != nil {
			a.now = now
		}
	}
}

// Open opens or creates the database at path and applies the schema.
func Open(path string, opts ...Option) (*Archive, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("path is required")
	}

	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err := migrate(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, err
	}

	a := &Archive{db: db, now: time.Now}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

func (a *Archive) Close() error {
	if a == nil || a.db == nil {
		return nil
	}
	return a.db.Close()
}

// Save stores e. A missing id or creation time is filled in.
func (a *Archive) Save(ctx context.Context, e Entry) (Entry, error) {
	if a == nil || a.db == nil {
		return Entry{}, errors.New("archive is not initialized")
	}
	if strings.TrimSpace(e.Body) == "" {
		return Entry{}, errors.New("body is required")
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = a.now()
	}
	if e.Delivered == nil {
		e.Delivered = []string{}
	}

	delivered, err := json.Marshal(e.Delivered)
	if err != nil {
		return Entry{}, fmt.Errorf("encode delivered: %w", err)
	}

	query, args, err := sq.Insert("digests").
		Columns(digestColumns...).
		Values(e.ID, formatTime(e.CreatedAt), e.Title, e.WindowHours, e.Format,
			e.Score, e.Label, e.Items, e.Sources, string(delivered), e.Body).
		ToSql()
	if err != nil {
		return Entry{}, fmt.Errorf("build insert: %w", err)
	}
	if _, err := a.db.ExecContext(ctx, query, args...); err != nil {
		return Entry{}, fmt.Errorf("insert digest: %w", err)
	}
	return e, nil
}

// List returns up to limit entries, newest first. limit <= 0 uses 20.
func (a *Archive) List(ctx context.Context, limit int) ([]Entry, error) {
	if a == nil || a.db == nil {
		return nil, errors.New("archive is not initialized")
	}
	if limit <= 0 {
		limit = defaultListLimit
	}

	query, args, err := sq.Select(digestColumns...).
		From("digests").
		OrderBy("created_at DESC", "id").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list: %w", err)
	}
	return a.query(ctx, query, args)
}

// Get returns the entry whose id equals or starts with id.
func (a *Archive) Get(ctx context.Context, id string) (Entry, error) {
	if a == nil || a.db == nil {
		return Entry{}, errors.New("archive is not initialized")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return Entry{}, ErrNotFound
	}

	query, args, err := sq.Select(digestColumns...).
		From("digests").
		Where(sq.Or{sq.Eq{"id": id}, sq.Like{"id": id + "%"}}).
		Limit(2).
		ToSql()
	if err != nil {
		return Entry{}, fmt.Errorf("build get: %w", err)
	}

	entries, err := a.query(ctx, query, args)
	if err != nil {
		return Entry{}, err
	}
	switch len(entries) {
	case 0:
		return Entry{}, ErrNotFound
	case 1:
		return entries[0], nil
	}
	for _, e := range entries {
		if e.ID == id {
			return e, nil
		}
	}
	return Entry{}, ErrAmbiguous
}

// PruneOld deletes entries older than retainDays. retainDays <= 0 keeps
// everything. Returns the number of entries removed.
func (a *Archive) PruneOld(ctx context.Context, retainDays int) (int64, error) {
	if a == nil || a.db == nil {
		return 0, errors.New("archive is not initialized")
	}
	if retainDays <= 0 {
		return 0, nil
	}

	cutoff := formatTime(a.now().AddDate(0, 0, -retainDays))
	query, args, err := sq.Delete("digests").Where(sq.Lt{"created_at": cutoff}).ToSql()
	if err != nil {
		return 0, fmt.Errorf("build prune: %w", err)
	}

	res, err := a.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("prune old digests: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

func (a *Archive) query(ctx context.Context, query string, args []any) ([]Entry, error) {
	rows, err := a.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query digests: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate digests: %w", err)
	}
	return entries, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(scanner rowScanner) (Entry, error) {
	var (
		e                    Entry
		createdAt, delivered string
	)
	if err := scanner.Scan(
		&e.ID,
		&createdAt,
		&e.Title,
		&e.WindowHours,
		&e.Format,
		&e.Score,
		&e.Label,
		&e.Items,
		&e.Sources,
		&delivered,
		&e.Body,
	); err != nil {
		return Entry{}, fmt.Errorf("scan digest: %w", err)
	}

	var err error
	e.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return Entry{}, fmt.Errorf("parse created_at: %w", err)
	}
	if err := json.Unmarshal([]byte(delivered), &e.Delivered); err != nil {
		return Entry{}, fmt.Errorf("decode delivered: %w", err)
	}
	return e, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(value string) (time.Time, error) {
	if ts, err := time.Parse(timeLayout, value); err == nil {
		return ts, nil
	}
	return time.Parse(time.RFC3339Nano, value)
}
