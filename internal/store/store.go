// Package store holds ingested records per source, the source registry, and
// the monitoring set, and answers windowed freshness queries.
package store

import (
	"slices"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultAuthor labels records whose author is unknown.
const DefaultAuthor = "Channel"

// Source kinds.
const (
	KindChannel = "channel"
	KindGroup   = "group"
	KindFeed    = "feed"
)

// Record is one ingested post. Records are values and are never edited in
// place; a source's records are only superseded wholesale by ReplaceAll.
type Record struct {
	SourceID  string
	Text      string
	Author    string
	Timestamp string // raw, may be empty or malformed
	MessageID string
}

// Source is a monitorable origin.
type Source struct {
	ID     string
	Title  string
	Handle string
	Kind   string
}

// SourceInfo carries the mutable descriptive fields of a Source.
type SourceInfo struct {
	Title  string
	Handle string
	Kind   string
}

// Stats summarizes store contents.
type Stats struct {
	Sources   int
	Monitored int
	Records   int
}

// Store owns source_id -> records, source_id -> Source, and the monitoring
// set. All state lives for the lifetime of the process.
type Store struct {
	mu        sync.RWMutex
	records   map[string][]Record
	sources   map[string]Source
	monitored map[string]bool
	order     []string // first-seen order of source ids

	now    func() time.Time
	logger *zap.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source used by Window.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets the logger used for timestamp parse warnings.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		records:   make(map[string][]Record),
		sources:   make(map[string]Source),
		monitored: make(map[string]bool),
		now:       time.Now,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ingest appends rec to the source's sequence. There is no deduplication at
// ingest time.
func (s *Store) Ingest(sourceID string, rec Record) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.touch(sourceID)
	s.records[sourceID] = append(s.records[sourceID], normalize(sourceID, rec))
}

// ReplaceAll discards the source's prior records and installs recs in order.
func (s *Store) ReplaceAll(sourceID string, recs []Record) {
	fresh := make([]Record, 0, len(recs))
	for _, rec := range recs {
		fresh = append(fresh, normalize(sourceID, rec))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.touch(sourceID)
	s.records[sourceID] = fresh
}

// RegisterSource creates or updates a source entry. Monitoring state is not
// changed.
func (s *Store) RegisterSource(id string, info SourceInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.touch(id)
	src := s.sources[id]
	if title := strings.TrimSpace(info.Title); title != "" {
		src.Title = title
	}
	if info.Handle != "" {
		src.Handle = strings.TrimPrefix(strings.TrimSpace(info.Handle), "@")
	}
	if info.Kind != "" {
		src.Kind = info.Kind
	}
	s.sources[id] = src
}

// SetMonitored adds or removes id from the monitoring set. The source does
// not need to be registered or have records, and no Source entry is created
// for it; the membership takes effect once the id is registered or ingested.
func (s *Store) SetMonitored(id string, on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if on {
		s.monitored[id] = true
		return
	}
	delete(s.monitored, id)
}

// SetAllMonitored toggles monitoring for every known source.
func (s *Store) SetAllMonitored(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !on {
		clear(s.monitored)
		return
	}
	for _, id := range s.order {
		s.monitored[id] = true
	}
}

// IsMonitored reports whether id is in the monitoring set.
func (s *Store) IsMonitored(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.monitored[id]
}

// Source returns the source registered under id.
func (s *Store) Source(id string) (Source, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !slices.Contains(s.order, id) {
		return Source{}, false
	}
	return s.sources[id], true
}

// Sources returns every known source in first-seen order.
func (s *Store) Sources() []Source {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Source, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.sources[id])
	}
	return out
}

// Monitored returns monitored sources in first-seen order.
func (s *Store) Monitored() []Source {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Source
	for _, id := range s.order {
		if s.monitored[id] {
			out = append(out, s.sources[id])
		}
	}
	return out
}

// Records returns a copy of every record held for id.
func (s *Store) Records(id string) []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.records[id])
}

// Stats returns counts of known sources, known monitored sources, and records.
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Stats{Sources: len(s.order)}
	for _, id := range s.order {
		if s.monitored[id] {
			st.Monitored++
		}
	}
	for _, recs := range s.records {
		st.Records += len(recs)
	}
	return st
}

// touch records id in first-seen order and creates a default Source entry.
// Callers hold the write lock.
func (s *Store) touch(id string) {
	if _, ok := s.sources[id]; ok {
		return
	}
	s.sources[id] = Source{ID: id, Title: id, Kind: KindChannel}
	s.order = append(s.order, id)
}

func normalize(sourceID string, rec Record) Record {
	rec.SourceID = sourceID
	if strings.TrimSpace(rec.Author) == "" {
		rec.Author = DefaultAuthor
	}
	return rec
}
