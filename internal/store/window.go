package store

import (
	"strings"
	"time"

	"go.uber.org/zap"
)

// Batch is the fresh records of one monitored source.
type Batch struct {
	Source  Source
	Records []Record
}

// Window is the result of a windowed query. Batches follow the store's
// first-seen source order; sources without qualifying records are absent.
type Window struct {
	Hours   int
	Batches []Batch
}

// Empty reports whether the window holds no records.
func (w Window) Empty() bool {
	return len(w.Batches) == 0
}

// Len returns the total number of records across batches.
func (w Window) Len() int {
	n := 0
	for _, b := range w.Batches {
		n += len(b.Records)
	}
	return n
}

// ByID returns the window keyed by source id.
func (w Window) ByID() map[string][]Record {
	out := make(map[string][]Record, len(w.Batches))
	for _, b := range w.Batches {
		out[b.Source.ID] = b.Records
	}
	return out
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTimestamp parses a raw record timestamp. Layouts without a zone are
// read in local time.
func ParseTimestamp(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if ts, err := time.ParseInLocation(layout, raw, time.Local); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

// Window returns, for every monitored source, the records newer than
// now-hours. hours <= 0 disables the cutoff. Records whose timestamp cannot
// be parsed are included.
func (s *Store) Window(hours int) Window {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var cutoff time.Time
	if hours > 0 {
		cutoff = s.now().Add(-time.Duration(hours) * time.Hour)
	}

	w := Window{Hours: hours}
	for _, id := range s.order {
		if !s.monitored[id] {
			continue
		}

		var fresh []Record
		for _, rec := range s.records[id] {
			if cutoff.IsZero() {
				fresh = append(fresh, rec)
				continue
			}
			ts, ok := ParseTimestamp(rec.Timestamp)
			if !ok {
				s.logger.Warn("unparsable record timestamp, including record",
					zap.String("source", id),
					zap.String("timestamp", rec.Timestamp),
				)
				fresh = append(fresh, rec)
				continue
			}
			if ts.After(cutoff) {
				fresh = append(fresh, rec)
			}
		}

		if len(fresh) > 0 {
			w.Batches = append(w.Batches, Batch{Source: s.sources[id], Records: fresh})
		}
	}
	return w
}
