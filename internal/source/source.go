// Package source fetches posts from public Telegram channels, RSS/Atom feeds
// and an external collector script, and hands them to the store as records.
package source

import (
	"context"

	"github.com/ppiankov/chandigest/internal/store"
	"go.uber.org/zap"
)

// Fetcher returns the newest posts for target, newest first. target is a
// channel handle or a feed URL depending on the fetcher. Fetch never fails:
// errors are logged and yield an empty result.
type Fetcher interface {
	Fetch(ctx context.Context, target string) []store.Record
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, target string) []store.Record

func (f FetcherFunc) Fetch(ctx context.Context, target string) []store.Record {
	return f(ctx, target)
}

// absorb logs err and drops the partial result so callers see either records
// or nothing.
func absorb(logger *zap.Logger, kind, target string, recs []store.Record, err error) []store.Record {
	if err != nil {
		logger.Warn("fetch failed",
			zap.String("kind", kind),
			zap.String("target", target),
			zap.Error(err),
		)
		return nil
	}
	logger.Debug("fetched",
		zap.String("kind", kind),
		zap.String("target", target),
		zap.Int("records", len(recs)),
	)
	return recs
}

// newest keeps at most n records from a newest-first slice.
func newest(recs []store.Record, n int) []store.Record {
	if n > 0 && len(recs) > n {
		return recs[:n]
	}
	return recs
}
