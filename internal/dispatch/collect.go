// Package dispatch wires fetchers, the store, the composer and publishers
// into collect and digest cycles.
package dispatch

import (
	"context"

	"github.com/ppiankov/chandigest/internal/config"
	"github.com/ppiankov/chandigest/internal/privacy"
	"github.com/ppiankov/chandigest/internal/source"
	"github.com/ppiankov/chandigest/internal/store"
	"go.uber.org/zap"
)

// Register installs configured sources into st and applies their initial
// monitoring flag. Feed sources keep their URL as handle so the collector can
// address them.
func Register(st *store.Store, sources []config.SourceConfig) {
	for _, src := range sources {
		st.RegisterSource(src.ID, store.SourceInfo{
			Title:  src.Title,
			Handle: src.Target(),
			Kind:   src.Kind,
		})
		st.SetMonitored(src.ID, src.Monitored())
	}
}

// CollectReport summarizes one collect cycle.
type CollectReport struct {
	Sources int      // monitored sources attempted
	Updated int      // sources whose records were replaced
	Records int      // records installed
	Failed  []string // source ids that returned nothing
}

// Collector refreshes every monitored source in the store.
type Collector struct {
	store    *store.Store
	pool     *source.Pool
	redactor *privacy.Redactor
	logger   *zap.Logger
}

// NewCollector creates a collector. redactor may be nil.
func NewCollector(st *store.Store, pool *source.Pool, redactor *privacy.Redactor, logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Collector{store: st, pool: pool, redactor: redactor, logger: logger}
}

// Collect fetches the newest posts of each monitored source and replaces its
// records wholesale. A source whose fetch yields nothing keeps its previous
// records. Store writes happen on the calling goroutine only.
func (c *Collector) Collect(ctx context.Context) CollectReport {
	monitored := c.store.Monitored()
	jobs := make([]source.Job, 0, len(monitored))
	for _, src := range monitored {
		jobs = append(jobs, source.Job{SourceID: src.ID, Kind: src.Kind, Target: src.Handle})
	}

	report := CollectReport{Sources: len(jobs)}
	for _, res := range c.pool.Run(ctx, jobs) {
		if len(res.Records) == 0 {
			report.Failed = append(report.Failed, res.SourceID)
			continue
		}
		c.store.ReplaceAll(res.SourceID, c.redactor.Records(res.Records))
		report.Updated++
		report.Records += len(res.Records)
	}

	c.logger.Info("collect finished",
		zap.Int("sources", report.Sources),
		zap.Int("updated", report.Updated),
		zap.Int("records", report.Records),
		zap.Strings("empty", report.Failed),
	)
	return report
}
