package dispatch

import (
	"context"
	"errors"
	"fmt"

	"github.com/ppiankov/chandigest/internal/archive"
	"github.com/ppiankov/chandigest/internal/digest"
	"github.com/ppiankov/chandigest/internal/store"
	"go.uber.org/zap"
)

// Archiver records delivered digests.
type Archiver interface {
	Save(ctx context.Context, e archive.Entry) (archive.Entry, error)
	PruneOld(ctx context.Context, retainDays int) (int64, error)
}

// ServiceConfig holds the parts of a Service. Store and Composer are
// required; the rest are optional.
type ServiceConfig struct {
	Store      *store.Store
	Collector  *Collector
	Composer   *digest.Composer
	Publishers []Publisher
	Archive    Archiver
	WidenSteps []int
	Format     string
	RetainDays int
	Logger     *zap.Logger
}

// Service runs collect and digest cycles.
type Service struct {
	cfg    ServiceConfig
	logger *zap.Logger
}

// Result describes one cycle.
type Result struct {
	Collect   CollectReport
	Text      string
	Hours     int
	Empty     bool // nothing to summarize
	Delivered []string
	ArchiveID string
}

// NewService validates cfg.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Store == nil {
		return nil, errors.New("service: store is required")
	}
	if cfg.Composer == nil {
		return nil, errors.New("service: composer is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{cfg: cfg, logger: logger}, nil
}

// Run collects fresh posts, when a collector is configured, and delivers a
// digest.
func (s *Service) Run(ctx context.Context) (Result, error) {
	var report CollectReport
	if s.cfg.Collector != nil {
		report = s.cfg.Collector.Collect(ctx)
	}
	res, err := s.Deliver(ctx)
	res.Collect = report
	return res, err
}

// Compose widens the window until it holds records and composes a digest.
// ok is false when the text is NothingToSummarize.
func (s *Service) Compose() (text string, d digest.Digest, hours int, ok bool) {
	w, hours := digest.Widen(s.cfg.Store, s.cfg.WidenSteps)
	d, ok = s.cfg.Composer.Build(w)
	if !ok {
		return digest.NothingToSummarize, digest.Digest{}, hours, false
	}
	return s.cfg.Composer.Text(d), d, hours, true
}

// Deliver composes a digest and hands it to every publisher. A publisher
// failure does not stop the others; Deliver fails only when all of them do.
// Delivered digests are archived.
func (s *Service) Deliver(ctx context.Context) (Result, error) {
	text, d, hours, ok := s.Compose()
	res := Result{Text: text, Hours: hours, Empty: !ok}

	s.logger.Info("digest composed",
		zap.Int("hours", hours),
		zap.Bool("empty", !ok),
		zap.Int("entries", len(d.Entries)),
		zap.String("label", d.Label),
	)

	var errs []error
	for _, pub := range s.cfg.Publishers {
		if err := pub.Publish(ctx, text); err != nil {
			err = fmt.Errorf("publish via %s: %w", pub.Name(), err)
			s.logger.Warn("publish failed", zap.Error(err))
			errs = append(errs, err)
			continue
		}
		res.Delivered = append(res.Delivered, pub.Name())
	}
	if len(s.cfg.Publishers) > 0 && len(errs) == len(s.cfg.Publishers) {
		return res, fmt.Errorf("all publishers failed: %w", errors.Join(errs...))
	}

	if ok {
		res.ArchiveID = s.archive(ctx, text, d, hours, res.Delivered)
	}
	return res, nil
}

func (s *Service) archive(ctx context.Context, text string, d digest.Digest, hours int, delivered []string) string {
	if s.cfg.Archive == nil {
		return ""
	}

	e, err := s.cfg.Archive.Save(ctx, archive.Entry{
		CreatedAt:   d.GeneratedAt,
		Title:       d.Title,
		WindowHours: hours,
		Format:      s.cfg.Format,
		Score:       d.Score,
		Label:       d.Label,
		Items:       d.Items,
		Sources:     d.Sources,
		Delivered:   delivered,
		Body:        text,
	})
	if err != nil {
		s.logger.Warn("archive digest", zap.Error(err))
		return ""
	}

	if pruned, err := s.cfg.Archive.PruneOld(ctx, s.cfg.RetainDays); err != nil {
		s.logger.Warn("prune archive", zap.Error(err))
	} else if pruned > 0 {
		s.logger.Info("pruned archive", zap.Int64("entries", pruned))
	}
	return e.ID
}
