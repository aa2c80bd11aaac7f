package cli

import (
	"fmt"
	"net/http"

	"github.com/ppiankov/chandigest/internal/archive"
	"github.com/ppiankov/chandigest/internal/config"
	"github.com/ppiankov/chandigest/internal/digest"
	"github.com/ppiankov/chandigest/internal/dispatch"
	"github.com/ppiankov/chandigest/internal/logging"
	"github.com/ppiankov/chandigest/internal/privacy"
	"github.com/ppiankov/chandigest/internal/source"
	"github.com/ppiankov/chandigest/internal/store"
	"github.com/ppiankov/chandigest/internal/tone"
	"go.uber.org/zap"
)

// app is everything a command needs, built from the config directory.
type app struct {
	cfg       *config.Config
	logger    *zap.Logger
	lexicon   *tone.Lexicon
	store     *store.Store
	collector *dispatch.Collector
	composer  *digest.Composer
	archive   *archive.Archive
	service   *dispatch.Service
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configDir)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	return cfg, nil
}

// newApp wires config, fetchers, store, composer, publishers and archive.
func newApp() (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, err
	}

	lex, err := config.LoadLexicon(cfg.LexiconPath(configDir))
	if err != nil {
		return nil, fmt.Errorf("load lexicon: %w", err)
	}

	st := store.New(store.WithLogger(logger.Named("store")))
	dispatch.Register(st, cfg.Sources)

	pool, err := newPool(cfg, logger)
	if err != nil {
		return nil, err
	}

	var redactor *privacy.Redactor
	if cfg.Privacy.Redact.Enabled {
		redactor, err = privacy.NewRedactor(cfg.Privacy.Redact.Patterns)
		if err != nil {
			return nil, fmt.Errorf("compile redact patterns: %w", err)
		}
	}
	collector := dispatch.NewCollector(st, pool, redactor, logger.Named("collect"))

	composer, err := newComposer(cfg, lex, logger.Named("digest"))
	if err != nil {
		return nil, err
	}

	publishers, err := newPublishers(cfg)
	if err != nil {
		return nil, err
	}

	arc, err := archive.Open(cfg.Archive.Path)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}

	svc, err := dispatch.NewService(dispatch.ServiceConfig{
		Store:      st,
		Collector:  collector,
		Composer:   composer,
		Publishers: publishers,
		Archive:    arc,
		WidenSteps: cfg.Digest.WidenSteps,
		Format:     cfg.Digest.Format,
		RetainDays: cfg.Archive.RetainDays,
		Logger:     logger.Named("service"),
	})
	if err != nil {
		_ = arc.Close()
		return nil, err
	}

	return &app{
		cfg:       cfg,
		logger:    logger,
		lexicon:   lex,
		store:     st,
		collector: collector,
		composer:  composer,
		archive:   arc,
		service:   svc,
	}, nil
}

func (a *app) Close() {
	_ = a.archive.Close()
	_ = a.logger.Sync()
}

func newPool(cfg *config.Config, logger *zap.Logger) (*source.Pool, error) {
	client := &http.Client{Timeout: cfg.Fetch.Timeout.Duration}
	maxMessages := cfg.Fetch.MaxMessages

	fetchers := map[string]source.Fetcher{
		store.KindChannel: source.NewTelegramWeb(client, cfg.Fetch.TelegramWebURL, cfg.Fetch.UserAgent, maxMessages, logger.Named("telegram")),
		store.KindFeed:    source.NewRSS(client, cfg.Fetch.UserAgent, maxMessages, logger.Named("rss")),
	}
	if cfg.Collector.Script != "" {
		c, err := source.NewCollector(source.CollectorConfig{
			Script:     cfg.Collector.Script,
			PythonPath: cfg.Collector.PythonPath,
			APIID:      cfg.Collector.APIID,
			APIHash:    cfg.Collector.APIHash,
			SessionDir: cfg.Collector.SessionDir,
		}, maxMessages, logger.Named("collector"))
		if err != nil {
			return nil, fmt.Errorf("create collector: %w", err)
		}
		fetchers[store.KindGroup] = c
	}

	return source.NewPool(fetchers, cfg.Fetch.Workers, cfg.Fetch.RatePerSecond, logger.Named("pool")), nil
}

func newPublishers(cfg *config.Config) ([]dispatch.Publisher, error) {
	var pubs []dispatch.Publisher
	if cfg.Delivery.Stdout {
		pubs = append(pubs, dispatch.NewStdout(nil))
	}
	if tg := cfg.Delivery.Telegram; tg.Enabled {
		p, err := dispatch.NewTelegram(tg.APIURL, tg.BotToken, tg.ChatID, nil)
		if err != nil {
			return nil, err
		}
		pubs = append(pubs, p)
	}
	return pubs, nil
}

func newComposer(cfg *config.Config, lex *tone.Lexicon, logger *zap.Logger) (*digest.Composer, error) {
	composer, err := digest.NewComposer(digest.Options{
		Title:          cfg.Digest.Title,
		TargetCount:    cfg.Digest.TargetCount,
		PerSourceFloor: cfg.Digest.PerSourceFloor,
		DedupPrefix:    cfg.Digest.DedupPrefix,
		MinLength:      cfg.Digest.MinLength,
		Format:         cfg.Digest.Format,
		Location:       cfg.Location(),
		Logger:         logger,
	}, lex)
	if err != nil {
		return nil, fmt.Errorf("create composer: %w", err)
	}
	return composer, nil
}
