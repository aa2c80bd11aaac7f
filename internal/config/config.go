package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultConfigFile     = "config.yaml"
	DefaultLexiconFile    = "lexicon.yaml"
	DefaultArchivePath    = ".chandigest/history.db"
	DefaultRetainDays     = 30
	DefaultWorkers        = 4
	DefaultRatePerSecond  = 2.0
	DefaultMaxMessages    = 20
	DefaultFetchTimeout   = 15 * time.Second
	DefaultTelegramWebURL = "https://t.me"
	DefaultBotAPIURL      = "https://api.telegram.org"
	DefaultPythonPath     = "python3"
	DefaultTimezone       = "UTC"
	DefaultTitle          = "What's happening"
	DefaultFormat         = "text"
	DefaultTargetCount    = 8
	DefaultPerSourceFloor = 1
	DefaultDedupPrefix    = 100
	DefaultMinLength      = 10
	DefaultCron           = "0 9,12,15,18,21 * * *"
	DefaultLogLevel       = "info"
	DefaultLogFormat      = "console"
)

// DefaultWidenSteps are the window sizes, in hours, tried in order until one
// yields records.
var DefaultWidenSteps = []int{24, 72, 168}

// Source kinds, mirrored from the store.
const (
	KindChannel = "channel"
	KindGroup   = "group"
	KindFeed    = "feed"
)

// Formats are the digest renderers selectable in config.
var Formats = []string{"text", "markdown", "json"}

// Duration wraps time.Duration for YAML unmarshaling from strings like "24h".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", s, err)
	}
	d.Duration = parsed
	return nil
}

type Config struct {
	Sources   []SourceConfig  `yaml:"sources"`
	Fetch     FetchConfig     `yaml:"fetch"`
	Collector CollectorConfig `yaml:"collector"`
	Digest    DigestConfig    `yaml:"digest"`
	Schedule  ScheduleConfig  `yaml:"schedule"`
	Delivery  DeliveryConfig  `yaml:"delivery"`
	Archive   ArchiveConfig   `yaml:"archive"`
	Privacy   PrivacyConfig   `yaml:"privacy"`
	Log       LogConfig       `yaml:"log"`
}

// SourceConfig declares one monitorable source. Channels and groups are
// addressed by handle, feeds by URL.
type SourceConfig struct {
	ID      string `yaml:"id"`
	Title   string `yaml:"title"`
	Handle  string `yaml:"handle,omitempty"`
	URL     string `yaml:"url,omitempty"`
	Kind    string `yaml:"kind"`
	Monitor *bool  `yaml:"monitor,omitempty"`
}

// Monitored reports whether the source starts in the monitoring set. Sources
// are monitored unless they opt out.
func (s SourceConfig) Monitored() bool {
	return s.Monitor == nil || *s.Monitor
}

// Target returns what a fetcher is given for this source.
func (s SourceConfig) Target() string {
	if s.Kind == KindFeed {
		return s.URL
	}
	return s.Handle
}

type FetchConfig struct {
	Workers        int      `yaml:"workers"`
	RatePerSecond  float64  `yaml:"rate_per_second"`
	MaxMessages    int      `yaml:"max_messages"`
	Timeout        Duration `yaml:"timeout"`
	TelegramWebURL string   `yaml:"telegram_web_url"`
	UserAgent      string   `yaml:"user_agent"`
}

// CollectorConfig points at an external script that prints JSONL posts for
// group sources.
type CollectorConfig struct {
	Script     string `yaml:"script"`
	PythonPath string `yaml:"python_path"`
	APIIDEnv   string `yaml:"api_id_env"`
	APIHashEnv string `yaml:"api_hash_env"`
	SessionDir string `yaml:"session_dir"`

	// Resolved from env vars at load time.
	APIID   string `yaml:"-"`
	APIHash string `yaml:"-"`
}

type DigestConfig struct {
	Title          string `yaml:"title"`
	Timezone       string `yaml:"timezone"`
	Format         string `yaml:"format"`
	TargetCount    int    `yaml:"target_count"`
	PerSourceFloor int    `yaml:"per_source_floor"`
	DedupPrefix    int    `yaml:"dedup_prefix"`
	MinLength      int    `yaml:"min_length"`
	WidenSteps     []int  `yaml:"widen_steps"`
	Lexicon        string `yaml:"lexicon"`
}

type ScheduleConfig struct {
	Cron       string `yaml:"cron"`
	RunOnStart bool   `yaml:"run_on_start"`
}

type DeliveryConfig struct {
	Stdout   bool                   `yaml:"stdout"`
	Telegram TelegramDeliveryConfig `yaml:"telegram"`
}

// TelegramDeliveryConfig sends digests through the Bot API.
type TelegramDeliveryConfig struct {
	Enabled     bool   `yaml:"enabled"`
	BotTokenEnv string `yaml:"bot_token_env"`
	ChatIDEnv   string `yaml:"chat_id_env"`
	APIURL      string `yaml:"api_url"`

	// Resolved from env vars at load time.
	BotToken string `yaml:"-"`
	ChatID   string `yaml:"-"`
}

type ArchiveConfig struct {
	Path       string `yaml:"path"`
	RetainDays int    `yaml:"retain_days"`
}

type PrivacyConfig struct {
	Redact RedactConfig `yaml:"redact"`
}

type RedactConfig struct {
	Enabled  bool     `yaml:"enabled"`
	Patterns []string `yaml:"patterns"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads config.yaml from dir, applies defaults, resolves env vars, and validates.
func Load(dir string) (*Config, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("config dir is required")
	}

	path := filepath.Join(dir, DefaultConfigFile)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyDefaults(&cfg)
	resolveEnv(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// Location returns the digest timezone. Load has already validated it.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Digest.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// LexiconPath resolves digest.lexicon relative to dir.
func (c *Config) LexiconPath(dir string) string {
	p := c.Digest.Lexicon
	if p == "" {
		p = DefaultLexiconFile
	}
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dir, p)
}

func applyDefaults(cfg *Config) {
	for i := range cfg.Sources {
		src := &cfg.Sources[i]
		src.Handle = strings.TrimPrefix(strings.TrimSpace(src.Handle), "@")
		if src.Kind == "" {
			src.Kind = KindChannel
		}
		if src.ID == "" {
			src.ID = src.Handle
		}
		if src.Title == "" {
			src.Title = src.ID
		}
	}

	if cfg.Fetch.Workers == 0 {
		cfg.Fetch.Workers = DefaultWorkers
	}
	if cfg.Fetch.RatePerSecond == 0 {
		cfg.Fetch.RatePerSecond = DefaultRatePerSecond
	}
	if cfg.Fetch.MaxMessages == 0 {
		cfg.Fetch.MaxMessages = DefaultMaxMessages
	}
	if cfg.Fetch.Timeout.Duration == 0 {
		cfg.Fetch.Timeout.Duration = DefaultFetchTimeout
	}
	if cfg.Fetch.TelegramWebURL == "" {
		cfg.Fetch.TelegramWebURL = DefaultTelegramWebURL
	}
	if cfg.Collector.PythonPath == "" {
		cfg.Collector.PythonPath = DefaultPythonPath
	}

	if cfg.Digest.Title == "" {
		cfg.Digest.Title = DefaultTitle
	}
	if cfg.Digest.Timezone == "" {
		cfg.Digest.Timezone = DefaultTimezone
	}
	if cfg.Digest.Format == "" {
		cfg.Digest.Format = DefaultFormat
	}
	if cfg.Digest.TargetCount == 0 {
		cfg.Digest.TargetCount = DefaultTargetCount
	}
	if cfg.Digest.PerSourceFloor == 0 {
		cfg.Digest.PerSourceFloor = DefaultPerSourceFloor
	}
	if cfg.Digest.DedupPrefix == 0 {
		cfg.Digest.DedupPrefix = DefaultDedupPrefix
	}
	if cfg.Digest.MinLength == 0 {
		cfg.Digest.MinLength = DefaultMinLength
	}
	if len(cfg.Digest.WidenSteps) == 0 {
		cfg.Digest.WidenSteps = slices.Clone(DefaultWidenSteps)
	}

	if cfg.Schedule.Cron == "" {
		cfg.Schedule.Cron = DefaultCron
	}
	if cfg.Delivery.Telegram.APIURL == "" {
		cfg.Delivery.Telegram.APIURL = DefaultBotAPIURL
	}
	if !cfg.Delivery.Stdout && !cfg.Delivery.Telegram.Enabled {
		cfg.Delivery.Stdout = true
	}

	if cfg.Archive.Path == "" {
		cfg.Archive.Path = DefaultArchivePath
	}
	if cfg.Archive.RetainDays == 0 {
		cfg.Archive.RetainDays = DefaultRetainDays
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}
}

func resolveEnv(cfg *Config) {
	if cfg.Collector.APIIDEnv != "" {
		cfg.Collector.APIID = os.Getenv(cfg.Collector.APIIDEnv)
	}
	if cfg.Collector.APIHashEnv != "" {
		cfg.Collector.APIHash = os.Getenv(cfg.Collector.APIHashEnv)
	}
	if cfg.Delivery.Telegram.BotTokenEnv != "" {
		cfg.Delivery.Telegram.BotToken = os.Getenv(cfg.Delivery.Telegram.BotTokenEnv)
	}
	if cfg.Delivery.Telegram.ChatIDEnv != "" {
		cfg.Delivery.Telegram.ChatID = os.Getenv(cfg.Delivery.Telegram.ChatIDEnv)
	}
}

func validate(cfg *Config) error {
	if len(cfg.Sources) == 0 {
		return errors.New("sources: at least one source must be configured")
	}

	seen := make(map[string]bool, len(cfg.Sources))
	hasGroup := false
	for i, src := range cfg.Sources {
		if src.ID == "" {
			return fmt.Errorf("sources[%d]: id or handle is required", i)
		}
		if seen[src.ID] {
			return fmt.Errorf("sources[%d]: duplicate id %q", i, src.ID)
		}
		seen[src.ID] = true

		switch src.Kind {
		case KindChannel, KindGroup:
			if src.Handle == "" {
				return fmt.Errorf("sources[%d] %s: handle is required for kind %s", i, src.ID, src.Kind)
			}
			hasGroup = hasGroup || src.Kind == KindGroup
		case KindFeed:
			u, err := url.Parse(src.URL)
			if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
				return fmt.Errorf("sources[%d] %s: feed url %q must be http(s)", i, src.ID, src.URL)
			}
		default:
			return fmt.Errorf("sources[%d] %s: unknown kind %q (want channel, group or feed)", i, src.ID, src.Kind)
		}
	}

	if hasGroup && cfg.Collector.Script == "" {
		return errors.New("collector.script: required when group sources are configured")
	}

	if cfg.Fetch.Workers < 1 {
		return fmt.Errorf("fetch.workers: must be >= 1, got %d", cfg.Fetch.Workers)
	}
	if cfg.Fetch.RatePerSecond < 0 {
		return fmt.Errorf("fetch.rate_per_second: must be >= 0, got %v", cfg.Fetch.RatePerSecond)
	}
	if cfg.Fetch.MaxMessages < 1 {
		return fmt.Errorf("fetch.max_messages: must be >= 1, got %d", cfg.Fetch.MaxMessages)
	}

	if _, err := time.LoadLocation(cfg.Digest.Timezone); err != nil {
		return fmt.Errorf("digest.timezone: %w", err)
	}
	if !slices.Contains(Formats, cfg.Digest.Format) {
		return fmt.Errorf("digest.format: unknown format %q (want text, markdown or json)", cfg.Digest.Format)
	}
	if cfg.Digest.TargetCount < 1 {
		return fmt.Errorf("digest.target_count: must be >= 1, got %d", cfg.Digest.TargetCount)
	}
	if cfg.Digest.PerSourceFloor < 1 {
		return fmt.Errorf("digest.per_source_floor: must be >= 1, got %d", cfg.Digest.PerSourceFloor)
	}
	if cfg.Digest.DedupPrefix < 1 {
		return fmt.Errorf("digest.dedup_prefix: must be >= 1, got %d", cfg.Digest.DedupPrefix)
	}
	for _, h := range cfg.Digest.WidenSteps {
		if h < 0 {
			return fmt.Errorf("digest.widen_steps: negative step %d", h)
		}
	}

	tg := cfg.Delivery.Telegram
	if tg.Enabled && (tg.BotToken == "" || tg.ChatID == "") {
		return fmt.Errorf("delivery.telegram: bot token (%s) and chat id (%s) must be set", tg.BotTokenEnv, tg.ChatIDEnv)
	}

	if cfg.Archive.RetainDays < 0 {
		return fmt.Errorf("archive.retain_days: must be >= 0, got %d", cfg.Archive.RetainDays)
	}

	switch cfg.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("log.format: unknown format %q (want console or json)", cfg.Log.Format)
	}

	return nil
}
