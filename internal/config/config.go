package config

import (
	"fmt"
	"time"
)

// Default configuration values.
const (
	defaultServiceName  = "campaign-engine"
	defaultServicePort  = 8097
	defaultVersion      = "0.1.0"
	defaultLoggingLevel = "info"
	defaultLoggingFmt   = "json"

	defaultDBHost    = "localhost"
	defaultDBPort    = 5432
	defaultDBName    = "campaign_engine"
	defaultDBUser    = "postgres"
	defaultDBSSLMode = "disable"

	defaultRedisAddr    = "localhost:6379"
	defaultRedisChannel = "campaign.content.published"

	defaultItemCap       = 25
	defaultGenerationCap = 5
	defaultOutreachCap   = 5
	defaultRetryAttempts = 3
	defaultRetryDelayS   = 2
	defaultRunTimeoutM   = 4

	// One external call every two seconds unless configured otherwise.
	defaultCallsPerSecond = 0.5
	defaultCallBurst      = 1

	defaultRankThreshold = 10

	defaultSigLength        = 12
	defaultTrackingMaxAgeH  = 24 * 14
	defaultInboxScanMinutes = 5
	defaultRankScanHours    = 24

	defaultMaxHitsPerMinute = 30
	defaultWindowSeconds    = 60
)

// Config holds the application configuration.
type Config struct {
	Service   ServiceConfig   `yaml:"service"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Pipeline  PipelineConfig  `yaml:"pipeline"`
	Providers ProvidersConfig `yaml:"providers"`
	Tracking  TrackingConfig  `yaml:"tracking"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServiceConfig holds service-level configuration.
type ServiceConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
	Port    int    `env:"CAMPAIGN_ENGINE_PORT" yaml:"port"`
	Debug   bool   `env:"APP_DEBUG"            yaml:"debug"`
}

// DatabaseConfig holds PostgreSQL database configuration.
type DatabaseConfig struct {
	Host     string `env:"POSTGRES_CAMPAIGN_HOST"     yaml:"host"`
	Port     int    `env:"POSTGRES_CAMPAIGN_PORT"     yaml:"port"`
	User     string `env:"POSTGRES_CAMPAIGN_USER"     yaml:"user"`
	Password string `env:"POSTGRES_CAMPAIGN_PASSWORD" yaml:"password"`
	Database string `env:"POSTGRES_CAMPAIGN_DB"       yaml:"database"`
	SSLMode  string `env:"POSTGRES_CAMPAIGN_SSLMODE"  yaml:"sslmode"`
}

// DSN returns the PostgreSQL connection string.
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Database, d.SSLMode,
	)
}

// MigrateURL returns the postgres:// URL used by the migration runner.
func (d *DatabaseConfig) MigrateURL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Database, d.SSLMode,
	)
}

// RedisConfig holds Redis configuration for the published-content event bus.
type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR"     yaml:"addr"`
	Password string `env:"REDIS_PASSWORD" yaml:"password"`
	DB       int    `env:"REDIS_DB"       yaml:"db"`
	Channel  string `yaml:"channel"`
}

// PipelineConfig holds pipeline orchestration configuration.
type PipelineConfig struct {
	// ItemCap bounds how many keywords a single run processes per stage.
	ItemCap int `yaml:"item_cap"`
	// GenerationCap bounds how many articles are generated per run.
	GenerationCap int `yaml:"generation_cap"`
	// OutreachCap bounds how many outreach emails are sent per run.
	OutreachCap int `yaml:"outreach_cap"`
	// RetryAttempts is the maximum attempts for a transient external failure.
	RetryAttempts int `yaml:"retry_attempts"`
	// RetryDelay is the initial backoff delay; doubles per attempt.
	RetryDelay time.Duration `yaml:"retry_delay"`
	// RunTimeout is the wall-clock budget for a full pipeline invocation.
	RunTimeout time.Duration `yaml:"run_timeout"`
	// CallsPerSecond is the token-bucket refill rate for external calls.
	CallsPerSecond float64 `yaml:"calls_per_second"`
	// CallBurst is the token-bucket burst for external calls.
	CallBurst int `yaml:"call_burst"`
	// RankThreshold is the rank above which content is flagged for optimization.
	RankThreshold int `yaml:"rank_threshold"`
}

// EndpointConfig holds the address and credential for one external provider.
type EndpointConfig struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
}

// Enabled reports whether the provider is configured at all.
func (e *EndpointConfig) Enabled() bool {
	return e.BaseURL != ""
}

// ProvidersConfig holds the external capability endpoints. A provider with an
// empty base URL is simply not wired; the pipeline skips work that needs it.
type ProvidersConfig struct {
	// Intelligence serves topic extraction, research, and content generation.
	Intelligence EndpointConfig `yaml:"intelligence"`
	// RankLookup serves search rank observations.
	RankLookup EndpointConfig `yaml:"rank_lookup"`
	// CMS is the content publishing channel.
	CMS EndpointConfig `yaml:"cms"`
	// Network is the professional-network publishing channel.
	Network EndpointConfig `yaml:"network"`
	// Mail sends outreach email and serves the inbound mailbox.
	Mail EndpointConfig `yaml:"mail"`
}

// TrackingConfig holds delivery-tracking configuration.
type TrackingConfig struct {
	// HMACSecret signs pixel and click URLs so ids cannot be forged.
	HMACSecret string `env:"CAMPAIGN_TRACKING_SECRET" yaml:"hmac_secret"`
	// SignatureLength is the number of hex chars kept from the HMAC.
	SignatureLength int `yaml:"signature_length"`
	// BaseURL is the public base for generated pixel and click URLs.
	BaseURL string `env:"CAMPAIGN_TRACKING_BASE_URL" yaml:"base_url"`
	// MaxLinkAge is how long a signed tracking link stays valid.
	MaxLinkAge time.Duration `yaml:"max_link_age"`
	// InboxScanInterval is how often the inbound mailbox is polled for replies.
	InboxScanInterval time.Duration `yaml:"inbox_scan_interval"`
	// RankScanInterval is how often tracked keywords are re-ranked.
	RankScanInterval time.Duration `yaml:"rank_scan_interval"`
}

// RateLimitConfig holds per-IP rate limiting for the tracking endpoints.
type RateLimitConfig struct {
	MaxHitsPerMinute int `yaml:"max_hits_per_minute"`
	WindowSeconds    int `yaml:"window_seconds"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `env:"LOG_LEVEL"  yaml:"level"`
	Format string `env:"LOG_FORMAT" yaml:"format"`
}

// Load loads configuration from the specified path.
func Load(path string) (*Config, error) {
	return LoadWithDefaults[Config](path, setDefaults)
}

// setDefaults applies default values to the config.
func setDefaults(cfg *Config) {
	setServiceDefaults(&cfg.Service)
	setDatabaseDefaults(&cfg.Database)
	setRedisDefaults(&cfg.Redis)
	setPipelineDefaults(&cfg.Pipeline)
	setTrackingDefaults(&cfg.Tracking)
	setRateLimitDefaults(&cfg.RateLimit)
	setLoggingDefaults(&cfg.Logging)
}

func setServiceDefaults(svc *ServiceConfig) {
	if svc.Name == "" {
		svc.Name = defaultServiceName
	}
	if svc.Version == "" {
		svc.Version = defaultVersion
	}
	if svc.Port == 0 {
		svc.Port = defaultServicePort
	}
}

func setDatabaseDefaults(db *DatabaseConfig) {
	if db.Host == "" {
		db.Host = defaultDBHost
	}
	if db.Port == 0 {
		db.Port = defaultDBPort
	}
	if db.User == "" {
		db.User = defaultDBUser
	}
	if db.Database == "" {
		db.Database = defaultDBName
	}
	if db.SSLMode == "" {
		db.SSLMode = defaultDBSSLMode
	}
}

func setRedisDefaults(r *RedisConfig) {
	if r.Addr == "" {
		r.Addr = defaultRedisAddr
	}
	if r.Channel == "" {
		r.Channel = defaultRedisChannel
	}
}

func setPipelineDefaults(p *PipelineConfig) {
	if p.ItemCap == 0 {
		p.ItemCap = defaultItemCap
	}
	if p.GenerationCap == 0 {
		p.GenerationCap = defaultGenerationCap
	}
	if p.OutreachCap == 0 {
		p.OutreachCap = defaultOutreachCap
	}
	if p.RetryAttempts == 0 {
		p.RetryAttempts = defaultRetryAttempts
	}
	if p.RetryDelay == 0 {
		p.RetryDelay = defaultRetryDelayS * time.Second
	}
	if p.RunTimeout == 0 {
		p.RunTimeout = defaultRunTimeoutM * time.Minute
	}
	if p.CallsPerSecond == 0 {
		p.CallsPerSecond = defaultCallsPerSecond
	}
	if p.CallBurst == 0 {
		p.CallBurst = defaultCallBurst
	}
	if p.RankThreshold == 0 {
		p.RankThreshold = defaultRankThreshold
	}
}

func setTrackingDefaults(tr *TrackingConfig) {
	if tr.SignatureLength == 0 {
		tr.SignatureLength = defaultSigLength
	}
	if tr.MaxLinkAge == 0 {
		tr.MaxLinkAge = defaultTrackingMaxAgeH * time.Hour
	}
	if tr.InboxScanInterval == 0 {
		tr.InboxScanInterval = defaultInboxScanMinutes * time.Minute
	}
	if tr.RankScanInterval == 0 {
		tr.RankScanInterval = defaultRankScanHours * time.Hour
	}
}

func setRateLimitDefaults(rl *RateLimitConfig) {
	if rl.MaxHitsPerMinute == 0 {
		rl.MaxHitsPerMinute = defaultMaxHitsPerMinute
	}
	if rl.WindowSeconds == 0 {
		rl.WindowSeconds = defaultWindowSeconds
	}
}

func setLoggingDefaults(log *LoggingConfig) {
	if log.Level == "" {
		log.Level = defaultLoggingLevel
	}
	if log.Format == "" {
		log.Format = defaultLoggingFmt
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := ValidatePort("service.port", c.Service.Port); err != nil {
		return err
	}
	if c.Tracking.HMACSecret == "" {
		return &ValidationError{
			Field:   "tracking.hmac_secret",
			Message: "is required",
		}
	}
	if c.Tracking.BaseURL == "" {
		return &ValidationError{
			Field:   "tracking.base_url",
			Message: "is required",
		}
	}
	return nil
}
