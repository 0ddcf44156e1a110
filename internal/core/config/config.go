package config

import (
	"time"

	"github.com/vaama/inventorypacer/internal/core/domain"
	redisclient "github.com/vaama/inventorypacer/internal/infra/redis"
	"github.com/vaama/inventorypacer/internal/infra/storage/postgres"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Server   ServerConfig       `yaml:"server"`
	Stores   []StoreConfig      `yaml:"stores"`
	Alerts   AlertsConfig       `yaml:"alerts"`
	Reports  ReportsConfig      `yaml:"reports"`
	Redis    redisclient.Config `yaml:"redis"`
	Logging  LoggingConfig      `yaml:"logging"`
	Database postgres.Config    `yaml:"database"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// StoreConfig holds settings for one tracked Shopify store.
type StoreConfig struct {
	ID              domain.StoreID     `yaml:"id"`
	Name            string             `yaml:"name"`
	Domain          string             `yaml:"domain"`
	AccessToken     string             `yaml:"access_token"`
	FetchMode       string             `yaml:"fetch_mode"`       // by_date, active_only, active_by_date
	Date            string             `yaml:"date"`             // optional fixed target date (2006-01-02); empty = today
	ScanInterval    time.Duration      `yaml:"scan_interval"`
	Tolerance       float64            `yaml:"tolerance"`        // percentage points, 0 = default
	RetentionPeriod time.Duration      `yaml:"retention_period"` // 0 = keep forever
	Targets         map[string]float64 `yaml:"targets"`
}

// TargetMix converts the raw target map to normalized domain categories.
func (s StoreConfig) TargetMix() domain.TargetMix {
	mix := make(domain.TargetMix, len(s.Targets))
	for raw, pct := range s.Targets {
		mix[domain.NormalizeCategory(raw)] = pct
	}
	return mix
}

// Store returns the domain view of this store config.
func (s StoreConfig) Store() domain.Store {
	name := s.Name
	if name == "" {
		name = string(s.ID)
	}
	return domain.Store{ID: s.ID, Name: name, Domain: s.Domain}
}

// AlertsConfig groups the notification channels.
type AlertsConfig struct {
	Email       EmailConfig   `yaml:"email"`
	Slack       SlackConfig   `yaml:"slack"`
	DebounceTTL time.Duration `yaml:"debounce_ttl"` // 0 = until end of day
}

// EmailConfig configures SMTP alert delivery.
type EmailConfig struct {
	Enabled  bool     `yaml:"enabled"`
	SMTPHost string   `yaml:"smtp_host"`
	SMTPPort int      `yaml:"smtp_port"`
	Username string   `yaml:"username"`
	Password string   `yaml:"password"`
	From     string   `yaml:"from"`
	To       []string `yaml:"to"`
	CC       []string `yaml:"cc"`
}

// SlackConfig configures Slack webhook alert delivery.
type SlackConfig struct {
	Enabled    bool   `yaml:"enabled"`
	WebhookURL string `yaml:"webhook_url"`
	Channel    string `yaml:"channel"`
	Username   string `yaml:"username"`
}

// ReportsConfig configures CSV report output and archival.
type ReportsConfig struct {
	Dir     string        `yaml:"dir"`
	Archive ArchiveConfig `yaml:"archive"`
}

// ArchiveConfig holds S3-compatible object storage settings.
type ArchiveConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	UseSSL    bool   `yaml:"use_ssl"`
}
