package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/vaama/inventorypacer/internal/core/domain"
)

// Load reads configuration from a YAML file.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg AppConfig
	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Reports.Dir == "" {
		cfg.Reports.Dir = "reports"
	}
	if cfg.Alerts.Email.SMTPPort == 0 {
		cfg.Alerts.Email.SMTPPort = 587
	}

	for i := range cfg.Stores {
		s := &cfg.Stores[i]
		if s.ScanInterval == 0 {
			s.ScanInterval = 1 * time.Hour
		}
		if s.FetchMode == "" {
			s.FetchMode = string(domain.FetchByDate)
		}
		if len(s.Targets) == 0 {
			// The curated default mix: rings-heavy jewellery catalog.
			s.Targets = map[string]float64{
				"rings":     40,
				"pendants":  25,
				"earrings":  20,
				"bracelets": 15,
			}
		}
	}
}

func validate(cfg *AppConfig) error {
	seen := make(map[domain.StoreID]bool, len(cfg.Stores))
	for _, s := range cfg.Stores {
		if s.ID == "" {
			return fmt.Errorf("store config missing id")
		}
		if seen[s.ID] {
			return fmt.Errorf("duplicate store id %q", s.ID)
		}
		seen[s.ID] = true

		if s.Domain == "" {
			return fmt.Errorf("store %s: missing domain", s.ID)
		}
		if s.AccessToken == "" {
			return fmt.Errorf("store %s: missing access_token", s.ID)
		}
		if s.Date != "" {
			if _, err := time.Parse(domain.DateFormat, s.Date); err != nil {
				return fmt.Errorf("store %s: date must be in %s format: %w", s.ID, domain.DateFormat, err)
			}
		}
	}
	return nil
}
