package control

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/vaama/inventorypacer/internal/core/config"
)

func testConfig() *config.AppConfig {
	return &config.AppConfig{
		Server: config.ServerConfig{Port: 0},
		Stores: []config.StoreConfig{{
			ID:           "vaama",
			Name:         "Vaama",
			Domain:       "vaama.myshopify.com",
			AccessToken:  "shpat_test",
			FetchMode:    "by_date",
			ScanInterval: time.Hour,
			Targets: map[string]float64{
				"rings":     40,
				"pendants":  25,
				"earrings":  20,
				"bracelets": 15,
			},
		}},
		Reports: config.ReportsConfig{Dir: ""},
	}
}

func TestNewPacerMemoryMode(t *testing.T) {
	p, err := NewPacer(context.Background(), testConfig())
	if err != nil {
		t.Fatalf("NewPacer failed: %v", err)
	}

	stores := p.Stores()
	if len(stores) != 1 || stores[0] != "vaama" {
		t.Errorf("stores = %v", stores)
	}
	if p.Snapshots() == nil {
		t.Error("expected snapshot repository")
	}
}

func TestNewPacerWarnsOnTargetDrift(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	defer slog.SetDefault(prev)

	cfg := testConfig()
	cfg.Stores[0].Targets = map[string]float64{"rings": 90, "pendants": 30}

	if _, err := NewPacer(context.Background(), cfg); err != nil {
		t.Fatalf("NewPacer failed: %v", err)
	}
	if !strings.Contains(buf.String(), "target") {
		t.Errorf("expected a target mix warning, log: %s", buf.String())
	}
}

func TestRunOnceUnknownStore(t *testing.T) {
	p, err := NewPacer(context.Background(), testConfig())
	if err != nil {
		t.Fatalf("NewPacer failed: %v", err)
	}

	if _, _, err := p.RunOnce(context.Background(), "nope"); err == nil {
		t.Fatal("expected error for unknown store")
	}
}

func TestPacerWithRetention(t *testing.T) {
	cfg := testConfig()
	cfg.Stores[0].RetentionPeriod = 30 * 24 * time.Hour

	p, err := NewPacer(context.Background(), cfg)
	if err != nil {
		t.Fatalf("NewPacer failed: %v", err)
	}
	if len(p.pruners) != 1 {
		t.Errorf("pruners = %d, want 1", len(p.pruners))
	}
}

func TestPacerStopBeforeStart(t *testing.T) {
	p, err := NewPacer(context.Background(), testConfig())
	if err != nil {
		t.Fatalf("NewPacer failed: %v", err)
	}
	if err := p.Stop(context.Background()); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
}
