package alert

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/vaama/inventorypacer/internal/core/domain"
	"github.com/vaama/inventorypacer/internal/infra/storage"
	"github.com/vaama/inventorypacer/internal/tracking/metrics"
)

// Debouncer suppresses repeat alerts for the same store and date.
// *redis.Client satisfies this; a nil debouncer disables suppression.
type Debouncer interface {
	MarkAlerted(ctx context.Context, storeID domain.StoreID, date string, ttl time.Duration) (bool, error)
	ClearAlerted(ctx context.Context, storeID domain.StoreID, date string) error
}

// Dispatcher fans an imbalance alert out to the configured channels and
// records the delivery.
type Dispatcher struct {
	channels  []Channel
	records   storage.AlertRepository
	debouncer Debouncer
	ttl       time.Duration
	logger    *slog.Logger
}

// NewDispatcher creates an alert dispatcher. debouncer may be nil.
func NewDispatcher(
	channels []Channel,
	records storage.AlertRepository,
	debouncer Debouncer,
	debounceTTL time.Duration,
	logger *slog.Logger,
) *Dispatcher {
	return &Dispatcher{
		channels:  channels,
		records:   records,
		debouncer: debouncer,
		ttl:       debounceTTL,
		logger:    logger,
	}
}

// Dispatch sends an alert for an out-of-balance report. Returns true when an
// alert actually went out; balanced reports and debounced repeats are skipped.
func (d *Dispatcher) Dispatch(
	ctx context.Context,
	store domain.Store,
	report *domain.MixReport,
	recommendations []string,
) (bool, error) {
	if report.Balanced || len(d.channels) == 0 {
		return false, nil
	}

	var marked bool
	if d.debouncer != nil {
		first, err := d.debouncer.MarkAlerted(ctx, store.ID, report.Date, d.debounceTTL())
		if err != nil {
			// Redis trouble should not swallow the alert
			d.logger.Warn("alert debounce check failed", "store", store.ID, "error", err)
		} else if !first {
			d.logger.Debug("alert suppressed, already sent", "store", store.ID, "date", report.Date)
			return false, nil
		} else {
			marked = true
		}
	}

	a := Build(store, report, recommendations)

	var delivered []string
	var failures []error
	for _, ch := range d.channels {
		if err := ch.Send(ctx, a); err != nil {
			d.logger.Error("alert delivery failed", "store", store.ID, "channel", ch.Name(), "error", err)
			failures = append(failures, fmt.Errorf("%s: %w", ch.Name(), err))
			continue
		}
		metrics.AlertsSent.WithLabelValues(string(store.ID), ch.Name()).Inc()
		delivered = append(delivered, ch.Name())
	}

	if len(delivered) == 0 {
		// Nothing went out; drop the marker so the next tick can retry.
		if marked {
			if err := d.debouncer.ClearAlerted(ctx, store.ID, report.Date); err != nil {
				d.logger.Warn("failed to clear alert debounce", "store", store.ID, "error", err)
			}
		}
		return false, fmt.Errorf("all alert channels failed: %v", failures)
	}

	record := &domain.AlertRecord{
		ID:         a.ID,
		StoreID:    store.ID,
		Date:       report.Date,
		Categories: deficitCategories(report),
		Message:    strings.Join(recommendations, "; "),
		Channels:   delivered,
		SentAt:     time.Now().UTC(),
	}
	if err := d.records.Record(ctx, record); err != nil {
		d.logger.Error("failed to record alert", "store", store.ID, "error", err)
	}

	d.logger.Info("alert dispatched",
		"store", store.ID,
		"date", report.Date,
		"channels", delivered,
		"categories", record.Categories)
	return true, nil
}

// debounceTTL returns the configured TTL, or the time remaining until UTC
// midnight so a fresh day alerts again.
func (d *Dispatcher) debounceTTL() time.Duration {
	if d.ttl > 0 {
		return d.ttl
	}
	now := time.Now().UTC()
	midnight := now.Truncate(24 * time.Hour).Add(24 * time.Hour)
	return midnight.Sub(now)
}

func deficitCategories(report *domain.MixReport) []string {
	cats := make([]string, 0, len(report.Entries))
	for _, e := range report.Entries {
		cats = append(cats, string(e.Category))
	}
	return cats
}
