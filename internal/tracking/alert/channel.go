package alert

import (
	"context"

	"github.com/vaama/inventorypacer/internal/core/domain"
)

// Channel delivers an alert to one destination.
type Channel interface {
	// Name identifies the channel in alert records and metrics.
	Name() string

	// Send delivers the alert.
	Send(ctx context.Context, alert *domain.Alert) error
}
