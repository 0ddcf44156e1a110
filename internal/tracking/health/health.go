// Package health provides system health monitoring and status reporting.
package health

// SystemStatus represents the overall health state of the system or a component.
type SystemStatus string

const (
	StatusHealthy  SystemStatus = "healthy"
	StatusDegraded SystemStatus = "degraded"
	StatusCritical SystemStatus = "critical"
)

// StoreHealth contains health metrics for one tracked store.
type StoreHealth struct {
	StoreID             string       `json:"store_id"`
	Status              SystemStatus `json:"status"`
	LastSnapshotDate    string       `json:"last_snapshot_date,omitempty"`
	SnapshotAgeSeconds  int64        `json:"snapshot_age_seconds"`
	ConsecutiveFailures int          `json:"consecutive_failures"`
	MaxDeviation        float64      `json:"max_deviation"`
	Balanced            bool         `json:"balanced"`
}

// HealthReport contains the full system health report.
type HealthReport struct {
	SystemStatus SystemStatus           `json:"system_status"`
	Database     string                 `json:"database,omitempty"`
	Stores       map[string]StoreHealth `json:"stores"`
}
