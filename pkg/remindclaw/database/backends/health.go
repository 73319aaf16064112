package backends

import (
	"context"
	"database/sql"
	"time"
)

// HealthStatus is a point-in-time view of a backend connection pool.
type HealthStatus struct {
	Healthy bool          `json:"healthy"`
	Latency time.Duration `json:"latency"`
	Version string        `json:"version"`
	Error   string        `json:"error,omitempty"`

	OpenConnections int   `json:"open_connections"`
	InUse           int   `json:"in_use"`
	Idle            int   `json:"idle"`
	WaitCount       int64 `json:"wait_count"`
}

// HealthChecker reports connectivity and pool statistics.
type HealthChecker struct {
	db           *sql.DB
	versionQuery string
}

// NewHealthChecker creates a checker that asks the server for its version
// with versionQuery.
func NewHealthChecker(db *sql.DB, versionQuery string) *HealthChecker {
	return &HealthChecker{db: db, versionQuery: versionQuery}
}

// Ping checks database connectivity.
func (h *HealthChecker) Ping(ctx context.Context) error {
	return h.db.PingContext(ctx)
}

// Status pings the database and collects pool statistics.
func (h *HealthChecker) Status(ctx context.Context) HealthStatus {
	start := time.Now()
	err := h.db.PingContext(ctx)
	status := HealthStatus{Latency: time.Since(start)}
	if err != nil {
		status.Error = err.Error()
		return status
	}

	status.Healthy = true
	if err := h.db.QueryRowContext(ctx, h.versionQuery).Scan(&status.Version); err != nil {
		status.Version = "unknown"
	}

	stats := h.db.Stats()
	status.OpenConnections = stats.OpenConnections
	status.InUse = stats.InUse
	status.Idle = stats.Idle
	status.WaitCount = stats.WaitCount
	return status
}
