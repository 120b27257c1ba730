package db

import "context"

// HealthAdapter exposes a DB as a readiness check.
type HealthAdapter struct {
	db *DB
}

// NewHealthAdapter wraps d.
func NewHealthAdapter(d *DB) *HealthAdapter {
	return &HealthAdapter{db: d}
}

// Ping verifies the connection is usable.
func (h *HealthAdapter) Ping(ctx context.Context) error {
	return h.db.PingContext(ctx)
}
