package shared

import (
	"context"
	"time"
)

// IdempotencyStore dedupes gateway webhook deliveries by event id. Backed by
// Redis SET NX when configured, otherwise by an in-process map.
type IdempotencyStore interface {
	// MarkProcessed reports true the first time id is seen within ttl
	MarkProcessed(ctx context.Context, id string, ttl time.Duration) (bool, error)
	// Forget drops the mark after a failed delivery so the gateway retry is
	// applied
	Forget(ctx context.Context, id string) error
	Close() error
}

// IdempotencyConfig sets how long a delivery id is remembered. The 72h
// default covers Stripe's retry schedule.
type IdempotencyConfig struct {
	TTL     time.Duration
	Enabled bool
}

func DefaultIdempotencyConfig() IdempotencyConfig {
	return IdempotencyConfig{TTL: 72 * time.Hour, Enabled: true}
}
