// Package idempotency remembers which (recipient, idempotency key) pairs have
// already been paid so retried reward requests return the original signature
// instead of moving funds twice.
package idempotency

import (
	"context"
	"time"
)

// DefaultTTL is how long a paid record is retained.
const DefaultTTL = 7 * 24 * time.Hour

// Key identifies one logical payout.
type Key struct {
	Recipient      string
	IdempotencyKey string
}

// Record is written once, after a transfer was accepted by the network, and
// never updated. It disappears only through Sweep (or the backend's own TTL).
type Record struct {
	Signature  string
	RecordedAt time.Time
}

// Store is the contract shared by the memory and Redis backends.
//
// Callers must serialize Sweep → Lookup → Save for the same key themselves;
// the store only guarantees that each call is atomic on its own.
type Store interface {
	Lookup(ctx context.Context, k Key) (Record, bool, error)
	// Save stores the record for k; a second Save for the same key replaces it.
	Save(ctx context.Context, k Key, signature string, at time.Time) error
	// Sweep deletes every record older than the retention window and
	// reports how many were removed.
	Sweep(ctx context.Context, now time.Time) (int, error)
}

func expired(rec Record, now time.Time, ttl time.Duration) bool {
	return now.Sub(rec.RecordedAt) > ttl
}
