package cache

import (
	"context"
	"time"
)

// Store is one tier of the revocation cache: a TTL'd boolean map keyed by
// token jti. true means revoked. A missing key means "not cached", never
// "not revoked" — the ledger is the source of truth.
type Store interface {
	// Get returns (value, found). An expired or absent key is a miss.
	Get(ctx context.Context, key string) (bool, bool, error)

	// Set stores a verdict with the given TTL. Entries are idempotent and
	// last-write-wins; no cross-key consistency is needed.
	Set(ctx context.Context, key string, revoked bool, ttl time.Duration) error

	// Delete removes a key so the next lookup falls through to the tier
	// below. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}

// Stats are hit/miss counters for observability and tests.
type Stats struct {
	Keys   int
	Hits   uint64
	Misses uint64
}
