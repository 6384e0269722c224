package ports

import (
	"context"

	"go.trai.ch/anvil/internal/core/domain"
)

// CacheStore is a session-scoped handle over the Global and Local record stores.
// Implementations serialise their own mutation and are safe for concurrent use.
//
//go:generate mockgen -source=cache.go -destination=mocks/mock_cache.go -package=mocks
type CacheStore interface {
	// IsStale reports whether key must be rebuilt: it has no record, its fingerprint changed,
	// or one of deps was found stale earlier in this session.
	IsStale(scope domain.CacheScope, key domain.CacheKey, current domain.Fingerprint, deps ...domain.CacheKey) bool

	// Record stores the record for key after a successful rebuild.
	Record(scope domain.CacheScope, key domain.CacheKey, record domain.CacheRecord) error

	// Forget drops the record for key.
	Forget(scope domain.CacheScope, key domain.CacheKey)

	// Lookup returns the stored record for key.
	Lookup(scope domain.CacheScope, key domain.CacheKey) (domain.CacheRecord, bool)

	// Flush persists both scopes.
	Flush(ctx context.Context) error

	// Close flushes pending changes and releases the handle.
	Close() error
}

// CacheOpener opens a CacheStore for a project.
type CacheOpener interface {
	Open(ctx context.Context, root string) (CacheStore, error)
}
