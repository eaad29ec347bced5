// Package cache persists computed burn-area records keyed by quantized grid
// cell. Entries are versioned by write: a recomputation supersedes the prior
// row atomically, and readers never observe a partial record.
package cache

import (
	"context"
	"time"

	"github.com/couchcryptid/burn-risk/internal/domain"
)

// Entry is one persisted cache version for a cell.
type Entry struct {
	Key        string
	Payload    domain.BurnArea
	ComputedAt time.Time
	TTL        time.Duration
}

// Fresh reports whether the entry is still within its TTL.
func (e Entry) Fresh() bool {
	return clock.Now().Before(e.ComputedAt.Add(e.TTL))
}

// Store is the durable cache contract.
type Store interface {
	// Get returns the entry for key when one exists. Stale entries are
	// returned too; callers decide with Entry.Fresh, which lets the
	// orchestrator fall back to a stale record when every upstream source
	// is down. Corrupt rows are evicted and reported absent.
	Get(ctx context.Context, key string) (Entry, bool, error)

	// Put commits a complete entry, superseding any previous version for
	// the key. Entries with a zero ComputedAt are stamped at write time.
	Put(ctx context.Context, entry Entry) error

	// Invalidate removes the entry for key. Removing an absent key is not
	// an error.
	Invalidate(ctx context.Context, key string) error

	// All returns every persisted payload ordered by cell key, including
	// stale ones; freshness is a resolve-path concern, the bulk surface
	// serves whatever was last computed.
	All(ctx context.Context) ([]domain.BurnArea, error)

	// Count reports the number of persisted entries.
	Count(ctx context.Context) (int, error)

	// Ping verifies the backing storage is reachable.
	Ping(ctx context.Context) error

	Close() error
}
