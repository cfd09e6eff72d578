package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/doodlesbykumbi/admin-transfer/pkg/identity"
)

// ErrNotFound is returned by ExtendTTL when no record exists for the pool.
var ErrNotFound = errors.New("transfer record not found")

// Record is a pending admin transfer, keyed by pool.
type Record struct {
	Pool         identity.Address `json:"pool"`
	CurrentAdmin identity.Address `json:"current_admin,omitempty"`
	NewAdmin     identity.Address `json:"new_admin"`

	// LiveUntil is retention bookkeeping. A record past LiveUntil is still
	// a valid pending transfer.
	LiveUntil time.Time `json:"live_until"`
}

// Ledger stores transfer records and the shared instance allowance.
type Ledger interface {
	// Has reports whether a record exists for pool.
	Has(ctx context.Context, pool identity.Address) (bool, error)

	// Get returns the record for pool, or nil when there is none.
	Get(ctx context.Context, pool identity.Address) (*Record, error)

	// Set stores rec under rec.Pool. A zero LiveUntil means "now".
	Set(ctx context.Context, rec Record) error

	// Remove deletes the record for pool. Removing a missing record is a no-op.
	Remove(ctx context.Context, pool identity.Address) error

	// ExtendTTL pushes the record's LiveUntil to now+extendTo when its
	// remaining lifetime is at most threshold.
	ExtendTTL(ctx context.Context, pool identity.Address, threshold, extendTo time.Duration) error

	// ExtendInstance does the same for the shared allowance.
	ExtendInstance(ctx context.Context, threshold, extendTo time.Duration) error

	// Expiring lists records whose LiveUntil is not after before, oldest first.
	Expiring(ctx context.Context, before time.Time) ([]Record, error)
}

// NeedsExtension applies the ExtendTTL rule.
func NeedsExtension(liveUntil, now time.Time, threshold time.Duration) bool {
	return liveUntil.Sub(now) <= threshold
}
