package store

import (
	"context"

	"github.com/doodlesbykumbi/admin-transfer/pkg/ledger"
	"github.com/doodlesbykumbi/admin-transfer/pkg/pool"
)

// Substrate runs protocol operations against a ledger and a pool resource.
type Substrate interface {
	// Atomic runs fn as one unit of work. If fn returns an error, every
	// ledger and pool change it made is discarded.
	Atomic(ctx context.Context, fn func(l ledger.Ledger, r pool.Resource) error) error

	// View runs fn for reads only.
	View(ctx context.Context, fn func(l ledger.Ledger, r pool.Resource) error) error
}
