package store

import (
	"context"

	"github.com/doodlesbykumbi/admin-transfer/pkg/identity"
	"github.com/doodlesbykumbi/admin-transfer/pkg/pool"
)

// PoolRegistry is a pool.Resource that also owns pool creation.
type PoolRegistry interface {
	pool.Resource

	// Register creates pool with admin as its administrator.
	// Returns pool.ErrPoolExists if the pool is already registered.
	Register(ctx context.Context, pool, admin identity.Address) error
}
