package memory

import (
	"context"
	"fmt"

	"github.com/doodlesbykumbi/admin-transfer/pkg/identity"
	"github.com/doodlesbykumbi/admin-transfer/pkg/pool"
)

// Registry implements store.PoolRegistry over a Store.
type Registry struct {
	store *Store
	held  bool
}

// Admin returns the current admin of pool p.
func (r *Registry) Admin(_ context.Context, p identity.Address) (identity.Address, error) {
	defer r.store.lock(r.held)()
	admin, ok := r.store.state.pools[p]
	if !ok {
		return "", fmt.Errorf("%w: %s", pool.ErrPoolNotFound, p)
	}
	return admin, nil
}

// SetAdmin replaces the admin of p when caller is the current admin.
func (r *Registry) SetAdmin(_ context.Context, p, caller, newAdmin identity.Address) error {
	defer r.store.lock(r.held)()
	current, ok := r.store.state.pools[p]
	if !ok {
		return fmt.Errorf("%w: %s", pool.ErrPoolNotFound, p)
	}
	if err := pool.Authorize(current, caller); err != nil {
		return err
	}
	r.store.state.pools[p] = newAdmin
	return nil
}

// Register records a new pool p administered by admin.
func (r *Registry) Register(_ context.Context, p, admin identity.Address) error {
	defer r.store.lock(r.held)()
	if _, ok := r.store.state.pools[p]; ok {
		return fmt.Errorf("%w: %s", pool.ErrPoolExists, p)
	}
	r.store.state.pools[p] = admin
	return nil
}
