package pool

import (
	"context"
	"fmt"

	"github.com/doodlesbykumbi/admin-transfer/pkg/identity"
)

// Proxy forwards administrator changes to a Resource. It performs no
// validation of its own; the pool stays the single source of truth for who
// may change its administrator.
type Proxy struct {
	resource Resource
}

// NewProxy creates a Proxy for r.
func NewProxy(r Resource) *Proxy {
	return &Proxy{resource: r}
}

// Admin returns the pool's current administrator.
func (p *Proxy) Admin(ctx context.Context, pool identity.Address) (identity.Address, error) {
	admin, err := p.resource.Admin(ctx, pool)
	if err != nil {
		return "", fmt.Errorf("failed to query admin of pool %s: %w", pool, err)
	}
	return admin, nil
}

// SetAdmin asks the pool to make newAdmin its administrator on behalf of
// caller. Any failure is returned as a *RejectedError.
func (p *Proxy) SetAdmin(ctx context.Context, pool, caller, newAdmin identity.Address) error {
	if err := p.resource.SetAdmin(ctx, pool, caller, newAdmin); err != nil {
		return &RejectedError{Pool: pool, Err: err}
	}
	return nil
}
