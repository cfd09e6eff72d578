package pool

import (
	"context"
	"errors"
	"fmt"

	"github.com/doodlesbykumbi/admin-transfer/pkg/identity"
)

var (
	// ErrRejected matches every failure of a pool to reassign its administrator.
	ErrRejected = errors.New("pool rejected administrator change")

	// ErrNotAdmin is returned by a pool when the caller is not its administrator.
	ErrNotAdmin = errors.New("caller is not the pool admin")

	// ErrPoolNotFound is returned when the pool does not exist.
	ErrPoolNotFound = errors.New("pool not found")

	// ErrPoolExists is returned when registering a pool that already exists.
	ErrPoolExists = errors.New("pool already exists")
)

// Resource is the externally owned pool. SetAdmin is guarded by the pool's
// own authorization rule: it fails unless caller is the current admin.
type Resource interface {
	// Admin returns the pool's current administrator.
	Admin(ctx context.Context, pool identity.Address) (identity.Address, error)

	// SetAdmin reassigns the administrator on behalf of caller.
	SetAdmin(ctx context.Context, pool, caller, newAdmin identity.Address) error
}

// RejectedError wraps the reason a pool refused an administrator change.
type RejectedError struct {
	Pool identity.Address
	Err  error
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("pool %s rejected administrator change: %v", e.Pool, e.Err)
}

func (e *RejectedError) Unwrap() error {
	return e.Err
}

// Is makes every RejectedError match ErrRejected.
func (e *RejectedError) Is(target error) bool {
	return target == ErrRejected
}

// Authorize applies the pool rule shared by the registries: only the
// current admin may change the admin.
func Authorize(current, caller identity.Address) error {
	if caller.IsZero() || caller != current {
		return fmt.Errorf("%w: %s", ErrNotAdmin, caller)
	}
	return nil
}
