package memory

import (
	"context"
	"maps"
	"sync"
	"time"

	"github.com/doodlesbykumbi/admin-transfer/pkg/identity"
	"github.com/doodlesbykumbi/admin-transfer/pkg/ledger"
	"github.com/doodlesbykumbi/admin-transfer/pkg/pool"
	"github.com/doodlesbykumbi/admin-transfer/pkg/store"
)

var (
	_ store.Substrate    = (*Store)(nil)
	_ store.HealthStore  = (*Store)(nil)
	_ store.PoolRegistry = (*Registry)(nil)
	_ ledger.Ledger      = (*Ledger)(nil)
)

type state struct {
	transfers map[identity.Address]ledger.Record
	pools     map[identity.Address]identity.Address
	instance  time.Time
}

func (s state) clone() state {
	return state{
		transfers: maps.Clone(s.transfers),
		pools:     maps.Clone(s.pools),
		instance:  s.instance,
	}
}

// Store is an in-process substrate.
type Store struct {
	mu       sync.Mutex
	state    state
	now      func() time.Time
	resource pool.Resource
}

// Option configures a Store.
type Option func(*Store)

// WithClock sets the clock used for retention marks.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// WithResource routes pool calls made inside units of work to r instead of
// the built-in registry. Changes made by r are not rolled back.
func WithResource(r pool.Resource) Option {
	return func(s *Store) {
		s.resource = r
	}
}

// New creates an empty Store.
func New(opts ...Option) *Store {
	s := &Store{
		state: state{
			transfers: map[identity.Address]ledger.Record{},
			pools:     map[identity.Address]identity.Address{},
		},
		now: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ledger returns a self-locking view of the transfer ledger.
func (s *Store) Ledger() *Ledger {
	return &Ledger{store: s}
}

// Registry returns a self-locking view of the pool registry.
func (s *Store) Registry() *Registry {
	return &Registry{store: s}
}

// InstanceLiveUntil returns the shared allowance mark.
func (s *Store) InstanceLiveUntil() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.instance
}

// Atomic implements store.Substrate.
func (s *Store) Atomic(ctx context.Context, fn func(ledger.Ledger, pool.Resource) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	snapshot := s.state.clone()
	if err := fn(&Ledger{store: s, held: true}, s.heldResource()); err != nil {
		s.state = snapshot
		return err
	}
	return nil
}

// View implements store.Substrate.
func (s *Store) View(ctx context.Context, fn func(ledger.Ledger, pool.Resource) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(&Ledger{store: s, held: true}, s.heldResource())
}

// CheckConnectivity implements store.HealthStore.
func (s *Store) CheckConnectivity() error {
	return nil
}

func (s *Store) heldResource() pool.Resource {
	if s.resource != nil {
		return s.resource
	}
	return &Registry{store: s, held: true}
}

// lock acquires the store mutex unless the caller already holds it and
// returns the matching release.
func (s *Store) lock(held bool) func() {
	if held {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}
