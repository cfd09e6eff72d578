package gorm

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/doodlesbykumbi/admin-transfer/pkg/ledger"
	"github.com/doodlesbykumbi/admin-transfer/pkg/pool"
	"github.com/doodlesbykumbi/admin-transfer/pkg/store"
)

// Ensure Substrate implements store.Substrate
var _ store.Substrate = (*Substrate)(nil)

// Substrate runs units of work in database transactions.
type Substrate struct {
	db       *gorm.DB
	now      func() time.Time
	resource pool.Resource
}

// Option configures a Substrate.
type Option func(*Substrate)

// WithClock sets the clock used for retention marks.
func WithClock(now func() time.Time) Option {
	return func(s *Substrate) {
		s.now = now
	}
}

// WithResource routes pool calls to r instead of the pools table. Changes
// made by r are outside the database transaction.
func WithResource(r pool.Resource) Option {
	return func(s *Substrate) {
		s.resource = r
	}
}

// NewSubstrate creates a new Substrate
func NewSubstrate(db *gorm.DB, opts ...Option) *Substrate {
	s := &Substrate{db: db, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Atomic runs fn in a transaction that is rolled back if fn fails.
func (s *Substrate) Atomic(ctx context.Context, fn func(ledger.Ledger, pool.Resource) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(s.ledger(tx, true), s.pools(tx, true))
	})
}

// View runs fn outside a transaction.
func (s *Substrate) View(ctx context.Context, fn func(ledger.Ledger, pool.Resource) error) error {
	db := s.db.WithContext(ctx)
	return fn(s.ledger(db, false), s.pools(db, false))
}

func (s *Substrate) ledger(db *gorm.DB, locking bool) *Ledger {
	return &Ledger{db: db, now: s.now, locking: locking}
}

func (s *Substrate) pools(db *gorm.DB, locking bool) pool.Resource {
	if s.resource != nil {
		return s.resource
	}
	return &PoolRegistry{db: db, locking: locking}
}
