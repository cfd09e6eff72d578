package memory

import (
	"context"
	"sort"
	"time"

	"github.com/doodlesbykumbi/admin-transfer/pkg/identity"
	"github.com/doodlesbykumbi/admin-transfer/pkg/ledger"
)

// Ledger implements ledger.Ledger over a Store.
type Ledger struct {
	store *Store
	held  bool
}

// Has reports whether pool has a pending transfer.
func (l *Ledger) Has(_ context.Context, pool identity.Address) (bool, error) {
	defer l.store.lock(l.held)()
	_, ok := l.store.state.transfers[pool]
	return ok, nil
}

// Get returns the pending transfer for pool, or nil if there is none.
func (l *Ledger) Get(_ context.Context, pool identity.Address) (*ledger.Record, error) {
	defer l.store.lock(l.held)()
	rec, ok := l.store.state.transfers[pool]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

// Set stores rec, stamping LiveUntil with the current time when unset.
func (l *Ledger) Set(_ context.Context, rec ledger.Record) error {
	defer l.store.lock(l.held)()
	if rec.LiveUntil.IsZero() {
		rec.LiveUntil = l.store.now()
	}
	l.store.state.transfers[rec.Pool] = rec
	return nil
}

// Remove deletes the pending transfer for pool, if any.
func (l *Ledger) Remove(_ context.Context, pool identity.Address) error {
	defer l.store.lock(l.held)()
	delete(l.store.state.transfers, pool)
	return nil
}

// ExtendTTL pushes the record's expiry to now+extendTo once it falls within threshold.
func (l *Ledger) ExtendTTL(_ context.Context, pool identity.Address, threshold, extendTo time.Duration) error {
	defer l.store.lock(l.held)()
	rec, ok := l.store.state.transfers[pool]
	if !ok {
		return ledger.ErrNotFound
	}
	now := l.store.now()
	if ledger.NeedsExtension(rec.LiveUntil, now, threshold) {
		rec.LiveUntil = now.Add(extendTo)
		l.store.state.transfers[pool] = rec
	}
	return nil
}

// ExtendInstance extends the instance liveness deadline the same way as ExtendTTL.
func (l *Ledger) ExtendInstance(_ context.Context, threshold, extendTo time.Duration) error {
	defer l.store.lock(l.held)()
	now := l.store.now()
	if ledger.NeedsExtension(l.store.state.instance, now, threshold) {
		l.store.state.instance = now.Add(extendTo)
	}
	return nil
}

// Expiring returns records live no later than before, oldest first.
func (l *Ledger) Expiring(_ context.Context, before time.Time) ([]ledger.Record, error) {
	defer l.store.lock(l.held)()
	var out []ledger.Record
	for _, rec := range l.store.state.transfers {
		if !rec.LiveUntil.After(before) {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].LiveUntil.Equal(out[j].LiveUntil) {
			return out[i].Pool < out[j].Pool
		}
		return out[i].LiveUntil.Before(out[j].LiveUntil)
	})
	return out, nil
}
