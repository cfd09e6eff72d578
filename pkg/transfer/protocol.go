package transfer

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/doodlesbykumbi/admin-transfer/pkg/audit"
	"github.com/doodlesbykumbi/admin-transfer/pkg/identity"
	"github.com/doodlesbykumbi/admin-transfer/pkg/ledger"
	"github.com/doodlesbykumbi/admin-transfer/pkg/pool"
	"github.com/doodlesbykumbi/admin-transfer/pkg/store"
)

// Protocol moves pool administration from one authority to another in two
// steps, holding the pool itself in between.
type Protocol struct {
	substrate store.Substrate
	self      identity.Address

	auth                 identity.Authenticator
	policy               atomic.Pointer[ledger.Policy]
	initialPolicy        ledger.Policy
	audit                audit.Sink
	log                  zerolog.Logger
	now                  func() time.Time
	allowUnauthenticated bool
}

// New creates a Protocol that acts as self towards pools.
func New(substrate store.Substrate, self identity.Address, opts ...Option) (*Protocol, error) {
	if substrate == nil {
		return nil, errors.New("transfer protocol requires a substrate")
	}
	if self.IsZero() {
		return nil, fmt.Errorf("%w: protocol address is empty", identity.ErrInvalidAddress)
	}

	p := &Protocol{
		substrate:     substrate,
		self:          self,
		auth:          identity.ContextAuthenticator{},
		initialPolicy: ledger.DefaultPolicy(),
		log:           log.With().Str("component", "transfer").Logger(),
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.audit == nil {
		p.audit = audit.Default()
	}
	if err := p.SetPolicy(p.initialPolicy); err != nil {
		return nil, err
	}
	return p, nil
}

// Self returns the protocol's own address.
func (p *Protocol) Self() identity.Address {
	return p.self
}

// Policy returns the retention windows in effect.
func (p *Protocol) Policy() ledger.Policy {
	return *p.policy.Load()
}

// SetPolicy replaces the retention windows for subsequent operations.
func (p *Protocol) SetPolicy(policy ledger.Policy) error {
	if err := policy.Validate(); err != nil {
		return fmt.Errorf("invalid retention policy: %w", err)
	}
	p.policy.Store(&policy)
	return nil
}

// Propose starts a transfer of poolAddr from currentAdmin to newAdmin.
//
// The caller must control currentAdmin, and currentAdmin must be the pool's
// administrator: the pool itself refuses the hand-off otherwise. On success
// the protocol is the pool's administrator until Accept or Cancel.
func (p *Protocol) Propose(ctx context.Context, poolAddr, currentAdmin, newAdmin identity.Address) error {
	err := p.propose(ctx, poolAddr, currentAdmin, newAdmin)
	p.report(ctx, audit.OperationPropose, ledger.Record{Pool: poolAddr, CurrentAdmin: currentAdmin, NewAdmin: newAdmin}, err)
	return err
}

func (p *Protocol) propose(ctx context.Context, poolAddr, currentAdmin, newAdmin identity.Address) error {
	if err := validate(poolAddr, newAdmin); err != nil {
		return err
	}
	policy := p.Policy()

	return p.substrate.Atomic(ctx, func(l ledger.Ledger, r pool.Resource) error {
		if err := p.ensureVacant(ctx, l, poolAddr); err != nil {
			return err
		}
		if err := p.auth.RequireCaller(ctx, currentAdmin); err != nil {
			return err
		}
		if err := extendInstance(ctx, l, policy); err != nil {
			return err
		}
		if err := pool.NewProxy(r).SetAdmin(ctx, poolAddr, currentAdmin, p.self); err != nil {
			return err
		}
		return p.write(ctx, l, policy, ledger.Record{
			Pool:         poolAddr,
			CurrentAdmin: currentAdmin,
			NewAdmin:     newAdmin,
		})
	})
}

// ProposeUnauthenticated records a transfer of poolAddr to newAdmin without
// proving who controls the pool. It is only available when the protocol was
// built with WithUnauthenticatedPropose and only succeeds when the pool's
// administrator is already the protocol. The record has no current admin.
func (p *Protocol) ProposeUnauthenticated(ctx context.Context, poolAddr, newAdmin identity.Address) error {
	err := p.proposeUnauthenticated(ctx, poolAddr, newAdmin)
	p.report(ctx, audit.OperationPropose, ledger.Record{Pool: poolAddr, NewAdmin: newAdmin}, err)
	return err
}

func (p *Protocol) proposeUnauthenticated(ctx context.Context, poolAddr, newAdmin identity.Address) error {
	if !p.allowUnauthenticated {
		return ErrVariantDisabled
	}
	if err := validate(poolAddr, newAdmin); err != nil {
		return err
	}
	policy := p.Policy()

	return p.substrate.Atomic(ctx, func(l ledger.Ledger, r pool.Resource) error {
		if err := p.ensureVacant(ctx, l, poolAddr); err != nil {
			return err
		}
		if err := extendInstance(ctx, l, policy); err != nil {
			return err
		}
		if err := pool.NewProxy(r).SetAdmin(ctx, poolAddr, p.self, p.self); err != nil {
			return err
		}
		return p.write(ctx, l, policy, ledger.Record{Pool: poolAddr, NewAdmin: newAdmin})
	})
}

// Accept completes the pending transfer of poolAddr. The caller must control
// the proposed new admin.
func (p *Protocol) Accept(ctx context.Context, poolAddr identity.Address) error {
	rec, err := p.accept(ctx, poolAddr)
	p.report(ctx, audit.OperationAccept, orPool(rec, poolAddr), err)
	return err
}

func (p *Protocol) accept(ctx context.Context, poolAddr identity.Address) (*ledger.Record, error) {
	policy := p.Policy()

	var rec *ledger.Record
	err := p.substrate.Atomic(ctx, func(l ledger.Ledger, r pool.Resource) error {
		var err error
		if rec, err = p.pending(ctx, l, poolAddr); err != nil {
			return err
		}
		if err := p.auth.RequireCaller(ctx, rec.NewAdmin); err != nil {
			return err
		}
		if err := extendInstance(ctx, l, policy); err != nil {
			return err
		}
		if err := pool.NewProxy(r).SetAdmin(ctx, poolAddr, p.self, rec.NewAdmin); err != nil {
			return err
		}
		return remove(ctx, l, poolAddr)
	})
	return rec, err
}

// Cancel abandons the pending transfer of poolAddr and returns the pool to
// its recorded admin. The caller must control that admin.
func (p *Protocol) Cancel(ctx context.Context, poolAddr identity.Address) error {
	rec, err := p.cancel(ctx, poolAddr)
	p.report(ctx, audit.OperationCancel, orPool(rec, poolAddr), err)
	return err
}

func (p *Protocol) cancel(ctx context.Context, poolAddr identity.Address) (*ledger.Record, error) {
	policy := p.Policy()

	var rec *ledger.Record
	err := p.substrate.Atomic(ctx, func(l ledger.Ledger, r pool.Resource) error {
		var err error
		if rec, err = p.pending(ctx, l, poolAddr); err != nil {
			return err
		}
		if err := p.auth.RequireCaller(ctx, rec.CurrentAdmin); err != nil {
			return err
		}
		if err := pool.NewProxy(r).SetAdmin(ctx, poolAddr, p.self, rec.CurrentAdmin); err != nil {
			return err
		}
		if err := extendInstance(ctx, l, policy); err != nil {
			return err
		}
		return remove(ctx, l, poolAddr)
	})
	return rec, err
}

// Get returns the pending transfer for poolAddr, or nil if there is none.
func (p *Protocol) Get(ctx context.Context, poolAddr identity.Address) (*ledger.Record, error) {
	var rec *ledger.Record
	err := p.substrate.View(ctx, func(l ledger.Ledger, _ pool.Resource) error {
		var err error
		rec, err = l.Get(ctx, poolAddr)
		if err != nil {
			return fmt.Errorf("failed to read transfer for pool %s: %w", poolAddr, err)
		}
		return nil
	})
	return rec, err
}

// Custody reports who controls poolAddr.
func (p *Protocol) Custody(ctx context.Context, poolAddr identity.Address) (*Custody, error) {
	c := &Custody{Pool: poolAddr}
	err := p.substrate.View(ctx, func(l ledger.Ledger, r pool.Resource) error {
		admin, err := pool.NewProxy(r).Admin(ctx, poolAddr)
		if err != nil {
			return err
		}
		c.Admin = admin

		rec, err := l.Get(ctx, poolAddr)
		if err != nil {
			return fmt.Errorf("failed to read transfer for pool %s: %w", poolAddr, err)
		}
		if rec != nil {
			c.State = StatePending
			c.Record = rec
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !c.Consistent(p.self) {
		p.log.Warn().
			Str("pool", poolAddr.String()).
			Str("admin", c.Admin.String()).
			Str("state", c.State.String()).
			Msg("pool admin and transfer ledger disagree")
	}
	return c, nil
}

// Expiring lists pending transfers whose retention mark falls within the
// given duration from now, oldest first.
func (p *Protocol) Expiring(ctx context.Context, within time.Duration) ([]ledger.Record, error) {
	before := p.now().Add(within)
	var recs []ledger.Record
	err := p.substrate.View(ctx, func(l ledger.Ledger, _ pool.Resource) error {
		var err error
		recs, err = l.Expiring(ctx, before)
		return err
	})
	return recs, err
}

func (p *Protocol) ensureVacant(ctx context.Context, l ledger.Ledger, poolAddr identity.Address) error {
	has, err := l.Has(ctx, poolAddr)
	if err != nil {
		return fmt.Errorf("failed to read transfer for pool %s: %w", poolAddr, err)
	}
	if has {
		return fmt.Errorf("%w: pool %s", ErrTransferAlreadyPending, poolAddr)
	}
	return nil
}

func (p *Protocol) pending(ctx context.Context, l ledger.Ledger, poolAddr identity.Address) (*ledger.Record, error) {
	rec, err := l.Get(ctx, poolAddr)
	if err != nil {
		return nil, fmt.Errorf("failed to read transfer for pool %s: %w", poolAddr, err)
	}
	if rec == nil {
		return nil, fmt.Errorf("%w: pool %s", ErrNoTransferPending, poolAddr)
	}
	return rec, nil
}

func (p *Protocol) write(ctx context.Context, l ledger.Ledger, policy ledger.Policy, rec ledger.Record) error {
	if err := l.Set(ctx, rec); err != nil {
		return fmt.Errorf("failed to record transfer for pool %s: %w", rec.Pool, err)
	}
	if err := l.ExtendTTL(ctx, rec.Pool, policy.Transfer.Threshold, policy.Transfer.ExtendTo); err != nil {
		return fmt.Errorf("failed to extend transfer for pool %s: %w", rec.Pool, err)
	}
	return nil
}

func extendInstance(ctx context.Context, l ledger.Ledger, policy ledger.Policy) error {
	if err := l.ExtendInstance(ctx, policy.Instance.Threshold, policy.Instance.ExtendTo); err != nil {
		return fmt.Errorf("failed to extend instance allowance: %w", err)
	}
	return nil
}

func remove(ctx context.Context, l ledger.Ledger, poolAddr identity.Address) error {
	if err := l.Remove(ctx, poolAddr); err != nil {
		return fmt.Errorf("failed to remove transfer for pool %s: %w", poolAddr, err)
	}
	return nil
}

func validate(poolAddr, newAdmin identity.Address) error {
	if poolAddr.IsZero() {
		return fmt.Errorf("%w: pool is empty", identity.ErrInvalidAddress)
	}
	if newAdmin.IsZero() {
		return fmt.Errorf("%w: new admin is empty", identity.ErrInvalidAddress)
	}
	return nil
}

func orPool(rec *ledger.Record, poolAddr identity.Address) ledger.Record {
	if rec != nil {
		return *rec
	}
	return ledger.Record{Pool: poolAddr}
}

// report writes the audit event and log line for a mutating operation.
func (p *Protocol) report(ctx context.Context, op string, rec ledger.Record, err error) {
	id, _ := identity.Get(ctx)

	event := audit.TransferEvent{
		Operation:    op,
		Caller:       identity.Caller(ctx).String(),
		ClientIP:     id.ClientIP(),
		Pool:         rec.Pool.String(),
		CurrentAdmin: rec.CurrentAdmin.String(),
		NewAdmin:     rec.NewAdmin.String(),
		Success:      err == nil,
	}
	if err != nil {
		event.ErrorMessage = err.Error()
	}
	p.audit.Log(event)

	var logEvent *zerolog.Event
	if err != nil {
		logEvent = p.log.Warn().Err(err).Stringer("kind", KindOf(err))
	} else {
		logEvent = p.log.Info()
	}
	logEvent.
		Str("operation", op).
		Str("pool", rec.Pool.String()).
		Str("current_admin", rec.CurrentAdmin.String()).
		Str("new_admin", rec.NewAdmin.String()).
		Msg("admin transfer " + op)
}
