package gorm

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/doodlesbykumbi/admin-transfer/pkg/identity"
	"github.com/doodlesbykumbi/admin-transfer/pkg/ledger"
	"github.com/doodlesbykumbi/admin-transfer/pkg/model"
)

// Ensure Ledger implements ledger.Ledger
var _ ledger.Ledger = (*Ledger)(nil)

const upsertInstanceSQL = `INSERT INTO instance_state (id, live_until) VALUES (?, ?)
ON CONFLICT (id) DO UPDATE SET live_until = EXCLUDED.live_until
WHERE instance_state.live_until <= ?`

// Ledger implements ledger.Ledger using GORM
type Ledger struct {
	db  *gorm.DB
	now func() time.Time
	// locking is set when db is a transaction opened by Substrate.Atomic.
	locking bool
}

// NewLedger creates a new Ledger
func NewLedger(db *gorm.DB) *Ledger {
	return &Ledger{db: db, now: time.Now}
}

// WithClock returns a copy of l that reads the time from now.
func (l *Ledger) WithClock(now func() time.Time) *Ledger {
	c := *l
	c.now = now
	return &c
}

func (l *Ledger) conn(ctx context.Context) *gorm.DB {
	return l.db.WithContext(ctx)
}

func (l *Ledger) lock(ctx context.Context, pool identity.Address) error {
	if !l.locking {
		return nil
	}
	return l.conn(ctx).Exec("SELECT pg_advisory_xact_lock(hashtext(?))", pool.String()).Error
}

func (l *Ledger) count(ctx context.Context, pool identity.Address) (int64, error) {
	var n int64
	err := l.conn(ctx).Model(&model.AdminTransfer{}).Where("pool = ?", pool.String()).Count(&n).Error
	return n, err
}

// Has reports whether a transfer is recorded for pool.
func (l *Ledger) Has(ctx context.Context, pool identity.Address) (bool, error) {
	if err := l.lock(ctx, pool); err != nil {
		return false, err
	}
	n, err := l.count(ctx, pool)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Get returns the transfer recorded for pool, or nil.
func (l *Ledger) Get(ctx context.Context, pool identity.Address) (*ledger.Record, error) {
	if err := l.lock(ctx, pool); err != nil {
		return nil, err
	}

	tx := l.conn(ctx)
	if l.locking {
		tx = tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var row model.AdminTransfer
	err := tx.Where("pool = ?", pool.String()).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	rec := toRecord(row)
	return &rec, nil
}

// Set inserts or replaces the transfer for rec.Pool.
func (l *Ledger) Set(ctx context.Context, rec ledger.Record) error {
	if rec.LiveUntil.IsZero() {
		rec.LiveUntil = l.now()
	}
	row := model.AdminTransfer{
		Pool:         rec.Pool.String(),
		CurrentAdmin: rec.CurrentAdmin.String(),
		NewAdmin:     rec.NewAdmin.String(),
		LiveUntil:    rec.LiveUntil.UTC(),
	}
	return l.conn(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "pool"}},
		DoUpdates: clause.AssignmentColumns([]string{"current_admin", "new_admin", "live_until"}),
	}).Create(&row).Error
}

// Remove deletes the transfer for pool.
func (l *Ledger) Remove(ctx context.Context, pool identity.Address) error {
	return l.conn(ctx).Where("pool = ?", pool.String()).Delete(&model.AdminTransfer{}).Error
}

// ExtendTTL pushes live_until forward in one conditional UPDATE.
func (l *Ledger) ExtendTTL(ctx context.Context, pool identity.Address, threshold, extendTo time.Duration) error {
	now := l.now().UTC()
	res := l.conn(ctx).Model(&model.AdminTransfer{}).
		Where("pool = ? AND live_until <= ?", pool.String(), now.Add(threshold)).
		Update("live_until", now.Add(extendTo))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}

	n, err := l.count(ctx, pool)
	if err != nil {
		return err
	}
	if n == 0 {
		return ledger.ErrNotFound
	}
	return nil
}

// ExtendInstance upserts the single instance_state row.
func (l *Ledger) ExtendInstance(ctx context.Context, threshold, extendTo time.Duration) error {
	now := l.now().UTC()
	return l.conn(ctx).Exec(upsertInstanceSQL, model.InstanceStateID, now.Add(extendTo), now.Add(threshold)).Error
}

// InstanceLiveUntil returns the shared allowance mark, zero if never extended.
func (l *Ledger) InstanceLiveUntil(ctx context.Context) (time.Time, error) {
	var row model.InstanceState
	err := l.conn(ctx).Where("id = ?", model.InstanceStateID).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return time.Time{}, nil
	}
	return row.LiveUntil, err
}

// Expiring lists transfers with live_until at or before before.
func (l *Ledger) Expiring(ctx context.Context, before time.Time) ([]ledger.Record, error) {
	var rows []model.AdminTransfer
	err := l.conn(ctx).
		Where("live_until <= ?", before.UTC()).
		Order("live_until, pool").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	recs := make([]ledger.Record, 0, len(rows))
	for _, row := range rows {
		recs = append(recs, toRecord(row))
	}
	return recs, nil
}

func toRecord(row model.AdminTransfer) ledger.Record {
	return ledger.Record{
		Pool:         identity.Address(row.Pool),
		CurrentAdmin: identity.Address(row.CurrentAdmin),
		NewAdmin:     identity.Address(row.NewAdmin),
		LiveUntil:    row.LiveUntil,
	}
}
