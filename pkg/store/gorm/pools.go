package gorm

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/doodlesbykumbi/admin-transfer/pkg/identity"
	"github.com/doodlesbykumbi/admin-transfer/pkg/model"
	"github.com/doodlesbykumbi/admin-transfer/pkg/pool"
	"github.com/doodlesbykumbi/admin-transfer/pkg/store"
)

// Ensure PoolRegistry implements store.PoolRegistry
var _ store.PoolRegistry = (*PoolRegistry)(nil)

const uniqueViolation = "23505"

// PoolRegistry implements store.PoolRegistry using GORM
type PoolRegistry struct {
	db      *gorm.DB
	locking bool
}

// NewPoolRegistry creates a new PoolRegistry
func NewPoolRegistry(db *gorm.DB) *PoolRegistry {
	return &PoolRegistry{db: db}
}

func (r *PoolRegistry) find(ctx context.Context, p identity.Address) (*model.Pool, error) {
	tx := r.db.WithContext(ctx)
	if r.locking {
		tx = tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var row model.Pool
	err := tx.Where("pool_id = ?", p.String()).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", pool.ErrPoolNotFound, p)
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// Admin returns the pool's administrator.
func (r *PoolRegistry) Admin(ctx context.Context, p identity.Address) (identity.Address, error) {
	row, err := r.find(ctx, p)
	if err != nil {
		return "", err
	}
	return identity.Address(row.Admin), nil
}

// SetAdmin changes the administrator if caller is the current one.
func (r *PoolRegistry) SetAdmin(ctx context.Context, p, caller, newAdmin identity.Address) error {
	row, err := r.find(ctx, p)
	if err != nil {
		return err
	}
	if err := pool.Authorize(identity.Address(row.Admin), caller); err != nil {
		return err
	}
	return r.db.WithContext(ctx).Model(row).Update("admin", newAdmin.String()).Error
}

// Register creates a pool.
func (r *PoolRegistry) Register(ctx context.Context, p, admin identity.Address) error {
	err := r.db.WithContext(ctx).Create(&model.Pool{
		PoolID: p.String(),
		Admin:  admin.String(),
	}).Error

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %s", pool.ErrPoolExists, p)
	}
	return err
}
