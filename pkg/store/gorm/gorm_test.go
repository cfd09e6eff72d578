package gorm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/doodlesbykumbi/admin-transfer/pkg/identity"
	"github.com/doodlesbykumbi/admin-transfer/pkg/ledger"
	"github.com/doodlesbykumbi/admin-transfer/pkg/pool"
)

var fixedNow = time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)

func setupTestDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = mockDB.Close() })

	gormDB, err := gorm.Open(
		postgres.New(postgres.Config{
			Conn:                 mockDB,
			PreferSimpleProtocol: true,
		}),
		&gorm.Config{
			Logger:                 logger.Default.LogMode(logger.Silent),
			SkipDefaultTransaction: true,
		},
	)
	require.NoError(t, err)

	return gormDB, mock
}

func testLedger(db *gorm.DB) *Ledger {
	return NewLedger(db).WithClock(func() time.Time { return fixedNow })
}

func transferRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"pool", "current_admin", "new_admin", "live_until", "created_at"})
}

func TestLedger_Has(t *testing.T) {
	db, mock := setupTestDB(t)
	l := testLedger(db)

	mock.ExpectQuery(`SELECT count\(.*\) FROM "admin_transfers" WHERE pool = \$1`).
		WithArgs("pool-a").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	has, err := l.Has(context.Background(), "pool-a")
	require.NoError(t, err)
	assert.True(t, has)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedger_Get(t *testing.T) {
	db, mock := setupTestDB(t)
	l := testLedger(db)
	liveUntil := fixedNow.Add(120 * ledger.OneDay)

	mock.ExpectQuery(`SELECT \* FROM "admin_transfers" WHERE pool = \$1 LIMIT 1`).
		WithArgs("pool-a").
		WillReturnRows(transferRows().AddRow("pool-a", "alice", "bob", liveUntil, fixedNow))

	rec, err := l.Get(context.Background(), "pool-a")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, ledger.Record{Pool: "pool-a", CurrentAdmin: "alice", NewAdmin: "bob", LiveUntil: liveUntil}, *rec)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedger_GetMissing(t *testing.T) {
	db, mock := setupTestDB(t)
	l := testLedger(db)

	mock.ExpectQuery(`SELECT \* FROM "admin_transfers" WHERE pool = \$1 LIMIT 1`).
		WithArgs("pool-a").
		WillReturnRows(transferRows())

	rec, err := l.Get(context.Background(), "pool-a")
	require.NoError(t, err)
	assert.Nil(t, rec)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedger_Set(t *testing.T) {
	db, mock := setupTestDB(t)
	l := testLedger(db)

	mock.ExpectExec(`INSERT INTO "admin_transfers" .* ON CONFLICT \("pool"\) DO UPDATE SET`).
		WithArgs("pool-a", "alice", "bob", fixedNow, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := l.Set(context.Background(), ledger.Record{Pool: "pool-a", CurrentAdmin: "alice", NewAdmin: "bob"})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedger_Remove(t *testing.T) {
	db, mock := setupTestDB(t)
	l := testLedger(db)

	mock.ExpectExec(`DELETE FROM "admin_transfers" WHERE pool = \$1`).
		WithArgs("pool-a").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, l.Remove(context.Background(), "pool-a"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedger_ExtendTTL(t *testing.T) {
	p := ledger.DefaultPolicy().Transfer

	t.Run("extended", func(t *testing.T) {
		db, mock := setupTestDB(t)
		l := testLedger(db)

		mock.ExpectExec(`UPDATE "admin_transfers" SET "live_until"=\$1 WHERE pool = \$2 AND live_until <= \$3`).
			WithArgs(fixedNow.Add(p.ExtendTo), "pool-a", fixedNow.Add(p.Threshold)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, l.ExtendTTL(context.Background(), "pool-a", p.Threshold, p.ExtendTo))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("above threshold", func(t *testing.T) {
		db, mock := setupTestDB(t)
		l := testLedger(db)

		mock.ExpectExec(`UPDATE "admin_transfers"`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(`SELECT count\(.*\) FROM "admin_transfers"`).
			WithArgs("pool-a").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

		require.NoError(t, l.ExtendTTL(context.Background(), "pool-a", p.Threshold, p.ExtendTo))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing", func(t *testing.T) {
		db, mock := setupTestDB(t)
		l := testLedger(db)

		mock.ExpectExec(`UPDATE "admin_transfers"`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(`SELECT count\(.*\) FROM "admin_transfers"`).
			WithArgs("pool-a").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

		err := l.ExtendTTL(context.Background(), "pool-a", p.Threshold, p.ExtendTo)
		assert.ErrorIs(t, err, ledger.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestLedger_ExtendInstance(t *testing.T) {
	db, mock := setupTestDB(t)
	l := testLedger(db)
	p := ledger.DefaultPolicy().Instance

	mock.ExpectExec(`INSERT INTO instance_state \(id, live_until\) VALUES \(\$1, \$2\)\s+ON CONFLICT \(id\) DO UPDATE`).
		WithArgs(1, fixedNow.Add(p.ExtendTo), fixedNow.Add(p.Threshold)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, l.ExtendInstance(context.Background(), p.Threshold, p.ExtendTo))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedger_Expiring(t *testing.T) {
	db, mock := setupTestDB(t)
	l := testLedger(db)
	before := fixedNow.Add(3 * ledger.OneDay)

	mock.ExpectQuery(`SELECT \* FROM "admin_transfers" WHERE live_until <= \$1 ORDER BY live_until, pool`).
		WithArgs(before).
		WillReturnRows(transferRows().
			AddRow("pool-a", "alice", "bob", fixedNow.Add(ledger.OneDay), fixedNow).
			AddRow("pool-b", "", "carol", fixedNow.Add(2*ledger.OneDay), fixedNow))

	recs, err := l.Expiring(context.Background(), before)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, identity.Address("pool-a"), recs[0].Pool)
	assert.True(t, recs[1].CurrentAdmin.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPoolRegistry_SetAdmin(t *testing.T) {
	db, mock := setupTestDB(t)
	r := NewPoolRegistry(db)

	mock.ExpectQuery(`SELECT \* FROM "pools" WHERE pool_id = \$1 LIMIT 1`).
		WithArgs("pool-a").
		WillReturnRows(sqlmock.NewRows([]string{"pool_id", "admin", "created_at", "updated_at"}).
			AddRow("pool-a", "alice", fixedNow, fixedNow))
	mock.ExpectExec(`UPDATE "pools" SET "admin"=\$1,"updated_at"=\$2 WHERE .*"pool_id" = \$3`).
		WithArgs("bob", sqlmock.AnyArg(), "pool-a").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, r.SetAdmin(context.Background(), "pool-a", "alice", "bob"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPoolRegistry_SetAdminNotAdmin(t *testing.T) {
	db, mock := setupTestDB(t)
	r := NewPoolRegistry(db)

	mock.ExpectQuery(`SELECT \* FROM "pools"`).
		WithArgs("pool-a").
		WillReturnRows(sqlmock.NewRows([]string{"pool_id", "admin"}).AddRow("pool-a", "alice"))

	err := r.SetAdmin(context.Background(), "pool-a", "mallory", "mallory")
	assert.ErrorIs(t, err, pool.ErrNotAdmin)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPoolRegistry_AdminNotFound(t *testing.T) {
	db, mock := setupTestDB(t)
	r := NewPoolRegistry(db)

	mock.ExpectQuery(`SELECT \* FROM "pools"`).
		WithArgs("pool-a").
		WillReturnRows(sqlmock.NewRows([]string{"pool_id", "admin"}))

	_, err := r.Admin(context.Background(), "pool-a")
	assert.ErrorIs(t, err, pool.ErrPoolNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPoolRegistry_RegisterDuplicate(t *testing.T) {
	db, mock := setupTestDB(t)
	r := NewPoolRegistry(db)

	mock.ExpectExec(`INSERT INTO "pools"`).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	err := r.Register(context.Background(), "pool-a", "alice")
	assert.ErrorIs(t, err, pool.ErrPoolExists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubstrate_AtomicLocksAndCommits(t *testing.T) {
	db, mock := setupTestDB(t)
	s := NewSubstrate(db, WithClock(func() time.Time { return fixedNow }))

	mock.ExpectBegin()
	mock.ExpectExec(`SELECT pg_advisory_xact_lock\(hashtext\(\$1\)\)`).
		WithArgs("pool-a").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT \* FROM "admin_transfers" WHERE pool = \$1 LIMIT 1 FOR UPDATE`).
		WithArgs("pool-a").
		WillReturnRows(transferRows())
	mock.ExpectCommit()

	err := s.Atomic(context.Background(), func(l ledger.Ledger, _ pool.Resource) error {
		rec, err := l.Get(context.Background(), "pool-a")
		assert.Nil(t, rec)
		return err
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubstrate_AtomicRollsBack(t *testing.T) {
	db, mock := setupTestDB(t)
	s := NewSubstrate(db, WithClock(func() time.Time { return fixedNow }))
	boom := errors.New("boom")

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "admin_transfers"`).
		WithArgs("pool-a").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectRollback()

	err := s.Atomic(context.Background(), func(l ledger.Ledger, _ pool.Resource) error {
		if err := l.Remove(context.Background(), "pool-a"); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubstrate_AtomicRollsBackOnStatementError(t *testing.T) {
	db, mock := setupTestDB(t)
	s := NewSubstrate(db, WithClock(func() time.Time { return fixedNow }))
	dbErr := errors.New("connection reset")

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "admin_transfers"`).
		WithArgs("pool-a").
		WillReturnError(dbErr)
	mock.ExpectRollback()

	err := s.Atomic(context.Background(), func(l ledger.Ledger, _ pool.Resource) error {
		return l.Remove(context.Background(), "pool-a")
	})
	assert.ErrorIs(t, err, dbErr)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHealthStore(t *testing.T) {
	db, mock := setupTestDB(t)

	mock.ExpectExec(`SELECT 1`).WillReturnResult(sqlmock.NewResult(0, 0))
	assert.NoError(t, NewHealthStore(db).CheckConnectivity())
	assert.NoError(t, mock.ExpectationsWereMet())
}
