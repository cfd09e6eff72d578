package integration

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/gorm"

	"github.com/doodlesbykumbi/admin-transfer/pkg/audit"
	"github.com/doodlesbykumbi/admin-transfer/pkg/db"
)

// TestContext holds the resources shared by every scenario. DB is nil when
// the suite runs against the in-memory substrate.
type TestContext struct {
	DB          *gorm.DB
	RawDB       *sql.DB
	Container   testcontainers.Container
	DatabaseURL string
	AuditStore  *audit.Store
}

// usePostgres reports whether scenarios run against a PostgreSQL container.
func usePostgres() bool {
	return os.Getenv("INTEGRATION_TEST") != ""
}

// NewTestContext starts a PostgreSQL testcontainer and applies the embedded
// migrations when INTEGRATION_TEST is set. Otherwise it returns an empty
// context and each scenario gets its own in-memory store.
func NewTestContext(ctx context.Context) (*TestContext, error) {
	if !usePostgres() {
		log.Println("Using in-memory substrate")
		return &TestContext{}, nil
	}

	pgContainer, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("transfer_test"),
		tcpostgres.WithUsername("transfer"),
		tcpostgres.WithPassword("transfer"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start postgres container: %w", err)
	}

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = pgContainer.Terminate(ctx)
		return nil, fmt.Errorf("failed to get connection string: %w", err)
	}

	if _, _, err := db.MigrateUp(connStr); err != nil {
		_ = pgContainer.Terminate(ctx)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	conn, err := db.Connect(db.Config{URL: connStr})
	if err != nil {
		_ = pgContainer.Terminate(ctx)
		return nil, err
	}
	rawDB, err := conn.DB()
	if err != nil {
		_ = pgContainer.Terminate(ctx)
		return nil, fmt.Errorf("failed to get raw db: %w", err)
	}

	log.Printf("Using postgres substrate at %s", connStr)
	return &TestContext{
		DB:          conn,
		RawDB:       rawDB,
		Container:   pgContainer,
		DatabaseURL: connStr,
		AuditStore:  audit.NewStoreWithDB(rawDB),
	}, nil
}

// Reset empties every table between scenarios.
func (tc *TestContext) Reset() error {
	if tc.DB == nil {
		return nil
	}
	return tc.DB.Exec(`TRUNCATE pools, admin_transfers, instance_state, messages`).Error
}

// Close cleans up all test resources
func (tc *TestContext) Close(ctx context.Context) {
	if tc.RawDB != nil {
		_ = tc.RawDB.Close()
	}
	if tc.Container != nil {
		_ = tc.Container.Terminate(ctx)
	}
}
