package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/doodlesbykumbi/admin-transfer/pkg/db"
)

// dbMigrateCmd represents the db migrate command
var dbMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create and/or upgrade the database schema",
	Long: `Create and/or upgrade the database schema.

This command runs all pending database migrations to bring the schema
up to date. Migrations are embedded in the binary.

Example:
  transferctl db migrate`,
	Run: func(cmd *cobra.Command, args []string) {
		version, changed, err := db.MigrateUp(db.URL())
		if err != nil {
			fail("Migration failed: %v", err)
		}
		if !changed {
			fmt.Printf("No migrations to run - database is up to date (version %d)\n", version)
			return
		}
		fmt.Printf("Migrated to version: %d\n", version)
	},
}

var dbMigrateDownCmd = &cobra.Command{
	Use:   "down [steps]",
	Short: "Rollback database migrations",
	Long: `Rollback database migrations.

This command rolls back the specified number of migrations (default: 1).

Example:
  transferctl db down      # Rollback 1 migration
  transferctl db down 3    # Rollback 3 migrations`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		steps := 1
		if len(args) > 0 {
			n, err := strconv.Atoi(args[0])
			if err != nil {
				fail("Invalid step count %q", args[0])
			}
			steps = n
		}

		fmt.Printf("Rolling back %d migration(s)...\n", steps)
		version, err := db.MigrateDown(db.URL(), steps)
		if err != nil {
			fail("Rollback failed: %v", err)
		}
		fmt.Printf("Rolled back to version: %d\n", version)
	},
}

var dbMigrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show current migration version",
	Long:  `Show the current database migration version and the embedded migrations.`,
	Run: func(cmd *cobra.Command, args []string) {
		version, dirty, applied, err := db.Status(db.URL())
		if err != nil {
			fail("Failed to get status: %v", err)
		}

		if !applied {
			fmt.Println("No migrations have been applied yet")
		} else {
			fmt.Printf("Current version: %d\n", version)
			if dirty {
				fmt.Println("Warning: Database is in a dirty state")
			}
		}

		files, err := db.MigrationFiles()
		if err != nil {
			fail("Failed to list migrations: %v", err)
		}
		fmt.Println("Embedded migrations:")
		for _, f := range files {
			fmt.Println("  " + f)
		}
	},
}

func init() {
	dbCmd.AddCommand(dbMigrateCmd)
	dbCmd.AddCommand(dbMigrateDownCmd)
	dbCmd.AddCommand(dbMigrateStatusCmd)
}
