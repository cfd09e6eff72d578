// Package db holds the SQL schema migrations, embedded into transferctl.
package db

import "embed"

// Migrations contains migrations/*.sql in golang-migrate file naming.
//
//go:embed migrations/*.sql
var Migrations embed.FS
