// Package gorm provides GORM-based implementations of the store interfaces
// defined in the parent store package.
//
// Units of work run inside one database transaction. Ledger reads taken in a
// transaction first acquire a transaction-scoped advisory lock on the pool
// key and read the row FOR UPDATE, so two operations on the same pool are
// serialized even when no row exists yet. Pool rows are read FOR UPDATE
// before their admin is changed.
package gorm
