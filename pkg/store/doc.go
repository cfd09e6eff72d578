// Package store provides storage abstractions for the admin transfer service.
//
// This package defines the interfaces the protocol and the HTTP endpoints are
// written against, so they can run over PostgreSQL in production and over an
// in-process store in tests and single-node deployments.
//
// # Available Stores
//
//   - Substrate: units of work over the transfer ledger and pool resource
//   - PoolRegistry: the built-in pool registry (pool.Resource plus Register)
//   - HealthStore: backend connectivity
//
// # Implementations
//
//   - pkg/store/memory: mutex-guarded maps, snapshot rollback
//   - pkg/store/gorm: PostgreSQL via GORM, row locks inside a transaction
package store
