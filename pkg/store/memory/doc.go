// Package memory provides in-process implementations of the store
// interfaces.
//
// A Store keeps transfer records, the shared allowance and the pool registry
// in maps guarded by one mutex. Atomic holds the mutex for the whole unit of
// work and restores a snapshot when the work fails, which gives the same
// all-or-nothing behaviour as the PostgreSQL substrate.
//
// Ledger and Registry return views that lock per call. Do not call them from
// inside Atomic or View; use the arguments passed to the callback instead.
package memory
