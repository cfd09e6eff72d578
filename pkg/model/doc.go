// Package model defines the database models for the admin transfer service.
//
// # Tables
//
//   - admin_transfers: one row per pool with a pending transfer
//   - instance_state: single row holding the shared retention allowance
//   - pools: the built-in pool registry used when no external resource is wired
//   - messages: RFC5424 audit records (written by pkg/audit, not modelled here)
//
// Addresses are stored as lowercase hex strings.
package model
