// Package transfer implements the two-phase pool admin transfer protocol.
//
// A transfer moves a pool's administrator from one authority to another
// without the pool ever being administered by nobody and without the
// incoming authority being able to take it unilaterally:
//
//  1. Propose: the current admin hands the pool to the protocol and records
//     who should receive it.
//  2. Accept: the recorded new admin takes the pool from the protocol.
//     Cancel: the recorded current admin takes it back instead.
//
// Between the two steps the protocol's own address is the pool's admin and
// the transfer ledger holds exactly one record for the pool. Every mutating
// operation runs as one unit of work on a store.Substrate, so the ledger
// write and the pool reassignment either both happen or neither does.
//
// Errors are the sentinels in this package, wrapped with context. Use
// errors.Is to test for them or KindOf to classify them.
package transfer
