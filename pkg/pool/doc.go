// Package pool is the boundary to the externally owned pool resource.
//
// Resource is what a pool exposes: its current administrator and a
// SetAdmin capability guarded by the pool's own authorization check.
// Proxy is the pass-through the transfer protocol calls; it surfaces every
// refusal as a *RejectedError matching ErrRejected.
package pool
