// Package ledger defines the storage contract for pending admin transfers.
//
// A Ledger is a keyed collection of Records, one per pool, plus a shared
// instance allowance. Both carry a LiveUntil retention mark that ExtendTTL
// and ExtendInstance push forward following the substrate rule:
//
//	if liveUntil - now <= threshold {
//	    liveUntil = now + extendTo
//	}
//
// Policy holds the windows. Records use a much longer window than the shared
// allowance; Policy.Validate rejects configurations where they would not.
//
// Implementations live in pkg/store/memory and pkg/store/gorm.
package ledger
