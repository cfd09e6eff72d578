package transfer

import (
	"github.com/doodlesbykumbi/admin-transfer/pkg/identity"
	"github.com/doodlesbykumbi/admin-transfer/pkg/ledger"
)

//go:generate go run github.com/dmarkham/enumer -type State -trimprefix State -transform snake -json -output state.gen.go

// State says whether a pool is held by its own admin or by the protocol.
type State int

const (
	// StateNoTransfer means the pool's admin is the authority itself.
	StateNoTransfer State = iota
	// StatePending means the protocol holds the pool for a recorded transfer.
	StatePending
)

// Custody describes who controls a pool.
type Custody struct {
	Pool  identity.Address `json:"pool"`
	State State            `json:"state"`
	// Admin is the pool's administrator as reported by the pool.
	Admin identity.Address `json:"admin"`
	// Record is set when State is StatePending.
	Record *ledger.Record `json:"transfer,omitempty"`
}

// Consistent reports whether the pool admin and the ledger agree. A pending
// transfer always has the protocol as admin, and the protocol never holds a
// pool without a record.
func (c Custody) Consistent(protocol identity.Address) bool {
	if c.State == StatePending {
		return c.Record != nil && c.Admin == protocol
	}
	return c.Record == nil && c.Admin != protocol
}
