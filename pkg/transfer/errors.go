package transfer

import (
	"errors"

	"github.com/doodlesbykumbi/admin-transfer/pkg/identity"
	"github.com/doodlesbykumbi/admin-transfer/pkg/pool"
)

//go:generate go run github.com/dmarkham/enumer -type ErrorKind -trimprefix Kind -transform snake -json -text -output errorkind.gen.go

var (
	// ErrTransferAlreadyPending is returned by Propose when the pool already
	// has a pending transfer.
	ErrTransferAlreadyPending = errors.New("transfer already pending")

	// ErrNoTransferPending is returned by Accept and Cancel when the pool has
	// no pending transfer.
	ErrNoTransferPending = errors.New("no transfer pending")

	// ErrUnauthorized is returned when the caller cannot act for the required
	// authority.
	ErrUnauthorized = identity.ErrUnauthorized

	// ErrResourceRejected is returned when the pool refused the admin change.
	ErrResourceRejected = pool.ErrRejected

	// ErrVariantDisabled is returned by ProposeUnauthenticated unless the
	// protocol was built with WithUnauthenticatedPropose.
	ErrVariantDisabled = errors.New("unauthenticated propose is disabled")
)

// ErrorKind classifies errors returned by the protocol.
type ErrorKind int

const (
	KindNone ErrorKind = iota
	KindTransferAlreadyPending
	KindNoTransferPending
	KindUnauthorized
	KindResourceRejected
	KindVariantDisabled
	KindInvalid
	KindInternal
)

// KindOf returns the kind of err. A pool refusal is KindResourceRejected
// whatever its cause. Errors from the ledger backend and other unexpected
// failures are KindInternal.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrResourceRejected):
		return KindResourceRejected
	case errors.Is(err, ErrTransferAlreadyPending):
		return KindTransferAlreadyPending
	case errors.Is(err, ErrNoTransferPending):
		return KindNoTransferPending
	case errors.Is(err, ErrUnauthorized):
		return KindUnauthorized
	case errors.Is(err, ErrVariantDisabled):
		return KindVariantDisabled
	case errors.Is(err, identity.ErrInvalidAddress):
		return KindInvalid
	default:
		return KindInternal
	}
}
