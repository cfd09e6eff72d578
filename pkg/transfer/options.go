package transfer

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/doodlesbykumbi/admin-transfer/pkg/audit"
	"github.com/doodlesbykumbi/admin-transfer/pkg/identity"
	"github.com/doodlesbykumbi/admin-transfer/pkg/ledger"
)

// Option configures a Protocol.
type Option func(*Protocol)

// WithAuthenticator sets how callers prove control of an address. The
// default reads the caller stored in the request context.
func WithAuthenticator(a identity.Authenticator) Option {
	return func(p *Protocol) {
		p.auth = a
	}
}

// WithPolicy sets the retention windows. It is validated by New.
func WithPolicy(policy ledger.Policy) Option {
	return func(p *Protocol) {
		p.initialPolicy = policy
	}
}

// WithAuditSink sets where audit events go. The default is audit.Default().
func WithAuditSink(sink audit.Sink) Option {
	return func(p *Protocol) {
		p.audit = sink
	}
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(p *Protocol) {
		p.log = l
	}
}

// WithClock sets the clock used by Expiring.
func WithClock(now func() time.Time) Option {
	return func(p *Protocol) {
		p.now = now
	}
}

// WithUnauthenticatedPropose enables ProposeUnauthenticated.
//
// The unauthenticated form does not prove that anyone controls the pool.
// It only succeeds for pools already handed to the protocol, and the
// records it writes cannot be cancelled.
func WithUnauthenticatedPropose() Option {
	return func(p *Protocol) {
		p.allowUnauthenticated = true
	}
}
