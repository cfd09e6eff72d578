package identity

import (
	"context"
	"crypto/ed25519"
	"encoding/hex"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"
)

// ContextKey is a type for context keys to avoid collisions.
type ContextKey string

const (
	// Key is the context key for Identity.
	Key ContextKey = "identity"
)

var (
	// ErrUnauthorized is returned when the caller has not proven control of
	// the address an operation requires.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInvalidAddress is returned when an address cannot be used as a key.
	ErrInvalidAddress = errors.New("invalid address")
)

// Address identifies an authority, a pool or the transfer protocol itself.
// Addresses that callers authenticate as are the hex encoding of an ed25519
// public key; pool and protocol addresses may be any non-empty string.
type Address string

func (a Address) String() string {
	return string(a)
}

// IsZero reports whether the address is empty.
func (a Address) IsZero() bool {
	return strings.TrimSpace(string(a)) == ""
}

// PublicKey decodes the ed25519 public key the address encodes.
func (a Address) PublicKey() (ed25519.PublicKey, error) {
	raw, err := hex.DecodeString(string(a))
	if err != nil {
		return nil, fmt.Errorf("%w: %q is not hex", ErrInvalidAddress, string(a))
	}
	if len(raw) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("%w: %q has %d bytes, want %d", ErrInvalidAddress, string(a), len(raw), ed25519.PublicKeySize)
	}
	return ed25519.PublicKey(raw), nil
}

// ParseAddress validates that s encodes an ed25519 public key.
func ParseAddress(s string) (Address, error) {
	addr := Address(strings.ToLower(strings.TrimSpace(s)))
	if _, err := addr.PublicKey(); err != nil {
		return "", err
	}
	return addr, nil
}

// AddressFromPublicKey returns the address controlled by pub.
func AddressFromPublicKey(pub ed25519.PublicKey) Address {
	return Address(hex.EncodeToString(pub))
}

// Identity represents the authenticated caller of a request.
type Identity struct {
	// Token claims
	Address   Address
	IssuedAt  time.Time
	ExpiresAt time.Time

	// Request context
	RemoteIP net.IP
}

// WithRemoteIP sets the remote IP address.
func (i *Identity) WithRemoteIP(ip net.IP) *Identity {
	i.RemoteIP = ip
	return i
}

// ClientIP returns the remote IP as a string, or "-" when unknown.
func (i *Identity) ClientIP() string {
	if i == nil || i.RemoteIP == nil {
		return "-"
	}
	return i.RemoteIP.String()
}

// Get retrieves Identity from context.
func Get(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(Key).(*Identity)
	return id, ok
}

// Set stores Identity in context.
func Set(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, Key, id)
}

// Caller returns the authenticated address in ctx, or the zero address.
func Caller(ctx context.Context) Address {
	if id, ok := Get(ctx); ok && id != nil {
		return id.Address
	}
	return ""
}

// Authenticator answers whether the invoking principal proved control of
// an address. RequireCaller returns an error wrapping ErrUnauthorized when
// it did not.
type Authenticator interface {
	RequireCaller(ctx context.Context, addr Address) error
}

// ContextAuthenticator checks the Identity stored in the request context
// by the authentication middleware.
type ContextAuthenticator struct{}

// RequireCaller implements Authenticator.
func (ContextAuthenticator) RequireCaller(ctx context.Context, addr Address) error {
	if addr.IsZero() {
		return fmt.Errorf("%w: no authority recorded", ErrUnauthorized)
	}
	caller := Caller(ctx)
	if caller.IsZero() {
		return fmt.Errorf("%w: caller is not authenticated", ErrUnauthorized)
	}
	if caller != addr {
		return fmt.Errorf("%w: caller %s is not %s", ErrUnauthorized, caller, addr)
	}
	return nil
}

// AuthenticatorFunc adapts a function into an Authenticator.
type AuthenticatorFunc func(ctx context.Context, addr Address) error

func (f AuthenticatorFunc) RequireCaller(ctx context.Context, addr Address) error {
	return f(ctx, addr)
}
