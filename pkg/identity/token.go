package identity

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned for bearer tokens that fail verification.
var ErrInvalidToken = errors.New("invalid token")

// DefaultTokenTTL is the lifetime of tokens minted by IssueToken when no
// explicit TTL is given.
const DefaultTokenTTL = 5 * time.Minute

// IssueToken mints a bearer token proving control of the address derived
// from key. The token is an EdDSA-signed JWT whose subject is the address.
func IssueToken(key ed25519.PrivateKey, ttl time.Duration, now time.Time) (string, error) {
	if len(key) != ed25519.PrivateKeySize {
		return "", fmt.Errorf("%w: private key has %d bytes", ErrInvalidAddress, len(key))
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}

	pub := key.Public().(ed25519.PublicKey)
	claims := jwt.RegisteredClaims{
		Subject:   AddressFromPublicKey(pub).String(),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims).SignedString(key)
}

// Verifier validates bearer tokens and turns them into identities.
type Verifier struct {
	// MaxAge bounds the lifetime a token may claim (exp - iat). Zero means
	// no bound beyond the token's own expiry.
	MaxAge time.Duration

	now func() time.Time
}

// NewVerifier creates a Verifier enforcing maxAge.
func NewVerifier(maxAge time.Duration) *Verifier {
	return &Verifier{MaxAge: maxAge, now: time.Now}
}

// WithClock overrides the verifier's time source.
func (v *Verifier) WithClock(now func() time.Time) *Verifier {
	v.now = now
	return v
}

// Verify checks the token signature against the key encoded in its
// subject and returns the proven identity.
func (v *Verifier) Verify(tokenString string) (*Identity, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		sub, err := token.Claims.GetSubject()
		if err != nil {
			return nil, err
		}
		addr, err := ParseAddress(sub)
		if err != nil {
			return nil, err
		}
		return addr.PublicKey()
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodEdDSA.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(v.clock()),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	if claims.IssuedAt == nil {
		return nil, fmt.Errorf("%w: missing iat", ErrInvalidToken)
	}
	lifetime := claims.ExpiresAt.Sub(claims.IssuedAt.Time)
	if v.MaxAge > 0 && lifetime > v.MaxAge {
		return nil, fmt.Errorf("%w: lifetime %s exceeds %s", ErrInvalidToken, lifetime, v.MaxAge)
	}

	addr, err := ParseAddress(claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	return &Identity{
		Address:   addr,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

func (v *Verifier) clock() func() time.Time {
	if v.now == nil {
		return time.Now
	}
	return v.now
}
