package identity

import (
	"context"
	"crypto/ed25519"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAddress(t *testing.T) {
	addr, _, err := GenerateKey()
	require.NoError(t, err)

	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{name: "generated address", input: addr.String()},
		{name: "upper case hex", input: strings.ToUpper(addr.String())},
		{name: "surrounding whitespace", input: "  " + addr.String() + "\n"},
		{name: "not hex", input: "pool-admin", wantErr: true},
		{name: "short key", input: "abcd", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parsed, err := ParseAddress(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidAddress)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, addr, parsed)
		})
	}
}

func TestAddress_IsZero(t *testing.T) {
	assert.True(t, Address("").IsZero())
	assert.True(t, Address("  ").IsZero())
	assert.False(t, Address("pool-1").IsZero())
}

func TestIdentity_ContextRoundTrip(t *testing.T) {
	ctx := context.Background()

	_, ok := Get(ctx)
	assert.False(t, ok)
	assert.True(t, Caller(ctx).IsZero())

	id := (&Identity{Address: "alice"}).WithRemoteIP(net.ParseIP("10.0.0.1"))
	ctx = Set(ctx, id)

	got, ok := Get(ctx)
	require.True(t, ok)
	assert.Equal(t, Address("alice"), got.Address)
	assert.Equal(t, "10.0.0.1", got.ClientIP())
	assert.Equal(t, Address("alice"), Caller(ctx))
}

func TestContextAuthenticator_RequireCaller(t *testing.T) {
	auth := ContextAuthenticator{}
	alice := Set(context.Background(), &Identity{Address: "alice"})

	t.Run("matching caller", func(t *testing.T) {
		assert.NoError(t, auth.RequireCaller(alice, "alice"))
	})

	t.Run("different caller", func(t *testing.T) {
		err := auth.RequireCaller(alice, "bob")
		assert.ErrorIs(t, err, ErrUnauthorized)
		assert.Contains(t, err.Error(), "alice")
	})

	t.Run("unauthenticated caller", func(t *testing.T) {
		assert.ErrorIs(t, auth.RequireCaller(context.Background(), "alice"), ErrUnauthorized)
	})

	t.Run("zero address can never be proven", func(t *testing.T) {
		anonymous := Set(context.Background(), &Identity{})
		assert.ErrorIs(t, auth.RequireCaller(anonymous, ""), ErrUnauthorized)
	})
}

func TestIssueAndVerifyToken(t *testing.T) {
	addr, key, err := GenerateKey()
	require.NoError(t, err)

	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	tok, err := IssueToken(key, time.Minute, now)
	require.NoError(t, err)

	verifier := NewVerifier(5 * time.Minute).WithClock(func() time.Time { return now.Add(10 * time.Second) })
	id, err := verifier.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, addr, id.Address)
	assert.Equal(t, now, id.IssuedAt.UTC())
	assert.Equal(t, now.Add(time.Minute), id.ExpiresAt.UTC())
}

func TestVerify_LowercasesSubject(t *testing.T) {
	addr, key, err := GenerateKey()
	require.NoError(t, err)

	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	claims := jwt.RegisteredClaims{
		Subject:   strings.ToUpper(addr.String()),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Minute)),
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims).SignedString(key)
	require.NoError(t, err)

	id, err := NewVerifier(5 * time.Minute).WithClock(func() time.Time { return now }).Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, addr, id.Address)
}

func TestVerify_Rejects(t *testing.T) {
	_, key, err := GenerateKey()
	require.NoError(t, err)
	_, otherKey, err := GenerateKey()
	require.NoError(t, err)

	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	clock := func() time.Time { return now }

	t.Run("expired token", func(t *testing.T) {
		tok, err := IssueToken(key, time.Minute, now.Add(-time.Hour))
		require.NoError(t, err)
		_, err = NewVerifier(0).WithClock(clock).Verify(tok)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("lifetime above max age", func(t *testing.T) {
		tok, err := IssueToken(key, time.Hour, now)
		require.NoError(t, err)
		_, err = NewVerifier(5 * time.Minute).WithClock(clock).Verify(tok)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("signed by a different key", func(t *testing.T) {
		tok, err := IssueToken(key, time.Minute, now)
		require.NoError(t, err)
		forged, err := IssueToken(otherKey, time.Minute, now)
		require.NoError(t, err)

		// Keep key's claims but splice in otherKey's signature.
		parts := strings.Split(tok, ".")
		forgedParts := strings.Split(forged, ".")
		_, err = NewVerifier(0).WithClock(clock).Verify(parts[0] + "." + parts[1] + "." + forgedParts[2])
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := NewVerifier(0).WithClock(clock).Verify("not-a-token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestPrivateKeyPEMRoundTrip(t *testing.T) {
	addr, key, err := GenerateKey()
	require.NoError(t, err)

	pemBytes, err := MarshalPrivateKey(key)
	require.NoError(t, err)
	assert.Contains(t, string(pemBytes), "PRIVATE KEY")

	parsed, err := ParsePrivateKey(pemBytes)
	require.NoError(t, err)
	assert.True(t, ed25519.PrivateKey(parsed).Equal(key))
	assert.Equal(t, addr, AddressOf(parsed))
}
