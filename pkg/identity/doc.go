// Package identity provides caller authentication for admin transfer requests.
//
// An Address names an authority. Authorities prove control of their address
// by signing a short-lived bearer token with the ed25519 key the address
// encodes; the token is a JWT (alg EdDSA) whose subject is the address.
//
// # Basic Usage
//
//	// Mint a token for a key
//	tok, err := identity.IssueToken(key, time.Minute, time.Now())
//
//	// Verify a token and store the caller in the request context
//	id, err := identity.NewVerifier(5 * time.Minute).Verify(tok)
//	ctx = identity.Set(ctx, id)
//
//	// Require that the caller is a given authority
//	err = identity.ContextAuthenticator{}.RequireCaller(ctx, addr)
//	if errors.Is(err, identity.ErrUnauthorized) {
//	    // wrong or missing caller
//	}
//
// Pools and the protocol's own custodial identity are also Addresses, but
// nothing ever authenticates as them over the wire.
package identity
