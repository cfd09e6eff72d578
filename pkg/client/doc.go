// Package client is an HTTP client for the admin transfer API. It signs a
// short-lived bearer token with the caller's ed25519 key for every
// authenticated request and maps error responses back to the protocol's
// sentinel errors.
package client
