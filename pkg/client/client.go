package client

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/doodlesbykumbi/admin-transfer/pkg/identity"
	"github.com/doodlesbykumbi/admin-transfer/pkg/ledger"
	"github.com/doodlesbykumbi/admin-transfer/pkg/pool"
	"github.com/doodlesbykumbi/admin-transfer/pkg/transfer"
)

// ErrNoKey is returned by calls that need a bearer token when the client
// was built without a private key.
var ErrNoKey = errors.New("client has no signing key")

// APIError is a non-2xx response from the server.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("server returned %d (%s): %s", e.Status, e.Code, e.Message)
}

// Unwrap maps the error code back to the sentinel the server reported, so
// callers can use errors.Is with the transfer and pool errors.
func (e *APIError) Unwrap() error {
	switch e.Code {
	case "pool_not_found":
		return pool.ErrPoolNotFound
	case "pool_exists":
		return pool.ErrPoolExists
	case "not_admin":
		return pool.ErrNotAdmin
	}

	kind, err := transfer.ErrorKindString(e.Code)
	if err != nil {
		return nil
	}
	switch kind {
	case transfer.KindTransferAlreadyPending:
		return transfer.ErrTransferAlreadyPending
	case transfer.KindNoTransferPending:
		return transfer.ErrNoTransferPending
	case transfer.KindUnauthorized:
		return transfer.ErrUnauthorized
	case transfer.KindResourceRejected:
		return transfer.ErrResourceRejected
	case transfer.KindVariantDisabled:
		return transfer.ErrVariantDisabled
	case transfer.KindInvalid:
		return identity.ErrInvalidAddress
	}
	return nil
}

// Client talks to the admin transfer HTTP API. Each authenticated request
// carries a freshly minted token.
type Client struct {
	baseURL  *url.URL
	key      ed25519.PrivateKey
	tokenTTL time.Duration
	http     *http.Client
	now      func() time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithKey sets the key used to sign bearer tokens.
func WithKey(key ed25519.PrivateKey) Option {
	return func(c *Client) {
		c.key = key
	}
}

// WithTokenTTL sets the lifetime of minted tokens.
func WithTokenTTL(ttl time.Duration) Option {
	return func(c *Client) {
		c.tokenTTL = ttl
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		c.http = h
	}
}

// New creates a client for the server at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid server url %q: %w", baseURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid server url %q: scheme and host are required", baseURL)
	}

	c := &Client{
		baseURL:  u,
		tokenTTL: time.Minute,
		http:     &http.Client{Timeout: 15 * time.Second},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Address returns the address the client authenticates as, or the zero
// address when it has no key.
func (c *Client) Address() identity.Address {
	if c.key == nil {
		return ""
	}
	return identity.AddressOf(c.key)
}

func (c *Client) Propose(ctx context.Context, poolAddr, currentAdmin, newAdmin identity.Address) (*ledger.Record, error) {
	body := map[string]identity.Address{"current_admin": currentAdmin, "new_admin": newAdmin}
	var rec ledger.Record
	if err := c.do(ctx, http.MethodPost, poolPath("transfers", poolAddr), body, true, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (c *Client) ProposeUnauthenticated(ctx context.Context, poolAddr, newAdmin identity.Address) (*ledger.Record, error) {
	body := map[string]identity.Address{"new_admin": newAdmin}
	var rec ledger.Record
	if err := c.do(ctx, http.MethodPost, poolPath("transfers", poolAddr)+"/unauthenticated", body, false, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (c *Client) Accept(ctx context.Context, poolAddr identity.Address) error {
	return c.do(ctx, http.MethodPost, poolPath("transfers", poolAddr)+"/accept", nil, true, nil)
}

func (c *Client) Cancel(ctx context.Context, poolAddr identity.Address) error {
	return c.do(ctx, http.MethodPost, poolPath("transfers", poolAddr)+"/cancel", nil, true, nil)
}

// Get returns the pending transfer for poolAddr, or nil if there is none.
func (c *Client) Get(ctx context.Context, poolAddr identity.Address) (*ledger.Record, error) {
	var rec ledger.Record
	err := c.do(ctx, http.MethodGet, poolPath("transfers", poolAddr), nil, false, &rec)
	if errors.Is(err, transfer.ErrNoTransferPending) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// Expiring lists transfers whose retention mark falls within the duration.
// A zero duration lists every transfer.
func (c *Client) Expiring(ctx context.Context, within time.Duration) ([]ledger.Record, error) {
	path := "/transfers"
	if within > 0 {
		path += "?expiring_within=" + url.QueryEscape(within.String())
	}
	var resp struct {
		Transfers []ledger.Record `json:"transfers"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, false, &resp); err != nil {
		return nil, err
	}
	return resp.Transfers, nil
}

func (c *Client) Custody(ctx context.Context, poolAddr identity.Address) (*transfer.Custody, error) {
	var custody transfer.Custody
	if err := c.do(ctx, http.MethodGet, poolPath("pools", poolAddr), nil, false, &custody); err != nil {
		return nil, err
	}
	return &custody, nil
}

// RegisterPool creates poolAddr with the client's own address as admin.
func (c *Client) RegisterPool(ctx context.Context, poolAddr identity.Address) error {
	body := map[string]identity.Address{"pool": poolAddr, "admin": c.Address()}
	return c.do(ctx, http.MethodPost, "/pools", body, true, nil)
}

// SetAdmin asks the pool directly to change its admin.
func (c *Client) SetAdmin(ctx context.Context, poolAddr, admin identity.Address) error {
	body := map[string]identity.Address{"admin": admin}
	return c.do(ctx, http.MethodPut, poolPath("pools", poolAddr)+"/admin", body, true, nil)
}

// Whoami returns the address the server sees for the client's token.
func (c *Client) Whoami(ctx context.Context) (identity.Address, error) {
	var resp struct {
		Address identity.Address `json:"address"`
	}
	if err := c.do(ctx, http.MethodGet, "/whoami", nil, true, &resp); err != nil {
		return "", err
	}
	return resp.Address, nil
}

// Ping checks the status endpoint.
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/", nil, false, nil)
}

func poolPath(prefix string, poolAddr identity.Address) string {
	return "/" + prefix + "/" + url.PathEscape(poolAddr.String())
}

func (c *Client) do(ctx context.Context, method, path string, body interface{}, authenticate bool, out interface{}) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.String()+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	if authenticate {
		if c.key == nil {
			return ErrNoKey
		}
		token, err := identity.IssueToken(c.key, c.tokenTTL, c.now())
		if err != nil {
			return fmt.Errorf("failed to issue token: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 300 {
		return decodeError(resp.StatusCode, data)
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func decodeError(status int, data []byte) error {
	var body struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(data, &body); err == nil && body.Error.Code != "" {
		return &APIError{Status: status, Code: body.Error.Code, Message: body.Error.Message}
	}
	// The auth middleware answers in plain text.
	return &APIError{Status: status, Message: strings.TrimSpace(string(data))}
}
