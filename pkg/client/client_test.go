package client

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doodlesbykumbi/admin-transfer/pkg/audit"
	"github.com/doodlesbykumbi/admin-transfer/pkg/config"
	"github.com/doodlesbykumbi/admin-transfer/pkg/identity"
	"github.com/doodlesbykumbi/admin-transfer/pkg/pool"
	"github.com/doodlesbykumbi/admin-transfer/pkg/server"
	"github.com/doodlesbykumbi/admin-transfer/pkg/server/endpoints"
	"github.com/doodlesbykumbi/admin-transfer/pkg/store/memory"
	"github.com/doodlesbykumbi/admin-transfer/pkg/transfer"
)

func newTestServer(t *testing.T) string {
	t.Helper()

	st := memory.New()
	p, err := transfer.New(st, "admin-transfer", transfer.WithAuditSink(audit.Discard))
	require.NoError(t, err)

	srv := server.NewServer(p, st.Registry(), st, &config.Config{TokenMaxAgeSeconds: 300}, "127.0.0.1", "0")
	srv.SetAudit(audit.Discard)
	endpoints.RegisterAll(srv)

	ts := httptest.NewServer(srv.Router)
	t.Cleanup(ts.Close)
	return ts.URL
}

func newClient(t *testing.T, url string) *Client {
	t.Helper()
	_, key, err := identity.GenerateKey()
	require.NoError(t, err)
	c, err := New(url, WithKey(key))
	require.NoError(t, err)
	return c
}

func TestNew_InvalidURL(t *testing.T) {
	_, err := New("localhost")
	assert.Error(t, err)

	_, err = New("http://localhost:8000/")
	assert.NoError(t, err)
}

func TestClient_TransferLifecycle(t *testing.T) {
	ctx := context.Background()
	url := newTestServer(t)
	alice, bob := newClient(t, url), newClient(t, url)

	require.NoError(t, alice.Ping(ctx))
	require.NoError(t, alice.RegisterPool(ctx, "pool-a"))

	who, err := bob.Whoami(ctx)
	require.NoError(t, err)
	assert.Equal(t, bob.Address(), who)

	rec, err := alice.Get(ctx, "pool-a")
	require.NoError(t, err)
	assert.Nil(t, rec)

	rec, err = alice.Propose(ctx, "pool-a", alice.Address(), bob.Address())
	require.NoError(t, err)
	assert.Equal(t, bob.Address(), rec.NewAdmin)

	_, err = alice.Propose(ctx, "pool-a", alice.Address(), bob.Address())
	assert.ErrorIs(t, err, transfer.ErrTransferAlreadyPending)

	custody, err := bob.Custody(ctx, "pool-a")
	require.NoError(t, err)
	assert.Equal(t, transfer.StatePending, custody.State)
	assert.Equal(t, identity.Address("admin-transfer"), custody.Admin)

	recs, err := bob.Expiring(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, recs, 1)

	recs, err = bob.Expiring(ctx, 24*time.Hour)
	require.NoError(t, err)
	assert.Empty(t, recs)

	assert.ErrorIs(t, alice.Accept(ctx, "pool-a"), transfer.ErrUnauthorized)
	require.NoError(t, bob.Accept(ctx, "pool-a"))
	assert.ErrorIs(t, bob.Accept(ctx, "pool-a"), transfer.ErrNoTransferPending)

	custody, err = alice.Custody(ctx, "pool-a")
	require.NoError(t, err)
	assert.Equal(t, transfer.StateNoTransfer, custody.State)
	assert.Equal(t, bob.Address(), custody.Admin)
}

func TestClient_Cancel(t *testing.T) {
	ctx := context.Background()
	url := newTestServer(t)
	alice, bob := newClient(t, url), newClient(t, url)

	require.NoError(t, alice.RegisterPool(ctx, "pool-a"))
	_, err := alice.Propose(ctx, "pool-a", alice.Address(), bob.Address())
	require.NoError(t, err)

	assert.ErrorIs(t, bob.Cancel(ctx, "pool-a"), transfer.ErrUnauthorized)
	require.NoError(t, alice.Cancel(ctx, "pool-a"))

	custody, err := alice.Custody(ctx, "pool-a")
	require.NoError(t, err)
	assert.Equal(t, alice.Address(), custody.Admin)
}

func TestClient_PoolErrors(t *testing.T) {
	ctx := context.Background()
	url := newTestServer(t)
	alice, mallory := newClient(t, url), newClient(t, url)

	require.NoError(t, alice.RegisterPool(ctx, "pool-a"))
	assert.ErrorIs(t, alice.RegisterPool(ctx, "pool-a"), pool.ErrPoolExists)
	assert.ErrorIs(t, mallory.SetAdmin(ctx, "pool-a", mallory.Address()), pool.ErrNotAdmin)

	_, err := alice.Custody(ctx, "missing")
	assert.ErrorIs(t, err, pool.ErrPoolNotFound)

	_, err = mallory.Propose(ctx, "pool-a", mallory.Address(), mallory.Address())
	assert.ErrorIs(t, err, transfer.ErrResourceRejected)

	_, err = alice.ProposeUnauthenticated(ctx, "pool-a", mallory.Address())
	assert.ErrorIs(t, err, transfer.ErrVariantDisabled)
}

func TestClient_NoKey(t *testing.T) {
	c, err := New(newTestServer(t))
	require.NoError(t, err)

	assert.ErrorIs(t, c.Accept(context.Background(), "pool-a"), ErrNoKey)
	assert.True(t, c.Address().IsZero())
}

func TestClient_Unauthenticated(t *testing.T) {
	c := newClient(t, newTestServer(t))
	c.tokenTTL = time.Hour

	err := c.Accept(context.Background(), "pool-a")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 401, apiErr.Status)
	assert.Equal(t, "Invalid token", apiErr.Message)
}
