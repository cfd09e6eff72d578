package endpoints

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/doodlesbykumbi/admin-transfer/pkg/audit"
	"github.com/doodlesbykumbi/admin-transfer/pkg/config"
	"github.com/doodlesbykumbi/admin-transfer/pkg/identity"
	"github.com/doodlesbykumbi/admin-transfer/pkg/ledger"
	"github.com/doodlesbykumbi/admin-transfer/pkg/server"
	"github.com/doodlesbykumbi/admin-transfer/pkg/store/memory"
	"github.com/doodlesbykumbi/admin-transfer/pkg/transfer"
)

const (
	poolA        identity.Address = "pool-a"
	protocolAddr identity.Address = "admin-transfer"
)

type principal struct {
	addr identity.Address
	key  ed25519.PrivateKey
}

type EndpointsSuite struct {
	suite.Suite

	store  *memory.Store
	server *server.Server
	events []audit.Event

	alice, bob, mallory principal
}

func TestEndpoints(t *testing.T) {
	suite.Run(t, new(EndpointsSuite))
}

func (s *EndpointsSuite) newPrincipal() principal {
	addr, key, err := identity.GenerateKey()
	require.NoError(s.T(), err)
	return principal{addr: addr, key: key}
}

func (s *EndpointsSuite) SetupTest() {
	s.alice, s.bob, s.mallory = s.newPrincipal(), s.newPrincipal(), s.newPrincipal()
	s.events = nil

	sink := audit.SinkFunc(func(e audit.Event) { s.events = append(s.events, e) })

	s.store = memory.New()
	require.NoError(s.T(), s.store.Registry().Register(context.Background(), poolA, s.alice.addr))

	p, err := transfer.New(s.store, protocolAddr,
		transfer.WithAuditSink(sink),
		transfer.WithUnauthenticatedPropose(),
	)
	require.NoError(s.T(), err)

	cfg := &config.Config{TokenMaxAgeSeconds: 300}
	s.server = server.NewServer(p, s.store.Registry(), s.store, cfg, "127.0.0.1", "0")
	s.server.SetAudit(sink)
	RegisterAll(s.server)
}

func (s *EndpointsSuite) do(method, path string, body interface{}, as *principal) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.T(), json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.RemoteAddr = "192.0.2.10:5555"
	if as != nil {
		token, err := identity.IssueToken(as.key, time.Minute, time.Now())
		require.NoError(s.T(), err)
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	s.server.Router.ServeHTTP(rec, req)
	return rec
}

func (s *EndpointsSuite) errorCode(rec *httptest.ResponseRecorder) string {
	var body struct {
		Error ErrorBody `json:"error"`
	}
	require.NoError(s.T(), json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Error.Code
}

func (s *EndpointsSuite) poolAdmin() identity.Address {
	admin, err := s.store.Registry().Admin(context.Background(), poolA)
	require.NoError(s.T(), err)
	return admin
}

func (s *EndpointsSuite) propose() {
	rec := s.do("POST", "/transfers/pool-a", ProposeRequest{CurrentAdmin: s.alice.addr, NewAdmin: s.bob.addr}, &s.alice)
	require.Equal(s.T(), http.StatusCreated, rec.Code, rec.Body.String())
}

func (s *EndpointsSuite) TestStatus() {
	rec := s.do("GET", "/", nil, nil)

	s.Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Header().Get("Content-Type"), "application/json")

	var body StatusResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &body))
	s.Equal(Version, body.Version)
	s.Equal("admin-transfer", body.Protocol)
}

func (s *EndpointsSuite) TestHealth() {
	rec := s.do("GET", "/health", nil, nil)
	s.Equal(http.StatusOK, rec.Code)
	s.JSONEq(`{"status":"ok"}`, rec.Body.String())
}

func (s *EndpointsSuite) TestWhoami() {
	rec := s.do("GET", "/whoami", nil, &s.bob)
	s.Require().Equal(http.StatusOK, rec.Code)

	var body WhoamiResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &body))
	s.Equal(s.bob.addr, body.Address)
	s.Equal("192.0.2.10", body.ClientIP)

	s.Equal(http.StatusUnauthorized, s.do("GET", "/whoami", nil, nil).Code)
}

func (s *EndpointsSuite) TestProposeAndGet() {
	rec := s.do("POST", "/transfers/pool-a", ProposeRequest{CurrentAdmin: s.alice.addr, NewAdmin: s.bob.addr}, &s.alice)
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())

	var created ledger.Record
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &created))
	s.Equal(poolA, created.Pool)
	s.Equal(s.alice.addr, created.CurrentAdmin)
	s.Equal(s.bob.addr, created.NewAdmin)
	s.Equal(protocolAddr, s.poolAdmin())

	rec = s.do("GET", "/transfers/pool-a", nil, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var got ledger.Record
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &got))
	s.Equal(created.NewAdmin, got.NewAdmin)
}

func (s *EndpointsSuite) TestProposeDefaultsCurrentAdminToCaller() {
	rec := s.do("POST", "/transfers/pool-a", ProposeRequest{NewAdmin: s.bob.addr}, &s.alice)
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	s.Equal(protocolAddr, s.poolAdmin())
}

func (s *EndpointsSuite) TestProposeRequiresToken() {
	rec := s.do("POST", "/transfers/pool-a", ProposeRequest{CurrentAdmin: s.alice.addr, NewAdmin: s.bob.addr}, nil)
	s.Equal(http.StatusUnauthorized, rec.Code)
	s.Equal(s.alice.addr, s.poolAdmin())
}

func (s *EndpointsSuite) TestProposeWhilePending() {
	s.propose()

	rec := s.do("POST", "/transfers/pool-a", ProposeRequest{CurrentAdmin: s.alice.addr, NewAdmin: s.mallory.addr}, &s.alice)
	s.Equal(http.StatusConflict, rec.Code)
	s.Equal("transfer_already_pending", s.errorCode(rec))
}

func (s *EndpointsSuite) TestProposeAsSomeoneElse() {
	rec := s.do("POST", "/transfers/pool-a", ProposeRequest{CurrentAdmin: s.alice.addr, NewAdmin: s.mallory.addr}, &s.mallory)
	s.Equal(http.StatusForbidden, rec.Code)
	s.Equal("unauthorized", s.errorCode(rec))
	s.Equal(s.alice.addr, s.poolAdmin())
}

func (s *EndpointsSuite) TestProposeNotPoolAdmin() {
	rec := s.do("POST", "/transfers/pool-a", ProposeRequest{CurrentAdmin: s.mallory.addr, NewAdmin: s.bob.addr}, &s.mallory)
	s.Equal(http.StatusUnprocessableEntity, rec.Code)
	s.Equal("resource_rejected", s.errorCode(rec))
	s.Equal(http.StatusNotFound, s.do("GET", "/transfers/pool-a", nil, nil).Code)
}

func (s *EndpointsSuite) TestProposeBadBody() {
	req := httptest.NewRequest("POST", "/transfers/pool-a", bytes.NewBufferString("{not json"))
	token, err := identity.IssueToken(s.alice.key, time.Minute, time.Now())
	s.Require().NoError(err)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	s.server.Router.ServeHTTP(rec, req)

	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal("bad_request", s.errorCode(rec))
}

func (s *EndpointsSuite) TestProposeMissingNewAdmin() {
	rec := s.do("POST", "/transfers/pool-a", ProposeRequest{CurrentAdmin: s.alice.addr}, &s.alice)
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal("invalid", s.errorCode(rec))
}

func (s *EndpointsSuite) TestProposeNormalizesCandidate() {
	rec := s.do("POST", "/transfers/pool-a", ProposeRequest{NewAdmin: identity.Address(strings.ToUpper(s.bob.addr.String()))}, &s.alice)
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())

	var created ledger.Record
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &created))
	s.Equal(s.bob.addr, created.NewAdmin)

	rec = s.do("POST", "/transfers/pool-a/accept", nil, &s.bob)
	s.Require().Equal(http.StatusNoContent, rec.Code, rec.Body.String())
	s.Equal(s.bob.addr, s.poolAdmin())
}

func (s *EndpointsSuite) TestProposeRejectsNonKeyAddresses() {
	rec := s.do("POST", "/transfers/pool-a", ProposeRequest{NewAdmin: "not-a-key"}, &s.alice)
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal("invalid", s.errorCode(rec))

	rec = s.do("POST", "/transfers/pool-a", ProposeRequest{CurrentAdmin: "alice", NewAdmin: s.bob.addr}, &s.alice)
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal("invalid", s.errorCode(rec))

	rec = s.do("POST", "/transfers/pool-a/unauthenticated", ProposeRequest{NewAdmin: "not-a-key"}, nil)
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal("invalid", s.errorCode(rec))

	s.Equal(s.alice.addr, s.poolAdmin())
	s.Equal(http.StatusNotFound, s.do("GET", "/transfers/pool-a", nil, nil).Code)
}

func (s *EndpointsSuite) TestAccept() {
	s.propose()

	rec := s.do("POST", "/transfers/pool-a/accept", nil, &s.bob)
	s.Require().Equal(http.StatusNoContent, rec.Code, rec.Body.String())
	s.Equal(s.bob.addr, s.poolAdmin())
	s.Equal(http.StatusNotFound, s.do("GET", "/transfers/pool-a", nil, nil).Code)

	rec = s.do("POST", "/transfers/pool-a/accept", nil, &s.bob)
	s.Equal(http.StatusNotFound, rec.Code)
	s.Equal("no_transfer_pending", s.errorCode(rec))
}

func (s *EndpointsSuite) TestAcceptWrongCaller() {
	s.propose()

	rec := s.do("POST", "/transfers/pool-a/accept", nil, &s.alice)
	s.Equal(http.StatusForbidden, rec.Code)
	s.Equal(protocolAddr, s.poolAdmin())
}

func (s *EndpointsSuite) TestCancel() {
	s.propose()

	s.Equal(http.StatusForbidden, s.do("POST", "/transfers/pool-a/cancel", nil, &s.bob).Code)

	rec := s.do("POST", "/transfers/pool-a/cancel", nil, &s.alice)
	s.Require().Equal(http.StatusNoContent, rec.Code, rec.Body.String())
	s.Equal(s.alice.addr, s.poolAdmin())
	s.Equal(http.StatusNotFound, s.do("GET", "/transfers/pool-a", nil, nil).Code)
}

func (s *EndpointsSuite) TestProposeUnauthenticated() {
	rec := s.do("POST", "/transfers/pool-a/unauthenticated", ProposeRequest{NewAdmin: s.bob.addr}, nil)
	s.Equal(http.StatusUnprocessableEntity, rec.Code)

	rec = s.do("PUT", "/pools/pool-a/admin", SetAdminRequest{Admin: protocolAddr}, &s.alice)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do("POST", "/transfers/pool-a/unauthenticated", ProposeRequest{NewAdmin: s.bob.addr}, nil)
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())

	// Nobody can prove control of an empty current admin.
	s.Equal(http.StatusForbidden, s.do("POST", "/transfers/pool-a/cancel", nil, &s.alice).Code)
	s.Equal(http.StatusNoContent, s.do("POST", "/transfers/pool-a/accept", nil, &s.bob).Code)
	s.Equal(s.bob.addr, s.poolAdmin())
}

func (s *EndpointsSuite) TestProposeUnauthenticatedRejectsCurrentAdmin() {
	rec := s.do("POST", "/transfers/pool-a/unauthenticated", ProposeRequest{CurrentAdmin: s.alice.addr, NewAdmin: s.bob.addr}, nil)
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *EndpointsSuite) TestExpiring() {
	s.propose()

	rec := s.do("GET", "/transfers", nil, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var all ExpiringResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &all))
	s.Len(all.Transfers, 1)

	rec = s.do("GET", "/transfers?expiring_within=72h", nil, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var soon ExpiringResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &soon))
	s.Empty(soon.Transfers)
	s.Equal("72h0m0s", soon.Within)

	s.Equal(http.StatusBadRequest, s.do("GET", "/transfers?expiring_within=soon", nil, nil).Code)
}

func (s *EndpointsSuite) TestCustody() {
	rec := s.do("GET", "/pools/pool-a", nil, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.JSONEq(`{"pool":"pool-a","state":"no_transfer","admin":"`+s.alice.addr.String()+`"}`, rec.Body.String())

	s.propose()

	rec = s.do("GET", "/pools/pool-a", nil, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var custody transfer.Custody
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &custody))
	s.Equal(transfer.StatePending, custody.State)
	s.Equal(protocolAddr, custody.Admin)
	s.Require().NotNil(custody.Record)
	s.Equal(s.bob.addr, custody.Record.NewAdmin)

	rec = s.do("GET", "/pools/unknown", nil, nil)
	s.Equal(http.StatusNotFound, rec.Code)
	s.Equal("pool_not_found", s.errorCode(rec))
}

func (s *EndpointsSuite) TestRegisterPool() {
	rec := s.do("POST", "/pools", RegisterPoolRequest{Pool: "pool-b", Admin: s.bob.addr}, &s.bob)
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.do("POST", "/pools", RegisterPoolRequest{Pool: "pool-b", Admin: s.bob.addr}, &s.bob)
	s.Equal(http.StatusConflict, rec.Code)
	s.Equal("pool_exists", s.errorCode(rec))

	rec = s.do("POST", "/pools", RegisterPoolRequest{Pool: "pool-c", Admin: s.alice.addr}, &s.bob)
	s.Equal(http.StatusForbidden, rec.Code)

	var ops []string
	for _, e := range s.events {
		if pe, ok := e.(audit.PoolEvent); ok {
			ops = append(ops, pe.Operation)
			assert.Equal(s.T(), s.bob.addr.String(), pe.Caller)
		}
	}
	s.Equal([]string{"register", "register", "register"}, ops)
}

func (s *EndpointsSuite) TestSetAdminDirect() {
	rec := s.do("PUT", "/pools/pool-a/admin", SetAdminRequest{Admin: s.mallory.addr}, &s.mallory)
	s.Equal(http.StatusForbidden, rec.Code)
	s.Equal("not_admin", s.errorCode(rec))

	rec = s.do("PUT", "/pools/pool-a/admin", SetAdminRequest{Admin: "not-a-key"}, &s.alice)
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal("invalid", s.errorCode(rec))

	rec = s.do("PUT", "/pools/pool-a/admin", SetAdminRequest{Admin: identity.Address(strings.ToUpper(s.bob.addr.String()))}, &s.alice)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	s.Equal(s.bob.addr, s.poolAdmin())
}

func (s *EndpointsSuite) TestAuditTrail() {
	s.propose()
	s.do("POST", "/transfers/pool-a/accept", nil, &s.bob)
	s.do("POST", "/transfers/pool-a/cancel", nil, nil)

	var ids []string
	for _, e := range s.events {
		ids = append(ids, e.MessageID())
	}
	s.Equal([]string{"transfer-propose", "transfer-accept", "authn"}, ids)
}

func TestRespondWithTransferError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"already pending", transfer.ErrTransferAlreadyPending, http.StatusConflict, "transfer_already_pending"},
		{"none pending", transfer.ErrNoTransferPending, http.StatusNotFound, "no_transfer_pending"},
		{"unauthorized", transfer.ErrUnauthorized, http.StatusForbidden, "unauthorized"},
		{"variant disabled", transfer.ErrVariantDisabled, http.StatusForbidden, "variant_disabled"},
		{"invalid", identity.ErrInvalidAddress, http.StatusBadRequest, "invalid"},
		{"backend", errors.New("connection reset"), http.StatusInternalServerError, "internal"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			respondWithTransferError(rec, tt.err)

			assert.Equal(t, tt.status, rec.Code)
			var body struct {
				Error ErrorBody `json:"error"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.code, body.Error.Code)
			if tt.status == http.StatusInternalServerError {
				assert.Equal(t, "internal error", body.Error.Message)
			}
		})
	}
}
