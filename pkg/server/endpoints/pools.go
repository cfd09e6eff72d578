package endpoints

import (
	"net/http"

	"github.com/doodlesbykumbi/admin-transfer/pkg/audit"
	"github.com/doodlesbykumbi/admin-transfer/pkg/identity"
	"github.com/doodlesbykumbi/admin-transfer/pkg/server"
)

// RegisterPoolRequest is the body of POST /pools.
type RegisterPoolRequest struct {
	Pool  identity.Address `json:"pool"`
	Admin identity.Address `json:"admin"`
}

// SetAdminRequest is the body of PUT /pools/{pool}/admin.
type SetAdminRequest struct {
	Admin identity.Address `json:"admin"`
}

// RegisterPoolsEndpoints registers the pool registry endpoints. They act on
// the registry directly and are subject only to the pool's own rule.
func RegisterPoolsEndpoints(s *server.Server) {
	authed := s.JWTMiddleware.Middleware

	s.Router.HandleFunc("/pools/{pool}", handleCustody(s)).Methods("GET")
	s.Router.Handle("/pools", authed(handleRegisterPool(s))).Methods("POST")
	s.Router.Handle("/pools/{pool}/admin", authed(handleSetAdmin(s))).Methods("PUT")
}

func handleCustody(s *server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		poolAddr, ok := poolVar(r)
		if !ok {
			badRequest(w, "pool is required")
			return
		}

		custody, err := s.Protocol.Custody(r.Context(), poolAddr)
		if err != nil {
			respondWithTransferError(w, err)
			return
		}
		respondWithJSON(w, http.StatusOK, custody)
	}
}

func handleRegisterPool(s *server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RegisterPoolRequest
		if err := decodeBody(r, &req); err != nil {
			badRequest(w, "invalid request body: "+err.Error())
			return
		}
		if req.Pool.IsZero() || req.Admin.IsZero() {
			badRequest(w, "pool and admin are required")
			return
		}
		admin, err := parseAuthority("admin", req.Admin)
		if err != nil {
			respondWithTransferError(w, err)
			return
		}
		req.Admin = admin

		caller := identity.Caller(r.Context())
		event := poolEvent(r, "register", req.Pool, req.Admin)

		if caller != req.Admin {
			event.ErrorMessage = "caller must register itself as admin"
			s.Audit.Log(event)
			respondWithError(w, http.StatusForbidden, ErrorBody{Code: "unauthorized", Message: event.ErrorMessage})
			return
		}

		if err := s.Pools.Register(r.Context(), req.Pool, req.Admin); err != nil {
			event.ErrorMessage = err.Error()
			s.Audit.Log(event)
			respondWithTransferError(w, err)
			return
		}

		event.Success = true
		s.Audit.Log(event)
		respondWithJSON(w, http.StatusCreated, req)
	}
}

func handleSetAdmin(s *server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		poolAddr, ok := poolVar(r)
		if !ok {
			badRequest(w, "pool is required")
			return
		}

		var req SetAdminRequest
		if err := decodeBody(r, &req); err != nil {
			badRequest(w, "invalid request body: "+err.Error())
			return
		}
		if req.Admin.IsZero() {
			badRequest(w, "admin is required")
			return
		}
		// The transfer service itself is the one admin that is not a key.
		if req.Admin != s.Protocol.Self() {
			admin, err := parseAuthority("admin", req.Admin)
			if err != nil {
				respondWithTransferError(w, err)
				return
			}
			req.Admin = admin
		}

		event := poolEvent(r, "set-admin", poolAddr, req.Admin)
		if err := s.Pools.SetAdmin(r.Context(), poolAddr, identity.Caller(r.Context()), req.Admin); err != nil {
			event.ErrorMessage = err.Error()
			s.Audit.Log(event)
			respondWithTransferError(w, err)
			return
		}

		event.Success = true
		s.Audit.Log(event)
		respondWithJSON(w, http.StatusOK, RegisterPoolRequest{Pool: poolAddr, Admin: req.Admin})
	}
}

func poolEvent(r *http.Request, op string, poolAddr, admin identity.Address) audit.PoolEvent {
	id, _ := identity.Get(r.Context())
	return audit.PoolEvent{
		Operation: op,
		Caller:    identity.Caller(r.Context()).String(),
		ClientIP:  id.ClientIP(),
		Pool:      poolAddr.String(),
		Admin:     admin.String(),
	}
}
