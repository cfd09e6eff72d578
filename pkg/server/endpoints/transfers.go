package endpoints

import (
	"net/http"
	"time"

	"github.com/doodlesbykumbi/admin-transfer/pkg/identity"
	"github.com/doodlesbykumbi/admin-transfer/pkg/ledger"
	"github.com/doodlesbykumbi/admin-transfer/pkg/server"
	"github.com/doodlesbykumbi/admin-transfer/pkg/transfer"
)

// ProposeRequest is the body of POST /transfers/{pool}. CurrentAdmin
// defaults to the authenticated caller.
type ProposeRequest struct {
	CurrentAdmin identity.Address `json:"current_admin"`
	NewAdmin     identity.Address `json:"new_admin"`
}

// ExpiringResponse is the body of GET /transfers.
type ExpiringResponse struct {
	Within    string          `json:"within"`
	Transfers []ledger.Record `json:"transfers"`
}

// RegisterTransfersEndpoints registers the transfer protocol endpoints
func RegisterTransfersEndpoints(s *server.Server) {
	protocol := s.Protocol
	authed := s.JWTMiddleware.Middleware

	s.Router.Handle("/transfers/{pool}", authed(handlePropose(protocol))).Methods("POST")
	s.Router.Handle("/transfers/{pool}/accept", authed(handleAccept(protocol))).Methods("POST")
	s.Router.Handle("/transfers/{pool}/cancel", authed(handleCancel(protocol))).Methods("POST")

	// Carries no proof of the current admin, so it runs without a token.
	s.Router.HandleFunc("/transfers/{pool}/unauthenticated", handleProposeUnauthenticated(protocol)).Methods("POST")

	s.Router.HandleFunc("/transfers/{pool}", handleGetTransfer(protocol)).Methods("GET")
	s.Router.HandleFunc("/transfers", handleExpiring(protocol)).Methods("GET")
}

func handlePropose(protocol *transfer.Protocol) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		poolAddr, ok := poolVar(r)
		if !ok {
			badRequest(w, "pool is required")
			return
		}

		var req ProposeRequest
		if err := decodeBody(r, &req); err != nil {
			badRequest(w, "invalid request body: "+err.Error())
			return
		}
		newAdmin, err := parseAuthority("new_admin", req.NewAdmin)
		if err != nil {
			respondWithTransferError(w, err)
			return
		}
		currentAdmin := identity.Caller(r.Context())
		if !req.CurrentAdmin.IsZero() {
			if currentAdmin, err = parseAuthority("current_admin", req.CurrentAdmin); err != nil {
				respondWithTransferError(w, err)
				return
			}
		}

		if err := protocol.Propose(r.Context(), poolAddr, currentAdmin, newAdmin); err != nil {
			respondWithTransferError(w, err)
			return
		}
		respondWithRecord(w, r, protocol, poolAddr, http.StatusCreated)
	}
}

func handleProposeUnauthenticated(protocol *transfer.Protocol) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		poolAddr, ok := poolVar(r)
		if !ok {
			badRequest(w, "pool is required")
			return
		}

		var req ProposeRequest
		if err := decodeBody(r, &req); err != nil {
			badRequest(w, "invalid request body: "+err.Error())
			return
		}
		if !req.CurrentAdmin.IsZero() {
			badRequest(w, "current_admin cannot be set on an unauthenticated proposal")
			return
		}

		newAdmin, err := parseAuthority("new_admin", req.NewAdmin)
		if err != nil {
			respondWithTransferError(w, err)
			return
		}

		if err := protocol.ProposeUnauthenticated(r.Context(), poolAddr, newAdmin); err != nil {
			respondWithTransferError(w, err)
			return
		}
		respondWithRecord(w, r, protocol, poolAddr, http.StatusCreated)
	}
}

func handleAccept(protocol *transfer.Protocol) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		poolAddr, ok := poolVar(r)
		if !ok {
			badRequest(w, "pool is required")
			return
		}
		if err := protocol.Accept(r.Context(), poolAddr); err != nil {
			respondWithTransferError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func handleCancel(protocol *transfer.Protocol) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		poolAddr, ok := poolVar(r)
		if !ok {
			badRequest(w, "pool is required")
			return
		}
		if err := protocol.Cancel(r.Context(), poolAddr); err != nil {
			respondWithTransferError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func handleGetTransfer(protocol *transfer.Protocol) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		poolAddr, ok := poolVar(r)
		if !ok {
			badRequest(w, "pool is required")
			return
		}
		respondWithRecord(w, r, protocol, poolAddr, http.StatusOK)
	}
}

func respondWithRecord(w http.ResponseWriter, r *http.Request, protocol *transfer.Protocol, poolAddr identity.Address, status int) {
	rec, err := protocol.Get(r.Context(), poolAddr)
	if err != nil {
		respondWithTransferError(w, err)
		return
	}
	if rec == nil {
		respondWithError(w, http.StatusNotFound, ErrorBody{
			Code:    transfer.KindNoTransferPending.String(),
			Message: "no transfer pending for pool " + poolAddr.String(),
		})
		return
	}
	respondWithJSON(w, status, rec)
}

func handleExpiring(protocol *transfer.Protocol) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Without a bound every record qualifies.
		within := protocol.Policy().Transfer.ExtendTo
		if raw := r.URL.Query().Get("expiring_within"); raw != "" {
			d, err := time.ParseDuration(raw)
			if err != nil || d < 0 {
				badRequest(w, "expiring_within must be a non-negative duration")
				return
			}
			within = d
		}

		recs, err := protocol.Expiring(r.Context(), within)
		if err != nil {
			respondWithTransferError(w, err)
			return
		}
		if recs == nil {
			recs = []ledger.Record{}
		}
		respondWithJSON(w, http.StatusOK, ExpiringResponse{
			Within:    within.String(),
			Transfers: recs,
		})
	}
}
