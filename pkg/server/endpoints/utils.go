package endpoints

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/doodlesbykumbi/admin-transfer/pkg/identity"
	"github.com/doodlesbykumbi/admin-transfer/pkg/pool"
	"github.com/doodlesbykumbi/admin-transfer/pkg/transfer"
)

// ErrorBody is the payload of every error response.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func respondWithError(w http.ResponseWriter, code int, payload interface{}) {
	respondWithJSON(w, code, map[string]interface{}{"error": payload})
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, _ := json.Marshal(payload)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(response)
}

func badRequest(w http.ResponseWriter, message string) {
	respondWithError(w, http.StatusBadRequest, ErrorBody{Code: "bad_request", Message: message})
}

// respondWithTransferError maps protocol and registry errors to a status code.
func respondWithTransferError(w http.ResponseWriter, err error) {
	kind := transfer.KindOf(err)

	var status int
	switch kind {
	case transfer.KindTransferAlreadyPending:
		status = http.StatusConflict
	case transfer.KindNoTransferPending:
		status = http.StatusNotFound
	case transfer.KindUnauthorized, transfer.KindVariantDisabled:
		status = http.StatusForbidden
	case transfer.KindResourceRejected:
		status = http.StatusUnprocessableEntity
	case transfer.KindInvalid:
		status = http.StatusBadRequest
	default:
		status = http.StatusInternalServerError
	}

	code := kind.String()

	// Errors straight from a registry are not wrapped by the proxy.
	if kind == transfer.KindInternal {
		switch {
		case errors.Is(err, pool.ErrPoolNotFound):
			status, code = http.StatusNotFound, "pool_not_found"
		case errors.Is(err, pool.ErrPoolExists):
			status, code = http.StatusConflict, "pool_exists"
		case errors.Is(err, pool.ErrNotAdmin):
			status, code = http.StatusForbidden, "not_admin"
		}
	}

	message := err.Error()
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Msg("request failed")
		message = "internal error"
	}
	respondWithError(w, status, ErrorBody{Code: code, Message: message})
}

// poolVar returns the unescaped {pool} route variable.
func poolVar(r *http.Request) (identity.Address, bool) {
	raw, err := url.PathUnescape(mux.Vars(r)["pool"])
	if err != nil {
		return "", false
	}
	addr := identity.Address(raw)
	return addr, !addr.IsZero()
}

// parseAuthority validates an address taken from a request body and
// returns it in canonical lowercase form.
func parseAuthority(field string, a identity.Address) (identity.Address, error) {
	addr, err := identity.ParseAddress(string(a))
	if err != nil {
		return "", fmt.Errorf("%s: %w", field, err)
	}
	return addr, nil
}

// decodeBody reads a JSON request body into dst.
func decodeBody(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}
