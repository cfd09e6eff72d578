package endpoints

import (
	"net/http"

	"github.com/doodlesbykumbi/admin-transfer/pkg/identity"
	"github.com/doodlesbykumbi/admin-transfer/pkg/server"
)

// WhoamiResponse represents the response from the /whoami endpoint
type WhoamiResponse struct {
	Address  identity.Address `json:"address"`
	ClientIP string           `json:"client_ip"`
	TokenIAT int64            `json:"token_iat,omitempty"`
	TokenExp int64            `json:"token_exp,omitempty"`
}

// RegisterWhoamiEndpoint registers the /whoami endpoint
func RegisterWhoamiEndpoint(s *server.Server) {
	whoamiRouter := s.Router.PathPrefix("/whoami").Subrouter()
	whoamiRouter.Use(s.JWTMiddleware.Middleware)

	whoamiRouter.HandleFunc("", handleWhoami()).Methods("GET")
}

func handleWhoami() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := identity.Get(r.Context())
		if !ok || id == nil || id.Address.IsZero() {
			http.Error(w, "Unable to determine identity", http.StatusUnauthorized)
			return
		}

		respondWithJSON(w, http.StatusOK, WhoamiResponse{
			Address:  id.Address,
			ClientIP: id.ClientIP(),
			TokenIAT: id.IssuedAt.Unix(),
			TokenExp: id.ExpiresAt.Unix(),
		})
	}
}
