package endpoints

import (
	"net/http"
	"os"

	"github.com/doodlesbykumbi/admin-transfer/pkg/server"
	"github.com/doodlesbykumbi/admin-transfer/pkg/store"
)

// Version is reported by the status endpoint unless TRANSFER_VERSION_DISPLAY
// overrides it.
var Version = "0.1.0"

// StatusResponse is the body of GET /
type StatusResponse struct {
	Version  string `json:"version"`
	Protocol string `json:"protocol"`
}

// HealthResponse is the body of GET /health
type HealthResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// RegisterStatusEndpoints registers the status and health endpoints
func RegisterStatusEndpoints(s *server.Server) {
	s.Router.HandleFunc("/", handleStatus(s.Protocol.Self().String())).Methods("GET")
	s.Router.HandleFunc("/health", handleHealth(s.HealthStore)).Methods("GET")
}

func handleStatus(protocol string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		version := os.Getenv("TRANSFER_VERSION_DISPLAY")
		if version == "" {
			version = Version
		}
		respondWithJSON(w, http.StatusOK, StatusResponse{Version: version, Protocol: protocol})
	}
}

func handleHealth(healthStore store.HealthStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := healthStore.CheckConnectivity(); err != nil {
			respondWithJSON(w, http.StatusServiceUnavailable, HealthResponse{
				Status: "error",
				Error:  "database connectivity check failed",
			})
			return
		}
		respondWithJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
	}
}
