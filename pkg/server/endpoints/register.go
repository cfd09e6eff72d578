package endpoints

import (
	"github.com/doodlesbykumbi/admin-transfer/pkg/server"
)

// RegisterAll registers all API endpoints on the server
func RegisterAll(srv *server.Server) {
	RegisterStatusEndpoints(srv)
	RegisterWhoamiEndpoint(srv)
	RegisterTransfersEndpoints(srv)
	RegisterPoolsEndpoints(srv)
}
