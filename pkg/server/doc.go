// Package server provides the HTTP server for the admin transfer API.
//
// It uses gorilla/mux for routing and wraps the router in
// handlers.LoggingHandler for access logs. Callers prove control of an
// address with an EdDSA bearer token checked by the middleware subpackage.
//
// # Server Setup
//
//	srv := server.NewServer(protocol, pools, health, cfg, host, port)
//	endpoints.RegisterAll(srv)
//	if err := srv.Start(); err != nil {
//	    log.Fatal().Err(err).Msg("server stopped")
//	}
//
// # Endpoints
//
// API endpoints are registered via the endpoints subpackage:
//
//   - POST /transfers/{pool} - propose a transfer
//   - POST /transfers/{pool}/accept - accept a pending transfer
//   - POST /transfers/{pool}/cancel - cancel a pending transfer
//   - GET /transfers/{pool} - read the pending transfer
//   - GET /transfers - list transfers nearing their retention mark
//   - GET /pools/{pool} - custody of a pool
//   - POST /pools, PUT /pools/{pool}/admin - pool registry
//   - GET /, /health, /whoami - status
package server
