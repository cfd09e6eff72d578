package server

import (
	"context"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/doodlesbykumbi/admin-transfer/pkg/audit"
	"github.com/doodlesbykumbi/admin-transfer/pkg/config"
	"github.com/doodlesbykumbi/admin-transfer/pkg/identity"
	"github.com/doodlesbykumbi/admin-transfer/pkg/server/middleware"
	"github.com/doodlesbykumbi/admin-transfer/pkg/store"
	"github.com/doodlesbykumbi/admin-transfer/pkg/transfer"
)

// Server serves the transfer and pool endpoints over HTTP.
type Server struct {
	Router        *mux.Router
	Protocol      *transfer.Protocol
	Pools         store.PoolRegistry
	HealthStore   store.HealthStore
	Config        *config.Config
	JWTMiddleware *middleware.JWTAuthenticator
	Audit         audit.Sink
	Log           zerolog.Logger

	srv *http.Server
}

// NewServer builds a Server listening on host:port. A nil cfg falls back to
// the process configuration.
func NewServer(
	protocol *transfer.Protocol,
	pools store.PoolRegistry,
	health store.HealthStore,
	cfg *config.Config,
	host string,
	port string,
) *Server {
	if cfg == nil {
		cfg = config.Get()
	}

	router := mux.NewRouter().UseEncodedPath()
	srv := &http.Server{
		Handler:      handlers.LoggingHandler(os.Stdout, router),
		Addr:         net.JoinHostPort(host, port),
		WriteTimeout: 15 * time.Second,
		ReadTimeout:  15 * time.Second,
	}

	verifier := identity.NewVerifier(cfg.TokenMaxAge())
	jwtMiddleware := middleware.NewJWTAuthenticator(verifier, cfg.IsTrustedProxy)

	return &Server{
		Router:        router,
		Protocol:      protocol,
		Pools:         pools,
		HealthStore:   health,
		Config:        cfg,
		JWTMiddleware: jwtMiddleware,
		Audit:         jwtMiddleware.Audit,
		Log:           log.With().Str("component", "server").Logger(),
		srv:           srv,
	}
}

// SetAudit routes server and middleware audit events to sink.
func (s *Server) SetAudit(sink audit.Sink) {
	s.Audit = sink
	s.JWTMiddleware.Audit = sink
}

// Handler returns the root handler, including access logging.
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.srv.Addr
}

// Start listens and serves until Shutdown. A graceful shutdown returns nil.
func (s *Server) Start() error {
	s.Log.Info().Str("addr", s.srv.Addr).Msg("listening")
	err := s.srv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
