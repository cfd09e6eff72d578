package integration

import (
	"net/http/httptest"
	"sync"

	"github.com/doodlesbykumbi/admin-transfer/pkg/audit"
	"github.com/doodlesbykumbi/admin-transfer/pkg/config"
	"github.com/doodlesbykumbi/admin-transfer/pkg/identity"
	"github.com/doodlesbykumbi/admin-transfer/pkg/server"
	"github.com/doodlesbykumbi/admin-transfer/pkg/server/endpoints"
	"github.com/doodlesbykumbi/admin-transfer/pkg/store"
	gormstore "github.com/doodlesbykumbi/admin-transfer/pkg/store/gorm"
	"github.com/doodlesbykumbi/admin-transfer/pkg/store/memory"
	"github.com/doodlesbykumbi/admin-transfer/pkg/transfer"
)

// protocolAddress is the address the transfer service holds pools under.
const protocolAddress identity.Address = "admin-transfer"

// ServerConfig holds the per-scenario server settings
type ServerConfig struct {
	AllowUnauthenticatedPropose bool
}

// ServerInstance is a transfer server bound to a loopback listener
type ServerInstance struct {
	Server   *server.Server
	Protocol *transfer.Protocol
	URL      string

	http   *httptest.Server
	mu     sync.Mutex
	events []audit.Event
}

// StartServer builds a server over the test context's substrate and serves
// it on a random local port.
func StartServer(tc *TestContext, cfg ServerConfig) (*ServerInstance, error) {
	var (
		substrate store.Substrate
		pools     store.PoolRegistry
		health    store.HealthStore
	)
	if tc.DB != nil {
		substrate = gormstore.NewSubstrate(tc.DB)
		pools = gormstore.NewPoolRegistry(tc.DB)
		health = gormstore.NewHealthStore(tc.DB)
	} else {
		st := memory.New()
		substrate, pools, health = st, st.Registry(), st
	}

	si := &ServerInstance{}
	sink := audit.SinkFunc(si.record)
	if tc.AuditStore != nil {
		sink = func(e audit.Event) {
			si.record(e)
			(&audit.Recorder{Store: tc.AuditStore}).Log(e)
		}
	}

	opts := []transfer.Option{transfer.WithAuditSink(sink)}
	if cfg.AllowUnauthenticatedPropose {
		opts = append(opts, transfer.WithUnauthenticatedPropose())
	}
	protocol, err := transfer.New(substrate, protocolAddress, opts...)
	if err != nil {
		return nil, err
	}

	s := server.NewServer(protocol, pools, health, &config.Config{TokenMaxAgeSeconds: 300}, "127.0.0.1", "0")
	s.SetAudit(sink)
	endpoints.RegisterAll(s)

	si.Server = s
	si.Protocol = protocol
	si.http = httptest.NewServer(s.Router)
	si.URL = si.http.URL
	return si, nil
}

func (si *ServerInstance) record(e audit.Event) {
	si.mu.Lock()
	defer si.mu.Unlock()
	si.events = append(si.events, e)
}

// AuditIDs returns the message ids of the events seen so far, oldest first.
func (si *ServerInstance) AuditIDs() []string {
	si.mu.Lock()
	defer si.mu.Unlock()
	ids := make([]string, 0, len(si.events))
	for _, e := range si.events {
		ids = append(ids, e.MessageID())
	}
	return ids
}

// Stop shuts down the listener
func (si *ServerInstance) Stop() {
	if si.http != nil {
		si.http.Close()
	}
}
