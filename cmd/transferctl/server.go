package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/doodlesbykumbi/admin-transfer/pkg/config"
	"github.com/doodlesbykumbi/admin-transfer/pkg/db"
	"github.com/doodlesbykumbi/admin-transfer/pkg/identity"
	"github.com/doodlesbykumbi/admin-transfer/pkg/logging"
	"github.com/doodlesbykumbi/admin-transfer/pkg/server"
	"github.com/doodlesbykumbi/admin-transfer/pkg/server/endpoints"
	"github.com/doodlesbykumbi/admin-transfer/pkg/store"
	gormstore "github.com/doodlesbykumbi/admin-transfer/pkg/store/gorm"
	"github.com/doodlesbykumbi/admin-transfer/pkg/store/memory"
	"github.com/doodlesbykumbi/admin-transfer/pkg/transfer"
)

// serverCmd represents the server command
var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Run the admin transfer server",
	Long: `Run the admin transfer server.

The server requires DATABASE_URL unless --memory is given. By default,
database migrations are run on startup. Use --no-migrate to skip.

The configuration file is watched while the server runs; changes to the
log level and retention windows apply without a restart.`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := runServer(cmd); err != nil {
			log.Error().Err(err).Msg("server failed")
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)

	serverCmd.Flags().StringP("port", "p", defaultPort(), "server listen port")
	serverCmd.Flags().StringP("bind-address", "b", defaultBindAddress(), "server bind address")
	serverCmd.Flags().Bool("no-migrate", false, "skip running database migrations on start")
	serverCmd.Flags().Bool("memory", false, "keep pools and transfers in memory instead of PostgreSQL")
}

type backend struct {
	substrate store.Substrate
	pools     store.PoolRegistry
	health    store.HealthStore
}

func runServer(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	logging.Init("transferctl", cfg.Level())

	inMemory, _ := cmd.Flags().GetBool("memory")
	noMigrate, _ := cmd.Flags().GetBool("no-migrate")

	var b backend
	if inMemory {
		log.Warn().Msg("using in-memory state; pools and transfers are lost on exit")
		st := memory.New()
		b = backend{substrate: st, pools: st.Registry(), health: st}
	} else {
		if db.URL() == "" {
			return errors.New("DATABASE_URL environment variable is required")
		}
		if !noMigrate {
			version, changed, err := db.MigrateUp(db.URL())
			if err != nil {
				return err
			}
			log.Info().Uint("version", version).Bool("changed", changed).Msg("database migrations applied")
		}

		conn, err := db.Connect(db.Config{LogLevel: cfg.Level()})
		if err != nil {
			return err
		}
		b = backend{
			substrate: gormstore.NewSubstrate(conn),
			pools:     gormstore.NewPoolRegistry(conn),
			health:    gormstore.NewHealthStore(conn),
		}
	}

	opts := []transfer.Option{transfer.WithPolicy(cfg.Policy())}
	if cfg.AllowUnauthenticatedPropose {
		log.Warn().Msg("unauthenticated propose is enabled")
		opts = append(opts, transfer.WithUnauthenticatedPropose())
	}
	protocol, err := transfer.New(b.substrate, identity.Address(cfg.ProtocolAddress), opts...)
	if err != nil {
		return err
	}

	host, _ := cmd.Flags().GetString("bind-address")
	port, _ := cmd.Flags().GetString("port")
	s := server.NewServer(protocol, b.pools, b.health, cfg, host, port)
	endpoints.RegisterAll(s)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go watchConfig(ctx, cfg.ConfigFilePath(), protocol)

	errCh := make(chan error, 1)
	go func() { errCh <- s.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.Shutdown(shutdownCtx)
}

func watchConfig(ctx context.Context, path string, protocol *transfer.Protocol) {
	err := config.Watch(ctx, path, func(c *config.Config) {
		logging.SetLevel(c.Level())
		if err := protocol.SetPolicy(c.Policy()); err != nil {
			log.Warn().Err(err).Msg("ignoring retention policy from reloaded configuration")
		}
	})
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("configuration file is not watched")
	}
}
