/*
main.go - Application entry point

PURPOSE:
  Command-line entry for the talent map service. Loads configuration,
  wires the store, cache, staffing service and board, and runs one of the
  sub-commands below.

COMMANDS:
  serve            Start the HTTP server (graceful shutdown on SIGINT/SIGTERM)
  sweep            Activate proposals whose start date has arrived, then exit
  seed <scenario>  Reset the database and load a demo scenario

FLAGS (all commands):
  --config  Path to a YAML config file (default: ./config.yaml if present)
  --db      SQLite database path; ":memory:" for an in-memory database
  --port    HTTP server port (serve only)

ENVIRONMENT:
  Every config key can be set as TALENTMAP_<SECTION>_<KEY>, e.g.
  TALENTMAP_SERVER_PORT=9000, TALENTMAP_CACHE_DRIVER=redis.
  Flags win over environment, environment over file, file over defaults.

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (server.shutdown_timeout)
  3. Close cache and database connections
  4. Exit

EXAMPLES:
  server serve --db ./data/talentmap.db
  server seed bench-risk --db ":memory:"
  TALENTMAP_LOGGING_FORMAT=json server serve

SEE ALSO:
  - config/config.go: Configuration keys and defaults
  - api/server.go: Router configuration
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/haashirideassion/workforcemanagement-sub000/api"
	"github.com/haashirideassion/workforcemanagement-sub000/board"
	"github.com/haashirideassion/workforcemanagement-sub000/cache"
	"github.com/haashirideassion/workforcemanagement-sub000/config"
	"github.com/haashirideassion/workforcemanagement-sub000/staffing"
	"github.com/haashirideassion/workforcemanagement-sub000/store/sqlite"
)

type flags struct {
	configPath string
	dbPath     string
	port       int
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	f := &flags{}
	root := &cobra.Command{
		Use:          "server",
		Short:        "Talent map: employee utilization, bench risk and project staffing",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&f.configPath, "config", "", "path to config file")
	root.PersistentFlags().StringVar(&f.dbPath, "db", "", "SQLite database path (overrides database.path)")

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, f)
		},
	}
	serve.Flags().IntVar(&f.port, "port", 0, "HTTP server port (overrides server.port)")

	sweep := &cobra.Command{
		Use:   "sweep",
		Short: "Activate proposals whose start date has arrived",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSweep(cmd, f)
		},
	}

	seed := &cobra.Command{
		Use:       "seed <scenario>",
		Short:     "Reset the database and load a demo scenario",
		Args:      cobra.ExactArgs(1),
		ValidArgs: scenarioIDs(),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(cmd, f, args[0])
		},
	}

	root.AddCommand(serve, sweep, seed)
	return root
}

func scenarioIDs() []string {
	var ids []string
	for _, s := range api.Scenarios() {
		ids = append(ids, s.ID)
	}
	return ids
}

// =============================================================================
// WIRING
// =============================================================================

type app struct {
	cfg   *config.Config
	log   zerolog.Logger
	store *sqlite.Store
	gens  cache.Generations
	svc   *staffing.Service

	closers []func() error
}

func loadConfig(cmd *cobra.Command, f *flags) (*config.Config, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("db") {
		cfg.Database.Path = f.dbPath
	}
	if cmd.Flags().Changed("port") {
		cfg.Server.Port = f.port
	}
	return cfg, cfg.Validate()
}

// setupLogger configures the global zerolog logger from config.
func setupLogger(cfg config.LoggingConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Format == "console" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	} else {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}
	return log.Logger
}

func newApp(ctx context.Context, cmd *cobra.Command, f *flags) (*app, error) {
	cfg, err := loadConfig(cmd, f)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, log: setupLogger(cfg.Logging)}

	a.store, err = sqlite.New(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	a.closers = append(a.closers, a.store.Close)

	switch cfg.Cache.Driver {
	case "redis":
		rdb, err := cache.NewRedis(ctx, cache.RedisOptions{
			Addresses:   cfg.Redis.Addresses,
			Password:    cfg.Redis.Password,
			DB:          cfg.Redis.DB,
			PoolSize:    cfg.Redis.PoolSize,
			ClusterMode: cfg.Redis.ClusterMode,
		})
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		a.gens = rdb
		a.closers = append(a.closers, rdb.Close)
	default:
		a.gens = cache.NewMemory()
	}

	a.svc = staffing.New(a.store, a.gens, a.log)
	a.log.Debug().
		Str("db", cfg.Database.Path).
		Str("cache", cfg.Cache.Driver).
		Msg("dependencies ready")
	return a, nil
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.log.Warn().Err(err).Msg("close failed")
		}
	}
}

// =============================================================================
// COMMANDS
// =============================================================================

func runServe(cmd *cobra.Command, f *flags) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cmd, f)
	if err != nil {
		return err
	}
	defer a.Close()
	cfg := a.cfg

	boards := board.NewRegistry(a.svc, a.log, cfg.Board.ClickTolerancePx, cfg.Board.SessionTTL)
	handler := api.NewHandler(a.svc, boards, a.log)
	router := api.NewRouter(handler, api.RouterOptions{
		AllowedOrigins:  cfg.CORS.AllowedOrigins,
		EnableScenarios: cfg.Server.EnableScenarios,
	})

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errc := make(chan error, 1)
	go func() {
		a.log.Info().
			Str("addr", server.Addr).
			Str("db", cfg.Database.Path).
			Bool("scenarios", cfg.Server.EnableScenarios).
			Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	a.log.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	a.log.Info().Msg("server stopped")
	return nil
}

func runSweep(cmd *cobra.Command, f *flags) error {
	ctx := cmd.Context()
	a, err := newApp(ctx, cmd, f)
	if err != nil {
		return err
	}
	defer a.Close()

	report, err := a.svc.SweepProjectStatuses(ctx, a.svc.Today())
	if err != nil {
		return err
	}
	a.log.Info().
		Int("checked", report.Checked).
		Int("activated", len(report.Activated)).
		Int("failed", len(report.Failed)).
		Msg("sweep finished")
	if len(report.Failed) > 0 {
		return fmt.Errorf("%d project(s) failed to activate", len(report.Failed))
	}
	return nil
}

func runSeed(cmd *cobra.Command, f *flags, scenario string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx, cmd, f)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := api.Seed(ctx, a.svc, scenario); err != nil {
		return err
	}
	a.log.Info().Str("scenario", scenario).Str("db", a.cfg.Database.Path).Msg("scenario loaded")
	return nil
}
