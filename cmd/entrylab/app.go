package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"membership-entry-lab/internal/config"
	"membership-entry-lab/internal/logger"
	"membership-entry-lab/internal/observability"
	"membership-entry-lab/internal/snapshot"
	"membership-entry-lab/internal/storage"
	chstore "membership-entry-lab/internal/storage/clickhouse"
	"membership-entry-lab/internal/storage/memory"
	pgstore "membership-entry-lab/internal/storage/postgres"
)

// app carries the per-command ambient stack.
type app struct {
	env     config.Env
	log     zerolog.Logger
	reg     *prometheus.Registry
	metrics *observability.Metrics
}

func newApp(cmd *cobra.Command) *app {
	env := config.LoadEnv()

	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		env.LogLevel = level
	}
	if pretty, _ := cmd.Flags().GetBool("log-pretty"); pretty {
		env.LogPretty = true
	}
	if addr, _ := cmd.Flags().GetString("metrics-addr"); addr != "" {
		env.MetricsAddr = addr
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &app{
		env: env,
		log: logger.New(logger.Config{
			Level:  env.LogLevel,
			Pretty: env.LogPretty,
			Out:    cmd.ErrOrStderr(),
		}).With().Str("command", cmd.Name()).Logger(),
		reg:     reg,
		metrics: observability.NewMetrics("", reg),
	}
}

// loadConfig reads the --config file over defaults, or returns the defaults.
func (a *app) loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, err
	}
	if path != "" {
		a.log.Debug().Str("path", path).Msg("loaded parameter file")
	}
	return cfg, nil
}

// openStores connects the configured databases and applies their migrations.
// Stores without a DSN fall back to memory. The returned func closes all connections.
func (a *app) openStores(ctx context.Context) (storage.Stores, func(), error) {
	stores := memory.NewStores()
	backends := storage.Backends{Runs: "memory", Summaries: "memory", Decisions: "memory", Valuations: "memory"}
	var closers []func()
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	if a.env.PostgresDSN != "" {
		pool, err := pgstore.OpenAndMigrate(ctx, a.env.PostgresDSN)
		if err != nil {
			return storage.Stores{}, nil, err
		}
		closers = append(closers, pool.Close)
		stores.Runs = pgstore.NewRunStore(pool)
		stores.Decisions = pgstore.NewDecisionRowStore(pool)
		stores.Valuations = pgstore.NewValuationStore(pool)
		backends.Runs, backends.Decisions, backends.Valuations = "postgres", "postgres", "postgres"
		a.log.Info().Msg("using postgres for runs, decisions and valuations")
	}

	if a.env.ClickhouseDSN != "" {
		conn, err := chstore.OpenAndMigrate(ctx, a.env.ClickhouseDSN)
		if err != nil {
			closeAll()
			return storage.Stores{}, nil, err
		}
		closers = append(closers, func() { _ = conn.Close() })
		stores.Summaries = chstore.NewScenarioSummaryStore(conn)
		backends.Summaries = "clickhouse"
		a.log.Info().Msg("using clickhouse for scenario summaries")
	}

	return storage.Instrument(stores, backends, a.metrics), closeAll, nil
}

// snapshotStores loads a snapshot into fresh memory stores.
func (a *app) snapshotStores(ctx context.Context, snap *snapshot.Snapshot) (storage.Stores, error) {
	stores := memory.NewStores()
	if snap.Run == nil {
		return stores, errors.New("snapshot has no run record")
	}
	if err := stores.Summaries.InsertBulk(ctx, snap.Summaries); err != nil {
		return stores, fmt.Errorf("load summaries: %w", err)
	}
	if err := stores.Decisions.InsertBulk(ctx, snap.Decisions); err != nil {
		return stores, fmt.Errorf("load decisions: %w", err)
	}
	if err := stores.Valuations.InsertBulk(ctx, snap.Valuations); err != nil {
		return stores, fmt.Errorf("load valuations: %w", err)
	}
	if err := stores.Runs.Insert(ctx, snap.Run); err != nil {
		return stores, fmt.Errorf("load run: %w", err)
	}
	return stores, nil
}

// serveMetrics starts the /metrics and /health endpoints when an address is
// configured. The returned func shuts the server down.
func (a *app) serveMetrics() func() {
	if a.env.MetricsAddr == "" {
		return func() {}
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	mux.Handle("/metrics", observability.HandlerFor(a.reg))

	srv := &http.Server{
		Addr:              a.env.MetricsAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		a.log.Info().Str("addr", srv.Addr).Msg("metrics server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Error().Err(err).Msg("metrics server failed")
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}
