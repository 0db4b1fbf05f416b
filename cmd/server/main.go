// Package main runs the dashboard state service:
// - Refresh tasks (continuous): prices, pool stats, ZAP epoch, bridge mappings
// - Relay: publishes changed state slices to WebSocket clients and Centrifugo
// - HTTP: currency list, wallet, health, status and metrics
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"

	"zilswap-dashboard/internal/api"
	"zilswap-dashboard/internal/broadcast"
	"zilswap-dashboard/internal/config"
	"zilswap-dashboard/internal/domain"
	"zilswap-dashboard/internal/observability"
	"zilswap-dashboard/internal/orchestrator"
	"zilswap-dashboard/internal/refresh"
	"zilswap-dashboard/internal/sources"
	"zilswap-dashboard/internal/state"
	"zilswap-dashboard/internal/storage"
	chstore "zilswap-dashboard/internal/storage/clickhouse"
	"zilswap-dashboard/internal/storage/memory"
	"zilswap-dashboard/internal/storage/migrations"
	pgstore "zilswap-dashboard/internal/storage/postgres"
)

// stores holds the storage implementations in use.
type stores struct {
	tokens  storage.TokenStore
	bridge  storage.BridgeStore
	history storage.PriceHistoryStore // nil without ClickHouse
}

func main() {
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "load .env: %v\n", err)
	}

	cfg, err := config.Load(os.Args[0], os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}

	root := observability.NewLogger(observability.LoggerOptions{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	})
	logger := observability.Component(root, "server")

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics(cfg.MetricsNamespace, reg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st, cleanup, err := createStores(ctx, cfg, metrics, observability.Component(root, "storage"))
	if err != nil {
		logger.WithError(err).Fatal("failed to create stores")
	}
	defer cleanup()

	var seed []domain.Token
	if cfg.TokenSeedFile != "" {
		seed, err = config.LoadTokenSeed(cfg.TokenSeedFile)
		if err != nil {
			logger.WithError(err).Fatal("failed to load token seed")
		}
	}

	store := state.NewStore()
	if err := refresh.Bootstrap(ctx, refresh.BootstrapOptions{
		Store:  store,
		Tokens: st.tokens,
		Bridge: st.bridge,
		Seed:   seed,
		Logger: observability.Component(root, "bootstrap"),
	}); err != nil {
		logger.WithError(err).Fatal("failed to bootstrap registry")
	}

	// Broadcast
	hub := broadcast.NewHub(nil, observability.Component(root, "hub"), metrics)
	publishers := []broadcast.Publisher{hub}
	if cfg.CentrifugoAddr != "" {
		publishers = append(publishers, broadcast.NewCentrifugoPublisher(broadcast.CentrifugoConfig{
			Addr: cfg.CentrifugoAddr,
			Key:  cfg.CentrifugoKey,
		}))
		logger.WithField("addr", cfg.CentrifugoAddr).Info("centrifugo publishing enabled")
	}
	relay := broadcast.NewRelay(broadcast.RelayOptions{
		Store:      store,
		Publishers: publishers,
		Logger:     observability.Component(root, "relay"),
		Metrics:    metrics,
	})
	hub.OnConnect(relay.SnapshotMessages)

	// Refresh tasks
	tasks, err := refresh.Tasks(buildTaskOptions(cfg, store, st, metrics, root))
	if err != nil {
		logger.WithError(err).Fatal("failed to build refresh tasks")
	}
	orch := orchestrator.New(orchestrator.Options{
		Logger:  observability.Component(root, "orchestrator"),
		Metrics: metrics,
	})

	// HTTP
	router := api.NewRouter(api.Options{
		Store:    store,
		Status:   orch,
		Tokens:   st.tokens,
		History:  st.history,
		Feed:     hub,
		Gatherer: reg,
		Metrics:  metrics,
		Logger:   observability.Component(root, "api"),
	})
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Channel to signal completion
	done := make(chan struct{})

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		logger.WithField("signal", sig.String()).Info("initiating graceful shutdown")
		cancel()

		// Wait for second signal for immediate shutdown
		select {
		case sig := <-sigCh:
			logger.WithField("signal", sig.String()).Warn("second signal, forcing immediate shutdown")
			os.Exit(1)
		case <-time.After(30 * time.Second):
			logger.Warn("graceful shutdown timed out after 30s, forcing exit")
			os.Exit(1)
		case <-done:
		}
	}()

	httpErr := make(chan error, 1)
	go func() {
		logger.WithField("addr", cfg.HTTPAddr).Info("starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			httpErr <- err
		}
	}()

	relayDone := make(chan struct{})
	go func() {
		defer close(relayDone)
		_ = relay.Run(ctx)
	}()

	if err := orch.Start(ctx, tasks...); err != nil {
		logger.WithError(err).Fatal("failed to start refresh tasks")
	}
	names := make([]string, 0, len(tasks))
	for _, t := range tasks {
		names = append(names, t.Name)
	}
	logger.WithField("tasks", names).Info("refresh tasks started")

	select {
	case <-ctx.Done():
	case err := <-httpErr:
		logger.WithError(err).Error("HTTP server error")
		cancel()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Warn("HTTP shutdown")
	}
	orch.Stop()
	<-relayDone
	hub.Close()
	close(done)

	logger.Info("shutdown complete")
}

// buildTaskOptions creates the HTTP sources for every configured upstream.
func buildTaskOptions(cfg *config.Config, store *state.Store, st *stores, metrics *observability.Metrics, root *logrus.Logger) refresh.Options {
	client := func(baseURL string) *sources.HTTPClient {
		opts := []sources.ClientOption{
			sources.WithTimeout(cfg.RequestTimeout),
			sources.WithMaxRetries(cfg.MaxRetries),
			sources.WithMetrics(metrics),
		}
		if cfg.RateLimit > 0 {
			opts = append(opts, sources.WithRateLimit(cfg.RateLimit, cfg.RateBurst))
		}
		return sources.NewHTTPClient(baseURL, opts...)
	}

	opts := refresh.Options{
		Store:        store,
		PriceHistory: st.history,
		BridgeStore:  st.bridge,
		Intervals: refresh.Intervals{
			Price:  cfg.PriceInterval,
			Stats:  cfg.StatsInterval,
			Zap:    cfg.ZapInterval,
			Bridge: cfg.BridgeInterval,
		},
		Logger: observability.Component(root, "refresh"),
	}
	if cfg.PriceAPI != "" {
		opts.Prices = sources.NewPriceClient(client(cfg.PriceAPI), cfg.PriceIDs)
	}
	if cfg.StatsAPI != "" {
		opts.Stats = sources.NewStatsClient(client(cfg.StatsAPI))
	}
	if cfg.ZapAPI != "" {
		opts.Zap = sources.NewZapClient(client(cfg.ZapAPI))
	}
	if cfg.BridgeAPI != "" {
		opts.Bridge = sources.NewBridgeClient(client(cfg.BridgeAPI))
	}
	return opts
}

// createStores creates the stores and runs migrations.
func createStores(ctx context.Context, cfg *config.Config, metrics *observability.Metrics, logger *logrus.Entry) (*stores, func(), error) {
	if cfg.UseMemory {
		logger.Info("using in-memory storage")
		return &stores{
			tokens:  memory.NewTokenStore(),
			bridge:  memory.NewBridgeStore(),
			history: memory.NewPriceHistoryStore(),
		}, func() {}, nil
	}

	// PostgreSQL
	pool, err := pgstore.NewPool(ctx, cfg.PostgresDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}
	pool.SetMetrics(metrics)
	applied, err := migrations.RunPostgresMigrations(ctx, pool)
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("postgres migrations: %w", err)
	}
	logger.WithField("files", applied).Info("postgres migrations applied")

	st := &stores{
		tokens: pgstore.NewTokenStore(pool),
		bridge: pgstore.NewBridgeStore(pool),
	}
	cleanup := func() { pool.Close() }

	// ClickHouse is optional
	if cfg.ClickhouseDSN == "" {
		logger.Info("clickhouse not configured, price history disabled")
		return st, cleanup, nil
	}
	chConn, err := migrations.RunClickhouseMigrations(ctx, cfg.ClickhouseDSN)
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("clickhouse migrations: %w", err)
	}
	chConn.SetMetrics(metrics)
	st.history = chstore.NewPriceHistoryStore(chConn)

	return st, func() {
		chConn.Close()
		pool.Close()
	}, nil
}
