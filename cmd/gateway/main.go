package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rickgao/serum-gateway/internal/config"
	"github.com/rickgao/serum-gateway/internal/database"
	"github.com/rickgao/serum-gateway/internal/gateway"
	"github.com/rickgao/serum-gateway/internal/handler"
	"github.com/rickgao/serum-gateway/internal/ledger"
	"github.com/rickgao/serum-gateway/internal/market"
	"github.com/rickgao/serum-gateway/internal/model"
	"github.com/rickgao/serum-gateway/internal/router"
	"github.com/rickgao/serum-gateway/internal/serum"
	"github.com/rickgao/serum-gateway/internal/tokenlist"
	"github.com/rickgao/serum-gateway/internal/transport"
	"github.com/rickgao/serum-gateway/internal/version"
)

func main() {
	configPath := flag.String("config", "configs/gateway.local.yaml", "path to config file")
	flag.Parse()

	// Bootstrap logger until the configured one is known
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	configured, err := newLogger(os.Stdout, cfg.Log)
	if err != nil {
		logger.Error("failed to configure logging", "error", err)
		os.Exit(1)
	}
	logger = configured.With("instance_id", cfg.Instance.ID)
	slog.SetDefault(logger)

	logger.Info("starting gateway",
		"version", version.Version,
		"commit", version.Get().Commit,
		"config", *configPath,
		"bind", cfg.Transport.Bind,
		"rpc_url", cfg.Ledger.RPCURL,
	)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("gateway failed", "error", err)
		os.Exit(1)
	}

	logger.Info("gateway stopped")
}

func run(ctx context.Context, cfg *config.GatewayConfig, logger *slog.Logger) error {
	deps := &healthDeps{}

	// Optional Postgres market source
	var source market.Source
	if cfg.Database.Enabled() {
		logger.Info("connecting to database",
			"host", cfg.Database.Host,
			"port", cfg.Database.Port,
			"database", cfg.Database.Name,
		)
		pool, err := database.Connect(ctx, cfg.Database)
		if err != nil {
			return fmt.Errorf("connect database: %w", err)
		}
		defer pool.Close()

		if err := database.EnsureSchema(ctx, pool); err != nil {
			return err
		}
		source = market.PostgresSource{DB: pool}
		deps.db = pool
		logger.Info("database connected")
	}

	// Market registry
	registry, err := market.NewRegistry(market.ConfigFrom(cfg.Markets), source, logger)
	if err != nil {
		return fmt.Errorf("create market registry: %w", err)
	}
	if err := registry.Start(ctx); err != nil {
		return fmt.Errorf("start market registry: %w", err)
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		registry.Stop(shutdownCtx)
	}()
	deps.markets = registry
	logger.Info("market registry started", "markets", registry.Len())

	// Upstream clients
	ledgerClient := ledger.NewClient(
		cfg.Ledger.RPCURL,
		ledger.WithCommitment(cfg.Ledger.Commitment),
		ledger.WithTimeout(cfg.Ledger.Timeout),
		ledger.WithRetries(cfg.Ledger.MaxRetries, cfg.Ledger.RetryBackoff),
		ledger.WithLogger(logger),
	)
	logger.Info("ledger client ready",
		"endpoint", ledgerClient.Endpoint(),
		"commitment", cfg.Ledger.Commitment,
	)

	tokens := tokenlist.NewProvider(
		cfg.Tokens.URLs,
		tokenlist.WithTimeout(cfg.Tokens.Timeout),
		tokenlist.WithLogger(logger),
	)

	opts := serum.DefaultOptions()
	handlers := map[model.Endpoint]router.Handler{
		model.EndpointList:  handler.NewList(tokens, registry, cfg.Tokens.ClusterSlug),
		model.EndpointQuote: handler.NewQuote(ledgerClient, opts),
		model.EndpointDepth: handler.NewDepth(ledgerClient, opts),
	}

	// Transport
	sock, err := transport.ListenRouter(ctx, cfg.Transport.Bind, transport.RouterOptions{
		Timeout: cfg.Transport.SendTimeout,
		Logger:  logger,
	})
	if err != nil {
		return err
	}

	writer := transport.NewWriter(sock, transport.WriterConfig{
		OutboxCapacity: cfg.Transport.OutboxCapacity,
	}, logger)
	rt := router.NewRouter(router.ConfigFrom(cfg.Dispatch), handlers, writer, logger)
	server := gateway.NewServer(sock, rt, writer, gateway.ConfigFrom(cfg.Dispatch), logger)

	deps.server = server
	deps.router = rt
	deps.writer = writer

	// Health server
	var healthServer *http.Server
	if cfg.Health.Port > 0 {
		healthServer = &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Health.Port),
			Handler:           newHealthHandler(deps),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			logger.Info("starting health server", "port", cfg.Health.Port)
			if err := healthServer.ListenAndServe(); err != http.ErrServerClosed {
				logger.Error("health server error", "error", err)
			}
		}()
	}

	logger.Info("gateway running",
		"addr", sock.Addr(),
		"max_in_flight", cfg.Dispatch.MaxInFlight,
		"overload_policy", cfg.Dispatch.OverloadPolicy,
		"reply_errors", cfg.Dispatch.ErrorReplies(),
	)

	// Blocks until shutdown and drain
	runErr := server.Run(ctx)

	if healthServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		healthServer.Shutdown(shutdownCtx)
	}

	rs := rt.Stats()
	ws := writer.Stats()
	logger.Info("final stats",
		"received", rs.Received,
		"completed", rs.Completed,
		"failed", rs.Failed,
		"rejected", rs.Rejected,
		"sent", ws.Sent,
		"discarded", ws.Discarded,
	)
	return runErr
}

// newLogger builds the slog logger described by the log config section.
func newLogger(w io.Writer, cfg config.LogConfig) (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		return nil, fmt.Errorf("log level %q: %w", cfg.Level, err)
	}

	opts := &slog.HandlerOptions{Level: level}
	switch strings.ToLower(cfg.Format) {
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	case "", "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}
}
