// Package main is the entry point for the argon binary.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/deadweight/argon/internal/governance"
	"github.com/deadweight/argon/pkg/assets"
	"github.com/deadweight/argon/pkg/comfy"
	"github.com/deadweight/argon/pkg/config"
	"github.com/deadweight/argon/pkg/engine"
	"github.com/deadweight/argon/pkg/jobs"
	"github.com/deadweight/argon/pkg/logging"
	"github.com/deadweight/argon/pkg/server"
	"github.com/deadweight/argon/pkg/telemetry"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "argon",
		Short: "Generation pipeline orchestrator",
		Long: `Argon exposes an HTTP API for face analysis, expression transfer and
image generation, orchestrating workflow graphs on a node-graph
execution engine.

Example:
  argon --config argon.yaml --listen :7860`,
		RunE: runServe,
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the API server",
		RunE:  runServe,
	}

	for _, cmd := range []*cobra.Command{rootCmd, serveCmd} {
		cmd.Flags().StringP("config", "c", "", "Path to configuration file (YAML)")
		cmd.Flags().String("listen", "", "API listen address (overrides config)")
		cmd.Flags().String("admin", "", "Admin listen address (overrides config)")
		cmd.Flags().StringP("log-level", "l", "", "Log level (debug, info, warn, error)")
		cmd.Flags().Bool("pretty", false, "Enable pretty console logging")
	}
	rootCmd.AddCommand(serveCmd)

	return rootCmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	listenAddr, _ := cmd.Flags().GetString("listen")
	adminAddr, _ := cmd.Flags().GetString("admin")
	logLevel, _ := cmd.Flags().GetString("log-level")
	pretty, _ := cmd.Flags().GetBool("pretty")

	bootLogger := logging.NewLogger(logging.Config{Level: "info", Pretty: pretty})

	var provider *config.FileProvider
	var cfg *config.Config
	if configPath != "" {
		p, err := config.NewFileProvider(configPath, bootLogger)
		if err != nil {
			return fmt.Errorf("load configuration: %w", err)
		}
		provider = p
		defer func() {
			if err := provider.Close(); err != nil {
				slog.Error("Failed to close config provider", "error", err)
			}
		}()
		cfg = provider.Current()
	} else {
		c, err := config.Load("")
		if err != nil {
			return fmt.Errorf("load configuration: %w", err)
		}
		cfg = c
	}

	if listenAddr != "" {
		cfg.Server.Address = listenAddr
	}
	if adminAddr != "" {
		cfg.Server.AdminAddress = adminAddr
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if pretty {
		cfg.Logging.Pretty = true
	}

	logger := logging.NewLogger(logging.Config{
		Level:  cfg.Logging.Level,
		Pretty: cfg.Logging.Pretty,
	})
	slog.SetDefault(logger)

	logger.Info("Starting argon",
		"config", configPath,
		"listen", cfg.Server.Address,
		"executor", cfg.Executor.BaseURL,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := telemetry.SetupProvider(ctx, telemetry.Config{
		ServiceName: "argon",
		Endpoint:    cfg.Telemetry.OTLPEndpoint,
		Environment: cfg.Telemetry.Environment,
		Insecure:    cfg.Telemetry.Insecure,
	})
	if err != nil {
		return fmt.Errorf("setup telemetry: %w", err)
	}

	client := comfy.New(comfy.Config{
		BaseURL:      cfg.Executor.BaseURL,
		PollInterval: cfg.Executor.PollInterval.Std(),
	}, logger)

	readyCtx, cancelReady := context.WithTimeout(ctx, cfg.Executor.StartupTimeout.Std())
	if err := client.WaitReady(readyCtx); err != nil {
		logger.Warn("Execution engine not reachable, serving mock results", "error", err)
	}
	cancelReady()

	registry := assets.NewRegistry(assets.Config{
		Dir:        cfg.Assets.Dir,
		Token:      cfg.Assets.CatalogToken,
		MaxRetries: cfg.Assets.MaxRetries,
	}, logger)

	inputDir := cfg.Executor.InputDir
	stage := func(data []byte) (string, error) {
		return comfy.StageInput(inputDir, data)
	}

	eng := engine.New(engine.Config{
		Workers:        cfg.Engine.Workers,
		Checkpoint:     cfg.Engine.Checkpoint,
		ControlNet:     cfg.Engine.ControlNet,
		NegativePrompt: cfg.Engine.NegativePrompt,
	}, client, nil, stage, jobs.NewStore(), registry, logger)

	limiter := governance.NewRateLimiter(routeLimits(cfg))
	srv := server.New(eng, limiter, logger)

	if provider != nil {
		go watchConfig(provider, limiter, logger)
	}

	apiServer := startServer(cfg.Server.Address, otelhttp.NewHandler(srv.Routes(), "argon.api"), logger)
	adminServer := startServer(cfg.Server.AdminAddress, adminHandler(srv), logger)

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("API server shutdown error", "error", err)
	}
	if err := adminServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("Admin server shutdown error", "error", err)
	}

	eng.Wait()

	if err := shutdownTelemetry(shutdownCtx); err != nil {
		logger.Error("Telemetry shutdown error", "error", err)
	}

	logger.Info("Shutdown complete")
	return nil
}

// routeLimits maps the configured rate limit onto the limited routes.
func routeLimits(cfg *config.Config) map[string]governance.RateLimiterConfig {
	if cfg.RateLimit.RequestsPerSecond <= 0 {
		return nil
	}
	limit := governance.RateLimiterConfig{
		RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
		BurstSize:         cfg.RateLimit.Burst,
	}
	return map[string]governance.RateLimiterConfig{
		"transfer": limit,
		"generate": limit,
	}
}

// watchConfig applies live-reloadable settings from config snapshots. Only
// rate limits take effect without a restart.
func watchConfig(provider *config.FileProvider, limiter *governance.RateLimiter, logger *slog.Logger) {
	for snapshot := range provider.Subscribe() {
		limiter.Configure(routeLimits(snapshot))
		logger.Info("Configuration update applied",
			"requests_per_second", snapshot.RateLimit.RequestsPerSecond,
			"burst", snapshot.RateLimit.Burst,
		)
	}
}

func adminHandler(srv *server.Server) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", srv.Metrics().Handler())
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}

func startServer(addr string, handler http.Handler, logger *slog.Logger) *http.Server {
	httpServer := &http.Server{
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		logger.Error("Failed to bind listener", "addr", addr, "error", err)
		os.Exit(1)
	}

	logger.Info("Server listening", "addr", listener.Addr().String())

	go func() {
		if err := httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	return httpServer
}
