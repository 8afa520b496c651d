package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"unibio.dev/workbench/internal/api"
	"unibio.dev/workbench/internal/backend"
	"unibio.dev/workbench/internal/config"
	"unibio.dev/workbench/internal/core"
	"unibio.dev/workbench/internal/logging"
	"unibio.dev/workbench/internal/metrics"
	"unibio.dev/workbench/internal/store"
)

const sweepInterval = time.Hour

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "unibio-workbench",
		Short:         "Web workbench for the UniBio molecular biology tools",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			config.LoadConfig()
			logging.Init(config.AppConfig.AppEnv, config.AppConfig.LogLevel)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			err := serve(cmd.Context())
			if err != nil {
				logging.Logger.Error("server stopped", "error", err)
			}
			return err
		},
	}
	cmd.AddCommand(newHealthCmd())
	return cmd
}

func newBackendClient(m *metrics.Backend) *backend.Client {
	cfg := config.AppConfig
	return backend.NewClient(cfg.BackendURL,
		backend.WithTimeouts(cfg.RequestTimeout, cfg.ChatTimeout),
		backend.WithMetrics(m),
		backend.WithCache(cfg.CacheTTL),
	)
}

func serve(ctx context.Context) error {
	cfg := config.AppConfig
	if err := cfg.Validate(); err != nil {
		return err
	}

	// Initialize database store
	dbStore, err := store.NewSQLiteStore(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer dbStore.Close()

	registry := metrics.NewRegistry()
	client := newBackendClient(metrics.NewBackend(registry))
	manager := core.NewManager(dbStore, client, cfg.SessionIdleTTL, cfg.MaxHistory)

	handler, err := api.NewHandler(manager, dbStore, []byte(cfg.SessionSecret), cfg.SessionRetention)
	if err != nil {
		return err
	}
	router := api.NewRouter(handler, metrics.Handler(registry))

	serverAddr := fmt.Sprintf(":%s", cfg.HTTPPort)
	srv := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.ChatTimeout + 15*time.Second, // chat turns can run several tools
		IdleTimeout:  120 * time.Second,
	}

	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	go sweepSessions(sweepCtx, manager, cfg.SessionRetention)

	// Graceful shutdown handling
	serverErr := make(chan error, 1)
	go func() {
		logging.Logger.Info("starting server", "addr", serverAddr, "backend", client.BaseURL())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-serverErr:
		return fmt.Errorf("could not listen on %s: %w", serverAddr, err)
	case <-quit:
	}
	logging.Logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logging.Logger.Info("server exited gracefully")
	return nil
}

// sweepSessions drops sessions nobody has touched within retention.
func sweepSessions(ctx context.Context, m *core.Manager, retention time.Duration) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		if _, err := m.Sweep(ctx, retention); err != nil {
			logging.Logger.Warn("session sweep failed", "error", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
