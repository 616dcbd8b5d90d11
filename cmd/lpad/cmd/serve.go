package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/aardel/launchpad/internal/handlers"
	"github.com/aardel/launchpad/internal/metrics"
	"github.com/aardel/launchpad/internal/platform"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the local HTTP API",
	Long: `Run the LaunchPad HTTP API on a loopback address for launcher front ends
and scripts. The vault starts locked; unlock it with 'lpad unlock'.

Endpoints:
  GET  /health, /ready, /metrics
  GET  /api/v1/groups, /api/v1/items, /api/v1/items/{id}/resolve
  POST /api/v1/items/{id}/launch, /api/v1/groups/{id}/launch
  POST /api/v1/vault/unlock, /api/v1/vault/lock`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (loopback only)")
	viper.BindPFlag("serve.addr", serveCmd.Flags().Lookup("addr"))

	rootCmd.AddCommand(serveCmd)
}

func newServerLogger(format string, level slog.Level) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

func runServe(cmd *cobra.Command, _ []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	logger := newServerLogger(a.cfg.Log.Format, a.cfg.SlogLevel())
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	prober := a.prober()
	router := handlers.NewRouter(&handlers.Dependencies{
		Config:   a.cfg,
		Store:    a.store,
		Vault:    a.vault,
		Launcher: a.dispatcher(logger),
		Prober:   prober,
		Logger:   logger,
	})

	server := &http.Server{
		Addr:         a.cfg.Serve.Addr,
		Handler:      router,
		ReadTimeout:  a.cfg.Serve.ReadTimeout,
		WriteTimeout: a.cfg.Serve.WriteTimeout,
		IdleTimeout:  a.cfg.Serve.IdleTimeout,
	}

	// Start metrics collector (every 30 seconds)
	go metrics.StartCollector(ctx, a.store, a.vault, 30*time.Second)

	// Start server in goroutine
	go func() {
		logger.Info("server listening", "addr", a.cfg.Serve.Addr, "data_dir", a.cfg.DataDir)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			cancel()
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		logger.Info("shutting down server")
	case <-ctx.Done():
		logger.Info("context canceled")
	}

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	platform.FlushScripts(shutdownCtx)

	logger.Info("server stopped")
	return nil
}
