package bootstrap

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-lms/internal/config"

	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

// WaitForSignal blocks until SIGINT or SIGTERM arrives or ctx is cancelled.
func WaitForSignal(ctx context.Context) string {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case sig := <-quit:
		return sig.String()
	case <-ctx.Done():
		return "context done"
	}
}

// StartHTTPServer serves handler until a shutdown signal, then drains connections.
// onShutdown hooks run after the server has stopped accepting requests.
func StartHTTPServer(
	handler http.Handler,
	cfg config.ServerConfig,
	auditLogger AuditLogger,
	onShutdown ...func(context.Context),
) {
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	go func() {
		zap.L().Info("HTTP server running", zap.String("port", cfg.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zap.L().Fatal("ListenAndServe error", zap.Error(err))
		}
	}()

	sig := WaitForSignal(context.Background())
	zap.L().Info("Shutdown signal received", zap.String("signal", sig))

	auditLogger.Log(context.Background(), AuditLog{
		Action:  "SERVER_SHUTDOWN",
		Message: "Server is shutting down",
		Meta: map[string]any{
			"signal": sig,
		},
	})

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		zap.L().Error("Forced shutdown", zap.Error(err))
	} else {
		zap.L().Info("Server exited gracefully")
	}

	for _, hook := range onShutdown {
		hook(ctx)
	}
}
