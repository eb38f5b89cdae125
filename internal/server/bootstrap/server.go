package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"taskhub/internal/logging"
	"taskhub/internal/observability"
	serverhttp "taskhub/internal/server/http"
	taskapp "taskhub/internal/task/app"
)

// RunServer boots the whole stack: stores, services, background workers and
// the HTTP listener. It blocks until SIGINT/SIGTERM and shuts down cleanly.
func RunServer() error {
	cfg := LoadConfig()
	logger := logging.NewComponentLogger("Server")
	metrics := observability.DefaultMetrics()

	pool, err := OpenDatabase(cfg)
	if err != nil {
		return err
	}
	if pool != nil {
		defer pool.Close()
	}

	authService, err := BuildAuthService(cfg, pool, logger)
	if err != nil {
		return err
	}
	taskService, err := BuildTaskService(pool, authService, logger)
	if err != nil {
		return err
	}

	hub := serverhttp.NewStreamHub(metrics)
	dispatcher := taskapp.NewDispatcher(
		taskService.Repository(),
		taskService.Settings(),
		hub,
		logging.NewComponentLogger("Dispatcher"),
		metrics,
	).WithInterval(cfg.DispatchEvery)

	dispatchCtx, stopDispatch := context.WithCancel(context.Background())
	defer stopDispatch()
	go dispatcher.Run(dispatchCtx)

	sweeper := taskapp.NewSweeper(taskService, cfg.SweepSchedule, logging.NewComponentLogger("Sweeper"), metrics)
	if err := sweeper.Start(); err != nil {
		return fmt.Errorf("start sweeper: %w", err)
	}
	defer sweeper.Stop()

	handler := serverhttp.NewRouter(serverhttp.RouterConfig{
		AuthService:    authService,
		TaskService:    taskService,
		StreamHub:      hub,
		Metrics:        metrics,
		Environment:    cfg.Environment,
		AllowedOrigins: cfg.AllowedOrigins,
		SecureCookies:  cfg.SecureCookies,
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return serveUntilSignal(server, logger)
}

func serveUntilSignal(server *http.Server, logger logging.Logger) error {
	logger = logging.OrNop(logger)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server listening on %s", server.Addr)
		errCh <- server.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errCh:
		if err == nil || err == http.ErrServerClosed {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case <-quit:
		logger.Info("Shutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		shutdownErr := server.Shutdown(ctx)

		serveErr := <-errCh
		if serveErr == http.ErrServerClosed {
			serveErr = nil
		}

		if shutdownErr != nil {
			return fmt.Errorf("shutdown: %w", shutdownErr)
		}
		if serveErr != nil {
			return fmt.Errorf("server error: %w", serveErr)
		}

		logger.Info("Server stopped")
		return nil
	}
}
