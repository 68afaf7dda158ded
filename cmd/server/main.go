// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/gavinz0228/exploding-kitten/internal/handlers"
	"github.com/gavinz0228/exploding-kitten/internal/middleware"
	"github.com/gavinz0228/exploding-kitten/internal/room"
)

const releaseVersion = "1.0.0"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := &Config{}
	cobra.CheckErr(newCmd(cfg).ExecuteContext(ctx))
}

func serve(ctx context.Context, cfg *Config) error {
	logger := logrus.New()
	if cfg.verbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	mgr := room.NewManager(cfg.nopeWindow, logger)

	stop := make(chan struct{})
	defer close(stop)
	go mgr.RunCleanup(cfg.cleanupInterval, stop)

	mux := http.NewServeMux()

	withLog := middleware.LogMiddleware(logger)
	mux.Handle("/ws", withLog(handlers.GameWSHandler(logger, mgr)))
	mux.Handle("/api/rooms", withLog(handlers.RoomListHandler(mgr)))
	mux.Handle("/api/stats", withLog(handlers.StatsHandler(mgr)))
	mux.Handle("/health", handlers.HealthHandler())

	addr := fmt.Sprintf("%s:%d", cfg.bind, cfg.port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("Running on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
