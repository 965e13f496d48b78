package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/joseph-ayodele/dist1-extractor/internal/app"
	"github.com/joseph-ayodele/dist1-extractor/internal/async"
	"github.com/joseph-ayodele/dist1-extractor/internal/common"
	"github.com/joseph-ayodele/dist1-extractor/internal/server"
)

func main() {
	cfg := common.LoadConfig()
	logger := app.NewLogger(cfg.Log.SlogLevel())
	slog.SetDefault(logger)

	// Context with signal
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Build(ctx, cfg, logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	if a.DB != nil {
		if err := server.PingDB(ctx, a.DB, logger, cfg.History.DialTimeout); err != nil {
			logger.Error("history database health failed", "error", err)
			os.Exit(1)
		}
		logger.Info("history database health OK")
	}

	tracker := async.NewTracker()
	queue := async.NewProcessorQueue(a.Processor, tracker, logger, async.WithQueueSize(cfg.Server.QueueSize))

	srv, err := server.NewServer(queue, tracker, a.History, logger)
	if err != nil {
		logger.Error("server setup failed", "error", err)
		os.Exit(1)
	}
	gin.SetMode(gin.ReleaseMode)
	router, err := srv.Router()
	if err != nil {
		logger.Error("router setup failed", "error", err)
		os.Exit(1)
	}
	httpServer := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	var health *server.HealthServer
	if cfg.Server.GRPCHealthAddr != "" {
		health, err = server.NewHealthServer(cfg.Server.GRPCHealthAddr, logger)
		if err != nil {
			logger.Error("grpc health listen failed", "addr", cfg.Server.GRPCHealthAddr, "error", err)
			os.Exit(1)
		}
		go func() {
			if err := health.Serve(); err != nil {
				logger.Error("grpc health serve failed", "error", err)
			}
		}()
	}

	go func() {
		logger.Info("HTTP serving", "addr", cfg.Server.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http serve failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down...")

	if health != nil {
		health.Stop()
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownGrace)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", "error", err)
	}
	queue.Shutdown(shutdownCtx)
	logger.Info("stopped")
}
