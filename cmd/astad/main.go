package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joseph-ayodele/astadocs/internal/archive"
	"github.com/joseph-ayodele/astadocs/internal/async"
	"github.com/joseph-ayodele/astadocs/internal/cache"
	"github.com/joseph-ayodele/astadocs/internal/common"
	"github.com/joseph-ayodele/astadocs/internal/export"
	"github.com/joseph-ayodele/astadocs/internal/ingest"
	"github.com/joseph-ayodele/astadocs/internal/pipeline"
	repo "github.com/joseph-ayodele/astadocs/internal/repository"
	"github.com/joseph-ayodele/astadocs/internal/server"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel(os.Getenv("LOG_LEVEL")),
	}))
	slog.SetDefault(logger)

	if err := common.LoadDotEnv(); err != nil {
		logger.Error("failed to load .env", "error", err)
		os.Exit(1)
	}
	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := repo.Open(ctx, cfg.Database, logger)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	if err := store.HealthCheck(ctx, 5*time.Second); err != nil {
		logger.Error("failed to ping database", "error", err)
		os.Exit(1)
	}

	cc, err := cache.New(cfg.Cache, logger)
	if err != nil {
		logger.Error("failed to connect cache", "error", err)
		os.Exit(1)
	}
	defer func() { _ = cc.Close() }()

	proc, err := pipeline.Build(cfg, cc, logger)
	if err != nil {
		logger.Error("failed to build pipeline", "error", err)
		os.Exit(2)
	}

	arch := archive.NewWriter(cfg.Storage.OutputDir, logger)
	queue := async.NewProcessorQueue(proc, store, logger,
		async.WithWorkers(cfg.Server.Workers),
		async.WithQueueSize(cfg.Server.QueueSize),
		async.WithProcessTimeout(5*time.Minute),
		async.WithArchiver(arch),
	)

	srv := server.New(server.Deps{
		Processor:      proc,
		Source:         ingest.NewSource(cfg.Storage, cfg.Server.MaxUploadBytes, logger),
		Archive:        arch,
		Store:          store,
		Queue:          queue,
		Export:         export.NewService(store, logger),
		Logger:         logger,
		MaxUploadBytes: cfg.Server.MaxUploadBytes,
	})
	httpServer := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
	}

	grpcServer, healthServer := server.NewGRPCHealth()
	if addr := cfg.Server.GRPCAddr; addr != "" {
		lis, err := net.Listen("tcp", addr)
		if err != nil {
			logger.Error("failed to listen on address", "addr", addr, "error", err)
			os.Exit(1)
		}
		go server.WatchHealth(ctx, healthServer, store, 15*time.Second, 3*time.Second, logger)
		go func() {
			logger.Info("grpc.health.listening", "addr", addr)
			if err := grpcServer.Serve(lis); err != nil {
				logger.Error("gRPC serve error", "error", err)
			}
		}()
	}

	go func() {
		logger.Info("astadocs listening",
			"addr", cfg.Server.HTTPAddr,
			"draft", proc.CanDraft(),
			"listing_dir", cfg.Storage.ListingDir,
			"proposal_dir", cfg.Storage.ProposalDir,
			"output_dir", cfg.Storage.OutputDir,
		)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http serve error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", "error", err)
	}
	queue.Shutdown(shutdownCtx)
	grpcServer.GracefulStop()
}

func logLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
