package server

import (
	"context"
	"log/slog"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/joseph-ayodele/astadocs/internal/repository"
)

// ServiceName is the gRPC health service name reported next to "".
const ServiceName = "astadocs"

// NewGRPCHealth returns a gRPC server exposing grpc.health.v1 and the
// health server whose status WatchHealth keeps current.
func NewGRPCHealth() (*grpc.Server, *health.Server) {
	hs := health.NewServer()
	gs := grpc.NewServer()
	healthpb.RegisterHealthServer(gs, hs)
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	return gs, hs
}

// WatchHealth pings the store every interval and flips the serving status
// accordingly until ctx is done.
func WatchHealth(ctx context.Context, hs *health.Server, store repository.Store, interval, timeout time.Duration, logger *slog.Logger) {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	check := func() {
		st := healthpb.HealthCheckResponse_SERVING
		if err := store.HealthCheck(ctx, timeout); err != nil {
			logger.Warn("health.db.down", "error", err)
			st = healthpb.HealthCheckResponse_NOT_SERVING
		}
		hs.SetServingStatus("", st)
		hs.SetServingStatus(ServiceName, st)
	}
	check()
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			hs.Shutdown()
			return
		case <-t.C:
			check()
		}
	}
}
