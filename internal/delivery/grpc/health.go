package grpc

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/rembayung/waitroom/pkg/logger"
)

const ServiceName = "rembayung.waitroom.v1"

type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthService reports SERVING while the ticket store answers pings.
type HealthService struct {
	srv      *health.Server
	store    Pinger
	interval time.Duration
	l        logger.Logger
}

func NewHealthService(store Pinger, interval time.Duration, l logger.Logger) *HealthService {
	srv := health.NewServer()
	srv.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	srv.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)

	return &HealthService{
		srv:      srv,
		store:    store,
		interval: interval,
		l:        l,
	}
}

func (h *HealthService) Register(s *grpc.Server) {
	healthpb.RegisterHealthServer(s, h.srv)
}

// Run probes the store every interval until ctx is done, then marks every
// service NOT_SERVING.
func (h *HealthService) Run(ctx context.Context) error {
	h.check(ctx)

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			h.srv.Shutdown()
			return nil
		case <-ticker.C:
			h.check(ctx)
		}
	}
}

func (h *HealthService) check(ctx context.Context) {
	status := healthpb.HealthCheckResponse_SERVING

	pingCtx, cancel := context.WithTimeout(ctx, h.interval)
	defer cancel()
	if err := h.store.Ping(pingCtx); err != nil {
		h.l.Warnf(ctx, "delivery.grpc.HealthService.check: %v", err)
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}

	h.srv.SetServingStatus("", status)
	h.srv.SetServingStatus(ServiceName, status)
}
