package grpc

import (
	"context"
	"time"

	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

const defaultPingTimeout = 5 * time.Second

// Pinger reports whether a dependency is reachable. *sql.DB satisfies it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// check sets the overall status from one ping. A nil checker means there is
// nothing to depend on.
func (s *GRPCServer) check(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	if s.checker == nil {
		return healthpb.HealthCheckResponse_SERVING
	}

	timeout := s.interval
	if timeout <= 0 {
		timeout = defaultPingTimeout
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := s.checker.PingContext(pingCtx); err != nil {
		s.logger.Warn(ctx, "health check failed", "error", err)
		return healthpb.HealthCheckResponse_NOT_SERVING
	}
	return healthpb.HealthCheckResponse_SERVING
}

// watch updates the status every interval until ctx is done.
func (s *GRPCServer) watch(ctx context.Context) {
	s.health.SetServingStatus("", s.check(ctx))

	if s.interval <= 0 {
		return
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.health.SetServingStatus("", s.check(ctx))
		}
	}
}
