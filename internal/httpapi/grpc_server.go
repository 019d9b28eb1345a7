package httpapi

import (
	"context"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/warden-api/warden/internal/obs"
)

// GRPCHealthServer exposes the standard gRPC health service backed by the
// same readiness probe as /readyz, for load balancers that speak gRPC.
type GRPCHealthServer struct {
	srv    *grpc.Server
	health *health.Server
	probe  readinessChecker
}

// NewGRPCHealthServer creates the server and registers the health service.
func NewGRPCHealthServer(probe readinessChecker) *GRPCHealthServer {
	s := &GRPCHealthServer{
		srv:    grpc.NewServer(),
		health: health.NewServer(),
		probe:  probe,
	}
	healthpb.RegisterHealthServer(s.srv, s.health)
	return s
}

// Serve listens on addr until ctx is cancelled, re-evaluating readiness
// every ten seconds.
func (s *GRPCHealthServer) Serve(ctx context.Context, addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	s.refresh(ctx)
	go s.watch(ctx)
	go func() {
		<-ctx.Done()
		s.srv.GracefulStop()
	}()

	return s.srv.Serve(lis)
}

func (s *GRPCHealthServer) watch(ctx context.Context) {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.refresh(ctx)
		}
	}
}

func (s *GRPCHealthServer) refresh(ctx context.Context) {
	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := s.probe.Check(checkCtx); err != nil {
		s.health.SetServingStatus(serviceName, healthpb.HealthCheckResponse_NOT_SERVING)
		obs.SetReady(false)
		return
	}
	s.health.SetServingStatus(serviceName, healthpb.HealthCheckResponse_SERVING)
	obs.SetReady(true)
}
