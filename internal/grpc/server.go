package grpc

import (
	"context"
	"net"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/mkmonette/dish-nation-suite-sub001/internal/logger"
)

// ServiceName is the health service name reported for the storefront.
const ServiceName = "storefront"

// Probe checks one backing dependency.
type Probe struct {
	Name  string
	Check func(ctx context.Context) error
}

// OpsServer exposes gRPC health and reflection for orchestration.
type OpsServer struct {
	srv    *grpc.Server
	health *health.Server
	probes []Probe
}

func NewOpsServer(probes ...Probe) *OpsServer {
	srv := grpc.NewServer(grpc.StatsHandler(otelgrpc.NewServerHandler()))
	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)
	reflection.Register(srv)

	s := &OpsServer{srv: srv, health: hs, probes: probes}
	s.setStatus(healthpb.HealthCheckResponse_SERVING)
	return s
}

func (s *OpsServer) Serve(lis net.Listener) error {
	return s.srv.Serve(lis)
}

// GracefulStop marks the server not serving before draining connections.
func (s *OpsServer) GracefulStop() {
	s.health.Shutdown()
	s.srv.GracefulStop()
}

// Monitor runs every probe on each tick until ctx is done. A single failing
// probe marks the whole service not serving.
func (s *OpsServer) Monitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.check(ctx)
	for {
		select {
		case <-ticker.C:
			s.check(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (s *OpsServer) check(ctx context.Context) {
	status := healthpb.HealthCheckResponse_SERVING
	for _, p := range s.probes {
		probeCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := p.Check(probeCtx)
		cancel()
		if err != nil {
			logger.FromContext(ctx).WithError(err).WithField("dependency", p.Name).Warn("health probe failed")
			status = healthpb.HealthCheckResponse_NOT_SERVING
		}
	}
	s.setStatus(status)
}

func (s *OpsServer) setStatus(status healthpb.HealthCheckResponse_ServingStatus) {
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(ServiceName, status)
}
