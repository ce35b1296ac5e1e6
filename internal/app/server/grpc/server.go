// Package grpc runs the ops gRPC server: the standard health service
// behind the logging, caller-IP and JWT interceptor chain.
package grpc

import (
	"fmt"
	"net"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/logging"

	"github.com/linkdropapp/linkdrop/internal/app/service"
	"github.com/linkdropapp/linkdrop/internal/intercepters"
)

// Server wraps the gRPC server and dependencies.
type Server struct {
	grpcServer *grpc.Server
	health     *health.Server
	port       int
	logger     *zap.Logger
}

// New creates a new gRPC server instance.
func New(logger *zap.Logger, auth service.AuthIface, port int) *Server {
	s := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			logging.UnaryServerInterceptor(intercepters.InterceptorLogger(logger)),
			intercepters.SubnetIPInterceptor,
			intercepters.WithJWT(auth),
		),
	)

	h := health.NewServer()
	healthpb.RegisterHealthServer(s, h)

	return &Server{
		grpcServer: s,
		health:     h,
		port:       port,
		logger:     logger,
	}
}

// SetServing flips the reported health of the named service.
func (s *Server) SetServing(serviceName string, serving bool) {
	st := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		st = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus(serviceName, st)
}

// Start runs the gRPC server.
func (s *Server) Start() error {
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", s.port))
	if err != nil {
		s.logger.Error("gRPC server failed to listen:", zap.Error(err))
		return err
	}

	s.logger.Info("gRPC server listening on port", zap.Int("port", s.port))
	return s.grpcServer.Serve(lis)
}

// GracefulStop shuts down the server gracefully.
func (s *Server) GracefulStop() {
	s.grpcServer.GracefulStop()
}
