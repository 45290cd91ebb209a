package server

import (
	"fmt"
	"net"

	"github.com/danielpatrickdp/multiseq-learning/internal/codec"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// #region server
// Server hosts the Predictor service and the standard health service.
type Server struct {
	config    ServerConfig
	grpc      *grpc.Server
	health    *health.Server
	predictor *Predictor
}

// New registers both services. Health reports NOT_SERVING until Load.
func New(config ServerConfig, opts ...grpc.ServerOption) *Server {
	if config.Addr == "" {
		config.Addr = DefaultServerConfig().Addr
	}
	s := &Server{
		config:    config,
		grpc:      grpc.NewServer(opts...),
		health:    health.NewServer(),
		predictor: NewPredictor(),
	}
	s.grpc.RegisterService(&PredictorServiceDesc, s.predictor)
	healthpb.RegisterHealthServer(s.grpc, s.health)
	s.setStatus(healthpb.HealthCheckResponse_NOT_SERVING)
	return s
}

// Predictor returns the hosted predictor.
func (s *Server) Predictor() *Predictor { return s.predictor }

// Load hands a trained engine to the predictor. Health is SERVING only while an engine is loaded.
func (s *Server) Load(eng Inferer, enc QueryEncoder) {
	s.predictor.Load(eng, enc)
	if s.predictor.Loaded() {
		s.setStatus(healthpb.HealthCheckResponse_SERVING)
		return
	}
	s.setStatus(healthpb.HealthCheckResponse_NOT_SERVING)
}

func (s *Server) setStatus(st healthpb.HealthCheckResponse_ServingStatus) {
	s.health.SetServingStatus("", st)
	s.health.SetServingStatus(codec.ServiceName, st)
}

// #endregion server

// #region lifecycle
// Listen opens the configured address.
func (s *Server) Listen() (net.Listener, error) {
	lis, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", s.config.Addr, err)
	}
	return lis, nil
}

// Serve blocks accepting connections on lis until Stop.
func (s *Server) Serve(lis net.Listener) error {
	if err := s.grpc.Serve(lis); err != nil {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}

// Stop marks the services NOT_SERVING and drains in-flight calls.
func (s *Server) Stop() {
	s.health.Shutdown()
	s.grpc.GracefulStop()
}

// #endregion lifecycle
