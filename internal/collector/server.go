package collector

import (
	"context"
	"fmt"
	"net"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/keepalive"

	"github.com/5c4lar/Bear/internal/collector/interceptors"
	"github.com/5c4lar/Bear/internal/rpcpb"
)

// ServerConfig configures the collector's gRPC listener. Grounded on
// cloud/internal/grpc.ServerConfig, trimmed of the TLS/JWT fields: the
// collector listens on loopback for the lifetime of a single build,
// with no remote or multi-tenant callers to authenticate.
type ServerConfig struct {
	ListenAddr           string
	MaxRecvMsgSize       int
	MaxConcurrentStreams uint32
	KeepaliveTime        time.Duration
	KeepaliveTimeout     time.Duration
}

// DefaultServerConfig returns sane defaults for a local, short-lived
// collector instance.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		ListenAddr:           "127.0.0.1:0",
		MaxRecvMsgSize:       4 * 1024 * 1024,
		MaxConcurrentStreams: 1000,
		KeepaliveTime:        5 * time.Minute,
		KeepaliveTimeout:     20 * time.Second,
	}
}

// Server wraps the collector's grpc.Server, its Store, and the gRPC
// interceptor metrics it serves with.
type Server struct {
	config     ServerConfig
	logger     *zap.Logger
	grpcServer *grpc.Server
	store      *Store
	metrics    *interceptors.GRPCMetrics
	listener   net.Listener
}

// NewServer builds a Server serving SessionService and ReporterService
// over store, with the teacher's recovery -> metrics -> logging
// interceptor ordering (auth dropped — see DESIGN.md).
func NewServer(config ServerConfig, logger *zap.Logger, store *Store, overlay map[string]string) (*Server, error) {
	metrics := interceptors.NewGRPCMetrics()

	opts := []grpc.ServerOption{
		grpc.MaxRecvMsgSize(config.MaxRecvMsgSize),
		grpc.MaxConcurrentStreams(config.MaxConcurrentStreams),
		grpc.KeepaliveParams(keepalive.ServerParameters{
			Time:    config.KeepaliveTime,
			Timeout: config.KeepaliveTimeout,
		}),
		grpc.ChainUnaryInterceptor(
			interceptors.Recovery(logger),
			metrics.Unary(),
			interceptors.Logging(logger),
		),
		grpc.ChainStreamInterceptor(
			interceptors.RecoveryStream(logger),
			metrics.Stream(),
			interceptors.LoggingStream(logger),
		),
	}

	grpcServer := grpc.NewServer(opts...)
	rpcpb.RegisterSessionServiceServer(grpcServer, NewSessionService(overlay))
	rpcpb.RegisterReporterServiceServer(grpcServer, NewReporterService(store, logger))

	return &Server{
		config:     config,
		logger:     logger,
		grpcServer: grpcServer,
		store:      store,
		metrics:    metrics,
	}, nil
}

// Metrics exposes the gRPC interceptor metrics so a caller can attach
// them to a prometheus registry; NewServer does not register them.
func (s *Server) Metrics() *interceptors.GRPCMetrics {
	return s.metrics
}

// Start binds config.ListenAddr and serves in the background, returning
// once the listener is bound so Addr is immediately valid — unlike the
// teacher's blocking Start, this collector's ListenAddr is typically an
// ephemeral port (":0") that the caller must read back before handing
// it to the rest of the intercept session.
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", s.config.ListenAddr)
	if err != nil {
		return fmt.Errorf("collector: listen on %s: %w", s.config.ListenAddr, err)
	}
	s.listener = listener
	s.logger.Info("starting collector", zap.String("addr", listener.Addr().String()))

	go func() {
		if err := s.grpcServer.Serve(listener); err != nil {
			s.logger.Error("collector serve stopped", zap.Error(err))
		}
	}()
	return nil
}

// Addr returns the bound listener address; only valid after Start has
// been called.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop gracefully stops the server, falling back to a hard stop if ctx
// expires first.
func (s *Server) Stop(ctx context.Context) {
	done := make(chan struct{})
	go func() {
		s.grpcServer.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("collector stopped gracefully")
	case <-ctx.Done():
		s.logger.Warn("collector graceful stop timed out, forcing stop")
		s.grpcServer.Stop()
	}
}
