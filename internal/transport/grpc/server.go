package grpc

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"habit-hero/internal/config"

	"github.com/charmbracelet/log"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/keepalive"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"
)

// ServiceName is the health service name reported next to the overall "" status
const ServiceName = "habithero.v1.HabitService"

// Pinger reports whether the backing store is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server represents a gRPC server exposing health and reflection
type Server struct {
	grpcServer   *grpc.Server
	healthServer *health.Server
	pinger       Pinger
	port         int
	logger       *log.Logger

	mu      sync.Mutex
	serving bool
}

// NewServer creates a new gRPC server
func NewServer(pinger Pinger, cfg config.GRPCConfig, logger *log.Logger) *Server {
	logger = logger.With("component", "grpc")

	var opts []grpc.ServerOption
	opts = append(opts, grpc.ChainUnaryInterceptor(
		recoveryInterceptor(logger),
		loggingInterceptor(logger),
	))
	if cfg.MaxConnectionIdle > 0 || cfg.MaxConnectionAge > 0 {
		opts = append(opts, grpc.KeepaliveParams(keepalive.ServerParameters{
			MaxConnectionIdle: cfg.MaxConnectionIdle,
			MaxConnectionAge:  cfg.MaxConnectionAge,
		}))
	}
	grpcServer := grpc.NewServer(opts...)

	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_NOT_SERVING)
	healthServer.SetServingStatus(ServiceName, grpc_health_v1.HealthCheckResponse_NOT_SERVING)

	reflection.Register(grpcServer)

	return &Server{
		grpcServer:   grpcServer,
		healthServer: healthServer,
		pinger:       pinger,
		port:         cfg.Port,
		logger:       logger,
	}
}

// Start listens on the configured port and serves until Stop
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", s.port))
	if err != nil {
		return fmt.Errorf("failed to listen on port %d: %w", s.port, err)
	}

	s.logger.Info("gRPC server listening", "addr", listener.Addr().String())
	return s.Serve(listener)
}

// Serve serves on an existing listener
func (s *Server) Serve(listener net.Listener) error {
	if err := s.grpcServer.Serve(listener); err != nil {
		return fmt.Errorf("failed to serve: %w", err)
	}
	return nil
}

// CheckHealth pings the store once and updates the reported status
func (s *Server) CheckHealth(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err := s.pinger.Ping(ctx)
	serving := err == nil

	s.mu.Lock()
	changed := serving != s.serving
	s.serving = serving
	s.mu.Unlock()

	st := grpc_health_v1.HealthCheckResponse_SERVING
	if !serving {
		st = grpc_health_v1.HealthCheckResponse_NOT_SERVING
	}
	s.healthServer.SetServingStatus("", st)
	s.healthServer.SetServingStatus(ServiceName, st)

	if changed {
		if serving {
			s.logger.Info("store reachable, serving")
		} else {
			s.logger.Warn("store unreachable, not serving", "err", err)
		}
	}
}

// WatchHealth runs CheckHealth every interval until ctx is done
func (s *Server) WatchHealth(ctx context.Context, interval time.Duration) {
	s.CheckHealth(ctx)

	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.CheckHealth(ctx)
			}
		}
	}()
}

// Stop marks the server NOT_SERVING and drains in-flight calls
func (s *Server) Stop() {
	s.logger.Info("gracefully stopping gRPC server")
	s.healthServer.Shutdown()
	s.grpcServer.GracefulStop()
	s.logger.Info("gRPC server stopped")
}

func loggingInterceptor(logger *log.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		logger.Debug("rpc completed",
			"method", info.FullMethod,
			"code", status.Code(err).String(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return resp, err
	}
}

func recoveryInterceptor(logger *log.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp any, err error) {
		defer func() {
			if p := recover(); p != nil {
				logger.Error("panic in rpc", "method", info.FullMethod, "panic", p)
				err = status.Error(codes.Internal, "internal error")
			}
		}()
		return handler(ctx, req)
	}
}
