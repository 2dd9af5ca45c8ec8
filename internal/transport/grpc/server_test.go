package grpc

import (
	"context"
	"errors"
	"net"
	"sync"
	"testing"

	"habit-hero/internal/config"
	"habit-hero/internal/logger"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/test/bufconn"
)

type fakePinger struct {
	mu  sync.Mutex
	err error
}

func (p *fakePinger) Ping(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

func (p *fakePinger) set(err error) {
	p.mu.Lock()
	p.err = err
	p.mu.Unlock()
}

func startServer(t *testing.T, pinger Pinger) (*Server, grpc_health_v1.HealthClient) {
	t.Helper()

	srv := NewServer(pinger, config.GRPCConfig{}, logger.Discard())
	lis := bufconn.Listen(1 << 20)
	go srv.Serve(lis)
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("failed to dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	return srv, grpc_health_v1.NewHealthClient(conn)
}

func checkStatus(t *testing.T, client grpc_health_v1.HealthClient, service string) grpc_health_v1.HealthCheckResponse_ServingStatus {
	t.Helper()

	resp, err := client.Check(context.Background(), &grpc_health_v1.HealthCheckRequest{Service: service})
	if err != nil {
		t.Fatalf("health check failed: %v", err)
	}
	return resp.GetStatus()
}

func TestHealth_FollowsStorePing(t *testing.T) {
	pinger := &fakePinger{}
	srv, client := startServer(t, pinger)

	if got := checkStatus(t, client, ""); got != grpc_health_v1.HealthCheckResponse_NOT_SERVING {
		t.Errorf("status before first check = %v, want NOT_SERVING", got)
	}

	srv.CheckHealth(context.Background())
	if got := checkStatus(t, client, ServiceName); got != grpc_health_v1.HealthCheckResponse_SERVING {
		t.Errorf("status with reachable store = %v, want SERVING", got)
	}

	pinger.set(errors.New("connection refused"))
	srv.CheckHealth(context.Background())
	if got := checkStatus(t, client, ""); got != grpc_health_v1.HealthCheckResponse_NOT_SERVING {
		t.Errorf("status with unreachable store = %v, want NOT_SERVING", got)
	}
}
