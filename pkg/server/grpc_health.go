package server

import (
	"fmt"
	"net"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// GRPCHealthServer отдает статус сервиса по протоколу grpc.health.v1
// для оркестраторов, которые проверяют готовность через gRPC
type GRPCHealthServer struct {
	server *grpc.Server
	health *health.Server
	logger *zap.Logger
}

// NewGRPCHealthServer создает gRPC сервер только с сервисом здоровья
func NewGRPCHealthServer(logger *zap.Logger) *GRPCHealthServer {
	s := grpc.NewServer()
	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(s, healthServer)
	reflection.Register(s)

	// До первой проверки зависимостей сервис не готов
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)

	return &GRPCHealthServer{
		server: s,
		health: healthServer,
		logger: logger,
	}
}

// SetReady обновляет статус; подходит как ReadinessListener
func (g *GRPCHealthServer) SetReady(ready bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if ready {
		status = healthpb.HealthCheckResponse_SERVING
	}
	g.health.SetServingStatus("", status)
}

// Start начинает прослушивание порта в отдельной горутине
func (g *GRPCHealthServer) Start(port int) error {
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return err
	}

	go func() {
		g.logger.Info("Starting gRPC health server", zap.Int("port", port))
		if err := g.server.Serve(lis); err != nil {
			g.logger.Error("gRPC health server failed", zap.Error(err))
		}
	}()
	return nil
}

// Stop корректно останавливает gRPC сервер
func (g *GRPCHealthServer) Stop() {
	g.health.Shutdown()
	g.server.GracefulStop()
}
