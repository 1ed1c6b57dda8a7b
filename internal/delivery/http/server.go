package http

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Server представляет собой HTTP сервер API
type Server struct {
	httpServer *http.Server
	logger     *zap.Logger
	port       int
}

// NewServer создает новый экземпляр HTTP сервера
func NewServer(handler http.Handler, logger *zap.Logger, port int) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
		},
		logger: logger,
		port:   port,
	}
}

// Run запускает HTTP сервер и блокируется до его остановки
func (s *Server) Run() error {
	lis, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		s.logger.Error("Failed to listen", zap.Error(err), zap.Int("port", s.port))
		return err
	}

	s.logger.Info("Starting HTTP server", zap.Int("port", s.port))
	if err := s.httpServer.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop останавливает HTTP сервер, дожидаясь завершения активных запросов
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping HTTP server")
	return s.httpServer.Shutdown(ctx)
}
