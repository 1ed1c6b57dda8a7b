package server

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
)

type shutdownStep struct {
	name string
	fn   func(context.Context) error
}

// GracefulShutdown выполняет зарегистрированные шаги остановки при SIGINT/SIGTERM
type GracefulShutdown struct {
	logger         *zap.Logger
	timeout        time.Duration
	mu             sync.Mutex
	steps          []shutdownStep
	shutdownSignal chan os.Signal
	done           chan struct{}
	once           sync.Once
}

// NewGracefulShutdown создает новый экземпляр GracefulShutdown
func NewGracefulShutdown(logger *zap.Logger, timeout time.Duration) *GracefulShutdown {
	gs := &GracefulShutdown{
		logger:         logger,
		timeout:        timeout,
		shutdownSignal: make(chan os.Signal, 1),
		done:           make(chan struct{}),
	}

	signal.Notify(gs.shutdownSignal, syscall.SIGINT, syscall.SIGTERM)

	return gs
}

// AddShutdownFunc добавляет именованный шаг остановки
func (gs *GracefulShutdown) AddShutdownFunc(name string, f func(context.Context) error) {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	gs.steps = append(gs.steps, shutdownStep{name: name, fn: f})
}

// Wait блокирует выполнение до сигнала завершения или отмены контекста
func (gs *GracefulShutdown) Wait(ctx context.Context) {
	select {
	case sig := <-gs.shutdownSignal:
		gs.logger.Info("Shutdown signal received", zap.String("signal", sig.String()))
	case <-ctx.Done():
		gs.logger.Info("Context cancelled, initiating shutdown")
	}

	gs.once.Do(func() {
		gs.shutdown()
		close(gs.done)
	})
}

// NotifyContext возвращает контекст, который отменяется при получении сигнала.
// Подходит для пакетных команд, которым не нужен полный цикл Wait.
func (gs *GracefulShutdown) NotifyContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	go func() {
		select {
		case sig := <-gs.shutdownSignal:
			gs.logger.Warn("Signal received, cancelling", zap.String("signal", sig.String()))
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}

// Done возвращает канал, который закрывается после завершения всех шагов
func (gs *GracefulShutdown) Done() <-chan struct{} {
	return gs.done
}

// Shutdown инициирует процесс завершения работы
func (gs *GracefulShutdown) Shutdown() {
	gs.shutdownSignal <- syscall.SIGTERM
	<-gs.done
}

// shutdown выполняет шаги в обратном порядке регистрации (LIFO)
func (gs *GracefulShutdown) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), gs.timeout)
	defer cancel()

	gs.mu.Lock()
	steps := append([]shutdownStep(nil), gs.steps...)
	gs.mu.Unlock()

	for i := len(steps) - 1; i >= 0; i-- {
		step := steps[i]
		gs.logger.Info("Running shutdown step", zap.String("step", step.name))
		if err := step.fn(ctx); err != nil {
			gs.logger.Error("Error during shutdown", zap.String("step", step.name), zap.Error(err))
		}
	}

	gs.logger.Info("Graceful shutdown completed")
}
