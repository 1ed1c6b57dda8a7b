package resilience

import (
	"context"
	"math"
	"math/rand"
	"time"

	"go.uber.org/zap"
)

// StartupOptions настройки ожидания зависимостей при запуске процесса.
// Используется только до начала обслуживания запросов: операции
// импорта и API ошибку не повторяют.
type StartupOptions struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	BackoffFactor  float64
	Jitter         float64
}

// DefaultStartupOptions возвращает настройки по умолчанию
func DefaultStartupOptions() StartupOptions {
	return StartupOptions{
		MaxAttempts:    5,
		InitialBackoff: 500 * time.Millisecond,
		MaxBackoff:     5 * time.Second,
		BackoffFactor:  2.0,
		Jitter:         0.2,
	}
}

// WaitForDependency вызывает connect, пока он не завершится успешно,
// не закончатся попытки или не будет отменен контекст.
// Возвращает последнюю ошибку connect.
func WaitForDependency(ctx context.Context, logger *zap.Logger, dependency string, options StartupOptions, connect func(context.Context) error) error {
	attempts := options.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		lastErr = connect(ctx)
		if lastErr == nil {
			if attempt > 1 {
				logger.Info("Dependency became available",
					zap.String("dependency", dependency),
					zap.Int("attempt", attempt))
			}
			return nil
		}

		if attempt == attempts {
			break
		}

		backoff := startupBackoff(attempt-1, options)
		logger.Warn("Dependency not available yet",
			zap.String("dependency", dependency),
			zap.Int("attempt", attempt),
			zap.Duration("backoff", backoff),
			zap.Error(lastErr))

		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	logger.Error("Dependency unavailable",
		zap.String("dependency", dependency),
		zap.Int("attempts", attempts),
		zap.Error(lastErr))
	return lastErr
}

// startupBackoff вычисляет экспоненциальную задержку со случайным отклонением
func startupBackoff(attempt int, options StartupOptions) time.Duration {
	backoff := float64(options.InitialBackoff) * math.Pow(options.BackoffFactor, float64(attempt))

	if options.Jitter > 0 {
		jitter := (rand.Float64()*2 - 1) * options.Jitter
		backoff *= 1 + jitter
	}

	if options.MaxBackoff > 0 && backoff > float64(options.MaxBackoff) {
		backoff = float64(options.MaxBackoff)
	}

	return time.Duration(backoff)
}
