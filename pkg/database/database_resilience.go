package database

import (
	"context"
	"errors"

	"RandomUserService/config"
	"RandomUserService/pkg/apperrors"
	"RandomUserService/pkg/resilience"
	"RandomUserService/pkg/server"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// HealthChecker проверяет состояние баз данных и оборачивает операции
// в circuit breaker соответствующей зависимости
type HealthChecker struct {
	db           *gorm.DB
	redisClient  redis.UniversalClient
	logger       *zap.Logger
	cfg          config.ResilienceConfig
	pgCircuit    *resilience.CircuitBreaker
	redisCircuit *resilience.CircuitBreaker
}

// NewDatabaseHealthChecker создает новый экземпляр проверки состояния баз данных.
// redisClient может быть nil, если Redis не используется.
func NewDatabaseHealthChecker(db *gorm.DB, redisClient redis.UniversalClient, cfg config.ResilienceConfig, logger *zap.Logger) *HealthChecker {
	threshold := cfg.CircuitBreaker.FailureThreshold
	reset := cfg.CircuitBreaker.ResetTimeout

	c := &HealthChecker{
		db:           db,
		redisClient:  redisClient,
		logger:       logger,
		cfg:          cfg,
		pgCircuit:    resilience.NewCircuitBreaker("postgres", threshold, reset, logger, apperrors.IgnoredErrors...),
		redisCircuit: resilience.NewCircuitBreaker("redis", threshold, reset, logger, apperrors.IgnoredErrors...),
	}

	recordState := func(name string, state resilience.CircuitState) {
		server.RecordCircuitBreakerStateChange(name, int(state))
	}
	c.pgCircuit.OnStateChange(recordState)
	c.redisCircuit.OnStateChange(recordState)

	return c
}

// IsDatabaseHealthy проверяет здоровье PostgreSQL
func (c *HealthChecker) IsDatabaseHealthy(ctx context.Context) bool {
	var result int
	err := c.pgCircuit.Execute(ctx, "postgres_health_check", func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, c.cfg.HealthCheck.Timeout)
		defer cancel()

		sqlDB, err := c.db.DB()
		if err != nil {
			return err
		}
		return sqlDB.QueryRowContext(ctx, "SELECT 1").Scan(&result)
	})

	return err == nil && result == 1
}

// IsRedisHealthy проверяет здоровье Redis
func (c *HealthChecker) IsRedisHealthy(ctx context.Context) bool {
	if c.redisClient == nil {
		return false
	}

	err := c.redisCircuit.Execute(ctx, "redis_health_check", func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, c.cfg.Redis.CommandTimeout)
		defer cancel()
		return c.redisClient.Ping(ctx).Err()
	})

	return err == nil
}

// WithDatabaseResilience выполняет операцию в базе данных через circuit breaker.
// Ошибки данных (нарушение ограничений, невалидный профиль) не открывают
// circuit breaker: это не отказ зависимости.
func (c *HealthChecker) WithDatabaseResilience(ctx context.Context, operation string, fn func(context.Context) error) error {
	var dataErr error
	err := c.pgCircuit.Execute(ctx, operation, func(ctx context.Context) error {
		err := fn(ctx)
		if isDataError(err) {
			dataErr = err
			return nil
		}
		return err
	})
	if dataErr != nil {
		c.logger.Debug("Data error, not counted by circuit breaker",
			zap.String("operation", operation),
			zap.Error(dataErr))
		return dataErr
	}
	return err
}

// WithRedisResilience выполняет операцию в Redis через circuit breaker
func (c *HealthChecker) WithRedisResilience(ctx context.Context, operation string, fn func(context.Context) error) error {
	return c.redisCircuit.Execute(ctx, operation, func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, c.cfg.Redis.CommandTimeout)
		defer cancel()
		return fn(ctx)
	})
}

// isDataError отличает ошибки содержимого запроса от отказов базы
func isDataError(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, gorm.ErrDuplicatedKey) ||
		errors.Is(err, gorm.ErrForeignKeyViolated) ||
		errors.Is(err, gorm.ErrCheckConstraintViolated) ||
		errors.Is(err, apperrors.ErrValidation) ||
		apperrors.IsNotFound(err)
}
