package database

import (
	"context"
	"errors"
	"testing"

	"RandomUserService/config"
	"RandomUserService/pkg/apperrors"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB создает gorm поверх sqlmock
func setupTestDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 sqlDB,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("Failed to open gorm DB: %v", err)
	}

	return db, mock
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to create mini redis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func testResilienceConfig(threshold int) config.ResilienceConfig {
	cfg := config.DefaultResilienceConfig()
	cfg.CircuitBreaker.FailureThreshold = threshold
	return cfg
}

// TestDatabaseHealthChecker_IsDatabaseHealthy тестирует проверку здоровья PostgreSQL
func TestDatabaseHealthChecker_IsDatabaseHealthy(t *testing.T) {
	// Тест 1: Здоровая база данных
	t.Run("HealthyDatabase", func(t *testing.T) {
		db, mock := setupTestDB(t)
		mock.ExpectQuery("SELECT 1").WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))

		checker := NewDatabaseHealthChecker(db, nil, testResilienceConfig(5), zap.NewNop())

		if !checker.IsDatabaseHealthy(context.Background()) {
			t.Error("Expected database to be healthy")
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("Unfulfilled expectations: %v", err)
		}
	})

	// Тест 2: Ошибка запроса
	t.Run("UnhealthyDatabase", func(t *testing.T) {
		db, mock := setupTestDB(t)
		mock.ExpectQuery("SELECT 1").WillReturnError(errors.New("connection refused"))

		checker := NewDatabaseHealthChecker(db, nil, testResilienceConfig(5), zap.NewNop())

		if checker.IsDatabaseHealthy(context.Background()) {
			t.Error("Expected database to be unhealthy")
		}
	})
}

// TestDatabaseHealthChecker_IsRedisHealthy тестирует проверку здоровья Redis
func TestDatabaseHealthChecker_IsRedisHealthy(t *testing.T) {
	db, _ := setupTestDB(t)

	t.Run("HealthyRedis", func(t *testing.T) {
		_, client := newTestRedis(t)
		checker := NewDatabaseHealthChecker(db, client, testResilienceConfig(5), zap.NewNop())

		if !checker.IsRedisHealthy(context.Background()) {
			t.Error("Expected Redis to be healthy")
		}
	})

	t.Run("RedisDown", func(t *testing.T) {
		mr, client := newTestRedis(t)
		checker := NewDatabaseHealthChecker(db, client, testResilienceConfig(5), zap.NewNop())
		mr.Close()

		if checker.IsRedisHealthy(context.Background()) {
			t.Error("Expected Redis to be unhealthy")
		}
	})

	t.Run("NoClient", func(t *testing.T) {
		checker := NewDatabaseHealthChecker(db, nil, testResilienceConfig(5), zap.NewNop())

		if checker.IsRedisHealthy(context.Background()) {
			t.Error("Expected Redis without client to be unhealthy")
		}
	})
}

// TestDatabaseHealthChecker_WithDatabaseResilience тестирует circuit breaker базы данных
func TestDatabaseHealthChecker_WithDatabaseResilience(t *testing.T) {
	db, _ := setupTestDB(t)

	// Тест 1: Ошибки данных не открывают circuit breaker
	t.Run("DataErrorsDoNotTrip", func(t *testing.T) {
		checker := NewDatabaseHealthChecker(db, nil, testResilienceConfig(1), zap.NewNop())

		dataErrors := []error{
			gorm.ErrDuplicatedKey,
			apperrors.ErrNotFound,
			apperrors.NewValidationError(),
		}
		for _, dataErr := range dataErrors {
			err := checker.WithDatabaseResilience(context.Background(), "save_profile", func(ctx context.Context) error {
				return dataErr
			})
			if !errors.Is(err, dataErr) {
				t.Errorf("Expected %v to be returned, got %v", dataErr, err)
			}
		}

		called := false
		err := checker.WithDatabaseResilience(context.Background(), "save_profile", func(ctx context.Context) error {
			called = true
			return nil
		})
		if err != nil || !called {
			t.Errorf("Expected operation to run, got err=%v called=%v", err, called)
		}
	})

	// Тест 2: Отказ базы открывает circuit breaker
	t.Run("FailureTrips", func(t *testing.T) {
		checker := NewDatabaseHealthChecker(db, nil, testResilienceConfig(1), zap.NewNop())

		dbErr := errors.New("connection reset")
		err := checker.WithDatabaseResilience(context.Background(), "save_profile", func(ctx context.Context) error {
			return dbErr
		})
		if !errors.Is(err, dbErr) {
			t.Fatalf("Expected connection error, got %v", err)
		}

		called := false
		err = checker.WithDatabaseResilience(context.Background(), "save_profile", func(ctx context.Context) error {
			called = true
			return nil
		})
		if !errors.Is(err, apperrors.ErrCircuitOpen) {
			t.Errorf("Expected ErrCircuitOpen, got %v", err)
		}
		if called {
			t.Error("Operation must not run while circuit is open")
		}
	})
}

// TestDatabaseHealthChecker_WithRedisResilience тестирует таймаут и circuit breaker Redis
func TestDatabaseHealthChecker_WithRedisResilience(t *testing.T) {
	db, _ := setupTestDB(t)
	_, client := newTestRedis(t)

	cfg := testResilienceConfig(2)
	checker := NewDatabaseHealthChecker(db, client, cfg, zap.NewNop())

	// Тест 1: Операции выполняется с таймаутом команды
	t.Run("CommandTimeout", func(t *testing.T) {
		err := checker.WithRedisResilience(context.Background(), "save_run", func(ctx context.Context) error {
			if _, ok := ctx.Deadline(); !ok {
				return errors.New("expected deadline")
			}
			return client.Set(ctx, "key", "value", 0).Err()
		})
		if err != nil {
			t.Errorf("Unexpected error: %v", err)
		}
	})

	// Тест 2: Отсутствие ключа не считается отказом
	t.Run("CacheMissIgnored", func(t *testing.T) {
		for i := 0; i < 3; i++ {
			err := checker.WithRedisResilience(context.Background(), "get_run", func(ctx context.Context) error {
				return client.Get(ctx, "missing").Err()
			})
			if !errors.Is(err, redis.Nil) {
				t.Fatalf("Expected redis.Nil, got %v", err)
			}
		}
	})

	// Тест 3: Повторные отказы открывают circuit breaker
	t.Run("FailuresTrip", func(t *testing.T) {
		for i := 0; i < cfg.CircuitBreaker.FailureThreshold; i++ {
			_ = checker.WithRedisResilience(context.Background(), "save_run", func(ctx context.Context) error {
				return errors.New("redis unavailable")
			})
		}

		err := checker.WithRedisResilience(context.Background(), "save_run", func(ctx context.Context) error {
			return nil
		})
		if !errors.Is(err, apperrors.ErrCircuitOpen) {
			t.Errorf("Expected ErrCircuitOpen, got %v", err)
		}
	})
}
