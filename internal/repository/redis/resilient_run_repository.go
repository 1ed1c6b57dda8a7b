package redis

import (
	"context"
	"time"

	"RandomUserService/internal/models"
	"RandomUserService/pkg/database"
	"RandomUserService/pkg/server"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ResilientRunRepository добавляет механизмы отказоустойчивости к хранилищу сводок
type ResilientRunRepository struct {
	repo          *RunRepository
	logger        *zap.Logger
	healthChecker *database.HealthChecker
}

// NewResilientRunRepository создает новый экземпляр отказоустойчивого хранилища сводок
func NewResilientRunRepository(client redis.UniversalClient, historySize int, healthChecker *database.HealthChecker, logger *zap.Logger) *ResilientRunRepository {
	return &ResilientRunRepository{
		repo:          NewRunRepository(client, historySize),
		logger:        logger,
		healthChecker: healthChecker,
	}
}

// SaveRun сохраняет сводку запуска с отказоустойчивостью
func (r *ResilientRunRepository) SaveRun(ctx context.Context, summary *models.RunSummary) error {
	startTime := time.Now()

	err := r.healthChecker.WithRedisResilience(ctx, "save_run", func(ctx context.Context) error {
		return r.repo.SaveRun(ctx, summary)
	})
	if err != nil {
		r.logger.Warn("Failed to store run summary",
			zap.String("run_id", summary.RunID),
			zap.Error(err))
	}

	server.RecordDBOperation("redis_save_run", time.Since(startTime), err)
	return err
}

// Recent возвращает последние сводки с отказоустойчивостью
func (r *ResilientRunRepository) Recent(ctx context.Context, limit int) ([]models.RunSummary, error) {
	startTime := time.Now()

	var runs []models.RunSummary
	err := r.healthChecker.WithRedisResilience(ctx, "recent_runs", func(ctx context.Context) error {
		var err error
		runs, err = r.repo.Recent(ctx, limit)
		return err
	})

	server.RecordDBOperation("redis_recent_runs", time.Since(startTime), err)
	return runs, err
}
