package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"RandomUserService/internal/models"

	"github.com/redis/go-redis/v9"
)

const (
	// Ключ списка сводок, новые записи в начале
	runHistoryKey = "ingestion:runs"
	// Ключ сводки отдельного запуска
	runKeyFormat = "ingestion:run:%s"

	// TTL сводки отдельного запуска
	runTTL = 7 * 24 * time.Hour

	defaultHistorySize = 50
)

// RunRepository хранит сводки запусков импорта в Redis
type RunRepository struct {
	client      redis.UniversalClient
	historySize int64
}

// NewRunRepository создает новый экземпляр RunRepository.
// historySize ограничивает длину списка последних запусков.
func NewRunRepository(client redis.UniversalClient, historySize int) *RunRepository {
	if historySize <= 0 {
		historySize = defaultHistorySize
	}
	return &RunRepository{
		client:      client,
		historySize: int64(historySize),
	}
}

// SaveRun добавляет сводку в начало истории и обрезает историю до historySize
func (r *RunRepository) SaveRun(ctx context.Context, summary *models.RunSummary) error {
	data, err := json.Marshal(summary)
	if err != nil {
		return err
	}

	pipe := r.client.TxPipeline()
	pipe.LPush(ctx, runHistoryKey, data)
	pipe.LTrim(ctx, runHistoryKey, 0, r.historySize-1)
	pipe.Set(ctx, fmt.Sprintf(runKeyFormat, summary.RunID), data, runTTL)
	_, err = pipe.Exec(ctx)
	return err
}

// Recent возвращает до limit последних сводок, новые первыми
func (r *RunRepository) Recent(ctx context.Context, limit int) ([]models.RunSummary, error) {
	if limit <= 0 || int64(limit) > r.historySize {
		limit = int(r.historySize)
	}

	items, err := r.client.LRange(ctx, runHistoryKey, 0, int64(limit)-1).Result()
	if err != nil {
		return nil, err
	}

	runs := make([]models.RunSummary, 0, len(items))
	for _, item := range items {
		var run models.RunSummary
		if err := json.Unmarshal([]byte(item), &run); err != nil {
			return nil, fmt.Errorf("decode run summary: %w", err)
		}
		runs = append(runs, run)
	}

	return runs, nil
}

// GetRun возвращает сводку запуска по идентификатору
func (r *RunRepository) GetRun(ctx context.Context, runID string) (*models.RunSummary, error) {
	data, err := r.client.Get(ctx, fmt.Sprintf(runKeyFormat, runID)).Bytes()
	if err != nil {
		return nil, err
	}

	var run models.RunSummary
	if err := json.Unmarshal(data, &run); err != nil {
		return nil, err
	}
	return &run, nil
}
