package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"RandomUserService/internal/models"
	"RandomUserService/internal/randomuser"
	"RandomUserService/pkg/apperrors"
	"RandomUserService/pkg/server"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ProfileSource получает один профиль из внешнего API
type ProfileSource interface {
	FetchOne(ctx context.Context) (*models.ProfileData, error)
}

// ProfileStore атомарно сохраняет профиль в три таблицы
type ProfileStore interface {
	Save(ctx context.Context, profile *models.ProfileData) (uint, error)
}

// RunRecorder сохраняет сводки запусков импорта
type RunRecorder interface {
	SaveRun(ctx context.Context, summary *models.RunSummary) error
}

// IngestionService выполняет импорт профилей: count независимых попыток
// "получить и сохранить". Ошибка одной попытки не прерывает остальные.
type IngestionService struct {
	source      ProfileSource
	store       ProfileStore
	runs        RunRecorder
	concurrency int
	logger      *zap.Logger
}

// NewIngestionService создает новый экземпляр IngestionService.
// runs может быть nil; concurrency < 1 означает последовательное выполнение.
func NewIngestionService(source ProfileSource, store ProfileStore, runs RunRecorder, concurrency int, logger *zap.Logger) *IngestionService {
	if concurrency < 1 {
		concurrency = 1
	}
	return &IngestionService{
		source:      source,
		store:       store,
		runs:        runs,
		concurrency: concurrency,
		logger:      logger,
	}
}

// Run выполняет count попыток импорта и возвращает сводку.
// Ошибка возвращается только для некорректного count.
func (s *IngestionService) Run(ctx context.Context, count int) (*models.RunSummary, error) {
	if count < 0 {
		verr := apperrors.NewValidationError()
		verr.Add("count", "count must be a non-negative integer")
		return nil, verr
	}

	summary := &models.RunSummary{
		RunID:     uuid.New().String(),
		Attempted: count,
		Failures:  []models.AttemptFailure{},
		StartedAt: time.Now().UTC(),
	}

	s.logger.Info("Ingestion started",
		zap.String("run_id", summary.RunID),
		zap.Int("count", count),
		zap.Int("concurrency", s.concurrency))

	// Счетчик успехов и список ошибок общие для всех горутин
	var (
		succeeded atomic.Int64
		mu        sync.Mutex
	)
	recordFailure := func(failure models.AttemptFailure) {
		mu.Lock()
		defer mu.Unlock()
		summary.Failures = append(summary.Failures, failure)
	}

	// Ограничиваем число одновременных попыток
	g := new(errgroup.Group)
	g.SetLimit(s.concurrency)

	// Номера попыток начинаются с 0
	for i := 0; i < count; i++ {
		index := i
		g.Go(func() error {
			if failure := s.attempt(ctx, summary.RunID, index); failure != nil {
				recordFailure(*failure)
				return nil
			}
			succeeded.Add(1)
			return nil
		})
	}
	_ = g.Wait()

	// Горутины завершаются в произвольном порядке
	sort.Slice(summary.Failures, func(i, j int) bool {
		return summary.Failures[i].Index < summary.Failures[j].Index
	})

	summary.Succeeded = int(succeeded.Load())
	summary.Failed = summary.Attempted - summary.Succeeded
	summary.FinishedAt = time.Now().UTC()

	s.logger.Info("Ingestion completed",
		zap.String("run_id", summary.RunID),
		zap.Int("attempted", summary.Attempted),
		zap.Int("succeeded", summary.Succeeded),
		zap.Int("failed", summary.Failed),
		zap.Duration("duration", summary.Duration()))

	if s.runs != nil {
		// Сводка сохраняется даже если контекст запуска уже отменен
		saveCtx := context.WithoutCancel(ctx)
		if err := s.runs.SaveRun(saveCtx, summary); err != nil {
			s.logger.Warn("Failed to record ingestion run",
				zap.String("run_id", summary.RunID),
				zap.Error(err))
		}
	}

	return summary, nil
}

// attempt выполняет одну попытку и возвращает описание ошибки или nil
func (s *IngestionService) attempt(ctx context.Context, runID string, index int) *models.AttemptFailure {
	// После отмены новые запросы не отправляются, попытка считается неудачной
	if err := ctx.Err(); err != nil {
		server.RecordIngestionAttempt("fetch_error")
		return &models.AttemptFailure{Index: index, Stage: models.AttemptStageFetch, Cause: err.Error()}
	}

	// Получаем профиль из внешнего API
	profile, err := s.source.FetchOne(ctx)
	if err != nil {
		failure := &models.AttemptFailure{Index: index, Stage: models.AttemptStageFetch, Cause: err.Error()}

		var statusErr *randomuser.StatusError
		if errors.As(err, &statusErr) {
			failure.StatusCode = statusErr.StatusCode
		}

		s.logger.Warn("Failed to fetch profile",
			zap.String("run_id", runID),
			zap.Int("attempt", index),
			zap.Int("status_code", failure.StatusCode),
			zap.Error(err))
		server.RecordIngestionAttempt("fetch_error")
		return failure
	}

	// Сохраняем профиль одной транзакцией
	userID, err := s.store.Save(ctx, profile)
	if err != nil {
		fields := []zap.Field{
			zap.String("run_id", runID),
			zap.Int("attempt", index),
			zap.Error(err),
		}

		// В лог попадает полный профиль, чтобы запись можно было восстановить
		var perr *apperrors.PersistenceError
		if errors.As(err, &perr) {
			fields = append(fields, zap.String("stage", perr.Stage), zap.Any("payload", perr.Payload))
		} else {
			fields = append(fields, zap.Any("payload", profile))
		}

		s.logger.Error("Failed to store profile", fields...)
		server.RecordIngestionAttempt("store_error")
		return &models.AttemptFailure{Index: index, Stage: models.AttemptStageStore, Cause: err.Error()}
	}

	s.logger.Debug("Profile stored",
		zap.String("run_id", runID),
		zap.Int("attempt", index),
		zap.Uint("user_id", userID),
		zap.String("email", profile.Email))
	server.RecordIngestionAttempt("success")
	return nil
}
