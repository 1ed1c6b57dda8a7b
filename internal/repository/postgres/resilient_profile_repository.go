package postgres

import (
	"context"
	"errors"
	"time"

	"RandomUserService/config"
	"RandomUserService/internal/models"
	"RandomUserService/pkg/apperrors"
	"RandomUserService/pkg/database"
	"RandomUserService/pkg/server"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ResilientProfileRepository добавляет механизмы отказоустойчивости к репозиторию профилей
type ResilientProfileRepository struct {
	repo          *ProfileRepository
	logger        *zap.Logger
	healthChecker *database.HealthChecker
	cfg           config.DatabaseTimeouts
}

// NewResilientProfileRepository создает новый экземпляр отказоустойчивого репозитория
func NewResilientProfileRepository(db *gorm.DB, healthChecker *database.HealthChecker, cfg config.DatabaseTimeouts, logger *zap.Logger) *ResilientProfileRepository {
	return &ResilientProfileRepository{
		repo:          NewProfileRepository(db),
		logger:        logger,
		healthChecker: healthChecker,
		cfg:           cfg,
	}
}

// Save сохраняет профиль с отказоустойчивостью
func (r *ResilientProfileRepository) Save(ctx context.Context, profile *models.ProfileData) (uint, error) {
	startTime := time.Now()
	ctx, cancel := context.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	var id uint
	err := r.healthChecker.WithDatabaseResilience(ctx, "save_profile", func(ctx context.Context) error {
		var err error
		id, err = r.repo.Save(ctx, profile)
		return err
	})

	// Отказ circuit breaker тоже оборачиваем, чтобы вызывающий получил этап и данные профиля
	if err != nil && !errors.Is(err, apperrors.ErrPersistence) {
		err = &apperrors.PersistenceError{Stage: StageUser, Payload: payloadOf(profile), Err: err}
	}

	server.RecordDBOperation("save_profile", time.Since(startTime), err)
	return id, err
}

// List возвращает страницу пользователей с отказоустойчивостью
func (r *ResilientProfileRepository) List(ctx context.Context, filter UserFilter, page Page) ([]models.User, int64, error) {
	startTime := time.Now()
	ctx, cancel := context.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var users []models.User
	var total int64
	err := r.healthChecker.WithDatabaseResilience(ctx, "list_users", func(ctx context.Context) error {
		var err error
		users, total, err = r.repo.List(ctx, filter, page)
		return err
	})

	server.RecordDBOperation("list_users", time.Since(startTime), err)
	return users, total, err
}

// CreateUser создает пользователя с отказоустойчивостью.
// Нарушение уникальности возвращается как ErrConflict.
func (r *ResilientProfileRepository) CreateUser(ctx context.Context, user *models.User) error {
	startTime := time.Now()
	ctx, cancel := context.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	err := r.healthChecker.WithDatabaseResilience(ctx, "create_user", func(ctx context.Context) error {
		return r.repo.CreateUser(ctx, user)
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		err = apperrors.ErrConflict
	}

	server.RecordDBOperation("create_user", time.Since(startTime), err)
	return err
}

// ExistsByEmailOrUsername проверяет занятость email и username с отказоустойчивостью
func (r *ResilientProfileRepository) ExistsByEmailOrUsername(ctx context.Context, email, username string) (bool, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var emailTaken, usernameTaken bool
	err := r.healthChecker.WithDatabaseResilience(ctx, "exists_by_email_or_username", func(ctx context.Context) error {
		var err error
		emailTaken, usernameTaken, err = r.repo.ExistsByEmailOrUsername(ctx, email, username)
		return err
	})

	return emailTaken, usernameTaken, err
}

// GetByID получает пользователя по ID с отказоустойчивостью
func (r *ResilientProfileRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	startTime := time.Now()
	ctx, cancel := context.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var user *models.User
	err := r.healthChecker.WithDatabaseResilience(ctx, "get_user_by_id", func(ctx context.Context) error {
		var err error
		user, err = r.repo.GetByID(ctx, id)
		return err
	})

	server.RecordDBOperation("get_user_by_id", time.Since(startTime), err)
	return user, err
}

func payloadOf(profile *models.ProfileData) any {
	if profile == nil {
		return nil
	}
	return *profile
}
