package postgres

import (
	"context"
	"errors"
	"strings"
	"time"

	"RandomUserService/internal/models"
	"RandomUserService/pkg/apperrors"

	"gorm.io/gorm"
)

// Этапы сохранения профиля, попадают в PersistenceError.Stage
const (
	StageValidate   = "validate"
	StageUser       = "user"
	StageUserDetail = "user_detail"
	StageLocation   = "location"
	StageCommit     = "commit"
)

// UserFilter содержит необязательные фильтры списка пользователей (объединяются по AND)
type UserFilter struct {
	Gender  string
	City    string
	Country string
}

// Page задает окно выборки
type Page struct {
	Limit  int
	Offset int
}

// ProfileRepository хранит профили в таблицах users, user_details и locations
type ProfileRepository struct {
	db *gorm.DB
}

// NewProfileRepository создает новый экземпляр ProfileRepository
func NewProfileRepository(db *gorm.DB) *ProfileRepository {
	return &ProfileRepository{
		db: db,
	}
}

// Save сохраняет профиль одной транзакцией: пользователь, детали и адрес
// создаются вместе или не создаются вовсе
func (r *ProfileRepository) Save(ctx context.Context, profile *models.ProfileData) (uint, error) {
	if profile == nil {
		verr := apperrors.NewValidationError()
		verr.Add("profile", "profile is required")
		return 0, &apperrors.PersistenceError{Stage: StageValidate, Err: verr}
	}

	// Проверка до открытия транзакции
	dob, err := validateProfile(profile)
	if err != nil {
		return 0, &apperrors.PersistenceError{Stage: StageValidate, Payload: *profile, Err: err}
	}

	// stage фиксирует шаг, на котором произошла ошибка
	stage := StageUser
	var userID uint

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Создаем пользователя
		user := &models.User{
			FirstName: profile.FirstName,
			LastName:  profile.LastName,
			Email:     profile.Email,
			Username:  profile.Username,
		}
		if err := tx.Create(user).Error; err != nil {
			return err
		}

		// Создаем детали пользователя
		stage = StageUserDetail
		detail := &models.UserDetail{
			UserID:           user.ID,
			Gender:           profile.Gender,
			DateOfBirth:      dob,
			Phone:            profile.Phone,
			Cell:             profile.Cell,
			PictureLarge:     profile.PictureLarge,
			PictureMedium:    profile.PictureMedium,
			PictureThumbnail: profile.PictureThumbnail,
		}
		if err := tx.Create(detail).Error; err != nil {
			return err
		}

		// Создаем адрес пользователя
		stage = StageLocation
		location := &models.Location{
			UserID:       user.ID,
			StreetNumber: profile.StreetNumber,
			StreetName:   profile.StreetName,
			City:         profile.City,
			State:        profile.State,
			Country:      profile.Country,
			Postcode:     profile.Postcode,
			Latitude:     profile.Latitude,
			Longitude:    profile.Longitude,
		}
		if err := tx.Create(location).Error; err != nil {
			return err
		}

		stage = StageCommit
		userID = user.ID
		return nil
	})
	if err != nil {
		// Транзакция откатана, ни одна из трех записей не сохранена
		return 0, &apperrors.PersistenceError{Stage: stage, Payload: *profile, Err: err}
	}

	return userID, nil
}

// validateProfile проверяет пол и разбирает дату рождения.
// URL изображений и координаты не проверяются.
func validateProfile(profile *models.ProfileData) (*time.Time, error) {
	verr := apperrors.NewValidationError()

	if !models.IsValidGender(profile.Gender) {
		verr.Add("gender", "gender must be one of: male, female")
	}

	var dob *time.Time
	if profile.DateOfBirth != "" {
		t, err := time.Parse(time.RFC3339, profile.DateOfBirth)
		if err != nil {
			verr.Add("date_of_birth", "date_of_birth must be an RFC3339 timestamp")
		} else {
			t = t.UTC()
			dob = &t
		}
	}

	if verr.HasErrors() {
		return nil, verr
	}
	return dob, nil
}

// List возвращает страницу пользователей с деталями и адресом и общее количество совпадений
func (r *ProfileRepository) List(ctx context.Context, filter UserFilter, page Page) ([]models.User, int64, error) {
	// Общее количество совпадений
	var total int64
	if err := r.filtered(ctx, filter).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	users := make([]models.User, 0, page.Limit)
	// Отрицательное смещение GORM опускает, поэтому такую страницу считаем пустой
	if total == 0 || page.Offset < 0 || int64(page.Offset) >= total {
		return users, total, nil
	}

	// Выборка страницы со связями
	err := r.filtered(ctx, filter).
		Select("users.*").
		Preload("Detail").
		Preload("Location").
		Order("users.id ASC").
		Limit(page.Limit).
		Offset(page.Offset).
		Find(&users).Error
	if err != nil {
		return nil, 0, err
	}

	return users, total, nil
}

// filtered строит новую цепочку запроса с фильтрами, пригодную для Count и Find
func (r *ProfileRepository) filtered(ctx context.Context, filter UserFilter) *gorm.DB {
	query := r.db.WithContext(ctx).
		Model(&models.User{}).
		Joins("LEFT JOIN user_details ON user_details.user_id = users.id").
		Joins("LEFT JOIN locations ON locations.user_id = users.id")

	if filter.Gender != "" {
		query = query.Where("user_details.gender = ?", filter.Gender)
	}
	if filter.City != "" {
		query = query.Where("LOWER(locations.city) LIKE ?", containsPattern(filter.City))
	}
	if filter.Country != "" {
		query = query.Where("LOWER(locations.country) LIKE ?", containsPattern(filter.Country))
	}

	return query
}

// containsPattern экранирует спецсимволы LIKE и оборачивает строку в %...%
func containsPattern(term string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + replacer.Replace(strings.ToLower(term)) + "%"
}

// CreateUser создает пользователя без деталей и адреса
func (r *ProfileRepository) CreateUser(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

// ExistsByEmailOrUsername сообщает, заняты ли email и username
func (r *ProfileRepository) ExistsByEmailOrUsername(ctx context.Context, email, username string) (bool, bool, error) {
	var existing []models.User
	err := r.db.WithContext(ctx).
		Select("email", "username").
		Where("email = ? OR username = ?", email, username).
		Find(&existing).Error
	if err != nil {
		return false, false, err
	}

	var emailTaken, usernameTaken bool
	for _, u := range existing {
		if u.Email == email {
			emailTaken = true
		}
		if u.Username == username {
			usernameTaken = true
		}
	}
	return emailTaken, usernameTaken, nil
}

// GetByID получает пользователя с деталями и адресом
func (r *ProfileRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Preload("Detail").
		Preload("Location").
		First(&user, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}
