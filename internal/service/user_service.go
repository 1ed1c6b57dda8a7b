package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"RandomUserService/internal/models"
	"RandomUserService/pkg/apperrors"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	minUsernameLength = 3
	minPasswordLength = 8
	maxFieldLength    = 255
)

// UserRepositoryInterface описывает операции хранилища, нужные для создания пользователя
type UserRepositoryInterface interface {
	ExistsByEmailOrUsername(ctx context.Context, email, username string) (bool, bool, error)
	CreateUser(ctx context.Context, user *models.User) error
}

// UserService представляет сервис создания пользователей
type UserService struct {
	userRepo UserRepositoryInterface
	logger   *zap.Logger
	cost     int
}

// NewUserService создает новый экземпляр UserService
func NewUserService(userRepo UserRepositoryInterface, logger *zap.Logger) *UserService {
	return &UserService{
		userRepo: userRepo,
		logger:   logger,
		cost:     bcrypt.DefaultCost,
	}
}

// CreateUser проверяет запрос, хеширует пароль и создает пользователя.
// Создается только запись users, без деталей и адреса.
func (s *UserService) CreateUser(ctx context.Context, req *models.CreateUserRequest) (*models.User, error) {
	normalizeName(req)

	if verr := validateCreateUser(req); verr != nil {
		return nil, verr
	}

	if verr, err := s.checkUniqueness(ctx, req.Email, req.Username); err != nil {
		return nil, err
	} else if verr != nil {
		return nil, verr
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	passwordHash := string(hash)

	user := &models.User{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        req.Email,
		Username:     req.Username,
		PasswordHash: &passwordHash,
	}

	if err := s.userRepo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			// Запись с тем же email или username появилась между проверкой и вставкой
			if verr, checkErr := s.checkUniqueness(ctx, req.Email, req.Username); checkErr == nil && verr != nil {
				return nil, verr
			}
			return nil, err
		}
		s.logger.Error("Failed to create user", zap.Error(err), zap.String("username", req.Username))
		return nil, err
	}

	s.logger.Info("User created", zap.Uint("user_id", user.ID), zap.String("username", user.Username))
	return user, nil
}

// checkUniqueness возвращает ValidationError, если email или username заняты
func (s *UserService) checkUniqueness(ctx context.Context, email, username string) (*apperrors.ValidationError, error) {
	emailTaken, usernameTaken, err := s.userRepo.ExistsByEmailOrUsername(ctx, email, username)
	if err != nil {
		s.logger.Error("Failed to check user uniqueness", zap.Error(err))
		return nil, err
	}

	verr := apperrors.NewValidationError()
	if emailTaken {
		verr.Add("email", "The email has already been taken.")
	}
	if usernameTaken {
		verr.Add("username", "The username has already been taken.")
	}
	if verr.HasErrors() {
		return verr, nil
	}
	return nil, nil
}

// normalizeName разбивает name на имя и фамилию по первому пробелу,
// если first_name и last_name не заданы
func normalizeName(req *models.CreateUserRequest) {
	req.Email = strings.TrimSpace(req.Email)
	req.Username = strings.TrimSpace(req.Username)
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)

	name := strings.TrimSpace(req.Name)
	if name == "" || req.FirstName != "" || req.LastName != "" {
		return
	}

	first, last, _ := strings.Cut(name, " ")
	req.FirstName = first
	req.LastName = strings.TrimSpace(last)
}

func validateCreateUser(req *models.CreateUserRequest) *apperrors.ValidationError {
	verr := apperrors.NewValidationError()

	if req.FirstName == "" {
		verr.Add("name", "The name field is required.")
	} else if utf8.RuneCountInString(req.FirstName) > maxFieldLength || utf8.RuneCountInString(req.LastName) > maxFieldLength {
		verr.Add("name", "The name field must not be greater than 255 characters.")
	}

	switch {
	case req.Email == "":
		verr.Add("email", "The email field is required.")
	case utf8.RuneCountInString(req.Email) > maxFieldLength:
		verr.Add("email", "The email field must not be greater than 255 characters.")
	case !isValidEmail(req.Email):
		verr.Add("email", "The email field must be a valid email address.")
	}

	switch n := utf8.RuneCountInString(req.Username); {
	case n == 0:
		verr.Add("username", "The username field is required.")
	case n < minUsernameLength:
		verr.Add("username", "The username field must be at least 3 characters.")
	case n > maxFieldLength:
		verr.Add("username", "The username field must not be greater than 255 characters.")
	}

	switch {
	case req.Password == "":
		verr.Add("password", "The password field is required.")
	case utf8.RuneCountInString(req.Password) < minPasswordLength:
		verr.Add("password", "The password field must be at least 8 characters.")
	case req.Password != req.PasswordConfirmation:
		verr.Add("password", "The password field confirmation does not match.")
	}

	if verr.HasErrors() {
		return verr
	}
	return nil
}

// isValidEmail принимает только голый адрес вида local@domain
func isValidEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return false
	}
	_, domain, ok := strings.Cut(email, "@")
	return ok && domain != ""
}

// ToUserResponse преобразует пользователя в ответ API без пароля
func ToUserResponse(user *models.User) *models.UserResponse {
	return &models.UserResponse{
		ID:        user.ID,
		Name:      user.FullName(),
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Email:     user.Email,
		Username:  user.Username,
		CreatedAt: user.CreatedAt.UTC().Format(time.RFC3339),
	}
}
