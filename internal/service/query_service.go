package service

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"RandomUserService/internal/models"
	"RandomUserService/internal/repository/postgres"
	"RandomUserService/pkg/apperrors"

	"go.uber.org/zap"
)

const (
	// DefaultLimit размер страницы по умолчанию
	DefaultLimit = 10
	// MaxLimit максимальный размер страницы
	MaxLimit = 100

	maxFilterLength = 255
)

// UserReader читает пользователей вместе с деталями и адресом
type UserReader interface {
	List(ctx context.Context, filter postgres.UserFilter, page postgres.Page) ([]models.User, int64, error)
	GetByID(ctx context.Context, id uint) (*models.User, error)
}

// ListUsersParams необработанные параметры запроса списка пользователей
type ListUsersParams struct {
	Gender  string
	City    string
	Country string
	Limit   string
	Page    string
	Fields  string
}

// PagedResult ответ со страницей пользователей
type PagedResult struct {
	Status      string `json:"status"`
	Total       int64  `json:"total"`
	PerPage     int    `json:"per_page"`
	CurrentPage int    `json:"current_page"`
	LastPage    int    `json:"last_page"`
	Data        []Row  `json:"data"`
}

// QueryService обрабатывает запросы списка пользователей:
// валидация, фильтрация, пагинация и выбор полей
type QueryService struct {
	users  UserReader
	logger *zap.Logger
}

// NewQueryService создает новый экземпляр QueryService
func NewQueryService(users UserReader, logger *zap.Logger) *QueryService {
	return &QueryService{
		users:  users,
		logger: logger,
	}
}

type listQuery struct {
	filter postgres.UserFilter
	limit  int
	page   int
	fields []string
}

// List проверяет параметры и возвращает страницу пользователей.
// При ошибке валидации запрос к хранилищу не выполняется.
func (s *QueryService) List(ctx context.Context, params ListUsersParams) (*PagedResult, error) {
	query, err := validateListParams(params)
	if err != nil {
		return nil, err
	}

	users, total, err := s.users.List(ctx, query.filter, postgres.Page{
		Limit:  query.limit,
		Offset: (query.page - 1) * query.limit,
	})
	if err != nil {
		s.logger.Error("Failed to list users",
			zap.String("gender", query.filter.Gender),
			zap.String("city", query.filter.City),
			zap.String("country", query.filter.Country),
			zap.Int("page", query.page),
			zap.Error(err))
		return nil, fmt.Errorf("list users: %w", err)
	}

	data := make([]Row, 0, len(users))
	for i := range users {
		data = append(data, NewUserRow(&users[i]).Project(query.fields))
	}

	return &PagedResult{
		Status:      "success",
		Total:       total,
		PerPage:     query.limit,
		CurrentPage: query.page,
		LastPage:    lastPage(total, query.limit),
		Data:        data,
	}, nil
}

// Get возвращает одного пользователя с выбранными полями
func (s *QueryService) Get(ctx context.Context, id uint, fields string) (Row, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if !apperrors.IsNotFound(err) {
			s.logger.Error("Failed to get user", zap.Uint("user_id", id), zap.Error(err))
		}
		return Row{}, err
	}
	return NewUserRow(user).Project(ParseFields(fields)), nil
}

// validateListParams собирает все ошибки параметров в одну ValidationError
func validateListParams(params ListUsersParams) (*listQuery, error) {
	verr := apperrors.NewValidationError()
	query := &listQuery{
		limit:  DefaultLimit,
		page:   1,
		fields: ParseFields(params.Fields),
	}

	if params.Gender != "" && !models.IsValidGender(params.Gender) {
		verr.Add("gender", "The selected gender is invalid.")
	}
	query.filter.Gender = params.Gender

	if utf8.RuneCountInString(params.City) > maxFilterLength {
		verr.Add("city", "The city field must not be greater than 255 characters.")
	}
	query.filter.City = params.City

	if utf8.RuneCountInString(params.Country) > maxFilterLength {
		verr.Add("country", "The country field must not be greater than 255 characters.")
	}
	query.filter.Country = params.Country

	if raw := strings.TrimSpace(params.Limit); raw != "" {
		limit, err := strconv.Atoi(raw)
		switch {
		case err != nil:
			verr.Add("limit", "The limit field must be an integer.")
		case limit < 1:
			verr.Add("limit", "The limit field must be at least 1.")
		case limit > MaxLimit:
			verr.Add("limit", "The limit field must not be greater than 100.")
		default:
			query.limit = limit
		}
	}

	if raw := strings.TrimSpace(params.Page); raw != "" {
		page, err := strconv.Atoi(raw)
		switch {
		case err != nil:
			verr.Add("page", "The page field must be an integer.")
		case page < 1:
			verr.Add("page", "The page field must be at least 1.")
		case page > math.MaxInt/query.limit:
			// Смещение (page-1)*limit не должно переполнять int
			verr.Add("page", "The page field is too large.")
		default:
			query.page = page
		}
	}

	if verr.HasErrors() {
		return nil, verr
	}
	return query, nil
}

// lastPage возвращает номер последней страницы, не меньше 1
func lastPage(total int64, perPage int) int {
	if total <= 0 || perPage <= 0 {
		return 1
	}
	return int((total + int64(perPage) - 1) / int64(perPage))
}
