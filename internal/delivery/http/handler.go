package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"RandomUserService/internal/models"
	"RandomUserService/internal/service"
	"RandomUserService/pkg/apperrors"
	"RandomUserService/pkg/server"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"go.uber.org/zap"
)

const defaultRunsLimit = 10

// UserQuerier выполняет запросы списка пользователей
type UserQuerier interface {
	List(ctx context.Context, params service.ListUsersParams) (*service.PagedResult, error)
	Get(ctx context.Context, id uint, fields string) (service.Row, error)
}

// UserCreator создает пользователей
type UserCreator interface {
	CreateUser(ctx context.Context, req *models.CreateUserRequest) (*models.User, error)
}

// RunLister возвращает последние запуски импорта
type RunLister interface {
	Recent(ctx context.Context, limit int) ([]models.RunSummary, error)
}

// ErrorResponse тело ответа с ошибкой
type ErrorResponse struct {
	Status  string              `json:"status"`
	Message string              `json:"message"`
	Errors  map[string][]string `json:"errors,omitempty"`
}

// DataResponse тело успешного ответа с данными
type DataResponse struct {
	Status string `json:"status"`
	Data   any    `json:"data"`
}

// UserHandler обрабатывает HTTP запросы к пользователям и запускам импорта
type UserHandler struct {
	queries UserQuerier
	users   UserCreator
	runs    RunLister
	logger  *zap.Logger
}

// NewUserHandler создает новый экземпляр UserHandler.
// runs может быть nil, тогда история запусков недоступна.
func NewUserHandler(queries UserQuerier, users UserCreator, runs RunLister, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		queries: queries,
		users:   users,
		runs:    runs,
		logger:  logger,
	}
}

// RegisterRoutes подключает маршруты обработчика к роутеру
func (h *UserHandler) RegisterRoutes(r chi.Router) {
	r.Route("/users", func(r chi.Router) {
		r.Get("/", h.ListUsers)
		r.Post("/", h.CreateUser)
		r.Get("/{id}", h.GetUser)
	})
	r.Get("/ingestion/runs", h.ListRuns)
}

// ListUsers обрабатывает GET /users
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	// Параметры передаются сервису как есть, проверка выполняется там
	q := r.URL.Query()
	params := service.ListUsersParams{
		Gender:  q.Get("gender"),
		City:    q.Get("city"),
		Country: q.Get("country"),
		Limit:   q.Get("limit"),
		Page:    q.Get("page"),
		Fields:  q.Get("fields"),
	}

	result, err := h.queries.List(r.Context(), params)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, result)
}

// GetUser обрабатывает GET /users/{id}
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	// Получаем ID пользователя из пути
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id == 0 {
		verr := apperrors.NewValidationError()
		verr.Add("id", "The id must be a positive integer.")
		h.respondError(w, r, verr)
		return
	}

	row, err := h.queries.Get(r.Context(), uint(id), r.URL.Query().Get("fields"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, DataResponse{Status: "success", Data: row})
}

// CreateUser обрабатывает POST /users
func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	// Декодируем тело запроса
	var req models.CreateUserRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse{Status: "error", Message: "Invalid request body"})
		return
	}

	user, err := h.users.CreateUser(r.Context(), &req)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, DataResponse{Status: "success", Data: service.ToUserResponse(user)})
}

// ListRuns обрабатывает GET /ingestion/runs
func (h *UserHandler) ListRuns(w http.ResponseWriter, r *http.Request) {
	if h.runs == nil {
		render.Status(r, http.StatusServiceUnavailable)
		render.JSON(w, r, ErrorResponse{Status: "error", Message: "Run history is not available"})
		return
	}

	limit := defaultRunsLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			verr := apperrors.NewValidationError()
			verr.Add("limit", "The limit field must be a positive integer.")
			h.respondError(w, r, verr)
			return
		}
		limit = n
	}

	runs, err := h.runs.Recent(r.Context(), limit)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if runs == nil {
		runs = []models.RunSummary{}
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, DataResponse{Status: "success", Data: runs})
}

// respondError преобразует ошибку сервиса в HTTP ответ
func (h *UserHandler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *apperrors.ValidationError

	switch {
	case errors.As(err, &verr):
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, ErrorResponse{
			Status:  "error",
			Message: "Invalid request parameters",
			Errors:  verr.Fields,
		})
	case apperrors.IsNotFound(err):
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, ErrorResponse{Status: "error", Message: "User not found"})
	case errors.Is(err, apperrors.ErrConflict):
		render.Status(r, http.StatusConflict)
		render.JSON(w, r, ErrorResponse{Status: "error", Message: "User already exists"})
	case errors.Is(err, apperrors.ErrCircuitOpen):
		// Circuit breaker открыт, база данных временно недоступна
		server.WithRequestID(r.Context(), h.logger).Warn("Dependency unavailable",
			zap.String("path", r.URL.Path),
			zap.Error(err))
		render.Status(r, http.StatusServiceUnavailable)
		render.JSON(w, r, ErrorResponse{Status: "error", Message: "Service temporarily unavailable"})
	default:
		server.WithRequestID(r.Context(), h.logger).Error("Request failed",
			zap.String("path", r.URL.Path),
			zap.Error(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, ErrorResponse{Status: "error", Message: "Internal server error"})
	}
}
