package server

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"go.uber.org/zap"
)

// HealthCheckerInterface определяет интерфейс для проверки здоровья зависимостей
type HealthCheckerInterface interface {
	// IsDatabaseHealthy проверяет здоровье PostgreSQL
	IsDatabaseHealthy(ctx context.Context) bool

	// IsRedisHealthy проверяет здоровье Redis
	IsRedisHealthy(ctx context.Context) bool
}

// ReadinessListener получает результат каждой фоновой проверки
type ReadinessListener func(ready bool)

// HealthCheck отслеживает состояние зависимостей и отдает его по HTTP
type HealthCheck struct {
	checker       HealthCheckerInterface
	logger        *zap.Logger
	version       string
	interval      time.Duration
	timeout       time.Duration
	statusMutex   sync.RWMutex
	serviceStatus map[string]string
	listeners     []ReadinessListener
	stop          chan struct{}
	stopOnce      sync.Once
}

// HealthResponse представляет ответ эндпоинта /health
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// ReadinessResponse представляет ответ эндпоинта /health/ready
type ReadinessResponse struct {
	Status    string            `json:"status"`
	Services  map[string]string `json:"services"`
	Timestamp time.Time         `json:"timestamp"`
	Version   string            `json:"version"`
}

// NewHealthCheck создает новый сервис проверки здоровья
func NewHealthCheck(checker HealthCheckerInterface, logger *zap.Logger, version string, interval, timeout time.Duration) *HealthCheck {
	return &HealthCheck{
		checker:  checker,
		logger:   logger,
		version:  version,
		interval: interval,
		timeout:  timeout,
		serviceStatus: map[string]string{
			"postgres": "unknown",
			"redis":    "unknown",
		},
		stop: make(chan struct{}),
	}
}

// AddReadinessListener регистрирует обработчик результата проверки
func (h *HealthCheck) AddReadinessListener(l ReadinessListener) {
	h.statusMutex.Lock()
	defer h.statusMutex.Unlock()
	h.listeners = append(h.listeners, l)
}

// RegisterRoutes подключает эндпоинты проверки здоровья к роутеру
func (h *HealthCheck) RegisterRoutes(r chi.Router) {
	r.Get("/health", h.healthHandler)
	r.Get("/health/ready", h.readinessHandler)
}

// Start выполняет первую проверку и запускает фоновый мониторинг
func (h *HealthCheck) Start() {
	h.CheckServicesHealth()
	go h.monitorHealth()
}

// Stop останавливает фоновый мониторинг
func (h *HealthCheck) Stop(ctx context.Context) error {
	h.stopOnce.Do(func() { close(h.stop) })
	return nil
}

// healthHandler сообщает, что процесс жив
func (h *HealthCheck) healthHandler(w http.ResponseWriter, r *http.Request) {
	render.Status(r, http.StatusOK)
	render.JSON(w, r, HealthResponse{Status: "ok", Timestamp: time.Now().UTC()})
}

// readinessHandler сообщает, готов ли сервис обслуживать запросы
func (h *HealthCheck) readinessHandler(w http.ResponseWriter, r *http.Request) {
	// Копируем статусы под блокировкой
	h.statusMutex.RLock()
	services := make(map[string]string, len(h.serviceStatus))
	for k, v := range h.serviceStatus {
		services[k] = v
	}
	h.statusMutex.RUnlock()

	status := "up"
	code := http.StatusOK
	// Без PostgreSQL сервис не готов к работе, Redis только деградирует
	if services["postgres"] != "up" {
		status = "down"
		code = http.StatusServiceUnavailable
	}

	render.Status(r, code)
	render.JSON(w, r, ReadinessResponse{
		Status:    status,
		Services:  services,
		Timestamp: time.Now().UTC(),
		Version:   h.version,
	})
}

// monitorHealth регулярно проверяет состояние зависимостей
func (h *HealthCheck) monitorHealth() {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			h.CheckServicesHealth()
		case <-h.stop:
			return
		}
	}
}

// CheckServicesHealth проверяет здоровье всех зависимостей и уведомляет слушателей
func (h *HealthCheck) CheckServicesHealth() {
	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()

	// Проверяем PostgreSQL
	pgStatus := "up"
	if !h.checker.IsDatabaseHealthy(ctx) {
		pgStatus = "down"
		h.logger.Warn("PostgreSQL health check failed")
	}

	// Проверяем Redis
	redisStatus := "up"
	if !h.checker.IsRedisHealthy(ctx) {
		redisStatus = "degraded"
		h.logger.Warn("Redis health check failed")
	}

	h.statusMutex.Lock()
	h.serviceStatus["postgres"] = pgStatus
	h.serviceStatus["redis"] = redisStatus
	listeners := append([]ReadinessListener(nil), h.listeners...)
	h.statusMutex.Unlock()

	// Уведомляем слушателей вне блокировки
	for _, l := range listeners {
		l(pgStatus == "up")
	}
}
