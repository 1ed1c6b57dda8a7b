package http

import (
	"net/http"
	"time"

	"RandomUserService/pkg/server"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/render"
	"go.uber.org/zap"
)

// RouterConfig содержит настройки роутера
type RouterConfig struct {
	RequestTimeout time.Duration
	AllowedOrigins []string
}

// NewRouter собирает chi роутер со всеми middleware и маршрутами.
// health может быть nil, тогда эндпоинты /health не регистрируются.
func NewRouter(handler *UserHandler, health *server.HealthCheck, cfg RouterConfig, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(server.LoggingMiddleware(logger))
	r.Use(server.MetricsMiddleware)
	r.Use(middleware.Recoverer)
	if cfg.RequestTimeout > 0 {
		r.Use(middleware.Timeout(cfg.RequestTimeout))
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", server.RequestIDHeader},
		ExposedHeaders: []string{server.RequestIDHeader},
		MaxAge:         300,
	}))

	if health != nil {
		health.RegisterRoutes(r)
	}
	handler.RegisterRoutes(r)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, ErrorResponse{Status: "error", Message: "Route not found"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		render.Status(r, http.StatusMethodNotAllowed)
		render.JSON(w, r, ErrorResponse{Status: "error", Message: "Method not allowed"})
	})

	return r
}
