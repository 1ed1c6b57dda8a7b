package main

import (
	"context"
	"os"
	"strconv"
	"time"

	"RandomUserService/config"
	"RandomUserService/internal/database/seed"
	httpDelivery "RandomUserService/internal/delivery/http"
	"RandomUserService/internal/repository/postgres"
	"RandomUserService/internal/repository/redis"
	"RandomUserService/internal/service"
	"RandomUserService/pkg/database"
	"RandomUserService/pkg/logger"
	"RandomUserService/pkg/resilience"
	"RandomUserService/pkg/server"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Версия сервиса
const (
	ServiceVersion = "1.0.0"
)

func main() {
	// Инициализация логгера
	log := logger.NewLogger()
	defer func() { _ = log.Sync() }()
	log.Info("Запуск сервиса случайных пользователей", zap.String("version", ServiceVersion))

	// Загрузка конфигурации
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Не удалось загрузить конфигурацию", zap.Error(err))
	}
	resilienceCfg := config.DefaultResilienceConfig()

	// Создаем механизм graceful shutdown
	gracefulShutdown := server.NewGracefulShutdown(log, 30*time.Second)

	// Подключение к PostgreSQL
	var db *gorm.DB
	err = resilience.WaitForDependency(context.Background(), log, "postgres", resilience.DefaultStartupOptions(), func(ctx context.Context) error {
		var connErr error
		db, connErr = database.NewPostgresDB(cfg.Postgres)
		return connErr
	})
	if err != nil {
		log.Fatal("Не удалось подключиться к PostgreSQL", zap.Error(err))
	}
	log.Info("Подключение к PostgreSQL установлено")

	sqlDB, err := db.DB()
	if err != nil {
		log.Fatal("Не удалось получить экземпляр SQL DB", zap.Error(err))
	}
	gracefulShutdown.AddShutdownFunc("postgres", func(ctx context.Context) error {
		log.Info("Закрытие соединения с PostgreSQL")
		return sqlDB.Close()
	})

	// Redis хранит только историю запусков импорта, поэтому без него сервис работает
	var redisClient goredis.UniversalClient
	if client, err := database.NewRedisClient(cfg.Redis); err != nil {
		log.Warn("Redis недоступен, история запусков отключена", zap.Error(err))
	} else {
		log.Info("Подключение к Redis установлено")
		redisClient = client
		gracefulShutdown.AddShutdownFunc("redis", func(ctx context.Context) error {
			log.Info("Закрытие соединения с Redis")
			return client.Close()
		})
	}

	if err := seed.NewDevEnvironmentSeeder(db, log).SeedProfiles(context.Background()); err != nil {
		log.Warn("Не удалось заполнить тестовыми данными", zap.Error(err))
	}

	// Создаем проверку здоровья баз данных
	healthChecker := database.NewDatabaseHealthChecker(db, redisClient, resilienceCfg, log)

	// Запускаем сервер для метрик Prometheus
	metricsServer := server.MetricsServer(strconv.Itoa(cfg.HTTP.MetricsPort))
	gracefulShutdown.AddShutdownFunc("metrics", func(ctx context.Context) error {
		log.Info("Остановка сервера метрик")
		return metricsServer.Shutdown(ctx)
	})

	// Инициализация отказоустойчивых репозиториев
	profileRepo := postgres.NewResilientProfileRepository(db, healthChecker, resilienceCfg.Database, log)

	var runLister httpDelivery.RunLister
	if redisClient != nil {
		runLister = redis.NewResilientRunRepository(redisClient, cfg.Redis.RunHistory, healthChecker, log)
	}

	// Инициализация сервисов
	queryService := service.NewQueryService(profileRepo, log)
	userService := service.NewUserService(profileRepo, log)

	// gRPC сервер отдает только статус готовности
	grpcHealth := server.NewGRPCHealthServer(log)
	if err := grpcHealth.Start(cfg.GRPC.Port); err != nil {
		log.Fatal("Не удалось запустить gRPC сервер здоровья", zap.Error(err))
	}
	gracefulShutdown.AddShutdownFunc("grpc_health", func(ctx context.Context) error {
		log.Info("Остановка gRPC сервера здоровья")
		grpcHealth.Stop()
		return nil
	})

	// Фоновая проверка зависимостей
	healthCheck := server.NewHealthCheck(healthChecker, log, ServiceVersion,
		resilienceCfg.HealthCheck.Interval, resilienceCfg.HealthCheck.Timeout)
	healthCheck.AddReadinessListener(grpcHealth.SetReady)
	healthCheck.Start()
	gracefulShutdown.AddShutdownFunc("health_check", healthCheck.Stop)

	// HTTP API
	handler := httpDelivery.NewUserHandler(queryService, userService, runLister, log)
	router := httpDelivery.NewRouter(handler, healthCheck, httpDelivery.RouterConfig{
		RequestTimeout: cfg.HTTP.RequestTimeout,
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
	}, log)
	httpServer := httpDelivery.NewServer(router, log, cfg.HTTP.Port)

	gracefulShutdown.AddShutdownFunc("http", httpServer.Stop)

	go func() {
		if err := httpServer.Run(); err != nil {
			log.Fatal("Не удалось запустить HTTP сервер", zap.Error(err))
		}
	}()

	// Логируем информацию о версии и PID
	hostname, _ := os.Hostname()
	log.Info("Сервис успешно запущен",
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Int("grpc_port", cfg.GRPC.Port),
		zap.Int("metrics_port", cfg.HTTP.MetricsPort),
		zap.String("version", ServiceVersion),
		zap.Int("pid", os.Getpid()),
		zap.String("hostname", hostname))

	// Ожидаем сигнала остановки
	gracefulShutdown.Wait(context.Background())
	log.Info("Завершение работы сервиса выполнено")
}
