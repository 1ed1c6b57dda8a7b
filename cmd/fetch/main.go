package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"RandomUserService/config"
	"RandomUserService/internal/randomuser"
	"RandomUserService/internal/repository/postgres"
	"RandomUserService/internal/repository/redis"
	"RandomUserService/internal/service"
	"RandomUserService/pkg/database"
	"RandomUserService/pkg/logger"
	"RandomUserService/pkg/resilience"
	"RandomUserService/pkg/server"

	goredis "github.com/redis/go-redis/v9"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// run выполняет импорт и возвращает код завершения процесса.
// Неудачные попытки импорта не влияют на код завершения.
func run(args []string) int {
	log := logger.NewLogger()
	defer func() { _ = log.Sync() }()

	// Загрузка конфигурации
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Error("Не удалось загрузить конфигурацию", zap.Error(err))
		return 1
	}

	flags := pflag.NewFlagSet("fetch", pflag.ContinueOnError)
	flags.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: fetch [count] [--count N] [--concurrency N]")
		flags.PrintDefaults()
	}
	count := flags.IntP("count", "c", cfg.Ingestion.DefaultCount, "number of profiles to fetch")
	concurrency := flags.Int("concurrency", cfg.Ingestion.Concurrency, "maximum number of parallel attempts")
	if err := flags.Parse(args); err != nil {
		return 2
	}

	// Позиционный аргумент имеет приоритет над значением по умолчанию
	if flags.NArg() > 1 {
		fmt.Fprintln(os.Stderr, "fetch: expected at most one positional argument")
		return 2
	}
	if flags.NArg() == 1 {
		n, err := strconv.Atoi(flags.Arg(0))
		if err != nil {
			fmt.Fprintf(os.Stderr, "fetch: count must be an integer, got %q\n", flags.Arg(0))
			return 2
		}
		*count = n
	}
	if *count < 0 {
		fmt.Fprintln(os.Stderr, "fetch: count must be a non-negative integer")
		return 2
	}

	resilienceCfg := config.DefaultResilienceConfig()
	gracefulShutdown := server.NewGracefulShutdown(log, 10*time.Second)
	ctx, cancel := gracefulShutdown.NotifyContext(context.Background())
	defer cancel()

	// Подключение к PostgreSQL, ожидание прерывается сигналом
	db, err := connectPostgres(ctx, log, cfg.Postgres, resilience.DefaultStartupOptions(), database.NewPostgresDB)
	if err != nil {
		log.Error("Не удалось подключиться к PostgreSQL", zap.Error(err))
		return 1
	}
	sqlDB, err := db.DB()
	if err != nil {
		log.Error("Не удалось получить экземпляр SQL DB", zap.Error(err))
		return 1
	}
	defer sqlDB.Close()

	// История запусков необязательна: без Redis импорт все равно выполняется
	var redisClient goredis.UniversalClient
	if client, err := database.NewRedisClient(cfg.Redis); err != nil {
		log.Warn("Redis недоступен, сводка запуска не будет сохранена", zap.Error(err))
	} else {
		defer client.Close()
		redisClient = client
	}

	healthChecker := database.NewDatabaseHealthChecker(db, redisClient, resilienceCfg, log)
	store := postgres.NewResilientProfileRepository(db, healthChecker, resilienceCfg.Database, log)

	var runs service.RunRecorder
	if redisClient != nil {
		runs = redis.NewResilientRunRepository(redisClient, cfg.Redis.RunHistory, healthChecker, log)
	}

	source := randomuser.NewClient(cfg.Upstream, log)
	ingestion := service.NewIngestionService(source, store, runs, *concurrency, log)

	summary, err := ingestion.Run(ctx, *count)
	if err != nil {
		fmt.Fprintf(os.Stderr, "fetch: %v\n", err)
		return 2
	}

	fmt.Printf("Completed: %d/%d users fetched and stored\n", summary.Succeeded, summary.Attempted)
	return 0
}

// connectPostgres ждет доступности PostgreSQL, пока не отменен ctx
func connectPostgres(ctx context.Context, log *zap.Logger, cfg config.PostgresConfig, options resilience.StartupOptions, open func(config.PostgresConfig) (*gorm.DB, error)) (*gorm.DB, error) {
	var db *gorm.DB
	err := resilience.WaitForDependency(ctx, log, "postgres", options, func(ctx context.Context) error {
		var connErr error
		db, connErr = open(cfg)
		return connErr
	})
	if err != nil {
		return nil, err
	}
	return db, nil
}
