package config

import (
	"time"
)

// ResilienceConfig содержит настройки для механизмов отказоустойчивости.
// Повторные попытки намеренно не предусмотрены: каждая ошибка сразу
// возвращается вызывающему коду.
type ResilienceConfig struct {
	// CircuitBreaker содержит настройки для circuit breaker
	CircuitBreaker struct {
		// FailureThreshold количество ошибок, после которого circuit breaker откроется
		FailureThreshold int
		// ResetTimeout время, через которое circuit breaker перейдет в полуоткрытое состояние
		ResetTimeout time.Duration
	}

	// Database содержит настройки механизмов отказоустойчивости для базы данных
	Database DatabaseTimeouts

	// Redis содержит настройки механизмов отказоустойчивости для Redis
	Redis struct {
		// CommandTimeout таймаут для выполнения команд
		CommandTimeout time.Duration
	}

	// HealthCheck содержит настройки фоновой проверки зависимостей
	HealthCheck struct {
		Interval time.Duration
		Timeout  time.Duration
	}
}

// DatabaseTimeouts содержит таймауты операций с PostgreSQL
type DatabaseTimeouts struct {
	// WriteTimeout таймаут транзакции сохранения профиля
	WriteTimeout time.Duration
	// ReadTimeout таймаут запросов на чтение
	ReadTimeout time.Duration
}

// DefaultResilienceConfig возвращает конфигурацию отказоустойчивости по умолчанию
func DefaultResilienceConfig() ResilienceConfig {
	config := ResilienceConfig{}

	config.CircuitBreaker.FailureThreshold = 5
	config.CircuitBreaker.ResetTimeout = 30 * time.Second

	config.Database.WriteTimeout = 5 * time.Second
	config.Database.ReadTimeout = 3 * time.Second

	config.Redis.CommandTimeout = 1 * time.Second

	config.HealthCheck.Interval = 10 * time.Second
	config.HealthCheck.Timeout = 2 * time.Second

	return config
}
