package resilience

import (
	"context"
	"errors"
	"sync"
	"time"

	"RandomUserService/pkg/apperrors"

	"go.uber.org/zap"
)

// CircuitState представляет состояние circuit breaker
type CircuitState int

const (
	// CircuitClosed означает, что circuit breaker закрыт (нормальное состояние)
	CircuitClosed CircuitState = iota
	// CircuitHalfOpen означает, что circuit breaker полуоткрыт (пробное состояние)
	CircuitHalfOpen
	// CircuitOpen означает, что circuit breaker открыт (состояние ошибки)
	CircuitOpen
)

func (s CircuitState) String() string {
	switch s {
	case CircuitClosed:
		return "CLOSED"
	case CircuitOpen:
		return "OPEN"
	case CircuitHalfOpen:
		return "HALF_OPEN"
	default:
		return "UNKNOWN"
	}
}

// StateChangeFunc вызывается при каждом переходе между состояниями
type StateChangeFunc func(name string, state CircuitState)

// CircuitBreaker защищает зависимость от лавины запросов во время отказа.
// Неудачная операция не повторяется: ошибка сразу возвращается вызывающему.
type CircuitBreaker struct {
	name             string
	state            CircuitState
	failureCount     int
	failureThreshold int
	resetTimeout     time.Duration
	lastStateChange  time.Time
	trialInFlight    bool
	mutex            sync.Mutex
	logger           *zap.Logger
	ignoredErrors    []error
	onStateChange    StateChangeFunc
}

// NewCircuitBreaker создает новый экземпляр CircuitBreaker
func NewCircuitBreaker(name string, failureThreshold int, resetTimeout time.Duration, logger *zap.Logger, ignoredErrors ...error) *CircuitBreaker {
	return &CircuitBreaker{
		name:             name,
		state:            CircuitClosed,
		failureThreshold: failureThreshold,
		resetTimeout:     resetTimeout,
		lastStateChange:  time.Now(),
		logger:           logger,
		ignoredErrors:    ignoredErrors,
	}
}

// OnStateChange регистрирует обработчик смены состояния (например, для метрик)
func (cb *CircuitBreaker) OnStateChange(fn StateChangeFunc) {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()
	cb.onStateChange = fn
}

// Execute выполняет функцию с учетом состояния circuit breaker
func (cb *CircuitBreaker) Execute(ctx context.Context, operation string, fn func(context.Context) error) error {
	if !cb.allowRequest(operation) {
		cb.logger.Warn("Circuit breaker preventing operation execution",
			zap.String("breaker", cb.name),
			zap.String("operation", operation))
		return apperrors.ErrCircuitOpen
	}

	err := fn(ctx)
	cb.handleResult(operation, err)

	return err
}

// allowRequest проверяет, можно ли выполнить запрос в текущем состоянии.
// В полуоткрытом состоянии пропускается только один пробный запрос.
func (cb *CircuitBreaker) allowRequest(operation string) bool {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	switch cb.state {
	case CircuitClosed:
		return true
	case CircuitOpen:
		if time.Since(cb.lastStateChange) < cb.resetTimeout {
			return false
		}
		cb.transition(CircuitHalfOpen, operation)
		cb.trialInFlight = true
		return true
	case CircuitHalfOpen:
		if cb.trialInFlight {
			return false
		}
		cb.trialInFlight = true
		return true
	default:
		return false
	}
}

// handleResult обрабатывает результат выполнения функции
func (cb *CircuitBreaker) handleResult(operation string, err error) {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	if cb.state == CircuitHalfOpen {
		cb.trialInFlight = false
	}

	if err != nil && cb.isIgnoredError(err) {
		cb.logger.Debug("Ignoring error for circuit breaker",
			zap.String("breaker", cb.name),
			zap.String("operation", operation),
			zap.Error(err))
		return
	}

	if err != nil {
		switch cb.state {
		case CircuitClosed:
			cb.failureCount++
			if cb.failureCount >= cb.failureThreshold {
				cb.transition(CircuitOpen, operation)
			}
		case CircuitHalfOpen:
			cb.transition(CircuitOpen, operation)
		}
		return
	}

	switch cb.state {
	case CircuitClosed:
		cb.failureCount = 0
	case CircuitHalfOpen:
		cb.failureCount = 0
		cb.transition(CircuitClosed, operation)
	}
}

// isIgnoredError проверяет, является ли ошибка игнорируемой
func (cb *CircuitBreaker) isIgnoredError(err error) bool {
	for _, ignoredErr := range cb.ignoredErrors {
		if errors.Is(err, ignoredErr) {
			return true
		}
	}
	return false
}

// transition меняет состояние; вызывается под мьютексом
func (cb *CircuitBreaker) transition(state CircuitState, operation string) {
	cb.state = state
	cb.lastStateChange = time.Now()

	fields := []zap.Field{
		zap.String("breaker", cb.name),
		zap.String("operation", operation),
		zap.String("state", state.String()),
	}
	if state == CircuitOpen {
		cb.logger.Warn("Circuit breaker opened",
			append(fields, zap.Int("failures", cb.failureCount), zap.Duration("reset_timeout", cb.resetTimeout))...)
	} else {
		cb.logger.Info("Circuit breaker state changed", fields...)
	}

	if cb.onStateChange != nil {
		cb.onStateChange(cb.name, state)
	}
}

// GetState возвращает текущее состояние circuit breaker
func (cb *CircuitBreaker) GetState() CircuitState {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()
	return cb.state
}

// Name возвращает имя защищаемой зависимости
func (cb *CircuitBreaker) Name() string {
	return cb.name
}
