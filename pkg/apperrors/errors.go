package apperrors

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

var (
	// ErrNotFound возвращается, когда запись не найдена (обобщенная ошибка)
	ErrNotFound = errors.New("record not found")

	// ErrUpstreamFetch общий признак ошибок внешнего API профилей
	ErrUpstreamFetch = errors.New("upstream fetch failed")

	// ErrPersistence общий признак ошибок сохранения профиля
	ErrPersistence = errors.New("profile persistence failed")

	// ErrValidation общий признак ошибок валидации параметров
	ErrValidation = errors.New("validation failed")

	// ErrConflict возвращается при нарушении уникальности (email, username)
	ErrConflict = errors.New("resource already exists")

	// ErrCircuitOpen возвращается, когда circuit breaker не пропускает операцию
	ErrCircuitOpen = errors.New("circuit breaker is open")

	// ErrCacheMiss возвращается, когда ключ не найден в Redis
	ErrCacheMiss = redis.Nil

	// ErrRecordNotFound возвращается, когда запись не найдена в базе данных
	ErrRecordNotFound = gorm.ErrRecordNotFound

	// IgnoredErrors не учитываются circuit breaker как отказ зависимости
	IgnoredErrors = []error{
		ErrNotFound,
		ErrCacheMiss,
		ErrRecordNotFound,
		ErrValidation,
		ErrConflict,
	}
)

// IsNotFound проверяет, является ли ошибка ошибкой "запись не найдена"
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}

	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrCacheMiss) ||
		errors.Is(err, ErrRecordNotFound)
}

// ValidationError содержит ошибки валидации по полям
type ValidationError struct {
	Fields map[string][]string
}

// NewValidationError создает пустую ошибку валидации
func NewValidationError() *ValidationError {
	return &ValidationError{Fields: make(map[string][]string)}
}

// Add добавляет сообщение для поля
func (e *ValidationError) Add(field, message string) {
	e.Fields[field] = append(e.Fields[field], message)
}

// HasErrors сообщает, есть ли накопленные ошибки
func (e *ValidationError) HasErrors() bool {
	return len(e.Fields) > 0
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, strings.Join(e.Fields[k], "; ")))
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// PersistenceError описывает неудачное сохранение профиля.
// Payload хранит исходные данные профиля для диагностики.
type PersistenceError struct {
	Stage   string
	Payload any
	Err     error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist profile (stage %s): %v", e.Stage, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

func (e *PersistenceError) Is(target error) bool {
	return target == ErrPersistence
}
