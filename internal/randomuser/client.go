package randomuser

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"RandomUserService/config"
	"RandomUserService/internal/models"
	"RandomUserService/pkg/apperrors"

	"go.uber.org/zap"
)

const (
	// DefaultURL адрес API случайных пользователей
	DefaultURL = "https://randomuser.me/api/"

	defaultTimeout = 10 * time.Second
	maxErrorBody   = 4 << 10
)

// StatusError возвращается, когда API ответил неуспешным HTTP статусом
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("randomuser: unexpected status %d", e.StatusCode)
}

func (e *StatusError) Is(target error) bool {
	return target == apperrors.ErrUpstreamFetch
}

// TransportError возвращается при сетевой ошибке или некорректном ответе
type TransportError struct {
	Message string
	Err     error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("randomuser: %s: %v", e.Message, e.Err)
	}
	return "randomuser: " + e.Message
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

func (e *TransportError) Is(target error) bool {
	return target == apperrors.ErrUpstreamFetch
}

// Client получает по одному случайному профилю за вызов.
// Повторные попытки не выполняются.
type Client struct {
	httpClient *http.Client
	url        string
	logger     *zap.Logger
}

// NewClient создает клиент с ограниченным таймаутом запроса
func NewClient(cfg config.UpstreamConfig, logger *zap.Logger) *Client {
	url := cfg.URL
	if url == "" {
		url = DefaultURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		url:        url,
		logger:     logger,
	}
}

// FetchOne выполняет один запрос к API и возвращает первый профиль из ответа
func (c *Client) FetchOne(ctx context.Context) (*models.ProfileData, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, &TransportError{Message: "build request", Err: err}
	}
	req.Header.Set("Accept", "application/json")

	// Выполняем запрос, таймаут задан в http.Client
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Message: "request failed", Err: err}
	}
	defer resp.Body.Close()

	// Любой статус вне 2xx считается ошибкой, тело обрезается
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	// Разбираем ответ
	var payload response
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, &TransportError{Message: "decode response", Err: err}
	}
	if len(payload.Results) == 0 {
		return nil, &TransportError{Message: "response contains no results"}
	}

	profile := payload.Results[0].toProfile()
	c.logger.Debug("Profile fetched",
		zap.String("email", profile.Email),
		zap.String("username", profile.Username))

	return profile, nil
}
