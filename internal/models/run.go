package models

import (
	"time"
)

// Этапы, на которых может завершиться неудачей попытка импорта
const (
	AttemptStageFetch = "fetch"
	AttemptStageStore = "store"
)

// AttemptFailure описывает неудачную попытку импорта одного профиля
type AttemptFailure struct {
	Index      int    `json:"index"`
	Stage      string `json:"stage"`
	StatusCode int    `json:"status_code,omitempty"`
	Cause      string `json:"cause"`
}

// RunSummary итог одного запуска импорта
type RunSummary struct {
	RunID      string           `json:"run_id"`
	Attempted  int              `json:"attempted"`
	Succeeded  int              `json:"succeeded"`
	Failed     int              `json:"failed"`
	Failures   []AttemptFailure `json:"failures"`
	StartedAt  time.Time        `json:"started_at"`
	FinishedAt time.Time        `json:"finished_at"`
}

// Duration возвращает длительность запуска
func (s *RunSummary) Duration() time.Duration {
	return s.FinishedAt.Sub(s.StartedAt)
}
