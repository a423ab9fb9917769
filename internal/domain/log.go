package domain

import (
	"time"

	"github.com/google/uuid"
)

// Уровни лог-записей.
const (
	LogLevelInfo  = "info"
	LogLevelError = "error"
)

// LogEntry — append-only лог-запись в рамках run.
//
// Создаётся во время выполнения, никогда не мутируется и не удаляется,
// читается в хронологическом порядке (по TS).
type LogEntry struct {
	// ID — уникальный идентификатор записи.
	ID uuid.UUID `json:"id"`

	// RunID — ссылка на run.
	RunID uuid.UUID `json:"run_id"`

	// NodeID — ID узла, если запись привязана к узлу.
	NodeID string `json:"node_id,omitempty"`

	// TS — время записи.
	TS time.Time `json:"ts"`

	// Level — уровень: info, error.
	Level string `json:"level"`

	// Message — текст сообщения.
	Message string `json:"message"`

	// Data — структурированная полезная нагрузка.
	Data map[string]any `json:"data,omitempty"`
}
