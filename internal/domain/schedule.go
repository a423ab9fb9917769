package domain

import (
	"time"

	"github.com/google/uuid"
)

// Schedule — расписание автоматического запуска workflow.
//
// Scheduler периодически проверяет включённые расписания и создаёт
// runs с триггером schedule по cron-выражению.
type Schedule struct {
	// ID — уникальный идентификатор расписания.
	ID uuid.UUID `json:"id"`

	// WorkflowID — ссылка на workflow.
	WorkflowID uuid.UUID `json:"workflow_id"`

	// CronExpr — стандартное 5-польное cron-выражение (минутная гранулярность).
	CronExpr string `json:"cron_expr"`

	// Enabled — выключенные расписания не запускаются.
	Enabled bool `json:"enabled"`

	// CreatedAt — время создания расписания.
	CreatedAt time.Time `json:"created_at"`
}
