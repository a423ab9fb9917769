package domain

import (
	"time"

	"github.com/google/uuid"
)

// Workflow — определение рабочего процесса.
//
// Workflow владеет ровно одним актуальным Graph. При обновлении
// граф перезаписывается целиком, версии не хранятся. WebhookSlug —
// необязательный слаг для запуска через POST /hooks/{slug}.
type Workflow struct {
	// ID — уникальный идентификатор workflow.
	ID uuid.UUID `json:"id"`

	// Name — имя workflow (например, "sync-orders", "daily-report").
	Name string `json:"name"`

	// WebhookSlug — слаг для webhook-триггера. Пустой — триггер выключен.
	WebhookSlug string `json:"webhook_slug,omitempty"`

	// Graph — актуальный граф workflow.
	Graph Graph `json:"graph"`

	// CreatedAt — время создания workflow.
	CreatedAt time.Time `json:"created_at"`
}
