package domain

import (
	"time"

	"github.com/google/uuid"
)

// Типы триггеров run.
const (
	TriggerManual   = "manual"
	TriggerWebhook  = "webhook"
	TriggerSchedule = "schedule"
)

// Run — одна попытка выполнения графа workflow.
//
// Граф читается один раз при старте и не перечитывается в процессе:
// параллельное редактирование workflow не влияет на идущий run.
type Run struct {
	// ID — уникальный идентификатор run.
	ID uuid.UUID `json:"id"`

	// WorkflowID — ссылка на workflow, который выполняется.
	WorkflowID uuid.UUID `json:"workflow_id"`

	// Status — текущий статус выполнения.
	Status RunStatus `json:"status"`

	// StartedAt — время начала выполнения (когда статус стал running).
	StartedAt *time.Time `json:"started_at,omitempty"`

	// FinishedAt — время завершения (успешного или с ошибкой).
	FinishedAt *time.Time `json:"finished_at,omitempty"`

	// TriggerType — чем запущен run: manual, webhook, schedule.
	TriggerType string `json:"trigger_type,omitempty"`

	// TriggerPayload — полезная нагрузка триггера (тело webhook и т.п.).
	// Доступна блокам через input.trigger.
	TriggerPayload map[string]any `json:"trigger_payload,omitempty"`

	// Outputs — агрегированные результаты: node id → output узла.
	// Заполняется инкрементально и фиксируется при терминальном статусе,
	// в том числе при failed (частичные outputs).
	Outputs map[string]map[string]any `json:"outputs,omitempty"`

	// CreatedAt — время создания run.
	CreatedAt time.Time `json:"created_at"`
}

// NewRun создаёт run в статусе pending.
func NewRun(workflowID uuid.UUID, triggerType string, payload map[string]any) *Run {
	return &Run{
		ID:             uuid.New(),
		WorkflowID:     workflowID,
		Status:         RunStatusPending,
		TriggerType:    triggerType,
		TriggerPayload: payload,
		CreatedAt:      time.Now().UTC(),
	}
}

// Duration возвращает продолжительность выполнения.
// Возвращает 0, если run ещё не завершён.
func (r *Run) Duration() time.Duration {
	if r.StartedAt == nil || r.FinishedAt == nil {
		return 0
	}
	return r.FinishedAt.Sub(*r.StartedAt)
}

// IsFinished возвращает true, если run завершён.
func (r *Run) IsFinished() bool {
	return r.Status.IsTerminal()
}

// MarkRunning переводит run в статус running.
func (r *Run) MarkRunning() {
	now := time.Now().UTC()
	r.Status = RunStatusRunning
	r.StartedAt = &now
}

// MarkSucceeded переводит run в статус succeeded с полными outputs.
func (r *Run) MarkSucceeded(outputs map[string]map[string]any) {
	now := time.Now().UTC()
	r.Status = RunStatusSucceeded
	r.FinishedAt = &now
	r.Outputs = outputs
}

// MarkFailed переводит run в статус failed, сохраняя частичные outputs.
func (r *Run) MarkFailed(outputs map[string]map[string]any) {
	now := time.Now().UTC()
	r.Status = RunStatusFailed
	r.FinishedAt = &now
	r.Outputs = outputs
}
