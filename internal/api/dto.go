package api

import (
	"time"

	"github.com/google/uuid"
	"github.com/shaiso/Cascade/internal/domain"
)

// Workflow DTOs

// CreateWorkflowRequest — запрос на создание workflow.
type CreateWorkflowRequest struct {
	Name        string       `json:"name"`
	WebhookSlug string       `json:"webhook_slug,omitempty"`
	Graph       domain.Graph `json:"graph"`
}

// UpdateWorkflowRequest — запрос на обновление workflow.
// Отсутствующие поля не меняются.
type UpdateWorkflowRequest struct {
	Name        *string       `json:"name,omitempty"`
	WebhookSlug *string       `json:"webhook_slug,omitempty"`
	Graph       *domain.Graph `json:"graph,omitempty"`
}

// WorkflowResponse — ответ с workflow.
type WorkflowResponse struct {
	ID          uuid.UUID    `json:"id"`
	Name        string       `json:"name"`
	WebhookSlug string       `json:"webhook_slug,omitempty"`
	Graph       domain.Graph `json:"graph"`
	CreatedAt   time.Time    `json:"created_at"`
}

// WorkflowFromDomain конвертирует domain.Workflow в WorkflowResponse.
func WorkflowFromDomain(wf domain.Workflow) WorkflowResponse {
	return WorkflowResponse{
		ID:          wf.ID,
		Name:        wf.Name,
		WebhookSlug: wf.WebhookSlug,
		Graph:       wf.Graph,
		CreatedAt:   wf.CreatedAt,
	}
}

// Graph validation DTOs

// ValidateGraphRequest — запрос на валидацию графа.
type ValidateGraphRequest struct {
	Graph domain.Graph `json:"graph"`
}

// ValidateGraphResponse — результат валидации.
type ValidateGraphResponse struct {
	Valid bool     `json:"valid"`
	Order []string `json:"order,omitempty"`
	Error string   `json:"error,omitempty"`
}

// Run DTOs

// StartRunRequest — запрос на ручной запуск run.
type StartRunRequest struct {
	Payload map[string]any `json:"payload,omitempty"`
}

// RunResponse — ответ с run.
type RunResponse struct {
	ID             uuid.UUID                 `json:"id"`
	WorkflowID     uuid.UUID                 `json:"workflow_id"`
	Status         string                    `json:"status"`
	TriggerType    string                    `json:"trigger_type,omitempty"`
	TriggerPayload map[string]any            `json:"trigger_payload,omitempty"`
	Outputs        map[string]map[string]any `json:"outputs,omitempty"`
	StartedAt      *time.Time                `json:"started_at,omitempty"`
	FinishedAt     *time.Time                `json:"finished_at,omitempty"`
	CreatedAt      time.Time                 `json:"created_at"`
}

// RunFromDomain конвертирует domain.Run в RunResponse.
func RunFromDomain(r domain.Run) RunResponse {
	return RunResponse{
		ID:             r.ID,
		WorkflowID:     r.WorkflowID,
		Status:         string(r.Status),
		TriggerType:    r.TriggerType,
		TriggerPayload: r.TriggerPayload,
		Outputs:        r.Outputs,
		StartedAt:      r.StartedAt,
		FinishedAt:     r.FinishedAt,
		CreatedAt:      r.CreatedAt,
	}
}

// NodeRunResponse — ответ с записью NodeRun.
type NodeRunResponse struct {
	ID         uuid.UUID      `json:"id"`
	NodeID     string         `json:"node_id"`
	NodeType   string         `json:"node_type"`
	Status     string         `json:"status"`
	Input      map[string]any `json:"input,omitempty"`
	Output     map[string]any `json:"output,omitempty"`
	Error      map[string]any `json:"error,omitempty"`
	StartedAt  *time.Time     `json:"started_at,omitempty"`
	FinishedAt *time.Time     `json:"finished_at,omitempty"`
}

// NodeRunFromDomain конвертирует domain.NodeRun в NodeRunResponse.
func NodeRunFromDomain(nr domain.NodeRun) NodeRunResponse {
	return NodeRunResponse{
		ID:         nr.ID,
		NodeID:     nr.NodeID,
		NodeType:   nr.NodeType,
		Status:     string(nr.Status),
		Input:      nr.Input,
		Output:     nr.Output,
		Error:      nr.Error,
		StartedAt:  nr.StartedAt,
		FinishedAt: nr.FinishedAt,
	}
}

// RunDetailResponse — run вместе с его node runs.
type RunDetailResponse struct {
	RunResponse
	NodeRuns []NodeRunResponse `json:"node_runs"`
}

// LogEntryResponse — ответ с лог-записью run.
type LogEntryResponse struct {
	ID      uuid.UUID      `json:"id"`
	NodeID  string         `json:"node_id,omitempty"`
	TS      time.Time      `json:"ts"`
	Level   string         `json:"level"`
	Message string         `json:"message"`
	Data    map[string]any `json:"data,omitempty"`
}

// LogEntryFromDomain конвертирует domain.LogEntry в LogEntryResponse.
func LogEntryFromDomain(e domain.LogEntry) LogEntryResponse {
	return LogEntryResponse{
		ID:      e.ID,
		NodeID:  e.NodeID,
		TS:      e.TS,
		Level:   e.Level,
		Message: e.Message,
		Data:    e.Data,
	}
}

// Schedule DTOs

// CreateScheduleRequest — запрос на создание schedule.
type CreateScheduleRequest struct {
	CronExpr string `json:"cron_expr"`
	Enabled  bool   `json:"enabled"`
}

// UpdateScheduleRequest — запрос на обновление schedule.
type UpdateScheduleRequest struct {
	CronExpr *string `json:"cron_expr,omitempty"`
	Enabled  *bool   `json:"enabled,omitempty"`
}

// ScheduleResponse — ответ со schedule.
type ScheduleResponse struct {
	ID         uuid.UUID `json:"id"`
	WorkflowID uuid.UUID `json:"workflow_id"`
	CronExpr   string    `json:"cron_expr"`
	Enabled    bool      `json:"enabled"`
	CreatedAt  time.Time `json:"created_at"`
}

// ScheduleFromDomain конвертирует domain.Schedule в ScheduleResponse.
func ScheduleFromDomain(s domain.Schedule) ScheduleResponse {
	return ScheduleResponse{
		ID:         s.ID,
		WorkflowID: s.WorkflowID,
		CronExpr:   s.CronExpr,
		Enabled:    s.Enabled,
		CreatedAt:  s.CreatedAt,
	}
}

// Blocks DTOs

// BlocksResponse — список зарегистрированных типов блоков.
type BlocksResponse struct {
	Types []string `json:"types"`
}
