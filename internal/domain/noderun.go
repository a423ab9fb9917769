package domain

import (
	"time"

	"github.com/google/uuid"
)

// NodeRun — запись о выполнении одного узла в рамках одного run.
//
// Создаётся лениво, непосредственно перед началом выполнения узла.
// После достижения терминального статуса не мутируется.
type NodeRun struct {
	// ID — уникальный идентификатор записи.
	ID uuid.UUID `json:"id"`

	// RunID — ссылка на родительский run.
	RunID uuid.UUID `json:"run_id"`

	// NodeID — ID узла из графа.
	NodeID string `json:"node_id"`

	// NodeType — тип узла (ключ реестра блоков).
	NodeType string `json:"node_type"`

	// Status — текущий статус узла.
	Status NodeRunStatus `json:"status"`

	// StartedAt — время начала выполнения.
	StartedAt *time.Time `json:"started_at,omitempty"`

	// FinishedAt — время завершения.
	FinishedAt *time.Time `json:"finished_at,omitempty"`

	// Input — снимок входа узла: {params, upstream, trigger}.
	Input map[string]any `json:"input,omitempty"`

	// Output — результат блока (только при succeeded).
	Output map[string]any `json:"output,omitempty"`

	// Error — структурированная ошибка (только при failed).
	Error map[string]any `json:"error,omitempty"`

	// CreatedAt — время создания записи.
	CreatedAt time.Time `json:"created_at"`
}

// NewNodeRun создаёт NodeRun в статусе running для узла, который
// начинает выполняться прямо сейчас.
func NewNodeRun(runID uuid.UUID, nodeID, nodeType string, input map[string]any) *NodeRun {
	now := time.Now().UTC()
	return &NodeRun{
		ID:        uuid.New(),
		RunID:     runID,
		NodeID:    nodeID,
		NodeType:  nodeType,
		Status:    NodeRunStatusRunning,
		StartedAt: &now,
		Input:     input,
		CreatedAt: now,
	}
}

// Duration возвращает продолжительность выполнения узла.
func (n *NodeRun) Duration() time.Duration {
	if n.StartedAt == nil || n.FinishedAt == nil {
		return 0
	}
	return n.FinishedAt.Sub(*n.StartedAt)
}

// MarkSucceeded переводит узел в статус succeeded с результатом.
func (n *NodeRun) MarkSucceeded(output map[string]any) {
	now := time.Now().UTC()
	n.Status = NodeRunStatusSucceeded
	n.FinishedAt = &now
	n.Output = output
}

// MarkFailed переводит узел в статус failed с деталями ошибки.
func (n *NodeRun) MarkFailed(errDetail map[string]any) {
	now := time.Now().UTC()
	n.Status = NodeRunStatusFailed
	n.FinishedAt = &now
	n.Error = errDetail
}
