package api

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shaiso/Cascade/internal/blocks"
	"github.com/shaiso/Cascade/internal/domain"
	"github.com/shaiso/Cascade/internal/engine"
	"github.com/shaiso/Cascade/internal/repo"
)

// WorkflowStore — персистентность workflows.
type WorkflowStore interface {
	Create(ctx context.Context, wf *domain.Workflow) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Workflow, error)
	GetByWebhookSlug(ctx context.Context, slug string) (*domain.Workflow, error)
	List(ctx context.Context) ([]domain.Workflow, error)
	Update(ctx context.Context, wf *domain.Workflow) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// RunStore — чтение runs для списков.
type RunStore interface {
	List(ctx context.Context, filter repo.RunFilter) ([]domain.Run, error)
}

// NodeRunStore — чтение записей NodeRun.
type NodeRunStore interface {
	ListByRun(ctx context.Context, runID uuid.UUID) ([]domain.NodeRun, error)
}

// ScheduleStore — персистентность schedules.
type ScheduleStore interface {
	Create(ctx context.Context, s *domain.Schedule) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Schedule, error)
	List(ctx context.Context, workflowID *uuid.UUID) ([]domain.Schedule, error)
	Update(ctx context.Context, s *domain.Schedule) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// RunService — операции orchestrator'а, нужные API.
type RunService interface {
	StartRunFor(ctx context.Context, wf *domain.Workflow, triggerType string, payload map[string]any) (*domain.Run, error)
	GetRunStatus(ctx context.Context, runID uuid.UUID) (*domain.Run, error)
	GetLogs(ctx context.Context, runID uuid.UUID, limit, offset int) ([]domain.LogEntry, error)
	CancelRun(runID uuid.UUID) bool
	ValidateGraph(g domain.Graph) (*engine.Graph, error)
}

// Handler — главный обработчик API с зависимостями.
type Handler struct {
	workflows WorkflowStore
	runs      RunStore
	nodeRuns  NodeRunStore
	schedules ScheduleStore
	orch      RunService
	registry  *blocks.Registry
	logger    *slog.Logger
}

// Config — конфигурация для создания Handler.
type Config struct {
	Workflows WorkflowStore
	Runs      RunStore
	NodeRuns  NodeRunStore
	Schedules ScheduleStore
	Orch      RunService
	Registry  *blocks.Registry
	Logger    *slog.Logger
}

// NewHandler создаёт новый Handler.
func NewHandler(cfg Config) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Handler{
		workflows: cfg.Workflows,
		runs:      cfg.Runs,
		nodeRuns:  cfg.NodeRuns,
		schedules: cfg.Schedules,
		orch:      cfg.Orch,
		registry:  cfg.Registry,
		logger:    logger,
	}
}
