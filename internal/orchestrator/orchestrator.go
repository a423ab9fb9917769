package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/shaiso/Cascade/internal/blocks"
	"github.com/shaiso/Cascade/internal/domain"
	"github.com/shaiso/Cascade/internal/engine"
	"github.com/shaiso/Cascade/internal/mq"
	"github.com/shaiso/Cascade/internal/repo"
	"github.com/shaiso/Cascade/internal/telemetry"
)

// WorkflowStore — чтение workflows.
type WorkflowStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Workflow, error)
}

// RunStore — персистентность runs.
type RunStore interface {
	Create(ctx context.Context, run *domain.Run) error
	Update(ctx context.Context, run *domain.Run) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Run, error)
	ListPending(ctx context.Context, limit int) ([]domain.Run, error)
}

// LogReader — чтение журнала run.
type LogReader interface {
	ListByRun(ctx context.Context, runID uuid.UUID, limit, offset int) ([]domain.LogEntry, error)
}

// RunExecutor — исполнитель графа одного run.
type RunExecutor interface {
	Execute(ctx context.Context, run *domain.Run, g *engine.Graph) (domain.RunStatus, map[string]map[string]any)
}

// Orchestrator управляет жизненным циклом runs.
//
// Orchestrator отвечает за:
//   - Валидацию графа перед созданием run (невалидный граф — нет записи)
//   - Создание run в статусе pending
//   - Запуск выполнения в фоновой горутине
//   - Фиксацию статусов run (единственный писатель строки run)
//   - Публикацию событий run.created / run.finished
type Orchestrator struct {
	workflows WorkflowStore
	runs      RunStore
	logs      LogReader
	exec      RunExecutor
	registry  *blocks.Registry
	publisher *mq.Publisher

	// Активные runs (runID → cancel выполнения)
	activeRuns map[uuid.UUID]context.CancelFunc
	mu         sync.RWMutex

	// Lifecycle
	logger    *slog.Logger
	baseCtx   context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	stopped   bool
	stoppedMu sync.RWMutex
}

// Config — конфигурация Orchestrator.
type Config struct {
	// Stores
	Workflows WorkflowStore
	Runs      RunStore
	Logs      LogReader

	// Executor — исполнитель графов.
	Executor RunExecutor

	// Registry — реестр блоков для валидации типов узлов.
	Registry *blocks.Registry

	// Publisher — публикация событий runs. nil — события не публикуются.
	Publisher *mq.Publisher

	// Logger
	Logger *slog.Logger
}

// New создаёт новый Orchestrator.
func New(cfg Config) *Orchestrator {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	baseCtx, cancel := context.WithCancel(context.Background())

	return &Orchestrator{
		workflows:  cfg.Workflows,
		runs:       cfg.Runs,
		logs:       cfg.Logs,
		exec:       cfg.Executor,
		registry:   cfg.Registry,
		publisher:  cfg.Publisher,
		activeRuns: make(map[uuid.UUID]context.CancelFunc),
		logger:     logger,
		baseCtx:    baseCtx,
		cancel:     cancel,
	}
}

// ValidateGraph проверяет граф структурно и по типам блоков.
// Возвращает построенный граф или ошибку валидации (ErrInvalidGraph).
func (o *Orchestrator) ValidateGraph(g domain.Graph) (*engine.Graph, error) {
	built, err := engine.Build(g)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidGraph, err)
	}

	for _, nodeID := range built.Order() {
		node := built.Node(nodeID)
		if !o.registry.Has(node.Type) {
			return nil, fmt.Errorf("%w: node %q: %w: %s",
				ErrInvalidGraph, nodeID, blocks.ErrUnknownBlockType, node.Type)
		}
	}

	return built, nil
}

// StartRun создаёт и запускает run для workflow по ID.
//
// Валидация графа происходит до записи в БД: невалидный граф не
// оставляет следа. Успешный вызов возвращает run в статусе pending;
// выполнение продолжается в фоновой горутине.
func (o *Orchestrator) StartRun(ctx context.Context, workflowID uuid.UUID, triggerType string, payload map[string]any) (*domain.Run, error) {
	wf, err := o.workflows.GetByID(ctx, workflowID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrWorkflowNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get workflow: %w", err)
	}

	return o.StartRunFor(ctx, wf, triggerType, payload)
}

// StartRunFor создаёт и запускает run для уже загруженного workflow.
func (o *Orchestrator) StartRunFor(ctx context.Context, wf *domain.Workflow, triggerType string, payload map[string]any) (*domain.Run, error) {
	if o.IsStopped() {
		return nil, ErrOrchestratorStopped
	}

	built, err := o.ValidateGraph(wf.Graph)
	if err != nil {
		return nil, err
	}

	run := domain.NewRun(wf.ID, triggerType, payload)
	if err := o.runs.Create(ctx, run); err != nil {
		return nil, fmt.Errorf("create run: %w", err)
	}

	telemetry.RunsStarted.WithLabelValues(triggerType).Inc()

	if err := o.publisher.PublishRunCreated(ctx, mq.RunCreatedPayload{
		RunID:      run.ID,
		WorkflowID: wf.ID,
		Trigger:    triggerType,
	}); err != nil {
		o.logger.Warn("failed to publish run.created", "run_id", run.ID, "error", err)
	}

	o.logger.Info("run created",
		"run_id", run.ID,
		"workflow_id", wf.ID,
		"trigger", triggerType,
	)

	// Фоновая горутина мутирует run; вызывающему отдаётся снимок.
	snapshot := *run
	if !o.launch(run, built) {
		o.logger.Warn("orchestrator stopping, run left pending", "run_id", run.ID)
	}

	return &snapshot, nil
}

// ResumePending подхватывает runs, оставшиеся в pending после рестарта.
//
// Run остаётся pending, если процесс завершился между созданием записи
// и фиксацией running. Run с исчезнувшим workflow или невалидным
// графом переводится в failed, чтобы не подбираться бесконечно.
func (o *Orchestrator) ResumePending(ctx context.Context, limit int) (int, error) {
	pending, err := o.runs.ListPending(ctx, limit)
	if err != nil {
		return 0, fmt.Errorf("list pending runs: %w", err)
	}

	resumed := 0
	for i := range pending {
		run := pending[i]

		wf, err := o.workflows.GetByID(ctx, run.WorkflowID)
		if err != nil {
			o.failPending(ctx, &run, err)
			continue
		}

		built, err := o.ValidateGraph(wf.Graph)
		if err != nil {
			o.failPending(ctx, &run, err)
			continue
		}

		if !o.launch(&run, built) {
			break
		}
		o.logger.Info("resuming pending run", "run_id", run.ID, "workflow_id", run.WorkflowID)
		resumed++
	}

	return resumed, nil
}

// failPending фиксирует невозобновляемый pending run как failed.
func (o *Orchestrator) failPending(ctx context.Context, run *domain.Run, cause error) {
	o.logger.Warn("pending run cannot be resumed", "run_id", run.ID, "error", cause)

	run.MarkFailed(nil)
	if err := o.runs.Update(ctx, run); err != nil {
		o.logger.Error("failed to mark unresumable run failed", "run_id", run.ID, "error", err)
	}
}

// launch запускает выполнение run в фоновой горутине.
//
// Проверка stopped и wg.Add выполняются под stoppedMu: Stop выставляет
// stopped под тем же мьютексом до wg.Wait, поэтому горутина либо
// попадает в wg до Wait, либо не стартует вовсе. Возвращает false,
// если orchestrator уже останавливается; run остаётся pending и будет
// подобран через ResumePending после рестарта.
func (o *Orchestrator) launch(run *domain.Run, g *engine.Graph) bool {
	o.stoppedMu.RLock()
	if o.stopped {
		o.stoppedMu.RUnlock()
		return false
	}
	o.wg.Add(1)
	o.stoppedMu.RUnlock()

	runCtx, cancelRun := context.WithCancel(o.baseCtx)
	o.addActiveRun(run.ID, cancelRun)

	go func() {
		defer o.wg.Done()
		defer cancelRun()
		defer o.removeActiveRun(run.ID)
		o.executeRun(runCtx, run, g)
	}()
	return true
}

// executeRun выполняет run и фиксирует терминальный статус.
func (o *Orchestrator) executeRun(ctx context.Context, run *domain.Run, g *engine.Graph) {
	logger := telemetry.WithRunID(o.logger, run.ID.String())

	run.MarkRunning()
	if err := o.runs.Update(ctx, run); err != nil {
		logger.Error("failed to mark run running", "error", err)
		// Статус в БД остался pending; выполнять граф без фиксации
		// нельзя, run подберёт следующий рестарт.
		return
	}

	status, outputs := o.exec.Execute(ctx, run, g)

	switch status {
	case domain.RunStatusSucceeded:
		run.MarkSucceeded(outputs)
	default:
		run.MarkFailed(outputs)
	}

	// Терминальный статус фиксируется даже при остановке сервера.
	persistCtx := context.WithoutCancel(ctx)
	if err := o.runs.Update(persistCtx, run); err != nil {
		logger.Error("failed to persist terminal run status", "status", status, "error", err)
	}

	telemetry.ObserveRun(string(run.Status), run.Duration())

	if err := o.publisher.PublishRunFinished(persistCtx, mq.RunFinishedPayload{
		RunID:      run.ID,
		WorkflowID: run.WorkflowID,
		Status:     string(run.Status),
		DurationMs: run.Duration().Milliseconds(),
	}); err != nil {
		logger.Warn("failed to publish run.finished", "error", err)
	}

	logger.Info("run finished",
		"status", run.Status,
		"duration", run.Duration(),
		"outputs", len(run.Outputs),
	)
}

// GetRunStatus возвращает текущее состояние run.
func (o *Orchestrator) GetRunStatus(ctx context.Context, runID uuid.UUID) (*domain.Run, error) {
	run, err := o.runs.GetByID(ctx, runID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return run, nil
}

// GetLogs возвращает журнал run в хронологическом порядке.
func (o *Orchestrator) GetLogs(ctx context.Context, runID uuid.UUID, limit, offset int) ([]domain.LogEntry, error) {
	if _, err := o.GetRunStatus(ctx, runID); err != nil {
		return nil, err
	}
	entries, err := o.logs.ListByRun(ctx, runID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list logs: %w", err)
	}
	return entries, nil
}

// CancelRun отменяет выполнение активного run.
// Возвращает false, если run не активен.
func (o *Orchestrator) CancelRun(runID uuid.UUID) bool {
	o.mu.RLock()
	cancelRun, exists := o.activeRuns[runID]
	o.mu.RUnlock()

	if !exists {
		return false
	}
	cancelRun()
	return true
}

// ActiveRunsCount возвращает количество выполняющихся runs.
func (o *Orchestrator) ActiveRunsCount() int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return len(o.activeRuns)
}

// IsStopped проверяет, остановлен ли Orchestrator.
func (o *Orchestrator) IsStopped() bool {
	o.stoppedMu.RLock()
	defer o.stoppedMu.RUnlock()
	return o.stopped
}

// Wait блокируется до завершения всех активных runs.
func (o *Orchestrator) Wait() {
	o.wg.Wait()
}

// Stop останавливает Orchestrator: новые runs не принимаются,
// активные отменяются, их терминальные статусы фиксируются.
func (o *Orchestrator) Stop() {
	o.stoppedMu.Lock()
	o.stopped = true
	o.stoppedMu.Unlock()

	o.logger.Info("stopping orchestrator...")

	o.cancel()
	o.wg.Wait()

	o.logger.Info("orchestrator stopped")
}

// --- Active runs bookkeeping ---

func (o *Orchestrator) addActiveRun(runID uuid.UUID, cancelRun context.CancelFunc) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.activeRuns[runID] = cancelRun
}

func (o *Orchestrator) removeActiveRun(runID uuid.UUID) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.activeRuns, runID)
}
