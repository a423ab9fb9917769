package orchestrator

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shaiso/Cascade/internal/blocks"
	"github.com/shaiso/Cascade/internal/domain"
	"github.com/shaiso/Cascade/internal/engine"
	"github.com/shaiso/Cascade/internal/repo"
)

// --- Fakes ---

type memWorkflowStore struct {
	mu  sync.Mutex
	byID map[uuid.UUID]*domain.Workflow
}

func (s *memWorkflowStore) GetByID(_ context.Context, id uuid.UUID) (*domain.Workflow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	wf, ok := s.byID[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	copied := *wf
	return &copied, nil
}

type memRunStore struct {
	mu   sync.Mutex
	runs map[uuid.UUID]domain.Run

	// История статусов каждого run в порядке записи.
	statusLog []domain.RunStatus
}

func newMemRunStore() *memRunStore {
	return &memRunStore{runs: make(map[uuid.UUID]domain.Run)}
}

func (s *memRunStore) Create(_ context.Context, run *domain.Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[run.ID] = *run
	s.statusLog = append(s.statusLog, run.Status)
	return nil
}

func (s *memRunStore) Update(_ context.Context, run *domain.Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.runs[run.ID]; !ok {
		return repo.ErrNotFound
	}
	s.runs[run.ID] = *run
	s.statusLog = append(s.statusLog, run.Status)
	return nil
}

func (s *memRunStore) GetByID(_ context.Context, id uuid.UUID) (*domain.Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	run, ok := s.runs[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return &run, nil
}

func (s *memRunStore) ListPending(_ context.Context, limit int) ([]domain.Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Run
	for _, run := range s.runs {
		if run.Status == domain.RunStatusPending {
			out = append(out, run)
			if limit > 0 && len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (s *memRunStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.runs)
}

func (s *memRunStore) statuses() []domain.RunStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.RunStatus(nil), s.statusLog...)
}

type memLogReader struct {
	entries []domain.LogEntry
}

func (s *memLogReader) ListByRun(_ context.Context, runID uuid.UUID, _, _ int) ([]domain.LogEntry, error) {
	var out []domain.LogEntry
	for _, e := range s.entries {
		if e.RunID == runID {
			out = append(out, e)
		}
	}
	return out, nil
}

// fakeExecutor возвращает заранее заданный исход.
type fakeExecutor struct {
	status  domain.RunStatus
	outputs map[string]map[string]any

	mu          sync.Mutex
	seenStatus  domain.RunStatus
	invocations int
}

func (e *fakeExecutor) Execute(_ context.Context, run *domain.Run, _ *engine.Graph) (domain.RunStatus, map[string]map[string]any) {
	e.mu.Lock()
	e.seenStatus = run.Status
	e.invocations++
	e.mu.Unlock()
	return e.status, e.outputs
}

// --- Helpers ---

type echoBlock struct{}

func (b *echoBlock) Type() string { return "test.echo" }

func (b *echoBlock) Run(_ context.Context, in *blocks.Input, _ *blocks.RunContext) (map[string]any, error) {
	return in.Params, nil
}

func validGraph() domain.Graph {
	return domain.Graph{
		Nodes: []domain.Node{
			{ID: "A", Type: "test.echo", Params: map[string]any{"x": 1}},
			{ID: "B", Type: "test.echo"},
		},
		Edges: []domain.Edge{{ID: "e1", From: "A", To: "B"}},
	}
}

func newOrchestrator(t *testing.T, exec RunExecutor) (*Orchestrator, *memWorkflowStore, *memRunStore) {
	t.Helper()

	registry := blocks.NewRegistry()
	if err := registry.Register(&echoBlock{}); err != nil {
		t.Fatalf("register: %v", err)
	}

	workflows := &memWorkflowStore{byID: make(map[uuid.UUID]*domain.Workflow)}
	runs := newMemRunStore()

	o := New(Config{
		Workflows: workflows,
		Runs:      runs,
		Logs:      &memLogReader{},
		Executor:  exec,
		Registry:  registry,
	})
	return o, workflows, runs
}

func addWorkflow(ws *memWorkflowStore, g domain.Graph) *domain.Workflow {
	wf := &domain.Workflow{
		ID:        uuid.New(),
		Name:      "test-workflow",
		Graph:     g,
		CreatedAt: time.Now().UTC(),
	}
	ws.mu.Lock()
	ws.byID[wf.ID] = wf
	ws.mu.Unlock()
	return wf
}

// --- Tests ---

func TestStartRun_Success(t *testing.T) {
	exec := &fakeExecutor{
		status:  domain.RunStatusSucceeded,
		outputs: map[string]map[string]any{"A": {"x": 1}, "B": {}},
	}
	o, workflows, runs := newOrchestrator(t, exec)
	wf := addWorkflow(workflows, validGraph())

	run, err := o.StartRun(context.Background(), wf.ID, domain.TriggerManual, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if run.Status != domain.RunStatusPending {
		t.Errorf("expected pending at creation, got %s", run.Status)
	}

	o.Wait()

	final, err := o.GetRunStatus(context.Background(), run.ID)
	if err != nil {
		t.Fatalf("get run status: %v", err)
	}
	if final.Status != domain.RunStatusSucceeded {
		t.Errorf("expected succeeded, got %s", final.Status)
	}
	if !reflect.DeepEqual(final.Outputs, exec.outputs) {
		t.Errorf("outputs not persisted: %v", final.Outputs)
	}
	if final.StartedAt == nil || final.FinishedAt == nil {
		t.Error("timestamps not set")
	}

	// pending → running → succeeded, без промежуточных состояний.
	want := []domain.RunStatus{
		domain.RunStatusPending,
		domain.RunStatusRunning,
		domain.RunStatusSucceeded,
	}
	if !reflect.DeepEqual(runs.statuses(), want) {
		t.Errorf("unexpected status sequence: %v", runs.statuses())
	}

	// Executor вызван после перевода run в running.
	if exec.seenStatus != domain.RunStatusRunning {
		t.Errorf("executor saw status %s, want running", exec.seenStatus)
	}
}

func TestStartRun_FailurePersistsPartialOutputs(t *testing.T) {
	exec := &fakeExecutor{
		status:  domain.RunStatusFailed,
		outputs: map[string]map[string]any{"A": {"x": 1}},
	}
	o, workflows, _ := newOrchestrator(t, exec)
	wf := addWorkflow(workflows, validGraph())

	run, err := o.StartRun(context.Background(), wf.ID, domain.TriggerWebhook, map[string]any{"k": "v"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	o.Wait()

	final, _ := o.GetRunStatus(context.Background(), run.ID)
	if final.Status != domain.RunStatusFailed {
		t.Errorf("expected failed, got %s", final.Status)
	}
	if !reflect.DeepEqual(final.Outputs, exec.outputs) {
		t.Errorf("partial outputs not persisted: %v", final.Outputs)
	}
}

func TestStartRun_InvalidGraphLeavesNoTrace(t *testing.T) {
	exec := &fakeExecutor{status: domain.RunStatusSucceeded}
	o, workflows, runs := newOrchestrator(t, exec)

	// Цикл A → B → A.
	wf := addWorkflow(workflows, domain.Graph{
		Nodes: []domain.Node{
			{ID: "A", Type: "test.echo"},
			{ID: "B", Type: "test.echo"},
		},
		Edges: []domain.Edge{
			{ID: "e1", From: "A", To: "B"},
			{ID: "e2", From: "B", To: "A"},
		},
	})

	_, err := o.StartRun(context.Background(), wf.ID, domain.TriggerManual, nil)
	if !errors.Is(err, ErrInvalidGraph) {
		t.Fatalf("expected ErrInvalidGraph, got %v", err)
	}
	if !errors.Is(err, engine.ErrCycle) {
		t.Errorf("expected ErrCycle in chain, got %v", err)
	}
	if runs.count() != 0 {
		t.Errorf("invalid graph must not create runs, got %d", runs.count())
	}
	if exec.invocations != 0 {
		t.Error("executor must not be invoked")
	}
}

func TestStartRun_UnknownBlockType(t *testing.T) {
	exec := &fakeExecutor{status: domain.RunStatusSucceeded}
	o, workflows, runs := newOrchestrator(t, exec)

	wf := addWorkflow(workflows, domain.Graph{
		Nodes: []domain.Node{{ID: "A", Type: "no.such.block"}},
	})

	_, err := o.StartRun(context.Background(), wf.ID, domain.TriggerManual, nil)
	if !errors.Is(err, ErrInvalidGraph) {
		t.Fatalf("expected ErrInvalidGraph, got %v", err)
	}
	if !errors.Is(err, blocks.ErrUnknownBlockType) {
		t.Errorf("expected ErrUnknownBlockType in chain, got %v", err)
	}
	if runs.count() != 0 {
		t.Errorf("expected no runs, got %d", runs.count())
	}
}

func TestStartRun_WorkflowNotFound(t *testing.T) {
	o, _, _ := newOrchestrator(t, &fakeExecutor{})

	_, err := o.StartRun(context.Background(), uuid.New(), domain.TriggerManual, nil)
	if !errors.Is(err, ErrWorkflowNotFound) {
		t.Fatalf("expected ErrWorkflowNotFound, got %v", err)
	}
}

func TestGetRunStatus_NotFound(t *testing.T) {
	o, _, _ := newOrchestrator(t, &fakeExecutor{})

	_, err := o.GetRunStatus(context.Background(), uuid.New())
	if !errors.Is(err, ErrRunNotFound) {
		t.Fatalf("expected ErrRunNotFound, got %v", err)
	}
}

func TestGetLogs_RunNotFound(t *testing.T) {
	o, _, _ := newOrchestrator(t, &fakeExecutor{})

	_, err := o.GetLogs(context.Background(), uuid.New(), 100, 0)
	if !errors.Is(err, ErrRunNotFound) {
		t.Fatalf("expected ErrRunNotFound, got %v", err)
	}
}

func TestStop_RejectsNewRuns(t *testing.T) {
	o, workflows, _ := newOrchestrator(t, &fakeExecutor{status: domain.RunStatusSucceeded})
	wf := addWorkflow(workflows, validGraph())

	o.Stop()

	_, err := o.StartRun(context.Background(), wf.ID, domain.TriggerManual, nil)
	if !errors.Is(err, ErrOrchestratorStopped) {
		t.Fatalf("expected ErrOrchestratorStopped, got %v", err)
	}
}

func TestCancelRun_Inactive(t *testing.T) {
	o, _, _ := newOrchestrator(t, &fakeExecutor{})

	if o.CancelRun(uuid.New()) {
		t.Error("expected false for inactive run")
	}
}

func TestActiveRunsCount_DrainsToZero(t *testing.T) {
	exec := &fakeExecutor{status: domain.RunStatusSucceeded}
	o, workflows, _ := newOrchestrator(t, exec)
	wf := addWorkflow(workflows, validGraph())

	if _, err := o.StartRun(context.Background(), wf.ID, domain.TriggerManual, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	o.Wait()

	if got := o.ActiveRunsCount(); got != 0 {
		t.Errorf("expected 0 active runs after wait, got %d", got)
	}
}

func TestResumePending_ExecutesStuckRuns(t *testing.T) {
	exec := &fakeExecutor{status: domain.RunStatusSucceeded}
	o, workflows, runs := newOrchestrator(t, exec)
	wf := addWorkflow(workflows, validGraph())

	// Run застрял в pending: запись есть, выполнение не стартовало.
	stuck := domain.NewRun(wf.ID, domain.TriggerManual, nil)
	if err := runs.Create(context.Background(), stuck); err != nil {
		t.Fatalf("create run: %v", err)
	}

	resumed, err := o.ResumePending(context.Background(), 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resumed != 1 {
		t.Fatalf("expected 1 resumed run, got %d", resumed)
	}

	o.Wait()

	final, err := o.GetRunStatus(context.Background(), stuck.ID)
	if err != nil {
		t.Fatalf("get run status: %v", err)
	}
	if final.Status != domain.RunStatusSucceeded {
		t.Errorf("expected succeeded, got %s", final.Status)
	}
}

func TestResumePending_OrphanedRunMarkedFailed(t *testing.T) {
	exec := &fakeExecutor{status: domain.RunStatusSucceeded}
	o, _, runs := newOrchestrator(t, exec)

	// Workflow удалён, run остался.
	orphan := domain.NewRun(uuid.New(), domain.TriggerManual, nil)
	if err := runs.Create(context.Background(), orphan); err != nil {
		t.Fatalf("create run: %v", err)
	}

	resumed, err := o.ResumePending(context.Background(), 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resumed != 0 {
		t.Fatalf("expected 0 resumed runs, got %d", resumed)
	}

	final, err := o.GetRunStatus(context.Background(), orphan.ID)
	if err != nil {
		t.Fatalf("get run status: %v", err)
	}
	if final.Status != domain.RunStatusFailed {
		t.Errorf("expected failed, got %s", final.Status)
	}
	if exec.invocations != 0 {
		t.Errorf("executor must not run for orphaned run, got %d invocations", exec.invocations)
	}
}

func TestLaunch_AfterStopLeavesRunPending(t *testing.T) {
	exec := &fakeExecutor{status: domain.RunStatusSucceeded}
	o, workflows, runs := newOrchestrator(t, exec)
	wf := addWorkflow(workflows, validGraph())

	run := domain.NewRun(wf.ID, domain.TriggerManual, nil)
	if err := runs.Create(context.Background(), run); err != nil {
		t.Fatalf("create run: %v", err)
	}
	built, err := o.ValidateGraph(wf.Graph)
	if err != nil {
		t.Fatalf("validate graph: %v", err)
	}

	// Остановка выигрывает гонку с запуском: горутина не стартует,
	// run остаётся pending для ResumePending после рестарта.
	o.Stop()

	if o.launch(run, built) {
		t.Fatal("expected launch to refuse after stop")
	}
	if exec.invocations != 0 {
		t.Errorf("executor must not run after stop, got %d invocations", exec.invocations)
	}

	final, err := o.GetRunStatus(context.Background(), run.ID)
	if err != nil {
		t.Fatalf("get run status: %v", err)
	}
	if final.Status != domain.RunStatusPending {
		t.Errorf("expected pending, got %s", final.Status)
	}
}
