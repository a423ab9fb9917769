package executor

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shaiso/Cascade/internal/blocks"
	"github.com/shaiso/Cascade/internal/domain"
	"github.com/shaiso/Cascade/internal/engine"
)

// --- In-memory stores ---

type memNodeRunStore struct {
	mu      sync.Mutex
	records []domain.NodeRun
}

func (s *memNodeRunStore) Create(_ context.Context, nr *domain.NodeRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, *nr)
	return nil
}

func (s *memNodeRunStore) Update(_ context.Context, nr *domain.NodeRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.records {
		if s.records[i].ID == nr.ID {
			s.records[i] = *nr
			return nil
		}
	}
	return errors.New("node run not found")
}

func (s *memNodeRunStore) byNodeID(nodeID string) (domain.NodeRun, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.records {
		if s.records[i].NodeID == nodeID {
			return s.records[i], true
		}
	}
	return domain.NodeRun{}, false
}

type memLogStore struct {
	mu      sync.Mutex
	entries []domain.LogEntry
}

func (s *memLogStore) Append(_ context.Context, entry *domain.LogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, *entry)
	return nil
}

func (s *memLogStore) messages() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	msgs := make([]string, 0, len(s.entries))
	for _, e := range s.entries {
		msgs = append(msgs, e.Message)
	}
	return msgs
}

// --- Test blocks ---

// emitBlock возвращает свои params как output и запоминает upstream.
type emitBlock struct {
	mu       sync.Mutex
	upstream map[string]map[string]map[string]any // node id → upstream
}

func (b *emitBlock) Type() string { return "test.emit" }

func (b *emitBlock) Run(_ context.Context, in *blocks.Input, _ *blocks.RunContext) (map[string]any, error) {
	b.mu.Lock()
	if b.upstream == nil {
		b.upstream = make(map[string]map[string]map[string]any)
	}
	b.upstream[in.NodeID] = in.Upstream
	b.mu.Unlock()
	return in.Params, nil
}

// failBlock всегда падает.
type failBlock struct{}

func (b *failBlock) Type() string { return "test.fail" }

func (b *failBlock) Run(_ context.Context, _ *blocks.Input, _ *blocks.RunContext) (map[string]any, error) {
	return nil, errors.New("boom")
}

// --- Helpers ---

func testExecutor(t *testing.T) (*Executor, *emitBlock, *memNodeRunStore, *memLogStore) {
	t.Helper()

	emit := &emitBlock{}
	registry := blocks.NewRegistry()
	for _, b := range []blocks.Block{emit, &failBlock{}} {
		if err := registry.Register(b); err != nil {
			t.Fatalf("register: %v", err)
		}
	}

	nodeRuns := &memNodeRunStore{}
	logs := &memLogStore{}

	e := New(Config{
		Registry: registry,
		NodeRuns: nodeRuns,
		Logs:     logs,
	})
	return e, emit, nodeRuns, logs
}

func buildGraph(t *testing.T, g domain.Graph) *engine.Graph {
	t.Helper()
	built, err := engine.Build(g)
	if err != nil {
		t.Fatalf("build graph: %v", err)
	}
	return built
}

func newRun(trigger map[string]any) *domain.Run {
	return &domain.Run{
		ID:             uuid.New(),
		WorkflowID:     uuid.New(),
		Status:         domain.RunStatusRunning,
		TriggerType:    domain.TriggerManual,
		TriggerPayload: trigger,
	}
}

// --- Tests ---

func TestExecute_ChainSuccess(t *testing.T) {
	e, emit, nodeRuns, _ := testExecutor(t)

	g := buildGraph(t, domain.Graph{
		Nodes: []domain.Node{
			{ID: "A", Type: "test.emit", Params: map[string]any{"x": 1}},
			{ID: "B", Type: "test.emit", Params: map[string]any{"y": 2}},
		},
		Edges: []domain.Edge{{ID: "e1", From: "A", To: "B"}},
	})

	status, outputs := e.Execute(context.Background(), newRun(nil), g)

	if status != domain.RunStatusSucceeded {
		t.Fatalf("expected succeeded, got %s", status)
	}
	want := map[string]map[string]any{
		"A": {"x": 1},
		"B": {"y": 2},
	}
	if !reflect.DeepEqual(outputs, want) {
		t.Errorf("outputs mismatch: %v", outputs)
	}

	// B видит только output A.
	if !reflect.DeepEqual(emit.upstream["B"], map[string]map[string]any{"A": {"x": 1}}) {
		t.Errorf("unexpected upstream of B: %v", emit.upstream["B"])
	}
	if len(emit.upstream["A"]) != 0 {
		t.Errorf("expected empty upstream of A, got %v", emit.upstream["A"])
	}

	for _, nodeID := range []string{"A", "B"} {
		nr, ok := nodeRuns.byNodeID(nodeID)
		if !ok {
			t.Fatalf("no node run for %s", nodeID)
		}
		if nr.Status != domain.NodeRunStatusSucceeded {
			t.Errorf("node %s: expected succeeded, got %s", nodeID, nr.Status)
		}
		if nr.FinishedAt == nil {
			t.Errorf("node %s: finished_at not set", nodeID)
		}
	}
}

func TestExecute_FailFastPreservesPartialOutputs(t *testing.T) {
	e, _, nodeRuns, logs := testExecutor(t)

	g := buildGraph(t, domain.Graph{
		Nodes: []domain.Node{
			{ID: "A", Type: "test.emit", Params: map[string]any{"x": 1}},
			{ID: "B", Type: "test.fail"},
			{ID: "C", Type: "test.emit"},
		},
		Edges: []domain.Edge{
			{ID: "e1", From: "A", To: "B"},
			{ID: "e2", From: "B", To: "C"},
		},
	})

	status, outputs := e.Execute(context.Background(), newRun(nil), g)

	if status != domain.RunStatusFailed {
		t.Fatalf("expected failed, got %s", status)
	}
	if !reflect.DeepEqual(outputs, map[string]map[string]any{"A": {"x": 1}}) {
		t.Errorf("expected partial outputs of A only, got %v", outputs)
	}

	nrA, _ := nodeRuns.byNodeID("A")
	if nrA.Status != domain.NodeRunStatusSucceeded {
		t.Errorf("node A: expected succeeded, got %s", nrA.Status)
	}

	nrB, ok := nodeRuns.byNodeID("B")
	if !ok {
		t.Fatal("no node run for B")
	}
	if nrB.Status != domain.NodeRunStatusFailed {
		t.Errorf("node B: expected failed, got %s", nrB.Status)
	}
	if nrB.Error["message"] != "boom" || nrB.Error["kind"] != "block_error" {
		t.Errorf("unexpected error detail: %v", nrB.Error)
	}

	// До C выполнение не дошло.
	if _, ok := nodeRuns.byNodeID("C"); ok {
		t.Error("unexpected node run for C")
	}

	// Ошибка узла попала в журнал run.
	var failLogged bool
	for _, msg := range logs.messages() {
		if msg == "node failed" {
			failLogged = true
		}
	}
	if !failLogged {
		t.Error("node failure not logged")
	}
}

func TestExecute_DiamondUpstreamIsDirectParentsOnly(t *testing.T) {
	e, emit, _, _ := testExecutor(t)

	g := buildGraph(t, domain.Graph{
		Nodes: []domain.Node{
			{ID: "A", Type: "test.emit", Params: map[string]any{"a": 1}},
			{ID: "B", Type: "test.emit", Params: map[string]any{"b": 2}},
			{ID: "C", Type: "test.emit", Params: map[string]any{"c": 3}},
			{ID: "D", Type: "test.emit", Params: map[string]any{"d": 4}},
		},
		Edges: []domain.Edge{
			{ID: "e1", From: "A", To: "B"},
			{ID: "e2", From: "A", To: "C"},
			{ID: "e3", From: "B", To: "D"},
			{ID: "e4", From: "C", To: "D"},
		},
	})

	status, outputs := e.Execute(context.Background(), newRun(nil), g)

	if status != domain.RunStatusSucceeded {
		t.Fatalf("expected succeeded, got %s", status)
	}
	if len(outputs) != 4 {
		t.Fatalf("expected 4 outputs, got %d", len(outputs))
	}

	// D видит ровно B и C; A (транзитивный предок) не попадает.
	want := map[string]map[string]any{
		"B": {"b": 2},
		"C": {"c": 3},
	}
	if !reflect.DeepEqual(emit.upstream["D"], want) {
		t.Errorf("unexpected upstream of D: %v", emit.upstream["D"])
	}
}

func TestExecute_TriggerPayloadReachesBlocks(t *testing.T) {
	e, _, nodeRuns, _ := testExecutor(t)

	g := buildGraph(t, domain.Graph{
		Nodes: []domain.Node{{ID: "A", Type: "test.emit"}},
	})

	trigger := map[string]any{"event": "hook"}
	status, _ := e.Execute(context.Background(), newRun(trigger), g)
	if status != domain.RunStatusSucceeded {
		t.Fatalf("expected succeeded, got %s", status)
	}

	nr, _ := nodeRuns.byNodeID("A")
	snapTrigger, ok := nr.Input["trigger"].(map[string]any)
	if !ok || snapTrigger["event"] != "hook" {
		t.Errorf("trigger not captured in node input: %v", nr.Input)
	}
}

func TestExecute_UnknownBlockType(t *testing.T) {
	e, _, nodeRuns, _ := testExecutor(t)

	g := buildGraph(t, domain.Graph{
		Nodes: []domain.Node{{ID: "A", Type: "no.such.block"}},
	})

	status, outputs := e.Execute(context.Background(), newRun(nil), g)
	if status != domain.RunStatusFailed {
		t.Fatalf("expected failed, got %s", status)
	}
	if len(outputs) != 0 {
		t.Errorf("expected no outputs, got %v", outputs)
	}

	nr, ok := nodeRuns.byNodeID("A")
	if !ok {
		t.Fatal("no node run for A")
	}
	if nr.Error["kind"] != "unknown_block_type" {
		t.Errorf("unexpected error kind: %v", nr.Error)
	}
}

func TestExecute_CancelledContext(t *testing.T) {
	e, _, nodeRuns, _ := testExecutor(t)

	g := buildGraph(t, domain.Graph{
		Nodes: []domain.Node{{ID: "A", Type: "test.emit"}},
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	status, outputs := e.Execute(ctx, newRun(nil), g)
	if status != domain.RunStatusFailed {
		t.Fatalf("expected failed, got %s", status)
	}
	if len(outputs) != 0 {
		t.Errorf("expected no outputs, got %v", outputs)
	}
	if _, ok := nodeRuns.byNodeID("A"); ok {
		t.Error("cancelled run should not start nodes")
	}
}

func TestExecute_RunLifecycleLogged(t *testing.T) {
	e, _, _, logs := testExecutor(t)

	g := buildGraph(t, domain.Graph{
		Nodes: []domain.Node{{ID: "A", Type: "test.emit"}},
	})

	if status, _ := e.Execute(context.Background(), newRun(nil), g); status != domain.RunStatusSucceeded {
		t.Fatalf("expected succeeded, got %s", status)
	}

	want := []string{"run started", "node started", "node succeeded", "run succeeded"}
	if !reflect.DeepEqual(logs.messages(), want) {
		t.Errorf("unexpected log sequence: %v", logs.messages())
	}
}
