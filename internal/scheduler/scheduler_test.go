package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shaiso/Cascade/internal/domain"
)

type memScheduleStore struct {
	schedules []domain.Schedule
}

func (s *memScheduleStore) ListEnabled(_ context.Context) ([]domain.Schedule, error) {
	return s.schedules, nil
}

type recordingStarter struct {
	mu      sync.Mutex
	started []startCall
}

type startCall struct {
	WorkflowID uuid.UUID
	Trigger    string
	Payload    map[string]any
}

func (s *recordingStarter) StartRun(_ context.Context, workflowID uuid.UUID, triggerType string, payload map[string]any) (*domain.Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.started = append(s.started, startCall{WorkflowID: workflowID, Trigger: triggerType, Payload: payload})
	return domain.NewRun(workflowID, triggerType, payload), nil
}

func (s *recordingStarter) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.started)
}

func TestValidateCronExpr(t *testing.T) {
	tests := []struct {
		expr    string
		wantErr bool
	}{
		{"* * * * *", false},
		{"0 9 * * 1-5", false},
		{"*/5 * * * *", false},
		{"not a cron", true},
		{"* * * *", true},
		{"", true},
	}

	for _, tt := range tests {
		err := ValidateCronExpr(tt.expr)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateCronExpr(%q): err = %v, wantErr = %v", tt.expr, err, tt.wantErr)
		}
	}
}

func TestNextFire(t *testing.T) {
	from := time.Date(2025, 6, 2, 8, 30, 0, 0, time.UTC) // понедельник

	next, err := NextFire("0 9 * * 1-5", from)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Errorf("expected %v, got %v", want, next)
	}
}

func TestTick_FiresDueSchedule(t *testing.T) {
	workflowID := uuid.New()
	store := &memScheduleStore{schedules: []domain.Schedule{
		{ID: uuid.New(), WorkflowID: workflowID, CronExpr: "* * * * *", Enabled: true},
	}}
	starter := &recordingStarter{}

	s := New(Config{Schedules: store, Starter: starter})

	now := time.Date(2025, 6, 2, 9, 0, 5, 0, time.UTC)
	if err := s.Tick(context.Background(), now); err != nil {
		t.Fatalf("tick: %v", err)
	}

	if starter.count() != 1 {
		t.Fatalf("expected 1 started run, got %d", starter.count())
	}
	call := starter.started[0]
	if call.WorkflowID != workflowID {
		t.Errorf("wrong workflow id: %s", call.WorkflowID)
	}
	if call.Trigger != domain.TriggerSchedule {
		t.Errorf("expected schedule trigger, got %s", call.Trigger)
	}
	if call.Payload["schedule_id"] != store.schedules[0].ID.String() {
		t.Errorf("payload missing schedule_id: %v", call.Payload)
	}
}

func TestTick_DeduplicatesWithinMinute(t *testing.T) {
	store := &memScheduleStore{schedules: []domain.Schedule{
		{ID: uuid.New(), WorkflowID: uuid.New(), CronExpr: "* * * * *", Enabled: true},
	}}
	starter := &recordingStarter{}

	s := New(Config{Schedules: store, Starter: starter})

	base := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	for _, offset := range []time.Duration{0, 15 * time.Second, 45 * time.Second} {
		if err := s.Tick(context.Background(), base.Add(offset)); err != nil {
			t.Fatalf("tick: %v", err)
		}
	}

	if starter.count() != 1 {
		t.Errorf("expected single run within one minute, got %d", starter.count())
	}

	// Следующая минута срабатывает снова.
	if err := s.Tick(context.Background(), base.Add(time.Minute)); err != nil {
		t.Fatalf("tick: %v", err)
	}
	if starter.count() != 2 {
		t.Errorf("expected second run in next minute, got %d", starter.count())
	}
}

func TestTick_SkipsNotDueSchedule(t *testing.T) {
	store := &memScheduleStore{schedules: []domain.Schedule{
		{ID: uuid.New(), WorkflowID: uuid.New(), CronExpr: "0 12 * * *", Enabled: true},
	}}
	starter := &recordingStarter{}

	s := New(Config{Schedules: store, Starter: starter})

	now := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	if err := s.Tick(context.Background(), now); err != nil {
		t.Fatalf("tick: %v", err)
	}

	if starter.count() != 0 {
		t.Errorf("expected no runs, got %d", starter.count())
	}
}

func TestTick_InvalidCronDoesNotBlockOthers(t *testing.T) {
	okID := uuid.New()
	store := &memScheduleStore{schedules: []domain.Schedule{
		{ID: uuid.New(), WorkflowID: uuid.New(), CronExpr: "broken", Enabled: true},
		{ID: uuid.New(), WorkflowID: okID, CronExpr: "* * * * *", Enabled: true},
	}}
	starter := &recordingStarter{}

	s := New(Config{Schedules: store, Starter: starter})

	now := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	if err := s.Tick(context.Background(), now); err != nil {
		t.Fatalf("tick: %v", err)
	}

	if starter.count() != 1 {
		t.Fatalf("expected 1 run, got %d", starter.count())
	}
	if starter.started[0].WorkflowID != okID {
		t.Errorf("wrong workflow started: %s", starter.started[0].WorkflowID)
	}
}
