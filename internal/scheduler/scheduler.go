package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shaiso/Cascade/internal/domain"
)

// defaultTickInterval — период проверки расписаний.
// Гранулярность cron минутная, поэтому тика чаще 15s не нужно.
const defaultTickInterval = 15 * time.Second

// ScheduleStore — чтение включённых расписаний.
type ScheduleStore interface {
	ListEnabled(ctx context.Context) ([]domain.Schedule, error)
}

// RunStarter — запуск run по расписанию. Реализуется orchestrator'ом.
type RunStarter interface {
	StartRun(ctx context.Context, workflowID uuid.UUID, triggerType string, payload map[string]any) (*domain.Run, error)
}

// Scheduler — планировщик запусков по cron-расписаниям.
//
// Каждый тик проверяет включённые расписания и запускает run для тех,
// чьё выражение срабатывает в текущую минуту. Дедупликация в памяти:
// одно расписание срабатывает не чаще одного раза в минуту. Процесс
// один, внешняя координация не нужна.
type Scheduler struct {
	schedules ScheduleStore
	starter   RunStarter
	logger    *slog.Logger
	interval  time.Duration

	mu    sync.Mutex
	fired map[uuid.UUID]time.Time // schedule id → минута последнего срабатывания
}

// Config — конфигурация Scheduler.
type Config struct {
	Schedules ScheduleStore
	Starter   RunStarter
	Logger    *slog.Logger

	// TickInterval — период тиков (default: 15s).
	TickInterval time.Duration
}

// New создаёт новый Scheduler.
func New(cfg Config) *Scheduler {
	interval := cfg.TickInterval
	if interval <= 0 {
		interval = defaultTickInterval
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Scheduler{
		schedules: cfg.Schedules,
		starter:   cfg.Starter,
		logger:    logger,
		interval:  interval,
		fired:     make(map[uuid.UUID]time.Time),
	}
}

// Start запускает цикл тиков до отмены контекста.
func (s *Scheduler) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("scheduler started", "tick_interval", s.interval)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return
		case <-ticker.C:
			if err := s.Tick(ctx, time.Now()); err != nil {
				s.logger.Error("scheduler tick failed", "error", err)
			}
		}
	}
}

// Tick выполняет один тик планировщика.
//
// Ошибки одного расписания не блокируют обработку остальных.
func (s *Scheduler) Tick(ctx context.Context, now time.Time) error {
	minute := now.UTC().Truncate(time.Minute)

	schedules, err := s.schedules.ListEnabled(ctx)
	if err != nil {
		return fmt.Errorf("list enabled schedules: %w", err)
	}

	var started int
	for i := range schedules {
		sched := &schedules[i]

		due, err := firesAt(sched.CronExpr, minute)
		if err != nil {
			s.logger.Warn("schedule has invalid cron expression, skipping",
				"schedule_id", sched.ID,
				"cron_expr", sched.CronExpr,
				"error", err,
			)
			continue
		}
		if !due || s.alreadyFired(sched.ID, minute) {
			continue
		}

		payload := map[string]any{
			"schedule_id": sched.ID.String(),
			"fired_at":    minute.Format(time.RFC3339),
		}
		run, err := s.starter.StartRun(ctx, sched.WorkflowID, domain.TriggerSchedule, payload)
		if err != nil {
			s.logger.Error("failed to start scheduled run",
				"schedule_id", sched.ID,
				"workflow_id", sched.WorkflowID,
				"error", err,
			)
			continue
		}

		s.markFired(sched.ID, minute)
		started++

		s.logger.Info("started scheduled run",
			"run_id", run.ID,
			"schedule_id", sched.ID,
			"workflow_id", sched.WorkflowID,
		)
	}

	if started > 0 {
		s.logger.Debug("scheduler tick completed", "runs_started", started)
	}

	return nil
}

func (s *Scheduler) alreadyFired(id uuid.UUID, minute time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fired[id].Equal(minute)
}

func (s *Scheduler) markFired(id uuid.UUID, minute time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.fired[id] = minute

	// Старые отметки не нужны: чистим всё, что не текущая минута.
	for schedID, firedAt := range s.fired {
		if !firedAt.Equal(minute) {
			delete(s.fired, schedID)
		}
	}
}
