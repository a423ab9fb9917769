package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shaiso/Cascade/internal/domain"
)

// ScheduleRepo — репозиторий для работы с schedules.
type ScheduleRepo struct {
	pool *pgxpool.Pool
}

// NewScheduleRepo создаёт новый ScheduleRepo.
func NewScheduleRepo(pool *pgxpool.Pool) *ScheduleRepo {
	return &ScheduleRepo{pool: pool}
}

// Create создаёт новое расписание.
func (r *ScheduleRepo) Create(ctx context.Context, s *domain.Schedule) error {
	query := `
		INSERT INTO schedules (id, workflow_id, cron_expr, enabled, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.pool.Exec(ctx, query,
		s.ID,
		s.WorkflowID,
		s.CronExpr,
		s.Enabled,
		s.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert schedule: %w", err)
	}
	return nil
}

// GetByID возвращает расписание по ID.
func (r *ScheduleRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Schedule, error) {
	query := `
		SELECT id, workflow_id, cron_expr, enabled, created_at
		FROM schedules
		WHERE id = $1
	`
	var s domain.Schedule
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&s.ID,
		&s.WorkflowID,
		&s.CronExpr,
		&s.Enabled,
		&s.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get schedule by id: %w", err)
	}
	return &s, nil
}

// List возвращает расписания, опционально по одному workflow.
func (r *ScheduleRepo) List(ctx context.Context, workflowID *uuid.UUID) ([]domain.Schedule, error) {
	query := `
		SELECT id, workflow_id, cron_expr, enabled, created_at
		FROM schedules
		WHERE ($1::uuid IS NULL OR workflow_id = $1)
		ORDER BY created_at DESC
	`
	rows, err := r.pool.Query(ctx, query, nullUUID(workflowID))
	if err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}
	defer rows.Close()

	return collectSchedules(rows)
}

// ListEnabled возвращает все включённые расписания.
func (r *ScheduleRepo) ListEnabled(ctx context.Context) ([]domain.Schedule, error) {
	query := `
		SELECT id, workflow_id, cron_expr, enabled, created_at
		FROM schedules
		WHERE enabled = true
		ORDER BY created_at ASC
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list enabled schedules: %w", err)
	}
	defer rows.Close()

	return collectSchedules(rows)
}

// Update обновляет cron-выражение и флаг enabled.
func (r *ScheduleRepo) Update(ctx context.Context, s *domain.Schedule) error {
	query := `
		UPDATE schedules
		SET cron_expr = $2, enabled = $3
		WHERE id = $1
	`
	result, err := r.pool.Exec(ctx, query, s.ID, s.CronExpr, s.Enabled)
	if err != nil {
		return fmt.Errorf("update schedule: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete удаляет расписание.
func (r *ScheduleRepo) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM schedules WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete schedule: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Helpers ---

func collectSchedules(rows pgx.Rows) ([]domain.Schedule, error) {
	var schedules []domain.Schedule
	for rows.Next() {
		var s domain.Schedule
		if err := rows.Scan(
			&s.ID,
			&s.WorkflowID,
			&s.CronExpr,
			&s.Enabled,
			&s.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan schedule: %w", err)
		}
		schedules = append(schedules, s)
	}
	return schedules, rows.Err()
}
