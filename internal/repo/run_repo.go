package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shaiso/Cascade/internal/domain"
)

// RunRepo — репозиторий для работы с runs.
type RunRepo struct {
	pool *pgxpool.Pool
}

// NewRunRepo создаёт новый RunRepo.
func NewRunRepo(pool *pgxpool.Pool) *RunRepo {
	return &RunRepo{pool: pool}
}

// Create создаёт новый run.
func (r *RunRepo) Create(ctx context.Context, run *domain.Run) error {
	triggerJSON, err := json.Marshal(run.TriggerPayload)
	if err != nil {
		return fmt.Errorf("marshal trigger payload: %w", err)
	}

	query := `
		INSERT INTO runs (id, workflow_id, status, trigger_type, trigger_payload_json, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err = r.pool.Exec(ctx, query,
		run.ID,
		run.WorkflowID,
		run.Status,
		run.TriggerType,
		triggerJSON,
		run.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// GetByID возвращает run по ID.
func (r *RunRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Run, error) {
	query := `
		SELECT id, workflow_id, status, trigger_type, trigger_payload_json,
		       outputs_json, started_at, finished_at, created_at
		FROM runs
		WHERE id = $1
	`
	return scanRun(r.pool.QueryRow(ctx, query, id))
}

// List возвращает список runs с фильтрацией.
func (r *RunRepo) List(ctx context.Context, filter RunFilter) ([]domain.Run, error) {
	query := `
		SELECT id, workflow_id, status, trigger_type, trigger_payload_json,
		       outputs_json, started_at, finished_at, created_at
		FROM runs
		WHERE ($1::uuid IS NULL OR workflow_id = $1)
		  AND ($2::text IS NULL OR status = $2)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`
	rows, err := r.pool.Query(ctx, query,
		nullUUID(filter.WorkflowID),
		nullString(string(filter.Status)),
		filter.Limit,
		filter.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []domain.Run
	for rows.Next() {
		run, err := scanRunFromRows(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// ListPending возвращает runs в статусе pending (старые первыми).
func (r *RunRepo) ListPending(ctx context.Context, limit int) ([]domain.Run, error) {
	query := `
		SELECT id, workflow_id, status, trigger_type, trigger_payload_json,
		       outputs_json, started_at, finished_at, created_at
		FROM runs
		WHERE status = 'pending'
		ORDER BY created_at ASC
		LIMIT $1
	`
	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list pending runs: %w", err)
	}
	defer rows.Close()

	var runs []domain.Run
	for rows.Next() {
		run, err := scanRunFromRows(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// Update сохраняет статус, временные метки и outputs run.
func (r *RunRepo) Update(ctx context.Context, run *domain.Run) error {
	outputsJSON, err := json.Marshal(run.Outputs)
	if err != nil {
		return fmt.Errorf("marshal outputs: %w", err)
	}

	query := `
		UPDATE runs
		SET status = $2, started_at = $3, finished_at = $4, outputs_json = $5
		WHERE id = $1
	`
	result, err := r.pool.Exec(ctx, query,
		run.ID,
		run.Status,
		run.StartedAt,
		run.FinishedAt,
		outputsJSON,
	)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Helpers ---

// RunFilter — параметры фильтрации runs.
type RunFilter struct {
	WorkflowID *uuid.UUID
	Status     domain.RunStatus
	Limit      int
	Offset     int
}

func scanRun(row pgx.Row) (*domain.Run, error) {
	var run domain.Run
	var triggerJSON, outputsJSON []byte

	err := row.Scan(
		&run.ID,
		&run.WorkflowID,
		&run.Status,
		&run.TriggerType,
		&triggerJSON,
		&outputsJSON,
		&run.StartedAt,
		&run.FinishedAt,
		&run.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan run: %w", err)
	}

	if err := unmarshalRunJSON(&run, triggerJSON, outputsJSON); err != nil {
		return nil, err
	}
	return &run, nil
}

func scanRunFromRows(rows pgx.Rows) (*domain.Run, error) {
	var run domain.Run
	var triggerJSON, outputsJSON []byte

	err := rows.Scan(
		&run.ID,
		&run.WorkflowID,
		&run.Status,
		&run.TriggerType,
		&triggerJSON,
		&outputsJSON,
		&run.StartedAt,
		&run.FinishedAt,
		&run.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("scan run: %w", err)
	}

	if err := unmarshalRunJSON(&run, triggerJSON, outputsJSON); err != nil {
		return nil, err
	}
	return &run, nil
}

func unmarshalRunJSON(run *domain.Run, triggerJSON, outputsJSON []byte) error {
	if triggerJSON != nil {
		if err := json.Unmarshal(triggerJSON, &run.TriggerPayload); err != nil {
			return fmt.Errorf("unmarshal trigger payload: %w", err)
		}
	}
	if outputsJSON != nil {
		if err := json.Unmarshal(outputsJSON, &run.Outputs); err != nil {
			return fmt.Errorf("unmarshal outputs: %w", err)
		}
	}
	return nil
}

// nullString возвращает nil для пустой строки (для NULL в БД).
func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// nullUUID возвращает nil для пустого UUID.
func nullUUID(id *uuid.UUID) *uuid.UUID {
	if id == nil || *id == uuid.Nil {
		return nil
	}
	return id
}
