package repo

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shaiso/Cascade/internal/domain"
)

// NodeRunRepo — репозиторий для работы с node_runs.
type NodeRunRepo struct {
	pool *pgxpool.Pool
}

// NewNodeRunRepo создаёт новый NodeRunRepo.
func NewNodeRunRepo(pool *pgxpool.Pool) *NodeRunRepo {
	return &NodeRunRepo{pool: pool}
}

// Create создаёт новую запись NodeRun.
func (r *NodeRunRepo) Create(ctx context.Context, nr *domain.NodeRun) error {
	inputJSON, err := json.Marshal(nr.Input)
	if err != nil {
		return fmt.Errorf("marshal input: %w", err)
	}

	query := `
		INSERT INTO node_runs (id, run_id, node_id, node_type, status, input_json, started_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err = r.pool.Exec(ctx, query,
		nr.ID,
		nr.RunID,
		nr.NodeID,
		nr.NodeType,
		nr.Status,
		inputJSON,
		nr.StartedAt,
		nr.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert node run: %w", err)
	}
	return nil
}

// Update сохраняет терминальное состояние записи NodeRun.
func (r *NodeRunRepo) Update(ctx context.Context, nr *domain.NodeRun) error {
	outputJSON, err := json.Marshal(nr.Output)
	if err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}
	errorJSON, err := json.Marshal(nr.Error)
	if err != nil {
		return fmt.Errorf("marshal error: %w", err)
	}

	query := `
		UPDATE node_runs
		SET status = $2, finished_at = $3, output_json = $4, error_json = $5
		WHERE id = $1
	`
	result, err := r.pool.Exec(ctx, query,
		nr.ID,
		nr.Status,
		nr.FinishedAt,
		outputJSON,
		errorJSON,
	)
	if err != nil {
		return fmt.Errorf("update node run: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListByRun возвращает записи NodeRun одного run в порядке выполнения.
func (r *NodeRunRepo) ListByRun(ctx context.Context, runID uuid.UUID) ([]domain.NodeRun, error) {
	query := `
		SELECT id, run_id, node_id, node_type, status, input_json, output_json, error_json,
		       started_at, finished_at, created_at
		FROM node_runs
		WHERE run_id = $1
		ORDER BY created_at ASC
	`
	rows, err := r.pool.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("list node runs: %w", err)
	}
	defer rows.Close()

	var nodeRuns []domain.NodeRun
	for rows.Next() {
		nr, err := scanNodeRunFromRows(rows)
		if err != nil {
			return nil, err
		}
		nodeRuns = append(nodeRuns, *nr)
	}
	return nodeRuns, rows.Err()
}

// --- Helpers ---

func scanNodeRunFromRows(rows pgx.Rows) (*domain.NodeRun, error) {
	var nr domain.NodeRun
	var inputJSON, outputJSON, errorJSON []byte

	err := rows.Scan(
		&nr.ID,
		&nr.RunID,
		&nr.NodeID,
		&nr.NodeType,
		&nr.Status,
		&inputJSON,
		&outputJSON,
		&errorJSON,
		&nr.StartedAt,
		&nr.FinishedAt,
		&nr.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("scan node run: %w", err)
	}

	if err := unmarshalNodeRunJSON(&nr, inputJSON, outputJSON, errorJSON); err != nil {
		return nil, err
	}
	return &nr, nil
}

func unmarshalNodeRunJSON(nr *domain.NodeRun, inputJSON, outputJSON, errorJSON []byte) error {
	if inputJSON != nil {
		if err := json.Unmarshal(inputJSON, &nr.Input); err != nil {
			return fmt.Errorf("unmarshal input: %w", err)
		}
	}
	if outputJSON != nil {
		if err := json.Unmarshal(outputJSON, &nr.Output); err != nil {
			return fmt.Errorf("unmarshal output: %w", err)
		}
	}
	if errorJSON != nil {
		if err := json.Unmarshal(errorJSON, &nr.Error); err != nil {
			return fmt.Errorf("unmarshal error: %w", err)
		}
	}
	return nil
}
