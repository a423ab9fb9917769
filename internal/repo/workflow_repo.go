package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shaiso/Cascade/internal/domain"
)

// WorkflowRepo — репозиторий для работы с workflows.
type WorkflowRepo struct {
	pool *pgxpool.Pool
}

// NewWorkflowRepo создаёт новый WorkflowRepo.
func NewWorkflowRepo(pool *pgxpool.Pool) *WorkflowRepo {
	return &WorkflowRepo{pool: pool}
}

// Create создаёт новый workflow.
// Конфликт имени или webhook slug возвращает ErrAlreadyExists.
func (r *WorkflowRepo) Create(ctx context.Context, wf *domain.Workflow) error {
	graphJSON, err := wf.Graph.Marshal()
	if err != nil {
		return fmt.Errorf("marshal graph: %w", err)
	}

	query := `
		INSERT INTO workflows (id, name, webhook_slug, graph_json, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err = r.pool.Exec(ctx, query,
		wf.ID,
		wf.Name,
		nullString(wf.WebhookSlug),
		graphJSON,
		wf.CreatedAt,
	)
	if isUniqueViolation(err) {
		return ErrAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("insert workflow: %w", err)
	}
	return nil
}

// GetByID возвращает workflow по ID.
func (r *WorkflowRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Workflow, error) {
	query := `
		SELECT id, name, webhook_slug, graph_json, created_at
		FROM workflows
		WHERE id = $1
	`
	return scanWorkflow(r.pool.QueryRow(ctx, query, id))
}

// GetByWebhookSlug возвращает workflow по слагу webhook.
func (r *WorkflowRepo) GetByWebhookSlug(ctx context.Context, slug string) (*domain.Workflow, error) {
	query := `
		SELECT id, name, webhook_slug, graph_json, created_at
		FROM workflows
		WHERE webhook_slug = $1
	`
	return scanWorkflow(r.pool.QueryRow(ctx, query, slug))
}

// List возвращает список всех workflows.
func (r *WorkflowRepo) List(ctx context.Context) ([]domain.Workflow, error) {
	query := `
		SELECT id, name, webhook_slug, graph_json, created_at
		FROM workflows
		ORDER BY created_at DESC
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list workflows: %w", err)
	}
	defer rows.Close()

	var workflows []domain.Workflow
	for rows.Next() {
		wf, err := scanWorkflowFromRows(rows)
		if err != nil {
			return nil, err
		}
		workflows = append(workflows, *wf)
	}
	return workflows, rows.Err()
}

// Update перезаписывает имя, слаг и граф workflow.
// Идущие runs не затрагиваются: их граф уже прочитан при старте.
func (r *WorkflowRepo) Update(ctx context.Context, wf *domain.Workflow) error {
	graphJSON, err := wf.Graph.Marshal()
	if err != nil {
		return fmt.Errorf("marshal graph: %w", err)
	}

	query := `
		UPDATE workflows
		SET name = $2, webhook_slug = $3, graph_json = $4
		WHERE id = $1
	`
	result, err := r.pool.Exec(ctx, query,
		wf.ID,
		wf.Name,
		nullString(wf.WebhookSlug),
		graphJSON,
	)
	if isUniqueViolation(err) {
		return ErrAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("update workflow: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete удаляет workflow (каскадно удалит runs и schedules).
func (r *WorkflowRepo) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM workflows WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete workflow: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Helpers ---

func scanWorkflow(row pgx.Row) (*domain.Workflow, error) {
	var wf domain.Workflow
	var slug *string
	var graphJSON []byte

	err := row.Scan(
		&wf.ID,
		&wf.Name,
		&slug,
		&graphJSON,
		&wf.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan workflow: %w", err)
	}

	if slug != nil {
		wf.WebhookSlug = *slug
	}
	graph, err := domain.ParseGraph(graphJSON)
	if err != nil {
		return nil, fmt.Errorf("unmarshal graph: %w", err)
	}
	wf.Graph = graph

	return &wf, nil
}

func scanWorkflowFromRows(rows pgx.Rows) (*domain.Workflow, error) {
	var wf domain.Workflow
	var slug *string
	var graphJSON []byte

	err := rows.Scan(
		&wf.ID,
		&wf.Name,
		&slug,
		&graphJSON,
		&wf.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("scan workflow: %w", err)
	}

	if slug != nil {
		wf.WebhookSlug = *slug
	}
	graph, err := domain.ParseGraph(graphJSON)
	if err != nil {
		return nil, fmt.Errorf("unmarshal graph: %w", err)
	}
	wf.Graph = graph

	return &wf, nil
}

// isUniqueViolation проверяет нарушение уникального ограничения.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
