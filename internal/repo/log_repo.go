package repo

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shaiso/Cascade/internal/domain"
)

// LogRepo — репозиторий append-only журнала runs.
//
// Записи не обновляются и не удаляются по отдельности;
// журнал исчезает вместе с run (каскадное удаление).
type LogRepo struct {
	pool *pgxpool.Pool
}

// NewLogRepo создаёт новый LogRepo.
func NewLogRepo(pool *pgxpool.Pool) *LogRepo {
	return &LogRepo{pool: pool}
}

// Append добавляет лог-запись в журнал.
func (r *LogRepo) Append(ctx context.Context, entry *domain.LogEntry) error {
	dataJSON, err := json.Marshal(entry.Data)
	if err != nil {
		return fmt.Errorf("marshal data: %w", err)
	}

	query := `
		INSERT INTO logs (id, run_id, node_id, ts, level, message, data_json)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err = r.pool.Exec(ctx, query,
		entry.ID,
		entry.RunID,
		nullString(entry.NodeID),
		entry.TS,
		entry.Level,
		entry.Message,
		dataJSON,
	)
	if err != nil {
		return fmt.Errorf("insert log entry: %w", err)
	}
	return nil
}

// ListByRun возвращает журнал run в хронологическом порядке.
func (r *LogRepo) ListByRun(ctx context.Context, runID uuid.UUID, limit, offset int) ([]domain.LogEntry, error) {
	query := `
		SELECT id, run_id, node_id, ts, level, message, data_json
		FROM logs
		WHERE run_id = $1
		ORDER BY ts ASC, id ASC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.pool.Query(ctx, query, runID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list run logs: %w", err)
	}
	defer rows.Close()

	var entries []domain.LogEntry
	for rows.Next() {
		var entry domain.LogEntry
		var nodeID *string
		var dataJSON []byte

		if err := rows.Scan(
			&entry.ID,
			&entry.RunID,
			&nodeID,
			&entry.TS,
			&entry.Level,
			&entry.Message,
			&dataJSON,
		); err != nil {
			return nil, fmt.Errorf("scan log entry: %w", err)
		}

		if nodeID != nil {
			entry.NodeID = *nodeID
		}
		if dataJSON != nil {
			if err := json.Unmarshal(dataJSON, &entry.Data); err != nil {
				return nil, fmt.Errorf("unmarshal data: %w", err)
			}
		}

		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
