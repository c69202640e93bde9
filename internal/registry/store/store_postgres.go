package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"irdesk/internal/registry/models"
	"irdesk/pkg/platform/tx"
)

// upsertBatchSize bounds the array parameters of one bulk upsert statement.
const upsertBatchSize = 500

// PostgresRegistry persists registry records in the registry_holders table.
type PostgresRegistry struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed registry.
func NewPostgres(db *sql.DB) *PostgresRegistry {
	return &PostgresRegistry{db: db}
}

func (r *PostgresRegistry) Lookup(ctx context.Context, holderID string) ([]models.Holder, error) {
	key := models.Holder{ID: holderID}.NormalizedID()
	rows, err := r.db.QueryContext(ctx, `
		SELECT holder_id, name
		FROM registry_holders
		WHERE normalized_id = $1
		ORDER BY name
	`, key)
	if err != nil {
		return nil, fmt.Errorf("lookup registry holders: %w", err)
	}
	defer rows.Close()

	var out []models.Holder
	for rows.Next() {
		var h models.Holder
		if err := rows.Scan(&h.ID, &h.Name); err != nil {
			return nil, fmt.Errorf("scan registry holder: %w", err)
		}
		out = append(out, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate registry holders: %w", err)
	}
	return out, nil
}

// BulkUpsert writes holders in batches inside one transaction, so a failed load
// leaves the registry unchanged.
func (r *PostgresRegistry) BulkUpsert(ctx context.Context, holders []models.Holder) (int, error) {
	total := 0
	err := tx.Run(ctx, r.db, func(ctx context.Context) error {
		t, _ := tx.From(ctx)
		for start := 0; start < len(holders); start += upsertBatchSize {
			end := min(start+upsertBatchSize, len(holders))
			ids, names, keys := columns(holders[start:end])
			if len(ids) == 0 {
				continue
			}
			res, err := t.ExecContext(ctx, `
				INSERT INTO registry_holders (holder_id, name, normalized_id, updated_at)
				SELECT *, NOW() FROM unnest($1::text[], $2::text[], $3::text[])
				ON CONFLICT (holder_id, name) DO UPDATE SET
					normalized_id = EXCLUDED.normalized_id,
					updated_at = EXCLUDED.updated_at
			`, pq.Array(ids), pq.Array(names), pq.Array(keys))
			if err != nil {
				return fmt.Errorf("upsert registry holders: %w", err)
			}
			n, err := res.RowsAffected()
			if err != nil {
				return fmt.Errorf("upsert registry holders rows affected: %w", err)
			}
			total += int(n)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return total, nil
}

// columns splits holders into parallel arrays, skipping records without an id and
// collapsing duplicates within the batch (ON CONFLICT cannot touch a row twice).
func columns(holders []models.Holder) (ids, names, keys []string) {
	seen := make(map[[2]string]struct{}, len(holders))
	for _, h := range holders {
		key := h.NormalizedID()
		if key == "" {
			continue
		}
		pk := [2]string{h.ID, h.Name}
		if _, dup := seen[pk]; dup {
			continue
		}
		seen[pk] = struct{}{}
		ids = append(ids, h.ID)
		names = append(names, h.Name)
		keys = append(keys, key)
	}
	return ids, names, keys
}
