// Package postgres stores audit events in the audit_events table.
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	audit "irdesk/pkg/platform/audit"
	txcontext "irdesk/pkg/platform/tx"
)

// Store implements audit.Store on PostgreSQL. Appends join a transaction carried
// in ctx, so an event commits together with the change it describes.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Store) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *Store) Append(ctx context.Context, event audit.Event) error {
	category := event.Category
	if category == "" {
		category = audit.AuditEvent(event.Action).Category()
	}
	_, err := s.execer(ctx).ExecContext(ctx, `
		INSERT INTO audit_events (id, category, occurred_at, applicant_id, action, actor_id, decision, reason, request_id, client_ip, device)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`,
		uuid.NewString(),
		string(category),
		event.Timestamp,
		event.ApplicantID,
		event.Action,
		event.ActorID,
		event.Decision,
		event.Reason,
		event.RequestID,
		event.ClientIP,
		event.Device,
	)
	if err != nil {
		return fmt.Errorf("append audit event: %w", err)
	}
	return nil
}

func (s *Store) ListByApplicant(ctx context.Context, applicantID string) ([]audit.Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT category, occurred_at, applicant_id, action, actor_id, decision, reason, request_id, client_ip, device
		FROM audit_events
		WHERE applicant_id = $1
		ORDER BY occurred_at, seq
	`, applicantID)
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close()

	var events []audit.Event
	for rows.Next() {
		var e audit.Event
		var category string
		if err := rows.Scan(&category, &e.Timestamp, &e.ApplicantID, &e.Action, &e.ActorID, &e.Decision, &e.Reason, &e.RequestID, &e.ClientIP, &e.Device); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		e.Category = audit.EventCategory(category)
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return events, nil
}
