package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"irdesk/internal/verification/models"
	"irdesk/pkg/platform/sentinel"
	"irdesk/pkg/platform/tx"
)

const pgUniqueViolation = "23505"

const applicantColumns = `id, full_name, email, phone, status, verification, version, created_at, updated_at`

// identityColumns maps identity fields to columns. Only these are ever interpolated.
var identityColumns = map[models.IdentityField]string{
	models.FieldEmail:    "email",
	models.FieldPhone:    "phone",
	models.FieldFullName: "full_name",
}

// PostgresStore persists applicants in PostgreSQL. The verification state is a JSONB
// document; its lock clock is mirrored into locked_until for indexed counting.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed applicant store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// conn joins a transaction carried in ctx, if any.
func (s *PostgresStore) conn(ctx context.Context) execer {
	if t, ok := tx.From(ctx); ok {
		return t
	}
	return s.db
}

func (s *PostgresStore) FindByID(ctx context.Context, id string) (*models.Applicant, error) {
	query := `SELECT ` + applicantColumns + ` FROM applicants WHERE id = $1`
	a, err := scanApplicant(s.conn(ctx).QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find applicant by id: %w", err)
	}
	return a, nil
}

func (s *PostgresStore) FindBy(ctx context.Context, field models.IdentityField, value string) ([]models.Applicant, error) {
	column, ok := identityColumns[field]
	if !ok {
		return nil, fmt.Errorf("unsupported identity field %q", field)
	}
	query := `SELECT ` + applicantColumns + ` FROM applicants WHERE ` + column + ` = $1 ORDER BY created_at, id`
	rows, err := s.conn(ctx).QueryContext(ctx, query, value)
	if err != nil {
		return nil, fmt.Errorf("find applicants by %s: %w", field, err)
	}
	defer rows.Close()

	var out []models.Applicant
	for rows.Next() {
		a, err := scanApplicant(rows)
		if err != nil {
			return nil, fmt.Errorf("scan applicant: %w", err)
		}
		out = append(out, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate applicants: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Create(ctx context.Context, a *models.Applicant) error {
	if a == nil {
		return fmt.Errorf("applicant is required")
	}
	return s.insert(ctx, s.conn(ctx), a)
}

// CreateIfIdentityAvailable claims the applicant's email in applicant_identities and
// inserts the applicant in one transaction, closing the check-then-create race.
func (s *PostgresStore) CreateIfIdentityAvailable(ctx context.Context, a *models.Applicant) error {
	if a == nil {
		return fmt.Errorf("applicant is required")
	}
	return tx.Run(ctx, s.db, func(ctx context.Context) error {
		conn := s.conn(ctx)
		if err := s.insert(ctx, conn, a); err != nil {
			return err
		}
		res, err := conn.ExecContext(ctx, `
			INSERT INTO applicant_identities (email_key, applicant_id)
			VALUES ($1, $2)
			ON CONFLICT (email_key) DO NOTHING
		`, emailKey(a.Email), a.ID)
		if err != nil {
			return fmt.Errorf("claim applicant identity: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("claim applicant identity rows affected: %w", err)
		}
		if n == 0 {
			return sentinel.ErrAlreadyUsed
		}
		return nil
	})
}

func (s *PostgresStore) insert(ctx context.Context, conn execer, a *models.Applicant) error {
	state, err := encodeState(a.Verification)
	if err != nil {
		return err
	}
	_, err = conn.ExecContext(ctx, `
		INSERT INTO applicants (id, full_name, email, phone, status, verification, locked_until, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6::jsonb, $7, $8, $9, $10)
	`,
		a.ID,
		a.FullName,
		a.Email,
		a.Phone,
		string(a.Status),
		state,
		nullTime(lockedUntil(*a)),
		a.Version,
		a.CreatedAt,
		a.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("insert applicant: %w", err)
	}
	return nil
}

// Update writes only the non-nil patch fields and bumps the version. A stale
// ExpectedVersion yields sentinel.ErrConflict.
func (s *PostgresStore) Update(ctx context.Context, id string, patch models.Patch) (*models.Applicant, error) {
	var state sql.NullString
	var locked sql.NullTime
	if patch.Verification != nil {
		encoded, err := encodeState(patch.Verification)
		if err != nil {
			return nil, err
		}
		state = encoded
		if until := patch.Verification.Step3.LockedUntil; until != nil {
			locked = sql.NullTime{Time: *until, Valid: true}
		}
	}
	var updatedAt sql.NullTime
	if !patch.UpdatedAt.IsZero() {
		updatedAt = sql.NullTime{Time: patch.UpdatedAt, Valid: true}
	}

	query := `
		UPDATE applicants SET
			full_name = COALESCE($2::text, full_name),
			email = COALESCE($3::text, email),
			phone = COALESCE($4::text, phone),
			status = COALESCE($5::text, status),
			verification = COALESCE($6::jsonb, verification),
			locked_until = CASE WHEN $6::jsonb IS NULL THEN locked_until ELSE $7::timestamptz END,
			updated_at = COALESCE($8::timestamptz, updated_at),
			version = version + 1
		WHERE id = $1 AND ($9::int = 0 OR version = $9::int)
		RETURNING ` + applicantColumns
	a, err := scanApplicant(s.conn(ctx).QueryRowContext(ctx, query,
		id,
		nullString(patch.FullName),
		nullString(patch.Email),
		nullString(patch.Phone),
		nullStatus(patch.Status),
		state,
		locked,
		updatedAt,
		patch.ExpectedVersion,
	))
	if err == nil {
		return a, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("update applicant: %w", err)
	}

	var exists bool
	if err := s.conn(ctx).QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM applicants WHERE id = $1)`, id).Scan(&exists); err != nil {
		return nil, fmt.Errorf("check applicant exists: %w", err)
	}
	if !exists {
		return nil, sentinel.ErrNotFound
	}
	return nil, sentinel.ErrConflict
}

func (s *PostgresStore) CountByStatus(ctx context.Context) (map[models.Status]int, error) {
	rows, err := s.conn(ctx).QueryContext(ctx, `SELECT status, COUNT(*) FROM applicants GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("count applicants by status: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.Status]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scan status count: %w", err)
		}
		counts[models.Status(status)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate status counts: %w", err)
	}
	return counts, nil
}

func (s *PostgresStore) CountLocked(ctx context.Context, now time.Time) (int, error) {
	var n int
	err := s.conn(ctx).QueryRowContext(ctx, `SELECT COUNT(*) FROM applicants WHERE locked_until > $1`, now).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count locked applicants: %w", err)
	}
	return n, nil
}

type applicantRow interface {
	Scan(dest ...any) error
}

func scanApplicant(row applicantRow) (*models.Applicant, error) {
	var a models.Applicant
	var status string
	var state []byte
	if err := row.Scan(&a.ID, &a.FullName, &a.Email, &a.Phone, &status, &state, &a.Version, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	a.Status = models.Status(status)
	if len(state) > 0 {
		var vs models.VerificationState
		if err := json.Unmarshal(state, &vs); err != nil {
			return nil, fmt.Errorf("decode verification state: %w", err)
		}
		a.Verification = &vs
	}
	return &a, nil
}

func encodeState(vs *models.VerificationState) (sql.NullString, error) {
	if vs == nil {
		return sql.NullString{}, nil
	}
	b, err := json.Marshal(vs)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("encode verification state: %w", err)
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}

func nullString(v *string) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *v, Valid: true}
}

func nullStatus(v *models.Status) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: string(*v), Valid: true}
}

func nullTime(v *time.Time) sql.NullTime {
	if v == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *v, Valid: true}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
