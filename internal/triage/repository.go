package triage

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrResultNotFound is returned when no triage result exists for a patient.
	ErrResultNotFound = errors.New("triage result not found")
	// ErrNoDatabase is returned by read operations when persistence is disabled.
	ErrNoDatabase = errors.New("no database configured")
)

// Repository stores the latest triage result per patient. A new submission
// from the same patient overwrites the previous one.
type Repository interface {
	Upsert(ctx context.Context, r *Result) error
	Latest(ctx context.Context, patient string) (*Result, error)
	ListLatest(ctx context.Context) ([]Result, error)
	Clear(ctx context.Context) error
}

type postgresRepo struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &postgresRepo{db: db}
}

func (r *postgresRepo) Upsert(ctx context.Context, res *Result) error {
	if res.ID == uuid.Nil {
		res.ID = uuid.New()
	}
	now := time.Now()
	if res.CreatedAt.IsZero() {
		res.CreatedAt = now
	}
	res.UpdatedAt = now

	query := `
		INSERT INTO triage_results (id, patient, issue, level, advice, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (patient) DO UPDATE SET
			issue = $3,
			level = $4,
			advice = $5,
			updated_at = $7
	`
	_, err := r.db.ExecContext(ctx, query,
		res.ID, res.Patient, res.Issue, res.Level, res.Advice, res.CreatedAt, res.UpdatedAt)
	return err
}

func (r *postgresRepo) Latest(ctx context.Context, patient string) (*Result, error) {
	query := `SELECT id, patient, issue, level, advice, created_at, updated_at
		FROM triage_results WHERE patient = $1`

	var res Result
	err := r.db.QueryRowContext(ctx, query, patient).Scan(
		&res.ID, &res.Patient, &res.Issue, &res.Level, &res.Advice, &res.CreatedAt, &res.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrResultNotFound
		}
		return nil, err
	}
	return &res, nil
}

func (r *postgresRepo) ListLatest(ctx context.Context) ([]Result, error) {
	query := `SELECT id, patient, issue, level, advice, created_at, updated_at
		FROM triage_results ORDER BY updated_at DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Result
	for rows.Next() {
		var res Result
		if err := rows.Scan(&res.ID, &res.Patient, &res.Issue, &res.Level, &res.Advice,
			&res.CreatedAt, &res.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, rows.Err()
}

func (r *postgresRepo) Clear(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM triage_results`)
	return err
}

type noopRepo struct{}

// NewNoopRepository returns a Repository for running without persistence.
// Writes are discarded so the chat flow keeps working; reads report that no
// database is configured.
func NewNoopRepository() Repository { return noopRepo{} }

func (noopRepo) Upsert(ctx context.Context, res *Result) error { return nil }

func (noopRepo) Latest(ctx context.Context, patient string) (*Result, error) {
	return nil, ErrNoDatabase
}

func (noopRepo) ListLatest(ctx context.Context) ([]Result, error) {
	return nil, ErrNoDatabase
}

func (noopRepo) Clear(ctx context.Context) error { return ErrNoDatabase }
