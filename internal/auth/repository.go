package auth

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrUserExists is returned on signup with an already-taken username.
	ErrUserExists = errors.New("username already taken")
	// ErrUserNotFound is returned when no credential record matches.
	ErrUserNotFound = errors.New("user not found")
	// ErrNoDatabase is returned when persistence is disabled.
	ErrNoDatabase = errors.New("no database configured")
)

// UserRepository stores credential records.
type UserRepository interface {
	Create(ctx context.Context, u *User) error
	GetByUsername(ctx context.Context, username string) (*User, error)
}

type postgresRepo struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) UserRepository {
	return &postgresRepo{db: db}
}

func (r *postgresRepo) Create(ctx context.Context, u *User) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}

	// ON CONFLICT DO NOTHING leaves an existing record untouched; zero rows
	// affected means the username was already taken.
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, username, password_hash, role, created_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (username) DO NOTHING`,
		u.ID, u.Username, u.PasswordHash, u.Role, u.CreatedAt)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrUserExists
	}
	return nil
}

func (r *postgresRepo) GetByUsername(ctx context.Context, username string) (*User, error) {
	var u User
	err := r.db.QueryRowContext(ctx,
		`SELECT id, username, password_hash, role, created_at
		 FROM users WHERE username = $1`, username).
		Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

type noopUserRepo struct{}

// NewNoopUserRepository returns a UserRepository for running without
// persistence. Signup and patient login fail cleanly instead of panicking;
// the doctor credential still works since it lives in the environment.
func NewNoopUserRepository() UserRepository { return noopUserRepo{} }

func (noopUserRepo) Create(ctx context.Context, u *User) error { return ErrNoDatabase }

func (noopUserRepo) GetByUsername(ctx context.Context, username string) (*User, error) {
	return nil, ErrNoDatabase
}
