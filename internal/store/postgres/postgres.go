// Package postgres is a users.Store over PostgreSQL, using the pgx
// database/sql driver and goose migrations.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/Tyrowin/bubingachat/internal/store/postgres/migrations"
	"github.com/Tyrowin/bubingachat/internal/users"
)

const uniqueViolation = "23505"

// DBTX is the subset of *sql.DB the store needs.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Store struct {
	db  DBTX
	now func() time.Time
}

func New(db DBTX) *Store {
	return &Store{db: db, now: time.Now}
}

// Open connects to dsn and checks the connection.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}

	return db, nil
}

// RunMigrations applies every pending embedded migration.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}

	if err := goose.UpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("migration error: %w", err)
	}

	return nil
}

func (s *Store) CreateUser(ctx context.Context, nu users.NewUser) (users.User, error) {
	u := users.User{
		ID:           uuid.NewString(),
		Username:     nu.Username,
		Email:        nu.Email,
		PasswordHash: nu.PasswordHash,
		CreatedAt:    s.now().UTC().Truncate(time.Microsecond),
	}

	query :=
		`INSERT INTO users (id, username, email, password_hash, created_at)
		 VALUES ($1, $2, $3, $4, $5)
		`

	_, err := s.db.ExecContext(ctx, query, u.ID, u.Username, u.Email, u.PasswordHash, u.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return users.User{}, users.ErrDuplicate
		}
		return users.User{}, fmt.Errorf("db error: %w", err)
	}

	return u, nil
}

func (s *Store) FindByEmail(ctx context.Context, email string) (users.User, error) {
	query :=
		`SELECT id, username, email, password_hash, created_at FROM users
		 WHERE email = $1
		`
	return scanUser(s.db.QueryRowContext(ctx, query, email))
}

func (s *Store) FindByID(ctx context.Context, id string) (users.User, error) {
	// Non-UUID ids can never match and would make Postgres reject the cast.
	if _, err := uuid.Parse(id); err != nil {
		return users.User{}, users.ErrNotFound
	}

	query :=
		`SELECT id, username, email, password_hash, created_at FROM users
		 WHERE id = $1
		`
	return scanUser(s.db.QueryRowContext(ctx, query, id))
}

func (s *Store) FindByEmailOrUsername(ctx context.Context, email, username string) (users.User, error) {
	query :=
		`SELECT id, username, email, password_hash, created_at FROM users
		 WHERE email = $1 OR username = $2
		 LIMIT 1
		`
	return scanUser(s.db.QueryRowContext(ctx, query, email, username))
}

func scanUser(row *sql.Row) (users.User, error) {
	var u users.User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return users.User{}, users.ErrNotFound
		}
		return users.User{}, fmt.Errorf("db error: %w", err)
	}
	return u, nil
}
