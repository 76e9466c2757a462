package author

import (
	"context"
	"errors"
	"fmt"
	"time"

	"catalogue/internal/platform/postgres"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresRepo struct {
	db      *pgxpool.Pool
	timeout time.Duration
}

func NewPostgresRepo(db *pgxpool.Pool, timeout time.Duration) *PostgresRepo {
	return &PostgresRepo{db: db, timeout: timeout}
}

func (r *PostgresRepo) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.timeout)
}

func (r *PostgresRepo) List(ctx context.Context) ([]Author, error) {
	const query = `SELECT id::text, name FROM authors ORDER BY lower(name) COLLATE "C", name COLLATE "C"`

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	rows, err := postgres.Conn(ctx, r.db).Query(timeoutCtx, query)
	if err != nil {
		return nil, fmt.Errorf("list authors: %w", err)
	}
	defer rows.Close()

	out := []Author{}
	for rows.Next() {
		var a Author
		if err := rows.Scan(&a.ID, &a.Name); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) GetByID(ctx context.Context, id string) (Author, error) {
	if uuid.Validate(id) != nil {
		return Author{}, ErrNotFound
	}
	const query = `SELECT id::text, name FROM authors WHERE id = $1`
	return r.queryOne(ctx, query, id)
}

func (r *PostgresRepo) FindByNameFold(ctx context.Context, name string) (Author, error) {
	const query = `SELECT id::text, name FROM authors WHERE lower(name) = lower($1) LIMIT 1`
	return r.queryOne(ctx, query, name)
}

func (r *PostgresRepo) Create(ctx context.Context, a *Author) error {
	const query = `INSERT INTO authors (name, created_at, updated_at) VALUES ($1, NOW(), NOW()) RETURNING id::text`

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	err := postgres.Conn(ctx, r.db).QueryRow(timeoutCtx, query, a.Name).Scan(&a.ID)
	if postgres.IsUniqueViolation(err) {
		return ErrNameTaken
	}
	return err
}

func (r *PostgresRepo) UpdateName(ctx context.Context, id, name string) (Author, error) {
	if uuid.Validate(id) != nil {
		return Author{}, ErrNotFound
	}
	const query = `
		UPDATE authors SET name = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING id::text, name`

	a, err := r.queryOne(ctx, query, id, name)
	if postgres.IsUniqueViolation(err) {
		return Author{}, ErrNameTaken
	}
	return a, err
}

func (r *PostgresRepo) Delete(ctx context.Context, id string) (bool, error) {
	if uuid.Validate(id) != nil {
		return false, nil
	}
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	tag, err := postgres.Conn(ctx, r.db).Exec(timeoutCtx, `DELETE FROM authors WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *PostgresRepo) queryOne(ctx context.Context, query string, args ...any) (Author, error) {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	var a Author
	err := postgres.Conn(ctx, r.db).QueryRow(timeoutCtx, query, args...).Scan(&a.ID, &a.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Author{}, ErrNotFound
		}
		return Author{}, err
	}
	return a, nil
}
