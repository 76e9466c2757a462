package book

import (
	"context"
	"fmt"
	"time"

	"catalogue/internal/author"
	"catalogue/internal/platform/postgres"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
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

// selectBooks aggregates each book's authors into parallel id and name
// arrays, sorted bytewise by lowercased name. %s is the WHERE clause.
const selectBooks = `
	SELECT b.id::text, b.isbn, b.title, b.publication_date, b.summary, b.page_count,
	       COALESCE(array_agg(a.id::text ORDER BY lower(a.name) COLLATE "C", a.name COLLATE "C") FILTER (WHERE a.id IS NOT NULL), '{}'),
	       COALESCE(array_agg(a.name ORDER BY lower(a.name) COLLATE "C", a.name COLLATE "C") FILTER (WHERE a.id IS NOT NULL), '{}')
	FROM books b
	LEFT JOIN book_authors ba ON ba.book_id = b.id
	LEFT JOIN authors a ON a.id = ba.author_id
	%s
	GROUP BY b.id
	ORDER BY b.isbn COLLATE "C"`

func (r *PostgresRepo) List(ctx context.Context) ([]Book, error) {
	return r.query(ctx, "")
}

func (r *PostgresRepo) SearchByTitle(ctx context.Context, query string) ([]Book, error) {
	return r.query(ctx, `WHERE b.title ILIKE $1`, postgres.LikePattern(query))
}

func (r *PostgresRepo) SearchByAuthor(ctx context.Context, query string) ([]Book, error) {
	const where = `
	WHERE b.id IN (
		SELECT ba2.book_id FROM book_authors ba2
		JOIN authors a2 ON a2.id = ba2.author_id
		WHERE a2.name ILIKE $1
	)`
	return r.query(ctx, where, postgres.LikePattern(query))
}

func (r *PostgresRepo) GetByISBN(ctx context.Context, isbn string) (Book, error) {
	books, err := r.query(ctx, `WHERE b.isbn = $1`, isbn)
	if err != nil {
		return Book{}, err
	}
	if len(books) == 0 {
		return Book{}, ErrNotFound
	}
	return books[0], nil
}

func (r *PostgresRepo) ExistsByISBN(ctx context.Context, isbn string) (bool, error) {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	var exists bool
	err := postgres.Conn(ctx, r.db).QueryRow(timeoutCtx, `SELECT EXISTS (SELECT 1 FROM books WHERE isbn = $1)`, isbn).Scan(&exists)
	return exists, err
}

func (r *PostgresRepo) Create(ctx context.Context, b *Book) error {
	const insert = `
		INSERT INTO books (isbn, title, publication_date, summary, page_count, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		RETURNING id::text`

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	conn := postgres.Conn(ctx, r.db)

	err := conn.QueryRow(timeoutCtx, insert, b.ISBN, b.Title, toPGDate(b.PublicationDate), b.Summary, b.PageCount).Scan(&b.ID)
	if postgres.IsUniqueViolation(err) {
		return ErrDuplicateISBN
	}
	if err != nil {
		return err
	}
	return r.linkAuthors(timeoutCtx, conn, b.ID, b.AuthorIDs())
}

func (r *PostgresRepo) Update(ctx context.Context, b *Book) error {
	const update = `
		UPDATE books
		SET title = $2, publication_date = $3, summary = $4, page_count = $5, updated_at = NOW()
		WHERE id = $1`

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	conn := postgres.Conn(ctx, r.db)

	tag, err := conn.Exec(timeoutCtx, update, b.ID, b.Title, toPGDate(b.PublicationDate), b.Summary, b.PageCount)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	if _, err := conn.Exec(timeoutCtx, `DELETE FROM book_authors WHERE book_id = $1`, b.ID); err != nil {
		return fmt.Errorf("clear authors: %w", err)
	}
	return r.linkAuthors(timeoutCtx, conn, b.ID, b.AuthorIDs())
}

func (r *PostgresRepo) DeleteByISBN(ctx context.Context, isbn string) (bool, error) {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	tag, err := postgres.Conn(ctx, r.db).Exec(timeoutCtx, `DELETE FROM books WHERE isbn = $1`, isbn)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *PostgresRepo) linkAuthors(ctx context.Context, conn postgres.DBTX, bookID string, authorIDs []string) error {
	if len(authorIDs) == 0 {
		return nil
	}
	const link = `
		INSERT INTO book_authors (book_id, author_id)
		SELECT $1::uuid, unnest($2::text[])::uuid
		ON CONFLICT DO NOTHING`
	if _, err := conn.Exec(ctx, link, bookID, authorIDs); err != nil {
		return fmt.Errorf("link authors: %w", err)
	}
	return nil
}

func (r *PostgresRepo) query(ctx context.Context, where string, args ...any) ([]Book, error) {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	rows, err := postgres.Conn(ctx, r.db).Query(timeoutCtx, fmt.Sprintf(selectBooks, where), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Book{}
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func scanBook(row pgx.Row) (Book, error) {
	var (
		b       Book
		pubDate pgtype.Date
		ids     []string
		names   []string
	)
	if err := row.Scan(&b.ID, &b.ISBN, &b.Title, &pubDate, &b.Summary, &b.PageCount, &ids, &names); err != nil {
		return Book{}, err
	}
	if pubDate.Valid {
		b.PublicationDate = Date{pubDate.Time}
	}
	b.Authors = make([]author.Author, 0, len(ids))
	for i := range ids {
		b.Authors = append(b.Authors, author.Author{ID: ids[i], Name: names[i]})
	}
	return b, nil
}

func toPGDate(d Date) pgtype.Date {
	if d.IsZero() {
		return pgtype.Date{}
	}
	return pgtype.Date{Time: d.Time, Valid: true}
}
