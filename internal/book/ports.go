package book

import (
	"context"

	"catalogue/internal/author"
)

//go:generate mockgen -source=ports.go -destination=mock_repository_test.go -package=book

// Repository defines the contract for book data storage. Create and Update
// write several rows and must run inside a transaction.
type Repository interface {
	List(ctx context.Context) ([]Book, error)
	GetByISBN(ctx context.Context, isbn string) (Book, error)
	ExistsByISBN(ctx context.Context, isbn string) (bool, error)
	SearchByTitle(ctx context.Context, query string) ([]Book, error)
	SearchByAuthor(ctx context.Context, query string) ([]Book, error)
	// Create assigns b.ID. It returns ErrDuplicateISBN when the ISBN exists.
	Create(ctx context.Context, b *Book) error
	// Update overwrites the row with b.ID and replaces its author set.
	Update(ctx context.Context, b *Book) error
	// DeleteByISBN reports whether a row was removed.
	DeleteByISBN(ctx context.Context, isbn string) (bool, error)
}

// AuthorReconciler resolves an author name to a persisted author.
type AuthorReconciler interface {
	FindOrCreate(ctx context.Context, name string) (author.Author, error)
}

// Cache stores book payloads by ISBN.
type Cache interface {
	// Get reports a miss with ok == false and a nil error.
	Get(ctx context.Context, isbn string) (b Book, ok bool, err error)
	Set(ctx context.Context, b Book) error
	Delete(ctx context.Context, isbn string) error
	Flush(ctx context.Context) error
}
