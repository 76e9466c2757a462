package author

import (
	"context"
)

//go:generate mockgen -source=ports.go -destination=mock_repository_test.go -package=author

// Repository defines the contract for author data storage.
type Repository interface {
	List(ctx context.Context) ([]Author, error)
	GetByID(ctx context.Context, id string) (Author, error)
	// FindByNameFold matches name case-insensitively.
	FindByNameFold(ctx context.Context, name string) (Author, error)
	// Create assigns a.ID. It returns ErrNameTaken on a name collision.
	Create(ctx context.Context, a *Author) error
	UpdateName(ctx context.Context, id, name string) (Author, error)
	// Delete reports whether a row was removed.
	Delete(ctx context.Context, id string) (bool, error)
}

// CacheInvalidator drops cached book payloads. Renaming or deleting an author
// changes every book that references it.
type CacheInvalidator interface {
	Flush(ctx context.Context) error
}
