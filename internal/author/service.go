package author

import (
	"context"
	"errors"
	"fmt"

	"catalogue/internal/apperr"
	"catalogue/internal/platform/metrics"
	"catalogue/internal/platform/txn"
	"catalogue/internal/platform/validate"

	"go.uber.org/zap"
)

// Service provides author-related business logic.
type Service struct {
	repo    Repository
	tx      txn.Manager
	cache   CacheInvalidator
	metrics *metrics.Metrics
	log     *zap.Logger
}

// NewService creates a new author service. cache, m and logger may be nil.
func NewService(repo Repository, tx txn.Manager, cache CacheInvalidator, m *metrics.Metrics, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, tx: tx, cache: cache, metrics: m, log: logger}
}

// List returns every author ordered by name.
func (s *Service) List(ctx context.Context) ([]Author, error) {
	return s.repo.List(ctx)
}

// Get returns the author with the given id.
func (s *Service) Get(ctx context.Context, id string) (Author, error) {
	a, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return Author{}, apperr.NotFoundf(err, "Unable to find author with id : %s", id)
	}
	return a, err
}

// Create validates in and reconciles it, so posting an existing name returns
// the existing author.
func (s *Service) Create(ctx context.Context, in Input) (Author, error) {
	if fields := validate.Struct(in); len(fields) > 0 {
		return Author{}, apperr.Invalid(fields...)
	}
	return s.FindOrCreate(ctx, in.Name)
}

// FindOrCreate returns the author whose name matches name case-insensitively,
// creating it with the given casing when there is none. name is not validated.
// It joins the caller's transaction when ctx carries one.
func (s *Service) FindOrCreate(ctx context.Context, name string) (Author, error) {
	var out Author
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		existing, err := s.repo.FindByNameFold(ctx, name)
		if err == nil {
			out = existing
			return nil
		}
		if !errors.Is(err, ErrNotFound) {
			return fmt.Errorf("find author %q: %w", name, err)
		}

		created := Author{Name: name}
		if err := s.repo.Create(ctx, &created); err != nil {
			if errors.Is(err, ErrNameTaken) {
				return apperr.Conflictf(err, "Author %s was created concurrently, retry the request", name)
			}
			return fmt.Errorf("create author %q: %w", name, err)
		}
		s.metrics.AuthorCreated()
		out = created
		return nil
	})
	return out, err
}

// Rename changes the name of the author with the given id.
func (s *Service) Rename(ctx context.Context, id string, in Input) (Author, error) {
	if fields := validate.Struct(in); len(fields) > 0 {
		return Author{}, apperr.Invalid(fields...)
	}

	var out Author
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		a, err := s.repo.UpdateName(ctx, id, in.Name)
		switch {
		case errors.Is(err, ErrNotFound):
			return apperr.NotFoundf(err, "Unable to find author with id : %s", id)
		case errors.Is(err, ErrNameTaken):
			return apperr.Conflictf(err, "Author name already used: %s", in.Name)
		case err != nil:
			return fmt.Errorf("rename author %s: %w", id, err)
		}
		out = a
		return nil
	})
	if err != nil {
		return Author{}, err
	}

	s.invalidate(ctx)
	return out, nil
}

// Delete removes the author and its book associations. A missing id is not
// an error.
func (s *Service) Delete(ctx context.Context, id string) error {
	var deleted bool
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		deleted, err = s.repo.Delete(ctx, id)
		return err
	})
	if err != nil {
		return fmt.Errorf("delete author %s: %w", id, err)
	}
	if deleted {
		s.invalidate(ctx)
	}
	return nil
}

func (s *Service) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Flush(ctx); err != nil {
		s.log.Warn("flush book cache", zap.Error(err))
	}
}
