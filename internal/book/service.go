package book

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"catalogue/internal/apperr"
	"catalogue/internal/author"
	"catalogue/internal/platform/metrics"
	"catalogue/internal/platform/txn"
	"catalogue/internal/platform/validate"

	"go.uber.org/zap"
)

// Service provides book-related business logic.
type Service struct {
	repo    Repository
	authors AuthorReconciler
	tx      txn.Manager
	cache   Cache
	metrics *metrics.Metrics
	log     *zap.Logger
}

// NewService creates a new book service. cache, m and logger may be nil.
func NewService(repo Repository, authors AuthorReconciler, tx txn.Manager, cache Cache, m *metrics.Metrics, logger *zap.Logger) *Service {
	if cache == nil {
		cache = NopCache{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, authors: authors, tx: tx, cache: cache, metrics: m, log: logger}
}

// ListAll returns every book ordered by ISBN.
func (s *Service) ListAll(ctx context.Context) ([]Book, error) {
	return s.repo.List(ctx)
}

// GetByISBN returns a book by its ISBN, reading through the cache.
func (s *Service) GetByISBN(ctx context.Context, isbn string) (Book, error) {
	cached, ok, err := s.cache.Get(ctx, isbn)
	switch {
	case err != nil:
		s.metrics.CacheLookup("error")
		s.log.Warn("read book cache", zap.String("isbn", isbn), zap.Error(err))
	case ok:
		s.metrics.CacheLookup("hit")
		return cached, nil
	default:
		s.metrics.CacheLookup("miss")
	}

	b, err := s.repo.GetByISBN(ctx, isbn)
	if errors.Is(err, ErrNotFound) {
		return Book{}, apperr.NotFoundf(err, "Unable to find the book with ISBN: %s", isbn)
	}
	if err != nil {
		return Book{}, fmt.Errorf("get book %s: %w", isbn, err)
	}

	if err := s.cache.Set(ctx, b); err != nil {
		s.log.Warn("write book cache", zap.String("isbn", isbn), zap.Error(err))
	}
	return b, nil
}

// Search applies exactly one criterion: a non-blank title wins over author,
// and with neither every book is returned. Matching is a case-insensitive
// substring match.
func (s *Service) Search(ctx context.Context, title, authorName string) ([]Book, error) {
	switch {
	case strings.TrimSpace(title) != "":
		return s.repo.SearchByTitle(ctx, title)
	case strings.TrimSpace(authorName) != "":
		return s.repo.SearchByAuthor(ctx, authorName)
	default:
		return s.repo.List(ctx)
	}
}

// CheckISBNAvailable reports why isbn cannot be used for a new book. It is a
// point-in-time check; the store's unique index is the final guard.
func (s *Service) CheckISBNAvailable(ctx context.Context, isbn string) ([]apperr.FieldError, error) {
	if strings.TrimSpace(isbn) == "" {
		return []apperr.FieldError{{Field: "isbn", Message: "ISBN is mandatory"}}, nil
	}
	exists, err := s.repo.ExistsByISBN(ctx, isbn)
	if err != nil {
		return nil, fmt.Errorf("check isbn %s: %w", isbn, err)
	}
	if exists {
		return []apperr.FieldError{{Field: "isbn", Message: "ISBN already used"}}, nil
	}
	return nil, nil
}

// Create validates in, reconciles its author names and stores the book with
// its author set in one transaction.
func (s *Service) Create(ctx context.Context, in Input) (Book, error) {
	fields := validate.Struct(in)
	if !hasField(fields, "isbn") {
		taken, err := s.CheckISBNAvailable(ctx, in.ISBN)
		if err != nil {
			return Book{}, err
		}
		fields = append(fields, taken...)
	}
	if len(fields) > 0 {
		return Book{}, apperr.Invalid(fields...)
	}

	b := Book{
		ISBN:            in.ISBN,
		Title:           in.Title,
		PublicationDate: in.PublicationDate,
		Summary:         in.Summary,
		PageCount:       in.PageCount,
	}
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		authors, err := s.reconcile(ctx, in.Authors)
		if err != nil {
			return err
		}
		b.Authors = authors

		if err := s.repo.Create(ctx, &b); err != nil {
			if errors.Is(err, ErrDuplicateISBN) {
				return apperr.Conflictf(err, "ISBN already used: %s", in.ISBN)
			}
			return fmt.Errorf("create book %s: %w", in.ISBN, err)
		}
		return nil
	})
	if err != nil {
		return Book{}, err
	}

	s.metrics.BookWritten("create")
	return b, nil
}

// Update replaces every field and the author set of the book identified by
// in.ISBN. Omitted authors empty the set.
func (s *Service) Update(ctx context.Context, in Input) (Book, error) {
	if fields := validate.Struct(in); len(fields) > 0 {
		return Book{}, apperr.Invalid(fields...)
	}

	var b Book
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		existing, err := s.repo.GetByISBN(ctx, in.ISBN)
		if errors.Is(err, ErrNotFound) {
			return apperr.NotFoundf(err, "Book not found with ISBN: %s", in.ISBN)
		}
		if err != nil {
			return fmt.Errorf("load book %s: %w", in.ISBN, err)
		}

		existing.Title = in.Title
		existing.PageCount = in.PageCount
		existing.Summary = in.Summary
		existing.PublicationDate = in.PublicationDate
		existing.Authors, err = s.reconcile(ctx, in.Authors)
		if err != nil {
			return err
		}

		if err := s.repo.Update(ctx, &existing); err != nil {
			return fmt.Errorf("update book %s: %w", in.ISBN, err)
		}
		b = existing
		return nil
	})
	if err != nil {
		return Book{}, err
	}

	s.metrics.BookWritten("update")
	s.evict(ctx, in.ISBN)
	return b, nil
}

// Delete removes the book and its author associations. The authors stay.
func (s *Service) Delete(ctx context.Context, isbn string) error {
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		deleted, err := s.repo.DeleteByISBN(ctx, isbn)
		if err != nil {
			return fmt.Errorf("delete book %s: %w", isbn, err)
		}
		if !deleted {
			return apperr.NotFoundf(ErrNotFound, "Book not found with ISBN: %s", isbn)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.metrics.BookWritten("delete")
	s.evict(ctx, isbn)
	return nil
}

// reconcile resolves names to authors, collapsing names that resolve to the
// same author. nil and empty both yield an empty set.
func (s *Service) reconcile(ctx context.Context, names []string) ([]author.Author, error) {
	out := make([]author.Author, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		a, err := s.authors.FindOrCreate(ctx, name)
		if err != nil {
			return nil, err
		}
		if seen[a.ID] {
			continue
		}
		seen[a.ID] = true
		out = append(out, a)
	}
	sortAuthors(out)
	return out, nil
}

func (s *Service) evict(ctx context.Context, isbn string) {
	if err := s.cache.Delete(ctx, isbn); err != nil {
		s.log.Warn("evict book cache", zap.String("isbn", isbn), zap.Error(err))
	}
}

func hasField(fields []apperr.FieldError, name string) bool {
	for _, f := range fields {
		if f.Field == name {
			return true
		}
	}
	return false
}
