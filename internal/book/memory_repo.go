package book

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"catalogue/internal/author"
	"catalogue/internal/platform/txn"

	"github.com/google/uuid"
)

// AuthorLookup resolves author ids when books are read back.
type AuthorLookup interface {
	GetByID(ctx context.Context, id string) (author.Author, error)
}

type record struct {
	id        string
	isbn      string
	title     string
	pubDate   Date
	summary   string
	pageCount int
	authorIDs []string
}

// MemoryRepo keeps books in process memory. Books hold author ids only;
// names are resolved through the author store on every read, so renames and
// deletes of authors show up immediately. Writes made inside a txn.Serial
// unit of work are reverted when the unit fails.
type MemoryRepo struct {
	mu      sync.RWMutex
	byISBN  map[string]*record
	authors AuthorLookup
}

func NewMemoryRepo(authors AuthorLookup) *MemoryRepo {
	return &MemoryRepo{
		byISBN:  make(map[string]*record),
		authors: authors,
	}
}

func (r *MemoryRepo) List(ctx context.Context) ([]Book, error) {
	return r.filter(ctx, func(Book) bool { return true })
}

func (r *MemoryRepo) SearchByTitle(ctx context.Context, query string) ([]Book, error) {
	q := strings.ToLower(query)
	return r.filter(ctx, func(b Book) bool {
		return strings.Contains(strings.ToLower(b.Title), q)
	})
}

func (r *MemoryRepo) SearchByAuthor(ctx context.Context, query string) ([]Book, error) {
	q := strings.ToLower(query)
	return r.filter(ctx, func(b Book) bool {
		for _, a := range b.Authors {
			if strings.Contains(strings.ToLower(a.Name), q) {
				return true
			}
		}
		return false
	})
}

func (r *MemoryRepo) GetByISBN(ctx context.Context, isbn string) (Book, error) {
	r.mu.RLock()
	rec, ok := r.byISBN[isbn]
	var snapshot record
	if ok {
		snapshot = *rec
	}
	r.mu.RUnlock()

	if !ok {
		return Book{}, ErrNotFound
	}
	return r.hydrate(ctx, &snapshot)
}

func (r *MemoryRepo) ExistsByISBN(_ context.Context, isbn string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.byISBN[isbn]
	return ok, nil
}

func (r *MemoryRepo) Create(ctx context.Context, b *Book) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byISBN[b.ISBN]; ok {
		return ErrDuplicateISBN
	}
	b.ID = uuid.NewString()
	r.byISBN[b.ISBN] = toRecord(b)
	r.undoTo(ctx, b.ISBN, nil)
	return nil
}

func (r *MemoryRepo) Update(ctx context.Context, b *Book) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.byISBN[b.ISBN]
	if !ok || rec.id != b.ID {
		return ErrNotFound
	}
	r.byISBN[b.ISBN] = toRecord(b)
	r.undoTo(ctx, b.ISBN, rec)
	return nil
}

func (r *MemoryRepo) DeleteByISBN(ctx context.Context, isbn string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.byISBN[isbn]
	if !ok {
		return false, nil
	}
	delete(r.byISBN, isbn)
	r.undoTo(ctx, isbn, rec)
	return true, nil
}

// undoTo restores isbn to prev (nil meaning absent) if the unit of work in
// ctx fails. Stored records are never mutated in place.
func (r *MemoryRepo) undoTo(ctx context.Context, isbn string, prev *record) {
	txn.OnRollback(ctx, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if prev == nil {
			delete(r.byISBN, isbn)
			return
		}
		r.byISBN[isbn] = prev
	})
}

func (r *MemoryRepo) filter(ctx context.Context, keep func(Book) bool) ([]Book, error) {
	r.mu.RLock()
	snapshot := make([]record, 0, len(r.byISBN))
	for _, rec := range r.byISBN {
		snapshot = append(snapshot, *rec)
	}
	r.mu.RUnlock()

	sort.Slice(snapshot, func(i, j int) bool { return snapshot[i].isbn < snapshot[j].isbn })

	out := []Book{}
	for i := range snapshot {
		b, err := r.hydrate(ctx, &snapshot[i])
		if err != nil {
			return nil, err
		}
		if keep(b) {
			out = append(out, b)
		}
	}
	return out, nil
}

// hydrate builds a Book from rec. Ids of deleted authors are skipped, which
// matches the cascade on the Postgres join table.
func (r *MemoryRepo) hydrate(ctx context.Context, rec *record) (Book, error) {
	b := Book{
		ID:              rec.id,
		ISBN:            rec.isbn,
		Title:           rec.title,
		PublicationDate: rec.pubDate,
		Summary:         rec.summary,
		PageCount:       rec.pageCount,
		Authors:         make([]author.Author, 0, len(rec.authorIDs)),
	}
	for _, id := range rec.authorIDs {
		a, err := r.authors.GetByID(ctx, id)
		if errors.Is(err, author.ErrNotFound) {
			continue
		}
		if err != nil {
			return Book{}, err
		}
		b.Authors = append(b.Authors, a)
	}
	sortAuthors(b.Authors)
	return b, nil
}

func toRecord(b *Book) *record {
	return &record{
		id:        b.ID,
		isbn:      b.ISBN,
		title:     b.Title,
		pubDate:   b.PublicationDate,
		summary:   b.Summary,
		pageCount: b.PageCount,
		authorIDs: append([]string(nil), b.AuthorIDs()...),
	}
}
