package author

import (
	"context"
	"sort"
	"sync"

	"catalogue/internal/platform/txn"

	"github.com/google/uuid"
)

// MemoryRepo keeps authors in process memory. It enforces the same
// case-insensitive name uniqueness as the Postgres schema. Writes made inside
// a txn.Serial unit of work are reverted when the unit fails.
type MemoryRepo struct {
	mu     sync.RWMutex
	byID   map[string]Author
	byName map[string]string
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		byID:   make(map[string]Author),
		byName: make(map[string]string),
	}
}

func (r *MemoryRepo) List(_ context.Context) ([]Author, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Author, 0, len(r.byID))
	for _, a := range r.byID {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		ki, kj := NameKey(out[i].Name), NameKey(out[j].Name)
		if ki != kj {
			return ki < kj
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (r *MemoryRepo) GetByID(_ context.Context, id string) (Author, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.byID[id]
	if !ok {
		return Author{}, ErrNotFound
	}
	return a, nil
}

func (r *MemoryRepo) FindByNameFold(_ context.Context, name string) (Author, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byName[NameKey(name)]
	if !ok {
		return Author{}, ErrNotFound
	}
	return r.byID[id], nil
}

func (r *MemoryRepo) Create(ctx context.Context, a *Author) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := NameKey(a.Name)
	if _, taken := r.byName[key]; taken {
		return ErrNameTaken
	}
	a.ID = uuid.NewString()
	r.put(*a)

	id := a.ID
	txn.OnRollback(ctx, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.remove(id)
	})
	return nil
}

func (r *MemoryRepo) UpdateName(ctx context.Context, id, name string) (Author, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.byID[id]
	if !ok {
		return Author{}, ErrNotFound
	}
	key := NameKey(name)
	if owner, taken := r.byName[key]; taken && owner != id {
		return Author{}, ErrNameTaken
	}

	prev := a
	r.remove(id)
	a.Name = name
	r.put(a)

	txn.OnRollback(ctx, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.remove(id)
		r.put(prev)
	})
	return a, nil
}

func (r *MemoryRepo) Delete(ctx context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.byID[id]
	if !ok {
		return false, nil
	}
	r.remove(id)

	txn.OnRollback(ctx, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.put(a)
	})
	return true, nil
}

// put and remove expect r.mu to be held.
func (r *MemoryRepo) put(a Author) {
	r.byID[a.ID] = a
	r.byName[NameKey(a.Name)] = a.ID
}

func (r *MemoryRepo) remove(id string) {
	if a, ok := r.byID[id]; ok {
		delete(r.byName, NameKey(a.Name))
		delete(r.byID, id)
	}
}
