// Package txn defines the unit-of-work contract shared by the domain services.
package txn

import (
	"context"
	"sync"
)

// Manager runs fn as one atomic unit of work. Repositories called with the
// ctx passed to fn take part in the same unit. Nested calls join the outer
// unit instead of starting a new one.
type Manager interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type unitKey struct{}

type unit struct {
	owner *Serial
	undo  []func()
}

// Serial is the Manager used with the in-memory stores. Units of work are
// serialised with a lock, and the changes a unit registered with OnRollback
// are reverted, newest first, when fn fails or panics.
type Serial struct {
	mu sync.Mutex
}

func NewSerial() *Serial {
	return &Serial{}
}

func (s *Serial) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if u, ok := ctx.Value(unitKey{}).(*unit); ok && u.owner == s {
		return fn(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	u := &unit{owner: s}
	committed := false
	defer func() {
		if !committed {
			u.rollback()
		}
	}()

	if err := fn(context.WithValue(ctx, unitKey{}, u)); err != nil {
		return err
	}
	committed = true
	return nil
}

func (u *unit) rollback() {
	for i := len(u.undo) - 1; i >= 0; i-- {
		u.undo[i]()
	}
	u.undo = nil
}

// OnRollback records undo so it runs if the unit of work carried by ctx
// fails. Outside a unit of work the change is already final and undo is
// dropped.
func OnRollback(ctx context.Context, undo func()) {
	if u, ok := ctx.Value(unitKey{}).(*unit); ok {
		u.undo = append(u.undo, undo)
	}
}
