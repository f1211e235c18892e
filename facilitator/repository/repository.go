// Package repository persists facilitator entities and enforces their
// invariants at write time.
//
// Every repository owns one mutex. Save and Create hold it for the whole
// read-validate-write sequence, so two writers of the same entity type can
// never both observe the same stored state and both act on it. Observers are
// notified after the mutex is released, in registration order.
//
// Notifications of concurrent saves are not ordered with their writes: two
// goroutines saving the same key may reach observers in the opposite order
// to the one in which their rows were written. Saves made by one goroutine
// are delivered in order. An observer that needs the latest state of a key
// re-reads it with Get rather than keeping the last item it was handed.
package repository

import (
	"context"
	"errors"
	"sync"

	"gorm.io/gorm"
)

// Observer receives every entity persisted by the repository it is attached to.
type Observer[T any] interface {
	Update(ctx context.Context, items []*T)
}

// ObserverFunc adapts a plain function to Observer.
type ObserverFunc[T any] func(ctx context.Context, items []*T)

// Update calls f.
func (f ObserverFunc[T]) Update(ctx context.Context, items []*T) {
	f(ctx, items)
}

// subject is the observer list embedded in each repository.
type subject[T any] struct {
	observersMu sync.RWMutex
	observers   []Observer[T]
}

// Attach registers o for all subsequent successful saves.
func (s *subject[T]) Attach(o Observer[T]) {
	s.observersMu.Lock()
	defer s.observersMu.Unlock()
	s.observers = append(s.observers, o)
}

func (s *subject[T]) notify(ctx context.Context, items ...*T) {
	if len(items) == 0 {
		return
	}
	s.observersMu.RLock()
	observers := make([]Observer[T], len(s.observers))
	copy(observers, s.observers)
	s.observersMu.RUnlock()

	for _, o := range observers {
		o.Update(ctx, items)
	}
}

// first loads the row matching query into dest. A missing row is reported as
// (false, nil).
func first(ctx context.Context, db *gorm.DB, dest any, query string, args ...any) (bool, error) {
	err := db.WithContext(ctx).Where(query, args...).First(dest).Error
	if err == nil {
		return true, nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	return false, err
}

func isDuplicateKey(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
