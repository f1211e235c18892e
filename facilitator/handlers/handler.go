// Package handlers turns raw event records into entity mutations.
//
// There is one handler per event kind. A handler parses the whole batch
// before touching storage, groups the parsed events by natural key, and
// persists distinct keys concurrently while applying the events of one key
// in arrival order. Events may arrive in any order and more than once; a
// handler only ever proposes forward transitions, so replays and
// reorderings converge on the same stored state.
package handlers

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	ferrors "github.com/pushchain/bridge-node/facilitator/errors"
)

// Handler persists one batch of records of a single event kind and reports
// how many entities it touched.
type Handler interface {
	Handle(ctx context.Context, records []Record) (int, error)
}

// PersistFunc adapts a typed Persist method to Handler.
type PersistFunc[T any] func(ctx context.Context, records []Record) ([]*T, error)

// Handle calls f.
func (f PersistFunc[T]) Handle(ctx context.Context, records []Record) (int, error) {
	touched, err := f(ctx, records)
	return len(touched), err
}

// parseAll parses every record, failing on the first malformed one.
func parseAll[E any](records []Record, parse func(Record) (E, error)) ([]E, error) {
	events := make([]E, 0, len(records))
	for _, rec := range records {
		ev, err := parse(rec)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, nil
}

// groupBy splits events by key, keeping first-seen key order and arrival
// order within each key.
func groupBy[E any](events []E, key func(E) string) ([]string, map[string][]E) {
	var order []string
	groups := make(map[string][]E)
	for _, ev := range events {
		k := key(ev)
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], ev)
	}
	return order, groups
}

// persistByKey runs fn for every key group, at most limit at a time. A
// failing key does not stop the others. Once every group has finished, the
// failures of all keys are returned as one *errors.ErrorGroup, together with
// everything that was persisted.
func persistByKey[E any, T any](
	ctx context.Context,
	limit int,
	keys []string,
	groups map[string][]E,
	fn func(ctx context.Context, key string, events []E) ([]*T, error),
) ([]*T, error) {
	var (
		g       errgroup.Group
		mu      sync.Mutex
		touched []*T
		errs    = ferrors.NewErrorGroup()
	)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for _, key := range keys {
		g.Go(func() error {
			out, err := fn(ctx, key, groups[key])
			mu.Lock()
			defer mu.Unlock()
			touched = append(touched, out...)
			errs.Add(err)
			return nil
		})
	}
	_ = g.Wait()
	return touched, errs.ErrorOrNil()
}
