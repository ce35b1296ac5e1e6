package service

import (
	"context"
	"errors"
	"slices"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrReorderInFlight is returned when a reorder is requested while a
// previous one for the same list is still committing. Overlapping
// reorders are rejected, not queued.
var ErrReorderInFlight = errors.New("reorder already in flight")

// ErrIndexOutOfRange is returned for drag indexes outside the list.
var ErrIndexOutOfRange = errors.New("reorder index out of range")

// PersistOrderFunc writes one item's order field remotely. The closure
// is expected to scope the write to the owning profile.
type PersistOrderFunc[T any] func(ctx context.Context, item T) error

// ReorderController applies drag reorders optimistically: the spliced,
// densely renumbered list replaces local state before any remote write,
// every item's order is then persisted in parallel, and any persistence
// failure restores the full pre-reorder snapshot.
type ReorderController[T any] struct {
	mu       sync.Mutex
	items    []T
	saving   bool
	setOrder func(*T, int)
	persist  PersistOrderFunc[T]
	logger   *zap.Logger
}

// NewReorderController builds a controller over the given items, which
// must already be in display order.
func NewReorderController[T any](items []T, setOrder func(*T, int), persist PersistOrderFunc[T], logger *zap.Logger) *ReorderController[T] {
	return &ReorderController[T]{
		items:    slices.Clone(items),
		setOrder: setOrder,
		persist:  persist,
		logger:   logger,
	}
}

// Items returns a copy of the current list.
func (c *ReorderController[T]) Items() []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.items)
}

// Saving reports whether a reorder is currently committing.
func (c *ReorderController[T]) Saving() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.saving
}

// Reorder moves the item at index from to index to. Equal indexes are a
// no-op. The local list is updated before the remote writes; if any
// write fails the entire snapshot is restored and the error returned.
func (c *ReorderController[T]) Reorder(ctx context.Context, from, to int) error {
	c.mu.Lock()

	if c.saving {
		c.mu.Unlock()
		return ErrReorderInFlight
	}

	n := len(c.items)
	if from < 0 || from >= n || to < 0 || to >= n {
		c.mu.Unlock()
		return ErrIndexOutOfRange
	}

	if from == to {
		c.mu.Unlock()
		return nil
	}

	snapshot := slices.Clone(c.items)

	next := slices.Clone(c.items)
	moved := next[from]
	next = append(next[:from], next[from+1:]...)
	next = slices.Insert(next, to, moved)

	// Dense renumbering: a move shifts every item between the two
	// positions, not just the two endpoints.
	for i := range next {
		c.setOrder(&next[i], i+1)
	}

	c.items = next
	c.saving = true
	c.mu.Unlock()

	g, gctx := errgroup.WithContext(ctx)
	for _, item := range next {
		item := item
		g.Go(func() error {
			return c.persist(gctx, item)
		})
	}
	err := g.Wait()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.saving = false

	if err != nil {
		c.logger.Error("reorder persistence failed, rolling back", zap.Error(err))
		c.items = snapshot
		return err
	}

	return nil
}
