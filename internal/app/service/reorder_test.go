package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/linkdropapp/linkdrop/internal/storage"
)

func testLinks(n int) []storage.Link {
	links := make([]storage.Link, 0, n)
	for i := 0; i < n; i++ {
		links = append(links, storage.Link{
			ID:    string(rune('a' + i)),
			Title: "link " + string(rune('a'+i)),
			Order: i + 1,
		})
	}
	return links
}

func setLinkOrder(l *storage.Link, order int) { l.Order = order }

func persistOK(ctx context.Context, item storage.Link) error { return nil }

func TestReorderMovesItem(t *testing.T) {
	c := NewReorderController(testLinks(5), setLinkOrder, persistOK, zap.NewNop())

	err := c.Reorder(context.Background(), 0, 3)
	require.NoError(t, err)

	items := c.Items()
	require.Len(t, items, 5)
	assert.Equal(t, []string{"b", "c", "d", "a", "e"}, ids(items))
	for i, item := range items {
		assert.Equal(t, i+1, item.Order, "order must be dense 1..N")
	}
}

func TestReorderMoveBackward(t *testing.T) {
	c := NewReorderController(testLinks(4), setLinkOrder, persistOK, zap.NewNop())

	err := c.Reorder(context.Background(), 3, 0)
	require.NoError(t, err)

	assert.Equal(t, []string{"d", "a", "b", "c"}, ids(c.Items()))
}

func TestReorderSameIndexIsNoOp(t *testing.T) {
	var persisted int
	persist := func(ctx context.Context, item storage.Link) error {
		persisted++
		return nil
	}
	c := NewReorderController(testLinks(3), setLinkOrder, persist, zap.NewNop())

	err := c.Reorder(context.Background(), 1, 1)
	require.NoError(t, err)
	assert.Equal(t, 0, persisted)
	assert.Equal(t, []string{"a", "b", "c"}, ids(c.Items()))
}

func TestReorderIndexOutOfRange(t *testing.T) {
	c := NewReorderController(testLinks(3), setLinkOrder, persistOK, zap.NewNop())

	assert.ErrorIs(t, c.Reorder(context.Background(), -1, 2), ErrIndexOutOfRange)
	assert.ErrorIs(t, c.Reorder(context.Background(), 0, 3), ErrIndexOutOfRange)
	assert.ErrorIs(t, c.Reorder(context.Background(), 5, 0), ErrIndexOutOfRange)
}

func TestReorderPersistsEveryItem(t *testing.T) {
	var mu sync.Mutex
	persisted := map[string]int{}
	persist := func(ctx context.Context, item storage.Link) error {
		mu.Lock()
		defer mu.Unlock()
		persisted[item.ID] = item.Order
		return nil
	}
	c := NewReorderController(testLinks(4), setLinkOrder, persist, zap.NewNop())

	require.NoError(t, c.Reorder(context.Background(), 2, 0))

	assert.Equal(t, map[string]int{"c": 1, "a": 2, "b": 3, "d": 4}, persisted)
}

func TestReorderRollsBackOnFailure(t *testing.T) {
	before := testLinks(5)
	persist := func(ctx context.Context, item storage.Link) error {
		if item.ID == "c" {
			return errors.New("write failed")
		}
		return nil
	}
	c := NewReorderController(before, setLinkOrder, persist, zap.NewNop())

	err := c.Reorder(context.Background(), 0, 4)
	require.Error(t, err)

	// The snapshot must be restored exactly, orders included.
	assert.Equal(t, before, c.Items())
	assert.False(t, c.Saving())
}

func TestReorderRejectsOverlap(t *testing.T) {
	block := make(chan struct{})
	started := make(chan struct{}, 5)
	persist := func(ctx context.Context, item storage.Link) error {
		started <- struct{}{}
		<-block
		return nil
	}
	c := NewReorderController(testLinks(3), setLinkOrder, persist, zap.NewNop())

	done := make(chan error, 1)
	go func() {
		done <- c.Reorder(context.Background(), 0, 2)
	}()
	<-started // first reorder is committing

	err := c.Reorder(context.Background(), 1, 0)
	assert.ErrorIs(t, err, ErrReorderInFlight)

	close(block)
	require.NoError(t, <-done)
}

func ids(items []storage.Link) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, item.ID)
	}
	return out
}
