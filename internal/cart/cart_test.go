package cart

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/savoria-app/storefront-client/internal/menu"
	pkgerrors "github.com/savoria-app/storefront-client/pkg/errors"
	"github.com/savoria-app/storefront-client/pkg/storage"
)

type memStore struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemStore() *memStore {
	return &memStore{data: map[string][]byte{}}
}

func (m *memStore) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	value, ok := m.data[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return value, nil
}

func (m *memStore) Put(ctx context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = append([]byte(nil), value...)
	return nil
}

func (m *memStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

type failingStore struct{}

func (failingStore) Get(ctx context.Context, key string) ([]byte, error) {
	return nil, storage.ErrNotFound
}
func (failingStore) Put(ctx context.Context, key string, value []byte) error {
	return errors.New("disk full")
}
func (failingStore) Delete(ctx context.Context, key string) error {
	return errors.New("disk full")
}

func snapshot(name string, price string) menu.ItemSnapshot {
	return menu.ItemSnapshot{
		ID:        uuid.New(),
		Name:      name,
		UnitPrice: decimal.RequireFromString(price),
	}
}

func TestAddMergesExistingLine(t *testing.T) {
	t.Parallel()

	agg := NewAggregator(context.Background(), newMemStore(), nil)
	item := snapshot("Margherita", "9.50")
	ctx := context.Background()

	require.NoError(t, agg.Add(ctx, item, 2))
	require.NoError(t, agg.Add(ctx, item, 3))

	lines := agg.Lines()
	require.Len(t, lines, 1, "adding the same item twice must not create a second line")
	assert.Equal(t, 5, lines[0].Quantity)
}

func TestAddRejectsInvalidInput(t *testing.T) {
	t.Parallel()

	agg := NewAggregator(context.Background(), newMemStore(), nil)
	ctx := context.Background()

	err := agg.Add(ctx, snapshot("Tiramisu", "6.00"), 0)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))

	err = agg.Add(ctx, menu.ItemSnapshot{}, 1)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
	assert.True(t, agg.IsEmpty())
}

func TestSetQuantityZeroOrNegativeRemovesLine(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	item := snapshot("Lasagna", "12.00")

	for _, qty := range []int{0, -5} {
		agg := NewAggregator(ctx, newMemStore(), nil)
		require.NoError(t, agg.Add(ctx, item, 2))
		agg.SetQuantity(ctx, item.ID, qty)
		assert.True(t, agg.IsEmpty(), "quantity %d should remove the line", qty)
	}
}

func TestSetQuantityIsAbsolute(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	agg := NewAggregator(ctx, newMemStore(), nil)
	item := snapshot("Carbonara", "11.00")

	require.NoError(t, agg.Add(ctx, item, 5))
	agg.SetQuantity(ctx, item.ID, 2)

	lines := agg.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, 2, lines[0].Quantity)
}

func TestRemoveMissingLineIsNoOp(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	agg := NewAggregator(ctx, newMemStore(), nil)
	require.NoError(t, agg.Add(ctx, snapshot("Bruschetta", "5.50"), 1))

	agg.Remove(ctx, uuid.New())
	assert.Equal(t, 1, agg.Count())
}

func TestTotalsRecomputedOnEveryRead(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	agg := NewAggregator(ctx, newMemStore(), nil)
	pizza := snapshot("Diavola", "10.00")
	salad := snapshot("Caprese", "7.25")

	require.NoError(t, agg.Add(ctx, pizza, 2))
	require.NoError(t, agg.Add(ctx, salad, 1))

	assert.True(t, agg.Subtotal().Equal(decimal.RequireFromString("27.25")))
	assert.Equal(t, 3, agg.Count())

	agg.SetQuantity(ctx, pizza.ID, 1)

	assert.True(t, agg.Subtotal().Equal(decimal.RequireFromString("17.25")), "subtotal must reflect the mutation with no stale cache")
	assert.Equal(t, 2, agg.Count())
}

func TestSnapshotRoundTripAcrossRestart(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newMemStore()

	first := NewAggregator(ctx, store, nil)
	items := []menu.ItemSnapshot{
		snapshot("Margherita", "9.50"),
		snapshot("Diavola", "10.00"),
		snapshot("Tiramisu", "6.00"),
	}
	for i, item := range items {
		require.NoError(t, first.Add(ctx, item, i+1))
	}

	// a fresh aggregator over the same storage simulates a process restart
	second := NewAggregator(ctx, store, nil)
	lines := second.Lines()
	require.Len(t, lines, 3)
	for i, line := range lines {
		assert.Equal(t, items[i].ID, line.Item.ID)
		assert.Equal(t, i+1, line.Quantity)
		assert.True(t, items[i].UnitPrice.Equal(line.Item.UnitPrice))
	}
}

func TestCorruptSnapshotLoadsEmpty(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newMemStore()
	require.NoError(t, store.Put(ctx, "cart_snapshot", []byte("{broken")))

	agg := NewAggregator(ctx, store, nil)
	assert.True(t, agg.IsEmpty())
}

func TestPersistenceFailureKeepsInMemoryState(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	agg := NewAggregator(ctx, failingStore{}, nil)
	item := snapshot("Focaccia", "4.00")

	require.NoError(t, agg.Add(ctx, item, 2), "persistence failures must not surface")
	assert.Equal(t, 2, agg.Count())
}

func TestClearEmptiesCartAndSnapshot(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newMemStore()
	agg := NewAggregator(ctx, store, nil)
	require.NoError(t, agg.Add(ctx, snapshot("Gnocchi", "9.00"), 2))

	agg.Clear(ctx)
	assert.True(t, agg.IsEmpty())

	_, err := store.Get(ctx, "cart_snapshot")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
