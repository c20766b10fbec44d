package cart

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/savoria-app/storefront-client/internal/menu"
	pkgerrors "github.com/savoria-app/storefront-client/pkg/errors"
	"github.com/savoria-app/storefront-client/pkg/logger"
	"github.com/savoria-app/storefront-client/pkg/storage"
)

const snapshotStorageKey = "cart_snapshot"

// Line pairs an item snapshot with a quantity. The snapshot is a value copy
// captured at add-time; the displayed price can go stale against the live
// menu, and the server recomputes the authoritative price at order time.
type Line struct {
	Item     menu.ItemSnapshot `json:"menuItem"`
	Quantity int               `json:"quantity"`
}

type snapshotStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// Aggregator owns the cart lines for the active session. In-memory state is
// authoritative; every mutation schedules a full-snapshot write-through whose
// failure is logged and swallowed.
type Aggregator struct {
	mu    sync.Mutex
	lines []Line
	store snapshotStore
	logg  *logger.Logger
}

// NewAggregator builds the cart and restores any persisted snapshot. A
// missing or corrupt snapshot resolves to an empty cart.
func NewAggregator(ctx context.Context, store snapshotStore, logg *logger.Logger) *Aggregator {
	a := &Aggregator{store: store, logg: logg}

	raw, err := store.Get(ctx, snapshotStorageKey)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) && logg != nil {
			logg.Error(ctx, "loading cart snapshot", err)
		}
		return a
	}

	var lines []Line
	if err := json.Unmarshal(raw, &lines); err != nil {
		if logg != nil {
			logg.Error(ctx, "discarding corrupt cart snapshot", err)
		}
		return a
	}
	a.lines = lines
	return a
}

// Add merges quantity into an existing line for the item or appends a new
// one. At most one line exists per item id.
func (a *Aggregator) Add(ctx context.Context, item menu.ItemSnapshot, quantity int) error {
	if item.ID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "item id is required")
	}
	if quantity < 1 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	for i := range a.lines {
		if a.lines[i].Item.ID == item.ID {
			a.lines[i].Quantity += quantity
			a.persistLocked(ctx)
			return nil
		}
	}

	a.lines = append(a.lines, Line{Item: item, Quantity: quantity})
	a.persistLocked(ctx)
	return nil
}

// SetQuantity sets the line's quantity to exactly the given value. A value
// of zero or less removes the line.
func (a *Aggregator) SetQuantity(ctx context.Context, itemID uuid.UUID, quantity int) {
	if quantity <= 0 {
		a.Remove(ctx, itemID)
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	for i := range a.lines {
		if a.lines[i].Item.ID == itemID {
			a.lines[i].Quantity = quantity
			a.persistLocked(ctx)
			return
		}
	}
}

// Remove deletes the line for the item; absent lines are a no-op.
func (a *Aggregator) Remove(ctx context.Context, itemID uuid.UUID) {
	a.mu.Lock()
	defer a.mu.Unlock()

	for i := range a.lines {
		if a.lines[i].Item.ID == itemID {
			a.lines = append(a.lines[:i], a.lines[i+1:]...)
			a.persistLocked(ctx)
			return
		}
	}
}

// Clear empties the cart and removes the persisted snapshot.
func (a *Aggregator) Clear(ctx context.Context) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.lines = nil
	if err := a.store.Delete(ctx, snapshotStorageKey); err != nil && a.logg != nil {
		a.logg.Error(ctx, "removing cart snapshot", err)
	}
}

// Lines returns a copy of the current lines in insertion order.
func (a *Aggregator) Lines() []Line {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]Line(nil), a.lines...)
}

// Subtotal recomputes the sum of unit price times quantity on every call.
func (a *Aggregator) Subtotal() decimal.Decimal {
	a.mu.Lock()
	defer a.mu.Unlock()

	subtotal := decimal.Zero
	for _, line := range a.lines {
		subtotal = subtotal.Add(line.Item.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}
	return subtotal
}

// Count recomputes the total quantity across all lines on every call.
func (a *Aggregator) Count() int {
	a.mu.Lock()
	defer a.mu.Unlock()

	count := 0
	for _, line := range a.lines {
		count += line.Quantity
	}
	return count
}

// IsEmpty reports whether the cart has no lines.
func (a *Aggregator) IsEmpty() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.lines) == 0
}

func (a *Aggregator) persistLocked(ctx context.Context) {
	encoded, err := json.Marshal(a.lines)
	if err != nil {
		if a.logg != nil {
			a.logg.Error(ctx, "encoding cart snapshot", err)
		}
		return
	}
	if err := a.store.Put(ctx, snapshotStorageKey, encoded); err != nil && a.logg != nil {
		a.logg.Error(ctx, "persisting cart snapshot", err)
	}
}
