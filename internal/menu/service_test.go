package menu

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type stubGetter struct {
	paths []string
	items []Item
}

func (s *stubGetter) Get(ctx context.Context, path string, out any) error {
	s.paths = append(s.paths, path)
	if typed, ok := out.(*[]Item); ok {
		*typed = s.items
	}
	return nil
}

func TestItemsQueryEncoding(t *testing.T) {
	t.Parallel()

	api := &stubGetter{}
	svc, err := NewService(api)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	categoryID := uuid.New()
	if _, err := svc.Items(context.Background(), ItemsQuery{CategoryID: categoryID, Search: "pizza"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := "/menu/items?category=" + categoryID.String() + "&search=pizza"
	if len(api.paths) != 1 || api.paths[0] != want {
		t.Fatalf("expected path %q, got %v", want, api.paths)
	}

	if _, err := svc.Items(context.Background(), ItemsQuery{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if api.paths[1] != "/menu/items" {
		t.Fatalf("expected bare path without filters, got %q", api.paths[1])
	}
}

func TestSnapshotIsValueCopy(t *testing.T) {
	t.Parallel()

	item := Item{
		ID:    uuid.New(),
		Name:  "Margherita",
		Price: decimal.RequireFromString("9.50"),
	}

	snap := item.Snapshot()

	item.Name = "Renamed"
	item.Price = decimal.RequireFromString("12.00")

	if snap.Name != "Margherita" {
		t.Fatalf("snapshot name mutated: %q", snap.Name)
	}
	if !snap.UnitPrice.Equal(decimal.RequireFromString("9.50")) {
		t.Fatalf("snapshot price mutated: %s", snap.UnitPrice)
	}
}
