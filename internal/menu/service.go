package menu

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Category is one menu section as served by the backend.
type Category struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	ImageURL string    `json:"imageUrl,omitempty"`
}

// Item is a purchasable menu entry. Price is authoritative server-side; the
// value here is for display and local subtotals only.
type Item struct {
	ID          uuid.UUID       `json:"id"`
	CategoryID  uuid.UUID       `json:"categoryId"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	ImageURL    string          `json:"imageUrl,omitempty"`
	IsAvailable bool            `json:"isAvailable"`
}

// ItemSnapshot is the point-in-time copy a cart line holds. It is a value,
// not a reference: later menu edits never reach snapshots already in a cart.
type ItemSnapshot struct {
	ID        uuid.UUID       `json:"id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	ImageURL  string          `json:"imageUrl,omitempty"`
}

// Snapshot captures the add-time copy of the item for cart use.
func (i Item) Snapshot() ItemSnapshot {
	return ItemSnapshot{
		ID:        i.ID,
		Name:      i.Name,
		UnitPrice: i.Price,
		ImageURL:  i.ImageURL,
	}
}

type apiGetter interface {
	Get(ctx context.Context, path string, out any) error
}

// Service reads the menu catalog from the backend.
type Service struct {
	api apiGetter
}

func NewService(api apiGetter) (*Service, error) {
	if api == nil {
		return nil, fmt.Errorf("api client is required")
	}
	return &Service{api: api}, nil
}

func (s *Service) Categories(ctx context.Context) ([]Category, error) {
	var categories []Category
	if err := s.api.Get(ctx, "/menu/categories", &categories); err != nil {
		return nil, err
	}
	return categories, nil
}

// ItemsQuery filters the item listing; zero values mean no filter.
type ItemsQuery struct {
	CategoryID uuid.UUID
	Search     string
}

func (s *Service) Items(ctx context.Context, query ItemsQuery) ([]Item, error) {
	params := url.Values{}
	if query.CategoryID != uuid.Nil {
		params.Set("category", query.CategoryID.String())
	}
	if search := strings.TrimSpace(query.Search); search != "" {
		params.Set("search", search)
	}

	path := "/menu/items"
	if encoded := params.Encode(); encoded != "" {
		path += "?" + encoded
	}

	var items []Item
	if err := s.api.Get(ctx, path, &items); err != nil {
		return nil, err
	}
	return items, nil
}
