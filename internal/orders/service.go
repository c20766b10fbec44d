package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderType selects how the order is fulfilled.
type OrderType string

const (
	OrderTypeDelivery OrderType = "DELIVERY"
	OrderTypePickup   OrderType = "PICKUP"
	OrderTypeDineIn   OrderType = "DINE_IN"
)

// Item is one fulfilled line as reported by the backend. Prices here are the
// server's authoritative values, not the client-side snapshots.
type Item struct {
	MenuItemID uuid.UUID       `json:"menuItemId"`
	Name       string          `json:"name"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unitPrice"`
}

// Order is an order record from the history endpoints.
type Order struct {
	ID              uuid.UUID       `json:"id"`
	Status          string          `json:"status"`
	OrderType       OrderType       `json:"orderType"`
	Items           []Item          `json:"items"`
	Total           decimal.Decimal `json:"total"`
	DeliveryAddress string          `json:"deliveryAddress,omitempty"`
	PhoneNumber     string          `json:"phoneNumber"`
	Notes           string          `json:"notes,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
}

type apiGetter interface {
	Get(ctx context.Context, path string, out any) error
}

// Service reads order history for the signed-in account.
type Service struct {
	api apiGetter
}

func NewService(api apiGetter) (*Service, error) {
	if api == nil {
		return nil, fmt.Errorf("api client is required")
	}
	return &Service{api: api}, nil
}

func (s *Service) List(ctx context.Context) ([]Order, error) {
	var items []Order
	if err := s.api.Get(ctx, "/orders", &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Order, error) {
	var order Order
	if err := s.api.Get(ctx, fmt.Sprintf("/orders/%s", id), &order); err != nil {
		return nil, err
	}
	return &order, nil
}
