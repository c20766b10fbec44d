package checkout

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/savoria-app/storefront-client/internal/cart"
	"github.com/savoria-app/storefront-client/internal/orders"
	pkgerrors "github.com/savoria-app/storefront-client/pkg/errors"
	"github.com/savoria-app/storefront-client/pkg/logger"
	"github.com/savoria-app/storefront-client/pkg/validate"
)

type cartSource interface {
	Lines() []cart.Line
	IsEmpty() bool
	Clear(ctx context.Context)
}

type authChecker interface {
	IsAuthenticated() bool
}

type apiPoster interface {
	Post(ctx context.Context, path string, body, out any) error
}

// Service performs the one-shot translation of the cart plus delivery details
// into an order-creation call.
type Service struct {
	api  apiPoster
	cart cartSource
	auth authChecker
	logg *logger.Logger
}

// Params bundles the checkout dependencies.
type Params struct {
	API    apiPoster
	Cart   cartSource
	Auth   authChecker
	Logger *logger.Logger
}

func NewService(params Params) (*Service, error) {
	if params.API == nil {
		return nil, fmt.Errorf("api client is required")
	}
	if params.Cart == nil {
		return nil, fmt.Errorf("cart is required")
	}
	if params.Auth == nil {
		return nil, fmt.Errorf("auth checker is required")
	}
	return &Service{
		api:  params.API,
		cart: params.Cart,
		auth: params.Auth,
		logg: params.Logger,
	}, nil
}

// Input carries the delivery form for a submission.
type Input struct {
	OrderType       orders.OrderType `json:"orderType" validate:"required,oneof=DELIVERY PICKUP DINE_IN"`
	DeliveryAddress string           `json:"deliveryAddress,omitempty"`
	ContactPhone    string           `json:"phoneNumber" validate:"required"`
	Notes           string           `json:"notes,omitempty"`
}

type draftLine struct {
	MenuItemID uuid.UUID `json:"menuItemId"`
	Quantity   int       `json:"quantity"`
}

// orderDraft is the wire payload. Prices are deliberately absent: the server
// computes the price of record from the authoritative menu.
type orderDraft struct {
	Items           []draftLine      `json:"items"`
	OrderType       orders.OrderType `json:"orderType"`
	DeliveryAddress string           `json:"deliveryAddress,omitempty"`
	PhoneNumber     string           `json:"phoneNumber"`
	Notes           string           `json:"notes,omitempty"`
}

// Submit validates locally, sends the order once, and clears the cart only
// after the backend accepts it. Failures leave the cart untouched and are
// never retried automatically.
func (s *Service) Submit(ctx context.Context, input Input) (*orders.Order, error) {
	if !s.auth.IsAuthenticated() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "sign in to place an order")
	}

	input.DeliveryAddress = strings.TrimSpace(input.DeliveryAddress)
	input.ContactPhone = strings.TrimSpace(input.ContactPhone)
	input.Notes = strings.TrimSpace(input.Notes)

	if err := validate.Struct(input); err != nil {
		return nil, err
	}
	if input.OrderType == orders.OrderTypeDelivery && input.DeliveryAddress == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "delivery address is required")
	}
	if s.cart.IsEmpty() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}

	lines := s.cart.Lines()
	draft := orderDraft{
		Items:       make([]draftLine, 0, len(lines)),
		OrderType:   input.OrderType,
		PhoneNumber: input.ContactPhone,
		Notes:       input.Notes,
	}
	if input.OrderType == orders.OrderTypeDelivery {
		draft.DeliveryAddress = input.DeliveryAddress
	}
	for _, line := range lines {
		draft.Items = append(draft.Items, draftLine{
			MenuItemID: line.Item.ID,
			Quantity:   line.Quantity,
		})
	}

	var order orders.Order
	if err := s.api.Post(ctx, "/orders/add", draft, &order); err != nil {
		return nil, err
	}

	s.cart.Clear(ctx)
	if s.logg != nil {
		s.logg.Info(s.logg.WithField(ctx, "order_id", order.ID.String()), "order placed")
	}
	return &order, nil
}
