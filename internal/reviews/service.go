package reviews

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/savoria-app/storefront-client/pkg/validate"
)

// Review is one customer review of a menu item.
type Review struct {
	ID         uuid.UUID `json:"id"`
	MenuItemID uuid.UUID `json:"menuItemId"`
	Author     string    `json:"author"`
	Rating     int       `json:"rating"`
	Comment    string    `json:"comment,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

type apiClient interface {
	Get(ctx context.Context, path string, out any) error
	Post(ctx context.Context, path string, body, out any) error
}

// Service is the pass-through client for the review endpoints.
type Service struct {
	api apiClient
}

func NewService(api apiClient) (*Service, error) {
	if api == nil {
		return nil, fmt.Errorf("api client is required")
	}
	return &Service{api: api}, nil
}

func (s *Service) ListForItem(ctx context.Context, menuItemID uuid.UUID) ([]Review, error) {
	var items []Review
	if err := s.api.Get(ctx, fmt.Sprintf("/reviews/item/%s", menuItemID), &items); err != nil {
		return nil, err
	}
	return items, nil
}

// Input is the review form; rating is validated locally.
type Input struct {
	MenuItemID uuid.UUID `json:"menuItemId" validate:"required"`
	Rating     int       `json:"rating" validate:"required,min=1,max=5"`
	Comment    string    `json:"comment,omitempty" validate:"omitempty,max=1000"`
}

func (s *Service) Add(ctx context.Context, input Input) (*Review, error) {
	input.Comment = strings.TrimSpace(input.Comment)
	if err := validate.Struct(input); err != nil {
		return nil, err
	}
	var review Review
	if err := s.api.Post(ctx, "/reviews/add", input, &review); err != nil {
		return nil, err
	}
	return &review, nil
}
