package notifications

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/savoria-app/storefront-client/pkg/validate"
)

// Notification is one inbox entry for the signed-in account.
type Notification struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	IsRead    bool      `json:"isRead"`
	CreatedAt time.Time `json:"createdAt"`
}

type apiClient interface {
	Get(ctx context.Context, path string, out any) error
	Post(ctx context.Context, path string, body, out any) error
	Put(ctx context.Context, path string, body, out any) error
}

// Service is the pass-through client for the notification endpoints.
type Service struct {
	api apiClient
}

func NewService(api apiClient) (*Service, error) {
	if api == nil {
		return nil, fmt.Errorf("api client is required")
	}
	return &Service{api: api}, nil
}

func (s *Service) List(ctx context.Context) ([]Notification, error) {
	var items []Notification
	if err := s.api.Get(ctx, "/notifications", &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Service) MarkRead(ctx context.Context, id uuid.UUID) error {
	return s.api.Put(ctx, fmt.Sprintf("/notifications/%s/read", id), nil, nil)
}

// RegisterDeviceInput identifies this device to the push gateway.
type RegisterDeviceInput struct {
	DeviceToken string `json:"deviceToken" validate:"required"`
	Platform    string `json:"platform" validate:"required,oneof=ios android"`
}

// RegisterDevice enrolls the device token for push delivery. Callers treat
// this as best effort; the session manager fires it detached after sign-in.
func (s *Service) RegisterDevice(ctx context.Context, input RegisterDeviceInput) error {
	if err := validate.Struct(input); err != nil {
		return err
	}
	return s.api.Post(ctx, "/notifications/register", input, nil)
}
