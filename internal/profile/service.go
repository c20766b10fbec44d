package profile

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/savoria-app/storefront-client/pkg/validate"
)

// User is the locally held profile for the signed-in account.
type User struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	PhoneNumber string    `json:"phoneNumber"`
	Email       string    `json:"email,omitempty"`
	Role        string    `json:"role"`
}

type apiClient interface {
	Get(ctx context.Context, path string, out any) error
	Put(ctx context.Context, path string, body, out any) error
}

// Service reads and updates the account profile.
type Service struct {
	api apiClient
}

func NewService(api apiClient) (*Service, error) {
	if api == nil {
		return nil, fmt.Errorf("api client is required")
	}
	return &Service{api: api}, nil
}

// Me fetches the profile for the current token (the whoami call the session
// manager validates against on bootstrap).
func (s *Service) Me(ctx context.Context) (*User, error) {
	var user User
	if err := s.api.Get(ctx, "/users/me", &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateInput carries the editable profile fields.
type UpdateInput struct {
	Name  string `json:"name" validate:"required,min=2,max=100"`
	Email string `json:"email,omitempty" validate:"omitempty,email"`
}

// Update submits a profile edit and returns the refreshed record.
func (s *Service) Update(ctx context.Context, input UpdateInput) (*User, error) {
	if err := validate.Struct(input); err != nil {
		return nil, err
	}
	var user User
	if err := s.api.Put(ctx, "/users/update", input, &user); err != nil {
		return nil, err
	}
	return &user, nil
}
