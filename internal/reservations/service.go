package reservations

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	pkgerrors "github.com/savoria-app/storefront-client/pkg/errors"
	"github.com/savoria-app/storefront-client/pkg/validate"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

// Reservation is one table booking for the signed-in account.
type Reservation struct {
	ID        uuid.UUID `json:"id"`
	Date      string    `json:"date"`
	Time      string    `json:"time"`
	PartySize int       `json:"partySize"`
	Notes     string    `json:"notes,omitempty"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

type apiClient interface {
	Get(ctx context.Context, path string, out any) error
	Post(ctx context.Context, path string, body, out any) error
	Put(ctx context.Context, path string, body, out any) error
}

// Service manages table reservations through the backend.
type Service struct {
	api apiClient
	now func() time.Time
}

func NewService(api apiClient) (*Service, error) {
	if api == nil {
		return nil, fmt.Errorf("api client is required")
	}
	return &Service{api: api, now: time.Now}, nil
}

// Input is the booking form. Date and time are validated locally before any
// network call is attempted.
type Input struct {
	Date      string `json:"date" validate:"required"`
	Time      string `json:"time" validate:"required"`
	PartySize int    `json:"partySize" validate:"required,min=1,max=20"`
	Notes     string `json:"notes,omitempty" validate:"omitempty,max=500"`
}

func (s *Service) Create(ctx context.Context, input Input) (*Reservation, error) {
	input.Date = strings.TrimSpace(input.Date)
	input.Time = strings.TrimSpace(input.Time)
	if err := validate.Struct(input); err != nil {
		return nil, err
	}

	when, err := time.ParseInLocation(dateLayout+" "+timeLayout, input.Date+" "+input.Time, time.Local)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "date or time is invalid")
	}
	if when.Before(s.now()) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reservation must be in the future")
	}

	var reservation Reservation
	if err := s.api.Post(ctx, "/reservations/add", input, &reservation); err != nil {
		return nil, err
	}
	return &reservation, nil
}

func (s *Service) List(ctx context.Context) ([]Reservation, error) {
	var items []Reservation
	if err := s.api.Get(ctx, "/reservations", &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Service) Cancel(ctx context.Context, id uuid.UUID) error {
	return s.api.Put(ctx, fmt.Sprintf("/reservations/%s/cancel", id), nil, nil)
}
