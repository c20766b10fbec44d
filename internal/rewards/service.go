package rewards

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Entry is one points movement in the rewards history.
type Entry struct {
	ID          uuid.UUID `json:"id"`
	Description string    `json:"description"`
	Points      int       `json:"points"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Reward is a redeemable offer.
type Reward struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	PointsCost  int       `json:"pointsCost"`
}

// Summary is the rewards home payload: balance, recent movements, and the
// offers currently redeemable.
type Summary struct {
	Balance int      `json:"balance"`
	History []Entry  `json:"history"`
	Rewards []Reward `json:"rewards"`
}

type apiClient interface {
	Get(ctx context.Context, path string, out any) error
	Post(ctx context.Context, path string, body, out any) error
}

// Service is the pass-through client for the rewards endpoints.
type Service struct {
	api apiClient
}

func NewService(api apiClient) (*Service, error) {
	if api == nil {
		return nil, fmt.Errorf("api client is required")
	}
	return &Service{api: api}, nil
}

func (s *Service) Summary(ctx context.Context) (*Summary, error) {
	var summary Summary
	if err := s.api.Get(ctx, "/rewards", &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

// Redeem exchanges points for the reward; the backend enforces the balance.
func (s *Service) Redeem(ctx context.Context, rewardID uuid.UUID) (*Summary, error) {
	var summary Summary
	if err := s.api.Post(ctx, fmt.Sprintf("/rewards/%s/redeem", rewardID), nil, &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}
