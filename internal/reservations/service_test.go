package reservations

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	pkgerrors "github.com/savoria-app/storefront-client/pkg/errors"
)

type stubAPI struct {
	calls int
}

func (s *stubAPI) Get(ctx context.Context, path string, out any) error  { s.calls++; return nil }
func (s *stubAPI) Put(ctx context.Context, path string, body, out any) error {
	s.calls++
	return nil
}
func (s *stubAPI) Post(ctx context.Context, path string, body, out any) error {
	s.calls++
	if typed, ok := out.(*Reservation); ok {
		*typed = Reservation{ID: uuid.New(), Status: "pending"}
	}
	return nil
}

func newTestService(t *testing.T, api *stubAPI) *Service {
	t.Helper()
	svc, err := NewService(api)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	svc.now = func() time.Time {
		return time.Date(2026, 9, 1, 12, 0, 0, 0, time.Local)
	}
	return svc
}

func TestCreateRejectsMissingDateAndTime(t *testing.T) {
	t.Parallel()

	api := &stubAPI{}
	svc := newTestService(t, api)

	cases := []Input{
		{Date: "", Time: "19:30", PartySize: 2},
		{Date: "2026-09-02", Time: "  ", PartySize: 2},
		{Date: "2026-09-02", Time: "19:30", PartySize: 0},
	}
	for _, input := range cases {
		if _, err := svc.Create(context.Background(), input); pkgerrors.CodeOf(err) != pkgerrors.CodeValidation {
			t.Fatalf("input %+v: expected validation error, got %v", input, err)
		}
	}
	if api.calls != 0 {
		t.Fatalf("invalid input must not reach the network, got %d calls", api.calls)
	}
}

func TestCreateRejectsPastSlot(t *testing.T) {
	t.Parallel()

	api := &stubAPI{}
	svc := newTestService(t, api)

	_, err := svc.Create(context.Background(), Input{Date: "2026-08-31", Time: "19:30", PartySize: 2})
	if pkgerrors.CodeOf(err) != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for past slot, got %v", err)
	}
	if api.calls != 0 {
		t.Fatalf("expected no network calls, got %d", api.calls)
	}
}

func TestCreateRejectsUnparseableDate(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, &stubAPI{})

	_, err := svc.Create(context.Background(), Input{Date: "tomorrow", Time: "19:30", PartySize: 2})
	if pkgerrors.CodeOf(err) != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCreateSubmitsValidBooking(t *testing.T) {
	t.Parallel()

	api := &stubAPI{}
	svc := newTestService(t, api)

	reservation, err := svc.Create(context.Background(), Input{Date: "2026-09-02", Time: "19:30", PartySize: 4})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reservation == nil || reservation.Status != "pending" {
		t.Fatalf("unexpected reservation: %+v", reservation)
	}
	if api.calls != 1 {
		t.Fatalf("expected exactly one call, got %d", api.calls)
	}
}
