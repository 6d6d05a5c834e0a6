// AngelaMos | 2026
// service_test.go

package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/carterperez-dev/tourguide/internal/core"
	"github.com/carterperez-dev/tourguide/internal/middleware"
	"github.com/carterperez-dev/tourguide/internal/property"
)

type memRepo struct {
	Repository
	bookings map[int64]*Booking
	nextID   int64
	creates  int
	updates  int
}

func newMemRepo() *memRepo {
	return &memRepo{bookings: make(map[int64]*Booking)}
}

func (r *memRepo) Create(_ context.Context, b *Booking) error {
	r.creates++
	r.nextID++
	b.ID = r.nextID
	b.BookingDate = time.Now()
	cp := *b
	r.bookings[b.ID] = &cp
	return nil
}

func (r *memRepo) ListForUser(_ context.Context, userID, email string) ([]Booking, error) {
	out := []Booking{}
	for id := int64(r.nextID); id > 0; id-- {
		b, ok := r.bookings[id]
		if !ok {
			continue
		}
		if (b.UserID != nil && *b.UserID == userID) || strings.EqualFold(b.Email, email) {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (r *memRepo) UpdateStatus(_ context.Context, id int64, status string) (string, error) {
	r.updates++
	b, ok := r.bookings[id]
	if !ok {
		return "", core.ErrNotFound
	}
	previous := b.Status
	if previous == status {
		return previous, nil
	}
	if !CanTransition(previous, status) {
		return previous, ErrIllegalTransition
	}
	b.Status = status
	return previous, nil
}

func (r *memRepo) Delete(_ context.Context, id int64) error {
	if _, ok := r.bookings[id]; !ok {
		return core.ErrNotFound
	}
	delete(r.bookings, id)
	return nil
}

type fakeProperties map[int64]*property.Property

func (f fakeProperties) GetActive(_ context.Context, id int64) (*property.Property, error) {
	p, ok := f[id]
	if !ok || !p.IsActive {
		return nil, fmt.Errorf("get active property: %w", core.ErrNotFound)
	}
	return p, nil
}

type fakeEmails map[string]string

func (f fakeEmails) EmailOf(_ context.Context, userID string) (string, error) {
	email, ok := f[userID]
	if !ok {
		return "", core.ErrNotFound
	}
	return email, nil
}

var (
	fixedNow = time.Date(2026, 6, 10, 15, 0, 0, 0, time.UTC)

	guest = &middleware.Principal{UserID: "user-1", Roles: []string{"User"}}
	admin = &middleware.Principal{UserID: "admin-1", Roles: []string{"User", "Admin"}}
)

func newTestService(repo Repository) *Service {
	svc := NewService(
		repo,
		fakeProperties{
			1: {ID: 1, Name: "Harbour View Hotel", IsActive: true},
			2: {ID: 2, Name: "Closed Lodge", IsActive: false},
		},
		fakeEmails{"user-1": "ada@example.com"},
	)
	svc.now = func() time.Time { return fixedNow }
	return svc
}

func validRequest() CreateBookingRequest {
	return CreateBookingRequest{
		HotelName:      "Seaside Inn",
		FullName:       "Ada Traveller",
		Email:          "ada@example.com",
		Phone:          "+44 20 7946 0000",
		CheckInDate:    "2026-06-10",
		CheckOutDate:   "2026-06-13",
		NumberOfGuests: 2,
	}
}

func TestCreateRejectsInvalidInputWithoutPersisting(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*CreateBookingRequest)
		want   string
	}{
		{
			name:   "zero guests",
			mutate: func(r *CreateBookingRequest) { r.NumberOfGuests = 0 },
			want:   "number_of_guests",
		},
		{
			name:   "too many guests",
			mutate: func(r *CreateBookingRequest) { r.NumberOfGuests = 11 },
			want:   "number_of_guests",
		},
		{
			name:   "bad phone",
			mutate: func(r *CreateBookingRequest) { r.Phone = "call me maybe" },
			want:   "valid phone number",
		},
		{
			name:   "bad email",
			mutate: func(r *CreateBookingRequest) { r.Email = "ada" },
			want:   "email",
		},
		{
			name:   "bad date format",
			mutate: func(r *CreateBookingRequest) { r.CheckInDate = "10/06/2026" },
			want:   "check_in_date",
		},
		{
			name:   "checkout before checkin",
			mutate: func(r *CreateBookingRequest) { r.CheckOutDate = "2026-06-10" },
			want:   "Check-out date must be after check-in date.",
		},
		{
			name: "checkin in the past",
			mutate: func(r *CreateBookingRequest) {
				r.CheckInDate = "2026-06-09"
			},
			want: "Check-in date cannot be in the past.",
		},
		{
			name:   "no hotel",
			mutate: func(r *CreateBookingRequest) { r.HotelName = "  " },
			want:   "Please choose a hotel.",
		},
		{
			name: "inactive property",
			mutate: func(r *CreateBookingRequest) {
				id := int64(2)
				r.PropertyID = &id
			},
			want: "The selected property is not available.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newMemRepo()
			svc := newTestService(repo)

			req := validRequest()
			tt.mutate(&req)

			_, err := svc.Create(context.Background(), nil, req)
			if !errors.Is(err, core.ErrInvalidInput) {
				t.Fatalf("err = %v, want validation error", err)
			}

			appErr, _ := core.AsAppError(err)
			if !strings.Contains(appErr.Message, tt.want) {
				t.Errorf("message = %q, want it to mention %q", appErr.Message, tt.want)
			}
			if repo.creates != 0 {
				t.Errorf("repository Create called %d times", repo.creates)
			}
		})
	}
}

func TestCreateAnonymousBooking(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(repo)

	b, err := svc.Create(context.Background(), nil, validRequest())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if b.Status != StatusPending {
		t.Errorf("status = %q, want Pending", b.Status)
	}
	if b.UserID != nil {
		t.Errorf("anonymous booking owned by %q", *b.UserID)
	}
	if b.Nights() != 3 {
		t.Errorf("nights = %d, want 3", b.Nights())
	}
	if b.SpecialRequests != nil {
		t.Error("blank special requests should be stored as null")
	}
}

func TestCreateAcceptsTodayInZonesBehindUTC(t *testing.T) {
	tests := []struct {
		name    string
		now     time.Time
		checkIn string
		ok      bool
	}{
		{"evening west of UTC", time.Date(2026, 6, 11, 2, 0, 0, 0, time.UTC), "2026-06-10", true},
		{"last zone still on date", time.Date(2026, 6, 11, 11, 59, 0, 0, time.UTC), "2026-06-10", true},
		{"every zone past date", time.Date(2026, 6, 11, 12, 1, 0, 0, time.UTC), "2026-06-10", false},
		{"two days back", time.Date(2026, 6, 11, 2, 0, 0, 0, time.UTC), "2026-06-09", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(newMemRepo())
			svc.now = func() time.Time { return tt.now }

			req := validRequest()
			req.CheckInDate = tt.checkIn
			req.CheckOutDate = "2026-06-14"

			_, err := svc.Create(context.Background(), nil, req)
			if tt.ok && err != nil {
				t.Fatalf("create: %v", err)
			}
			if !tt.ok && !errors.Is(err, core.ErrInvalidInput) {
				t.Fatalf("err = %v, want validation error", err)
			}
		})
	}
}

func TestNewValidatorKnowsPhoneTag(t *testing.T) {
	v := newValidator()

	type form struct {
		Phone string `validate:"phone"`
	}
	if err := v.Struct(form{Phone: "+44 20 7946 0000"}); err != nil {
		t.Fatalf("valid phone rejected: %v", err)
	}
	if err := v.Struct(form{Phone: "call me"}); err == nil {
		t.Fatal("invalid phone accepted")
	}
}

func TestCreateWithPropertyAndPrincipal(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(repo)

	req := validRequest()
	id := int64(1)
	req.PropertyID = &id
	req.HotelName = "Ignored"
	req.SpecialRequests = " late arrival "

	b, err := svc.Create(context.Background(), guest, req)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if b.HotelName != "Harbour View Hotel" {
		t.Errorf("hotel = %q, want property name", b.HotelName)
	}
	if b.PropertyID == nil || *b.PropertyID != 1 {
		t.Errorf("property id = %v", b.PropertyID)
	}
	if b.UserID == nil || *b.UserID != "user-1" {
		t.Errorf("owner = %v, want user-1", b.UserID)
	}
	if b.SpecialRequests == nil || *b.SpecialRequests != "late arrival" {
		t.Errorf("special requests = %v", b.SpecialRequests)
	}
}

func TestListOwnMatchesUserAndEmail(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	anon := validRequest()
	anon.Email = "ADA@example.com"
	if _, err := svc.Create(ctx, nil, anon); err != nil {
		t.Fatalf("anonymous create: %v", err)
	}

	owned := validRequest()
	owned.Email = "someone-else@example.com"
	if _, err := svc.Create(ctx, guest, owned); err != nil {
		t.Fatalf("owned create: %v", err)
	}

	stranger := validRequest()
	stranger.Email = "stranger@example.com"
	if _, err := svc.Create(ctx, nil, stranger); err != nil {
		t.Fatalf("stranger create: %v", err)
	}

	mine, err := svc.ListOwn(ctx, guest)
	if err != nil {
		t.Fatalf("list own: %v", err)
	}
	if len(mine) != 2 {
		t.Fatalf("got %d bookings, want 2", len(mine))
	}
	if mine[0].ID < mine[1].ID {
		t.Error("bookings should be newest first")
	}

	if _, err := svc.ListOwn(ctx, nil); !errors.Is(err, core.ErrUnauthorized) {
		t.Errorf("anonymous list err = %v", err)
	}
}

func TestUpdateStatusRequiresAdmin(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	b, err := svc.Create(ctx, guest, validRequest())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	for _, p := range []*middleware.Principal{nil, guest} {
		if _, err := svc.UpdateStatus(ctx, p, b.ID, StatusConfirmed); !errors.Is(err, core.ErrForbidden) {
			t.Fatalf("err = %v, want forbidden", err)
		}
	}

	if repo.updates != 0 {
		t.Fatal("repository touched by a non-admin")
	}
	if repo.bookings[b.ID].Status != StatusPending {
		t.Fatalf("status = %q, want Pending", repo.bookings[b.ID].Status)
	}

	if _, err := svc.Delete(ctx, guest, b.ID); !errors.Is(err, core.ErrForbidden) {
		t.Fatalf("delete err = %v, want forbidden", err)
	}
}

func TestUpdateStatusWorkflow(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	b, err := svc.Create(ctx, nil, validRequest())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	change, err := svc.UpdateStatus(ctx, admin, b.ID, StatusConfirmed)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if !change.Changed || change.From != StatusPending || change.To != StatusConfirmed {
		t.Fatalf("change = %+v", change)
	}

	again, err := svc.UpdateStatus(ctx, admin, b.ID, StatusConfirmed)
	if err != nil {
		t.Fatalf("repeat: %v", err)
	}
	if again.Changed {
		t.Error("same status must be a no-op")
	}

	if _, err := svc.UpdateStatus(ctx, admin, b.ID, StatusPending); !errors.Is(err, core.ErrConflict) {
		t.Fatalf("back to pending err = %v, want conflict", err)
	}

	if _, err := svc.UpdateStatus(ctx, admin, b.ID, "Teleported"); !errors.Is(err, core.ErrInvalidInput) {
		t.Fatalf("unknown status err = %v, want validation", err)
	}

	missing, err := svc.UpdateStatus(ctx, admin, 999, StatusCancelled)
	if err != nil {
		t.Fatalf("missing booking should be lenient: %v", err)
	}
	if missing.Changed {
		t.Error("missing booking reported a change")
	}
}

func TestDeleteIsLenient(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	b, err := svc.Create(ctx, nil, validRequest())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	deleted, err := svc.Delete(ctx, admin, b.ID)
	if err != nil || !deleted {
		t.Fatalf("delete = %v, %v", deleted, err)
	}

	deleted, err = svc.Delete(ctx, admin, b.ID)
	if err != nil || deleted {
		t.Fatalf("second delete = %v, %v", deleted, err)
	}
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to string
		want     bool
	}{
		{StatusPending, StatusConfirmed, true},
		{StatusPending, StatusCancelled, true},
		{StatusPending, StatusCompleted, false},
		{StatusConfirmed, StatusCompleted, true},
		{StatusConfirmed, StatusCancelled, true},
		{StatusConfirmed, StatusPending, false},
		{StatusCancelled, StatusConfirmed, false},
		{StatusCancelled, StatusPending, false},
		{StatusCompleted, StatusCancelled, false},
		{"Unknown", StatusConfirmed, false},
	}

	for _, tt := range tests {
		if got := CanTransition(tt.from, tt.to); got != tt.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}
