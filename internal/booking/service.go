// AngelaMos | 2026
// service.go

package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel/attribute"

	"github.com/carterperez-dev/tourguide/internal/core"
	"github.com/carterperez-dev/tourguide/internal/middleware"
	"github.com/carterperez-dev/tourguide/internal/property"
)

const RecentCount = 5

var phonePattern = regexp.MustCompile(`^\+?[0-9 ()\-.]{5,30}$`)

// earliestZoneOffset is how far behind UTC the westmost time zone runs.
// A check-in is in the past only once no zone is still on that date.
const earliestZoneOffset = 12 * time.Hour

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	err := v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	})
	if err != nil {
		panic(fmt.Sprintf("register phone validation: %v", err))
	}
	return v
}

// PropertyFinder resolves a bookable property. Missing and inactive
// properties both report core.ErrNotFound.
type PropertyFinder interface {
	GetActive(ctx context.Context, id int64) (*property.Property, error)
}

// EmailResolver looks up the account email of a signed-in user.
type EmailResolver interface {
	EmailOf(ctx context.Context, userID string) (string, error)
}

type Service struct {
	repo       Repository
	properties PropertyFinder
	emails     EmailResolver
	validate   *validator.Validate
	now        func() time.Time
}

func NewService(
	repo Repository,
	properties PropertyFinder,
	emails EmailResolver,
) *Service {
	return &Service{
		repo:       repo,
		properties: properties,
		emails:     emails,
		validate:   newValidator(),
		now:        time.Now,
	}
}

// Create records a Pending booking. The principal may be nil for an
// anonymous guest.
func (s *Service) Create(
	ctx context.Context,
	principal *middleware.Principal,
	req CreateBookingRequest,
) (*Booking, error) {
	req.HotelName = strings.TrimSpace(req.HotelName)
	req.FullName = strings.TrimSpace(req.FullName)
	req.Email = strings.TrimSpace(req.Email)
	req.Phone = strings.TrimSpace(req.Phone)

	if err := s.validate.Struct(req); err != nil {
		return nil, core.ValidationError(core.FormatValidationError(err))
	}

	checkIn, err := time.Parse(dateLayout, req.CheckInDate)
	if err != nil {
		return nil, core.ValidationError("Check-in date is invalid.")
	}
	checkOut, err := time.Parse(dateLayout, req.CheckOutDate)
	if err != nil {
		return nil, core.ValidationError("Check-out date is invalid.")
	}

	if !checkOut.After(checkIn) {
		return nil, core.ValidationError("Check-out date must be after check-in date.")
	}

	earliest := s.now().UTC().Add(-earliestZoneOffset)
	today := time.Date(earliest.Year(), earliest.Month(), earliest.Day(), 0, 0, 0, 0, time.UTC)
	if checkIn.Before(today) {
		return nil, core.ValidationError("Check-in date cannot be in the past.")
	}

	b := &Booking{
		HotelName:      req.HotelName,
		FullName:       req.FullName,
		Email:          req.Email,
		Phone:          req.Phone,
		CheckInDate:    checkIn,
		CheckOutDate:   checkOut,
		NumberOfGuests: req.NumberOfGuests,
		Status:         StatusPending,
	}

	if req.PropertyID != nil {
		p, err := s.properties.GetActive(ctx, *req.PropertyID)
		if errors.Is(err, core.ErrNotFound) {
			return nil, core.ValidationError("The selected property is not available.")
		}
		if err != nil {
			return nil, err
		}
		b.PropertyID = &p.ID
		b.HotelName = p.Name
	}

	if b.HotelName == "" {
		return nil, core.ValidationError("Please choose a hotel.")
	}

	if special := strings.TrimSpace(req.SpecialRequests); special != "" {
		b.SpecialRequests = &special
	}

	if principal != nil && principal.UserID != "" {
		uid := principal.UserID
		b.UserID = &uid
	}

	if err := s.repo.Create(ctx, b); err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "booking created",
		"booking_id", b.ID,
		"property_id", b.PropertyID,
		"authenticated", b.UserID != nil,
	)

	return b, nil
}

// ListOwn returns the caller's bookings, including ones placed under the
// account email without signing in.
func (s *Service) ListOwn(
	ctx context.Context,
	principal *middleware.Principal,
) ([]Booking, error) {
	if principal == nil || principal.UserID == "" {
		return nil, core.UnauthorizedError("authentication required")
	}

	email, err := s.emails.EmailOf(ctx, principal.UserID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, core.UnauthorizedError("account no longer exists")
		}
		return nil, err
	}

	return s.repo.ListForUser(ctx, principal.UserID, email)
}

func (s *Service) ListAll(
	ctx context.Context,
	params ListBookingsParams,
) ([]BookingWithOwner, int, error) {
	if params.Status != "" && !IsKnownStatus(params.Status) {
		return nil, 0, core.ValidationError(
			fmt.Sprintf("Unknown booking status %q.", params.Status),
		)
	}
	return s.repo.List(ctx, params)
}

// UpdateStatus applies an admin status change. A missing booking is not
// an error; the returned change reports Changed false.
func (s *Service) UpdateStatus(
	ctx context.Context,
	principal *middleware.Principal,
	id int64,
	status string,
) (*StatusChange, error) {
	if !middleware.Authorize(principal, middleware.RoleAdmin) {
		return nil, core.ForbiddenError("admin role required")
	}

	if !IsKnownStatus(status) {
		return nil, core.ValidationError(
			fmt.Sprintf("Unknown booking status %q.", status),
		)
	}

	previous, err := s.repo.UpdateStatus(ctx, id, status)
	switch {
	case errors.Is(err, core.ErrNotFound):
		return &StatusChange{
			BookingID: id,
			To:        status,
			Message:   "Booking not found.",
		}, nil
	case errors.Is(err, ErrIllegalTransition):
		return nil, core.ConflictError(
			fmt.Sprintf("Cannot change booking status from %s to %s.", previous, status),
		)
	case err != nil:
		return nil, err
	}

	change := &StatusChange{
		BookingID: id,
		From:      previous,
		To:        status,
		Changed:   previous != status,
	}

	if !change.Changed {
		change.Message = fmt.Sprintf("Booking is already %s.", status)
		return change, nil
	}

	change.Message = fmt.Sprintf("Booking status updated to %s.", status)

	slog.InfoContext(ctx, "booking status changed",
		"booking_id", id,
		"from", previous,
		"to", status,
		"user_id", principal.UserID,
	)
	core.AddSpanEvent(ctx, "booking.status_changed",
		attribute.Int64("booking.id", id),
		attribute.String("booking.status.from", previous),
		attribute.String("booking.status.to", status),
	)

	return change, nil
}

func (s *Service) Delete(
	ctx context.Context,
	principal *middleware.Principal,
	id int64,
) (bool, error) {
	if !middleware.Authorize(principal, middleware.RoleAdmin) {
		return false, core.ForbiddenError("admin role required")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return false, nil
		}
		return false, err
	}

	slog.InfoContext(ctx, "booking deleted",
		"booking_id", id,
		"user_id", principal.UserID,
	)

	return true, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Booking, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Recent(ctx context.Context) ([]Booking, error) {
	return s.repo.Recent(ctx, RecentCount)
}

func (s *Service) Count(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}
