// AngelaMos | 2026
// dto.go

package booking

import (
	"time"
)

const dateLayout = "2006-01-02"

type CreateBookingRequest struct {
	PropertyID      *int64 `json:"property_id,omitempty" validate:"omitempty,gt=0"`
	HotelName       string `json:"hotel_name"            validate:"max=200"`
	FullName        string `json:"full_name"             validate:"required,max=100"`
	Email           string `json:"email"                 validate:"required,email,max=255"`
	Phone           string `json:"phone"                 validate:"required,phone"`
	CheckInDate     string `json:"check_in_date"         validate:"required,datetime=2006-01-02"`
	CheckOutDate    string `json:"check_out_date"        validate:"required,datetime=2006-01-02"`
	NumberOfGuests  int    `json:"number_of_guests"      validate:"gte=1,lte=10"`
	SpecialRequests string `json:"special_requests"      validate:"max=1000"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

type ListBookingsParams struct {
	Page     int
	PageSize int
	Status   string
}

func (p *ListBookingsParams) Normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = 20
	}
	if p.PageSize > 100 {
		p.PageSize = 100
	}
}

func (p *ListBookingsParams) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// StatusChange is the outcome of an admin status update.
type StatusChange struct {
	BookingID int64  `json:"booking_id"`
	From      string `json:"from"`
	To        string `json:"to"`
	Changed   bool   `json:"changed"`
	Message   string `json:"message"`
}

type BookingResponse struct {
	ID              int64     `json:"id"`
	HotelName       string    `json:"hotel_name"`
	PropertyID      *int64    `json:"property_id"`
	FullName        string    `json:"full_name"`
	Email           string    `json:"email"`
	Phone           string    `json:"phone"`
	CheckInDate     string    `json:"check_in_date"`
	CheckOutDate    string    `json:"check_out_date"`
	Nights          int       `json:"nights"`
	NumberOfGuests  int       `json:"number_of_guests"`
	SpecialRequests *string   `json:"special_requests,omitempty"`
	Status          string    `json:"status"`
	BookingDate     time.Time `json:"booking_date"`
	UserID          *string   `json:"user_id,omitempty"`
	OwnerEmail      *string   `json:"owner_email,omitempty"`
}

type CreateBookingResponse struct {
	Booking BookingResponse `json:"booking"`
	Message string          `json:"message"`
}

func ToBookingResponse(b *Booking) BookingResponse {
	return BookingResponse{
		ID:              b.ID,
		HotelName:       b.HotelName,
		PropertyID:      b.PropertyID,
		FullName:        b.FullName,
		Email:           b.Email,
		Phone:           b.Phone,
		CheckInDate:     b.CheckInDate.Format(dateLayout),
		CheckOutDate:    b.CheckOutDate.Format(dateLayout),
		Nights:          b.Nights(),
		NumberOfGuests:  b.NumberOfGuests,
		SpecialRequests: b.SpecialRequests,
		Status:          b.Status,
		BookingDate:     b.BookingDate,
		UserID:          b.UserID,
	}
}

func ToBookingResponseList(bookings []Booking) []BookingResponse {
	out := make([]BookingResponse, 0, len(bookings))
	for i := range bookings {
		out = append(out, ToBookingResponse(&bookings[i]))
	}
	return out
}

func ToOwnedResponseList(bookings []BookingWithOwner) []BookingResponse {
	out := make([]BookingResponse, 0, len(bookings))
	for i := range bookings {
		resp := ToBookingResponse(&bookings[i].Booking)
		resp.OwnerEmail = bookings[i].OwnerEmail
		out = append(out, resp)
	}
	return out
}
