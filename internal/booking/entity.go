// AngelaMos | 2026
// entity.go

package booking

import (
	"time"
)

type Booking struct {
	ID              int64     `db:"id"`
	HotelName       string    `db:"hotel_name"`
	PropertyID      *int64    `db:"property_id"`
	FullName        string    `db:"full_name"`
	Email           string    `db:"email"`
	Phone           string    `db:"phone"`
	CheckInDate     time.Time `db:"check_in_date"`
	CheckOutDate    time.Time `db:"check_out_date"`
	NumberOfGuests  int       `db:"number_of_guests"`
	SpecialRequests *string   `db:"special_requests"`
	BookingDate     time.Time `db:"booking_date"`
	UserID          *string   `db:"user_id"`
	Status          string    `db:"status"`
}

// BookingWithOwner is a booking joined with its owning account's email,
// for the admin listing.
type BookingWithOwner struct {
	Booking
	OwnerEmail *string `db:"owner_email"`
}

// Nights is the length of the stay in whole days.
func (b *Booking) Nights() int {
	return int(b.CheckOutDate.Sub(b.CheckInDate).Hours() / 24)
}
