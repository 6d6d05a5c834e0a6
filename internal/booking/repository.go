// AngelaMos | 2026
// repository.go

package booking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/carterperez-dev/tourguide/internal/core"
)

var ErrIllegalTransition = errors.New("illegal booking status transition")

type Repository interface {
	Create(ctx context.Context, b *Booking) error
	GetByID(ctx context.Context, id int64) (*Booking, error)
	ListForUser(ctx context.Context, userID, email string) ([]Booking, error)
	List(ctx context.Context, params ListBookingsParams) ([]BookingWithOwner, int, error)
	Recent(ctx context.Context, limit int) ([]Booking, error)
	UpdateStatus(ctx context.Context, id int64, status string) (string, error)
	Delete(ctx context.Context, id int64) error
	Count(ctx context.Context) (int, error)
}

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

const bookingColumns = `id, hotel_name, property_id, full_name, email, phone,
	check_in_date, check_out_date, number_of_guests, special_requests,
	booking_date, user_id, status`

func (r *repository) Create(ctx context.Context, b *Booking) error {
	query := `
		INSERT INTO bookings (
			hotel_name, property_id, full_name, email, phone, check_in_date,
			check_out_date, number_of_guests, special_requests, user_id, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, booking_date`

	row := r.db.QueryRowxContext(ctx, query,
		b.HotelName,
		b.PropertyID,
		b.FullName,
		b.Email,
		b.Phone,
		b.CheckInDate,
		b.CheckOutDate,
		b.NumberOfGuests,
		b.SpecialRequests,
		b.UserID,
		b.Status,
	)
	if err := row.Scan(&b.ID, &b.BookingDate); err != nil {
		return fmt.Errorf("create booking: %w", err)
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id int64) (*Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`

	var b Booking
	err := r.db.GetContext(ctx, &b, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get booking: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get booking: %w", err)
	}

	return &b, nil
}

// ListForUser returns bookings owned by userID plus any made under email
// before the account existed or while signed out.
func (r *repository) ListForUser(
	ctx context.Context,
	userID, email string,
) ([]Booking, error) {
	query := `SELECT ` + bookingColumns + `
		FROM bookings
		WHERE user_id = $1 OR LOWER(email) = LOWER($2)
		ORDER BY booking_date DESC, id DESC`

	bookings := []Booking{}
	if err := r.db.SelectContext(ctx, &bookings, query, userID, email); err != nil {
		return nil, fmt.Errorf("list user bookings: %w", err)
	}

	return bookings, nil
}

func (r *repository) List(
	ctx context.Context,
	params ListBookingsParams,
) ([]BookingWithOwner, int, error) {
	params.Normalize()

	where := "TRUE"
	var args []any
	if params.Status != "" {
		where = "b.status = $1"
		args = append(args, params.Status)
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM bookings b WHERE ` + where
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count bookings: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT b.id, b.hotel_name, b.property_id, b.full_name, b.email, b.phone,
		       b.check_in_date, b.check_out_date, b.number_of_guests,
		       b.special_requests, b.booking_date, b.user_id, b.status,
		       u.email AS owner_email
		FROM bookings b
		LEFT JOIN users u ON u.id = b.user_id
		WHERE %s
		ORDER BY b.booking_date DESC, b.id DESC
		LIMIT $%d OFFSET $%d`,
		where, len(args)+1, len(args)+2)

	args = append(args, params.PageSize, params.Offset())

	bookings := []BookingWithOwner{}
	if err := r.db.SelectContext(ctx, &bookings, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list bookings: %w", err)
	}

	return bookings, total, nil
}

func (r *repository) Recent(ctx context.Context, limit int) ([]Booking, error) {
	query := `SELECT ` + bookingColumns + `
		FROM bookings
		ORDER BY booking_date DESC, id DESC
		LIMIT $1`

	bookings := []Booking{}
	if err := r.db.SelectContext(ctx, &bookings, query, limit); err != nil {
		return nil, fmt.Errorf("recent bookings: %w", err)
	}

	return bookings, nil
}

// UpdateStatus moves booking id to status and returns the previous
// status, also alongside ErrIllegalTransition. The row is locked for the
// check. Setting the current status again is a no-op.
func (r *repository) UpdateStatus(
	ctx context.Context,
	id int64,
	status string,
) (string, error) {
	var previous string

	err := core.InTx(ctx, r.db, func(tx *sqlx.Tx) error {
		err := tx.GetContext(ctx, &previous,
			`SELECT status FROM bookings WHERE id = $1 FOR UPDATE`, id)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("update booking status: %w", core.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("update booking status: %w", err)
		}

		if previous == status {
			return nil
		}

		if !CanTransition(previous, status) {
			return fmt.Errorf("%s to %s: %w", previous, status, ErrIllegalTransition)
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE bookings SET status = $2 WHERE id = $1`, id, status,
		); err != nil {
			return fmt.Errorf("update booking status: %w", err)
		}

		return nil
	})
	return previous, err
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM bookings WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete booking: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete booking: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("delete booking: %w", core.ErrNotFound)
	}

	return nil
}

func (r *repository) Count(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM bookings`); err != nil {
		return 0, fmt.Errorf("count bookings: %w", err)
	}
	return total, nil
}
