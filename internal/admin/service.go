// AngelaMos | 2026
// service.go

package admin

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/carterperez-dev/tourguide/internal/booking"
)

// Counter is satisfied by every catalog and workflow service that the
// dashboard totals.
type Counter interface {
	Count(ctx context.Context) (int, error)
}

type RecentBookings interface {
	Recent(ctx context.Context) ([]booking.Booking, error)
}

type Sources struct {
	Bookings    Counter
	Recent      RecentBookings
	Contacts    Counter
	Properties  Counter
	Experiences Counter
	Users       Counter
}

type Service struct {
	src Sources
}

func NewService(src Sources) *Service {
	return &Service{src: src}
}

// Dashboard gathers the totals concurrently. Any failing source fails the
// whole summary.
func (s *Service) Dashboard(ctx context.Context) (*DashboardStats, error) {
	var (
		stats  DashboardStats
		recent []booking.Booking
	)

	g, gctx := errgroup.WithContext(ctx)

	count := func(name string, c Counter, dst *int) {
		g.Go(func() error {
			n, err := c.Count(gctx)
			if err != nil {
				return fmt.Errorf("count %s: %w", name, err)
			}
			*dst = n
			return nil
		})
	}

	count("bookings", s.src.Bookings, &stats.TotalBookings)
	count("contacts", s.src.Contacts, &stats.TotalContacts)
	count("properties", s.src.Properties, &stats.TotalProperties)
	count("experiences", s.src.Experiences, &stats.TotalExperiences)
	count("users", s.src.Users, &stats.TotalUsers)

	g.Go(func() error {
		var err error
		recent, err = s.src.Recent.Recent(gctx)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	stats.RecentBookings = booking.ToBookingResponseList(recent)
	return &stats, nil
}
