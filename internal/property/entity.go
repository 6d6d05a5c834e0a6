// AngelaMos | 2026
// entity.go

package property

import (
	"strings"
	"time"
)

type Property struct {
	ID              int64     `db:"id"`
	Name            string    `db:"name"`
	Description     string    `db:"description"`
	Location        string    `db:"location"`
	ImageURL        string    `db:"image_url"`
	PricePerNight   float64   `db:"price_per_night"`
	Rating          float64   `db:"rating"`
	Amenities       string    `db:"amenities"`
	Address         string    `db:"address"`
	IsActive        bool      `db:"is_active"`
	CreatedAt       time.Time `db:"created_at"`
	CreatedByUserID *string   `db:"created_by_user_id"`
}

// AmenityList splits the comma separated amenities column.
func (p *Property) AmenityList() []string {
	out := []string{}
	for _, a := range strings.Split(p.Amenities, ",") {
		if a = strings.TrimSpace(a); a != "" {
			out = append(out, a)
		}
	}
	return out
}
