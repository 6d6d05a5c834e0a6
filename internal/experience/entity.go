// AngelaMos | 2026
// entity.go

package experience

import (
	"time"
)

type Experience struct {
	ID              int64     `db:"id"`
	Title           string    `db:"title"`
	Description     string    `db:"description"`
	ImageURL        string    `db:"image_url"`
	Location        string    `db:"location"`
	Duration        string    `db:"duration"`
	Category        string    `db:"category"`
	Price           *float64  `db:"price"`
	IsActive        bool      `db:"is_active"`
	CreatedAt       time.Time `db:"created_at"`
	CreatedByUserID *string   `db:"created_by_user_id"`
}

// HighlightCount is how many experiences the home page shows.
const HighlightCount = 6
