// AngelaMos | 2026
// entity.go

package contact

import (
	"time"
)

type Contact struct {
	ID            int64     `db:"id"`
	Name          string    `db:"name"`
	Email         string    `db:"email"`
	Subject       string    `db:"subject"`
	Message       string    `db:"message"`
	SubmittedDate time.Time `db:"submitted_date"`
}
