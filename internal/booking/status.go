// AngelaMos | 2026
// status.go

package booking

const (
	StatusPending   = "Pending"
	StatusConfirmed = "Confirmed"
	StatusCancelled = "Cancelled"
	StatusCompleted = "Completed"
)

var transitions = map[string][]string{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusCompleted, StatusCancelled},
	StatusCancelled: nil,
	StatusCompleted: nil,
}

func IsKnownStatus(status string) bool {
	_, ok := transitions[status]
	return ok
}

// CanTransition reports whether a booking in from may move to to.
// Cancelled and Completed are terminal.
func CanTransition(from, to string) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
