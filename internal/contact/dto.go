// AngelaMos | 2026
// dto.go

package contact

import (
	"time"
)

type SubmitRequest struct {
	Name    string `json:"name"    validate:"required,max=100"`
	Email   string `json:"email"   validate:"required,email,max=255"`
	Subject string `json:"subject" validate:"max=200"`
	Message string `json:"message" validate:"required,max=5000"`
}

type ContactResponse struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	Subject       string    `json:"subject"`
	Message       string    `json:"message"`
	SubmittedDate time.Time `json:"submitted_date"`
}

type SubmitResponse struct {
	ID      int64  `json:"id"`
	Message string `json:"message"`
}

func ToContactResponse(c *Contact) ContactResponse {
	return ContactResponse{
		ID:            c.ID,
		Name:          c.Name,
		Email:         c.Email,
		Subject:       c.Subject,
		Message:       c.Message,
		SubmittedDate: c.SubmittedDate,
	}
}

func ToContactResponseList(contacts []Contact) []ContactResponse {
	out := make([]ContactResponse, 0, len(contacts))
	for i := range contacts {
		out = append(out, ToContactResponse(&contacts[i]))
	}
	return out
}
