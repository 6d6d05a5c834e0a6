// AngelaMos | 2026
// dto.go

package experience

import (
	"strings"
	"time"
)

type ExperienceRequest struct {
	Title       string   `json:"title"       validate:"required,max=200"`
	Description string   `json:"description" validate:"required,max=4000"`
	ImageURL    string   `json:"image_url"   validate:"required,max=2048"`
	Location    string   `json:"location"    validate:"required,max=100"`
	Duration    string   `json:"duration"    validate:"max=50"`
	Category    string   `json:"category"    validate:"required,max=50"`
	Price       *float64 `json:"price"       validate:"omitempty,gte=0,lte=1000000"`
	IsActive    *bool    `json:"is_active"`
}

func (r ExperienceRequest) apply(e *Experience) {
	e.Title = strings.TrimSpace(r.Title)
	e.Description = strings.TrimSpace(r.Description)
	e.ImageURL = strings.TrimSpace(r.ImageURL)
	e.Location = strings.TrimSpace(r.Location)
	e.Duration = strings.TrimSpace(r.Duration)
	e.Category = strings.TrimSpace(r.Category)
	e.Price = r.Price
	e.IsActive = true
	if r.IsActive != nil {
		e.IsActive = *r.IsActive
	}
}

type ImportRequest struct {
	Experiences []ExperienceRequest `json:"experiences" validate:"required,min=1,max=500,dive"`
}

type ImportResponse struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}

type ExperienceResponse struct {
	ID              int64     `json:"id"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	ImageURL        string    `json:"image_url"`
	Location        string    `json:"location"`
	Duration        string    `json:"duration"`
	Category        string    `json:"category"`
	Price           *float64  `json:"price"`
	IsActive        bool      `json:"is_active"`
	CreatedAt       time.Time `json:"created_at"`
	CreatedByUserID *string   `json:"created_by_user_id,omitempty"`
}

func ToExperienceResponse(e *Experience) ExperienceResponse {
	return ExperienceResponse{
		ID:              e.ID,
		Title:           e.Title,
		Description:     e.Description,
		ImageURL:        e.ImageURL,
		Location:        e.Location,
		Duration:        e.Duration,
		Category:        e.Category,
		Price:           e.Price,
		IsActive:        e.IsActive,
		CreatedAt:       e.CreatedAt,
		CreatedByUserID: e.CreatedByUserID,
	}
}

func ToExperienceResponseList(exps []Experience) []ExperienceResponse {
	out := make([]ExperienceResponse, 0, len(exps))
	for i := range exps {
		out = append(out, ToExperienceResponse(&exps[i]))
	}
	return out
}

type HomeResponse struct {
	Experiences []ExperienceResponse `json:"experiences"`
}
