// AngelaMos | 2026
// dto.go

package property

import (
	"strings"
	"time"
)

type PropertyRequest struct {
	Name          string  `json:"name"            validate:"required,max=200"`
	Description   string  `json:"description"     validate:"required,max=4000"`
	Location      string  `json:"location"        validate:"required,max=100"`
	ImageURL      string  `json:"image_url"       validate:"required,max=2048"`
	PricePerNight float64 `json:"price_per_night" validate:"gte=0,lte=1000000"`
	Rating        float64 `json:"rating"          validate:"gte=0,lte=5"`
	Amenities     string  `json:"amenities"       validate:"max=1000"`
	Address       string  `json:"address"         validate:"max=500"`
	IsActive      *bool   `json:"is_active"`
}

func (r PropertyRequest) apply(p *Property) {
	p.Name = strings.TrimSpace(r.Name)
	p.Description = strings.TrimSpace(r.Description)
	p.Location = strings.TrimSpace(r.Location)
	p.ImageURL = strings.TrimSpace(r.ImageURL)
	p.PricePerNight = r.PricePerNight
	p.Rating = r.Rating
	p.Amenities = strings.TrimSpace(r.Amenities)
	p.Address = strings.TrimSpace(r.Address)
	p.IsActive = true
	if r.IsActive != nil {
		p.IsActive = *r.IsActive
	}
}

type ImportRequest struct {
	Properties []PropertyRequest `json:"properties" validate:"required,min=1,max=500,dive"`
}

type ImportResponse struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}

type PropertyResponse struct {
	ID              int64     `json:"id"`
	Name            string    `json:"name"`
	Description     string    `json:"description"`
	Location        string    `json:"location"`
	ImageURL        string    `json:"image_url"`
	PricePerNight   float64   `json:"price_per_night"`
	Rating          float64   `json:"rating"`
	Amenities       []string  `json:"amenities"`
	Address         string    `json:"address"`
	IsActive        bool      `json:"is_active"`
	CreatedAt       time.Time `json:"created_at"`
	CreatedByUserID *string   `json:"created_by_user_id,omitempty"`
}

func ToPropertyResponse(p *Property) PropertyResponse {
	return PropertyResponse{
		ID:              p.ID,
		Name:            p.Name,
		Description:     p.Description,
		Location:        p.Location,
		ImageURL:        p.ImageURL,
		PricePerNight:   p.PricePerNight,
		Rating:          p.Rating,
		Amenities:       p.AmenityList(),
		Address:         p.Address,
		IsActive:        p.IsActive,
		CreatedAt:       p.CreatedAt,
		CreatedByUserID: p.CreatedByUserID,
	}
}

func ToPropertyResponseList(props []Property) []PropertyResponse {
	out := make([]PropertyResponse, 0, len(props))
	for i := range props {
		out = append(out, ToPropertyResponse(&props[i]))
	}
	return out
}
