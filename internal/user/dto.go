// AngelaMos | 2026
// dto.go

package user

import (
	"time"
)

type UpdateUserRequest struct {
	FullName    *string `json:"full_name,omitempty"    validate:"omitempty,min=1,max=100"`
	PhoneNumber *string `json:"phone_number,omitempty" validate:"omitempty,min=5,max=30"`
}

type UserResponse struct {
	ID                string    `json:"id"`
	Email             string    `json:"email"`
	FullName          string    `json:"full_name"`
	PhoneNumber       string    `json:"phone_number"`
	ProfilePictureURL *string   `json:"profile_picture_url,omitempty"`
	Roles             []string  `json:"roles"`
	CreatedAt         time.Time `json:"created_at"`
}

type ToggleAdminResponse struct {
	User    UserResponse `json:"user"`
	IsAdmin bool         `json:"is_admin"`
	Message string       `json:"message"`
}

type ListUsersParams struct {
	Page     int    `json:"page"`
	PageSize int    `json:"page_size"`
	Search   string `json:"search"`
	Role     string `json:"role"`
}

func (p *ListUsersParams) Normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = 20
	}
	if p.PageSize > 100 {
		p.PageSize = 100
	}
}

func (p *ListUsersParams) Offset() int {
	return (p.Page - 1) * p.PageSize
}

func ToUserResponse(u *User) UserResponse {
	roles := u.Roles
	if roles == nil {
		roles = []string{}
	}

	return UserResponse{
		ID:                u.ID,
		Email:             u.Email,
		FullName:          u.FullName,
		PhoneNumber:       u.PhoneNumber,
		ProfilePictureURL: u.ProfilePictureURL,
		Roles:             roles,
		CreatedAt:         u.CreatedAt,
	}
}

func ToUserResponseList(users []User) []UserResponse {
	responses := make([]UserResponse, 0, len(users))
	for _, u := range users {
		responses = append(responses, ToUserResponse(&u))
	}
	return responses
}
