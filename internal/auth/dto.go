// AngelaMos | 2026
// dto.go

package auth

import (
	"time"
)

// Login and registration bodies carry no validate tags: their checks run
// in a fixed order with fixed messages inside the service.
type LoginRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	RememberMe bool   `json:"remember_me"`
	ReturnURL  string `json:"return_url"`
}

type RegisterRequest struct {
	FullName        string `json:"full_name"`
	Email           string `json:"email"`
	PhoneNumber     string `json:"phone_number"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
	ReturnURL       string `json:"return_url"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type TokenResponse struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	TokenType    string    `json:"token_type"`
	ExpiresIn    int       `json:"expires_in"`
	ExpiresAt    time.Time `json:"expires_at"`
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

type AuthResponse struct {
	User       UserResponse  `json:"user"`
	Tokens     TokenResponse `json:"tokens"`
	RedirectTo string        `json:"redirect_to"`
}

func ToUserResponse(u *UserInfo) UserResponse {
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

func toAuthResponse(s *Session) *AuthResponse {
	return &AuthResponse{
		User: ToUserResponse(s.User),
		Tokens: TokenResponse{
			AccessToken:  s.AccessToken,
			RefreshToken: s.RefreshToken,
			TokenType:    "Bearer",
			ExpiresIn:    int(time.Until(s.AccessExpiry).Seconds()),
			ExpiresAt:    s.AccessExpiry,
		},
		RedirectTo: s.RedirectTo,
	}
}
