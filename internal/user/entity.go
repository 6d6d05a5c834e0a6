// AngelaMos | 2026
// entity.go

package user

import (
	"slices"
	"time"
)

type User struct {
	ID                string    `db:"id"`
	Email             string    `db:"email"`
	PasswordHash      *string   `db:"password_hash"`
	FullName          string    `db:"full_name"`
	PhoneNumber       string    `db:"phone_number"`
	ProfilePictureURL *string   `db:"profile_picture_url"`
	TokenVersion      int       `db:"token_version"`
	CreatedAt         time.Time `db:"created_at"`
	UpdatedAt         time.Time `db:"updated_at"`
	Roles             []string  `db:"-"`
}

func (u *User) HasRole(role string) bool {
	return slices.Contains(u.Roles, role)
}

func (u *User) IsAdmin() bool {
	return u.HasRole(RoleAdmin)
}

// HasPassword is false for accounts that only ever signed in through an
// external provider.
func (u *User) HasPassword() bool {
	return u.PasswordHash != nil && *u.PasswordHash != ""
}

type ExternalLogin struct {
	Provider        string    `db:"provider"`
	ProviderSubject string    `db:"provider_subject"`
	UserID          string    `db:"user_id"`
	CreatedAt       time.Time `db:"created_at"`
}

const (
	RoleUser  = "User"
	RoleAdmin = "Admin"
)
