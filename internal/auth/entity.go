// AngelaMos | 2026
// entity.go

package auth

import (
	"time"
)

type RefreshToken struct {
	ID           string     `db:"id"`
	UserID       string     `db:"user_id"`
	TokenHash    string     `db:"token_hash"`
	FamilyID     string     `db:"family_id"`
	Persistent   bool       `db:"persistent"`
	ExpiresAt    time.Time  `db:"expires_at"`
	CreatedAt    time.Time  `db:"created_at"`
	IsUsed       bool       `db:"is_used"`
	UsedAt       *time.Time `db:"used_at"`
	RevokedAt    *time.Time `db:"revoked_at"`
	ReplacedByID *string    `db:"replaced_by_id"`
	UserAgent    string     `db:"user_agent"`
	IPAddress    string     `db:"ip_address"`
}

func (t *RefreshToken) IsExpired() bool {
	return time.Now().After(t.ExpiresAt)
}

func (t *RefreshToken) IsRevoked() bool {
	return t.RevokedAt != nil
}

func (t *RefreshToken) IsValid() bool {
	return !t.IsExpired() && !t.IsRevoked() && !t.IsUsed
}

// UserInfo is the slice of an account the auth workflow needs. It is
// filled by whichever package owns user persistence.
type UserInfo struct {
	ID                string
	Email             string
	FullName          string
	PhoneNumber       string
	PasswordHash      *string
	ProfilePictureURL *string
	Roles             []string
	TokenVersion      int
	CreatedAt         time.Time
}

func (u *UserInfo) HasPassword() bool {
	return u.PasswordHash != nil && *u.PasswordHash != ""
}

type NewUser struct {
	Email             string
	FullName          string
	PhoneNumber       string
	PasswordHash      *string
	ProfilePictureURL *string
}

// ExternalIdentity is what a provider tells us about the person who just
// completed its consent screen.
type ExternalIdentity struct {
	Provider string
	Subject  string
	Email    string
	Name     string
	Picture  string
}

// Session is a freshly issued credential pair plus where the client should
// land next.
type Session struct {
	User         *UserInfo
	AccessToken  string
	AccessExpiry time.Time
	RefreshToken string
	RefreshExp   time.Time
	Persistent   bool
	RedirectTo   string
}
