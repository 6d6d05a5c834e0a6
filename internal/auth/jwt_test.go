// AngelaMos | 2026
// jwt_test.go

package auth

import (
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/carterperez-dev/tourguide/internal/core"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	m := newTestJWTManager(t)

	token, expiresAt, err := m.CreateAccessToken(AccessTokenClaims{
		UserID:       "5f0c8f7e-2b1d-4c1e-9a55-0d6f1f0b9a10",
		Roles:        []string{"User", "Admin"},
		TokenVersion: 3,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	principal, err := m.ParseAccessToken(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if principal.UserID != "5f0c8f7e-2b1d-4c1e-9a55-0d6f1f0b9a10" {
		t.Errorf("user id = %q", principal.UserID)
	}
	if !slices.Equal(principal.Roles, []string{"User", "Admin"}) {
		t.Errorf("roles = %v", principal.Roles)
	}
	if principal.TokenVersion != 3 {
		t.Errorf("token version = %d", principal.TokenVersion)
	}
	if principal.JTI == "" {
		t.Error("missing jti")
	}
	if principal.ExpiresAt.Sub(expiresAt).Abs() > time.Second {
		t.Errorf("expiry = %v, want %v", principal.ExpiresAt, expiresAt)
	}
}

func TestAccessTokenWithoutRolesParsesEmpty(t *testing.T) {
	m := newTestJWTManager(t)

	token, _, err := m.CreateAccessToken(AccessTokenClaims{UserID: "u-1"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	principal, err := m.ParseAccessToken(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(principal.Roles) != 0 || principal.HasRole("Admin") {
		t.Errorf("roles = %v", principal.Roles)
	}
}

func TestAccessTokenFromOtherKeyRejected(t *testing.T) {
	issuer := newTestJWTManager(t)
	verifier := newTestJWTManager(t)

	token, _, err := issuer.CreateAccessToken(AccessTokenClaims{UserID: "u-1"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := verifier.ParseAccessToken(token); !errors.Is(err, core.ErrTokenInvalid) {
		t.Fatalf("err = %v, want invalid", err)
	}

	if _, err := verifier.ParseAccessToken("not.a.jwt"); !errors.Is(err, core.ErrTokenInvalid) {
		t.Fatalf("garbage err = %v", err)
	}
}

func TestRefreshTokenLifetime(t *testing.T) {
	m := newTestJWTManager(t)

	short, err := m.CreateRefreshToken("", 0)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	long, err := m.CreateRefreshToken(short.FamilyID, 720*time.Hour)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if long.FamilyID != short.FamilyID {
		t.Error("family id not carried over")
	}
	if !long.ExpiresAt.After(short.ExpiresAt) {
		t.Error("persistent lifetime should outlast the default")
	}
	if short.Hash != core.HashToken(short.Token) {
		t.Error("hash does not match token")
	}
}
