// AngelaMos | 2026
// oauth.go

package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/carterperez-dev/tourguide/internal/config"
)

// OAuthProvider is an external identity provider using the authorization
// code flow with PKCE.
type OAuthProvider interface {
	Name() string
	AuthCodeURL(state, verifier string) string
	Identify(ctx context.Context, code, verifier string) (*ExternalIdentity, error)
}

const (
	ProviderGoogle = "google"

	googleUserInfoURL = "https://openidconnect.googleapis.com/v1/userinfo"
)

type oauth2Provider struct {
	name        string
	config      *oauth2.Config
	userInfoURL string
}

func NewGoogleProvider(cfg config.OAuthProviderConfig) OAuthProvider {
	return &oauth2Provider{
		name: ProviderGoogle,
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       cfg.Scopes,
			Endpoint:     google.Endpoint,
		},
		userInfoURL: googleUserInfoURL,
	}
}

func (p *oauth2Provider) Name() string {
	return p.name
}

func (p *oauth2Provider) AuthCodeURL(state, verifier string) string {
	return p.config.AuthCodeURL(
		state,
		oauth2.AccessTypeOnline,
		oauth2.S256ChallengeOption(verifier),
	)
}

type openIDUserInfo struct {
	Subject       string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified *bool  `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

// Identify trades the code for a token and reads the OpenID userinfo
// document. An unverified email is dropped so it cannot be used to take
// over a local account with the same address.
func (p *oauth2Provider) Identify(
	ctx context.Context,
	code, verifier string,
) (*ExternalIdentity, error) {
	token, err := p.config.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, fmt.Errorf("exchange code: %w", err)
	}

	client := p.config.Client(ctx, token)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userInfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build userinfo request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch userinfo: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // read-only body

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch userinfo: status %d", resp.StatusCode)
	}

	var info openIDUserInfo
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&info); err != nil {
		return nil, fmt.Errorf("decode userinfo: %w", err)
	}

	if info.Subject == "" {
		return nil, fmt.Errorf("userinfo: missing subject")
	}

	email := info.Email
	if info.EmailVerified != nil && !*info.EmailVerified {
		email = ""
	}

	return &ExternalIdentity{
		Provider: p.name,
		Subject:  info.Subject,
		Email:    email,
		Name:     info.Name,
		Picture:  info.Picture,
	}, nil
}
