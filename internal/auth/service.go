// AngelaMos | 2026
// service.go

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/carterperez-dev/tourguide/internal/config"
	"github.com/carterperez-dev/tourguide/internal/core"
	"github.com/carterperez-dev/tourguide/internal/middleware"
)

const minPasswordLength = 6

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenReuse         = errors.New("token reuse detected")
	ErrUnknownProvider    = errors.New("unknown login provider")
)

// ExternalLoginError ends an external sign-in attempt. The client is sent
// back to the login page with Message.
type ExternalLoginError struct {
	Message string
	Err     error
}

func (e *ExternalLoginError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("external login: %s: %v", e.Message, e.Err)
	}
	return "external login: " + e.Message
}

func (e *ExternalLoginError) Unwrap() error {
	return e.Err
}

type UserProvider interface {
	GetByEmail(ctx context.Context, email string) (*UserInfo, error)
	GetByID(ctx context.Context, id string) (*UserInfo, error)
	FindByLogin(ctx context.Context, provider, subject string) (*UserInfo, error)
	Create(ctx context.Context, nu NewUser) (*UserInfo, error)
	CreateWithLogin(
		ctx context.Context,
		nu NewUser,
		provider, subject string,
	) (*UserInfo, error)
	AddLogin(ctx context.Context, userID, provider, subject string) error
	GetTokenVersion(ctx context.Context, userID string) (int, error)
	IncrementTokenVersion(ctx context.Context, userID string) error
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
}

// ClientMeta identifies the device a session was issued to.
type ClientMeta struct {
	UserAgent string
	IPAddress string
}

type Service struct {
	repo         Repository
	jwt          *JWTManager
	userProvider UserProvider
	hasher       *core.PasswordHasher
	redis        *redis.Client
	states       *stateStore
	providers    map[string]OAuthProvider
	session      config.SessionConfig
	validate     *validator.Validate
}

func NewService(
	repo Repository,
	jwt *JWTManager,
	userProvider UserProvider,
	hasher *core.PasswordHasher,
	redisClient *redis.Client,
	sessionCfg config.SessionConfig,
	stateTTL time.Duration,
	providers ...OAuthProvider,
) *Service {
	byName := make(map[string]OAuthProvider, len(providers))
	for _, p := range providers {
		byName[p.Name()] = p
	}

	return &Service{
		repo:         repo,
		jwt:          jwt,
		userProvider: userProvider,
		hasher:       hasher,
		redis:        redisClient,
		states:       newStateStore(redisClient, stateTTL),
		providers:    byName,
		session:      sessionCfg,
		validate:     validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Register creates a password account with the User role and signs it in
// persistently. Checks run in a fixed order so the first failing rule is
// the one reported.
func (s *Service) Register(
	ctx context.Context,
	req RegisterRequest,
	meta ClientMeta,
) (*Session, error) {
	req.FullName = strings.TrimSpace(req.FullName)
	req.Email = strings.TrimSpace(req.Email)
	req.PhoneNumber = strings.TrimSpace(req.PhoneNumber)

	if req.FullName == "" || req.Email == "" || req.PhoneNumber == "" ||
		req.Password == "" || req.ConfirmPassword == "" {
		return nil, core.ValidationError("All fields are required.")
	}

	if req.Password != req.ConfirmPassword {
		return nil, core.ValidationError("Passwords do not match.")
	}

	if utf8.RuneCountInString(req.Password) < minPasswordLength {
		return nil, core.ValidationError(
			"Password must be at least 6 characters.",
		)
	}

	if err := s.validate.Var(req.Email, "email,max=255"); err != nil {
		return nil, core.ValidationError("Please enter a valid email address.")
	}

	passwordHash, err := s.hasher.Hash(ctx, req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.userProvider.Create(ctx, NewUser{
		Email:        req.Email,
		FullName:     req.FullName,
		PhoneNumber:  req.PhoneNumber,
		PasswordHash: &passwordHash,
	})
	if err != nil {
		if errors.Is(err, core.ErrDuplicateKey) {
			return nil, core.ConflictError(
				"An account with this email already exists.",
			)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	return s.issueSession(ctx, user, meta, issueOptions{
		persistent: true,
		redirectTo: s.safeRedirect(req.ReturnURL),
	})
}

// Login signs in with email and password. Unknown emails, wrong
// passwords and accounts without a password all fail identically and take
// the same time.
func (s *Service) Login(
	ctx context.Context,
	req LoginRequest,
	meta ClientMeta,
) (*Session, error) {
	email := strings.TrimSpace(req.Email)
	if email == "" || req.Password == "" {
		return nil, core.ValidationError("Email and password are required.")
	}

	user, err := s.userProvider.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, core.ErrNotFound) {
		return nil, fmt.Errorf("get user: %w", err)
	}

	var stored *string
	if user != nil {
		stored = user.PasswordHash
	}

	valid, newHash, err := s.hasher.Verify(ctx, req.Password, stored)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}

	if user == nil || !valid {
		slog.WarnContext(ctx, "login failed", "ip", meta.IPAddress)
		return nil, ErrInvalidCredentials
	}

	if newHash != "" {
		//nolint:errcheck // best-effort rehash upgrade
		_ = s.userProvider.UpdatePassword(ctx, user.ID, newHash)
	}

	return s.issueSession(ctx, user, meta, issueOptions{
		persistent: req.RememberMe,
		redirectTo: s.safeRedirect(req.ReturnURL),
	})
}

func (s *Service) Refresh(
	ctx context.Context,
	refreshToken string,
	meta ClientMeta,
) (*Session, error) {
	if refreshToken == "" {
		return nil, fmt.Errorf("refresh: %w", core.ErrTokenInvalid)
	}

	storedToken, err := s.repo.FindByHash(ctx, core.HashToken(refreshToken))
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, fmt.Errorf("refresh: %w", core.ErrTokenInvalid)
		}
		return nil, fmt.Errorf("find token: %w", err)
	}

	if storedToken.IsUsed {
		//nolint:errcheck // security revocation continues regardless
		_ = s.repo.RevokeByFamilyID(ctx, storedToken.FamilyID)
		slog.WarnContext(ctx, "refresh token reuse detected",
			"user_id", storedToken.UserID,
			"family_id", storedToken.FamilyID,
		)
		return nil, ErrTokenReuse
	}

	if !storedToken.IsValid() {
		if storedToken.IsRevoked() {
			return nil, fmt.Errorf("refresh: %w", core.ErrTokenRevoked)
		}
		return nil, fmt.Errorf("refresh: %w", core.ErrTokenExpired)
	}

	user, err := s.userProvider.GetByID(ctx, storedToken.UserID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	return s.issueSession(ctx, user, meta, issueOptions{
		persistent: storedToken.Persistent,
		familyID:   storedToken.FamilyID,
		oldTokenID: storedToken.ID,
	})
}

// Logout ends whatever session the request carries. It never fails on
// missing or already-revoked credentials.
func (s *Service) Logout(
	ctx context.Context,
	refreshToken string,
	principal *middleware.Principal,
) error {
	if refreshToken != "" {
		storedToken, err := s.repo.FindByHash(ctx, core.HashToken(refreshToken))
		switch {
		case errors.Is(err, core.ErrNotFound):
		case err != nil:
			return fmt.Errorf("find token: %w", err)
		case principal != nil && storedToken.UserID != principal.UserID:
			slog.WarnContext(ctx, "logout with foreign refresh token",
				"user_id", principal.UserID,
			)
		default:
			if err := s.repo.RevokeByID(ctx, storedToken.ID); err != nil &&
				!errors.Is(err, core.ErrNotFound) {
				return fmt.Errorf("revoke token: %w", err)
			}
		}
	}

	if principal != nil {
		if err := s.RevokeAccessToken(ctx, principal.JTI, principal.ExpiresAt); err != nil {
			return err
		}
	}

	return nil
}

// LogoutAll revokes every refresh token of the user and invalidates all
// outstanding access tokens by bumping the token version.
func (s *Service) LogoutAll(ctx context.Context, userID string) error {
	if err := s.repo.RevokeAllForUser(ctx, userID); err != nil {
		return fmt.Errorf("revoke all tokens: %w", err)
	}

	if err := s.userProvider.IncrementTokenVersion(ctx, userID); err != nil {
		return fmt.Errorf("increment token version: %w", err)
	}

	slog.InfoContext(ctx, "all sessions revoked", "user_id", userID)
	return nil
}

func (s *Service) RevokeAccessToken(
	ctx context.Context,
	jti string,
	expiresAt time.Time,
) error {
	ttl := time.Until(expiresAt)
	if jti == "" || ttl <= 0 {
		return nil
	}

	if err := s.redis.Set(ctx, blacklistKey(jti), "1", ttl).Err(); err != nil {
		return fmt.Errorf("blacklist token: %w", err)
	}

	return nil
}

func (s *Service) IsAccessTokenBlacklisted(
	ctx context.Context,
	jti string,
) (bool, error) {
	exists, err := s.redis.Exists(ctx, blacklistKey(jti)).Result()
	if err != nil {
		return false, fmt.Errorf("check blacklist: %w", err)
	}

	return exists > 0, nil
}

func blacklistKey(jti string) string {
	return core.RedisKey("blacklist", jti)
}

// VerifyAccessToken resolves a bearer token into a principal. Besides the
// signature it rejects logged-out tokens and tokens minted before the
// account's token version was bumped.
func (s *Service) VerifyAccessToken(
	ctx context.Context,
	token string,
) (*middleware.Principal, error) {
	principal, err := s.jwt.ParseAccessToken(token)
	if err != nil {
		return nil, err
	}

	revoked, err := s.IsAccessTokenBlacklisted(ctx, principal.JTI)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, fmt.Errorf("verify token: %w", core.ErrTokenRevoked)
	}

	current, err := s.userProvider.GetTokenVersion(ctx, principal.UserID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, fmt.Errorf("verify token: %w", core.ErrTokenInvalid)
		}
		return nil, fmt.Errorf("verify token: %w", err)
	}

	if principal.TokenVersion < current {
		return nil, fmt.Errorf("verify token: %w", core.ErrTokenRevoked)
	}

	return principal, nil
}

func (s *Service) GetCurrentUser(
	ctx context.Context,
	userID string,
) (*UserInfo, error) {
	return s.userProvider.GetByID(ctx, userID)
}

// BeginExternalLogin returns the provider URL to send the browser to. The
// state parameter doubles as the key of a short-lived record holding the
// return URL and PKCE verifier.
func (s *Service) BeginExternalLogin(
	ctx context.Context,
	providerName, returnURL string,
) (string, error) {
	provider, ok := s.providers[providerName]
	if !ok {
		return "", fmt.Errorf("begin external login: %w", ErrUnknownProvider)
	}

	pending, err := s.states.Save(ctx, providerName, s.safeRedirect(returnURL))
	if err != nil {
		return "", err
	}

	return provider.AuthCodeURL(pending.State, pending.Verifier), nil
}

type CallbackParams struct {
	State string
	Code  string
	Error string
}

// CompleteExternalLogin finishes the provider round trip and signs the
// person in, linking or creating a local account as needed.
func (s *Service) CompleteExternalLogin(
	ctx context.Context,
	providerName string,
	params CallbackParams,
	meta ClientMeta,
) (*Session, error) {
	provider, ok := s.providers[providerName]
	if !ok {
		return nil, fmt.Errorf("complete external login: %w", ErrUnknownProvider)
	}

	pending, err := s.states.Consume(ctx, params.State)
	if err != nil {
		return nil, err
	}

	if params.Error != "" {
		return nil, &ExternalLoginError{
			Message: "Error from external provider: " + params.Error,
		}
	}

	if pending == nil || pending.Provider != providerName {
		return nil, &ExternalLoginError{
			Message: "Login attempt expired. Please try again.",
		}
	}

	if params.Code == "" {
		return nil, &ExternalLoginError{
			Message: "Error loading external login information.",
		}
	}

	identity, err := provider.Identify(ctx, params.Code, pending.Verifier)
	if err != nil {
		return nil, &ExternalLoginError{
			Message: "Error loading external login information.",
			Err:     err,
		}
	}

	user, err := s.resolveExternalUser(ctx, identity)
	if err != nil {
		return nil, err
	}

	return s.issueSession(ctx, user, meta, issueOptions{
		redirectTo: s.safeRedirect(pending.ReturnURL),
	})
}

// resolveExternalUser maps a provider identity to a local account: an
// existing link wins, then an account with the same email gets linked,
// otherwise a new account is created already linked.
func (s *Service) resolveExternalUser(
	ctx context.Context,
	identity *ExternalIdentity,
) (*UserInfo, error) {
	user, err := s.userProvider.FindByLogin(ctx, identity.Provider, identity.Subject)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, core.ErrNotFound) {
		return nil, fmt.Errorf("find login: %w", err)
	}

	email := strings.TrimSpace(identity.Email)
	if email == "" {
		return nil, &ExternalLoginError{
			Message: "Email not received from provider.",
		}
	}

	user, err = s.linkByEmail(ctx, identity, email)
	if err == nil || !errors.Is(err, core.ErrNotFound) {
		return user, err
	}

	nu := NewUser{
		Email:    email,
		FullName: identity.Name,
	}
	if nu.FullName == "" {
		nu.FullName = email
	}
	if identity.Picture != "" {
		picture := identity.Picture
		nu.ProfilePictureURL = &picture
	}

	user, err = s.userProvider.CreateWithLogin(ctx, nu, identity.Provider, identity.Subject)
	if errors.Is(err, core.ErrDuplicateKey) {
		// Lost a race with a registration or another callback for the
		// same person; whatever won is linkable now.
		return s.linkByEmail(ctx, identity, email)
	}
	if err != nil {
		return nil, fmt.Errorf("create external user: %w", err)
	}

	return user, nil
}

func (s *Service) linkByEmail(
	ctx context.Context,
	identity *ExternalIdentity,
	email string,
) (*UserInfo, error) {
	user, err := s.userProvider.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	err = s.userProvider.AddLogin(ctx, user.ID, identity.Provider, identity.Subject)
	if errors.Is(err, core.ErrDuplicateKey) {
		return s.userProvider.FindByLogin(ctx, identity.Provider, identity.Subject)
	}
	if err != nil {
		return nil, fmt.Errorf("link external login: %w", err)
	}

	slog.InfoContext(ctx, "external login linked",
		"user_id", user.ID,
		"provider", identity.Provider,
	)

	return user, nil
}

func (s *Service) HasProvider(name string) bool {
	_, ok := s.providers[name]
	return ok
}

func (s *Service) safeRedirect(raw string) string {
	return SafeRedirect(raw, s.session.DefaultLanding)
}

type issueOptions struct {
	persistent bool
	familyID   string
	oldTokenID string
	redirectTo string
}

func (s *Service) issueSession(
	ctx context.Context,
	user *UserInfo,
	meta ClientMeta,
	opts issueOptions,
) (*Session, error) {
	accessToken, accessExp, err := s.jwt.CreateAccessToken(AccessTokenClaims{
		UserID:       user.ID,
		Roles:        user.Roles,
		TokenVersion: user.TokenVersion,
	})
	if err != nil {
		return nil, fmt.Errorf("create access token: %w", err)
	}

	var lifetime time.Duration
	if opts.persistent {
		lifetime = s.session.RememberMe
	}

	refreshData, err := s.jwt.CreateRefreshToken(opts.familyID, lifetime)
	if err != nil {
		return nil, fmt.Errorf("create refresh token: %w", err)
	}

	newTokenID := uuid.New().String()

	if err := s.repo.Create(ctx, &RefreshToken{
		ID:         newTokenID,
		UserID:     user.ID,
		TokenHash:  refreshData.Hash,
		FamilyID:   refreshData.FamilyID,
		Persistent: opts.persistent,
		ExpiresAt:  refreshData.ExpiresAt,
		UserAgent:  meta.UserAgent,
		IPAddress:  meta.IPAddress,
	}); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}

	if opts.oldTokenID != "" {
		//nolint:errcheck // best-effort token chain tracking
		_ = s.repo.MarkAsUsed(ctx, opts.oldTokenID, newTokenID)
	}

	redirectTo := opts.redirectTo
	if redirectTo == "" {
		redirectTo = s.safeRedirect("")
	}

	return &Session{
		User:         user,
		AccessToken:  accessToken,
		AccessExpiry: accessExp,
		RefreshToken: refreshData.Token,
		RefreshExp:   refreshData.ExpiresAt,
		Persistent:   opts.persistent,
		RedirectTo:   redirectTo,
	}, nil
}
