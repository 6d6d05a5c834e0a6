// AngelaMos | 2026
// service_test.go

package auth

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/carterperez-dev/tourguide/internal/config"
	"github.com/carterperez-dev/tourguide/internal/core"
)

type fakeTokenRepo struct {
	mu     sync.Mutex
	tokens map[string]*RefreshToken
}

func newFakeTokenRepo() *fakeTokenRepo {
	return &fakeTokenRepo{tokens: make(map[string]*RefreshToken)}
}

func (r *fakeTokenRepo) Create(_ context.Context, token *RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *token
	r.tokens[token.ID] = &cp
	return nil
}

func (r *fakeTokenRepo) FindByHash(_ context.Context, hash string) (*RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tokens {
		if t.TokenHash == hash {
			cp := *t
			return &cp, nil
		}
	}
	return nil, core.ErrNotFound
}

func (r *fakeTokenRepo) MarkAsUsed(_ context.Context, id, replacedByID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tokens[id]
	if !ok {
		return core.ErrNotFound
	}
	now := time.Now()
	t.IsUsed = true
	t.UsedAt = &now
	t.ReplacedByID = &replacedByID
	return nil
}

func (r *fakeTokenRepo) RevokeByID(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tokens[id]
	if !ok || t.RevokedAt != nil {
		return core.ErrNotFound
	}
	now := time.Now()
	t.RevokedAt = &now
	return nil
}

func (r *fakeTokenRepo) RevokeByFamilyID(_ context.Context, familyID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	for _, t := range r.tokens {
		if t.FamilyID == familyID && t.RevokedAt == nil {
			t.RevokedAt = &now
		}
	}
	return nil
}

func (r *fakeTokenRepo) RevokeAllForUser(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	for _, t := range r.tokens {
		if t.UserID == userID && t.RevokedAt == nil {
			t.RevokedAt = &now
		}
	}
	return nil
}

func (r *fakeTokenRepo) DeleteExpired(_ context.Context) (int64, error) {
	return 0, nil
}

// fakeUsers enforces email and login uniqueness the way the database
// constraints do.
type fakeUsers struct {
	mu      sync.Mutex
	byID    map[string]*UserInfo
	byEmail map[string]string
	logins  map[string]string
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{
		byID:    make(map[string]*UserInfo),
		byEmail: make(map[string]string),
		logins:  make(map[string]string),
	}
}

func loginKey(provider, subject string) string {
	return provider + "|" + subject
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*UserInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id, ok := f.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, fmt.Errorf("get user: %w", core.ErrNotFound)
	}
	cp := *f.byID[id]
	return &cp, nil
}

func (f *fakeUsers) GetByID(_ context.Context, id string) (*UserInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return nil, fmt.Errorf("get user: %w", core.ErrNotFound)
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) FindByLogin(_ context.Context, provider, subject string) (*UserInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id, ok := f.logins[loginKey(provider, subject)]
	if !ok {
		return nil, fmt.Errorf("find login: %w", core.ErrNotFound)
	}
	cp := *f.byID[id]
	return &cp, nil
}

func (f *fakeUsers) create(nu NewUser) (*UserInfo, error) {
	key := strings.ToLower(nu.Email)
	if _, exists := f.byEmail[key]; exists {
		return nil, fmt.Errorf("create user: %w", core.ErrDuplicateKey)
	}
	u := &UserInfo{
		ID:                uuid.New().String(),
		Email:             nu.Email,
		FullName:          nu.FullName,
		PhoneNumber:       nu.PhoneNumber,
		PasswordHash:      nu.PasswordHash,
		ProfilePictureURL: nu.ProfilePictureURL,
		Roles:             []string{"User"},
		CreatedAt:         time.Now(),
	}
	f.byID[u.ID] = u
	f.byEmail[key] = u.ID
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) Create(_ context.Context, nu NewUser) (*UserInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.create(nu)
}

func (f *fakeUsers) CreateWithLogin(
	_ context.Context,
	nu NewUser,
	provider, subject string,
) (*UserInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.logins[loginKey(provider, subject)]; exists {
		return nil, fmt.Errorf("create login: %w", core.ErrDuplicateKey)
	}
	u, err := f.create(nu)
	if err != nil {
		return nil, err
	}
	f.logins[loginKey(provider, subject)] = u.ID
	return u, nil
}

func (f *fakeUsers) AddLogin(_ context.Context, userID, provider, subject string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.logins[loginKey(provider, subject)]; exists {
		return fmt.Errorf("add login: %w", core.ErrDuplicateKey)
	}
	f.logins[loginKey(provider, subject)] = userID
	return nil
}

func (f *fakeUsers) GetTokenVersion(_ context.Context, userID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[userID]
	if !ok {
		return 0, core.ErrNotFound
	}
	return u.TokenVersion, nil
}

func (f *fakeUsers) UpdatePassword(_ context.Context, userID, hash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[userID]
	if !ok {
		return core.ErrNotFound
	}
	u.PasswordHash = &hash
	return nil
}

func (f *fakeUsers) IncrementTokenVersion(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[userID]
	if !ok {
		return core.ErrNotFound
	}
	u.TokenVersion++
	return nil
}

func (f *fakeUsers) loginCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.logins)
}

type fakeProvider struct {
	identity *ExternalIdentity
	err      error
}

func (p *fakeProvider) Name() string { return "fake" }

func (p *fakeProvider) AuthCodeURL(state, verifier string) string {
	q := url.Values{}
	q.Set("state", state)
	q.Set("challenge_for", verifier)
	return "https://idp.test/authorize?" + q.Encode()
}

func (p *fakeProvider) Identify(_ context.Context, code, verifier string) (*ExternalIdentity, error) {
	if p.err != nil {
		return nil, p.err
	}
	if code == "" || verifier == "" {
		return nil, errors.New("missing code or verifier")
	}
	id := *p.identity
	return &id, nil
}

var testJWTConfig = config.JWTConfig{
	AccessTokenExpire:  15 * time.Minute,
	RefreshTokenExpire: 24 * time.Hour,
	Issuer:             "tourguide-test",
	Audience:           "tourguide-test-api",
}

var testSessionConfig = config.SessionConfig{
	AccessCookie:   "access_token",
	RefreshCookie:  "refresh_token",
	RefreshPath:    "/v1/auth",
	RememberMe:     720 * time.Hour,
	DefaultLanding: "/",
	LoginPath:      "/account/login",
}

type testEnv struct {
	svc    *Service
	users  *fakeUsers
	tokens *fakeTokenRepo
	jwt    *JWTManager
	redis  *miniredis.Miniredis
}

func newTestJWTManager(t *testing.T) *JWTManager {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}

	m, err := NewJWTManagerFromKey(key, testJWTConfig)
	if err != nil {
		t.Fatalf("jwt manager: %v", err)
	}
	return m
}

func newTestEnv(t *testing.T, providers ...OAuthProvider) *testEnv {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	env := &testEnv{
		users:  newFakeUsers(),
		tokens: newFakeTokenRepo(),
		jwt:    newTestJWTManager(t),
		redis:  mr,
	}

	env.svc = NewService(
		env.tokens,
		env.jwt,
		env.users,
		core.NewPasswordHasher(2),
		client,
		testSessionConfig,
		time.Minute,
		providers...,
	)
	return env
}

func validRegistration(email string) RegisterRequest {
	return RegisterRequest{
		FullName:        "Ada Traveller",
		Email:           email,
		PhoneNumber:     "+44 20 7946 0000",
		Password:        "secret1",
		ConfirmPassword: "secret1",
	}
}

func appErrorMessage(t *testing.T, err error) string {
	t.Helper()
	appErr, ok := core.AsAppError(err)
	if !ok {
		t.Fatalf("expected AppError, got %v", err)
	}
	return appErr.Message
}

func TestRegisterReportsFirstFailingRule(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(*RegisterRequest)
		want   string
	}{
		{
			name:   "missing phone",
			mutate: func(r *RegisterRequest) { r.PhoneNumber = "  " },
			want:   "All fields are required.",
		},
		{
			name: "mismatch beats short password",
			mutate: func(r *RegisterRequest) {
				r.Password = "abc"
				r.ConfirmPassword = "abd"
			},
			want: "Passwords do not match.",
		},
		{
			name: "short password beats bad email",
			mutate: func(r *RegisterRequest) {
				r.Email = "not-an-email"
				r.Password = "abc"
				r.ConfirmPassword = "abc"
			},
			want: "Password must be at least 6 characters.",
		},
		{
			name:   "bad email",
			mutate: func(r *RegisterRequest) { r.Email = "not-an-email" },
			want:   "Please enter a valid email address.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRegistration("ada@example.com")
			tt.mutate(&req)

			_, err := env.svc.Register(ctx, req, ClientMeta{})
			if err == nil {
				t.Fatal("expected error")
			}
			if got := appErrorMessage(t, err); got != tt.want {
				t.Fatalf("message = %q, want %q", got, tt.want)
			}
		})
	}

	if _, err := env.users.GetByEmail(ctx, "ada@example.com"); !errors.Is(err, core.ErrNotFound) {
		t.Fatal("failed registrations must not create accounts")
	}
}

func TestRegisterSignsInPersistently(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	req := validRegistration("ada@example.com")
	req.ReturnURL = "/bookings/mine"

	sess, err := env.svc.Register(ctx, req, ClientMeta{IPAddress: "203.0.113.9"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if !sess.Persistent {
		t.Error("registration session should be persistent")
	}
	if sess.RedirectTo != "/bookings/mine" {
		t.Errorf("redirect = %q", sess.RedirectTo)
	}
	if sess.User.HasPassword() && *sess.User.PasswordHash == req.Password {
		t.Error("password stored in plain text")
	}

	principal, err := env.svc.VerifyAccessToken(ctx, sess.AccessToken)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if principal.UserID != sess.User.ID {
		t.Errorf("principal user = %q, want %q", principal.UserID, sess.User.ID)
	}
	if !principal.HasRole("User") {
		t.Errorf("roles = %v, want User", principal.Roles)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if _, err := env.svc.Register(ctx, validRegistration("ada@example.com"), ClientMeta{}); err != nil {
		t.Fatalf("first register: %v", err)
	}

	_, err := env.svc.Register(ctx, validRegistration("ADA@example.com"), ClientMeta{})
	if !errors.Is(err, core.ErrConflict) {
		t.Fatalf("err = %v, want conflict", err)
	}
	if got := appErrorMessage(t, err); got != "An account with this email already exists." {
		t.Fatalf("message = %q", got)
	}
}

func TestRegisterConcurrentSameEmail(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	const attempts = 6
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)

	for range attempts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.svc.Register(ctx, validRegistration("race@example.com"), ClientMeta{})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, core.ErrConflict):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if successes != 1 || conflicts != attempts-1 {
		t.Fatalf("successes = %d, conflicts = %d", successes, conflicts)
	}
}

func TestLoginFailsUniformly(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if _, err := env.svc.Register(ctx, validRegistration("ada@example.com"), ClientMeta{}); err != nil {
		t.Fatalf("register: %v", err)
	}

	_, wrongPassword := env.svc.Login(ctx, LoginRequest{
		Email:    "ada@example.com",
		Password: "wrong-password",
	}, ClientMeta{})
	_, unknownEmail := env.svc.Login(ctx, LoginRequest{
		Email:    "nobody@example.com",
		Password: "secret1",
	}, ClientMeta{})

	if !errors.Is(wrongPassword, ErrInvalidCredentials) {
		t.Errorf("wrong password err = %v", wrongPassword)
	}
	if !errors.Is(unknownEmail, ErrInvalidCredentials) {
		t.Errorf("unknown email err = %v", unknownEmail)
	}

	_, blank := env.svc.Login(ctx, LoginRequest{Email: "ada@example.com"}, ClientMeta{})
	if got := appErrorMessage(t, blank); got != "Email and password are required." {
		t.Errorf("blank password message = %q", got)
	}
}

func TestLoginWithForeignHashFailsUniformly(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	sess, err := env.svc.Register(ctx, validRegistration("ada@example.com"), ClientMeta{})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	legacy := "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"
	if err := env.users.UpdatePassword(ctx, sess.User.ID, legacy); err != nil {
		t.Fatalf("update password: %v", err)
	}

	_, err = env.svc.Login(ctx, LoginRequest{
		Email:    "ada@example.com",
		Password: "secret1",
	}, ClientMeta{})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("login err = %v", err)
	}
}

func TestLoginRememberMeControlsPersistence(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if _, err := env.svc.Register(ctx, validRegistration("ada@example.com"), ClientMeta{}); err != nil {
		t.Fatalf("register: %v", err)
	}

	for _, remember := range []bool{true, false} {
		sess, err := env.svc.Login(ctx, LoginRequest{
			Email:      "Ada@Example.com",
			Password:   "secret1",
			RememberMe: remember,
			ReturnURL:  "https://evil.example/steal",
		}, ClientMeta{})
		if err != nil {
			t.Fatalf("login: %v", err)
		}
		if sess.Persistent != remember {
			t.Errorf("remember=%v persistent=%v", remember, sess.Persistent)
		}
		if sess.RedirectTo != "/" {
			t.Errorf("redirect = %q, want fallback", sess.RedirectTo)
		}
	}
}

func TestRefreshRotationDetectsReuse(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	sess, err := env.svc.Register(ctx, validRegistration("ada@example.com"), ClientMeta{})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	rotated, err := env.svc.Refresh(ctx, sess.RefreshToken, ClientMeta{})
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if !rotated.Persistent {
		t.Error("rotation must keep persistence")
	}

	if _, err := env.svc.Refresh(ctx, sess.RefreshToken, ClientMeta{}); !errors.Is(err, ErrTokenReuse) {
		t.Fatalf("reuse err = %v", err)
	}

	if _, err := env.svc.Refresh(ctx, rotated.RefreshToken, ClientMeta{}); !errors.Is(err, core.ErrTokenRevoked) {
		t.Fatalf("family should be revoked, got %v", err)
	}
}

func TestLogoutRevokesBothTokens(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	sess, err := env.svc.Register(ctx, validRegistration("ada@example.com"), ClientMeta{})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	principal, err := env.svc.VerifyAccessToken(ctx, sess.AccessToken)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}

	if err := env.svc.Logout(ctx, sess.RefreshToken, principal); err != nil {
		t.Fatalf("logout: %v", err)
	}

	if _, err := env.svc.VerifyAccessToken(ctx, sess.AccessToken); !errors.Is(err, core.ErrTokenRevoked) {
		t.Fatalf("access token after logout: %v", err)
	}
	if _, err := env.svc.Refresh(ctx, sess.RefreshToken, ClientMeta{}); !errors.Is(err, core.ErrTokenRevoked) {
		t.Fatalf("refresh after logout: %v", err)
	}

	if err := env.svc.Logout(ctx, sess.RefreshToken, principal); err != nil {
		t.Fatalf("second logout should be a no-op: %v", err)
	}
	if err := env.svc.Logout(ctx, "", nil); err != nil {
		t.Fatalf("anonymous logout: %v", err)
	}
}

func TestVerifyRejectsStaleTokenVersion(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	sess, err := env.svc.Register(ctx, validRegistration("ada@example.com"), ClientMeta{})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	_ = env.users.IncrementTokenVersion(ctx, sess.User.ID)

	if _, err := env.svc.VerifyAccessToken(ctx, sess.AccessToken); !errors.Is(err, core.ErrTokenRevoked) {
		t.Fatalf("err = %v, want revoked", err)
	}
}

func TestLogoutAllEndsEverySession(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	first, err := env.svc.Register(ctx, validRegistration("ada@example.com"), ClientMeta{})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	second, err := env.svc.Login(ctx, LoginRequest{
		Email:    "ada@example.com",
		Password: "secret1",
	}, ClientMeta{})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	if err := env.svc.LogoutAll(ctx, first.User.ID); err != nil {
		t.Fatalf("logout all: %v", err)
	}

	for _, sess := range []*Session{first, second} {
		if _, err := env.svc.Refresh(ctx, sess.RefreshToken, ClientMeta{}); !errors.Is(err, core.ErrTokenRevoked) {
			t.Errorf("refresh after logout all: %v", err)
		}
		if _, err := env.svc.VerifyAccessToken(ctx, sess.AccessToken); !errors.Is(err, core.ErrTokenRevoked) {
			t.Errorf("access token after logout all: %v", err)
		}
	}
}

func stateFromURL(t *testing.T, raw string) string {
	t.Helper()
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse auth url: %v", err)
	}
	state := u.Query().Get("state")
	if state == "" {
		t.Fatal("auth url carries no state")
	}
	return state
}

func TestExternalLoginCreatesThenReusesAccount(t *testing.T) {
	provider := &fakeProvider{identity: &ExternalIdentity{
		Provider: "fake",
		Subject:  "sub-123",
		Email:    "grace@example.com",
		Name:     "Grace Hopper",
	}}
	env := newTestEnv(t, provider)
	ctx := context.Background()

	authURL, err := env.svc.BeginExternalLogin(ctx, "fake", "/bookings/mine")
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	state := stateFromURL(t, authURL)

	sess, err := env.svc.CompleteExternalLogin(ctx, "fake", CallbackParams{
		State: state,
		Code:  "code-1",
	}, ClientMeta{})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if sess.User.Email != "grace@example.com" || sess.User.HasPassword() {
		t.Fatalf("unexpected user %+v", sess.User)
	}
	if sess.Persistent {
		t.Error("external sessions are not persistent")
	}
	if sess.RedirectTo != "/bookings/mine" {
		t.Errorf("redirect = %q", sess.RedirectTo)
	}

	_, err = env.svc.CompleteExternalLogin(ctx, "fake", CallbackParams{
		State: state,
		Code:  "code-1",
	}, ClientMeta{})
	var extErr *ExternalLoginError
	if !errors.As(err, &extErr) || extErr.Message != "Login attempt expired. Please try again." {
		t.Fatalf("replayed state err = %v", err)
	}

	authURL, err = env.svc.BeginExternalLogin(ctx, "fake", "")
	if err != nil {
		t.Fatalf("begin again: %v", err)
	}
	again, err := env.svc.CompleteExternalLogin(ctx, "fake", CallbackParams{
		State: stateFromURL(t, authURL),
		Code:  "code-2",
	}, ClientMeta{})
	if err != nil {
		t.Fatalf("second login: %v", err)
	}
	if again.User.ID != sess.User.ID {
		t.Fatal("second external login must reuse the linked account")
	}
	if env.users.loginCount() != 1 {
		t.Fatalf("logins = %d, want 1", env.users.loginCount())
	}
}

func TestExternalLoginLinksExistingEmail(t *testing.T) {
	provider := &fakeProvider{identity: &ExternalIdentity{
		Provider: "fake",
		Subject:  "sub-ada",
		Email:    "ADA@example.com",
	}}
	env := newTestEnv(t, provider)
	ctx := context.Background()

	registered, err := env.svc.Register(ctx, validRegistration("ada@example.com"), ClientMeta{})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	authURL, err := env.svc.BeginExternalLogin(ctx, "fake", "")
	if err != nil {
		t.Fatalf("begin: %v", err)
	}

	sess, err := env.svc.CompleteExternalLogin(ctx, "fake", CallbackParams{
		State: stateFromURL(t, authURL),
		Code:  "code",
	}, ClientMeta{})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if sess.User.ID != registered.User.ID {
		t.Fatal("external login should link to the existing account")
	}
}

func TestExternalLoginFailures(t *testing.T) {
	ctx := context.Background()

	t.Run("provider error", func(t *testing.T) {
		env := newTestEnv(t, &fakeProvider{identity: &ExternalIdentity{}})
		authURL, _ := env.svc.BeginExternalLogin(ctx, "fake", "")

		_, err := env.svc.CompleteExternalLogin(ctx, "fake", CallbackParams{
			State: stateFromURL(t, authURL),
			Error: "access_denied",
		}, ClientMeta{})

		var extErr *ExternalLoginError
		if !errors.As(err, &extErr) || extErr.Message != "Error from external provider: access_denied" {
			t.Fatalf("err = %v", err)
		}
	})

	t.Run("missing email", func(t *testing.T) {
		env := newTestEnv(t, &fakeProvider{identity: &ExternalIdentity{
			Provider: "fake",
			Subject:  "no-email",
		}})
		authURL, _ := env.svc.BeginExternalLogin(ctx, "fake", "")

		_, err := env.svc.CompleteExternalLogin(ctx, "fake", CallbackParams{
			State: stateFromURL(t, authURL),
			Code:  "code",
		}, ClientMeta{})

		var extErr *ExternalLoginError
		if !errors.As(err, &extErr) || extErr.Message != "Email not received from provider." {
			t.Fatalf("err = %v", err)
		}
	})

	t.Run("state expired", func(t *testing.T) {
		env := newTestEnv(t, &fakeProvider{identity: &ExternalIdentity{}})
		authURL, _ := env.svc.BeginExternalLogin(ctx, "fake", "")
		env.redis.FastForward(2 * time.Minute)

		_, err := env.svc.CompleteExternalLogin(ctx, "fake", CallbackParams{
			State: stateFromURL(t, authURL),
			Code:  "code",
		}, ClientMeta{})

		var extErr *ExternalLoginError
		if !errors.As(err, &extErr) || extErr.Message != "Login attempt expired. Please try again." {
			t.Fatalf("err = %v", err)
		}
	})

	t.Run("unknown provider", func(t *testing.T) {
		env := newTestEnv(t)
		if _, err := env.svc.BeginExternalLogin(ctx, "myspace", ""); !errors.Is(err, ErrUnknownProvider) {
			t.Fatalf("err = %v", err)
		}
	})
}
