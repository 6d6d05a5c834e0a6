// AngelaMos | 2026
// service.go

package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/carterperez-dev/tourguide/internal/auth"
	"github.com/carterperez-dev/tourguide/internal/core"
)

type Service struct {
	repo            Repository
	bootstrapAdmins map[string]struct{}
}

func NewService(repo Repository, bootstrapAdmins []string) *Service {
	admins := make(map[string]struct{}, len(bootstrapAdmins))
	for _, email := range bootstrapAdmins {
		email = strings.ToLower(strings.TrimSpace(email))
		if email != "" {
			admins[email] = struct{}{}
		}
	}

	return &Service{
		repo:            repo,
		bootstrapAdmins: admins,
	}
}

func (s *Service) GetByID(
	ctx context.Context,
	id string,
) (*auth.UserInfo, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	return toUserInfo(user), nil
}

func (s *Service) GetByEmail(
	ctx context.Context,
	email string,
) (*auth.UserInfo, error) {
	user, err := s.repo.GetByEmail(ctx, strings.ToLower(email))
	if err != nil {
		return nil, err
	}

	return toUserInfo(user), nil
}

func (s *Service) FindByLogin(
	ctx context.Context,
	provider, subject string,
) (*auth.UserInfo, error) {
	user, err := s.repo.FindByLogin(ctx, provider, subject)
	if err != nil {
		return nil, err
	}

	return toUserInfo(user), nil
}

func (s *Service) Create(
	ctx context.Context,
	nu auth.NewUser,
) (*auth.UserInfo, error) {
	user := s.newUser(nu)

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "user registered",
		"user_id", user.ID,
		"roles", user.Roles,
	)

	return toUserInfo(user), nil
}

func (s *Service) CreateWithLogin(
	ctx context.Context,
	nu auth.NewUser,
	provider, subject string,
) (*auth.UserInfo, error) {
	user := s.newUser(nu)

	login := ExternalLogin{
		Provider:        provider,
		ProviderSubject: subject,
	}

	if err := s.repo.CreateWithLogin(ctx, user, login); err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "user registered",
		"user_id", user.ID,
		"provider", provider,
		"roles", user.Roles,
	)

	return toUserInfo(user), nil
}

func (s *Service) AddLogin(
	ctx context.Context,
	userID, provider, subject string,
) error {
	return s.repo.AddLogin(ctx, ExternalLogin{
		Provider:        provider,
		ProviderSubject: subject,
		UserID:          userID,
	})
}

func (s *Service) newUser(nu auth.NewUser) *User {
	email := strings.ToLower(strings.TrimSpace(nu.Email))

	roles := []string{RoleUser}
	if _, ok := s.bootstrapAdmins[email]; ok {
		roles = append(roles, RoleAdmin)
	}

	return &User{
		ID:                uuid.New().String(),
		Email:             email,
		PasswordHash:      nu.PasswordHash,
		FullName:          nu.FullName,
		PhoneNumber:       nu.PhoneNumber,
		ProfilePictureURL: nu.ProfilePictureURL,
		Roles:             roles,
	}
}

func (s *Service) IncrementTokenVersion(
	ctx context.Context,
	userID string,
) error {
	return s.repo.IncrementTokenVersion(ctx, userID)
}

func (s *Service) GetTokenVersion(
	ctx context.Context,
	userID string,
) (int, error) {
	return s.repo.GetTokenVersion(ctx, userID)
}

func (s *Service) UpdatePassword(
	ctx context.Context,
	userID, passwordHash string,
) error {
	return s.repo.UpdatePassword(ctx, userID, passwordHash)
}

// EmailOf returns the account email used to match anonymous bookings to a
// signed-in user.
func (s *Service) EmailOf(ctx context.Context, userID string) (string, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return "", err
	}
	return user.Email, nil
}

func (s *Service) GetUser(ctx context.Context, id string) (*User, error) {
	if uuid.Validate(id) != nil {
		return nil, fmt.Errorf("get user: %w", core.ErrNotFound)
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) GetMe(ctx context.Context, userID string) (*User, error) {
	if userID == "" {
		return nil, fmt.Errorf("get me: %w", core.ErrUnauthorized)
	}

	return s.repo.GetByID(ctx, userID)
}

func (s *Service) UpdateMe(
	ctx context.Context,
	userID string,
	req UpdateUserRequest,
) (*User, error) {
	if userID == "" {
		return nil, fmt.Errorf("update me: %w", core.ErrUnauthorized)
	}

	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.FullName != nil {
		user.FullName = strings.TrimSpace(*req.FullName)
	}
	if req.PhoneNumber != nil {
		user.PhoneNumber = strings.TrimSpace(*req.PhoneNumber)
	}

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

func (s *Service) ListUsers(
	ctx context.Context,
	params ListUsersParams,
) ([]User, int, error) {
	return s.repo.List(ctx, params)
}

func (s *Service) Count(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}

// ToggleAdmin flips the target's Admin membership. Removing the last Admin
// is refused with a conflict.
func (s *Service) ToggleAdmin(
	ctx context.Context,
	actorID, targetID string,
) (*ToggleAdminResponse, error) {
	if uuid.Validate(targetID) != nil {
		return nil, fmt.Errorf("toggle admin: %w", core.ErrNotFound)
	}

	isAdmin, err := s.repo.ToggleAdmin(ctx, targetID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, err
		}
		if errors.Is(err, ErrLastAdmin) {
			return nil, core.ConflictError(
				"At least one administrator must remain.",
			)
		}
		return nil, fmt.Errorf("toggle admin: %w", err)
	}

	user, err := s.repo.GetByID(ctx, targetID)
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "admin role toggled",
		"actor_id", actorID,
		"target_id", targetID,
		"is_admin", isAdmin,
	)

	msg := fmt.Sprintf("%s is no longer an administrator.", user.Email)
	if isAdmin {
		msg = fmt.Sprintf("%s is now an administrator.", user.Email)
	}

	return &ToggleAdminResponse{
		User:    ToUserResponse(user),
		IsAdmin: isAdmin,
		Message: msg,
	}, nil
}

func toUserInfo(u *User) *auth.UserInfo {
	roles := u.Roles
	if roles == nil {
		roles = []string{}
	}

	return &auth.UserInfo{
		ID:                u.ID,
		Email:             u.Email,
		FullName:          u.FullName,
		PhoneNumber:       u.PhoneNumber,
		PasswordHash:      u.PasswordHash,
		ProfilePictureURL: u.ProfilePictureURL,
		Roles:             roles,
		TokenVersion:      u.TokenVersion,
		CreatedAt:         u.CreatedAt,
	}
}

var _ auth.UserProvider = (*Service)(nil)
