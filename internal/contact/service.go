// AngelaMos | 2026
// service.go

package contact

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/carterperez-dev/tourguide/internal/core"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Submit(ctx context.Context, req SubmitRequest) (*Contact, error) {
	c := &Contact{
		Name:    strings.TrimSpace(req.Name),
		Email:   strings.TrimSpace(req.Email),
		Subject: strings.TrimSpace(req.Subject),
		Message: strings.TrimSpace(req.Message),
	}

	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "contact submitted", "contact_id", c.ID)
	return c, nil
}

func (s *Service) List(ctx context.Context) ([]Contact, error) {
	return s.repo.List(ctx)
}

func (s *Service) Delete(ctx context.Context, id int64) (bool, error) {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *Service) Count(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}
