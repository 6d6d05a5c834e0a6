// AngelaMos | 2026
// service.go

package experience

import (
	"context"
	"errors"
	"log/slog"

	"github.com/carterperez-dev/tourguide/internal/core"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) ListActive(ctx context.Context) ([]Experience, error) {
	return s.repo.List(ctx, true, 0)
}

func (s *Service) Highlights(ctx context.Context) ([]Experience, error) {
	return s.repo.List(ctx, true, HighlightCount)
}

func (s *Service) List(ctx context.Context) ([]Experience, error) {
	return s.repo.List(ctx, false, 0)
}

func (s *Service) Get(ctx context.Context, id int64) (*Experience, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Create(
	ctx context.Context,
	creatorID string,
	req ExperienceRequest,
) (*Experience, error) {
	e := &Experience{}
	req.apply(e)
	if creatorID != "" {
		e.CreatedByUserID = &creatorID
	}

	if err := s.repo.Create(ctx, e); err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "experience created",
		"experience_id", e.ID,
		"user_id", creatorID,
	)

	return e, nil
}

func (s *Service) Update(
	ctx context.Context,
	id int64,
	req ExperienceRequest,
) (*Experience, error) {
	e, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	req.apply(e)

	if err := s.repo.Update(ctx, e); err != nil {
		return nil, err
	}

	return e, nil
}

func (s *Service) Delete(ctx context.Context, id int64) (bool, error) {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return false, nil
		}
		return false, err
	}

	slog.InfoContext(ctx, "experience deleted", "experience_id", id)
	return true, nil
}

func (s *Service) Import(
	ctx context.Context,
	creatorID string,
	reqs []ExperienceRequest,
) (*ImportResponse, error) {
	exps := make([]Experience, len(reqs))
	for i, req := range reqs {
		req.apply(&exps[i])
		if creatorID != "" {
			exps[i].CreatedByUserID = &creatorID
		}
	}

	imported, err := s.repo.Import(ctx, exps)
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "experiences imported",
		"imported", imported,
		"user_id", creatorID,
	)

	return &ImportResponse{
		Imported: imported,
		Skipped:  len(reqs) - imported,
	}, nil
}

func (s *Service) Count(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}
