// AngelaMos | 2026
// service.go

package property

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/carterperez-dev/tourguide/internal/core"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) ListActive(ctx context.Context) ([]Property, error) {
	return s.repo.List(ctx, true)
}

func (s *Service) List(ctx context.Context) ([]Property, error) {
	return s.repo.List(ctx, false)
}

func (s *Service) Get(ctx context.Context, id int64) (*Property, error) {
	return s.repo.GetByID(ctx, id)
}

// GetActive hides inactive properties behind the same not-found error as
// missing ones.
func (s *Service) GetActive(ctx context.Context, id int64) (*Property, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !p.IsActive {
		return nil, fmt.Errorf("get active property: %w", core.ErrNotFound)
	}

	return p, nil
}

func (s *Service) Create(
	ctx context.Context,
	creatorID string,
	req PropertyRequest,
) (*Property, error) {
	p := &Property{}
	req.apply(p)
	if creatorID != "" {
		p.CreatedByUserID = &creatorID
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "property created",
		"property_id", p.ID,
		"user_id", creatorID,
	)

	return p, nil
}

func (s *Service) Update(
	ctx context.Context,
	id int64,
	req PropertyRequest,
) (*Property, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	req.apply(p)

	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}

	return p, nil
}

// Delete reports whether a row was removed. Deleting a missing property is
// not an error.
func (s *Service) Delete(ctx context.Context, id int64) (bool, error) {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return false, nil
		}
		return false, err
	}

	slog.InfoContext(ctx, "property deleted", "property_id", id)
	return true, nil
}

func (s *Service) Import(
	ctx context.Context,
	creatorID string,
	reqs []PropertyRequest,
) (*ImportResponse, error) {
	props := make([]Property, len(reqs))
	for i, req := range reqs {
		req.apply(&props[i])
		if creatorID != "" {
			props[i].CreatedByUserID = &creatorID
		}
	}

	imported, err := s.repo.Import(ctx, props)
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "properties imported",
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
