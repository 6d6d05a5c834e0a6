// AngelaMos | 2026
// repository.go

package experience

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/carterperez-dev/tourguide/internal/core"
)

type Repository interface {
	List(ctx context.Context, activeOnly bool, limit int) ([]Experience, error)
	GetByID(ctx context.Context, id int64) (*Experience, error)
	Create(ctx context.Context, e *Experience) error
	Update(ctx context.Context, e *Experience) error
	Delete(ctx context.Context, id int64) error
	Import(ctx context.Context, exps []Experience) (int, error)
	Count(ctx context.Context) (int, error)
}

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

const experienceColumns = `id, title, description, image_url, location,
	duration, category, price, is_active, created_at, created_by_user_id`

// List returns experiences newest first. A limit of zero means no limit.
func (r *repository) List(
	ctx context.Context,
	activeOnly bool,
	limit int,
) ([]Experience, error) {
	query := `SELECT ` + experienceColumns + ` FROM experiences`
	if activeOnly {
		query += ` WHERE is_active = TRUE`
	}
	query += ` ORDER BY created_at DESC, id DESC`

	var args []any
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	exps := []Experience{}
	if err := r.db.SelectContext(ctx, &exps, query, args...); err != nil {
		return nil, fmt.Errorf("list experiences: %w", err)
	}

	return exps, nil
}

func (r *repository) GetByID(ctx context.Context, id int64) (*Experience, error) {
	query := `SELECT ` + experienceColumns + ` FROM experiences WHERE id = $1`

	var e Experience
	err := r.db.GetContext(ctx, &e, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get experience: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get experience: %w", err)
	}

	return &e, nil
}

func (r *repository) Create(ctx context.Context, e *Experience) error {
	return insertExperience(ctx, r.db, e)
}

func insertExperience(ctx context.Context, db core.DBTX, e *Experience) error {
	query := `
		INSERT INTO experiences (
			title, description, image_url, location, duration, category,
			price, is_active, created_by_user_id
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at`

	row := db.QueryRowxContext(ctx, query,
		e.Title,
		e.Description,
		e.ImageURL,
		e.Location,
		e.Duration,
		e.Category,
		e.Price,
		e.IsActive,
		e.CreatedByUserID,
	)
	if err := row.Scan(&e.ID, &e.CreatedAt); err != nil {
		return fmt.Errorf("create experience: %w", err)
	}

	return nil
}

func (r *repository) Update(ctx context.Context, e *Experience) error {
	query := `
		UPDATE experiences
		SET title = $2, description = $3, image_url = $4, location = $5,
		    duration = $6, category = $7, price = $8, is_active = $9
		WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query,
		e.ID,
		e.Title,
		e.Description,
		e.ImageURL,
		e.Location,
		e.Duration,
		e.Category,
		e.Price,
		e.IsActive,
	)
	if err != nil {
		return fmt.Errorf("update experience: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update experience: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("update experience: %w", core.ErrNotFound)
	}

	return nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM experiences WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete experience: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete experience: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("delete experience: %w", core.ErrNotFound)
	}

	return nil
}

// Import inserts every experience whose title is not already present and
// returns how many were added.
func (r *repository) Import(ctx context.Context, exps []Experience) (int, error) {
	imported := 0

	err := core.InTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var existing []string
		if err := tx.SelectContext(ctx, &existing,
			`SELECT LOWER(title) FROM experiences`,
		); err != nil {
			return fmt.Errorf("load experience titles: %w", err)
		}

		seen := make(map[string]struct{}, len(existing)+len(exps))
		for _, title := range existing {
			seen[title] = struct{}{}
		}

		for i := range exps {
			key := strings.ToLower(exps[i].Title)
			if _, dup := seen[key]; dup {
				continue
			}
			if err := insertExperience(ctx, tx, &exps[i]); err != nil {
				return err
			}
			seen[key] = struct{}{}
			imported++
		}

		return nil
	})
	if err != nil {
		return 0, err
	}

	return imported, nil
}

func (r *repository) Count(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM experiences`); err != nil {
		return 0, fmt.Errorf("count experiences: %w", err)
	}
	return total, nil
}
