// AngelaMos | 2026
// repository.go

package property

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
	List(ctx context.Context, activeOnly bool) ([]Property, error)
	GetByID(ctx context.Context, id int64) (*Property, error)
	Create(ctx context.Context, p *Property) error
	Update(ctx context.Context, p *Property) error
	Delete(ctx context.Context, id int64) error
	Import(ctx context.Context, props []Property) (int, error)
	Count(ctx context.Context) (int, error)
}

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

const propertyColumns = `id, name, description, location, image_url,
	price_per_night, rating, amenities, address, is_active, created_at,
	created_by_user_id`

func (r *repository) List(
	ctx context.Context,
	activeOnly bool,
) ([]Property, error) {
	query := `SELECT ` + propertyColumns + ` FROM properties`
	if activeOnly {
		query += ` WHERE is_active = TRUE`
	}
	query += ` ORDER BY created_at DESC, id DESC`

	props := []Property{}
	if err := r.db.SelectContext(ctx, &props, query); err != nil {
		return nil, fmt.Errorf("list properties: %w", err)
	}

	return props, nil
}

func (r *repository) GetByID(ctx context.Context, id int64) (*Property, error) {
	query := `SELECT ` + propertyColumns + ` FROM properties WHERE id = $1`

	var p Property
	err := r.db.GetContext(ctx, &p, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get property: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get property: %w", err)
	}

	return &p, nil
}

func (r *repository) Create(ctx context.Context, p *Property) error {
	return insertProperty(ctx, r.db, p)
}

func insertProperty(ctx context.Context, db core.DBTX, p *Property) error {
	query := `
		INSERT INTO properties (
			name, description, location, image_url, price_per_night,
			rating, amenities, address, is_active, created_by_user_id
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at`

	row := db.QueryRowxContext(ctx, query,
		p.Name,
		p.Description,
		p.Location,
		p.ImageURL,
		p.PricePerNight,
		p.Rating,
		p.Amenities,
		p.Address,
		p.IsActive,
		p.CreatedByUserID,
	)
	if err := row.Scan(&p.ID, &p.CreatedAt); err != nil {
		return fmt.Errorf("create property: %w", err)
	}

	return nil
}

func (r *repository) Update(ctx context.Context, p *Property) error {
	query := `
		UPDATE properties
		SET name = $2, description = $3, location = $4, image_url = $5,
		    price_per_night = $6, rating = $7, amenities = $8, address = $9,
		    is_active = $10
		WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query,
		p.ID,
		p.Name,
		p.Description,
		p.Location,
		p.ImageURL,
		p.PricePerNight,
		p.Rating,
		p.Amenities,
		p.Address,
		p.IsActive,
	)
	if err != nil {
		return fmt.Errorf("update property: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update property: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("update property: %w", core.ErrNotFound)
	}

	return nil
}

// Delete removes the property after detaching its bookings, which keep
// their hotel name as a plain-text record of the stay.
func (r *repository) Delete(ctx context.Context, id int64) error {
	return core.InTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`UPDATE bookings SET property_id = NULL WHERE property_id = $1`, id,
		); err != nil {
			return fmt.Errorf("detach bookings: %w", err)
		}

		result, err := tx.ExecContext(ctx,
			`DELETE FROM properties WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("delete property: %w", err)
		}

		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("delete property: %w", err)
		}

		if rows == 0 {
			return fmt.Errorf("delete property: %w", core.ErrNotFound)
		}

		return nil
	})
}

// Import inserts every property whose name is not already present,
// comparing names case-insensitively, and returns how many were added.
func (r *repository) Import(ctx context.Context, props []Property) (int, error) {
	imported := 0

	err := core.InTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var existing []string
		if err := tx.SelectContext(ctx, &existing,
			`SELECT LOWER(name) FROM properties`,
		); err != nil {
			return fmt.Errorf("load property names: %w", err)
		}

		seen := make(map[string]struct{}, len(existing)+len(props))
		for _, name := range existing {
			seen[name] = struct{}{}
		}

		for i := range props {
			key := strings.ToLower(props[i].Name)
			if _, dup := seen[key]; dup {
				continue
			}
			if err := insertProperty(ctx, tx, &props[i]); err != nil {
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
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM properties`); err != nil {
		return 0, fmt.Errorf("count properties: %w", err)
	}
	return total, nil
}
