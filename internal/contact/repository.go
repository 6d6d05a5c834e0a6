// AngelaMos | 2026
// repository.go

package contact

import (
	"context"
	"fmt"

	"github.com/carterperez-dev/tourguide/internal/core"
)

type Repository interface {
	Create(ctx context.Context, c *Contact) error
	List(ctx context.Context) ([]Contact, error)
	Delete(ctx context.Context, id int64) error
	Count(ctx context.Context) (int, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, c *Contact) error {
	query := `
		INSERT INTO contacts (name, email, subject, message)
		VALUES ($1, $2, $3, $4)
		RETURNING id, submitted_date`

	row := r.db.QueryRowxContext(ctx, query, c.Name, c.Email, c.Subject, c.Message)
	if err := row.Scan(&c.ID, &c.SubmittedDate); err != nil {
		return fmt.Errorf("create contact: %w", err)
	}

	return nil
}

func (r *repository) List(ctx context.Context) ([]Contact, error) {
	query := `
		SELECT id, name, email, subject, message, submitted_date
		FROM contacts
		ORDER BY submitted_date DESC, id DESC`

	contacts := []Contact{}
	if err := r.db.SelectContext(ctx, &contacts, query); err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}

	return contacts, nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM contacts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete contact: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete contact: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("delete contact: %w", core.ErrNotFound)
	}

	return nil
}

func (r *repository) Count(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM contacts`); err != nil {
		return 0, fmt.Errorf("count contacts: %w", err)
	}
	return total, nil
}
