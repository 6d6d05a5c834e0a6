// AngelaMos | 2026
// repository.go

package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/carterperez-dev/tourguide/internal/core"
)

var ErrLastAdmin = errors.New("cannot remove the last admin")

type Repository interface {
	Create(ctx context.Context, user *User) error
	CreateWithLogin(ctx context.Context, user *User, login ExternalLogin) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	FindByLogin(ctx context.Context, provider, subject string) (*User, error)
	AddLogin(ctx context.Context, login ExternalLogin) error
	Update(ctx context.Context, user *User) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	IncrementTokenVersion(ctx context.Context, id string) error
	GetTokenVersion(ctx context.Context, id string) (int, error)
	ToggleAdmin(ctx context.Context, id string) (bool, error)
	List(ctx context.Context, params ListUsersParams) ([]User, int, error)
	Count(ctx context.Context) (int, error)
}

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

const userColumns = `id, email, password_hash, full_name, phone_number,
	profile_picture_url, token_version, created_at, updated_at`

// Create inserts the user and its roles atomically. The unique index on
// LOWER(email) is the only duplicate check, so concurrent registrations
// of the same address resolve to exactly one winner.
func (r *repository) Create(ctx context.Context, user *User) error {
	return core.InTx(ctx, r.db, func(tx *sqlx.Tx) error {
		return insertUser(ctx, tx, user)
	})
}

func (r *repository) CreateWithLogin(
	ctx context.Context,
	user *User,
	login ExternalLogin,
) error {
	return core.InTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if err := insertUser(ctx, tx, user); err != nil {
			return err
		}
		login.UserID = user.ID
		return insertLogin(ctx, tx, login)
	})
}

func insertUser(ctx context.Context, db core.DBTX, user *User) error {
	query := `
		INSERT INTO users (id, email, password_hash, full_name, phone_number, profile_picture_url)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at, token_version`

	err := db.GetContext(ctx, user, query,
		user.ID,
		user.Email,
		user.PasswordHash,
		user.FullName,
		user.PhoneNumber,
		user.ProfilePictureURL,
	)
	if err != nil {
		if core.IsUniqueViolation(err) {
			return fmt.Errorf("create user: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("create user: %w", err)
	}

	for _, role := range user.Roles {
		if _, err := db.ExecContext(ctx,
			`INSERT INTO user_roles (user_id, role) VALUES ($1, $2)`,
			user.ID, role,
		); err != nil {
			return fmt.Errorf("assign role %s: %w", role, err)
		}
	}

	return nil
}

func insertLogin(ctx context.Context, db core.DBTX, login ExternalLogin) error {
	query := `
		INSERT INTO user_logins (provider, provider_subject, user_id)
		VALUES ($1, $2, $3)`

	if _, err := db.ExecContext(ctx, query,
		login.Provider,
		login.ProviderSubject,
		login.UserID,
	); err != nil {
		if core.IsUniqueViolation(err) {
			return fmt.Errorf("add login: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("add login: %w", err)
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	var user User
	err := r.db.GetContext(ctx, &user, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get user: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	if err := r.loadRoles(ctx, &user); err != nil {
		return nil, err
	}

	return &user, nil
}

func (r *repository) GetByEmail(
	ctx context.Context,
	email string,
) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE LOWER(email) = LOWER($1)`

	var user User
	err := r.db.GetContext(ctx, &user, query, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get user by email: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}

	if err := r.loadRoles(ctx, &user); err != nil {
		return nil, err
	}

	return &user, nil
}

func (r *repository) FindByLogin(
	ctx context.Context,
	provider, subject string,
) (*User, error) {
	query := `
		SELECT u.id, u.email, u.password_hash, u.full_name, u.phone_number,
		       u.profile_picture_url, u.token_version, u.created_at, u.updated_at
		FROM users u
		JOIN user_logins l ON l.user_id = u.id
		WHERE l.provider = $1 AND l.provider_subject = $2`

	var user User
	err := r.db.GetContext(ctx, &user, query, provider, subject)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("find by login: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find by login: %w", err)
	}

	if err := r.loadRoles(ctx, &user); err != nil {
		return nil, err
	}

	return &user, nil
}

func (r *repository) AddLogin(ctx context.Context, login ExternalLogin) error {
	return insertLogin(ctx, r.db, login)
}

func (r *repository) loadRoles(ctx context.Context, user *User) error {
	query := `SELECT role FROM user_roles WHERE user_id = $1 ORDER BY role`

	var roles []string
	if err := r.db.SelectContext(ctx, &roles, query, user.ID); err != nil {
		return fmt.Errorf("load roles: %w", err)
	}
	if roles == nil {
		roles = []string{}
	}

	user.Roles = roles
	return nil
}

func (r *repository) Update(ctx context.Context, user *User) error {
	query := `
		UPDATE users
		SET full_name = $2, phone_number = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err := r.db.GetContext(ctx, &user.UpdatedAt, query,
		user.ID,
		user.FullName,
		user.PhoneNumber,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("update user: %w", core.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}

	return nil
}

func (r *repository) UpdatePassword(
	ctx context.Context,
	id, passwordHash string,
) error {
	query := `
		UPDATE users
		SET password_hash = $2, updated_at = NOW()
		WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id, passwordHash)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("update password: %w", core.ErrNotFound)
	}

	return nil
}

func (r *repository) IncrementTokenVersion(
	ctx context.Context,
	id string,
) error {
	return incrementTokenVersion(ctx, r.db, id)
}

func incrementTokenVersion(ctx context.Context, db core.DBTX, id string) error {
	query := `
		UPDATE users
		SET token_version = token_version + 1, updated_at = NOW()
		WHERE id = $1`

	result, err := db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("increment token version: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("increment token version: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("increment token version: %w", core.ErrNotFound)
	}

	return nil
}

func (r *repository) GetTokenVersion(ctx context.Context, id string) (int, error) {
	var version int
	err := r.db.GetContext(ctx, &version,
		`SELECT token_version FROM users WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("get token version: %w", core.ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("get token version: %w", err)
	}

	return version, nil
}

// ToggleAdmin flips the Admin role for id and returns the new membership.
// Removing a role locks every Admin row first, so two admins demoting each
// other at the same time cannot both succeed and leave nobody in charge.
func (r *repository) ToggleAdmin(ctx context.Context, id string) (bool, error) {
	var isAdmin bool

	err := core.InTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var exists bool
		if err := tx.GetContext(ctx, &exists,
			`SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`, id,
		); err != nil {
			return fmt.Errorf("toggle admin: %w", err)
		}
		if !exists {
			return fmt.Errorf("toggle admin: %w", core.ErrNotFound)
		}

		var admins []string
		if err := tx.SelectContext(ctx, &admins,
			`SELECT user_id FROM user_roles WHERE role = $1 FOR UPDATE`, RoleAdmin,
		); err != nil {
			return fmt.Errorf("lock admins: %w", err)
		}

		currentlyAdmin := false
		for _, a := range admins {
			if a == id {
				currentlyAdmin = true
				break
			}
		}

		if currentlyAdmin {
			if len(admins) <= 1 {
				return fmt.Errorf("toggle admin: %w", ErrLastAdmin)
			}
			if _, err := tx.ExecContext(ctx,
				`DELETE FROM user_roles WHERE user_id = $1 AND role = $2`,
				id, RoleAdmin,
			); err != nil {
				return fmt.Errorf("remove admin role: %w", err)
			}
		} else {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO user_roles (user_id, role) VALUES ($1, $2)`,
				id, RoleAdmin,
			); err != nil {
				return fmt.Errorf("add admin role: %w", err)
			}
		}

		isAdmin = !currentlyAdmin
		return incrementTokenVersion(ctx, tx, id)
	})
	if err != nil {
		return false, err
	}

	return isAdmin, nil
}

type userRow struct {
	User
	RoleList string `db:"role_list"`
}

func (r *repository) List(
	ctx context.Context,
	params ListUsersParams,
) ([]User, int, error) {
	params.Normalize()

	var conditions []string
	var args []any
	argIdx := 1

	conditions = append(conditions, "TRUE")

	if params.Search != "" {
		conditions = append(conditions, fmt.Sprintf(
			"(u.email ILIKE $%d OR u.full_name ILIKE $%d)", argIdx, argIdx))
		args = append(args, "%"+core.EscapeLike(params.Search)+"%")
		argIdx++
	}

	if params.Role != "" {
		conditions = append(conditions, fmt.Sprintf(
			"EXISTS (SELECT 1 FROM user_roles fr WHERE fr.user_id = u.id AND fr.role = $%d)",
			argIdx))
		args = append(args, params.Role)
		argIdx++
	}

	whereClause := strings.Join(conditions, " AND ")

	countQuery := fmt.Sprintf(
		"SELECT COUNT(*) FROM users u WHERE %s",
		whereClause,
	)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT u.id, u.email, u.password_hash, u.full_name, u.phone_number,
		       u.profile_picture_url, u.token_version, u.created_at, u.updated_at,
		       COALESCE(string_agg(ur.role, ',' ORDER BY ur.role), '') AS role_list
		FROM users u
		LEFT JOIN user_roles ur ON ur.user_id = u.id
		WHERE %s
		GROUP BY u.id
		ORDER BY u.created_at DESC
		LIMIT $%d OFFSET $%d`,
		whereClause, argIdx, argIdx+1)

	args = append(args, params.PageSize, params.Offset())

	var rows []userRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}

	users := make([]User, 0, len(rows))
	for _, row := range rows {
		u := row.User
		u.Roles = splitRoles(row.RoleList)
		users = append(users, u)
	}

	return users, total, nil
}

func (r *repository) Count(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM users`); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return total, nil
}

func splitRoles(list string) []string {
	if list == "" {
		return []string{}
	}
	return strings.Split(list, ",")
}
