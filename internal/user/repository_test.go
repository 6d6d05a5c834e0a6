// AngelaMos | 2026
// repository_test.go

package user

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"

	"github.com/carterperez-dev/tourguide/internal/core"
)

const (
	targetID = "7d6b3f2a-1c4e-4b8a-9f21-3e5d6c7b8a90"
	otherID  = "0a1b2c3d-4e5f-4a6b-8c7d-9e0f1a2b3c4d"
)

func newMockRepo(t *testing.T) (Repository, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	return NewRepository(sqlx.NewDb(db, "pgx")), mock
}

func expectAdminLock(mock sqlmock.Sqlmock, exists bool, admins ...string) {
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`)).
		WithArgs(targetID).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(exists))
	if !exists {
		return
	}

	rows := sqlmock.NewRows([]string{"user_id"})
	for _, a := range admins {
		rows.AddRow(a)
	}
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT user_id FROM user_roles WHERE role = $1 FOR UPDATE`)).
		WithArgs(RoleAdmin).
		WillReturnRows(rows)
}

func TestToggleAdminRefusesLastAdmin(t *testing.T) {
	repo, mock := newMockRepo(t)

	expectAdminLock(mock, true, targetID)
	mock.ExpectRollback()

	_, err := repo.ToggleAdmin(context.Background(), targetID)
	if !errors.Is(err, ErrLastAdmin) {
		t.Fatalf("err = %v, want ErrLastAdmin", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestToggleAdminPromotes(t *testing.T) {
	repo, mock := newMockRepo(t)

	expectAdminLock(mock, true, otherID)
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO user_roles (user_id, role) VALUES ($1, $2)`)).
		WithArgs(targetID, RoleAdmin).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE users\s+SET token_version = token_version \+ 1`).
		WithArgs(targetID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	isAdmin, err := repo.ToggleAdmin(context.Background(), targetID)
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if !isAdmin {
		t.Fatal("expected promotion")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestToggleAdminDemotesWhenAnotherAdminRemains(t *testing.T) {
	repo, mock := newMockRepo(t)

	expectAdminLock(mock, true, otherID, targetID)
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM user_roles WHERE user_id = $1 AND role = $2`)).
		WithArgs(targetID, RoleAdmin).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE users\s+SET token_version = token_version \+ 1`).
		WithArgs(targetID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	isAdmin, err := repo.ToggleAdmin(context.Background(), targetID)
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if isAdmin {
		t.Fatal("expected demotion")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestToggleAdminMissingUser(t *testing.T) {
	repo, mock := newMockRepo(t)

	expectAdminLock(mock, false)
	mock.ExpectRollback()

	_, err := repo.ToggleAdmin(context.Background(), targetID)
	if !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("err = %v, want not found", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}
