// AngelaMos | 2026
// repository_test.go

package booking

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"

	"github.com/carterperez-dev/tourguide/internal/core"
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

var lockStatus = regexp.QuoteMeta(`SELECT status FROM bookings WHERE id = $1 FOR UPDATE`)

func TestRepositoryUpdateStatusLocksAndUpdates(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(lockStatus).
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow(StatusPending))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE bookings SET status = $2 WHERE id = $1`)).
		WithArgs(int64(3), StatusConfirmed).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	previous, err := repo.UpdateStatus(context.Background(), 3, StatusConfirmed)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if previous != StatusPending {
		t.Fatalf("previous = %q", previous)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestRepositoryUpdateStatusRefusesTerminal(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(lockStatus).
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow(StatusCancelled))
	mock.ExpectRollback()

	previous, err := repo.UpdateStatus(context.Background(), 3, StatusConfirmed)
	if !errors.Is(err, ErrIllegalTransition) {
		t.Fatalf("err = %v, want illegal transition", err)
	}
	if previous != StatusCancelled {
		t.Fatalf("previous = %q", previous)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestRepositoryUpdateStatusMissing(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(lockStatus).
		WithArgs(int64(99)).
		WillReturnRows(sqlmock.NewRows([]string{"status"}))
	mock.ExpectRollback()

	if _, err := repo.UpdateStatus(context.Background(), 99, StatusConfirmed); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("err = %v, want not found", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestRepositoryListFiltersByStatus(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM bookings b WHERE b.status = $1`)).
		WithArgs(StatusPending).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(`LEFT JOIN users u ON u.id = b.user_id\s+WHERE b.status = \$1\s+ORDER BY b.booking_date DESC, b.id DESC\s+LIMIT \$2 OFFSET \$3`).
		WithArgs(StatusPending, 20, 0).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	bookings, total, err := repo.List(context.Background(), ListBookingsParams{Status: StatusPending})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 0 || len(bookings) != 0 {
		t.Fatalf("got %d bookings, total %d", len(bookings), total)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}
