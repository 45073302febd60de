package accounts

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
)

var accountCols = []string{"id", "name", "password_hash", "state", "failed_attempts"}

func TestPostgresRepo_FailedAttemptLocksRowAndIncrements(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM admin_accounts\nWHERE name = $1\nFOR UPDATE")).
		WithArgs("anna").
		WillReturnRows(sqlmock.NewRows(accountCols).AddRow("a-1", "anna", "h:correct-horse", "open", 4))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE admin_accounts")).
		WithArgs("a-1", "h:correct-horse", "locked", 5).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	g := NewGuard(NewPostgresRepo(db), plainHasher{})
	out, err := g.Authenticate(context.Background(), "anna", "wrong")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if out.Result != ResultLockedJustNow {
		t.Fatalf("expected LockedJustNow, got %+v", out)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPostgresRepo_LockedAccountIsNotWritten(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").
		WithArgs("anna").
		WillReturnRows(sqlmock.NewRows(accountCols).AddRow("a-1", "anna", "h:x", "locked", 5))
	mock.ExpectCommit()

	out, err := NewGuard(NewPostgresRepo(db), plainHasher{}).Authenticate(context.Background(), "anna", "x")
	if err != nil || out.Result != ResultLocked {
		t.Fatalf("expected Locked, got %+v %v", out, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPostgresRepo_UnknownName(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").WithArgs("bob").WillReturnRows(sqlmock.NewRows(accountCols))
	mock.ExpectRollback()

	out, err := NewGuard(NewPostgresRepo(db), plainHasher{}).Authenticate(context.Background(), "bob", "x")
	if err != nil || out.Result != ResultNotFound {
		t.Fatalf("expected NotFound, got %+v %v", out, err)
	}
}

func TestPostgresRepo_CreateDuplicateName(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("INSERT INTO admin_accounts").WillReturnError(&pgconn.PgError{Code: "23505"})

	err = NewPostgresRepo(db).Create(context.Background(), Account{ID: "a-2", Name: "anna", PasswordHash: "h", State: StateOpen})
	if !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
}
