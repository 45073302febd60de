package audit

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"

	"wastereport/internal/reports"
)

const reportID = "6f1d2b8e-2c55-4a7e-8f0d-3b7c2f0c9a10"

var reportCols = []string{
	"id", "created_at", "address", "latitude", "longitude", "description", "photo_url",
	"status", "priority", "waste_category", "quantity",
}

func TestPostgresRepo_ApplyWritesReportAndRecordsInOneTx(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WithArgs(reportID).
		WillReturnRows(sqlmock.NewRows(reportCols).
			AddRow(reportID, time.Now(), "Main", nil, nil, nil, nil, "received", nil, nil, nil))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE reports")).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO report_changes")).
		WithArgs(sqlmock.AnyArg(), reportID, "admin-1", sqlmock.AnyArg(), "status", "received", "closed").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO report_changes")).
		WithArgs(sqlmock.AnyArg(), reportID, "admin-1", sqlmock.AnyArg(), "priority", nil, "high").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	svc := NewService(NewPostgresRepo(db))
	got, err := svc.ApplyUpdate(context.Background(), reportID, "admin-1", Proposed{Status: str("closed"), Priority: str("high")})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if len(got.Changes) != 2 {
		t.Fatalf("expected 2 changes, got %+v", got.Changes)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPostgresRepo_ApplyRollsBackWhenInsertFails(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").
		WithArgs(reportID).
		WillReturnRows(sqlmock.NewRows(reportCols).
			AddRow(reportID, time.Now(), "Main", nil, nil, nil, nil, "received", nil, nil, nil))
	mock.ExpectExec("UPDATE reports").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO report_changes").WillReturnError(&pgconn.PgError{Code: "23503"})
	mock.ExpectRollback()

	svc := NewService(NewPostgresRepo(db))
	_, err = svc.ApplyUpdate(context.Background(), reportID, "ghost", Proposed{Status: str("closed")})
	if !errors.Is(err, ErrUnknownAdmin) {
		t.Fatalf("expected ErrUnknownAdmin, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPostgresRepo_ApplyMissingReport(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").WithArgs(reportID).WillReturnRows(sqlmock.NewRows(reportCols))
	mock.ExpectRollback()

	err = NewPostgresRepo(db).Apply(context.Background(), reportID, func(*reports.Report) ([]Record, error) {
		t.Fatalf("fn must not run for a missing report")
		return nil, nil
	})
	if !errors.Is(err, reports.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPostgresRepo_ListMapsNullOldValue(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	at := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("FROM report_changes")).
		WithArgs(DefaultListLimit).
		WillReturnRows(sqlmock.NewRows([]string{"id", "report_id", "admin_id", "changed_at", "field", "old_value", "new_value"}).
			AddRow("01HX", reportID, "admin-1", at, "priority", nil, "high").
			AddRow("01HW", reportID, "admin-1", at, "status", "received", "closed"))

	out, err := NewPostgresRepo(db).List(context.Background(), 10_000)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(out) != 2 || out[0].OldValue != nil || out[1].OldValue == nil || *out[1].OldValue != "received" {
		t.Fatalf("unexpected records %+v", out)
	}
}
