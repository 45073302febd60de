package schema

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestDDLDeclaresAllTables(t *testing.T) {
	for _, table := range []string{"admin_accounts", "reports", "report_changes"} {
		if !strings.Contains(DDL(), "CREATE TABLE IF NOT EXISTS "+table) {
			t.Fatalf("missing table %s", table)
		}
	}
}

func TestApply(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectExec(DDL()).WillReturnResult(sqlmock.NewResult(0, 0))
	if err := Apply(context.Background(), db); err != nil {
		t.Fatalf("apply: %v", err)
	}

	boom := errors.New("permission denied")
	mock.ExpectExec(DDL()).WillReturnError(boom)
	if err := Apply(context.Background(), db); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped error, got %v", err)
	}
}

func TestDDLStoresCoordinatesAsExactNumerics(t *testing.T) {
	for _, col := range []string{"latitude       NUMERIC(9, 6)", "longitude      NUMERIC(9, 6)"} {
		if !strings.Contains(DDL(), col) {
			t.Fatalf("expected column %q", col)
		}
	}
}
