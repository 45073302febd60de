package audit

import (
	"context"
	"database/sql"

	"wastereport/internal/reports"
	"wastereport/pkg/utils"
)

// NOTE: This repository assumes the reports, admin_accounts and report_changes
// tables from internal/schema. report_changes is INSERT-only.

type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

func (p *PostgresRepo) Apply(ctx context.Context, reportID string, fn func(r *reports.Report) ([]Record, error)) error {
	return utils.WithTx(ctx, p.db, nil, func(ctx context.Context, tx *sql.Tx) error {
		// Row lock serializes concurrent edits of the same report.
		cur, err := reports.LockForUpdate(ctx, tx, reportID)
		if err != nil {
			return err
		}
		next := cur
		recs, err := fn(&next)
		if err != nil {
			return err
		}
		if next.ID != cur.ID || !next.CreatedAt.Equal(cur.CreatedAt) {
			return reports.ErrImmutableField
		}
		if err := reports.Save(ctx, tx, next); err != nil {
			return err
		}
		for _, rec := range recs {
			if err := insertRecord(ctx, tx, rec); err != nil {
				if utils.IsForeignKeyViolation(err) {
					return ErrUnknownAdmin
				}
				return err
			}
		}
		return nil
	})
}

func (p *PostgresRepo) List(ctx context.Context, limit int) ([]Record, error) {
	const q = `
SELECT id, report_id, admin_id, changed_at, field, old_value, new_value
FROM report_changes
ORDER BY changed_at DESC, id DESC
LIMIT $1
`
	rows, err := p.db.QueryContext(ctx, q, clampLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var (
			r     Record
			field string
			old   sql.NullString
		)
		if err := rows.Scan(&r.ID, &r.ReportID, &r.AdminID, &r.ChangedAt, &field, &old, &r.NewValue); err != nil {
			return nil, err
		}
		r.ChangedAt = r.ChangedAt.UTC()
		r.Field = Field(field)
		if old.Valid {
			v := old.String
			r.OldValue = &v
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func insertRecord(ctx context.Context, tx *sql.Tx, r Record) error {
	const q = `
INSERT INTO report_changes (id, report_id, admin_id, changed_at, field, old_value, new_value)
VALUES ($1,$2,$3,$4,$5,$6,$7)
`
	var old sql.NullString
	if r.OldValue != nil {
		old = sql.NullString{String: *r.OldValue, Valid: true}
	}
	_, err := tx.ExecContext(ctx, q,
		r.ID,
		r.ReportID,
		r.AdminID,
		r.ChangedAt.UTC(),
		string(r.Field),
		old,
		r.NewValue,
	)
	return err
}
