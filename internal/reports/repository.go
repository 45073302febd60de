package reports

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"wastereport/pkg/utils"
)

// NOTE: This repository assumes the reports table from internal/schema.
// Optional text columns are NULL when unset; the Report struct uses "".

const reportColumns = `id, created_at, address, latitude, longitude, description, photo_url,
       status, priority, waste_category, quantity`

type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

// DB exposes the handle so callers can run Report writes inside a wider transaction.
func (p *PostgresRepo) DB() *sql.DB { return p.db }

func (p *PostgresRepo) Create(ctx context.Context, r Report) (string, error) {
	if err := r.Validate(); err != nil {
		return "", err
	}
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	const q = `
INSERT INTO reports (
  id, created_at, address, latitude, longitude, description, photo_url,
  status, priority, waste_category, quantity
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11
)
`
	_, err := p.db.ExecContext(ctx, q,
		r.ID,
		r.CreatedAt.UTC(),
		utils.NullString(r.Address),
		utils.NullFloat(r.Latitude),
		utils.NullFloat(r.Longitude),
		utils.NullString(r.Description),
		utils.NullString(r.PhotoURL),
		string(r.Status),
		utils.NullString(string(r.Priority)),
		utils.NullString(r.WasteCategory),
		utils.NullString(r.Quantity),
	)
	if err != nil {
		if utils.IsCheckViolation(err) {
			return "", ErrInvalidReport
		}
		return "", err
	}
	return r.ID, nil
}

func (p *PostgresRepo) Get(ctx context.Context, id string) (Report, error) {
	if _, err := uuid.Parse(id); err != nil {
		return Report{}, ErrNotFound
	}
	q := `SELECT ` + reportColumns + ` FROM reports WHERE id = $1`
	r, err := scanReport(p.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Report{}, ErrNotFound
		}
		return Report{}, err
	}
	return r, nil
}

func (p *PostgresRepo) List(ctx context.Context, q Query) ([]Report, error) {
	where, args, err := compileWhere(q.Predicates)
	if err != nil {
		return nil, err
	}
	args = append(args, clampLimit(q.Limit))

	stmt := `SELECT ` + reportColumns + ` FROM reports`
	if where != "" {
		stmt += ` WHERE ` + where
	}
	stmt += fmt.Sprintf(` ORDER BY created_at DESC, id DESC LIMIT $%d`, len(args))

	rows, err := p.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Report
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (p *PostgresRepo) Update(ctx context.Context, id string, mutate func(r *Report) error) error {
	if mutate == nil {
		return ErrNilMutator
	}
	return utils.WithTx(ctx, p.db, nil, func(ctx context.Context, tx *sql.Tx) error {
		cur, err := LockForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		next := clone(cur)
		if err := mutate(&next); err != nil {
			return err
		}
		if next.ID != cur.ID || !next.CreatedAt.Equal(cur.CreatedAt) {
			return ErrImmutableField
		}
		return Save(ctx, tx, next)
	})
}

// LockForUpdate loads a Report and holds its row lock until tx ends.
func LockForUpdate(ctx context.Context, tx *sql.Tx, id string) (Report, error) {
	if _, err := uuid.Parse(id); err != nil {
		return Report{}, ErrNotFound
	}
	q := `SELECT ` + reportColumns + ` FROM reports WHERE id = $1 FOR UPDATE`
	r, err := scanReport(tx.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Report{}, ErrNotFound
		}
		return Report{}, err
	}
	return r, nil
}

// Save writes the mutable columns of r. The caller must hold the row lock.
func Save(ctx context.Context, tx *sql.Tx, r Report) error {
	if err := r.Validate(); err != nil {
		return err
	}
	const q = `
UPDATE reports
SET address = $2, latitude = $3, longitude = $4, description = $5, photo_url = $6,
    status = $7, priority = $8, waste_category = $9, quantity = $10
WHERE id = $1
`
	res, err := tx.ExecContext(ctx, q,
		r.ID,
		utils.NullString(r.Address),
		utils.NullFloat(r.Latitude),
		utils.NullFloat(r.Longitude),
		utils.NullString(r.Description),
		utils.NullString(r.PhotoURL),
		string(r.Status),
		utils.NullString(string(r.Priority)),
		utils.NullString(r.WasteCategory),
		utils.NullString(r.Quantity),
	)
	if err != nil {
		if utils.IsCheckViolation(err) {
			return ErrInvalidReport
		}
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReport(row rowScanner) (Report, error) {
	var (
		r                                 Report
		address, description, photoURL    sql.NullString
		priority, wasteCategory, quantity sql.NullString
		status                            string
		latitude, longitude               sql.NullFloat64
	)
	if err := row.Scan(
		&r.ID,
		&r.CreatedAt,
		&address,
		&latitude,
		&longitude,
		&description,
		&photoURL,
		&status,
		&priority,
		&wasteCategory,
		&quantity,
	); err != nil {
		return Report{}, err
	}
	r.CreatedAt = r.CreatedAt.UTC()
	r.Address = address.String
	r.Latitude = utils.FloatPtr(latitude)
	r.Longitude = utils.FloatPtr(longitude)
	r.Description = description.String
	r.PhotoURL = photoURL.String
	r.Status = Status(status)
	r.Priority = Priority(priority.String)
	r.WasteCategory = wasteCategory.String
	r.Quantity = quantity.String
	return r, nil
}

var equalityColumns = map[Field]string{
	FieldStatus:   "status",
	FieldPriority: "priority",
}

// compileWhere renders predicates as a parameterized conjunction.
// User input only ever reaches the query through placeholders.
func compileWhere(ps []Predicate) (string, []any, error) {
	var (
		clauses []string
		args    []any
	)
	next := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	for _, p := range ps {
		switch f := p.(type) {
		case EqualityFilter:
			col, ok := equalityColumns[f.Field]
			if !ok {
				return "", nil, fmt.Errorf("reports: unsupported equality field %q", f.Field)
			}
			clauses = append(clauses, col+" = "+next(f.Value))
		case DateRangeFilter:
			if f.From != nil {
				clauses = append(clauses, "created_at >= "+next(f.From.UTC()))
			}
			if f.To != nil {
				clauses = append(clauses, "created_at < "+next(f.To.UTC()))
			}
		case ProximityFilter:
			eps := next(decimal(f.Epsilon))
			clauses = append(clauses, fmt.Sprintf(
				"latitude IS NOT NULL AND longitude IS NOT NULL AND abs(latitude - %s::numeric) <= %s::numeric AND abs(longitude - %s::numeric) <= %s::numeric",
				next(decimal(f.Latitude)), eps, next(decimal(f.Longitude)), eps,
			))
		case SubstringFilter:
			clauses = append(clauses, `address ILIKE `+next("%"+escapeLike(f.Term)+"%")+` ESCAPE '\'`)
		default:
			return "", nil, fmt.Errorf("reports: unsupported predicate %T", p)
		}
	}
	return strings.Join(clauses, " AND "), args, nil
}

// decimal renders degrees at the stored scale so Postgres compares them as
// exact numerics.
func decimal(deg float64) string {
	return strconv.FormatFloat(deg, 'f', CoordinateScale, 64)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
