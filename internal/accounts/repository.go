package accounts

import (
	"context"
	"database/sql"
	"errors"

	"wastereport/pkg/utils"
)

// NOTE: This repository assumes the admin_accounts table from internal/schema
// with UNIQUE (name).

type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

func (p *PostgresRepo) Create(ctx context.Context, a Account) error {
	const q = `
INSERT INTO admin_accounts (id, name, password_hash, state, failed_attempts)
VALUES ($1,$2,$3,$4,$5)
`
	_, err := p.db.ExecContext(ctx, q, a.ID, a.Name, a.PasswordHash, string(a.State), a.FailedAttempts)
	if err != nil {
		if utils.IsUniqueViolation(err) {
			return ErrAlreadyExists
		}
		return err
	}
	return nil
}

func (p *PostgresRepo) WithAccount(ctx context.Context, name string, fn func(a *Account) error) error {
	if fn == nil {
		return ErrNilMutator
	}
	return utils.WithTx(ctx, p.db, nil, func(ctx context.Context, tx *sql.Tx) error {
		// Lock the account row so concurrent attempts serialize their counter updates.
		cur, err := lockAccount(ctx, tx, name)
		if err != nil {
			return err
		}
		next := cur
		if err := fn(&next); err != nil {
			return err
		}
		if next == cur {
			return nil
		}
		return saveAccount(ctx, tx, next)
	})
}

func lockAccount(ctx context.Context, tx *sql.Tx, name string) (Account, error) {
	const q = `
SELECT id, name, password_hash, state, failed_attempts
FROM admin_accounts
WHERE name = $1
FOR UPDATE
`
	var (
		a     Account
		state string
	)
	if err := tx.QueryRowContext(ctx, q, name).Scan(
		&a.ID,
		&a.Name,
		&a.PasswordHash,
		&state,
		&a.FailedAttempts,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Account{}, ErrNotFound
		}
		return Account{}, err
	}
	a.State = State(state)
	return a, nil
}

func saveAccount(ctx context.Context, tx *sql.Tx, a Account) error {
	const q = `
UPDATE admin_accounts
SET password_hash = $2, state = $3, failed_attempts = $4, updated_at = now()
WHERE id = $1
`
	_, err := tx.ExecContext(ctx, q, a.ID, a.PasswordHash, string(a.State), a.FailedAttempts)
	return err
}
