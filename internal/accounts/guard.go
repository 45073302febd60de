package accounts

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"wastereport/pkg/logger"
)

// Repository persists accounts. WithAccount is the only mutation path for
// existing accounts.
type Repository interface {
	// WithAccount loads the named account, holds it exclusively while fn runs
	// and persists it if fn returns nil. Unknown names yield ErrNotFound.
	WithAccount(ctx context.Context, name string, fn func(a *Account) error) error
	// Create inserts a new account. Duplicate names yield ErrAlreadyExists.
	Create(ctx context.Context, a Account) error
}

// Guard enforces the open/locked state machine on every credential check.
type Guard struct {
	repo   Repository
	hasher Hasher
}

func NewGuard(repo Repository, hasher Hasher) *Guard {
	if hasher == nil {
		hasher = BcryptHasher{}
	}
	return &Guard{repo: repo, hasher: hasher}
}

// Authenticate checks secret against the named account. Failed attempts are
// counted even though the returned error is nil; errors mean storage failure.
func (g *Guard) Authenticate(ctx context.Context, name, secret string) (Outcome, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Outcome{Result: ResultNotFound}, nil
	}

	var out Outcome
	err := g.repo.WithAccount(ctx, name, func(a *Account) error {
		out = g.gate(ctx, a, secret)
		return nil
	})
	if errors.Is(err, ErrNotFound) {
		return Outcome{Result: ResultNotFound}, nil
	}
	if err != nil {
		return Outcome{}, err
	}
	return out, nil
}

// ChangePassword runs the same gate as Authenticate and, on success, replaces
// the credential and resets the failure counter. It never changes State.
func (g *Guard) ChangePassword(ctx context.Context, name, secret, newSecret string) (Outcome, error) {
	if err := CheckSecret(newSecret); err != nil {
		return Outcome{}, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return Outcome{Result: ResultNotFound}, nil
	}
	hash, err := g.hasher.Hash(newSecret)
	if err != nil {
		return Outcome{}, err
	}

	var out Outcome
	err = g.repo.WithAccount(ctx, name, func(a *Account) error {
		out = g.gate(ctx, a, secret)
		if out.OK() {
			a.PasswordHash = hash
			a.FailedAttempts = 0
		}
		return nil
	})
	if errors.Is(err, ErrNotFound) {
		return Outcome{Result: ResultNotFound}, nil
	}
	if err != nil {
		return Outcome{}, err
	}
	if out.OK() {
		logger.From(ctx).Info("admin password changed", "admin", out.Name)
	}
	return out, nil
}

// gate applies one authentication attempt to a. The caller holds a exclusively.
func (g *Guard) gate(ctx context.Context, a *Account, secret string) Outcome {
	if a.State != StateOpen {
		return Outcome{Result: ResultLocked}
	}
	if g.hasher.Verify(secret, a.PasswordHash) {
		a.FailedAttempts = 0
		return Outcome{Result: ResultSuccess, AccountID: a.ID, Name: a.Name}
	}

	a.FailedAttempts++
	if a.FailedAttempts >= MaxFailedAttempts {
		a.State = StateLocked
		logger.From(ctx).Warn("admin account locked after failed attempts", "admin", a.Name, "attempts", a.FailedAttempts)
		return Outcome{Result: ResultLockedJustNow}
	}
	return Outcome{Result: ResultFailure, RemainingAttempts: MaxFailedAttempts - a.FailedAttempts}
}

// CheckSecret enforces the minimum length on the trimmed secret.
func CheckSecret(secret string) error {
	if utf8.RuneCountInString(strings.TrimSpace(secret)) < MinSecretLength {
		return ErrSecretTooShort
	}
	return nil
}
