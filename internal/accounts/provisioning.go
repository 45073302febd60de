package accounts

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"wastereport/pkg/logger"
)

// Provisioner performs the out-of-band account operations used by adminctl.
type Provisioner struct {
	repo   Repository
	hasher Hasher
}

func NewProvisioner(repo Repository, hasher Hasher) *Provisioner {
	if hasher == nil {
		hasher = BcryptHasher{}
	}
	return &Provisioner{repo: repo, hasher: hasher}
}

// Create adds an open account with a zero failure counter.
func (p *Provisioner) Create(ctx context.Context, name, secret string) (Account, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Account{}, ErrInvalidInput
	}
	if err := CheckSecret(secret); err != nil {
		return Account{}, err
	}
	hash, err := p.hasher.Hash(secret)
	if err != nil {
		return Account{}, err
	}

	a := Account{
		ID:           uuid.NewString(),
		Name:         name,
		PasswordHash: hash,
		State:        StateOpen,
	}
	if err := p.repo.Create(ctx, a); err != nil {
		return Account{}, err
	}
	logger.From(ctx).Info("admin account created", "admin", name, "admin_id", a.ID)
	return a, nil
}

// Lock moves the account to StateLocked. The failure counter is left as is.
func (p *Provisioner) Lock(ctx context.Context, name string) error {
	err := p.repo.WithAccount(ctx, strings.TrimSpace(name), func(a *Account) error {
		a.State = StateLocked
		return nil
	})
	if err == nil {
		logger.From(ctx).Warn("admin account locked by operator", "admin", name)
	}
	return err
}

// Unlock reopens the account and resets its failure counter. A non-nil
// newSecret also replaces the credential.
func (p *Provisioner) Unlock(ctx context.Context, name string, newSecret *string) error {
	var hash string
	if newSecret != nil {
		if err := CheckSecret(*newSecret); err != nil {
			return err
		}
		h, err := p.hasher.Hash(*newSecret)
		if err != nil {
			return err
		}
		hash = h
	}

	err := p.repo.WithAccount(ctx, strings.TrimSpace(name), func(a *Account) error {
		a.State = StateOpen
		a.FailedAttempts = 0
		if hash != "" {
			a.PasswordHash = hash
		}
		return nil
	})
	if err == nil {
		logger.From(ctx).Info("admin account unlocked", "admin", name, "password_reset", newSecret != nil)
	}
	return err
}
