package accounts

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// Hasher is the credential hashing primitive.
type Hasher interface {
	Hash(secret string) (string, error)
	Verify(secret, hash string) bool
}

// BcryptHasher hashes with bcrypt. A zero Cost means bcrypt.DefaultCost.
type BcryptHasher struct {
	Cost int
}

func (h BcryptHasher) Hash(secret string) (string, error) {
	if len(secret) == 0 {
		return "", errors.New("password is empty")
	}
	cost := h.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func (h BcryptHasher) Verify(secret, hash string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret)) == nil
}
