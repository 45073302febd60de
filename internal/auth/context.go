package auth

import (
	"context"
	"errors"
	"time"
)

// Identity is the authenticated admin for one request.
type Identity struct {
	AdminID   string
	AdminName string
	SessionID string
	ExpiresAt time.Time
}

type ctxKey int

const ctxIdentity ctxKey = iota

var ErrNoIdentity = errors.New("auth: admin identity not in context")

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxIdentity, id)
}

func IdentityFrom(ctx context.Context) (Identity, error) {
	if id, ok := ctx.Value(ctxIdentity).(Identity); ok && id.AdminID != "" {
		return id, nil
	}
	return Identity{}, ErrNoIdentity
}

// AdminID is a shorthand for IdentityFrom(ctx).AdminID.
func AdminID(ctx context.Context) (string, error) {
	id, err := IdentityFrom(ctx)
	if err != nil {
		return "", err
	}
	return id.AdminID, nil
}
