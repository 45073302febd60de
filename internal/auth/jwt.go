package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"wastereport/internal/config"
)

type Manager struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

func NewManager(cfg config.SessionConfig) (*Manager, error) {
	if cfg.Secret == "" {
		return nil, errors.New("SESSION_SECRET is required")
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 8 * time.Hour
	}
	return &Manager{
		secret: []byte(cfg.Secret),
		issuer: cfg.Issuer,
		ttl:    ttl,
	}, nil
}

// Session is an issued admin session token.
type Session struct {
	Token     string
	ID        string
	ExpiresAt time.Time
}

func (m *Manager) TTL() time.Duration { return m.ttl }

func (m *Manager) Issue(now time.Time, adminID, adminName string) (Session, error) {
	if adminID == "" {
		return Session{}, errors.New("admin_id missing")
	}
	jti := uuid.NewString()
	exp := now.Add(m.ttl)

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   adminID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
			ID:        jti,
		},
		AdminID:   adminID,
		AdminName: adminName,
		TokenType: TokenTypeAdminSession,
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString(m.secret)
	if err != nil {
		return Session{}, err
	}
	return Session{Token: signed, ID: jti, ExpiresAt: exp}, nil
}

func (m *Manager) Verify(tokenString string, now time.Time) (Claims, error) {
	var claims Claims

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(func() time.Time { return now }),
		jwt.WithLeeway(30 * time.Second), // clock skew tolerance
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
	}
	if m.issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.issuer))
	}

	_, err := jwt.NewParser(opts...).ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		return m.secret, nil
	})
	if err != nil {
		return Claims{}, err
	}

	if claims.TokenType != TokenTypeAdminSession {
		return Claims{}, errors.New("token_type mismatch")
	}
	if claims.AdminID == "" {
		return Claims{}, errors.New("admin_id missing")
	}
	if claims.ID == "" {
		return Claims{}, errors.New("jti missing")
	}
	return claims, nil
}
