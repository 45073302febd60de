package auth

import "github.com/golang-jwt/jwt/v5"

// TokenTypeAdminSession is the only token type this service issues.
const TokenTypeAdminSession = "admin_session"

// Claims is the signed admin identity carried by the session cookie.
// There is a single admin role, so no role claim exists.
type Claims struct {
	jwt.RegisteredClaims

	AdminID   string `json:"admin_id"`
	AdminName string `json:"admin_name"`
	TokenType string `json:"token_type"`
}
