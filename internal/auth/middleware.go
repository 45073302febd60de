package auth

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"wastereport/pkg/logger"
)

const (
	authorizationHeader = "Authorization"
	bearerPrefix        = "Bearer "

	// SessionCookie holds the signed admin session token.
	SessionCookie = "admin_session"
	// LoginPath is where unauthenticated page requests are sent.
	LoginPath = "/admin"
)

// RequireAdmin verifies the session token and injects the admin Identity into
// the request context. Unauthenticated GET requests are redirected to the
// login page; other methods get 401.
func RequireAdmin(m *Manager, rv Revoker) gin.HandlerFunc {
	return func(c *gin.Context) {
		tok := tokenFromRequest(c)
		if tok == "" {
			reject(c, "missing session")
			return
		}

		claims, err := m.Verify(tok, time.Now())
		if err != nil {
			reject(c, "invalid session")
			return
		}

		if rv != nil {
			revoked, err := rv.IsRevoked(c.Request.Context(), claims.ID)
			if err != nil {
				logger.FromGin(c).Error("session revocation check failed", "err", err)
				c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "session check unavailable"})
				return
			}
			if revoked {
				reject(c, "session ended")
				return
			}
		}

		id := Identity{
			AdminID:   claims.AdminID,
			AdminName: claims.AdminName,
			SessionID: claims.ID,
		}
		if claims.ExpiresAt != nil {
			id.ExpiresAt = claims.ExpiresAt.Time
		}
		ctx := WithIdentity(c.Request.Context(), id)
		c.Request = c.Request.WithContext(ctx)

		// Also store on gin context for handler convenience.
		c.Set("admin_id", id.AdminID)
		c.Set("admin_name", id.AdminName)

		c.Next()
	}
}

func tokenFromRequest(c *gin.Context) string {
	if v, err := c.Cookie(SessionCookie); err == nil && v != "" {
		return v
	}
	raw := strings.TrimSpace(c.GetHeader(authorizationHeader))
	if strings.HasPrefix(raw, bearerPrefix) {
		return strings.TrimSpace(strings.TrimPrefix(raw, bearerPrefix))
	}
	return ""
}

func reject(c *gin.Context, msg string) {
	if c.Request.Method == http.MethodGet {
		c.Redirect(http.StatusSeeOther, LoginPath)
		c.Abort()
		return
	}
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg})
}

// SetSessionCookie writes the session cookie for s.
func SetSessionCookie(c *gin.Context, s Session, secure bool) {
	maxAge := int(time.Until(s.ExpiresAt).Seconds())
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookie, s.Token, maxAge, "/", "", secure, true)
}

func ClearSessionCookie(c *gin.Context, secure bool) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookie, "", -1, "/", "", secure, true)
}

// TokenFromRequest exposes the token lookup used by RequireAdmin.
func TokenFromRequest(c *gin.Context) string { return tokenFromRequest(c) }
