package httpapi

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"wastereport/internal/accounts"
	"wastereport/internal/audit"
	"wastereport/internal/auth"
	"wastereport/internal/filter"
	"wastereport/internal/intake"
	"wastereport/internal/metrics"
	"wastereport/internal/reports"
)

// Handlers groups HTTP handlers for dependency injection.
// Keep these thin: parse/validate input, call internal services, return JSON.
type Handlers struct {
	Intake   *intake.Service
	Reports  reports.Store
	Guard    *accounts.Guard
	Sessions *auth.Manager
	Revoker  auth.Revoker
	Filter   *filter.Engine
	Audit    *audit.Service
	Metrics  *metrics.Metrics

	// Ping checks backing services for /healthz. Nil means always healthy.
	Ping func(ctx context.Context) error

	SecureCookies  bool
	MaxUploadBytes int64
}

// DashboardPath is where a successful login sends the browser.
const DashboardPath = "/admin/dashboard"

func (h Handlers) Health(c *gin.Context) {
	if h.Ping != nil {
		if err := h.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// LoginPage is the redirect target for unauthenticated admin pages.
// Rendering the form is left to the frontend.
func (h Handlers) LoginPage(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"login":           "POST /admin/login",
		"change_password": "POST /admin/change_password",
	})
}

// parseLimit reads ?limit= and clamps it into [1, max]. Missing or invalid
// values yield max.
func parseLimit(c *gin.Context, max int) int {
	raw := c.Query("limit")
	if raw == "" {
		return max
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n > max {
		return max
	}
	if n < 1 {
		return 1
	}
	return n
}
