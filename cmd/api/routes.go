package main

import (
	"github.com/gin-gonic/gin"

	"wastereport/internal/auth"
	"wastereport/internal/httpapi"
	"wastereport/internal/metrics"
	"wastereport/internal/ratelimit"
)

type routeDeps struct {
	Handlers      httpapi.Handlers
	Metrics       *metrics.Metrics
	SubmitLimiter *ratelimit.PerIP
	LoginThrottle *ratelimit.LoginThrottle

	// StaticDir, when set, is served under StaticPrefix (disk upload backend).
	StaticPrefix string
	StaticDir    string
}

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers should delegate to internal modules.
func registerRoutes(r *gin.Engine, d routeDeps) {
	h := d.Handlers

	// public
	r.GET("/healthz", h.Health)
	r.GET("/metrics", gin.WrapH(d.Metrics.Handler()))
	if d.StaticDir != "" {
		r.Static(d.StaticPrefix, d.StaticDir)
	}

	r.GET("/reports", h.ListReports)
	r.POST("/reports", d.SubmitLimiter.Middleware(), h.SubmitReport)

	// admin auth (unauthenticated, throttled per client IP)
	r.GET(auth.LoginPath, h.LoginPage)
	r.POST("/admin/login", d.LoginThrottle.Middleware(), h.Login)
	r.POST("/admin/change_password", d.LoginThrottle.Middleware(), h.ChangePassword)
	r.POST("/admin/logout", h.Logout)

	// admin pages
	admin := r.Group("/admin")
	admin.Use(auth.RequireAdmin(h.Sessions, h.Revoker))
	{
		admin.GET("/dashboard", h.Dashboard)
		admin.POST("/reports/:id/update", h.UpdateReport)
		admin.GET("/changes", h.ListChanges)
	}
}
