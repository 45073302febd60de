package httpapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"wastereport/internal/accounts"
	"wastereport/internal/audit"
	"wastereport/internal/auth"
	"wastereport/internal/filter"
	"wastereport/internal/reports"
	"wastereport/pkg/logger"
)

type loginRequest struct {
	Name   string `form:"name" json:"name"`
	Secret string `form:"secret" json:"secret"`
	// Bearer asks for the token in the body instead of a session cookie.
	Bearer bool `form:"bearer" json:"bearer"`
}

type changePasswordRequest struct {
	Name      string `form:"name" json:"name"`
	Secret    string `form:"secret" json:"secret"`
	NewSecret string `form:"new_secret" json:"new_secret"`
}

// Login runs the lockout gate and, on success, starts an admin session.
func (h Handlers) Login(c *gin.Context) {
	if h.Guard == nil || h.Sessions == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "auth not configured"})
		return
	}
	var req loginRequest
	if err := c.ShouldBind(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	out, err := h.Guard.Authenticate(c.Request.Context(), req.Name, req.Secret)
	if err != nil {
		writeError(c, err)
		return
	}
	h.Metrics.AuthOutcome("login", string(out.Result))
	if !out.OK() {
		writeOutcome(c, out)
		return
	}

	s, err := h.Sessions.Issue(time.Now(), out.AccountID, out.Name)
	if err != nil {
		writeError(c, err)
		return
	}
	logger.FromGin(c).Info("admin logged in", "admin", out.Name, "bearer", req.Bearer)
	if req.Bearer {
		c.JSON(http.StatusOK, gin.H{"success": true, "token": s.Token, "expires_at": s.ExpiresAt})
		return
	}
	auth.SetSessionCookie(c, s, h.SecureCookies)
	c.JSON(http.StatusOK, gin.H{"success": true, "redirect": DashboardPath})
}

// ChangePassword shares the lockout gate with Login.
func (h Handlers) ChangePassword(c *gin.Context) {
	if h.Guard == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "auth not configured"})
		return
	}
	var req changePasswordRequest
	if err := c.ShouldBind(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	out, err := h.Guard.ChangePassword(c.Request.Context(), req.Name, req.Secret, req.NewSecret)
	if err != nil {
		if errors.Is(err, accounts.ErrSecretTooShort) {
			h.Metrics.AuthOutcome("change_password", "too_short")
		}
		writeError(c, err)
		return
	}
	h.Metrics.AuthOutcome("change_password", string(out.Result))
	if !out.OK() {
		writeOutcome(c, out)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// writeOutcome answers a non-successful authentication gate.
func writeOutcome(c *gin.Context, out accounts.Outcome) {
	switch out.Result {
	case accounts.ResultLocked:
		c.AbortWithStatusJSON(http.StatusLocked, gin.H{"locked": true, "error": "account is locked"})
	case accounts.ResultLockedJustNow:
		c.AbortWithStatusJSON(http.StatusLocked, gin.H{"locked": true, "error": "too many failed attempts, account locked"})
	case accounts.ResultFailure:
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"failure":            true,
			"error":              "invalid name or password",
			"remaining_attempts": out.RemainingAttempts,
		})
	default:
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"failure": true, "error": "invalid name or password"})
	}
}

// Logout revokes the presented session, if any, and clears the cookie.
func (h Handlers) Logout(c *gin.Context) {
	if tok := auth.TokenFromRequest(c); tok != "" && h.Sessions != nil {
		if claims, err := h.Sessions.Verify(tok, time.Now()); err == nil && h.Revoker != nil && claims.ExpiresAt != nil {
			if err := h.Revoker.Revoke(c.Request.Context(), claims.ID, claims.ExpiresAt.Time); err != nil {
				writeError(c, err)
				return
			}
			logger.FromGin(c).Info("admin logged out", "admin", claims.AdminName)
		}
	}
	auth.ClearSessionCookie(c, h.SecureCookies)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Dashboard lists reports matching the admin filter.
func (h Handlers) Dashboard(c *gin.Context) {
	if h.Filter == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "filter not configured"})
		return
	}
	var req filter.Request
	if err := c.ShouldBindQuery(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid query"})
		return
	}
	res, err := h.Filter.Dashboard(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// UpdateReport applies an admin edit and its audit records atomically.
func (h Handlers) UpdateReport(c *gin.Context) {
	if h.Audit == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "audit not configured"})
		return
	}
	adminID, err := auth.AdminID(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	p, err := bindProposed(c)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	res, err := h.Audit.ApplyUpdate(c.Request.Context(), c.Param("id"), adminID, p)
	if err != nil {
		switch {
		case errors.Is(err, reports.ErrNotFound):
			h.Metrics.ReportUpdate("not_found", nil)
		case errors.Is(err, audit.ErrInvalidValue):
			h.Metrics.ReportUpdate("invalid", nil)
		default:
			h.Metrics.ReportUpdate("failed", nil)
		}
		writeError(c, err)
		return
	}

	fields := make([]string, 0, len(res.Changes))
	for _, ch := range res.Changes {
		fields = append(fields, string(ch.Field))
	}
	h.Metrics.ReportUpdate("ok", fields)
	c.JSON(http.StatusOK, gin.H{
		"report_id":       res.ReportID,
		"applied_at":      res.AppliedAt,
		"applied_changes": res.Changes,
	})
}

// bindProposed builds the proposal from a JSON or form body. In JSON an
// explicit "" clears a field. Forms post every input, so an empty form value
// means no change.
func bindProposed(c *gin.Context) (audit.Proposed, error) {
	var p audit.Proposed
	if strings.HasPrefix(c.ContentType(), "application/json") {
		err := c.ShouldBindJSON(&p)
		return p, err
	}
	field := func(key string) *string {
		if v, ok := c.GetPostForm(key); ok && strings.TrimSpace(v) != "" {
			return &v
		}
		return nil
	}
	p.Status = field("status")
	p.Priority = field("priority")
	p.WasteCategory = field("waste_category")
	p.Quantity = field("quantity")
	return p, nil
}

// ListChanges returns the newest audit records.
func (h Handlers) ListChanges(c *gin.Context) {
	if h.Audit == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "audit not configured"})
		return
	}
	out, err := h.Audit.List(c.Request.Context(), parseLimit(c, audit.DefaultListLimit))
	if err != nil {
		writeError(c, err)
		return
	}
	if out == nil {
		out = []audit.Record{}
	}
	c.JSON(http.StatusOK, out)
}
