package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"wastereport/internal/accounts"
	"wastereport/internal/audit"
	"wastereport/internal/auth"
	"wastereport/internal/intake"
	"wastereport/internal/reports"
	"wastereport/internal/uploads"
	"wastereport/pkg/logger"
)

// writeError maps domain errors to HTTP responses. Anything unrecognised is a
// storage failure: logged, answered with a generic message.
func writeError(c *gin.Context, err error) {
	var (
		ve  *intake.ValidationError
		mbe *http.MaxBytesError
	)
	switch {
	case errors.As(err, &ve):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": ve.Message, "field": ve.Field})
	case errors.As(err, &mbe), errors.Is(err, uploads.ErrTooLarge):
		c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{"error": "request too large"})
	case errors.Is(err, reports.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "report not found"})
	case errors.Is(err, audit.ErrInvalidValue), errors.Is(err, accounts.ErrInvalidInput):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, accounts.ErrSecretTooShort):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"too_short": true, "error": "new password must be at least 8 characters"})
	case errors.Is(err, audit.ErrUnknownAdmin), errors.Is(err, audit.ErrMissingAdmin), errors.Is(err, auth.ErrNoIdentity):
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "admin session required"})
	default:
		logger.FromGin(c).Error("request failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error, nothing was saved"})
	}
}
