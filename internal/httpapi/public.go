package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"wastereport/internal/intake"
	"wastereport/internal/reports"
	"wastereport/internal/uploads"
)

const multipartMemory = 8 << 20

// SubmitReport accepts the public report form (multipart or urlencoded).
func (h Handlers) SubmitReport(c *gin.Context) {
	if h.Intake == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "intake not configured"})
		return
	}
	if h.MaxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.MaxUploadBytes)
	}
	if err := c.Request.ParseMultipartForm(multipartMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		h.Metrics.ReportSubmitted("rejected")
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			writeError(c, err)
			return
		}
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid form"})
		return
	}

	req := intake.SubmitRequest{
		Address:     c.PostForm("address"),
		Description: c.PostForm("description"),
		Latitude:    c.PostForm("lat"),
		Longitude:   c.PostForm("lng"),
	}

	fh, err := c.FormFile("photo")
	switch {
	case err == nil && fh.Filename != "":
		f, err := fh.Open()
		if err != nil {
			writeError(c, err)
			return
		}
		defer f.Close()
		req.Photo = &uploads.Photo{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Size:        fh.Size,
			Body:        f,
		}
	case err != nil && !errors.Is(err, http.ErrMissingFile) && !errors.Is(err, http.ErrNotMultipart):
		writeError(c, err)
		return
	}

	id, err := h.Intake.Submit(c.Request.Context(), req)
	if err != nil {
		var ve *intake.ValidationError
		if errors.As(err, &ve) {
			h.Metrics.ReportSubmitted("rejected")
		} else {
			h.Metrics.ReportSubmitted("failed")
		}
		writeError(c, err)
		return
	}
	h.Metrics.ReportSubmitted("created")
	c.JSON(http.StatusCreated, gin.H{"ok": true, "id": id})
}

// ListReports is the public, newest-first report feed.
func (h Handlers) ListReports(c *gin.Context) {
	if h.Reports == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "reports not configured"})
		return
	}
	out, err := h.Reports.List(c.Request.Context(), reports.Query{Limit: parseLimit(c, reports.PublicListCap)})
	if err != nil {
		writeError(c, err)
		return
	}
	res := make([]reports.Summary, 0, len(out))
	for _, r := range out {
		res = append(res, r.Summary())
	}
	c.JSON(http.StatusOK, res)
}
