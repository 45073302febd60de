package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, err := io.ReadAll(w.Body)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	return string(body)
}

func TestMiddlewareCountsByRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := New()
	r := gin.New()
	r.Use(m.Middleware())
	r.GET("/reports/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, p := range []string{"/reports/a", "/reports/b", "/reports/c"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, p, nil))
	}
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nope", nil))

	body := scrape(t, m)
	if !strings.Contains(body, `http_requests_total{method="GET",route="/reports/:id",status="200"} 3`) {
		t.Fatalf("expected route-labelled counter, got:\n%s", body)
	}
	if !strings.Contains(body, `http_requests_total{method="GET",route="unmatched",status="404"} 1`) {
		t.Fatalf("expected unmatched counter, got:\n%s", body)
	}
}

func TestDomainCounters(t *testing.T) {
	m := New()
	m.AuthOutcome("login", "failure")
	m.ReportUpdate("ok", []string{"status", "priority"})
	m.ReportSubmitted("created")

	body := scrape(t, m)
	for _, want := range []string{
		`admin_auth_outcomes_total{operation="login",outcome="failure"} 1`,
		`report_updates_total{result="ok"} 1`,
		`report_audit_records_total{field="status"} 1`,
		`reports_submitted_total{result="created"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %s in exposition", want)
		}
	}
}
