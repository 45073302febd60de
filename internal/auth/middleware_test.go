package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"wastereport/internal/config"
)

func newRouter(t *testing.T, rv Revoker) (*gin.Engine, *Manager) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	m, err := NewManager(config.SessionConfig{Secret: "secret", TTL: time.Hour})
	if err != nil {
		t.Fatalf("manager: %v", err)
	}
	r := gin.New()
	handler := func(c *gin.Context) {
		id, err := IdentityFrom(c.Request.Context())
		if err != nil {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.String(http.StatusOK, id.AdminName)
	}
	r.GET("/admin/dashboard", RequireAdmin(m, rv), handler)
	r.POST("/admin/reports/:id/update", RequireAdmin(m, rv), handler)
	return r, m
}

func TestRequireAdmin_RedirectsPagesAndRejectsWrites(t *testing.T) {
	r, _ := newRouter(t, nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin/dashboard", nil))
	if w.Code != http.StatusSeeOther || w.Header().Get("Location") != LoginPath {
		t.Fatalf("expected redirect to login, got %d %q", w.Code, w.Header().Get("Location"))
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/admin/reports/x/update", nil))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestRequireAdmin_AcceptsCookieAndBearer(t *testing.T) {
	r, m := newRouter(t, nil)
	s, err := m.Issue(time.Now(), "admin-1", "anna")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/admin/dashboard", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: s.Token})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK || w.Body.String() != "anna" {
		t.Fatalf("cookie: expected 200 anna, got %d %q", w.Code, w.Body.String())
	}

	req = httptest.NewRequest(http.MethodPost, "/admin/reports/x/update", nil)
	req.Header.Set("Authorization", "Bearer "+s.Token)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("bearer: expected 200, got %d", w.Code)
	}
}

func TestRequireAdmin_RevokedSession(t *testing.T) {
	rv := NewMemoryRevoker()
	r, m := newRouter(t, rv)
	s, _ := m.Issue(time.Now(), "admin-1", "anna")
	if err := rv.Revoke(context.Background(), s.ID, s.ExpiresAt); err != nil {
		t.Fatalf("revoke: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/admin/reports/x/update", nil)
	req.Header.Set("Authorization", "Bearer "+s.Token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for revoked session, got %d", w.Code)
	}
}

func TestMemoryRevoker_ForgetsAfterExpiry(t *testing.T) {
	rv := NewMemoryRevoker()
	now := time.Unix(1700000000, 0)
	rv.clock = func() time.Time { return now }
	_ = rv.Revoke(context.Background(), "s1", now.Add(time.Minute))

	if ok, _ := rv.IsRevoked(context.Background(), "s1"); !ok {
		t.Fatalf("expected revoked")
	}
	now = now.Add(2 * time.Minute)
	if ok, _ := rv.IsRevoked(context.Background(), "s1"); ok {
		t.Fatalf("expected revocation to lapse")
	}
}

func TestIdentityFromEmptyContext(t *testing.T) {
	if _, err := AdminID(context.Background()); err == nil {
		t.Fatalf("expected error")
	}
}
