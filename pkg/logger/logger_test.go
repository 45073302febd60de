package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestFrom_FallsBackToDefault(t *testing.T) {
	if From(context.Background()) == nil {
		t.Fatalf("expected default logger")
	}
}

func TestMiddleware_PropagatesRequestIDToContext(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var buf bytes.Buffer
	l := NewWithWriter("production", &buf)

	r := gin.New()
	r.Use(Middleware(l))
	r.GET("/x", func(c *gin.Context) {
		From(c.Request.Context()).Info("inside handler")
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("X-Request-Id", "rid-1")
	r.ServeHTTP(w, req)

	if got := w.Header().Get("X-Request-Id"); got != "rid-1" {
		t.Fatalf("expected request id echoed, got %q", got)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 log lines, got %d: %q", len(lines), buf.String())
	}
	for _, line := range lines {
		var entry map[string]any
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			t.Fatalf("log line not JSON: %v", err)
		}
		if entry["request_id"] != "rid-1" {
			t.Fatalf("missing request_id in %v", entry)
		}
	}
}
