package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/interview-brief-backend/internal/platform/ctxutil"
)

func TestAttachTraceContextPropagatesIDs(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var seen *ctxutil.TraceData
	r := gin.New()
	r.Use(AttachTraceContext())
	r.GET("/x", func(c *gin.Context) {
		seen = ctxutil.GetTraceData(c.Request.Context())
		c.Status(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(headerRequestID, "req-1")
	req.Header.Set(headerTraceID, "trace-1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if seen == nil || seen.RequestID != "req-1" || seen.TraceID != "trace-1" {
		t.Fatalf("trace data: got=%+v", seen)
	}
	if w.Header().Get(headerRequestID) != "req-1" || w.Header().Get(headerTraceID) != "trace-1" {
		t.Fatalf("response headers: got=%v", w.Header())
	}
}

func TestAttachTraceContextReplacesOversizedRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(AttachTraceContext())
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(headerRequestID, strings.Repeat("a", maxRequestIDLen+1))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	got := w.Header().Get(headerRequestID)
	if got == "" || len(got) > maxRequestIDLen {
		t.Fatalf("request id should be regenerated, got=%q", got)
	}
	if w.Header().Get(headerTraceID) == "" {
		t.Fatalf("trace id should always be set")
	}
}
