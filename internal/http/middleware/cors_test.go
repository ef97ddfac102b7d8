package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func preflight(r *gin.Engine, origin string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodOptions, "/api/sessions/s1/corrections", nil)
	req.Header.Set("Origin", origin)
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Content-Type")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestCORSFeedbackFrontend(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	// Configured with a trailing slash, matched without one.
	r.Use(CORS("https://brief.example.com/", "  "))
	r.POST("/api/sessions/:id/corrections", func(c *gin.Context) { c.Status(http.StatusOK) })

	cases := []struct {
		origin string
		allow  bool
	}{
		{"https://brief.example.com", true},
		{"http://localhost:5173", true},
		{"http://127.0.0.1:3000", true},
		{"https://brief.example.com.evil.test", false},
		{"http://localhost:8081", false},
	}
	for _, tc := range cases {
		rec := preflight(r, tc.origin)
		got := rec.Header().Get("Access-Control-Allow-Origin")
		if tc.allow && got != tc.origin {
			t.Fatalf("%s: want allowed got=%q (status %d)", tc.origin, got, rec.Code)
		}
		if !tc.allow && got != "" {
			t.Fatalf("%s: want rejected got=%q", tc.origin, got)
		}
		if tc.allow && rec.Header().Get("Access-Control-Allow-Credentials") != "true" {
			t.Fatalf("%s: credentials should be allowed", tc.origin)
		}
	}
}

func TestCORSExposesRequestIDs(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CORS())
	r.GET("/api/sessions", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/api/sessions", nil)
	req.Header.Set("Origin", "http://localhost:5174")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Expose-Headers"); got == "" {
		t.Fatalf("expose headers: want X-Request-Id and X-Trace-Id got empty")
	}
}
