package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/interview-brief-backend/internal/domain"
)

func TestStatusForCode(t *testing.T) {
	cases := map[domain.ErrorCode]int{
		domain.CodeValidation:           http.StatusBadRequest,
		domain.CodeNotFound:             http.StatusNotFound,
		domain.CodeAuthorization:        http.StatusForbidden,
		domain.CodeMalformedModelOutput: http.StatusBadGateway,
		domain.CodeStateConflict:        http.StatusConflict,
		domain.CodeQuotaExceeded:        http.StatusTooManyRequests,
		"mystery":                       http.StatusInternalServerError,
	}
	for code, want := range cases {
		if got := StatusForCode(code); got != want {
			t.Fatalf("StatusForCode(%s): want=%d got=%d", code, want, got)
		}
	}
}

func TestRespondAPIErrorEnvelope(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	RespondAPIError(c, domain.StateConflictError("send_packet", domain.StatusCreated, "send packet"))

	if w.Code != http.StatusConflict {
		t.Fatalf("status: want=%d got=%d", http.StatusConflict, w.Code)
	}
	var env ErrorEnvelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Error.Code != "state_conflict" {
		t.Fatalf("code: want=state_conflict got=%s", env.Error.Code)
	}
	if env.Error.Message != "cannot send packet while session is created" {
		t.Fatalf("message: got=%q", env.Error.Message)
	}
}

func TestRespondAPIErrorUntypedIsInternal(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	RespondAPIError(c, errors.New("disk on fire"))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status: want=500 got=%d", w.Code)
	}
	var env ErrorEnvelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Error.Code != "internal" || env.Error.Message != "internal error" {
		t.Fatalf("internal details must not leak: got=%+v", env.Error)
	}
}
