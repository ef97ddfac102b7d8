package sendgrid

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/yungbote/interview-brief-backend/internal/platform/logger"
)

func TestSendPostsMailPayload(t *testing.T) {
	var got mailSendRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v3/mail/send" {
			t.Errorf("path: want=/v3/mail/send got=%s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer sg-key" {
			t.Errorf("authorization header: got=%q", r.Header.Get("Authorization"))
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("X-Message-Id", "msg-1")
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	c, err := New(logger.Nop(), Config{APIKey: "sg-key", BaseURL: srv.URL, DefaultFromEmail: "briefs@example.test", Timeout: 5 * time.Second})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	res, err := c.Send(context.Background(), SendEmailRequest{
		To:      []EmailAddress{{Email: "lead@acme.test"}},
		Subject: "Your pre-read",
		Text:    "hello",
	})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if res.MessageID != "msg-1" || res.StatusCode != http.StatusAccepted {
		t.Fatalf("result: got=%+v", res)
	}
	if got.From.Email != "briefs@example.test" {
		t.Fatalf("from: want default sender got=%q", got.From.Email)
	}
	if len(got.Personalizations) != 1 || got.Personalizations[0].To[0].Email != "lead@acme.test" {
		t.Fatalf("personalizations: got=%+v", got.Personalizations)
	}
}

func TestSendDoesNotRetryClientErrors(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"errors":[{"message":"bad to address"}]}`))
	}))
	defer srv.Close()

	c, err := New(logger.Nop(), Config{APIKey: "k", BaseURL: srv.URL, DefaultFromEmail: "a@b.test", MaxRetries: 3})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_, err = c.Send(context.Background(), SendEmailRequest{To: []EmailAddress{{Email: "x"}}, Subject: "s", Text: "t"})
	if err == nil {
		t.Fatalf("Send: expected error")
	}
	if calls != 1 {
		t.Fatalf("calls: want=1 got=%d", calls)
	}
	if err.Error() != "sendgrid http 400: bad to address" {
		t.Fatalf("error: got=%q", err.Error())
	}
}

func TestSendValidatesInput(t *testing.T) {
	c, _ := New(logger.Nop(), Config{APIKey: "k"})
	if _, err := c.Send(context.Background(), SendEmailRequest{To: []EmailAddress{{Email: "x"}}, Subject: "s", Text: "t"}); err == nil {
		t.Fatalf("Send without sender: expected error")
	}
}
