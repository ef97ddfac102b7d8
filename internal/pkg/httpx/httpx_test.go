package httpx

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"
)

type statusErr int

func (e statusErr) Error() string       { return fmt.Sprintf("http %d", int(e)) }
func (e statusErr) HTTPStatusCode() int { return int(e) }

func TestDelayDoublesAndCaps(t *testing.T) {
	p := Policy{MaxRetries: 5, Base: time.Second, Max: 10 * time.Second}
	want := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second, 10 * time.Second}
	for attempt, w := range want {
		if got := p.Delay(attempt, nil); got != w {
			t.Fatalf("Delay(%d): want=%v got=%v", attempt, w, got)
		}
	}
}

func TestDelayJitterStaysInBand(t *testing.T) {
	p := DefaultPolicy(3)
	for i := 0; i < 50; i++ {
		got := p.Delay(1, nil)
		if got < 1600*time.Millisecond || got > 2400*time.Millisecond {
			t.Fatalf("jittered delay out of band: got=%v", got)
		}
	}
}

func TestRetryAfterOverridesBackoff(t *testing.T) {
	p := Policy{Base: time.Second, Max: 10 * time.Second}
	resp := &http.Response{Header: http.Header{}}
	resp.Header.Set("Retry-After", "3")
	if got := p.Delay(4, resp); got != 3*time.Second {
		t.Fatalf("seconds: want=3s got=%v", got)
	}
	resp.Header.Set("Retry-After", "0")
	if got := p.Delay(4, resp); got != 0 {
		t.Fatalf("zero: want=0 got=%v", got)
	}
	resp.Header.Set("Retry-After", "120")
	if got := p.Delay(0, resp); got != 10*time.Second {
		t.Fatalf("capped: want=10s got=%v", got)
	}

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	resp.Header.Set("Retry-After", now.Add(5*time.Second).Format(http.TimeFormat))
	if d, ok := RetryAfter(resp, now); !ok || d != 5*time.Second {
		t.Fatalf("http date: want=5s got=%v ok=%v", d, ok)
	}
	resp.Header.Set("Retry-After", "soon")
	if _, ok := RetryAfter(resp, now); ok {
		t.Fatalf("garbage header should be ignored")
	}
}

func TestRetryableClassification(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{context.Canceled, false},
		{context.DeadlineExceeded, true},
		{statusErr(429), true},
		{statusErr(503), true},
		{statusErr(501), false},
		{statusErr(400), false},
		{fmt.Errorf("wrapped: %w", statusErr(502)), true},
		{errors.New("decode failed"), false},
	}
	for _, tc := range cases {
		if got := Retryable(tc.err); got != tc.want {
			t.Fatalf("Retryable(%v): want=%v got=%v", tc.err, tc.want, got)
		}
	}
	if got := StatusOf(fmt.Errorf("x: %w", statusErr(418))); got != 418 {
		t.Fatalf("StatusOf: want=418 got=%d", got)
	}
}

func TestWaitHonorsCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := Wait(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Fatalf("Wait: want=context.Canceled got=%v", err)
	}
}
