package temporalx

import (
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("TEMPORAL_ADDRESS", "")
	cfg := LoadConfig()
	if cfg.Enabled() {
		t.Fatalf("Enabled: want false without address")
	}
	if cfg.Namespace != "interview-brief" || cfg.TaskQueue != "interview-brief" {
		t.Fatalf("defaults: got namespace=%q queue=%q", cfg.Namespace, cfg.TaskQueue)
	}
	t.Setenv("TEMPORAL_ADDRESS", "localhost:7233")
	t.Setenv("TEMPORAL_TASK_QUEUE", "briefs")
	cfg = LoadConfig()
	if !cfg.Enabled() || cfg.TaskQueue != "briefs" {
		t.Fatalf("env: got=%+v", cfg)
	}
}

func TestBackoffDoublesAndCaps(t *testing.T) {
	base, max := 250*time.Millisecond, time.Second
	for attempt, want := range map[int]time.Duration{1: 250 * time.Millisecond, 2: 500 * time.Millisecond, 3: time.Second, 9: time.Second} {
		if got := Backoff(base, max, attempt); got != want {
			t.Fatalf("Backoff(%d): want=%v got=%v", attempt, want, got)
		}
	}
}

func TestNoTLSWithoutMaterial(t *testing.T) {
	cfg, err := loadTLSConfig(Config{})
	if err != nil || cfg != nil {
		t.Fatalf("loadTLSConfig: want nil,nil got=%v,%v", cfg, err)
	}
	if _, err := loadTLSConfig(Config{ClientCertPath: "cert.pem"}); err == nil {
		t.Fatalf("cert without key: want error")
	}
}
