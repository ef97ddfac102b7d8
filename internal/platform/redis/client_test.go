package redis

import (
	"testing"

	"github.com/alicebob/miniredis/v2"

	"github.com/yungbote/interview-brief-backend/internal/platform/logger"
)

func TestNewFromEnvDisabledWithoutAddr(t *testing.T) {
	t.Setenv("REDIS_ADDR", "")
	rdb, err := NewFromEnv(logger.Nop())
	if err != nil || rdb != nil {
		t.Fatalf("NewFromEnv: want nil client got=%v err=%v", rdb, err)
	}
}

func TestNewPingsServer(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	defer mr.Close()

	t.Setenv("REDIS_ADDR", mr.Addr())
	rdb, err := NewFromEnv(logger.Nop())
	if err != nil {
		t.Fatalf("NewFromEnv: %v", err)
	}
	defer rdb.Close()
	if rdb.Options().Addr != mr.Addr() {
		t.Fatalf("addr: want=%s got=%s", mr.Addr(), rdb.Options().Addr)
	}
}

func TestNewFailsWhenUnreachable(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	addr := mr.Addr()
	mr.Close()
	if _, err := New(logger.Nop(), Config{Addr: addr}); err == nil {
		t.Fatalf("expected ping failure")
	}
}
