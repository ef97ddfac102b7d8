package envutil

import (
	"testing"
	"time"
)

func TestIntFallsBackOnGarbage(t *testing.T) {
	t.Setenv("BRIEF_TEST_INT", "seven")
	if got := Int("BRIEF_TEST_INT", 3); got != 3 {
		t.Fatalf("Int: want=3 got=%d", got)
	}
	t.Setenv("BRIEF_TEST_INT", " 9 ")
	if got := Int("BRIEF_TEST_INT", 3); got != 9 {
		t.Fatalf("Int: want=9 got=%d", got)
	}
}

func TestBool(t *testing.T) {
	t.Setenv("BRIEF_TEST_BOOL", "off")
	if Bool("BRIEF_TEST_BOOL", true) {
		t.Fatalf("Bool: want=false")
	}
	t.Setenv("BRIEF_TEST_BOOL", "")
	if !Bool("BRIEF_TEST_BOOL", true) {
		t.Fatalf("Bool: want default true")
	}
}

func TestSeconds(t *testing.T) {
	t.Setenv("BRIEF_TEST_SECONDS", "15")
	if got := Seconds("BRIEF_TEST_SECONDS", time.Second); got != 15*time.Second {
		t.Fatalf("Seconds: want=15s got=%s", got)
	}
}
