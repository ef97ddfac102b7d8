package ctxutil

import (
	"context"
	"testing"
)

func TestLogFieldsOmitsSecrets(t *testing.T) {
	ctx := WithTraceData(context.Background(), &TraceData{TraceID: "t1", RequestID: "r1"})
	ctx = WithRequestData(ctx, &RequestData{TokenString: "secret", InterviewerID: "u1", Email: "a@b.test"})

	got := LogFields(ctx)
	want := []any{"trace_id", "t1", "request_id", "r1", "interviewer_id", "u1"}
	if len(got) != len(want) {
		t.Fatalf("LogFields: want=%v got=%v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("LogFields[%d]: want=%v got=%v", i, want[i], got[i])
		}
	}
}

func TestAccessorsTolerateEmptyContext(t *testing.T) {
	if GetTraceData(context.Background()) != nil || GetRequestData(context.Background()) != nil {
		t.Fatalf("empty context should carry nothing")
	}
	if len(LogFields(context.Background())) != 0 {
		t.Fatalf("LogFields on empty context: want none")
	}
	if (&RequestData{InterviewerID: "u1"}).Authenticated() {
		t.Fatalf("missing email must not authenticate")
	}
}
