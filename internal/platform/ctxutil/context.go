package ctxutil

import (
	"context"
	"strings"
)

// Default returns context.Background() when ctx is nil.
func Default(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}

type (
	traceDataKey   struct{}
	requestDataKey struct{}
)

// TraceData correlates one inbound request across logs and spans.
type TraceData struct {
	TraceID   string
	RequestID string
}

func WithTraceData(ctx context.Context, td *TraceData) context.Context {
	return context.WithValue(Default(ctx), traceDataKey{}, td)
}

func GetTraceData(ctx context.Context) *TraceData {
	if ctx == nil {
		return nil
	}
	td, _ := ctx.Value(traceDataKey{}).(*TraceData)
	return td
}

// RequestData is the verified caller identity attached by the auth middleware.
type RequestData struct {
	TokenString   string
	InterviewerID string
	Email         string
}

func WithRequestData(ctx context.Context, rd *RequestData) context.Context {
	return context.WithValue(Default(ctx), requestDataKey{}, rd)
}

func GetRequestData(ctx context.Context) *RequestData {
	if ctx == nil {
		return nil
	}
	rd, _ := ctx.Value(requestDataKey{}).(*RequestData)
	return rd
}

// Authenticated reports whether rd carries both an id and an email.
func (rd *RequestData) Authenticated() bool {
	return rd != nil && strings.TrimSpace(rd.InterviewerID) != "" && strings.TrimSpace(rd.Email) != ""
}

// LogFields returns the correlation ids and caller id on ctx as logger
// key/value pairs. The token and e-mail are never included.
func LogFields(ctx context.Context) []any {
	var out []any
	if td := GetTraceData(ctx); td != nil {
		if td.TraceID != "" {
			out = append(out, "trace_id", td.TraceID)
		}
		if td.RequestID != "" {
			out = append(out, "request_id", td.RequestID)
		}
	}
	if rd := GetRequestData(ctx); rd != nil && rd.InterviewerID != "" {
		out = append(out, "interviewer_id", rd.InterviewerID)
	}
	return out
}
