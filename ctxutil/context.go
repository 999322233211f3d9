package ctxutil

import (
	"context"

	"github.com/google/uuid"
)

const (
	TraceIDKey = "trace_id"
	JobIDKey   = "job_id"
)

type ctxKey string

// GetValue retrieves a value from the context.
func GetValue(ctx context.Context, key string) any {
	if ctx == nil {
		return nil
	}
	return ctx.Value(ctxKey(key))
}

// SetValue sets a value to the context.
func SetValue(ctx context.Context, key string, val any) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxKey(key), val)
}

// GetTraceID gets trace id from context.Context.
func GetTraceID(ctx context.Context) string {
	if traceID, ok := GetValue(ctx, TraceIDKey).(string); ok {
		return traceID
	}
	return ""
}

// SetTraceID sets trace id to context.Context.
func SetTraceID(ctx context.Context, traceID string) context.Context {
	return SetValue(ctx, TraceIDKey, traceID)
}

// EnsureTraceID ensures that a trace ID exists in the context.
func EnsureTraceID(ctx context.Context) (context.Context, string) {
	if traceID := GetTraceID(ctx); traceID != "" {
		return ctx, traceID
	}
	traceID := uuid.NewString()
	return SetTraceID(ctx, traceID), traceID
}

// GetJobID gets the job id the current operation acts on.
func GetJobID(ctx context.Context) string {
	if id, ok := GetValue(ctx, JobIDKey).(string); ok {
		return id
	}
	return ""
}

// SetJobID sets the job id the current operation acts on.
func SetJobID(ctx context.Context, id string) context.Context {
	return SetValue(ctx, JobIDKey, id)
}
