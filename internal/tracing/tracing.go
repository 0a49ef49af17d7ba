package tracing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ContextKey represents keys used for context values
type ContextKey string

const (
	// BatchIDKey is the context key for insert run IDs
	BatchIDKey ContextKey = "batch_id"
	// StartTimeKey is the context key for the run start time
	StartTimeKey ContextKey = "start_time"
)

// NewBatchID returns a fresh random run identifier
func NewBatchID() string {
	return uuid.NewString()
}

// WithBatchID adds a batch ID to the context
func WithBatchID(ctx context.Context, batchID string) context.Context {
	return context.WithValue(ctx, BatchIDKey, batchID)
}

// WithStartTime adds a start time to the context
func WithStartTime(ctx context.Context, startTime time.Time) context.Context {
	return context.WithValue(ctx, StartTimeKey, startTime)
}

// GetBatchID extracts the batch ID from context
func GetBatchID(ctx context.Context) string {
	if batchID, ok := ctx.Value(BatchIDKey).(string); ok {
		return batchID
	}
	return ""
}

// GetStartTime extracts the start time from context
func GetStartTime(ctx context.Context) time.Time {
	if startTime, ok := ctx.Value(StartTimeKey).(time.Time); ok {
		return startTime
	}
	return time.Time{}
}

// WithBatch starts a run: a new batch ID plus the current time
func WithBatch(ctx context.Context) context.Context {
	ctx = WithBatchID(ctx, NewBatchID())
	return WithStartTime(ctx, time.Now())
}

// Duration calculates the duration since the start time in context
func Duration(ctx context.Context) time.Duration {
	startTime := GetStartTime(ctx)
	if startTime.IsZero() {
		return 0
	}
	return time.Since(startTime)
}

// LogFields returns the correlation fields present in ctx
func LogFields(ctx context.Context) logrus.Fields {
	fields := logrus.Fields{}
	if batchID := GetBatchID(ctx); batchID != "" {
		fields["batch_id"] = batchID
	}
	if traceID := GetOtelTraceID(ctx); traceID != "" {
		fields["trace_id"] = traceID
	}
	return fields
}
