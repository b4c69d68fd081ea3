package services

import "context"

type contextKey string

const (
	segmentIDKey contextKey = "segment_id"
	operationKey contextKey = "operation"
	requestIDKey contextKey = "request_id"
)

// WithSegmentID annotates context with the segment identifier being worked on.
func WithSegmentID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, segmentIDKey, id)
}

// SegmentIDFromContext extracts the segment identifier if present.
func SegmentIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(segmentIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithOperation annotates context with the running operation (audio, rewrite).
func WithOperation(ctx context.Context, op string) context.Context {
	if op == "" {
		return ctx
	}
	return context.WithValue(ctx, operationKey, op)
}

// OperationFromContext returns the operation name if present.
func OperationFromContext(ctx context.Context) (string, bool) {
	v := ctx.Value(operationKey)
	if str, ok := v.(string); ok && str != "" {
		return str, true
	}
	return "", false
}

// WithRequestID annotates context with a correlation identifier.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext extracts the correlation identifier if present.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(requestIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
