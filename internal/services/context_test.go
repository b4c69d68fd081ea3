package services_test

import (
	"context"
	"testing"

	"zenstudio/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithSegmentID(ctx, "s1")
	ctx = services.WithOperation(ctx, "audio")
	ctx = services.WithRequestID(ctx, "req-123")

	if id, ok := services.SegmentIDFromContext(ctx); !ok || id != "s1" {
		t.Fatalf("unexpected segment id: %v %v", id, ok)
	}
	if op, ok := services.OperationFromContext(ctx); !ok || op != "audio" {
		t.Fatalf("unexpected operation: %v %v", op, ok)
	}
	if rid, ok := services.RequestIDFromContext(ctx); !ok || rid != "req-123" {
		t.Fatalf("unexpected request id: %v %v", rid, ok)
	}
}

func TestOperationBlankPreservesContext(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithOperation(ctx, "")
	if _, ok := services.OperationFromContext(ctx); ok {
		t.Fatal("expected no operation value")
	}
}
