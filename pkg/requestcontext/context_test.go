package requestcontext

import (
	"context"
	"testing"
	"time"
)

func TestNowPrefersInjectedTime(t *testing.T) {
	fixed := time.Date(2022, 10, 7, 15, 0, 0, 0, time.UTC)
	ctx := WithTime(context.Background(), fixed)

	if got := Now(ctx); !got.Equal(fixed) {
		t.Fatalf("expected injected time %v, got %v", fixed, got)
	}
}

func TestNowFallsBackToWallClock(t *testing.T) {
	before := time.Now()
	got := Now(context.Background())
	if got.Before(before) || time.Since(got) > time.Minute {
		t.Fatalf("expected wall-clock fallback, got %v", got)
	}
}

func TestRequestID(t *testing.T) {
	if got := RequestID(context.Background()); got != "" {
		t.Fatalf("expected empty request ID on bare context, got %q", got)
	}
	ctx := WithRequestID(context.Background(), "req-42")
	if got := RequestID(ctx); got != "req-42" {
		t.Fatalf("expected req-42, got %q", got)
	}
}
