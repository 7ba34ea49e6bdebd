package ingest

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"
)

func TestBackoffDelayDoublesUpToCeiling(t *testing.T) {
	b := backoff{attempts: 10, base: time.Second, ceiling: 5 * time.Second}
	want := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second, 5 * time.Second, 5 * time.Second}
	for i, w := range want {
		if got := b.delay(i + 1); got != w {
			t.Errorf("delay(%d) = %s, want %s", i+1, got, w)
		}
	}
}

func TestBackoffNextHonorsRetryAfterAndLimits(t *testing.T) {
	b := backoff{attempts: 3, base: time.Second, ceiling: 4 * time.Second}
	ctx := context.Background()

	throttled := &statusError{code: http.StatusTooManyRequests, retryAfter: 30 * time.Second}
	if d, ok := b.next(ctx, throttled, 1); !ok || d != 4*time.Second {
		t.Fatalf("Retry-After should be capped: %s %v", d, ok)
	}
	if _, ok := b.next(ctx, throttled, 3); ok {
		t.Fatal("last attempt must not retry")
	}
	if _, ok := b.next(ctx, &statusError{code: http.StatusBadRequest}, 1); ok {
		t.Fatal("client errors are definitive")
	}
	if _, ok := b.next(ctx, errors.New("boom"), 1); ok {
		t.Fatal("unclassified errors are not retried")
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if _, ok := b.next(cancelled, &statusError{code: http.StatusServiceUnavailable}, 1); ok {
		t.Fatal("cancelled context must stop retries")
	}
}

func TestParseRetryAfter(t *testing.T) {
	if got := parseRetryAfter("7"); got != 7*time.Second {
		t.Fatalf("seconds form = %s", got)
	}
	if got := parseRetryAfter("-3"); got != 0 {
		t.Fatalf("negative = %s", got)
	}
	if got := parseRetryAfter("soon"); got != 0 {
		t.Fatalf("garbage = %s", got)
	}
	future := time.Now().Add(time.Hour).UTC().Format(http.TimeFormat)
	if got := parseRetryAfter(future); got <= 50*time.Minute {
		t.Fatalf("date form = %s", got)
	}
}
