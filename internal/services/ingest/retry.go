package ingest

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// backoff is the retry policy for index requests: exponential delays from
// base, capped at ceiling, honoring Retry-After when the server sends one.
type backoff struct {
	attempts int
	base     time.Duration
	ceiling  time.Duration
	sleep    func(time.Duration)
}

func (b backoff) maxAttempts() int {
	return max(b.attempts, 1)
}

// next reports whether err warrants another attempt after attempt and how
// long to wait first.
func (b backoff) next(ctx context.Context, err error, attempt int) (time.Duration, bool) {
	if attempt >= b.maxAttempts() || ctx.Err() != nil || !transient(err) {
		return 0, false
	}
	var status *statusError
	if errors.As(err, &status) && status.retryAfter > 0 {
		return b.clamp(status.retryAfter), true
	}
	return b.delay(attempt), true
}

// delay doubles base once per previous attempt.
func (b backoff) delay(attempt int) time.Duration {
	if b.base <= 0 {
		return 0
	}
	d := b.base
	for i := 1; i < attempt && d < b.limit(); i++ {
		d *= 2
	}
	return b.clamp(d)
}

func (b backoff) limit() time.Duration {
	if b.ceiling <= 0 {
		return defaultRetryMaxDelay
	}
	return b.ceiling
}

func (b backoff) clamp(d time.Duration) time.Duration {
	return min(max(d, 0), b.limit())
}

func (b backoff) wait(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil || d <= 0 {
		return err
	}
	if b.sleep != nil {
		b.sleep(d)
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// transient separates outages worth retrying from definitive answers.
func transient(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var status *statusError
	if errors.As(err, &status) {
		return retryableStatus(status.code)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	// Refused and reset connections surface as *net.OpError.
	var opErr *net.OpError
	return errors.As(err, &opErr)
}

func retryableStatus(code int) bool {
	switch {
	case code == http.StatusRequestTimeout, code == http.StatusTooManyRequests:
		return true
	case code >= http.StatusInternalServerError:
		return true
	}
	return false
}

// parseRetryAfter accepts delta-seconds or an HTTP date.
func parseRetryAfter(value string) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(max(secs, 0)) * time.Second
	}
	if when, err := http.ParseTime(value); err == nil {
		return max(time.Until(when), 0)
	}
	return 0
}
