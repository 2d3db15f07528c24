package httpx

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"
)

type statusErr int

func (e statusErr) Error() string       { return fmt.Sprintf("status %d", int(e)) }
func (e statusErr) HTTPStatusCode() int { return int(e) }

func TestIsRetryableError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"canceled", context.Canceled, false},
		{"wrapped canceled", fmt.Errorf("call: %w", context.Canceled), false},
		{"deadline", context.DeadlineExceeded, true},
		{"429", statusErr(http.StatusTooManyRequests), true},
		{"503", statusErr(http.StatusServiceUnavailable), true},
		{"400", statusErr(http.StatusBadRequest), false},
	}
	for _, tc := range cases {
		if got := IsRetryableError(tc.err); got != tc.want {
			t.Fatalf("%s: want=%v got=%v", tc.name, tc.want, got)
		}
	}
}

func TestRetryAfterDurationCapsAtMax(t *testing.T) {
	resp := &http.Response{Header: http.Header{}}
	resp.Header.Set("Retry-After", "120")
	if got := RetryAfterDuration(resp, time.Second, 10*time.Second); got != 10*time.Second {
		t.Fatalf("want=10s got=%s", got)
	}
	if got := RetryAfterDuration(nil, 2*time.Second, 10*time.Second); got != 2*time.Second {
		t.Fatalf("want=2s got=%s", got)
	}
}

func TestSleepCtxReturnsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := SleepCtx(ctx, time.Hour); err != context.Canceled {
		t.Fatalf("want context.Canceled got=%v", err)
	}
}
