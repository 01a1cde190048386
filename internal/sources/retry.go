package sources

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
)

// RetryPolicy retries transient HTTP failures with exponential backoff.
// It is injected into each source so the fetch code stays free of
// sleep loops.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// DefaultRetryPolicy matches the courtesy profile the Reddit API
// tolerates: three attempts, 2s/4s between them.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, BaseDelay: 2 * time.Second, MaxDelay: 30 * time.Second}
}

// retryable reports whether a response warrants another attempt:
// transport errors, 429, and 5xx. Anything else fails immediately.
func retryable(resp *resty.Response, err error) bool {
	if err != nil {
		return true
	}
	code := resp.StatusCode()
	return code == http.StatusTooManyRequests || code >= 500
}

// Do runs fn until it succeeds, a non-retryable failure occurs, or the
// attempts are exhausted. The delay doubles per attempt up to MaxDelay.
func (p RetryPolicy) Do(ctx context.Context, what string, fn func() (*resty.Response, error)) (*resty.Response, error) {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var resp *resty.Response
	var err error
	delay := p.BaseDelay

	for attempt := 1; attempt <= attempts; attempt++ {
		resp, err = fn()
		if !retryable(resp, err) {
			return resp, err
		}
		if attempt == attempts {
			break
		}

		logrus.Warnf("Transient failure on %s (attempt %d/%d), retrying in %v", what, attempt, attempts, delay)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
		if p.MaxDelay > 0 && delay > p.MaxDelay {
			delay = p.MaxDelay
		}
	}

	if err != nil {
		return nil, fmt.Errorf("%s failed after %d attempts: %w", what, attempts, err)
	}
	return nil, fmt.Errorf("%s failed after %d attempts: status %d", what, attempts, resp.StatusCode())
}
