// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides HTTP helpers shared across stages.
package httputil

import (
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"
)

// Policy is a bounded-retry policy: a maximum number of attempts and either
// a fixed inter-attempt delay or an exponential backoff starting from Delay.
// The zero value tries once and retries nothing.
type Policy struct {
	// MaxAttempts is the total number of tries, the first included.
	MaxAttempts int

	// Delay is the wait between attempts (the base delay when Backoff is set).
	Delay time.Duration

	// Backoff doubles the delay after every failed attempt.
	Backoff bool
}

// DefaultPolicy retries transient failures a few times with a short fixed
// delay, matching the per-article fetch behavior.
func DefaultPolicy() Policy {
	return Policy{MaxAttempts: 3, Delay: 2 * time.Second}
}

// wait returns the delay before the retry following attempt n (0-based).
func (p Policy) wait(n int) time.Duration {
	if !p.Backoff {
		return p.Delay
	}
	return time.Duration(math.Pow(2, float64(n))) * p.Delay
}

// Do executes fn up to p.MaxAttempts times, sleeping between attempts. It
// stops early when fn succeeds or the context is cancelled, and returns the
// last error when every attempt fails.
func (p Policy) Do(ctx context.Context, fn func() error) error {
	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(p.wait(attempt - 1)):
			}
		}
		if lastErr = fn(); lastErr == nil {
			return nil
		}
	}
	if attempts == 1 {
		return lastErr
	}
	return fmt.Errorf("after %d attempts: %w", attempts, lastErr)
}

// DoRequest executes an HTTP request under the policy, retrying on network
// errors and on 429/5xx responses. Retryable response bodies are drained
// and closed before the next attempt; the final response is returned to the
// caller unconsumed.
func (p Policy) DoRequest(ctx context.Context, client *http.Client, req *http.Request) (*http.Response, error) {
	var resp *http.Response
	err := p.Do(ctx, func() error {
		r, err := client.Do(req.Clone(ctx))
		if err != nil {
			return err
		}
		if retryableStatus(r.StatusCode) {
			io.Copy(io.Discard, r.Body)
			r.Body.Close()
			return fmt.Errorf("HTTP %d from %s", r.StatusCode, req.URL)
		}
		resp = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= 500
}
