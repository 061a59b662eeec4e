package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Sriram-PR/fast-sitemap/pkg/utils"
)

// RetryPolicy controls retries of transient failures (network errors, 5xx, 429)
type RetryPolicy struct {
	MaxRetries   int
	InitialDelay time.Duration
	MaxDelay     time.Duration
}

// Fetcher issues GET requests with exponential backoff, using an underlying http.Client
type Fetcher struct {
	client *http.Client
	retry  RetryPolicy
	log    *logrus.Entry
}

// NewFetcher creates a new Fetcher instance
func NewFetcher(client *http.Client, retry RetryPolicy, log *logrus.Entry) *Fetcher {
	if retry.MaxRetries < 0 {
		retry.MaxRetries = 0
	}
	return &Fetcher{
		client: client,
		retry:  retry,
		log:    log,
	}
}

// GetStatus performs a GET for rawURL, discards the body and returns the final status code.
// 2xx is success. 4xx (except 429) and other non-2xx codes are returned at once with an error;
// network errors, 5xx and 429 are retried per the policy. Context errors are never retried.
func (f *Fetcher) GetStatus(ctx context.Context, rawURL string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return 0, fmt.Errorf("%w: build request for URL %q: %w", utils.ErrParsing, rawURL, err)
	}
	reqLog := f.log.WithField("url", rawURL)

	var lastErr error
	for attempt := 0; attempt <= f.retry.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			if lastErr != nil {
				return 0, fmt.Errorf("context cancelled (%v) after error: %w", err, lastErr)
			}
			return 0, fmt.Errorf("context cancelled before first attempt: %w", err)
		}

		if attempt > 0 {
			delay := f.backoff(attempt)
			reqLog.WithFields(logrus.Fields{"attempt": attempt, "max_retries": f.retry.MaxRetries, "delay": delay}).Debug("Retrying request...")
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return 0, fmt.Errorf("context cancelled (%v) during retry delay after error: %w", ctx.Err(), lastErr)
			}
		}

		resp, err := f.client.Do(req.Clone(ctx))
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return 0, err
			}
			reqLog.WithField("attempt", attempt).Debugf("Network error: %v", err)
			lastErr = err
			continue
		}
		drainAndClose(resp)

		status := resp.StatusCode
		switch {
		case status >= 200 && status < 300:
			return status, nil
		case status >= 500:
			lastErr = fmt.Errorf("%w: status %d %s", utils.ErrServerHTTPError, status, resp.Status)
			continue
		case status == http.StatusTooManyRequests:
			lastErr = fmt.Errorf("%w: status %d %s", utils.ErrClientHTTPError, status, resp.Status)
			continue
		case status >= 400:
			return status, fmt.Errorf("%w: status %d %s", utils.ErrClientHTTPError, status, resp.Status)
		default:
			return status, fmt.Errorf("%w: status %d %s", utils.ErrOtherHTTPError, status, resp.Status)
		}
	}

	reqLog.Debugf("All %d attempts failed. Last error: %v", f.retry.MaxRetries+1, lastErr)
	return 0, fmt.Errorf("%w: %w", utils.ErrRetryFailed, lastErr)
}

// backoff returns initial * 2^(attempt-1), capped at MaxDelay, with +/- 10% jitter
func (f *Fetcher) backoff(attempt int) time.Duration {
	delay := time.Duration(float64(f.retry.InitialDelay) * math.Pow(2, float64(attempt-1)))
	if delay <= 0 || (f.retry.MaxDelay > 0 && delay > f.retry.MaxDelay) {
		delay = f.retry.MaxDelay
	}
	if delay <= 0 {
		return 0
	}
	jitter := time.Duration(rand.Int64N(int64(delay)/5+1)) - delay/10
	return max(delay+jitter, 0)
}

func drainAndClose(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	_ = resp.Body.Close()
}
