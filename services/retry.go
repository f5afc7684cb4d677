package services

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/cenkalti/backoff"
	"go.uber.org/zap"

	"github.com/cuonglevan23/ybproject/core"
	"github.com/cuonglevan23/ybproject/pkg/logger"
)

// RetryPolicy re-runs a failed call with capped exponential backoff:
// InitialWait doubling per retry up to MaxWait, no jitter
type RetryPolicy struct {
	cfg    core.RetryConfig
	logger *zap.Logger

	// OnRetry is called before each wait; attempt is the one that just failed
	OnRetry func(attempt int, err error, wait time.Duration)
}

func NewRetryPolicy(cfg core.RetryConfig, log *zap.Logger) *RetryPolicy {
	return &RetryPolicy{
		cfg:    cfg.WithDefaults(),
		logger: logger.OrNop(log),
	}
}

// MaxAttempts is the total number of tries, the first included
func (p *RetryPolicy) MaxAttempts() int {
	return p.cfg.MaxAttempts
}

// BackOff returns a fresh deterministic schedule bounded to MaxAttempts-1 retries.
// A single attempt stops immediately; WithMaxRetries treats zero as unlimited.
func (p *RetryPolicy) BackOff() backoff.BackOff {
	if p.cfg.MaxAttempts <= 1 {
		return &backoff.StopBackOff{}
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.cfg.InitialWait
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxInterval = p.cfg.MaxWait
	b.MaxElapsedTime = 0
	b.Reset()

	return backoff.WithMaxRetries(b, uint64(p.cfg.MaxAttempts-1))
}

// Schedule lists the waits between attempts
func (p *RetryPolicy) Schedule() []time.Duration {
	b := p.BackOff()
	b.Reset()

	var waits []time.Duration
	for {
		next := b.NextBackOff()
		if next == backoff.Stop {
			return waits
		}
		waits = append(waits, next)
	}
}

// Retriable reports whether a failed call with this method may be tried again
func (p *RetryPolicy) Retriable(method string, err error) bool {
	apiErr, ok := core.AsAPIError(err)
	if ok && apiErr.Kind == core.KindCanceled {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}

	if p.cfg.RetryAll {
		return true
	}

	if !idempotent(method) && !p.cfg.RetryNonIdempotent {
		return false
	}
	if !ok {
		return false
	}

	switch apiErr.Kind {
	case core.KindTimeout, core.KindNetwork:
		return true
	case core.KindHTTP:
		if errors.Is(apiErr, core.ErrUnsuccessfulResponse) {
			return false
		}
		return apiErr.Status == http.StatusRequestTimeout ||
			apiErr.Status == http.StatusTooManyRequests ||
			apiErr.Status >= 500
	default:
		return false
	}
}

func idempotent(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPatch:
		return false
	}
	return true
}

// Do runs op until it succeeds, fails permanently or attempts run out.
// The last error is returned unchanged; a cancellation during a wait
// surfaces as a Canceled APIError.
func (p *RetryPolicy) Do(ctx context.Context, method string, op func(attempt int) error) error {
	attempt := 0
	var lastErr error

	operation := func() error {
		attempt++
		err := op(attempt)
		if err == nil {
			return nil
		}
		lastErr = err
		if !p.Retriable(method, err) {
			return backoff.Permanent(err)
		}
		return err
	}

	notify := func(err error, wait time.Duration) {
		p.logger.Warn("retrying request",
			zap.String("method", method),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", p.cfg.MaxAttempts),
			zap.Duration("wait", wait),
			zap.Error(err),
		)
		if p.OnRetry != nil {
			p.OnRetry(attempt, err, wait)
		}
	}

	err := backoff.RetryNotify(operation, backoff.WithContext(p.BackOff(), ctx), notify)
	if err == nil {
		return nil
	}

	retriable := p.Retriable(method, lastErr)
	if ctxErr := ctx.Err(); ctxErr != nil && retriable && attempt < p.cfg.MaxAttempts {
		return contextError(ctxErr)
	}

	if retriable {
		p.logger.Error("retries exhausted",
			zap.String("method", method),
			zap.Int("attempts", attempt),
			zap.Error(lastErr),
		)
	}

	return lastErr
}
