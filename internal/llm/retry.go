package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/pavelanni/lumira/internal/metrics"
	"github.com/pavelanni/lumira/internal/model"
)

// RetryConfig controls per-call timeouts and retries.
type RetryConfig struct {
	MaxRetries    int           // retries after the first attempt
	Timeout       time.Duration // deadline of each attempt; 0 disables it
	InitialDelay  time.Duration // delay before the first retry
	MaxDelay      time.Duration // upper bound of any delay
	BackoffFactor float64       // multiplier applied per retry
}

// DefaultRetryConfig returns the settings used when flags are not given.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:    2,
		Timeout:       60 * time.Second,
		InitialDelay:  500 * time.Millisecond,
		MaxDelay:      10 * time.Second,
		BackoffFactor: 2.0,
	}
}

// Retrying wraps a Completer with per-attempt timeouts, exponential backoff
// for retryable failures and metrics.
type Retrying struct {
	next     Completer
	provider string
	cfg      RetryConfig
	metrics  metrics.Recorder
}

// WithRetry wraps next. rec may be nil.
func WithRetry(next Completer, provider string, cfg RetryConfig, rec metrics.Recorder) *Retrying {
	if rec == nil {
		rec = metrics.Nop()
	}
	return &Retrying{next: next, provider: provider, cfg: cfg, metrics: rec}
}

// Complete implements Completer.
func (r *Retrying) Complete(ctx context.Context, messages []model.Message) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= r.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := r.delay(attempt)
			slog.Warn("retrying LLM call", "provider", r.provider, "attempt", attempt, "delay", delay, "error", lastErr)
			select {
			case <-ctx.Done():
				return "", fmt.Errorf("retry cancelled: %w", ctx.Err())
			case <-time.After(delay):
			}
		}

		out, err := r.attempt(ctx, messages)
		if err == nil {
			return out, nil
		}
		lastErr = err
		if ctx.Err() != nil || !IsRetryable(err) {
			return "", err
		}
	}
	return "", fmt.Errorf("after %d retries: %w", r.cfg.MaxRetries, lastErr)
}

func (r *Retrying) attempt(ctx context.Context, messages []model.Message) (string, error) {
	callCtx := ctx
	if r.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, r.cfg.Timeout)
		defer cancel()
	}

	start := time.Now()
	out, err := r.next.Complete(callCtx, messages)
	r.metrics.ObserveLLM(r.provider, err == nil, time.Since(start))

	if err != nil && ctx.Err() == nil && errors.Is(callCtx.Err(), context.DeadlineExceeded) {
		var typed *Error
		if !errors.As(err, &typed) || typed.Kind != KindTimeout {
			err = &Error{Kind: KindTimeout, Provider: r.provider, Err: err}
		}
	}
	return out, err
}

func (r *Retrying) delay(attempt int) time.Duration {
	factor := r.cfg.BackoffFactor
	if factor < 1 {
		factor = 1
	}
	d := time.Duration(float64(r.cfg.InitialDelay) * math.Pow(factor, float64(attempt-1)))
	if r.cfg.MaxDelay > 0 && d > r.cfg.MaxDelay {
		d = r.cfg.MaxDelay
	}
	return d
}
