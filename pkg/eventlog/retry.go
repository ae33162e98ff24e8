// Copyright 2026 Teradata
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package eventlog

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/teradata-labs/agentrt/pkg/events"
)

// RetryTransport wraps any Transport, retrying Send with exponential
// backoff up to MaxAttempts, and optionally falling back to a second
// transport once the primary is exhausted (spec §4.5).
type RetryTransport struct {
	metricsTracker
	primary      Transport
	fallback     Transport // nil if none configured
	maxAttempts  int
	initialDelay time.Duration
	maxDelay     time.Duration
	logger       *zap.Logger
}

// RetryOption configures a RetryTransport at construction.
type RetryOption func(*RetryTransport)

// WithFallback installs a secondary transport used once the primary's
// attempts are exhausted.
func WithFallback(fallback Transport) RetryOption {
	return func(r *RetryTransport) { r.fallback = fallback }
}

// WithMaxAttempts overrides the default of 3 attempts.
func WithMaxAttempts(n int) RetryOption {
	return func(r *RetryTransport) {
		if n > 0 {
			r.maxAttempts = n
		}
	}
}

// WithRetryLogger attaches a structured logger for retry warnings.
func WithRetryLogger(logger *zap.Logger) RetryOption {
	return func(r *RetryTransport) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRetryTransport wraps primary with exponential backoff retry.
func NewRetryTransport(primary Transport, opts ...RetryOption) *RetryTransport {
	r := &RetryTransport{
		primary:      primary,
		maxAttempts:  3,
		initialDelay: 500 * time.Millisecond,
		maxDelay:     10 * time.Second,
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *RetryTransport) Connect(ctx context.Context) error {
	if err := r.primary.Connect(ctx); err != nil {
		return err
	}
	if r.fallback != nil {
		return r.fallback.Connect(ctx)
	}
	return nil
}

func (r *RetryTransport) Send(ctx context.Context, evt events.Event) error {
	start := time.Now()
	delay := r.initialDelay
	var lastErr error
	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		if err := r.primary.Send(ctx, evt); err == nil {
			r.recordSuccess(time.Since(start))
			return nil
		} else {
			lastErr = err
			r.logger.Warn("eventlog: retry transport send failed", zap.Int("attempt", attempt), zap.Error(err))
		}
		if attempt == r.maxAttempts {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			r.recordFailure()
			return ctx.Err()
		}
		delay *= 2
		if delay > r.maxDelay {
			delay = r.maxDelay
		}
	}

	if r.fallback != nil {
		if err := r.fallback.Send(ctx, evt); err == nil {
			r.recordSuccess(time.Since(start))
			return nil
		} else {
			lastErr = err
		}
	}
	r.recordFailure()
	return lastErr
}

func (r *RetryTransport) HealthCheck(ctx context.Context) error {
	if err := r.primary.HealthCheck(ctx); err != nil {
		if r.fallback != nil {
			return r.fallback.HealthCheck(ctx)
		}
		return err
	}
	return nil
}

func (r *RetryTransport) Close() error {
	err := r.primary.Close()
	if r.fallback != nil {
		if ferr := r.fallback.Close(); ferr != nil && err == nil {
			err = ferr
		}
	}
	return err
}

func (r *RetryTransport) State() ConnectionState { return r.primary.State() }
func (r *RetryTransport) Metrics() Metrics        { return r.snapshot() }
