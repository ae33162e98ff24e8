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

// Package runtime implements the Agent Runtime: the provider-agnostic
// chat loop that consumes a message history, streams a completion,
// detects tool-use, dispatches tools concurrently through the Tool Chest,
// and loops until the model halts.
package runtime

import (
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/teradata-labs/agentrt/pkg/chat"
	"github.com/teradata-labs/agentrt/pkg/llm"
)

// defaultConcurrency is the default cap on in-flight provider calls per
// Runtime instance (spec §4.2 step 3).
const defaultConcurrency = 3

// defaultInitialDelay is the starting backoff delay for a retryable
// provider error.
const defaultInitialDelay = time.Second

// defaultMaxDelay bounds the backoff delay when WithMaxDelay is not given.
const defaultMaxDelay = 30 * time.Second

// Runtime drives one provider end-to-end over chat(). A single Runtime is
// shared by every Bridge in a process; the semaphore it owns caps total
// in-flight provider calls across all of them.
type Runtime struct {
	provider     llm.Provider
	sem          chan struct{}
	initialDelay time.Duration
	maxDelay     time.Duration
	rootRole     chat.Role
	logger       *zap.Logger
}

// Option configures a Runtime at construction.
type Option func(*Runtime)

// WithConcurrency overrides the default provider-call concurrency cap.
func WithConcurrency(n int) Option {
	return func(r *Runtime) {
		if n > 0 {
			r.sem = make(chan struct{}, n)
		}
	}
}

// WithMaxDelay overrides the default backoff ceiling.
func WithMaxDelay(d time.Duration) Option {
	return func(r *Runtime) { r.maxDelay = d }
}

// WithInitialDelay overrides the default starting backoff delay.
func WithInitialDelay(d time.Duration) Option {
	return func(r *Runtime) { r.initialDelay = d }
}

// WithRootMessageRole overrides the default role ("system") used for the
// rendered-system-prompt message at index 0; reasoning models that reject
// a system role should pass chat.RoleDeveloper.
func WithRootMessageRole(role chat.Role) Option {
	return func(r *Runtime) { r.rootRole = role }
}

// WithLogger attaches a structured logger; a no-op logger is used if omitted.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Runtime) { r.logger = logger }
}

// New builds a Runtime bound to provider.
func New(provider llm.Provider, opts ...Option) *Runtime {
	r := &Runtime{
		provider:     provider,
		sem:          make(chan struct{}, defaultConcurrency),
		initialDelay: defaultInitialDelay,
		maxDelay:     defaultMaxDelay,
		rootRole:     chat.RoleSystem,
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// CancelFlag is the one-shot "client_wants_cancel" signal the Runtime
// checks between fragments and between tool-call cycles. It is safe to
// set concurrently from the Bridge's connection-read goroutine while the
// Runtime's chat() call runs on another goroutine.
type CancelFlag struct {
	set atomic.Bool
}

// Cancel raises the flag. Idempotent.
func (f *CancelFlag) Cancel() { f.set.Store(true) }

// Requested reports whether Cancel has been called.
func (f *CancelFlag) Requested() bool { return f.set.Load() }
