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

// Package eventlog implements the Event Session Logger (spec §4.5): a
// gateway that fans every runtime event to a durable per-session JSONL
// file and to a pluggable downstream Transport, with strict error
// isolation between the two legs.
package eventlog

import (
	"context"
	"sync"
	"time"

	"github.com/teradata-labs/agentrt/pkg/events"
)

// ConnectionState is a Transport's lifecycle state.
type ConnectionState int

const (
	Disconnected ConnectionState = iota
	Connected
	Closed
)

func (s ConnectionState) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connected:
		return "connected"
	case Closed:
		return "closed"
	default:
		return "unknown"
	}
}

// Metrics is the running tally every Transport exposes, per spec §4.5.
type Metrics struct {
	TotalSent     int64
	TotalFailed   int64
	AvgSendMS     float64
	LastSuccessAt time.Time
}

// Transport is the downstream sink an Event Session Logger forwards every
// event to, beyond the local JSONL log. Implementations: NullTransport,
// LogTransport, FileTeeTransport, CallbackTransport, QueueTransport,
// HTTPTransport, MultiTransport, RetryTransport (a decorator over any of
// the above), and MigrationTransport.
type Transport interface {
	Connect(ctx context.Context) error
	Send(ctx context.Context, evt events.Event) error
	HealthCheck(ctx context.Context) error
	Close() error
	State() ConnectionState
	Metrics() Metrics
}

// metricsTracker is embedded by every concrete Transport to centralize the
// {total_sent, total_failed, avg_send_ms, last_success_at} bookkeeping
// instead of reimplementing it per transport.
type metricsTracker struct {
	mu      sync.Mutex
	sent    int64
	failed  int64
	totalMS float64
	lastOK  time.Time
}

func (m *metricsTracker) recordSuccess(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent++
	m.totalMS += float64(d.Milliseconds())
	m.lastOK = time.Now().UTC()
}

func (m *metricsTracker) recordFailure() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failed++
}

func (m *metricsTracker) snapshot() Metrics {
	m.mu.Lock()
	defer m.mu.Unlock()
	avg := 0.0
	if m.sent > 0 {
		avg = m.totalMS / float64(m.sent)
	}
	return Metrics{TotalSent: m.sent, TotalFailed: m.failed, AvgSendMS: avg, LastSuccessAt: m.lastOK}
}
