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
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/teradata-labs/agentrt/pkg/events"
)

// NullTransport discards every event. Used by the "testing" factory
// preset (spec §4.5).
type NullTransport struct {
	metricsTracker
	mu    sync.Mutex
	state ConnectionState
}

func NewNullTransport() *NullTransport { return &NullTransport{} }

func (t *NullTransport) Connect(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state = Connected
	return nil
}

func (t *NullTransport) Send(ctx context.Context, evt events.Event) error {
	t.recordSuccess(0)
	return nil
}

func (t *NullTransport) HealthCheck(ctx context.Context) error { return nil }

func (t *NullTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state = Closed
	return nil
}

func (t *NullTransport) State() ConnectionState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

func (t *NullTransport) Metrics() Metrics { return t.snapshot() }

// LogTransport forwards every event to a structured logger rather than an
// external sink. Used by the "development" factory preset.
type LogTransport struct {
	metricsTracker
	logger *zap.Logger
	mu     sync.Mutex
	state  ConnectionState
}

func NewLogTransport(logger *zap.Logger) *LogTransport {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogTransport{logger: logger}
}

func (t *LogTransport) Connect(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state = Connected
	return nil
}

func (t *LogTransport) Send(ctx context.Context, evt events.Event) error {
	start := time.Now()
	b, err := events.Encode(evt)
	if err != nil {
		t.recordFailure()
		return fmt.Errorf("eventlog: log transport encode: %w", err)
	}
	t.logger.Info("runtime event", zap.String("session_id", evt.GetBase().SessionID), zap.String("type", string(evt.GetBase().Type)), zap.ByteString("event", b))
	t.recordSuccess(time.Since(start))
	return nil
}

func (t *LogTransport) HealthCheck(ctx context.Context) error { return nil }

func (t *LogTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state = Closed
	return nil
}

func (t *LogTransport) State() ConnectionState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

func (t *LogTransport) Metrics() Metrics { return t.snapshot() }

// FileTeeTransport appends events, one JSON object per line, to an
// arbitrary file distinct from the gateway's own per-session JSONL log
// (e.g. a shared tee file for an external log shipper to tail).
type FileTeeTransport struct {
	metricsTracker
	path string

	mu    sync.Mutex
	file  *os.File
	state ConnectionState
}

func NewFileTeeTransport(path string) *FileTeeTransport {
	return &FileTeeTransport{path: path}
}

func (t *FileTeeTransport) Connect(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	f, err := os.OpenFile(t.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("eventlog: open tee file %s: %w", t.path, err)
	}
	t.file = f
	t.state = Connected
	return nil
}

func (t *FileTeeTransport) Send(ctx context.Context, evt events.Event) error {
	start := time.Now()
	t.mu.Lock()
	f := t.file
	t.mu.Unlock()
	if f == nil {
		t.recordFailure()
		return fmt.Errorf("eventlog: tee file not connected")
	}
	rec, err := newRecord(events.LoggedAt(), evt)
	if err != nil {
		t.recordFailure()
		return err
	}
	b, err := json.Marshal(rec)
	if err != nil {
		t.recordFailure()
		return err
	}
	b = append(b, '\n')
	if _, err := f.Write(b); err != nil {
		t.recordFailure()
		return fmt.Errorf("eventlog: tee write: %w", err)
	}
	t.recordSuccess(time.Since(start))
	return nil
}

func (t *FileTeeTransport) HealthCheck(ctx context.Context) error {
	if t.State() != Connected {
		return fmt.Errorf("eventlog: tee transport not connected")
	}
	return nil
}

func (t *FileTeeTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state = Closed
	if t.file != nil {
		return t.file.Close()
	}
	return nil
}

func (t *FileTeeTransport) State() ConnectionState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

func (t *FileTeeTransport) Metrics() Metrics { return t.snapshot() }

// CallbackFunc receives one forwarded event; used by CallbackTransport.
type CallbackFunc func(ctx context.Context, evt events.Event) error

// CallbackTransport forwards every event to an in-process callback —
// the shape a Bridge's own client-facing send (e.g. a WebSocket write)
// plugs into without the Event Session Logger knowing anything about
// connections.
type CallbackTransport struct {
	metricsTracker
	cb CallbackFunc

	mu    sync.Mutex
	state ConnectionState
}

func NewCallbackTransport(cb CallbackFunc) *CallbackTransport {
	return &CallbackTransport{cb: cb}
}

func (t *CallbackTransport) Connect(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state = Connected
	return nil
}

func (t *CallbackTransport) Send(ctx context.Context, evt events.Event) error {
	start := time.Now()
	if err := t.cb(ctx, evt); err != nil {
		t.recordFailure()
		return err
	}
	t.recordSuccess(time.Since(start))
	return nil
}

func (t *CallbackTransport) HealthCheck(ctx context.Context) error { return nil }

func (t *CallbackTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state = Closed
	return nil
}

func (t *CallbackTransport) State() ConnectionState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

func (t *CallbackTransport) Metrics() Metrics { return t.snapshot() }

// MultiTransport tees every event to several transports. A failure sending
// to one transport is collected but never stops delivery to the others
// (spec §4.5 "multi-transport" preset: "failure on one does not fail
// others").
type MultiTransport struct {
	transports []Transport
}

func NewMultiTransport(transports ...Transport) *MultiTransport {
	return &MultiTransport{transports: transports}
}

func (t *MultiTransport) Connect(ctx context.Context) error {
	var firstErr error
	for _, sub := range t.transports {
		if err := sub.Connect(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (t *MultiTransport) Send(ctx context.Context, evt events.Event) error {
	var firstErr error
	for _, sub := range t.transports {
		if err := sub.Send(ctx, evt); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (t *MultiTransport) HealthCheck(ctx context.Context) error {
	var firstErr error
	for _, sub := range t.transports {
		if err := sub.HealthCheck(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (t *MultiTransport) Close() error {
	var firstErr error
	for _, sub := range t.transports {
		if err := sub.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (t *MultiTransport) State() ConnectionState {
	if len(t.transports) == 0 {
		return Disconnected
	}
	return t.transports[0].State()
}

func (t *MultiTransport) Metrics() Metrics {
	var agg Metrics
	for _, sub := range t.transports {
		m := sub.Metrics()
		agg.TotalSent += m.TotalSent
		agg.TotalFailed += m.TotalFailed
		if m.LastSuccessAt.After(agg.LastSuccessAt) {
			agg.LastSuccessAt = m.LastSuccessAt
		}
	}
	return agg
}

// MigrationTransport wraps a legacy file writer (the pre-Gateway logging
// path some deployments still point at) and emits a one-time deprecation
// notice through its logger on the first Send, per the "migration"
// factory preset.
type MigrationTransport struct {
	metricsTracker
	legacy          Transport
	logger          *zap.Logger
	deprecationOnce sync.Once
	noticeEmitted   bool
}

func NewMigrationTransport(legacy Transport, logger *zap.Logger) *MigrationTransport {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MigrationTransport{legacy: legacy, logger: logger}
}

func (t *MigrationTransport) Connect(ctx context.Context) error { return t.legacy.Connect(ctx) }

func (t *MigrationTransport) Send(ctx context.Context, evt events.Event) error {
	t.deprecationOnce.Do(func() {
		t.noticeEmitted = true
		t.logger.Warn("eventlog: using deprecated migration transport; configure a native transport before the next release")
	})
	start := time.Now()
	if err := t.legacy.Send(ctx, evt); err != nil {
		t.recordFailure()
		return err
	}
	t.recordSuccess(time.Since(start))
	return nil
}

func (t *MigrationTransport) HealthCheck(ctx context.Context) error { return t.legacy.HealthCheck(ctx) }
func (t *MigrationTransport) Close() error                         { return t.legacy.Close() }
func (t *MigrationTransport) State() ConnectionState               { return t.legacy.State() }
func (t *MigrationTransport) Metrics() Metrics                     { return t.snapshot() }

// record is the JSONL envelope written by the gateway and by
// FileTeeTransport: {timestamp, event}. Event is kept as raw JSON rather
// than the events.Event interface since encoding/json cannot decode
// directly into an interface type; readers pass it through events.Decode
// to recover the concrete variant.
type record struct {
	Timestamp time.Time       `json:"timestamp"`
	Event     json.RawMessage `json:"event"`
}

func newRecord(ts time.Time, evt events.Event) (record, error) {
	raw, err := events.Encode(evt)
	if err != nil {
		return record{}, err
	}
	return record{Timestamp: ts, Event: raw}, nil
}
