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
	"bytes"
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/teradata-labs/agentrt/pkg/events"
)

// HTTPTransport POSTs each event as a JSON body to a configured endpoint —
// the "production" factory preset's HTTP branch (spec §4.5).
type HTTPTransport struct {
	metricsTracker
	endpoint string
	headers  map[string]string
	client   *http.Client

	mu    sync.Mutex
	state ConnectionState
}

// HTTPTransportConfig configures an HTTPTransport.
type HTTPTransportConfig struct {
	Endpoint string
	Headers  map[string]string
	Timeout  time.Duration
}

func NewHTTPTransport(cfg HTTPTransportConfig) *HTTPTransport {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPTransport{
		endpoint: cfg.Endpoint,
		headers:  cfg.Headers,
		client:   &http.Client{Timeout: timeout},
	}
}

func (t *HTTPTransport) Connect(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state = Connected
	return nil
}

func (t *HTTPTransport) Send(ctx context.Context, evt events.Event) error {
	start := time.Now()
	body, err := events.Encode(evt)
	if err != nil {
		t.recordFailure()
		return fmt.Errorf("eventlog: http transport encode: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(body))
	if err != nil {
		t.recordFailure()
		return fmt.Errorf("eventlog: http transport request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range t.headers {
		req.Header.Set(k, v)
	}
	resp, err := t.client.Do(req)
	if err != nil {
		t.recordFailure()
		return fmt.Errorf("eventlog: http transport send: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		t.recordFailure()
		return fmt.Errorf("eventlog: http transport send: status %d", resp.StatusCode)
	}
	t.recordSuccess(time.Since(start))
	return nil
}

func (t *HTTPTransport) HealthCheck(ctx context.Context) error {
	if t.State() != Connected {
		return fmt.Errorf("eventlog: http transport not connected")
	}
	return nil
}

func (t *HTTPTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state = Closed
	return nil
}

func (t *HTTPTransport) State() ConnectionState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

func (t *HTTPTransport) Metrics() Metrics { return t.snapshot() }

// QueueTransport buffers events onto an in-process channel drained by a
// background worker that calls Sink for each one — the "production"
// factory preset's queue branch, standing in for a message-broker client
// (SQS/Kafka/etc.) without this module taking on a broker dependency
// directly (no broker client appears anywhere in the retrieved example
// pack; see DESIGN.md).
type QueueTransport struct {
	metricsTracker
	sink    func(context.Context, events.Event) error
	queue   chan queuedEvent
	done    chan struct{}
	mu      sync.Mutex
	state   ConnectionState
	started bool
}

type queuedEvent struct {
	ctx context.Context
	evt events.Event
}

// NewQueueTransport builds a QueueTransport with the given buffer depth.
// sink is invoked by a single background worker goroutine for each queued
// event, in enqueue order.
func NewQueueTransport(bufferSize int, sink func(context.Context, events.Event) error) *QueueTransport {
	if bufferSize <= 0 {
		bufferSize = 256
	}
	return &QueueTransport{
		sink:  sink,
		queue: make(chan queuedEvent, bufferSize),
		done:  make(chan struct{}),
	}
}

func (t *QueueTransport) Connect(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.started {
		return nil
	}
	t.started = true
	t.state = Connected
	go t.run()
	return nil
}

func (t *QueueTransport) run() {
	for {
		select {
		case qe, ok := <-t.queue:
			if !ok {
				return
			}
			start := time.Now()
			if err := t.sink(qe.ctx, qe.evt); err != nil {
				t.recordFailure()
				continue
			}
			t.recordSuccess(time.Since(start))
		case <-t.done:
			return
		}
	}
}

func (t *QueueTransport) Send(ctx context.Context, evt events.Event) error {
	select {
	case t.queue <- queuedEvent{ctx: ctx, evt: evt}:
		return nil
	default:
		t.recordFailure()
		return fmt.Errorf("eventlog: queue transport buffer full")
	}
}

func (t *QueueTransport) HealthCheck(ctx context.Context) error {
	if t.State() != Connected {
		return fmt.Errorf("eventlog: queue transport not connected")
	}
	return nil
}

func (t *QueueTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state == Closed {
		return nil
	}
	t.state = Closed
	close(t.done)
	return nil
}

func (t *QueueTransport) State() ConnectionState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

func (t *QueueTransport) Metrics() Metrics { return t.snapshot() }
