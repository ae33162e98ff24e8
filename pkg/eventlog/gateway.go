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
	"sync"

	"go.uber.org/zap"

	"github.com/teradata-labs/agentrt/pkg/events"
)

// Gateway is the Event Session Logger (spec §4.5): it receives every
// runtime event through Log and fans it to a durable per-session JSONL
// file and to a pluggable Transport, with each leg's failures isolated
// from the other — a failed transport send must never suppress local
// JSONL logging, and vice versa.
type Gateway struct {
	baseDir   string
	transport Transport
	logger    *zap.Logger

	mu       sync.Mutex
	writers  map[string]*jsonlWriter
	metadata map[string]*metadataCache

	reportingMu  sync.Mutex
	reportingErr bool // guards against recursive failure-reporting
}

// Config configures a Gateway.
type Config struct {
	// BaseDir is the root directory session subdirectories are created
	// under: {BaseDir}/{session_id}/events-{YYYYMMDD}.jsonl
	BaseDir   string
	Transport Transport
	Logger    *zap.Logger
}

// New constructs a Gateway. Transport may be nil, in which case only the
// local JSONL leg runs (equivalent to the "testing" preset without even a
// NullTransport).
func New(cfg Config) *Gateway {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gateway{
		baseDir:   cfg.BaseDir,
		transport: cfg.Transport,
		logger:    logger,
		writers:   make(map[string]*jsonlWriter),
		metadata:  make(map[string]*metadataCache),
	}
}

// Start connects the configured transport, if any.
func (g *Gateway) Start(ctx context.Context) error {
	if g.transport == nil {
		return nil
	}
	return g.transport.Connect(ctx)
}

// Close flushes and closes every open per-session JSONL writer and the
// transport.
func (g *Gateway) Close() error {
	g.mu.Lock()
	writers := make([]*jsonlWriter, 0, len(g.writers))
	for _, w := range g.writers {
		writers = append(writers, w)
	}
	g.mu.Unlock()

	var firstErr error
	for _, w := range writers {
		if err := w.close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if g.transport != nil {
		if err := g.transport.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (g *Gateway) writerFor(sessionID string) *jsonlWriter {
	g.mu.Lock()
	defer g.mu.Unlock()
	w, ok := g.writers[sessionID]
	if !ok {
		w = newJSONLWriter(g.baseDir, sessionID)
		g.writers[sessionID] = w
	}
	return w
}

func (g *Gateway) metadataFor(sessionID string) *metadataCache {
	g.mu.Lock()
	defer g.mu.Unlock()
	m, ok := g.metadata[sessionID]
	if !ok {
		m = newMetadataCache(g.baseDir, sessionID)
		g.metadata[sessionID] = m
	}
	return m
}

// Log is the streaming_callback-compatible entry point: every event a
// Runtime or Bridge produces is handed here. Both legs run independently;
// a failure on either is reported as a SystemMessageEvent pushed back
// through Log itself, guarded against recursion (spec §4.5).
func (g *Gateway) Log(ctx context.Context, evt events.Event) {
	sessionID := evt.GetBase().SessionID

	ts := events.LoggedAt()
	if _, err := g.writerFor(sessionID).append(evt); err != nil {
		g.logger.Warn("eventlog: jsonl write failed", zap.String("session_id", sessionID), zap.Error(err))
		g.reportFailure(ctx, sessionID, "jsonl write failed: "+err.Error())
	} else {
		if err := g.metadataFor(sessionID).record(ts); err != nil {
			g.logger.Warn("eventlog: metadata update failed", zap.String("session_id", sessionID), zap.Error(err))
		}
	}

	if g.transport != nil {
		if err := g.transport.Send(ctx, evt); err != nil {
			g.logger.Warn("eventlog: transport send failed", zap.String("session_id", sessionID), zap.Error(err))
			g.reportFailure(ctx, sessionID, "transport send failed: "+err.Error())
		}
	}
}

// reportFailure emits a SystemMessageEvent(severity="error") through Log
// describing a leg's failure, without recursing if reporting itself fails
// to log — the one-shot guard spec §4.5 calls for ("without recursive
// failure").
func (g *Gateway) reportFailure(ctx context.Context, sessionID, message string) {
	g.reportingMu.Lock()
	if g.reportingErr {
		g.reportingMu.Unlock()
		return
	}
	g.reportingErr = true
	g.reportingMu.Unlock()
	defer func() {
		g.reportingMu.Lock()
		g.reportingErr = false
		g.reportingMu.Unlock()
	}()

	evt, err := events.NewSystemMessageEvent(sessionID, "system", "error", message)
	if err != nil {
		g.logger.Error("eventlog: failed to construct failure report", zap.Error(err))
		return
	}
	g.Log(ctx, evt)
}

// Tail returns the last n events logged for sessionID, reading backward
// from the most recent JSONL file.
func (g *Gateway) Tail(sessionID string, n int) ([]events.Event, error) {
	return Tail(g.baseDir, sessionID, n)
}
