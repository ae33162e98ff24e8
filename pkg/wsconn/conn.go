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

// Package wsconn is one concrete bridge.Connection: one JSON frame per
// WebSocket text message. Framing, auth and upgrade policy are explicitly
// out of scope for the core (spec §1); this package is the reference
// wiring cmd/agentrtd uses to actually accept connections.
package wsconn

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"

	"github.com/teradata-labs/agentrt/pkg/bridge"
	"github.com/teradata-labs/agentrt/pkg/events"
)

const (
	maxMessageBytes = 1 << 20
	writeWait       = 10 * time.Second
	pongWait        = 45 * time.Second
	pingInterval    = pongWait * 9 / 10
)

// Upgrader is shared across connections; CheckOrigin is left to the caller
// (reverse proxy / auth middleware sit in front of this package).
var Upgrader = websocket.Upgrader{
	ReadBufferSize:  8192,
	WriteBufferSize: 8192,
}

// Conn adapts a *websocket.Conn to bridge.Connection.
type Conn struct {
	ws   *websocket.Conn
	done chan struct{}
}

var _ bridge.Connection = (*Conn)(nil)

// New wraps an already-upgraded WebSocket connection and starts its
// keepalive ping loop.
func New(ws *websocket.Conn) *Conn {
	ws.SetReadLimit(maxMessageBytes)
	_ = ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	c := &Conn{ws: ws, done: make(chan struct{})}
	go c.pingLoop()
	return c
}

func (c *Conn) pingLoop() {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Receive blocks for the next text frame and returns its raw JSON bytes.
func (c *Conn) Receive(ctx context.Context) (json.RawMessage, error) {
	_, data, err := c.ws.ReadMessage()
	if err != nil {
		return nil, err
	}
	return json.RawMessage(data), nil
}

// Send encodes evt via the event registry and writes it as one text frame.
func (c *Conn) Send(ctx context.Context, evt events.Event) error {
	raw, err := events.Encode(evt)
	if err != nil {
		return err
	}
	_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	return c.ws.WriteMessage(websocket.TextMessage, raw)
}

// Close stops the keepalive loop and closes the underlying socket.
func (c *Conn) Close() error {
	select {
	case <-c.done:
		return nil
	default:
		close(c.done)
	}
	return c.ws.Close()
}
