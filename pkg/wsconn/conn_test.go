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
package wsconn

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teradata-labs/agentrt/pkg/events"
)

// dialServer upgrades one connection with Upgrader and hands it to handle,
// returning a client-side *websocket.Conn dialed against it.
func dialServer(t *testing.T, handle func(*websocket.Conn)) *websocket.Conn {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := Upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		handle(ws)
	}))
	t.Cleanup(server.Close)

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	client, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return client
}

func TestConn_SendWritesOneJSONTextFrame(t *testing.T) {
	received := make(chan []byte, 1)
	client := dialServer(t, func(ws *websocket.Conn) {
		conn := New(ws)
		defer conn.Close()
		evt := events.Base{SessionID: "tiger-castle", Role: "assistant", Type: events.TypeInteraction}
		require.NoError(t, conn.Send(context.Background(), evt))
		<-received // keep the handler alive until the client has read the frame
	})

	_, data, err := client.ReadMessage()
	require.NoError(t, err)
	received <- data

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "tiger-castle", decoded["session_id"])
	assert.Equal(t, "interaction", decoded["type"])
}

func TestConn_ReceiveReturnsRawFrameBytes(t *testing.T) {
	done := make(chan struct{})
	var receivedErr error
	var receivedData json.RawMessage

	client := dialServer(t, func(ws *websocket.Conn) {
		conn := New(ws)
		defer conn.Close()
		receivedData, receivedErr = conn.Receive(context.Background())
		close(done)
	})

	require.NoError(t, client.WriteMessage(websocket.TextMessage, []byte(`{"hello":"world"}`)))
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for server to receive frame")
	}

	require.NoError(t, receivedErr)
	assert.JSONEq(t, `{"hello":"world"}`, string(receivedData))
}

func TestConn_CloseIsIdempotent(t *testing.T) {
	serverDone := make(chan struct{})
	client := dialServer(t, func(ws *websocket.Conn) {
		conn := New(ws)
		assert.NoError(t, conn.Close())
		assert.NoError(t, conn.Close())
		close(serverDone)
	})
	_ = client

	select {
	case <-serverDone:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for server handler to finish")
	}
}
