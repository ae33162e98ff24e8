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
package events_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/teradata-labs/agentrt/pkg/chat"
	"github.com/teradata-labs/agentrt/pkg/events"
)

func TestTextDeltaRoundTrip(t *testing.T) {
	ev, err := events.NewTextDeltaEvent("tiger-castle", "assistant", "Hi there")
	require.NoError(t, err)

	raw, err := events.Encode(ev)
	require.NoError(t, err)

	decoded, err := events.Decode(raw)
	require.NoError(t, err)
	require.Equal(t, ev, decoded)
}

func TestDecodeUnknownType(t *testing.T) {
	_, err := events.Decode([]byte(`{"type":"no_such_event","session_id":"tiger-castle"}`))
	require.Error(t, err)
}

func TestDecodeMissingType(t *testing.T) {
	_, err := events.Decode([]byte(`{"session_id":"tiger-castle"}`))
	require.Error(t, err)
}

func TestNewEventRejectsEmptySessionID(t *testing.T) {
	_, err := events.NewTextDeltaEvent("", "assistant", "hi")
	require.Error(t, err)
}

func TestToolCallEventRoundTrip(t *testing.T) {
	calls := []chat.ToolCall{{ID: "1", Name: "calculator.evaluate", Arguments: `{"expr":"2+2"}`}}
	ev, err := events.NewToolCallEvent("tiger-castle", "assistant", true, calls, nil)
	require.NoError(t, err)

	raw, err := events.Encode(ev)
	require.NoError(t, err)

	decoded, err := events.Decode(raw)
	require.NoError(t, err)
	require.Equal(t, ev, decoded)
}
