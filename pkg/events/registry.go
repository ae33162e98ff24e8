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
package events

import (
	"encoding/json"
	"fmt"
)

// decoders maps a type tag to a function that unmarshals raw JSON into the
// concrete Go type for that variant, returned as an Event. This is the
// table-driven alternative to a hand-written type switch the design notes
// call for.
var decoders = map[Type]func(raw json.RawMessage) (Event, error){
	TypeInteraction:     decodeAs[InteractionEvent],
	TypeCompletion:      decodeAs[CompletionEvent],
	TypeTextDelta:       decodeAs[TextDeltaEvent],
	TypeThoughtDelta:    decodeAs[ThoughtDeltaEvent],
	TypeCompleteThought: decodeAs[CompleteThoughtEvent],
	TypeToolCall:        decodeAs[ToolCallEvent],
	TypeToolCallDelta:   decodeAs[ToolCallDeltaEvent],
	TypeMessage:         decodeAs[MessageEvent],
	TypeHistory:         decodeAs[HistoryEvent],
	TypeHistoryDelta:    decodeAs[HistoryDeltaEvent],
	TypeSystemMessage:   decodeAs[SystemMessageEvent],
	TypeSystemPrompt:    decodeAs[SystemPromptEvent],
	TypeUserRequest:     decodeAs[UserRequestEvent],
	TypeRenderMedia:     decodeAs[RenderMediaEvent],

	TypeAgentConfigurationChanged: decodeAs[AgentConfigurationChangedEvent],
	TypeAvatarConnectionChanged:   decodeAs[AvatarConnectionChangedEvent],

	TypeTextInput:   decodeAs[TextInputEvent],
	TypeUpdateTools: decodeAs[UpdateToolsEvent],
	TypeSetAgent:    decodeAs[SetAgentEvent],
	TypeSetAvatar:   decodeAs[SetAvatarEvent],
	TypeCallTool:    decodeAs[CallToolEvent],
}

func decodeAs[T Event](raw json.RawMessage) (Event, error) {
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return v, nil
}

// envelope is only used to peek at the type tag before full decode.
type envelope struct {
	Type Type `json:"type"`
}

// Decode parses raw JSON into the concrete variant named by its "type"
// tag. An unregistered type is reported as an error rather than panicking,
// matching the Bridge's "unknown client event type" handling (spec §6).
func Decode(raw []byte) (Event, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("events: malformed event envelope: %w", err)
	}
	if env.Type == "" {
		return nil, fmt.Errorf("events: event envelope missing type field")
	}
	decode, ok := decoders[env.Type]
	if !ok {
		return nil, fmt.Errorf("events: unknown event type: %s", env.Type)
	}
	return decode(raw)
}

// Encode serializes any variant back to its JSON wire shape.
func Encode(e Event) ([]byte, error) {
	return json.Marshal(e)
}

// Registered reports whether a type tag has a decoder. Decode performs the
// same lookup itself, so callers of Decode need not call it first.
func Registered(t Type) bool {
	_, ok := decoders[t]
	return ok
}
