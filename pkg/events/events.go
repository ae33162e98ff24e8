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

// Package events defines the tagged-variant runtime event stream produced
// by the Agent Runtime and re-emitted by the Agent Bridge. Every variant
// carries session_id, role, and type; dispatch on the type tag is
// table-driven through the Registry rather than a hand-written if-ladder.
package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/teradata-labs/agentrt/pkg/chat"
)

// Type is the discriminator tag carried by every event and by every
// inbound client envelope.
type Type string

const (
	TypeInteraction     Type = "interaction"
	TypeCompletion      Type = "completion"
	TypeTextDelta       Type = "text_delta"
	TypeThoughtDelta    Type = "thought_delta"
	TypeCompleteThought Type = "complete_thought"
	TypeToolCall        Type = "tool_call"
	TypeToolCallDelta   Type = "tool_call_delta"
	TypeMessage         Type = "message"
	TypeHistory         Type = "history"
	TypeHistoryDelta    Type = "history_delta"
	TypeSystemMessage   Type = "system_message"
	TypeSystemPrompt    Type = "system_prompt"
	TypeUserRequest     Type = "user_request"
	TypeRenderMedia     Type = "render_media"

	TypeAgentConfigurationChanged Type = "agent_configuration_changed"
	TypeAvatarConnectionChanged   Type = "avatar_connection_changed"

	// TypeTextInput is the inbound client envelope that triggers interact().
	TypeTextInput Type = "text_input"
	// TypeUpdateTools, TypeSetAgent, TypeSetAvatar, and TypeCallTool are the
	// remaining inbound client envelopes the Bridge dispatches on (spec §4.1
	// coarse operations); all but TypeTextInput carry no streamed reply of
	// their own beyond the configuration-change events they trigger.
	TypeUpdateTools Type = "update_tools"
	TypeSetAgent    Type = "set_agent"
	TypeSetAvatar   Type = "set_avatar"
	TypeCallTool    Type = "call_tool"
)

// Base is embedded by every event variant and carries the three fields the
// spec requires of all events.
type Base struct {
	SessionID string `json:"session_id"`
	Role      string `json:"role"`
	Type      Type   `json:"type"`
}

// Event is satisfied by every variant. GetBase lets the registry and the
// logger read session_id/role/type without a type switch.
type Event interface {
	GetBase() Base
}

func (b Base) GetBase() Base { return b }

// newBase validates that session_id and role are never omitted, per the
// design note that construction goes through a builder.
func newBase(sessionID, role string, t Type) (Base, error) {
	if sessionID == "" {
		return Base{}, fmt.Errorf("events: session_id is required for %s event", t)
	}
	if role == "" {
		return Base{}, fmt.Errorf("events: role is required for %s event", t)
	}
	return Base{SessionID: sessionID, Role: role, Type: t}, nil
}

// InteractionEvent brackets one user turn.
type InteractionEvent struct {
	Base
	Started bool   `json:"started"`
	ID      string `json:"id"`
}

func NewInteractionEvent(sessionID, role string, started bool, id string) (InteractionEvent, error) {
	b, err := newBase(sessionID, role, TypeInteraction)
	if err != nil {
		return InteractionEvent{}, err
	}
	return InteractionEvent{Base: b, Started: started, ID: id}, nil
}

// CompletionOptions is a sanitized snapshot of the vendor call options: a
// deep copy with any message array stripped, per spec §6.
type CompletionOptions struct {
	Model           string  `json:"model"`
	Temperature     float64 `json:"temperature,omitempty"`
	ReasoningEffort any     `json:"reasoning_effort,omitempty"`
	BudgetTokens    int     `json:"budget_tokens,omitempty"`
	MaxTokens       int     `json:"max_tokens,omitempty"`
	ToolSchemaNames []string `json:"tool_schema_names,omitempty"`
}

// CompletionEvent brackets one provider call.
type CompletionEvent struct {
	Base
	Running           bool              `json:"running"`
	CompletionOptions CompletionOptions `json:"completion_options"`
	StopReason        string            `json:"stop_reason,omitempty"`
}

func NewCompletionEvent(sessionID, role string, running bool, opts CompletionOptions, stopReason string) (CompletionEvent, error) {
	b, err := newBase(sessionID, role, TypeCompletion)
	if err != nil {
		return CompletionEvent{}, err
	}
	return CompletionEvent{Base: b, Running: running, CompletionOptions: opts, StopReason: stopReason}, nil
}

// TextDeltaEvent is a streaming text fragment.
type TextDeltaEvent struct {
	Base
	Content string `json:"content"`
}

func NewTextDeltaEvent(sessionID, role, content string) (TextDeltaEvent, error) {
	b, err := newBase(sessionID, role, TypeTextDelta)
	if err != nil {
		return TextDeltaEvent{}, err
	}
	return TextDeltaEvent{Base: b, Content: content}, nil
}

// ThoughtDeltaEvent is a streaming reasoning fragment.
type ThoughtDeltaEvent struct {
	Base
	Content string `json:"content"`
}

func NewThoughtDeltaEvent(sessionID, role, content string) (ThoughtDeltaEvent, error) {
	b, err := newBase(sessionID, role, TypeThoughtDelta)
	if err != nil {
		return ThoughtDeltaEvent{}, err
	}
	return ThoughtDeltaEvent{Base: b, Content: content}, nil
}

// CompleteThoughtEvent marks a provider's end-of-thought boundary.
type CompleteThoughtEvent struct {
	Base
	Content string `json:"content"`
}

func NewCompleteThoughtEvent(sessionID, role, content string) (CompleteThoughtEvent, error) {
	b, err := newBase(sessionID, role, TypeCompleteThought)
	if err != nil {
		return CompleteThoughtEvent{}, err
	}
	return CompleteThoughtEvent{Base: b, Content: content}, nil
}

// ToolCallEvent brackets tool execution.
type ToolCallEvent struct {
	Base
	Active      bool             `json:"active"`
	ToolCalls   []chat.ToolCall  `json:"tool_calls"`
	ToolResults []chat.ToolResult `json:"tool_results,omitempty"`
}

func NewToolCallEvent(sessionID, role string, active bool, calls []chat.ToolCall, results []chat.ToolResult) (ToolCallEvent, error) {
	b, err := newBase(sessionID, role, TypeToolCall)
	if err != nil {
		return ToolCallEvent{}, err
	}
	return ToolCallEvent{Base: b, Active: active, ToolCalls: calls, ToolResults: results}, nil
}

// ToolCallDeltaEvent carries in-progress, not-yet-reassembled tool-call
// fragments.
type ToolCallDeltaEvent struct {
	Base
	ToolCalls []chat.ToolCall `json:"tool_calls"`
}

func NewToolCallDeltaEvent(sessionID, role string, calls []chat.ToolCall) (ToolCallDeltaEvent, error) {
	b, err := newBase(sessionID, role, TypeToolCallDelta)
	if err != nil {
		return ToolCallDeltaEvent{}, err
	}
	return ToolCallDeltaEvent{Base: b, ToolCalls: calls}, nil
}

// MessageEvent is a complete message, e.g. a non-streaming reply.
type MessageEvent struct {
	Base
	Content string `json:"content"`
	Format  string `json:"format,omitempty"`
}

func NewMessageEvent(sessionID, role, content, format string) (MessageEvent, error) {
	b, err := newBase(sessionID, role, TypeMessage)
	if err != nil {
		return MessageEvent{}, err
	}
	return MessageEvent{Base: b, Content: content, Format: format}, nil
}

// HistoryEvent carries a full history snapshot.
type HistoryEvent struct {
	Base
	Messages []chat.ChatMessage `json:"messages"`
}

func NewHistoryEvent(sessionID, role string, messages []chat.ChatMessage) (HistoryEvent, error) {
	b, err := newBase(sessionID, role, TypeHistory)
	if err != nil {
		return HistoryEvent{}, err
	}
	return HistoryEvent{Base: b, Messages: messages}, nil
}

// HistoryDeltaEvent carries a partial history snapshot.
type HistoryDeltaEvent struct {
	Base
	Messages []chat.ChatMessage `json:"messages"`
}

func NewHistoryDeltaEvent(sessionID, role string, messages []chat.ChatMessage) (HistoryDeltaEvent, error) {
	b, err := newBase(sessionID, role, TypeHistoryDelta)
	if err != nil {
		return HistoryDeltaEvent{}, err
	}
	return HistoryDeltaEvent{Base: b, Messages: messages}, nil
}

// SystemMessageEvent is an out-of-band signal, the vehicle for every
// recovered error the spec's error-handling design routes to the client.
type SystemMessageEvent struct {
	Base
	Severity string `json:"severity"`
	Content  string `json:"content"`
}

func NewSystemMessageEvent(sessionID, role, severity, content string) (SystemMessageEvent, error) {
	b, err := newBase(sessionID, role, TypeSystemMessage)
	if err != nil {
		return SystemMessageEvent{}, err
	}
	return SystemMessageEvent{Base: b, Severity: severity, Content: content}, nil
}

// SystemPromptEvent carries the rendered system prompt for observability.
type SystemPromptEvent struct {
	Base
	Content string `json:"content"`
}

func NewSystemPromptEvent(sessionID, role, content string) (SystemPromptEvent, error) {
	b, err := newBase(sessionID, role, TypeSystemPrompt)
	if err != nil {
		return SystemPromptEvent{}, err
	}
	return SystemPromptEvent{Base: b, Content: content}, nil
}

// UserRequestEvent carries an out-of-band request payload from the client.
type UserRequestEvent struct {
	Base
	Data map[string]interface{} `json:"data"`
}

func NewUserRequestEvent(sessionID, role string, data map[string]interface{}) (UserRequestEvent, error) {
	b, err := newBase(sessionID, role, TypeUserRequest)
	if err != nil {
		return UserRequestEvent{}, err
	}
	return UserRequestEvent{Base: b, Data: data}, nil
}

// RenderMediaEvent is an inline media render directive.
type RenderMediaEvent struct {
	Base
	ContentType string `json:"content_type"`
	URL         string `json:"url,omitempty"`
	Data        string `json:"data,omitempty"`
}

func NewRenderMediaEvent(sessionID, role, contentType, url, data string) (RenderMediaEvent, error) {
	b, err := newBase(sessionID, role, TypeRenderMedia)
	if err != nil {
		return RenderMediaEvent{}, err
	}
	return RenderMediaEvent{Base: b, ContentType: contentType, URL: url, Data: data}, nil
}

// AgentConfigurationChangedEvent is emitted after update_tools or set_agent
// changes what an agent is equipped with.
type AgentConfigurationChangedEvent struct {
	Base
	AgentKey string   `json:"agent_key"`
	Tools    []string `json:"tools"`
}

func NewAgentConfigurationChangedEvent(sessionID, role, agentKey string, tools []string) (AgentConfigurationChangedEvent, error) {
	b, err := newBase(sessionID, role, TypeAgentConfigurationChanged)
	if err != nil {
		return AgentConfigurationChangedEvent{}, err
	}
	return AgentConfigurationChangedEvent{Base: b, AgentKey: agentKey, Tools: tools}, nil
}

// AvatarConnectionChangedEvent is emitted after set_avatar ends any prior
// avatar session and establishes a new one.
type AvatarConnectionChangedEvent struct {
	Base
	AvatarID      string `json:"avatar_id"`
	Quality       string `json:"quality,omitempty"`
	VideoEncoding string `json:"video_encoding,omitempty"`
	Connected     bool   `json:"connected"`
}

func NewAvatarConnectionChangedEvent(sessionID, role, avatarID, quality, videoEncoding string, connected bool) (AvatarConnectionChangedEvent, error) {
	b, err := newBase(sessionID, role, TypeAvatarConnectionChanged)
	if err != nil {
		return AvatarConnectionChangedEvent{}, err
	}
	return AvatarConnectionChangedEvent{Base: b, AvatarID: avatarID, Quality: quality, VideoEncoding: videoEncoding, Connected: connected}, nil
}

// TextInputEvent is the inbound envelope that triggers interact().
type TextInputEvent struct {
	Base
	Text    string   `json:"text"`
	FileIDs []string `json:"file_ids,omitempty"`
}

func NewTextInputEvent(sessionID, role, text string, fileIDs []string) (TextInputEvent, error) {
	b, err := newBase(sessionID, role, TypeTextInput)
	if err != nil {
		return TextInputEvent{}, err
	}
	return TextInputEvent{Base: b, Text: text, FileIDs: fileIDs}, nil
}

// UpdateToolsEvent is the inbound envelope requesting a tool-list diff.
type UpdateToolsEvent struct {
	Base
	Tools []string `json:"tools"`
}

func NewUpdateToolsEvent(sessionID, role string, tools []string) (UpdateToolsEvent, error) {
	b, err := newBase(sessionID, role, TypeUpdateTools)
	if err != nil {
		return UpdateToolsEvent{}, err
	}
	return UpdateToolsEvent{Base: b, Tools: tools}, nil
}

// SetAgentEvent is the inbound envelope requesting an agent switch.
type SetAgentEvent struct {
	Base
	AgentKey string `json:"agent_key"`
}

func NewSetAgentEvent(sessionID, role, agentKey string) (SetAgentEvent, error) {
	b, err := newBase(sessionID, role, TypeSetAgent)
	if err != nil {
		return SetAgentEvent{}, err
	}
	return SetAgentEvent{Base: b, AgentKey: agentKey}, nil
}

// SetAvatarEvent is the inbound envelope requesting an avatar session.
type SetAvatarEvent struct {
	Base
	AvatarID      string `json:"avatar_id"`
	Quality       string `json:"quality,omitempty"`
	VideoEncoding string `json:"video_encoding,omitempty"`
}

func NewSetAvatarEvent(sessionID, role, avatarID, quality, videoEncoding string) (SetAvatarEvent, error) {
	b, err := newBase(sessionID, role, TypeSetAvatar)
	if err != nil {
		return SetAvatarEvent{}, err
	}
	return SetAvatarEvent{Base: b, AvatarID: avatarID, Quality: quality, VideoEncoding: videoEncoding}, nil
}

// CallToolEvent is the inbound envelope requesting a direct tool call
// outside the normal chat turn (spec §4.1 "call a tool directly").
type CallToolEvent struct {
	Base
	ToolName  string          `json:"tool_name"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

func NewCallToolEvent(sessionID, role, toolName string, arguments json.RawMessage) (CallToolEvent, error) {
	b, err := newBase(sessionID, role, TypeCallTool)
	if err != nil {
		return CallToolEvent{}, err
	}
	return CallToolEvent{Base: b, ToolName: toolName, Arguments: arguments}, nil
}

// LoggedAt stamps a wall-clock time used by the Event Session Logger's JSONL
// record envelope; kept distinct from any event field so events themselves
// stay free of logging concerns.
func LoggedAt() time.Time { return time.Now().UTC() }
