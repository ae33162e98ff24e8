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

// Package llm defines the provider-agnostic vendor interface the Agent
// Runtime drives, and the runtime_for_agent factory that hides vendor
// streaming differences behind it (spec §9 provider-differences note).
package llm

import (
	"context"

	"github.com/teradata-labs/agentrt/pkg/chat"
)

// Message is an alias to the shared chat message type, kept distinct from
// pkg/chat's own name to avoid an import cycle between pkg/llm and the
// packages that depend on it, mirroring the teacher's type-alias idiom.
type Message = chat.ChatMessage

// ToolSchema is the provider-shaped description of one callable tool,
// produced by the Tool Chest's get_inference_data for the vendor in use.
type ToolSchema struct {
	Name        string
	Description string
	Parameters  map[string]interface{} // JSON Schema, already provider-neutral
}

// Usage reports token accounting for one provider call.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
	CostUSD      float64
}

// Response is a non-streaming provider result.
type Response struct {
	Content    string
	ToolCalls  []chat.ToolCall
	StopReason string
	Usage      Usage
	Thinking   string
}

// FragmentKind tags one streamed Fragment.
type FragmentKind int

const (
	FragmentText FragmentKind = iota
	FragmentThought
	FragmentThoughtComplete
	FragmentToolCallDelta
	FragmentDone
)

// ToolCallDelta is one incremental tool-call fragment. Index is the
// provider-given slot; ID and Name are present only on the fragment that
// introduces the call; ArgumentsChunk must be concatenated onto whatever
// has already accumulated at Index (spec §4.2 reassembly rule).
type ToolCallDelta struct {
	Index          int
	ID             string
	Name           string
	ArgumentsChunk string
}

// Fragment is one element of a streamed completion.
type Fragment struct {
	Kind          FragmentKind
	Text          string
	ToolCallDelta ToolCallDelta
	StopReason    string
	Usage         Usage
}

// StreamCallback receives one Fragment at a time. Returning an error aborts
// the stream; the Runtime uses this to implement cooperative cancellation
// between fragments.
type StreamCallback func(Fragment) error

// Provider is the minimum vendor contract: a single non-streaming call.
type Provider interface {
	Name() string
	Model() string
	Chat(ctx context.Context, messages []Message, tools []ToolSchema) (*Response, error)
}

// StreamingProvider additionally exposes a streaming call. Every vendor
// client in this module implements it; Provider alone exists for tests
// that don't care about streaming.
type StreamingProvider interface {
	Provider
	ChatStream(ctx context.Context, messages []Message, tools []ToolSchema, cb StreamCallback) (*Response, error)
}
