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
package runtime_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teradata-labs/agentrt/pkg/agentconfig"
	"github.com/teradata-labs/agentrt/pkg/chat"
	"github.com/teradata-labs/agentrt/pkg/events"
	"github.com/teradata-labs/agentrt/pkg/llm"
	"github.com/teradata-labs/agentrt/pkg/runtime"
	"github.com/teradata-labs/agentrt/pkg/toolchest"
	"github.com/teradata-labs/agentrt/pkg/toolchest/builtin"
)

// scriptedProvider replays a fixed sequence of responses, one per call to
// ChatStream, so a test can script a tool_calls turn followed by a final
// text turn without a real vendor.
type scriptedProvider struct {
	responses []llm.Response
	fragments [][]llm.Fragment
	calls     int
}

func (p *scriptedProvider) Name() string  { return "scripted" }
func (p *scriptedProvider) Model() string { return "scripted-model" }

func (p *scriptedProvider) Chat(ctx context.Context, messages []llm.Message, tools []llm.ToolSchema) (*llm.Response, error) {
	return p.next()
}

func (p *scriptedProvider) ChatStream(ctx context.Context, messages []llm.Message, tools []llm.ToolSchema, cb llm.StreamCallback) (*llm.Response, error) {
	idx := p.calls
	resp, err := p.next()
	if err != nil {
		return nil, err
	}
	for _, frag := range p.fragments[idx] {
		if err := cb(frag); err != nil {
			return nil, err
		}
	}
	return resp, nil
}

func (p *scriptedProvider) next() (*llm.Response, error) {
	if p.calls >= len(p.responses) {
		return nil, fmt.Errorf("scriptedProvider: no more responses")
	}
	r := p.responses[p.calls]
	p.calls++
	return &r, nil
}

func newSession(t *testing.T) *chat.ChatSession {
	t.Helper()
	cfg := agentconfig.AgentConfiguration{Version: 2, Name: "tester", ModelID: "scripted-model"}
	s, err := chat.New("tiger-castle", "user-1", cfg)
	require.NoError(t, err)
	return s
}

func TestChatSingleTurnNoToolCalls(t *testing.T) {
	provider := &scriptedProvider{
		responses: []llm.Response{
			{Content: "hello there", StopReason: "stop"},
		},
		fragments: [][]llm.Fragment{
			{
				{Kind: llm.FragmentText, Text: "hello "},
				{Kind: llm.FragmentText, Text: "there"},
				{Kind: llm.FragmentDone, StopReason: "stop"},
			},
		},
	}
	rt := runtime.New(provider)
	session := newSession(t)

	var seen []events.Type
	cb := func(e events.Event) error {
		seen = append(seen, e.GetBase().Type)
		return nil
	}

	messages, err := rt.Chat(context.Background(), runtime.ChatRequest{
		ChatSession:       session,
		UserMessage:       "hi",
		StreamingCallback: cb,
		Role:              "tester",
	})
	require.NoError(t, err)

	require.NotEmpty(t, messages)
	last := messages[len(messages)-1]
	assert.Equal(t, chat.RoleAssistant, last.Role)
	assert.Equal(t, "hello there", last.Text())

	require.True(t, len(seen) >= 4)
	assert.Equal(t, events.TypeInteraction, seen[0])
	assert.Equal(t, events.TypeCompletion, seen[1])
	assert.Equal(t, events.TypeTextDelta, seen[2])
	assert.Equal(t, events.TypeTextDelta, seen[3])
	assert.Equal(t, events.TypeCompletion, seen[len(seen)-2])
	assert.Equal(t, events.TypeInteraction, seen[len(seen)-1])
}

func TestChatDispatchesToolCallsThenFinishes(t *testing.T) {
	provider := &scriptedProvider{
		responses: []llm.Response{
			{StopReason: "tool_calls"},
			{Content: "4", StopReason: "stop"},
		},
		fragments: [][]llm.Fragment{
			{
				{Kind: llm.FragmentToolCallDelta, ToolCallDelta: llm.ToolCallDelta{Index: 0, ID: "call-1", Name: toolchest.QualifiedName("calculator", "evaluate"), ArgumentsChunk: `{"expr`}},
				{Kind: llm.FragmentToolCallDelta, ToolCallDelta: llm.ToolCallDelta{Index: 0, ArgumentsChunk: `ession":"2+2"}`}},
				{Kind: llm.FragmentDone, StopReason: "tool_calls"},
			},
			{
				{Kind: llm.FragmentText, Text: "4"},
				{Kind: llm.FragmentDone, StopReason: "stop"},
			},
		},
	}
	rt := runtime.New(provider)
	session := newSession(t)

	chest := toolchest.New(builtin.Catalog())
	require.Empty(t, chest.ActivateToolset([]string{"calculator"}))

	var toolCycle []events.Event
	cb := func(e events.Event) error {
		if e.GetBase().Type == events.TypeToolCall {
			toolCycle = append(toolCycle, e)
		}
		return nil
	}

	messages, err := rt.Chat(context.Background(), runtime.ChatRequest{
		ChatSession:       session,
		ToolChest:         chest,
		ToolNames:         []string{"calculator"},
		UserMessage:       "what is 2+2?",
		StreamingCallback: cb,
		Role:              "tester",
	})
	require.NoError(t, err)
	require.Len(t, toolCycle, 2)

	active := toolCycle[0].(events.ToolCallEvent)
	assert.True(t, active.Active)
	assert.Equal(t, toolchest.QualifiedName("calculator", "evaluate"), active.ToolCalls[0].Name)
	assert.Equal(t, `{"expression":"2+2"}`, active.ToolCalls[0].Arguments)

	finished := toolCycle[1].(events.ToolCallEvent)
	assert.False(t, finished.Active)
	require.Len(t, finished.ToolResults, 1)
	assert.Equal(t, "4", finished.ToolResults[0].Content)

	var roles []chat.Role
	for _, m := range messages {
		roles = append(roles, m.Role)
	}
	assert.Contains(t, roles, chat.RoleAssistant)
	assert.Contains(t, roles, chat.RoleTool)

	last := messages[len(messages)-1]
	assert.Equal(t, chat.RoleAssistant, last.Role)
	assert.Equal(t, "4", last.Text())
}

func TestChatRetriesRetryableProviderError(t *testing.T) {
	provider := &retryThenSucceedProvider{failuresBeforeSuccess: 1}
	rt := runtime.New(provider, runtime.WithInitialDelay(time.Millisecond))
	session := newSession(t)

	var sawWarning bool
	cb := func(e events.Event) error {
		if sysMsg, ok := e.(events.SystemMessageEvent); ok {
			sawWarning = sysMsg.Severity == "warning"
		}
		return nil
	}

	_, err := rt.Chat(context.Background(), runtime.ChatRequest{
		ChatSession:       session,
		UserMessage:       "hi",
		StreamingCallback: cb,
		Role:              "tester",
	})
	require.NoError(t, err)
	assert.True(t, sawWarning)
	assert.Equal(t, 2, provider.attempts)
}

type retryThenSucceedProvider struct {
	failuresBeforeSuccess int
	attempts              int
}

func (p *retryThenSucceedProvider) Name() string  { return "flaky" }
func (p *retryThenSucceedProvider) Model() string { return "flaky-model" }

func (p *retryThenSucceedProvider) Chat(ctx context.Context, messages []llm.Message, tools []llm.ToolSchema) (*llm.Response, error) {
	p.attempts++
	if p.attempts <= p.failuresBeforeSuccess {
		return nil, llm.Retryable(fmt.Errorf("upstream 503"))
	}
	return &llm.Response{Content: "ok", StopReason: "stop"}, nil
}
