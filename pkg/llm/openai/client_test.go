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
package openai

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teradata-labs/agentrt/pkg/chat"
	"github.com/teradata-labs/agentrt/pkg/llm"
)

func TestClient_Chat_NonStreaming(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		w.Write([]byte(`{
			"id": "chatcmpl_1",
			"choices": [{"message": {"role": "assistant", "content": "hello"}, "finish_reason": "stop"}],
			"usage": {"prompt_tokens": 8, "completion_tokens": 3, "total_tokens": 11}
		}`))
	}))
	defer server.Close()

	c := NewClient(Config{APIKey: "test-key", Endpoint: server.URL})
	resp, err := c.Chat(context.Background(), []llm.Message{chat.NewTextMessage(chat.RoleUser, "hi")}, nil)
	require.NoError(t, err)
	assert.Equal(t, "hello", resp.Content)
	assert.Equal(t, "stop", resp.StopReason)
	assert.Equal(t, 11, resp.Usage.TotalTokens)
}

func TestClient_ChatStream_ReassemblesToolCallDeltasByIndex(t *testing.T) {
	sse := "" +
		"data: {\"choices\":[{\"delta\":{\"tool_calls\":[{\"index\":0,\"id\":\"call_1\",\"function\":{\"name\":\"calculator_evaluate\"}}]}}]}\n\n" +
		"data: {\"choices\":[{\"delta\":{\"tool_calls\":[{\"index\":0,\"function\":{\"arguments\":\"{\\\"expr\\\":\"}}]}}]}\n\n" +
		"data: {\"choices\":[{\"delta\":{\"tool_calls\":[{\"index\":0,\"function\":{\"arguments\":\"\\\"2+2\\\"}\"}}]}}]}\n\n" +
		"data: {\"choices\":[{\"delta\":{\"content\":\"working\"},\"finish_reason\":\"tool_calls\"}],\"usage\":{\"prompt_tokens\":4,\"completion_tokens\":2,\"total_tokens\":6}}\n\n" +
		"data: [DONE]\n\n"

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(sse))
	}))
	defer server.Close()

	c := NewClient(Config{APIKey: "test-key", Endpoint: server.URL})
	resp, err := c.ChatStream(context.Background(), []llm.Message{chat.NewTextMessage(chat.RoleUser, "hi")},
		[]llm.ToolSchema{{Name: "calculator:evaluate"}}, func(llm.Fragment) error { return nil })
	require.NoError(t, err)

	require.Len(t, resp.ToolCalls, 1)
	assert.Equal(t, "call_1", resp.ToolCalls[0].ID)
	assert.Equal(t, `{"expr":"2+2"}`, resp.ToolCalls[0].Arguments)
	assert.Equal(t, "working", resp.Content)
	assert.Equal(t, "tool_calls", resp.StopReason)
	assert.Equal(t, 6, resp.Usage.TotalTokens)
}

func TestClient_ApplyHeaders_PrefersExtraHeadersOverBearerAuth(t *testing.T) {
	var gotAuth, gotAPIKey string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotAPIKey = r.Header.Get("api-key")
		w.Write([]byte(`{"choices":[{"message":{"content":""},"finish_reason":"stop"}]}`))
	}))
	defer server.Close()

	c := NewClient(Config{APIKey: "ignored", Endpoint: server.URL, ExtraHeaders: map[string]string{"api-key": "azure-key"}})
	_, err := c.Chat(context.Background(), nil, nil)
	require.NoError(t, err)

	assert.Empty(t, gotAuth)
	assert.Equal(t, "azure-key", gotAPIKey)
}
