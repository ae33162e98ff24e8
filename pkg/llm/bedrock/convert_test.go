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
//
// Client.Chat/ChatStream are not exercised here: *bedrockruntime.Client has
// no interface seam in this package (unlike the anthropic/openai clients,
// which take a plain *http.Client and are tested against an httptest
// server), so covering them would require either a live AWS call or a
// hand-rolled SDK mock the rest of this module never uses. The pure
// conversion helpers below carry the same wire-shape logic InvokeModel
// depends on.
package bedrock

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teradata-labs/agentrt/pkg/chat"
	"github.com/teradata-labs/agentrt/pkg/llm"
)

func TestConvertMessages_SeparatesSystemFromConversation(t *testing.T) {
	messages := []llm.Message{
		chat.NewTextMessage(chat.RoleSystem, "be helpful"),
		chat.NewTextMessage(chat.RoleUser, "hi"),
	}
	system, apiMessages := convertMessages(messages)
	assert.Equal(t, "be helpful", system)
	require.Len(t, apiMessages, 1)
	assert.Equal(t, "user", apiMessages[0]["role"])
}

func TestConvertMessages_AssistantToolCallSanitizesName(t *testing.T) {
	messages := []llm.Message{
		{Role: chat.RoleAssistant, ToolCalls: []chat.ToolCall{{ID: "1", Name: "calculator:evaluate", Arguments: `{"expression":"2+2"}`}}},
	}
	_, apiMessages := convertMessages(messages)
	require.Len(t, apiMessages, 1)
	content := apiMessages[0]["content"].([]map[string]interface{})
	require.Len(t, content, 1)
	assert.Equal(t, "calculator_evaluate", content[0]["name"])
}

func TestConvertMessages_ToolResultBecomesUserToolResultBlock(t *testing.T) {
	messages := []llm.Message{
		{Role: chat.RoleTool, ToolResults: []chat.ToolResult{{ToolCallID: "1", Content: "4"}}},
	}
	_, apiMessages := convertMessages(messages)
	require.Len(t, apiMessages, 1)
	assert.Equal(t, "user", apiMessages[0]["role"])
}

func TestConvertTools_SanitizesAndRecordsNameMap(t *testing.T) {
	nameMap := make(map[string]string)
	tools := convertTools([]llm.ToolSchema{{Name: "calculator:evaluate", Description: "eval"}}, nameMap)
	require.Len(t, tools, 1)
	assert.Equal(t, "calculator_evaluate", tools[0]["name"])
	assert.Equal(t, "calculator:evaluate", nameMap["calculator_evaluate"])
}

func TestConvertResponse_ReversesToolNameAndAccumulatesUsage(t *testing.T) {
	nameMap := map[string]string{"calculator_evaluate": "calculator:evaluate"}
	resp := &wireResponse{
		StopReason: "tool_use",
		Content: []map[string]interface{}{
			{"type": "text", "text": "hi"},
			{"type": "tool_use", "id": "1", "name": "calculator_evaluate", "input": map[string]interface{}{"expression": "2+2"}},
		},
		Usage: wireUsage{InputTokens: 10, OutputTokens: 5},
	}

	out := convertResponse(resp, "us.anthropic.claude-opus-4-20250101", nameMap)
	assert.Equal(t, "hi", out.Content)
	require.Len(t, out.ToolCalls, 1)
	assert.Equal(t, "calculator:evaluate", out.ToolCalls[0].Name)
	assert.Equal(t, 15, out.Usage.TotalTokens)
	assert.Greater(t, out.Usage.CostUSD, 0.0)
}

func TestEstimateCost_PricesByModelFamily(t *testing.T) {
	opus := estimateCost("us.anthropic.claude-opus-4-20250101", 1_000_000, 1_000_000)
	haiku := estimateCost("us.anthropic.claude-haiku-4-20250101", 1_000_000, 1_000_000)
	assert.Greater(t, opus, haiku)
}
