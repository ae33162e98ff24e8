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
package toolchest_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teradata-labs/agentrt/pkg/chat"
	"github.com/teradata-labs/agentrt/pkg/toolchest"
	"github.com/teradata-labs/agentrt/pkg/toolchest/builtin"
)

func newTestChest() *toolchest.Chest {
	return toolchest.New(builtin.Catalog())
}

func TestActivateToolsetUnknownNameReportedNotRaised(t *testing.T) {
	chest := newTestChest()
	failed := chest.ActivateToolset([]string{"calculator", "not_a_real_toolset"})
	assert.Equal(t, []string{"not_a_real_toolset"}, failed)
	assert.Contains(t, chest.ActiveToolsets(), "calculator")
}

func TestCallToolCalculatorEvaluate(t *testing.T) {
	chest := newTestChest()
	failed := chest.ActivateToolset([]string{"calculator"})
	require.Empty(t, failed)

	result := chest.CallTool(context.Background(), toolchest.QualifiedName("calculator", "evaluate"), []byte(`{"expression":"2+2"}`))
	assert.Equal(t, "4", result)
}

func TestCallToolExceptionIsConvertedToImportantPrefix(t *testing.T) {
	chest := newTestChest()
	require.Empty(t, chest.ActivateToolset([]string{"calculator"}))

	result := chest.CallTool(context.Background(), toolchest.QualifiedName("calculator", "evaluate"), []byte(`{"expression":"1/0"}`))
	assert.Contains(t, result, "Important! Tell the user an error occurred calling evaluate on calculator.")
	assert.Contains(t, result, "division by zero")
}

func TestCallToolUnknownToolsetReturnsErrorString(t *testing.T) {
	chest := newTestChest()
	result := chest.CallTool(context.Background(), toolchest.QualifiedName("ghost", "run"), nil)
	assert.Contains(t, result, "not active")
}

func TestDispatchBatchPreservesArrivalOrder(t *testing.T) {
	chest := newTestChest()
	require.Empty(t, chest.ActivateToolset([]string{"calculator"}))

	calls := []chat.ToolCall{
		{ID: "1", Name: toolchest.QualifiedName("calculator", "evaluate"), Arguments: `{"expression":"1+1"}`},
		{ID: "2", Name: toolchest.QualifiedName("calculator", "evaluate"), Arguments: `{"expression":"2+2"}`},
		{ID: "3", Name: toolchest.QualifiedName("calculator", "evaluate"), Arguments: `{"expression":"3+3"}`},
	}
	results := chest.DispatchBatch(context.Background(), calls)
	require.Len(t, results, 3)
	assert.Equal(t, "1", results[0].ToolCallID)
	assert.Equal(t, "2", results[1].ToolCallID)
	assert.Equal(t, "3", results[2].ToolCallID)
	assert.Equal(t, "2", results[0].Content)
	assert.Equal(t, "4", results[1].Content)
	assert.Equal(t, "6", results[2].Content)
}

func TestGetInferenceDataOnlyResolvesActiveToolsets(t *testing.T) {
	chest := newTestChest()
	require.Empty(t, chest.ActivateToolset([]string{"calculator"}))

	data := chest.GetInferenceData([]string{"calculator", "unactivated"})
	assert.Equal(t, []string{"calculator"}, data.Toolsets)
	require.Len(t, data.Schemas, 1)
	assert.Equal(t, toolchest.QualifiedName("calculator", "evaluate"), data.Schemas[0].Name)
}
