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
package toolchest

import (
	"context"
	"sync"

	"github.com/teradata-labs/agentrt/pkg/chat"
)

// DispatchBatch calls every tool call in calls concurrently and returns
// the tool results in the same order as calls, regardless of which call
// finishes first — the Agent Runtime appends tool messages in arrival
// order of the launch list, not completion order (spec's concurrency
// model for one tool-call batch).
func (c *Chest) DispatchBatch(ctx context.Context, calls []chat.ToolCall) []chat.ToolResult {
	results := make([]chat.ToolResult, len(calls))
	var wg sync.WaitGroup
	for i, call := range calls {
		wg.Add(1)
		go func(i int, call chat.ToolCall) {
			defer wg.Done()
			content := c.CallTool(ctx, call.Name, []byte(call.Arguments))
			results[i] = chat.ToolResult{ToolCallID: call.ID, Content: content}
		}(i, call)
	}
	wg.Wait()
	return results
}
