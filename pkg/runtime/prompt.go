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
package runtime

import "context"

// PromptContext is the merged context a PromptBuilder renders against: the
// caller's tool_call_context plus the runtime-derived agent/tool_chest
// entries, per step 1 of the chat() algorithm.
type PromptContext map[string]interface{}

// PromptBuilder renders the final system prompt from a PromptContext and
// the tool sections the Bridge assembled for the active agent. A nil
// PromptBuilder is valid: chat() then proceeds with no system prompt.
type PromptBuilder interface {
	Render(ctx context.Context, promptContext PromptContext, toolSections []string) (string, error)
}
