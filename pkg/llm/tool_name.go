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
package llm

import "strings"

// SanitizeToolName rewrites a Tool Chest name ("toolset:function") into the
// character set most vendor APIs accept for a tool name
// (Bedrock: ^[a-zA-Z0-9_-]{1,64}$, Azure OpenAI: ^[a-zA-Z0-9_.\-]+$). The
// Tool Chest's separator is a colon, which neither pattern allows, so it is
// rewritten to an underscore; the original is recovered via the per-call
// name map built alongside the outgoing tool schema.
func SanitizeToolName(name string) string {
	return strings.ReplaceAll(name, ":", "_")
}

// ReverseToolName maps a sanitized name back to the Tool Chest name that
// produced it, falling back to the sanitized form itself if the map has no
// entry (e.g. a tool the model hallucinated).
func ReverseToolName(nameMap map[string]string, sanitized string) string {
	if original, ok := nameMap[sanitized]; ok {
		return original
	}
	return sanitized
}
