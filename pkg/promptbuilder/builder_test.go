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
package promptbuilder

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teradata-labs/agentrt/pkg/agentconfig"
	"github.com/teradata-labs/agentrt/pkg/runtime"
)

func agentCtx(cfg *agentconfig.AgentConfiguration) runtime.PromptContext {
	return runtime.PromptContext{"agent": cfg}
}

func TestBuilder_PersonaOnly(t *testing.T) {
	b := New()
	cfg := &agentconfig.AgentConfiguration{Persona: "You are a helpful assistant."}
	out, err := b.Render(context.Background(), agentCtx(cfg), nil)
	require.NoError(t, err)
	assert.Equal(t, "You are a helpful assistant.", out)
}

func TestBuilder_ThinkProtocolPrependedWhenToolEquipped(t *testing.T) {
	b := New()
	cfg := &agentconfig.AgentConfiguration{Persona: "Persona text."}
	out, err := b.Render(context.Background(), agentCtx(cfg), []string{"think", "calculator"})
	require.NoError(t, err)
	assert.Contains(t, out, "think tool")
	assert.True(t, indexOf(out, "think tool") < indexOf(out, "Persona text."))
}

func TestBuilder_NoThinkToolset(t *testing.T) {
	b := New()
	cfg := &agentconfig.AgentConfiguration{Persona: "Persona text."}
	out, err := b.Render(context.Background(), agentCtx(cfg), []string{"calculator"})
	require.NoError(t, err)
	assert.Equal(t, "Persona text.", out)
}

func TestBuilder_NoAgentInContext(t *testing.T) {
	b := New()
	out, err := b.Render(context.Background(), runtime.PromptContext{}, nil)
	require.NoError(t, err)
	assert.Equal(t, "", out)
}

func TestMetadataSection(t *testing.T) {
	b := New(MetadataSection{Key: "closing_note"})
	cfg := &agentconfig.AgentConfiguration{
		Persona:        "Persona text.",
		PromptMetadata: map[string]interface{}{"closing_note": "Always cite sources."},
	}
	out, err := b.Render(context.Background(), agentCtx(cfg), nil)
	require.NoError(t, err)
	assert.Contains(t, out, "Always cite sources.")
}

func indexOf(s, substr string) int {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return i
		}
	}
	return -1
}
