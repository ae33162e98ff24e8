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

// Package promptbuilder implements runtime.PromptBuilder: a system prompt
// assembled from an ordered list of sections, each rendering a block of
// text from the merged prompt context (spec §4.1 step 4, §4.2 step 1).
package promptbuilder

import (
	"context"
	"strings"

	"github.com/teradata-labs/agentrt/pkg/agentconfig"
	"github.com/teradata-labs/agentrt/pkg/runtime"
)

// Section produces one block of the final system prompt. An empty return
// with a nil error means the section contributes nothing for this render
// (e.g. a think-protocol section when no "think" toolset is active).
type Section interface {
	Name() string
	Render(ctx context.Context, promptContext runtime.PromptContext) (string, error)
}

// AgentFromContext extracts the active *agentconfig.AgentConfiguration the
// Bridge installed under the "agent" key, per step 1 of chat()'s context
// render. Returns nil if absent or of an unexpected type.
func AgentFromContext(promptContext runtime.PromptContext) *agentconfig.AgentConfiguration {
	raw, ok := promptContext["agent"]
	if !ok {
		return nil
	}
	cfg, ok := raw.(*agentconfig.AgentConfiguration)
	if !ok {
		return nil
	}
	return cfg
}

// PersonaSection renders the agent's configured persona text verbatim.
type PersonaSection struct{}

func (PersonaSection) Name() string { return "persona" }

func (PersonaSection) Render(ctx context.Context, promptContext runtime.PromptContext) (string, error) {
	cfg := AgentFromContext(promptContext)
	if cfg == nil {
		return "", nil
	}
	return strings.TrimSpace(cfg.Persona), nil
}

// thinkToolsetNames are the toolset names whose presence in the rendered
// tool sections triggers the think-protocol section (spec §4.1 step 4:
// "if a 'think' toolset is equipped, a think-protocol section is
// prepended").
var thinkToolsetNames = map[string]bool{
	"think": true,
}

// ThinkProtocolSection instructs the model to use an explicit scratch-pad
// step before answering, prepended only when a "think" toolset is
// equipped on the turn's tool sections.
type ThinkProtocolSection struct{}

func (ThinkProtocolSection) Name() string { return "think_protocol" }

const thinkProtocolText = `Before producing your final answer, use the think tool to record your ` +
	`reasoning as a private scratch-pad step. Do not show this reasoning to the user directly; ` +
	`only the think tool call itself carries it.`

func (ThinkProtocolSection) Render(ctx context.Context, promptContext runtime.PromptContext) (string, error) {
	sections, _ := promptContext["tool_sections"].([]string)
	for _, s := range sections {
		if thinkToolsetNames[s] {
			return thinkProtocolText, nil
		}
	}
	return "", nil
}

// MetadataSection renders free-form text the agent's prompt_metadata
// supplies under a fixed key, letting an agent config attach bespoke
// prompt content without a bespoke Section implementation.
type MetadataSection struct {
	Key string
}

func (s MetadataSection) Name() string { return "metadata:" + s.Key }

func (s MetadataSection) Render(ctx context.Context, promptContext runtime.PromptContext) (string, error) {
	cfg := AgentFromContext(promptContext)
	if cfg == nil || cfg.PromptMetadata == nil {
		return "", nil
	}
	v, ok := cfg.PromptMetadata[s.Key]
	if !ok {
		return "", nil
	}
	text, _ := v.(string)
	return strings.TrimSpace(text), nil
}
