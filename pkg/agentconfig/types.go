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

// Package agentconfig implements the versioned AgentConfiguration sum type
// and the loader that discovers, migrates, and caches it from YAML files on
// disk.
package agentconfig

import "fmt"

// ParamsKind tags an AgentParams variant. A config's reasoning_effort must
// be validated against its own kind; mixing kinds is a validation error,
// never a best-effort coercion (spec design note on reasoning_effort).
type ParamsKind string

const (
	KindClaudeReasoning    ParamsKind = "claude-reasoning"
	KindClaudeNonReasoning ParamsKind = "claude-non-reasoning"
	KindGPTReasoning       ParamsKind = "gpt-reasoning"
	KindGPTNonReasoning    ParamsKind = "gpt-non-reasoning"
)

// AgentParams carries provider-parameter fields tagged by Kind. Only the
// fields relevant to Kind are meaningful; ReasoningEffort is validated
// against Kind by Validate.
type AgentParams struct {
	Type            ParamsKind  `yaml:"type" json:"type"`
	ModelName       string      `yaml:"model_name" json:"model_name"`
	Temperature     *float64    `yaml:"temperature,omitempty" json:"temperature,omitempty"`
	MaxTokens       int         `yaml:"max_tokens,omitempty" json:"max_tokens,omitempty"`
	BudgetTokens    int         `yaml:"budget_tokens,omitempty" json:"budget_tokens,omitempty"`
	ReasoningEffort interface{} `yaml:"reasoning_effort,omitempty" json:"reasoning_effort,omitempty"`
}

// claudeReasoningEfforts are the only string values accepted on a
// claude-reasoning config.
var claudeReasoningEfforts = map[string]bool{"high": true, "medium": true, "low": true}

// Validate rejects a ReasoningEffort whose Go type doesn't match what the
// Kind expects: claude-reasoning wants one of "high"/"medium"/"low";
// gpt-reasoning wants an integer 0..10; non-reasoning kinds must leave it
// unset.
func (p AgentParams) Validate() error {
	switch p.Type {
	case KindClaudeReasoning:
		if p.ReasoningEffort == nil {
			return nil
		}
		s, ok := p.ReasoningEffort.(string)
		if !ok || !claudeReasoningEfforts[s] {
			return fmt.Errorf("agentconfig: claude-reasoning agent_params.reasoning_effort must be one of high/medium/low, got %v", p.ReasoningEffort)
		}
	case KindGPTReasoning:
		if p.ReasoningEffort == nil {
			return nil
		}
		n, ok := asInt(p.ReasoningEffort)
		if !ok || n < 0 || n > 10 {
			return fmt.Errorf("agentconfig: gpt-reasoning agent_params.reasoning_effort must be an integer 0..10, got %v", p.ReasoningEffort)
		}
	case KindClaudeNonReasoning, KindGPTNonReasoning:
		if p.ReasoningEffort != nil {
			return fmt.Errorf("agentconfig: agent_params.reasoning_effort is not valid for kind %q", p.Type)
		}
	default:
		return fmt.Errorf("agentconfig: unknown agent_params.type %q", p.Type)
	}
	return nil
}

func asInt(v interface{}) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}

// AgentConfiguration is the current (v2) shape of an agent's configuration,
// embedded by ChatSession. Version v1 configs are migrated to this shape by
// migrateRaw before they are ever handed to the runtime.
type AgentConfiguration struct {
	Version          int                    `yaml:"version" json:"version"`
	Key              string                 `yaml:"key" json:"key"`
	Name             string                 `yaml:"name" json:"name"`
	UID              string                 `yaml:"uid" json:"uid"`
	ModelID          string                 `yaml:"model_id" json:"model_id"`
	AgentDescription string                 `yaml:"agent_description,omitempty" json:"agent_description,omitempty"`
	Persona          string                 `yaml:"persona" json:"persona"`
	Tools            []string               `yaml:"tools" json:"tools"`
	AgentParams      AgentParams            `yaml:"agent_params" json:"agent_params"`
	PromptMetadata   map[string]interface{} `yaml:"prompt_metadata,omitempty" json:"prompt_metadata,omitempty"`
	Category         []string               `yaml:"category,omitempty" json:"category,omitempty"`

	// sourcePath records the file this configuration was loaded from, used
	// by SaveMigratedConfigs; empty for in-memory/duplicated configs.
	sourcePath string
}

// CurrentVersion is the AgentConfiguration schema version the runtime
// consumes; files below it are migrated in place on load.
const CurrentVersion = 2

// Validate checks cross-field invariants beyond what YAML unmarshaling
// enforces.
func (c AgentConfiguration) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("agentconfig: name is required")
	}
	if c.ModelID == "" {
		return fmt.Errorf("agentconfig: model_id is required")
	}
	if c.Version > CurrentVersion {
		return fmt.Errorf("agentconfig: version %d is newer than supported version %d", c.Version, CurrentVersion)
	}
	return c.AgentParams.Validate()
}

// Duplicate returns a deep-enough copy suitable for installing on a new
// session (set_agent / duplicate(key) operations never share the Tools or
// Category slices with the catalog entry).
func (c AgentConfiguration) Duplicate() AgentConfiguration {
	dup := c
	dup.Tools = append([]string(nil), c.Tools...)
	dup.Category = append([]string(nil), c.Category...)
	if c.PromptMetadata != nil {
		dup.PromptMetadata = make(map[string]interface{}, len(c.PromptMetadata))
		for k, v := range c.PromptMetadata {
			dup.PromptMetadata[k] = v
		}
	}
	return dup
}
