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
package agentconfig

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSynthesizeUID_StableForSameText(t *testing.T) {
	a := SynthesizeUID("name: My Agent\nmodel_id: gpt-4.1\n")
	b := SynthesizeUID("name: My Agent\nmodel_id: gpt-4.1\n")
	assert.Equal(t, a, b)
	assert.Len(t, a, 16)
}

func TestSynthesizeUID_DiffersForDifferentText(t *testing.T) {
	a := SynthesizeUID("name: My Agent\n")
	b := SynthesizeUID("name: Other Agent\n")
	assert.NotEqual(t, a, b)
}

func TestSnakeCase(t *testing.T) {
	cases := map[string]string{
		"My Agent":        "my_agent",
		"  Leading Space":  "leading_space",
		"Already_snake":    "already_snake",
		"multi   space":    "multi_space",
		"hyphen-ated Name": "hyphen_ated_name",
		"Trailing ":        "trailing",
	}
	for in, want := range cases {
		assert.Equal(t, want, snakeCase(in), "input %q", in)
	}
}

func TestInferParamsType(t *testing.T) {
	assert.Equal(t, KindClaudeReasoning, inferParamsType("claude-opus-4-20250101"))
	assert.Equal(t, KindClaudeNonReasoning, inferParamsType("claude-3-5-sonnet-20241022"))
	assert.Equal(t, KindGPTReasoning, inferParamsType("o3-mini"))
	assert.Equal(t, KindGPTNonReasoning, inferParamsType("gpt-4.1"))
}

func TestMigrateRaw_V1WithoutKeyDerivesFromName(t *testing.T) {
	raw := rawFile{Name: "My Agent", ModelID: "claude-3-5-sonnet-20241022"}
	cfg, migrated := migrateRaw(raw, "name: My Agent\nmodel_id: claude-3-5-sonnet-20241022\n")

	assert.True(t, migrated)
	assert.Equal(t, "my_agent", cfg.Key)
	assert.Equal(t, []string{"domo", "outdated"}, cfg.Category)
	assert.Equal(t, CurrentVersion, cfg.Version)
	assert.NotEmpty(t, cfg.UID)
}

func TestMigrateRaw_ExplicitUIDIsPreserved(t *testing.T) {
	raw := rawFile{Name: "My Agent", ModelID: "gpt-4.1", UID: "explicit-uid"}
	cfg, _ := migrateRaw(raw, "irrelevant text")
	assert.Equal(t, "explicit-uid", cfg.UID)
}

func TestMigrateRaw_V2FileIsNotFlaggedMigrated(t *testing.T) {
	v2 := 2
	raw := rawFile{Version: &v2, Key: "already_v2", Name: "Already V2", ModelID: "gpt-4.1", Category: []string{"staffed"}}
	cfg, migrated := migrateRaw(raw, "text")

	assert.False(t, migrated)
	assert.Equal(t, "already_v2", cfg.Key)
	assert.Equal(t, []string{"staffed"}, cfg.Category)
}

func TestMigrateRaw_InfersAgentParamsTypeWhenAbsent(t *testing.T) {
	raw := rawFile{Name: "My Agent", ModelID: "claude-opus-4-20250101"}
	cfg, _ := migrateRaw(raw, "text")
	assert.Equal(t, KindClaudeReasoning, cfg.AgentParams.Type)
	assert.Equal(t, "claude-opus-4-20250101", cfg.AgentParams.ModelName)
}

func TestAgentConfiguration_ValidateRejectsVersionNewerThanCurrent(t *testing.T) {
	cfg := AgentConfiguration{Name: "x", ModelID: "gpt-4.1", Version: CurrentVersion + 1}
	err := cfg.Validate()
	assert.Error(t, err)
}

func TestAgentConfiguration_ValidateRequiresNameAndModelID(t *testing.T) {
	assert.Error(t, (AgentConfiguration{ModelID: "gpt-4.1"}).Validate())
	assert.Error(t, (AgentConfiguration{Name: "x"}).Validate())
}

func TestAgentParams_Validate(t *testing.T) {
	assert.NoError(t, AgentParams{Type: KindClaudeReasoning, ReasoningEffort: "high"}.Validate())
	assert.Error(t, AgentParams{Type: KindClaudeReasoning, ReasoningEffort: "extreme"}.Validate())
	assert.NoError(t, AgentParams{Type: KindGPTReasoning, ReasoningEffort: 5}.Validate())
	assert.Error(t, AgentParams{Type: KindGPTReasoning, ReasoningEffort: 11}.Validate())
	assert.Error(t, AgentParams{Type: KindClaudeNonReasoning, ReasoningEffort: "high"}.Validate())
	assert.Error(t, AgentParams{Type: "bogus"}.Validate())
}

func TestAgentConfiguration_DuplicateDoesNotShareSlices(t *testing.T) {
	cfg := AgentConfiguration{
		Name: "x", ModelID: "gpt-4.1",
		Tools:    []string{"a"},
		Category: []string{"b"},
	}
	dup := cfg.Duplicate()
	dup.Tools[0] = "mutated"
	dup.Category[0] = "mutated"

	assert.Equal(t, "a", cfg.Tools[0])
	assert.Equal(t, "b", cfg.Category[0])
}
