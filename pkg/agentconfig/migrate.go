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
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// rawFile mirrors the on-disk YAML shape loosely: every field is optional
// because a v1 file may be missing version/uid/key/category entirely, and
// we need to distinguish "absent" from "zero value" before deciding what to
// synthesize.
type rawFile struct {
	Version          *int                   `yaml:"version"`
	Key              string                 `yaml:"key"`
	Name             string                 `yaml:"name"`
	UID              string                 `yaml:"uid"`
	ModelID          string                 `yaml:"model_id"`
	AgentDescription string                 `yaml:"agent_description"`
	Persona          string                 `yaml:"persona"`
	Tools            []string               `yaml:"tools"`
	AgentParams      AgentParams            `yaml:"agent_params"`
	PromptMetadata   map[string]interface{} `yaml:"prompt_metadata"`
	Category         []string               `yaml:"category"`
}

// SynthesizeUID derives a stable id from the file's raw text. The same file
// content always yields the same uid, which is what makes a reload
// idempotent (spec §8 invariant 6).
func SynthesizeUID(fileText string) string {
	sum := sha256.Sum256([]byte(fileText))
	return hex.EncodeToString(sum[:])[:16]
}

// snakeCase trims and lowercases, then collapses each run of spaces,
// hyphens, and underscores into one underscore (leading and trailing ones
// dropped), the transform the migration applies to Name to produce Key.
func snakeCase(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	prevUnderscore := false
	for _, r := range s {
		switch {
		case r == ' ' || r == '-' || r == '_':
			if !prevUnderscore && b.Len() > 0 {
				b.WriteByte('_')
				prevUnderscore = true
			}
		default:
			b.WriteRune(r)
			prevUnderscore = false
		}
	}
	return strings.TrimSuffix(b.String(), "_")
}

// claudeReasoningModels/gptReasoningModels classify a model_id for the
// agent_params.type inference the loader performs when the field is
// absent (spec §4.6 step 3 / §9 provider-differences note).
var claudeReasoningModels = []string{"claude-opus-4", "claude-sonnet-4", "claude-3-7"}
var gptReasoningModels = []string{"o1", "o3", "o4", "gpt-5"}

// inferParamsType guesses an AgentParams.Type from a model_id when the
// loaded file left agent_params.type absent.
func inferParamsType(modelID string) ParamsKind {
	lower := strings.ToLower(modelID)
	switch {
	case containsAny(lower, claudeReasoningModels):
		return KindClaudeReasoning
	case strings.Contains(lower, "claude"):
		return KindClaudeNonReasoning
	case containsAny(lower, gptReasoningModels):
		return KindGPTReasoning
	default:
		return KindGPTNonReasoning
	}
}

func containsAny(s string, substrs []string) bool {
	for _, sub := range substrs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// MigrationRecord describes one file's upgrade from v1 to v2, kept in the
// loader's migration report.
type MigrationRecord struct {
	Path        string
	Key         string
	FromVersion int
	ToVersion   int
}

// migrateRaw converts a parsed rawFile into a current-version
// AgentConfiguration, performing the v1->v2 migration in place when
// version is absent or 1. It is idempotent: running it twice on an
// already-v2 file is a no-op beyond re-deriving agent_params.type when
// absent.
func migrateRaw(raw rawFile, fileText string) (cfg AgentConfiguration, migrated bool) {
	version := 1
	if raw.Version != nil {
		version = *raw.Version
	}

	uid := raw.UID
	if uid == "" {
		uid = SynthesizeUID(fileText)
	}

	params := raw.AgentParams
	params.ModelName = raw.ModelID
	if params.Type == "" {
		params.Type = inferParamsType(raw.ModelID)
	}

	cfg = AgentConfiguration{
		Version:          version,
		Key:              raw.Key,
		Name:             raw.Name,
		UID:              uid,
		ModelID:          raw.ModelID,
		AgentDescription: raw.AgentDescription,
		Persona:          raw.Persona,
		Tools:            raw.Tools,
		AgentParams:      params,
		PromptMetadata:   raw.PromptMetadata,
		Category:         raw.Category,
	}

	if version < CurrentVersion {
		if cfg.Key == "" {
			cfg.Key = snakeCase(cfg.Name)
		}
		if len(cfg.Category) == 0 {
			cfg.Category = []string{"domo", "outdated"}
		}
		cfg.Version = CurrentVersion
		migrated = true
	}

	return cfg, migrated
}
