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
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const v1AgentYAML = `
name: "My Agent"
model_id: "claude-3-5-sonnet-20241022"
persona: "a helpful agent"
`

func writeAgentFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoader_V1FileMigratesToV2OnLoad(t *testing.T) {
	dir := t.TempDir()
	writeAgentFile(t, dir, "my_agent.yaml", v1AgentYAML)

	l, err := NewLoader(dir, nil)
	require.NoError(t, err)

	cfg, ok := l.Get("my_agent")
	require.True(t, ok)
	assert.Equal(t, CurrentVersion, cfg.Version)
	assert.Equal(t, "my_agent", cfg.Key)
	assert.Equal(t, []string{"domo", "outdated"}, cfg.Category)
	assert.NotEmpty(t, cfg.UID)

	report := l.GetMigrationReport()
	require.Len(t, report, 1)
	assert.Equal(t, "my_agent", report[0].Key)
	assert.Equal(t, 1, report[0].FromVersion)
	assert.Equal(t, CurrentVersion, report[0].ToVersion)
}

func TestLoader_UIDStableAcrossReloads(t *testing.T) {
	dir := t.TempDir()
	writeAgentFile(t, dir, "my_agent.yaml", v1AgentYAML)

	l, err := NewLoader(dir, nil)
	require.NoError(t, err)
	first, ok := l.Get("my_agent")
	require.True(t, ok)

	require.NoError(t, l.Reload())
	second, ok := l.Get("my_agent")
	require.True(t, ok)

	assert.Equal(t, first.UID, second.UID)
}

func TestLoader_VersionNewerThanCurrentIsRejectedAtLoad(t *testing.T) {
	dir := t.TempDir()
	writeAgentFile(t, dir, "future_agent.yaml", `
version: 99
name: "Future Agent"
model_id: "claude-3-5-sonnet-20241022"
`)

	l, err := NewLoader(dir, nil)
	require.NoError(t, err)

	// loadFile's Validate() rejection means the file is skipped, not
	// installed into the catalog and not reported as migrated.
	_, ok := l.Get("future_agent")
	assert.False(t, ok)
	assert.Empty(t, l.GetMigrationReport())
}

func TestLoader_MissingRequiredFieldIsSkippedNotFatal(t *testing.T) {
	dir := t.TempDir()
	writeAgentFile(t, dir, "bad.yaml", `name: "No Model"`)
	writeAgentFile(t, dir, "good.yaml", v1AgentYAML)

	l, err := NewLoader(dir, nil)
	require.NoError(t, err)

	assert.Len(t, l.Catalog(), 1)
	_, ok := l.Get("my_agent")
	assert.True(t, ok)
}

func TestLoader_AlreadyV2FileIsNotReportedAsMigrated(t *testing.T) {
	dir := t.TempDir()
	writeAgentFile(t, dir, "v2_agent.yaml", `
version: 2
key: "v2_agent"
uid: "fixed-uid-123"
name: "V2 Agent"
model_id: "claude-3-5-sonnet-20241022"
category: ["staffed"]
`)

	l, err := NewLoader(dir, nil)
	require.NoError(t, err)

	cfg, ok := l.Get("v2_agent")
	require.True(t, ok)
	assert.Equal(t, "fixed-uid-123", cfg.UID)
	assert.Equal(t, []string{"staffed"}, cfg.Category)
	assert.Empty(t, l.GetMigrationReport())
}

func TestLoader_AddAgentConfigInstallsWithoutTouchingDisk(t *testing.T) {
	dir := t.TempDir()
	l, err := NewLoader(dir, nil)
	require.NoError(t, err)

	cfg := AgentConfiguration{
		Version: CurrentVersion,
		Key:     "programmatic",
		Name:    "Programmatic Agent",
		ModelID: "gpt-4.1",
	}
	require.NoError(t, l.AddAgentConfig(cfg))

	got, ok := l.Get("programmatic")
	require.True(t, ok)
	assert.Equal(t, "Programmatic Agent", got.Name)

	entries, _ := os.ReadDir(dir)
	assert.Empty(t, entries)
}

func TestLoader_DuplicateReturnsIndependentCopy(t *testing.T) {
	dir := t.TempDir()
	writeAgentFile(t, dir, "my_agent.yaml", v1AgentYAML)

	l, err := NewLoader(dir, nil)
	require.NoError(t, err)

	dup, err := l.Duplicate("my_agent")
	require.NoError(t, err)
	dup.Tools = append(dup.Tools, "mutated")

	original, ok := l.Get("my_agent")
	require.True(t, ok)
	assert.NotContains(t, original.Tools, "mutated")
}

func TestLoader_DuplicateUnknownKeyErrors(t *testing.T) {
	l, err := NewLoader(t.TempDir(), nil)
	require.NoError(t, err)

	_, err = l.Duplicate("ghost")
	assert.Error(t, err)
}

func TestLoader_ClientCatalogSortedByName(t *testing.T) {
	dir := t.TempDir()
	writeAgentFile(t, dir, "b.yaml", `
name: "Beta Agent"
model_id: "gpt-4.1"
`)
	writeAgentFile(t, dir, "a.yaml", `
name: "Alpha Agent"
model_id: "gpt-4.1"
`)

	l, err := NewLoader(dir, nil)
	require.NoError(t, err)

	list := l.ClientCatalog()
	require.Len(t, list, 2)
	assert.Equal(t, "Alpha Agent", list[0].Name)
	assert.Equal(t, "Beta Agent", list[1].Name)
}

func TestLoader_AgentNamesReturnsSortedKeys(t *testing.T) {
	dir := t.TempDir()
	writeAgentFile(t, dir, "b.yaml", `
name: "Beta Agent"
model_id: "gpt-4.1"
`)
	writeAgentFile(t, dir, "a.yaml", `
name: "Alpha Agent"
model_id: "gpt-4.1"
`)

	l, err := NewLoader(dir, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"alpha_agent", "beta_agent"}, l.AgentNames())
}

func TestLoader_SaveMigratedConfigsRewritesFileAndBacksUpOriginal(t *testing.T) {
	dir := t.TempDir()
	path := writeAgentFile(t, dir, "my_agent.yaml", v1AgentYAML)
	backupDir := filepath.Join(dir, "backup")

	l, err := NewLoader(dir, nil)
	require.NoError(t, err)
	require.NoError(t, l.SaveMigratedConfigs(backupDir))

	rewritten, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(rewritten), "version: 2")

	backup, err := os.ReadFile(filepath.Join(backupDir, "my_agent.yaml.bak"))
	require.NoError(t, err)
	assert.Equal(t, v1AgentYAML, string(backup))
}
