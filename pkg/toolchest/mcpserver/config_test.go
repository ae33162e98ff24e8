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
package mcpserver

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServerConfig_IsStdio(t *testing.T) {
	assert.True(t, ServerConfig{Command: "my-server"}.IsStdio())
	assert.False(t, ServerConfig{URL: "https://example.com/mcp"}.IsStdio())
}

func TestServerConfig_ParseTimeoutDefaults(t *testing.T) {
	assert.Equal(t, 30*time.Second, ServerConfig{}.ParseTimeout())
	assert.Equal(t, 30*time.Second, ServerConfig{Timeout: "not-a-duration"}.ParseTimeout())
	assert.Equal(t, 5*time.Second, ServerConfig{Timeout: "5s"}.ParseTimeout())
}

func TestLoadConfig_InterpolatesEnvironmentReferences(t *testing.T) {
	t.Setenv("MCP_TEST_TOKEN", "secret-token")
	t.Setenv("MCP_TEST_ARG", "arg-value")

	dir := t.TempDir()
	path := filepath.Join(dir, "servers.yaml")
	content := "" +
		"servers:\n" +
		"  weather:\n" +
		"    command: \"run-${MCP_TEST_ARG}\"\n" +
		"    args: [\"--flag=$MCP_TEST_ARG\"]\n" +
		"    env:\n" +
		"      TOKEN: \"${MCP_TEST_TOKEN}\"\n" +
		"    url: \"https://example.com/${MCP_TEST_ARG}\"\n" +
		"    headers:\n" +
		"      Authorization: \"Bearer ${MCP_TEST_TOKEN}\"\n" +
		"    allow: [\"weather_*\"]\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	server, ok := cfg.Servers["weather"]
	require.True(t, ok)
	assert.Equal(t, "run-arg-value", server.Command)
	assert.Equal(t, "--flag=arg-value", server.Args[0])
	assert.Equal(t, "secret-token", server.Env["TOKEN"])
	assert.Equal(t, "https://example.com/arg-value", server.URL)
	assert.Equal(t, "Bearer secret-token", server.Headers["Authorization"])
}

func TestLoadConfig_MissingFileErrors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestGlobMatch(t *testing.T) {
	cases := []struct {
		pattern, name string
		want          bool
	}{
		{"weather_*", "weather_forecast", true},
		{"weather_*", "traffic_forecast", false},
		{"*_evaluate", "calculator_evaluate", true},
		{"exact", "exact", true},
		{"exact", "exactish", false},
		{"pre*post", "prefix-mid-post", true},
		{"pre*post", "prefix-mid-nope", false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, globMatch(tc.pattern, tc.name), "%s vs %s", tc.pattern, tc.name)
	}
}

func TestAllowed_EmptyPatternListDeniesEverything(t *testing.T) {
	assert.False(t, allowed(nil, "anything"))
	assert.False(t, allowed([]string{}, "anything"))
}

func TestAllowed_MatchesAnyPattern(t *testing.T) {
	patterns := []string{"calculator_*", "weather_forecast"}
	assert.True(t, allowed(patterns, "calculator_evaluate"))
	assert.True(t, allowed(patterns, "weather_forecast"))
	assert.False(t, allowed(patterns, "other_tool"))
}
