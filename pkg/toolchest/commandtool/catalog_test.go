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
package commandtool

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teradata-labs/agentrt/pkg/toolchest"
)

func TestBuildCatalog_WrapsEveryLoadedPolicyAsATool(t *testing.T) {
	dir := t.TempDir()
	writePolicyFile(t, dir, "echo.yaml", "flags:\n  - -n\n")
	writePolicyFile(t, dir, "ls.yaml", "flags:\n  - --all\n")

	catalog, err := BuildCatalog(dir, nil)
	require.NoError(t, err)

	toolset, ok := catalog["commands"]
	require.True(t, ok)
	names := make(map[string]bool)
	for _, tool := range toolset.(*toolchest.StaticToolset).Tools() {
		names[tool.Name()] = true
	}
	assert.True(t, names["echo"])
	assert.True(t, names["ls"])
}
