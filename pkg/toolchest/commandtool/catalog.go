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
	"go.uber.org/zap"

	"github.com/teradata-labs/agentrt/pkg/toolchest"
)

// BuildCatalog loads every policy file in policyDir and returns a single
// "commands" toolset with one Tool per successfully loaded policy,
// matching the spec's "skipped with a warning, not fatal" rule for
// policies that fail to build.
func BuildCatalog(policyDir string, logger *zap.Logger) (toolchest.MapCatalog, error) {
	policies, err := LoadPolicies(policyDir, logger)
	if err != nil {
		return nil, err
	}
	tools := make([]toolchest.Tool, 0, len(policies))
	for _, policy := range policies {
		tools = append(tools, NewTool(policy))
	}
	return toolchest.MapCatalog{
		"commands": toolchest.NewStaticToolset("commands", tools...),
	}, nil
}
