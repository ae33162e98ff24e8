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

import (
	"fmt"
	"strings"

	"github.com/teradata-labs/agentrt/pkg/agentconfig"
)

// VendorBuilders maps a model-ID prefix to a constructor; RuntimeForAgent
// never imports a vendor package directly so pkg/llm stays free of AWS/HTTP
// dependencies pulled in only by individual vendors. A binary wires the
// vendors it supports by populating this map at startup (see cmd/agentrtd).
type VendorBuilders map[string]func(cfg agentconfig.AgentConfiguration) (StreamingProvider, error)

// RuntimeForAgent hides which vendor backs an agent's model_id behind one
// factory call, so the Agent Runtime never branches on vendor identity
// itself (spec §9's "runtime_for_agent(cfg)" design note).
func RuntimeForAgent(cfg agentconfig.AgentConfiguration, builders VendorBuilders) (StreamingProvider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("llm: invalid agent configuration: %w", err)
	}
	for prefix, build := range builders {
		if strings.HasPrefix(cfg.ModelID, prefix) {
			return build(cfg)
		}
	}
	return nil, fmt.Errorf("llm: no provider registered for model_id %q", cfg.ModelID)
}
