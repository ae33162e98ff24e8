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

	"github.com/teradata-labs/agentrt/pkg/prompts"
	"github.com/teradata-labs/agentrt/pkg/runtime"
)

// PromptRegistrySection renders a managed, possibly A/B-tested prompt
// fragment (an editorial addendum, a compliance notice, a seasonal
// promotion) looked up by Key from an externally managed prompts.Registry.
// A lookup miss contributes nothing rather than failing the render: these
// fragments are supplemental, never load-bearing for the agent's core
// persona.
type PromptRegistrySection struct {
	Registry prompts.PromptRegistry
	Key      string
}

func (s PromptRegistrySection) Name() string { return "registry:" + s.Key }

func (s PromptRegistrySection) Render(ctx context.Context, promptContext runtime.PromptContext) (string, error) {
	if s.Registry == nil || s.Key == "" {
		return "", nil
	}

	vars := map[string]interface{}(promptContext)
	if sessionID, ok := promptContext["session_id"].(string); ok && sessionID != "" {
		ctx = prompts.WithSessionID(ctx, sessionID)
	}

	content, err := s.Registry.Get(ctx, s.Key, vars)
	if err != nil {
		// Unmanaged/missing keys are expected for agents that never opted
		// into a registry fragment; treat any lookup failure as "nothing
		// to contribute" rather than failing the whole render.
		return "", nil
	}
	return content, nil
}

var _ Section = PromptRegistrySection{}
