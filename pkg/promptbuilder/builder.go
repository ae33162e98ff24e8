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
	"fmt"
	"strings"

	"github.com/teradata-labs/agentrt/pkg/runtime"
)

// Builder renders the system prompt by concatenating each of its sections'
// non-empty output, in order, separated by a blank line. It satisfies
// runtime.PromptBuilder.
type Builder struct {
	sections []Section
}

// New constructs a Builder with the default section order: a
// conditionally-present think-protocol section first, then persona
// (spec §4.1 step 4: "defaults: a persona section; if a 'think' toolset
// is equipped, a think-protocol section is prepended").
func New(extra ...Section) *Builder {
	sections := append([]Section{ThinkProtocolSection{}, PersonaSection{}}, extra...)
	return &Builder{sections: sections}
}

// WithSections replaces the default section list entirely, for callers
// that want full control over composition.
func WithSections(sections ...Section) *Builder {
	return &Builder{sections: sections}
}

func (b *Builder) Render(ctx context.Context, promptContext runtime.PromptContext, toolSections []string) (string, error) {
	merged := make(runtime.PromptContext, len(promptContext)+1)
	for k, v := range promptContext {
		merged[k] = v
	}
	merged["tool_sections"] = toolSections

	var parts []string
	for _, section := range b.sections {
		text, err := section.Render(ctx, merged)
		if err != nil {
			return "", fmt.Errorf("promptbuilder: section %s: %w", section.Name(), err)
		}
		text = strings.TrimSpace(text)
		if text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, "\n\n"), nil
}

var _ runtime.PromptBuilder = (*Builder)(nil)
