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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeToolName_ReplacesColonWithUnderscore(t *testing.T) {
	assert.Equal(t, "calculator_evaluate", SanitizeToolName("calculator:evaluate"))
	assert.Equal(t, "no_colon", SanitizeToolName("no_colon"))
}

func TestReverseToolName_RoundTripsThroughNameMap(t *testing.T) {
	original := "calculator:evaluate"
	sanitized := SanitizeToolName(original)

	nameMap := map[string]string{sanitized: original}
	assert.Equal(t, original, ReverseToolName(nameMap, sanitized))
}

func TestReverseToolName_FallsBackToSanitizedWhenUnmapped(t *testing.T) {
	assert.Equal(t, "hallucinated_tool", ReverseToolName(map[string]string{}, "hallucinated_tool"))
}
