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
package builtin

import "github.com/teradata-labs/agentrt/pkg/toolchest"

// Catalog returns every built-in toolset keyed by name, ready to merge
// into a toolchest.MapCatalog alongside configured external toolsets.
func Catalog() toolchest.MapCatalog {
	return toolchest.MapCatalog{
		"calculator": NewCalculator(),
	}
}
