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

// Package toolchest hosts the registry and dispatcher for callable tools,
// including toolsets sourced dynamically from external tool servers. A
// Bridge owns one Chest for the lifetime of its connection; tools borrow
// the Chest back-reference to reach workspaces and agent state.
package toolchest

import (
	"context"
	"encoding/json"
)

// Tool is one callable function within a Toolset. Name is the bare
// function name, never the fully-qualified "<toolset><sep><function>"
// form — qualification happens in the Registry, not in the Tool itself.
type Tool interface {
	Name() string
	Description() string
	InputSchema() *JSONSchema
	Execute(ctx context.Context, params map[string]interface{}) (*Result, error)
}

// Result is the outcome of one tool invocation.
type Result struct {
	Success bool
	Data    interface{}
	Error   *Error
}

// Error is structured failure information inside a Result. It is distinct
// from the Go error returned by Execute: Execute's error return is for
// exceptional failures the chest converts to the "Important! ..." wrapper;
// Error is for a tool reporting its own domain-level failure while still
// succeeding as a call (the equivalent of a caught exception it wants to
// hand back verbatim).
type Error struct {
	Code    string
	Message string
}

// JSONSchema is the JSON Schema subset used to describe tool parameters.
// Object schemas always marshal an explicit "properties": {} rather than
// omitting it, matching the shape every vendor's tool-call validator
// expects.
type JSONSchema struct {
	Type        string                 `json:"type"`
	Description string                 `json:"description,omitempty"`
	Properties  map[string]*JSONSchema `json:"properties,omitempty"`
	Required    []string               `json:"required,omitempty"`
	Items       *JSONSchema            `json:"items,omitempty"`
	Enum        []interface{}          `json:"enum,omitempty"`
	Default     interface{}            `json:"default,omitempty"`
}

// MarshalJSON forces "properties" to serialize as {} rather than being
// omitted for object-typed schemas with no declared properties.
func (s *JSONSchema) MarshalJSON() ([]byte, error) {
	type alias JSONSchema
	if s.Type == "object" && len(s.Properties) == 0 {
		out := map[string]interface{}{"type": s.Type}
		if s.Description != "" {
			out["description"] = s.Description
		}
		out["properties"] = map[string]*JSONSchema{}
		if len(s.Required) > 0 {
			out["required"] = s.Required
		}
		return json.Marshal(out)
	}
	return json.Marshal((*alias)(s))
}

// NewObjectSchema builds an object schema with the given properties.
func NewObjectSchema(description string, properties map[string]*JSONSchema, required []string) *JSONSchema {
	return &JSONSchema{Type: "object", Description: description, Properties: properties, Required: required}
}

// NewStringSchema builds a string schema.
func NewStringSchema(description string) *JSONSchema {
	return &JSONSchema{Type: "string", Description: description}
}

// NewNumberSchema builds a number schema.
func NewNumberSchema(description string) *JSONSchema {
	return &JSONSchema{Type: "number", Description: description}
}

// Toolset is a named bundle of related Tools, activated as a unit.
type Toolset interface {
	Name() string
	Tools() []Tool
}

// StaticToolset is a Toolset backed by a fixed, in-memory tool list — the
// shape builtin toolsets (calculator, and the command/mcp adapters) use.
type StaticToolset struct {
	name  string
	tools []Tool
}

// NewStaticToolset builds a Toolset from a fixed tool list.
func NewStaticToolset(name string, tools ...Tool) *StaticToolset {
	return &StaticToolset{name: name, tools: tools}
}

func (s *StaticToolset) Name() string  { return s.name }
func (s *StaticToolset) Tools() []Tool { return s.tools }
