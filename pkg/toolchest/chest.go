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
package toolchest

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"

	"github.com/teradata-labs/agentrt/pkg/llm"
)

// Separator joins a toolset name and a function name into the qualified
// tool-call name the vendor sees, e.g. "calculator_evaluate". It is fixed
// and never whitespace, so it can never collide with a name a model might
// emit unqualified.
const Separator = "_"

// Catalog supplies toolsets by name — the source every Chest draws from.
// Built-in toolsets, external tool-server toolsets (pkg/toolchest/mcpserver)
// and command-policy toolsets (pkg/toolchest/commandtool) all implement it
// by wrapping a Toolset constructor behind a name lookup.
type Catalog interface {
	Lookup(name string) (Toolset, bool)
}

// MapCatalog is a Catalog backed by a fixed map, the common case for a
// process that registers its built-in and configured toolsets at startup.
type MapCatalog map[string]Toolset

func (c MapCatalog) Lookup(name string) (Toolset, bool) {
	ts, ok := c[name]
	return ts, ok
}

// Chest hosts the set of toolsets active for one Bridge's session and
// dispatches qualified tool calls to the right Tool. It is not safe for
// concurrent mutation of its active set — a Bridge's single cooperative
// task is the only writer (spec's single-threaded-per-Bridge scheduling
// model); concurrent CallTool invocations within one tool-call batch are
// fine, since CallTool itself takes no chest-wide lock beyond the read
// needed to resolve a name.
type Chest struct {
	catalog Catalog

	mu     sync.RWMutex
	active map[string]Toolset // toolset name -> activated Toolset
}

// New builds a Chest drawing toolsets from catalog.
func New(catalog Catalog) *Chest {
	return &Chest{catalog: catalog, active: make(map[string]Toolset)}
}

// ActivateToolset idempotently activates the union of the named toolsets.
// Names the catalog doesn't recognize are reported back in failed rather
// than raised as an error — activation of the rest still proceeds.
func (c *Chest) ActivateToolset(names []string) (failed []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, name := range names {
		if _, ok := c.active[name]; ok {
			continue
		}
		ts, ok := c.catalog.Lookup(name)
		if !ok {
			failed = append(failed, name)
			continue
		}
		c.active[name] = ts
	}
	return failed
}

// DeactivateToolset removes the named toolsets from the active set,
// closing each one that implements io.Closer so external tool-server
// connections are released. Names that aren't active are ignored.
func (c *Chest) DeactivateToolset(names []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, name := range names {
		ts, ok := c.active[name]
		if !ok {
			continue
		}
		if closer, ok := ts.(interface{ Close() error }); ok {
			_ = closer.Close()
		}
		delete(c.active, name)
	}
}

// InitializeToolsets is the per-turn warm-up hook for already-activated
// toolsets (connection refresh, cache priming). Toolsets that want it
// implement the optional Initializer interface; others are left alone.
type Initializer interface {
	Initialize(ctx context.Context) error
}

// InitializeToolsets runs Initialize on every named toolset that is both
// active and an Initializer. A toolset's own initialization error is
// collected rather than aborting the rest.
func (c *Chest) InitializeToolsets(ctx context.Context, names []string) map[string]error {
	c.mu.RLock()
	toInit := make([]Toolset, 0, len(names))
	for _, name := range names {
		if ts, ok := c.active[name]; ok {
			toInit = append(toInit, ts)
		}
	}
	c.mu.RUnlock()

	errs := make(map[string]error)
	for _, ts := range toInit {
		if initer, ok := ts.(Initializer); ok {
			if err := initer.Initialize(ctx); err != nil {
				errs[ts.Name()] = err
			}
		}
	}
	return errs
}

// InferenceData is the provider-shaped tool schema fragment plus the
// resolved toolset list, as returned to the Agent Runtime for one turn.
type InferenceData struct {
	Schemas  []llm.ToolSchema
	Toolsets []string
}

// GetInferenceData resolves the named toolsets (which must already be
// active) into provider-shaped schemas. Parameters are always JSON Schema,
// which every vendor this module wires (Anthropic, OpenAI-compatible,
// Bedrock) takes for tool parameters; there is no other format.
func (c *Chest) GetInferenceData(names []string) InferenceData {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var schemas []llm.ToolSchema
	var resolved []string
	for _, name := range names {
		ts, ok := c.active[name]
		if !ok {
			continue
		}
		resolved = append(resolved, name)
		for _, tool := range ts.Tools() {
			params := map[string]interface{}{}
			if b, err := json.Marshal(tool.InputSchema()); err == nil {
				_ = json.Unmarshal(b, &params)
			}
			schemas = append(schemas, llm.ToolSchema{
				Name:        QualifiedName(ts.Name(), tool.Name()),
				Description: tool.Description(),
				Parameters:  params,
			})
		}
	}
	return InferenceData{Schemas: schemas, Toolsets: resolved}
}

// QualifiedName joins a toolset and function name the way call_tool
// expects to see it come back from the model.
func QualifiedName(toolset, function string) string {
	return toolset + Separator + function
}

// splitQualifiedName reverses QualifiedName by splitting on the first
// occurrence of the separator. Toolset names that contain the separator
// are not supported, and nothing rejects them when they are registered or
// activated; such a name is split at its own separator.
func splitQualifiedName(qualified string) (toolset, function string, ok bool) {
	idx := strings.Index(qualified, Separator)
	if idx <= 0 || idx == len(qualified)-1 {
		return "", "", false
	}
	return qualified[:idx], qualified[idx+1:], true
}

// CallTool routes a qualified "<toolset><sep><function>" name to the
// right Tool and executes it. Unknown toolsets produce a human-readable
// error string rather than a Go error — the caller (Agent Runtime) feeds
// this straight back to the model as tool output, never aborts the turn
// over it. A panic or Go error from inside Execute is likewise converted
// to a string, per the "Important!" wrapper convention, so a misbehaving
// tool can never crash a turn.
func (c *Chest) CallTool(ctx context.Context, qualified string, arguments json.RawMessage) string {
	toolsetName, fnName, ok := splitQualifiedName(qualified)
	if !ok {
		return fmt.Sprintf("Error: malformed tool name %q", qualified)
	}

	c.mu.RLock()
	ts, ok := c.active[toolsetName]
	c.mu.RUnlock()
	if !ok {
		return fmt.Sprintf("Error: toolset %q is not active", toolsetName)
	}

	var tool Tool
	for _, t := range ts.Tools() {
		if t.Name() == fnName {
			tool = t
			break
		}
	}
	if tool == nil {
		return fmt.Sprintf("Error: toolset %q has no function %q", toolsetName, fnName)
	}

	params := map[string]interface{}{}
	if len(arguments) > 0 {
		if err := json.Unmarshal(arguments, &params); err != nil {
			return fmt.Sprintf("Important! Tell the user an error occurred calling %s on %s. invalid arguments JSON: %v", fnName, toolsetName, err)
		}
	}

	if schema := tool.InputSchema(); schema != nil {
		if verr := validateAgainstSchema(schema, params); verr != nil {
			return fmt.Sprintf("Important! Tell the user an error occurred calling %s on %s. %v", fnName, toolsetName, verr)
		}
	}

	result, err := c.safeExecute(ctx, tool, params)
	if err != nil {
		return fmt.Sprintf("Important! Tell the user an error occurred calling %s on %s. %v", fnName, toolsetName, err)
	}
	if result.Error != nil {
		return fmt.Sprintf("Important! Tell the user an error occurred calling %s on %s. %s", fnName, toolsetName, result.Error.Message)
	}
	return stringifyResultData(result.Data)
}

// safeExecute runs Execute and converts any panic inside a tool into an
// error, so one broken tool implementation can never take down a Bridge.
func (c *Chest) safeExecute(ctx context.Context, tool Tool, params map[string]interface{}) (result *Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return tool.Execute(ctx, params)
}

func validateAgainstSchema(schema *JSONSchema, params map[string]interface{}) error {
	schemaBytes, err := json.Marshal(schema)
	if err != nil {
		return nil // a schema that won't even marshal can't be validated; let the tool decide
	}
	paramBytes, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("arguments are not serializable: %w", err)
	}

	result, err := gojsonschema.Validate(gojsonschema.NewBytesLoader(schemaBytes), gojsonschema.NewBytesLoader(paramBytes))
	if err != nil {
		return nil // schema itself not valid JSON Schema; don't block the call on our own defect
	}
	if result.Valid() {
		return nil
	}
	var msgs []string
	for _, e := range result.Errors() {
		msgs = append(msgs, e.String())
	}
	return fmt.Errorf("invalid arguments: %s", strings.Join(msgs, "; "))
}

func stringifyResultData(data interface{}) string {
	if data == nil {
		return ""
	}
	if s, ok := data.(string); ok {
		return s
	}
	b, err := json.Marshal(data)
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(b)
}

// ActiveToolsets returns the names of every currently active toolset.
func (c *Chest) ActiveToolsets() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.active))
	for name := range c.active {
		names = append(names, name)
	}
	return names
}
