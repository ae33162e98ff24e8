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
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/teradata-labs/agentrt/pkg/mcp/client"
	"github.com/teradata-labs/agentrt/pkg/mcp/protocol"
	"github.com/teradata-labs/agentrt/pkg/mcp/transport"
	"github.com/teradata-labs/agentrt/pkg/observability"

	"github.com/teradata-labs/agentrt/pkg/toolchest"
)

// mcpClient narrows *client.Client to what a Toolset needs, so a Toolset
// can be built over either the plain client or client.InstrumentedClient
// interchangeably.
type mcpClient interface {
	Initialize(ctx context.Context, clientInfo protocol.Implementation) error
	ListTools(ctx context.Context) ([]protocol.Tool, error)
	CallTool(ctx context.Context, name string, arguments map[string]interface{}) (interface{}, error)
	Close() error
}

// Toolset is one external tool server, connected over stdio or
// streaming-HTTP, exposed as a toolchest.Toolset. It implements
// toolchest.Initializer so the Chest's per-turn warm-up can refresh the
// server's advertised tool list.
type Toolset struct {
	name   string
	server ServerConfig
	logger *zap.Logger

	client mcpClient
	tools  []toolchest.Tool
}

// NewToolset connects to (or launches) the server described by cfg and
// returns a Toolset registering it under name. Connection happens here,
// synchronously, matching the spec's "on activation the Tool Chest
// starts/connects to the server" rule. If tracer is non-nil, every MCP
// operation on this server is wrapped with an observability span via
// client.InstrumentedClient instead of the plain client.
func NewToolset(name string, cfg ServerConfig, logger *zap.Logger, tracer observability.Tracer) (*Toolset, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var tr transportIface
	var err error
	if cfg.IsStdio() {
		tr, err = transport.NewStdioTransport(transport.StdioConfig{
			Command: cfg.Command,
			Args:    cfg.Args,
			Env:     cfg.Env,
			Logger:  logger,
		})
	} else {
		tr, err = transport.NewHTTPTransport(transport.HTTPConfig{
			Endpoint: cfg.URL,
			Headers:  cfg.Headers,
			Logger:   logger,
		})
	}
	if err != nil {
		return nil, fmt.Errorf("mcpserver: connect to %s: %w", name, err)
	}

	plain := client.NewClient(client.Config{
		Transport:      tr,
		Logger:         logger,
		Name:           "agentrt",
		Version:        "0.1.0",
		RequestTimeout: cfg.ParseTimeout(),
	})

	var mcpClientImpl mcpClient = plain
	if tracer != nil {
		mcpClientImpl = client.NewInstrumentedClient(plain, tracer, name)
	}

	ctx, cancel := contextWithTimeout(cfg.ParseTimeout())
	defer cancel()
	if err := mcpClientImpl.Initialize(ctx, protocol.Implementation{Name: "agentrt", Version: "0.1.0"}); err != nil {
		return nil, fmt.Errorf("mcpserver: initialize %s: %w", name, err)
	}

	ts := &Toolset{name: name, server: cfg, logger: logger, client: mcpClientImpl}
	if err := ts.refresh(ctx); err != nil {
		return nil, err
	}
	return ts, nil
}

// transportIface narrows transport.Transport to what client.Config needs,
// letting both stdio and HTTP constructors satisfy it directly.
type transportIface = transport.Transport

func (ts *Toolset) Name() string           { return ts.name }
func (ts *Toolset) Tools() []toolchest.Tool { return ts.tools }

// Initialize re-lists the server's tools, picking up anything it has
// started advertising since connection (spec's per-turn warm-up hook).
func (ts *Toolset) Initialize(ctx context.Context) error {
	return ts.refresh(ctx)
}

func (ts *Toolset) refresh(ctx context.Context) error {
	remote, err := ts.client.ListTools(ctx)
	if err != nil {
		return fmt.Errorf("mcpserver: list tools on %s: %w", ts.name, err)
	}
	tools := make([]toolchest.Tool, 0, len(remote))
	for _, t := range remote {
		qualified := toolchest.QualifiedName(ts.name, t.Name)
		if !allowed(ts.server.Allow, qualified) {
			continue
		}
		tools = append(tools, &remoteTool{toolsetName: ts.name, def: t, client: ts.client})
	}
	ts.tools = tools
	return nil
}

// Close disconnects the underlying client.
func (ts *Toolset) Close() error { return ts.client.Close() }

// remoteTool wraps one MCP protocol.Tool as a toolchest.Tool, dispatching
// Execute over the owning Toolset's client connection.
type remoteTool struct {
	toolsetName string
	def         protocol.Tool
	client      mcpClient
}

func (t *remoteTool) Name() string        { return t.def.Name }
func (t *remoteTool) Description() string { return t.def.Description }

func (t *remoteTool) InputSchema() *toolchest.JSONSchema {
	b, err := json.Marshal(t.def.InputSchema)
	if err != nil {
		return toolchest.NewObjectSchema("", map[string]*toolchest.JSONSchema{}, nil)
	}
	var schema toolchest.JSONSchema
	if err := json.Unmarshal(b, &schema); err != nil {
		return toolchest.NewObjectSchema("", map[string]*toolchest.JSONSchema{}, nil)
	}
	return &schema
}

func (t *remoteTool) Execute(ctx context.Context, params map[string]interface{}) (*toolchest.Result, error) {
	raw, err := t.client.CallTool(ctx, t.def.Name, params)
	if err != nil {
		return nil, err
	}
	result, ok := raw.(*protocol.CallToolResult)
	if !ok {
		return &toolchest.Result{Success: true, Data: raw}, nil
	}
	var text string
	for _, c := range result.Content {
		if c.Type == "text" {
			text += c.Text
		}
	}
	return &toolchest.Result{Success: !result.IsError, Data: text}, nil
}
