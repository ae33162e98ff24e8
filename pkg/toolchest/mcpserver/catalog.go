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
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/teradata-labs/agentrt/pkg/observability"
	"github.com/teradata-labs/agentrt/pkg/toolchest"
)

func contextWithTimeout(d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), d)
}

// BuildCatalog connects to every configured server and returns a
// toolchest.MapCatalog of the resulting toolsets, keyed by server name.
// A server that fails to connect is skipped with its error recorded in
// failed rather than aborting the rest — consistent with the Tool Chest's
// general policy of never letting one bad source take down activation.
// A nil tracer disables span instrumentation on the underlying MCP client.
func BuildCatalog(cfg *Config, logger *zap.Logger, tracer observability.Tracer) (toolchest.MapCatalog, map[string]error) {
	catalog := make(toolchest.MapCatalog, len(cfg.Servers))
	failed := make(map[string]error)
	for name, server := range cfg.Servers {
		ts, err := NewToolset(name, server, logger, tracer)
		if err != nil {
			failed[name] = fmt.Errorf("mcpserver: %s: %w", name, err)
			continue
		}
		catalog[name] = ts
	}
	return catalog, failed
}
