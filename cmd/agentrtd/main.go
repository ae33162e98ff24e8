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

// Command agentrtd is the reference daemon: it wires every module (Agent
// Config Loader, Session Manager, Event Session Logger, Tool Chest, Agent
// Runtime, Agent Bridge) behind a WebSocket listener. One Bridge is built
// per accepted connection; configuration is flag/env driven rather than a
// multi-command CLI (see DESIGN.md's cobra/viper non-adoption note).
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/teradata-labs/agentrt/pkg/agentconfig"
	"github.com/teradata-labs/agentrt/pkg/bridge"
	"github.com/teradata-labs/agentrt/pkg/chat"
	"github.com/teradata-labs/agentrt/pkg/config"
	"github.com/teradata-labs/agentrt/pkg/eventlog"
	"github.com/teradata-labs/agentrt/pkg/llm"
	"github.com/teradata-labs/agentrt/pkg/llm/anthropic"
	"github.com/teradata-labs/agentrt/pkg/llm/azureopenai"
	"github.com/teradata-labs/agentrt/pkg/llm/bedrock"
	"github.com/teradata-labs/agentrt/pkg/llm/openai"
	"github.com/teradata-labs/agentrt/pkg/prompts"
	"github.com/teradata-labs/agentrt/pkg/session"
	"github.com/teradata-labs/agentrt/pkg/session/sqliterepo"
	"github.com/teradata-labs/agentrt/pkg/toolchest"
	"github.com/teradata-labs/agentrt/pkg/toolchest/builtin"
	"github.com/teradata-labs/agentrt/pkg/toolchest/commandtool"
	"github.com/teradata-labs/agentrt/pkg/toolchest/mcpserver"
	"github.com/teradata-labs/agentrt/pkg/wsconn"
)

func main() {
	var (
		addr          = flag.String("addr", ":8787", "listen address for the WebSocket endpoint")
		agentsDir     = flag.String("agents-dir", config.SubDir("agents"), "directory of agent configuration YAML files")
		dataDir       = flag.String("data-dir", config.DataDir(), "runtime data directory (sessions db, event logs)")
		mcpConfigPath = flag.String("mcp-config", "", "optional external tool server config (mcpserver.Config YAML); empty disables")
		cmdPolicyDir  = flag.String("command-policy-dir", "", "optional command-tool policy directory; empty disables")
		eventPreset   = flag.String("eventlog-preset", string(eventlog.PresetDevelopment), "development|testing|production|multi-transport")
		promptsDir    = flag.String("prompts-dir", "", "optional managed-prompt directory (pkg/prompts.FileRegistry root); empty disables")
	)
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintln(os.Stderr, "agentrtd: failed to build logger:", err)
		os.Exit(1)
	}
	defer logger.Sync() //nolint:errcheck

	if err := run(*addr, *agentsDir, *dataDir, *mcpConfigPath, *cmdPolicyDir, *eventPreset, *promptsDir, logger); err != nil {
		logger.Fatal("agentrtd: fatal", zap.Error(err))
	}
}

func run(addr, agentsDir, dataDir, mcpConfigPath, cmdPolicyDir, eventPreset, promptsDir string, logger *zap.Logger) error {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	if err := os.MkdirAll(agentsDir, 0o755); err != nil {
		return fmt.Errorf("create agents dir: %w", err)
	}

	loader, err := agentconfig.NewLoader(agentsDir, logger)
	if err != nil {
		return fmt.Errorf("load agent configurations: %w", err)
	}
	if err := loader.WatchReload(); err != nil {
		logger.Warn("agentrtd: agent config watch disabled", zap.Error(err))
	}
	defer loader.StopWatch() //nolint:errcheck

	catalog, err := buildCatalog(mcpConfigPath, cmdPolicyDir, logger)
	if err != nil {
		return fmt.Errorf("build tool catalog: %w", err)
	}

	repo, err := sqliterepo.Open(filepath.Join(dataDir, "sessions.db"))
	if err != nil {
		return fmt.Errorf("open session repository: %w", err)
	}
	defer repo.Close() //nolint:errcheck

	sessionMgr := session.NewManager(repo, logger)

	gateway, err := eventlog.NewFromPreset(eventlog.Preset(eventPreset), filepath.Join(dataDir, "events"), logger)
	if err != nil {
		return fmt.Errorf("build event session logger: %w", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := gateway.Start(ctx); err != nil {
		logger.Warn("agentrtd: event transport connect failed, continuing on JSONL only", zap.Error(err))
	}
	defer gateway.Close() //nolint:errcheck

	vendors := buildVendors(logger)
	promptRegistry := buildPromptRegistry(promptsDir)

	mux := http.NewServeMux()
	mux.Handle("/chat", chatHandler(loader, catalog, sessionMgr, gateway, vendors, promptRegistry, logger))

	server := &http.Server{Addr: addr, Handler: mux}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("agentrtd: listening", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case sig := <-sigCh:
		logger.Info("agentrtd: shutting down", zap.String("signal", sig.String()))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	return server.Shutdown(shutdownCtx)
}

// buildCatalog merges the built-in toolset catalog with the optional
// external-tool-server and command-policy catalogs (spec §4.3's "a Catalog
// is just a name-to-Toolset lookup" design, letting every source be merged
// into one map).
func buildCatalog(mcpConfigPath, cmdPolicyDir string, logger *zap.Logger) (toolchest.MapCatalog, error) {
	merged := toolchest.MapCatalog{}
	for name, ts := range builtin.Catalog() {
		merged[name] = ts
	}

	if mcpConfigPath != "" {
		cfg, err := mcpserver.LoadConfig(mcpConfigPath)
		if err != nil {
			return nil, fmt.Errorf("load mcp config: %w", err)
		}
		extCatalog, buildErrs := mcpserver.BuildCatalog(cfg, logger, nil)
		for name, err := range buildErrs {
			logger.Warn("agentrtd: external tool server skipped", zap.String("server", name), zap.Error(err))
		}
		for name, ts := range extCatalog {
			merged[name] = ts
		}
	}

	if cmdPolicyDir != "" {
		cmdCatalog, err := commandtool.BuildCatalog(cmdPolicyDir, logger)
		if err != nil {
			return nil, fmt.Errorf("load command policies: %w", err)
		}
		for name, ts := range cmdCatalog {
			merged[name] = ts
		}
	}

	return merged, nil
}

// buildPromptRegistry wires the managed-prompt stack (file-backed storage,
// hash-bucketed A/B variant selection, TTL caching) when promptsDir is
// configured; returns nil otherwise, which Bridge treats as "no registry
// section."
func buildPromptRegistry(promptsDir string) prompts.PromptRegistry {
	if promptsDir == "" {
		return nil
	}
	base := prompts.NewFileRegistry(promptsDir)
	withVariants := prompts.NewABTestingRegistry(base, prompts.NewHashSelector())
	return prompts.NewCachedRegistry(withVariants, 5*time.Minute)
}

// buildVendors wires every vendor package the module carries behind
// llm.RuntimeForAgent's prefix dispatch, each constructed lazily so a
// missing credential only fails the agents that actually select it.
func buildVendors(logger *zap.Logger) llm.VendorBuilders {
	return llm.VendorBuilders{
		"claude-": func(cfg agentconfig.AgentConfiguration) (llm.StreamingProvider, error) {
			apiKey := os.Getenv("ANTHROPIC_API_KEY")
			if apiKey == "" {
				return nil, fmt.Errorf("ANTHROPIC_API_KEY not set")
			}
			return anthropic.NewClient(anthropic.Config{
				APIKey:      apiKey,
				Model:       cfg.ModelID,
				MaxTokens:   cfg.AgentParams.MaxTokens,
				Temperature: temperatureOf(cfg),
			}), nil
		},
		"gpt-": func(cfg agentconfig.AgentConfiguration) (llm.StreamingProvider, error) {
			apiKey := os.Getenv("OPENAI_API_KEY")
			if apiKey == "" {
				return nil, fmt.Errorf("OPENAI_API_KEY not set")
			}
			return openai.NewClient(openai.Config{
				APIKey:      apiKey,
				Model:       cfg.ModelID,
				MaxTokens:   cfg.AgentParams.MaxTokens,
				Temperature: temperatureOf(cfg),
			}), nil
		},
		"azure-": func(cfg agentconfig.AgentConfiguration) (llm.StreamingProvider, error) {
			endpoint := os.Getenv("AZURE_OPENAI_ENDPOINT")
			apiKey := os.Getenv("AZURE_OPENAI_API_KEY")
			if endpoint == "" || apiKey == "" {
				return nil, fmt.Errorf("AZURE_OPENAI_ENDPOINT/AZURE_OPENAI_API_KEY not set")
			}
			return azureopenai.NewClient(azureopenai.Config{
				Endpoint:     endpoint,
				DeploymentID: cfg.ModelID,
				APIKey:       apiKey,
			})
		},
		"bedrock-": func(cfg agentconfig.AgentConfiguration) (llm.StreamingProvider, error) {
			return bedrock.NewClient(context.Background(), bedrock.Config{
				Region:      os.Getenv("AWS_REGION"),
				ModelID:     cfg.ModelID,
				MaxTokens:   cfg.AgentParams.MaxTokens,
				Temperature: temperatureOf(cfg),
			})
		},
	}
}

// temperatureOf reads AgentParams.Temperature, defaulting to 0 (provider
// default) when the agent configuration leaves it unset.
func temperatureOf(cfg agentconfig.AgentConfiguration) float64 {
	if cfg.AgentParams.Temperature == nil {
		return 0
	}
	return *cfg.AgentParams.Temperature
}

// chatHandler upgrades one HTTP request to a WebSocket connection, installs
// a fresh ChatSession for the requested agent, and runs a Bridge over it
// until the client disconnects.
func chatHandler(loader *agentconfig.Loader, catalog toolchest.MapCatalog, sessionMgr *session.Manager, gateway *eventlog.Gateway, vendors llm.VendorBuilders, promptRegistry prompts.PromptRegistry, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		agentKey := r.URL.Query().Get("agent")
		userID := r.URL.Query().Get("user_id")
		if agentKey == "" || userID == "" {
			http.Error(w, "agent and user_id query parameters are required", http.StatusBadRequest)
			return
		}

		cfg, err := loader.Duplicate(agentKey)
		if err != nil {
			http.Error(w, fmt.Sprintf("unknown agent %q", agentKey), http.StatusNotFound)
			return
		}

		sessionID, err := chat.NewSessionID()
		if err != nil {
			http.Error(w, "failed to allocate session id", http.StatusInternalServerError)
			return
		}
		sess, err := chat.New(sessionID, userID, cfg)
		if err != nil {
			http.Error(w, "failed to create session", http.StatusInternalServerError)
			return
		}
		sessionMgr.New(sess)

		ws, err := wsconn.Upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Warn("agentrtd: websocket upgrade failed", zap.Error(err))
			return
		}
		conn := wsconn.New(ws)
		defer conn.Close() //nolint:errcheck

		chest := toolchest.New(catalog)
		b := bridge.New(bridge.Config{
			Connection:   conn,
			Session:      sess,
			SessionMgr:   sessionMgr,
			ConfigLoader: loader,
			ToolChest:    chest,
			Vendors:        vendors,
			EventSink:      gateway,
			PromptRegistry: promptRegistry,
			Logger:         logger,
		})

		if err := b.Run(r.Context()); err != nil {
			logger.Info("agentrtd: bridge closed", zap.String("session_id", sessionID), zap.Error(err))
		}
	}
}
