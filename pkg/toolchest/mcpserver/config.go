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

// Package mcpserver adapts external tool servers (stdio child processes or
// streaming-HTTP/SSE endpoints) into toolchest.Toolset instances, so the
// Tool Chest can activate them the same way it activates a built-in
// toolset. Each configured server becomes one toolset, named after the
// server, whose tools are the server's MCP tool list filtered through an
// allow-list of glob patterns.
package mcpserver

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the on-disk shape of the external-tool-server configuration
// file: one entry per server, keyed by the toolset name it will register
// under.
type Config struct {
	Servers map[string]ServerConfig `yaml:"servers"`
}

// ServerConfig describes one external tool server. Exactly one of the
// stdio fields (Command) or the streaming fields (URL) must be set; which
// one is inferred from whichever is non-empty.
type ServerConfig struct {
	// stdio transport
	Command string            `yaml:"command"`
	Args    []string          `yaml:"args"`
	Env     map[string]string `yaml:"env"`

	// streaming-HTTP/SSE transport
	URL     string            `yaml:"url"`
	Headers map[string]string `yaml:"headers"`
	Timeout string            `yaml:"timeout"`

	// Allow is the glob allow-list of fully-qualified tool names exposed
	// from this server. A tool not matching any pattern is never
	// registered, regardless of what the server advertises.
	Allow []string `yaml:"allow"`
}

// IsStdio reports whether this server is configured as a stdio child
// process rather than a streaming-HTTP endpoint.
func (s ServerConfig) IsStdio() bool { return s.Command != "" }

// ParseTimeout parses Timeout, defaulting to 30s if unset or invalid.
func (s ServerConfig) ParseTimeout() time.Duration {
	if s.Timeout == "" {
		return 30 * time.Second
	}
	d, err := time.ParseDuration(s.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// LoadConfig reads and parses a tool-server config file, interpolating
// ${VAR}/$VAR references in Command, Args, Env values, URL, and Headers
// against the process environment.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("mcpserver: read config %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("mcpserver: parse config %s: %w", path, err)
	}
	for name, server := range cfg.Servers {
		cfg.Servers[name] = interpolateServer(server)
	}
	return &cfg, nil
}

func interpolateServer(s ServerConfig) ServerConfig {
	s.Command = os.Expand(s.Command, envLookup)
	for i, a := range s.Args {
		s.Args[i] = os.Expand(a, envLookup)
	}
	for k, v := range s.Env {
		s.Env[k] = os.Expand(v, envLookup)
	}
	s.URL = os.Expand(s.URL, envLookup)
	for k, v := range s.Headers {
		s.Headers[k] = os.Expand(v, envLookup)
	}
	return s
}

func envLookup(key string) string { return os.Getenv(key) }

// allowed reports whether name matches at least one glob pattern in
// patterns. A nil/empty pattern list allows nothing, matching the policy
// that a server's tools are opt-in, not opt-out.
func allowed(patterns []string, name string) bool {
	for _, p := range patterns {
		if globMatch(p, name) {
			return true
		}
	}
	return false
}

// globMatch implements the small subset of glob syntax tool allow-lists
// need: '*' matches any run of characters, everything else is literal.
func globMatch(pattern, name string) bool {
	parts := strings.Split(pattern, "*")
	if len(parts) == 1 {
		return pattern == name
	}
	if !strings.HasPrefix(name, parts[0]) {
		return false
	}
	name = name[len(parts[0]):]
	for i := 1; i < len(parts)-1; i++ {
		idx := strings.Index(name, parts[i])
		if idx < 0 {
			return false
		}
		name = name[idx+len(parts[i]):]
	}
	last := parts[len(parts)-1]
	return strings.HasSuffix(name, last)
}
