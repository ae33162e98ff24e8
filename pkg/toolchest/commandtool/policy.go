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

// Package commandtool implements the shell-style command tool and its
// on-disk security policy: a per-command allow-list of flags and
// subcommands, each subcommand independently restricting its own flags.
package commandtool

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Policy is the parsed, validated security policy for one command. A flag
// set by name only (no description) is still recorded with an empty
// description — both the list and mapping YAML shapes collapse to Flags.
type Policy struct {
	Command        string
	Flags          map[string]string // flag -> description ("" if none given)
	Subcommands    map[string]Policy // subcommand name -> its own nested policy
	DefaultTimeout time.Duration
}

// rawPolicy mirrors the on-disk YAML shape before flag-shape normalization.
// Flags may be written as a YAML list (`["--foo", "--bar"]`) or a mapping
// (`{"--foo": "description"}`); Subcommands nests the same shape again.
type rawPolicy struct {
	Flags          yaml.Node             `yaml:"flags"`
	Subcommands    map[string]rawPolicy  `yaml:"subcommands"`
	DefaultTimeout string                `yaml:"default_timeout"`
}

// LoadPolicies parses every *.yaml file in dir into a Policy keyed by
// command name (the file's base name without extension). A file whose
// shape can't be built into a Policy is skipped with a logged warning —
// it never aborts loading the rest, per the Tool Chest's security-policy
// contract.
func LoadPolicies(dir string, logger *zap.Logger) (map[string]Policy, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("commandtool: read policy dir %s: %w", dir, err)
	}

	policies := make(map[string]Policy)
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".yaml" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			logger.Warn("commandtool: skipping unreadable policy", zap.String("file", path), zap.Error(err))
			continue
		}
		var raw rawPolicy
		if err := yaml.Unmarshal(data, &raw); err != nil {
			logger.Warn("commandtool: skipping malformed policy", zap.String("file", path), zap.Error(err))
			continue
		}
		name := entry.Name()[:len(entry.Name())-len(".yaml")]
		policy, err := buildPolicy(name, raw)
		if err != nil {
			logger.Warn("commandtool: skipping policy with schema mismatch", zap.String("file", path), zap.Error(err))
			continue
		}
		policies[name] = policy
	}
	return policies, nil
}

func buildPolicy(command string, raw rawPolicy) (Policy, error) {
	flags, err := decodeFlags(raw.Flags)
	if err != nil {
		return Policy{}, fmt.Errorf("command %s: %w", command, err)
	}

	subcommands := make(map[string]Policy, len(raw.Subcommands))
	for name, sub := range raw.Subcommands {
		built, err := buildPolicy(name, sub)
		if err != nil {
			return Policy{}, err
		}
		subcommands[name] = built
	}

	timeout := 30 * time.Second
	if raw.DefaultTimeout != "" {
		d, err := time.ParseDuration(raw.DefaultTimeout)
		if err != nil {
			return Policy{}, fmt.Errorf("command %s: invalid default_timeout %q: %w", command, raw.DefaultTimeout, err)
		}
		timeout = d
	}

	return Policy{Command: command, Flags: flags, Subcommands: subcommands, DefaultTimeout: timeout}, nil
}

// decodeFlags accepts either a YAML sequence of flag names or a mapping of
// flag name to description; an empty/absent node yields an empty set.
func decodeFlags(node yaml.Node) (map[string]string, error) {
	flags := make(map[string]string)
	if node.Kind == 0 {
		return flags, nil
	}
	switch node.Kind {
	case yaml.SequenceNode:
		var list []string
		if err := node.Decode(&list); err != nil {
			return nil, fmt.Errorf("flags: %w", err)
		}
		for _, f := range list {
			flags[f] = ""
		}
	case yaml.MappingNode:
		var mapping map[string]string
		if err := node.Decode(&mapping); err != nil {
			return nil, fmt.Errorf("flags: %w", err)
		}
		for k, v := range mapping {
			flags[k] = v
		}
	default:
		return nil, fmt.Errorf("flags: expected list or mapping, got %v", node.Kind)
	}
	return flags, nil
}

// AllowsFlag reports whether flag is permitted directly on this policy
// (not recursing into subcommands).
func (p Policy) AllowsFlag(flag string) bool {
	_, ok := p.Flags[flag]
	return ok
}

// Subcommand looks up a nested subcommand policy by name.
func (p Policy) Subcommand(name string) (Policy, bool) {
	sub, ok := p.Subcommands[name]
	return sub, ok
}
