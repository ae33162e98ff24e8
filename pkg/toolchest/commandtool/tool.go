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
package commandtool

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"al.essio.dev/pkg/shellescape"

	"github.com/teradata-labs/agentrt/pkg/toolchest"
)

// Tool runs one policy-governed external command. Its InputSchema accepts
// an optional subcommand name and a flat list of "flag" or "flag=value"
// arguments; every flag is checked against the policy (and, if a
// subcommand is given, the subcommand's own nested flag set) before the
// command ever runs.
type Tool struct {
	policy Policy
}

// NewTool builds a command tool bound to policy.
func NewTool(policy Policy) *Tool {
	return &Tool{policy: policy}
}

func (t *Tool) Name() string { return t.policy.Command }

func (t *Tool) Description() string {
	return fmt.Sprintf("Run the %q command with policy-restricted flags and subcommands.", t.policy.Command)
}

func (t *Tool) InputSchema() *toolchest.JSONSchema {
	return toolchest.NewObjectSchema(
		fmt.Sprintf("Arguments for %q", t.policy.Command),
		map[string]*toolchest.JSONSchema{
			"subcommand": toolchest.NewStringSchema("Optional subcommand name"),
			"args":       toolchest.NewArraySchema("Flags/arguments, e.g. [\"--verbose\", \"--output=file.txt\"]", toolchest.NewStringSchema("")),
		},
		nil,
	)
}

func (t *Tool) Execute(ctx context.Context, params map[string]interface{}) (*toolchest.Result, error) {
	active := t.policy
	if sub, ok := params["subcommand"].(string); ok && sub != "" {
		nested, ok := t.policy.Subcommand(sub)
		if !ok {
			return &toolchest.Result{Success: false, Error: &toolchest.Error{Code: "unknown_subcommand", Message: fmt.Sprintf("%s has no subcommand %q", t.policy.Command, sub)}}, nil
		}
		active = nested
	}

	rawArgs, _ := params["args"].([]interface{})
	words := []string{t.policy.Command}
	if sub, ok := params["subcommand"].(string); ok && sub != "" {
		words = append(words, sub)
	}
	for _, v := range rawArgs {
		arg, ok := v.(string)
		if !ok {
			continue
		}
		flag := arg
		if idx := strings.Index(arg, "="); idx >= 0 {
			flag = arg[:idx]
		}
		if !active.AllowsFlag(flag) {
			return &toolchest.Result{Success: false, Error: &toolchest.Error{Code: "flag_not_allowed", Message: fmt.Sprintf("flag %q is not permitted by policy for %s", flag, active.Command)}}, nil
		}
		words = append(words, shellescape.Quote(arg))
	}
	commandLine := strings.Join(words, " ")

	runCtx, cancel := context.WithTimeout(ctx, active.DefaultTimeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, "sh", "-c", commandLine)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return &toolchest.Result{
			Success: false,
			Error:   &toolchest.Error{Code: "command_failed", Message: fmt.Sprintf("%v: %s", err, stderr.String())},
		}, nil
	}
	return &toolchest.Result{Success: true, Data: stdout.String()}, nil
}
