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
package bridge

import (
	"context"
	"fmt"

	"github.com/teradata-labs/agentrt/pkg/events"
)

func (b *Bridge) handleUpdateTools(ctx context.Context, evt events.Event) error {
	in, ok := evt.(events.UpdateToolsEvent)
	if !ok {
		return fmt.Errorf("bridge: update_tools handler received %T", evt)
	}
	return b.UpdateTools(ctx, in.Tools)
}

// UpdateTools diffs the current tool list against newTools: activates
// additions, deactivates removals, and emits AgentConfigurationChanged
// (spec §4.1 "update_tools").
func (b *Bridge) UpdateTools(ctx context.Context, newTools []string) error {
	current := b.session.AgentConfig.Tools
	currentSet := toSet(current)
	newSet := toSet(newTools)

	var toRemove, toAdd []string
	for _, name := range current {
		if !newSet[name] {
			toRemove = append(toRemove, name)
		}
	}
	for _, name := range newTools {
		if !currentSet[name] {
			toAdd = append(toAdd, name)
		}
	}

	if len(toAdd) > 0 {
		b.toolChest.ActivateToolset(toAdd)
	}
	if len(toRemove) > 0 {
		b.toolChest.DeactivateToolset(toRemove)
	}
	b.session.AgentConfig.Tools = newTools

	evt, err := events.NewAgentConfigurationChangedEvent(b.sessionID(), b.session.AgentConfig.Name, b.session.AgentConfig.Key, newTools)
	if err != nil {
		return err
	}
	b.logAndForward(ctx, evt)
	return nil
}

func toSet(names []string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return set
}

func (b *Bridge) handleSetAgent(ctx context.Context, evt events.Event) error {
	in, ok := evt.(events.SetAgentEvent)
	if !ok {
		return fmt.Errorf("bridge: set_agent handler received %T", evt)
	}
	return b.SetAgent(ctx, in.AgentKey)
}

// SetAgent duplicates the catalog entry for agentKey, installs it on the
// session, reactivates its tool set, and emits a configuration-change
// event (spec §4.1 "set_agent").
func (b *Bridge) SetAgent(ctx context.Context, agentKey string) error {
	if b.configLoader == nil {
		return fmt.Errorf("bridge: no agent config loader configured")
	}
	cfg, err := b.configLoader.Duplicate(agentKey)
	if err != nil {
		return fmt.Errorf("bridge: duplicate agent %s: %w", agentKey, err)
	}

	b.toolChest.DeactivateToolset(b.session.AgentConfig.Tools)
	b.session.AgentConfig = cfg
	b.toolChest.ActivateToolset(cfg.Tools)

	evt, err := events.NewAgentConfigurationChangedEvent(b.sessionID(), cfg.Name, cfg.Key, cfg.Tools)
	if err != nil {
		return err
	}
	b.logAndForward(ctx, evt)
	return nil
}

func (b *Bridge) handleSetAvatar(ctx context.Context, evt events.Event) error {
	in, ok := evt.(events.SetAvatarEvent)
	if !ok {
		return fmt.Errorf("bridge: set_avatar handler received %T", evt)
	}
	return b.SetAvatar(ctx, in.AvatarID, in.Quality, in.VideoEncoding)
}

// SetAvatar ends any existing avatar session, creates a new streaming
// client, and emits AvatarConnectionChanged (spec §4.1 "set_avatar").
func (b *Bridge) SetAvatar(ctx context.Context, avatarID, quality, videoEncoding string) error {
	if b.avatar != nil {
		_ = b.avatar.Close()
		b.avatar = nil
	}

	connected := false
	if b.avatarFn != nil && avatarID != "" {
		client, err := b.avatarFn(ctx, avatarID, quality, videoEncoding)
		if err != nil {
			return fmt.Errorf("bridge: create avatar session: %w", err)
		}
		b.avatar = client
		connected = true
	}

	evt, err := events.NewAvatarConnectionChangedEvent(b.sessionID(), b.session.AgentConfig.Name, avatarID, quality, videoEncoding, connected)
	if err != nil {
		return err
	}
	b.logAndForward(ctx, evt)
	return nil
}

func (b *Bridge) handleCallTool(ctx context.Context, evt events.Event) error {
	in, ok := evt.(events.CallToolEvent)
	if !ok {
		return fmt.Errorf("bridge: call_tool handler received %T", evt)
	}
	result := b.toolChest.CallTool(ctx, in.ToolName, in.Arguments)
	msgEvt, err := events.NewMessageEvent(b.sessionID(), b.session.AgentConfig.Name, result, "text")
	if err != nil {
		return err
	}
	b.logAndForward(ctx, msgEvt)
	return nil
}
