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
	"bytes"
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/teradata-labs/agentrt/pkg/chat"
	"github.com/teradata-labs/agentrt/pkg/events"
	"github.com/teradata-labs/agentrt/pkg/llm"
	"github.com/teradata-labs/agentrt/pkg/promptbuilder"
	"github.com/teradata-labs/agentrt/pkg/runtime"
)

func (b *Bridge) handleTextInput(ctx context.Context, evt events.Event) error {
	in, ok := evt.(events.TextInputEvent)
	if !ok {
		return fmt.Errorf("bridge: text_input handler received %T", evt)
	}
	b.Interact(ctx, in.Text, in.FileIDs)
	return nil
}

// Interact orchestrates one turn (spec §4.1's interact() contract). Any
// failure in preparation, chat, or flush is reported as a
// SystemMessageEvent and swallowed here — interact never lets an error
// escape to run().
func (b *Bridge) Interact(ctx context.Context, userMessage string, fileIDs []string) {
	b.cancel = &runtime.CancelFlag{} // step 1: clear client_wants_cancel

	cfg := b.session.AgentConfig

	provider, err := llm.RuntimeForAgent(cfg, b.vendors) // step 2
	if err != nil {
		b.reportError(ctx, "resolve provider", err)
		return
	}
	rt := runtime.New(provider, b.runtimeOpts...)

	images, audio, files, err := b.categorizeFiles(ctx, fileIDs) // step 3
	if err != nil {
		b.reportError(ctx, "fetch files", err)
		return
	}

	failed := b.toolChest.ActivateToolset(cfg.Tools) // step 5
	if len(failed) > 0 {
		b.logger.Warn("bridge: unknown toolsets requested", zap.Strings("toolsets", failed))
	}
	if initErrs := b.toolChest.InitializeToolsets(ctx, cfg.Tools); len(initErrs) > 0 {
		for name, ierr := range initErrs {
			b.logger.Warn("bridge: toolset initialize failed", zap.String("toolset", name), zap.Error(ierr))
		}
	}
	inference := b.toolChest.GetInferenceData(cfg.Tools)

	var extra []promptbuilder.Section
	if b.promptReg != nil {
		extra = append(extra, promptbuilder.PromptRegistrySection{
			Registry: b.promptReg,
			Key:      cfg.Key + ".addendum",
		})
	}
	pb := promptbuilder.New(extra...) // step 4's persona + conditional think-protocol section
	promptCtx := map[string]interface{}{"agent": &cfg, "session_id": b.session.ID}

	req := runtime.ChatRequest{
		ChatSession:       b.session,
		ToolChest:         b.toolChest,
		ToolNames:         inference.Toolsets,
		UserMessage:       userMessage,
		PromptMetadata:    cfg.PromptMetadata,
		ClientWantsCancel: b.cancel,
		StreamingCallback: b.runtimeCallback(ctx),
		ToolCallContext:   promptCtx,
		PromptBuilder:     pb,
		ToolSections:      inference.Toolsets,
		Images:            images,
		AudioClips:        audio,
		Files:             files,
		Role:              cfg.Name,
	}

	if _, err := rt.Chat(ctx, req); err != nil { // step 6
		b.reportError(ctx, "chat", err)
		return
	}

	if b.sessionMgr != nil { // step 7
		if err := b.sessionMgr.Flush(ctx, b.session.ID, b.session.UserID); err != nil {
			b.reportError(ctx, "flush", err)
		}
	}
}

// categorizeFiles resolves each file id and partitions the resulting
// content blocks by type (spec §4.1 step 3).
func (b *Bridge) categorizeFiles(ctx context.Context, fileIDs []string) (images, audio, files []chat.ContentBlock, err error) {
	if b.files == nil || len(fileIDs) == 0 {
		return nil, nil, nil, nil
	}
	for _, id := range fileIDs {
		block, ferr := b.files.Fetch(ctx, id)
		if ferr != nil {
			return nil, nil, nil, fmt.Errorf("bridge: fetch file %s: %w", id, ferr)
		}
		switch block.Type {
		case chat.BlockImage:
			images = append(images, block)
		case chat.BlockAudio:
			audio = append(audio, block)
		default:
			files = append(files, block)
		}
	}
	return images, audio, files, nil
}

// runtimeCallback is runtime_callback: the sole bridge between Runtime and
// client (spec §4.1). It transforms TextDelta/ThoughtDelta/Completion
// events for avatar speech as a side effect, then forwards every event,
// unchanged, to the logger and the client.
func (b *Bridge) runtimeCallback(ctx context.Context) runtime.StreamingCallback {
	return func(evt events.Event) error {
		switch e := evt.(type) {
		case events.TextDeltaEvent:
			b.onTextDelta(ctx, e)
		case events.ThoughtDeltaEvent:
			b.onThoughtDelta(ctx, e)
		case events.CompletionEvent:
			if !e.Running {
				b.flushPartialBuffer(ctx)
				b.thoughtSpoken = false
			}
		}
		b.logAndForward(ctx, evt)
		return nil
	}
}

// onTextDelta buffers the delta; once the buffer contains a newline, the
// prefix up to the last newline is spoken through the avatar as one
// chunk and the buffer is trimmed to what follows it. The delta itself
// is always forwarded unchanged by the caller.
func (b *Bridge) onTextDelta(ctx context.Context, e events.TextDeltaEvent) {
	b.partialBuf = append(b.partialBuf, e.Content...)
	idx := bytes.LastIndexByte(b.partialBuf, '\n')
	if idx < 0 {
		return
	}
	chunk := string(b.partialBuf[:idx])
	b.partialBuf = append([]byte(nil), b.partialBuf[idx+1:]...)
	b.speak(ctx, chunk)
}

// onThoughtDelta speaks a fixed utterance once per turn on the first
// thought token, then lets every subsequent delta forward without
// further avatar interaction.
func (b *Bridge) onThoughtDelta(ctx context.Context, e events.ThoughtDeltaEvent) {
	if b.thoughtSpoken {
		return
	}
	b.thoughtSpoken = true
	b.speak(ctx, "Let me think about that.")
}

func (b *Bridge) flushPartialBuffer(ctx context.Context) {
	if len(b.partialBuf) == 0 {
		return
	}
	chunk := string(b.partialBuf)
	b.partialBuf = nil
	b.speak(ctx, chunk)
}

func (b *Bridge) speak(ctx context.Context, text string) {
	if b.avatar == nil || text == "" {
		return
	}
	if err := b.avatar.Speak(ctx, text); err != nil {
		b.logger.Warn("bridge: avatar speak failed", zap.Error(err))
	}
}
