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
package runtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/teradata-labs/agentrt/pkg/chat"
	"github.com/teradata-labs/agentrt/pkg/events"
	"github.com/teradata-labs/agentrt/pkg/llm"
	"github.com/teradata-labs/agentrt/pkg/toolchest"
)

// StreamingCallback receives every event chat() emits, in the exact order
// the spec's event-order guarantee requires. The Bridge passes its own
// runtime_callback here.
type StreamingCallback func(events.Event) error

// ChatRequest carries every chat() parameter (spec §4.2 public contract).
type ChatRequest struct {
	ChatSession       *chat.ChatSession
	ToolChest         *toolchest.Chest
	ToolNames         []string // active toolsets to resolve inference data from
	UserMessage       string
	PromptMetadata    map[string]interface{}
	ClientWantsCancel *CancelFlag
	StreamingCallback StreamingCallback
	ToolCallContext   map[string]interface{}
	PromptBuilder     PromptBuilder
	ToolSections      []string

	Images     []chat.ContentBlock
	AudioClips []chat.ContentBlock
	Files      []chat.ContentBlock

	// Messages overrides chat_session.messages as the starting array, per
	// step 2's "if the caller passed an explicit messages" branch.
	Messages []chat.ChatMessage

	Temperature     *float64
	ReasoningEffort interface{}
	BudgetTokens    int
	MaxTokens       int

	// EmitHistory requests a HistoryEvent right before the closing
	// InteractionEvent, per the optional step in the event-order guarantee.
	EmitHistory bool

	Role string // event role tag, e.g. the agent's name
}

// Chat executes one chat() call end-to-end, per spec §4.2. It returns the
// updated message array and raises for non-retryable protocol errors, for
// a retryable error once the backoff delay has passed max_delay, and for a
// caller-side misconfiguration (missing ChatSession or session id). A nil
// StreamingCallback is allowed; events are then discarded.
func (r *Runtime) Chat(ctx context.Context, req ChatRequest) ([]chat.ChatMessage, error) {
	if req.ChatSession == nil {
		return nil, fmt.Errorf("runtime: chat request requires a ChatSession")
	}
	sessionID := req.ChatSession.ID
	role := req.Role
	emit := req.StreamingCallback
	if emit == nil {
		emit = func(events.Event) error { return nil }
	}

	// Step 1: render contexts.
	promptCtx := PromptContext{}
	for k, v := range req.ToolCallContext {
		promptCtx[k] = v
	}
	promptCtx["tool_chest"] = req.ToolChest

	var systemPrompt string
	if req.PromptBuilder != nil {
		rendered, err := req.PromptBuilder.Render(ctx, promptCtx, req.ToolSections)
		if err != nil {
			return nil, fmt.Errorf("runtime: render system prompt: %w", err)
		}
		systemPrompt = rendered
	}
	promptCtx["system_prompt"] = systemPrompt

	if systemPrompt != "" {
		if perr := emit(mustSystemPromptEvent(sessionID, role, systemPrompt)); perr != nil {
			return nil, perr
		}
	}

	// Step 2: construct the message array.
	messages := req.Messages
	if messages == nil {
		messages = req.ChatSession.Snapshot()
	}
	if systemPrompt != "" {
		messages = setRootMessage(messages, r.rootRole, systemPrompt)
	}
	messages = append(messages, buildUserMessage(req))

	interactionID := sessionID + "-" + time.Now().UTC().Format("150405.000000000")
	started, err := events.NewInteractionEvent(sessionID, role, true, interactionID)
	if err != nil {
		return nil, err
	}
	if err := emit(started); err != nil {
		return nil, err
	}

	toolSchemas := r.resolveToolSchemas(req)

	finalMessages, retErr := r.runProviderLoop(ctx, sessionID, role, messages, toolSchemas, req, emit)

	if req.EmitHistory && retErr == nil {
		hist, err := events.NewHistoryEvent(sessionID, role, finalMessages)
		if err == nil {
			_ = emit(hist)
		}
	}

	ended, endErr := events.NewInteractionEvent(sessionID, role, false, interactionID)
	if endErr == nil {
		_ = emit(ended)
	}

	if retErr != nil {
		return finalMessages, retErr
	}
	return finalMessages, nil
}

func (r *Runtime) resolveToolSchemas(req ChatRequest) []llm.ToolSchema {
	if req.ToolChest == nil || len(req.ToolNames) == 0 {
		return nil
	}
	data := req.ToolChest.GetInferenceData(req.ToolNames)
	return data.Schemas
}

// runProviderLoop implements step 3/4: the semaphore-capped, backoff-wrapped
// request loop, looping again on each tool_calls cycle until the provider
// finishes with any other reason.
func (r *Runtime) runProviderLoop(
	ctx context.Context,
	sessionID, role string,
	messages []chat.ChatMessage,
	toolSchemas []llm.ToolSchema,
	req ChatRequest,
	emit StreamingCallback,
) ([]chat.ChatMessage, error) {
	delay := r.initialDelay
	maxDelay := r.maxDelay
	if maxDelay <= 0 {
		maxDelay = defaultMaxDelay
	}

	for {
		if req.ClientWantsCancel != nil && req.ClientWantsCancel.Requested() {
			return messages, r.emitCancelled(sessionID, role, emit)
		}

		select {
		case r.sem <- struct{}{}:
		case <-ctx.Done():
			return messages, ctx.Err()
		}

		outcome, err := r.runOneCompletion(ctx, sessionID, role, messages, toolSchemas, req, emit)
		<-r.sem

		if err != nil {
			if llm.IsRetryable(err) {
				if delay > maxDelay {
					return messages, fmt.Errorf("runtime: backoff exceeded max_delay: %w", err)
				}
				warnMsg := fmt.Sprintf("provider call failed, retrying in %s: %v", delay, err)
				if sysEvt, sErr := events.NewSystemMessageEvent(sessionID, role, "warning", warnMsg); sErr == nil {
					_ = emit(sysEvt)
				}
				r.logger.Warn("runtime: retrying provider call", zap.Duration("delay", delay), zap.Error(err))

				select {
				case <-time.After(delay):
				case <-ctx.Done():
					return messages, ctx.Err()
				}

				delay *= 2
				continue
			}
			return messages, err
		}

		messages = outcome.messages
		if !outcome.hasToolCalls {
			return messages, nil
		}
		// tool_calls cycle already appended assistant + tool messages;
		// loop again to drive the follow-up completion.
		delay = r.initialDelay
	}
}

type completionOutcome struct {
	messages     []chat.ChatMessage
	hasToolCalls bool
}

// runOneCompletion opens one streaming completion, consumes its fragments,
// and returns the updated message array. A tool_calls finish reason
// dispatches the reassembled calls and reports hasToolCalls=true so the
// caller loops for a follow-up completion; any other finish reason appends
// the final assistant message and reports hasToolCalls=false.
func (r *Runtime) runOneCompletion(
	ctx context.Context,
	sessionID, role string,
	messages []chat.ChatMessage,
	toolSchemas []llm.ToolSchema,
	req ChatRequest,
	emit StreamingCallback,
) (completionOutcome, error) {
	opts := events.CompletionOptions{
		Model:           r.provider.Model(),
		MaxTokens:       req.MaxTokens,
		BudgetTokens:    req.BudgetTokens,
		ReasoningEffort: req.ReasoningEffort,
	}
	if req.Temperature != nil {
		opts.Temperature = *req.Temperature
	}
	for _, s := range toolSchemas {
		opts.ToolSchemaNames = append(opts.ToolSchemaNames, s.Name)
	}

	runningEvt, err := events.NewCompletionEvent(sessionID, role, true, opts, "")
	if err != nil {
		return completionOutcome{}, err
	}
	if err := emit(runningEvt); err != nil {
		return completionOutcome{}, err
	}

	assembler := newFragmentAssembler()
	streaming, ok := r.provider.(llm.StreamingProvider)

	var resp *llm.Response
	var callErr error
	if ok {
		resp, callErr = streaming.ChatStream(ctx, messages, toolSchemas, func(frag llm.Fragment) error {
			if req.ClientWantsCancel != nil && req.ClientWantsCancel.Requested() {
				return errCancelled
			}
			return assembler.consume(sessionID, role, frag, emit)
		})
		if errors.Is(callErr, errCancelled) {
			stopEvt, _ := events.NewCompletionEvent(sessionID, role, false, opts, "cancel")
			_ = emit(stopEvt)
			return completionOutcome{messages: messages}, nil
		}
	} else {
		resp, callErr = r.provider.Chat(ctx, messages, toolSchemas)
		if callErr == nil && resp != nil {
			assembler.text.WriteString(resp.Content)
			assembler.stopReason = resp.StopReason
			assembler.calls = append(assembler.calls, resp.ToolCalls...)
		}
	}
	if callErr != nil {
		return completionOutcome{}, callErr
	}

	stopReason := assembler.stopReason
	if resp != nil && resp.StopReason != "" {
		stopReason = resp.StopReason
	}

	calls := assembler.calls
	if ok {
		calls = assembler.orderedCalls()
	}
	if stopReason == "tool_calls" && len(calls) > 0 {
		updated, derr := r.dispatchToolCalls(ctx, sessionID, role, messages, calls, req, emit)
		if derr != nil {
			return completionOutcome{}, derr
		}
		stopEvt, _ := events.NewCompletionEvent(sessionID, role, false, opts, stopReason)
		_ = emit(stopEvt)
		return completionOutcome{messages: updated, hasToolCalls: true}, nil
	}

	text := assembler.text.String()
	if text != "" {
		messages = append(messages, chat.NewTextMessage(chat.RoleAssistant, text))
	}
	stopEvt, err := events.NewCompletionEvent(sessionID, role, false, opts, stopReason)
	if err != nil {
		return completionOutcome{}, err
	}
	if err := emit(stopEvt); err != nil {
		return completionOutcome{}, err
	}
	return completionOutcome{messages: messages}, nil
}

// errCancelled is returned from the stream callback to unwind ChatStream
// cooperatively; it never escapes runOneCompletion.
var errCancelled = fmt.Errorf("runtime: client requested cancellation")

func (r *Runtime) emitCancelled(sessionID, role string, emit StreamingCallback) error {
	opts := events.CompletionOptions{}
	evt, err := events.NewCompletionEvent(sessionID, role, false, opts, "cancel")
	if err != nil {
		return err
	}
	return emit(evt)
}

// dispatchToolCalls converts reassembled tool calls to messages: decode
// arguments, call each tool concurrently via the Tool Chest, append the
// assistant tool_calls message followed by one tool message per result.
func (r *Runtime) dispatchToolCalls(
	ctx context.Context,
	sessionID, role string,
	messages []chat.ChatMessage,
	calls []chat.ToolCall,
	req ChatRequest,
	emit StreamingCallback,
) ([]chat.ChatMessage, error) {
	startEvt, err := events.NewToolCallEvent(sessionID, role, true, calls, nil)
	if err != nil {
		return nil, err
	}
	if err := emit(startEvt); err != nil {
		return nil, err
	}

	results := make([]chat.ToolResult, len(calls))
	if req.ToolChest != nil {
		results = req.ToolChest.DispatchBatch(ctx, calls)
	} else {
		for i, c := range calls {
			results[i] = chat.ToolResult{ToolCallID: c.ID, Content: fmt.Sprintf("Exception: no tool chest configured to run %q", c.Name)}
		}
	}
	for i, c := range calls {
		if !json.Valid([]byte(c.Arguments)) {
			results[i] = chat.ToolResult{ToolCallID: c.ID, Content: fmt.Sprintf("Exception: arguments for %s are not valid JSON", c.Name)}
		}
	}

	endEvt, err := events.NewToolCallEvent(sessionID, role, false, calls, results)
	if err != nil {
		return nil, err
	}
	if err := emit(endEvt); err != nil {
		return nil, err
	}

	assistantMsg := chat.ChatMessage{
		Role:      chat.RoleAssistant,
		ToolCalls: calls,
		Timestamp: time.Now().UTC(),
	}
	messages = append(messages, assistantMsg)
	for _, res := range results {
		messages = append(messages, chat.ChatMessage{
			Role:        chat.RoleTool,
			ToolCallID:  res.ToolCallID,
			ToolResults: []chat.ToolResult{res},
			Content:     []chat.ContentBlock{{Type: chat.BlockText, Text: res.Content}},
			Timestamp:   time.Now().UTC(),
		})
	}
	return messages, nil
}

// setRootMessage creates or overwrites index 0 with the rendered system
// prompt under role, mirroring chat.ChatSession.SetSystemPrompt for the
// caller-supplied Messages path (step 2).
func setRootMessage(messages []chat.ChatMessage, role chat.Role, content string) []chat.ChatMessage {
	msg := chat.NewTextMessage(role, content)
	if len(messages) == 0 {
		return []chat.ChatMessage{msg}
	}
	if messages[0].Role == chat.RoleSystem || messages[0].Role == chat.RoleDeveloper {
		messages[0] = msg
		return messages
	}
	return append([]chat.ChatMessage{msg}, messages...)
}

// buildUserMessage appends a single multimodal user message when any
// images/audio/files are present, otherwise a plain text message.
func buildUserMessage(req ChatRequest) chat.ChatMessage {
	blocks := []chat.ContentBlock{{Type: chat.BlockText, Text: req.UserMessage}}
	blocks = append(blocks, req.Images...)
	blocks = append(blocks, req.AudioClips...)
	blocks = append(blocks, req.Files...)
	return chat.ChatMessage{Role: chat.RoleUser, Content: blocks, Timestamp: time.Now().UTC()}
}

func mustSystemPromptEvent(sessionID, role, content string) events.Event {
	evt, err := events.NewSystemPromptEvent(sessionID, role, content)
	if err != nil {
		return events.SystemPromptEvent{}
	}
	return evt
}
