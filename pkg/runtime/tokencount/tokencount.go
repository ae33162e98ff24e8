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

// Package tokencount provides an accurate token counter for context-window
// accounting. A process builds exactly one Counter at startup and threads it
// through as part of runtime.Defaults — nothing in this module reaches for a
// package-level singleton, per the explicit-injection rule on process-wide
// defaults.
package tokencount

import (
	"fmt"
	"sync"

	"github.com/pkoukk/tiktoken-go"

	"github.com/teradata-labs/agentrt/pkg/chat"
)

// Counter counts tokens with cl100k_base encoding, a reasonable
// cross-vendor approximation for both GPT and Claude models.
type Counter struct {
	encoder *tiktoken.Tiktoken
	mu      sync.Mutex
}

// New builds a Counter. If the encoding cannot be loaded (e.g. no network
// access to fetch the BPE ranks on first use), Count falls back to a
// char/4 estimate rather than failing the caller.
func New() (*Counter, error) {
	enc, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return &Counter{encoder: nil}, fmt.Errorf("tokencount: load cl100k_base: %w", err)
	}
	return &Counter{encoder: enc}, nil
}

// Count returns the token count for text.
func (c *Counter) Count(text string) int {
	if c.encoder == nil {
		return len(text) / 4
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.encoder.Encode(text, nil, nil))
}

// CountMessages estimates the token cost of a message slice, including a
// fixed per-message formatting overhead and tool call/result payloads.
func (c *Counter) CountMessages(messages []chat.ChatMessage) int {
	total := 0
	for _, msg := range messages {
		total += 10
		total += c.Count(msg.Text())
		for _, tc := range msg.ToolCalls {
			total += c.Count(tc.Arguments)
		}
		for _, tr := range msg.ToolResults {
			total += c.Count(tr.Content)
		}
	}
	return total
}

// Budget tracks how many of a context window's tokens remain after
// reserving headroom for the model's own output.
type Budget struct {
	maxTokens      int
	reservedTokens int

	mu         sync.RWMutex
	usedTokens int
}

// NewBudget reserves reservedForOutput tokens out of maxTokens for the
// model's reply, leaving the remainder available for input.
func NewBudget(maxTokens, reservedForOutput int) *Budget {
	return &Budget{maxTokens: maxTokens, reservedTokens: reservedForOutput}
}

// Available reports the tokens not yet used and not reserved for output.
func (b *Budget) Available() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.maxTokens - b.reservedTokens - b.usedTokens
}

// CanFit reports whether n more tokens fit within Available.
func (b *Budget) CanFit(n int) bool { return b.Available() >= n }

// Use charges n tokens against the budget, refusing if it would overdraw.
func (b *Budget) Use(n int) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if n > b.maxTokens-b.reservedTokens-b.usedTokens {
		return false
	}
	b.usedTokens += n
	return true
}

// Free returns n tokens to the budget, never going below zero.
func (b *Budget) Free(n int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.usedTokens -= n
	if b.usedTokens < 0 {
		b.usedTokens = 0
	}
}

// UsagePercent returns percent of the non-reserved budget consumed.
func (b *Budget) UsagePercent() float64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	available := b.maxTokens - b.reservedTokens
	if available == 0 {
		return 0
	}
	return float64(b.usedTokens) / float64(available) * 100
}
