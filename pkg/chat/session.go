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

// Package chat holds the ChatSession aggregate and the chat message model
// shared by the runtime, bridge, session manager, and event logger.
package chat

import (
	"errors"
	"fmt"
	"regexp"
	"sync"
	"time"

	"github.com/teradata-labs/agentrt/pkg/agentconfig"
)

// mnemonicSlugPattern is the session-id shape: two lowercase word tokens
// joined by a hyphen, e.g. "tiger-castle". GUIDs and every other shape are
// rejected at every boundary that accepts a session id.
var mnemonicSlugPattern = regexp.MustCompile(`^[a-z]+-[a-z]+$`)

// ErrInvalidSessionID is returned (wrapped with the offending id) whenever a
// session id fails the MnemonicSlug pattern.
var ErrInvalidSessionID = errors.New("invalid session ID format")

// ValidateSessionID enforces the MnemonicSlug pattern. It is the single
// choke point every boundary (repository, session manager, bridge) must
// call before touching storage.
func ValidateSessionID(id string) error {
	if id == "" || !mnemonicSlugPattern.MatchString(id) {
		return fmt.Errorf("%w: %q", ErrInvalidSessionID, id)
	}
	return nil
}

// Role is the role of a ChatMessage.
type Role string

const (
	RoleSystem    Role = "system"
	RoleDeveloper Role = "developer"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// BlockType tags a ContentBlock's kind.
type BlockType string

const (
	BlockText  BlockType = "text"
	BlockImage BlockType = "image"
	BlockAudio BlockType = "audio"
	BlockFile  BlockType = "file"
)

// ContentBlock is one typed fragment of a ChatMessage's content.
type ContentBlock struct {
	Type     BlockType `json:"type"`
	Text     string    `json:"text,omitempty"`
	FileID   string    `json:"file_id,omitempty"`
	MimeType string    `json:"mime_type,omitempty"`
}

// ToolCall is one function invocation requested by the model. Name is
// "<toolset><sep><function>"; Arguments is the JSON string assembled from
// streaming argument fragments.
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// ToolResult is the outcome of dispatching a ToolCall, recorded on the
// role-tool ChatMessage that answers it.
type ToolResult struct {
	ToolCallID string `json:"tool_call_id"`
	Content    string `json:"content"`
}

// ChatMessage is one entry of a ChatSession's message history.
type ChatMessage struct {
	Role          Role           `json:"role"`
	Content       []ContentBlock `json:"content,omitempty"`
	ToolCalls     []ToolCall     `json:"tool_calls,omitempty"`
	ToolResults   []ToolResult   `json:"tool_results,omitempty"`
	ToolCallID    string         `json:"tool_call_id,omitempty"`
	Timestamp     time.Time      `json:"timestamp"`
}

// Text returns the concatenation of every text block in the message, the
// common case for plain assistant/user replies.
func (m ChatMessage) Text() string {
	var out string
	for _, b := range m.Content {
		if b.Type == BlockText {
			out += b.Text
		}
	}
	return out
}

// NewTextMessage builds a single-block text message.
func NewTextMessage(role Role, text string) ChatMessage {
	return ChatMessage{
		Role:      role,
		Content:   []ContentBlock{{Type: BlockText, Text: text}},
		Timestamp: time.Now().UTC(),
	}
}

// ChatSession is the aggregate root owned exclusively by one Bridge while
// its connection is open. The Session Manager owns the cache slot; the
// Runtime borrows the session for the duration of one chat() call and only
// appends to Messages.
type ChatSession struct {
	mu sync.RWMutex

	ID          string                         `json:"session_id"`
	UserID      string                         `json:"user_id"`
	AgentConfig agentconfig.AgentConfiguration `json:"agent_config"`
	Messages    []ChatMessage                  `json:"messages"`
	Metadata    map[string]interface{}         `json:"metadata"`
	CreatedAt   time.Time                      `json:"created_at"`
	UpdatedAt   time.Time                      `json:"updated_at"`
	LastActivity time.Time                     `json:"last_activity"`
	IsActive    bool                           `json:"is_active"`
	DisplayName string                         `json:"display_name"`
}

// MetaMetaKey is the reserved metadata submapping used by tool-visible
// views: a flat {prefix: json-string} map.
const MetaMetaKey = "metameta"

// New constructs a ChatSession, validating the session id and stamping
// timestamps. userID must be non-empty.
func New(id, userID string, cfg agentconfig.AgentConfiguration) (*ChatSession, error) {
	if err := ValidateSessionID(id); err != nil {
		return nil, err
	}
	if userID == "" {
		return nil, errors.New("chat: user_id must not be empty")
	}
	now := time.Now().UTC()
	return &ChatSession{
		ID:           id,
		UserID:       userID,
		AgentConfig:  cfg,
		Messages:     nil,
		Metadata:     map[string]interface{}{MetaMetaKey: map[string]string{}},
		CreatedAt:    now,
		UpdatedAt:    now,
		LastActivity: now,
		IsActive:     true,
	}, nil
}

// AppendMessage adds a message and advances UpdatedAt/LastActivity. Index 0
// is treated specially by SetSystemPrompt; AppendMessage always pushes to
// the tail.
func (s *ChatSession) AppendMessage(m ChatMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Messages = append(s.Messages, m)
	now := time.Now().UTC()
	s.UpdatedAt = now
	s.LastActivity = now
}

// SetSystemPrompt creates or overwrites the root message at index 0 with
// the given role and content, per the Runtime's message-array construction
// rule (spec §4.2 step 2).
func (s *ChatSession) SetSystemPrompt(role Role, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	msg := NewTextMessage(role, content)
	if len(s.Messages) == 0 {
		s.Messages = append(s.Messages, msg)
		return
	}
	if s.Messages[0].Role == RoleSystem || s.Messages[0].Role == RoleDeveloper {
		s.Messages[0] = msg
		return
	}
	s.Messages = append([]ChatMessage{msg}, s.Messages...)
}

// Snapshot returns a copy of the current message slice, safe to range over
// without holding the session lock.
func (s *ChatSession) Snapshot() []ChatMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ChatMessage, len(s.Messages))
	copy(out, s.Messages)
	return out
}

// MessageCount reports the number of messages, used by the Session
// Manager's flush-refuses-on-empty rule.
func (s *ChatSession) MessageCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.Messages)
}

// Touch advances LastActivity without mutating Messages.
func (s *ChatSession) Touch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.LastActivity = time.Now().UTC()
}
