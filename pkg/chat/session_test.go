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
package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teradata-labs/agentrt/pkg/agentconfig"
)

func TestValidateSessionID_AcceptsMnemonicSlug(t *testing.T) {
	assert.NoError(t, ValidateSessionID("tiger-castle"))
}

func TestValidateSessionID_RejectsGUID(t *testing.T) {
	err := ValidateSessionID("550e8400-e29b-41d4-a716-446655440000")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidSessionID)
	assert.Contains(t, err.Error(), "invalid session ID format")
}

func TestValidateSessionID_RejectsEmptyAndMalformed(t *testing.T) {
	for _, id := range []string{"", "TigerCastle", "tiger_castle", "tiger-castle-extra", "tiger", "-castle", "tiger-"} {
		assert.Error(t, ValidateSessionID(id), "expected %q to be rejected", id)
	}
}

func TestNew_ValidatesSessionIDAndUserID(t *testing.T) {
	_, err := New("not valid", "user-1", agentconfig.AgentConfiguration{})
	assert.Error(t, err)

	_, err = New("tiger-castle", "", agentconfig.AgentConfiguration{})
	assert.Error(t, err)

	s, err := New("tiger-castle", "user-1", agentconfig.AgentConfiguration{Persona: "p"})
	require.NoError(t, err)
	assert.Equal(t, "tiger-castle", s.ID)
	assert.Equal(t, "user-1", s.UserID)
	assert.True(t, s.IsActive)
}

func TestNew_UpdatedAtNeverPrecedesCreatedAt(t *testing.T) {
	s, err := New("tiger-castle", "user-1", agentconfig.AgentConfiguration{})
	require.NoError(t, err)
	assert.False(t, s.UpdatedAt.Before(s.CreatedAt))
}

func TestAppendMessage_AdvancesUpdatedAtWithoutPrecedingCreatedAt(t *testing.T) {
	s, err := New("tiger-castle", "user-1", agentconfig.AgentConfiguration{})
	require.NoError(t, err)
	before := s.UpdatedAt

	s.AppendMessage(NewTextMessage(RoleUser, "hi"))

	assert.False(t, s.UpdatedAt.Before(before))
	assert.False(t, s.UpdatedAt.Before(s.CreatedAt))
	assert.Len(t, s.Messages, 1)
}

func TestSetSystemPrompt_InsertsRootWhenEmpty(t *testing.T) {
	s, err := New("tiger-castle", "user-1", agentconfig.AgentConfiguration{})
	require.NoError(t, err)

	s.SetSystemPrompt(RoleSystem, "be helpful")
	require.Len(t, s.Messages, 1)
	assert.Equal(t, RoleSystem, s.Messages[0].Role)
	assert.Equal(t, "be helpful", s.Messages[0].Text())
}

func TestSetSystemPrompt_RewritesExistingRootInPlace(t *testing.T) {
	s, err := New("tiger-castle", "user-1", agentconfig.AgentConfiguration{})
	require.NoError(t, err)
	s.SetSystemPrompt(RoleSystem, "first persona")
	s.AppendMessage(NewTextMessage(RoleUser, "hi"))

	s.SetSystemPrompt(RoleDeveloper, "second persona")

	require.Len(t, s.Messages, 2)
	assert.Equal(t, RoleDeveloper, s.Messages[0].Role)
	assert.Equal(t, "second persona", s.Messages[0].Text())
	assert.Equal(t, RoleUser, s.Messages[1].Role)
}

func TestSetSystemPrompt_PrependsWhenRootIsNotSystemOrDeveloper(t *testing.T) {
	s, err := New("tiger-castle", "user-1", agentconfig.AgentConfiguration{})
	require.NoError(t, err)
	s.AppendMessage(NewTextMessage(RoleUser, "hi"))

	s.SetSystemPrompt(RoleSystem, "persona")

	require.Len(t, s.Messages, 2)
	assert.Equal(t, RoleSystem, s.Messages[0].Role)
	assert.Equal(t, RoleUser, s.Messages[1].Role)
}

func TestSnapshot_IsIndependentOfFutureAppends(t *testing.T) {
	s, err := New("tiger-castle", "user-1", agentconfig.AgentConfiguration{})
	require.NoError(t, err)
	s.AppendMessage(NewTextMessage(RoleUser, "hi"))

	snap := s.Snapshot()
	s.AppendMessage(NewTextMessage(RoleAssistant, "hello"))

	assert.Len(t, snap, 1)
	assert.Equal(t, 2, s.MessageCount())
}

func TestChatMessage_TextConcatenatesOnlyTextBlocks(t *testing.T) {
	m := ChatMessage{Content: []ContentBlock{
		{Type: BlockText, Text: "a"},
		{Type: BlockImage, Text: "ignored"},
		{Type: BlockText, Text: "b"},
	}}
	assert.Equal(t, "ab", m.Text())
}
