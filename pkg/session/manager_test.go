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
package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teradata-labs/agentrt/pkg/agentconfig"
	"github.com/teradata-labs/agentrt/pkg/chat"
)

// fakeRepo is an in-memory Repository stub for exercising Manager without a
// real storage engine.
type fakeRepo struct {
	mu       sync.Mutex
	sessions map[string]*chat.ChatSession
	creates  int
	updates  int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{sessions: make(map[string]*chat.ChatSession)}
}

func (r *fakeRepo) Create(ctx context.Context, s *chat.ChatSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.creates++
	r.sessions[s.ID] = s
	return nil
}

func (r *fakeRepo) Get(ctx context.Context, sessionID string) (*chat.ChatSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[sessionID]
	if !ok {
		return nil, ErrNotFound
	}
	return s, nil
}

func (r *fakeRepo) Update(ctx context.Context, s *chat.ChatSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates++
	r.sessions[s.ID] = s
	return nil
}

func (r *fakeRepo) Delete(ctx context.Context, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, sessionID)
	return nil
}

func (r *fakeRepo) List(ctx context.Context, userID string, offset, limit int) ([]*chat.ChatSession, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*chat.ChatSession
	for _, s := range r.sessions {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	total := len(out)
	if offset > len(out) {
		offset = len(out)
	}
	end := offset + limit
	if end > len(out) {
		end = len(out)
	}
	return out[offset:end], total, nil
}

func (r *fakeRepo) Exists(ctx context.Context, sessionID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.sessions[sessionID]
	return ok, nil
}

func newTestSession(t *testing.T, id, userID string) *chat.ChatSession {
	t.Helper()
	s, err := chat.New(id, userID, agentconfig.AgentConfiguration{Persona: "test"})
	require.NoError(t, err)
	return s
}

func TestManager_GetCacheMissLoadsFromRepository(t *testing.T) {
	repo := newFakeRepo()
	s := newTestSession(t, "tiger-castle", "user-1")
	require.NoError(t, repo.Create(context.Background(), s))

	m := NewManager(repo, nil)
	got, err := m.Get(context.Background(), "tiger-castle", "user-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "tiger-castle", got.ID)
}

func TestManager_GetMissingReturnsNilNotError(t *testing.T) {
	m := NewManager(newFakeRepo(), nil)
	got, err := m.Get(context.Background(), "ghost-river", "user-1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestManager_GetInvalidSessionIDErrors(t *testing.T) {
	m := NewManager(newFakeRepo(), nil)
	_, err := m.Get(context.Background(), "not valid", "user-1")
	assert.Error(t, err)
}

func TestManager_GetCrossUserSessionTreatedAsNotFound(t *testing.T) {
	repo := newFakeRepo()
	s := newTestSession(t, "tiger-castle", "user-1")
	require.NoError(t, repo.Create(context.Background(), s))

	m := NewManager(repo, nil)
	got, err := m.Get(context.Background(), "tiger-castle", "user-2")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestManager_NewInstallsInCache(t *testing.T) {
	repo := newFakeRepo()
	m := NewManager(repo, nil)
	s := newTestSession(t, "tiger-castle", "user-1")

	m.New(s)

	stats := m.Stats()
	assert.Equal(t, 1, stats["user-1"])

	got, err := m.Get(context.Background(), "tiger-castle", "user-1")
	require.NoError(t, err)
	assert.Same(t, s, got)
}

func TestManager_FlushSkippedWhenNotInCache(t *testing.T) {
	repo := newFakeRepo()
	m := NewManager(repo, nil)

	err := m.Flush(context.Background(), "tiger-castle", "user-1")
	require.NoError(t, err)
	assert.Equal(t, 0, repo.creates)
}

func TestManager_FlushSkippedWhenZeroMessages(t *testing.T) {
	repo := newFakeRepo()
	m := NewManager(repo, nil)
	s := newTestSession(t, "tiger-castle", "user-1")
	m.New(s)

	err := m.Flush(context.Background(), "tiger-castle", "user-1")
	require.NoError(t, err)
	assert.Equal(t, 0, repo.creates)
}

func TestManager_FlushCreatesThenUpdates(t *testing.T) {
	repo := newFakeRepo()
	m := NewManager(repo, nil)
	s := newTestSession(t, "tiger-castle", "user-1")
	s.AppendMessage(chat.NewTextMessage(chat.RoleUser, "hi"))
	m.New(s)

	require.NoError(t, m.Flush(context.Background(), "tiger-castle", "user-1"))
	assert.Equal(t, 1, repo.creates)
	assert.Equal(t, 0, repo.updates)

	s.AppendMessage(chat.NewTextMessage(chat.RoleAssistant, "hello back"))
	require.NoError(t, m.Flush(context.Background(), "tiger-castle", "user-1"))
	assert.Equal(t, 1, repo.creates)
	assert.Equal(t, 1, repo.updates)
}

func TestManager_DeleteEvictsCacheAndRepo(t *testing.T) {
	repo := newFakeRepo()
	m := NewManager(repo, nil)
	s := newTestSession(t, "tiger-castle", "user-1")
	m.New(s)
	require.NoError(t, repo.Create(context.Background(), s))

	require.NoError(t, m.Delete(context.Background(), "tiger-castle", "user-1"))

	assert.Equal(t, 0, len(m.Stats()))
	exists, err := repo.Exists(context.Background(), "tiger-castle")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestManager_ListSortsByUpdatedAtDescending(t *testing.T) {
	repo := newFakeRepo()
	m := NewManager(repo, nil)

	older := newTestSession(t, "tiger-castle", "user-1")
	newer := newTestSession(t, "ghost-river", "user-1")
	newer.UpdatedAt = older.UpdatedAt.Add(time.Hour)

	require.NoError(t, repo.Create(context.Background(), older))
	require.NoError(t, repo.Create(context.Background(), newer))

	sessions, total, err := m.List(context.Background(), "user-1", 0, 10)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, sessions, 2)
	assert.Equal(t, "ghost-river", sessions[0].ID)
}

func TestManager_StatsReflectsPerUserCacheOccupancy(t *testing.T) {
	m := NewManager(newFakeRepo(), nil)
	m.New(newTestSession(t, "tiger-castle", "user-1"))
	m.New(newTestSession(t, "ghost-river", "user-1"))
	m.New(newTestSession(t, "amber-lantern", "user-2"))

	stats := m.Stats()
	assert.Equal(t, 2, stats["user-1"])
	assert.Equal(t, 1, stats["user-2"])
}
