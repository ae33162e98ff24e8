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
	"errors"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/teradata-labs/agentrt/pkg/chat"
)

// Manager is the cache-and-store layer in front of a Repository. The cache
// is organized per user as {user_id -> {session_id -> *ChatSession}}, per
// spec §4.4: cross-user contention is impossible because users are disjoint
// map keys, and the Manager is safe for concurrent read; flushes serialize
// per session id via the ChatSession's own mutex plus the Manager's map
// lock for the cache slot itself.
type Manager struct {
	repo   Repository
	logger *zap.Logger

	mu    sync.RWMutex
	cache map[string]map[string]*chat.ChatSession // user_id -> session_id -> session
}

// NewManager builds a Manager backed by repo. A nil logger installs a
// no-op logger.
func NewManager(repo Repository, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{repo: repo, logger: logger, cache: make(map[string]map[string]*chat.ChatSession)}
}

// Get returns the cached session, loading it from the repository on a
// cache miss and installing it in the cache. A session that exists in
// neither the cache nor the repository returns (nil, nil) — "missing
// sessions return null", not an error.
func (m *Manager) Get(ctx context.Context, sessionID, userID string) (*chat.ChatSession, error) {
	if err := chat.ValidateSessionID(sessionID); err != nil {
		return nil, err
	}

	m.mu.RLock()
	if userSessions, ok := m.cache[userID]; ok {
		if s, ok := userSessions[sessionID]; ok {
			m.mu.RUnlock()
			return s, nil
		}
	}
	m.mu.RUnlock()

	s, err := m.repo.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("session: load %s: %w", sessionID, err)
	}
	if s == nil {
		return nil, nil
	}
	if s.UserID != userID {
		// A loaded session belonging to a different user is a per-user
		// isolation violation; treat it as not found for this caller
		// rather than leaking cross-user data.
		return nil, nil
	}

	m.install(s)
	return s, nil
}

// New installs session in the cache for its own UserID and touches its
// timestamps.
func (m *Manager) New(session *chat.ChatSession) {
	session.Touch()
	m.install(session)
}

func (m *Manager) install(s *chat.ChatSession) {
	m.mu.Lock()
	defer m.mu.Unlock()
	userSessions, ok := m.cache[s.UserID]
	if !ok {
		userSessions = make(map[string]*chat.ChatSession)
		m.cache[s.UserID] = userSessions
	}
	userSessions[s.ID] = s
}

// Delete evicts sessionID from the cache and deletes it durably. If the
// user's map becomes empty afterward, the user key itself is dropped.
func (m *Manager) Delete(ctx context.Context, sessionID, userID string) error {
	if err := chat.ValidateSessionID(sessionID); err != nil {
		return err
	}

	m.mu.Lock()
	if userSessions, ok := m.cache[userID]; ok {
		delete(userSessions, sessionID)
		if len(userSessions) == 0 {
			delete(m.cache, userID)
		}
	}
	m.mu.Unlock()

	if err := m.repo.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("session: delete %s: %w", sessionID, err)
	}
	return nil
}

// Flush persists session durably. Per spec §4.4 it refuses (warn-and-skip,
// not an error) a session that is absent from the cache or has zero
// messages — both scenarios "flushing a session not in cache is a no-op
// with a warning" and "flushing a session with zero messages is a no-op
// with a warning" from §8's boundary properties.
func (m *Manager) Flush(ctx context.Context, sessionID, userID string) error {
	m.mu.RLock()
	userSessions, ok := m.cache[userID]
	var s *chat.ChatSession
	if ok {
		s, ok = userSessions[sessionID]
	}
	m.mu.RUnlock()

	if !ok || s == nil {
		m.logger.Warn("session: flush skipped, not in cache", zap.String("session_id", sessionID), zap.String("user_id", userID))
		return nil
	}
	if s.MessageCount() == 0 {
		m.logger.Warn("session: flush skipped, zero messages", zap.String("session_id", sessionID))
		return nil
	}

	exists, err := m.repo.Exists(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("session: check existence of %s: %w", sessionID, err)
	}
	if exists {
		if err := m.repo.Update(ctx, s); err != nil {
			return fmt.Errorf("session: update %s: %w", sessionID, err)
		}
		return nil
	}
	if err := m.repo.Create(ctx, s); err != nil {
		return fmt.Errorf("session: create %s: %w", sessionID, err)
	}
	return nil
}

// Update is the hook for external mutation sync described by spec §4.4. It
// is a no-op by default: the Manager's cache already holds the
// authoritative in-memory ChatSession pointer, so there is nothing to
// reconcile unless a collaborator layer introduces an out-of-process
// mutation source.
func (m *Manager) Update() {}

// List returns a page of user's sessions sorted by UpdatedAt descending,
// plus the total count before pagination.
func (m *Manager) List(ctx context.Context, userID string, offset, limit int) ([]*chat.ChatSession, int, error) {
	sessions, total, err := m.repo.List(ctx, userID, offset, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("session: list for user %s: %w", userID, err)
	}
	sort.Slice(sessions, func(i, j int) bool { return sessions[i].UpdatedAt.After(sessions[j].UpdatedAt) })
	return sessions, total, nil
}

// Stats reports cache occupancy by user: user_id -> number of cached
// sessions.
func (m *Manager) Stats() map[string]int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]int, len(m.cache))
	for userID, userSessions := range m.cache {
		out[userID] = len(userSessions)
	}
	return out
}
