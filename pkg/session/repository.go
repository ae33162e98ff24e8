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

// Package session implements the Session Manager: a per-user cache of
// ChatSession objects backed by a pluggable Repository, per spec §4.4.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/teradata-labs/agentrt/pkg/chat"
)

// ErrNotFound is returned by a Repository when a session id isn't durably
// stored. Manager.Get treats it as a cache miss, not a hard failure.
var ErrNotFound = errors.New("session: not found")

// Repository is the storage-engine contract the Session Manager flushes
// through. The reference implementation (pkg/session/sqliterepo) backs it
// with SQLite; spec §4.4 explicitly allows any key-value-shaped backend —
// no core behavior here depends on which one is wired.
type Repository interface {
	Create(ctx context.Context, s *chat.ChatSession) error
	Get(ctx context.Context, sessionID string) (*chat.ChatSession, error)
	Update(ctx context.Context, s *chat.ChatSession) error
	Delete(ctx context.Context, sessionID string) error
	List(ctx context.Context, userID string, offset, limit int) ([]*chat.ChatSession, int, error)
	Exists(ctx context.Context, sessionID string) (bool, error)
}

// HealthChecker is the non-critical health-check interface a Repository
// may additionally implement (spec §4.4 "Health is surfaced through a
// non-critical health-check interface"). Callers type-assert for it rather
// than requiring it of every Repository.
type HealthChecker interface {
	Ping(ctx context.Context) error
	Latency(ctx context.Context) (time.Duration, error)
	ErrorRate() float64
}
