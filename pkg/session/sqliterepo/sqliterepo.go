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

// Package sqliterepo implements session.Repository on SQLite
// (modernc.org/sqlite, pure Go, no cgo). Spec §4.4 names a Redis-shaped
// key-value store as the reference backend but is explicit that "no
// behavior in the core depends on Redis specifically"; this module grounds
// the reference repository on the teacher's own SQLite-backed
// session_store.go instead (see DESIGN.md's Open Question resolution),
// preserving the same external contract and the same key-structure shape:
// "session:{id}:data"/"session:{id}:meta" become columns on one row,
// "sessions:by-user:{user_id}" becomes an indexed column.
package sqliterepo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"github.com/teradata-labs/agentrt/pkg/chat"
	"github.com/teradata-labs/agentrt/pkg/session"
)

// Repository is a session.Repository backed by one SQLite database file.
type Repository struct {
	db *sql.DB

	calls  atomic.Int64
	errors atomic.Int64
}

// Open opens (creating if necessary) the SQLite database at path, enables
// WAL mode for concurrent readers, and ensures the schema exists.
func Open(path string) (*Repository, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqliterepo: open %s: %w", path, err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqliterepo: enable WAL: %w", err)
	}
	r := &Repository{db: db}
	if err := r.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return r, nil
}

func (r *Repository) initSchema() error {
	const schema = `
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		data TEXT NOT NULL,
		meta TEXT,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_sessions_by_user ON sessions(user_id, updated_at DESC);
	`
	_, err := r.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("sqliterepo: init schema: %w", err)
	}
	return nil
}

// Close releases the underlying *sql.DB.
func (r *Repository) Close() error { return r.db.Close() }

func (r *Repository) track(err error) error {
	r.calls.Add(1)
	if err != nil && err != sql.ErrNoRows && !errors.Is(err, session.ErrNotFound) {
		r.errors.Add(1)
	}
	return err
}

// Create inserts a new session row. s.ID must already be a valid
// MnemonicSlug — every Repository boundary rejects anything else.
func (r *Repository) Create(ctx context.Context, s *chat.ChatSession) error {
	if err := chat.ValidateSessionID(s.ID); err != nil {
		return err
	}
	data, meta, err := encode(s)
	if err != nil {
		return r.track(err)
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO sessions (id, user_id, data, meta, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		s.ID, s.UserID, data, meta, s.CreatedAt.Unix(), s.UpdatedAt.Unix(),
	)
	return r.track(wrapErr("create", s.ID, err))
}

// Get loads one session by id. A missing row returns session.ErrNotFound.
func (r *Repository) Get(ctx context.Context, sessionID string) (*chat.ChatSession, error) {
	if err := chat.ValidateSessionID(sessionID); err != nil {
		return nil, err
	}
	row := r.db.QueryRowContext(ctx, `SELECT data FROM sessions WHERE id = ?`, sessionID)
	var data string
	if err := row.Scan(&data); err != nil {
		if err == sql.ErrNoRows {
			r.track(nil)
			return nil, session.ErrNotFound
		}
		return nil, r.track(wrapErr("get", sessionID, err))
	}
	r.track(nil)
	var s chat.ChatSession
	if err := json.Unmarshal([]byte(data), &s); err != nil {
		return nil, fmt.Errorf("sqliterepo: decode session %s: %w", sessionID, err)
	}
	return &s, nil
}

// Update overwrites an existing session row.
func (r *Repository) Update(ctx context.Context, s *chat.ChatSession) error {
	if err := chat.ValidateSessionID(s.ID); err != nil {
		return err
	}
	data, meta, err := encode(s)
	if err != nil {
		return r.track(err)
	}
	result, err := r.db.ExecContext(ctx,
		`UPDATE sessions SET user_id = ?, data = ?, meta = ?, updated_at = ? WHERE id = ?`,
		s.UserID, data, meta, s.UpdatedAt.Unix(), s.ID,
	)
	if err != nil {
		return r.track(wrapErr("update", s.ID, err))
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return r.track(fmt.Errorf("sqliterepo: update %s: %w", s.ID, session.ErrNotFound))
	}
	return r.track(nil)
}

// Delete removes a session row. Deleting an absent id is not an error.
func (r *Repository) Delete(ctx context.Context, sessionID string) error {
	if err := chat.ValidateSessionID(sessionID); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, sessionID)
	return r.track(wrapErr("delete", sessionID, err))
}

// Exists reports whether sessionID has a row.
func (r *Repository) Exists(ctx context.Context, sessionID string) (bool, error) {
	if err := chat.ValidateSessionID(sessionID); err != nil {
		return false, err
	}
	row := r.db.QueryRowContext(ctx, `SELECT 1 FROM sessions WHERE id = ?`, sessionID)
	var one int
	if err := row.Scan(&one); err != nil {
		if err == sql.ErrNoRows {
			r.track(nil)
			return false, nil
		}
		return false, r.track(wrapErr("exists", sessionID, err))
	}
	r.track(nil)
	return true, nil
}

// List returns a page of userID's sessions ordered by updated_at
// descending, plus the total row count for that user.
func (r *Repository) List(ctx context.Context, userID string, offset, limit int) ([]*chat.ChatSession, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sessions WHERE user_id = ?`, userID).Scan(&total); err != nil {
		return nil, 0, r.track(fmt.Errorf("sqliterepo: count for user %s: %w", userID, err))
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT data FROM sessions WHERE user_id = ? ORDER BY updated_at DESC LIMIT ? OFFSET ?`,
		userID, limit, offset,
	)
	if err != nil {
		return nil, 0, r.track(fmt.Errorf("sqliterepo: list for user %s: %w", userID, err))
	}
	defer rows.Close()

	var out []*chat.ChatSession
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, 0, r.track(err)
		}
		var s chat.ChatSession
		if err := json.Unmarshal([]byte(data), &s); err != nil {
			return nil, 0, fmt.Errorf("sqliterepo: decode listed session: %w", err)
		}
		out = append(out, &s)
	}
	r.track(rows.Err())
	return out, total, rows.Err()
}

// Ping verifies connectivity, satisfying session.HealthChecker.
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Latency measures a round-trip no-op query's duration.
func (r *Repository) Latency(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if err := r.db.PingContext(ctx); err != nil {
		return 0, err
	}
	return time.Since(start), nil
}

// ErrorRate is the fraction of tracked calls since Open that returned a
// non-ErrNotFound error.
func (r *Repository) ErrorRate() float64 {
	calls := r.calls.Load()
	if calls == 0 {
		return 0
	}
	return float64(r.errors.Load()) / float64(calls)
}

// sessionMeta mirrors the spec's "session:{id}:meta" half of the key
// structure: a small projection kept alongside the full data blob so a
// listing can be served without decoding every session's full message
// history (not yet consumed directly, but the shape a health/listing
// collaborator would want; full data remains authoritative).
type sessionMeta struct {
	DisplayName  string    `json:"display_name"`
	MessageCount int       `json:"message_count"`
	IsActive     bool      `json:"is_active"`
	LastActivity time.Time `json:"last_activity"`
}

func encode(s *chat.ChatSession) (data string, meta string, err error) {
	b, err := json.Marshal(s)
	if err != nil {
		return "", "", fmt.Errorf("sqliterepo: encode session %s: %w", s.ID, err)
	}
	m := sessionMeta{
		DisplayName:  s.DisplayName,
		MessageCount: len(s.Messages),
		IsActive:     s.IsActive,
		LastActivity: s.LastActivity,
	}
	mb, err := json.Marshal(m)
	if err != nil {
		return "", "", fmt.Errorf("sqliterepo: encode meta %s: %w", s.ID, err)
	}
	return string(b), string(mb), nil
}

func wrapErr(op, sessionID string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("sqliterepo: %s %s: %w", op, sessionID, err)
}

var _ session.Repository = (*Repository)(nil)
var _ session.HealthChecker = (*Repository)(nil)
