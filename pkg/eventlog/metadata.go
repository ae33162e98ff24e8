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
package eventlog

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// sessionMetadata is the session_metadata.json cache file kept alongside a
// session's JSONL files, so a directory listing doesn't need to scan every
// event to answer "when did this session run and how many events does it
// have" (SPEC_FULL.md §C, drawn from original_source/).
type sessionMetadata struct {
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	DurationSec float64   `json:"duration_seconds"`
	EventCount  int       `json:"event_count"`
}

// metadataCache reads and incrementally rewrites one session's
// session_metadata.json. A missing or corrupt file triggers a full rescan
// of the session's JSONL files rather than failing the write path.
type metadataCache struct {
	baseDir   string
	sessionID string

	mu    sync.Mutex
	cache sessionMetadata
	ready bool
}

func newMetadataCache(baseDir, sessionID string) *metadataCache {
	return &metadataCache{baseDir: baseDir, sessionID: sessionID}
}

func (m *metadataCache) path() string {
	return filepath.Join(m.baseDir, m.sessionID, "session_metadata.json")
}

// record folds one newly-appended event into the cache and persists it.
func (m *metadataCache) record(at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.ready {
		if err := m.load(); err != nil {
			if err := m.rescan(); err != nil {
				return err
			}
			// The rescan already counted the event the caller just
			// appended to the JSONL file.
			m.ready = true
			return m.save()
		}
		m.ready = true
	}

	if m.cache.StartTime.IsZero() || at.Before(m.cache.StartTime) {
		m.cache.StartTime = at
	}
	if at.After(m.cache.EndTime) {
		m.cache.EndTime = at
	}
	m.cache.EventCount++
	m.cache.DurationSec = m.cache.EndTime.Sub(m.cache.StartTime).Seconds()
	return m.save()
}

func (m *metadataCache) load() error {
	b, err := os.ReadFile(m.path())
	if err != nil {
		return err
	}
	var meta sessionMetadata
	if err := json.Unmarshal(b, &meta); err != nil {
		return err
	}
	m.cache = meta
	return nil
}

func (m *metadataCache) save() error {
	if err := os.MkdirAll(filepath.Dir(m.path()), 0o755); err != nil {
		return err
	}
	b, err := json.MarshalIndent(m.cache, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(m.path(), b, 0o644)
}

// rescan rebuilds the cache from the session's JSONL files when the cache
// file is missing or unparsable, per spec's "invalid or missing metadata
// triggers rescan" rule.
func (m *metadataCache) rescan() error {
	files, err := sortedJSONLFiles(m.baseDir, m.sessionID)
	if err != nil {
		return err
	}
	var meta sessionMetadata
	for _, path := range files {
		b, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		lines := splitLines(b)
		for _, line := range lines {
			if len(line) == 0 {
				continue
			}
			var rec record
			if err := json.Unmarshal(line, &rec); err != nil {
				continue
			}
			if meta.StartTime.IsZero() || rec.Timestamp.Before(meta.StartTime) {
				meta.StartTime = rec.Timestamp
			}
			if rec.Timestamp.After(meta.EndTime) {
				meta.EndTime = rec.Timestamp
			}
			meta.EventCount++
		}
	}
	meta.DurationSec = meta.EndTime.Sub(meta.StartTime).Seconds()
	m.cache = meta
	return nil
}

func splitLines(b []byte) [][]byte {
	var out [][]byte
	start := 0
	for i, c := range b {
		if c == '\n' {
			out = append(out, b[start:i])
			start = i + 1
		}
	}
	if start < len(b) {
		out = append(out, b[start:])
	}
	return out
}
