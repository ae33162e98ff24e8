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
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/teradata-labs/agentrt/pkg/events"
)

// jsonlWriter appends one JSON record per line to
// {baseDir}/{sessionID}/events-{YYYYMMDD}.jsonl, rolling to a new file
// when the wall-clock date changes mid-session (spec §4.5).
type jsonlWriter struct {
	baseDir   string
	sessionID string

	mu      sync.Mutex
	file    *os.File
	day     string
	entries int
}

func newJSONLWriter(baseDir, sessionID string) *jsonlWriter {
	return &jsonlWriter{baseDir: baseDir, sessionID: sessionID}
}

func (w *jsonlWriter) sessionDir() string {
	return filepath.Join(w.baseDir, w.sessionID)
}

func (w *jsonlWriter) pathFor(day string) string {
	return filepath.Join(w.sessionDir(), fmt.Sprintf("events-%s.jsonl", day))
}

// append writes one event's record to the current day's file, opening or
// rolling the file as needed. It returns the total entry count written by
// this writer since construction, used by metadata tracking.
func (w *jsonlWriter) append(evt events.Event) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	ts := events.LoggedAt()
	day := ts.Format("20060102")
	if w.file == nil || day != w.day {
		if w.file != nil {
			w.file.Close()
		}
		if err := os.MkdirAll(w.sessionDir(), 0o755); err != nil {
			return w.entries, fmt.Errorf("eventlog: create session dir: %w", err)
		}
		f, err := os.OpenFile(w.pathFor(day), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return w.entries, fmt.Errorf("eventlog: open jsonl file: %w", err)
		}
		w.file = f
		w.day = day
	}

	rec, err := newRecord(ts, evt)
	if err != nil {
		return w.entries, fmt.Errorf("eventlog: encode event: %w", err)
	}
	b, err := json.Marshal(rec)
	if err != nil {
		return w.entries, fmt.Errorf("eventlog: marshal event: %w", err)
	}
	b = append(b, '\n')
	if _, err := w.file.Write(b); err != nil {
		return w.entries, fmt.Errorf("eventlog: write jsonl: %w", err)
	}
	w.entries++
	return w.entries, nil
}

func (w *jsonlWriter) close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file = nil
	return err
}

// sortedJSONLFiles returns the events-*.jsonl files under a session's
// directory in ascending (oldest-day-first) order, for tail.go's reverse
// scan and any full-history replay.
func sortedJSONLFiles(baseDir, sessionID string) ([]string, error) {
	dir := filepath.Join(baseDir, sessionID)
	matches, err := filepath.Glob(filepath.Join(dir, "events-*.jsonl"))
	if err != nil {
		return nil, fmt.Errorf("eventlog: glob session dir: %w", err)
	}
	for i := 1; i < len(matches); i++ {
		for j := i; j > 0 && matches[j-1] > matches[j]; j-- {
			matches[j-1], matches[j] = matches[j], matches[j-1]
		}
	}
	return matches, nil
}
