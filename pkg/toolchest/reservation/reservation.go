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

// Package reservation implements the row-reservation substrate concurrent
// tools use to claim disjoint write ranges on a shared sheet-like target
// (spec §5's ConcurrencyManager), so two agents writing to the same sheet
// concurrently never collide on the same row.
package reservation

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Range is a reserved, disjoint span of rows on one sheet.
type Range struct {
	Sheet    string
	AgentID  string
	StartRow int
	EndRow   int // exclusive
}

// ConcurrencyManager tracks the next free row per sheet and the ranges it
// has handed out, keyed by reservation ID.
type ConcurrencyManager struct {
	mu           sync.Mutex
	nextFreeRow  map[string]int
	reservations map[string]Range
}

// New builds an empty ConcurrencyManager.
func New() *ConcurrencyManager {
	return &ConcurrencyManager{
		nextFreeRow:  make(map[string]int),
		reservations: make(map[string]Range),
	}
}

// ReserveRows atomically advances sheet's free-row cursor by count and
// returns a reservation ID plus the disjoint range granted. currentMaxRow
// seeds the cursor the first time a sheet is seen (e.g. from an existing
// spreadsheet's current row count); subsequent calls ignore it and use the
// manager's own tracked cursor, so two reservations for the same sheet
// never overlap regardless of how stale the caller's view of the sheet is.
func (m *ConcurrencyManager) ReserveRows(sheet string, count, currentMaxRow int, agentID string) (string, Range, error) {
	if count <= 0 {
		return "", Range{}, fmt.Errorf("reservation: count must be positive, got %d", count)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	start, seen := m.nextFreeRow[sheet]
	if !seen {
		start = currentMaxRow
	}
	end := start + count
	m.nextFreeRow[sheet] = end

	id := uuid.NewString()
	rng := Range{Sheet: sheet, AgentID: agentID, StartRow: start, EndRow: end}
	m.reservations[id] = rng
	return id, rng, nil
}

// Release frees a reservation's bookkeeping without rewinding the sheet's
// cursor — rows already reserved are never handed out again, even if the
// reservation that claimed them is released unused, since a partial write
// may already have landed in that range.
func (m *ConcurrencyManager) Release(reservationID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.reservations, reservationID)
}

// Lookup returns the range for a reservation ID.
func (m *ConcurrencyManager) Lookup(reservationID string) (Range, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rng, ok := m.reservations[reservationID]
	return rng, ok
}

// NextFreeRow reports the current cursor for a sheet, 0 if unseen.
func (m *ConcurrencyManager) NextFreeRow(sheet string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.nextFreeRow[sheet]
}
