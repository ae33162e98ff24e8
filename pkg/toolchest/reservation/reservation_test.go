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
package reservation

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReserveRows_RejectsNonPositiveCount(t *testing.T) {
	m := New()
	_, _, err := m.ReserveRows("sheet1", 0, 0, "agent-a")
	assert.Error(t, err)
	_, _, err = m.ReserveRows("sheet1", -1, 0, "agent-a")
	assert.Error(t, err)
}

func TestReserveRows_SeedsFromCurrentMaxRowOnlyOnFirstSight(t *testing.T) {
	m := New()
	_, rng1, err := m.ReserveRows("sheet1", 5, 100, "agent-a")
	require.NoError(t, err)
	assert.Equal(t, 100, rng1.StartRow)
	assert.Equal(t, 105, rng1.EndRow)

	_, rng2, err := m.ReserveRows("sheet1", 5, 9999, "agent-b")
	require.NoError(t, err)
	assert.Equal(t, 105, rng2.StartRow, "currentMaxRow must be ignored once the sheet is already tracked")
	assert.Equal(t, 110, rng2.EndRow)
}

func TestReserveRows_DifferentSheetsAreIndependent(t *testing.T) {
	m := New()
	_, rngA, err := m.ReserveRows("sheet1", 5, 0, "agent-a")
	require.NoError(t, err)
	_, rngB, err := m.ReserveRows("sheet2", 5, 0, "agent-a")
	require.NoError(t, err)
	assert.Equal(t, 0, rngA.StartRow)
	assert.Equal(t, 0, rngB.StartRow)
}

func TestRelease_DoesNotRewindCursor(t *testing.T) {
	m := New()
	id, _, err := m.ReserveRows("sheet1", 10, 0, "agent-a")
	require.NoError(t, err)
	m.Release(id)

	_, ok := m.Lookup(id)
	assert.False(t, ok)

	_, rng, err := m.ReserveRows("sheet1", 5, 0, "agent-b")
	require.NoError(t, err)
	assert.Equal(t, 10, rng.StartRow, "released rows must never be reissued")
}

func TestLookup_ReturnsRangeForKnownReservation(t *testing.T) {
	m := New()
	id, rng, err := m.ReserveRows("sheet1", 3, 0, "agent-a")
	require.NoError(t, err)

	got, ok := m.Lookup(id)
	require.True(t, ok)
	assert.Equal(t, rng, got)
}

func TestLookup_FalseForUnknownReservation(t *testing.T) {
	m := New()
	_, ok := m.Lookup("does-not-exist")
	assert.False(t, ok)
}

func TestNextFreeRow_DefaultsToZeroForUnseenSheet(t *testing.T) {
	m := New()
	assert.Equal(t, 0, m.NextFreeRow("never-reserved"))
}

// TestReserveRows_ConcurrentCallsYieldDisjointRanges races many goroutines
// reserving rows on the same sheet and asserts every pair of returned ranges
// is disjoint. Run with -race to catch any data race in the cursor update.
func TestReserveRows_ConcurrentCallsYieldDisjointRanges(t *testing.T) {
	m := New()
	const goroutines = 50
	const perGoroutine = 20

	var wg sync.WaitGroup
	ranges := make([]Range, 0, goroutines*perGoroutine)
	var mu sync.Mutex

	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func(agentID int) {
			defer wg.Done()
			for i := 0; i < perGoroutine; i++ {
				_, rng, err := m.ReserveRows("shared-sheet", 3, 0, "agent")
				require.NoError(t, err)
				mu.Lock()
				ranges = append(ranges, rng)
				mu.Unlock()
			}
		}(g)
	}
	wg.Wait()

	require.Len(t, ranges, goroutines*perGoroutine)
	for i := 0; i < len(ranges); i++ {
		for j := i + 1; j < len(ranges); j++ {
			a, b := ranges[i], ranges[j]
			disjoint := a.EndRow <= b.StartRow || b.EndRow <= a.StartRow
			assert.True(t, disjoint, "ranges overlap: %+v vs %+v", a, b)
		}
	}
}
