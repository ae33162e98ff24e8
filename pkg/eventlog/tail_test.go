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
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTail_ReturnsLastNEventsFromSingleFile(t *testing.T) {
	dir := t.TempDir()
	w := newJSONLWriter(dir, "tiger-castle")
	for i := 0; i < 10; i++ {
		_, err := w.append(mustTextDelta(t, "tiger-castle", "event"))
		require.NoError(t, err)
	}

	out, err := Tail(dir, "tiger-castle", 4)
	require.NoError(t, err)
	assert.Len(t, out, 4)
}

func TestTail_NRequestsBeyondAvailableReturnsWhatExists(t *testing.T) {
	dir := t.TempDir()
	w := newJSONLWriter(dir, "tiger-castle")
	_, err := w.append(mustTextDelta(t, "tiger-castle", "event"))
	require.NoError(t, err)

	out, err := Tail(dir, "tiger-castle", 50)
	require.NoError(t, err)
	assert.Len(t, out, 1)
}

func TestTail_ZeroOrNegativeNReturnsNothing(t *testing.T) {
	dir := t.TempDir()
	out, err := Tail(dir, "tiger-castle", 0)
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestTail_NoSessionDirectoryReturnsEmptyNotError(t *testing.T) {
	dir := t.TempDir()
	out, err := Tail(dir, "ghost-river", 10)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestTail_DiscardsTrailingPartialLine(t *testing.T) {
	dir := t.TempDir()
	w := newJSONLWriter(dir, "tiger-castle")
	_, err := w.append(mustTextDelta(t, "tiger-castle", "event"))
	require.NoError(t, err)
	require.NoError(t, w.close())

	// Append a truncated, non-JSON trailing line directly, simulating a
	// reader racing a writer mid-append.
	files, err := sortedJSONLFiles(dir, "tiger-castle")
	require.NoError(t, err)
	require.Len(t, files, 1)
	f, err := os.OpenFile(files[0], os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString(`{"timestamp":"2026-01-01T00:00:00Z","event":{"incomple`)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	out, err := Tail(dir, "tiger-castle", 5)
	require.NoError(t, err)
	assert.Len(t, out, 1, "the malformed trailing line must be discarded, not fail the tail")
}
