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
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/teradata-labs/agentrt/pkg/events"
)

const tailInitialChunk = 1 << 20 // 1MB, per SPEC_FULL.md §C

// Tail returns the last n decoded events for a session, reading the
// session's JSONL files newest first and scanning each backward from its
// end in growing chunks, rather than reading whole files forward (SPEC_FULL.md
// §C, drawn from original_source/). A partial or corrupt final line (the
// writer was mid-append when the file was read) is discarded rather than
// failing the whole tail.
func Tail(baseDir, sessionID string, n int) ([]events.Event, error) {
	if n <= 0 {
		return nil, nil
	}
	files, err := sortedJSONLFiles(baseDir, sessionID)
	if err != nil {
		return nil, err
	}
	var out []events.Event
	for i := len(files) - 1; i >= 0 && len(out) < n; i-- {
		lines, err := tailLines(files[i], n-len(out))
		if err != nil {
			return nil, err
		}
		decoded := make([]events.Event, 0, len(lines))
		for _, line := range lines {
			var rec record
			if err := json.Unmarshal(line, &rec); err != nil {
				continue
			}
			evt, err := events.Decode(rec.Event)
			if err != nil {
				continue
			}
			decoded = append(decoded, evt)
		}
		out = append(decoded, out...)
	}
	if len(out) > n {
		out = out[len(out)-n:]
	}
	return out, nil
}

// tailLines reads the last n complete lines from path, doubling its read
// chunk from tailInitialChunk until it has enough lines or has consumed
// the whole file; the final pass then holds the file from its first byte,
// so no line is cut off at the chunk boundary.
func tailLines(path string, n int) ([][]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("eventlog: open %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("eventlog: stat %s: %w", path, err)
	}
	size := info.Size()
	if size == 0 {
		return nil, nil
	}

	chunk := int64(tailInitialChunk)
	for {
		readFrom := size - chunk
		if readFrom < 0 {
			readFrom = 0
		}
		buf := make([]byte, size-readFrom)
		if _, err := f.ReadAt(buf, readFrom); err != nil {
			return nil, fmt.Errorf("eventlog: read %s: %w", path, err)
		}

		lines := bytes.Split(bytes.TrimRight(buf, "\n"), []byte("\n"))
		if readFrom > 0 {
			// the first split element may be a truncated partial line;
			// drop it since its predecessor chunk is unavailable yet.
			lines = lines[1:]
		}
		lines = dropBlank(lines)

		if len(lines) >= n || readFrom == 0 {
			if len(lines) > n {
				lines = lines[len(lines)-n:]
			}
			return lines, nil
		}
		chunk *= 2
	}
}

func dropBlank(lines [][]byte) [][]byte {
	out := lines[:0]
	for _, l := range lines {
		if len(l) > 0 {
			out = append(out, l)
		}
	}
	return out
}
