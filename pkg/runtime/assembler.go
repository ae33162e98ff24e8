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
package runtime

import (
	"sort"
	"strings"

	"github.com/teradata-labs/agentrt/pkg/chat"
	"github.com/teradata-labs/agentrt/pkg/events"
	"github.com/teradata-labs/agentrt/pkg/llm"
)

// fragmentAssembler consumes one completion's streamed fragments: it
// accumulates text into a buffer, tracks the most recent thought boundary,
// and reassembles tool-call deltas by provider-given index, per the
// "duplicate id/name overwrite, arguments always concatenate" rule (spec
// §4.2 numeric guarantees).
type fragmentAssembler struct {
	text        strings.Builder
	thoughtOpen bool
	stopReason  string
	calls       []chat.ToolCall
	callIndex   map[int]int // provider index -> position in calls
}

func newFragmentAssembler() *fragmentAssembler {
	return &fragmentAssembler{callIndex: make(map[int]int)}
}

// consume handles one Fragment, emitting the matching delta event(s) and
// folding tool-call deltas into the assembler's call slots.
func (a *fragmentAssembler) consume(sessionID, role string, frag llm.Fragment, emit StreamingCallback) error {
	switch frag.Kind {
	case llm.FragmentText:
		a.text.WriteString(frag.Text)
		evt, err := events.NewTextDeltaEvent(sessionID, role, frag.Text)
		if err != nil {
			return err
		}
		return emit(evt)

	case llm.FragmentThought:
		a.thoughtOpen = true
		evt, err := events.NewThoughtDeltaEvent(sessionID, role, frag.Text)
		if err != nil {
			return err
		}
		return emit(evt)

	case llm.FragmentThoughtComplete:
		a.thoughtOpen = false
		evt, err := events.NewCompleteThoughtEvent(sessionID, role, frag.Text)
		if err != nil {
			return err
		}
		return emit(evt)

	case llm.FragmentToolCallDelta:
		a.foldToolCallDelta(frag.ToolCallDelta)
		evt, err := events.NewToolCallDeltaEvent(sessionID, role, []chat.ToolCall{a.callAt(frag.ToolCallDelta.Index)})
		if err != nil {
			return err
		}
		return emit(evt)

	case llm.FragmentDone:
		a.stopReason = frag.StopReason
		return nil
	}
	return nil
}

// foldToolCallDelta applies one incremental tool-call fragment to the call
// slot at delta.Index, creating the slot on first sight. ID and Name
// overwrite; ArgumentsChunk concatenates onto whatever has accumulated.
func (a *fragmentAssembler) foldToolCallDelta(delta llm.ToolCallDelta) {
	pos, ok := a.callIndex[delta.Index]
	if !ok {
		pos = len(a.calls)
		a.calls = append(a.calls, chat.ToolCall{})
		a.callIndex[delta.Index] = pos
	}
	if delta.ID != "" {
		a.calls[pos].ID = delta.ID
	}
	if delta.Name != "" {
		a.calls[pos].Name = delta.Name
	}
	a.calls[pos].Arguments += delta.ArgumentsChunk
}

func (a *fragmentAssembler) callAt(index int) chat.ToolCall {
	if pos, ok := a.callIndex[index]; ok {
		return a.calls[pos]
	}
	return chat.ToolCall{}
}

// orderedCalls returns the reassembled calls sorted by provider index, the
// order the spec requires tool-call reassembly to preserve.
func (a *fragmentAssembler) orderedCalls() []chat.ToolCall {
	indices := make([]int, 0, len(a.callIndex))
	for idx := range a.callIndex {
		indices = append(indices, idx)
	}
	sort.Ints(indices)
	out := make([]chat.ToolCall, 0, len(indices))
	for _, idx := range indices {
		out = append(out, a.calls[a.callIndex[idx]])
	}
	return out
}
