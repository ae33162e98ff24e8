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
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teradata-labs/agentrt/pkg/events"
)

// flakyTransport fails its first failUntil sends then succeeds, recording
// how many attempts it has seen.
type flakyTransport struct {
	failUntil int
	attempts  int
}

func (t *flakyTransport) Connect(ctx context.Context) error { return nil }
func (t *flakyTransport) Send(ctx context.Context, evt events.Event) error {
	t.attempts++
	if t.attempts <= t.failUntil {
		return assertErr
	}
	return nil
}
func (t *flakyTransport) HealthCheck(ctx context.Context) error { return nil }
func (t *flakyTransport) Close() error                          { return nil }
func (t *flakyTransport) State() ConnectionState                { return Connected }
func (t *flakyTransport) Metrics() Metrics                      { return Metrics{} }

func TestRetryTransport_SucceedsAfterTransientFailures(t *testing.T) {
	primary := &flakyTransport{failUntil: 2}
	tr := NewRetryTransport(primary, WithMaxAttempts(3))

	err := tr.Send(context.Background(), mustTextDelta(t, "tiger-castle", "hi"))
	require.NoError(t, err)
	assert.Equal(t, 3, primary.attempts)
	assert.Equal(t, int64(1), tr.Metrics().TotalSent)
}

func TestRetryTransport_FallsBackWhenPrimaryExhausted(t *testing.T) {
	primary := &flakyTransport{failUntil: 99}
	fallback := &recordingTransport{}
	tr := NewRetryTransport(primary, WithMaxAttempts(2), WithFallback(fallback))

	err := tr.Send(context.Background(), mustTextDelta(t, "tiger-castle", "hi"))
	require.NoError(t, err)
	assert.Len(t, fallback.sent, 1)
}

func TestRetryTransport_ReturnsLastErrorWhenNoFallback(t *testing.T) {
	primary := &flakyTransport{failUntil: 99}
	tr := NewRetryTransport(primary, WithMaxAttempts(2))

	err := tr.Send(context.Background(), mustTextDelta(t, "tiger-castle", "hi"))
	assert.Error(t, err)
	assert.Equal(t, int64(1), tr.Metrics().TotalFailed)
}
