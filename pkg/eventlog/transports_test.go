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
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teradata-labs/agentrt/pkg/events"
)

func TestNullTransport_DiscardsAndTracksMetrics(t *testing.T) {
	tr := NewNullTransport()
	require.NoError(t, tr.Connect(context.Background()))
	assert.Equal(t, Connected, tr.State())

	require.NoError(t, tr.Send(context.Background(), mustTextDelta(t, "tiger-castle", "hi")))
	assert.Equal(t, int64(1), tr.Metrics().TotalSent)

	require.NoError(t, tr.Close())
	assert.Equal(t, Closed, tr.State())
}

func TestLogTransport_Send(t *testing.T) {
	tr := NewLogTransport(nil)
	require.NoError(t, tr.Connect(context.Background()))
	require.NoError(t, tr.Send(context.Background(), mustTextDelta(t, "tiger-castle", "hi")))
	assert.Equal(t, int64(1), tr.Metrics().TotalSent)
}

func TestFileTeeTransport_WritesJSONLAndRequiresConnect(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tee.jsonl")
	tr := NewFileTeeTransport(path)

	err := tr.Send(context.Background(), mustTextDelta(t, "tiger-castle", "hi"))
	assert.Error(t, err, "sending before Connect must fail rather than silently drop")

	require.NoError(t, tr.Connect(context.Background()))
	require.NoError(t, tr.Send(context.Background(), mustTextDelta(t, "tiger-castle", "hi")))
	require.NoError(t, tr.Close())

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotEmpty(t, b)
}

func TestCallbackTransport_ForwardsAndPropagatesFailure(t *testing.T) {
	var got []events.Event
	tr := NewCallbackTransport(func(ctx context.Context, evt events.Event) error {
		got = append(got, evt)
		return nil
	})
	require.NoError(t, tr.Send(context.Background(), mustTextDelta(t, "tiger-castle", "hi")))
	assert.Len(t, got, 1)

	failing := NewCallbackTransport(func(ctx context.Context, evt events.Event) error {
		return assertErr
	})
	err := failing.Send(context.Background(), mustTextDelta(t, "tiger-castle", "hi"))
	assert.Error(t, err)
	assert.Equal(t, int64(1), failing.Metrics().TotalFailed)
}

func TestMultiTransport_FailureOnOneDoesNotBlockOthers(t *testing.T) {
	good := &recordingTransport{}
	bad := &recordingTransport{fail: true}
	tr := NewMultiTransport(bad, good)

	err := tr.Send(context.Background(), mustTextDelta(t, "tiger-castle", "hi"))
	assert.Error(t, err)
	assert.Len(t, good.sent, 1, "a failing sibling transport must not stop delivery to the others")
}

func TestMigrationTransport_ForwardsToLegacyAndFlagsNotice(t *testing.T) {
	legacy := &recordingTransport{}
	tr := NewMigrationTransport(legacy, nil)

	require.NoError(t, tr.Send(context.Background(), mustTextDelta(t, "tiger-castle", "one")))
	require.NoError(t, tr.Send(context.Background(), mustTextDelta(t, "tiger-castle", "two")))
	assert.Len(t, legacy.sent, 2)
	assert.True(t, tr.noticeEmitted)
}

func TestQueueTransport_DrainsAsyncAndReportsFullBuffer(t *testing.T) {
	release := make(chan struct{})
	processed := make(chan struct{}, 4)
	tr := NewQueueTransport(1, func(ctx context.Context, evt events.Event) error {
		<-release
		processed <- struct{}{}
		return nil
	})
	require.NoError(t, tr.Connect(context.Background()))
	defer tr.Close()

	// The first Send is picked up by the worker almost immediately and
	// blocks there on release; give it a moment to be dequeued so the
	// buffer-of-1 channel is empty again before filling it deterministically.
	require.NoError(t, tr.Send(context.Background(), mustTextDelta(t, "tiger-castle", "one")))
	time.Sleep(20 * time.Millisecond)
	require.NoError(t, tr.Send(context.Background(), mustTextDelta(t, "tiger-castle", "two")))
	err := tr.Send(context.Background(), mustTextDelta(t, "tiger-castle", "three"))
	assert.Error(t, err)

	close(release)
	<-processed
	<-processed
}

func TestHTTPTransport_PostsEventAndRecordsFailureOnServerError(t *testing.T) {
	var received bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		received = true
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	tr := NewHTTPTransport(HTTPTransportConfig{Endpoint: srv.URL})
	require.NoError(t, tr.Connect(context.Background()))
	require.NoError(t, tr.Send(context.Background(), mustTextDelta(t, "tiger-castle", "hi")))
	assert.True(t, received)
	assert.Equal(t, int64(1), tr.Metrics().TotalSent)

	failSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer failSrv.Close()
	failTransport := NewHTTPTransport(HTTPTransportConfig{Endpoint: failSrv.URL})
	err := failTransport.Send(context.Background(), mustTextDelta(t, "tiger-castle", "hi"))
	assert.Error(t, err)
	assert.Equal(t, int64(1), failTransport.Metrics().TotalFailed)
}
