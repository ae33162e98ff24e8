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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFromPreset_Development(t *testing.T) {
	g, err := NewFromPreset(PresetDevelopment, t.TempDir(), nil)
	require.NoError(t, err)
	require.NotNil(t, g)
	_, ok := g.transport.(*LogTransport)
	assert.True(t, ok)
}

func TestNewFromPreset_Testing(t *testing.T) {
	g, err := NewFromPreset(PresetTesting, t.TempDir(), nil)
	require.NoError(t, err)
	_, ok := g.transport.(*NullTransport)
	assert.True(t, ok)
}

func TestNewFromPreset_MultiTransport(t *testing.T) {
	g, err := NewFromPreset(PresetMultiTransport, t.TempDir(), nil)
	require.NoError(t, err)
	_, ok := g.transport.(*MultiTransport)
	assert.True(t, ok)
}

func TestNewFromPreset_Production(t *testing.T) {
	t.Setenv("AGENTRT_EVENTLOG_TRANSPORT", "queue")
	g, err := NewFromPreset(PresetProduction, t.TempDir(), nil)
	require.NoError(t, err)
	_, ok := g.transport.(*RetryTransport)
	assert.True(t, ok)
}

func TestNewFromPreset_ProductionHTTPRequiresEndpoint(t *testing.T) {
	t.Setenv("AGENTRT_EVENTLOG_TRANSPORT", "http")
	t.Setenv("AGENTRT_EVENTLOG_HTTP_ENDPOINT", "")
	_, err := NewFromPreset(PresetProduction, t.TempDir(), nil)
	assert.Error(t, err)
}

func TestNewFromPreset_UnknownPreset(t *testing.T) {
	_, err := NewFromPreset(Preset("bogus"), t.TempDir(), nil)
	assert.Error(t, err)
}

func TestNewMigrationGateway_WrapsLegacyTransport(t *testing.T) {
	legacy := &recordingTransport{}
	g := NewMigrationGateway(t.TempDir(), legacy, nil)
	_, ok := g.transport.(*MigrationTransport)
	assert.True(t, ok)
}
