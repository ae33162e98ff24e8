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
	"fmt"
	"os"
	"strconv"

	"go.uber.org/zap"
)

// Preset names one of the enumerated factory configurations spec §4.5
// requires: development, testing, production, migration, multi-transport.
type Preset string

const (
	PresetDevelopment    Preset = "development"
	PresetTesting        Preset = "testing"
	PresetProduction     Preset = "production"
	PresetMigration      Preset = "migration"
	PresetMultiTransport Preset = "multi-transport"
)

// Environment variables read by the production preset. Named, typed
// lookups here rather than os.Getenv scattered through business logic
// (SPEC_FULL.md §A).
const (
	EnvTransportKind = "AGENTRT_EVENTLOG_TRANSPORT" // "queue" or "http"
	EnvHTTPEndpoint  = "AGENTRT_EVENTLOG_HTTP_ENDPOINT"
	EnvHTTPAuthToken = "AGENTRT_EVENTLOG_HTTP_TOKEN"
	EnvQueueBuffer   = "AGENTRT_EVENTLOG_QUEUE_BUFFER"
)

// NewFromPreset builds a Gateway for one of the enumerated presets.
// baseDir is the JSONL root directory. PresetMigration is rejected here
// with an error; that preset is built by NewMigrationGateway.
func NewFromPreset(preset Preset, baseDir string, logger *zap.Logger) (*Gateway, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	transport, err := transportForPreset(preset, logger)
	if err != nil {
		return nil, err
	}
	return New(Config{BaseDir: baseDir, Transport: transport, Logger: logger}), nil
}

func transportForPreset(preset Preset, logger *zap.Logger) (Transport, error) {
	switch preset {
	case PresetDevelopment:
		return NewLogTransport(logger), nil
	case PresetTesting:
		return NewNullTransport(), nil
	case PresetProduction:
		return productionTransport(logger)
	case PresetMultiTransport:
		return NewMultiTransport(NewLogTransport(logger), NewNullTransport()), nil
	case PresetMigration:
		return nil, fmt.Errorf("eventlog: migration preset requires NewMigrationGateway")
	default:
		return nil, fmt.Errorf("eventlog: unknown preset %q", preset)
	}
}

// productionTransport reads AGENTRT_EVENTLOG_TRANSPORT to choose between a
// QueueTransport and an HTTPTransport, both wrapped in a RetryTransport
// with a LogTransport fallback so a downed sink still surfaces through
// structured logs instead of silently dropping events.
func productionTransport(logger *zap.Logger) (Transport, error) {
	kind := os.Getenv(EnvTransportKind)
	switch kind {
	case "", "queue":
		bufSize := 256
		if v := os.Getenv(EnvQueueBuffer); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				bufSize = n
			}
		}
		endpoint := os.Getenv(EnvHTTPEndpoint)
		http := NewHTTPTransport(HTTPTransportConfig{Endpoint: endpoint, Headers: authHeaders()})
		queue := NewQueueTransport(bufSize, http.Send)
		return NewRetryTransport(queue, WithFallback(NewLogTransport(logger)), WithRetryLogger(logger)), nil
	case "http":
		endpoint := os.Getenv(EnvHTTPEndpoint)
		if endpoint == "" {
			return nil, fmt.Errorf("eventlog: %s required for http transport", EnvHTTPEndpoint)
		}
		http := NewHTTPTransport(HTTPTransportConfig{Endpoint: endpoint, Headers: authHeaders()})
		return NewRetryTransport(http, WithFallback(NewLogTransport(logger)), WithRetryLogger(logger)), nil
	default:
		return nil, fmt.Errorf("eventlog: unknown %s value %q", EnvTransportKind, kind)
	}
}

func authHeaders() map[string]string {
	token := os.Getenv(EnvHTTPAuthToken)
	if token == "" {
		return nil
	}
	return map[string]string{"Authorization": "Bearer " + token}
}

// NewMigrationGateway builds the "migration" preset: a Gateway whose
// transport wraps legacy, a Transport implementation adapting whatever
// file-writing mechanism a deployment used before adopting this package.
func NewMigrationGateway(baseDir string, legacy Transport, logger *zap.Logger) *Gateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	return New(Config{BaseDir: baseDir, Transport: NewMigrationTransport(legacy, logger), Logger: logger})
}
