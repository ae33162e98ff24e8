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
package azureopenai

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient_RequiresEndpoint(t *testing.T) {
	_, err := NewClient(Config{DeploymentID: "gpt-4o", APIKey: "k"})
	assert.Error(t, err)
}

func TestNewClient_RequiresDeploymentID(t *testing.T) {
	_, err := NewClient(Config{Endpoint: "https://res.openai.azure.com", APIKey: "k"})
	assert.Error(t, err)
}

func TestNewClient_RequiresAuthCredential(t *testing.T) {
	_, err := NewClient(Config{Endpoint: "https://res.openai.azure.com", DeploymentID: "gpt-4o"})
	assert.Error(t, err)
}

func TestNewClient_BuildsURLWithDefaultAPIVersionAndDeployment(t *testing.T) {
	var gotPath, gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		w.Write([]byte(`{"choices":[{"message":{"content":""},"finish_reason":"stop"}]}`))
	}))
	defer server.Close()

	c, err := NewClient(Config{Endpoint: server.URL, DeploymentID: "my-deployment", APIKey: "k"})
	require.NoError(t, err)

	_, err = c.Chat(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "/openai/deployments/my-deployment/chat/completions", gotPath)
	assert.Equal(t, "api-version=2024-10-21", gotQuery)
}

func TestNewClient_APIKeyAuthSetsAPIKeyHeader(t *testing.T) {
	var gotAPIKey, gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAPIKey = r.Header.Get("api-key")
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{"choices":[{"message":{"content":""},"finish_reason":"stop"}]}`))
	}))
	defer server.Close()

	c, err := NewClient(Config{Endpoint: server.URL, DeploymentID: "d", APIKey: "azure-key"})
	require.NoError(t, err)
	_, err = c.Chat(context.Background(), nil, nil)
	require.NoError(t, err)

	assert.Equal(t, "azure-key", gotAPIKey)
	assert.Empty(t, gotAuth)
}

func TestNewClient_EntraTokenAuthSetsBearerHeader(t *testing.T) {
	var gotAPIKey, gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAPIKey = r.Header.Get("api-key")
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{"choices":[{"message":{"content":""},"finish_reason":"stop"}]}`))
	}))
	defer server.Close()

	c, err := NewClient(Config{Endpoint: server.URL, DeploymentID: "d", EntraToken: "entra-token"})
	require.NoError(t, err)
	_, err = c.Chat(context.Background(), nil, nil)
	require.NoError(t, err)

	assert.Empty(t, gotAPIKey)
	assert.Equal(t, "Bearer entra-token", gotAuth)
}

func TestInferModelFromDeployment(t *testing.T) {
	cases := []struct {
		deployment string
		want       string
	}{
		{"gpt-4o-mini-deployment", "gpt-4o-mini"},
		{"my-gpt-4o-prod", "gpt-4o"},
		{"gpt-4-turbo-eu", "gpt-4-turbo"},
		{"gpt-4-base", "gpt-4"},
		{"gpt-35-turbo-dev", "gpt-35-turbo"},
		{"legacy-gpt-3.5-turbo", "gpt-3.5-turbo"},
		{"custom-deployment-xyz", "custom-deployment-xyz"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, inferModelFromDeployment(tc.deployment), tc.deployment)
	}
}
