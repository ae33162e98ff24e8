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

// Package azureopenai adapts pkg/llm/openai to Azure's deployment-based
// routing and dual authentication, reusing its wire format and streaming
// reassembly entirely.
package azureopenai

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/teradata-labs/agentrt/pkg/llm"
	"github.com/teradata-labs/agentrt/pkg/llm/openai"
)

// Config holds Azure OpenAI connection details.
type Config struct {
	// Endpoint is the resource endpoint: https://{resource}.openai.azure.com
	Endpoint string
	// DeploymentID is the user's deployment name, not the underlying model name.
	DeploymentID string
	// APIVersion defaults to "2024-10-21".
	APIVersion string

	// Authentication: supply exactly one.
	APIKey     string
	EntraToken string

	// ModelName is not read by NewClient: the returned *openai.Client
	// prices every model at the same per-token rate, so no model name is
	// passed on for cost estimation.
	ModelName string

	MaxTokens         int
	Temperature       float64
	Timeout           time.Duration
	RateLimiterConfig llm.RateLimiterConfig
}

// NewClient builds an *openai.Client pointed at an Azure deployment URL,
// with the Azure auth header applied via ExtraHeaders.
func NewClient(cfg Config) (*openai.Client, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("azureopenai: endpoint is required")
	}
	if cfg.DeploymentID == "" {
		return nil, fmt.Errorf("azureopenai: deployment ID is required")
	}
	if cfg.APIKey == "" && cfg.EntraToken == "" {
		return nil, fmt.Errorf("azureopenai: either APIKey or EntraToken must be provided")
	}
	if cfg.APIVersion == "" {
		cfg.APIVersion = "2024-10-21"
	}

	headers := map[string]string{"Content-Type": "application/json"}
	if cfg.APIKey != "" {
		headers["api-key"] = cfg.APIKey
	} else {
		headers["Authorization"] = "Bearer " + cfg.EntraToken
	}

	endpoint := fmt.Sprintf("%s/openai/deployments/%s/chat/completions?api-version=%s",
		strings.TrimRight(cfg.Endpoint, "/"),
		url.PathEscape(cfg.DeploymentID),
		url.QueryEscape(cfg.APIVersion),
	)

	return openai.NewClient(openai.Config{
		APIKey:       cfg.APIKey,
		Model:        cfg.DeploymentID,
		Endpoint:     endpoint,
		Timeout:      cfg.Timeout,
		MaxTokens:    cfg.MaxTokens,
		Temperature:  cfg.Temperature,
		ExtraHeaders: headers,
		RateLimiter:  cfg.RateLimiterConfig,
	}), nil
}

// inferModelFromDeployment attempts to infer the underlying model family
// from a deployment name, e.g. "gpt-4o-deployment" -> "gpt-4o".
func inferModelFromDeployment(deploymentID string) string {
	models := []string{"gpt-4o-mini", "gpt-4o", "gpt-4-turbo", "gpt-4", "gpt-35-turbo", "gpt-3.5-turbo"}
	lower := strings.ToLower(deploymentID)
	for _, m := range models {
		if strings.Contains(lower, m) {
			return m
		}
	}
	return deploymentID
}
