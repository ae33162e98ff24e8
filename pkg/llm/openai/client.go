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

// Package openai implements llm.StreamingProvider against the OpenAI
// chat-completions API shape, also reused by pkg/llm/azureopenai.
package openai

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/teradata-labs/agentrt/pkg/chat"
	"github.com/teradata-labs/agentrt/pkg/llm"
)

const (
	DefaultModel       = "gpt-4.1"
	DefaultEndpoint    = "https://api.openai.com/v1/chat/completions"
	DefaultTimeout     = 60 * time.Second
	DefaultMaxTokens   = 4096
	DefaultTemperature = 1.0
)

var (
	globalLimiter     *llm.RateLimiter
	globalLimiterOnce sync.Once
)

// Config configures a Client.
type Config struct {
	APIKey      string
	Model       string
	Endpoint    string
	Timeout     time.Duration
	MaxTokens   int
	Temperature float64
	// ExtraHeaders lets callers (e.g. pkg/llm/azureopenai) override auth
	// headers while reusing this client's request/response wire format.
	ExtraHeaders map[string]string
	RateLimiter  llm.RateLimiterConfig
}

// Client implements llm.StreamingProvider for OpenAI-compatible APIs.
type Client struct {
	apiKey       string
	model        string
	endpoint     string
	httpClient   *http.Client
	maxTokens    int
	temperature  float64
	extraHeaders map[string]string
	rateLimiter  *llm.RateLimiter
}

// NewClient builds a Client, filling unset fields from environment
// variables and package defaults.
func NewClient(cfg Config) *Client {
	if cfg.Model == "" {
		cfg.Model = envOr("OPENAI_DEFAULT_MODEL", DefaultModel)
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = envOr("OPENAI_API_ENDPOINT", DefaultEndpoint)
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = DefaultTemperature
	}
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("OPENAI_API_KEY")
	}

	var limiter *llm.RateLimiter
	if cfg.RateLimiter.Enabled {
		globalLimiterOnce.Do(func() { globalLimiter = llm.NewRateLimiter(cfg.RateLimiter) })
		limiter = globalLimiter
	}

	return &Client{
		apiKey:       cfg.APIKey,
		model:        cfg.Model,
		endpoint:     cfg.Endpoint,
		maxTokens:    cfg.MaxTokens,
		temperature:  cfg.Temperature,
		extraHeaders: cfg.ExtraHeaders,
		rateLimiter:  limiter,
		httpClient:   &http.Client{Timeout: cfg.Timeout},
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func (c *Client) Name() string  { return "openai" }
func (c *Client) Model() string { return c.model }

func (c *Client) Chat(ctx context.Context, messages []llm.Message, tools []llm.ToolSchema) (*llm.Response, error) {
	nameMap := make(map[string]string)
	req := c.buildRequest(messages, tools, nameMap, false)
	resp, err := c.doRequest(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("openai: chat: %w", err)
	}
	return c.convertResponse(resp, nameMap), nil
}

func (c *Client) ChatStream(ctx context.Context, messages []llm.Message, tools []llm.ToolSchema, cb llm.StreamCallback) (*llm.Response, error) {
	nameMap := make(map[string]string)
	req := c.buildRequest(messages, tools, nameMap, true)

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("openai: marshal request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("openai: build request: %w", err)
	}
	c.applyHeaders(httpReq)

	resp, err := c.send(ctx, httpReq)
	if err != nil {
		return nil, fmt.Errorf("openai: stream request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("openai: API error (status %d): %s", resp.StatusCode, payload)
	}

	var textBuf strings.Builder
	var toolCalls []chat.ToolCall
	indexOf := make(map[int]int)
	var stopReason string
	usage := llm.Usage{}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if payload == "[DONE]" {
			break
		}
		var chunk streamChunk
		if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
			continue
		}
		if chunk.Usage != nil {
			usage.InputTokens = chunk.Usage.PromptTokens
			usage.OutputTokens = chunk.Usage.CompletionTokens
		}
		for _, choice := range chunk.Choices {
			if choice.FinishReason != "" {
				stopReason = choice.FinishReason
			}
			if choice.Delta.Content != "" {
				textBuf.WriteString(choice.Delta.Content)
				if err := cb(llm.Fragment{Kind: llm.FragmentText, Text: choice.Delta.Content}); err != nil {
					return nil, err
				}
			}
			for _, tc := range choice.Delta.ToolCalls {
				slot, ok := indexOf[tc.Index]
				if !ok {
					toolCalls = append(toolCalls, chat.ToolCall{})
					slot = len(toolCalls) - 1
					indexOf[tc.Index] = slot
				}
				if tc.ID != "" {
					toolCalls[slot].ID = tc.ID
				}
				if tc.Function.Name != "" {
					toolCalls[slot].Name = llm.ReverseToolName(nameMap, tc.Function.Name)
				}
				toolCalls[slot].Arguments += tc.Function.Arguments
				if err := cb(llm.Fragment{Kind: llm.FragmentToolCallDelta, ToolCallDelta: llm.ToolCallDelta{
					Index: tc.Index, ID: tc.ID, Name: tc.Function.Name, ArgumentsChunk: tc.Function.Arguments,
				}}); err != nil {
					return nil, err
				}
			}
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("openai: read stream: %w", err)
	}

	usage.TotalTokens = usage.InputTokens + usage.OutputTokens
	usage.CostUSD = estimateCost(usage.InputTokens, usage.OutputTokens)
	if c.rateLimiter != nil {
		c.rateLimiter.RecordTokenUsage(int64(usage.TotalTokens))
	}
	if err := cb(llm.Fragment{Kind: llm.FragmentDone, StopReason: stopReason, Usage: usage}); err != nil {
		return nil, err
	}

	return &llm.Response{Content: textBuf.String(), ToolCalls: toolCalls, StopReason: stopReason, Usage: usage}, nil
}

func (c *Client) applyHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	if len(c.extraHeaders) > 0 {
		for k, v := range c.extraHeaders {
			req.Header.Set(k, v)
		}
		return
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
}

func (c *Client) send(ctx context.Context, req *http.Request) (*http.Response, error) {
	if c.rateLimiter == nil {
		return c.httpClient.Do(req)
	}
	result, err := c.rateLimiter.Do(ctx, func(context.Context) (interface{}, error) {
		return c.httpClient.Do(req)
	})
	if err != nil {
		return nil, err
	}
	return result.(*http.Response), nil
}

func (c *Client) doRequest(ctx context.Context, req *chatRequest) (*chatResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	c.applyHeaders(httpReq)

	resp, err := c.send(ctx, httpReq)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()
	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API error (status %d): %s", resp.StatusCode, payload)
	}
	var out chatResponse
	if err := json.Unmarshal(payload, &out); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	return &out, nil
}

func (c *Client) buildRequest(messages []llm.Message, tools []llm.ToolSchema, nameMap map[string]string, stream bool) *chatRequest {
	req := &chatRequest{
		Model:       c.model,
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
		Stream:      stream,
	}
	for _, m := range messages {
		req.Messages = append(req.Messages, convertMessage(m)...)
	}
	for _, t := range tools {
		sanitized := llm.SanitizeToolName(t.Name)
		nameMap[sanitized] = t.Name
		req.Tools = append(req.Tools, apiTool{Type: "function", Function: apiFunction{
			Name: sanitized, Description: t.Description, Parameters: t.Parameters,
		}})
	}
	return req
}

func convertMessage(m llm.Message) []apiMessage {
	switch m.Role {
	case chat.RoleSystem:
		return []apiMessage{{Role: "system", Content: m.Text()}}
	case chat.RoleDeveloper:
		return []apiMessage{{Role: "developer", Content: m.Text()}}
	case chat.RoleUser:
		return []apiMessage{{Role: "user", Content: m.Text()}}
	case chat.RoleAssistant:
		am := apiMessage{Role: "assistant", Content: m.Text()}
		for _, tc := range m.ToolCalls {
			am.ToolCalls = append(am.ToolCalls, apiToolCall{
				ID:       tc.ID,
				Type:     "function",
				Function: apiFunctionCall{Name: llm.SanitizeToolName(tc.Name), Arguments: tc.Arguments},
			})
		}
		return []apiMessage{am}
	case chat.RoleTool:
		var out []apiMessage
		for _, tr := range m.ToolResults {
			out = append(out, apiMessage{Role: "tool", Content: tr.Content, ToolCallID: tr.ToolCallID})
		}
		return out
	default:
		return nil
	}
}

func (c *Client) convertResponse(resp *chatResponse, nameMap map[string]string) *llm.Response {
	out := &llm.Response{}
	if len(resp.Choices) > 0 {
		choice := resp.Choices[0]
		out.Content = choice.Message.Content
		out.StopReason = choice.FinishReason
		for _, tc := range choice.Message.ToolCalls {
			out.ToolCalls = append(out.ToolCalls, chat.ToolCall{
				ID: tc.ID, Name: llm.ReverseToolName(nameMap, tc.Function.Name), Arguments: tc.Function.Arguments,
			})
		}
	}
	out.Usage = llm.Usage{
		InputTokens:  resp.Usage.PromptTokens,
		OutputTokens: resp.Usage.CompletionTokens,
		TotalTokens:  resp.Usage.TotalTokens,
		CostUSD:      estimateCost(resp.Usage.PromptTokens, resp.Usage.CompletionTokens),
	}
	return out
}

// estimateCost uses GPT-4.1-era per-million-token pricing.
func estimateCost(inputTokens, outputTokens int) float64 {
	return float64(inputTokens)*2.0/1_000_000 + float64(outputTokens)*8.0/1_000_000
}

var _ llm.StreamingProvider = (*Client)(nil)
