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

// Package anthropic implements llm.StreamingProvider against Claude's
// Messages API.
package anthropic

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
	DefaultModel       = "claude-3-5-sonnet-20241022"
	DefaultEndpoint    = "https://api.anthropic.com/v1/messages"
	DefaultMaxTokens   = 4096
	DefaultTemperature = 1.0
	DefaultTimeout     = 60 * time.Second
	apiVersion         = "2023-06-01"
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
	RateLimiter llm.RateLimiterConfig
}

// Client implements llm.StreamingProvider for Anthropic Claude.
type Client struct {
	apiKey      string
	model       string
	endpoint    string
	httpClient  *http.Client
	maxTokens   int
	temperature float64
	rateLimiter *llm.RateLimiter
}

// NewClient builds a Client, filling unset fields from environment
// variables and package defaults.
func NewClient(cfg Config) *Client {
	if cfg.Model == "" {
		cfg.Model = envOr("ANTHROPIC_DEFAULT_MODEL", DefaultModel)
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = envOr("ANTHROPIC_API_ENDPOINT", DefaultEndpoint)
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
		cfg.APIKey = os.Getenv("ANTHROPIC_API_KEY")
	}

	var limiter *llm.RateLimiter
	if cfg.RateLimiter.Enabled {
		globalLimiterOnce.Do(func() { globalLimiter = llm.NewRateLimiter(cfg.RateLimiter) })
		limiter = globalLimiter
	}

	return &Client{
		apiKey:      cfg.APIKey,
		model:       cfg.Model,
		endpoint:    cfg.Endpoint,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		rateLimiter: limiter,
		httpClient:  &http.Client{Timeout: cfg.Timeout},
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func (c *Client) Name() string  { return "anthropic" }
func (c *Client) Model() string { return c.model }

// Chat issues a single non-streaming Messages API call.
func (c *Client) Chat(ctx context.Context, messages []llm.Message, tools []llm.ToolSchema) (*llm.Response, error) {
	nameMap := make(map[string]string)
	req := c.buildRequest(messages, tools, nameMap, false)

	resp, err := c.doRequest(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("anthropic: chat: %w", err)
	}
	return c.convertResponse(resp, nameMap), nil
}

// ChatStream streams a completion, emitting Fragments with index-keyed
// tool-call argument reassembly (spec §4.2: arguments concatenate in
// arrival order at the provider-given index).
func (c *Client) ChatStream(ctx context.Context, messages []llm.Message, tools []llm.ToolSchema, cb llm.StreamCallback) (*llm.Response, error) {
	nameMap := make(map[string]string)
	req := c.buildRequest(messages, tools, nameMap, true)

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("anthropic: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("anthropic: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.apiKey)
	httpReq.Header.Set("anthropic-version", apiVersion)

	resp, err := c.send(ctx, httpReq)
	if err != nil {
		return nil, fmt.Errorf("anthropic: stream request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("anthropic: API error (status %d): %s", resp.StatusCode, payload)
	}

	var textBuf strings.Builder
	var toolCalls []chat.ToolCall
	indexOf := make(map[int]int) // provider index -> slot in toolCalls
	var stopReason string
	usage := llm.Usage{}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		var evt streamEvent
		if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data:")), &evt); err != nil {
			continue
		}

		switch evt.Type {
		case "content_block_start":
			if evt.ContentBlock != nil && evt.ContentBlock.Type == "tool_use" {
				idx := evt.Index
				toolCalls = append(toolCalls, chat.ToolCall{
					ID:   evt.ContentBlock.ID,
					Name: llm.ReverseToolName(nameMap, evt.ContentBlock.Name),
				})
				indexOf[idx] = len(toolCalls) - 1
				if err := cb(llm.Fragment{Kind: llm.FragmentToolCallDelta, ToolCallDelta: llm.ToolCallDelta{
					Index: idx, ID: evt.ContentBlock.ID, Name: llm.ReverseToolName(nameMap, evt.ContentBlock.Name),
				}}); err != nil {
					return nil, err
				}
			}
		case "content_block_delta":
			if evt.Delta == nil {
				continue
			}
			switch evt.Delta.Type {
			case "text_delta":
				textBuf.WriteString(evt.Delta.Text)
				if err := cb(llm.Fragment{Kind: llm.FragmentText, Text: evt.Delta.Text}); err != nil {
					return nil, err
				}
			case "input_json_delta":
				if slot, ok := indexOf[evt.Index]; ok {
					toolCalls[slot].Arguments += evt.Delta.PartialJSON
				}
				if err := cb(llm.Fragment{Kind: llm.FragmentToolCallDelta, ToolCallDelta: llm.ToolCallDelta{
					Index: evt.Index, ArgumentsChunk: evt.Delta.PartialJSON,
				}}); err != nil {
					return nil, err
				}
			}
		case "message_delta":
			if evt.Delta != nil && evt.Delta.StopReason != "" {
				stopReason = evt.Delta.StopReason
			}
			if evt.Usage != nil {
				usage.OutputTokens = evt.Usage.OutputTokens
			}
		case "message_stop":
			if evt.Usage != nil {
				usage.InputTokens = evt.Usage.InputTokens
				usage.OutputTokens = evt.Usage.OutputTokens
			}
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("anthropic: read stream: %w", err)
	}

	usage.TotalTokens = usage.InputTokens + usage.OutputTokens
	usage.CostUSD = estimateCost(c.model, usage.InputTokens, usage.OutputTokens)
	if c.rateLimiter != nil {
		c.rateLimiter.RecordTokenUsage(int64(usage.TotalTokens))
	}

	if err := cb(llm.Fragment{Kind: llm.FragmentDone, StopReason: stopReason, Usage: usage}); err != nil {
		return nil, err
	}

	return &llm.Response{
		Content:    textBuf.String(),
		ToolCalls:  toolCalls,
		StopReason: stopReason,
		Usage:      usage,
	}, nil
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

func (c *Client) doRequest(ctx context.Context, req *messagesRequest) (*messagesResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.apiKey)
	httpReq.Header.Set("anthropic-version", apiVersion)

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
	var out messagesResponse
	if err := json.Unmarshal(payload, &out); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	return &out, nil
}

func (c *Client) buildRequest(messages []llm.Message, tools []llm.ToolSchema, nameMap map[string]string, stream bool) *messagesRequest {
	system, apiMessages := convertMessages(messages)
	req := &messagesRequest{
		Model:       c.model,
		Messages:    apiMessages,
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
		Stream:      stream,
		System:      system,
	}
	for _, t := range tools {
		sanitized := llm.SanitizeToolName(t.Name)
		nameMap[sanitized] = t.Name
		req.Tools = append(req.Tools, apiTool{Name: sanitized, Description: t.Description, InputSchema: t.Parameters})
	}
	return req
}

func convertMessages(messages []llm.Message) (string, []apiMessage) {
	var systemParts []string
	var out []apiMessage
	for _, m := range messages {
		switch m.Role {
		case chat.RoleSystem, chat.RoleDeveloper:
			if t := m.Text(); t != "" {
				systemParts = append(systemParts, t)
			}
		case chat.RoleUser:
			out = append(out, apiMessage{Role: "user", Content: convertBlocks(m.Content)})
		case chat.RoleAssistant:
			var content []apiContentBlock
			if t := m.Text(); t != "" {
				content = append(content, apiContentBlock{Type: "text", Text: t})
			}
			for _, tc := range m.ToolCalls {
				var input map[string]interface{}
				_ = json.Unmarshal([]byte(tc.Arguments), &input)
				content = append(content, apiContentBlock{Type: "tool_use", ID: tc.ID, Name: llm.SanitizeToolName(tc.Name), Input: input})
			}
			if len(content) > 0 {
				out = append(out, apiMessage{Role: "assistant", Content: content})
			}
		case chat.RoleTool:
			for _, tr := range m.ToolResults {
				out = append(out, apiMessage{Role: "user", Content: []apiContentBlock{
					{Type: "tool_result", ToolUseID: tr.ToolCallID, Content: tr.Content},
				}})
			}
		}
	}
	return strings.Join(systemParts, "\n\n"), out
}

func convertBlocks(blocks []chat.ContentBlock) []apiContentBlock {
	var out []apiContentBlock
	for _, b := range blocks {
		switch b.Type {
		case chat.BlockText:
			out = append(out, apiContentBlock{Type: "text", Text: b.Text})
		case chat.BlockImage:
			out = append(out, apiContentBlock{Type: "image", Source: &imageSource{Type: "base64", MediaType: b.MimeType, Data: b.FileID}})
		}
	}
	if len(out) == 0 {
		out = append(out, apiContentBlock{Type: "text", Text: ""})
	}
	return out
}

func (c *Client) convertResponse(resp *messagesResponse, nameMap map[string]string) *llm.Response {
	out := &llm.Response{StopReason: resp.StopReason}
	for _, block := range resp.Content {
		switch block.Type {
		case "text":
			out.Content += block.Text
		case "tool_use":
			args, _ := json.Marshal(block.Input)
			out.ToolCalls = append(out.ToolCalls, chat.ToolCall{ID: block.ID, Name: llm.ReverseToolName(nameMap, block.Name), Arguments: string(args)})
		}
	}
	out.Usage = llm.Usage{
		InputTokens:  resp.Usage.InputTokens,
		OutputTokens: resp.Usage.OutputTokens,
		TotalTokens:  resp.Usage.InputTokens + resp.Usage.OutputTokens,
		CostUSD:      estimateCost(c.model, resp.Usage.InputTokens, resp.Usage.OutputTokens),
	}
	return out
}

// estimateCost uses Claude 3.5 Sonnet era per-million-token pricing; other
// models are priced the same pending a full price table.
func estimateCost(_ string, inputTokens, outputTokens int) float64 {
	return float64(inputTokens)*3.0/1_000_000 + float64(outputTokens)*15.0/1_000_000
}

var _ llm.StreamingProvider = (*Client)(nil)
