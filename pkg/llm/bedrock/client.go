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

// Package bedrock implements llm.StreamingProvider against AWS Bedrock's
// InvokeModel API using Anthropic's Messages wire format.
package bedrock

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"

	"github.com/teradata-labs/agentrt/pkg/chat"
	"github.com/teradata-labs/agentrt/pkg/llm"
)

var (
	globalRateLimiter     *llm.RateLimiter
	globalRateLimiterOnce sync.Once
)

func getOrCreateGlobalRateLimiter(cfg llm.RateLimiterConfig) *llm.RateLimiter {
	globalRateLimiterOnce.Do(func() {
		if cfg.Logger == nil {
			cfg = llm.DefaultRateLimiterConfig()
		}
		globalRateLimiter = llm.NewRateLimiter(cfg)
	})
	return globalRateLimiter
}

const (
	DefaultModelID     = "us.anthropic.claude-sonnet-4-5-20250929-v1:0"
	DefaultRegion      = "us-west-2"
	DefaultMaxTokens   = 4096
	DefaultTemperature = 1.0
)

// Config configures a Client.
type Config struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
	Profile         string

	ModelID     string
	MaxTokens   int
	Temperature float64

	RateLimiterConfig llm.RateLimiterConfig
}

// Client implements llm.StreamingProvider for AWS Bedrock's InvokeModel API.
type Client struct {
	client      *bedrockruntime.Client
	modelID     string
	maxTokens   int
	temperature float64
	rateLimiter *llm.RateLimiter
}

// NewClient builds a Client, loading AWS credentials via the standard chain
// (explicit keys, named profile, or IAM role/environment) in that order.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.ModelID == "" {
		cfg.ModelID = envOr("AWS_BEDROCK_MODEL_ID", DefaultModelID)
	}
	if cfg.Region == "" {
		cfg.Region = envOr("AWS_DEFAULT_REGION", DefaultRegion)
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = DefaultTemperature
	}

	var awsCfg aws.Config
	var err error
	switch {
	case cfg.AccessKeyID != "" && cfg.SecretAccessKey != "":
		awsCfg, err = config.LoadDefaultConfig(ctx,
			config.WithRegion(cfg.Region),
			config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
				cfg.AccessKeyID, cfg.SecretAccessKey, cfg.SessionToken)),
		)
	case cfg.Profile != "":
		awsCfg, err = config.LoadDefaultConfig(ctx,
			config.WithRegion(cfg.Region),
			config.WithSharedConfigProfile(cfg.Profile),
		)
	default:
		awsCfg, err = config.LoadDefaultConfig(ctx, config.WithRegion(cfg.Region))
	}
	if err != nil {
		return nil, fmt.Errorf("bedrock: load AWS config: %w", err)
	}

	var limiter *llm.RateLimiter
	if cfg.RateLimiterConfig.Enabled {
		limiter = getOrCreateGlobalRateLimiter(cfg.RateLimiterConfig)
	}

	return &Client{
		client:      bedrockruntime.NewFromConfig(awsCfg),
		modelID:     cfg.ModelID,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		rateLimiter: limiter,
	}, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func (c *Client) Name() string  { return "bedrock" }
func (c *Client) Model() string { return c.modelID }

func (c *Client) Chat(ctx context.Context, messages []llm.Message, tools []llm.ToolSchema) (*llm.Response, error) {
	nameMap := make(map[string]string)
	systemPrompt, apiMessages := convertMessages(messages)
	if len(apiMessages) == 0 {
		return nil, fmt.Errorf("bedrock: no valid messages to send")
	}

	request := map[string]interface{}{
		"anthropic_version": "bedrock-2023-05-31",
		"max_tokens":        c.maxTokens,
		"temperature":       c.temperature,
		"messages":          apiMessages,
	}
	if systemPrompt != "" {
		request["system"] = systemPrompt
	}
	if len(tools) > 0 {
		request["tools"] = convertTools(tools, nameMap)
	}

	body, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("bedrock: marshal request: %w", err)
	}

	invoke := func(ctx context.Context) (interface{}, error) {
		return c.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
			ModelId:     aws.String(c.modelID),
			Body:        body,
			ContentType: aws.String("application/json"),
		})
	}

	var output *bedrockruntime.InvokeModelOutput
	if c.rateLimiter != nil {
		result, err := c.rateLimiter.Do(ctx, invoke)
		if err != nil {
			return nil, fmt.Errorf("bedrock: invoke: %w", err)
		}
		output = result.(*bedrockruntime.InvokeModelOutput)
	} else {
		result, err := invoke(ctx)
		if err != nil {
			return nil, fmt.Errorf("bedrock: invoke: %w", err)
		}
		output = result.(*bedrockruntime.InvokeModelOutput)
	}

	var resp wireResponse
	if err := json.Unmarshal(output.Body, &resp); err != nil {
		return nil, fmt.Errorf("bedrock: unmarshal response: %w", err)
	}

	out := convertResponse(&resp, c.modelID, nameMap)
	if c.rateLimiter != nil {
		c.rateLimiter.RecordTokenUsage(int64(out.Usage.TotalTokens))
	}
	return out, nil
}

// ChatStream satisfies llm.StreamingProvider but delivers the completion as a
// single fragment batch: Bedrock's InvokeModelWithResponseStream does not
// serialize tool-call input_json_delta events correctly (every tool input
// arrives as an empty object), so this module uses the non-streaming
// InvokeModel path and replays its result through the streaming callback,
// the same workaround the Anthropic-on-Bedrock integration has shipped with.
func (c *Client) ChatStream(ctx context.Context, messages []llm.Message, tools []llm.ToolSchema, cb llm.StreamCallback) (*llm.Response, error) {
	resp, err := c.Chat(ctx, messages, tools)
	if err != nil {
		return nil, err
	}
	if resp.Content != "" {
		if err := cb(llm.Fragment{Kind: llm.FragmentText, Text: resp.Content}); err != nil {
			return nil, err
		}
	}
	for i, tc := range resp.ToolCalls {
		if err := cb(llm.Fragment{Kind: llm.FragmentToolCallDelta, ToolCallDelta: llm.ToolCallDelta{
			Index: i, ID: tc.ID, Name: tc.Name, ArgumentsChunk: tc.Arguments,
		}}); err != nil {
			return nil, err
		}
	}
	if err := cb(llm.Fragment{Kind: llm.FragmentDone, StopReason: resp.StopReason, Usage: resp.Usage}); err != nil {
		return nil, err
	}
	return resp, nil
}

func convertMessages(messages []llm.Message) (string, []map[string]interface{}) {
	var systemPrompts []string
	var apiMessages []map[string]interface{}

	for _, msg := range messages {
		switch msg.Role {
		case chat.RoleSystem, chat.RoleDeveloper:
			if text := msg.Text(); text != "" {
				systemPrompts = append(systemPrompts, text)
			}

		case chat.RoleUser:
			var content []map[string]interface{}
			for _, block := range msg.Content {
				switch block.Type {
				case chat.BlockText:
					if block.Text != "" {
						content = append(content, map[string]interface{}{"type": "text", "text": block.Text})
					}
				case chat.BlockImage:
					content = append(content, map[string]interface{}{
						"type": "image",
						"source": map[string]interface{}{
							"type":       "base64",
							"media_type": block.MimeType,
							"data":       block.FileID,
						},
					})
				}
			}
			if len(content) > 0 {
				apiMessages = append(apiMessages, map[string]interface{}{"role": "user", "content": content})
			}

		case chat.RoleAssistant:
			var content []map[string]interface{}
			if text := msg.Text(); text != "" {
				content = append(content, map[string]interface{}{"type": "text", "text": text})
			}
			for _, tc := range msg.ToolCalls {
				var input map[string]interface{}
				if tc.Arguments != "" {
					_ = json.Unmarshal([]byte(tc.Arguments), &input)
				}
				if input == nil {
					input = map[string]interface{}{}
				}
				content = append(content, map[string]interface{}{
					"type": "tool_use", "id": tc.ID, "name": llm.SanitizeToolName(tc.Name), "input": input,
				})
			}
			if len(content) > 0 {
				apiMessages = append(apiMessages, map[string]interface{}{"role": "assistant", "content": content})
			}

		case chat.RoleTool:
			for _, tr := range msg.ToolResults {
				apiMessages = append(apiMessages, map[string]interface{}{
					"role": "user",
					"content": []map[string]interface{}{
						{"type": "tool_result", "tool_use_id": tr.ToolCallID, "content": tr.Content},
					},
				})
			}
		}
	}

	return strings.Join(systemPrompts, "\n\n"), apiMessages
}

func convertTools(tools []llm.ToolSchema, nameMap map[string]string) []map[string]interface{} {
	var apiTools []map[string]interface{}
	for _, t := range tools {
		sanitized := llm.SanitizeToolName(t.Name)
		nameMap[sanitized] = t.Name
		apiTools = append(apiTools, map[string]interface{}{
			"name":         sanitized,
			"description":  t.Description,
			"input_schema": t.Parameters,
		})
	}
	return apiTools
}

func convertResponse(resp *wireResponse, modelID string, nameMap map[string]string) *llm.Response {
	out := &llm.Response{StopReason: resp.StopReason}
	for _, block := range resp.Content {
		blockType, _ := block["type"].(string)
		switch blockType {
		case "text":
			if text, ok := block["text"].(string); ok {
				out.Content += text
			}
		case "tool_use":
			var tc chat.ToolCall
			if id, ok := block["id"].(string); ok {
				tc.ID = id
			}
			if name, ok := block["name"].(string); ok {
				tc.Name = llm.ReverseToolName(nameMap, name)
			}
			if input, ok := block["input"].(map[string]interface{}); ok {
				if raw, err := json.Marshal(input); err == nil {
					tc.Arguments = string(raw)
				}
			}
			out.ToolCalls = append(out.ToolCalls, tc)
		}
	}
	out.Usage = llm.Usage{
		InputTokens:  resp.Usage.InputTokens,
		OutputTokens: resp.Usage.OutputTokens,
		TotalTokens:  resp.Usage.InputTokens + resp.Usage.OutputTokens,
		CostUSD:      estimateCost(modelID, resp.Usage.InputTokens, resp.Usage.OutputTokens),
	}
	return out
}

// estimateCost uses per-million-token pricing by Claude model family.
func estimateCost(modelID string, inputTokens, outputTokens int) float64 {
	var inputPerM, outputPerM float64
	switch {
	case strings.Contains(modelID, "claude-opus-4"):
		inputPerM, outputPerM = 15.0, 75.0
	case strings.Contains(modelID, "claude-haiku-4"):
		inputPerM, outputPerM = 0.8, 4.0
	default:
		inputPerM, outputPerM = 3.0, 15.0
	}
	return float64(inputTokens)*inputPerM/1_000_000 + float64(outputTokens)*outputPerM/1_000_000
}

var _ llm.StreamingProvider = (*Client)(nil)
