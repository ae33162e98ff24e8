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
package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/teradata-labs/agentrt/pkg/observability"
)

// InstrumentedProvider wraps any Provider with observability instrumentation,
// capturing request/response shape, token usage and cost, latency, and
// errors for every call. It is transparent and can wrap any Provider or
// StreamingProvider implementation; ChatStream reports an error for
// providers that only implement Provider.
type InstrumentedProvider struct {
	provider Provider
	tracer   observability.Tracer
}

// NewInstrumentedProvider creates a new instrumented LLM provider.
func NewInstrumentedProvider(provider Provider, tracer observability.Tracer) *InstrumentedProvider {
	return &InstrumentedProvider{
		provider: provider,
		tracer:   tracer,
	}
}

// Name returns the underlying provider name.
func (p *InstrumentedProvider) Name() string {
	return p.provider.Name()
}

// Model returns the underlying model identifier.
func (p *InstrumentedProvider) Model() string {
	return p.provider.Model()
}

// Chat sends a conversation to the LLM and captures detailed observability data.
func (p *InstrumentedProvider) Chat(ctx context.Context, messages []Message, tools []ToolSchema) (*Response, error) {
	_, span := p.tracer.StartSpan(ctx, observability.SpanLLMCompletion)
	defer p.tracer.EndSpan(span)

	start := time.Now()

	span.SetAttribute(observability.AttrLLMProvider, p.provider.Name())
	span.SetAttribute(observability.AttrLLMModel, p.provider.Model())
	span.SetAttribute("llm.messages.count", len(messages))
	span.SetAttribute("llm.tools.count", len(tools))

	if len(tools) > 0 {
		toolNames := make([]string, len(tools))
		for i, tool := range tools {
			toolNames[i] = tool.Name
		}
		span.SetAttribute("llm.tools.names", toolNames)
	}

	span.AddEvent("llm.call.started", map[string]interface{}{
		"provider": p.provider.Name(),
		"model":    p.provider.Model(),
		"messages": len(messages),
		"tools":    len(tools),
	})

	resp, err := p.provider.Chat(ctx, messages, tools)
	duration := time.Since(start)

	if err != nil {
		p.recordFailure(span, err, duration, 0)
		return nil, err
	}

	p.recordSuccess(span, resp, duration)
	return resp, nil
}

// ChatStream streams tokens as they're generated from the LLM with full
// observability, additionally tracking time-to-first-token. Returns an
// error if the underlying provider doesn't implement StreamingProvider.
func (p *InstrumentedProvider) ChatStream(ctx context.Context, messages []Message, tools []ToolSchema, cb StreamCallback) (*Response, error) {
	streaming, ok := p.provider.(StreamingProvider)
	if !ok {
		return nil, fmt.Errorf("provider %s does not support streaming", p.provider.Name())
	}

	_, span := p.tracer.StartSpan(ctx, observability.SpanLLMCompletion)
	defer p.tracer.EndSpan(span)

	start := time.Now()
	var firstTokenTime time.Time
	var ttft time.Duration
	fragmentCount := 0
	firstTokenReceived := false

	span.SetAttribute(observability.AttrLLMProvider, p.provider.Name())
	span.SetAttribute(observability.AttrLLMModel, p.provider.Model())
	span.SetAttribute("llm.streaming", true)
	span.SetAttribute("llm.messages.count", len(messages))
	span.SetAttribute("llm.tools.count", len(tools))

	if len(tools) > 0 {
		toolNames := make([]string, len(tools))
		for i, tool := range tools {
			toolNames[i] = tool.Name
		}
		span.SetAttribute("llm.tools.names", toolNames)
	}

	span.AddEvent("stream.started", map[string]interface{}{
		"provider": p.provider.Name(),
		"model":    p.provider.Model(),
		"messages": len(messages),
		"tools":    len(tools),
	})

	instrumentedCB := func(frag Fragment) error {
		if !firstTokenReceived && (frag.Kind == FragmentText || frag.Kind == FragmentThought) {
			firstTokenTime = time.Now()
			ttft = firstTokenTime.Sub(start)
			firstTokenReceived = true

			span.AddEvent("stream.first_token", map[string]interface{}{
				"ttft_ms": ttft.Milliseconds(),
			})
			p.tracer.RecordMetric(observability.MetricLLMStreamingTTFT, float64(ttft.Milliseconds()), map[string]string{
				observability.AttrLLMProvider: p.provider.Name(),
				observability.AttrLLMModel:    p.provider.Model(),
			})
		}
		fragmentCount++
		if cb != nil {
			return cb(frag)
		}
		return nil
	}

	resp, err := streaming.ChatStream(ctx, messages, tools, instrumentedCB)
	duration := time.Since(start)

	if err != nil {
		p.recordFailure(span, err, duration, fragmentCount)
		return nil, err
	}

	span.SetAttribute("llm.ttft_ms", ttft.Milliseconds())
	span.SetAttribute("llm.streaming.chunks", fragmentCount)
	if duration.Seconds() > 0 {
		throughput := float64(resp.Usage.OutputTokens) / duration.Seconds()
		span.SetAttribute("llm.streaming.throughput", throughput)
		p.tracer.RecordMetric(observability.MetricLLMStreamingThroughput, throughput, map[string]string{
			observability.AttrLLMProvider: p.provider.Name(),
			observability.AttrLLMModel:    p.provider.Model(),
		})
	}
	p.tracer.RecordMetric(observability.MetricLLMStreamingChunks, float64(fragmentCount), map[string]string{
		observability.AttrLLMProvider: p.provider.Name(),
		observability.AttrLLMModel:    p.provider.Model(),
	})

	p.recordSuccess(span, resp, duration)
	return resp, nil
}

func (p *InstrumentedProvider) recordFailure(span *observability.Span, err error, duration time.Duration, fragments int) {
	span.Status = observability.Status{Code: observability.StatusError, Message: err.Error()}
	span.SetAttribute(observability.AttrErrorType, fmt.Sprintf("%T", err))
	span.SetAttribute(observability.AttrErrorMessage, err.Error())
	span.AddEvent("llm.call.failed", map[string]interface{}{
		"error":       err.Error(),
		"duration_ms": duration.Milliseconds(),
		"fragments":   fragments,
	})
	p.tracer.RecordMetric(observability.MetricLLMErrors, 1, map[string]string{
		observability.AttrLLMProvider: p.provider.Name(),
		observability.AttrLLMModel:    p.provider.Model(),
		observability.AttrErrorType:   fmt.Sprintf("%T", err),
	})
}

func (p *InstrumentedProvider) recordSuccess(span *observability.Span, resp *Response, duration time.Duration) {
	span.Status = observability.Status{Code: observability.StatusOK}

	span.SetAttribute("llm.tokens.input", resp.Usage.InputTokens)
	span.SetAttribute("llm.tokens.output", resp.Usage.OutputTokens)
	span.SetAttribute("llm.tokens.total", resp.Usage.TotalTokens)
	span.SetAttribute("llm.cost.usd", resp.Usage.CostUSD)
	span.SetAttribute("llm.stop_reason", resp.StopReason)
	span.SetAttribute("llm.duration_ms", duration.Milliseconds())
	span.SetAttribute("llm.content.length", len(resp.Content))

	if len(resp.ToolCalls) > 0 {
		span.SetAttribute("llm.tool_calls.count", len(resp.ToolCalls))
		toolCallNames := make([]string, len(resp.ToolCalls))
		for i, tc := range resp.ToolCalls {
			toolCallNames[i] = tc.Name
		}
		span.SetAttribute("llm.tool_calls.names", toolCallNames)
	}

	span.AddEvent("llm.call.completed", map[string]interface{}{
		"duration_ms":   duration.Milliseconds(),
		"input_tokens":  resp.Usage.InputTokens,
		"output_tokens": resp.Usage.OutputTokens,
		"cost_usd":      resp.Usage.CostUSD,
		"stop_reason":   resp.StopReason,
		"tool_calls":    len(resp.ToolCalls),
	})

	labels := map[string]string{
		observability.AttrLLMProvider: p.provider.Name(),
		observability.AttrLLMModel:    p.provider.Model(),
	}
	p.tracer.RecordMetric(observability.MetricLLMCalls, 1, labels)
	p.tracer.RecordMetric(observability.MetricLLMLatency, float64(duration.Milliseconds()), labels)
	p.tracer.RecordMetric(observability.MetricLLMTokensInput, float64(resp.Usage.InputTokens), labels)
	p.tracer.RecordMetric(observability.MetricLLMTokensOutput, float64(resp.Usage.OutputTokens), labels)
	p.tracer.RecordMetric(observability.MetricLLMCost, resp.Usage.CostUSD, labels)
}

var _ Provider = (*InstrumentedProvider)(nil)
var _ StreamingProvider = (*InstrumentedProvider)(nil)
