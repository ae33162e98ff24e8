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
package mcpserver

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teradata-labs/agentrt/pkg/mcp/protocol"
)

// fakeMCPClient satisfies mcpClient without any real process/network I/O.
type fakeMCPClient struct {
	tools      []protocol.Tool
	listErr    error
	callResult interface{}
	callErr    error
	closed     bool
}

func (f *fakeMCPClient) Initialize(ctx context.Context, clientInfo protocol.Implementation) error {
	return nil
}

func (f *fakeMCPClient) ListTools(ctx context.Context) ([]protocol.Tool, error) {
	return f.tools, f.listErr
}

func (f *fakeMCPClient) CallTool(ctx context.Context, name string, arguments map[string]interface{}) (interface{}, error) {
	return f.callResult, f.callErr
}

func (f *fakeMCPClient) Close() error {
	f.closed = true
	return nil
}

func TestToolset_RefreshFiltersByAllowList(t *testing.T) {
	fake := &fakeMCPClient{tools: []protocol.Tool{
		{Name: "forecast"},
		{Name: "alerts"},
	}}
	ts := &Toolset{
		name:   "weather",
		server: ServerConfig{Allow: []string{"weather_forecast"}},
		client: fake,
	}

	require.NoError(t, ts.refresh(context.Background()))
	require.Len(t, ts.tools, 1)
	assert.Equal(t, "forecast", ts.tools[0].Name())
}

func TestToolset_RefreshPropagatesListToolsError(t *testing.T) {
	fake := &fakeMCPClient{listErr: assertErr{"boom"}}
	ts := &Toolset{name: "weather", client: fake}

	err := ts.refresh(context.Background())
	assert.ErrorContains(t, err, "boom")
}

func TestToolset_InitializeRefreshesToolList(t *testing.T) {
	fake := &fakeMCPClient{tools: []protocol.Tool{{Name: "forecast"}}}
	ts := &Toolset{name: "weather", server: ServerConfig{Allow: []string{"*"}}, client: fake}

	require.NoError(t, ts.Initialize(context.Background()))
	assert.Len(t, ts.Tools(), 1)
}

func TestToolset_CloseDelegatesToClient(t *testing.T) {
	fake := &fakeMCPClient{}
	ts := &Toolset{client: fake}
	require.NoError(t, ts.Close())
	assert.True(t, fake.closed)
}

func TestRemoteTool_ExecuteConcatenatesTextContent(t *testing.T) {
	fake := &fakeMCPClient{callResult: &protocol.CallToolResult{
		Content: []protocol.Content{
			{Type: "text", Text: "hello "},
			{Type: "text", Text: "world"},
			{Type: "image", Text: "should be ignored"},
		},
	}}
	tool := &remoteTool{toolsetName: "weather", def: protocol.Tool{Name: "forecast"}, client: fake}

	res, err := tool.Execute(context.Background(), map[string]interface{}{})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "hello world", res.Data)
}

func TestRemoteTool_ExecuteReportsIsErrorAsFailure(t *testing.T) {
	fake := &fakeMCPClient{callResult: &protocol.CallToolResult{
		Content: []protocol.Content{{Type: "text", Text: "bad input"}},
		IsError: true,
	}}
	tool := &remoteTool{def: protocol.Tool{Name: "forecast"}, client: fake}

	res, err := tool.Execute(context.Background(), map[string]interface{}{})
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, "bad input", res.Data)
}

func TestRemoteTool_ExecutePropagatesCallError(t *testing.T) {
	fake := &fakeMCPClient{callErr: assertErr{"call failed"}}
	tool := &remoteTool{def: protocol.Tool{Name: "forecast"}, client: fake}

	_, err := tool.Execute(context.Background(), map[string]interface{}{})
	assert.ErrorContains(t, err, "call failed")
}

type assertErr struct{ msg string }

func (e assertErr) Error() string { return e.msg }
