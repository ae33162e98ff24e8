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

// Package bridge implements the Agent Bridge: the per-connection object
// that owns one client's ChatSession, dispatches inbound client events by
// type, and mediates every outbound runtime event (spec §4.1).
package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/teradata-labs/agentrt/pkg/agentconfig"
	"github.com/teradata-labs/agentrt/pkg/chat"
	"github.com/teradata-labs/agentrt/pkg/events"
	"github.com/teradata-labs/agentrt/pkg/llm"
	"github.com/teradata-labs/agentrt/pkg/prompts"
	"github.com/teradata-labs/agentrt/pkg/runtime"
	"github.com/teradata-labs/agentrt/pkg/session"
	"github.com/teradata-labs/agentrt/pkg/toolchest"
)

// State is the Bridge's informal lifecycle state (spec §4.1's state
// machine diagram).
type State int

const (
	StateInit State = iota
	StateConnected
	StateIdle
	StateInteracting
	StateClosing
	StateClosed
)

// Connection is the transport-agnostic collaborator a Bridge drives.
// Framing, auth, and the wire protocol itself are explicitly out of scope
// (spec §1); this is the narrow seam the core depends on.
type Connection interface {
	// Receive blocks for the next inbound client frame as raw JSON.
	Receive(ctx context.Context) (json.RawMessage, error)
	// Send writes one outbound event to the client.
	Send(ctx context.Context, evt events.Event) error
	Close() error
}

// EventSink is the durable/transport gateway every event flows through,
// satisfied by *eventlog.Gateway. Kept as an interface here so bridge
// doesn't import eventlog just to accept *Gateway by value.
type EventSink interface {
	Log(ctx context.Context, evt events.Event)
}

// FileHandler resolves an attached file id to its content block. Blob/S3/
// local workspace backends are out of scope (spec §1); this is their
// contract with the core.
type FileHandler interface {
	Fetch(ctx context.Context, fileID string) (chat.ContentBlock, error)
}

// AvatarClient is the narrow seam into the avatar vendor SDK (out of
// scope; interface only per spec §1).
type AvatarClient interface {
	Speak(ctx context.Context, text string) error
	Close() error
}

// AvatarFactory builds an AvatarClient for a requested avatar session.
type AvatarFactory func(ctx context.Context, avatarID, quality, videoEncoding string) (AvatarClient, error)

// Config wires a Bridge's collaborators.
type Config struct {
	Connection    Connection
	Session       *chat.ChatSession
	SessionMgr    *session.Manager
	ConfigLoader  *agentconfig.Loader
	ToolChest     *toolchest.Chest
	Vendors       llm.VendorBuilders
	EventSink     EventSink
	FileHandler   FileHandler
	AvatarFactory AvatarFactory
	Logger        *zap.Logger

	// PromptRegistry, when set, supplies an optional managed/A-B-tested
	// prompt addendum per agent (keyed "<agent_key>.addendum"), rendered
	// as an extra promptbuilder section alongside persona/think-protocol.
	PromptRegistry prompts.PromptRegistry

	// RuntimeOptions configures every runtime.Runtime this Bridge builds
	// per interact() call (concurrency cap, backoff bounds, root role).
	RuntimeOptions []runtime.Option
}

// Bridge is the single point of contact for one client connection.
type Bridge struct {
	conn         Connection
	session      *chat.ChatSession
	sessionMgr   *session.Manager
	configLoader *agentconfig.Loader
	toolChest    *toolchest.Chest
	vendors      llm.VendorBuilders
	sink         EventSink
	files        FileHandler
	avatarFn     AvatarFactory
	logger       *zap.Logger
	runtimeOpts  []runtime.Option
	promptReg    prompts.PromptRegistry

	mu    sync.Mutex
	state State

	cancel *runtime.CancelFlag
	avatar AvatarClient

	// partial-assistant buffer for the TextDelta avatar-speak-chunk rule
	// (spec §4.1's runtime_callback behaviors).
	partialBuf    []byte
	thoughtSpoken bool
}

// New builds a Bridge bound to one connection and session. cfg.Session
// must already be installed in cfg.SessionMgr's cache (via Manager.Get or
// Manager.New) by the caller.
func New(cfg Config) *Bridge {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bridge{
		conn:         cfg.Connection,
		session:      cfg.Session,
		sessionMgr:   cfg.SessionMgr,
		configLoader: cfg.ConfigLoader,
		toolChest:    cfg.ToolChest,
		vendors:      cfg.Vendors,
		sink:         cfg.EventSink,
		files:        cfg.FileHandler,
		avatarFn:     cfg.AvatarFactory,
		logger:       logger,
		runtimeOpts:  cfg.RuntimeOptions,
		promptReg:    cfg.PromptRegistry,
		state:        StateInit,
		cancel:       &runtime.CancelFlag{},
	}
}

func (b *Bridge) setState(s State) {
	b.mu.Lock()
	b.state = s
	b.mu.Unlock()
}

// State reports the Bridge's current lifecycle state.
func (b *Bridge) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// handlerFunc processes one decoded inbound event. Returning an error
// surfaces it to the client as a SystemMessageEvent and is otherwise
// non-fatal to the connection (spec §4.1: "any exception thrown from a
// handler is caught, logged as an internal error event, and reported to
// the client").
type handlerFunc func(ctx context.Context, evt events.Event) error

// handlers is the table-driven dispatch map keyed by the inbound event's
// type tag, the Bridge's analogue of the Event Registry's decoder table —
// no hand-written type-switch ladder.
func (b *Bridge) handlers() map[events.Type]handlerFunc {
	return map[events.Type]handlerFunc{
		events.TypeTextInput:   b.handleTextInput,
		events.TypeUpdateTools: b.handleUpdateTools,
		events.TypeSetAgent:    b.handleSetAgent,
		events.TypeSetAvatar:   b.handleSetAvatar,
		events.TypeCallTool:    b.handleCallTool,
	}
}

// run blocks until the client disconnects (spec §4.1 public contract).
// Decoding errors and handler errors are both reported to the client as
// SystemMessageEvents and never terminate the loop; only Connection
// errors (disconnect, read failure) end run().
func (b *Bridge) Run(ctx context.Context) error {
	b.setState(StateConnected)
	if err := b.sendCapabilitySnapshot(ctx); err != nil {
		b.logger.Warn("bridge: failed to send capability snapshot", zap.Error(err))
	}
	b.setState(StateIdle)

	defer b.setState(StateClosed)

	dispatch := b.handlers()
	for {
		raw, err := b.conn.Receive(ctx)
		if err != nil {
			return err
		}

		evt, decErr := events.Decode(raw)
		if decErr != nil {
			b.reportError(ctx, "decode", decErr)
			continue
		}

		handler, ok := dispatch[evt.GetBase().Type]
		if !ok {
			b.reportError(ctx, "dispatch", fmt.Errorf("bridge: no handler for event type %q", evt.GetBase().Type))
			continue
		}

		b.setState(StateInteracting)
		if herr := b.safeHandle(ctx, handler, evt); herr != nil {
			b.reportError(ctx, "handler", herr)
		}
		b.setState(StateIdle)
	}
}

// safeHandle recovers a panicking handler so it can never leave the
// Bridge stuck in StateInteracting or crash run() — the Bridge is a
// firewall around the Runtime and Tool Chest.
func (b *Bridge) safeHandle(ctx context.Context, handler handlerFunc, evt events.Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("bridge: handler panic: %v", r)
		}
	}()
	return handler(ctx, evt)
}

func (b *Bridge) reportError(ctx context.Context, phase string, err error) {
	b.logger.Error("bridge: "+phase+" error", zap.Error(err))
	sessionID := b.session.ID
	sysEvt, cerr := events.NewSystemMessageEvent(sessionID, "system", "error", fmt.Sprintf("%s: %v", phase, err))
	if cerr != nil {
		return
	}
	b.logAndForward(ctx, sysEvt)
}

// logAndForward sends evt through the Event Session Logger and to the
// client connection. A client-send failure is logged but never aborts
// the turn: delivery to the client is best-effort, delivery to the
// durable log is at-least-once (spec §1 non-goals).
func (b *Bridge) logAndForward(ctx context.Context, evt events.Event) {
	if b.sink != nil {
		b.sink.Log(ctx, evt)
	}
	if b.conn != nil {
		if err := b.conn.Send(ctx, evt); err != nil {
			b.logger.Warn("bridge: client send failed", zap.String("session_id", evt.GetBase().SessionID), zap.Error(err))
		}
	}
}

// sendCapabilitySnapshot sends the available agent catalog (and avatar
// list, when present) right after connecting. No dedicated event variant
// exists for this in the registry, so it is carried as an informational
// SystemMessageEvent whose content is the serialized client catalog —
// the same shape agentconfig.Loader.ClientCatalog() already produces for
// UI consumption.
func (b *Bridge) sendCapabilitySnapshot(ctx context.Context) error {
	if b.configLoader == nil {
		return nil
	}
	catalog := b.configLoader.ClientCatalog()
	raw, err := json.Marshal(catalog)
	if err != nil {
		return err
	}
	evt, err := events.NewSystemMessageEvent(b.sessionID(), "system", "info", string(raw))
	if err != nil {
		return err
	}
	b.logAndForward(ctx, evt)
	return nil
}

func (b *Bridge) sessionID() string { return b.session.ID }
