// Package engine implements the strong search session protocol: connection
// lifecycle, inbound frame dispatch, tool call/output correlation, progress
// and log tracking, and final result aggregation. One SearchSession drives
// one query over one WebSocket connection; after a terminal state it can be
// reset and reused for a new query.
//
// Frames are processed strictly in arrival order on a single read goroutine;
// a frame's handling completes fully before the next frame is dispatched.
// Transport and protocol problems are absorbed into log entries and state
// transitions — only misuse of the public contract is returned to the
// caller as an error.
package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/codedock/docksearch/internal/domain"
	"github.com/codedock/docksearch/internal/transport"
)

// Collaborator is the dock server surface the engine depends on:
// client id acquisition, the WebSocket endpoint, and batch file content.
// *dockclient.Client satisfies this.
type Collaborator interface {
	FileBatchFetcher
	NewClientID(ctx context.Context) (string, error)
	SearchSocketURL(clientID string) string
}

// SearchSession is the protocol engine for one search session. All mutable
// state is owned by the session instance; there is no shared module state.
type SearchSession struct {
	mu      sync.Mutex
	session *domain.Session
	events  *domain.EventAdapter
	dock    Collaborator

	conn       *transport.Conn
	correlator *ToolCallCorrelator
	progress   *ProgressTracker
	logs       *LogStore
	aggregator *ResultAggregator
	result     *domain.SearchResult

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Option configures a SearchSession.
type Option func(*SearchSession)

// WithLogCapacity overrides the default bound on retained log entries.
func WithLogCapacity(capacity int) Option {
	return func(s *SearchSession) {
		s.logs = NewLogStore(capacity)
	}
}

// NewSearchSession creates an engine bound to the given dock collaborator.
func NewSearchSession(dock Collaborator, opts ...Option) *SearchSession {
	id := uuid.New().String()
	s := &SearchSession{
		session:    domain.NewSession(id),
		events:     domain.NewEventAdapter(id, 256),
		dock:       dock,
		correlator: NewToolCallCorrelator(),
		progress:   NewProgressTracker(),
		logs:       NewLogStore(DefaultLogCapacity),
		aggregator: NewResultAggregator(dock),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Events returns the session's event stream. The channel is closed after
// Close.
func (s *SearchSession) Events() <-chan domain.Event {
	return s.events.Events()
}

// State returns the current lifecycle state.
func (s *SearchSession) State() domain.SessionState {
	return s.session.GetState()
}

// Session returns a point-in-time copy of the session descriptor.
func (s *SearchSession) Session() domain.SessionSnapshot {
	return s.session.Snapshot()
}

// LogEntries returns the surviving log entries in insertion order.
func (s *SearchSession) LogEntries() []domain.LogEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.logs.Entries()
}

// ProgressPercent returns the display percentage, clamped to [0, 100].
func (s *SearchSession) ProgressPercent() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.progress.Percent()
}

// ProgressStatus returns the last progress status annotation.
func (s *SearchSession) ProgressStatus() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.progress.Status()
}

// Result returns the aggregated result of a completed session, or nil.
func (s *SearchSession) Result() *domain.SearchResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result
}

// Start performs the two-phase handshake: acquire a client id, then open
// the WebSocket connection. The context bounds id acquisition and dialing;
// once connected, the connection lives until Stop or a terminal frame.
// Failures move the session to Errored and are also returned.
func (s *SearchSession) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if st := s.session.GetState(); st != domain.SessionStateIdle {
		return domain.NewInvalidStateError("start", st)
	}
	s.transition(domain.SessionStateAcquiringID, "start requested")

	clientID, err := s.dock.NewClientID(ctx)
	if err != nil {
		s.failLocked(err.Error(), "ACQUISITION_ERROR")
		return err
	}
	s.session.SetClientID(clientID)
	s.transition(domain.SessionStateConnecting, "client id obtained")

	conn, err := transport.Dial(ctx, s.dock.SearchSocketURL(clientID))
	if err != nil {
		s.failLocked(err.Error(), "CONNECTION_ERROR")
		return err
	}
	s.conn = conn
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.transition(domain.SessionStateConnected, "socket open")
	s.appendLogLocked(domain.LevelInfo, "connected (client id: "+clientID+")")

	conn.StartPing(s.ctx, 15*time.Second)

	s.wg.Add(1)
	go s.readLoop(conn)

	return nil
}

// Search sends the search request frame. The session must be Connected.
func (s *SearchSession) Search(codebaseName, query string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if st := s.session.GetState(); st != domain.SessionStateConnected {
		return domain.NewInvalidStateError("search", st)
	}
	if err := s.conn.Send(SearchRequest{CodebaseName: codebaseName, Query: query}); err != nil {
		s.failLocked(err.Error(), "SEND_ERROR")
		return err
	}
	s.session.SetTarget(codebaseName, query)
	s.transition(domain.SessionStateSearching, "search request sent")
	return nil
}

// Run is Start followed by Search.
func (s *SearchSession) Run(ctx context.Context, codebaseName, query string) error {
	if err := s.Start(ctx); err != nil {
		return err
	}
	return s.Search(codebaseName, query)
}

// Stop closes the connection and ends the session. Progress is reset to
// zero. Stopping an already-terminal or idle session is a no-op.
func (s *SearchSession) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.session.GetState()
	if st == domain.SessionStateIdle || st.Terminal() {
		return
	}

	s.teardownLocked()
	s.transition(domain.SessionStateStopped, "stopped by caller")
	s.progress.Reset()
	s.appendLogLocked(domain.LevelInfo, "search stopped")
}

// Reset returns a terminal session to Idle so a new search can be started.
// Correlation state, logs, progress, and the previous result are discarded.
func (s *SearchSession) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.session.GetState()
	if !st.Terminal() {
		return domain.NewInvalidStateError("reset", st)
	}

	s.transition(domain.SessionStateIdle, "reset")
	s.session.SetClientID("")
	s.correlator.Reset()
	s.progress.Reset()
	s.logs.Reset()
	s.result = nil
	return nil
}

// Close stops the session if active, waits for the read loop to exit, and
// closes the event stream. The session cannot be reused afterwards.
func (s *SearchSession) Close() {
	s.Stop()
	s.wg.Wait()
	s.events.Close()
}

// readLoop consumes frames from the connection in arrival order. It is the
// only goroutine that dispatches frames, which gives the strict ordering
// guarantee: no two frames are ever processed concurrently.
func (s *SearchSession) readLoop(conn *transport.Conn) {
	defer s.wg.Done()

	for {
		data, err := conn.ReadMessage()
		if err != nil {
			s.handleDisconnect(err)
			return
		}
		if len(data) == 0 {
			continue
		}
		s.dispatchFrame(data)
	}
}

// dispatchFrame classifies one inbound frame and routes it. Unknown or
// malformed frames produce a warning log entry and nothing else.
func (s *SearchSession) dispatchFrame(data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session.GetState().Terminal() {
		return
	}

	rf, err := unmarshalRaw(data)
	if err != nil {
		s.appendLogLocked(domain.LevelWarning, "malformed frame: "+err.Error())
		return
	}

	switch rf.Type {
	case "log":
		s.handleLogFrame(rf)
	case "progress":
		s.handleProgressFrame(rf)
	case "result":
		s.handleResultFrame(rf)
	case "error":
		s.handleErrorFrame(rf)
	default:
		s.appendLogLocked(domain.LevelWarning, "unknown message type: "+rf.Type)
	}
}

func (s *SearchSession) handleLogFrame(rf RawFrame) {
	var frame LogFrame
	if err := json.Unmarshal(rf.Raw, &frame); err != nil {
		s.appendLogLocked(domain.LevelWarning, "malformed log frame: "+err.Error())
		return
	}

	switch frame.Level {
	case domain.LevelToolCall, domain.LevelToolOutput,
		domain.LevelToolCallDecision, domain.LevelAgentThinking:
		var payload ToolPayload
		if err := json.Unmarshal(frame.Message, &payload); err != nil {
			// Fall back to treating the message as a plain string.
			s.appendLogLocked(frame.Level, decodeMessageText(frame.Message))
			return
		}
		s.handleToolEvent(frame.Level, payload)
	default:
		s.appendLogLocked(frame.Level, decodeMessageText(frame.Message))
	}
}

// handleToolEvent processes the structured log levels.
func (s *SearchSession) handleToolEvent(level string, payload ToolPayload) {
	switch level {
	case domain.LevelToolCall:
		rec := s.correlator.RecordCall(payload.ToolName, payload.Timestamp, payload.Parameters)
		entry := domain.LogEntry{
			Timestamp: time.Now(),
			Level:     domain.LevelToolCall,
			Message:   payload.ToolName,
			Tool:      rec,
		}
		s.logs.Append(entry)
		s.events.EmitLog(entry, false)

	case domain.LevelToolOutput:
		rec := s.correlator.AttachOutput(payload.ToolName, payload.Timestamp, payload.OutputPreview)
		if rec != nil {
			// Output merged into the existing call entry; no new log line.
			entry := domain.LogEntry{
				Timestamp: time.Now(),
				Level:     domain.LevelToolCall,
				Message:   rec.ToolName,
				Tool:      rec,
			}
			s.events.EmitLog(entry, true)
			return
		}
		s.appendLogLocked(domain.LevelToolOutput, payload.ToolName+": "+payload.OutputPreview)

	case domain.LevelToolCallDecision:
		s.appendLogLocked(level, payload.ToolName+": "+payload.Decision)

	case domain.LevelAgentThinking:
		s.appendLogLocked(level, payload.Thought)
	}
}

func (s *SearchSession) handleProgressFrame(rf RawFrame) {
	var frame ProgressFrame
	if err := json.Unmarshal(rf.Raw, &frame); err != nil {
		s.appendLogLocked(domain.LevelWarning, "malformed progress frame: "+err.Error())
		return
	}
	s.progress.Update(frame.Progress, frame.Status)
	s.events.EmitProgress(frame.Progress, frame.Status)
}

func (s *SearchSession) handleResultFrame(rf RawFrame) {
	var frame ResultFrame
	if err := json.Unmarshal(rf.Raw, &frame); err != nil {
		s.appendLogLocked(domain.LevelWarning, "malformed result frame: "+err.Error())
		return
	}

	st := s.session.GetState()
	if st != domain.SessionStateSearching {
		s.appendLogLocked(domain.LevelWarning, "result frame while "+st.String())
		return
	}

	result := s.aggregator.Aggregate(s.ctx, s.session.Snapshot().CodebaseName, frame.Result)
	s.result = &result

	s.transition(domain.SessionStateCompleted, "result frame")
	s.appendLogLocked(domain.LevelSuccess,
		fmt.Sprintf("search completed in %.2fs", frame.Result.ExecutionTime))
	s.events.EmitResult(result)
	s.teardownLocked()
}

func (s *SearchSession) handleErrorFrame(rf RawFrame) {
	var frame ErrorFrame
	if err := json.Unmarshal(rf.Raw, &frame); err != nil {
		s.appendLogLocked(domain.LevelWarning, "malformed error frame: "+err.Error())
		return
	}
	s.failLocked(frame.Error, "AGENT_ERROR")
}

// handleDisconnect runs when the read loop exits. A close after a terminal
// frame is a normal disconnect; a drop mid-search surfaces as Errored and
// requires the caller to restart the session explicitly.
func (s *SearchSession) handleDisconnect(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session.GetState().Terminal() {
		s.appendLogLocked(domain.LevelInfo, "disconnected")
		return
	}
	if transport.IsCloseError(err) {
		s.failLocked("connection closed by server", "CONNECTION_CLOSED")
		return
	}
	s.failLocked("connection error: "+err.Error(), "CONNECTION_ERROR")
}

// failLocked records a fatal session error: log entry, Errored transition,
// error event, and connection teardown. Caller holds s.mu.
func (s *SearchSession) failLocked(message, code string) {
	s.appendLogLocked(domain.LevelError, message)
	s.teardownLocked()
	if s.session.GetState() != domain.SessionStateErrored {
		s.transition(domain.SessionStateErrored, message)
	}
	s.events.EmitError(message, code)
}

func (s *SearchSession) teardownLocked() {
	if s.cancel != nil {
		s.cancel()
	}
	if s.conn != nil {
		s.conn.Close()
	}
}

// transition applies a state change and emits it. Invalid transitions here
// would be engine bugs; they are surfaced on the event stream rather than
// panicking.
func (s *SearchSession) transition(to domain.SessionState, reason string) {
	from := s.session.GetState()
	if err := s.session.TransitionTo(to, reason); err != nil {
		s.events.EmitError(err.Error(), "BAD_TRANSITION")
		return
	}
	s.events.EmitStateChange(from, to, reason)
}

func (s *SearchSession) appendLogLocked(level, message string) {
	entry := domain.LogEntry{
		Timestamp: time.Now(),
		Level:     level,
		Message:   message,
	}
	s.logs.Append(entry)
	s.events.EmitLog(entry, false)
}

// decodeMessageText renders a log frame message that should be a plain
// string. Non-string payloads are rendered as compact JSON.
func decodeMessageText(raw json.RawMessage) string {
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return text
	}
	return string(raw)
}
