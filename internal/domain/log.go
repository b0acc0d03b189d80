package domain

import (
	"encoding/json"
	"strconv"
	"time"
)

// Log levels emitted by the dock service. The structured levels carry an
// object message with tool metadata instead of a plain string.
const (
	LevelInfo             = "info"
	LevelWarning          = "warning"
	LevelError            = "error"
	LevelSuccess          = "success"
	LevelDebug            = "debug"
	LevelTrace            = "trace"
	LevelToolCall         = "tool_call"
	LevelToolCallDecision = "tool_call_decision"
	LevelToolOutput       = "tool_output"
	LevelAgentThinking    = "agent_thinking"
)

// ToolCallRecord tracks one tool invocation reported by the remote agent.
// Output is attached in place when a matching tool_output event arrives.
// The correlation key is toolName|timestamp; identical-timestamp calls to
// the same tool collide on it, which is a limitation of the wire protocol
// (no server-assigned call id).
type ToolCallRecord struct {
	ToolName   string
	Timestamp  float64
	Parameters map[string]any
	Output     string
	HasOutput  bool
}

// CorrelationKey returns the heuristic key pairing a call with its output.
func (r *ToolCallRecord) CorrelationKey() string {
	return ToolCorrelationKey(r.ToolName, r.Timestamp)
}

// ToolCorrelationKey builds the toolName|timestamp lookup key. Timestamps
// are fractional unix seconds as reported by the agent; a call and its
// output usually carry different timestamps, so exact-key pairing only works
// when the agent echoes the call's timestamp back.
func ToolCorrelationKey(toolName string, timestamp float64) string {
	return toolName + "|" + strconv.FormatFloat(timestamp, 'g', -1, 64)
}

// LogEntry is one rendered line in the session log. Entries are append-only
// and evicted oldest-first once the log store reaches capacity.
type LogEntry struct {
	Timestamp time.Time
	Level     string
	Message   string
	// Tool is set when the entry represents a tool invocation; the record is
	// shared with the correlator and mutates when output is merged in.
	Tool *ToolCallRecord
}

// SearchResult is the final structured outcome of one completed session.
type SearchResult struct {
	Answer               string
	RelevantFiles        []string
	FileContents         map[string]string
	ProjectStructure     json.RawMessage
	ExecutionTimeSeconds float64
}
