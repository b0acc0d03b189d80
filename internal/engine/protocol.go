package engine

import "encoding/json"

// ─────────────────────────────────────────────────────────────────────────────
// Wire types for the dock strong search WebSocket protocol.
// ─────────────────────────────────────────────────────────────────────────────

// RawFrame is an incoming frame with its type pre-parsed so we can dispatch
// without double-decoding.
type RawFrame struct {
	Type string          `json:"type"`
	Raw  json.RawMessage `json:"-"` // original bytes
}

// unmarshalRaw partially decodes data so we can dispatch on Type.
func unmarshalRaw(data []byte) (RawFrame, error) {
	var rf RawFrame
	if err := json.Unmarshal(data, &rf); err != nil {
		return rf, err
	}
	rf.Raw = data
	return rf, nil
}

// ── Client → server ──────────────────────────────────────────────────────────

// SearchRequest is the single outbound frame, sent once after the connection
// is established.
type SearchRequest struct {
	CodebaseName string `json:"codebase_name"`
	Query        string `json:"query"`
}

// ── Server → client ──────────────────────────────────────────────────────────

// LogFrame carries one log event. Message is a plain string for ordinary
// levels and an object (ToolPayload) for the structured levels:
// tool_call, tool_call_decision, tool_output, agent_thinking.
type LogFrame struct {
	Type    string          `json:"type"` // "log"
	Level   string          `json:"level"`
	Message json.RawMessage `json:"message"`
}

// ToolPayload is the object form of a LogFrame message.
type ToolPayload struct {
	ToolName      string         `json:"tool_name"`
	Timestamp     float64        `json:"timestamp"`
	Parameters    map[string]any `json:"parameters,omitempty"`
	OutputPreview string         `json:"output_preview,omitempty"`
	Decision      string         `json:"decision,omitempty"`
	Thought       string         `json:"thought,omitempty"`
}

// ProgressFrame reports search progress as a fraction in [0, 1]. The engine
// does not reject out-of-range or non-monotonic values from the agent.
type ProgressFrame struct {
	Type     string  `json:"type"` // "progress"
	Progress float64 `json:"progress"`
	Status   string  `json:"status,omitempty"`
}

// ResultFrame is the terminal frame of a successful search.
type ResultFrame struct {
	Type   string        `json:"type"` // "result"
	Result ResultPayload `json:"result"`
}

type ResultPayload struct {
	Answer           string          `json:"answer"`
	RelevantFiles    []string        `json:"relevant_files"`
	ProjectStructure json.RawMessage `json:"project_structure,omitempty"`
	ExecutionTime    float64         `json:"execution_time"`
}

// ErrorFrame is the terminal frame of a failed search.
type ErrorFrame struct {
	Type  string `json:"type"` // "error"
	Error string `json:"error"`
}
