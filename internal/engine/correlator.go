package engine

import "github.com/codedock/docksearch/internal/domain"

// ToolCallCorrelator pairs tool_call events with later tool_output events.
// The wire protocol carries no call id, so pairing is heuristic: an exact
// toolName|timestamp key first, then the most recently registered call for
// the same tool name. Concurrent in-flight calls to the same tool can be
// misattributed under the fallback; that is a documented protocol
// limitation, not something this code tries to repair.
type ToolCallCorrelator struct {
	byKey        map[string]*domain.ToolCallRecord
	latestByName map[string]*domain.ToolCallRecord
}

func NewToolCallCorrelator() *ToolCallCorrelator {
	return &ToolCallCorrelator{
		byKey:        make(map[string]*domain.ToolCallRecord),
		latestByName: make(map[string]*domain.ToolCallRecord),
	}
}

// RecordCall registers a tool invocation and returns its record. A newer
// call for the same tool name supersedes the previous one as the fallback
// target.
func (c *ToolCallCorrelator) RecordCall(toolName string, timestamp float64, parameters map[string]any) *domain.ToolCallRecord {
	rec := &domain.ToolCallRecord{
		ToolName:   toolName,
		Timestamp:  timestamp,
		Parameters: parameters,
	}
	c.byKey[rec.CorrelationKey()] = rec
	c.latestByName[toolName] = rec
	return rec
}

// AttachOutput links output to an existing call record if one can be found.
// Exact key match wins over name fallback. Returns the record the output
// was attached to, or nil when no call matched — in which case the caller
// records the output as a standalone log entry. An output that arrives
// before its call is never retroactively linked.
func (c *ToolCallCorrelator) AttachOutput(toolName string, timestamp float64, output string) *domain.ToolCallRecord {
	rec, ok := c.byKey[domain.ToolCorrelationKey(toolName, timestamp)]
	if !ok {
		rec, ok = c.latestByName[toolName]
	}
	if !ok || rec == nil {
		return nil
	}
	rec.Output = output
	rec.HasOutput = true
	return rec
}

// Len returns the number of registered call records.
func (c *ToolCallCorrelator) Len() int {
	return len(c.byKey)
}

// Reset drops all correlation state. Records are only ever deleted here, on
// session reset.
func (c *ToolCallCorrelator) Reset() {
	c.byKey = make(map[string]*domain.ToolCallRecord)
	c.latestByName = make(map[string]*domain.ToolCallRecord)
}
