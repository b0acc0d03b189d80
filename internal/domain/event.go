package domain

import "time"

type EventType int

const (
	EventTypeStateChange EventType = iota
	EventTypeLog
	EventTypeProgress
	EventTypeResult
	EventTypeError
)

func (t EventType) String() string {
	switch t {
	case EventTypeStateChange:
		return "state_change"
	case EventTypeLog:
		return "log"
	case EventTypeProgress:
		return "progress"
	case EventTypeResult:
		return "result"
	case EventTypeError:
		return "error"
	default:
		return "unknown"
	}
}

// Event is one observable fact about a session: a state transition, a new or
// updated log entry, a progress update, the final result, or an error. The
// engine emits events in the order it processed the frames that caused them.
type Event struct {
	Type      EventType
	Timestamp time.Time
	SessionID string
	Data      any
}

type StateChangeData struct {
	From   SessionState
	To     SessionState
	Reason string
}

type LogData struct {
	Entry LogEntry
	// Merged is true when the entry is an existing tool_call line that just
	// received its output, rather than a newly appended line.
	Merged bool
}

type ProgressData struct {
	Fraction float64
	Status   string
}

type ResultData struct {
	Result SearchResult
}

type ErrorData struct {
	Message string
	Code    string
}

func NewStateChangeEvent(sessionID string, from, to SessionState, reason string) Event {
	return Event{
		Type:      EventTypeStateChange,
		Timestamp: time.Now(),
		SessionID: sessionID,
		Data: StateChangeData{
			From:   from,
			To:     to,
			Reason: reason,
		},
	}
}

func NewLogEvent(sessionID string, entry LogEntry, merged bool) Event {
	return Event{
		Type:      EventTypeLog,
		Timestamp: time.Now(),
		SessionID: sessionID,
		Data:      LogData{Entry: entry, Merged: merged},
	}
}

func NewProgressEvent(sessionID string, fraction float64, status string) Event {
	return Event{
		Type:      EventTypeProgress,
		Timestamp: time.Now(),
		SessionID: sessionID,
		Data:      ProgressData{Fraction: fraction, Status: status},
	}
}

func NewResultEvent(sessionID string, result SearchResult) Event {
	return Event{
		Type:      EventTypeResult,
		Timestamp: time.Now(),
		SessionID: sessionID,
		Data:      ResultData{Result: result},
	}
}

func NewErrorEvent(sessionID, message, code string) Event {
	return Event{
		Type:      EventTypeError,
		Timestamp: time.Now(),
		SessionID: sessionID,
		Data: ErrorData{
			Message: message,
			Code:    code,
		},
	}
}

// StateChange returns the event payload if this is a state change event.
func (e Event) StateChange() (StateChangeData, bool) {
	d, ok := e.Data.(StateChangeData)
	return d, ok
}

func (e Event) Log() (LogData, bool) {
	d, ok := e.Data.(LogData)
	return d, ok
}

func (e Event) Progress() (ProgressData, bool) {
	d, ok := e.Data.(ProgressData)
	return d, ok
}

func (e Event) Result() (ResultData, bool) {
	d, ok := e.Data.(ResultData)
	return d, ok
}

func (e Event) Error() (ErrorData, bool) {
	d, ok := e.Data.(ErrorData)
	return d, ok
}
