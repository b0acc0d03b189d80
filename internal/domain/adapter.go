package domain

import "sync"

// EventAdapter fans session events out to a single buffered channel. Emit
// never blocks; if the consumer falls behind the buffer, events are dropped.
type EventAdapter struct {
	sessionID string
	events    chan Event
	done      chan struct{}
	mu        sync.Mutex
	closed    bool
	closeOnce sync.Once
}

func NewEventAdapter(sessionID string, bufferSize int) *EventAdapter {
	if bufferSize <= 0 {
		bufferSize = 100
	}
	return &EventAdapter{
		sessionID: sessionID,
		events:    make(chan Event, bufferSize),
		done:      make(chan struct{}),
	}
}

func (a *EventAdapter) Events() <-chan Event {
	return a.events
}

func (a *EventAdapter) Emit(event Event) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return
	}

	select {
	case a.events <- event:
	default:
		return
	}
}

func (a *EventAdapter) EmitStateChange(from, to SessionState, reason string) {
	a.Emit(NewStateChangeEvent(a.sessionID, from, to, reason))
}

func (a *EventAdapter) EmitLog(entry LogEntry, merged bool) {
	a.Emit(NewLogEvent(a.sessionID, entry, merged))
}

func (a *EventAdapter) EmitProgress(fraction float64, status string) {
	a.Emit(NewProgressEvent(a.sessionID, fraction, status))
}

func (a *EventAdapter) EmitResult(result SearchResult) {
	a.Emit(NewResultEvent(a.sessionID, result))
}

func (a *EventAdapter) EmitError(message, code string) {
	a.Emit(NewErrorEvent(a.sessionID, message, code))
}

// Close closes the events channel so readers see EOF.
func (a *EventAdapter) Close() {
	a.closeOnce.Do(func() {
		a.mu.Lock()
		defer a.mu.Unlock()

		a.closed = true
		close(a.done)
		close(a.events)
	})
}
