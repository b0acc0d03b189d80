package domain

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

type SessionState int

const (
	SessionStateIdle SessionState = iota
	SessionStateAcquiringID
	SessionStateConnecting
	SessionStateConnected
	SessionStateSearching
	SessionStateCompleted
	SessionStateErrored
	SessionStateStopped
)

func (s SessionState) String() string {
	switch s {
	case SessionStateIdle:
		return "idle"
	case SessionStateAcquiringID:
		return "acquiring_id"
	case SessionStateConnecting:
		return "connecting"
	case SessionStateConnected:
		return "connected"
	case SessionStateSearching:
		return "searching"
	case SessionStateCompleted:
		return "completed"
	case SessionStateErrored:
		return "errored"
	case SessionStateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Terminal reports whether the state ends the current session. A terminal
// session does not continue without an explicit reset back to idle.
func (s SessionState) Terminal() bool {
	switch s {
	case SessionStateCompleted, SessionStateErrored, SessionStateStopped:
		return true
	default:
		return false
	}
}

var (
	ErrInvalidTransition = errors.New("invalid state transition")
	ErrInvalidState      = errors.New("operation not valid in current state")
)

func NewInvalidTransitionError(from, to SessionState) error {
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
}

// NewInvalidStateError reports an operation invoked outside its required
// lifecycle state. This is a contract violation by the caller and is
// returned synchronously rather than absorbed into the event stream.
func NewInvalidStateError(op string, state SessionState) error {
	return fmt.Errorf("%w: %s while %s", ErrInvalidState, op, state)
}

var validTransitions = map[SessionState][]SessionState{
	SessionStateIdle:        {SessionStateAcquiringID},
	SessionStateAcquiringID: {SessionStateConnecting, SessionStateErrored, SessionStateStopped},
	SessionStateConnecting:  {SessionStateConnected, SessionStateErrored, SessionStateStopped},
	SessionStateConnected:   {SessionStateSearching, SessionStateErrored, SessionStateStopped},
	SessionStateSearching:   {SessionStateCompleted, SessionStateErrored, SessionStateStopped},
	SessionStateCompleted:   {SessionStateIdle},
	SessionStateErrored:     {SessionStateIdle},
	SessionStateStopped:     {SessionStateIdle},
}

func CanTransition(from, to SessionState) bool {
	allowed, ok := validTransitions[from]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

type StateTransition struct {
	From      SessionState
	To        SessionState
	Reason    string
	Timestamp time.Time
}

// Session is one client's end-to-end interaction for a single search query
// over one connection. It is owned exclusively by the engine instance that
// created it; there is no process-wide session singleton.
type Session struct {
	ID           string
	ClientID     string
	CodebaseName string
	Query        string
	State        SessionState
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Transitions  []StateTransition

	mu sync.RWMutex
}

func NewSession(id string) *Session {
	now := time.Now()
	return &Session{
		ID:          id,
		State:       SessionStateIdle,
		CreatedAt:   now,
		UpdatedAt:   now,
		Transitions: make([]StateTransition, 0),
	}
}

func (s *Session) TransitionTo(newState SessionState, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !CanTransition(s.State, newState) {
		return NewInvalidTransitionError(s.State, newState)
	}

	transition := StateTransition{
		From:      s.State,
		To:        newState,
		Reason:    reason,
		Timestamp: time.Now(),
	}

	s.Transitions = append(s.Transitions, transition)
	s.State = newState
	s.UpdatedAt = transition.Timestamp

	return nil
}

func (s *Session) GetState() SessionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.State
}

func (s *Session) SetClientID(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ClientID = id
	s.UpdatedAt = time.Now()
}

func (s *Session) GetClientID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ClientID
}

func (s *Session) SetTarget(codebaseName, query string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.CodebaseName = codebaseName
	s.Query = query
	s.UpdatedAt = time.Now()
}

// SessionSnapshot is a point-in-time, lock-free copy of a Session's fields.
type SessionSnapshot struct {
	ID           string
	ClientID     string
	CodebaseName string
	Query        string
	State        SessionState
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Transitions  []StateTransition
}

// Snapshot returns an atomic copy of the session under its read lock.
func (s *Session) Snapshot() SessionSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	transitions := make([]StateTransition, len(s.Transitions))
	copy(transitions, s.Transitions)

	return SessionSnapshot{
		ID:           s.ID,
		ClientID:     s.ClientID,
		CodebaseName: s.CodebaseName,
		Query:        s.Query,
		State:        s.State,
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
		Transitions:  transitions,
	}
}
