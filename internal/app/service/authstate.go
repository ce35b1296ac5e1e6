package service

import (
	"errors"
	"sync"
)

// AuthState is the session lifecycle state of one client.
type AuthState int

const (
	StateUnknown AuthState = iota
	StateRestoring
	StateAuthenticatedAAL1
	StateMFAPending
	StateAuthenticatedAAL2
	StateSignedOut
)

func (s AuthState) String() string {
	switch s {
	case StateUnknown:
		return "unknown"
	case StateRestoring:
		return "restoring"
	case StateAuthenticatedAAL1:
		return "authenticated_aal1"
	case StateMFAPending:
		return "mfa_pending"
	case StateAuthenticatedAAL2:
		return "authenticated_aal2"
	case StateSignedOut:
		return "signed_out"
	}
	return "invalid"
}

// AuthEvent drives transitions of the auth state machine.
type AuthEvent int

const (
	EventRestoreStarted AuthEvent = iota
	EventRestoredAAL1
	EventRestoredAAL2
	EventRestoreFailed
	EventSignedInAAL1
	EventMFARequired
	EventMFAVerified
	EventSignedOut
)

// ErrInvalidTransition is returned when an event is not valid in the
// current state.
var ErrInvalidTransition = errors.New("invalid auth state transition")

// Transition is the pure transition function of the auth state machine.
// Side effects live in observers, never here.
func Transition(s AuthState, e AuthEvent) (AuthState, error) {
	switch {
	case s == StateUnknown && e == EventRestoreStarted:
		return StateRestoring, nil
	case s == StateRestoring && e == EventRestoredAAL1:
		return StateAuthenticatedAAL1, nil
	case s == StateRestoring && e == EventRestoredAAL2:
		return StateAuthenticatedAAL2, nil
	case s == StateRestoring && e == EventRestoreFailed:
		return StateSignedOut, nil
	case (s == StateUnknown || s == StateSignedOut) && e == EventSignedInAAL1:
		return StateAuthenticatedAAL1, nil
	case s == StateAuthenticatedAAL1 && e == EventMFARequired:
		return StateMFAPending, nil
	case s == StateMFAPending && e == EventMFAVerified:
		return StateAuthenticatedAAL2, nil
	case e == EventSignedOut &&
		(s == StateAuthenticatedAAL1 || s == StateAuthenticatedAAL2 || s == StateMFAPending):
		return StateSignedOut, nil
	}
	return s, ErrInvalidTransition
}

// AuthObserver is notified after every successful transition.
type AuthObserver func(from, to AuthState, e AuthEvent)

// AuthStateMachine holds the current auth state and fans transitions
// out to subscribed observers (session bookkeeping, login history).
type AuthStateMachine struct {
	mu        sync.Mutex
	state     AuthState
	observers []AuthObserver
}

func NewAuthStateMachine() *AuthStateMachine {
	return &AuthStateMachine{state: StateUnknown}
}

// State returns the current state.
func (m *AuthStateMachine) State() AuthState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Subscribe registers an observer for future transitions.
func (m *AuthStateMachine) Subscribe(o AuthObserver) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.observers = append(m.observers, o)
}

// Apply runs one event through the transition function. On success the
// new state is installed and observers are notified; on failure the
// state is unchanged.
func (m *AuthStateMachine) Apply(e AuthEvent) (AuthState, error) {
	m.mu.Lock()
	from := m.state
	to, err := Transition(from, e)
	if err != nil {
		m.mu.Unlock()
		return from, err
	}
	m.state = to
	observers := make([]AuthObserver, len(m.observers))
	copy(observers, m.observers)
	m.mu.Unlock()

	for _, o := range observers {
		o(from, to, e)
	}
	return to, nil
}
