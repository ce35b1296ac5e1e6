package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransition(t *testing.T) {
	tests := []struct {
		name    string
		from    AuthState
		event   AuthEvent
		want    AuthState
		wantErr bool
	}{
		{"restore starts", StateUnknown, EventRestoreStarted, StateRestoring, false},
		{"restore finds aal1", StateRestoring, EventRestoredAAL1, StateAuthenticatedAAL1, false},
		{"restore finds aal2", StateRestoring, EventRestoredAAL2, StateAuthenticatedAAL2, false},
		{"restore fails", StateRestoring, EventRestoreFailed, StateSignedOut, false},
		{"fresh sign in", StateUnknown, EventSignedInAAL1, StateAuthenticatedAAL1, false},
		{"sign in after sign out", StateSignedOut, EventSignedInAAL1, StateAuthenticatedAAL1, false},
		{"mfa required", StateAuthenticatedAAL1, EventMFARequired, StateMFAPending, false},
		{"mfa verified", StateMFAPending, EventMFAVerified, StateAuthenticatedAAL2, false},
		{"sign out from aal1", StateAuthenticatedAAL1, EventSignedOut, StateSignedOut, false},
		{"sign out from aal2", StateAuthenticatedAAL2, EventSignedOut, StateSignedOut, false},
		{"sign out from mfa pending", StateMFAPending, EventSignedOut, StateSignedOut, false},

		{"mfa verify without challenge", StateAuthenticatedAAL1, EventMFAVerified, StateAuthenticatedAAL1, true},
		{"mfa required before sign in", StateUnknown, EventMFARequired, StateUnknown, true},
		{"sign out while unknown", StateUnknown, EventSignedOut, StateUnknown, true},
		{"restore twice", StateRestoring, EventRestoreStarted, StateRestoring, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Transition(tt.from, tt.event)
			assert.Equal(t, tt.want, got)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidTransition)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestAuthStateMachineApply(t *testing.T) {
	m := NewAuthStateMachine()
	assert.Equal(t, StateUnknown, m.State())

	state, err := m.Apply(EventSignedInAAL1)
	require.NoError(t, err)
	assert.Equal(t, StateAuthenticatedAAL1, state)

	// Invalid events leave the state untouched.
	state, err = m.Apply(EventRestoreStarted)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, StateAuthenticatedAAL1, state)
	assert.Equal(t, StateAuthenticatedAAL1, m.State())
}

func TestAuthStateMachineObservers(t *testing.T) {
	m := NewAuthStateMachine()

	type transition struct {
		from, to AuthState
		event    AuthEvent
	}
	var seen []transition
	m.Subscribe(func(from, to AuthState, e AuthEvent) {
		seen = append(seen, transition{from, to, e})
	})

	_, err := m.Apply(EventSignedInAAL1)
	require.NoError(t, err)
	_, err = m.Apply(EventMFARequired)
	require.NoError(t, err)
	_, err = m.Apply(EventMFAVerified)
	require.NoError(t, err)

	// A failed transition must not notify anyone.
	_, err = m.Apply(EventRestoreStarted)
	require.Error(t, err)

	require.Len(t, seen, 3)
	assert.Equal(t, transition{StateUnknown, StateAuthenticatedAAL1, EventSignedInAAL1}, seen[0])
	assert.Equal(t, transition{StateAuthenticatedAAL1, StateMFAPending, EventMFARequired}, seen[1])
	assert.Equal(t, transition{StateMFAPending, StateAuthenticatedAAL2, EventMFAVerified}, seen[2])
}

func TestAuthStateString(t *testing.T) {
	assert.Equal(t, "unknown", StateUnknown.String())
	assert.Equal(t, "authenticated_aal2", StateAuthenticatedAAL2.String())
	assert.Equal(t, "invalid", AuthState(99).String())
}
