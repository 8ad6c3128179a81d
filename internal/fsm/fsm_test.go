package fsm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTransitionToggleAlternates(t *testing.T) {
	s := StateIdle
	want := []State{StateListening, StateIdle, StateListening, StateIdle, StateListening}

	for i, expected := range want {
		next, err := Transition(s, EventToggle)
		require.NoError(t, err)
		require.Equal(t, expected, next, "toggle #%d", i+1)
		s = next
	}
}

func TestTransitionTerminalEventsEndListening(t *testing.T) {
	for _, event := range []Event{EventEndOfSpeech, EventError, EventResult} {
		next, err := Transition(StateListening, event)
		require.NoError(t, err)
		require.Equal(t, StateIdle, next, string(event))
	}
}

func TestTransitionLateCallbacksStayIdle(t *testing.T) {
	for _, event := range []Event{EventEndOfSpeech, EventError, EventResult} {
		next, err := Transition(StateIdle, event)
		require.NoError(t, err)
		require.Equal(t, StateIdle, next, string(event))
	}
}

func TestTransitionMatrixInvalidTransitions(t *testing.T) {
	tests := []struct {
		name  string
		state State
		event Event
	}{
		{name: "idle unknown event", state: StateIdle, event: Event("stop")},
		{name: "listening unknown event", state: StateListening, event: Event("cancel")},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			next, err := Transition(tc.state, tc.event)
			require.Equal(t, tc.state, next)
			require.Error(t, err)
			require.Contains(t, err.Error(), "invalid transition")
		})
	}
}

func TestTransitionUnknownState(t *testing.T) {
	next, err := Transition(State("mystery"), EventToggle)
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown state")
	require.Equal(t, State("mystery"), next)
}
