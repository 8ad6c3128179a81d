// Package fsm defines the listening session state machine.
package fsm

import "fmt"

type State string

type Event string

const (
	StateIdle      State = "idle"
	StateListening State = "listening"
)

const (
	EventToggle      Event = "toggle"
	EventEndOfSpeech Event = "end_of_speech"
	EventError       Event = "error"
	EventResult      Event = "result"
)

// Transition returns the next state for event. Terminal recognizer callbacks
// arriving after the session already ended leave the machine idle.
func Transition(current State, event Event) (State, error) {
	switch current {
	case StateIdle:
		switch event {
		case EventToggle:
			return StateListening, nil
		case EventEndOfSpeech, EventError, EventResult:
			return StateIdle, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateListening:
		switch event {
		case EventToggle, EventEndOfSpeech, EventError, EventResult:
			return StateIdle, nil
		default:
			return current, invalidTransition(current, event)
		}
	default:
		return current, fmt.Errorf("unknown state %q", current)
	}
}

func invalidTransition(state State, event Event) error {
	return fmt.Errorf("invalid transition: %s --(%s)--> ?", state, event)
}
