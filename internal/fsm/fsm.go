// Package fsm defines the per-question answer lifecycle state machine.
package fsm

import "fmt"

type State string

type Event string

const (
	StateUnanswered State = "unanswered"
	StateRecording  State = "recording"
	StateUploading  State = "uploading"
	StateAnswered   State = "answered"
)

const (
	EventRecord   Event = "record"
	EventStop     Event = "stop"
	EventCancel   Event = "cancel"
	EventUploaded Event = "uploaded"
	EventFail     Event = "fail"
)

// Transition applies one event to a question's answer state. Re-recording an
// answered question is a permitted edge; the prior feedback survives until a
// new upload commits over it.
func Transition(current State, event Event) (State, error) {
	switch current {
	case StateUnanswered:
		switch event {
		case EventRecord:
			return StateRecording, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateRecording:
		switch event {
		case EventStop:
			return StateUploading, nil
		case EventCancel, EventFail:
			return StateUnanswered, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateUploading:
		switch event {
		case EventUploaded:
			return StateAnswered, nil
		case EventFail:
			return StateUnanswered, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateAnswered:
		switch event {
		case EventRecord:
			return StateRecording, nil
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
