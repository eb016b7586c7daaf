package recorder

import (
	"errors"
	"testing"
)

func TestTransitionTable(t *testing.T) {
	allStates := []State{StateIdle, StateListening, StateThinking, StateSpeaking}
	allEvents := []Event{EventStart, EventStop, EventAnswered, EventFailed, EventSpoken}

	valid := map[State]map[Event]State{
		StateIdle:      {EventStart: StateListening},
		StateListening: {EventStop: StateThinking},
		StateThinking:  {EventAnswered: StateSpeaking, EventFailed: StateIdle},
		StateSpeaking:  {EventSpoken: StateIdle},
	}

	for _, from := range allStates {
		for _, ev := range allEvents {
			got, err := Next(from, ev)
			want, ok := valid[from][ev]
			if ok {
				if err != nil || got != want {
					t.Fatalf("%s on %s: got (%s, %v), want %s", ev, from, got, err, want)
				}
				continue
			}
			if !errors.Is(err, ErrInvalidTransition) {
				t.Fatalf("%s on %s: expected ErrInvalidTransition, got %v", ev, from, err)
			}
			if got != from {
				t.Fatalf("%s on %s: rejected transition must keep state, got %s", ev, from, got)
			}
		}
	}
}

func TestLabels(t *testing.T) {
	cases := map[State]string{
		StateIdle:      "Ready",
		StateListening: "Listening...",
		StateThinking:  "Processing...",
		StateSpeaking:  "Speaking...",
	}
	for state, want := range cases {
		if got := state.Label(); got != want {
			t.Fatalf("%s label: got %q want %q", state, got, want)
		}
	}
}
