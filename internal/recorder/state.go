// Package recorder drives one voice interview from the client side.
package recorder

import (
	"errors"
	"fmt"
)

// State 录音机状态
type State string

const (
	StateIdle      State = "idle"
	StateListening State = "listening"
	StateThinking  State = "thinking"
	StateSpeaking  State = "speaking"
)

// Event 触发状态迁移的事件
type Event string

const (
	EventStart    Event = "start"
	EventStop     Event = "stop"
	EventAnswered Event = "answered"
	EventFailed   Event = "failed"
	EventSpoken   Event = "spoken"
)

// ErrInvalidTransition 当前状态不接受该事件
var ErrInvalidTransition = errors.New("invalid recorder transition")

type transitionKey struct {
	from  State
	event Event
}

var transitions = map[transitionKey]State{
	{StateIdle, EventStart}:        StateListening,
	{StateListening, EventStop}:    StateThinking,
	{StateThinking, EventAnswered}: StateSpeaking,
	{StateThinking, EventFailed}:   StateIdle,
	{StateSpeaking, EventSpoken}:   StateIdle,
}

// Next 查表得到下一个状态
func Next(from State, event Event) (State, error) {
	to, ok := transitions[transitionKey{from, event}]
	if !ok {
		return from, fmt.Errorf("%w: %s on %s", ErrInvalidTransition, event, from)
	}
	return to, nil
}

// Label 界面上显示的状态文字
func (s State) Label() string {
	switch s {
	case StateListening:
		return "Listening..."
	case StateThinking:
		return "Processing..."
	case StateSpeaking:
		return "Speaking..."
	default:
		return "Ready"
	}
}
