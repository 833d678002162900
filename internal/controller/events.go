package controller

import (
	"time"

	"github.com/stev4501/e84ctl/internal/e84"
)

// EventKind classifies an Event delivered to observers, matching the
// operator surface's read-only stream (spec.md §6): state_changed,
// timer_armed, timer_fired, fault.
type EventKind int

const (
	EventStateChanged EventKind = iota
	EventTimerArmed
	EventTimerFired
	EventFault
)

// Event is one item on the Facade's observer stream.
type Event struct {
	Kind       EventKind
	Transition e84.TransitionRecord
	TimerName  string
	Fault      e84.FaultEvent
	At         time.Time
}
