package e84

import (
	"time"

	"github.com/stev4501/e84ctl/internal/e84err"
)

// FaultEvent is emitted whenever the machine enters an error state or
// detects a protocol violation it can still make progress past (such as
// AmbiguousGuard), per spec.md §6's operator `fault` stream.
type FaultEvent struct {
	Kind    e84err.Kind
	Message string
	State   State
	At      time.Time
}

// TransitionRecord describes one completed state transition, for the
// Controller Facade's last-N-transitions ring buffer.
type TransitionRecord struct {
	From, To State
	Signal   string
	At       time.Time
}

// Observer receives every diagnostic event the Machine produces. All
// methods are invoked synchronously from the dispatch goroutine and must
// not block (§5).
type Observer interface {
	OnTransition(TransitionRecord)
	OnFault(FaultEvent)
	OnTimerArmed(name string)
	OnTimerFired(name string)
	OnAmbiguousGuard(state State, signal string)
}

// NoopObserver discards every event; the Machine's zero-value default.
type NoopObserver struct{}

func (NoopObserver) OnTransition(TransitionRecord)     {}
func (NoopObserver) OnFault(FaultEvent)                {}
func (NoopObserver) OnTimerArmed(string)               {}
func (NoopObserver) OnTimerFired(string)               {}
func (NoopObserver) OnAmbiguousGuard(State, string)    {}
