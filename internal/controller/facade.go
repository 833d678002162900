package controller

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/stev4501/e84ctl/internal/e84"
	"github.com/stev4501/e84ctl/internal/e84err"
	"github.com/stev4501/e84ctl/internal/loadport"
	"github.com/stev4501/e84ctl/internal/metrics"
	"github.com/stev4501/e84ctl/internal/signal"
)

// historyDepth is the "last N transitions" the Facade keeps for its
// observer surface (spec.md §4.5).
const historyDepth = 32

// Facade is the thin operator-facing wrapper spec.md §4.5 describes:
// it owns Mode, refuses to start the Machine until the start gate is
// satisfied, and relays every Machine event to registered observers.
// It implements e84.Observer itself so the Machine needs no separate
// relay type.
type Facade struct {
	reg     *signal.Registry
	machine *e84.Machine
	port    loadport.Coordinator
	metrics *metrics.Metrics
	log     zerolog.Logger

	mu        sync.Mutex
	mode      Mode
	started   bool
	history   []e84.TransitionRecord
	observers []func(Event)
}

// New constructs a Facade around an already-registered signal set. The
// returned Facade has no Machine yet: because the Machine must be
// constructed with this Facade already installed as its Observer
// (e84.NewOptions().WithObserver), callers build the Facade first, pass
// it to e84.New, then call Attach with the resulting Machine — see
// cmd/e84ctl's wiring. m may be nil, in which case metrics recording is
// a no-op.
func New(reg *signal.Registry, port loadport.Coordinator, m *metrics.Metrics, log zerolog.Logger) *Facade {
	return &Facade{
		reg:     reg,
		port:    port,
		metrics: m,
		mode:    ModeAuto,
		log:     log.With().Str("component", "controller.Facade").Logger(),
	}
}

// Attach installs the Machine this Facade observes. Must be called
// exactly once, before Start.
func (f *Facade) Attach(machine *e84.Machine) {
	f.machine = machine
}

// Mode returns the current operator mode.
func (f *Facade) Mode() Mode {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.mode
}

// SetMode changes the operator mode (operator surface `set_mode`,
// spec.md §6) and propagates AUTO-ness to the Machine, which is the
// only thing gating HO_AVBL (invariant 1, spec.md §8).
func (f *Facade) SetMode(m Mode) {
	f.mu.Lock()
	f.mode = m
	f.mu.Unlock()
	f.machine.SetAutoMode(m == ModeAuto)
}

// CanStart reports whether the start gate of spec.md §4.5 is satisfied:
// mode=AUTO, the port reports ready, and ES is de-asserted (i.e. true —
// ES is active-high "system ready", per the glossary).
func (f *Facade) CanStart() bool {
	if f.Mode() != ModeAuto {
		return false
	}
	if !f.reg.ReadByName(e84.SigES) {
		return false
	}
	if f.port != nil {
		report := f.port.Report()
		if !report.Docked {
			return false
		}
	}
	return true
}

// Start refuses to begin dispatching unless CanStart; otherwise it
// starts the Machine (operator surface lifecycle, spec.md §4.5).
func (f *Facade) Start() error {
	if !f.CanStart() {
		return e84err.New(e84err.KindResetNotPermitted, "start gate not satisfied")
	}
	f.mu.Lock()
	if f.started {
		f.mu.Unlock()
		return nil
	}
	f.started = true
	f.mu.Unlock()
	f.machine.Start()
	return nil
}

// Reset delegates the operator `reset` command to the Machine.
func (f *Facade) Reset() error {
	return f.machine.Reset()
}

// RequestStop implements the operator `request_stop` command: it forces
// the same ES-falling transition a physical emergency stop would,
// since the standard gives the equipment side no softer way to halt
// mid-handshake (spec.md §7 "EmergencyStop always wins").
func (f *Facade) RequestStop() error {
	return f.machine.TriggerEmergencyStop()
}

// CurrentState returns the Machine's current state.
func (f *Facade) CurrentState() e84.State {
	return f.machine.Current()
}

// History returns a copy of the last N completed transitions, oldest
// first.
func (f *Facade) History() []e84.TransitionRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]e84.TransitionRecord, len(f.history))
	copy(out, f.history)
	return out
}

// Snapshot returns the current signal snapshot for diagnostics.
func (f *Facade) Snapshot() map[string]signal.Snapshot {
	return f.reg.Snapshot()
}

// Subscribe registers cb to receive every Event this Facade relays,
// FIFO order.
func (f *Facade) Subscribe(cb func(Event)) {
	f.mu.Lock()
	f.observers = append(f.observers, cb)
	f.mu.Unlock()
}

func (f *Facade) notify(ev Event) {
	f.mu.Lock()
	observers := append([]func(Event){}, f.observers...)
	f.mu.Unlock()
	for _, obs := range observers {
		obs(ev)
	}
}

// OnTransition implements e84.Observer.
func (f *Facade) OnTransition(t e84.TransitionRecord) {
	f.mu.Lock()
	f.history = append(f.history, t)
	if len(f.history) > historyDepth {
		f.history = f.history[len(f.history)-historyDepth:]
	}
	f.mu.Unlock()
	f.metrics.RecordTransition(t.To.String())
	f.notify(Event{Kind: EventStateChanged, Transition: t, At: time.Now()})
}

// OnFault implements e84.Observer.
func (f *Facade) OnFault(fault e84.FaultEvent) {
	f.log.Warn().Str("kind", fault.Kind.String()).Str("msg", fault.Message).Msg("fault")
	f.metrics.RecordFault(fault.Kind.String())
	f.notify(Event{Kind: EventFault, Fault: fault, At: time.Now()})
}

// OnTimerArmed implements e84.Observer.
func (f *Facade) OnTimerArmed(name string) {
	f.notify(Event{Kind: EventTimerArmed, TimerName: name, At: time.Now()})
}

// OnTimerFired implements e84.Observer.
func (f *Facade) OnTimerFired(name string) {
	f.metrics.RecordTimerFire(name)
	f.notify(Event{Kind: EventTimerFired, TimerName: name, At: time.Now()})
}

// OnAmbiguousGuard implements e84.Observer by recording the
// ambiguous-guard metric only. It relays no event: the Machine's own
// fault() call already emits e84err.KindAmbiguousGuard via OnFault.
func (f *Facade) OnAmbiguousGuard(state e84.State, signalName string) {
	f.metrics.RecordAmbiguousGuard(state.String())
}
