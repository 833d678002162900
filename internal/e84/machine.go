package e84

import (
	"time"

	"github.com/rs/zerolog"
	"github.com/stev4501/e84ctl/internal/e84err"
	"github.com/stev4501/e84ctl/internal/loadport"
	"github.com/stev4501/e84ctl/internal/signal"
	"github.com/stev4501/e84ctl/internal/timer"
)

// Handles bundles the signal.Handle values every E84 signal needs,
// split by owning direction, as returned by RegisterSignals.
type Handles struct {
	Inputs   map[string]signal.Handle
	Outputs  map[string]signal.Handle
	Internal map[string]signal.Handle
}

// RegisterSignals registers the complete fixed E84 signal set
// (spec.md §3) against reg and returns the handles needed to read and
// write them. It is idempotent only in the sense that calling it twice
// against the same Registry fails with e84err.KindDuplicateSignal, per
// the Registry's own invariant. ES starts asserted (no emergency).
func RegisterSignals(reg *signal.Registry) (*Handles, error) {
	h := &Handles{
		Inputs:   make(map[string]signal.Handle, len(InputSignals)),
		Outputs:  make(map[string]signal.Handle, len(OutputSignals)),
		Internal: make(map[string]signal.Handle, len(InternalSignals)),
	}
	for _, name := range InputSignals {
		handle, err := reg.Register(name, signal.DirectionInput, nil)
		if err != nil {
			return nil, err
		}
		h.Inputs[name] = handle
	}
	for _, name := range OutputSignals {
		handle, err := reg.Register(name, signal.DirectionOutput, nil)
		if err != nil {
			return nil, err
		}
		h.Outputs[name] = handle
	}
	if err := reg.Write(h.Outputs[SigES], true); err != nil {
		return nil, err
	}
	for _, name := range InternalSignals {
		handle, err := reg.Register(name, signal.DirectionInternal, nil)
		if err != nil {
			return nil, err
		}
		h.Internal[name] = handle
	}
	return h, nil
}

// Machine executes the Transition Table against a signal.Registry,
// owning its own timers and enforcing the invariants of spec.md §8.
type Machine struct {
	reg            *signal.Registry
	handles        *Handles
	timerSvc       *timer.Service
	timerDurations map[string]time.Duration
	port           loadport.Coordinator
	table          []Row
	current        State
	direction      TransferDirection
	autoMode       bool
	prevLevel      map[string]bool
	obs            Observer
	log            zerolog.Logger

	// emergencyLatched survives until the physical ES condition clears
	// and an operator reset is accepted, per spec.md §7 recovery rules.
	emergencyLatched bool
}

// Options configures a Machine at construction, following the teacher's
// fluent-builder pattern.
type Options struct {
	observer Observer
	timers   map[string]time.Duration
}

// NewOptions returns default Machine options: a NoopObserver and the
// spec's recommended timer defaults (TP1=2s, TP2=2s, TP3=60s, TP4=60s,
// TP5=2s), each overridable via configuration (spec.md §6 "timers:
// overrides ... in milliseconds").
func NewOptions() *Options {
	return &Options{
		observer: NoopObserver{},
		timers: map[string]time.Duration{
			TimerTP1: 2 * time.Second,
			TimerTP2: 2 * time.Second,
			TimerTP3: 60 * time.Second,
			TimerTP4: 60 * time.Second,
			TimerTP5: 2 * time.Second,
		},
	}
}

// WithObserver attaches an Observer to receive diagnostic events.
func (o *Options) WithObserver(obs Observer) *Options {
	o.observer = obs
	return o
}

// WithTimerDuration overrides a single named timer's maximum duration.
func (o *Options) WithTimerDuration(name string, d time.Duration) *Options {
	o.timers[name] = d
	return o
}

// New constructs a Machine in state IDLE. The caller must have already
// registered the E84 signal set (RegisterSignals) and must call Start
// before the state machine begins reacting to input changes, per
// spec.md §3's lifecycle rule ("State Machine is created once in state
// IDLE").
func New(reg *signal.Registry, handles *Handles, timers *timer.Service, port loadport.Coordinator, opts *Options, log zerolog.Logger) *Machine {
	if opts == nil {
		opts = NewOptions()
	}
	return &Machine{
		reg:            reg,
		handles:        handles,
		timerSvc:       timers,
		timerDurations: opts.timers,
		port:           port,
		table:          buildTable(),
		current:        StateIdle,
		prevLevel:      make(map[string]bool, len(InputSignals)),
		obs:            opts.observer,
		log:            log.With().Str("component", "e84.Machine").Logger(),
	}
}

// Current returns the machine's current state.
func (m *Machine) Current() State { return m.current }

// SetAutoMode is called by the Controller Facade whenever the
// operator-selected mode changes. Only AUTO permits the machine to
// leave IDLE and assert HO_AVBL (invariant 1, spec.md §8).
func (m *Machine) SetAutoMode(auto bool) {
	m.autoMode = auto
	if m.current == StateIdle && !m.emergencyLatched {
		m.enterIdle()
	}
}

// Start subscribes the Machine to every input signal and primes the
// entry actions for IDLE. Call once, after RegisterSignals and before
// any transport adapter begins driving input signals.
func (m *Machine) Start() {
	for _, name := range InputSignals {
		n := name
		m.prevLevel[n] = m.reg.ReadByName(n)
		m.reg.Subscribe(n, func(level bool) { m.onSignal(n, level) })
	}
	// ES is an output the Machine itself (or the Controller Facade, via
	// TriggerEmergencyStop/ClearEmergencyStop) asserts, but the
	// ES-falling row in the Transition Table is triggered like any other
	// edge, so the Machine subscribes to its own output here too.
	m.reg.Subscribe(SigES, func(level bool) { m.onSignal(SigES, level) })
	// ES defaults to asserted (no emergency present) until something
	// drives it false; only the falling edge matters to the table.
	_ = m.writeOutput(SigES, true)
	m.enterIdle()
}

func (m *Machine) onSignal(name string, level bool) {
	edge := EdgeRising
	if !level {
		edge = EdgeFalling
	}
	m.evaluate(name, edge)
}

// OnTimerFired must be wired to the timer.Service's Events channel by
// the caller's dispatch loop (the Machine itself does not read
// channels, per §5's "no suspension points inside a callback" rule).
func (m *Machine) OnTimerFired(name string) {
	m.obs.OnTimerFired(name)
	rows := rowsFor(m.table, m.current, "", EdgeAny, name)
	if len(rows) == 0 {
		return
	}
	m.apply(rows[0], name)
}

func (m *Machine) evaluate(signalName string, edge Edge) {
	rows := rowsFor(m.table, m.current, signalName, edge, "")
	var matched *Row
	matchedCount := 0
	for i := range rows {
		r := &rows[i]
		if r.Guard != nil && !r.Guard(m) {
			continue
		}
		matchedCount++
		if matched == nil {
			matched = r
		}
	}
	if matched == nil {
		return
	}
	if matchedCount > 1 {
		m.obs.OnAmbiguousGuard(m.current, signalName)
		m.fault(e84err.KindAmbiguousGuard, "multiple transitions satisfiable from "+m.current.String()+" on "+signalName)
	}
	m.apply(*matched, signalName)
}

func (m *Machine) apply(r Row, trigger string) {
	from := m.current
	if m.timerSvc != nil {
		m.cancelArmedTimers()
	}
	m.current = r.To
	if r.Actions != nil {
		if err := r.Actions(m); err != nil {
			m.faultErr(err)
		}
	}
	if r.ArmTimer != "" && m.timerSvc != nil {
		m.timerSvc.Arm(r.ArmTimer, m.timerDurations[r.ArmTimer])
		m.obs.OnTimerArmed(r.ArmTimer)
	}
	// Actions may override m.current themselves (actionAssertRequest
	// reverts a failed port prepare back to SELECTED), so the recorded
	// transition and error check reflect m.current, not the row's To.
	m.obs.OnTransition(TransitionRecord{From: from, To: m.current, Signal: trigger, At: time.Now()})
	m.log.Info().Stringer("from", from).Stringer("to", m.current).Str("trigger", trigger).Msg("state transition")
	if m.current.IsError() {
		m.fault(errorKindForState(m.current), "entered "+m.current.String())
	}
}

// cancelArmedTimers unarms whichever TP timer is currently armed. At
// most one is ever armed at a time (invariant 3, spec.md §8), so this
// is a cheap linear scan rather than tracking the active name
// separately.
func (m *Machine) cancelArmedTimers() {
	for _, name := range []string{TimerTP1, TimerTP2, TimerTP3, TimerTP4, TimerTP5} {
		if m.timerSvc.Armed(name) {
			m.timerSvc.Cancel(name)
		}
	}
}

func (m *Machine) fault(kind e84err.Kind, msg string) {
	m.obs.OnFault(FaultEvent{Kind: kind, Message: msg, State: m.current, At: time.Now()})
	m.log.Warn().Stringer("state", m.current).Str("kind", kind.String()).Str("msg", msg).Msg("fault")
}

func (m *Machine) faultErr(err error) {
	if e, ok := err.(*e84err.Error); ok {
		m.fault(e.Kind, e.Error())
		return
	}
	m.fault(e84err.KindUnexpectedInputInState, err.Error())
}

func errorKindForState(s State) e84err.Kind {
	switch s {
	case StateErrorTP1:
		return e84err.KindTP1Expiry
	case StateErrorTP2:
		return e84err.KindTP2Expiry
	case StateErrorTP3:
		return e84err.KindTP3Expiry
	case StateErrorTP4:
		return e84err.KindTP4Expiry
	case StateErrorTP5:
		return e84err.KindTP5Expiry
	case StateErrorInvalidCS:
		return e84err.KindInvalidCarrierStage
	case StateErrorPort:
		return e84err.KindPlacementFailure
	default:
		return e84err.KindUnexpectedInputInState
	}
}

// Reset implements the operator `reset` command (spec.md §4.2, §6, §7,
// and the reset-gating scenario of §8). It is a no-op in IDLE (the
// idempotence law) and is rejected with e84err.KindResetNotPermitted
// unless every AMHS input is idle and the port reports a clean state.
func (m *Machine) Reset() error {
	if m.current == StateIdle {
		return nil
	}
	if !m.current.IsError() && m.current != StateESAsserted {
		return e84err.New(e84err.KindResetNotPermitted, "reset only valid in an error state")
	}
	if !m.inputsIdle() {
		return e84err.New(e84err.KindResetNotPermitted, "AMHS inputs not idle")
	}
	if m.current == StateESAsserted && !m.reg.ReadByName(SigES) {
		return e84err.New(e84err.KindResetNotPermitted, "ES still asserted")
	}
	if m.port != nil {
		report := m.port.Report()
		if report.CarrierPresent || report.Clamped {
			return e84err.New(e84err.KindResetNotPermitted, "port not in a clean state")
		}
	}
	m.emergencyLatched = false
	m.enterIdle()
	return nil
}

func (m *Machine) inputsIdle() bool {
	for _, name := range InputSignals {
		if m.reg.ReadByName(name) {
			return false
		}
	}
	return true
}
