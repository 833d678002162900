package e84

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/stev4501/e84ctl/internal/loadport"
	"github.com/stev4501/e84ctl/internal/signal"
	"github.com/stev4501/e84ctl/internal/timer"
)

// fakePort is a minimal loadport.Coordinator for Machine tests: always
// reports Docked with no carrier present, and Ready on prepare, unless
// the test overrides prepareResult.
type fakePort struct {
	report             loadport.PortReport
	prepareResult      loadport.Result
	emergencySafeCalls int
}

func newFakePort() *fakePort {
	return &fakePort{
		report:        loadport.PortReport{Docked: true},
		prepareResult: loadport.Result{Ready: true},
	}
}

func (p *fakePort) PrepareForLoad(cb func(loadport.Result))   { cb(p.prepareResult) }
func (p *fakePort) PrepareForUnload(cb func(loadport.Result)) { cb(p.prepareResult) }
func (p *fakePort) Report() loadport.PortReport               { return p.report }
func (p *fakePort) OnChange(cb func(loadport.PortReport))     {}
func (p *fakePort) EmergencySafe()                            { p.emergencySafeCalls++ }

// recordingObserver captures every event the Machine emits, for
// assertions against the literal scenarios of spec.md §8.
type recordingObserver struct {
	transitions []TransitionRecord
	faults      []FaultEvent
	timersArmed []string
}

func (o *recordingObserver) OnTransition(t TransitionRecord) { o.transitions = append(o.transitions, t) }
func (o *recordingObserver) OnFault(f FaultEvent)            { o.faults = append(o.faults, f) }
func (o *recordingObserver) OnTimerArmed(name string)        { o.timersArmed = append(o.timersArmed, name) }
func (o *recordingObserver) OnTimerFired(name string)        {}
func (o *recordingObserver) OnAmbiguousGuard(State, string)  {}

func (o *recordingObserver) stateTrace() []State {
	out := make([]State, 0, len(o.transitions)+1)
	if len(o.transitions) > 0 {
		out = append(out, o.transitions[0].From)
	}
	for _, t := range o.transitions {
		out = append(out, t.To)
	}
	return out
}

// testRig bundles a Machine with its Registry, Handles, fake timer
// clock, and fake port, wired the way a real dispatch loop would, but
// with the timer service's Run loop driven manually by the test via
// fastForward so tests never sleep for real TP3/TP4 durations.
type testRig struct {
	reg     *signal.Registry
	handles *Handles
	timers  *timer.Service
	port    *fakePort
	obs     *recordingObserver
	machine *Machine

	clock time.Time
}

func newTestRig() *testRig {
	rig := &testRig{clock: time.Unix(0, 0)}
	rig.reg = signal.New(nil, zerolog.Nop())
	handles, err := RegisterSignals(rig.reg)
	if err != nil {
		panic(err)
	}
	rig.handles = handles
	rig.timers = timer.New(timer.NewOptions().WithClock(func() time.Time { return rig.clock }))
	go rig.timers.Run()
	rig.port = newFakePort()
	rig.obs = &recordingObserver{}
	opts := NewOptions().WithObserver(rig.obs).
		WithTimerDuration(TimerTP1, 2*time.Second).
		WithTimerDuration(TimerTP2, 2*time.Second).
		WithTimerDuration(TimerTP3, 60*time.Second).
		WithTimerDuration(TimerTP4, 60*time.Second).
		WithTimerDuration(TimerTP5, 2*time.Second)
	rig.machine = New(rig.reg, rig.handles, rig.timers, rig.port, opts, zerolog.Nop())
	rig.machine.SetAutoMode(true)
	return rig
}

// fastForward advances the fake clock past whatever is armed and pokes
// the timer service to re-evaluate against it, then delivers every
// resulting fire to the Machine (standing in for the dispatch loop
// reading timer.Service.Events). Real wall-clock time spent is
// negligible regardless of the simulated duration.
func (r *testRig) fastForward(d time.Duration) {
	r.clock = r.clock.Add(d)
	r.timers.Poke()
	for {
		select {
		case fired := <-r.timers.Events:
			r.machine.OnTimerFired(fired.Name)
		case <-time.After(50 * time.Millisecond):
			return
		}
	}
}

func (r *testRig) close() {
	r.timers.Stop()
}

// set writes an input signal through its registered handle.
func (r *testRig) set(name string, level bool) {
	h := r.handles.Inputs[name]
	if err := r.reg.Write(h, level); err != nil {
		panic(err)
	}
}

func (r *testRig) output(name string) bool {
	return r.reg.Read(r.handles.Outputs[name])
}
