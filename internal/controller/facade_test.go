package controller

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/stev4501/e84ctl/internal/e84"
	"github.com/stev4501/e84ctl/internal/loadport"
	"github.com/stev4501/e84ctl/internal/signal"
	"github.com/stev4501/e84ctl/internal/timer"
)

type fakePort struct {
	docked bool
}

func (p *fakePort) PrepareForLoad(cb func(loadport.Result))   { cb(loadport.Result{Ready: true}) }
func (p *fakePort) PrepareForUnload(cb func(loadport.Result)) { cb(loadport.Result{Ready: true}) }
func (p *fakePort) Report() loadport.PortReport               { return loadport.PortReport{Docked: p.docked} }
func (p *fakePort) OnChange(cb func(loadport.PortReport))     {}
func (p *fakePort) EmergencySafe()                            {}

func newTestFacade(t *testing.T, docked bool) (*Facade, *e84.Handles, *signal.Registry) {
	reg := signal.New(nil, zerolog.Nop())
	handles, err := e84.RegisterSignals(reg)
	require.NoError(t, err)

	port := &fakePort{docked: docked}
	facade := New(reg, port, nil, zerolog.Nop())

	timers := timer.New(nil)
	go timers.Run()
	t.Cleanup(timers.Stop)

	machine := e84.New(reg, handles, timers, port, e84.NewOptions().WithObserver(facade), zerolog.Nop())
	facade.Attach(machine)
	return facade, handles, reg
}

func TestCanStartRequiresAutoModeAndDocked(t *testing.T) {
	facade, _, reg := newTestFacade(t, false)

	require.False(t, facade.CanStart())

	facade.SetMode(ModeAuto)
	require.False(t, facade.CanStart(), "port not docked")
	require.True(t, reg.ReadByName(e84.SigES))
}

func TestCanStartSucceedsWhenGateSatisfied(t *testing.T) {
	facade, _, _ := newTestFacade(t, true)
	facade.SetMode(ModeAuto)
	require.True(t, facade.CanStart())
	require.NoError(t, facade.Start())
	require.Equal(t, e84.StateIdle, facade.CurrentState())
}

func TestRequestStopForcesEmergency(t *testing.T) {
	facade, _, _ := newTestFacade(t, true)
	facade.SetMode(ModeAuto)
	require.NoError(t, facade.Start())

	require.NoError(t, facade.RequestStop())
	require.Equal(t, e84.StateESAsserted, facade.CurrentState())
}

func TestHistoryTracksTransitions(t *testing.T) {
	facade, _, _ := newTestFacade(t, true)
	facade.SetMode(ModeAuto)
	require.NoError(t, facade.Start())
	require.NoError(t, facade.RequestStop())

	history := facade.History()
	require.NotEmpty(t, history)
	require.Equal(t, e84.StateESAsserted, history[len(history)-1].To)
}
