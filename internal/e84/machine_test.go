package e84

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/stev4501/e84ctl/internal/e84err"
	"github.com/stev4501/e84ctl/internal/loadport"
)

func TestHappyLoad(t *testing.T) {
	rig := newTestRig()
	defer rig.close()
	rig.machine.Start()

	require.True(t, rig.output(SigHOAVBL))

	rig.set(SigCS1, true)
	require.Equal(t, StateSelected, rig.machine.Current())

	rig.set(SigVALID, true)
	require.Equal(t, StateTransferReady, rig.machine.Current())
	require.True(t, rig.output(SigLReq))
	require.False(t, rig.output(SigUReq))

	rig.set(SigTRReq, true)
	require.Equal(t, StateTransferReadyPrime, rig.machine.Current())
	require.True(t, rig.output(SigREADY))

	rig.set(SigBUSY, true)
	require.Equal(t, StateTransferInProgress, rig.machine.Current())

	rig.set(SigBUSY, false)
	rig.set(SigCOMPT, true)
	require.Equal(t, StateTransferComplete, rig.machine.Current())
	require.False(t, rig.output(SigLReq))
	require.False(t, rig.output(SigREADY))

	rig.set(SigVALID, false)
	require.Equal(t, StateHandoffComplete, rig.machine.Current())

	rig.set(SigCS1, false)
	require.Equal(t, StateIdle, rig.machine.Current())
	require.True(t, rig.output(SigHOAVBL))
	require.False(t, rig.output(SigLReq))
	require.False(t, rig.output(SigUReq))
	require.False(t, rig.output(SigREADY))

	trace := rig.obs.stateTrace()
	require.Equal(t, []State{
		StateIdle, StateSelected, StateTransferReady, StateTransferReadyPrime,
		StateTransferInProgress, StateTransferComplete, StateHandoffComplete, StateIdle,
	}, trace)
}

func TestTP1Timeout(t *testing.T) {
	rig := newTestRig()
	defer rig.close()
	rig.machine.Start()

	rig.set(SigCS1, true)
	require.Equal(t, StateSelected, rig.machine.Current())

	rig.fastForward(3 * time.Second)
	require.Equal(t, StateErrorTP1, rig.machine.Current())
	require.False(t, rig.output(SigHOAVBL))
	require.False(t, rig.output(SigLReq))
	require.False(t, rig.output(SigUReq))

	require.NotEmpty(t, rig.obs.faults)
	last := rig.obs.faults[len(rig.obs.faults)-1]
	require.Equal(t, e84err.KindTP1Expiry, last.Kind)
}

func TestInvalidCS(t *testing.T) {
	rig := newTestRig()
	defer rig.close()
	rig.machine.Start()

	rig.set(SigCS1, true)
	rig.set(SigCS0, true)
	rig.set(SigVALID, true)

	require.Equal(t, StateErrorInvalidCS, rig.machine.Current())
}

func TestPortPrepareFault(t *testing.T) {
	rig := newTestRig()
	defer rig.close()
	rig.machine.Start()

	rig.port.prepareResult = loadport.Result{Ready: false, Reason: loadport.FaultDockFailure}

	rig.set(SigCS1, true)
	rig.set(SigVALID, true)
	require.Equal(t, StateSelected, rig.machine.Current())
	require.False(t, rig.output(SigLReq))

	require.NotEmpty(t, rig.obs.faults)
	last := rig.obs.faults[len(rig.obs.faults)-1]
	require.Equal(t, e84err.KindPlacementFailure, last.Kind)

	rig.fastForward(3 * time.Second)
	require.Equal(t, StateErrorTP2, rig.machine.Current())
}

func TestEmergencyMidTransfer(t *testing.T) {
	rig := newTestRig()
	defer rig.close()
	rig.machine.Start()

	rig.set(SigCS1, true)
	rig.set(SigVALID, true)
	rig.set(SigTRReq, true)
	rig.set(SigBUSY, true)
	require.Equal(t, StateTransferInProgress, rig.machine.Current())

	esHandle := rig.handles.Outputs[SigES]
	require.NoError(t, rig.reg.Write(esHandle, false))

	require.Equal(t, StateESAsserted, rig.machine.Current())
	require.False(t, rig.output(SigLReq))
	require.False(t, rig.output(SigUReq))
	require.False(t, rig.output(SigREADY))
	require.False(t, rig.output(SigHOAVBL))
	require.Equal(t, 1, rig.port.emergencySafeCalls)
}

func TestResetGating(t *testing.T) {
	rig := newTestRig()
	defer rig.close()
	rig.machine.Start()

	rig.set(SigCS1, true)
	rig.fastForward(3 * time.Second)
	require.Equal(t, StateErrorTP1, rig.machine.Current())

	err := rig.machine.Reset()
	require.Error(t, err)
	var e *e84err.Error
	require.ErrorAs(t, err, &e)
	require.Equal(t, e84err.KindResetNotPermitted, e.Kind)
	require.Equal(t, StateErrorTP1, rig.machine.Current())

	rig.set(SigCS1, false)
	require.NoError(t, rig.machine.Reset())
	require.Equal(t, StateIdle, rig.machine.Current())
	require.True(t, rig.output(SigHOAVBL))
}

func TestResetIsNoopInIdle(t *testing.T) {
	rig := newTestRig()
	defer rig.close()
	rig.machine.Start()

	before := len(rig.obs.transitions)
	require.NoError(t, rig.machine.Reset())
	require.Equal(t, before, len(rig.obs.transitions))
}

func TestSameLevelWriteIsNoop(t *testing.T) {
	rig := newTestRig()
	defer rig.close()
	rig.machine.Start()

	h := rig.handles.Inputs[SigCS1]
	calls := 0
	rig.reg.Subscribe(SigCS1, func(bool) { calls++ })
	require.NoError(t, rig.reg.Write(h, false))
	require.Equal(t, 0, calls)
}

func TestAtMostOneTimerArmed(t *testing.T) {
	rig := newTestRig()
	defer rig.close()
	rig.machine.Start()

	rig.set(SigCS1, true)
	require.True(t, rig.timers.Armed(TimerTP1))

	rig.set(SigVALID, true)
	require.False(t, rig.timers.Armed(TimerTP1))
	require.True(t, rig.timers.Armed(TimerTP2))
}
