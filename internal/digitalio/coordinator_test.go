package digitalio

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/stev4501/e84ctl/internal/loadport"
)

func testMappings(t *testing.T) *MappingSet {
	t.Helper()
	set, err := NewMappingSet([]Mapping{
		{SignalName: LineCarrierPresent, Line: LineID{Card: 0, Port: 0, Bit: 0}},
		{SignalName: LineClamped, Line: LineID{Card: 0, Port: 0, Bit: 1}},
		{SignalName: LineDocked, Line: LineID{Card: 0, Port: 0, Bit: 2}},
		{SignalName: LinePlacementOK, Line: LineID{Card: 0, Port: 0, Bit: 3}},
		{SignalName: LineDockCmd, Line: LineID{Card: 0, Port: 1, Bit: 0}},
		{SignalName: LineClampCmd, Line: LineID{Card: 0, Port: 1, Bit: 1}},
	})
	require.NoError(t, err)
	return set
}

func TestDigitalCoordinatorPrepareForLoadReady(t *testing.T) {
	port := NewFakeHardwarePort()
	c := NewDigitalCoordinator(port, testMappings(t), time.Second)

	results := make(chan loadport.Result, 1)
	c.PrepareForLoad(func(r loadport.Result) { results <- r })

	port.Drive(LineID{Card: 0, Port: 0, Bit: 2}, true) // DOCKED
	port.Drive(LineID{Card: 0, Port: 0, Bit: 3}, true) // PLACEMENT_OK

	select {
	case r := <-results:
		require.True(t, r.Ready)
	case <-time.After(time.Second):
		t.Fatal("prepare for load never completed")
	}

	dockCmd, _ := port.ReadLine(LineID{Card: 0, Port: 1, Bit: 0})
	require.True(t, dockCmd)
}

func TestDigitalCoordinatorPrepareForLoadTimesOut(t *testing.T) {
	port := NewFakeHardwarePort()
	c := NewDigitalCoordinator(port, testMappings(t), 20*time.Millisecond)

	results := make(chan loadport.Result, 1)
	c.PrepareForLoad(func(r loadport.Result) { results <- r })

	select {
	case r := <-results:
		require.False(t, r.Ready)
		require.Equal(t, loadport.FaultActuatorTimeout, r.Reason)
	case <-time.After(time.Second):
		t.Fatal("prepare for load never timed out")
	}
}

func TestDigitalCoordinatorEmergencySafeIsReentrant(t *testing.T) {
	port := NewFakeHardwarePort()
	c := NewDigitalCoordinator(port, testMappings(t), time.Second)

	port.Drive(LineID{Card: 0, Port: 1, Bit: 0}, true)
	c.EmergencySafe()
	c.EmergencySafe()

	dockCmd, _ := port.ReadLine(LineID{Card: 0, Port: 1, Bit: 0})
	require.False(t, dockCmd)
	require.Equal(t, loadport.StateFault, c.Report().State)
}
