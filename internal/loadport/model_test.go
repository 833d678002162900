package loadport

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestModelDerivesState(t *testing.T) {
	m := NewModel()
	require.Equal(t, StateIdle, m.Report().State)

	m.Apply(false, false, true, false)
	require.Equal(t, StateDockedEmpty, m.Report().State)

	m.Apply(true, true, true, true)
	require.Equal(t, StateDockedLoaded, m.Report().State)
}

func TestModelNotifiesOnlyOnChange(t *testing.T) {
	m := NewModel()
	calls := 0
	m.OnChange(func(PortReport) { calls++ })

	m.Apply(false, false, false, false)
	require.Equal(t, 0, calls)

	m.Apply(false, false, true, false)
	require.Equal(t, 1, calls)

	m.Apply(false, false, true, false)
	require.Equal(t, 1, calls)
}

func TestModelForceFaultIsIdempotent(t *testing.T) {
	m := NewModel()
	calls := 0
	m.OnChange(func(PortReport) { calls++ })

	m.ForceFault()
	m.ForceFault()
	require.Equal(t, 1, calls)
	require.Equal(t, StateFault, m.Report().State)
}
