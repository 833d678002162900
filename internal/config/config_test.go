package config

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/stev4501/e84ctl/internal/e84err"
)

func TestDefaultValidates(t *testing.T) {
	require.NoError(t, Validate(Default()))
}

func TestValidateRejectsUnknownSignal(t *testing.T) {
	cfg := Default()
	cfg.Interface = "digital"
	cfg.Digital.Mapping = []MappingConfig{{SignalName: "NOT_A_SIGNAL", Card: 0, Port: 0, Bit: 0}}

	err := Validate(cfg)
	require.Error(t, err)
	var e *e84err.Error
	require.ErrorAs(t, err, &e)
	require.Equal(t, e84err.KindUnmappedSignal, e.Kind)
}

func TestValidateRejectsDuplicateSignal(t *testing.T) {
	cfg := Default()
	cfg.Digital.Mapping = []MappingConfig{
		{SignalName: "CS_0", Card: 0, Port: 0, Bit: 0},
		{SignalName: "CS_0", Card: 0, Port: 0, Bit: 1},
	}

	err := Validate(cfg)
	require.Error(t, err)
	var e *e84err.Error
	require.ErrorAs(t, err, &e)
	require.Equal(t, e84err.KindDuplicateSignal, e.Kind)
}

func TestValidateRejectsNegativeTimer(t *testing.T) {
	cfg := Default()
	cfg.Timers.TP1Ms = -1

	err := Validate(cfg)
	require.Error(t, err)
	var e *e84err.Error
	require.ErrorAs(t, err, &e)
	require.Equal(t, e84err.KindInvalidTimerValue, e.Kind)
}

func TestValidateRejectsBadPolarity(t *testing.T) {
	cfg := Default()
	cfg.Interface = "digital"
	cfg.Digital.Mapping = []MappingConfig{{SignalName: "CS_0", Card: 0, Port: 0, Bit: 0, Polarity: "inverted"}}

	err := Validate(cfg)
	require.Error(t, err)
	var e *e84err.Error
	require.ErrorAs(t, err, &e)
	require.Equal(t, e84err.KindInvalidConfigValue, e.Kind)
}

func TestValidateRejectsBadMode(t *testing.T) {
	cfg := Default()
	cfg.Mode = "ROBOTIC"

	err := Validate(cfg)
	require.Error(t, err)
	var e *e84err.Error
	require.ErrorAs(t, err, &e)
	require.Equal(t, e84err.KindInvalidConfigValue, e.Kind)
}

func TestValidateRejectsBadInterface(t *testing.T) {
	cfg := Default()
	cfg.Interface = "analog"

	err := Validate(cfg)
	require.Error(t, err)
	var e *e84err.Error
	require.ErrorAs(t, err, &e)
	require.Equal(t, e84err.KindInvalidConfigValue, e.Kind)
}

func TestTimerOverridesOmitsUnset(t *testing.T) {
	cfg := Default()
	cfg.Timers.TP1Ms = 500

	overrides := cfg.TimerOverrides()
	require.Len(t, overrides, 1)
	require.Contains(t, overrides, "TP1")
}
