package controller

import (
	"fmt"
	"strings"
)

// Mode is the operator-selected controller mode (spec.md §3). Only
// AUTO permits the E84 Machine to assert HO_AVBL.
type Mode int

const (
	ModeAuto Mode = iota
	ModeManual
	ModeMaintenance
	ModeFault
)

var modeNames = map[Mode]string{
	ModeAuto:        "AUTO",
	ModeManual:      "MANUAL",
	ModeMaintenance: "MAINTENANCE",
	ModeFault:       "FAULT",
}

func (m Mode) String() string {
	if n, ok := modeNames[m]; ok {
		return n
	}
	return "UNKNOWN"
}

// ParseMode parses the operator-facing mode names accepted by
// configuration, the CLI's set-mode subcommand, and the operator
// surface's /mode endpoint (spec.md §6 "set_mode"). FAULT is not
// settable by an operator — it is a Machine-driven state, not a mode to
// request — so it is rejected here like any other unrecognized value.
// Matching is case-insensitive, as in config.Validate.
func ParseMode(s string) (Mode, error) {
	switch strings.ToUpper(s) {
	case "AUTO":
		return ModeAuto, nil
	case "MANUAL":
		return ModeManual, nil
	case "MAINTENANCE":
		return ModeMaintenance, nil
	default:
		return 0, fmt.Errorf("unknown mode %q", s)
	}
}
