// Package e84 implements the Transition Table and E84 State Machine: the
// strict, timed, four-phase SEMI E84 handshake, executed against a
// signal.Registry and a loadport.Coordinator.
package e84

// State is one of the finite SEMI E84 equipment states (spec.md §4.2).
type State int

const (
	// StateAny is not a real state; it marks transition rows that apply
	// regardless of the current state (the ES emergency row).
	StateAny State = iota

	StateIdle
	StateSelected
	StateTransferReady
	StateTransferReadyPrime // TRANSFER_READY' — READY asserted, awaiting BUSY
	StateTransferInProgress
	StateTransferComplete
	StateHandoffComplete

	StateErrorTP1
	StateErrorTP2
	StateErrorTP3
	StateErrorTP4
	StateErrorTP5
	StateErrorInvalidCS
	StateErrorPort

	StateESAsserted
)

var stateNames = map[State]string{
	StateAny:                "ANY",
	StateIdle:               "IDLE",
	StateSelected:           "SELECTED",
	StateTransferReady:      "TRANSFER_READY",
	StateTransferReadyPrime: "TRANSFER_READY'",
	StateTransferInProgress: "TRANSFER_IN_PROGRESS",
	StateTransferComplete:   "TRANSFER_COMPLETE",
	StateHandoffComplete:    "HANDOFF_COMPLETE",
	StateErrorTP1:           "ERROR_TP1",
	StateErrorTP2:           "ERROR_TP2",
	StateErrorTP3:           "ERROR_TP3",
	StateErrorTP4:           "ERROR_TP4",
	StateErrorTP5:           "ERROR_TP5",
	StateErrorInvalidCS:     "ERROR_INVALID_CS",
	StateErrorPort:          "ERROR_PORT",
	StateESAsserted:         "ES_ASSERTED",
}

func (s State) String() string {
	if n, ok := stateNames[s]; ok {
		return n
	}
	return "UNKNOWN"
}

// IsError reports whether s is one of the terminal error states, which
// require an explicit operator reset to leave (spec.md §4.2).
func (s State) IsError() bool {
	switch s {
	case StateErrorTP1, StateErrorTP2, StateErrorTP3, StateErrorTP4, StateErrorTP5,
		StateErrorInvalidCS, StateErrorPort:
		return true
	default:
		return false
	}
}

// TransferDirection is the load/unload direction latched when CS_0/CS_1
// are resolved unambiguously in SELECTED.
type TransferDirection int

const (
	DirectionUnknown TransferDirection = iota
	DirectionLoad
	DirectionUnload
)

func (d TransferDirection) String() string {
	switch d {
	case DirectionLoad:
		return "load"
	case DirectionUnload:
		return "unload"
	default:
		return "unknown"
	}
}

// Edge is the direction of a signal-level change that can trigger a
// transition guard.
type Edge int

const (
	EdgeAny Edge = iota
	EdgeRising
	EdgeFalling
)
