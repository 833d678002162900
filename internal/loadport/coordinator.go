// Package loadport defines the contract the E84 State Machine programs
// against for the physical load port, and the shared port-state model
// both transport variants (internal/digitalio, internal/asciiport)
// drive. The Machine never imports either variant directly.
package loadport

import "time"

// State is the load port's own physical-state model, independent of the
// E84 handshake phase it is currently reconciling with.
type State int

const (
	StateIdle State = iota
	StateDocking
	StateDockedEmpty
	StateDockedLoaded
	StateUndocking
	StateFault
)

var stateNames = map[State]string{
	StateIdle:         "IDLE",
	StateDocking:      "DOCKING",
	StateDockedEmpty:  "DOCKED_EMPTY",
	StateDockedLoaded: "DOCKED_LOADED",
	StateUndocking:    "UNDOCKING",
	StateFault:        "FAULT",
}

func (s State) String() string {
	if n, ok := stateNames[s]; ok {
		return n
	}
	return "UNKNOWN"
}

// PortReport is the sensor snapshot the Coordinator exposes. Neither
// variant writes it onto the Registry's CARRIER_PRESENT/CLAMPED/DOCKED/
// PLACEMENT_OK internal signals; the Machine reads port state only
// through Report.
type PortReport struct {
	CarrierPresent bool
	Clamped        bool
	Docked         bool
	PlacementOK    bool
	State          State
	At             time.Time
}

// FaultReason enumerates why a PrepareForLoad/PrepareForUnload
// completion reported Fault instead of Ready.
type FaultReason int

const (
	FaultNone FaultReason = iota
	FaultActuatorTimeout
	FaultSensorInconsistent
	FaultPlacementFailure
	FaultDockFailure
	FaultTransport
)

var faultReasonNames = map[FaultReason]string{
	FaultNone:               "NONE",
	FaultActuatorTimeout:    "ACTUATOR_TIMEOUT",
	FaultSensorInconsistent: "SENSOR_INCONSISTENT",
	FaultPlacementFailure:   "PLACEMENT_FAILURE",
	FaultDockFailure:        "DOCK_FAIL",
	FaultTransport:          "TRANSPORT",
}

func (f FaultReason) String() string {
	if n, ok := faultReasonNames[f]; ok {
		return n
	}
	return "UNKNOWN"
}

// Result is the future-like completion of a prepare request (spec.md
// §4.4): either Ready or a Fault with a reason.
type Result struct {
	Ready  bool
	Reason FaultReason
}

// Coordinator is the single contract both the digital-line and
// ASCII-serial load port variants implement. The E84 Machine is written
// only against this interface (internal/e84/machine.go).
type Coordinator interface {
	// PrepareForLoad requests the port make itself ready to receive a
	// carrier; cb is invoked exactly once, from the dispatch goroutine,
	// with the outcome.
	PrepareForLoad(cb func(Result))

	// PrepareForUnload is the unload-direction counterpart.
	PrepareForUnload(cb func(Result))

	// Report returns the most recent sensor snapshot.
	Report() PortReport

	// OnChange registers a callback invoked whenever any sensor
	// changes. Multiple registrations are all invoked, FIFO order.
	OnChange(cb func(PortReport))

	// EmergencySafe synchronously drives the port to its safest
	// reachable state. Must be safe to call more than once.
	EmergencySafe()
}
