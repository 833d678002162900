// Package e84err defines the error taxonomy shared by every component of
// the controller, per the protocol/port/transport/configuration/system
// kinds of the E84 specification.
package e84err

// Kind classifies an Error into one of the spec's error families.
type Kind int

const (
	// Protocol errors — the handshake itself misbehaved.
	KindTP1Expiry Kind = iota
	KindTP2Expiry
	KindTP3Expiry
	KindTP4Expiry
	KindTP5Expiry
	KindInvalidCarrierStage
	KindAmbiguousGuard
	KindUnexpectedInputInState

	// Port errors — the physical load port misbehaved.
	KindActuatorTimeout
	KindSensorInconsistent
	KindPlacementFailure

	// Transport errors — the collaborator below the core misbehaved.
	KindSerialTimeout
	KindSerialFraming
	KindDigitalIoUnavailable

	// Configuration errors — fatal at startup.
	KindDuplicateSignal
	KindUnmappedSignal
	KindInvalidTimerValue
	KindInvalidConfigValue

	// System errors.
	KindEmergencyStop
	KindReentrantDispatch

	// KindResetNotPermitted is raised when an operator reset is
	// attempted while AMHS inputs are not idle or the port is not
	// clean (scenario 6, §8).
	KindResetNotPermitted

	// KindWrongDirection is raised when a caller writes a signal it
	// does not own.
	KindWrongDirection
)

var kindNames = map[Kind]string{
	KindTP1Expiry:              "TP1_EXPIRY",
	KindTP2Expiry:              "TP2_EXPIRY",
	KindTP3Expiry:              "TP3_EXPIRY",
	KindTP4Expiry:              "TP4_EXPIRY",
	KindTP5Expiry:              "TP5_EXPIRY",
	KindInvalidCarrierStage:    "INVALID_CARRIER_STAGE",
	KindAmbiguousGuard:         "AMBIGUOUS_GUARD",
	KindUnexpectedInputInState: "UNEXPECTED_INPUT_IN_STATE",
	KindActuatorTimeout:        "ACTUATOR_TIMEOUT",
	KindSensorInconsistent:     "SENSOR_INCONSISTENT",
	KindPlacementFailure:       "PLACEMENT_FAILURE",
	KindSerialTimeout:          "SERIAL_TIMEOUT",
	KindSerialFraming:          "SERIAL_FRAMING",
	KindDigitalIoUnavailable:   "DIGITAL_IO_UNAVAILABLE",
	KindDuplicateSignal:        "DUPLICATE_SIGNAL",
	KindUnmappedSignal:         "UNMAPPED_SIGNAL",
	KindInvalidTimerValue:      "INVALID_TIMER_VALUE",
	KindInvalidConfigValue:     "INVALID_CONFIG_VALUE",
	KindEmergencyStop:          "EMERGENCY_STOP",
	KindReentrantDispatch:      "REENTRANT_DISPATCH",
	KindResetNotPermitted:      "RESET_NOT_PERMITTED",
	KindWrongDirection:         "WRONG_DIRECTION",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "UNKNOWN"
}

// Error is the controller-wide error type: a Kind, an optional message,
// and an optional wrapped cause.
type Error struct {
	Kind Kind
	msg  string
	err  error
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.msg != "" {
		msg += ": " + e.msg
	}
	if e.err != nil {
		msg += ": " + e.err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.err
}

// Is reports whether target is an *Error with the same Kind, so callers
// can do errors.Is(err, e84err.New(e84err.KindTP1Expiry, "")).
func (e *Error) Is(target error) bool {
	other, ok := target.(*Error)
	if !ok {
		return false
	}
	return other.Kind == e.Kind
}

// New constructs an Error of the given kind with a message.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, msg: msg}
}

// Wrap constructs an Error of the given kind that wraps a lower-level
// cause, mirroring the teacher's wrapErr helper.
func Wrap(kind Kind, msg string, cause error) *Error {
	if cause == nil {
		return New(kind, msg)
	}
	return &Error{Kind: kind, msg: msg, err: cause}
}
