package e84

import "github.com/stev4501/e84ctl/internal/e84err"

// Row is one declarative transition: (from-state, guard, to-state,
// actions, arms-timer?), per spec.md §4.3. The Transition Table is
// immutable data interpreted by the Machine, not a switch statement,
// following the "rows not switch" instinct of chungers-fsm's
// State{Transitions, Actions} shape, adapted to guards over a Signal
// Registry rather than bare signal enums.
type Row struct {
	// From is the state this row applies in, or StateAny to apply
	// regardless of current state (used only by the ES emergency row).
	From State

	// Signals lists the input/internal signal names whose change can
	// trigger evaluation of this row. Empty means the row is only
	// evaluated on the named Timer firing.
	Signals []string

	// Edge restricts which direction of change on a triggering signal
	// satisfies this row. EdgeAny matches either direction.
	Edge Edge

	// Timer, if non-empty, means this row fires in response to that
	// timer's expiry rather than a signal change.
	Timer string

	// Guard is evaluated in addition to the Signals/Edge/Timer match.
	// Nil means no additional condition.
	Guard func(m *Machine) bool

	To State

	// Actions runs after the state has already been updated to To, and
	// may fail — a failing action is itself a fault, surfaced with the
	// Kind of the returned *e84err.Error, or as
	// e84err.KindUnexpectedInputInState for any other error.
	Actions func(m *Machine) error

	// ArmTimer is the timer name armed on entering To. Empty means no
	// timer is armed.
	ArmTimer string
}

func signalSet(names ...string) []string { return names }

func contains(set []string, name string) bool {
	for _, s := range set {
		if s == name {
			return true
		}
	}
	return false
}

// buildTable returns the canonical E84 transition table (spec.md §4.2
// excerpted table, fully expanded here including every error-state and
// timer-expiry row).
func buildTable() []Row {
	return []Row{
		// ES emergency wins over everything, from any state, including
		// error states — spec.md §4.2 "any | ES falling | ES_ASSERTED".
		{
			From:    StateAny,
			Signals: signalSet(SigES),
			Edge:    EdgeFalling,
			To:      StateESAsserted,
			Actions: (*Machine).actionEmergencySafe,
		},

		// IDLE -> SELECTED
		{
			From:    StateIdle,
			Signals: signalSet(SigCS0, SigCS1),
			Edge:    EdgeRising,
			Guard:   (*Machine).guardCanSelect,
			To:      StateSelected,
			ArmTimer: TimerTP1,
		},

		// SELECTED: invalid-CS guard checked ahead of the VALID-rising
		// transition, per the Open Question resolution in DESIGN.md.
		{
			From:    StateSelected,
			Signals: signalSet(SigCS0, SigCS1, SigVALID),
			Edge:    EdgeAny,
			Guard:   (*Machine).guardInvalidCS,
			To:      StateErrorInvalidCS,
			Actions: (*Machine).actionDropHandshakeOutputs,
		},
		// SELECTED -> TRANSFER_READY
		{
			From:     StateSelected,
			Signals:  signalSet(SigVALID),
			Edge:     EdgeRising,
			Guard:    (*Machine).guardCSResolved,
			To:       StateTransferReady,
			Actions:  (*Machine).actionAssertRequest,
			ArmTimer: TimerTP2,
		},
		// SELECTED: TP1 expiry
		{
			From:    StateSelected,
			Timer:   TimerTP1,
			To:      StateErrorTP1,
			Actions: (*Machine).actionDropHandshakeOutputs,
		},
		// SELECTED: TP2 expiry. TP2 is armed by the VALID-rising row above
		// regardless of whether actionAssertRequest's port prepare
		// succeeds, so a failed prepare that reverts m.current back to
		// SELECTED still needs its own TP2-expiry row rather than relying
		// on TRANSFER_READY's (spec.md §8 scenario 5).
		{
			From:    StateSelected,
			Timer:   TimerTP2,
			To:      StateErrorTP2,
			Actions: (*Machine).actionDropHandshakeOutputs,
		},

		// TRANSFER_READY -> TRANSFER_READY'
		{
			From:     StateTransferReady,
			Signals:  signalSet(SigTRReq),
			Edge:     EdgeRising,
			To:       StateTransferReadyPrime,
			Actions:  (*Machine).actionAssertReady,
			ArmTimer: TimerTP3,
		},
		// TRANSFER_READY: TP2 expiry
		{
			From:    StateTransferReady,
			Timer:   TimerTP2,
			To:      StateErrorTP2,
			Actions: (*Machine).actionDropHandshakeOutputs,
		},

		// TRANSFER_READY' -> TRANSFER_IN_PROGRESS
		{
			From:     StateTransferReadyPrime,
			Signals:  signalSet(SigBUSY),
			Edge:     EdgeRising,
			To:       StateTransferInProgress,
			ArmTimer: TimerTP4,
		},
		// TRANSFER_READY': TP3 expiry
		{
			From:    StateTransferReadyPrime,
			Timer:   TimerTP3,
			To:      StateErrorTP3,
			Actions: (*Machine).actionDropHandshakeOutputs,
		},

		// TRANSFER_IN_PROGRESS -> TRANSFER_COMPLETE
		{
			From:     StateTransferInProgress,
			Signals:  signalSet(SigBUSY, SigCOMPT),
			Edge:     EdgeAny,
			Guard:    (*Machine).guardTransferDone,
			To:       StateTransferComplete,
			Actions:  (*Machine).actionDropTransferOutputs,
			ArmTimer: TimerTP5,
		},
		// TRANSFER_IN_PROGRESS: TP4 expiry
		{
			From:    StateTransferInProgress,
			Timer:   TimerTP4,
			To:      StateErrorTP4,
			Actions: (*Machine).actionDropHandshakeOutputs,
		},

		// TRANSFER_COMPLETE -> HANDOFF_COMPLETE
		{
			From:    StateTransferComplete,
			Signals: signalSet(SigVALID),
			Edge:    EdgeFalling,
			To:      StateHandoffComplete,
		},
		// TRANSFER_COMPLETE: TP5 expiry
		{
			From:    StateTransferComplete,
			Timer:   TimerTP5,
			To:      StateErrorTP5,
			Actions: (*Machine).actionDropHandshakeOutputs,
		},

		// HANDOFF_COMPLETE -> IDLE
		{
			From:    StateHandoffComplete,
			Signals: signalSet(SigCS0, SigCS1),
			Edge:    EdgeFalling,
			Guard:   (*Machine).guardCSIdle,
			To:      StateIdle,
			Actions: (*Machine).actionEnterIdle,
		},
	}
}

// rowsFor returns, in table order, every row that could apply given the
// current state and the event (either a signal change or a timer fire).
func rowsFor(table []Row, current State, signalName string, edge Edge, timerName string) []Row {
	var out []Row
	for _, r := range table {
		if r.From != StateAny && r.From != current {
			continue
		}
		if timerName != "" {
			if r.Timer == timerName && r.From == current {
				out = append(out, r)
			}
			continue
		}
		if r.Timer != "" {
			continue
		}
		if !contains(r.Signals, signalName) {
			continue
		}
		if r.Edge != EdgeAny && r.Edge != edge {
			continue
		}
		out = append(out, r)
	}
	return out
}

func errUnexpected(state State, signalName string) error {
	return e84err.New(e84err.KindUnexpectedInputInState, state.String()+"/"+signalName)
}
