package e84

import (
	"github.com/stev4501/e84ctl/internal/e84err"
	"github.com/stev4501/e84ctl/internal/loadport"
)

func (m *Machine) writeOutput(name string, level bool) error {
	h, ok := m.handles.Outputs[name]
	if !ok {
		return errUnexpected(m.current, name)
	}
	return m.reg.Write(h, level)
}

// enterIdle asserts the IDLE entry actions (spec.md §4.2 state 1):
// HO_AVBL=1 and every other output 0. Only takes effect once mode is
// AUTO and no emergency is latched; otherwise HO_AVBL stays low
// (invariant 1, spec.md §8).
func (m *Machine) enterIdle() {
	m.current = StateIdle
	m.direction = DirectionUnknown
	_ = m.writeOutput(SigLReq, false)
	_ = m.writeOutput(SigUReq, false)
	_ = m.writeOutput(SigREADY, false)
	if m.autoMode && !m.emergencyLatched {
		_ = m.writeOutput(SigHOAVBL, true)
	} else {
		_ = m.writeOutput(SigHOAVBL, false)
	}
}

func (m *Machine) actionEnterIdle() error {
	m.enterIdle()
	return nil
}

// actionAssertRequest asserts L_REQ or U_REQ depending on the direction
// latched from CS_0/CS_1 at SELECTED -> TRANSFER_READY, after first
// asking the Load Port Coordinator to prepare for that direction
// (spec.md §4.4 prepare_for_load/prepare_for_unload). The row has
// already moved m.current to TRANSFER_READY by the time this runs; a
// Fault result reverts that back to SELECTED and reports
// PlacementFailure instead of asserting anything, per spec.md §8
// scenario 5 ("ASCII port fault during prepare").
func (m *Machine) actionAssertRequest() error {
	cs0 := m.reg.ReadByName(SigCS0)
	cs1 := m.reg.ReadByName(SigCS1)
	var dir TransferDirection
	switch {
	case cs1 && !cs0:
		dir = DirectionLoad
	case cs0 && !cs1:
		dir = DirectionUnload
	default:
		return errUnexpected(StateSelected, "CS_0/CS_1")
	}

	if m.port != nil {
		var result loadport.Result
		cb := func(r loadport.Result) { result = r }
		if dir == DirectionLoad {
			m.port.PrepareForLoad(cb)
		} else {
			m.port.PrepareForUnload(cb)
		}
		if !result.Ready {
			m.current = StateSelected
			return e84err.New(e84err.KindPlacementFailure, "port prepare failed: "+result.Reason.String())
		}
	}

	m.direction = dir
	if dir == DirectionLoad {
		return m.writeOutput(SigLReq, true)
	}
	return m.writeOutput(SigUReq, true)
}

// actionAssertReady asserts READY on TR_REQ rising in TRANSFER_READY.
func (m *Machine) actionAssertReady() error {
	return m.writeOutput(SigREADY, true)
}

// actionDropTransferOutputs drops L_REQ/U_REQ and READY on completion
// of the physical transfer (spec.md §4.2 table row 6).
func (m *Machine) actionDropTransferOutputs() error {
	if err := m.writeOutput(SigLReq, false); err != nil {
		return err
	}
	if err := m.writeOutput(SigUReq, false); err != nil {
		return err
	}
	return m.writeOutput(SigREADY, false)
}

// actionDropHandshakeOutputs drops every handshake output on entry to
// any error state (spec.md §4.2 states 7-8, failure semantics §4.2,
// §7).
func (m *Machine) actionDropHandshakeOutputs() error {
	_ = m.writeOutput(SigLReq, false)
	_ = m.writeOutput(SigUReq, false)
	_ = m.writeOutput(SigREADY, false)
	_ = m.writeOutput(SigHOAVBL, false)
	return nil
}

// actionEmergencySafe implements the ES-falling row available from any
// state: drop every output, force HO_AVBL low, and command the Load
// Port Coordinator to its safest reachable state. emergency_safe() must
// be re-entrant (spec.md §4.4); it is called exactly once per ES-falling
// edge here, but a second call from elsewhere (e.g. the Controller
// Facade's own shutdown path) must be safe too.
func (m *Machine) actionEmergencySafe() error {
	m.emergencyLatched = true
	_ = m.actionDropHandshakeOutputs()
	if m.port != nil {
		m.port.EmergencySafe()
	}
	return nil
}

// TriggerEmergencyStop lets the Controller Facade or Load Port
// Coordinator force the ES-falling transition when the emergency
// condition originates outside the AMHS wire itself (a physical E-stop
// wired into the equipment's own safety interlock, per the ES glossary
// entry: "equipment-to-AMHS safety/available complement"). It writes
// ES=false through the Registry exactly as an AMHS-driven ES line would,
// so the ordinary ES-falling transition row handles it uniformly.
func (m *Machine) TriggerEmergencyStop() error {
	return m.writeOutput(SigES, false)
}

// ClearEmergencyStop restores ES=true once the physical condition has
// cleared. It does not by itself leave ES_ASSERTED — only an operator
// Reset does that, per spec.md §7's no-silent-auto-recovery rule.
func (m *Machine) ClearEmergencyStop() error {
	return m.writeOutput(SigES, true)
}
