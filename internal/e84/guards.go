package e84

// guardCanSelect gates IDLE -> SELECTED: mode must be AUTO and the load
// port must report ready, in addition to the CS_0/CS_1 rising edge that
// triggered evaluation. Ready means docked, and empty for a load (CS_1)
// or holding a carrier for an unload (CS_0 alone).
func (m *Machine) guardCanSelect() bool {
	if !m.autoMode || m.emergencyLatched {
		return false
	}
	if m.port == nil {
		return true
	}
	report := m.port.Report()
	if !report.Docked {
		return false
	}
	if m.reg.ReadByName(SigCS0) && !m.reg.ReadByName(SigCS1) {
		return report.CarrierPresent
	}
	return !report.CarrierPresent
}

// guardInvalidCS implements the resolved Open Question (DESIGN.md):
// both CS_0 and CS_1 asserted, or neither, while in SELECTED, is an
// error, checked ahead of the ordinary VALID-rising transition.
func (m *Machine) guardInvalidCS() bool {
	cs0 := m.reg.ReadByName(SigCS0)
	cs1 := m.reg.ReadByName(SigCS1)
	return cs0 == cs1
}

// guardCSResolved is the complement of guardInvalidCS: exactly one of
// CS_0/CS_1 is asserted.
func (m *Machine) guardCSResolved() bool {
	return !m.guardInvalidCS()
}

// guardCSIdle gates HANDOFF_COMPLETE -> IDLE: the CS line that selected
// this transfer must have fallen.
func (m *Machine) guardCSIdle() bool {
	return !m.reg.ReadByName(SigCS0) && !m.reg.ReadByName(SigCS1)
}

// guardTransferDone gates TRANSFER_IN_PROGRESS -> TRANSFER_COMPLETE:
// BUSY must have fallen and COMPT must be asserted, regardless of which
// of the two signals triggered this evaluation.
func (m *Machine) guardTransferDone() bool {
	return !m.reg.ReadByName(SigBUSY) && m.reg.ReadByName(SigCOMPT)
}
