package loadport

import "sync"

// Model is the shared port-state bookkeeping embedded by both transport
// variants: it tracks the current PortReport, fans out OnChange
// callbacks, and applies the IDLE/DOCKING/DOCKED_EMPTY/DOCKED_LOADED/
// UNDOCKING/FAULT transitions (spec.md §3 "Load Port State") as sensor
// updates arrive. Variants call Apply whenever they observe a sensor
// change; Model derives the new State and notifies subscribers only on
// an actual report change, mirroring the Signal Registry's own
// edge-triggered notification rule.
type Model struct {
	mu        sync.Mutex
	report    PortReport
	observers []func(PortReport)
}

// NewModel returns a Model starting in StateIdle with every sensor
// false.
func NewModel() *Model {
	return &Model{report: PortReport{State: StateIdle}}
}

// Report returns the last-applied snapshot.
func (m *Model) Report() PortReport {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.report
}

// OnChange registers cb for every future Apply that changes the report.
func (m *Model) OnChange(cb func(PortReport)) {
	m.mu.Lock()
	m.observers = append(m.observers, cb)
	m.mu.Unlock()
}

// Apply derives the load port state from raw sensor levels and, if the
// resulting report differs from the last one, stores it and fans out to
// every OnChange subscriber in registration order.
func (m *Model) Apply(carrierPresent, clamped, docked, placementOK bool) {
	next := deriveState(carrierPresent, clamped, docked, placementOK)
	m.mu.Lock()
	prev := m.report
	if prev.State == StateFault {
		next = StateFault
	}
	changed := prev.CarrierPresent != carrierPresent || prev.Clamped != clamped ||
		prev.Docked != docked || prev.PlacementOK != placementOK || prev.State != next
	if !changed {
		m.mu.Unlock()
		return
	}
	m.report = PortReport{
		CarrierPresent: carrierPresent,
		Clamped:        clamped,
		Docked:         docked,
		PlacementOK:    placementOK,
		State:          next,
	}
	report := m.report
	observers := append([]func(PortReport){}, m.observers...)
	m.mu.Unlock()
	for _, obs := range observers {
		obs(report)
	}
}

// ForceFault transitions the model directly to StateFault regardless of
// sensor levels, used by EmergencySafe. StateFault then holds across
// later Apply calls, which still update the sensor fields.
func (m *Model) ForceFault() {
	m.mu.Lock()
	if m.report.State == StateFault {
		m.mu.Unlock()
		return
	}
	m.report.State = StateFault
	report := m.report
	observers := append([]func(PortReport){}, m.observers...)
	m.mu.Unlock()
	for _, obs := range observers {
		obs(report)
	}
}

func deriveState(carrierPresent, clamped, docked, placementOK bool) State {
	switch {
	case !docked && !carrierPresent:
		return StateIdle
	case docked && !carrierPresent:
		return StateDockedEmpty
	case docked && carrierPresent && clamped && placementOK:
		return StateDockedLoaded
	case !docked && carrierPresent:
		return StateUndocking
	default:
		return StateDocking
	}
}
