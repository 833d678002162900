package digitalio

import (
	"sync"
	"time"

	"github.com/stev4501/e84ctl/internal/loadport"
)

// Sensor/actuator line names this coordinator expects in its mapping,
// over and above the AMHS handshake lines WireAMHSLines wires
// separately.
const (
	LineCarrierPresent = "CARRIER_PRESENT"
	LineClamped        = "CLAMPED"
	LineDocked         = "DOCKED"
	LinePlacementOK    = "PLACEMENT_OK"
	LineDockCmd        = "DOCK_CMD"
	LineClampCmd       = "CLAMP_CMD"
)

// DigitalCoordinator is the digital-line Load Port Coordinator variant
// (spec.md §4.4): sensors and actuators map directly onto lines on a
// HardwarePort, reads and writes are immediate, and actuator completion
// is awaited with its own timeout rather than blocking the caller.
type DigitalCoordinator struct {
	port     HardwarePort
	mappings *MappingSet
	model    *loadport.Model
	timeout  time.Duration

	mu      sync.Mutex
	pending *pendingPrepare
}

type pendingPrepare struct {
	wantLoad bool
	cb       func(loadport.Result)
	timer    *time.Timer
	done     bool
}

// NewDigitalCoordinator wires port's sensor lines into model via
// mappings, which must contain entries for LineCarrierPresent,
// LineClamped, LineDocked, LinePlacementOK, LineDockCmd, and
// LineClampCmd.
func NewDigitalCoordinator(port HardwarePort, mappings *MappingSet, timeout time.Duration) *DigitalCoordinator {
	c := &DigitalCoordinator{
		port:     port,
		mappings: mappings,
		model:    loadport.NewModel(),
		timeout:  timeout,
	}
	port.OnChange(func(id LineID, level bool) {
		c.onLineChange(id, level)
	})
	return c
}

func (c *DigitalCoordinator) readSensor(name string) bool {
	m, ok := c.mappings.BySignal(name)
	if !ok {
		return false
	}
	raw, err := c.port.ReadLine(m.Line)
	if err != nil {
		return false
	}
	return m.applyPolarity(raw)
}

func (c *DigitalCoordinator) refresh() loadport.PortReport {
	carrier := c.readSensor(LineCarrierPresent)
	clamped := c.readSensor(LineClamped)
	docked := c.readSensor(LineDocked)
	placement := c.readSensor(LinePlacementOK)
	c.model.Apply(carrier, clamped, docked, placement)
	return c.model.Report()
}

func (c *DigitalCoordinator) onLineChange(id LineID, level bool) {
	for _, name := range []string{LineCarrierPresent, LineClamped, LineDocked, LinePlacementOK} {
		if m, ok := c.mappings.BySignal(name); ok && m.Line == id {
			c.refresh()
			c.checkPending()
			return
		}
	}
}

func (c *DigitalCoordinator) writeActuator(name string, level bool) error {
	m, ok := c.mappings.BySignal(name)
	if !ok {
		return nil
	}
	return c.port.WriteLine(m.Line, m.applyPolarity(level))
}

func (c *DigitalCoordinator) checkPending() {
	c.mu.Lock()
	p := c.pending
	if p == nil || p.done {
		c.mu.Unlock()
		return
	}
	report := c.model.Report()
	ready := report.Docked && report.PlacementOK
	if p.wantLoad {
		ready = ready && !report.CarrierPresent
	} else {
		ready = ready && report.CarrierPresent && report.Clamped
	}
	if !ready {
		c.mu.Unlock()
		return
	}
	p.done = true
	p.timer.Stop()
	cb := p.cb
	c.pending = nil
	c.mu.Unlock()
	cb(loadport.Result{Ready: true})
}

func (c *DigitalCoordinator) prepare(load bool, cb func(loadport.Result)) {
	c.mu.Lock()
	if c.pending != nil && !c.pending.done {
		c.pending.done = true
		c.pending.timer.Stop()
	}
	p := &pendingPrepare{wantLoad: load, cb: cb}
	c.pending = p
	p.timer = time.AfterFunc(c.timeout, func() {
		c.mu.Lock()
		if p.done {
			c.mu.Unlock()
			return
		}
		p.done = true
		c.pending = nil
		c.mu.Unlock()
		cb(loadport.Result{Reason: loadport.FaultActuatorTimeout})
	})
	c.mu.Unlock()

	_ = c.writeActuator(LineDockCmd, true)
	if !load {
		_ = c.writeActuator(LineClampCmd, true)
	}
	c.checkPending()
}

func (c *DigitalCoordinator) PrepareForLoad(cb func(loadport.Result))   { c.prepare(true, cb) }
func (c *DigitalCoordinator) PrepareForUnload(cb func(loadport.Result)) { c.prepare(false, cb) }

func (c *DigitalCoordinator) Report() loadport.PortReport { return c.refresh() }

func (c *DigitalCoordinator) OnChange(cb func(loadport.PortReport)) { c.model.OnChange(cb) }

// EmergencySafe drops both actuator commands and forces the model to
// StateFault; safe to call more than once.
func (c *DigitalCoordinator) EmergencySafe() {
	_ = c.writeActuator(LineDockCmd, false)
	_ = c.writeActuator(LineClampCmd, false)
	c.model.ForceFault()
}
