package digitalio

import "github.com/stev4501/e84ctl/internal/signal"

// WireAMHSLines connects a HardwarePort to the Registry's AMHS input
// signals for every Mapping whose SignalName names an input, and
// subscribes the Registry's AMHS output signals so writes the Machine
// makes are pushed out to the matching physical line. This is the
// "digital I/O abstraction" of spec.md §6 applied to the AMHS-facing
// lines: the core sees only the Signal Registry, never the card.
func WireAMHSLines(reg *signal.Registry, handles map[string]signal.Handle, mappings *MappingSet, port HardwarePort) error {
	port.OnChange(func(id LineID, rawLevel bool) {
		m, ok := mappings.ByLine(id)
		if !ok {
			return
		}
		h, ok := handles[m.SignalName]
		if !ok || h.Direction() != signal.DirectionInput {
			return
		}
		_ = reg.Write(h, m.applyPolarity(rawLevel))
	})

	for name, h := range handles {
		if h.Direction() != signal.DirectionOutput {
			continue
		}
		m, ok := mappings.BySignal(name)
		if !ok {
			continue
		}
		n, mm := name, m
		reg.Subscribe(n, func(level bool) {
			_ = port.WriteLine(mm.Line, mm.applyPolarity(level))
		})
	}
	return nil
}
