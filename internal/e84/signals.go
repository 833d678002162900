package e84

// Signal names of the fixed E84 signal set (spec.md §3). These are the
// wire-level names the AMHS and the load port both recognize; transport
// adapters (internal/digitalio, internal/asciiport) are responsible for
// mapping their own physical representation onto exactly these names.
const (
	// Inputs from AMHS.
	SigVALID = "VALID"
	SigCS0   = "CS_0"
	SigCS1   = "CS_1"
	SigTRReq = "TR_REQ"
	SigBUSY  = "BUSY"
	SigCOMPT = "COMPT"
	SigCONT  = "CONT"

	// Outputs to AMHS.
	SigLReq   = "L_REQ"
	SigUReq   = "U_REQ"
	SigREADY  = "READY"
	SigHOAVBL = "HO_AVBL"
	SigES     = "ES"

	// Internal reflections of load port state.
	SigCarrierPresent = "CARRIER_PRESENT"
	SigClamped        = "CLAMPED"
	SigDocked         = "DOCKED"
	SigPlacementOK    = "PLACEMENT_OK"
)

// Timer names, per spec.md §4.2.
const (
	TimerTP1 = "TP1"
	TimerTP2 = "TP2"
	TimerTP3 = "TP3"
	TimerTP4 = "TP4"
	TimerTP5 = "TP5"
)

// InputSignals lists every signal.DirectionInput signal the Machine
// subscribes to.
var InputSignals = []string{SigVALID, SigCS0, SigCS1, SigTRReq, SigBUSY, SigCOMPT, SigCONT}

// OutputSignals lists every signal.DirectionOutput signal the Machine
// owns and writes.
var OutputSignals = []string{SigLReq, SigUReq, SigREADY, SigHOAVBL, SigES}

// InternalSignals lists every signal.DirectionInternal signal, named
// for the physical port state. They are registered but nothing in this
// module writes them; port state is read through loadport.Coordinator.Report.
var InternalSignals = []string{SigCarrierPresent, SigClamped, SigDocked, SigPlacementOK}

// IsKnownSignal reports whether name is one of the fixed E84 signal set,
// for configuration validation (internal/config) of digital.mapping
// entries against e84err.KindUnmappedSignal.
func IsKnownSignal(name string) bool {
	for _, s := range InputSignals {
		if s == name {
			return true
		}
	}
	for _, s := range OutputSignals {
		if s == name {
			return true
		}
	}
	for _, s := range InternalSignals {
		if s == name {
			return true
		}
	}
	return false
}
