package asciiport

import (
	"go.bug.st/serial"
)

// Options configures the serial line, following the teacher's fluent
// Options/NewOptions builder.
type Options struct {
	Baud int
}

// NewOptions returns 8-N-1 at the protocol default of 9600 baud
// (spec.md §6).
func NewOptions() *Options {
	return &Options{Baud: 9600}
}

// WithBaud overrides the baud rate.
func (o *Options) WithBaud(baud int) *Options {
	o.Baud = baud
	return o
}

// OpenSerialTransport opens portName and returns a Transport speaking
// the load port's CR-terminated line protocol over it.
func OpenSerialTransport(portName string, opts *Options) (Transport, error) {
	if opts == nil {
		opts = NewOptions()
	}
	mode := &serial.Mode{
		BaudRate: opts.Baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(portName, mode)
	if err != nil {
		return nil, err
	}
	return newLineTransport(port), nil
}
