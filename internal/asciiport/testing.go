package asciiport

import "net"

// OpenLoopbackPair returns two Transports connected to each other, the
// way the teacher's OpenPTY gave tests a master/slave pseudoterminal
// pair to drive a Port against without real hardware. A net.Pipe
// in-memory connection stands in for the pty here: the teacher's
// GetPTPeer/SetLockPT ioctl plumbing (pty_linux.go) depends on ioctl
// wrapper methods this pack's copy of the teacher did not carry, so the
// test harness is built on the portable equivalent instead of
// reproducing ioctl calls nothing in the pack documents.
func OpenLoopbackPair() (core Transport, peer Transport) {
	a, b := net.Pipe()
	return newLineTransport(a), newLineTransport(b)
}
