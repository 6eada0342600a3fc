// ioport.go - the controller I/O port: a masked bidirectional data
// register sitting between the main CPU and a front-end's controller
// callbacks (§4.2, component 6). Grounded on original_source/io-port.c.

package lockstep

// IOPortReadCallback fetches the current state of whatever device is
// wired to an I/O port (pad, mouse, or nothing).
type IOPortReadCallback func(cycles uint32) uint8

// IOPortWriteCallback delivers a write to whatever device is wired to
// an I/O port.
type IOPortWriteCallback func(value uint8, cycles uint32)

// IOPort is one of the three controller ports (§3 GLOSSARY): a
// direction mask plus a cached write value, standing in for the
// bidirectional pins real controller hardware exposes.
//
// The standard SDK bootcode probes an all-zero port to detect a
// soft reset, so the zero value must be usable as-is.
type IOPort struct {
	mask        uint8
	cachedWrite uint8

	read  IOPortReadCallback
	write IOPortWriteCallback
}

// SetCallbacks wires (or clears, with nil) the device behind this port.
func (p *IOPort) SetCallbacks(read IOPortReadCallback, write IOPortWriteCallback) {
	p.read = read
	p.write = write
}

// ReadControl returns the port's direction mask: a set bit marks that
// pin as an output (read back the cached write), clear marks it an
// input (read from the device).
func (p *IOPort) ReadControl() uint8 {
	return p.mask
}

// WriteControl sets the port's direction mask.
func (p *IOPort) WriteControl(mask uint8) {
	p.mask = mask
}

// ReadData reads the port: input pins come from the wired device,
// output pins echo back the last value written to them.
func (p *IOPort) ReadData(cycles uint32) uint8 {
	if p.read == nil {
		return 0
	}

	return (p.read(cycles) &^ p.mask) | p.cachedWrite
}

// WriteData writes the port, masking the value down to just the pins
// configured as outputs before caching it and forwarding it on.
func (p *IOPort) WriteData(value uint8, cycles uint32) {
	if p.write == nil {
		return
	}

	p.cachedWrite = value & p.mask
	p.write(p.cachedWrite, cycles)
}
