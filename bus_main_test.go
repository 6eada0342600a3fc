package lockstep

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type stubControllerCallbacks struct {
	lastWritePort  int
	lastWriteValue uint8
	readValue      uint8
}

func (s *stubControllerCallbacks) ControllerRead(port int) uint8 { return s.readValue }
func (s *stubControllerCallbacks) ControllerWrite(port int, value uint8) {
	s.lastWritePort = port
	s.lastWriteValue = value
}

func newTestMachine(callbacks Callbacks) *Machine {
	return NewMachine(DefaultConfiguration(), discardLogger{}, callbacks, NewVDPConstant(), NewPSGVolumeTable(), &StubCPUCore{}, &StubCPUCore{}, &StubCPUCore{})
}

// Requesting the secondary CPU's bus, then touching its RAM window,
// must succeed only once the request is granted; before that it is
// open-bus (§8 scenario 3 "Z80 bus-request handshake").
func TestSecondaryBusRequestGatesRAMWindow(t *testing.T) {
	m := newTestMachine(Callbacks{})

	m.WriteMain(0x500000/2, false, true, 0x1234) // not yet requested
	require.Equal(t, byte(0), m.secondaryWorkRAM[0])

	m.WriteMain(0x508800/2, true, true, 0x0100) // request the bus
	m.WriteMain(0x500000/2, false, true, 0x0042)

	require.Equal(t, byte(0x42), m.secondaryWorkRAM[0])
}

// Releasing the secondary CPU's reset line resets it and reinitialises
// the FM chip, matching the original's documented side effect.
func TestSecondaryResetReleaseResetsFMChip(t *testing.T) {
	m := newTestMachine(Callbacks{})

	m.ownership.secondaryResetHeld = true
	m.fm.dacEnabled = true

	m.WriteMain(0x508880/2, true, true, 0x0100) // release reset (bit set = not held)

	require.False(t, m.ownership.secondaryResetHeld)
	require.False(t, m.fm.dacEnabled)
}

func TestControllerPortRoutesToCallbacks(t *testing.T) {
	cb := &stubControllerCallbacks{readValue: 0x55}
	m := newTestMachine(Callbacks{Controller: cb})

	value := m.ReadMain(0x508000/2, false, true)
	require.Equal(t, uint16(0x55), value)

	// Open the port's data bits for output before writing, matching
	// real hardware's control-then-data write sequence.
	m.WriteMain(0x508000/2+1, false, true, 0xFF)
	m.WriteMain(0x508000/2, false, true, 0xAA)
	require.Equal(t, uint8(0xAA), cb.lastWriteValue)
}

// Word-RAM mode register: setting "return ownership" in 2M mode hands
// word-RAM to the sub-CPU (§4.2).
func TestWordRAMReturnOwnershipTransfersIn2MMode(t *testing.T) {
	m := newTestMachine(Callbacks{})
	m.ownership.wordRAMOwnedBySub = false

	m.writeWordRAMMode(1 << 1) // set "return ownership"

	require.True(t, m.ownership.wordRAMOwnedBySub)
	require.False(t, m.ownership.wordRAMReturnFlag)
}

func TestCartridgeReadDispatchesToCallback(t *testing.T) {
	cart := &recordingCartridge{data: map[uint32]uint8{0: 0xDE, 1: 0xAD}}
	m := newTestMachine(Callbacks{Cartridge: cart})

	value := m.ReadMain(0, true, true)
	require.Equal(t, uint16(0xDEAD), value)
}

type recordingCartridge struct {
	data    map[uint32]uint8
	written map[uint32]uint8
}

func (c *recordingCartridge) CartridgeRead(addr uint32) uint8 { return c.data[addr] }
func (c *recordingCartridge) CartridgeWritten(addr uint32, value uint8) {
	if c.written == nil {
		c.written = map[uint32]uint8{}
	}
	c.written[addr] = value
}
