package lockstep

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type recordingVideoCallbacks struct {
	colours []struct {
		index  uint16
		colour uint16
	}
}

func (r *recordingVideoCallbacks) ColourUpdated(index uint16, colour12 uint16) {
	r.colours = append(r.colours, struct {
		index  uint16
		colour uint16
	}{index, colour12})
}

func (r *recordingVideoCallbacks) ScanlineRendered(scanline uint16, pixels []uint8, width, height uint16) {
}

func newTestVDP() *VDP {
	return NewVDP(NewVDPConstant(), &Configuration{}, discardLogger{}, nil)
}

// Setting the CRAM access mode and writing one word produces three
// ColourUpdated calls (normal/shadow/highlight), each at its own index
// offset (§8 scenario 1, §3 invariant 4).
func TestVDPCRAMWriteFiresThreeColourUpdates(t *testing.T) {
	v := newTestVDP()
	cb := &recordingVideoCallbacks{}

	// Two-part address/code command: CD1-CD0 = 11 selects CRAM write.
	v.WriteControl(0xC000, cb, nil)
	v.WriteControl(0x0000, cb, nil)

	v.WriteData(0x0E0E, cb)

	require.Len(t, cb.colours, 3)
	require.Equal(t, uint16(shadowHighlightNormal), cb.colours[0].index)
	require.Equal(t, uint16(shadowHighlightShadow), cb.colours[1].index)
	require.Equal(t, uint16(shadowHighlightHighlight), cb.colours[2].index)
}

// Auto-increment advances the address register by the configured step
// after every data-port access.
func TestVDPAddressAutoIncrement(t *testing.T) {
	v := newTestVDP()
	v.writeRegister(15, 2) // increment by 2

	// CD1-CD0 = 01 selects VRAM write.
	v.WriteControl(0x4000, nil, nil)
	v.WriteControl(0x0000, nil, nil)

	before := v.access.addressReg
	v.WriteData(0x1234, nil)
	require.Equal(t, before+2, v.access.addressReg)
}

// A fill DMA writes the high byte of every data-port write across the
// whole requested length (§8 scenario 2 "VDP DMA fill").
func TestVDPDMAFill(t *testing.T) {
	v := newTestVDP()

	v.writeRegister(1, 1<<4)  // DMA enabled
	v.writeRegister(15, 2)    // address increment
	v.writeRegister(19, 4)    // length low = 4
	v.writeRegister(20, 0)    // length high
	v.writeRegister(23, 0x80) // fill mode armed

	// Two-part address/code command: CD1-CD0 = 01 (VRAM write), CD5 = 1
	// (DMA pending) -- the second word's bit 7 becomes codeReg bit 5
	// once DMA is enabled, per WriteControl's codeBitmask widening.
	v.WriteControl(0x4000, nil, nil)
	v.WriteControl(0x0080, nil, nil)

	v.WriteData(0xAB00, nil)

	require.Equal(t, byte(0xAB), v.vram[0], "initial write's high byte")
	require.Equal(t, byte(0x00), v.vram[1], "initial write's low byte")
	require.Equal(t, byte(0xAB), v.vram[3], "fill iteration 1")
	require.Equal(t, byte(0xAB), v.vram[5], "fill iteration 2")
	require.Equal(t, byte(0xAB), v.vram[7], "fill iteration 3")
	require.Equal(t, byte(0xAB), v.vram[9], "fill iteration 4")
	require.Equal(t, uint16(0), v.dma.length)
}

// Writes landing in the sprite table's Y/size byte keep the cached
// sprite-table copy and the dirty flag in sync (§3 invariant 3).
func TestVDPSpriteTableWriteMarksRowCacheDirty(t *testing.T) {
	v := newTestVDP()
	v.writeRegister(5, 0) // sprite table at VRAM 0
	v.spriteRowCacheDirty = false

	v.writeVRAM(0, 0x7F) // Y byte of sprite 0

	require.True(t, v.spriteRowCacheDirty)
	require.Equal(t, byte(0x7F), v.spriteTableCache[0][0])
}

func TestVDPReadControlReportsVBlank(t *testing.T) {
	v := newTestVDP()
	v.currentlyInVBlank = true

	require.NotZero(t, v.ReadControl()&(1<<3))
}

func TestVDPKDebugBufferFlushesOnNUL(t *testing.T) {
	v := newTestVDP()
	var captured string
	v.debug = debugCallbacksFunc(func(s string) { captured = s })

	for _, c := range "hi" {
		v.writeRegister(30, uint16(c))
	}
	v.writeRegister(30, 0)

	require.Equal(t, "hi", captured)
}

type debugCallbacksFunc func(s string)

func (f debugCallbacksFunc) KDebug(s string) { f(s) }
