// vdp.go - the video display processor's register file, two-step access
// command protocol, and DMA engine (§4.8). Grounded on
// original_source/vdp.c and vdp.h.

package lockstep

const (
	vdpMaxScanlineWidth = 320
	vdpMaxScanlines     = 240 * 2
	vdpVRAMSize         = 0x10000
	vdpCRAMSize         = 4 * 16
	vdpVSRAMSize        = 64
	vdpMaxSprites        = 80
	vdpSpriteRowCapacity = 20
)

type vdpAccessBuffer int

const (
	vdpAccessVRAM vdpAccessBuffer = iota
	vdpAccessCRAM
	vdpAccessVSRAM
	vdpAccessInvalid
)

type vdpDMAMode int

const (
	vdpDMAMemoryToVRAM vdpDMAMode = iota
	vdpDMAFill
	vdpDMACopy
)

type vdpHScrollMode int

const (
	vdpHScrollFull vdpHScrollMode = iota
	vdpHScroll1Cell
	vdpHScroll1Line
)

type vdpVScrollMode int

const (
	vdpVScrollFull vdpVScrollMode = iota
	vdpVScroll2Cell
)

type vdpAccessState struct {
	writePending   bool
	addressReg     uint16
	codeReg        uint16
	increment      uint16
	selectedBuffer vdpAccessBuffer
}

type vdpDMAState struct {
	enabled       bool
	mode          vdpDMAMode
	sourceHigh    uint8
	sourceLow     uint16
	length        uint16
}

type vdpWindowState struct {
	alignedRight      bool
	alignedBottom     bool
	horizontalBoundary uint16
	verticalBoundary   uint16
}

type vdpSpriteRowCacheEntry struct {
	tableIndex uint8
	yInSprite  uint8
	width      uint8
	height     uint8
}

type vdpSpriteRowCacheRow struct {
	total   uint8
	sprites [vdpSpriteRowCapacity]vdpSpriteRowCacheEntry
}

// VDP is the video display processor: register file, VRAM/CRAM/VSRAM,
// the sprite caches, and the DMA engine, addressed at bus region
// 0x600000-0x600008 (§4.2) through a data port and a control port.
type VDP struct {
	constant *VDPConstant
	config   *Configuration
	logger   Logger
	debug    DebugCallbacks

	access vdpAccessState
	dma    vdpDMAState

	planeAAddress     uint16
	planeBAddress     uint16
	windowAddress     uint16
	spriteTableAddress uint16
	hscrollAddress    uint16

	window vdpWindowState

	planeWidth  uint16
	planeHeight uint16

	displayEnabled          bool
	vIntEnabled             bool
	hIntEnabled             bool
	h40Enabled              bool
	v30Enabled              bool
	shadowHighlightEnabled  bool
	doubleResolutionEnabled bool

	backgroundColour   uint8
	hIntInterval       uint8
	currentlyInVBlank  bool
	allowSpriteMasking bool

	hscrollMode vdpHScrollMode
	vscrollMode vdpVScrollMode

	vram  [vdpVRAMSize]byte
	cram  [vdpCRAMSize]uint16
	vsram [vdpVSRAMSize]uint16

	spriteTableCache [vdpMaxSprites][4]byte

	spriteRowCacheDirty bool
	spriteRowCacheRows  [vdpMaxScanlines]vdpSpriteRowCacheRow

	kdebugBufferIndex int
	kdebugBuffer      [0x100]byte
}

// NewVDP constructs a powered-on VDP sharing the given precomputed
// compositing tables.
func NewVDP(constant *VDPConstant, config *Configuration, logger Logger, debug DebugCallbacks) *VDP {
	v := &VDP{
		constant:    constant,
		config:      config,
		logger:      logger,
		debug:       debug,
		planeWidth:  32,
		planeHeight: 32,
	}
	v.spriteRowCacheDirty = true
	return v
}

func (v *VDP) isDMAPending() bool      { return v.access.codeReg&0x20 != 0 }
func (v *VDP) clearDMAPending()        { v.access.codeReg &^= 0x20 }
func (v *VDP) isInReadMode() bool      { return v.access.codeReg&1 == 0 }

// writeVRAM stores a byte, keeping the sprite-table cache and its
// dirty flag in sync when the write lands inside the sprite table
// (§3 invariant 3, "VDP writes in the sprite table range").
func (v *VDP) writeVRAM(index uint16, value byte) {
	wrapped := index % vdpVRAMSize
	spriteTableIndex := wrapped - v.spriteTableAddress

	limit := uint16(64 * 8)
	if v.h40Enabled {
		limit = 80 * 8
	}

	if spriteTableIndex < limit && spriteTableIndex&4 == 0 {
		cacheBytes := &v.spriteTableCache[spriteTableIndex/8]
		cacheBytes[spriteTableIndex&3] = value
		v.spriteRowCacheDirty = true
	}

	v.vram[wrapped] = value
}

// ReadVRAMWord reads one big-endian word from VRAM.
func (v *VDP) ReadVRAMWord(address uint16) uint16 {
	address %= vdpVRAMSize
	return uint16(v.vram[address])<<8 | uint16(v.vram[address^1])
}

func (v *VDP) writeAndIncrement(value uint16, callbacks VideoCallbacks) {
	switch v.access.selectedBuffer {
	case vdpAccessVRAM:
		v.writeVRAM(v.access.addressReg^0, byte(value>>8))
		v.writeVRAM(v.access.addressReg^1, byte(value))

	case vdpAccessCRAM:
		colour := value & 0xEEE
		index := (v.access.addressReg / 2) % vdpCRAMSize
		v.cram[index] = colour

		if callbacks != nil {
			callbacks.ColourUpdated(shadowHighlightNormal+index, colour|((colour&0x888)>>3))
			callbacks.ColourUpdated(shadowHighlightShadow+index, colour>>1)
			callbacks.ColourUpdated(shadowHighlightHighlight+index, 0x888+(colour>>1))
		}

	case vdpAccessVSRAM:
		v.vsram[(v.access.addressReg/2)%vdpVSRAMSize] = value & 0x7FF

	default:
		warnUnrecognised(v.logger, "VDP access mode", uint32(v.access.codeReg))
	}

	v.access.addressReg += v.access.increment
}

func (v *VDP) readAndIncrement() uint16 {
	var value uint16

	switch v.access.selectedBuffer {
	case vdpAccessVRAM:
		value = v.ReadVRAMWord(v.access.addressReg % vdpVRAMSize)
	case vdpAccessCRAM:
		value = v.cram[(v.access.addressReg/2)%vdpCRAMSize]
	case vdpAccessVSRAM:
		value = v.vsram[(v.access.addressReg/2)%vdpVSRAMSize]
	default:
		warnUnrecognised(v.logger, "VDP access mode", uint32(v.access.codeReg))
	}

	v.access.addressReg += v.access.increment
	return value
}

// ReadData services a data-port read.
func (v *VDP) ReadData() uint16 {
	v.access.writePending = false

	if !v.isInReadMode() {
		warnOpenBus(v.logger, "VDP data read while in write mode")
		return 0
	}

	return v.readAndIncrement()
}

// ReadControl services a control-port read: reports FIFO/blank status
// and, per real hardware, cancels any in-flight two-part command.
func (v *VDP) ReadControl() uint16 {
	v.access.writePending = false

	const fifoEmpty = true
	const currentlyInHBlank = true

	value := uint16(0x3400)
	if fifoEmpty {
		value |= 1 << 9
	}
	if v.currentlyInVBlank {
		value |= 1 << 3
	}
	if currentlyInHBlank {
		value |= 1 << 2
	}
	return value
}

// WriteData services a data-port write, including a fill DMA armed by
// a preceding control-port command.
func (v *VDP) WriteData(value uint16, callbacks VideoCallbacks) {
	v.access.writePending = false

	if v.isInReadMode() {
		warnOpenBus(v.logger, "VDP data write while in read mode")
		v.access.addressReg += v.access.increment
		return
	}

	v.writeAndIncrement(value, callbacks)

	if v.isDMAPending() {
		v.clearDMAPending()

		for {
			v.writeVRAM(v.access.addressReg^1, byte(value>>8))
			v.access.addressReg += v.access.increment

			v.dma.sourceLow++
			v.dma.sourceLow &= 0xFFFF

			v.dma.length--
			v.dma.length &= 0xFFFF
			if v.dma.length == 0 {
				break
			}
		}
	}
}

// VDPDMASource reads one word from the address space the M2V DMA mode
// copies from (normally the main CPU's bus), assembled from the DMA
// source-high/source-low register pair.
type VDPDMASource func(address uint32) uint16

// WriteControl services a control-port write: either half of the
// two-part address/code command, a register-set command, or (if the
// second address-set word arms a non-fill DMA) the DMA itself.
func (v *VDP) WriteControl(value uint16, callbacks VideoCallbacks, dmaSource VDPDMASource) {
	if v.access.writePending {
		codeBitmask := uint16(0x1C)
		if v.dma.enabled {
			codeBitmask = 0x3C
		}

		v.access.writePending = false
		v.access.addressReg = (v.access.addressReg & 0x3FFF) | ((value & 3) << 14)
		v.access.codeReg = (v.access.codeReg &^ codeBitmask) | ((value >> 2) & codeBitmask)
	} else if value&0xC000 == 0x8000 {
		v.writeRegister((value>>8)&0x1F, value&0xFF)
	} else {
		v.access.writePending = true
		v.access.addressReg = (value & 0x3FFF) | (v.access.addressReg & (3 << 14))
		v.access.codeReg = ((value >> 14) & 3) | (v.access.codeReg & 0x3C)
	}

	switch (v.access.codeReg >> 1) & 7 {
	case 0:
		v.access.selectedBuffer = vdpAccessVRAM
	case 1, 4:
		v.access.selectedBuffer = vdpAccessCRAM
	case 2:
		v.access.selectedBuffer = vdpAccessVSRAM
	default:
		v.access.selectedBuffer = vdpAccessInvalid
	}

	if v.isDMAPending() && v.dma.mode != vdpDMAFill {
		v.runTransferDMA(callbacks, dmaSource)
	}
}

func (v *VDP) runTransferDMA(callbacks VideoCallbacks, dmaSource VDPDMASource) {
	v.clearDMAPending()

	for {
		if v.dma.mode == vdpDMAMemoryToVRAM {
			var word uint16
			if dmaSource != nil {
				word = dmaSource((uint32(v.dma.sourceHigh) << 17) | (uint32(v.dma.sourceLow) << 1))
			}
			v.writeAndIncrement(word, callbacks)
		} else {
			v.writeVRAM(v.access.addressReg^1, v.vram[v.dma.sourceLow^1])
			v.access.addressReg += v.access.increment
		}

		v.dma.sourceLow++
		v.dma.sourceLow &= 0xFFFF

		v.dma.length--
		v.dma.length &= 0xFFFF
		if v.dma.length == 0 {
			break
		}
	}
}

func (v *VDP) writeRegister(reg, data uint16) {
	v.access.codeReg = 0

	switch reg {
	case 0:
		v.hIntEnabled = data&(1<<4) != 0

	case 1:
		v.displayEnabled = data&(1<<6) != 0
		v.vIntEnabled = data&(1<<5) != 0
		v.dma.enabled = data&(1<<4) != 0
		v.v30Enabled = data&(1<<3) != 0

	case 2:
		v.planeAAddress = (data & 0x38) << 10

	case 3:
		v.windowAddress = (data & 0x3E) << 10

	case 4:
		v.planeBAddress = (data & 7) << 13

	case 5:
		v.spriteTableAddress = (data & 0x7F) << 9
		// Real hardware does not invalidate the sprite row cache here.

	case 7:
		v.backgroundColour = uint8(data & 0x3F)

	case 10:
		v.hIntInterval = uint8(data)

	case 11:
		if data&4 != 0 {
			v.vscrollMode = vdpVScroll2Cell
		} else {
			v.vscrollMode = vdpVScrollFull
		}

		switch data & 3 {
		case 0:
			v.hscrollMode = vdpHScrollFull
		case 1:
			warnUnrecognised(v.logger, "H-scroll mode", uint32(data&3))
		case 2:
			v.hscrollMode = vdpHScroll1Cell
		case 3:
			v.hscrollMode = vdpHScroll1Line
		}

	case 12:
		v.h40Enabled = data&((1<<7)|1) != 0
		v.shadowHighlightEnabled = data&(1<<3) != 0
		v.doubleResolutionEnabled = (data>>1)&3 == 3

	case 13:
		v.hscrollAddress = (data & 0x3F) << 10

	case 15:
		v.access.increment = data

	case 16:
		widthIndex := data & 3
		heightIndex := (data >> 4) & 3

		if (widthIndex == 3 && heightIndex != 0) || (heightIndex == 3 && widthIndex != 0) {
			warnUnrecognised(v.logger, "VDP plane size combination", uint32(data))
			break
		}

		switch widthIndex {
		case 0:
			v.planeWidth = 32
		case 1:
			v.planeWidth = 64
		case 2:
			warnUnrecognised(v.logger, "VDP plane width", uint32(widthIndex))
		case 3:
			v.planeWidth = 128
		}

		switch heightIndex {
		case 0:
			v.planeHeight = 32
		case 1:
			v.planeHeight = 64
		case 2:
			warnUnrecognised(v.logger, "VDP plane height", uint32(heightIndex))
		case 3:
			v.planeHeight = 128
		}

	case 17:
		v.window.alignedRight = data&0x80 != 0
		v.window.horizontalBoundary = (data & 0x1F) * 2

	case 18:
		v.window.alignedBottom = data&0x80 != 0
		v.window.verticalBoundary = (data & 0x1F) * 8

	case 19:
		v.dma.length = (v.dma.length &^ 0xFF) | data

	case 20:
		v.dma.length = (v.dma.length & 0xFF) | (data << 8)

	case 21:
		v.dma.sourceLow = (v.dma.sourceLow &^ 0xFF) | data

	case 22:
		v.dma.sourceLow = (v.dma.sourceLow & 0xFF) | (data << 8)

	case 23:
		if data&0x80 != 0 {
			v.dma.sourceHigh = uint8(data & 0x3F)
			if data&0x40 != 0 {
				v.dma.mode = vdpDMACopy
			} else {
				v.dma.mode = vdpDMAFill
			}
		} else {
			v.dma.sourceHigh = uint8(data & 0x7F)
			v.dma.mode = vdpDMAMemoryToVRAM
		}

	case 30:
		character := byte(data)
		if character < 0x20 && character != 0 {
			break
		}

		v.kdebugBuffer[v.kdebugBufferIndex] = character
		v.kdebugBufferIndex++

		if character == 0 || v.kdebugBufferIndex == len(v.kdebugBuffer)-1 {
			end := v.kdebugBufferIndex
			if character == 0 {
				end--
			}
			v.kdebugBufferIndex = 0
			if v.debug != nil {
				v.debug.KDebug(string(v.kdebugBuffer[:end]))
			}
		}

	case 6, 8, 9, 14:
		// Unused legacy registers.

	default:
		warnUnrecognised(v.logger, "VDP register", uint32(reg))
	}
}
