// fm_chip.go - the YM2612-style FM synthesizer chip: two-step register
// write protocol, per-channel panning, and the DAC sample substitution
// on channel 6 (§4.5). Grounded on original_source/fm.c and fm.h.

package lockstep

// fmVolumeDivider mirrors fm.c's VOLUME_DIVIDER: there are 6 FM
// channels plus the PSG sharing headroom, and dividing by a power of
// two is cheaper than the mathematically "correct" divide-by-7.
const fmVolumeDivider = 8

// fmKeyOnChannelTable remaps the 3-bit channel select nibble in a
// key-on write onto the chip's 6 channels; slots 3 and 7 don't exist
// and alias channel 0, matching fm.c's behaviour exactly (including
// its unresolved TODO about that aliasing).
var fmKeyOnChannelTable = [8]int{0, 1, 2, 0, 3, 4, 5, 0}

type fmChannelMetadata struct {
	panLeft, panRight   bool
	cachedUpperFreqBits uint32
}

// FMChip is the six-channel FM synthesizer addressed through a pair of
// latched address/data ports, as wired at bus addresses 0x4000-0x4003
// (§4.2).
type FMChip struct {
	constant *FMOperatorConstant
	channels [6]*FMChannel
	metadata [6]fmChannelMetadata

	port    uint32
	address uint32

	dacSample  int32
	dacEnabled bool
}

// NewFMChip constructs a chip with its channels powered on and panning
// enabled, matching FM_State_Initialise's note that Sonic 1's title
// chant depends on panning defaulting to on.
func NewFMChip() *FMChip {
	chip := &FMChip{constant: NewFMOperatorConstant()}
	for i := range chip.channels {
		chip.channels[i] = NewFMChannel(chip.constant)
		chip.metadata[i] = fmChannelMetadata{panLeft: true, panRight: true}
	}
	return chip
}

// WriteAddress latches the address for a subsequent WriteData, per the
// two-step register protocol. Port 0 is registers $A0-class channels
// 0-2, port 1 is channels 3-5.
func (chip *FMChip) WriteAddress(port, address uint32) {
	chip.port = port * 3
	chip.address = address
}

// WriteData dispatches a latched address/data pair to the appropriate
// global, per-channel, or per-operator register (§4.5 register map).
func (chip *FMChip) WriteData(logger Logger, data uint32) {
	if chip.address < 0x30 {
		if chip.port == 0 {
			chip.writeGlobalRegister(logger, data)
		}
		return
	}

	channelIndex := chip.address & 3
	if channelIndex == 3 {
		// There is no fourth channel per port slot.
		return
	}

	channel := chip.channels[chip.port+channelIndex]
	meta := &chip.metadata[chip.port+channelIndex]

	if chip.address < 0xA0 {
		chip.writeOperatorRegister(logger, channel, data)
	} else {
		chip.writeChannelRegister(logger, channel, meta, data)
	}
}

func (chip *FMChip) writeGlobalRegister(logger Logger, data uint32) {
	switch chip.address {
	case 0x22, 0x24, 0x25, 0x26, 0x27:
		// Timer/LFO registers; not modelled (§1 Non-goals).

	case 0x28:
		slot := fmKeyOnChannelTable[data&7]
		channel := chip.channels[slot]
		channel.Operator(0).SetKeyOn(data&(1<<4) != 0)
		channel.Operator(2).SetKeyOn(data&(1<<5) != 0)
		channel.Operator(1).SetKeyOn(data&(1<<6) != 0)
		channel.Operator(3).SetKeyOn(data&(1<<7) != 0)

	case 0x2A:
		chip.dacSample = (int32(data) - 0x80) * (0x100 / fmVolumeDivider)

	case 0x2B:
		chip.dacEnabled = data&0x80 != 0

	default:
		warnUnrecognised(logger, "FM address", chip.address)
	}
}

func (chip *FMChip) writeOperatorRegister(logger Logger, channel *FMChannel, data uint32) {
	operatorIndex := int((chip.address >> 2) & 3)
	op := channel.Operator(operatorIndex)

	switch chip.address / 0x10 {
	case 0x30 / 0x10:
		op.SetDetuneAndMultiplier((data>>4)&7, data&0xF)
	case 0x40 / 0x10:
		op.SetTotalLevel(data & 0x7F)
	case 0x50 / 0x10:
		op.SetKeyScaleAndAttackRate((data>>6)&3, data&0x1F)
	case 0x60 / 0x10:
		op.SetDecayRate(data & 0x1F)
	case 0x70 / 0x10:
		op.SetSustainRate(data & 0x1F)
	case 0x80 / 0x10:
		op.SetSustainLevelAndReleaseRate((data>>4)&0xF, data&0xF)
	case 0x90 / 0x10:
		// SSG-EG; not modelled (§1 Non-goals).
	default:
		warnUnrecognised(logger, "FM address", chip.address)
	}
}

func (chip *FMChip) writeChannelRegister(logger Logger, channel *FMChannel, meta *fmChannelMetadata, data uint32) {
	switch chip.address / 4 {
	case 0xA8 / 4, 0xAC / 4:
		// Special/CSM-mode per-operator frequencies; not modelled.

	case 0xA0 / 4:
		channel.SetFrequency(data | (meta.cachedUpperFreqBits << 8))

	case 0xA4 / 4:
		meta.cachedUpperFreqBits = data & 0x3F

	case 0xB0 / 4:
		channel.SetFeedback((data >> 3) & 7)
		channel.SetAlgorithm(data & 7)

	case 0xB4 / 4:
		meta.panLeft = data&0x80 != 0
		meta.panRight = data&0x40 != 0

	default:
		warnUnrecognised(logger, "FM address", chip.address)
	}
}

// Update advances every channel's oscillators by the given number of
// frames and adds the result, stereo-panned, into buf (which the
// caller has already sized to frames*2 and is expected to accumulate
// into rather than overwrite, matching fm.c's Update).
func (chip *FMChip) Update(buf []int16, frames uint32) {
	for i, channel := range chip.channels {
		meta := chip.metadata[i]
		dac := i == 5 && chip.dacEnabled

		for frame := uint32(0); frame < frames; frame++ {
			var sample int32
			if dac {
				sample = chip.dacSample
			} else {
				sample = channel.Process() / fmVolumeDivider
			}

			if meta.panLeft {
				buf[frame*2] = clampSample16(int32(buf[frame*2]) + sample)
			}
			if meta.panRight {
				buf[frame*2+1] = clampSample16(int32(buf[frame*2+1]) + sample)
			}
		}
	}
}

func clampSample16(v int32) int16 {
	if v > 0x7FFF {
		return 0x7FFF
	}
	if v < -0x8000 {
		return -0x8000
	}
	return int16(v)
}
