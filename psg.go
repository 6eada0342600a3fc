// psg.go - the SN76489-style programmable sound generator: three tone
// channels, one noise channel, and a 16-entry volume table (§4.6).
// Grounded on original_source/psg.c and psg.h.

package lockstep

import "math"

// PSGVolumeTable holds the 16-entry, 2dB-per-step attenuation table
// shared by every channel: index 0 is loudest, 0xF is silent.
type PSGVolumeTable struct {
	levels [0x10][2]int32 // [attenuation][output bit] -> signed amplitude
}

// NewPSGVolumeTable builds the table once; every PSG chip shares it.
func NewPSGVolumeTable() *PSGVolumeTable {
	t := &PSGVolumeTable{}
	for i := 0; i < 0xF; i++ {
		volume := int32((float64(0x7FFF) / 4.0) * math.Pow(10.0, -2.0*float64(i)/20.0))
		t.levels[i][0] = volume
		t.levels[i][1] = -volume
	}
	// The lowest volume is silence, not a tiny nonzero amplitude.
	t.levels[0xF][0] = 0
	t.levels[0xF][1] = 0
	return t
}

type psgTone struct {
	countdown       uint32
	countdownMaster uint32
	attenuation     uint32
	outputBit       int
}

type psgNoise struct {
	countdown       uint32
	attenuation     uint32
	fakeOutputBit   int
	realOutputBit   int
	frequencyMode   uint32
	whiteNoiseMode  bool
	shiftRegister   uint32
}

// PSG is the programmable sound generator addressed as a single
// write-only command port (main bus 0x600008-0x60000C range, secondary
// CPU bus 0x7F11).
type PSG struct {
	volumes *PSGVolumeTable

	tones [3]psgTone
	noise psgNoise

	latchedChannel       uint32
	latchedIsVolumeCommand bool
}

// NewPSG constructs a chip with every channel silenced, matching
// PSG_Init's startup attenuation of 0xF.
func NewPSG(volumes *PSGVolumeTable) *PSG {
	psg := &PSG{volumes: volumes}
	for i := range psg.tones {
		psg.tones[i].attenuation = 0xF
	}
	psg.noise.attenuation = 0xF
	return psg
}

// DoCommand processes one byte written to the command port. Bit 7
// marks a latch byte that also selects the channel and command kind;
// non-latch bytes continue the previously latched command with their
// upper frequency bits.
func (psg *PSG) DoCommand(command uint32) {
	latch := command&0x80 != 0

	if latch {
		psg.latchedChannel = (command >> 5) & 3
		psg.latchedIsVolumeCommand = command&0x10 != 0
	}

	if psg.latchedChannel < 3 {
		tone := &psg.tones[psg.latchedChannel]

		if psg.latchedIsVolumeCommand {
			tone.attenuation = command & 0xF
		} else if latch {
			tone.countdownMaster = (tone.countdownMaster &^ 0xF) | (command & 0xF)
		} else {
			tone.countdownMaster = (tone.countdownMaster & 0xF) | ((command & 0x3F) << 4)
		}
		return
	}

	if psg.latchedIsVolumeCommand {
		psg.noise.attenuation = command & 0xF
		return
	}

	psg.noise.whiteNoiseMode = command&4 != 0
	psg.noise.frequencyMode = command & 3
	// Writing the noise register resets the shift register to all
	// zeroes except the bottom bit, giving periodic noise its 1/16 duty
	// cycle and shaping white noise too.
	psg.noise.shiftRegister = 1
}

// Update generates total samples worth of mono PSG output, added
// (not overwritten) into buf.
func (psg *PSG) Update(buf []int16, totalSamples uint32) {
	for i := range psg.tones {
		tone := &psg.tones[i]

		for j := uint32(0); j < totalSamples; j++ {
			if tone.countdown == 0 {
				tone.countdown = tone.countdownMaster
				tone.outputBit = 1 - tone.outputBit
			} else {
				tone.countdown--
			}

			buf[j] = clampSample16(int32(buf[j]) + psg.volumes.levels[tone.attenuation][tone.outputBit])
		}
	}

	noise := &psg.noise
	for j := uint32(0); j < totalSamples; j++ {
		if noise.countdown == 0 {
			switch noise.frequencyMode {
			case 0:
				noise.countdown = 0x10
			case 1:
				noise.countdown = 0x20
			case 2:
				noise.countdown = 0x40
			case 3:
				noise.countdown = psg.tones[2].countdownMaster
			}

			noise.fakeOutputBit = 1 - noise.fakeOutputBit

			if noise.fakeOutputBit != 0 {
				// The shift register rotates on every low-to-high edge;
				// the bit rotated off the top is what's audible. White
				// noise additionally XORs it with bit 13 after rotation.
				noise.realOutputBit = int((noise.shiftRegister & 0x8000) >> 15)

				noise.shiftRegister <<= 1
				noise.shiftRegister |= uint32(noise.realOutputBit)
				noise.shiftRegister &= 0xFFFF

				if noise.whiteNoiseMode {
					noise.shiftRegister ^= (noise.shiftRegister & 0x2000) >> 13
				}
			}
		} else {
			noise.countdown--
		}

		buf[j] = clampSample16(int32(buf[j]) + psg.volumes.levels[noise.attenuation][noise.realOutputBit])
	}
}
