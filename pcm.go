// pcm.go - the RF5C164-style 8-channel PCM sample mixer: paged wave RAM,
// per-channel address/frequency/loop logic, and signed-magnitude stereo
// mixing (§4.7). Grounded on original_source/pcm.c and pcm.h.

package lockstep

// pcmWaveRAMSize is the full paged wave RAM: 16 banks of 4KiB each,
// addressed by a 4-bit bank register plus a 12-bit in-bank offset.
const pcmWaveRAMSize = 0x10000

type pcmChannel struct {
	disabled     bool
	volume       uint32
	panning      [2]uint32 // [left, right], 4-bit each
	frequency    uint32    // 16-bit
	loopAddress  uint32    // 16-bit
	startAddress uint32    // 8-bit
	address      uint32    // 27-bit fixed-point wave RAM cursor
}

// PCM is the 8-channel sample mixer, addressed through a shared
// register index plus a wave-RAM write port (sub-CPU bus
// 0xFF0000-0xFF2000 region).
type PCM struct {
	channels [8]pcmChannel
	waveRAM  [pcmWaveRAMSize]byte

	sounding        bool
	currentWaveBank uint32
	currentChannel  uint32
}

// NewPCM constructs a chip with every channel disabled, matching
// PCM_State_Initialise.
func NewPCM() *PCM {
	pcm := &PCM{}
	for i := range pcm.channels {
		pcm.channels[i].disabled = true
	}
	return pcm
}

// WriteRegister dispatches a write to the currently-selected channel's
// register file, or to the shared control registers 7/8.
func (pcm *PCM) WriteRegister(reg uint32, value uint32) {
	channel := &pcm.channels[pcm.currentChannel]

	switch reg {
	case 0:
		channel.volume = value
	case 1:
		channel.panning[0] = value & 0xF
		channel.panning[1] = value >> 4
	case 2:
		channel.frequency = (channel.frequency &^ 0xFF) | (value & 0xFF)
	case 3:
		channel.frequency = (channel.frequency & 0x00FF) | ((value & 0xFF) << 8)
	case 4:
		channel.loopAddress = (channel.loopAddress &^ 0xFF) | (value & 0xFF)
	case 5:
		channel.loopAddress = (channel.loopAddress & 0x00FF) | ((value & 0xFF) << 8)
	case 6:
		channel.startAddress = value & 0xFF
	case 7:
		pcm.sounding = value&0x80 != 0
		if value&0x40 != 0 {
			pcm.currentChannel = value & 7
		} else {
			pcm.currentWaveBank = value & 0xF
		}
	case 8:
		for i := range pcm.channels {
			pcm.channels[i].disabled = (value>>uint(i))&1 != 0
		}
	}
}

// ReadRegister mirrors PCM_ReadRegister, including the per-channel
// address-hi/address-lo readback used by the BIOS's PCM driver.
func (pcm *PCM) ReadRegister(reg uint32) uint32 {
	channel := &pcm.channels[pcm.currentChannel]

	switch reg {
	case 0x00:
		return channel.volume
	case 0x01:
		return channel.panning[0] | (channel.panning[1] << 4)
	case 0x02:
		return channel.frequency & 0xFF
	case 0x03:
		return (channel.frequency >> 8) & 0xFF
	case 0x04:
		return channel.loopAddress & 0xFF
	case 0x05:
		return (channel.loopAddress >> 8) & 0xFF
	case 0x06:
		return channel.startAddress
	case 0x08:
		var value uint32
		for i := range pcm.channels {
			if pcm.channels[i].disabled {
				value |= 1 << uint(i)
			}
		}
		return value
	case 0x10, 0x12, 0x14, 0x16, 0x18, 0x1A, 0x1C, 0x1E:
		return (pcm.channels[(reg-0x10)/2].address >> 11) & 0xFF
	case 0x11, 0x13, 0x15, 0x17, 0x19, 0x1B, 0x1D, 0x1F:
		return (pcm.channels[(reg-0x11)/2].address >> 19) & 0xFF
	}

	return 0
}

func (pcm *PCM) WriteWaveRAM(address uint32, value byte) {
	pcm.waveRAM[(pcm.currentWaveBank<<12)+(address&0xFFF)] = value
}

func (pcm *PCM) fetchSample(channel *pcmChannel) byte {
	return pcm.waveRAM[(channel.address>>11)&0xFFFF]
}

func (pcm *PCM) isChannelAudible(channel *pcmChannel) bool {
	return !channel.disabled && pcm.sounding
}

// updateAddressAndFetchSample advances a channel's address cursor (or
// resets it if inaudible) and returns the wave-RAM byte at the new
// position, handling the 0xFF loop-terminator byte.
func (pcm *PCM) updateAddressAndFetchSample(channel *pcmChannel) byte {
	if !pcm.isChannelAudible(channel) {
		channel.address = channel.startAddress << 19
		return pcm.fetchSample(channel)
	}

	channel.address += channel.frequency
	channel.address &= 0x7FFFFFF
	waveValue := pcm.fetchSample(channel)

	if waveValue == 0xFF {
		channel.address = channel.loopAddress << 11
		waveValue = pcm.fetchSample(channel)
	}

	return waveValue
}

// unsignedToSigned converts a 10-bit unsigned mixed sample into a
// signed one, matching PCM_UnsignedToSigned's sign-bit-at-9 convention.
func unsignedToSigned(sample uint32) int32 {
	const signBit = 1 << 9
	if sample&signBit != 0 {
		return int32(sample - signBit)
	}
	return -int32(signBit - sample)
}

// Update generates total_frames worth of stereo PCM output, added into
// buf (sized frames*2, left/right interleaved).
func (pcm *PCM) Update(buf []int16, totalFrames uint32) {
	for frame := uint32(0); frame < totalFrames; frame++ {
		mixed := [2]uint32{0x8000, 0x8000}

		for i := range pcm.channels {
			channel := &pcm.channels[i]
			sample := uint32(pcm.updateAddressAndFetchSample(channel))

			if !pcm.isChannelAudible(channel) {
				continue
			}

			absoluteSample := sample & 0x7F
			addBit := sample&0x80 != 0

			for side := 0; side < 2; side++ {
				scaled := (absoluteSample * channel.volume * channel.panning[side]) >> 5

				if addBit {
					mixed[side] += scaled
					if mixed[side] > 0xFFFF {
						mixed[side] = 0xFFFF
					}
				} else {
					next := mixed[side] - scaled
					if next > 0xFFFF {
						next = 0
					}
					mixed[side] = next
				}
			}
		}

		buf[frame*2] = clampSample16(int32(buf[frame*2]) + unsignedToSigned(mixed[0]>>6))
		buf[frame*2+1] = clampSample16(int32(buf[frame*2+1]) + unsignedToSigned(mixed[1]>>6))
	}
}
