package lockstep

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPCMPowerOnAllChannelsDisabled(t *testing.T) {
	pcm := NewPCM()
	for i := range pcm.channels {
		require.True(t, pcm.channels[i].disabled)
	}
}

func TestPCMRegisterSelectSwitchesChannel(t *testing.T) {
	pcm := NewPCM()

	pcm.WriteRegister(7, 0x40|3) // select channel 3, no change to sounding
	pcm.WriteRegister(0, 0x55)   // volume goes to channel 3

	require.Equal(t, uint32(0x55), pcm.channels[3].volume)
	require.Equal(t, uint32(0), pcm.channels[0].volume)
}

func TestPCMWaveBankSelectGatesWaveRAMWrites(t *testing.T) {
	pcm := NewPCM()
	pcm.WriteRegister(7, 2) // bit 6 clear -> selects wave bank 2

	pcm.WriteWaveRAM(0x10, 0xAB)

	require.Equal(t, byte(0xAB), pcm.waveRAM[(uint32(2)<<12)+0x10])
}

func TestPCMDisableMaskReadback(t *testing.T) {
	pcm := NewPCM()
	pcm.WriteRegister(8, 0b0000_0101) // disable channels 0 and 2

	require.True(t, pcm.channels[0].disabled)
	require.False(t, pcm.channels[1].disabled)
	require.True(t, pcm.channels[2].disabled)
	require.Equal(t, uint32(0b0000_0101), pcm.ReadRegister(0x08))
}

// A 0xFF byte in wave RAM is a loop terminator: the cursor must jump
// to loop_address rather than play the 0xFF byte as sample data.
func TestPCMLoopTerminatorRestartsCursor(t *testing.T) {
	pcm := NewPCM()
	pcm.channels[0].disabled = false
	pcm.sounding = true
	pcm.channels[0].frequency = 0x800
	pcm.channels[0].loopAddress = 0x10
	pcm.channels[0].address = 0
	pcm.waveRAM[(0x800)>>11] = 0xFF
	pcm.waveRAM[(uint32(0x10)<<11)>>11] = 0x42

	value := pcm.updateAddressAndFetchSample(&pcm.channels[0])

	require.Equal(t, byte(0x42), value)
	require.Equal(t, uint32(0x10)<<11, pcm.channels[0].address)
}

func TestPCMUnsignedToSignedSignBit(t *testing.T) {
	require.Equal(t, int32(0), unsignedToSigned(0x200))
	require.Equal(t, int32(-0x200), unsignedToSigned(0))
	require.Equal(t, int32(0x1FF), unsignedToSigned(0x3FF))
}

func TestPCMUpdateSilentWhenNotSounding(t *testing.T) {
	pcm := NewPCM()
	buf := make([]int16, 8)
	pcm.Update(buf, 4)

	for _, s := range buf {
		require.Equal(t, int16(0), s)
	}
}
