package lockstep

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFMChipPowerOnPanningEnabled(t *testing.T) {
	chip := NewFMChip()
	for _, meta := range chip.metadata {
		require.True(t, meta.panLeft)
		require.True(t, meta.panRight)
	}
}

// The key-on channel-select nibble remaps onto the real 6 channels,
// with slots 3 and 7 aliasing channel 0 exactly as the hardware does.
func TestFMKeyOnChannelAliasing(t *testing.T) {
	require.Equal(t, [8]int{0, 1, 2, 0, 3, 4, 5, 0}, fmKeyOnChannelTable)
}

func TestFMChipDACSampleScaling(t *testing.T) {
	chip := NewFMChip()
	chip.WriteAddress(0, 0x2A)
	chip.WriteData(discardLogger{}, 0x80) // mid-point -> zero offset

	require.Equal(t, int32(0), chip.dacSample)
}

func TestFMChipDACEnableFlag(t *testing.T) {
	chip := NewFMChip()
	chip.WriteAddress(0, 0x2B)
	chip.WriteData(discardLogger{}, 0x80)
	require.True(t, chip.dacEnabled)

	chip.WriteData(discardLogger{}, 0x00)
	require.False(t, chip.dacEnabled)
}

// Writing $B4 sets the channel's pan flags straight from bits 7/6.
func TestFMChipPanRegister(t *testing.T) {
	chip := NewFMChip()
	chip.WriteAddress(0, 0xB4)
	chip.WriteData(discardLogger{}, 0x40) // right only

	require.False(t, chip.metadata[0].panLeft)
	require.True(t, chip.metadata[0].panRight)
}

// Port 1 addresses channels 3-5; the two ports must never collide.
func TestFMChipPortsAddressDistinctChannels(t *testing.T) {
	chip := NewFMChip()

	chip.WriteAddress(0, 0xB4)
	chip.WriteData(discardLogger{}, 0x00) // mute channel 0

	chip.WriteAddress(1, 0xB4)
	chip.WriteData(discardLogger{}, 0xC0) // full pan on channel 3

	require.False(t, chip.metadata[0].panLeft)
	require.True(t, chip.metadata[3].panLeft)
	require.True(t, chip.metadata[3].panRight)
}

func TestFMChipFrequencyLowThenHighBits(t *testing.T) {
	chip := NewFMChip()

	chip.WriteAddress(0, 0xA4)
	chip.WriteData(discardLogger{}, 0x3F) // latch upper 6 bits

	chip.WriteAddress(0, 0xA0)
	chip.WriteData(discardLogger{}, 0xFF) // low 8 bits

	for _, op := range chip.channels[0].operators {
		require.Equal(t, uint32(0x3FFF), op.blockFNum)
	}
}

func TestFMChipUpdateWithDACWritesConstantSample(t *testing.T) {
	chip := NewFMChip()
	chip.WriteAddress(0, 0x2A)
	chip.WriteData(discardLogger{}, 0xC0) // positive offset
	chip.WriteAddress(0, 0x2B)
	chip.WriteData(discardLogger{}, 0x80) // DAC enabled

	buf := make([]int16, 4)
	chip.Update(buf, 2)

	require.NotEqual(t, int16(0), buf[0])
}
