package lockstep

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPSGPowerOnSilence(t *testing.T) {
	psg := NewPSG(NewPSGVolumeTable())

	for _, tone := range psg.tones {
		require.Equal(t, uint32(0xF), tone.attenuation)
	}
	require.Equal(t, uint32(0xF), psg.noise.attenuation)
}

func TestPSGVolumeTableSilenceAtMaxAttenuation(t *testing.T) {
	table := NewPSGVolumeTable()
	require.Equal(t, int32(0), table.levels[0xF][0])
	require.Equal(t, int32(0), table.levels[0xF][1])
	require.NotZero(t, table.levels[0][0])
}

func TestPSGVolumeTableMonotonicallyQuieter(t *testing.T) {
	table := NewPSGVolumeTable()
	for i := 0; i < 0xE; i++ {
		require.GreaterOrEqual(t, table.levels[i][0], table.levels[i+1][0])
	}
}

// A latch byte selecting channel 1's volume, followed by the volume
// nibble, sets that channel's attenuation and nothing else's.
func TestPSGDoCommandLatchesToneVolume(t *testing.T) {
	psg := NewPSG(NewPSGVolumeTable())

	psg.DoCommand(0b1_01_1_0101) // latch, channel 1, volume command, value 5
	require.Equal(t, uint32(5), psg.tones[1].attenuation)
	require.Equal(t, uint32(0xF), psg.tones[0].attenuation)
}

// A tone frequency latch followed by a data byte assembles the full
// 10-bit countdown from the low 4 bits (latch) and high 6 bits (data).
func TestPSGDoCommandAssemblesToneFrequency(t *testing.T) {
	psg := NewPSG(NewPSGVolumeTable())

	psg.DoCommand(0b1_00_0_0101) // latch, channel 0, tone command, low nibble 0x5
	psg.DoCommand(0b0_111111)    // data byte, high 6 bits all set

	require.Equal(t, uint32(0x3F5), psg.tones[0].countdownMaster)
}

// Writing the noise register resets the shift register so periodic
// noise restarts cleanly (§8 scenario 6 "PSG LFSR reset").
func TestPSGNoiseRegisterWriteResetsShiftRegister(t *testing.T) {
	psg := NewPSG(NewPSGVolumeTable())
	psg.noise.shiftRegister = 0xBEEF

	psg.DoCommand(0b1_11_0_0110) // latch, noise register, white noise, freq mode 2

	require.Equal(t, uint32(1), psg.noise.shiftRegister)
	require.True(t, psg.noise.whiteNoiseMode)
	require.Equal(t, uint32(2), psg.noise.frequencyMode)
}

func TestPSGUpdateProducesToneOutput(t *testing.T) {
	psg := NewPSG(NewPSGVolumeTable())
	psg.DoCommand(0b1_00_0_0001) // channel 0 tone, low nibble 1
	psg.DoCommand(0b0_000000)    // high bits 0 -> short period
	psg.DoCommand(0b1_00_1_0000) // channel 0 volume, loudest

	buf := make([]int16, 64)
	psg.Update(buf, 64)

	nonZero := false
	for _, s := range buf {
		if s != 0 {
			nonZero = true
			break
		}
	}
	require.True(t, nonZero)
}
