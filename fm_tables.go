// fm_tables.go - the FM operator's precomputed constants: a quarter-wave
// logarithmic sine/attenuation table and a power-of-two table, built
// once at startup and shared read-only across every operator (§3, §9
// design note "lookup tables as precomputed constants").

package lockstep

import "math"

// fmLogSineTableSize is the quarter-wave resolution; the other three
// quarters are produced at lookup time by mirroring/sign-flipping.
const fmLogSineTableSize = 0x100

// fmPowerTableSize holds 2^-x for x in (0,1], used to turn a
// logarithmic (decibel) attenuation back into a linear sample.
const fmPowerTableSize = 0x100

// FMOperatorConstant holds the read-only tables shared by every FM
// operator in every FM chip instance.
type FMOperatorConstant struct {
	logSine  [fmLogSineTableSize]uint16
	powerTbl [fmPowerTableSize]uint16
}

// NewFMOperatorConstant builds the two lookup tables described in
// fm_operator.c: the sine table stores base-2 logarithmic attenuation
// in 4.8 fixed point, and the power table inverts that back to a
// linear 11-bit magnitude.
func NewFMOperatorConstant() *FMOperatorConstant {
	c := &FMOperatorConstant{}

	for i := 0; i < fmLogSineTableSize; i++ {
		// Phase normalised to (0, 1), offset by half a step so 0 is
		// never an input to log().
		phaseNormalised := float64((i<<1)+1) / float64(fmLogSineTableSize<<1)
		sinResult := math.Sin(phaseNormalised * (math.Pi / 2.0))
		attenuation := -math.Log2(sinResult)
		c.logSine[i] = uint16(attenuation*256.0 + 0.5)
	}

	for i := 0; i < fmPowerTableSize; i++ {
		entryNormalised := float64(i+1) / float64(fmPowerTableSize)
		result := math.Pow(2.0, -entryNormalised)
		c.powerTbl[i] = uint16(result*2048.0 + 0.5)
	}

	return c
}

func (c *FMOperatorConstant) inversePow2(value uint32) uint32 {
	whole := value >> 8
	fraction := value & 0xFF
	return (uint32(c.powerTbl[fraction]) << 2) >> whole
}

// fmDetuneTable is the operator phase generator's detune table:
// [detune 0-3][key code 0-31] -> a phase offset, in the same units as
// one step of the 17-bit phase accumulator. Detune values 4-7 apply the
// same magnitude in the opposite direction (handled by the caller).
// This is the commonly-documented YM2612 detune table; SPEC_FULL §
// "FM per-operator key-scale/detune tables" adds it because
// fm_operator.c's phase generator is referenced but not reproduced in
// original_source/.
var fmDetuneTable = [4][32]uint32{
	{0, 0, 0, 0, 0, 0, 0, 0, 1, 1, 1, 1, 1, 1, 1, 1, 2, 2, 2, 2, 2, 2, 2, 2, 2, 3, 3, 3, 3, 3, 3, 3},
	{1, 1, 1, 1, 1, 1, 1, 1, 2, 2, 2, 2, 2, 2, 2, 2, 2, 3, 3, 3, 3, 3, 3, 3, 4, 4, 4, 4, 4, 4, 4, 5},
	{2, 2, 2, 2, 2, 2, 2, 2, 2, 3, 3, 3, 3, 3, 3, 3, 4, 4, 4, 4, 4, 4, 4, 5, 5, 5, 5, 5, 5, 5, 6, 6},
	{3, 3, 3, 3, 3, 3, 3, 3, 4, 4, 4, 4, 4, 4, 4, 5, 5, 5, 5, 5, 5, 5, 6, 6, 6, 6, 7, 7, 7, 7, 7, 7},
}

// fmMultiplier converts the 4-bit raw multiplier field into the
// operator's actual frequency multiplier in half-steps (0 means x0.5,
// everything else is 2x its value).
func fmMultiplier(raw uint32) uint32 {
	if raw == 0 {
		return 1
	}
	return raw * 2
}

// fmKeyCode derives the 5-bit "key code" used for detune lookup, from
// the channel's block and the top bits of its 11-bit F-number.
func fmKeyCode(block, fNumberTop3 uint32) uint32 {
	return (block << 2) | (fNumberTop3 >> 1)
}
