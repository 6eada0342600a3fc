// clocks.go - cycle domains and the rational conversion between them.

package lockstep

// CycleMD is a subcycle count in the main console's master clock domain.
type CycleMD uint32

// CycleMCD is a subcycle count in the CD expansion's master clock domain.
type CycleMCD uint32

// Device clock divisors, relative to their bus's master clock. A
// device's native cycle is master_cycle / divisor.
const (
	MainCPUDivisor       = 7           // primary 16/32-bit CPU (68000-class)
	SecondaryCPUDivisor  = 15          // secondary 8-bit CPU (Z80-class)
	fmSampleRateDivider  = 6 * 6 * 4   // FM chip's internal sample-rate divider
	FMDivisor            = MainCPUDivisor * fmSampleRateDivider
	PSGDivisor           = SecondaryCPUDivisor * 16
	SubCPUDivisor        = 4 // CD-side primary CPU
	pcmSampleRateDivider = 384
	PCMDivisor           = SubCPUDivisor * pcmSampleRateDivider
	cddaSampleRateDivider = 1134 // CD-DA's fixed 44.1kHz sample rate, in MCD subcycles (50MHz / 1134)
	CDDADivisor           = cddaSampleRateDivider
)

// TVStandard selects the regional video timing, which in turn selects
// which of the two master-clock ratios below applies.
type TVStandard int

const (
	NTSC TVStandard = iota
	PAL
)

// Each ratio is a 32-bit fixed-point value (scale * 2^31) split into an
// upper and lower 16-bit half, so that ConvertCycle can compute the
// result using only 16-bit long multiplication — no 64-bit arithmetic,
// matching the original hardware's cycle-conversion circuit.
var (
	mdToMCDRatio = map[TVStandard][2]uint32{
		NTSC: {0x7732, 0x1ECA}, // 0x80000000 * mcdClock / mdClockNTSC
		PAL:  {0x784B, 0x02AF}, // 0x80000000 * mcdClock / mdClockPAL
	}
	mcdToMDRatio = map[TVStandard][2]uint32{
		NTSC: {0x8974, 0x5BF2}, // 0x80000000 * mdClockNTSC / mcdClock
		PAL:  {0x8833, 0x655D}, // 0x80000000 * mdClockPAL / mcdClock
	}
)

// convertCycle performs the 32-bit rational multiply c*scale/2^31 using
// only 16-bit-by-16-bit partial products, saturating at the 32-bit input
// domain. scale is one of the [upper, lower] half pairs above.
func convertCycle(cycle uint32, scale [2]uint32) uint32 {
	cycleUpper := cycle >> 16
	cycleLower := cycle & 0xFFFF

	resultUpper := cycleUpper * scale[0]
	resultLower1 := cycleUpper * scale[1]
	resultLower2 := cycleLower * scale[0]

	return (resultUpper << 1) + (resultLower1 >> 15) + (resultLower2 >> 15)
}

// MDToMCD converts a main-clock cycle count into the CD expansion's
// clock domain for the given TV standard.
func MDToMCD(standard TVStandard, cycle CycleMD) CycleMCD {
	return CycleMCD(convertCycle(uint32(cycle), mdToMCDRatio[standard]))
}

// MCDToMD converts a CD-expansion-clock cycle count into the main
// console's clock domain for the given TV standard.
func MCDToMD(standard TVStandard, cycle CycleMCD) CycleMD {
	return CycleMD(convertCycle(uint32(cycle), mcdToMDRatio[standard]))
}
