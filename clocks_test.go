package lockstep

import (
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// MDToMCD/MCDToMD approximate inverses of one another: round-tripping
// loses at most a couple of subcycles to fixed-point rounding, never
// drifts unboundedly (§8 P3 "cycle conversion round-trip").
func TestCycleConversionRoundTrips(t *testing.T) {
	for _, standard := range []TVStandard{NTSC, PAL} {
		standard := standard
		rapid.Check(t, func(rt *rapid.T) {
			original := CycleMD(rapid.Uint32Range(0, 0x0FFFFFFF).Draw(rt, "cycle"))

			mcd := MDToMCD(standard, original)
			back := MCDToMD(standard, mcd)

			const tolerance = CycleMD(8)
			diff := int64(original) - int64(back)
			if diff < 0 {
				diff = -diff
			}
			require.LessOrEqual(rt, diff, int64(tolerance))
		})
	}
}

// The conversion is monotonic: a larger input cycle never converts to
// a smaller output.
func TestCycleConversionMonotonic(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		a := rapid.Uint32Range(0, 0x0FFFFFFF).Draw(rt, "a")
		b := rapid.Uint32Range(0, 0x0FFFFFFF).Draw(rt, "b")
		if a > b {
			a, b = b, a
		}

		require.LessOrEqual(t, MDToMCD(NTSC, CycleMD(a)), MDToMCD(NTSC, CycleMD(b)))
	})
}

func TestCycleConversionZero(t *testing.T) {
	require.Equal(t, CycleMCD(0), MDToMCD(NTSC, 0))
	require.Equal(t, CycleMD(0), MCDToMD(NTSC, 0))
}
