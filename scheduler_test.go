package lockstep

import (
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// SyncPassive never runs a device backwards, and the delta it reports
// always accounts for exactly the elapsed native ticks (§8 P1).
func TestSyncPassiveMonotonic(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		divisor := uint32(rapid.IntRange(1, 64).Draw(rt, "divisor"))
		steps := rapid.IntRange(1, 32).Draw(rt, "steps")

		var sync PassiveSync
		var cycle uint32
		var totalDelta uint32

		for i := 0; i < steps; i++ {
			cycle += uint32(rapid.IntRange(0, 1000).Draw(rt, "advance"))
			before := sync.CurrentCycle
			delta := SyncPassive(&sync, cycle, divisor)

			require.GreaterOrEqual(rt, sync.CurrentCycle, before)
			require.Equal(rt, cycle/divisor, sync.CurrentCycle)
			totalDelta += delta
		}

		require.Equal(rt, cycle/divisor, totalDelta)
	})
}

func TestSyncPassivePanicsOnBackwardsTarget(t *testing.T) {
	var sync PassiveSync
	SyncPassive(&sync, 100, 1)

	require.Panics(t, func() {
		SyncPassive(&sync, 0, 1)
	})
}

// SyncCPU calls step exactly as many times as needed to cover the
// requested span, and never leaves CurrentCycle short of the target
// (§8 P2, and the scheduler's own "never silently skips the first
// instruction" invariant).
func TestSyncCPUCoversTarget(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		target := uint32(rapid.IntRange(0, 10000).Draw(rt, "target"))
		instructionLength := uint32(rapid.IntRange(1, 20).Draw(rt, "length"))

		var sync CPUSync
		stepCount := 0
		SyncCPU(&sync, target, func() uint32 {
			stepCount++
			return instructionLength
		})

		require.Equal(rt, target, sync.CurrentCycle)
		if target > 0 {
			require.Greater(rt, stepCount, 0)
		}
	})
}

// A zero-value CPUSync (as a freshly constructed Machine has) must
// still invoke step on its very first catch-up instead of silently
// jumping CurrentCycle to the target.
func TestSyncCPUStepsFromPowerOn(t *testing.T) {
	var sync CPUSync
	called := false

	SyncCPU(&sync, 50, func() uint32 {
		called = true
		return 10
	})

	require.True(t, called)
	require.Equal(t, uint32(50), sync.CurrentCycle)
}

// A partially consumed instruction survives across separate SyncCPU
// calls instead of resetting every catch-up.
func TestSyncCPUCarriesCountdownAcrossCalls(t *testing.T) {
	var sync CPUSync
	calls := 0
	step := func() uint32 {
		calls++
		return 10
	}

	SyncCPU(&sync, 5, step)
	require.Equal(t, 1, calls)
	require.Equal(t, uint32(5), sync.CycleCountdown)

	SyncCPU(&sync, 12, step)
	require.Equal(t, 2, calls)
	require.Equal(t, uint32(8), sync.CycleCountdown)
}

func TestSyncCPUPanicsOnBackwardsTarget(t *testing.T) {
	var sync CPUSync
	SyncCPU(&sync, 10, func() uint32 { return 5 })

	require.Panics(t, func() {
		SyncCPU(&sync, 0, func() uint32 { return 5 })
	})
}
