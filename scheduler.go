// scheduler.go - lazy multi-clock catch-up. A device only advances when
// a bus access observes it, so the system does no per-cycle scheduling
// work (§4.1).

package lockstep

// PassiveSync is the clock state for a device with no instruction
// stream of its own (FM, PSG, PCM, I/O ports): just a native-cycle
// counter.
type PassiveSync struct {
	CurrentCycle uint32
}

// SyncPassive advances sync to targetCycle/divisor and returns the
// number of native ticks elapsed. It is a precondition that
// targetCycle/divisor >= sync.CurrentCycle; violating it is a
// programming error (§7) and panics.
func SyncPassive(sync *PassiveSync, targetCycle uint32, divisor uint32) uint32 {
	nativeTarget := targetCycle / divisor

	if nativeTarget < sync.CurrentCycle {
		panic("lockstep: sync_passive called with target cycle behind current cycle")
	}

	delta := nativeTarget - sync.CurrentCycle
	sync.CurrentCycle = nativeTarget
	return delta
}

// CPUStepFunc runs one instruction (or trap) and returns the subcycle
// count until the next one. It stands in for the external CPU
// collaborator's do_cycle contract (§4.1, design note "CPU stepping
// contract").
type CPUStepFunc func() uint32

// CPUSync is the clock state for an active CPU: a native-cycle counter
// plus the remembered countdown to the end of the in-flight
// instruction, so partial instructions survive across catch-ups.
type CPUSync struct {
	CurrentCycle    uint32
	CycleCountdown  uint32
}

// SyncCPU advances a CPU to targetCycle (already expressed in the CPU's
// own divisor-scaled domain) using the per-instruction countdown
// remembered in sync. While CurrentCycle < targetCycle it subtracts
// min(countdown, targetCycle-CurrentCycle) from both; when the
// countdown reaches zero it calls step to learn the next instruction's
// length.
func SyncCPU(sync *CPUSync, targetCycle uint32, step CPUStepFunc) {
	if targetCycle < sync.CurrentCycle {
		panic("lockstep: sync_cpu called with target cycle behind current cycle")
	}

	countdown := sync.CycleCountdown

	for sync.CurrentCycle < targetCycle {
		if countdown == 0 {
			countdown = step()
		}

		cyclesToDo := targetCycle - sync.CurrentCycle
		if countdown < cyclesToDo {
			cyclesToDo = countdown
		}

		sync.CurrentCycle += cyclesToDo
		countdown -= cyclesToDo
	}

	sync.CycleCountdown = countdown
}

// DefaultInstructionSubcycles is the fixed per-instruction cost used
// when an external CPU collaborator does not report its own timing
// (§1 Non-goals, §9 open question: "a real implementation should
// replace this with the decoder's reported cycle count per instruction").
const DefaultInstructionSubcycles = 10
