// cpu_contract.go - the external CPU collaborators. Per §1/§9, the
// instruction decoders themselves are out of scope; the core only needs
// a do_cycle-shaped step function and reset/interrupt signalling. CPU
// cores stay stateless with respect to scheduling - the countdown lives
// in CPUSync, owned by the bus that drives that CPU.

package lockstep

// CPUCore is the contract a CPU instruction decoder must satisfy to be
// driven by this core's scheduler. DoCycle executes one instruction (or
// services a pending interrupt/trap) and returns the subcycle count
// until the next one. It takes no bus argument: the core passes no bus
// to the decoder, so any memory access is the implementation's own
// affair. Callers that have no
// real decoder wired up can satisfy this with a stub returning
// DefaultInstructionSubcycles (§1 Non-goals).
type CPUCore interface {
	DoCycle() uint32
	Reset()
	Interrupt(level int)
}

// BIOSTrapCPU is the extra surface the sub-CPU's BIOS-call traps need
// (§4.3): the program counter, to recognise the two trap addresses,
// and the data registers: D0 for the command and result, D1 for the
// calls that take a second argument or return a second result.
// A CPUCore that doesn't implement this (e.g. StubCPUCore) simply
// never triggers a trap.
type BIOSTrapCPU interface {
	CPUCore
	ProgramCounter() uint32
	DataRegister(index int) uint32
	SetDataRegister(index int, value uint32)
}

// StubCPUCore is a CPUCore that models every instruction as a fixed
// DefaultInstructionSubcycles-length block, per the Non-goals in §1.
// Front-ends that don't have a real 68000/Z80 decoder wired up can use
// this to exercise the bus/scheduler fabric on its own.
type StubCPUCore struct {
	pendingInterrupt int
}

func (s *StubCPUCore) DoCycle() uint32 {
	s.pendingInterrupt = 0
	return DefaultInstructionSubcycles
}

func (s *StubCPUCore) Reset() { s.pendingInterrupt = 0 }

func (s *StubCPUCore) Interrupt(level int) { s.pendingInterrupt = level }
