package lockstep

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// fakeSubCPU is a minimal BIOSTrapCPU for exercising the BIOS-call trap
// dispatch without a real 68000 decoder.
type fakeSubCPU struct {
	StubCPUCore
	pc   uint32
	regs [8]uint32
}

func (f *fakeSubCPU) ProgramCounter() uint32                  { return f.pc }
func (f *fakeSubCPU) DataRegister(index int) uint32           { return f.regs[index] }
func (f *fakeSubCPU) SetDataRegister(index int, value uint32) { f.regs[index] = value }

func newTestMachineWithSubCPU(sub *fakeSubCPU, callbacks Callbacks) *Machine {
	return NewMachine(DefaultConfiguration(), discardLogger{}, callbacks, NewVDPConstant(), NewPSGVolumeTable(), &StubCPUCore{}, &StubCPUCore{}, sub)
}

// Reading PRG-RAM at the BRAM BIOS trap address, with the sub-CPU's
// program counter parked there, dispatches the trapped call instead of
// reading PRG-RAM and returns the injected RTS opcode (§4.3).
func TestSubBIOSBRAMTrapInjectsRTS(t *testing.T) {
	sub := &fakeSubCPU{pc: subBIOSBRAMTrapAddress}
	sub.regs[0] = 0x00 // BRMINIT
	m := newTestMachineWithSubCPU(sub, Callbacks{})

	word := m.ReadSub(subBIOSBRAMTrapAddress/2, true, true)

	require.Equal(t, uint16(rtsOpcode), word)
	require.Equal(t, uint32(0x100), sub.regs[0]&0xFFFF)
}

// The same address, with the program counter elsewhere, reads ordinary
// PRG-RAM content instead.
func TestSubPRGRAMReadWithoutTrapAddress(t *testing.T) {
	sub := &fakeSubCPU{pc: 0} // not parked at the trap address
	m := newTestMachineWithSubCPU(sub, Callbacks{})
	m.prgRAM[subBIOSBRAMTrapAddress] = 0x12
	m.prgRAM[subBIOSBRAMTrapAddress+1] = 0x34

	word := m.ReadSub(subBIOSBRAMTrapAddress/2, true, true)

	require.Equal(t, uint16(0x1234), word)
}

type fakeCDCallbacks struct {
	seekedSector uint32
	sectorData   [2048]byte
}

func (f *fakeCDCallbacks) CDAudioRead(buf []int16, frames uint32) uint32 { return 0 }
func (f *fakeCDCallbacks) CDSectorRead() [2048]byte                      { return f.sectorData }
func (f *fakeCDCallbacks) CDSeeked(sector uint32)                        { f.seekedSector = sector }
func (f *fakeCDCallbacks) CDTrackSeeked(track uint32)                    {}

// CDCREAD stages a sector from the front-end's CDCallbacks and packs
// its BCD-MSF header into D0 (SPEC_FULL supplement 3).
func TestSubBIOSCDCREADStagesSector(t *testing.T) {
	cd := &fakeCDCallbacks{}
	cd.sectorData[0] = 0x99

	sub := &fakeSubCPU{pc: subBIOSCDTrapAddress}
	sub.regs[0] = 0x8B // CDCREAD
	m := newTestMachineWithSubCPU(sub, Callbacks{CD: cd})
	m.cdc.currentSector = 150 // 2 seconds in

	m.ReadSub(subBIOSCDTrapAddress/2, true, true)

	var drained [2048]byte
	m.DrainCDCSector(drained[:])
	require.Equal(t, byte(0x99), drained[0])
	require.NotZero(t, sub.regs[0])
}

func TestSubBIOSCDROMREADNSeeksViaCallback(t *testing.T) {
	cd := &fakeCDCallbacks{}
	sub := &fakeSubCPU{pc: subBIOSCDTrapAddress}
	sub.regs[0] = 0x20 // ROMREADN
	sub.regs[1] = 4321

	m := newTestMachineWithSubCPU(sub, Callbacks{CD: cd})
	m.ReadSub(subBIOSCDTrapAddress/2, true, true)

	require.Equal(t, uint32(4321), cd.seekedSector)
	require.Equal(t, uint32(4321), m.cdc.currentSector)
}

// A CPUCore that doesn't implement BIOSTrapCPU (the plain stub) never
// triggers a trap; it just reads PRG-RAM like any other address.
func TestSubBIOSTrapGracefullyAbsentForStubCPU(t *testing.T) {
	m := NewMachine(DefaultConfiguration(), discardLogger{}, Callbacks{}, NewVDPConstant(), NewPSGVolumeTable(), &StubCPUCore{}, &StubCPUCore{}, &StubCPUCore{})
	m.prgRAM[subBIOSBRAMTrapAddress] = 0xAB
	m.prgRAM[subBIOSBRAMTrapAddress+1] = 0xCD

	word := m.ReadSub(subBIOSBRAMTrapAddress/2, true, true)
	require.Equal(t, uint16(0xABCD), word)
}

func TestCDSectorHeaderBCDEncoding(t *testing.T) {
	// Sector 0 = 00:00:00 in BCD MSF.
	require.Equal(t, uint32(0x00000001), cdSectorHeader(0))
}
