// bus_sub.go - the CD expansion's sub-CPU address decode and BIOS-call
// traps (§4.3). Grounded on original_source/bus-sub-m68k.c.

package lockstep

const (
	subBIOSBRAMTrapAddress = 0x5F16
	subBIOSCDTrapAddress   = 0x5F22
	rtsOpcode              = 0x4E75
)

// ReadSub services a sub-CPU read.
func (m *Machine) ReadSub(address uint32, highByte, lowByte bool) uint16 {
	switch {
	case address < 0x40000:
		if trap, handled := m.tryBIOSTrap(address); handled {
			return trap
		}
		offset := address * 2 % prgRAMSize
		return uint16(m.prgRAM[offset])<<8 | uint16(m.prgRAM[offset+1])

	case address < 0x60000:
		if m.ownership.wordRAMIn1MMode {
			warnOpenBus(m.logger, "sub-CPU read of the wrong half of 1M word-RAM")
			return 0
		}
		if !m.ownership.wordRAMOwnedBySub {
			warnOpenBus(m.logger, "sub-CPU read of word-RAM while main-CPU owns it")
			return 0
		}
		offset := (address - 0x40000) * 2
		return uint16(m.wordRAM[offset])<<8 | uint16(m.wordRAM[offset+1])

	case address < 0x70000:
		if !m.ownership.wordRAMIn1MMode {
			warnOpenBus(m.logger, "sub-CPU read of the 2M-mode-only word-RAM range")
			return 0
		}
		half := uint32(0)
		if !m.ownership.wordRAMReturnFlag {
			half = 1
		}
		index := (address-0x60000)*2 + half
		return uint16(m.wordRAM[index%wordRAMSize])

	case address >= 0xFF0000 && address < 0xFF1000:
		m.syncPCM(m.mainCycle)
		return uint16(m.pcm.ReadRegister(address & 0xFFF))

	case address >= 0xFF1000 && address < 0xFF2000:
		warnOpenBus(m.logger, "sub-CPU read of PCM wave RAM")
		return 0

	case address == 0xFF8002/2:
		return m.wordRAMModeRegister()

	case address == 0xFF8004/2:
		return 0x4000

	case address == 0xFF800E/2:
		return m.cdCommFlag

	case address >= 0xFF8010/2 && address < 0xFF8020/2:
		return m.cdCommand[address-0xFF8010/2]

	case address >= 0xFF8020/2 && address < 0xFF8030/2:
		return m.cdStatus[address-0xFF8020/2]

	case address == 0xFF8032/2:
		return uint16(m.cdInterruptMask) << 1

	default:
		warnOpenBus(m.logger, "sub-CPU read from unmapped or stubbed address")
		return 0
	}
}

// WriteSub services a sub-CPU write.
func (m *Machine) WriteSub(address uint32, highByte, lowByte bool, value uint16) {
	switch {
	case address < 0x40000:
		offset := address * 2 % prgRAMSize
		if highByte {
			m.prgRAM[offset] = byte(value >> 8)
		}
		if lowByte {
			m.prgRAM[offset+1] = byte(value)
		}

	case address < 0x60000:
		if m.ownership.wordRAMIn1MMode {
			warnOpenBus(m.logger, "sub-CPU write to the wrong half of 1M word-RAM")
			return
		}
		if !m.ownership.wordRAMOwnedBySub {
			warnOpenBus(m.logger, "sub-CPU write to word-RAM while main-CPU owns it")
			return
		}
		offset := (address - 0x40000) * 2
		if highByte {
			m.wordRAM[offset] = byte(value >> 8)
		}
		if lowByte {
			m.wordRAM[offset+1] = byte(value)
		}

	case address < 0x70000:
		if !m.ownership.wordRAMIn1MMode {
			warnOpenBus(m.logger, "sub-CPU write to the 2M-mode-only word-RAM range")
			return
		}
		half := uint32(0)
		if !m.ownership.wordRAMReturnFlag {
			half = 1
		}
		index := (address-0x60000)*2 + half
		if lowByte {
			m.wordRAM[index%wordRAMSize] = byte(value)
		}

	case address >= 0xFF0000 && address < 0xFF1000:
		if !lowByte {
			return
		}
		m.syncPCM(m.mainCycle)
		m.pcm.WriteRegister(address&0xFFF, uint32(value))

	case address >= 0xFF1000 && address < 0xFF2000:
		if !lowByte {
			return
		}
		m.syncPCM(m.mainCycle)
		m.pcm.WriteWaveRAM(address&0xFFF, byte(value))

	case address == 0xFF8002/2:
		if !lowByte {
			return
		}
		ret := value&1 != 0
		m.ownership.wordRAMIn1MMode = value&(1<<2) != 0

		if ret || m.ownership.wordRAMIn1MMode {
			m.ownership.wordRAMOwnedBySub = false
			m.ownership.wordRAMReturnFlag = ret
		}

	case address == 0xFF800E/2:
		if lowByte {
			m.cdCommFlag = (m.cdCommFlag &^ 0x00FF) | (value & 0x00FF)
		}

	case address >= 0xFF8020/2 && address < 0xFF8030/2:
		index := address - 0xFF8020/2
		if highByte {
			m.cdStatus[index] = (m.cdStatus[index] &^ 0xFF00) | (value & 0xFF00)
		}
		if lowByte {
			m.cdStatus[index] = (m.cdStatus[index] &^ 0x00FF) | (value & 0x00FF)
		}

	case address == 0xFF8032/2:
		if lowByte {
			m.cdInterruptMask = uint8((value >> 1) & 0x7F)
		}

	default:
		warnOpenBus(m.logger, "sub-CPU write to unmapped or stubbed address")
	}
}

// tryBIOSTrap recognises the two BIOS-call trap addresses and, when
// the sub-CPU satisfies BIOSTrapCPU and its program counter matches,
// dispatches the trapped call and returns the injected RTS opcode
// (§4.3).
func (m *Machine) tryBIOSTrap(address uint32) (uint16, bool) {
	cpu, ok := m.subCPU.(BIOSTrapCPU)
	if !ok {
		return 0, false
	}

	switch {
	case address == subBIOSBRAMTrapAddress/2 && cpu.ProgramCounter() == subBIOSBRAMTrapAddress:
		m.dispatchBRAMCall(cpu)
		return rtsOpcode, true

	case address == subBIOSCDTrapAddress/2 && cpu.ProgramCounter() == subBIOSCDTrapAddress:
		m.dispatchCDDriverCall(cpu)
		return rtsOpcode, true
	}

	return 0, false
}

// dispatchBRAMCall stubs the backup-RAM BIOS routines: no backup RAM
// device is modelled. BRMINIT reports a formatted device and BRMSTAT an
// empty one; the other calls write no result, since no carry flag is
// modelled on the abstracted CPU.
func (m *Machine) dispatchBRAMCall(cpu BIOSTrapCPU) {
	const statusCarry = 1

	command := cpu.DataRegister(0) & 0xFFFF

	switch command {
	case 0x00: // BRMINIT
		cpu.SetDataRegister(0, (cpu.DataRegister(0)&0xFFFF0000)|0x100)
	case 0x01: // BRMSTAT
		cpu.SetDataRegister(0, cpu.DataRegister(0)&0xFFFF0000)
		cpu.SetDataRegister(1, cpu.DataRegister(1)&0xFFFF0000)
	case 0x02, 0x04, 0x07: // BRMSERCH, BRMWRITE, BRMDIR: no result written
	case 0x03, 0x05, 0x06, 0x08: // BRMREAD, BRMDEL, BRMFORMAT, BRMVERIFY: no result written
	default:
		warnUnrecognised(m.logger, "BRAM BIOS call", command)
	}
}

// dispatchCDDriverCall implements the CD driver BIOS routines, using
// the CDCallbacks and the CDC staging buffer (SPEC_FULL supplement 3).
func (m *Machine) dispatchCDDriverCall(cpu BIOSTrapCPU) {
	command := cpu.DataRegister(0) & 0xFFFF

	switch command {
	case 0x20: // ROMREADN
		startingSector := cpu.DataRegister(1)
		if m.callbacks.CD != nil {
			m.callbacks.CD.CDSeeked(startingSector)
		}
		m.cdc.currentSector = startingSector

	case 0x8A: // CDCSTAT
		// Always report a sector ready; no carry-flag surface exists on
		// our abstracted CPUCore so there is nothing further to do.

	case 0x8B: // CDCREAD
		if m.callbacks.CD != nil {
			m.cdc.data = m.callbacks.CD.CDSectorRead()
			m.cdc.readCursor = 0
		}
		cpu.SetDataRegister(0, cdSectorHeader(m.cdc.currentSector))

	case 0x8C: // CDCTRN
		m.cdc.currentSector++
		// The destination address is the caller's own affair (address
		// registers aren't modelled); the staged sector is exposed via
		// DrainCDCSector for a front-end or test to copy out.

	case 0x8D: // CDCACK

	default:
		warnUnrecognised(m.logger, "CD driver BIOS call", command)
	}
}

// cdSectorHeader packs a BCD-encoded MSF header, matching
// GetCDSectorHeader's frames/seconds/minutes layout.
func cdSectorHeader(sector uint32) uint32 {
	toBCD := func(v uint32) uint32 {
		return ((v / 10) % 10 << 4) | (v % 10)
	}

	frames := toBCD(sector % 75)
	seconds := toBCD((sector / 75) % 60)
	minutes := toBCD(sector / (75 * 60))

	return 0x01 | (frames << 8) | (seconds << 16) | (minutes << 24)
}

// DrainCDCSector copies the most recently staged 2048-byte sector into
// dst (word-RAM or wherever the caller's address registers point),
// matching CDCTRN's word-by-word transfer loop.
func (m *Machine) DrainCDCSector(dst []byte) {
	n := copy(dst, m.cdc.data[:])
	m.cdc.readCursor = n
}
