// bus_main.go - the main CPU's address decode (§4.2). Grounded on
// original_source/bus-main-m68k.c; addresses are word addresses, with
// the hardware's byte-enable pins expressed as the highByte/lowByte
// flags (both set means a full word access).

package lockstep

// cartridgeBoundary is the word address the cartridge/CD region ends
// at (§8 "Boundary behaviours": flips by boot_from_cd XOR, though the
// region split itself - which side serves 0x000000..0x400000 - is the
// front-end's CartridgeCallbacks vs CD-side PRG-RAM/Word-RAM routing).
const cartridgeBoundary = 0x400000 / 2

// SetBootFromCD selects whether the cartridge region is served by the
// front-end's cartridge callbacks or by the CD side's BIOS/PRG-RAM/
// word-RAM (§4.2 address decode table).
func (m *Machine) SetBootFromCD(v bool) { m.bootFromCD = v }

// ReadMain services a main-CPU read (§4.2).
func (m *Machine) ReadMain(address uint32, highByte, lowByte bool) uint16 {
	switch {
	case address < cartridgeBoundary:
		return m.readCartridgeOrCDRegion(address)

	case address >= 0x500000/2 && address < 0x501000/2:
		return m.readSecondaryRAMWindow(address, highByte, lowByte)

	case address >= 0x502000/2 && address < 0x502004/2:
		return m.readFMPort(address, highByte, lowByte)

	case address >= 0x508000/2 && address < 0x508010/2:
		return uint16(m.readController(address))

	case address == 0x508800/2:
		return m.readSecondaryBusRequest()

	case address == 0x508880/2:
		return m.readSecondaryReset()

	case address >= 0x509000/2 && address < 0x509020/2:
		return m.readCDSharedRegister(address)

	case address >= 0x600000/2 && address < 0x600004/2:
		return m.readVDPDataOrControl(address)

	case address == 0x600004/2 || address == 0x600006/2:
		return m.readHVCounter()

	case address >= 0x600008/2 && address < 0x60000C/2:
		warnOpenBus(m.logger, "PSG port read freezes the CPU on real hardware")
		return 0

	case address >= 0x700000/2 && address < 0x800000/2:
		return uint16(m.mainWorkRAM[(address*2)%mainWorkRAMSize])<<8 | uint16(m.mainWorkRAM[(address*2+1)%mainWorkRAMSize])

	default:
		warnOpenBus(m.logger, "main-CPU read from unmapped address")
		return 0
	}
}

// WriteMain services a main-CPU write (§4.2).
func (m *Machine) WriteMain(address uint32, highByte, lowByte bool, value uint16) {
	switch {
	case address < cartridgeBoundary:
		m.writeCartridgeOrCDRegion(address, value)

	case address >= 0x500000/2 && address < 0x501000/2:
		m.writeSecondaryRAMWindow(address, highByte, lowByte, value)

	case address >= 0x502000/2 && address < 0x502004/2:
		m.writeFMPort(address, highByte, lowByte, value)

	case address >= 0x508000/2 && address < 0x508010/2:
		m.writeController(address, uint8(value))

	case address == 0x508800/2:
		m.writeSecondaryBusRequest(value)

	case address == 0x508880/2:
		m.writeSecondaryReset(value)

	case address >= 0x509000/2 && address < 0x509020/2:
		m.writeCDSharedRegister(address, value)

	case address >= 0x600000/2 && address < 0x600004/2:
		m.writeVDPDataOrControl(address, value)

	case address >= 0x600008/2 && address < 0x60000C/2:
		m.writePSGPort(value)

	case address >= 0x700000/2 && address < 0x800000/2:
		offset := (address * 2) % mainWorkRAMSize
		if highByte {
			m.mainWorkRAM[offset] = byte(value >> 8)
		}
		if lowByte {
			m.mainWorkRAM[offset+1] = byte(value)
		}

	default:
		warnOpenBus(m.logger, "main-CPU write to unmapped address")
	}
}

func (m *Machine) readCartridgeOrCDRegion(address uint32) uint16 {
	if !m.bootFromCD && m.callbacks.Cartridge != nil {
		byteAddress := address * 2
		hi := uint16(m.callbacks.Cartridge.CartridgeRead(byteAddress))
		lo := uint16(m.callbacks.Cartridge.CartridgeRead(byteAddress + 1))
		return hi<<8 | lo
	}

	// CD-side BIOS/PRG-RAM/Word-RAM routing for the bottom 4MB window
	// selected by bits 20..16 of the byte address.
	byteAddress := address * 2
	region := (byteAddress >> 17) & 0xF

	switch {
	case region < 8: // PRG-RAM bank window
		offset := (uint32(m.ownership.prgRAMBank)<<17 | (byteAddress & 0x1FFFF)) % prgRAMSize
		return uint16(m.prgRAM[offset])<<8 | uint16(m.prgRAM[offset+1])
	default:
		if m.ownership.wordRAMOwnedBySub {
			warnOpenBus(m.logger, "main-CPU read of word-RAM while sub-CPU owns it")
		}
		offset := byteAddress % wordRAMSize
		return uint16(m.wordRAM[offset])<<8 | uint16(m.wordRAM[offset+1])
	}
}

func (m *Machine) writeCartridgeOrCDRegion(address uint32, value uint16) {
	if !m.bootFromCD {
		if m.callbacks.Cartridge != nil {
			byteAddress := address * 2
			m.callbacks.Cartridge.CartridgeWritten(byteAddress, byte(value>>8))
			m.callbacks.Cartridge.CartridgeWritten(byteAddress+1, byte(value))
		}
		return
	}

	byteAddress := address * 2
	region := (byteAddress >> 17) & 0xF

	switch {
	case region < 8:
		offset := (uint32(m.ownership.prgRAMBank)<<17 | (byteAddress & 0x1FFFF)) % prgRAMSize
		m.prgRAM[offset] = byte(value >> 8)
		m.prgRAM[offset+1] = byte(value)
	default:
		if m.ownership.wordRAMOwnedBySub {
			warnOpenBus(m.logger, "main-CPU write to word-RAM while sub-CPU owns it")
			return
		}
		offset := byteAddress % wordRAMSize
		m.wordRAM[offset] = byte(value >> 8)
		m.wordRAM[offset+1] = byte(value)
	}
}

func (m *Machine) secondaryRAMAccessible() bool {
	return !m.ownership.secondaryResetHeld && m.ownership.secondaryBusRequested
}

func (m *Machine) readSecondaryRAMWindow(address uint32, highByte, lowByte bool) uint16 {
	if highByte && lowByte {
		warnOpenBus(m.logger, "word-size access to secondary-CPU RAM window")
		return 0
	}
	if !m.secondaryRAMAccessible() {
		warnOpenBus(m.logger, "secondary-CPU RAM accessed without bus grant")
		return 0
	}

	m.syncSecondaryCPU(m.mainCycle)
	return uint16(m.secondaryWorkRAM[(address*2)%secondaryWorkRAMSize])
}

func (m *Machine) writeSecondaryRAMWindow(address uint32, highByte, lowByte bool, value uint16) {
	if highByte && lowByte {
		warnOpenBus(m.logger, "word-size access to secondary-CPU RAM window")
		return
	}
	if !m.secondaryRAMAccessible() {
		warnOpenBus(m.logger, "secondary-CPU RAM accessed without bus grant")
		return
	}

	m.syncSecondaryCPU(m.mainCycle)
	m.secondaryWorkRAM[(address*2)%secondaryWorkRAMSize] = byte(value)
}

func (m *Machine) readFMPort(address uint32, highByte, lowByte bool) uint16 {
	if highByte && lowByte {
		warnOpenBus(m.logger, "word-size access to FM ports")
		return 0
	}
	if !m.secondaryRAMAccessible() {
		warnOpenBus(m.logger, "FM ports accessed without bus grant")
		return 0
	}
	return 0
}

func (m *Machine) writeFMPort(address uint32, highByte, lowByte bool, value uint16) {
	if highByte && lowByte {
		warnOpenBus(m.logger, "word-size access to FM ports")
		return
	}
	if !m.secondaryRAMAccessible() {
		warnOpenBus(m.logger, "FM ports accessed without bus grant")
		return
	}

	m.syncFM(m.mainCycle)

	port := (address * 2) % 4 / 2
	isData := lowByte

	if isData {
		m.fm.WriteData(m.logger, uint32(value))
	} else {
		m.fm.WriteAddress(port, uint32(value))
	}
}

// controllerPortAndOffset splits a word address in the 0x508000-0x508010
// region into which of the three 8-byte-strided I/O ports it targets and
// the byte offset (0 = data, 2 = control) within that port.
func controllerPortAndOffset(address uint32) (port int, offset uint32) {
	byteAddress := address * 2
	return int(byteAddress/8) % 3, byteAddress % 8
}

func (m *Machine) readController(address uint32) uint8 {
	port, offset := controllerPortAndOffset(address)

	switch offset {
	case 0:
		return m.ioPorts[port].ReadData(m.mainCycle)
	case 2:
		return m.ioPorts[port].ReadControl()
	}
	return 0
}

func (m *Machine) writeController(address uint32, value uint8) {
	port, offset := controllerPortAndOffset(address)

	switch offset {
	case 0:
		m.ioPorts[port].WriteData(value, m.mainCycle)
	case 2:
		m.ioPorts[port].WriteControl(value)
	}
}

func (m *Machine) readSecondaryBusRequest() uint16 {
	result := uint16(0)
	if !m.ownership.secondaryBusRequested {
		result = 0x0100
	}
	if m.ownership.secondaryResetHeld {
		result |= 0x0100
	}
	return result
}

func (m *Machine) writeSecondaryBusRequest(value uint16) {
	requested := value&0x0100 != 0

	if requested != m.ownership.secondaryBusRequested {
		m.syncSecondaryCPU(m.mainCycle)
		m.ownership.secondaryBusRequested = requested
	}
}

func (m *Machine) readSecondaryReset() uint16 {
	if m.ownership.secondaryResetHeld {
		return 0
	}
	return 0x0100
}

func (m *Machine) writeSecondaryReset(value uint16) {
	held := value&0x0100 == 0

	if held != m.ownership.secondaryResetHeld {
		m.syncSecondaryCPU(m.mainCycle)
		m.ownership.secondaryResetHeld = held

		if !held {
			m.secondaryCPU.Reset()
			m.fm = NewFMChip()
		}
	}
}

func (m *Machine) readCDSharedRegister(address uint32) uint16 {
	index := (address - 0x509000/2)
	switch index {
	case 0:
		return uint16(m.cdInterruptMask)
	case 1:
		return uint16(m.ownership.prgRAMBank) << 6
	case 2:
		return m.wordRAMModeRegister()
	case 3:
		return m.cdCommFlag
	default:
		if index >= 4 && index < 12 {
			return m.cdCommand[index-4]
		}
		if index >= 12 && index < 20 {
			return m.cdStatus[index-12]
		}
	}
	warnUnrecognised(m.logger, "CD shared register", index)
	return 0
}

func (m *Machine) writeCDSharedRegister(address uint32, value uint16) {
	index := address - 0x509000/2
	switch index {
	case 0:
		m.cdInterruptMask = uint8(value)
	case 1:
		m.ownership.prgRAMBank = uint8((value >> 6) & 7)
	case 2:
		m.writeWordRAMMode(value)
	case 3:
		m.cdCommFlag = (m.cdCommFlag &^ 0xFF00) | (value & 0xFF00)
	default:
		if index >= 4 && index < 12 {
			m.cdCommand[index-4] = value
			return
		}
		warnUnrecognised(m.logger, "CD shared register write", index)
	}
}

func (m *Machine) wordRAMModeRegister() uint16 {
	var v uint16
	if m.ownership.wordRAMIn1MMode {
		v |= 1 << 2
	}
	if m.ownership.wordRAMOwnedBySub {
		v |= 1 << 1
	}
	if m.ownership.wordRAMReturnFlag {
		v |= 1
	}
	return v
}

func (m *Machine) writeWordRAMMode(value uint16) {
	if !m.ownership.wordRAMIn1MMode && value&(1<<1) != 0 {
		// Setting "return ownership" in 2M mode transfers word-RAM to
		// the sub-CPU and clears ret (§4.2).
		m.ownership.wordRAMOwnedBySub = true
		m.ownership.wordRAMReturnFlag = false
	}
}

func (m *Machine) readVDPDataOrControl(address uint32) uint16 {
	if address%2 == 0 {
		return m.vdp.ReadData()
	}
	return m.vdp.ReadControl()
}

func (m *Machine) writeVDPDataOrControl(address uint32, value uint16) {
	if address%2 == 0 {
		m.vdp.WriteData(value, m.callbacks.Video)
	} else {
		m.vdp.WriteControl(value, m.callbacks.Video, m.vdpDMASource)
	}
}

// vdpDMASource implements VDPDMASource for Memory-to-VRAM DMA: the
// transfer reads from the main CPU's own address space through an
// ordinary ReadMain call. Each read returns the word at the requested
// address; no previous-word latch is modelled for DMA reads.
func (m *Machine) vdpDMASource(address uint32) uint16 {
	return m.ReadMain(address/2, true, true)
}

func (m *Machine) readHVCounter() uint16 {
	// A real HV counter tracks beam position; no pixel clock drives this
	// core and no beam position is modelled, so the counter always
	// reads 0.
	return 0
}

func (m *Machine) writePSGPort(value uint16) {
	m.syncSecondaryCPU(m.mainCycle)
	m.syncPSG(m.mainCycle)
	m.psg.DoCommand(uint32(value & 0xFF))
}
