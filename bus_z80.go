// bus_z80.go - the secondary 8-bit CPU's address decode (§4.4).
// Grounded on original_source/bus-z80.c.

package lockstep

// ReadZ80 services a secondary-CPU read.
func (m *Machine) ReadZ80(address uint32) uint8 {
	switch {
	case address < 0x2000:
		return m.secondaryWorkRAM[address]

	case address >= 0x4000 && address <= 0x4003:
		m.syncFM(m.mainCycle)
		return 0

	case address == 0x6000 || address == 0x6001:
		return 0

	case address == 0x7F11:
		return 0

	case address >= 0x8000:
		return m.readZ80MainBusWindow(address)

	default:
		warnOpenBus(m.logger, "secondary-CPU read from unmapped address")
		return 0
	}
}

// WriteZ80 services a secondary-CPU write.
func (m *Machine) WriteZ80(address uint32, value uint8) {
	switch {
	case address < 0x2000:
		m.secondaryWorkRAM[address] = value

	case address >= 0x4000 && address <= 0x4003:
		m.syncFM(m.mainCycle)
		port := uint32(0)
		if address&2 != 0 {
			port = 1
		}
		if address&1 == 0 {
			m.fm.WriteAddress(port, uint32(value))
		} else {
			m.fm.WriteData(m.logger, uint32(value))
		}

	case address == 0x6000 || address == 0x6001:
		m.secondaryBusBank >>= 1
		if value&1 != 0 {
			m.secondaryBusBank |= 0x100
		}

	case address == 0x7F11:
		m.syncSecondaryCPU(m.mainCycle)
		m.WriteMain(0xC00010/2, false, true, uint16(value))

	case address >= 0x8000:
		m.writeZ80MainBusWindow(address, value)

	default:
		warnOpenBus(m.logger, "secondary-CPU write to unmapped address")
	}
}

// readZ80MainBusWindow services the secondary CPU's 32KiB window onto
// the main bus (§4.4): each access catches the secondary CPU up to the
// main CPU's current cycle (the main CPU itself is not caught up), then
// dispatches as a single byte read/write at bank*0x8000 + offset.
func (m *Machine) readZ80MainBusWindow(address uint32) uint8 {
	mainByteAddress := m.secondaryBusBank*0x8000 + (address & 0x7FFE)

	m.syncSecondaryCPU(m.mainCycle)

	if address&1 != 0 {
		return uint8(m.ReadMain(mainByteAddress/2, false, true))
	}
	return uint8(m.ReadMain(mainByteAddress/2, true, false) >> 8)
}

func (m *Machine) writeZ80MainBusWindow(address uint32, value uint8) {
	mainByteAddress := m.secondaryBusBank*0x8000 + (address & 0x7FFE)

	m.syncSecondaryCPU(m.mainCycle)

	if address&1 != 0 {
		m.WriteMain(mainByteAddress/2, false, true, uint16(value))
	} else {
		m.WriteMain(mainByteAddress/2, true, false, uint16(value)<<8)
	}
}
