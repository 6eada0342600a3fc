// machine.go - the top-level container wiring the scheduler, the three
// bus decoders, and every device together: one struct owning every
// chip/bus, exposing RunMainCPUFor/Reset, the same shape a multi-chip emulator
// container takes regardless of which machine it's wiring up.

package lockstep

// Memory sizes named once so the bus decoders and Machine agree on
// them (§3 DATA MODEL).
const (
	mainWorkRAMSize      = 0x10000 // 64 KiB, word-mirrored
	secondaryWorkRAMSize = 0x2000  // 8 KiB
	prgRAMSize           = 0x80000 // 512 KiB
	wordRAMSize          = 0x40000 // 256 KiB (2M mode)
)

// cdcStagingBuffer holds the CD-ROM controller's one-sector staging
// area, filled by CDCREAD and copied out through DrainCDCSector. CDCTRN
// only advances currentSector; it does not copy the staged sector into
// word-RAM (SPEC_FULL supplement 3: "CDC sector staging").
type cdcStagingBuffer struct {
	data          [2048]byte
	readCursor    int
	currentSector uint32
}

// busOwnership is the arbitration state for resources shared between
// bus decoders (§5 "Shared resources"): flags, not locks.
type busOwnership struct {
	secondaryBusRequested bool
	secondaryResetHeld    bool

	wordRAMOwnedBySub bool // dmna
	wordRAMReturnFlag bool // ret
	wordRAMIn1MMode   bool // in_1m_mode

	prgRAMBank uint8
}

// Machine is the whole emulated system: every device, the bus
// decoders' shared state, and the scheduler's per-device sync state.
// It has no hidden global; every collaborator is a field or a
// Callbacks entry supplied at construction.
type Machine struct {
	config    Configuration
	logger    Logger
	callbacks Callbacks

	fm   *FMChip
	psg  *PSG
	pcm  *PCM
	vdp  *VDP
	ioPorts [3]IOPort

	mainCPU      CPUCore
	secondaryCPU CPUCore
	subCPU       CPUCore

	mainWorkRAM      [mainWorkRAMSize]byte
	secondaryWorkRAM [secondaryWorkRAMSize]byte
	prgRAM           [prgRAMSize]byte
	wordRAM          [wordRAMSize]byte

	bootFromCD       bool
	ownership        busOwnership
	cdc              cdcStagingBuffer
	secondaryBusBank uint32 // shift-in accumulator for the Z80's 32KiB main-bus window

	cdInterruptMask uint8
	cdCommFlag      uint16
	cdCommand       [8]uint16
	cdStatus        [8]uint16

	mainCycle        uint32 // master MD-domain cycle the main CPU has been driven to
	mainCountdown    uint32 // main CPU's remembered per-instruction countdown
	secondaryCPUSync CPUSync
	subCPUSync       CPUSync
	fmSync           PassiveSync
	psgSync          PassiveSync
	pcmSync          PassiveSync
	cddaSync         PassiveSync
	ioPortSync       [3]PassiveSync
}

// NewMachine constructs a powered-on Machine. mainCPU/secondaryCPU/subCPU
// may be StubCPUCore{} when the caller has no real decoder wired up
// (§1 Non-goals).
func NewMachine(config Configuration, logger Logger, callbacks Callbacks, constant *VDPConstant, volumes *PSGVolumeTable, mainCPU, secondaryCPU, subCPU CPUCore) *Machine {
	if logger == nil {
		logger = discardLogger{}
	}

	m := &Machine{
		config:       config,
		logger:       logger,
		callbacks:    callbacks,
		fm:           NewFMChip(),
		psg:          NewPSG(volumes),
		pcm:          NewPCM(),
		vdp:          NewVDP(constant, &config, logger, callbacks.Debug),
		mainCPU:      mainCPU,
		secondaryCPU: secondaryCPU,
		subCPU:       subCPU,
	}
	m.wireControllerPorts()
	return m
}

// wireControllerPorts gives each of the three I/O ports a read/write
// callback that forwards to the front-end's ControllerCallbacks,
// closing over its own port index.
func (m *Machine) wireControllerPorts() {
	for i := range m.ioPorts {
		port := i
		if m.callbacks.Controller == nil {
			continue
		}
		m.ioPorts[port].SetCallbacks(
			func(cycles uint32) uint8 { return m.callbacks.Controller.ControllerRead(port) },
			func(value uint8, cycles uint32) { m.callbacks.Controller.ControllerWrite(port, value) },
		)
	}
}

// Reset returns every device to its power-on state, replacing the FM,
// PSG, PCM and VDP chips with freshly constructed ones and clearing the
// bus-ownership, CDC and per-device sync state.
func (m *Machine) Reset() {
	m.mainCPU.Reset()
	m.secondaryCPU.Reset()
	m.subCPU.Reset()

	m.fm = NewFMChip()
	m.psg = NewPSG(m.psg.volumes)
	m.pcm = NewPCM()
	m.vdp = NewVDP(m.vdp.constant, m.vdp.config, m.logger, m.callbacks.Debug)

	m.ownership = busOwnership{}
	m.cdc = cdcStagingBuffer{}

	m.secondaryCPUSync = CPUSync{}
	m.subCPUSync = CPUSync{}
	m.fmSync = PassiveSync{}
	m.psgSync = PassiveSync{}
	m.pcmSync = PassiveSync{}
	m.cddaSync = PassiveSync{}
	m.ioPortSync = [3]PassiveSync{}
	m.mainCycle = 0
}

// RunMainCPUFor advances the main CPU (and, transitively through bus
// accesses, every device it touches) to targetCycle in the MD cycle
// domain.
func (m *Machine) RunMainCPUFor(targetCycle uint32) {
	sync := CPUSync{CurrentCycle: m.mainCycle / MainCPUDivisor, CycleCountdown: m.mainCycleCountdown()}
	nativeTarget := targetCycle / MainCPUDivisor

	SyncCPU(&sync, nativeTarget, func() uint32 {
		return m.mainCPU.DoCycle()
	})

	m.setMainCycleCountdown(sync.CycleCountdown)
	m.mainCycle = sync.CurrentCycle * MainCPUDivisor

	// CD-DA has no register-write trigger of its own (it plays
	// continuously once a track is selected), so it rides along with
	// every main-CPU catch-up instead of a bus access.
	m.syncCDDA(m.mainCycle)
}

// mainCycleCountdown/setMainCycleCountdown read and write the main
// CPU's countdown; CPUCore holds no countdown, so Machine keeps its own
// copy in mainCountdown.
func (m *Machine) mainCycleCountdown() uint32 {
	return m.mainCountdown
}

func (m *Machine) setMainCycleCountdown(v uint32) {
	m.mainCountdown = v
}

// syncSecondaryCPU catches the secondary 8-bit CPU up to targetCycle
// (MD domain), honouring the bus-request/reset-held gate (§4.4's
// SyncZ80Callback: a held or requested secondary CPU simply burns
// cycles without executing).
func (m *Machine) syncSecondaryCPU(targetCycle uint32) {
	nativeTarget := targetCycle / SecondaryCPUDivisor

	SyncCPU(&m.secondaryCPUSync, nativeTarget, func() uint32 {
		if m.ownership.secondaryBusRequested || m.ownership.secondaryResetHeld {
			return 1
		}
		return m.secondaryCPU.DoCycle()
	})
}

// syncSubCPU catches the CD-side main CPU up to targetCycle (MD
// domain), converting into the MCD domain per the TV-standard ratio.
func (m *Machine) syncSubCPU(targetCycle uint32) {
	targetMCD := MDToMCD(m.config.TVStandard, CycleMD(targetCycle))
	nativeTarget := uint32(targetMCD) / SubCPUDivisor

	SyncCPU(&m.subCPUSync, nativeTarget, func() uint32 {
		return m.subCPU.DoCycle()
	})
}

// syncFM catches the FM chip up to targetCycle (MD domain), emitting
// samples through the front-end's audio callback when its internal
// sample-rate divider crosses a boundary.
func (m *Machine) syncFM(targetCycle uint32) {
	delta := SyncPassive(&m.fmSync, targetCycle, FMDivisor)
	if delta == 0 || m.callbacks.Audio == nil {
		return
	}
	m.callbacks.Audio.FMAudioToBeGenerated(delta, func(buf []int16, frames uint32) {
		m.fm.Update(buf, frames)
	})
}

func (m *Machine) syncPSG(targetCycle uint32) {
	delta := SyncPassive(&m.psgSync, targetCycle, PSGDivisor)
	if delta == 0 || m.callbacks.Audio == nil {
		return
	}
	m.callbacks.Audio.PSGAudioToBeGenerated(delta, func(buf []int16, frames uint32) {
		m.psg.Update(buf, frames)
	})
}

func (m *Machine) syncPCM(targetCycle uint32) {
	targetMCD := MDToMCD(m.config.TVStandard, CycleMD(targetCycle))
	delta := SyncPassive(&m.pcmSync, uint32(targetMCD), PCMDivisor)
	if delta == 0 || m.callbacks.Audio == nil {
		return
	}
	m.callbacks.Audio.PCMAudioToBeGenerated(delta, func(buf []int16, frames uint32) {
		m.pcm.Update(buf, frames)
	})
}

// syncCDDA catches the CD-DA track-audio generator up to targetCycle,
// handing synthesis to the front-end's CDCallbacks rather than this
// core owning a disc-image reader (§6 EXTERNAL INTERFACES).
func (m *Machine) syncCDDA(targetCycle uint32) {
	targetMCD := MDToMCD(m.config.TVStandard, CycleMD(targetCycle))
	delta := SyncPassive(&m.cddaSync, uint32(targetMCD), CDDADivisor)
	if delta == 0 || m.callbacks.Audio == nil || m.callbacks.CD == nil {
		return
	}
	m.callbacks.Audio.CDDAAudioToBeGenerated(delta, func(buf []int16, frames uint32) {
		m.callbacks.CD.CDAudioRead(buf, frames)
	})
}
