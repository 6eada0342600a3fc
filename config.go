// config.go - emulated-hardware configuration: region, TV timing, and
// the per-component mute/disable flags a front-end exposes to the user.

package lockstep

// Region selects the console's territory lockout / BIOS behaviour.
type Region int

const (
	Overseas Region = iota
	Domestic
)

// Configuration bundles the enumerated options from §6. It is passed by
// value at Machine construction and does not change the bus/device
// wiring at runtime. The Disable* flags control which VDP layers are
// rendered; the Mute* flags are stored but no audio generator reads
// them, so they mute nothing.
type Configuration struct {
	Region     Region     `yaml:"region"`
	TVStandard TVStandard `yaml:"tv_standard"`

	MuteFM    [6]bool `yaml:"mute_fm"`
	MuteDAC   bool    `yaml:"mute_dac"`
	MutePSGTone  [3]bool `yaml:"mute_psg_tone"`
	MutePSGNoise bool    `yaml:"mute_psg_noise"`

	DisablePlaneA  bool `yaml:"disable_plane_a"`
	DisablePlaneB  bool `yaml:"disable_plane_b"`
	DisableWindow  bool `yaml:"disable_window"`
	DisableSprites bool `yaml:"disable_sprites"`
}

// DefaultConfiguration returns the configuration real hardware powers on
// with: nothing muted or disabled, overseas region, NTSC timing.
func DefaultConfiguration() Configuration {
	return Configuration{
		Region:     Overseas,
		TVStandard: NTSC,
	}
}
