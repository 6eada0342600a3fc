// Package lockstep implements the co-simulation fabric for a 16-bit home
// console: two primary 16/32-bit CPUs' bus decoders, a secondary 8-bit
// CPU's bus decoder, a video display processor, a four-operator FM
// synthesiser, a square-wave/noise generator, an eight-channel sample
// mixer, and the scheduler that keeps all of them advancing in lockstep
// with the bus accesses that drive them.
//
// The package does not implement CPU instruction decoding, audio/video
// output, cartridge/CD image loading, or controller input — those are
// supplied by the embedding front-end through the interfaces in
// callbacks.go and cpu_contract.go. lockstep's job is the bus, the
// clocks, and the devices hanging off them.
package lockstep
