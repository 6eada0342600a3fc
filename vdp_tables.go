// vdp_tables.go - the VDP's precomputed compositing tables. Collapses
// the renderer's per-pixel priority/transparency/shadow-highlight
// if-ladder into a single lookup, built once at startup (§4.8 "Colour
// table precomputation"). Grounded on original_source/vdp.c's
// VDP_Constant_Initialise.

package lockstep

const (
	shadowHighlightNormal    = 0 << 6
	shadowHighlightShadow    = 1 << 6
	shadowHighlightHighlight = 2 << 6
)

// VDPConstant holds the two 16*256*16 compositing tables shared
// read-only by every VDP instance.
type VDPConstant struct {
	blitLookup               [16][256][16]byte
	blitLookupShadowHighlight [16][256][16]byte
}

// NewVDPConstant builds both compositing tables. Each entry answers
// "given the new pixel's top nibble (priority+palette-line), the
// existing byte in the metapixel buffer, and the new pixel's bottom
// nibble (colour index within its palette line), what byte results?"
func NewVDPConstant() *VDPConstant {
	c := &VDPConstant{}

	for newPixelHigh := 0; newPixelHigh < 16; newPixelHigh++ {
		for oldPixel := 0; oldPixel < 256; oldPixel++ {
			for newPixelLow := 0; newPixelLow < 16; newPixelLow++ {
				const paletteLineMask = 0xF
				const colourIndexMask = 0x3F
				const priorityMask = 0x40
				const notShadowedMask = 0x80

				oldPaletteLine := oldPixel & paletteLineMask
				oldColourIndex := oldPixel & colourIndexMask
				oldPriority := oldPixel&priorityMask != 0
				oldNotShadowed := oldPixel&notShadowedMask != 0

				newPixel := (newPixelHigh << 4) | newPixelLow

				newPaletteLine := newPixel & paletteLineMask
				newColourIndex := newPixel & colourIndexMask
				newPriority := newPixel&priorityMask != 0
				newNotShadowed := newPriority

				drawNew := newPaletteLine != 0 && (oldPaletteLine == 0 || !oldPriority || newPriority)

				output := oldPixel
				if drawNew {
					output = newPixel
				}
				if oldNotShadowed || newNotShadowed {
					output |= notShadowedMask
				}
				c.blitLookup[newPixelHigh][oldPixel][newPixelLow] = byte(output)

				var shOutput int
				if drawNew {
					switch {
					case newColourIndex == 0x3E:
						shOutput = oldColourIndex
						if oldNotShadowed {
							shOutput |= shadowHighlightHighlight
						} else {
							shOutput |= shadowHighlightNormal
						}
					case newColourIndex == 0x3F:
						shOutput = oldColourIndex | shadowHighlightShadow
					case newPaletteLine == 0xE:
						shOutput = newColourIndex | shadowHighlightNormal
					default:
						if newNotShadowed || oldNotShadowed {
							shOutput = newColourIndex | shadowHighlightNormal
						} else {
							shOutput = newColourIndex | shadowHighlightShadow
						}
					}
				} else {
					if oldNotShadowed {
						shOutput = oldColourIndex | shadowHighlightNormal
					} else {
						shOutput = oldColourIndex | shadowHighlightShadow
					}
				}
				c.blitLookupShadowHighlight[newPixelHigh][oldPixel][newPixelLow] = byte(shOutput)
			}
		}
	}

	return c
}

type tileMetadata struct {
	tileIndex   uint16
	paletteLine uint8
	xFlip       bool
	yFlip       bool
	priority    bool
}

func decomposeTileMetadata(packed uint16) tileMetadata {
	return tileMetadata{
		tileIndex:   packed & 0x7FF,
		paletteLine: uint8((packed >> 13) & 3),
		xFlip:       packed&0x800 != 0,
		yFlip:       packed&0x1000 != 0,
		priority:    packed&0x8000 != 0,
	}
}

type cachedSprite struct {
	y      uint16
	width  uint8
	height uint8
	link   uint8
}
