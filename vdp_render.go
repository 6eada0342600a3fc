// vdp_render.go - the VDP's per-scanline rendering pipeline: background
// planes, window plane, sprite cache rebuild, sprite compositing, and
// final shadow/highlight blit (§4.8 "Scanline rendering"). Grounded on
// original_source/vdp.c's VDP_RenderScanline.

package lockstep

const (
	maxSpriteWidth          = 8 * 4
	metapixelBufferPad      = 16
	metapixelBufferTrailing = metapixelBufferPad - 1
)

func divideCeiling(a, b uint16) uint16 {
	return (a + b - 1) / b
}

func (v *VDP) getCachedSprite(index uint16) cachedSprite {
	bytes := &v.spriteTableCache[index]
	return cachedSprite{
		y:      (uint16(bytes[0]&3) << 8) | uint16(bytes[1]),
		width:  ((bytes[2] >> 2) & 3) + 1,
		height: (bytes[2] & 3) + 1,
		link:   bytes[3] & 0x7F,
	}
}

// rebuildSpriteRowCache walks the sprite link-list once and records,
// for every on-screen scanline, which sprites touch it - so rendering
// a scanline never has to scan the whole sprite table.
func (v *VDP) rebuildSpriteRowCache() {
	maxSprites := uint16(64)
	if v.h40Enabled {
		maxSprites = 80
	}

	v.spriteRowCacheDirty = false

	for i := range v.spriteRowCacheRows {
		v.spriteRowCacheRows[i].total = 0
	}

	tileHeightPower := uint16(3)
	if v.doubleResolutionEnabled {
		tileHeightPower = 4
	}

	rowLimit := uint8(16)
	if v.h40Enabled {
		rowLimit = 20
	}

	spritesRemaining := maxSprites
	spriteIndex := uint16(0)

	for {
		sprite := v.getCachedSprite(spriteIndex)
		blankLines := uint16(128)
		if v.doubleResolutionEnabled {
			blankLines = 256
		}

		visibleLines := uint16(28) << tileHeightPower
		if v.v30Enabled {
			visibleLines = 30 << tileHeightPower
		}

		start := sprite.y
		if blankLines > start {
			start = blankLines
		}
		end := sprite.y + (uint16(sprite.height) << tileHeightPower)
		limit := blankLines + visibleLines
		if limit < end {
			end = limit
		}

		for i := start; i < end; i++ {
			row := &v.spriteRowCacheRows[i-blankLines]
			if row.total != rowLimit {
				row.sprites[row.total] = vdpSpriteRowCacheEntry{
					tableIndex: uint8(spriteIndex),
					width:      sprite.width,
					height:     sprite.height,
					yInSprite:  uint8(i - sprite.y),
				}
				row.total++
			}
		}

		if uint16(sprite.link) >= maxSprites {
			break
		}
		spriteIndex = uint16(sprite.link)

		spritesRemaining--
		if spriteIndex == 0 || spritesRemaining == 0 {
			break
		}
	}
}

// renderTile decodes one plane-map tile entry and composites its 8
// pixels into the metapixel buffer via the precomputed blit table.
func (v *VDP) renderTile(pixelYInPlane, tileX, tileY, planeAddress, tileHeightMask, tileSize uint16, dst []byte, dstOffset int) int {
	tile := decomposeTileMetadata(v.ReadVRAMWord(planeAddress + (tileY*v.planeWidth+tileX)*2))

	pixelYInTile := pixelYInPlane & tileHeightMask
	if tile.yFlip {
		pixelYInTile ^= tileHeightMask
	}

	tileDataOffset := (uint32(tile.tileIndex)*uint32(tileSize) + uint32(pixelYInTile)*4) % vdpVRAMSize

	byteIndexXOR := byte(0)
	if tile.xFlip {
		byteIndexXOR = 7
	}
	metapixelHigh := 0
	if tile.priority {
		metapixelHigh |= 1 << 2
	}
	metapixelHigh |= int(tile.paletteLine)

	lookup := &v.constant.blitLookup[metapixelHigh]

	for i := byte(0); i < 8; i++ {
		pixelXInTile := i ^ byteIndexXOR
		nibbleShift := (^pixelXInTile & 1) << 2
		paletteLineIndex := (v.vram[(tileDataOffset+uint32(pixelXInTile)/2)%vdpVRAMSize] >> nibbleShift) & 0xF

		dst[dstOffset] = lookup[dst[dstOffset]][paletteLineIndex]
		dstOffset++
	}

	return dstOffset
}

// RenderScanline renders one visible line into a post-composite
// palette-index buffer it allocates itself and delivers it through
// callbacks.ScanlineRendered (§4.8).
func (v *VDP) RenderScanline(scanline uint16, callbacks VideoCallbacks) {
	tileHeightPower := uint16(3)
	if v.doubleResolutionEnabled {
		tileHeightPower = 4
	}

	bufSize := metapixelBufferPad + int(divideCeiling(vdpMaxScanlineWidth, 8))*8 + metapixelBufferTrailing
	planeMetapixels := make([]byte, bufSize)
	for i := range planeMetapixels {
		planeMetapixels[i] = v.backgroundColour
	}

	screenWidth := uint16(32 * 8)
	if v.h40Enabled {
		screenWidth = 40 * 8
	}
	screenHeight := uint16(28) << tileHeightPower
	if v.v30Enabled {
		screenHeight = 30 << tileHeightPower
	}

	if v.displayEnabled {
		v.renderPlanes(scanline, tileHeightPower, planeMetapixels)
		v.renderWindowHorizontal(scanline, tileHeightPower, planeMetapixels)

		if v.spriteRowCacheDirty {
			v.rebuildSpriteRowCache()
		}

		spriteMetapixels := v.renderSprites(scanline)
		v.compositeSprites(planeMetapixels, spriteMetapixels)
	}

	if callbacks != nil {
		callbacks.ScanlineRendered(scanline, planeMetapixels[metapixelBufferPad:metapixelBufferPad+int(screenWidth)], screenWidth, screenHeight)
	}
}

func (v *VDP) renderPlanes(scanline, tileHeightPower uint16, planeMetapixels []byte) {
	tileHeightMask := (uint16(1) << tileHeightPower) - 1
	tileSize := (8 << tileHeightPower) / 2

	planeWidthCopy := v.planeWidth
	planeHeightCopy := v.planeHeight

	windowPlaneWidth := uint16(32)
	if v.h40Enabled {
		windowPlaneWidth = 64
	}
	const windowPlaneHeight = 32

	for i := 2; i > 0; {
		i--

		renderingWindow := i == 0 && (scanline < v.window.verticalBoundary) != v.window.alignedBottom && !v.config.DisableWindow

		if renderingWindow {
			v.planeWidth = windowPlaneWidth
			v.planeHeight = windowPlaneHeight
		} else {
			v.planeWidth = planeWidthCopy
			v.planeHeight = planeHeightCopy
		}

		disabled := (i == 0 && v.config.DisablePlaneA) || (i == 1 && v.config.DisablePlaneB)
		if !renderingWindow && disabled {
			continue
		}

		var hscroll uint16
		if renderingWindow {
			hscroll = 0
		} else {
			switch v.hscrollMode {
			case vdpHScrollFull:
				hscroll = v.ReadVRAMWord(v.hscrollAddress + uint16(i)*2)
			case vdpHScroll1Cell:
				hscroll = v.ReadVRAMWord(v.hscrollAddress + (scanline>>tileHeightPower<<tileHeightPower)*4 + uint16(i)*2)
			case vdpHScroll1Line:
				lineShift := scanline
				if v.doubleResolutionEnabled {
					lineShift >>= 1
				}
				hscroll = v.ReadVRAMWord(v.hscrollAddress + lineShift*4 + uint16(i)*2)
			}
		}

		planeWidthBitmask := v.planeWidth - 1
		planeHeightBitmask := v.planeHeight - 1

		var planeAddress uint16
		if i == 0 {
			if renderingWindow {
				planeAddress = v.windowAddress
			} else {
				planeAddress = v.planeAAddress
			}
		} else {
			planeAddress = v.planeBAddress
		}

		const extraTiles = 2
		hscrollOffset := hscroll % 16
		planeXOffset := int32(-extraTiles) - int32(hscroll-hscrollOffset)/8

		dstOffset := int(hscrollOffset)

		tileColumns := int(divideCeiling(vdpMaxScanlineWidth, 8)) + extraTiles
		for j := 0; j < tileColumns; j++ {
			var vscroll uint16
			if renderingWindow {
				vscroll = 0
			} else {
				switch v.vscrollMode {
				case vdpVScrollFull:
					vscroll = v.vsram[i]
				case vdpVScroll2Cell:
					idx := (((-extraTiles + j) / 2) * 2) + i
					vscroll = v.vsram[((idx%vdpVSRAMSize)+vdpVSRAMSize)%vdpVSRAMSize]
				}
			}

			pixelYInPlane := vscroll + scanline
			tileX := uint16(int32(planeXOffset)+int32(j)) & planeWidthBitmask
			tileY := (pixelYInPlane >> tileHeightPower) & planeHeightBitmask

			dstOffset = v.renderTile(pixelYInPlane, tileX, tileY, planeAddress, tileHeightMask, tileSize, planeMetapixels, dstOffset)
		}
	}

	v.planeWidth = planeWidthCopy
	v.planeHeight = planeHeightCopy
}

func (v *VDP) renderWindowHorizontal(scanline, tileHeightPower uint16, planeMetapixels []byte) {
	if v.config.DisableWindow {
		return
	}

	tileHeightMask := (uint16(1) << tileHeightPower) - 1
	tileSize := (8 << tileHeightPower) / 2

	tileColumns := divideCeiling(vdpMaxScanlineWidth, 8)
	start := uint16(0)
	end := v.window.horizontalBoundary
	if v.window.alignedRight {
		start = v.window.horizontalBoundary
		end = tileColumns
	}

	windowPlaneWidth := uint16(32)
	if v.h40Enabled {
		windowPlaneWidth = 64
	}

	planeWidthCopy := v.planeWidth
	planeHeightCopy := v.planeHeight
	v.planeWidth = windowPlaneWidth
	v.planeHeight = 32

	dstOffset := metapixelBufferPad + int(start)*8
	for i := start; i < end; i++ {
		dstOffset = v.renderTile(scanline, i, scanline>>tileHeightPower, v.windowAddress, tileHeightMask, tileSize, planeMetapixels, dstOffset)
	}

	v.planeWidth = planeWidthCopy
	v.planeHeight = planeHeightCopy
}

// spritePixel packs one composited sprite metapixel: byte 0 carries
// priority+palette-line, byte 1 carries the colour index within it.
type spritePixel [2]byte

func (v *VDP) renderSprites(scanline uint16) []spritePixel {
	tileHeightPower := uint16(3)
	if v.doubleResolutionEnabled {
		tileHeightPower = 4
	}
	tileHeightMask := (uint16(1) << tileHeightPower) - 1
	tileSize := (8 << tileHeightPower) / 2

	width := vdpMaxScanlineWidth + 2*(maxSpriteWidth-1)
	buf := make([]spritePixel, width)

	if v.config.DisableSprites {
		return buf
	}

	spriteLimit := uint16(16)
	pixelLimit := uint16(256)
	if v.h40Enabled {
		spriteLimit = 20
		pixelLimit = 320
	}

	onscreenWidth := uint16(32)
	if v.h40Enabled {
		onscreenWidth = 40
	}

	row := &v.spriteRowCacheRows[scanline]
	masked := false

pixelLimitReached:
	for i := uint8(0); i < row.total; i++ {
		entry := &row.sprites[i]

		spriteIndex := v.spriteTableAddress + uint16(entry.tableIndex)*8
		width := uint16(entry.width)
		height := uint16(entry.height)
		tile := decomposeTileMetadata(v.ReadVRAMWord(spriteIndex + 4))
		x := v.ReadVRAMWord(spriteIndex+6) & 0x1FF

		metapixelHigh := byte(0)
		if tile.priority {
			metapixelHigh |= 1 << 2
		}
		metapixelHigh |= byte(tile.paletteLine)

		yInSprite := uint16(entry.yInSprite)

		if x == 0 {
			masked = v.allowSpriteMasking
		} else {
			v.allowSpriteMasking = true
		}

		offscreen := x+width*8 <= 0x80 || x >= 0x80+onscreenWidth*8
		if masked || offscreen {
			if pixelLimit <= width*8 {
				break pixelLimitReached
			}
			pixelLimit -= width * 8
			if spriteLimit--; spriteLimit == 0 {
				break
			}
			continue
		}

		base := (maxSpriteWidth - 1) + int(x) - 0x80

		if tile.yFlip {
			yInSprite = (height << tileHeightPower) - yInSprite - 1
		}

		pos := base
		for j := uint16(0); j < width; j++ {
			xInSprite := j
			if tile.xFlip {
				xInSprite = width - j - 1
			}
			tileIndex := uint32(tile.tileIndex) + uint32(yInSprite>>tileHeightPower) + uint32(xInSprite)*uint32(height)
			pixelYInTile := yInSprite & tileHeightMask

			tileDataOffset := (tileIndex*uint32(tileSize) + uint32(pixelYInTile)*4) % vdpVRAMSize

			for k := byte(0); k < 8; k++ {
				pixelXInTile := k
				if tile.xFlip {
					pixelXInTile = 7 - k
				}
				nibbleShift := (^pixelXInTile & 1) << 2
				paletteLineIndex := (v.vram[(tileDataOffset+uint32(pixelXInTile)/2)%vdpVRAMSize] >> nibbleShift) & 0xF

				if pos >= 0 && pos < len(buf) && buf[pos][1] == 0 && paletteLineIndex != 0 {
					buf[pos][0] |= metapixelHigh
					buf[pos][1] |= paletteLineIndex
				}
				pos++

				if pixelLimit--; pixelLimit == 0 {
					break pixelLimitReached
				}
			}
		}

		if spriteLimit--; spriteLimit == 0 {
			break
		}
	}

	v.allowSpriteMasking = false

	return buf
}

func (v *VDP) compositeSprites(planeMetapixels []byte, spriteMetapixels []spritePixel) {
	spriteOffset := maxSpriteWidth - 1
	dst := metapixelBufferPad

	if v.shadowHighlightEnabled {
		for i := 0; i < vdpMaxScanlineWidth; i++ {
			sp := spriteMetapixels[spriteOffset]
			planeMetapixels[dst] = v.constant.blitLookupShadowHighlight[sp[0]][planeMetapixels[dst]][sp[1]]
			dst++
			spriteOffset++
		}
	} else {
		for i := 0; i < vdpMaxScanlineWidth; i++ {
			sp := spriteMetapixels[spriteOffset]
			planeMetapixels[dst] = v.constant.blitLookup[sp[0]][planeMetapixels[dst]][sp[1]] & 0x3F
			dst++
			spriteOffset++
		}
	}
}
