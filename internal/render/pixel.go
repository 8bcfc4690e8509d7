package render

import "image/color"

// Packed pixel layout, matching the renderer's native 32-bit pixels read as
// a little-endian integer:
//
//	bits  0-7   red
//	bits  8-15  green
//	bits 16-23  blue
//	bits 24-31  alpha
//
// Solid-tile fingerprints are derived from this layout, so changing it
// invalidates every cached fingerprint.

// PackRGBA packs c into the 32-bit pixel layout.
func PackRGBA(c color.RGBA) uint32 {
	return uint32(c.R) | uint32(c.G)<<8 | uint32(c.B)<<16 | uint32(c.A)<<24
}

// UnpackRGBA extracts the channels of a packed pixel.
func UnpackRGBA(p uint32) color.RGBA {
	return color.RGBA{
		R: uint8(p & 0xff),
		G: uint8((p >> 8) & 0xff),
		B: uint8((p >> 16) & 0xff),
		A: uint8((p >> 24) & 0xff),
	}
}
