package render

import (
	"image"
	"sync"
)

// rgbaPools holds one *sync.Pool of *image.RGBA per size (image.Point).
// A source sees few sizes: full metatiles, single tiles, and the clipped
// metatiles along the right and bottom edges.
var rgbaPools sync.Map

func rgbaPool(size image.Point) *sync.Pool {
	if p, ok := rgbaPools.Load(size); ok {
		return p.(*sync.Pool)
	}
	p, _ := rgbaPools.LoadOrStore(size, &sync.Pool{})
	return p.(*sync.Pool)
}

// GetRGBA returns a transparent w x h image anchored at the origin, reusing
// a pooled buffer when one is available.
func GetRGBA(w, h int) *image.RGBA {
	if v := rgbaPool(image.Pt(w, h)).Get(); v != nil {
		img := v.(*image.RGBA)
		clear(img.Pix)
		return img
	}
	return image.NewRGBA(image.Rect(0, 0, w, h))
}

// PutRGBA hands img back for reuse. Nil images and sub-images are dropped.
func PutRGBA(img *image.RGBA) {
	if img == nil || img.Rect.Min != (image.Point{}) {
		return
	}
	rgbaPool(img.Rect.Size()).Put(img)
}
