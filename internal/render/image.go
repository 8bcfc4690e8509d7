package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/pspoerri/metatiler/internal/encode"
)

// Image is an RGBA raster.
type Image struct {
	rgba    *image.RGBA
	painted bool
}

var _ Raster = (*Image)(nil)

// NewImage returns a transparent width x height image backed by pooled memory.
func NewImage(width, height int) *Image {
	return &Image{rgba: GetRGBA(width, height)}
}

// RGBA exposes the pixel buffer to engines.
func (im *Image) RGBA() *image.RGBA { return im.rgba }

func (im *Image) Width() int  { return im.rgba.Rect.Dx() }
func (im *Image) Height() int { return im.rgba.Rect.Dy() }

// SetPainted is called by engines once they have drawn any content.
func (im *Image) SetPainted(p bool) { im.painted = p }

func (im *Image) Painted() bool { return im.painted }

func (im *Image) View(rect image.Rectangle) View {
	return &imageView{img: im, rect: rect.Intersect(im.rgba.Rect)}
}

// Release returns the pixel buffer to the pool.
func (im *Image) Release() {
	PutRGBA(im.rgba)
	im.rgba = nil
}

type imageView struct {
	img  *Image
	rect image.Rectangle
}

func (v *imageView) Bounds() image.Rectangle { return v.rect }

func (v *imageView) IsSolid() (bool, uint32, error) {
	if v.rect.Empty() {
		return false, 0, fmt.Errorf("solidity probe on empty region %v", v.rect)
	}
	return detectUniform(v.img.rgba, v.rect)
}

func (v *imageView) Encode(f encode.Format, _ encode.GridOptions) ([]byte, error) {
	if f.IsGrid() {
		return nil, fmt.Errorf("cannot encode image region as %q", f.Token)
	}
	enc, err := encode.NewEncoder(f)
	if err != nil {
		return nil, err
	}
	// Copy into an origin-anchored buffer; not every encoder honors
	// sub-image bounds.
	tile := GetRGBA(v.rect.Dx(), v.rect.Dy())
	defer PutRGBA(tile)
	draw.Draw(tile, tile.Rect, v.img.rgba, v.rect.Min, draw.Src)
	return enc.Encode(tile)
}

// detectUniform checks whether every pixel of img inside rect shares the same
// RGBA value. The scan walks rows of the Pix slice and short-circuits on the
// first mismatch, so non-uniform regions bail out almost immediately.
func detectUniform(img *image.RGBA, rect image.Rectangle) (bool, uint32, error) {
	first := img.PixOffset(rect.Min.X, rect.Min.Y)
	pix := img.Pix
	r, g, b, a := pix[first], pix[first+1], pix[first+2], pix[first+3]
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		row := pix[img.PixOffset(rect.Min.X, y) : img.PixOffset(rect.Max.X-1, y)+4]
		for i := 0; i < len(row); i += 4 {
			if row[i] != r || row[i+1] != g || row[i+2] != b || row[i+3] != a {
				return false, 0, nil
			}
		}
	}
	return true, PackRGBA(color.RGBA{R: r, G: g, B: b, A: a}), nil
}
