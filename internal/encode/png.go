package encode

import (
	"bytes"
	"image"
	"image/color"
	"image/color/palette"
	"image/draw"
	"image/png"
)

// PNGEncoder encodes tiles as PNG. With Paletted set the image is written as
// an 8-bit palette PNG: exact when the tile has at most 256 colors,
// otherwise quantized to the web-safe palette.
type PNGEncoder struct {
	Paletted bool
}

func (e *PNGEncoder) Encode(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	enc := &png.Encoder{CompressionLevel: png.BestSpeed}
	if e.Paletted {
		img = toPaletted(img)
	}
	err := enc.Encode(&buf, img)
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (e *PNGEncoder) Format() string        { return "png" }
func (e *PNGEncoder) FileExtension() string { return ".png" }

// toPaletted converts img to a paletted image, building an exact palette
// when the image uses few enough colors.
func toPaletted(img image.Image) *image.Paletted {
	if p, ok := img.(*image.Paletted); ok {
		return p
	}
	b := img.Bounds()
	index := make(map[color.RGBA]uint8, 16)
	pal := make(color.Palette, 0, 16)
	exact := true
scan:
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.RGBAModel.Convert(img.At(x, y)).(color.RGBA)
			if _, ok := index[c]; ok {
				continue
			}
			if len(pal) == 256 {
				exact = false
				break scan
			}
			index[c] = uint8(len(pal))
			pal = append(pal, c)
		}
	}
	if !exact {
		out := image.NewPaletted(b, palette.WebSafe)
		draw.Draw(out, b, img, b.Min, draw.Src)
		return out
	}
	out := image.NewPaletted(b, pal)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.RGBAModel.Convert(img.At(x, y)).(color.RGBA)
			out.SetColorIndex(x, y, index[c])
		}
	}
	return out
}
