package encode

import (
	"bytes"
	"image"

	"golang.org/x/image/tiff"
)

// TIFFEncoder encodes tiles as deflate-compressed TIFF.
type TIFFEncoder struct{}

func (e *TIFFEncoder) Encode(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := tiff.Encode(&buf, img, &tiff.Options{Compression: tiff.Deflate}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (e *TIFFEncoder) Format() string        { return "tiff" }
func (e *TIFFEncoder) FileExtension() string { return ".tif" }
