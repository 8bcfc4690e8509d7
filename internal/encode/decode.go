package encode

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"

	"github.com/gen2brain/webp"
	"golang.org/x/image/tiff"
)

// DecodeImage decodes tile bytes in the given format back to an image.Image.
func DecodeImage(data []byte, f Format) (image.Image, error) {
	r := bytes.NewReader(data)
	switch f.Kind {
	case KindPNG:
		return png.Decode(r)
	case KindJPEG:
		return jpeg.Decode(r)
	case KindWebP:
		return decodeWebP(r)
	case KindTIFF:
		return tiff.Decode(r)
	default:
		return nil, fmt.Errorf("unsupported decode format: %q", f.Token)
	}
}

// decodeWebP decodes a WebP image. Separated for clarity and to allow
// fallback strategies if the WebP codec API changes.
func decodeWebP(r io.Reader) (image.Image, error) {
	return webp.Decode(r)
}
