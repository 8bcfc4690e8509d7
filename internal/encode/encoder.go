package encode

import (
	"fmt"
	"image"
)

// Encoder encodes an image into tile bytes.
type Encoder interface {
	// Encode encodes an image to bytes in the tile format.
	Encode(img image.Image) ([]byte, error)

	// Format returns the format name (e.g. "jpeg", "png", "webp").
	Format() string

	// FileExtension returns the appropriate file extension.
	FileExtension() string
}

// NewEncoder creates an image encoder for the given format.
// Grid formats are encoded by EncodeUTFGrid instead.
func NewEncoder(f Format) (Encoder, error) {
	switch f.Kind {
	case KindJPEG:
		return &JPEGEncoder{Quality: f.Quality}, nil
	case KindPNG:
		return &PNGEncoder{Paletted: f.Paletted}, nil
	case KindWebP:
		return newWebPEncoder(f.Quality, f.Params["lossless"] == "1" || f.Params["lossless"] == "true")
	case KindTIFF:
		return &TIFFEncoder{}, nil
	case KindUTF:
		return nil, fmt.Errorf("format %q is a grid format, not an image format", f.Token)
	default:
		return nil, fmt.Errorf("unsupported tile format: %q", f.Token)
	}
}
