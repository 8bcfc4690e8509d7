package encode

import (
	"bytes"
	"image"
	"image/jpeg"
)

// JPEGEncoder encodes tiles as baseline JPEG. Alpha is dropped, so
// transparent pixels come out black.
type JPEGEncoder struct {
	// Quality is 1-100; zero selects DefaultQuality.
	Quality int
}

func (e *JPEGEncoder) quality() int {
	switch {
	case e.Quality <= 0:
		return DefaultQuality
	case e.Quality > 100:
		return 100
	default:
		return e.Quality
	}
}

func (e *JPEGEncoder) Encode(img image.Image) ([]byte, error) {
	b := img.Bounds()
	buf := bytes.NewBuffer(make([]byte, 0, b.Dx()*b.Dy()/4))
	if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: e.quality()}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (e *JPEGEncoder) Format() string        { return "jpeg" }
func (e *JPEGEncoder) FileExtension() string { return ".jpg" }
